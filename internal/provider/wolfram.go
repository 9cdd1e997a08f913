package provider

import (
	"context"
	"fmt"
	log "log/slog"
	"net/http"
	"net/url"
	"strings"
)

const (
	DefaultWolframURL = "https://api.wolframalpha.com"
	FallbackNotice    = "Computation failed. Querying universal databank."
)

// Wolfram answers computational queries. When the service cannot answer, the
// query is handed once to the fallback provider and its answer is returned.
type Wolfram struct {
	appID    string
	client   *http.Client
	baseURL  string
	fallback Provider
	notify   Notifier
}

func NewWolfram(appID string, client *http.Client, baseURL string, fallback Provider, notify Notifier) *Wolfram {
	if baseURL == "" {
		baseURL = DefaultWolframURL
	}
	if notify == nil {
		notify = func(string) {}
	}
	return &Wolfram{
		appID:    appID,
		client:   client,
		baseURL:  strings.TrimRight(baseURL, "/"),
		fallback: fallback,
		notify:   notify,
	}
}

func (w *Wolfram) Call(ctx context.Context, query string) string {
	if w.appID == "" {
		return "Wolfram|Alpha is not configured."
	}

	res, err := getJSON(ctx, w.client, w.baseURL+"/v2/query", url.Values{
		"appid":  {w.appID},
		"input":  {query},
		"output": {"JSON"},
		"format": {"plaintext"},
	})
	if err != nil {
		log.Error("Wolfram query failed", "query", query, "err", err)
		return fmt.Sprintf("Wolfram error: %v", err)
	}

	qr := res.Get("queryresult")
	if !qr.Get("success").Bool() {
		w.notify(FallbackNotice)
		return w.fallback.Call(ctx, query)
	}

	for _, pod := range qr.Get("pods").Array() {
		title := strings.ToLower(pod.Get("title").String())
		if !pod.Get("primary").Bool() && !strings.Contains(title, "result") {
			continue
		}

		plain := pod.Get("subpods.0.plaintext")
		if !plain.Exists() {
			err := fmt.Errorf("pod %q has no plaintext", pod.Get("title").String())
			log.Error("Wolfram response malformed", "query", query, "err", err)
			return fmt.Sprintf("Wolfram error: %v", err)
		}

		text, _, _ := strings.Cut(plain.String(), "(")
		return strings.TrimSpace(text)
	}

	return w.fallback.Call(ctx, query)
}
