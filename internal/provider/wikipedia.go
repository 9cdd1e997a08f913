package provider

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net/http"
	"net/url"
	"strings"
)

const (
	DefaultWikipediaURL = "https://en.wikipedia.org"
	summarySentences    = 3
)

type Wikipedia struct {
	client  *http.Client
	baseURL string
}

func NewWikipedia(client *http.Client, baseURL string) *Wikipedia {
	if baseURL == "" {
		baseURL = DefaultWikipediaURL
	}
	return &Wikipedia{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Call returns a short summary of the best matching article.
func (w *Wikipedia) Call(ctx context.Context, query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return "No Wikipedia results."
	}

	title, err := w.search(ctx, query)
	if err != nil {
		log.Error("Wikipedia search failed", "query", query, "err", err)
		return fmt.Sprintf("Wikipedia lookup failed: %v", err)
	}
	if title == "" {
		return "No Wikipedia results."
	}

	summary, err := w.summary(ctx, title)
	if err != nil {
		log.Error("Wikipedia summary failed", "title", title, "err", err)
		return fmt.Sprintf("Wikipedia lookup failed: %v", err)
	}

	return summary
}

func (w *Wikipedia) search(ctx context.Context, query string) (string, error) {
	res, err := getJSON(ctx, w.client, w.baseURL+"/w/api.php", url.Values{
		"action":   {"query"},
		"list":     {"search"},
		"srsearch": {query},
		"srlimit":  {"1"},
		"format":   {"json"},
	})
	if err != nil {
		return "", err
	}
	return res.Get("query.search.0.title").String(), nil
}

func (w *Wikipedia) summary(ctx context.Context, title string) (string, error) {
	res, err := getJSON(ctx, w.client, w.baseURL+"/w/api.php", url.Values{
		"action":      {"query"},
		"prop":        {"extracts"},
		"exsentences": {fmt.Sprint(summarySentences)},
		"explaintext": {"1"},
		"redirects":   {"1"},
		"titles":      {title},
		"format":      {"json"},
	})
	if err != nil {
		return "", err
	}

	extract := strings.TrimSpace(res.Get("query.pages.*.extract").String())
	if extract == "" {
		return "", errors.New("page has no summary")
	}
	return extract, nil
}
