// Package provider holds the capability providers the voice router delegates
// to. Every provider answers with a user-facing string: configuration gaps,
// upstream failures and empty results are all reported as text, never as errors.
package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"
)

const userAgent = "vox/1.0 (voice assistant)"

// Provider answers a free-text query.
type Provider interface {
	Call(ctx context.Context, query string) string
}

// Func adapts a plain function to Provider.
type Func func(ctx context.Context, query string) string

func (f Func) Call(ctx context.Context, query string) string { return f(ctx, query) }

// Notifier receives short interim announcements, e.g. a fallback notice.
type Notifier func(text string)

func getJSON(ctx context.Context, client *http.Client, endpoint string, params url.Values) (gjson.Result, error) {
	u := endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return gjson.Result{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return gjson.Result{}, fmt.Errorf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("invalid JSON response")
	}

	return gjson.ParseBytes(body), nil
}
