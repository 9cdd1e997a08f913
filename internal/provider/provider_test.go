package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingProvider struct {
	calls atomic.Int32
	reply string
	last  string
}

func (c *countingProvider) Call(_ context.Context, query string) string {
	c.calls.Add(1)
	c.last = query
	return c.reply
}

func jsonServer(t *testing.T, hits *atomic.Int32, handler func(r *http.Request) (int, string)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		status, body := handler(r)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestWikipedia(t *testing.T) {
	t.Run("summary of first hit", func(t *testing.T) {
		srv := jsonServer(t, nil, func(r *http.Request) (int, string) {
			q := r.URL.Query()
			if q.Get("list") == "search" {
				assert.Equal(t, "ada lovelace", q.Get("srsearch"))
				return 200, `{"query":{"search":[{"title":"Ada Lovelace"},{"title":"Other"}]}}`
			}
			assert.Equal(t, "Ada Lovelace", q.Get("titles"))
			assert.Equal(t, "3", q.Get("exsentences"))
			return 200, `{"query":{"pages":{"974":{"title":"Ada Lovelace","extract":"Ada was a mathematician. She wrote notes. They mattered."}}}}`
		})

		w := NewWikipedia(srv.Client(), srv.URL)
		assert.Equal(t, "Ada was a mathematician. She wrote notes. They mattered.", w.Call(context.Background(), "ada lovelace"))
	})

	t.Run("no results", func(t *testing.T) {
		var hits atomic.Int32
		srv := jsonServer(t, &hits, func(*http.Request) (int, string) {
			return 200, `{"query":{"search":[]}}`
		})

		w := NewWikipedia(srv.Client(), srv.URL)
		assert.Equal(t, "No Wikipedia results.", w.Call(context.Background(), "qwzx"))
		assert.Equal(t, int32(1), hits.Load())
	})

	t.Run("upstream failure", func(t *testing.T) {
		srv := jsonServer(t, nil, func(*http.Request) (int, string) {
			return 503, `{}`
		})

		w := NewWikipedia(srv.Client(), srv.URL)
		assert.Contains(t, w.Call(context.Background(), "go"), "Wikipedia lookup failed:")
	})

	t.Run("empty query skips the network", func(t *testing.T) {
		var hits atomic.Int32
		srv := jsonServer(t, &hits, func(*http.Request) (int, string) { return 200, `{}` })

		w := NewWikipedia(srv.Client(), srv.URL)
		assert.Equal(t, "No Wikipedia results.", w.Call(context.Background(), "  "))
		assert.Zero(t, hits.Load())
	})
}

func TestWolfram(t *testing.T) {
	newWolfram := func(t *testing.T, body string) (*Wolfram, *countingProvider, *[]string) {
		srv := jsonServer(t, nil, func(r *http.Request) (int, string) {
			q := r.URL.Query()
			assert.Equal(t, "appid", q.Get("appid"))
			assert.Equal(t, "JSON", q.Get("output"))
			assert.Equal(t, "plaintext", q.Get("format"))
			return 200, body
		})
		lookup := &countingProvider{reply: "Wiki fallback"}
		var notices []string
		w := NewWolfram("appid", srv.Client(), srv.URL, lookup, func(s string) { notices = append(notices, s) })
		return w, lookup, &notices
	}

	t.Run("primary result truncated at parenthesis", func(t *testing.T) {
		w, lookup, notices := newWolfram(t, `{"queryresult":{"success":true,"pods":[
			{"title":"Input interpretation","subpods":[{"plaintext":"2+2"}]},
			{"title":"Result","primary":true,"subpods":[{"plaintext":"4 (four)"}]}]}}`)

		assert.Equal(t, "4", w.Call(context.Background(), "2+2"))
		assert.Zero(t, lookup.calls.Load())
		assert.Empty(t, *notices)
	})

	t.Run("title containing result", func(t *testing.T) {
		w, _, _ := newWolfram(t, `{"queryresult":{"success":true,"pods":[
			{"title":"Input","subpods":[{"plaintext":"x"}]},
			{"title":"Decimal result","subpods":[{"plaintext":"3.14159"}]}]}}`)

		assert.Equal(t, "3.14159", w.Call(context.Background(), "pi"))
	})

	t.Run("failure falls back exactly once", func(t *testing.T) {
		w, lookup, notices := newWolfram(t, `{"queryresult":{"success":false}}`)

		assert.Equal(t, "Wiki fallback", w.Call(context.Background(), "garbage"))
		assert.Equal(t, int32(1), lookup.calls.Load())
		assert.Equal(t, "garbage", lookup.last)
		assert.Equal(t, []string{FallbackNotice}, *notices)
	})

	t.Run("no result pod falls back", func(t *testing.T) {
		w, lookup, notices := newWolfram(t, `{"queryresult":{"success":true,"pods":[
			{"title":"Input","subpods":[{"plaintext":"x"}]}]}}`)

		assert.Equal(t, "Wiki fallback", w.Call(context.Background(), "x"))
		assert.Equal(t, int32(1), lookup.calls.Load())
		assert.Empty(t, *notices)
	})

	t.Run("result pod without plaintext", func(t *testing.T) {
		w, lookup, _ := newWolfram(t, `{"queryresult":{"success":true,"pods":[
			{"title":"Result","primary":true,"subpods":[{"img":{}}]}]}}`)

		got := w.Call(context.Background(), "x")
		assert.True(t, strings.HasPrefix(got, "Wolfram error:"), got)
		assert.Zero(t, lookup.calls.Load())
	})

	t.Run("not configured", func(t *testing.T) {
		lookup := &countingProvider{}
		w := NewWolfram("", http.DefaultClient, "http://127.0.0.1:0", lookup, nil)

		assert.Equal(t, "Wolfram|Alpha is not configured.", w.Call(context.Background(), "1+1"))
		assert.Zero(t, lookup.calls.Load())
	})

	t.Run("upstream failure", func(t *testing.T) {
		srv := jsonServer(t, nil, func(*http.Request) (int, string) { return 500, `oops` })
		w := NewWolfram("appid", srv.Client(), srv.URL, &countingProvider{}, nil)

		assert.Contains(t, w.Call(context.Background(), "1+1"), "Wolfram error:")
	})
}

func TestOpenWeather(t *testing.T) {
	t.Run("current conditions", func(t *testing.T) {
		var hits atomic.Int32
		srv := jsonServer(t, &hits, func(r *http.Request) (int, string) {
			q := r.URL.Query()
			assert.Equal(t, "key", q.Get("appid"))
			switch r.URL.Path {
			case "/geo/1.0/direct":
				assert.Equal(t, "Barcelona", q.Get("q"))
				assert.Equal(t, "1", q.Get("limit"))
				return 200, `[{"name":"Barcelona","lat":41.3888,"lon":2.159}]`
			case "/data/2.5/weather":
				assert.Equal(t, "41.3888", q.Get("lat"))
				assert.Equal(t, "2.159", q.Get("lon"))
				assert.Equal(t, "metric", q.Get("units"))
				return 200, `{"main":{"temp":22.6},"weather":[{"description":"clear sky"}]}`
			}
			return 404, `{}`
		})

		o := NewOpenWeather("key", srv.Client(), srv.URL)
		assert.Equal(t, "The weather in Barcelona: Clear sky, about 23°C.", o.Call(context.Background(), "Barcelona"))
		assert.Equal(t, int32(2), hits.Load())
	})

	t.Run("unknown city makes one call", func(t *testing.T) {
		var hits atomic.Int32
		srv := jsonServer(t, &hits, func(*http.Request) (int, string) { return 200, `[]` })

		o := NewOpenWeather("key", srv.Client(), srv.URL)
		assert.Equal(t, "Could not find 'Atlantis'.", o.Call(context.Background(), "Atlantis"))
		assert.Equal(t, int32(1), hits.Load())
	})

	t.Run("not configured", func(t *testing.T) {
		o := NewOpenWeather("", http.DefaultClient, "http://127.0.0.1:0")
		assert.Equal(t, "OpenWeather is not configured.", o.Call(context.Background(), "Paris"))
	})

	t.Run("malformed weather body", func(t *testing.T) {
		srv := jsonServer(t, nil, func(r *http.Request) (int, string) {
			if r.URL.Path == "/geo/1.0/direct" {
				return 200, `[{"lat":1,"lon":2}]`
			}
			return 200, `{"weather":[]}`
		})

		o := NewOpenWeather("key", srv.Client(), srv.URL)
		assert.Contains(t, o.Call(context.Background(), "Nowhere"), "Weather error:")
	})
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Clear sky", capitalize("clear sky"))
	assert.Equal(t, "Heavy rain", capitalize("HEAVY RAIN"))
	assert.Equal(t, "Éclaircies", capitalize("éclaircies"))
	assert.Equal(t, "", capitalize(""))
}

func TestFunc(t *testing.T) {
	var p Provider = Func(func(_ context.Context, q string) string { return "<" + q + ">" })
	require.Equal(t, "<x>", p.Call(context.Background(), "x"))
}
