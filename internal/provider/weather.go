package provider

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"
)

const DefaultOpenWeatherURL = "https://api.openweathermap.org"

type OpenWeather struct {
	apiKey  string
	client  *http.Client
	baseURL string
}

func NewOpenWeather(apiKey string, client *http.Client, baseURL string) *OpenWeather {
	if baseURL == "" {
		baseURL = DefaultOpenWeatherURL
	}
	return &OpenWeather{
		apiKey:  apiKey,
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Call resolves city to coordinates and reports the current conditions there.
func (o *OpenWeather) Call(ctx context.Context, city string) string {
	if o.apiKey == "" {
		return "OpenWeather is not configured."
	}

	geo, err := getJSON(ctx, o.client, o.baseURL+"/geo/1.0/direct", url.Values{
		"q":     {city},
		"limit": {"1"},
		"appid": {o.apiKey},
	})
	if err != nil {
		log.Error("Geocoding failed", "city", city, "err", err)
		return fmt.Sprintf("Weather error: %v", err)
	}

	place := geo.Get("0")
	if !place.Exists() {
		return fmt.Sprintf("Could not find '%s'.", city)
	}

	wx, err := getJSON(ctx, o.client, o.baseURL+"/data/2.5/weather", url.Values{
		"lat":   {place.Get("lat").Raw},
		"lon":   {place.Get("lon").Raw},
		"appid": {o.apiKey},
		"units": {"metric"},
	})
	if err != nil {
		log.Error("Weather lookup failed", "city", city, "err", err)
		return fmt.Sprintf("Weather error: %v", err)
	}

	temp := wx.Get("main.temp")
	if !temp.Exists() {
		err := errors.New("response has no temperature")
		log.Error("Weather lookup failed", "city", city, "err", err)
		return fmt.Sprintf("Weather error: %v", err)
	}
	desc := capitalize(wx.Get("weather.0.description").String())

	return fmt.Sprintf("The weather in %s: %s, about %d°C.", city, desc, int(math.RoundToEven(temp.Float())))
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	s = strings.ToLower(s)
	r, n := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[n:]
}
