package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/zmb3/spotify/v2"
)

// SpotifyCatalog implements Catalog on top of the Spotify Web API.
type SpotifyCatalog struct {
	client *spotify.Client
}

func NewSpotifyCatalog(client *spotify.Client) *SpotifyCatalog {
	return &SpotifyCatalog{client: client}
}

func (c *SpotifyCatalog) SearchTrack(ctx context.Context, query string) (*Track, error) {
	res, err := c.client.Search(ctx, query, spotify.SearchTypeTrack, spotify.Limit(1))
	if err != nil {
		return nil, mapSpotifyError(err)
	}
	if res.Tracks == nil || len(res.Tracks.Tracks) == 0 {
		return nil, nil
	}

	t := res.Tracks.Tracks[0]
	track := &Track{
		URI:  string(t.URI),
		Name: t.Name,
	}
	if len(t.Artists) > 0 {
		track.Artist = t.Artists[0].Name
	}
	return track, nil
}

func (c *SpotifyCatalog) Devices(ctx context.Context) ([]Device, error) {
	ds, err := c.client.PlayerDevices(ctx)
	if err != nil {
		return nil, mapSpotifyError(err)
	}

	out := make([]Device, 0, len(ds))
	for _, d := range ds {
		out = append(out, Device{
			ID:     string(d.ID),
			Name:   d.Name,
			Active: d.Active,
		})
	}
	return out, nil
}

func (c *SpotifyCatalog) Transfer(ctx context.Context, deviceID string) error {
	return mapSpotifyError(c.client.TransferPlayback(ctx, spotify.ID(deviceID), true))
}

func (c *SpotifyCatalog) Play(ctx context.Context, deviceID, uri string) error {
	opt := &spotify.PlayOptions{
		URIs: []spotify.URI{spotify.URI(uri)},
	}
	if deviceID != "" {
		id := spotify.ID(deviceID)
		opt.DeviceID = &id
	}
	return mapSpotifyError(c.client.PlayOpt(ctx, opt))
}

func mapSpotifyError(err error) error {
	if err == nil {
		return nil
	}

	var se spotify.Error
	if errors.As(err, &se) && se.Status == http.StatusNotFound {
		msg := strings.ToUpper(se.Message)
		if strings.Contains(msg, "NO_ACTIVE_DEVICE") || strings.Contains(msg, "NO ACTIVE DEVICE") {
			return fmt.Errorf("%w: %s", ErrNoActiveDevice, se.Message)
		}
	}
	return err
}
