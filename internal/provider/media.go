package provider

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strings"
)

// ErrNoActiveDevice is reported by a Catalog when playback was requested but
// the service has no device to play on.
var ErrNoActiveDevice = errors.New("no active device")

const (
	noDeviceAvailable = "No Spotify device is available. Open the Spotify app on any device (phone/desktop/web), make sure you're logged in, then try again."
	noActiveDevice    = "No active device found. Open Spotify on a device and try again (you can also set a preferred device name)."
	playbackFailed    = "Spotify playback failed."
)

type Track struct {
	URI    string
	Name   string
	Artist string
}

type Device struct {
	ID     string
	Name   string
	Active bool
}

// Catalog is the slice of a music service the media provider needs.
type Catalog interface {
	// SearchTrack returns the top match, or nil when nothing matched.
	SearchTrack(ctx context.Context, query string) (*Track, error)
	Devices(ctx context.Context) ([]Device, error)
	// Transfer moves playback to deviceID and starts playing there.
	Transfer(ctx context.Context, deviceID string) error
	// Play starts uri on deviceID, or on the active device when deviceID is empty.
	Play(ctx context.Context, deviceID, uri string) error
}

type Media struct {
	catalog         Catalog
	preferredDevice string
}

// NewMedia returns a media provider. A nil catalog means the service is not configured.
func NewMedia(catalog Catalog, preferredDevice string) *Media {
	return &Media{
		catalog:         catalog,
		preferredDevice: strings.TrimSpace(preferredDevice),
	}
}

func (m *Media) Call(ctx context.Context, query string) string {
	if m.catalog == nil {
		return "Spotify is not configured."
	}

	track, err := m.catalog.SearchTrack(ctx, query)
	if err != nil {
		return playbackError(err)
	}
	if track == nil {
		return "No track found."
	}

	if m.preferredDevice != "" {
		deviceID, ok := m.ensureActiveDevice(ctx)
		if !ok {
			return noDeviceAvailable
		}
		err = m.catalog.Play(ctx, deviceID, track.URI)
	} else {
		err = m.catalog.Play(ctx, "", track.URI)
	}
	if err != nil {
		return playbackError(err)
	}

	return fmt.Sprintf("Now playing: %s by %s.", track.Name, track.Artist)
}

// ensureActiveDevice picks the preferred device by name, else any active
// device, else transfers playback to the first device the service knows.
func (m *Media) ensureActiveDevice(ctx context.Context) (string, bool) {
	devices, err := m.catalog.Devices(ctx)
	if err != nil {
		log.Error("Failed to list Spotify devices", "err", err)
		return "", false
	}
	if len(devices) == 0 {
		return "", false
	}

	for _, d := range devices {
		if !strings.EqualFold(d.Name, m.preferredDevice) {
			continue
		}
		if !d.Active {
			if err := m.catalog.Transfer(ctx, d.ID); err != nil {
				log.Error("Failed to transfer playback", "device", d.Name, "err", err)
				return "", false
			}
		}
		return d.ID, true
	}

	for _, d := range devices {
		if d.Active {
			return d.ID, true
		}
	}

	target := devices[0]
	if err := m.catalog.Transfer(ctx, target.ID); err != nil {
		log.Error("Failed to transfer playback", "device", target.Name, "err", err)
		return "", false
	}
	return target.ID, true
}

func playbackError(err error) string {
	if errors.Is(err, ErrNoActiveDevice) {
		return noActiveDevice
	}
	log.Error("Spotify error", "err", err)
	return playbackFailed
}
