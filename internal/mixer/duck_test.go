package mixer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `Sink Input #41
	Driver: protocol-native.c
	Volume: front-left: 65536 / 100% / 0.00 dB,   front-right: 65536 / 100% / 0.00 dB
	Properties:
		application.name = "Firefox"
Sink Input #42
	Volume: front-left: 52428 /  80% / -5.81 dB
	Properties:
		application.name = "vox"
Sink Input #bad
	Volume: 10%
`

type fakeBackend struct {
	streams []Stream
	sets    map[int][]int
}

func (f *fakeBackend) Streams(context.Context) ([]Stream, error) { return f.streams, nil }

func (f *fakeBackend) SetVolume(_ context.Context, id, percent int) error {
	if f.sets == nil {
		f.sets = map[int][]int{}
	}
	f.sets[id] = append(f.sets[id], percent)
	for i := range f.streams {
		if f.streams[i].ID == id {
			f.streams[i].Volume = percent
		}
	}
	return nil
}

func TestParseSinkInputs(t *testing.T) {
	assert.Equal(t, []Stream{
		{ID: 41, Volume: 100, AppName: "Firefox"},
		{ID: 42, Volume: 80, AppName: "vox"},
	}, parseSinkInputs(sample))
	assert.Nil(t, parseSinkInputs("nothing playing"))
}

func TestDuckerRoundTrip(t *testing.T) {
	b := &fakeBackend{streams: parseSinkInputs(sample)}
	d := NewDucker(b, []string{"vox"}, 10)
	d.sleep = func(time.Duration) {}

	require.NoError(t, d.DuckOthers(context.Background(), 0.3, 0))
	assert.Equal(t, []int{30}, b.sets[41])
	assert.NotContains(t, b.sets, 42)

	// Second duck is a no-op while active.
	require.NoError(t, d.DuckOthers(context.Background(), 0.3, 0))
	assert.Len(t, b.sets[41], 1)

	require.NoError(t, d.UnduckOthers(context.Background(), 20*time.Millisecond))
	assert.Equal(t, 100, b.sets[41][len(b.sets[41])-1])
	assert.Equal(t, []int{30, 30, 65, 100}, b.sets[41])
}

func TestDuckerFloor(t *testing.T) {
	b := &fakeBackend{streams: []Stream{{ID: 1, Volume: 20, AppName: "mpv"}}}
	d := NewDucker(b, nil, 15)
	require.NoError(t, d.DuckOthers(context.Background(), 0.1, 0))
	assert.Equal(t, []int{15}, b.sets[1])
}

func TestClampVolume(t *testing.T) {
	assert.Equal(t, 0, clampVolume(-5))
	assert.Equal(t, 150, clampVolume(400))
	assert.Equal(t, 42, clampVolume(42))
}
