// Package mixer lowers the volume of other applications while the assistant speaks.
package mixer

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"
	"time"
)

const (
	maxVolume       = 150
	minStepDuration = 10 * time.Millisecond
)

type fade struct {
	id   int
	from int
	to   int
}

// Ducker fades every stream except its own in and out.
type Ducker struct {
	mu        sync.Mutex
	backend   Backend
	active    bool
	selfNames []string
	original  map[int]int
	minVolume int
	sleep     func(time.Duration)
}

func NewDucker(backend Backend, selfNames []string, minVolume int) *Ducker {
	return &Ducker{
		backend:   backend,
		selfNames: slices.Clone(selfNames),
		original:  make(map[int]int),
		minVolume: clampVolume(minVolume),
		sleep:     time.Sleep,
	}
}

// DuckOthers fades foreign streams to factor of their volume, not below the floor.
func (d *Ducker) DuckOthers(ctx context.Context, factor float64, duration time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active {
		return nil
	}

	streams, err := d.backend.Streams(ctx)
	if err != nil {
		return err
	}

	d.original = make(map[int]int)
	var fades []fade
	for _, s := range streams {
		if slices.Contains(d.selfNames, s.AppName) {
			continue
		}
		target := math.Max(float64(s.Volume)*factor, float64(d.minVolume))
		d.original[s.ID] = s.Volume
		fades = append(fades, fade{id: s.ID, from: s.Volume, to: clampVolume(int(math.Round(target)))})
	}

	if err := d.run(ctx, fades, duration); err != nil {
		return err
	}
	d.active = true
	return nil
}

// UnduckOthers restores the volumes saved by DuckOthers. Streams that appeared
// in between are left alone.
func (d *Ducker) UnduckOthers(ctx context.Context, duration time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.active {
		return nil
	}

	streams, err := d.backend.Streams(ctx)
	if err != nil {
		return err
	}

	var fades []fade
	for _, s := range streams {
		orig, ok := d.original[s.ID]
		if !ok || slices.Contains(d.selfNames, s.AppName) {
			continue
		}
		fades = append(fades, fade{id: s.ID, from: s.Volume, to: orig})
	}

	if err := d.run(ctx, fades, duration); err != nil {
		return err
	}
	d.original = make(map[int]int)
	d.active = false
	return nil
}

func (d *Ducker) run(ctx context.Context, fades []fade, duration time.Duration) error {
	if len(fades) == 0 {
		return nil
	}

	steps := max(int(duration/minStepDuration), 1)
	if duration <= 0 {
		steps = 1
	}
	stepDuration := duration / time.Duration(steps)

	// Step 0 re-applies the current volume, so a zero duration only sets the target.
	first := 0
	if duration <= 0 {
		first = steps
	}

	for i := first; i <= steps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		frac := float64(i) / float64(steps)
		for _, f := range fades {
			v := int(math.Round(float64(f.from) + float64(f.to-f.from)*frac))
			if err := d.backend.SetVolume(ctx, f.id, v); err != nil {
				return fmt.Errorf("set volume id=%d: %w", f.id, err)
			}
		}

		if i < steps {
			d.sleep(stepDuration)
		}
	}

	return nil
}
