package audio

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/gordonklaus/portaudio"
)

const (
	SampleRate       = 16000
	frameSize        = 320 // 20ms
	frameDuration    = 20 * time.Millisecond
	silenceThreshRMS = 0.015
	trailingSilence  = 600 * time.Millisecond
)

// ErrListenTimeout is returned when no speech starts within the wait window.
var ErrListenTimeout = errors.New("listen timeout")

type Recorder struct{}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Init() error {
	return portaudio.Initialize()
}

func (r *Recorder) Close() {
	portaudio.Terminate()
}

// Record waits up to wait for speech to start, then captures it until a pause
// or until phraseLimit elapses. Samples are mono float32 at SampleRate.
func (r *Recorder) Record(ctx context.Context, wait, phraseLimit time.Duration) ([]float32, error) {
	buf := make([]float32, frameSize)
	out := make([]float32, 0, SampleRate*3)

	stream, err := portaudio.OpenDefaultStream(1, 0, SampleRate, len(buf), buf)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, err
	}
	defer stream.Stop()

	gate := newSpeechGate(wait, phraseLimit)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := stream.Read(); err != nil {
			return nil, err
		}

		switch gate.feed(frameRMS(buf)) {
		case gateKeep:
			out = append(out, buf...)
		case gateDone:
			return out, nil
		case gateTimeout:
			return nil, ErrListenTimeout
		}
	}
}

type gateVerdict int

const (
	gateSkip gateVerdict = iota
	gateKeep
	gateDone
	gateTimeout
)

// speechGate decides frame by frame whether audio belongs to the utterance.
type speechGate struct {
	waitFrames    int
	phraseFrames  int
	silenceFrames int

	waited   int
	recorded int
	quiet    int
	speaking bool
}

func newSpeechGate(wait, phraseLimit time.Duration) *speechGate {
	return &speechGate{
		waitFrames:    int(wait / frameDuration),
		phraseFrames:  int(phraseLimit / frameDuration),
		silenceFrames: int(trailingSilence / frameDuration),
	}
}

func (g *speechGate) feed(rms float64) gateVerdict {
	loud := rms > silenceThreshRMS

	if !g.speaking {
		if !loud {
			g.waited++
			if g.waitFrames > 0 && g.waited >= g.waitFrames {
				return gateTimeout
			}
			return gateSkip
		}
		g.speaking = true
	}

	g.recorded++
	if loud {
		g.quiet = 0
	} else {
		g.quiet++
		if g.quiet >= g.silenceFrames {
			return gateDone
		}
	}

	if g.phraseFrames > 0 && g.recorded >= g.phraseFrames {
		return gateDone
	}
	return gateKeep
}

func frameRMS(f []float32) float64 {
	if len(f) == 0 {
		return 0
	}
	var s float64
	for _, x := range f {
		s += float64(x * x)
	}
	return math.Sqrt(s / float64(len(f)))
}
