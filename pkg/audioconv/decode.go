// Package audioconv turns encoded audio clips into the 16 kHz mono float32 PCM
// whisper expects.
package audioconv

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	popus "github.com/pekim/opus"
)

const TargetRate = 16000

type Format string

const (
	FormatUnknown Format = ""
	FormatWAV     Format = "wav"
	FormatMP3     Format = "mp3"
	FormatOgg     Format = "ogg"
)

var ErrUnsupported = errors.New("unsupported audio format")

type Options struct {
	MaxSamples int
}

// pcm is decoded interleaved audio before conversion.
type pcm struct {
	samples  []float32
	rate     int
	channels int
}

// Sniff identifies the container from the leading bytes.
func Sniff(data []byte) Format {
	switch {
	case len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WAVE":
		return FormatWAV
	case len(data) >= 4 && string(data[:4]) == "OggS":
		return FormatOgg
	case len(data) >= 3 && string(data[:3]) == "ID3":
		return FormatMP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return FormatMP3
	}
	return FormatUnknown
}

// Decode converts an encoded clip to 16 kHz mono samples.
func Decode(data []byte, opt Options) ([]float32, error) {
	var (
		p   pcm
		err error
	)

	switch Sniff(data) {
	case FormatWAV:
		p, err = decodeWAV(bytes.NewReader(data))
	case FormatMP3:
		p, err = decodeMP3(bytes.NewReader(data))
	case FormatOgg:
		p, err = decodeOggVorbis(bytes.NewReader(data))
		if err != nil {
			var opusErr error
			p, opusErr = decodeOggOpus(bytes.NewReader(data))
			if opusErr != nil {
				return nil, fmt.Errorf("ogg is neither vorbis (%v) nor opus (%w)", err, opusErr)
			}
			err = nil
		}
	default:
		return nil, ErrUnsupported
	}
	if err != nil {
		return nil, err
	}

	return finish(p, opt), nil
}

// DecodeFile reads path and decodes it like Decode.
func DecodeFile(path string, opt Options) ([]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data, opt)
}

func finish(p pcm, opt Options) []float32 {
	x := downmixInterleaved(p.samples, p.channels)
	x = resampleLinear(x, p.rate, TargetRate)
	if opt.MaxSamples > 0 && len(x) > opt.MaxSamples {
		x = x[:opt.MaxSamples]
	}
	return x
}

func decodeWAV(r io.ReadSeeker) (pcm, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return pcm{}, errors.New("invalid wav")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return pcm{}, fmt.Errorf("read wav: %w", err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return pcm{}, errors.New("empty wav")
	}

	depth := int(dec.BitDepth)
	if depth == 0 {
		depth = 16
	}
	p := pcm{
		samples:  intSliceToFloat32(buf.Data, depth),
		rate:     44100,
		channels: 1,
	}
	if buf.Format != nil {
		if buf.Format.NumChannels > 0 {
			p.channels = buf.Format.NumChannels
		}
		if buf.Format.SampleRate > 0 {
			p.rate = buf.Format.SampleRate
		}
	}
	return p, nil
}

func decodeMP3(r io.Reader) (pcm, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return pcm{}, fmt.Errorf("mp3: %w", err)
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return pcm{}, fmt.Errorf("mp3: %w", err)
	}

	ints := make([]int16, len(raw)/2)
	if err := binary.Read(bytes.NewReader(raw[:len(ints)*2]), binary.LittleEndian, ints); err != nil {
		return pcm{}, err
	}

	rate := dec.SampleRate()
	if rate <= 0 {
		rate = 44100
	}
	// go-mp3 always emits interleaved 16-bit stereo.
	return pcm{samples: int16SliceToFloat32(ints), rate: rate, channels: 2}, nil
}

func decodeOggVorbis(r io.Reader) (pcm, error) {
	samples, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return pcm{}, err
	}
	if format == nil || format.Channels <= 0 || format.SampleRate <= 0 {
		return pcm{}, errors.New("invalid ogg/vorbis stream")
	}
	return pcm{samples: samples, rate: format.SampleRate, channels: format.Channels}, nil
}

func decodeOggOpus(r io.ReadSeeker) (pcm, error) {
	dec, err := popus.NewDecoder(r)
	if err != nil {
		return pcm{}, err
	}
	defer dec.Destroy()

	ch := max(dec.ChannelCount(), 1)

	// Opus always decodes at 48 kHz; read about half a second per chunk.
	const opusRate = 48000
	var (
		out []float32
		buf = make([]int16, opusRate*ch/2)
	)
	for {
		n, err := dec.Read(buf)
		if n > 0 {
			out = append(out, int16SliceToFloat32(buf[:n*ch])...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return pcm{}, err
		}
	}
	if len(out) == 0 {
		return pcm{}, errors.New("empty opus stream")
	}
	return pcm{samples: out, rate: opusRate, channels: ch}, nil
}
