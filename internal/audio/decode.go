package audio

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/cwbudde/wav"
)

var (
	// ErrInvalidWAV is returned when the input is not a decodable WAV stream.
	ErrInvalidWAV = errors.New("invalid WAV file")
	// ErrEmptyAudio is returned when a WAV stream has no usable format or samples.
	ErrEmptyAudio = errors.New("empty audio")
)

// PCM is a decoded waveform. Samples are interleaved across channels.
type PCM struct {
	Samples    []float32
	SampleRate int
	Channels   int
}

// Frames returns the number of sample frames (samples per channel).
func (p PCM) Frames() int {
	if p.Channels < 1 {
		return 0
	}
	return len(p.Samples) / p.Channels
}

// Seconds returns the waveform duration in seconds.
func (p PCM) Seconds() float64 {
	if p.SampleRate < 1 {
		return 0
	}
	return float64(p.Frames()) / float64(p.SampleRate)
}

// DecodeWAV decodes a complete WAV stream of any rate, channel count and
// PCM bit depth.
func DecodeWAV(r io.ReadSeeker) (PCM, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return PCM{}, ErrInvalidWAV
	}

	if dec.SampleRate == 0 || dec.NumChans == 0 {
		return PCM{}, fmt.Errorf("%w: sample rate %d, channels %d", ErrEmptyAudio, dec.SampleRate, dec.NumChans)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return PCM{}, err
	}

	return PCM{
		Samples:    buf.Data,
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
	}, nil
}

// DecodeWAVFile opens path and decodes it with DecodeWAV.
func DecodeWAVFile(path string) (PCM, error) {
	f, err := os.Open(path)
	if err != nil {
		return PCM{}, err
	}
	defer f.Close()

	return DecodeWAV(f)
}
