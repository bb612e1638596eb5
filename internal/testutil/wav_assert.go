package testutil

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/example/go-ttsprep/internal/audio"
)

// ToneFrames is the number of frames ToneWAV writes for the given length.
func ToneFrames(seconds float64, sampleRate int) int {
	return int(seconds * float64(sampleRate))
}

// AssertPCM16Mono checks the fmt chunk that audio.EncodeWAV writes: integer
// PCM, one channel, 16 bits per sample, at sampleRate.
func AssertPCM16Mono(tb testing.TB, data []byte, sampleRate int) {
	tb.Helper()

	if len(data) < 36 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		tb.Fatalf("not a RIFF/WAVE stream (%d bytes)", len(data))
	}
	if string(data[12:16]) != "fmt " {
		tb.Fatalf("first chunk is %q, want fmt", string(data[12:16]))
	}

	le := binary.LittleEndian
	got := struct{ format, channels, bits, rate int }{
		format:   int(le.Uint16(data[20:22])),
		channels: int(le.Uint16(data[22:24])),
		rate:     int(le.Uint32(data[24:28])),
		bits:     int(le.Uint16(data[34:36])),
	}
	want := struct{ format, channels, bits, rate int }{
		format: 1, channels: 1, bits: 16, rate: sampleRate,
	}
	if got != want {
		tb.Fatalf("fmt chunk = %+v, want %+v", got, want)
	}
}

// AssertFrames decodes data and checks it holds exactly wantFrames frames,
// which also pins its duration to wantFrames/rate seconds.
func AssertFrames(tb testing.TB, data []byte, wantFrames int) audio.PCM {
	tb.Helper()

	pcm, err := audio.DecodeWAV(bytes.NewReader(data))
	if err != nil {
		tb.Fatalf("decode fixture: %v", err)
	}

	if pcm.Frames() != wantFrames {
		tb.Fatalf("frames = %d (%.3fs), want %d", pcm.Frames(), pcm.Seconds(), wantFrames)
	}

	return pcm
}
