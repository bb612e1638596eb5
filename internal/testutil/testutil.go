// Package testutil provides shared fixtures and skip helpers for tests.
//
// Skip helpers call t.Skip with a clear human-readable reason when the named
// prerequisite is absent, so hardware-dependent tests remain runnable in
// partial environments without failing noisily.
//
// Typical usage:
//
//	func TestGateAcceptsLongAudio(t *testing.T) {
//	    path := testutil.WriteToneWAV(t, t.TempDir(), 31, 8000)
//	    ...
//	}
package testutil

import (
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/example/go-ttsprep/internal/audio"
)

// RequireNvidiaSMI skips the test if the nvidia-smi binary is not found in
// PATH or the path given by the TTSPREP_DEVICE_PROBE_COMMAND environment
// variable.
func RequireNvidiaSMI(tb testing.TB) {
	tb.Helper()

	exe := os.Getenv("TTSPREP_DEVICE_PROBE_COMMAND")
	if exe == "" {
		exe = "nvidia-smi"
	}

	_, err := exec.LookPath(exe)
	if err != nil {
		tb.Skipf("accelerator probe not available (%q not in PATH); set TTSPREP_DEVICE_PROBE_COMMAND to override", exe)
	}
}

// ToneWAV returns WAV bytes holding a 440 Hz mono tone of the given length.
func ToneWAV(tb testing.TB, seconds float64, sampleRate int) []byte {
	tb.Helper()

	samples := make([]float32, ToneFrames(seconds, sampleRate))
	for i := range samples {
		samples[i] = float32(0.25 * math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate)))
	}

	data, err := audio.EncodeWAV(samples, sampleRate)
	if err != nil {
		tb.Fatalf("encode tone WAV: %v", err)
	}

	return data
}

// WriteToneWAV writes a ToneWAV fixture into dir and returns its path.
func WriteToneWAV(tb testing.TB, dir string, seconds float64, sampleRate int) string {
	tb.Helper()

	path := filepath.Join(dir, "tone.wav")
	if err := os.WriteFile(path, ToneWAV(tb, seconds, sampleRate), 0o600); err != nil {
		tb.Fatalf("write tone WAV: %v", err)
	}

	return path
}

// AssertDirEmpty fails the test if dir contains any entries.
func AssertDirEmpty(tb testing.TB, dir string) {
	tb.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		tb.Fatalf("read dir %q: %v", dir, err)
	}

	if len(entries) != 0 {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		tb.Fatalf("expected %q to be empty, found %v", dir, names)
	}
}
