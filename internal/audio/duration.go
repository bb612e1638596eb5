package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// DefaultMinDuration is the minimum reference-audio length in seconds.
const DefaultMinDuration = 30.0

// ErrTooShort matches any *TooShortError via errors.Is.
var ErrTooShort = errors.New("audio too short")

// TooShortError is returned when audio is shorter than the required minimum.
type TooShortError struct {
	Seconds   float64
	Threshold float64
}

func (e *TooShortError) Error() string {
	return fmt.Sprintf(
		"audio is too short: %.2fs, need at least %gs",
		e.Seconds, e.Threshold,
	)
}

func (e *TooShortError) Is(target error) bool {
	return target == ErrTooShort
}

// Gate checks that reference audio meets a minimum duration. Sources may be
// local paths or http(s) URLs. The zero value is ready to use.
type Gate struct {
	// Client fetches remote sources. Defaults to http.DefaultClient.
	Client *http.Client
	// TempDir holds downloads; empty means os.TempDir().
	TempDir string
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// NewGate returns a Gate whose downloads give up after fetchTimeout and land
// in tempDir. A zero fetchTimeout means no limit.
func NewGate(fetchTimeout time.Duration, tempDir string) *Gate {
	return &Gate{
		Client:  &http.Client{Timeout: fetchTimeout},
		TempDir: tempDir,
	}
}

func (g *Gate) client() *http.Client {
	if g.Client != nil {
		return g.Client
	}
	return http.DefaultClient
}

func (g *Gate) logger() *slog.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return slog.Default()
}

// Measure returns the duration of source in seconds. Fetch, open and decode
// errors are returned unchanged.
func (g *Gate) Measure(ctx context.Context, source string) (float64, error) {
	var seconds float64
	err := g.withLocalFile(ctx, source, func(path string) error {
		pcm, err := DecodeWAVFile(path)
		if err != nil {
			return err
		}
		seconds = pcm.Seconds()
		return nil
	})
	return seconds, err
}

// Check returns a *TooShortError if source is shorter than threshold seconds.
func (g *Gate) Check(ctx context.Context, source string, threshold float64) error {
	seconds, err := g.Measure(ctx, source)
	if err != nil {
		return err
	}

	if seconds < threshold {
		return &TooShortError{Seconds: seconds, Threshold: threshold}
	}

	g.logger().Debug("audio duration ok",
		slog.Float64("seconds", seconds),
		slog.Float64("threshold", threshold),
	)
	return nil
}

var defaultGate Gate

// EnsureMinDuration checks source with a zero-value Gate.
func EnsureMinDuration(ctx context.Context, source string, threshold float64) error {
	return defaultGate.Check(ctx, source, threshold)
}
