// Package doctor provides environment preflight checks for ttsprep.
package doctor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/example/go-ttsprep/internal/device"
	"github.com/example/go-ttsprep/internal/text"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// NormalizeFunc is the normalizer under test.
type NormalizeFunc func(string) (string, error)

// Vector is one normalizer self-test case. A vector with Reject set must
// fail with an unsupported-character error.
type Vector struct {
	In     string
	Want   string
	Reject bool
}

// DefaultVectors exercises each pipeline stage once.
var DefaultVectors = []Vector{
	{In: "a\t\tb\n\nc   d", Want: "a b c d"},
	{In: "“Hi”", Want: `"Hi"`},
	{In: "Brand™", Want: "BrandTM"},
	{In: "Hello こんにちは 漢字", Want: "Hello こんにちは 漢字"},
	{In: "ＡＢＣ", Want: "ABC"},
	{In: "Ā", Reject: true},
}

// Config holds injectable dependencies for each doctor check.
type Config struct {
	// Normalize is checked against Vectors. Defaults to text.Normalize.
	Normalize NormalizeFunc
	// Vectors defaults to DefaultVectors.
	Vectors []Vector
	// Prober enumerates accelerators. Nil skips the check.
	Prober device.Prober
	// TempDir must accept new files. Empty means os.TempDir().
	TempDir string
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark.
func Run(ctx context.Context, cfg Config, w io.Writer) Result {
	var res Result

	// ---- normalizer -------------------------------------------------------
	normalize := cfg.Normalize
	if normalize == nil {
		normalize = text.Normalize
	}
	vectors := cfg.Vectors
	if vectors == nil {
		vectors = DefaultVectors
	}
	if err := checkVectors(normalize, vectors); err != nil {
		res.fail(fmt.Sprintf("normalizer: %v", err))
		fmt.Fprintf(w, "%s normalizer: %v\n", FailMark, err)
	} else {
		fmt.Fprintf(w, "%s normalizer: %d vectors ok\n", PassMark, len(vectors))
	}

	// ---- accelerators -----------------------------------------------------
	// Absence of accelerators is reported, not failed: CPU is a valid target.
	if cfg.Prober == nil {
		fmt.Fprintf(w, "%s accelerators: skipped\n", PassMark)
	} else {
		accels, err := cfg.Prober.Accelerators(ctx)
		switch {
		case err != nil:
			res.fail(fmt.Sprintf("accelerators: %v", err))
			fmt.Fprintf(w, "%s accelerators: probe failed (%v)\n", FailMark, err)
		case len(accels) == 0:
			fmt.Fprintf(w, "%s accelerators: none (device %s, dtype %s)\n",
				PassMark, device.DeviceCPU, device.DTypeFloat16)
		default:
			sel := device.Select(ctx, staticProber(accels), nil)
			for _, a := range accels {
				fmt.Fprintf(w, "%s accelerator %d: %s (compute %d.%d)\n", PassMark, a.Index, a.Name, a.Major, a.Minor)
			}
			fmt.Fprintf(w, "%s compute settings: device %s, dtype %s\n", PassMark, sel.Device, sel.DType)
		}
	}

	// ---- temp dir ---------------------------------------------------------
	dir := cfg.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := checkWritable(dir); err != nil {
		res.fail(fmt.Sprintf("temp dir %q: %v", dir, err))
		fmt.Fprintf(w, "%s temp dir %s: not writable (%v)\n", FailMark, dir, err)
	} else {
		fmt.Fprintf(w, "%s temp dir: %s\n", PassMark, dir)
	}

	return res
}

// checkVectors returns an error describing the first vector normalize gets wrong.
func checkVectors(normalize NormalizeFunc, vectors []Vector) error {
	for _, v := range vectors {
		got, err := normalize(v.In)
		if v.Reject {
			if !errors.Is(err, text.ErrUnsupportedCharacter) {
				return fmt.Errorf("%q: want rejection, got (%q, %v)", v.In, got, err)
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("%q: %w", v.In, err)
		}
		if got != v.Want {
			return fmt.Errorf("%q: got %q, want %q", v.In, got, v.Want)
		}
	}
	return nil
}

func checkWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".ttsprep-doctor-*")
	if err != nil {
		return err
	}
	name := f.Name()
	closeErr := f.Close()
	if err := os.Remove(name); err != nil {
		return err
	}
	return closeErr
}

// staticProber replays an already-probed list so the probe runs once.
type staticProber []device.Accelerator

func (p staticProber) Accelerators(context.Context) ([]device.Accelerator, error) {
	return p, nil
}
