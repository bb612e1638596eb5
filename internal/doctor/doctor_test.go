package doctor_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/go-ttsprep/internal/device"
	"github.com/example/go-ttsprep/internal/doctor"
	"github.com/example/go-ttsprep/internal/testutil"
)

// ---------------------------------------------------------------------------
// all-pass scenario
// ---------------------------------------------------------------------------

func TestRun_AllChecksPass(t *testing.T) {
	dir := t.TempDir()
	cfg := doctor.Config{
		Prober:  stubProber{},
		TempDir: dir,
	}

	var out strings.Builder
	result := doctor.Run(context.Background(), cfg, &out)

	if result.Failed() {
		t.Errorf("expected all checks to pass; failures: %v", result.Failures())
	}

	for _, want := range []string{"normalizer", "accelerators: none", "temp dir"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output should mention %q; got:\n%s", want, out.String())
		}
	}

	testutil.AssertDirEmpty(t, dir)
}

func TestRun_EveryLineIsMarked(t *testing.T) {
	cfg := doctor.Config{
		Prober:  stubProber{accels: []device.Accelerator{{Index: 0, Name: "NVIDIA A100", Major: 8}}},
		TempDir: t.TempDir(),
	}

	var out strings.Builder
	doctor.Run(context.Background(), cfg, &out)

	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		if !strings.HasPrefix(line, doctor.PassMark) && !strings.HasPrefix(line, doctor.FailMark) {
			t.Errorf("line %q lacks a pass/fail mark", line)
		}
	}
}

// ---------------------------------------------------------------------------
// normalizer self-test
// ---------------------------------------------------------------------------

func TestRun_DefaultVectorsPassWithRealNormalizer(t *testing.T) {
	var out strings.Builder
	result := doctor.Run(context.Background(), doctor.Config{TempDir: t.TempDir()}, &out)

	if hasFailureContaining(result.Failures(), "normalizer") {
		t.Fatalf("normalizer self-test failed: %v", result.Failures())
	}
}

func TestRun_NormalizerMismatchFails(t *testing.T) {
	cfg := doctor.Config{
		Normalize: func(s string) (string, error) { return s, nil },
		TempDir:   t.TempDir(),
	}

	var out strings.Builder
	result := doctor.Run(context.Background(), cfg, &out)

	if !result.Failed() {
		t.Fatal("expected failure for identity normalizer")
	}

	if !hasFailureContaining(result.Failures(), "normalizer") {
		t.Errorf("expected failure mentioning normalizer, got: %v", result.Failures())
	}

	if !strings.Contains(out.String(), doctor.FailMark+" normalizer") {
		t.Errorf("output should mark normalizer as failed; got:\n%s", out.String())
	}
}

func TestRun_NormalizerMustReject(t *testing.T) {
	cfg := doctor.Config{
		Normalize: func(string) (string, error) { return "", nil },
		Vectors:   []doctor.Vector{{In: "Ж", Reject: true}},
		TempDir:   t.TempDir(),
	}

	var out strings.Builder
	result := doctor.Run(context.Background(), cfg, &out)

	if !hasFailureContaining(result.Failures(), "want rejection") {
		t.Errorf("expected rejection failure, got: %v", result.Failures())
	}
}

func TestRun_NormalizerErrorFails(t *testing.T) {
	cfg := doctor.Config{
		Normalize: func(string) (string, error) { return "", sentinelError("broken") },
		TempDir:   t.TempDir(),
	}

	var out strings.Builder
	result := doctor.Run(context.Background(), cfg, &out)

	if !hasFailureContaining(result.Failures(), "broken") {
		t.Errorf("expected failure carrying normalizer error, got: %v", result.Failures())
	}
}

// ---------------------------------------------------------------------------
// accelerators
// ---------------------------------------------------------------------------

func TestRun_ReportsAcceleratorsAndSelection(t *testing.T) {
	cfg := doctor.Config{
		Prober: stubProber{accels: []device.Accelerator{
			{Index: 0, Name: "Tesla T4", Major: 7, Minor: 5},
		}},
		TempDir: t.TempDir(),
	}

	var out strings.Builder
	result := doctor.Run(context.Background(), cfg, &out)

	if result.Failed() {
		t.Fatalf("unexpected failures: %v", result.Failures())
	}

	for _, want := range []string{"Tesla T4", "compute 7.5", "device cuda", "dtype float16"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output should contain %q; got:\n%s", want, out.String())
		}
	}
}

func TestRun_ProbeErrorFails(t *testing.T) {
	cfg := doctor.Config{
		Prober:  stubProber{err: sentinelError("nvidia-smi exited 9")},
		TempDir: t.TempDir(),
	}

	var out strings.Builder
	result := doctor.Run(context.Background(), cfg, &out)

	if !hasFailureContaining(result.Failures(), "accelerators") {
		t.Errorf("expected failure mentioning accelerators, got: %v", result.Failures())
	}
}

func TestRun_NilProberSkips(t *testing.T) {
	var out strings.Builder
	result := doctor.Run(context.Background(), doctor.Config{TempDir: t.TempDir()}, &out)

	if result.Failed() {
		t.Fatalf("unexpected failures: %v", result.Failures())
	}

	if !strings.Contains(out.String(), "accelerators: skipped") {
		t.Errorf("output should report skipped probe; got:\n%s", out.String())
	}
}

// ---------------------------------------------------------------------------
// temp dir
// ---------------------------------------------------------------------------

func TestRun_MissingTempDirFails(t *testing.T) {
	cfg := doctor.Config{TempDir: filepath.Join(t.TempDir(), "does-not-exist")}

	var out strings.Builder
	result := doctor.Run(context.Background(), cfg, &out)

	if !hasFailureContaining(result.Failures(), "temp dir") {
		t.Errorf("expected failure mentioning temp dir, got: %v", result.Failures())
	}
}

func TestRun_TempDirIsAFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	var out strings.Builder
	result := doctor.Run(context.Background(), doctor.Config{TempDir: path}, &out)

	if !result.Failed() {
		t.Fatal("expected failure when temp dir is a regular file")
	}
}

func TestResult_AddFailure(t *testing.T) {
	var r doctor.Result
	if r.Failed() {
		t.Fatal("zero Result should not be failed")
	}

	r.AddFailure("external check")

	got := r.Failures()
	if len(got) != 1 || got[0] != "external check" {
		t.Fatalf("Failures() = %v", got)
	}

	got[0] = "mutated"
	if r.Failures()[0] != "external check" {
		t.Error("Failures() must return a copy")
	}
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

type stubProber struct {
	accels []device.Accelerator
	err    error
}

func (p stubProber) Accelerators(context.Context) ([]device.Accelerator, error) {
	return p.accels, p.err
}

type sentinelError string

func (e sentinelError) Error() string { return string(e) }

func hasFailureContaining(failures []string, substr string) bool {
	substr = strings.ToLower(substr)
	for _, f := range failures {
		if strings.Contains(strings.ToLower(f), substr) {
			return true
		}
	}

	return false
}
