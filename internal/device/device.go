// Package device picks the compute device and numeric precision for the
// downstream speech model from the accelerators visible on this host.
package device

import (
	"context"
	"log/slog"
)

// Precision and device identifiers understood by the model runtime.
const (
	DTypeFloat16  = "float16"
	DTypeBFloat16 = "bfloat16"

	DeviceCPU  = "cpu"
	DeviceCUDA = "cuda"
)

// bf16MinMajor is the first compute-capability generation with native
// bfloat16 support. Volta (7.0) and Turing (7.5) stay on float16.
const bf16MinMajor = 8

// Accelerator describes one visible accelerator.
type Accelerator struct {
	Index int
	Name  string
	Major int
	Minor int
}

// SupportsBFloat16 reports whether the accelerator's generation handles
// bfloat16 natively.
func (a Accelerator) SupportsBFloat16() bool {
	return a.Major >= bf16MinMajor
}

// Prober enumerates accelerators. An empty list with a nil error means none
// are present.
type Prober interface {
	Accelerators(ctx context.Context) ([]Accelerator, error)
}

// Selection is the outcome of probing the host.
type Selection struct {
	Device       string
	DType        string
	Accelerators []Accelerator
}

// Select probes once and derives both device and dtype. Probe errors are
// logged and treated as "no accelerators".
func Select(ctx context.Context, p Prober, logger *slog.Logger) Selection {
	if logger == nil {
		logger = slog.Default()
	}

	accels, err := p.Accelerators(ctx)
	if err != nil {
		logger.Debug("accelerator probe failed", slog.String("error", err.Error()))
		accels = nil
	}

	sel := Selection{
		Device:       deviceFor(accels),
		DType:        dtypeFor(accels, logger),
		Accelerators: accels,
	}

	logger.Info("using compute settings",
		slog.String("device", sel.Device),
		slog.String("dtype", sel.DType),
		slog.Int("accelerators", len(accels)),
	)

	return sel
}

// SelectDType returns DTypeBFloat16 when the deciding accelerator supports
// it and DTypeFloat16 otherwise.
func SelectDType(ctx context.Context, p Prober) string {
	return Select(ctx, p, nil).DType
}

// SelectDevice returns DeviceCUDA when at least one accelerator is visible
// and DeviceCPU otherwise.
func SelectDevice(ctx context.Context, p Prober) string {
	return Select(ctx, p, nil).Device
}

func deviceFor(accels []Accelerator) string {
	if len(accels) > 0 {
		return DeviceCUDA
	}
	return DeviceCPU
}

// dtypeFor lets the last enumerated accelerator decide, matching the model
// runtime's own device loop. Mixed generations are logged because the
// result then depends on enumeration order.
// TODO: settle on an aggregate policy for mixed-generation hosts once the
// runtime's multi-device placement is known.
func dtypeFor(accels []Accelerator, logger *slog.Logger) string {
	if len(accels) == 0 {
		return DTypeFloat16
	}

	last := accels[len(accels)-1]
	for _, a := range accels[:len(accels)-1] {
		if a.SupportsBFloat16() != last.SupportsBFloat16() {
			logger.Warn("accelerators disagree on bfloat16 support; last one decides",
				slog.Int("deciding_index", last.Index),
				slog.String("deciding_name", last.Name),
				slog.Int("other_index", a.Index),
				slog.String("other_name", a.Name),
			)
			break
		}
	}

	if last.SupportsBFloat16() {
		return DTypeBFloat16
	}
	return DTypeFloat16
}
