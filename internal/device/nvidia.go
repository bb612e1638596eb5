package device

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

var errNoComputeCap = errors.New("missing compute capability")

// NvidiaSMI probes accelerators by running nvidia-smi. A missing binary
// means no accelerators rather than an error.
type NvidiaSMI struct {
	// Path to the nvidia-smi executable; empty means "nvidia-smi" from PATH.
	Path string
}

// Accelerators implements Prober.
func (n NvidiaSMI) Accelerators(ctx context.Context) ([]Accelerator, error) {
	exe := n.Path
	if exe == "" {
		exe = "nvidia-smi"
	}

	if _, err := exec.LookPath(exe); err != nil {
		return nil, nil
	}

	out, err := exec.CommandContext(ctx, exe,
		"--query-gpu=index,name,compute_cap",
		"--format=csv,noheader",
	).Output()
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w", exe, err)
	}

	return ParseNvidiaSMI(string(out))
}

// ParseNvidiaSMI parses `index, name, compute_cap` CSV lines as printed by
// `nvidia-smi --query-gpu=index,name,compute_cap --format=csv,noheader`.
func ParseNvidiaSMI(out string) ([]Accelerator, error) {
	var accels []Accelerator
	for line := range strings.Lines(out) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := strings.Split(line, ",")
		if len(fields) < 3 {
			return nil, fmt.Errorf("unexpected nvidia-smi line %q", line)
		}

		idx, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err != nil {
			return nil, fmt.Errorf("bad index in %q: %w", line, err)
		}

		// GPU names may contain commas; the capability is always last.
		capField := strings.TrimSpace(fields[len(fields)-1])
		name := strings.TrimSpace(strings.Join(fields[1:len(fields)-1], ","))

		major, minor, err := parseComputeCap(capField)
		if err != nil {
			return nil, fmt.Errorf("bad compute capability in %q: %w", line, err)
		}

		accels = append(accels, Accelerator{Index: idx, Name: name, Major: major, Minor: minor})
	}

	return accels, nil
}

func parseComputeCap(s string) (major, minor int, err error) {
	if s == "" || strings.EqualFold(s, "[N/A]") {
		return 0, 0, errNoComputeCap
	}

	majorStr, minorStr, _ := strings.Cut(s, ".")
	major, err = strconv.Atoi(majorStr)
	if err != nil {
		return 0, 0, err
	}
	if minorStr != "" {
		minor, err = strconv.Atoi(minorStr)
		if err != nil {
			return 0, 0, err
		}
	}
	return major, minor, nil
}
