package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/example/go-ttsprep/internal/device"
)

func newDeviceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "device",
		Short: "Print the compute device and dtype the model should use",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			sel := device.Select(cmd.Context(), device.NvidiaSMI{Path: cfg.Device.ProbeCommand}, slog.Default())

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "device: %s\n", sel.Device)
			_, _ = fmt.Fprintf(out, "dtype: %s\n", sel.DType)
			for _, a := range sel.Accelerators {
				_, _ = fmt.Fprintf(out, "accelerator %d: %s (compute %d.%d)\n", a.Index, a.Name, a.Major, a.Minor)
			}
			return nil
		},
	}
}
