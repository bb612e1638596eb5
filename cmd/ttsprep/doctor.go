package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/go-ttsprep/internal/device"
	"github.com/example/go-ttsprep/internal/doctor"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run local preflight checks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			result := doctor.Run(cmd.Context(), doctor.Config{
				Prober:  device.NvidiaSMI{Path: cfg.Device.ProbeCommand},
				TempDir: cfg.Audio.TempDir,
			}, cmd.OutOrStdout())

			if result.Failed() {
				for _, f := range result.Failures() {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "FAIL: %s\n", f)
				}

				return errors.New("doctor checks failed")
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "doctor checks passed")

			return nil
		},
	}
}
