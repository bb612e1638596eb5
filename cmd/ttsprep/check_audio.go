package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/go-ttsprep/internal/audio"
)

func newCheckAudioCmd() *cobra.Command {
	var minDuration float64

	cmd := &cobra.Command{
		Use:   "check-audio <path-or-url>",
		Short: "Check that reference audio meets the minimum duration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			threshold := cfg.Audio.MinDuration
			if cmd.Flags().Changed("min-duration") {
				threshold = minDuration
			}
			if threshold < 0 {
				return fmt.Errorf("--min-duration must not be negative, got %g", threshold)
			}

			gate := audio.NewGate(time.Duration(cfg.Audio.FetchTimeout)*time.Second, cfg.Audio.TempDir)

			seconds, err := gate.Measure(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "duration: %.2fs (minimum %gs)\n", seconds, threshold)

			if seconds < threshold {
				return &audio.TooShortError{Seconds: seconds, Threshold: threshold}
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&minDuration, "min-duration", audio.DefaultMinDuration,
		"Minimum duration in seconds (overrides audio.min_duration)")

	return cmd
}
