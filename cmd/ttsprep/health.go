package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/go-ttsprep/internal/server"
)

func newHealthCmd() *cobra.Command {
	var (
		addr    string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Ask a running ttsprep server for its health report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				cfg, err := requireConfig()
				if err != nil {
					return err
				}
				addr = cfg.Server.ListenAddr
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			health, err := server.ProbeHealth(ctx, addr)
			if err != nil {
				return fmt.Errorf("health %s: %w", addr, err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", health.Status, health.Version)
			return err
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "server address (default: server.listen_addr)")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "give up after this long")

	return cmd
}
