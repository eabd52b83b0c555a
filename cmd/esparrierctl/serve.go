package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"esparrier/internal/statusapi"
)

// newServeCmd exposes the read-only local status API described in
// SPEC_FULL.md §4.7. It is additive scaffolding for scripting/monitoring
// use cases; it never issues a write command.
func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:    "serve",
		Short:  "Serve a read-only local HTTP status API for the device",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dev, err := openDevice()
			if err != nil {
				return err
			}
			defer dev.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			infof("status API listening on %s\n", addr)
			return statusapi.New(addr, dev).Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8732", "address to listen on")
	return cmd
}
