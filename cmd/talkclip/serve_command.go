package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"talkclip/internal/api"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the local HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			addr := strings.TrimSpace(bind)
			if addr == "" {
				addr = cfg.API.Bind
			}

			p := newPipeline(ctx, cfg)
			defer p.Close()

			server := api.NewServer(addr, api.ServerConfig{
				Config:    cfg,
				Runner:    p.runner,
				History:   p.store,
				NewHost:   newHost,
				Logger:    ctx.log(),
				StartTime: time.Now(),
			})

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Start()
			}()
			fmt.Fprintf(cmd.OutOrStdout(), "Serving talkclip API on %s\n", addr)

			select {
			case err := <-errCh:
				return err
			case <-runCtx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown api: %w", err)
			}
			return <-errCh
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (defaults to api.bind)")
	return cmd
}
