package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"talkclip/internal/api"
	"talkclip/internal/config"
	"talkclip/internal/export"
	"talkclip/internal/exportlock"
	"talkclip/internal/history"
	"talkclip/internal/host"
	"talkclip/internal/logging"
	"talkclip/internal/status"
)

var errExportFailed = errors.New("export failed")

// pipeline bundles what a single export or the API server needs.
type pipeline struct {
	runner *export.Runner
	store  *history.Store
	orch   *export.Orchestrator
}

func (p *pipeline) Close() {
	if p.orch != nil {
		_ = p.orch.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}

func newPipeline(ctx *commandContext, cfg *config.Config) *pipeline {
	logger := ctx.log()
	store, err := history.Open(cfg)
	if err != nil {
		logging.WarnWithContext(logger, "history journal unavailable", "history_unavailable",
			logging.String(logging.FieldErrorHint, "check paths.state_dir"),
			logging.String(logging.FieldImpact, "exports will not be journaled"),
			logging.Error(err),
		)
		store = nil
	}
	orch := export.New(cfg, logger)
	return &pipeline{
		runner: &export.Runner{
			Gate:         exportlock.New(cfg.LockPath()),
			History:      store,
			Orchestrator: orch,
			Logger:       logger,
		},
		store: store,
		orch:  orch,
	}
}

func newHost(cfg *config.Config) host.Host {
	return host.New(cfg.Host)
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var useHostText bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "export [text...]",
		Short: "Save one speech clip with its subtitle and fragment",
		Long: "Save one speech clip. The text comes from the arguments, from stdin " +
			"when no arguments are given, or from the speech host with --host-text.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if useHostText {
				copied := *cfg
				copied.Text.UseHostText = true
				if err := copied.Validate(); err != nil {
					return fmt.Errorf("--host-text: %w", err)
				}
				cfg = &copied
			}

			text := ""
			if !cfg.Text.UseHostText {
				text, err = exportText(cmd, args)
				if err != nil {
					return err
				}
			}

			p := newPipeline(ctx, cfg)
			defer p.Close()

			req, err := export.NewRequest(cfg, newHost(cfg), text)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			out, err := p.runner.Run(runCtx, req)
			if errors.Is(err, exportlock.ErrBusy) {
				return fmt.Errorf("another export is in progress (lock %s)", cfg.LockPath())
			}
			if err != nil {
				return err
			}

			if asJSON {
				if err := writeJSON(cmd, api.FromOutcome(out)); err != nil {
					return err
				}
			} else {
				colorize := shouldColorize(cmd.OutOrStdout())
				for _, line := range renderReport(out.Report, out.AudioPath, colorize) {
					fmt.Fprintln(cmd.OutOrStdout(), line)
				}
			}
			if out.Report.Kind != status.KindSuccess {
				return errExportFailed
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&useHostText, "host-text", false, "Use the text currently held by the speech host")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the outcome as JSON")
	return cmd
}

// exportText joins the arguments, or reads stdin when there are none and
// stdin is not a terminal.
func exportText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && isTerminal(f) {
		return "", errors.New("no text given: pass it as arguments, pipe it on stdin or use --host-text")
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}
