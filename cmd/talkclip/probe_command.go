package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"talkclip/internal/config"
	"talkclip/internal/editor"
	"talkclip/internal/preflight"
	"talkclip/internal/status"
	"talkclip/internal/timeline"
)

const probeTimeout = 5 * time.Second

type probeReport struct {
	Checks   []preflight.Result `json:"checks"`
	Editor   editorProbe        `json:"editor"`
	Timeline timelineProbe      `json:"timeline"`
}

type editorProbe struct {
	Result  string       `json:"result"`
	Warning string       `json:"warning,omitempty"`
	Running bool         `json:"running"`
	Info    *editor.Info `json:"info,omitempty"`
}

type timelineProbe struct {
	State   string `json:"state"`
	Warning string `json:"warning,omitempty"`
}

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Query the video editor and the timeline tool",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			probeCtx, cancel := context.WithTimeout(cmd.Context(), probeTimeout)
			defer cancel()

			report := probeReport{
				Checks:   preflight.RunAll(probeCtx, cfg),
				Editor:   probeEditor(probeCtx, cfg, editor.ProcScanner{}),
				Timeline: probeTimeline(probeCtx, cfg),
			}
			if asJSON {
				return writeJSON(cmd, report)
			}
			printProbe(cmd.OutOrStdout(), report, shouldColorize(cmd.OutOrStdout()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the probe as JSON")
	return cmd
}

func probeEditor(ctx context.Context, cfg *config.Config, processes editor.ProcessChecker) editorProbe {
	client := editor.Client{
		SharedMemoryPath: cfg.Editor.SharedMemoryPath,
		DropSocket:       cfg.Editor.DropSocket,
	}
	env := editor.Environment{
		Service:     client,
		Processes:   processes,
		ProcessName: cfg.Editor.ProcessName,
	}
	info, res := client.Query(ctx)
	out := editorProbe{
		Result:  res.String(),
		Running: processes.Running(cfg.Editor.ProcessName),
	}
	if res == editor.Success {
		out.Info = &info
		return out
	}
	out.Warning = env.Warning(res)
	return out
}

func probeTimeline(ctx context.Context, cfg *config.Config) timelineProbe {
	bridge := timeline.NewBridge(cfg.Timeline.BridgeSocket)
	defer bridge.Close()

	session := timeline.NewSession(bridge, cfg.Timeline.ProcessName)
	err := session.Attach(ctx)
	out := timelineProbe{State: session.State().String()}
	var warning *timeline.Warning
	if errors.As(err, &warning) {
		out.Warning = warning.Message
	}
	return out
}

func printProbe(w io.Writer, r probeReport, colorize bool) {
	if len(r.Checks) > 0 {
		fmt.Fprintln(w, renderChecks(r.Checks))
	}

	switch {
	case r.Editor.Info != nil:
		fmt.Fprintln(w, renderStatusLine("Editor", status.KindSuccess, "connected", colorize))
		info := r.Editor.Info
		fmt.Fprintln(w, renderPlainLine("Window", yesNo(info.WindowOpened)))
		fmt.Fprintln(w, renderPlainLine("Project", yesNo(info.ProjectOpened)))
		if info.ProjectOpened {
			fmt.Fprintln(w, renderPlainLine("Canvas", fmt.Sprintf("%dx%d", info.Width, info.Height)))
			fmt.Fprintln(w, renderPlainLine("FPS", strconv.FormatFloat(info.FPS, 'f', -1, 64)))
			fmt.Fprintln(w, renderPlainLine("Audio", fmt.Sprintf("%d Hz, %d ch", info.AudioSampleRate, info.AudioChannels)))
		}
		if info.ProjectPath != "" {
			fmt.Fprintln(w, renderPlainLine("Path", info.ProjectPath))
		}
	case r.Editor.Warning != "":
		fmt.Fprintln(w, renderStatusLine("Editor", status.KindWarning, r.Editor.Warning, colorize))
	default:
		fmt.Fprintln(w, renderStatusLine("Editor", status.KindInformation, "not running", colorize))
	}

	switch {
	case r.Timeline.Warning != "":
		fmt.Fprintln(w, renderStatusLine("Timeline", status.KindWarning, r.Timeline.Warning, colorize))
	case r.Timeline.State == timeline.ControlsReady.String():
		fmt.Fprintln(w, renderStatusLine("Timeline", status.KindSuccess, "ready", colorize))
	default:
		fmt.Fprintln(w, renderStatusLine("Timeline", status.KindInformation, "not running", colorize))
	}
}

func renderChecks(results []preflight.Result) string {
	columns := []column{
		{Header: "Check"},
		{Header: "Status"},
		{Header: "Detail", MaxWidth: 60},
	}
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		state := "FAIL"
		if r.Passed {
			state = "OK"
		}
		rows = append(rows, []string{r.Name, state, r.Detail})
	}
	return renderTable(columns, rows)
}
