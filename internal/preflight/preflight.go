package preflight

import (
	"context"

	"talkclip/internal/config"
	"talkclip/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes the checks applicable to cfg. Sockets are only probed
// for the integrations that are turned on.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Save folder", cfg.Paths.SaveDir),
		CheckDirectoryAccess("State folder", cfg.Paths.StateDir),
		CheckHost(cfg.Host),
	}

	if cfg.Editor.Handoff || cfg.Editor.SyncEnvironment {
		results = append(results, CheckFile("Editor shared memory", cfg.Editor.SharedMemoryPath))
	}
	if cfg.Editor.Handoff {
		results = append(results, CheckSocket(ctx, "Drop helper", cfg.Editor.DropSocket))
	}
	if cfg.Timeline.Enabled {
		results = append(results, CheckSocket(ctx, "Timeline bridge", cfg.Timeline.BridgeSocket))
	}

	return results
}

// CheckHost resolves the speech engine binary.
func CheckHost(h config.Host) Result {
	st := deps.CheckBinaries([]deps.Requirement{deps.HostRequirement(h.Command)})[0]
	if !st.Available {
		return Result{Name: st.Name, Detail: st.Detail}
	}
	return Result{Name: st.Name, Passed: true, Detail: st.Path}
}
