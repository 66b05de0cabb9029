// Package deps reports whether the external programs talkclip drives can
// be found.
package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement names one external program.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a requirement. Path is the resolved
// executable when Available.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Path        string
	Detail      string
}

// CheckBinaries resolves each requirement on PATH.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		results = append(results, checkBinary(req))
	}
	return results
}

func checkBinary(req Requirement) Status {
	cmd := strings.TrimSpace(req.Command)
	status := Status{
		Name:        req.Name,
		Command:     cmd,
		Description: strings.TrimSpace(req.Description),
		Optional:    req.Optional,
	}
	if cmd == "" {
		status.Detail = "command not configured"
		return status
	}
	path, err := exec.LookPath(cmd)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", cmd)
		return status
	}
	status.Available = true
	status.Path = path
	return status
}

// HostRequirement describes the speech engine of an argument template.
func HostRequirement(command []string) Requirement {
	req := Requirement{
		Name:        "Speech host",
		Description: "Renders the voice text to audio",
	}
	if len(command) > 0 {
		req.Command = command[0]
	}
	return req
}
