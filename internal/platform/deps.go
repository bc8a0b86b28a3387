package platform

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement defines an external tool the fetch engine relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// ToolStatus reports the availability of a tool.
type ToolStatus struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Path        string
	Detail      string
}

// CheckTools evaluates the provided requirements and reports availability.
func CheckTools(requirements []Requirement) []ToolStatus {
	results := make([]ToolStatus, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := ToolStatus{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		path, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Path = path
		results = append(results, status)
	}
	return results
}
