package manager

import (
	"os/exec"
	"runtime"
)

// SanityReport describes runtime checks for the launch entrypoint.
type SanityReport struct {
	Entrypoint      []string `json:"entrypoint"`
	ExecutableFound bool     `json:"executable_found"`
	ExecutablePath  string   `json:"executable_path,omitempty"`
	Platform        string   `json:"platform"`
	Arch            string   `json:"arch"`
	// CPUModeForced is true when starts default to CPU mode on this host.
	CPUModeForced bool   `json:"cpu_mode_forced"`
	Error         string `json:"error,omitempty"`
}

// SanityCheck validates that the entrypoint executable can be resolved.
// It does not mutate state and is safe to call at any time.
func (m *Manager) SanityCheck() SanityReport {
	r := SanityReport{
		Entrypoint:    m.Entrypoint(),
		Platform:      m.goos,
		Arch:          runtime.GOARCH,
		CPUModeForced: m.autoCPU && m.goos == "darwin",
	}
	path, err := exec.LookPath(m.entrypoint[0])
	if err != nil {
		r.Error = err.Error()
		return r
	}
	r.ExecutableFound = true
	r.ExecutablePath = path
	return r
}
