package manager

import (
	"fmt"
	"time"

	"github.com/Rabeel-Ashraf/vllm-playground/pkg/types"
)

// Status returns a consistent snapshot of the supervisor. A child that exited
// without a stop request is reported as crashed and not running.
func (m *Manager) Status() types.StatusResponse {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reconcileLocked()

	resp := types.StatusResponse{State: string(m.state)}
	if m.lastExit != nil {
		code := *m.lastExit
		resp.ExitCode = &code
	}
	if m.state == StateRunning && m.proc != nil {
		resp.Running = true
		resp.PID = m.proc.pid
		up := formatUptime(time.Since(m.startedAt))
		resp.Uptime = &up
		if m.active != nil {
			cfg := *m.active
			resp.Config = &cfg
		}
	}
	return resp
}

// Ready reports whether the child is running.
func (m *Manager) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reconcileLocked()
	return m.state == StateRunning
}

// formatUptime renders d as HH:MM:SS; hours are not wrapped.
func formatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	s := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s%3600)/60, s%60)
}
