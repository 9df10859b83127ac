package manager

import (
	"net/http"
	"os/exec"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Rabeel-Ashraf/vllm-playground/pkg/types"
)

// Manager owns the vLLM child process, its active configuration and start
// time. All fields guarded by mu change together in Start and Stop.
type Manager struct {
	mu        sync.Mutex
	state     State
	proc      *process
	active    *types.ServerConfig
	startedAt time.Time
	// lastExit is set when a crashed child is reconciled.
	lastExit *int
	last     *types.ServerConfig

	entrypoint     []string
	extraEnv       []string
	goos           string
	autoCPU        bool
	stopTimeout    time.Duration
	proxyTimeout   time.Duration
	drainTimeout   time.Duration
	readRetryDelay time.Duration
	statePath      string

	sink   LogSink
	log    zerolog.Logger
	client *http.Client
}

// process is the handle of one launched child.
type process struct {
	cmd *exec.Cmd
	pid int
	// done is closed once Wait returned; exitCode is valid afterwards.
	done     chan struct{}
	exitCode int
	// readerDone is closed when the LogReader bound to this child returns.
	readerDone chan struct{}
}

func (p *process) exited() bool {
	select {
	case <-p.done:
		return true
	default:
	}
	return false
}

// New constructs a Manager with defaults.
func New() *Manager { return NewWithConfig(ManagerConfig{}) }

// Entrypoint returns a copy of the argv prefix used for launches.
func (m *Manager) Entrypoint() []string { return append([]string(nil), m.entrypoint...) }

// ActiveConfig returns the config of the running child, if any.
func (m *Manager) ActiveConfig() (types.ServerConfig, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reconcileLocked()
	if m.state != StateRunning || m.active == nil {
		return types.ServerConfig{}, false
	}
	return *m.active, true
}

// reconcileLocked moves Running to Crashed when the child exited on its own.
func (m *Manager) reconcileLocked() {
	if m.state == StateRunning && m.proc != nil && m.proc.exited() {
		code := m.proc.exitCode
		m.lastExit = &code
		m.state = StateCrashed
		setStateMetric(StateCrashed)
		crashesTotal.Inc()
		m.log.Warn().Int("pid", m.proc.pid).Int("exit_code", code).Msg("vllm process exited without stop request")
	}
}

// clearLocked drops the handle of a stopped or crashed child.
func (m *Manager) clearLocked(next State) {
	m.proc = nil
	m.active = nil
	m.startedAt = time.Time{}
	m.state = next
	setStateMetric(next)
}
