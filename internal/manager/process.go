package manager

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/Rabeel-Ashraf/vllm-playground/internal/common/netutil"
	"github.com/Rabeel-Ashraf/vllm-playground/pkg/types"
)

// Start launches the vLLM server described by cfg and returns its pid. It
// fails with ErrAlreadyRunning unless the supervisor is stopped (a crashed
// child counts as stopped). There is no retry on launch failure.
func (m *Manager) Start(cfg types.ServerConfig) (types.StartResponse, error) {
	m.mu.Lock()
	m.reconcileLocked()
	if m.state != StateStopped && m.state != StateCrashed {
		m.mu.Unlock()
		return types.StartResponse{}, ErrAlreadyRunning()
	}
	m.clearLocked(StateStarting)
	m.mu.Unlock()

	if cfg.Port == 0 {
		port, err := netutil.PickFreePort(netutil.DialHost(cfg.Host))
		if err != nil {
			m.abortStart(err)
			return types.StartResponse{}, fmt.Errorf("pick port: %w", err)
		}
		cfg.Port = port
	}

	launch := m.BuildLaunch(cfg)
	for _, note := range launch.Notes {
		m.emit("%s", note)
	}
	m.log.Info().Str("model", launch.Config.Model).Bool("cpu", launch.Config.UseCPU).Str("cmd", launch.CommandLine()).Msg("starting vllm")

	p, err := m.spawn(launch)
	if err != nil {
		m.abortStart(err)
		return types.StartResponse{}, fmt.Errorf("start vllm: %w", err)
	}

	eff := launch.Config
	m.mu.Lock()
	m.proc = p
	m.active = &eff
	m.startedAt = time.Now()
	m.lastExit = nil
	m.state = StateRunning
	m.mu.Unlock()
	setStateMetric(StateRunning)
	startsTotal.WithLabelValues("ok").Inc()

	m.emit("vLLM server starting with PID: %d", p.pid)
	m.emit("Model: %s", eff.Model)
	if eff.UseCPU {
		m.emit("Mode: CPU (KV Cache: %dGB)", eff.CPUKVCacheSpace)
	} else {
		m.emit("Mode: GPU (Memory: %d%%)", int(eff.GPUMemoryUtilization*100))
	}
	m.saveLastConfig(eff)
	return types.StartResponse{Status: "started", PID: p.pid}, nil
}

func (m *Manager) abortStart(err error) {
	m.mu.Lock()
	m.clearLocked(StateStopped)
	m.mu.Unlock()
	startsTotal.WithLabelValues("error").Inc()
	m.emit("Failed to start vLLM server: %v", err)
	m.log.Error().Err(err).Msg("start failed")
}

// spawn starts the child with stdout and stderr sharing one pipe and binds a
// LogReader to it.
func (m *Manager) spawn(l Launch) (*process, error) {
	if len(l.Args) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("pipe: %w", err)
	}
	cmd := exec.Command(l.Args[0], l.Args[1:]...)
	env := append(os.Environ(), m.extraEnv...)
	cmd.Env = append(env, l.Env...)
	cmd.Stdout = pw
	cmd.Stderr = pw
	if err := cmd.Start(); err != nil {
		_ = pr.Close()
		_ = pw.Close()
		return nil, err
	}
	// The child holds its own copy of the write end.
	_ = pw.Close()

	p := &process{
		cmd:        cmd,
		pid:        cmd.Process.Pid,
		done:       make(chan struct{}),
		readerDone: make(chan struct{}),
	}
	go func() {
		err := cmd.Wait()
		p.exitCode = exitCode(cmd.ProcessState, err)
		close(p.done)
	}()
	go m.readLogs(p, pr)
	return p, nil
}

// exitCode reports the child's exit status; death by signal N yields -N.
func exitCode(ps *os.ProcessState, err error) int {
	if ps == nil {
		if err != nil {
			return -1
		}
		return 0
	}
	if ws, ok := ps.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return -int(ws.Signal())
	}
	return ps.ExitCode()
}

// Stop terminates the running child: SIGTERM, then Kill once StopTimeout
// elapses. It fails with ErrNotRunning unless the state is Running; a second
// Stop racing an in-flight one observes Stopping and fails the same way.
func (m *Manager) Stop() error {
	m.mu.Lock()
	m.reconcileLocked()
	if m.state == StateCrashed {
		// Nothing to signal; drop the dead handle.
		m.clearLocked(StateStopped)
		m.mu.Unlock()
		return ErrNotRunning()
	}
	if m.state != StateRunning {
		m.mu.Unlock()
		return ErrNotRunning()
	}
	p := m.proc
	m.state = StateStopping
	m.mu.Unlock()
	setStateMetric(StateStopping)

	m.emit("Stopping vLLM server...")
	m.log.Info().Int("pid", p.pid).Msg("stopping vllm")
	forced := m.terminate(p)
	if forced {
		m.emit("Force killed vLLM server")
	}
	m.waitReader(p)

	m.mu.Lock()
	m.clearLocked(StateStopped)
	m.mu.Unlock()
	if forced {
		stopsTotal.WithLabelValues("killed").Inc()
	} else {
		stopsTotal.WithLabelValues("graceful").Inc()
	}
	m.emit("vLLM server stopped")
	m.log.Info().Int("pid", p.pid).Bool("forced", forced).Msg("vllm stopped")
	return nil
}

// terminate signals p and waits for it to exit, escalating to Kill on timeout.
func (m *Manager) terminate(p *process) (forced bool) {
	if err := p.cmd.Process.Signal(syscall.SIGTERM); err != nil && !p.exited() {
		m.log.Warn().Err(err).Int("pid", p.pid).Msg("sigterm failed")
	}
	timer := time.NewTimer(m.stopTimeout)
	defer timer.Stop()
	select {
	case <-p.done:
		return false
	case <-timer.C:
		_ = p.cmd.Process.Kill()
		<-p.done
		return true
	}
}

// waitReader joins the LogReader of p; it finishes within DrainTimeout of the
// child exiting.
func (m *Manager) waitReader(p *process) {
	timer := time.NewTimer(m.drainTimeout + time.Second)
	defer timer.Stop()
	select {
	case <-p.readerDone:
	case <-timer.C:
		m.log.Warn().Int("pid", p.pid).Msg("log reader did not finish")
	}
}

// Shutdown stops a running child, giving up when ctx is done.
func (m *Manager) Shutdown(ctx context.Context) error {
	if !m.Ready() {
		return nil
	}
	errCh := make(chan error, 1)
	go func() { errCh <- m.Stop() }()
	select {
	case err := <-errCh:
		if IsNotRunning(err) {
			return nil
		}
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
