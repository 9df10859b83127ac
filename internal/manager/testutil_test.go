package manager

import (
	"context"
	"net"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/Rabeel-Ashraf/vllm-playground/internal/logstream"
	"github.com/Rabeel-Ashraf/vllm-playground/pkg/types"
)

// shEntrypoint runs script under /bin/sh; the vLLM flags become positional
// parameters ($1...) that the script may inspect or ignore.
func shEntrypoint(script string) []string {
	return []string{"/bin/sh", "-c", script, "sh"}
}

func skipIfNoShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires /bin/sh")
	}
}

// newTestManager builds a Manager with short timeouts that records lines.
func newTestManager(t *testing.T, script string) (*Manager, *logstream.MemorySink) {
	t.Helper()
	skipIfNoShell(t)
	sink := logstream.NewMemorySink()
	off := false
	m := NewWithConfig(ManagerConfig{
		Entrypoint:     shEntrypoint(script),
		StopTimeout:    2 * time.Second,
		DrainTimeout:   200 * time.Millisecond,
		ReadRetryDelay: 10 * time.Millisecond,
		AutoCPU:        &off,
		Sink:           sink,
	})
	t.Cleanup(func() { _ = m.Stop() })
	return m, sink
}

func testConfig() types.ServerConfig {
	cfg := types.DefaultServerConfig()
	cfg.Model = "test-model"
	cfg.Host = "127.0.0.1"
	return cfg
}

// waitForLine polls sink until a line containing substr shows up.
func waitForLine(t *testing.T, sink *logstream.MemorySink, substr string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		for _, l := range sink.Lines() {
			if strings.Contains(l, substr) {
				return
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("line %q not seen; got %q", substr, sink.Lines())
}

// waitForState polls Status until it reports want.
func waitForState(t *testing.T, m *Manager, want State) types.StatusResponse {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	var st types.StatusResponse
	for time.Now().Before(deadline) {
		st = m.Status()
		if st.State == string(want) {
			return st
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("state %q not reached; last status %+v", want, st)
	return st
}

func indexOf(lines []string, substr string) int {
	for i, l := range lines {
		if strings.Contains(l, substr) {
			return i
		}
	}
	return -1
}

func hasFlag(args []string, flag string) bool {
	for _, a := range args {
		if a == flag {
			return true
		}
	}
	return false
}

func flagValue(args []string, flag string) (string, bool) {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1], true
		}
	}
	return "", false
}

func serverPort(t *testing.T, ts *httptest.Server) int {
	t.Helper()
	addr, ok := ts.Listener.Addr().(*net.TCPAddr)
	if !ok {
		t.Fatalf("unexpected listener addr %v", ts.Listener.Addr())
	}
	return addr.Port
}

func testCtx(t *testing.T, d time.Duration) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), d)
}
