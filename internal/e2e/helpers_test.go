package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/Rabeel-Ashraf/vllm-playground/internal/bench"
	"github.com/Rabeel-Ashraf/vllm-playground/internal/httpapi"
	"github.com/Rabeel-Ashraf/vllm-playground/internal/logstream"
	"github.com/Rabeel-Ashraf/vllm-playground/internal/manager"
	"github.com/Rabeel-Ashraf/vllm-playground/internal/registry"
	"github.com/Rabeel-Ashraf/vllm-playground/pkg/types"
)

// stack is a playground wired the way serve wires it, with a shell script
// standing in for vLLM and an in-process fake of its OpenAI API.
type stack struct {
	srv      *httptest.Server
	upstream *httptest.Server
	mgr      *manager.Manager
	runner   *bench.Runner
	hub      *logstream.Broadcaster
}

// fakeUpstream answers the vLLM OpenAI routes used by chat, completion and
// the benchmark.
func fakeUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model     string `json:"model"`
			Stream    bool   `json:"stream"`
			MaxTokens int    `json:"max_tokens"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Stream {
			w.Header().Set("Content-Type", "text/event-stream")
			for _, tok := range []string{"Hel", "lo"} {
				fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", tok)
				w.(http.Flusher).Flush()
			}
			fmt.Fprint(w, "data: [DONE]\n\n")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"id":"c1","object":"chat.completion","created":1,"model":%q,`+
			`"choices":[{"index":0,"message":{"role":"assistant","content":"Hello"},"finish_reason":"stop"}],`+
			`"usage":{"prompt_tokens":2,"completion_tokens":%d,"total_tokens":%d}}`, req.Model, req.MaxTokens, req.MaxTokens+2)
	})
	mux.HandleFunc("/v1/completions", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"choices":[{"text":" there was a gopher"}],"usage":{"completion_tokens":5}}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newStack(t *testing.T, script string) *stack {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires /bin/sh")
	}
	hub := logstream.New(nil)
	off := false
	mgr := manager.NewWithConfig(manager.ManagerConfig{
		Entrypoint:     []string{"/bin/sh", "-c", script, "sh"},
		StopTimeout:    2 * time.Second,
		DrainTimeout:   200 * time.Millisecond,
		ReadRetryDelay: 10 * time.Millisecond,
		AutoCPU:        &off,
		Sink:           hub,
	})
	runner := bench.New(bench.Config{Server: mgr, Sink: hub, RequestTimeout: 5 * time.Second})
	srv := httptest.NewServer(httpapi.NewMux(mgr, registry.NewLister(t.TempDir()), runner, hub))
	t.Cleanup(func() {
		runner.Close()
		_ = mgr.Stop()
		srv.Close()
	})
	return &stack{srv: srv, upstream: fakeUpstream(t), mgr: mgr, runner: runner, hub: hub}
}

// serverConfig points the playground at the fake upstream.
func (s *stack) serverConfig(t *testing.T) types.ServerConfig {
	t.Helper()
	host, portStr, err := net.SplitHostPort(s.upstream.Listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	cfg := types.DefaultServerConfig()
	cfg.Model = "e2e-model"
	cfg.Host = host
	cfg.Port = port
	return cfg
}

func (s *stack) postJSON(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(s.srv.URL+path, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (s *stack) get(t *testing.T, path string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(s.srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func (s *stack) dialLogs(t *testing.T) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(s.srv.URL, "http") + "/ws/logs"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil reads frames until one contains substr and returns all frames read.
func readUntil(t *testing.T, conn *websocket.Conn, substr string) []string {
	t.Helper()
	var got []string
	deadline := time.Now().Add(10 * time.Second)
	for {
		require.NoError(t, conn.SetReadDeadline(deadline))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err, "frames so far: %q", got)
		got = append(got, string(data))
		if strings.Contains(string(data), substr) {
			return got
		}
	}
}
