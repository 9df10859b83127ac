package e2e

import (
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Rabeel-Ashraf/vllm-playground/internal/httpapi"
	"github.com/Rabeel-Ashraf/vllm-playground/pkg/types"
)

const chattyServer = `echo "INFO: Started server process"; echo "INFO: Uvicorn running" 1>&2; trap 'echo "INFO: Shutting down"; exit 0' TERM; while :; do sleep 0.05; done`

func TestLifecycleOverHTTP(t *testing.T) {
	s := newStack(t, chattyServer)

	var st types.StatusResponse
	s.get(t, "/api/status", &st)
	require.False(t, st.Running)
	require.Nil(t, st.Uptime)
	require.Nil(t, st.Config)

	resp := s.postJSON(t, "/api/start", s.serverConfig(t))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var started types.StartResponse
	decode(t, resp, &started)
	require.Equal(t, "started", started.Status)
	require.Greater(t, started.PID, 0)

	s.get(t, "/api/status", &st)
	require.True(t, st.Running)
	require.NotNil(t, st.Uptime)
	require.NotNil(t, st.Config)
	require.Equal(t, "e2e-model", st.Config.Model)

	resp = s.postJSON(t, "/api/start", s.serverConfig(t))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	require.Equal(t, http.StatusOK, s.get(t, "/readyz", nil).StatusCode)

	resp = s.postJSON(t, "/api/stop", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	s.get(t, "/api/status", &st)
	require.False(t, st.Running)

	resp = s.postJSON(t, "/api/stop", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var last types.ServerConfig
	s.get(t, "/api/config/last", &last)
	require.Equal(t, "e2e-model", last.Model)
}

func TestLogStreamSeesStartupAndShutdown(t *testing.T) {
	s := newStack(t, chattyServer)
	conn := s.dialLogs(t)
	frames := readUntil(t, conn, httpapi.ConnectedLine)
	require.Equal(t, []string{httpapi.ConnectedLine}, frames)
	require.Eventually(t, func() bool { return s.hub.Len() == 1 }, 3*time.Second, 10*time.Millisecond)

	resp := s.postJSON(t, "/api/start", s.serverConfig(t))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	frames = readUntil(t, conn, "Uvicorn running")
	joined := strings.Join(frames, "\n")
	require.Contains(t, joined, "[WEBUI] Using GPU mode")
	require.Contains(t, joined, "[WEBUI] vLLM server starting with PID:")

	resp = s.postJSON(t, "/api/stop", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	frames = readUntil(t, conn, "[WEBUI] vLLM server stopped")
	joined = strings.Join(frames, "\n")
	require.Contains(t, joined, "[WEBUI] Stopping vLLM server...")
	require.Contains(t, joined, "INFO: Shutting down")
	require.Contains(t, joined, "[WEBUI] vLLM process ended normally (exit code: 0)")
}

func TestChatAndCompletionThroughProxy(t *testing.T) {
	s := newStack(t, chattyServer)

	resp := s.postJSON(t, "/api/chat", types.ChatRequest{Messages: []types.ChatMessage{{Role: "user", Content: "hi"}}, Stream: true})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.postJSON(t, "/api/start", s.serverConfig(t))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.postJSON(t, "/api/chat", types.ChatRequest{Messages: []types.ChatMessage{{Role: "user", Content: "hi"}}, Temperature: 0.7, MaxTokens: 16, Stream: true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n"+
		"data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n"+
		"data: [DONE]\n\n", string(body))

	resp = s.postJSON(t, "/api/chat", map[string]any{"messages": []map[string]string{{"role": "user", "content": "hi"}}, "stream": false})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `"model":"e2e-model"`)

	resp = s.postJSON(t, "/api/completion", types.CompletionRequest{Prompt: "Once upon a time"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "gopher")
}

func TestBenchmarkOverHTTP(t *testing.T) {
	s := newStack(t, chattyServer)

	resp := s.postJSON(t, "/api/benchmark/start", types.BenchmarkSpec{TotalRequests: 3, OutputTokens: 10})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.postJSON(t, "/api/start", s.serverConfig(t))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.postJSON(t, "/api/benchmark/start", types.BenchmarkSpec{TotalRequests: 5, RequestRate: 0, PromptTokens: 20, OutputTokens: 10})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var br types.BenchmarkStartResponse
	decode(t, resp, &br)
	require.NotEmpty(t, br.ID)

	var st types.BenchmarkStatus
	require.Eventually(t, func() bool {
		s.get(t, "/api/benchmark/status", &st)
		return !st.Running
	}, 10*time.Second, 20*time.Millisecond)
	require.Equal(t, "completed", st.State)
	require.NotNil(t, st.Results)
	require.Equal(t, 100.0, st.Results.SuccessRate)
	require.Equal(t, 5*10+5*20, st.Results.TotalTokens)

	// a slow run can be cancelled and leaves no result
	resp = s.postJSON(t, "/api/benchmark/start", types.BenchmarkSpec{TotalRequests: 100, RequestRate: 1, OutputTokens: 10})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = s.postJSON(t, "/api/benchmark/stop", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	s.get(t, "/api/benchmark/status", &st)
	require.False(t, st.Running)
	require.Equal(t, "cancelled", st.State)
	require.Nil(t, st.Results)

	resp = s.postJSON(t, "/api/benchmark/stop", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestModelsAndSanity(t *testing.T) {
	s := newStack(t, chattyServer)
	var models types.ModelsResponse
	s.get(t, "/api/models", &models)
	require.Len(t, models.Models, 8)
	require.Equal(t, "facebook/opt-125m", models.Models[0].Name)

	var report map[string]any
	s.get(t, "/api/sanity", &report)
	require.Equal(t, true, report["executable_found"])
}
