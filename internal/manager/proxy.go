package manager

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/Rabeel-Ashraf/vllm-playground/internal/common/netutil"
	"github.com/Rabeel-Ashraf/vllm-playground/pkg/types"
)

// Upstream endpoints of the vLLM OpenAI-compatible server.
const (
	ChatPath       = "/v1/chat/completions"
	CompletionPath = "/v1/completions"
)

type chatPayload struct {
	Model       string              `json:"model"`
	Messages    []types.ChatMessage `json:"messages"`
	Temperature float64             `json:"temperature"`
	MaxTokens   int                 `json:"max_tokens"`
	Stream      bool                `json:"stream"`
}

type completionPayload struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// Chat forwards req to the chat-completions endpoint using the active model.
// With req.Stream the upstream server-sent events are copied to w verbatim as
// they arrive and flush (if non-nil) is called after every chunk; a
// non-success upstream status becomes a single error event. Without
// req.Stream the complete upstream body is written to w, and a non-success
// status is returned as *UpstreamError.
func (m *Manager) Chat(ctx context.Context, req types.ChatRequest, w io.Writer, flush func()) error {
	cfg, ok := m.ActiveConfig()
	if !ok {
		return ErrServerNotRunning()
	}
	payload := chatPayload{
		Model:       cfg.Model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      req.Stream,
	}
	resp, done, err := m.post(ctx, cfg, ChatPath, payload)
	if err != nil {
		return err
	}
	defer done()
	if req.Stream {
		return m.relayStream(resp, w, flush)
	}
	return m.relayBody(resp, w, ChatPath)
}

// Completion forwards req to the completions endpoint for base models. It
// never streams.
func (m *Manager) Completion(ctx context.Context, req types.CompletionRequest, w io.Writer) error {
	cfg, ok := m.ActiveConfig()
	if !ok {
		return ErrServerNotRunning()
	}
	payload := completionPayload{
		Model:       cfg.Model,
		Prompt:      req.Prompt,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	resp, done, err := m.post(ctx, cfg, CompletionPath, payload)
	if err != nil {
		return err
	}
	defer done()
	return m.relayBody(resp, w, CompletionPath)
}

// post issues a JSON POST bounded by ProxyTimeout. The returned func closes
// the body and releases the deadline.
func (m *Manager) post(ctx context.Context, cfg types.ServerConfig, path string, payload any) (*http.Response, func(), error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("encode request: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, m.proxyTimeout)
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, netutil.BaseURL(cfg.Host, cfg.Port)+path, bytes.NewReader(body))
	if err != nil {
		cancel()
		return nil, nil, err
	}
	hreq.Header.Set("Content-Type", "application/json")
	start := time.Now()
	resp, err := m.client.Do(hreq)
	if err != nil {
		cancel()
		proxyRequestsTotal.WithLabelValues(path, "transport_error").Inc()
		if errors.Is(err, context.Canceled) {
			return nil, nil, err
		}
		return nil, nil, ErrTransport(err)
	}
	proxyRequestsTotal.WithLabelValues(path, itoa(resp.StatusCode)).Inc()
	done := func() {
		_ = resp.Body.Close()
		cancel()
		proxyDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
	}
	return resp, done, nil
}

func (m *Manager) relayStream(resp *http.Response, w io.Writer, flush func()) error {
	if !success(resp.StatusCode) {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		m.log.Warn().Int("status", resp.StatusCode).Str("body", string(b)).Msg("upstream stream error")
		if _, err := io.WriteString(w, streamErrorRecord(resp.StatusCode, b)); err != nil {
			return err
		}
		if flush != nil {
			flush()
		}
		return nil
	}
	buf := make([]byte, 4096)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return werr
			}
			if flush != nil {
				flush()
			}
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			if errors.Is(rerr, context.Canceled) {
				return rerr
			}
			return ErrTransport(rerr)
		}
	}
}

func (m *Manager) relayBody(resp *http.Response, w io.Writer, path string) error {
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return ErrTransport(err)
	}
	if !success(resp.StatusCode) {
		return &UpstreamError{Status: resp.StatusCode, Body: string(b)}
	}
	if n := gjson.GetBytes(b, "usage.completion_tokens").Int(); n > 0 {
		proxyCompletionTokens.WithLabelValues(path).Add(float64(n))
	}
	_, err = w.Write(b)
	return err
}

// streamErrorRecord renders one SSE data event describing an upstream failure.
func streamErrorRecord(status int, body []byte) string {
	rec, _ := sjson.Set("", "error", fmt.Sprintf("Server error: %d", status))
	if len(body) > 0 {
		if gjson.ValidBytes(body) {
			rec, _ = sjson.SetRaw(rec, "detail", string(body))
		} else {
			rec, _ = sjson.Set(rec, "detail", string(body))
		}
	}
	return "data: " + rec + "\n\n"
}

func success(code int) bool { return code >= 200 && code < 300 }
