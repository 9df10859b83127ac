// Package bench drives a paced, sequential synthetic load against the running
// vLLM server and reports latency and throughput statistics.
package bench

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/Rabeel-Ashraf/vllm-playground/internal/common/netutil"
	"github.com/Rabeel-Ashraf/vllm-playground/pkg/types"
)

// State is the lifecycle state of the most recent run.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateCancelled State = "cancelled"
	StateFailed    State = "failed"
)

const (
	defaultRequestTimeout = 60 * time.Second
	diagPrefix            = "[BENCHMARK] "
	benchTemperature      = 0.7
)

// ServerSource exposes the active vLLM config. ok is false unless the server
// is running.
type ServerSource interface {
	ActiveConfig() (cfg types.ServerConfig, ok bool)
}

// LogSink receives human-readable progress lines.
type LogSink interface {
	Broadcast(line string)
}

// Config wires a Runner.
type Config struct {
	Server ServerSource
	Sink   LogSink
	Logger *zerolog.Logger
	// HTTPClient is used for benchmark requests; a fresh client is built when nil.
	HTTPClient *http.Client
	// RequestTimeout bounds every request (default 60s).
	RequestTimeout time.Duration
	// Recorder, when set, receives every finished run.
	Recorder Recorder
}

// Runner owns at most one benchmark run at a time.
type Runner struct {
	mu     sync.Mutex
	state  State
	id     string
	result *types.BenchmarkResult
	cancel context.CancelFunc
	done   chan struct{}

	server         ServerSource
	sink           LogSink
	log            zerolog.Logger
	httpClient     *http.Client
	requestTimeout time.Duration
	recorder       Recorder
}

// New returns an idle Runner.
func New(cfg Config) *Runner {
	r := &Runner{
		state:          StateIdle,
		server:         cfg.Server,
		sink:           cfg.Sink,
		log:            zerolog.Nop(),
		httpClient:     cfg.HTTPClient,
		requestTimeout: cfg.RequestTimeout,
		recorder:       cfg.Recorder,
	}
	if cfg.Logger != nil {
		r.log = *cfg.Logger
	}
	if r.requestTimeout <= 0 {
		r.requestTimeout = defaultRequestTimeout
	}
	if r.httpClient == nil {
		r.httpClient = netutil.NewClient(0)
	}
	return r
}

func validate(spec types.BenchmarkSpec) error {
	switch {
	case spec.TotalRequests < 0:
		return invalidSpecError{msg: "total_requests must be >= 0"}
	case spec.RequestRate < 0:
		return invalidSpecError{msg: "request_rate must be >= 0"}
	case spec.PromptTokens < 0:
		return invalidSpecError{msg: "prompt_tokens must be >= 0"}
	case spec.OutputTokens <= 0:
		return invalidSpecError{msg: "output_tokens must be > 0"}
	}
	return nil
}

// Start launches a run in the background and returns its id. It fails with
// ErrAlreadyRunning while a run is active and with ErrServerNotRunning when
// the vLLM server is not running. The previous result is discarded.
func (r *Runner) Start(spec types.BenchmarkSpec) (string, error) {
	if err := validate(spec); err != nil {
		return "", err
	}
	r.mu.Lock()
	if r.state == StateRunning {
		r.mu.Unlock()
		return "", ErrAlreadyRunning()
	}
	cfg, ok := r.server.ActiveConfig()
	if !ok {
		r.mu.Unlock()
		return "", ErrServerNotRunning()
	}
	ctx, cancel := context.WithCancel(context.Background())
	id, done := uuid.NewString(), make(chan struct{})
	r.id = id
	r.state = StateRunning
	r.result = nil
	r.cancel = cancel
	r.done = done
	runningGauge.Set(1)
	r.mu.Unlock()

	// Sinks may block on slow observers; never emit under mu.
	r.emit("Starting performance benchmark...")
	r.log.Info().Str("id", id).Int("requests", spec.TotalRequests).Float64("rate", spec.RequestRate).Str("model", cfg.Model).Msg("benchmark start")
	go r.run(ctx, id, spec, cfg, done)
	return id, nil
}

// Status reports whether a run is active and the last final result.
func (r *Runner) Status() types.BenchmarkStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := types.BenchmarkStatus{
		Running: r.state == StateRunning,
		State:   string(r.state),
		ID:      r.id,
	}
	if r.result != nil {
		res := *r.result
		st.Results = &res
	}
	if r.state == StateFailed {
		st.Error = "Benchmark failed"
	}
	return st
}

// Stop cancels the active run and waits for it to exit. The run ends in the
// Cancelled state without a result.
func (r *Runner) Stop() error {
	r.mu.Lock()
	if r.state != StateRunning {
		r.mu.Unlock()
		return ErrNotRunning()
	}
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	r.emit("Benchmark stopped by user")
	cancel()
	<-done
	return nil
}

// Wait blocks until the current run (if any) finishes or ctx is done.
func (r *Runner) Wait(ctx context.Context) error {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels any active run and joins it.
func (r *Runner) Close() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (r *Runner) emit(format string, args ...any) {
	line := diagPrefix + fmt.Sprintf(format, args...)
	if r.sink != nil {
		r.sink.Broadcast(line)
	}
	r.log.Debug().Str("line", line).Msg("diagnostic")
}

// run issues spec.TotalRequests sequential requests. Cancellation is observed
// between requests and during pacing sleeps. Stop also abandons a request
// that is in flight rather than waiting out RequestTimeout, since each
// request context derives from ctx.
func (r *Runner) run(ctx context.Context, id string, spec types.BenchmarkSpec, cfg types.ServerConfig, done chan struct{}) {
	defer close(done)
	defer runningGauge.Set(0)

	r.emit("Configuration: %d requests at %s req/s", spec.TotalRequests, strconv.FormatFloat(spec.RequestRate, 'f', -1, 64))
	client := openai.NewClient(
		option.WithBaseURL(netutil.BaseURL(cfg.Host, cfg.Port)+"/v1/"),
		option.WithAPIKey("EMPTY"),
		option.WithHTTPClient(r.httpClient),
		option.WithMaxRetries(0),
	)
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(cfg.Model),
		Messages:    []openai.ChatCompletionMessageParamUnion{openai.UserMessage(SyntheticPrompt(spec.PromptTokens))},
		MaxTokens:   openai.Int(int64(spec.OutputTokens)),
		Temperature: openai.Float(benchTemperature),
	}

	total := spec.TotalRequests
	step := total / 10
	if step < 1 {
		step = 1
	}
	var samples []Sample
	failed := 0
	start := time.Now()
	for i := 0; i < total; i++ {
		if ctx.Err() != nil {
			r.finish(id, spec, cfg, StateCancelled, nil, len(samples), failed)
			return
		}
		s, err := r.request(ctx, &client, params, spec.OutputTokens)
		if err != nil {
			if ctx.Err() != nil {
				r.finish(id, spec, cfg, StateCancelled, nil, len(samples), failed)
				return
			}
			failed++
			requestsTotal.WithLabelValues("failed").Inc()
			r.log.Warn().Err(err).Int("request", i+1).Msg("benchmark request failed")
		} else {
			samples = append(samples, s)
			requestsTotal.WithLabelValues("ok").Inc()
			requestLatency.Observe(s.LatencyMS / 1000)
		}

		if (i+1)%step == 0 {
			r.emit("Progress: %.0f%% (%d/%d requests)", float64(i+1)/float64(total)*100, i+1, total)
		}
		if spec.RequestRate > 0 && !sleepCtx(ctx, time.Duration(float64(time.Second)/spec.RequestRate)) {
			r.finish(id, spec, cfg, StateCancelled, nil, len(samples), failed)
			return
		}
	}

	res, err := Summarize(samples, spec, time.Since(start))
	if err != nil {
		r.emit("Failed - No successful requests")
		r.finish(id, spec, cfg, StateFailed, nil, len(samples), failed)
		return
	}
	r.emit("Completed! Throughput: %.2f req/s, Avg Latency: %.2fms", res.Throughput, res.AvgLatency)
	r.finish(id, spec, cfg, StateCompleted, &res, len(samples), failed)
}

// request performs one chat completion bounded by RequestTimeout.
func (r *Runner) request(ctx context.Context, client *openai.Client, params openai.ChatCompletionNewParams, outputTokens int) (Sample, error) {
	ctx, cancel := context.WithTimeout(ctx, r.requestTimeout)
	defer cancel()
	start := time.Now()
	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return Sample{}, fmt.Errorf("status %d: %w", apiErr.StatusCode, err)
		}
		return Sample{}, err
	}
	latency := float64(time.Since(start)) / float64(time.Millisecond)
	// A reported zero is kept; only a missing count falls back to the budget.
	tokens := outputTokens
	if n := gjson.Get(resp.RawJSON(), "usage.completion_tokens"); n.Type == gjson.Number {
		tokens = int(n.Int())
	}
	return Sample{LatencyMS: latency, Tokens: tokens}, nil
}

// finish installs the terminal state of run id. A result is only kept for a
// completed run.
func (r *Runner) finish(id string, spec types.BenchmarkSpec, cfg types.ServerConfig, state State, res *types.BenchmarkResult, ok, failed int) {
	if state == StateCancelled {
		r.emit("Benchmark cancelled")
	}
	r.mu.Lock()
	if r.id == id {
		r.state = state
		r.result = res
		r.cancel = nil
	}
	r.mu.Unlock()
	runsTotal.WithLabelValues(string(state)).Inc()
	r.log.Info().Str("id", id).Str("state", string(state)).Int("successful", ok).Int("failed", failed).Msg("benchmark finished")

	if r.recorder != nil {
		rec := Record{ID: id, Model: cfg.Model, State: state, Spec: spec, Result: res, Successful: ok, Failed: failed, FinishedAt: time.Now().UTC()}
		if err := r.recorder.Record(rec); err != nil {
			r.log.Warn().Err(err).Msg("record benchmark result")
		}
	}
}

// sleepCtx sleeps for d and reports false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
