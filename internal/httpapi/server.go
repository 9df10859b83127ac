package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Rabeel-Ashraf/vllm-playground/internal/manager"
	"github.com/Rabeel-Ashraf/vllm-playground/pkg/types"
)

// Service defines the supervisor and proxy methods required by the HTTP API layer.
type Service interface {
	Start(cfg types.ServerConfig) (types.StartResponse, error)
	Stop() error
	Status() types.StatusResponse
	Ready() bool
	LastConfig() (types.ServerConfig, bool)
	SanityCheck() manager.SanityReport
	Chat(ctx context.Context, req types.ChatRequest, w io.Writer, flush func()) error
	Completion(ctx context.Context, req types.CompletionRequest, w io.Writer) error
}

// Benchmarker runs synthetic load against the managed server.
type Benchmarker interface {
	Start(spec types.BenchmarkSpec) (string, error)
	Status() types.BenchmarkStatus
	Stop() error
}

// ModelLister provides the entries of GET /api/models.
type ModelLister interface {
	ListModels() ([]types.Model, error)
}

type handlers struct {
	svc   Service
	lst   ModelLister
	bench Benchmarker
	logs  LogHub
}

// NewMux builds the router for the playground API, the log WebSocket and
// the optional static UI.
func NewMux(svc Service, models ModelLister, bench Benchmarker, logs LogHub) http.Handler {
	h := &handlers{svc: svc, lst: models, bench: bench, logs: logs}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(MetricsMiddleware)
	r.Use(middleware.Recoverer)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			MaxAge:         300,
		}))
	}
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/", h.index)
	if staticDir != "" {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", h.status)
		r.Post("/start", h.start)
		r.Post("/stop", h.stop)
		r.Post("/chat", h.chat)
		r.Post("/completion", h.completion)
		r.Get("/models", h.models)
		r.Get("/config/last", h.lastConfig)
		r.Get("/sanity", h.sanity)
		r.Route("/benchmark", func(r chi.Router) {
			r.Post("/start", h.benchStart)
			r.Get("/status", h.benchStatus)
			r.Post("/stop", h.benchStop)
		})
	})

	r.Get("/ws/logs", func(w http.ResponseWriter, r *http.Request) { serveLogs(h.logs, w, r) })

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not running"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)
	return r
}

// decodeJSON reads an optional JSON body into dst, which holds the defaults.
// An empty body keeps the defaults.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.ContentLength != 0 {
		ct := r.Header.Get("Content-Type")
		if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
			writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
			return false
		}
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func (h *handlers) index(w http.ResponseWriter, r *http.Request) {
	if staticDir != "" {
		p := filepath.Join(staticDir, "index.html")
		if _, err := os.Stat(p); err == nil {
			http.ServeFile(w, r, p)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("vLLM playground is running. See /api/status.\n"))
}

// status godoc
// @Summary      Server status
// @Description  Running flag, uptime and active config of the vLLM server
// @Tags         server
// @Produce      json
// @Success      200  {object}  types.StatusResponse
// @Router       /api/status [get]
func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.Status())
}

// start godoc
// @Summary      Start the vLLM server
// @Tags         server
// @Accept       json
// @Produce      json
// @Param        config  body      types.ServerConfig  true  "Server config"
// @Success      200     {object}  types.StartResponse
// @Failure      400     {object}  types.ErrorResponse
// @Router       /api/start [post]
func (h *handlers) start(w http.ResponseWriter, r *http.Request) {
	cfg := types.DefaultServerConfig()
	if !decodeJSON(w, r, &cfg) {
		return
	}
	resp, err := h.svc.Start(cfg)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, resp)
}

// stop godoc
// @Summary      Stop the vLLM server
// @Tags         server
// @Produce      json
// @Success      200  {object}  types.StopResponse
// @Failure      400  {object}  types.ErrorResponse
// @Router       /api/stop [post]
func (h *handlers) stop(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Stop(); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, types.StopResponse{Status: "stopped"})
}

// trackingWriter remembers whether any bytes reached the client.
type trackingWriter struct {
	w     io.Writer
	wrote bool
}

func (t *trackingWriter) Write(p []byte) (int, error) {
	if len(p) > 0 {
		t.wrote = true
	}
	return t.w.Write(p)
}

// chat godoc
// @Summary      Chat with the running model
// @Description  Streams server-sent events when stream is true
// @Tags         inference
// @Accept       json
// @Produce      json
// @Produce      text/event-stream
// @Param        request  body  types.ChatRequest  true  "Chat request"
// @Success      200
// @Failure      400  {object}  types.ErrorResponse
// @Failure      502  {object}  types.ErrorResponse
// @Router       /api/chat [post]
func (h *handlers) chat(w http.ResponseWriter, r *http.Request) {
	req := types.DefaultChatRequest()
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Stream {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
	} else {
		w.Header().Set("Content-Type", "application/json")
	}
	var flush func()
	if f, ok := w.(http.Flusher); ok {
		flush = f.Flush
	}
	lvl := requestLogLevel(r)
	tw := &trackingWriter{w: w}
	var out io.Writer = tw
	if lvl >= LevelDebug && req.Stream {
		out = io.MultiWriter(tw, &loggingLineWriter{})
	}
	start := time.Now()
	logRequest(r, lvl, "chat start", 0, start, nil)

	ctx, cancel := handlerContext(r.Context())
	defer cancel()
	if err := h.svc.Chat(ctx, req, out, flush); err != nil {
		if ctx.Err() != nil || tw.wrote {
			logRequest(r, lvl, "chat aborted", statusOf(err), start, err)
			return
		}
		writeError(w, r, err)
		logRequest(r, lvl, "chat end", statusOf(err), start, err)
		return
	}
	logRequest(r, lvl, "chat end", http.StatusOK, start, nil)
}

// completion godoc
// @Summary      Text completion with the running model
// @Tags         inference
// @Accept       json
// @Produce      json
// @Param        request  body  types.CompletionRequest  true  "Completion request"
// @Success      200
// @Failure      400  {object}  types.ErrorResponse
// @Router       /api/completion [post]
func (h *handlers) completion(w http.ResponseWriter, r *http.Request) {
	req := types.DefaultCompletionRequest()
	if !decodeJSON(w, r, &req) {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	lvl := requestLogLevel(r)
	start := time.Now()
	logRequest(r, lvl, "completion start", 0, start, nil)

	ctx, cancel := handlerContext(r.Context())
	defer cancel()
	tw := &trackingWriter{w: w}
	if err := h.svc.Completion(ctx, req, tw); err != nil {
		if ctx.Err() != nil || tw.wrote {
			return
		}
		writeError(w, r, err)
		logRequest(r, lvl, "completion end", statusOf(err), start, err)
		return
	}
	logRequest(r, lvl, "completion end", http.StatusOK, start, nil)
}

// models godoc
// @Summary      List models
// @Description  Built-in catalog plus models found in the local cache
// @Tags         models
// @Produce      json
// @Success      200  {object}  types.ModelsResponse
// @Router       /api/models [get]
func (h *handlers) models(w http.ResponseWriter, r *http.Request) {
	list, err := h.lst.ListModels()
	if err != nil {
		logger().Warn().Err(err).Msg("list models")
	}
	writeJSON(w, types.ModelsResponse{Models: list})
}

func (h *handlers) lastConfig(w http.ResponseWriter, r *http.Request) {
	cfg, ok := h.svc.LastConfig()
	if !ok {
		writeJSONError(w, http.StatusNotFound, "no previous configuration")
		return
	}
	writeJSON(w, cfg)
}

func (h *handlers) sanity(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.SanityCheck())
}

// benchStart godoc
// @Summary      Start a benchmark
// @Tags         benchmark
// @Accept       json
// @Produce      json
// @Param        spec  body      types.BenchmarkSpec  true  "Benchmark spec"
// @Success      200   {object}  types.BenchmarkStartResponse
// @Failure      400   {object}  types.ErrorResponse
// @Router       /api/benchmark/start [post]
func (h *handlers) benchStart(w http.ResponseWriter, r *http.Request) {
	spec := types.DefaultBenchmarkSpec()
	if !decodeJSON(w, r, &spec) {
		return
	}
	id, err := h.bench.Start(spec)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, types.BenchmarkStartResponse{Status: "started", ID: id})
}

// benchStatus godoc
// @Summary      Benchmark status
// @Tags         benchmark
// @Produce      json
// @Success      200  {object}  types.BenchmarkStatus
// @Router       /api/benchmark/status [get]
func (h *handlers) benchStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.bench.Status())
}

func (h *handlers) benchStop(w http.ResponseWriter, r *http.Request) {
	if err := h.bench.Stop(); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, types.StopResponse{Status: "stopped"})
}
