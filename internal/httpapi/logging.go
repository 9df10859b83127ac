package httpapi

import (
	"bytes"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	zlogGlobal "github.com/rs/zerolog/log"
)

// EnvLogLevel sets the default per-request log level of the HTTP layer.
const EnvLogLevel = "VLLMPG_LOG_LEVEL"

// zlog is an optional structured logger. If unset, the zerolog global logger is used.
var zlog *zerolog.Logger

// SetLogger installs a structured logger used by the HTTP layer.
func SetLogger(l zerolog.Logger) { zlog = &l }

func logger() *zerolog.Logger {
	if zlog != nil {
		return zlog
	}
	return &zlogGlobal.Logger
}

// loggingLineWriter mirrors complete SSE lines of a chat stream to the log.
type loggingLineWriter struct {
	buf []byte
}

func (lw *loggingLineWriter) Write(p []byte) (int, error) {
	lw.buf = append(lw.buf, p...)
	for {
		idx := bytes.IndexByte(lw.buf, '\n')
		if idx < 0 {
			break
		}
		line := strings.TrimRight(string(lw.buf[:idx]), "\r")
		if len(line) > 0 {
			logger().Debug().Msgf("chat> %s", line)
		}
		lw.buf = lw.buf[idx+1:]
	}
	return len(p), nil
}

// LogLevel controls per-request logging behavior.
type LogLevel int

const (
	LevelOff LogLevel = iota
	LevelError
	LevelInfo
	LevelDebug
)

func parseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "":
		return LevelOff
	case "error":
		return LevelError
	case "info":
		return LevelInfo
	case "debug":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// global default, read once
var defaultLogLevel = func() LogLevel {
	v, ok := os.LookupEnv(EnvLogLevel)
	if !ok {
		return LevelInfo
	}
	return parseLevel(v)
}()

func requestLogLevel(r *http.Request) LogLevel {
	if v := r.URL.Query().Get("log"); v != "" {
		if v == "1" {
			return LevelDebug
		}
		return parseLevel(v)
	}
	if v := r.Header.Get("X-Log-Level"); v != "" {
		return parseLevel(v)
	}
	return defaultLogLevel
}

// logRequest writes a start or end record for a proxied call when the
// request's level allows it. status 0 marks the start record.
func logRequest(r *http.Request, lvl LogLevel, msg string, status int, start time.Time, err error) {
	if lvl < LevelInfo && (err == nil || lvl < LevelError) {
		return
	}
	ev := logger().Info()
	if err != nil {
		ev = logger().Error().Err(err)
	}
	ev = ev.Str("path", r.URL.Path)
	if status != 0 {
		ev = ev.Int("status", status).Dur("dur", time.Since(start))
	}
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		ev = ev.Str("request_id", rid)
	}
	ev.Msg(msg)
}
