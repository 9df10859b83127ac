package httpapi

import "time"

// maxBodyBytes controls the maximum allowed request body size for JSON endpoints.
var maxBodyBytes int64 = 1 << 20

// SetMaxBodyBytes allows configuring the maximum request body size.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = 1 << 20
		return
	}
	maxBodyBytes = n
}

// staticDir holds the UI assets served at / and /static/*. Empty disables them.
var staticDir string

// SetStaticDir sets the directory containing index.html and static assets.
func SetStaticDir(dir string) { staticDir = dir }

// WebSocket timing. The idle interval is how long a log connection may go
// without any frame before an empty keep-alive frame is sent.
var (
	wsIdleInterval = 30 * time.Second
	wsWriteTimeout = 10 * time.Second
)

// SetWebSocketTimings overrides the keep-alive interval and per-frame write
// deadline. Non-positive values keep the current setting.
func SetWebSocketTimings(idle, write time.Duration) {
	if idle > 0 {
		wsIdleInterval = idle
	}
	if write > 0 {
		wsWriteTimeout = write
	}
}

// CORS configuration (opt-in). If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for the HTTP server.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
}
