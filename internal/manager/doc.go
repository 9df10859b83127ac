// Package manager supervises a single vLLM OpenAI-compatible server process
// and proxies inference requests to it. It is structured into small files by
// concern:
//
//   - manager.go: core Manager type, constructor, simple getters.
//   - config.go: ManagerConfig and package defaults; NewWithConfig applies defaults.
//   - types.go: supervisor State values.
//   - errors.go: error types and helpers (IsAlreadyRunning, IsUpstream, ...).
//   - events.go: LogSink and the diagnostic line helpers.
//   - launch.go: pure construction of the launch argv/env from a ServerConfig.
//   - process.go: Start/Stop/Shutdown of the child process.
//   - logreader.go: the per-process output pump feeding the LogSink.
//   - status.go: Status and Ready reporting.
//   - proxy.go: Chat and Completion forwarding to the running server.
//   - persist.go: last started config persisted as JSON.
//   - sanity.go: entrypoint availability checks.
//   - metrics.go: Prometheus process and proxy metrics.
//
// At most one child exists at a time. State transitions are made under the
// Manager mutex; slow work (exec, signalling, waiting) happens outside it while
// the transitional Starting/Stopping state keeps competing calls out.
package manager
