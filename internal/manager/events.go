package manager

import "fmt"

// LogSink receives human-readable lines for log observers. Implementations
// must be safe for concurrent use and must not block for long.
type LogSink interface {
	Broadcast(line string)
}

// nopSink is the default; it drops lines.
type nopSink struct{}

func (nopSink) Broadcast(string) {}

// diagPrefix marks lines produced by the playground rather than by vLLM.
const diagPrefix = "[WEBUI] "

// emit publishes a diagnostic line and mirrors it to the debug log.
func (m *Manager) emit(format string, args ...any) {
	line := diagPrefix + fmt.Sprintf(format, args...)
	m.sink.Broadcast(line)
	m.log.Debug().Str("line", line).Msg("diagnostic")
}
