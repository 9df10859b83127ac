package logstream

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrClosed is returned by Send on a closed MemorySubscriber.
var ErrClosed = errors.New("subscriber closed")

// MemorySubscriber records received lines in memory. Useful in tests and as a
// sink for components that only need to observe the stream.
type MemorySubscriber struct {
	id     string
	mu     sync.Mutex
	lines  []string
	closed bool
	notify chan struct{}
}

// NewMemorySubscriber returns an open subscriber with a random id.
func NewMemorySubscriber() *MemorySubscriber {
	return &MemorySubscriber{id: uuid.NewString(), notify: make(chan struct{}, 1)}
}

func (m *MemorySubscriber) ID() string { return m.id }

func (m *MemorySubscriber) Send(line string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.lines = append(m.lines, line)
	select {
	case m.notify <- struct{}{}:
	default:
	}
	return nil
}

// Close makes every later Send fail.
func (m *MemorySubscriber) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
}

// Lines returns a copy of the received lines.
func (m *MemorySubscriber) Lines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.lines))
	copy(out, m.lines)
	return out
}

// Notify is signalled (non-blocking) after each received line.
func (m *MemorySubscriber) Notify() <-chan struct{} { return m.notify }

// MemorySink collects broadcast lines without a hub. It satisfies the line
// sink interfaces of the manager and bench packages.
type MemorySink struct {
	mu    sync.Mutex
	lines []string
}

func NewMemorySink() *MemorySink { return &MemorySink{} }

func (s *MemorySink) Broadcast(line string) {
	if line == "" {
		return
	}
	s.mu.Lock()
	s.lines = append(s.lines, line)
	s.mu.Unlock()
}

func (s *MemorySink) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.lines))
	copy(out, s.lines)
	return out
}
