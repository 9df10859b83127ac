// Package logstream fans subprocess output and diagnostic lines out to live
// observers such as WebSocket connections.
package logstream

import (
	"sync"

	"github.com/rs/zerolog"
)

// Subscriber receives broadcast lines. Send must return an error once the
// subscriber can no longer accept lines; it is then dropped for good.
type Subscriber interface {
	ID() string
	Send(line string) error
}

// Broadcaster is the fan-out hub. Lines are delivered in broadcast order to
// every subscriber registered before the call; there is no replay.
type Broadcaster struct {
	// sendMu serialises broadcast passes so each subscriber observes lines in
	// the order Broadcast was called.
	sendMu sync.Mutex
	mu     sync.RWMutex
	subs   map[string]Subscriber
	log    zerolog.Logger
}

// New returns an empty Broadcaster. A nil logger disables logging.
func New(logger *zerolog.Logger) *Broadcaster {
	b := &Broadcaster{subs: make(map[string]Subscriber), log: zerolog.Nop()}
	if logger != nil {
		b.log = *logger
	}
	return b
}

// Add registers s. Re-adding an id replaces the previous subscriber.
func (b *Broadcaster) Add(s Subscriber) {
	b.mu.Lock()
	b.subs[s.ID()] = s
	n := len(b.subs)
	b.mu.Unlock()
	subscribersGauge.Set(float64(n))
	b.log.Debug().Str("subscriber", s.ID()).Int("subscribers", n).Msg("subscriber added")
}

// Remove unregisters s. Unknown subscribers are ignored.
func (b *Broadcaster) Remove(s Subscriber) {
	b.remove(s.ID())
}

func (b *Broadcaster) remove(id string) {
	b.mu.Lock()
	_, ok := b.subs[id]
	delete(b.subs, id)
	n := len(b.subs)
	b.mu.Unlock()
	if ok {
		subscribersGauge.Set(float64(n))
		b.log.Debug().Str("subscriber", id).Int("subscribers", n).Msg("subscriber removed")
	}
}

// Len returns the number of live subscribers.
func (b *Broadcaster) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Broadcast delivers line to every current subscriber. Empty lines are
// ignored. Subscribers whose Send fails are removed after the pass.
func (b *Broadcaster) Broadcast(line string) {
	if line == "" {
		return
	}
	b.sendMu.Lock()
	defer b.sendMu.Unlock()

	b.mu.RLock()
	snapshot := make([]Subscriber, 0, len(b.subs))
	for _, s := range b.subs {
		snapshot = append(snapshot, s)
	}
	b.mu.RUnlock()

	linesTotal.Inc()
	var failed []string
	for _, s := range snapshot {
		if err := s.Send(line); err != nil {
			failed = append(failed, s.ID())
			b.log.Debug().Err(err).Str("subscriber", s.ID()).Msg("send failed")
		}
	}
	for _, id := range failed {
		b.remove(id)
		droppedTotal.Inc()
	}
}

// Close drops every subscriber.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	b.subs = make(map[string]Subscriber)
	b.mu.Unlock()
	subscribersGauge.Set(0)
}
