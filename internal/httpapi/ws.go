package httpapi

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Rabeel-Ashraf/vllm-playground/internal/logstream"
)

// ConnectedLine is the first frame every log connection receives.
const ConnectedLine = "[WEBUI] Connected to log stream"

// LogHub registers log subscribers.
type LogHub interface {
	Add(s logstream.Subscriber)
	Remove(s logstream.Subscriber)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     checkOrigin,
}

// checkOrigin accepts same-origin requests and, when CORS is enabled, the
// configured origins.
func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	if !corsEnabled {
		return false
	}
	for _, o := range corsAllowedOrigins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

// wsSubscriber delivers broadcast lines as text frames. Writes are
// serialised and each one is bounded by wsWriteTimeout.
type wsSubscriber struct {
	id        string
	conn      *websocket.Conn
	mu        sync.Mutex
	lastWrite atomic.Int64
}

func newWSSubscriber(conn *websocket.Conn) *wsSubscriber {
	s := &wsSubscriber{id: uuid.NewString(), conn: conn}
	s.lastWrite.Store(time.Now().UnixNano())
	return s
}

func (s *wsSubscriber) ID() string { return s.id }

func (s *wsSubscriber) Send(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
		return err
	}
	s.lastWrite.Store(time.Now().UnixNano())
	return nil
}

func (s *wsSubscriber) idleFor() time.Duration {
	return time.Since(time.Unix(0, s.lastWrite.Load()))
}

// serveLogs upgrades the request and streams broadcast lines until the client
// goes away, a write fails or the server shuts down.
func serveLogs(hub LogHub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		logger().Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	sub := newWSSubscriber(conn)
	if err := sub.Send(ConnectedLine); err != nil {
		return
	}
	hub.Add(sub)
	defer hub.Remove(sub)
	wsConnections.Inc()
	defer wsConnections.Dec()
	logger().Debug().Str("subscriber", sub.id).Str("remote", r.RemoteAddr).Msg("log stream connected")

	// Client frames carry no meaning; reading detects the close.
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	timer := time.NewTimer(wsIdleInterval)
	defer timer.Stop()
	for {
		select {
		case <-readDone:
			logger().Debug().Str("subscriber", sub.id).Msg("log stream disconnected")
			return
		case <-serverBaseCtx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(time.Second))
			return
		case <-timer.C:
			idle := sub.idleFor()
			if idle >= wsIdleInterval {
				if err := sub.Send(""); err != nil {
					return
				}
				wsKeepalivesTotal.Inc()
				idle = 0
			}
			timer.Reset(wsIdleInterval - idle)
		}
	}
}
