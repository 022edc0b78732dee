package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/litescript/ls-skyplan/internal/logging"
	"github.com/litescript/ls-skyplan/internal/resolver"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message types sent on /ws/resolve.
const (
	MessageProgress = "progress"
	MessageResult   = "result"
	MessageError    = "error"
)

// StreamMessage is one websocket frame. Exactly one of Event, Target and
// Error is set, matching Type.
type StreamMessage struct {
	Type   string           `json:"type"`
	Event  *resolver.Event  `json:"event,omitempty"`
	Target *resolver.Target `json:"target,omitempty"`
	Error  string           `json:"error,omitempty"`
	Status int              `json:"status,omitempty"`
}

// streamWriter serialises frames; progress callbacks arrive from the
// resolver's timer goroutine as well as the handler.
type streamWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (sw *streamWriter) send(m StreamMessage) error {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	_ = sw.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return sw.conn.WriteJSON(m)
}

// handleResolveStream upgrades to a websocket, streams phase events while
// ?target= resolves, then sends the result or error and closes.
func (s *Server) handleResolveStream(w http.ResponseWriter, r *http.Request, c *client) {
	target, ok := requireTarget(w, r)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn(r.Context(), "websocket upgrade failed", logging.Err(err))
		return
	}
	defer conn.Close()

	sw := &streamWriter{conn: conn}
	progress := func(e resolver.Event) {
		if err := sw.send(StreamMessage{Type: MessageProgress, Event: &e}); err != nil {
			s.log.Debug(r.Context(), "progress frame dropped", logging.Err(err))
		}
	}

	t, err := c.session.Resolve(r.Context(), target, progress)
	final := StreamMessage{Type: MessageResult, Target: &t}
	if err != nil {
		final = StreamMessage{Type: MessageError, Error: err.Error(), Status: statusFor(err)}
	}
	if err := sw.send(final); err != nil {
		s.log.Debug(r.Context(), "final frame dropped", logging.Err(err))
		return
	}

	sw.mu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	sw.mu.Unlock()
}
