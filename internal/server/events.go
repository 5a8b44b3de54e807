package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"wingetbridge/pkg/manager"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// Frame is one message on an operation event stream. Every event is sent
// as an "event" frame, followed by exactly one "result" frame.
type Frame struct {
	Type   string          `json:"type"`
	Event  *manager.Event  `json:"event,omitempty"`
	Result *manager.Result `json:"result,omitempty"`
}

// handleOperationEvents replays the events of an operation and follows it
// live until the result is available.
func (s *Server) handleOperationEvents(w http.ResponseWriter, r *http.Request) {
	t, ok := s.hub.Get(chi.URLParam(r, "id"))
	if !ok {
		respondWithError(w, http.StatusNotFound, "operation not found")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Debug("websocket upgrade failed")
		return
	}
	defer conn.Close()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	write := func(f Frame) bool {
		conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
		if err := conn.WriteJSON(f); err != nil {
			s.log.WithError(err).Debug("websocket write failed")
			return false
		}
		return true
	}

	next := 0
	for {
		events, notify := t.since(next)
		for i := range events {
			if !write(Frame{Type: "event", Event: &events[i]}) {
				return
			}
		}
		next += len(events)
		if len(events) > 0 {
			continue
		}

		select {
		case <-notify:
		case <-t.op.Done():
			if rest, _ := t.since(next); len(rest) > 0 {
				continue
			}
			res := t.op.Wait()
			if write(Frame{Type: "result", Result: &res}) {
				msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, res.Outcome.String())
				conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait)) //nolint:errcheck
			}
			return
		case <-closed:
			return
		case <-s.ctx.Done():
			return
		}
	}
}
