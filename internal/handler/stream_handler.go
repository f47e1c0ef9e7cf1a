package handler

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"sentiscope/internal/workflow"
)

const (
	streamWriteWait = 10 * time.Second
	streamPongWait  = 60 * time.Second
	streamPingEvery = (streamPongWait * 9) / 10
	streamBuffer    = 16
)

// StreamHandler pushes workflow state changes over a websocket.
type StreamHandler struct {
	sessions SessionRegistry
	upgrader websocket.Upgrader
}

// NewStreamHandler creates a StreamHandler accepting the given origins. An
// empty list accepts any origin.
func NewStreamHandler(sessions SessionRegistry, allowedOrigins []string) *StreamHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &StreamHandler{
		sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || origin == "" || allowed[origin]
			},
		},
	}
}

// StreamEvent is one message sent to the client.
type StreamEvent struct {
	Type  string          `json:"type"`
	State *workflow.State `json:"state,omitempty"`
}

type streamInbound struct {
	Type string `json:"type"`
}

// Stream handles GET /api/v1/sessions/:id/stream
// The current state is sent on connect, then every transition.
func (h *StreamHandler) Stream(c *gin.Context) {
	s, ok := lookupSession(c, h.sessions)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("streamHandler.Stream: upgrade for %s failed: %v", s.ID, err)
		return
	}
	defer func() { _ = conn.Close() }()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(streamPongWait)); err != nil {
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	states, unsubscribe := s.Subscribe(streamBuffer)
	defer unsubscribe()

	writeCh := make(chan StreamEvent, streamBuffer)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		// Closing the connection unblocks the reader when a write fails.
		defer func() { _ = conn.Close() }()
		ticker := time.NewTicker(streamPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case st, ok := <-states:
				if !ok {
					return
				}
				if !writeEvent(conn, StreamEvent{Type: "state", State: &st}) {
					cancel()
					return
				}
			case out := <-writeCh:
				if !writeEvent(conn, out) {
					cancel()
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(streamWriteWait)); err != nil {
					cancel()
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	for {
		var in streamInbound
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-writerDone
			return
		}
		if strings.EqualFold(strings.TrimSpace(in.Type), "ping") {
			select {
			case writeCh <- StreamEvent{Type: "pong"}:
			case <-ctx.Done():
			}
		}
	}
}

func writeEvent(conn *websocket.Conn, ev StreamEvent) bool {
	if err := conn.SetWriteDeadline(time.Now().Add(streamWriteWait)); err != nil {
		return false
	}
	return conn.WriteJSON(ev) == nil
}
