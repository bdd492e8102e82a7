// Package live serves autocompletion over a websocket. Each text frame carries
// the text typed so far and is answered with the completion context and items
// for its end.
package live

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/conduit-lang/excellent/internal/tooling"
	"github.com/conduit-lang/excellent/internal/web/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 64 * 1024

	sendBuffer = 16
)

// Request is a message from the client
type Request struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Response answers the Request with the same ID
type Response struct {
	ID      string                   `json:"id"`
	Context *string                  `json:"context"`
	Items   []tooling.CompletionItem `json:"items"`
	Error   string                   `json:"error,omitempty"`
}

// Handler upgrades requests to websocket sessions
type Handler struct {
	api      *tooling.API
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates a Handler answering from api. Browsers may only open
// sessions from the server's own origin or one matching allowedOrigins.
func NewHandler(api *tooling.API, logger *zap.Logger, allowedOrigins []string) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		api:    api,
		logger: logger.Named("live"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
	}
}

func checkOrigin(allowedOrigins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			// not a browser
			return true
		}
		if u, err := url.Parse(origin); err == nil && strings.EqualFold(u.Host, r.Host) {
			return true
		}
		return middleware.OriginAllowed(origin, allowedOrigins)
	}
}

// ServeHTTP runs one session for the lifetime of the connection
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied
		h.logger.Debug("upgrade failed", zap.Error(err))
		return
	}

	s := &session{
		id:     uuid.NewString(),
		conn:   conn,
		api:    h.api,
		logger: h.logger,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
		closed: make(chan struct{}),
	}
	s.logger = s.logger.With(zap.String("session", s.id))
	s.logger.Debug("session opened")

	go s.writePump()
	s.readPump(r.Context())
	<-s.closed

	s.logger.Debug("session closed")
}

type session struct {
	id     string
	conn   *websocket.Conn
	api    *tooling.API
	logger *zap.Logger

	// send is only written by readPump and only read by writePump
	send chan []byte
	// done is closed when readPump stops, closed when writePump stops
	done   chan struct{}
	closed chan struct{}
}

func (s *session) readPump(ctx context.Context) {
	defer close(s.done)

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("read failed", zap.Error(err))
			}
			return
		}

		data, err := json.Marshal(s.answer(ctx, message))
		if err != nil {
			s.logger.Error("failed to encode response", zap.Error(err))
			return
		}

		select {
		case s.send <- data:
		case <-s.closed:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *session) answer(ctx context.Context, message []byte) *Response {
	var req Request
	if err := json.Unmarshal(message, &req); err != nil {
		return &Response{Items: []tooling.CompletionItem{}, Error: "invalid message"}
	}

	resp := &Response{ID: req.ID, Items: []tooling.CompletionItem{}}

	path, items, err := s.api.Complete(ctx, req.Text)
	if path != "" {
		resp.Context = &path
	}
	if err != nil {
		s.logger.Warn("completion failed", zap.String("id", req.ID), zap.Error(err))
		resp.Error = "completion unavailable"
		return resp
	}

	resp.Items = items
	return resp
}

func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
		close(s.closed)
	}()

	for {
		select {
		case <-s.done:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = s.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case message := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				s.logger.Debug("write failed", zap.Error(err))
				return
			}

		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
