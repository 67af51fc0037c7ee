package service

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/caselens/casefile-be/types"
	"github.com/caselens/casefile-be/utils"
)

const (
	wsReadLimit    = 512 * 1024
	wsReadDeadline = 60 * time.Second
)

// WebSocketService serves the streaming chat over a websocket. Each chat
// frame runs one generation; the protocol events are forwarded to the
// client as event frames. A write failure mid-stream cancels generation,
// so the interrupted answer is never persisted.
type WebSocketService struct {
	chat     *ChatService
	upgrader websocket.Upgrader
	logger   *zap.SugaredLogger
}

func NewWebSocketService(chat *ChatService, logger *zap.SugaredLogger) *WebSocketService {
	return &WebSocketService{
		chat: chat,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins (adjust for production)
			},
		},
		logger: logger,
	}
}

func (s *WebSocketService) HandleChat(w http.ResponseWriter, r *http.Request) {
	claims, err := wsClaims(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(wsReadLimit)
	conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
		return nil
	})

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warnw("websocket read error", "error", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(wsReadDeadline))

		var req types.WebSocketRequest
		if err := json.Unmarshal(frame, &req); err != nil {
			s.writeError(conn, "malformed frame")
			continue
		}

		switch req.Type {
		case types.WS_TYPE_PING:
			if err := conn.WriteJSON(types.WebSocketResponse{Type: types.WS_TYPE_PONG}); err != nil {
				return
			}
		case types.WS_TYPE_CHAT:
			var payload types.ChatMessageRequest
			if err := json.Unmarshal(req.Payload, &payload); err != nil {
				s.writeError(conn, "malformed chat payload")
				continue
			}
			if !s.streamAnswer(r.Context(), conn, claims.ID, payload) {
				return
			}
		default:
			s.writeError(conn, "unknown frame type")
		}
	}
}

// streamAnswer runs one streaming generation, forwarding events as they
// come. Returns false when the connection is no longer usable.
func (s *WebSocketService) streamAnswer(parent context.Context, conn *websocket.Conn, userID string, req types.ChatMessageRequest) bool {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	connBroken := false
	emit := func(event types.StreamEvent) {
		if connBroken {
			return
		}
		if err := conn.WriteJSON(types.WebSocketResponse{Type: types.WS_TYPE_EVENT, Payload: event}); err != nil {
			connBroken = true
			cancel()
		}
	}

	if _, err := s.chat.StreamMessage(ctx, userID, req.ConversationID, req.Content, emit); err != nil {
		if connBroken {
			return false
		}
		s.logger.Errorw("websocket chat failed", "conversation", req.ConversationID, "error", err)
		s.writeError(conn, "failed to generate answer")
	}
	return !connBroken
}

func (s *WebSocketService) writeError(conn *websocket.Conn, message string) {
	conn.WriteJSON(types.WebSocketResponse{
		Type:    types.WS_TYPE_ERROR,
		Payload: types.StreamEvent{Type: types.STREAM_EVENT_ERROR, Error: message},
	})
}

// wsClaims authenticates the websocket handshake. Browsers cannot set
// headers on websocket requests, so the token may come via query string.
func wsClaims(r *http.Request) (*utils.UserClaims, error) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	return utils.ParseUserToken(token)
}
