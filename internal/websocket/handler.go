package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"amen-chat/internal/services"
	"amen-chat/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type Handler struct {
	tokens   *services.TokenService
	messages *services.MessageService
	hub      *Hub
}

func NewHandler(tokens *services.TokenService, messages *services.MessageService, hub *Hub) *Handler {
	return &Handler{tokens: tokens, messages: messages, hub: hub}
}

// inboundFrame is the only client-to-server traffic over the socket.
// Everything that mutates state goes through the HTTP API; the socket
// carries ephemeral typing signals and delivers events.
type inboundFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id"`
	Typing         bool   `json:"typing"`
}

func (h *Handler) Connect(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	claims, err := h.tokens.ParseAccessToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	userID := strings.TrimSpace(claims.UserID)
	client := NewClient(conn, userID)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h.hub.Register(client)
	go client.WriteLoop(ctx)

	conn.SetReadLimit(maxFrameSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))
		h.handleFrame(ctx, userID, data)
	}

	h.hub.Unregister(client)
}

func (h *Handler) handleFrame(ctx context.Context, userID string, data []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return
	}
	if frame.Type != "typing" || frame.ConversationID == "" {
		return
	}
	_ = h.messages.Typing(ctx, frame.ConversationID, userID, frame.Typing)
}
