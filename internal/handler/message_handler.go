package handler

import (
	"net/http"
	"strconv"

	"amen-chat/internal/services"
	"amen-chat/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	service *services.MessageService
}

func NewMessageHandler(service *services.MessageService) *MessageHandler {
	return &MessageHandler{service: service}
}

// Send delivers a message to the recipient. The response carries the
// conversation too because a send can create it, flip it to accepted, or
// consume the single pending slot.
func (h *MessageHandler) Send(c *gin.Context) {
	var req httpdto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	senderID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	msg, conv, err := h.service.Send(c.Request.Context(), senderID, req.RecipientID, req.Text)
	if err != nil {
		c.JSON(httpdto.FromError(err))
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.SendMessageResponse{
		Message:      httpdto.FromMessage(msg),
		Conversation: httpdto.FromConversation(conv, senderID),
	}))
}

func (h *MessageHandler) List(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	items, err := h.service.List(c.Request.Context(), c.Param("id"), userID, limit)
	if err != nil {
		c.JSON(httpdto.FromError(err))
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ListMessagesResponse{
		Messages: httpdto.FromMessageSlice(items),
	}))
}

func (h *MessageHandler) MarkRead(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	err := h.service.MarkRead(c.Request.Context(), c.Param("id"), c.Param("message_id"), userID)
	if err != nil {
		c.JSON(httpdto.FromError(err))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

func (h *MessageHandler) React(c *gin.Context) {
	var req httpdto.ReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	err := h.service.React(c.Request.Context(), c.Param("id"), c.Param("message_id"), userID, req.Emoji)
	if err != nil {
		c.JSON(httpdto.FromError(err))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

// Unreact removes the caller's reaction; an empty emoji means removal.
func (h *MessageHandler) Unreact(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	err := h.service.React(c.Request.Context(), c.Param("id"), c.Param("message_id"), userID, "")
	if err != nil {
		c.JSON(httpdto.FromError(err))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

func (h *MessageHandler) Typing(c *gin.Context) {
	var req httpdto.TypingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	if err := h.service.Typing(c.Request.Context(), c.Param("id"), userID, req.Typing); err != nil {
		c.JSON(httpdto.FromError(err))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}
