package handler

import (
	"context"
	"net/http"

	"amen-chat/internal/domain/conversation"
	"amen-chat/internal/services"
	"amen-chat/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type ConversationHandler struct {
	service *services.ConversationService
}

func NewConversationHandler(service *services.ConversationService) *ConversationHandler {
	return &ConversationHandler{service: service}
}

// Open resolves permissions against the target user and returns the
// conversation between the pair, creating it if this is first contact.
func (h *ConversationHandler) Open(c *gin.Context) {
	var req httpdto.OpenConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	callerID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	conv, err := h.service.Open(c.Request.Context(), callerID, req.UserID)
	if err != nil {
		c.JSON(httpdto.FromError(err))
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromConversation(conv, callerID)))
}

func (h *ConversationHandler) List(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	includeArchived := c.Query("include_archived") == "true"
	items, err := h.service.List(c.Request.Context(), userID, includeArchived)
	if err != nil {
		c.JSON(httpdto.FromError(err))
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ListConversationsResponse{
		Conversations: httpdto.FromConversationSlice(items, userID),
		Total:         len(items),
	}))
}

func (h *ConversationHandler) GetByID(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	conv, err := h.service.Get(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		c.JSON(httpdto.FromError(err))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromConversation(conv, userID)))
}

func (h *ConversationHandler) Accept(c *gin.Context) {
	h.transition(c, h.service.Accept)
}

func (h *ConversationHandler) Decline(c *gin.Context) {
	h.transition(c, h.service.Decline)
}

func (h *ConversationHandler) Mute(c *gin.Context)      { h.setFlag(c, h.service.SetMuted, true) }
func (h *ConversationHandler) Unmute(c *gin.Context)    { h.setFlag(c, h.service.SetMuted, false) }
func (h *ConversationHandler) Pin(c *gin.Context)       { h.setFlag(c, h.service.SetPinned, true) }
func (h *ConversationHandler) Unpin(c *gin.Context)     { h.setFlag(c, h.service.SetPinned, false) }
func (h *ConversationHandler) Archive(c *gin.Context)   { h.setFlag(c, h.service.SetArchived, true) }
func (h *ConversationHandler) Unarchive(c *gin.Context) { h.setFlag(c, h.service.SetArchived, false) }

type transitionFn func(ctx context.Context, conversationID, userID string) (conversation.Conversation, error)

func (h *ConversationHandler) transition(c *gin.Context, fn transitionFn) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	conv, err := fn(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		c.JSON(httpdto.FromError(err))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromConversation(conv, userID)))
}

type flagFn func(ctx context.Context, conversationID, userID string, on bool) (conversation.Conversation, error)

func (h *ConversationHandler) setFlag(c *gin.Context, fn flagFn, on bool) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	conv, err := fn(c.Request.Context(), c.Param("id"), userID, on)
	if err != nil {
		c.JSON(httpdto.FromError(err))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromConversation(conv, userID)))
}
