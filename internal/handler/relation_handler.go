package handler

import (
	"context"
	"net/http"

	"amen-chat/internal/domain/relation"
	"amen-chat/internal/services"
	"amen-chat/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type RelationHandler struct {
	service *services.RelationService
}

func NewRelationHandler(service *services.RelationService) *RelationHandler {
	return &RelationHandler{service: service}
}

func (h *RelationHandler) Block(c *gin.Context)    { h.mutate(c, h.service.Block) }
func (h *RelationHandler) Unblock(c *gin.Context)  { h.mutate(c, h.service.Unblock) }
func (h *RelationHandler) Follow(c *gin.Context)   { h.mutate(c, h.service.Follow) }
func (h *RelationHandler) Unfollow(c *gin.Context) { h.mutate(c, h.service.Unfollow) }

func (h *RelationHandler) GetPrivacy(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	privacy, err := h.service.GetPrivacy(c.Request.Context(), userID)
	if err != nil {
		c.JSON(httpdto.FromError(err))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.PrivacyResponse{Privacy: string(privacy)}))
}

func (h *RelationHandler) SetPrivacy(c *gin.Context) {
	var req httpdto.PrivacyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	if err := h.service.SetPrivacy(c.Request.Context(), userID, relation.PrivacySetting(req.Privacy)); err != nil {
		c.JSON(httpdto.FromError(err))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.PrivacyResponse{Privacy: req.Privacy}))
}

type relationFn func(ctx context.Context, callerID, targetID string) error

func (h *RelationHandler) mutate(c *gin.Context, fn relationFn) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	if err := fn(c.Request.Context(), userID, c.Param("user_id")); err != nil {
		c.JSON(httpdto.FromError(err))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}
