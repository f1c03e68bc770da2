package httpdto

import (
	"time"

	"amen-chat/internal/domain/conversation"
)

type OpenConversationRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// ConversationResponse is the per-viewer projection: flags collapse to the
// booleans that apply to the requesting user.
type ConversationResponse struct {
	ID            string         `json:"id"`
	Participants  []string       `json:"participants"`
	Status        string         `json:"status"`
	RequesterID   string         `json:"requester_id,omitempty"`
	MessageCounts map[string]int `json:"message_counts"`
	Muted         bool           `json:"muted"`
	Pinned        bool           `json:"pinned"`
	Archived      bool           `json:"archived"`
	LastMessage   string         `json:"last_message,omitempty"`
	LastMessageAt *time.Time     `json:"last_message_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type ListConversationsResponse struct {
	Conversations []ConversationResponse `json:"conversations"`
	Total         int                    `json:"total"`
}

func FromConversation(c conversation.Conversation, viewerID string) ConversationResponse {
	resp := ConversationResponse{
		ID:            c.ID,
		Participants:  c.ParticipantIDs,
		Status:        string(c.Status),
		RequesterID:   c.RequesterID,
		MessageCounts: c.MessageCounts,
		Muted:         c.MutedFor(viewerID),
		Pinned:        c.PinnedFor(viewerID),
		Archived:      c.ArchivedFor(viewerID),
		LastMessage:   c.LastMessage,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
	if !c.LastMessageAt.IsZero() {
		t := c.LastMessageAt
		resp.LastMessageAt = &t
	}
	return resp
}

func FromConversationSlice(items []conversation.Conversation, viewerID string) []ConversationResponse {
	out := make([]ConversationResponse, 0, len(items))
	for _, c := range items {
		out = append(out, FromConversation(c, viewerID))
	}
	return out
}
