package httpdto

import (
	"time"

	"amen-chat/internal/domain/message"
)

type SendMessageRequest struct {
	RecipientID string `json:"recipient_id" binding:"required"`
	Text        string `json:"text" binding:"required"`
}

type ReactionRequest struct {
	Emoji string `json:"emoji"`
}

type TypingRequest struct {
	Typing bool `json:"typing"`
}

type MessageResponse struct {
	ID             string             `json:"id"`
	ConversationID string             `json:"conversation_id"`
	SenderID       string             `json:"sender_id"`
	Text           string             `json:"text"`
	CreatedAt      time.Time          `json:"created_at"`
	ReadBy         []string           `json:"read_by,omitempty"`
	Reactions      []ReactionResponse `json:"reactions,omitempty"`
}

type ReactionResponse struct {
	UserID string `json:"user_id"`
	Emoji  string `json:"emoji"`
}

type SendMessageResponse struct {
	Message      MessageResponse      `json:"message"`
	Conversation ConversationResponse `json:"conversation"`
}

type ListMessagesResponse struct {
	Messages []MessageResponse `json:"messages"`
}

func FromMessage(m message.Message) MessageResponse {
	resp := MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Text:           m.Text,
		CreatedAt:      m.CreatedAt,
		ReadBy:         m.ReadBy,
	}
	for _, r := range m.Reactions {
		resp.Reactions = append(resp.Reactions, ReactionResponse{UserID: r.UserID, Emoji: r.Emoji})
	}
	return resp
}

func FromMessageSlice(items []message.Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(items))
	for _, m := range items {
		out = append(out, FromMessage(m))
	}
	return out
}
