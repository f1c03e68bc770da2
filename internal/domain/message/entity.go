package message

import (
	"time"

	"github.com/google/uuid"
)

// Message is append-only: text and sender never change after creation.
// ReadBy and Reactions are the only mutable fields and may be written by
// any participant of the conversation.
type Message struct {
	ID             string     `dynamodbav:"id" json:"id"`
	ConversationID string     `dynamodbav:"conversationId" json:"conversation_id"`
	SenderID       string     `dynamodbav:"senderId" json:"sender_id"`
	Text           string     `dynamodbav:"text" json:"text"`
	CreatedAt      time.Time  `dynamodbav:"createdAt" json:"created_at"`
	ReadBy         []string   `dynamodbav:"readBy,omitempty" json:"read_by,omitempty"`
	Reactions      []Reaction `dynamodbav:"reactions,omitempty" json:"reactions,omitempty"`
}

type Reaction struct {
	UserID string `dynamodbav:"userId" json:"user_id"`
	Emoji  string `dynamodbav:"emoji" json:"emoji"`
}

func New(conversationID, senderID, text string, at time.Time) Message {
	return Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Text:           text,
		CreatedAt:      at,
		ReadBy:         []string{senderID},
	}
}

func (m *Message) ReadByUser(userID string) bool {
	for _, id := range m.ReadBy {
		if id == userID {
			return true
		}
	}
	return false
}

// MarkRead returns true when userID was newly added to the read set.
func (m *Message) MarkRead(userID string) bool {
	if m.ReadByUser(userID) {
		return false
	}
	m.ReadBy = append(m.ReadBy, userID)
	return true
}

// SetReaction replaces the user's existing reaction, if any. An empty emoji
// removes it. Returns true when the reaction list changed.
func (m *Message) SetReaction(userID, emoji string) bool {
	for i, r := range m.Reactions {
		if r.UserID != userID {
			continue
		}
		if emoji == "" {
			m.Reactions = append(m.Reactions[:i], m.Reactions[i+1:]...)
			return true
		}
		if r.Emoji == emoji {
			return false
		}
		m.Reactions[i].Emoji = emoji
		return true
	}
	if emoji == "" {
		return false
	}
	m.Reactions = append(m.Reactions, Reaction{UserID: userID, Emoji: emoji})
	return true
}
