package repository

import (
	"context"

	"amen-chat/internal/domain/conversation"
	"amen-chat/internal/domain/message"
	"amen-chat/internal/domain/relation"
)

// ConversationRepository owns the canonical conversation record. All
// mutations go through conditional writes keyed on the record version;
// a concurrent writer surfaces as ErrConflict, never as a partial update.
type ConversationRepository interface {
	// GetOrCreate resolves the canonical record for initial.ID, creating it
	// when absent. "Already exists" on create is success: the existing
	// record is returned and created is false.
	GetOrCreate(ctx context.Context, initial conversation.Conversation) (conv conversation.Conversation, created bool, err error)
	Get(ctx context.Context, id string) (conversation.Conversation, error)
	Exists(ctx context.Context, id string) (bool, error)
	// Update persists c if the stored version still matches c.Version,
	// returning the bumped record.
	Update(ctx context.Context, c conversation.Conversation) (conversation.Conversation, error)
	// ApplyMessage persists the message and the conversation mutation
	// (counters, status, last-message summary) as one atomic unit.
	ApplyMessage(ctx context.Context, c conversation.Conversation, m message.Message) (conversation.Conversation, error)
	ListForUser(ctx context.Context, userID string) ([]conversation.Conversation, error)
}

type MessageRepository interface {
	ListByConversation(ctx context.Context, conversationID string, limit int) ([]message.Message, error)
	Get(ctx context.Context, conversationID, messageID string) (message.Message, error)
	// SaveMutable persists the mutable fields (readBy, reactions) of an
	// existing message. Text and sender are never rewritten.
	SaveMutable(ctx context.Context, m message.Message) error
}

// RelationRepository persists the directed block/follow sets and per-user
// settings. Writes are owner-scoped by the service layer; the store-level
// rules re-validate ownership independently.
type RelationRepository interface {
	PutBlock(ctx context.Context, b relation.Block) error
	DeleteBlock(ctx context.Context, blockerID, blockedID string) error
	HasBlock(ctx context.Context, blockerID, blockedID string) (bool, error)

	PutFollow(ctx context.Context, f relation.Follow) error
	DeleteFollow(ctx context.Context, followerID, followeeID string) error
	HasFollow(ctx context.Context, followerID, followeeID string) (bool, error)

	GetSettings(ctx context.Context, userID string) (relation.UserSettings, error)
	PutSettings(ctx context.Context, s relation.UserSettings) error
}
