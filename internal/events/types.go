package events

import "time"

// Event kinds follow the domain.action format.
type Kind string

const (
	KindConversationCreated  Kind = "conversation.created"
	KindConversationAccepted Kind = "conversation.accepted"
	KindConversationDeclined Kind = "conversation.declined"
	KindMessageCreated       Kind = "message.created"
	KindReactionChanged      Kind = "reaction.changed"
	KindReadChanged          Kind = "read.changed"
	KindTypingChanged        Kind = "typing.changed"
	KindFollowChanged        Kind = "follow.changed"
	KindBlockChanged         Kind = "block.changed"
	KindPrivacyChanged       Kind = "privacy.changed"
)

// Event is a "go check again" signal, not a guaranteed payload of truth:
// subscribers that need current state fetch it from the repositories.
// Recipients names the users whose presentation layers care about it.
type Event struct {
	Kind       Kind        `json:"kind"`
	SubjectID  string      `json:"subject_id"`
	Recipients []string    `json:"-"`
	Payload    interface{} `json:"payload,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
}
