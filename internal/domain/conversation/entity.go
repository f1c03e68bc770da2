package conversation

import (
	"sort"
	"time"

	amen_errors "amen-chat/pkg/errors"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusAccepted Status = "ACCEPTED"
	StatusDeclined Status = "DECLINED"
)

// PendingMessageLimit is the number of unsolicited messages the requester
// may send before the counterpart responds or accepts.
const PendingMessageLimit = 1

// Conversation is the single record per unordered participant pair. Version
// backs the conditional-write discipline in the repository: every mutation
// bumps it, and a stale writer fails with ErrConflict instead of clobbering.
type Conversation struct {
	ID             string         `dynamodbav:"id" json:"id"`
	ParticipantIDs []string       `dynamodbav:"participantIds" json:"participant_ids"`
	Status         Status         `dynamodbav:"status" json:"status"`
	RequesterID    string         `dynamodbav:"requesterId,omitempty" json:"requester_id,omitempty"`
	MessageCounts  map[string]int `dynamodbav:"messageCounts" json:"message_counts"`
	MutedBy        []string       `dynamodbav:"mutedBy,omitempty" json:"muted_by,omitempty"`
	PinnedBy       []string       `dynamodbav:"pinnedBy,omitempty" json:"pinned_by,omitempty"`
	ArchivedBy     []string       `dynamodbav:"archivedBy,omitempty" json:"archived_by,omitempty"`
	LastMessage    string         `dynamodbav:"lastMessage,omitempty" json:"last_message,omitempty"`
	LastMessageAt  time.Time      `dynamodbav:"lastMessageAt,omitempty" json:"last_message_at,omitempty"`
	Version        int64          `dynamodbav:"version" json:"version"`
	CreatedAt      time.Time      `dynamodbav:"createdAt" json:"created_at"`
	UpdatedAt      time.Time      `dynamodbav:"updatedAt" json:"updated_at"`
}

// PairID derives the canonical conversation ID for an unordered pair.
// PairID(a, b) == PairID(b, a) for every a, b.
func PairID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "_" + b
}

// New builds the initial record for a pair. The requester is only recorded
// for pending conversations; a conversation opened with full permission has
// no request to track.
func New(initiatorID, targetID string, status Status, now time.Time) Conversation {
	participants := []string{initiatorID, targetID}
	sort.Strings(participants)

	c := Conversation{
		ID:             PairID(initiatorID, targetID),
		ParticipantIDs: participants,
		Status:         status,
		MessageCounts:  map[string]int{initiatorID: 0, targetID: 0},
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if status == StatusPending {
		c.RequesterID = initiatorID
	}
	return c
}

func (c *Conversation) HasParticipant(userID string) bool {
	for _, id := range c.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// OtherParticipant returns the counterpart of userID, or "" if userID is not
// a participant.
func (c *Conversation) OtherParticipant(userID string) string {
	for _, id := range c.ParticipantIDs {
		if id != userID {
			return id
		}
	}
	return ""
}

// CanSend is the message gate. Declined conversations are inert, accepted
// ones are unrestricted, and a pending conversation admits at most
// PendingMessageLimit messages from the requester. The counterpart may
// always reply; the reply itself accepts the conversation.
func (c *Conversation) CanSend(senderID string) error {
	if !c.HasParticipant(senderID) {
		return amen_errors.ErrForbidden
	}
	switch c.Status {
	case StatusDeclined:
		return amen_errors.ErrPreviouslyDeclined
	case StatusAccepted:
		return nil
	case StatusPending:
		if senderID != c.RequesterID {
			return nil
		}
		if c.MessageCounts[senderID] < PendingMessageLimit {
			return nil
		}
		return amen_errors.ErrPendingLimitReached
	default:
		return amen_errors.ErrInvalidInput
	}
}

// ApplySend records a successful send on the in-memory copy: the pending
// counter (counts only accumulate while pending), the implicit accept when
// the counterpart replies, and the denormalized last-message summary.
// The caller persists the whole mutation as one conditional write.
func (c *Conversation) ApplySend(senderID, text string, at time.Time) {
	if c.Status == StatusPending {
		if senderID == c.RequesterID {
			if c.MessageCounts == nil {
				c.MessageCounts = map[string]int{}
			}
			c.MessageCounts[senderID]++
		} else {
			c.Status = StatusAccepted
		}
	}
	c.LastMessage = text
	c.LastMessageAt = at
	c.UpdatedAt = at
}

// Accept moves pending to accepted. Any other starting state is an
// idempotent no-op so retried client operations are safe to repeat.
// Returns true when the status actually changed.
func (c *Conversation) Accept(now time.Time) bool {
	if c.Status != StatusPending {
		return false
	}
	c.Status = StatusAccepted
	c.UpdatedAt = now
	return true
}

// Decline moves pending to declined. Terminal: the record stays around so
// the pair cannot resurrect the request, but no further messages pass the
// gate. No-op from any other state.
func (c *Conversation) Decline(now time.Time) bool {
	if c.Status != StatusPending {
		return false
	}
	c.Status = StatusDeclined
	c.UpdatedAt = now
	return true
}

// SetMuted toggles the per-participant muted flag. Flags are orthogonal to
// status and only ever name the participant that set them. Returns true
// when the flag actually changed.
func (c *Conversation) SetMuted(userID string, on bool) bool {
	changed := hasFlag(c.MutedBy, userID) != on
	c.MutedBy = setFlag(c.MutedBy, userID, on)
	return changed
}

func (c *Conversation) SetPinned(userID string, on bool) bool {
	changed := hasFlag(c.PinnedBy, userID) != on
	c.PinnedBy = setFlag(c.PinnedBy, userID, on)
	return changed
}

func (c *Conversation) SetArchived(userID string, on bool) bool {
	changed := hasFlag(c.ArchivedBy, userID) != on
	c.ArchivedBy = setFlag(c.ArchivedBy, userID, on)
	return changed
}

func (c *Conversation) MutedFor(userID string) bool    { return hasFlag(c.MutedBy, userID) }
func (c *Conversation) PinnedFor(userID string) bool   { return hasFlag(c.PinnedBy, userID) }
func (c *Conversation) ArchivedFor(userID string) bool { return hasFlag(c.ArchivedBy, userID) }

func hasFlag(set []string, userID string) bool {
	for _, id := range set {
		if id == userID {
			return true
		}
	}
	return false
}

func setFlag(set []string, userID string, on bool) []string {
	if on {
		if hasFlag(set, userID) {
			return set
		}
		return append(set, userID)
	}
	if !hasFlag(set, userID) {
		return set
	}
	out := make([]string, 0, len(set)-1)
	for _, id := range set {
		if id != userID {
			out = append(out, id)
		}
	}
	return out
}
