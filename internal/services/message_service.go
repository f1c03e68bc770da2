package services

import (
	"context"
	"strings"
	"time"

	"amen-chat/internal/domain/conversation"
	"amen-chat/internal/domain/message"
	"amen-chat/internal/events"
	"amen-chat/internal/repository"
	amen_errors "amen-chat/pkg/errors"
	"amen-chat/pkg/retry"
)

const maxMessageLength = 4000

// MessageService runs the send pipeline: permission resolution, canonical
// conversation lookup or creation, the pending-message gate, and the atomic
// message-plus-counter write. It also owns the mutable message fields
// (read receipts, reactions) and the transient typing signal.
type MessageService struct {
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	permissions   *PermissionService
	bus           *events.Bus
	retry         retry.Policy
}

func NewMessageService(conversations repository.ConversationRepository, messages repository.MessageRepository, permissions *PermissionService, bus *events.Bus, policy retry.Policy) *MessageService {
	return &MessageService{
		conversations: conversations,
		messages:      messages,
		permissions:   permissions,
		bus:           bus,
		retry:         policy,
	}
}

// Send delivers text from sender to recipient, creating the conversation if
// this is first contact. Permission denials and gate rejections surface as
// typed errors and are never retried; version conflicts replay the whole
// read-gate-write unit from a fresh read, so the net effect is equivalent
// to some serial order even under concurrent senders.
func (s *MessageService) Send(ctx context.Context, senderID, recipientID, text string) (message.Message, conversation.Conversation, error) {
	text = strings.TrimSpace(text)
	if text == "" || len(text) > maxMessageLength {
		return message.Message{}, conversation.Conversation{}, amen_errors.ErrInvalidInput
	}

	decision, err := s.permissions.Resolve(ctx, senderID, recipientID)
	if err != nil {
		return message.Message{}, conversation.Conversation{}, err
	}
	status := conversation.StatusAccepted
	if decision == DecisionAllowedAsRequest {
		status = conversation.StatusPending
	}

	var (
		sent     message.Message
		conv     conversation.Conversation
		created  bool
		accepted bool
	)
	err = s.retry.Do(ctx, func(ctx context.Context) error {
		initial := conversation.New(senderID, recipientID, status, time.Now())
		current, wasCreated, err := s.conversations.GetOrCreate(ctx, initial)
		if err != nil {
			return err
		}

		if err := current.CanSend(senderID); err != nil {
			return err
		}

		m := message.New(current.ID, senderID, text, time.Now())
		prevStatus := current.Status
		current.ApplySend(senderID, text, m.CreatedAt)

		updated, err := s.conversations.ApplyMessage(ctx, current, m)
		if err != nil {
			return err
		}

		sent, conv = m, updated
		created = wasCreated
		accepted = prevStatus == conversation.StatusPending && updated.Status == conversation.StatusAccepted
		return nil
	})
	if err != nil {
		return message.Message{}, conversation.Conversation{}, err
	}

	if created {
		s.bus.Publish(events.Event{
			Kind:       events.KindConversationCreated,
			SubjectID:  conv.ID,
			Recipients: conv.ParticipantIDs,
			Payload:    conv,
		})
	}
	if accepted {
		s.bus.Publish(events.Event{
			Kind:       events.KindConversationAccepted,
			SubjectID:  conv.ID,
			Recipients: conv.ParticipantIDs,
			Payload:    conv,
		})
	}
	s.bus.Publish(events.Event{
		Kind:       events.KindMessageCreated,
		SubjectID:  conv.ID,
		Recipients: conv.ParticipantIDs,
		Payload:    sent,
	})
	return sent, conv, nil
}

func (s *MessageService) List(ctx context.Context, conversationID, userID string, limit int) ([]message.Message, error) {
	if _, err := s.participantConversation(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	return s.messages.ListByConversation(ctx, conversationID, limit)
}

// MarkRead adds the caller to the message's read set.
func (s *MessageService) MarkRead(ctx context.Context, conversationID, messageID, userID string) error {
	conv, err := s.participantConversation(ctx, conversationID, userID)
	if err != nil {
		return err
	}

	m, err := s.messages.Get(ctx, conversationID, messageID)
	if err != nil {
		return err
	}
	if !m.MarkRead(userID) {
		return nil
	}
	if err := s.messages.SaveMutable(ctx, m); err != nil {
		return err
	}

	s.bus.Publish(events.Event{
		Kind:       events.KindReadChanged,
		SubjectID:  conversationID,
		Recipients: conv.ParticipantIDs,
		Payload:    m,
	})
	return nil
}

// React sets the caller's reaction on a message; an empty emoji removes it.
func (s *MessageService) React(ctx context.Context, conversationID, messageID, userID, emoji string) error {
	conv, err := s.participantConversation(ctx, conversationID, userID)
	if err != nil {
		return err
	}

	m, err := s.messages.Get(ctx, conversationID, messageID)
	if err != nil {
		return err
	}
	if !m.SetReaction(userID, emoji) {
		return nil
	}
	if err := s.messages.SaveMutable(ctx, m); err != nil {
		return err
	}

	s.bus.Publish(events.Event{
		Kind:       events.KindReactionChanged,
		SubjectID:  conversationID,
		Recipients: conv.ParticipantIDs,
		Payload:    m,
	})
	return nil
}

// Typing broadcasts a transient typing signal. Nothing is persisted; a
// subscriber that misses it has missed nothing durable.
func (s *MessageService) Typing(ctx context.Context, conversationID, userID string, started bool) error {
	conv, err := s.participantConversation(ctx, conversationID, userID)
	if err != nil {
		return err
	}

	s.bus.Publish(events.Event{
		Kind:       events.KindTypingChanged,
		SubjectID:  conversationID,
		Recipients: conv.ParticipantIDs,
		Payload: map[string]interface{}{
			"user_id": userID,
			"typing":  started,
		},
	})
	return nil
}

func (s *MessageService) participantConversation(ctx context.Context, conversationID, userID string) (conversation.Conversation, error) {
	conv, err := s.conversations.Get(ctx, conversationID)
	if err != nil {
		return conversation.Conversation{}, err
	}
	if !conv.HasParticipant(userID) {
		return conversation.Conversation{}, amen_errors.ErrForbidden
	}
	return conv, nil
}
