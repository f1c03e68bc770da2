package services

import (
	"context"
	"sort"
	"time"

	"amen-chat/internal/domain/conversation"
	"amen-chat/internal/events"
	"amen-chat/internal/repository"
	amen_errors "amen-chat/pkg/errors"
	"amen-chat/pkg/retry"
)

// ConversationService owns the conversation lifecycle: opening, the
// accept/decline transitions, and the per-participant flags. Every mutation
// runs through the conditional-write discipline: read, apply, write with
// version check, retry from a fresh read on conflict.
type ConversationService struct {
	repo        repository.ConversationRepository
	permissions *PermissionService
	bus         *events.Bus
	retry       retry.Policy
}

func NewConversationService(repo repository.ConversationRepository, permissions *PermissionService, bus *events.Bus, policy retry.Policy) *ConversationService {
	return &ConversationService{
		repo:        repo,
		permissions: permissions,
		bus:         bus,
		retry:       policy,
	}
}

// Open resolves permission for the pair and returns the canonical
// conversation, creating it when absent. Concurrent opens for the same pair
// converge on one record.
func (s *ConversationService) Open(ctx context.Context, initiatorID, targetID string) (conversation.Conversation, error) {
	decision, err := s.permissions.Resolve(ctx, initiatorID, targetID)
	if err != nil {
		return conversation.Conversation{}, err
	}

	status := conversation.StatusAccepted
	if decision == DecisionAllowedAsRequest {
		status = conversation.StatusPending
	}

	initial := conversation.New(initiatorID, targetID, status, time.Now())
	conv, created, err := s.repo.GetOrCreate(ctx, initial)
	if err != nil {
		return conversation.Conversation{}, err
	}
	if created {
		s.bus.Publish(events.Event{
			Kind:       events.KindConversationCreated,
			SubjectID:  conv.ID,
			Recipients: conv.ParticipantIDs,
			Payload:    conv,
		})
	}
	return conv, nil
}

func (s *ConversationService) Get(ctx context.Context, conversationID, userID string) (conversation.Conversation, error) {
	conv, err := s.repo.Get(ctx, conversationID)
	if err != nil {
		return conversation.Conversation{}, err
	}
	if !conv.HasParticipant(userID) {
		return conversation.Conversation{}, amen_errors.ErrForbidden
	}
	return conv, nil
}

// List returns the user's conversations, pinned first, then by recency.
// Archived conversations are omitted unless requested.
func (s *ConversationService) List(ctx context.Context, userID string, includeArchived bool) ([]conversation.Conversation, error) {
	all, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := all[:0]
	for _, c := range all {
		if !includeArchived && c.ArchivedFor(userID) {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := out[i].PinnedFor(userID), out[j].PinnedFor(userID)
		if pi != pj {
			return pi
		}
		return out[i].LastMessageAt.After(out[j].LastMessageAt)
	})
	return out, nil
}

// Accept moves a pending conversation to accepted. Only the non-requester
// may accept. Accepting an already-accepted or declined conversation is an
// idempotent no-op, so retried client actions are safe.
func (s *ConversationService) Accept(ctx context.Context, conversationID, userID string) (conversation.Conversation, error) {
	conv, changed, err := s.mutate(ctx, conversationID, userID, func(c *conversation.Conversation) (bool, error) {
		if c.Status == conversation.StatusPending && userID == c.RequesterID {
			return false, amen_errors.ErrForbidden
		}
		return c.Accept(time.Now()), nil
	})
	if err != nil {
		return conversation.Conversation{}, err
	}
	if changed {
		s.bus.Publish(events.Event{
			Kind:       events.KindConversationAccepted,
			SubjectID:  conv.ID,
			Recipients: conv.ParticipantIDs,
			Payload:    conv,
		})
	}
	return conv, nil
}

// Decline is terminal: the record stays, the pair cannot restart the
// request, and future message intents fail with ErrPreviouslyDeclined.
func (s *ConversationService) Decline(ctx context.Context, conversationID, userID string) (conversation.Conversation, error) {
	conv, changed, err := s.mutate(ctx, conversationID, userID, func(c *conversation.Conversation) (bool, error) {
		if c.Status == conversation.StatusPending && userID == c.RequesterID {
			return false, amen_errors.ErrForbidden
		}
		return c.Decline(time.Now()), nil
	})
	if err != nil {
		return conversation.Conversation{}, err
	}
	if changed {
		s.bus.Publish(events.Event{
			Kind:       events.KindConversationDeclined,
			SubjectID:  conv.ID,
			Recipients: conv.ParticipantIDs,
			Payload:    conv,
		})
	}
	return conv, nil
}

// SetMuted, SetPinned and SetArchived toggle the caller's own flag only;
// they never touch the counterpart's flags or the status.

func (s *ConversationService) SetMuted(ctx context.Context, conversationID, userID string, on bool) (conversation.Conversation, error) {
	conv, _, err := s.mutate(ctx, conversationID, userID, func(c *conversation.Conversation) (bool, error) {
		return c.SetMuted(userID, on), nil
	})
	return conv, err
}

func (s *ConversationService) SetPinned(ctx context.Context, conversationID, userID string, on bool) (conversation.Conversation, error) {
	conv, _, err := s.mutate(ctx, conversationID, userID, func(c *conversation.Conversation) (bool, error) {
		return c.SetPinned(userID, on), nil
	})
	return conv, err
}

func (s *ConversationService) SetArchived(ctx context.Context, conversationID, userID string, on bool) (conversation.Conversation, error) {
	conv, _, err := s.mutate(ctx, conversationID, userID, func(c *conversation.Conversation) (bool, error) {
		return c.SetArchived(userID, on), nil
	})
	return conv, err
}

// mutate is the shared read-apply-write loop. fn reports whether it changed
// the record; unchanged records are not written. A version conflict re-reads
// and reapplies under the retry policy.
func (s *ConversationService) mutate(ctx context.Context, conversationID, userID string, fn func(*conversation.Conversation) (bool, error)) (conversation.Conversation, bool, error) {
	var out conversation.Conversation
	var outChanged bool

	err := s.retry.Do(ctx, func(ctx context.Context) error {
		conv, err := s.repo.Get(ctx, conversationID)
		if err != nil {
			return err
		}
		if !conv.HasParticipant(userID) {
			return amen_errors.ErrForbidden
		}

		changed, err := fn(&conv)
		if err != nil {
			return err
		}
		if !changed {
			out, outChanged = conv, false
			return nil
		}

		updated, err := s.repo.Update(ctx, conv)
		if err != nil {
			return err
		}
		out, outChanged = updated, true
		return nil
	})
	if err != nil {
		return conversation.Conversation{}, false, err
	}
	return out, outChanged, nil
}
