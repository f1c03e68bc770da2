package services

import (
	"context"
	"errors"

	"amen-chat/internal/domain/conversation"
	"amen-chat/internal/domain/relation"
	"amen-chat/internal/repository"
	amen_errors "amen-chat/pkg/errors"
)

// Decision is the positive half of a permission resolution; denials are
// typed errors so callers can match them with errors.Is.
type Decision int

const (
	// DecisionAllowed permits unrestricted messaging.
	DecisionAllowed Decision = iota
	// DecisionAllowedAsRequest permits contact but subject to the pending
	// message gate; the resulting conversation starts as a request.
	DecisionAllowedAsRequest
)

// BlockRegistry answers directed block queries; Blocked checks both
// directions. Implementations may serve from a bounded-TTL cache.
type BlockRegistry interface {
	Blocked(ctx context.Context, a, b string) (bool, error)
}

// FollowOracle resolves the directed follow relation.
type FollowOracle interface {
	Follows(ctx context.Context, followerID, followeeID string) (bool, error)
}

// PrivacySource resolves a user's conversation privacy setting.
type PrivacySource interface {
	Privacy(ctx context.Context, userID string) (relation.PrivacySetting, error)
}

// PermissionService composes blocks, follows and privacy into the single
// access decision for a prospective conversation. Resolve has no side
// effects; it is a pure function of the current snapshots.
type PermissionService struct {
	blocks        BlockRegistry
	follows       FollowOracle
	privacy       PrivacySource
	conversations repository.ConversationRepository
}

func NewPermissionService(blocks BlockRegistry, follows FollowOracle, privacy PrivacySource, conversations repository.ConversationRepository) *PermissionService {
	return &PermissionService{
		blocks:        blocks,
		follows:       follows,
		privacy:       privacy,
		conversations: conversations,
	}
}

// Resolve decides whether initiator may message target. Checks short-circuit
// in order: blocks in either direction, self-conversation, the state of any
// existing conversation, then target privacy and mutual follow.
func (s *PermissionService) Resolve(ctx context.Context, initiatorID, targetID string) (Decision, error) {
	blocked, err := s.blocks.Blocked(ctx, initiatorID, targetID)
	if err != nil {
		return 0, err
	}
	if blocked {
		return 0, amen_errors.ErrBlocked
	}

	if initiatorID == targetID {
		return 0, amen_errors.ErrSelfConversation
	}

	existing, err := s.conversations.Get(ctx, conversation.PairID(initiatorID, targetID))
	switch {
	case err == nil:
		if existing.Status == conversation.StatusDeclined {
			return 0, amen_errors.ErrPreviouslyDeclined
		}
		if existing.Status == conversation.StatusAccepted {
			return DecisionAllowed, nil
		}
		// pending: fall through, the gate owns the per-message limit
	case errors.Is(err, amen_errors.ErrNotFound):
		// no conversation yet; expected on first contact
	default:
		return 0, err
	}

	privacy, err := s.privacy.Privacy(ctx, targetID)
	if err != nil {
		return 0, err
	}
	if privacy == relation.PrivacyEveryone {
		return DecisionAllowed, nil
	}

	mutual, err := s.mutualFollow(ctx, initiatorID, targetID)
	if err != nil {
		return 0, err
	}
	if mutual {
		return DecisionAllowed, nil
	}
	return DecisionAllowedAsRequest, nil
}

func (s *PermissionService) mutualFollow(ctx context.Context, a, b string) (bool, error) {
	forward, err := s.follows.Follows(ctx, a, b)
	if err != nil {
		return false, err
	}
	if !forward {
		return false, nil
	}
	return s.follows.Follows(ctx, b, a)
}
