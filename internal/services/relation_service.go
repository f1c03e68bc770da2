package services

import (
	"context"
	"errors"
	"time"

	"amen-chat/internal/domain/relation"
	"amen-chat/internal/events"
	"amen-chat/internal/repository"
	amen_errors "amen-chat/pkg/errors"
)

// RelationCacheHooks are the invalidation and optimistic-seed hooks the
// relation mutations drive. The seed is the tentative local state change;
// if the durable write fails, the compensating action evicts the seed so
// reads fall back through to the source of truth.
type RelationCacheHooks interface {
	SeedBlock(ctx context.Context, blockerID, blockedID string, blocked bool)
	SeedFollow(ctx context.Context, followerID, followeeID string, follows bool)
	InvalidateBlock(ctx context.Context, blockerID, blockedID string)
	InvalidateFollow(ctx context.Context, followerID, followeeID string)
	InvalidatePrivacy(ctx context.Context, userID string)
}

// RelationService owns block/follow/privacy mutations. Ownership is
// structural: the authenticated caller is always the blocker, follower or
// settings owner; there is no code path for writing into another user's
// relations. The store-level rules re-validate this independently.
type RelationService struct {
	repo  repository.RelationRepository
	cache RelationCacheHooks
	bus   *events.Bus
}

func NewRelationService(repo repository.RelationRepository, cache RelationCacheHooks, bus *events.Bus) *RelationService {
	return &RelationService{repo: repo, cache: cache, bus: bus}
}

// Block records callerID blocking targetID. The cache is seeded before the
// durable write so the caller's own permission checks deny immediately;
// a failed write evicts the seed.
func (s *RelationService) Block(ctx context.Context, callerID, targetID string) error {
	if targetID == "" || callerID == targetID {
		return amen_errors.ErrInvalidInput
	}

	s.cache.SeedBlock(ctx, callerID, targetID, true)
	err := s.repo.PutBlock(ctx, relation.Block{
		BlockerID: callerID,
		BlockedID: targetID,
		CreatedAt: time.Now(),
	})
	if err != nil {
		s.cache.InvalidateBlock(ctx, callerID, targetID)
		return err
	}

	s.publish(events.KindBlockChanged, callerID, targetID)
	return nil
}

func (s *RelationService) Unblock(ctx context.Context, callerID, targetID string) error {
	if targetID == "" || callerID == targetID {
		return amen_errors.ErrInvalidInput
	}

	s.cache.SeedBlock(ctx, callerID, targetID, false)
	if err := s.repo.DeleteBlock(ctx, callerID, targetID); err != nil {
		s.cache.InvalidateBlock(ctx, callerID, targetID)
		return err
	}

	s.publish(events.KindBlockChanged, callerID, targetID)
	return nil
}

func (s *RelationService) Follow(ctx context.Context, callerID, targetID string) error {
	if targetID == "" || callerID == targetID {
		return amen_errors.ErrInvalidInput
	}

	s.cache.SeedFollow(ctx, callerID, targetID, true)
	err := s.repo.PutFollow(ctx, relation.Follow{
		FollowerID: callerID,
		FolloweeID: targetID,
		CreatedAt:  time.Now(),
	})
	if err != nil {
		s.cache.InvalidateFollow(ctx, callerID, targetID)
		return err
	}

	s.publish(events.KindFollowChanged, callerID, targetID)
	return nil
}

func (s *RelationService) Unfollow(ctx context.Context, callerID, targetID string) error {
	if targetID == "" || callerID == targetID {
		return amen_errors.ErrInvalidInput
	}

	s.cache.SeedFollow(ctx, callerID, targetID, false)
	if err := s.repo.DeleteFollow(ctx, callerID, targetID); err != nil {
		s.cache.InvalidateFollow(ctx, callerID, targetID)
		return err
	}

	s.publish(events.KindFollowChanged, callerID, targetID)
	return nil
}

// GetPrivacy returns the user's saved setting, or the Everyone default.
func (s *RelationService) GetPrivacy(ctx context.Context, userID string) (relation.PrivacySetting, error) {
	settings, err := s.repo.GetSettings(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return relation.PrivacyEveryone, nil
		}
		return "", err
	}
	if !settings.Privacy.Valid() {
		return relation.PrivacyEveryone, nil
	}
	return settings.Privacy, nil
}

func (s *RelationService) SetPrivacy(ctx context.Context, userID string, privacy relation.PrivacySetting) error {
	if !privacy.Valid() {
		return amen_errors.ErrInvalidInput
	}

	err := s.repo.PutSettings(ctx, relation.UserSettings{
		UserID:    userID,
		Privacy:   privacy,
		UpdatedAt: time.Now(),
	})
	if err != nil {
		return err
	}

	s.cache.InvalidatePrivacy(ctx, userID)
	s.bus.Publish(events.Event{
		Kind:       events.KindPrivacyChanged,
		SubjectID:  userID,
		Recipients: []string{userID},
	})
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, amen_errors.ErrNotFound)
}

func (s *RelationService) publish(kind events.Kind, actorID, targetID string) {
	s.bus.Publish(events.Event{
		Kind:       kind,
		SubjectID:  actorID,
		Recipients: []string{actorID, targetID},
		Payload: map[string]string{
			"actor_id":  actorID,
			"target_id": targetID,
		},
	})
}
