package repository

import (
	"context"
	"errors"

	"amen-chat/internal/domain/relation"
	"amen-chat/internal/store"
	amen_errors "amen-chat/pkg/errors"
)

type DynamoRelationRepository struct {
	store *store.Store
}

func NewRelationRepository(s *store.Store) RelationRepository {
	return &DynamoRelationRepository{store: s}
}

// PutBlock is idempotent: blocking someone twice is not an error.
func (r *DynamoRelationRepository) PutBlock(ctx context.Context, b relation.Block) error {
	b.ID = relation.BlockID(b.BlockerID, b.BlockedID)
	err := r.store.Create(ctx, r.store.Tables.Blocks, b)
	if errors.Is(err, amen_errors.ErrAlreadyExists) {
		return nil
	}
	return err
}

func (r *DynamoRelationRepository) DeleteBlock(ctx context.Context, blockerID, blockedID string) error {
	return r.store.Delete(ctx, r.store.Tables.Blocks, store.Key(relation.BlockID(blockerID, blockedID)))
}

func (r *DynamoRelationRepository) HasBlock(ctx context.Context, blockerID, blockedID string) (bool, error) {
	return r.store.Exists(ctx, r.store.Tables.Blocks, store.Key(relation.BlockID(blockerID, blockedID)))
}

func (r *DynamoRelationRepository) PutFollow(ctx context.Context, f relation.Follow) error {
	f.ID = relation.FollowID(f.FollowerID, f.FolloweeID)
	err := r.store.Create(ctx, r.store.Tables.Follows, f)
	if errors.Is(err, amen_errors.ErrAlreadyExists) {
		return nil
	}
	return err
}

func (r *DynamoRelationRepository) DeleteFollow(ctx context.Context, followerID, followeeID string) error {
	return r.store.Delete(ctx, r.store.Tables.Follows, store.Key(relation.FollowID(followerID, followeeID)))
}

func (r *DynamoRelationRepository) HasFollow(ctx context.Context, followerID, followeeID string) (bool, error) {
	return r.store.Exists(ctx, r.store.Tables.Follows, store.Key(relation.FollowID(followerID, followeeID)))
}

// GetSettings returns ErrNotFound for users who never saved a setting;
// callers fall back to the Everyone default.
func (r *DynamoRelationRepository) GetSettings(ctx context.Context, userID string) (relation.UserSettings, error) {
	var s relation.UserSettings
	err := r.store.Get(ctx, r.store.Tables.Settings, store.Key(userID), &s)
	return s, err
}

// PutSettings overwrites the single per-user settings document; last write
// wins, there is nothing to merge.
func (r *DynamoRelationRepository) PutSettings(ctx context.Context, s relation.UserSettings) error {
	return r.store.Put(ctx, r.store.Tables.Settings, s)
}
