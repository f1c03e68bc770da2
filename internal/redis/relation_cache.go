package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"amen-chat/internal/domain/relation"
	"amen-chat/internal/repository"
	amen_errors "amen-chat/pkg/errors"

	goredis "github.com/redis/go-redis/v9"
)

// Cache key patterns:
// - block:{blocker}:{blocked} - short TTL, directed block relation ("1"/"0")
// - follow:{follower}:{followee} - directed follow relation ("1"/"0")
// - privacy:{user_id} - privacy setting string
//
// These caches sit on the permission path, so the TTLs bound how long a
// revoked follow or a fresh block can go unnoticed by a remote process.
// Local mutations invalidate immediately; the block TTL is the tightest
// because it is the security-relevant one.

type CacheConfig struct {
	BlockTTL   time.Duration
	FollowTTL  time.Duration
	PrivacyTTL time.Duration
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		BlockTTL:   5 * time.Second,
		FollowTTL:  30 * time.Second,
		PrivacyTTL: 60 * time.Second,
	}
}

// RelationCache is the read-through cache over the directed relation sets.
// It backs the block registry, follow oracle and privacy source consumed by
// the permission resolver.
type RelationCache struct {
	client *goredis.Client
	repo   repository.RelationRepository
	config CacheConfig
}

func NewRelationCache(client *goredis.Client, repo repository.RelationRepository, config CacheConfig) *RelationCache {
	return &RelationCache{client: client, repo: repo, config: config}
}

// Blocked reports whether a block exists in either direction between a and
// b. Both directions are checked; either one suffices to deny contact.
func (c *RelationCache) Blocked(ctx context.Context, a, b string) (bool, error) {
	forward, err := c.hasBlock(ctx, a, b)
	if err != nil {
		return false, err
	}
	if forward {
		return true, nil
	}
	return c.hasBlock(ctx, b, a)
}

func (c *RelationCache) hasBlock(ctx context.Context, blockerID, blockedID string) (bool, error) {
	key := blockKey(blockerID, blockedID)
	if cached, ok := c.getBool(ctx, key); ok {
		return cached, nil
	}
	val, err := c.repo.HasBlock(ctx, blockerID, blockedID)
	if err != nil {
		return false, err
	}
	c.setBool(ctx, key, val, c.config.BlockTTL)
	return val, nil
}

// Follows reports the directed follow relation, read through the cache.
func (c *RelationCache) Follows(ctx context.Context, followerID, followeeID string) (bool, error) {
	key := followKey(followerID, followeeID)
	if cached, ok := c.getBool(ctx, key); ok {
		return cached, nil
	}
	val, err := c.repo.HasFollow(ctx, followerID, followeeID)
	if err != nil {
		return false, err
	}
	c.setBool(ctx, key, val, c.config.FollowTTL)
	return val, nil
}

// Privacy resolves the user's privacy setting, defaulting to Everyone for
// users with no saved settings document.
func (c *RelationCache) Privacy(ctx context.Context, userID string) (relation.PrivacySetting, error) {
	key := privacyKey(userID)
	if val, err := c.client.Get(ctx, key).Result(); err == nil {
		return relation.PrivacySetting(val), nil
	} else if err != goredis.Nil {
		return "", err
	}

	settings, err := c.repo.GetSettings(ctx, userID)
	if err != nil {
		if errors.Is(err, amen_errors.ErrNotFound) {
			c.client.Set(ctx, key, string(relation.PrivacyEveryone), c.config.PrivacyTTL)
			return relation.PrivacyEveryone, nil
		}
		return "", err
	}
	privacy := settings.Privacy
	if !privacy.Valid() {
		privacy = relation.PrivacyEveryone
	}
	c.client.Set(ctx, key, string(privacy), c.config.PrivacyTTL)
	return privacy, nil
}

// --- invalidation hooks, called by the owning user's own mutations ---

func (c *RelationCache) InvalidateBlock(ctx context.Context, blockerID, blockedID string) {
	c.client.Del(ctx, blockKey(blockerID, blockedID))
}

func (c *RelationCache) InvalidateFollow(ctx context.Context, followerID, followeeID string) {
	c.client.Del(ctx, followKey(followerID, followeeID))
}

func (c *RelationCache) InvalidatePrivacy(ctx context.Context, userID string) {
	c.client.Del(ctx, privacyKey(userID))
}

// --- optimistic seeds for the compensating-action pattern ---

// SeedBlock writes the expected post-mutation value ahead of the durable
// write; the caller reverts it with the inverse value if the write fails.
func (c *RelationCache) SeedBlock(ctx context.Context, blockerID, blockedID string, blocked bool) {
	c.setBool(ctx, blockKey(blockerID, blockedID), blocked, c.config.BlockTTL)
}

func (c *RelationCache) SeedFollow(ctx context.Context, followerID, followeeID string, follows bool) {
	c.setBool(ctx, followKey(followerID, followeeID), follows, c.config.FollowTTL)
}

func (c *RelationCache) getBool(ctx context.Context, key string) (val, ok bool) {
	res, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return false, false // miss or redis failure; fall through to the source
	}
	return res == "1", true
}

func (c *RelationCache) setBool(ctx context.Context, key string, val bool, ttl time.Duration) {
	s := "0"
	if val {
		s = "1"
	}
	c.client.Set(ctx, key, s, ttl)
}

func blockKey(blockerID, blockedID string) string {
	return fmt.Sprintf("block:%s:%s", blockerID, blockedID)
}

func followKey(followerID, followeeID string) string {
	return fmt.Sprintf("follow:%s:%s", followerID, followeeID)
}

func privacyKey(userID string) string {
	return fmt.Sprintf("privacy:%s", userID)
}
