package services

import (
	"context"
	"testing"
	"time"

	"amen-chat/internal/domain/conversation"
	"amen-chat/internal/domain/relation"
	amen_errors "amen-chat/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type permissionFixture struct {
	relations     *fakeRelationRepo
	conversations *fakeConversationRepo
	service       *PermissionService
}

func newPermissionFixture() *permissionFixture {
	relations := newFakeRelationRepo()
	conversations := newFakeConversationRepo()
	direct := directRelations{repo: relations}
	return &permissionFixture{
		relations:     relations,
		conversations: conversations,
		service:       NewPermissionService(direct, direct, direct, conversations),
	}
}

func (f *permissionFixture) setPrivacy(t *testing.T, userID string, p relation.PrivacySetting) {
	t.Helper()
	require.NoError(t, f.relations.PutSettings(context.Background(), relation.UserSettings{
		UserID: userID, Privacy: p, UpdatedAt: time.Now(),
	}))
}

func (f *permissionFixture) follow(t *testing.T, follower, followee string) {
	t.Helper()
	require.NoError(t, f.relations.PutFollow(context.Background(), relation.Follow{
		FollowerID: follower, FolloweeID: followee,
	}))
}

func TestResolveBlockedEitherDirection(t *testing.T) {
	ctx := context.Background()

	f := newPermissionFixture()
	require.NoError(t, f.relations.PutBlock(ctx, relation.Block{BlockerID: "alice", BlockedID: "bob"}))

	_, err := f.service.Resolve(ctx, "bob", "alice")
	assert.ErrorIs(t, err, amen_errors.ErrBlocked)

	_, err = f.service.Resolve(ctx, "alice", "bob")
	assert.ErrorIs(t, err, amen_errors.ErrBlocked)
}

func TestResolveSelf(t *testing.T) {
	f := newPermissionFixture()
	_, err := f.service.Resolve(context.Background(), "alice", "alice")
	assert.ErrorIs(t, err, amen_errors.ErrSelfConversation)
}

func TestResolveDeclinedConversationWins(t *testing.T) {
	ctx := context.Background()
	f := newPermissionFixture()

	c := conversation.New("bob", "alice", conversation.StatusPending, time.Now())
	c.Decline(time.Now())
	f.conversations.conversations[c.ID] = c

	_, err := f.service.Resolve(ctx, "bob", "alice")
	assert.ErrorIs(t, err, amen_errors.ErrPreviouslyDeclined)

	// Both directions: the record is canonical for the pair.
	_, err = f.service.Resolve(ctx, "alice", "bob")
	assert.ErrorIs(t, err, amen_errors.ErrPreviouslyDeclined)
}

func TestResolveAcceptedConversationAllows(t *testing.T) {
	ctx := context.Background()
	f := newPermissionFixture()

	// Even a restrictive privacy setting cannot undo an accepted conversation.
	f.setPrivacy(t, "alice", relation.PrivacyFollowersOnly)
	c := conversation.New("bob", "alice", conversation.StatusAccepted, time.Now())
	f.conversations.conversations[c.ID] = c

	decision, err := f.service.Resolve(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, DecisionAllowed, decision)
}

func TestResolveDefaultPrivacyAllows(t *testing.T) {
	f := newPermissionFixture()
	decision, err := f.service.Resolve(context.Background(), "bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, DecisionAllowed, decision)
}

func TestResolveFollowersOnlyWithoutMutualFollow(t *testing.T) {
	f := newPermissionFixture()
	f.setPrivacy(t, "alice", relation.PrivacyFollowersOnly)

	decision, err := f.service.Resolve(context.Background(), "bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, DecisionAllowedAsRequest, decision)

	// One-way follow is not enough.
	f.follow(t, "bob", "alice")
	decision, err = f.service.Resolve(context.Background(), "bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, DecisionAllowedAsRequest, decision)
}

func TestResolveFollowersOnlyWithMutualFollow(t *testing.T) {
	f := newPermissionFixture()
	f.setPrivacy(t, "alice", relation.PrivacyFollowersOnly)
	f.follow(t, "bob", "alice")
	f.follow(t, "alice", "bob")

	decision, err := f.service.Resolve(context.Background(), "bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, DecisionAllowed, decision)
}

func TestResolvePendingConversationFallsThrough(t *testing.T) {
	ctx := context.Background()
	f := newPermissionFixture()
	f.setPrivacy(t, "alice", relation.PrivacyFollowersOnly)

	c := conversation.New("bob", "alice", conversation.StatusPending, time.Now())
	f.conversations.conversations[c.ID] = c

	// Still a request; the pending gate owns the per-message limit.
	decision, err := f.service.Resolve(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, DecisionAllowedAsRequest, decision)
}
