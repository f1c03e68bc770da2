package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"amen-chat/internal/domain/conversation"
	"amen-chat/internal/domain/relation"
	"amen-chat/internal/events"
	amen_errors "amen-chat/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type conversationFixture struct {
	relations     *fakeRelationRepo
	conversations *fakeConversationRepo
	bus           *events.Bus
	service       *ConversationService
}

func newConversationFixture() *conversationFixture {
	relations := newFakeRelationRepo()
	conversations := newFakeConversationRepo()
	direct := directRelations{repo: relations}
	bus := events.NewBus()
	permissions := NewPermissionService(direct, direct, direct, conversations)
	return &conversationFixture{
		relations:     relations,
		conversations: conversations,
		bus:           bus,
		service:       NewConversationService(conversations, permissions, bus, testPolicy()),
	}
}

func (f *conversationFixture) restrict(t *testing.T, userID string) {
	t.Helper()
	require.NoError(t, f.relations.PutSettings(context.Background(), relation.UserSettings{
		UserID: userID, Privacy: relation.PrivacyFollowersOnly, UpdatedAt: time.Now(),
	}))
}

func TestOpenConvergesOnOneRecord(t *testing.T) {
	ctx := context.Background()
	f := newConversationFixture()

	first, err := f.service.Open(ctx, "bob", "alice")
	require.NoError(t, err)

	// Opening from the other side lands on the same record.
	second, err := f.service.Open(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, f.conversations.conversations, 1)
}

func TestOpenCreateRaceLoserReadsWinner(t *testing.T) {
	ctx := context.Background()
	f := newConversationFixture()
	f.restrict(t, "alice")

	sub := f.bus.Subscribe(events.KindConversationCreated)
	defer sub.Close()

	// A rival writes the pair's record between the existence probe and the
	// conditional create. The losing create must surface the rival's record,
	// not the caller's candidate.
	rival := conversation.New("alice", "bob", conversation.StatusAccepted, time.Now())
	f.conversations.beforeCreate = func() {
		require.NoError(t, f.conversations.create(rival))
	}

	conv, err := f.service.Open(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, rival.ID, conv.ID)
	assert.Equal(t, conversation.StatusAccepted, conv.Status)
	assert.Len(t, f.conversations.conversations, 1)

	// The loser did not create anything, so no created event fires.
	select {
	case <-sub.C:
		t.Fatal("create-race loser must not publish a created event")
	default:
	}
}

func TestOpenConcurrentCallersConverge(t *testing.T) {
	ctx := context.Background()
	f := newConversationFixture()

	const callers = 16
	ids := make([]string, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			initiator, target := "bob", "alice"
			if i%2 == 0 {
				initiator, target = target, initiator
			}
			conv, err := f.service.Open(ctx, initiator, target)
			ids[i], errs[i] = conv.ID, err
		}(i)
	}
	wg.Wait()

	assert.Len(t, f.conversations.conversations, 1)
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
}

func TestOpenRespectsPrivacy(t *testing.T) {
	ctx := context.Background()
	f := newConversationFixture()
	f.restrict(t, "alice")

	conv, err := f.service.Open(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, conversation.StatusPending, conv.Status)
	assert.Equal(t, "bob", conv.RequesterID)
}

func TestOpenSelf(t *testing.T) {
	f := newConversationFixture()
	_, err := f.service.Open(context.Background(), "bob", "bob")
	assert.ErrorIs(t, err, amen_errors.ErrSelfConversation)
}

func TestAcceptByRequesterForbidden(t *testing.T) {
	ctx := context.Background()
	f := newConversationFixture()
	f.restrict(t, "alice")

	conv, err := f.service.Open(ctx, "bob", "alice")
	require.NoError(t, err)

	_, err = f.service.Accept(ctx, conv.ID, "bob")
	assert.ErrorIs(t, err, amen_errors.ErrForbidden)
}

func TestAcceptByCounterpart(t *testing.T) {
	ctx := context.Background()
	f := newConversationFixture()
	f.restrict(t, "alice")

	conv, err := f.service.Open(ctx, "bob", "alice")
	require.NoError(t, err)

	sub := f.bus.Subscribe(events.KindConversationAccepted)
	defer sub.Close()

	accepted, err := f.service.Accept(ctx, conv.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, conversation.StatusAccepted, accepted.Status)

	select {
	case evt := <-sub.C:
		assert.Equal(t, conv.ID, evt.SubjectID)
	case <-time.After(time.Second):
		t.Fatal("accepted event not published")
	}

	// Repeating the accept is a no-op, not an error, and publishes nothing.
	again, err := f.service.Accept(ctx, conv.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, accepted.Version, again.Version)
	assert.Empty(t, sub.C)
}

func TestDeclineIsTerminalForThePair(t *testing.T) {
	ctx := context.Background()
	f := newConversationFixture()
	f.restrict(t, "alice")

	conv, err := f.service.Open(ctx, "bob", "alice")
	require.NoError(t, err)

	declined, err := f.service.Decline(ctx, conv.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, conversation.StatusDeclined, declined.Status)

	// Reopening the pair is refused; the record itself stays.
	_, err = f.service.Open(ctx, "bob", "alice")
	assert.ErrorIs(t, err, amen_errors.ErrPreviouslyDeclined)
	assert.Len(t, f.conversations.conversations, 1)
}

func TestGetRequiresParticipant(t *testing.T) {
	ctx := context.Background()
	f := newConversationFixture()

	conv, err := f.service.Open(ctx, "bob", "alice")
	require.NoError(t, err)

	_, err = f.service.Get(ctx, conv.ID, "mallory")
	assert.ErrorIs(t, err, amen_errors.ErrForbidden)

	_, err = f.service.Get(ctx, "nope", "bob")
	assert.ErrorIs(t, err, amen_errors.ErrNotFound)
}

func TestListOrdersPinnedFirstThenRecency(t *testing.T) {
	ctx := context.Background()
	f := newConversationFixture()
	now := time.Now()

	old := conversation.New("bob", "alice", conversation.StatusAccepted, now)
	old.LastMessageAt = now.Add(-2 * time.Hour)
	mid := conversation.New("bob", "carol", conversation.StatusAccepted, now)
	mid.LastMessageAt = now.Add(-time.Hour)
	recent := conversation.New("bob", "dave", conversation.StatusAccepted, now)
	recent.LastMessageAt = now
	old.SetPinned("bob", true)

	for _, c := range []conversation.Conversation{old, mid, recent} {
		f.conversations.conversations[c.ID] = c
	}

	items, err := f.service.List(ctx, "bob", false)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, old.ID, items[0].ID)
	assert.Equal(t, recent.ID, items[1].ID)
	assert.Equal(t, mid.ID, items[2].ID)
}

func TestListFiltersArchived(t *testing.T) {
	ctx := context.Background()
	f := newConversationFixture()

	conv, err := f.service.Open(ctx, "bob", "alice")
	require.NoError(t, err)
	_, err = f.service.SetArchived(ctx, conv.ID, "bob", true)
	require.NoError(t, err)

	items, err := f.service.List(ctx, "bob", false)
	require.NoError(t, err)
	assert.Empty(t, items)

	items, err = f.service.List(ctx, "bob", true)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	// The counterpart's view is unaffected.
	items, err = f.service.List(ctx, "alice", false)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestFlagsPersist(t *testing.T) {
	ctx := context.Background()
	f := newConversationFixture()

	conv, err := f.service.Open(ctx, "bob", "alice")
	require.NoError(t, err)

	updated, err := f.service.SetMuted(ctx, conv.ID, "bob", true)
	require.NoError(t, err)
	assert.True(t, updated.MutedFor("bob"))
	assert.False(t, updated.MutedFor("alice"))

	stored, err := f.conversations.Get(ctx, conv.ID)
	require.NoError(t, err)
	assert.True(t, stored.MutedFor("bob"))

	// A redundant toggle does not bump the version.
	again, err := f.service.SetMuted(ctx, conv.ID, "bob", true)
	require.NoError(t, err)
	assert.Equal(t, updated.Version, again.Version)
}

func TestFlagMutationByNonParticipant(t *testing.T) {
	ctx := context.Background()
	f := newConversationFixture()

	conv, err := f.service.Open(ctx, "bob", "alice")
	require.NoError(t, err)

	_, err = f.service.SetPinned(ctx, conv.ID, "mallory", true)
	assert.ErrorIs(t, err, amen_errors.ErrForbidden)
}
