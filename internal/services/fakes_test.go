package services

import (
	"context"
	"errors"
	"sync"

	"amen-chat/internal/domain/conversation"
	"amen-chat/internal/domain/message"
	"amen-chat/internal/domain/relation"
	amen_errors "amen-chat/pkg/errors"
	"amen-chat/pkg/retry"
)

func testPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: 4, BaseDelay: 0, MaxDelay: 0}
}

// fakeConversationRepo mimics the conditional-write semantics of the real
// repository: Update and ApplyMessage succeed only when the caller's version
// matches the stored one, and GetOrCreate is first-writer-wins.
type fakeConversationRepo struct {
	mu            sync.Mutex
	conversations map[string]conversation.Conversation
	messages      map[string][]message.Message

	// failApplies makes the next N ApplyMessage calls fail with ErrConflict
	// before touching state, simulating a concurrent writer.
	failApplies int

	// beforeCreate runs between the existence probe and the conditional
	// create so tests can interleave a rival writer into the window.
	beforeCreate func()
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{
		conversations: make(map[string]conversation.Conversation),
		messages:      make(map[string][]message.Message),
	}
}

// GetOrCreate follows the real repository's shape: probe, read, then a
// conditional create whose loser re-reads the winner's record.
func (f *fakeConversationRepo) GetOrCreate(ctx context.Context, initial conversation.Conversation) (conversation.Conversation, bool, error) {
	exists, err := f.Exists(ctx, initial.ID)
	if err != nil {
		return conversation.Conversation{}, false, err
	}
	if exists {
		c, err := f.Get(ctx, initial.ID)
		return c, false, err
	}

	if f.beforeCreate != nil {
		f.beforeCreate()
	}

	err = f.create(initial)
	if errors.Is(err, amen_errors.ErrAlreadyExists) {
		c, err := f.Get(ctx, initial.ID)
		return c, false, err
	}
	if err != nil {
		return conversation.Conversation{}, false, err
	}
	return initial, true, nil
}

// create is first-writer-wins, like a conditional put.
func (f *fakeConversationRepo) create(c conversation.Conversation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.conversations[c.ID]; ok {
		return amen_errors.ErrAlreadyExists
	}
	f.conversations[c.ID] = c
	return nil
}

func (f *fakeConversationRepo) Get(ctx context.Context, id string) (conversation.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.conversations[id]
	if !ok {
		return conversation.Conversation{}, amen_errors.ErrNotFound
	}
	return c, nil
}

func (f *fakeConversationRepo) Exists(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.conversations[id]
	return ok, nil
}

func (f *fakeConversationRepo) Update(ctx context.Context, c conversation.Conversation) (conversation.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.conversations[c.ID]
	if !ok {
		return conversation.Conversation{}, amen_errors.ErrNotFound
	}
	if stored.Version != c.Version {
		return conversation.Conversation{}, amen_errors.ErrConflict
	}
	c.Version++
	f.conversations[c.ID] = c
	return c, nil
}

func (f *fakeConversationRepo) ApplyMessage(ctx context.Context, c conversation.Conversation, m message.Message) (conversation.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failApplies > 0 {
		f.failApplies--
		return conversation.Conversation{}, amen_errors.ErrConflict
	}
	stored, ok := f.conversations[c.ID]
	if !ok {
		return conversation.Conversation{}, amen_errors.ErrNotFound
	}
	if stored.Version != c.Version {
		return conversation.Conversation{}, amen_errors.ErrConflict
	}
	c.Version++
	f.conversations[c.ID] = c
	f.messages[c.ID] = append(f.messages[c.ID], m)
	return c, nil
}

func (f *fakeConversationRepo) ListForUser(ctx context.Context, userID string) ([]conversation.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []conversation.Conversation
	for _, c := range f.conversations {
		if c.HasParticipant(userID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeConversationRepo) messageCount(conversationID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages[conversationID])
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages map[string]message.Message
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{messages: make(map[string]message.Message)}
}

func (f *fakeMessageRepo) put(m message.Message) {
	f.mu.Lock()
	f.messages[m.ID] = m
	f.mu.Unlock()
}

func (f *fakeMessageRepo) ListByConversation(ctx context.Context, conversationID string, limit int) ([]message.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []message.Message
	for _, m := range f.messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeMessageRepo) Get(ctx context.Context, conversationID, messageID string) (message.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.messages[messageID]
	if !ok || m.ConversationID != conversationID {
		return message.Message{}, amen_errors.ErrNotFound
	}
	return m, nil
}

func (f *fakeMessageRepo) SaveMutable(ctx context.Context, m message.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.messages[m.ID]; !ok {
		return amen_errors.ErrNotFound
	}
	f.messages[m.ID] = m
	return nil
}

type fakeRelationRepo struct {
	mu       sync.Mutex
	blocks   map[string]struct{}
	follows  map[string]struct{}
	settings map[string]relation.UserSettings

	failWrites bool
}

func newFakeRelationRepo() *fakeRelationRepo {
	return &fakeRelationRepo{
		blocks:   make(map[string]struct{}),
		follows:  make(map[string]struct{}),
		settings: make(map[string]relation.UserSettings),
	}
}

func (f *fakeRelationRepo) PutBlock(ctx context.Context, b relation.Block) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return amen_errors.ErrUnavailable
	}
	f.blocks[relation.BlockID(b.BlockerID, b.BlockedID)] = struct{}{}
	return nil
}

func (f *fakeRelationRepo) DeleteBlock(ctx context.Context, blockerID, blockedID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return amen_errors.ErrUnavailable
	}
	delete(f.blocks, relation.BlockID(blockerID, blockedID))
	return nil
}

func (f *fakeRelationRepo) HasBlock(ctx context.Context, blockerID, blockedID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.blocks[relation.BlockID(blockerID, blockedID)]
	return ok, nil
}

func (f *fakeRelationRepo) PutFollow(ctx context.Context, fl relation.Follow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return amen_errors.ErrUnavailable
	}
	f.follows[relation.FollowID(fl.FollowerID, fl.FolloweeID)] = struct{}{}
	return nil
}

func (f *fakeRelationRepo) DeleteFollow(ctx context.Context, followerID, followeeID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return amen_errors.ErrUnavailable
	}
	delete(f.follows, relation.FollowID(followerID, followeeID))
	return nil
}

func (f *fakeRelationRepo) HasFollow(ctx context.Context, followerID, followeeID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.follows[relation.FollowID(followerID, followeeID)]
	return ok, nil
}

func (f *fakeRelationRepo) GetSettings(ctx context.Context, userID string) (relation.UserSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.settings[userID]
	if !ok {
		return relation.UserSettings{}, amen_errors.ErrNotFound
	}
	return s, nil
}

func (f *fakeRelationRepo) PutSettings(ctx context.Context, s relation.UserSettings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return amen_errors.ErrUnavailable
	}
	f.settings[s.UserID] = s
	return nil
}

// directRelations serves permission queries straight from the relation repo,
// standing in for the TTL cache.
type directRelations struct {
	repo *fakeRelationRepo
}

func (d directRelations) Blocked(ctx context.Context, a, b string) (bool, error) {
	forward, err := d.repo.HasBlock(ctx, a, b)
	if err != nil || forward {
		return forward, err
	}
	return d.repo.HasBlock(ctx, b, a)
}

func (d directRelations) Follows(ctx context.Context, followerID, followeeID string) (bool, error) {
	return d.repo.HasFollow(ctx, followerID, followeeID)
}

func (d directRelations) Privacy(ctx context.Context, userID string) (relation.PrivacySetting, error) {
	s, err := d.repo.GetSettings(ctx, userID)
	if err != nil {
		return relation.PrivacyEveryone, nil
	}
	return s.Privacy, nil
}

// recordingHooks captures cache seed/invalidate calls for assertions.
type recordingHooks struct {
	mu    sync.Mutex
	calls []string
}

func (r *recordingHooks) record(call string) {
	r.mu.Lock()
	r.calls = append(r.calls, call)
	r.mu.Unlock()
}

func (r *recordingHooks) SeedBlock(ctx context.Context, blockerID, blockedID string, blocked bool) {
	if blocked {
		r.record("seed-block:" + blockerID + ">" + blockedID)
	} else {
		r.record("seed-unblock:" + blockerID + ">" + blockedID)
	}
}

func (r *recordingHooks) SeedFollow(ctx context.Context, followerID, followeeID string, follows bool) {
	if follows {
		r.record("seed-follow:" + followerID + ">" + followeeID)
	} else {
		r.record("seed-unfollow:" + followerID + ">" + followeeID)
	}
}

func (r *recordingHooks) InvalidateBlock(ctx context.Context, blockerID, blockedID string) {
	r.record("invalidate-block:" + blockerID + ">" + blockedID)
}

func (r *recordingHooks) InvalidateFollow(ctx context.Context, followerID, followeeID string) {
	r.record("invalidate-follow:" + followerID + ">" + followeeID)
}

func (r *recordingHooks) InvalidatePrivacy(ctx context.Context, userID string) {
	r.record("invalidate-privacy:" + userID)
}

func (r *recordingHooks) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}
