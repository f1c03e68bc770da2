package message

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewSeedsReadBySender(t *testing.T) {
	m := New("alice_bob", "alice", "hello", time.Now())

	assert.NotEmpty(t, m.ID)
	assert.True(t, m.ReadByUser("alice"))
	assert.False(t, m.ReadByUser("bob"))
}

func TestMarkReadIsIdempotent(t *testing.T) {
	m := New("alice_bob", "alice", "hello", time.Now())

	assert.True(t, m.MarkRead("bob"))
	assert.False(t, m.MarkRead("bob"))
	assert.Equal(t, []string{"alice", "bob"}, m.ReadBy)
}

func TestSetReaction(t *testing.T) {
	m := New("alice_bob", "alice", "hello", time.Now())

	assert.True(t, m.SetReaction("bob", "🙏"))
	assert.False(t, m.SetReaction("bob", "🙏"))

	// Replacing keeps one reaction per user.
	assert.True(t, m.SetReaction("bob", "❤️"))
	assert.Len(t, m.Reactions, 1)
	assert.Equal(t, "❤️", m.Reactions[0].Emoji)

	// Empty emoji removes.
	assert.True(t, m.SetReaction("bob", ""))
	assert.Empty(t, m.Reactions)
	assert.False(t, m.SetReaction("bob", ""))
}
