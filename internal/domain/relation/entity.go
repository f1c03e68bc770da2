package relation

import "time"

// Block is directed: (A,B) and (B,A) are independent records and both are
// checked before any conversation operation between the pair.
type Block struct {
	ID        string    `dynamodbav:"id" json:"id"`
	BlockerID string    `dynamodbav:"blockerId" json:"blocker_id"`
	BlockedID string    `dynamodbav:"blockedId" json:"blocked_id"`
	CreatedAt time.Time `dynamodbav:"createdAt" json:"created_at"`
}

// Follow is directed; a mutual follow holds when both directions exist.
type Follow struct {
	ID         string    `dynamodbav:"id" json:"id"`
	FollowerID string    `dynamodbav:"followerId" json:"follower_id"`
	FolloweeID string    `dynamodbav:"followeeId" json:"followee_id"`
	CreatedAt  time.Time `dynamodbav:"createdAt" json:"created_at"`
}

type PrivacySetting string

const (
	PrivacyEveryone      PrivacySetting = "EVERYONE"
	PrivacyFollowersOnly PrivacySetting = "FOLLOWERS_ONLY"
)

func (p PrivacySetting) Valid() bool {
	return p == PrivacyEveryone || p == PrivacyFollowersOnly
}

// UserSettings holds the per-user knobs the engine consults. Privacy
// defaults to Everyone for users who never saved a setting.
type UserSettings struct {
	UserID    string         `dynamodbav:"id" json:"user_id"`
	Privacy   PrivacySetting `dynamodbav:"privacy" json:"privacy"`
	UpdatedAt time.Time      `dynamodbav:"updatedAt" json:"updated_at"`
}

// BlockID and FollowID key the directed relation records. The owner side
// comes first so store-level rules can restrict writes to the owner.
func BlockID(blockerID, blockedID string) string {
	return blockerID + "_" + blockedID
}

func FollowID(followerID, followeeID string) string {
	return followerID + "_" + followeeID
}
