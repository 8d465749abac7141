package domain

import "time"

// FollowState is the relationship state after a follow toggle.
type FollowState string

const (
	FollowStateFollowed   FollowState = "followed"
	FollowStateUnfollowed FollowState = "unfollowed"
)

// Follow is a directed edge: FollowerID follows FollowingID.
// At most one edge exists per ordered pair.
type Follow struct {
	FollowerID  string
	FollowingID string
	CreatedAt   time.Time
}
