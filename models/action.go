package models

import "fmt"

// ActionKind enumerates the reactions a user can put on a post.
type ActionKind string

const (
	ActionLike    ActionKind = "LIKE"
	ActionDislike ActionKind = "DISLIKE"
)

// ActionKinds lists all valid reaction kinds.
var ActionKinds = []ActionKind{ActionLike, ActionDislike}

// ParseActionKind validates an action kind received as a path parameter.
func ParseActionKind(s string) (ActionKind, error) {
	switch ActionKind(s) {
	case ActionLike, ActionDislike:
		return ActionKind(s), nil
	}
	return "", fmt.Errorf("unknown action kind %q", s)
}

// PostAction records a single user's reaction to a post. The composite
// primary key makes the (user, post, action) triple unique; the invariant of
// at most one reaction per (user, post) pair is enforced by the service layer.
type PostAction struct {
	UserID string     `gorm:"type:char(36);primaryKey" json:"user_id"`
	PostID string     `gorm:"type:char(36);primaryKey" json:"post_id"`
	Action ActionKind `gorm:"size:16;primaryKey" json:"action"`
	User   User       `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE" json:"-"`
	Post   Post       `gorm:"foreignKey:PostID;constraint:OnUpdate:CASCADE" json:"-"`
}
