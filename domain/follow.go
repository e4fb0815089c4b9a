package domain

import (
	"context"
	"time"
)

// Follow is a directed subscription edge: UserID follows AuthorID. The pair
// is unique in the database, so at most one row exists per directed edge.
// Self-follows are not forbidden by the schema; the follow service refuses to
// create them, but nothing below that layer does.
type Follow struct {
	ID int `json:"id"`

	UserID int   `json:"-" gorm:"notNull;uniqueIndex:idx_follows_user_author"`
	User   *User `json:"user,omitempty"`

	AuthorID int   `json:"-" gorm:"notNull;uniqueIndex:idx_follows_user_author"`
	Author   *User `json:"author,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// FollowService is a set of methods to manipulate and work with the Follow model.
// Create and Delete are idempotent: creating an edge that already exists and
// deleting one that does not are both no-ops, not errors.
type FollowService interface {
	Create(ctx context.Context, follow *Follow) error
	Delete(ctx context.Context, follow *Follow) error
	IsFollowing(ctx context.Context, userID, authorID int) (bool, error)
}
