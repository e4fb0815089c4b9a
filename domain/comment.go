package domain

import (
	"context"
	"time"
)

// Comment is a user-authored reply attached to a single Post. Created is
// assigned by the server and immutable. Comments cannot be edited or deleted
// through the service; they only disappear when their Post does.
type Comment struct {
	ID int `json:"id"`

	PostID int `json:"post_id" gorm:"notNull;index"`

	AuthorID int   `json:"author_id" gorm:"notNull"`
	Author   *User `json:"author,omitempty"`

	Text    string    `json:"text" gorm:"size:140;notNull"`
	Created time.Time `json:"created" gorm:"autoCreateTime;index"`
}

// CommentService is a set of methods to manipulate and work with the Comment model.
type CommentService interface {
	// ByPost returns all comments of a post, newest first.
	ByPost(ctx context.Context, postID int) ([]Comment, error)
	Create(ctx context.Context, comment *Comment) error
}
