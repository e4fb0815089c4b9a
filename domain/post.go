package domain

import (
	"context"
	"time"

	"microblog/pagination"
)

// Post is a user-authored text entry, optionally attached to a Group and
// illustrated with an image stored on disk. PubDate is assigned by the server
// on creation and never changes afterwards; updates only ever touch the text
// and the group. Only the author may mutate a Post. Deleting a Post cascades
// to its Comments.
type Post struct {
	ID      int       `json:"id"`
	Text    string    `json:"text" gorm:"type:text;notNull"`
	PubDate time.Time `json:"pub_date" gorm:"autoCreateTime;index"`

	AuthorID int   `json:"author_id" gorm:"notNull;index"`
	Author   *User `json:"author,omitempty"`

	GroupID *int   `json:"group_id,omitempty" gorm:"index"`
	Group   *Group `json:"group,omitempty"`

	// Image holds the relative path of the uploaded image file, if any.
	// The file itself lives on disk, not in the database.
	Image string `json:"image,omitempty"`

	Comments []Comment `json:"comments,omitempty" gorm:"foreignKey:PostID"`

	UpdatedAt time.Time `json:"updated_at"`
}

// PostPage is one page of Posts in pub_date descending order, along with the
// pagination metadata the client needs to render page controls.
type PostPage struct {
	Posts []Post          `json:"posts"`
	Page  pagination.Page `json:"page"`
}

// PostService is a set of methods to manipulate and work with the Post model.
// The listing methods take the raw page query parameter and resolve it to a
// valid page themselves, so callers never deal with out-of-range input.
type PostService interface {
	ByID(ctx context.Context, id int) (*Post, error)
	Latest(ctx context.Context, page string) (*PostPage, error)
	ByGroup(ctx context.Context, group *Group, page string) (*PostPage, error)
	ByAuthor(ctx context.Context, author *User, page string) (*PostPage, error)
	// FeedFor returns the posts whose authors are followed by the given user.
	FeedFor(ctx context.Context, userID int, page string) (*PostPage, error)
	Create(ctx context.Context, post *Post) error
	Update(ctx context.Context, post *Post) error
	Delete(ctx context.Context, post *Post) error
}
