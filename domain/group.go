package domain

import (
	"context"
	"time"
)

// DefaultGroupDescription is stored when a Group is created without one.
const DefaultGroupDescription = "A community without a description, yet."

// Group is a named topic that Posts may be attached to. Groups are created
// out-of-band by an administrator; the request handlers only ever read them.
// The slug is the Group's public identity and must be unique and URL-safe.
type Group struct {
	ID          int    `json:"id"`
	Title       string `json:"title" gorm:"size:200;notNull"`
	Slug        string `json:"slug" gorm:"uniqueIndex;size:100;notNull"`
	Description string `json:"description" gorm:"notNull"`

	Posts []Post `json:"posts,omitempty" gorm:"foreignKey:GroupID"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GroupService is a set of methods to manipulate and work with the Group model.
type GroupService interface {
	ByID(ctx context.Context, id int) (*Group, error)
	BySlug(ctx context.Context, slug string) (*Group, error)
	Create(ctx context.Context, group *Group) error
}
