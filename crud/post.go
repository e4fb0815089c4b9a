package crud

import (
	"context"
	"unicode/utf8"

	"gorm.io/gorm"

	"microblog/domain"
	"microblog/errs"
	"microblog/pagination"
)

// PostTextMinLength is the minimum number of characters a post must contain.
const PostTextMinLength = 10

// PostService manages Posts.
// It implements the domain.PostService interface.
type PostService struct {
	postValidator
}

// postValidator runs validations on incoming Post data.
// On success, it passes the data on to postGorm.
// Otherwise, it returns the error of the validation that has failed.
type postValidator struct {
	postGorm
}

// postGorm runs CRUD operations on the database using incoming Post data.
// It assumes that data has been validated. On success, it returns nil.
// Otherwise, it returns the error of the operation that has failed.
type postGorm struct {
	db      *gorm.DB
	perPage int
}

// NewPostService returns an instance of PostService with the given page size.
func NewPostService(db *gorm.DB, perPage int) *PostService {
	return &PostService{
		postValidator{
			postGorm{
				db:      db,
				perPage: perPage,
			},
		},
	}
}

// Ensure the PostService struct properly implements the domain.PostService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.PostService = &PostService{}

// Create runs validations needed for creating new Post database records.
func (pv *postValidator) Create(ctx context.Context, post *domain.Post) error {
	err := runPostValFns(post,
		pv.authorIDValid,
		pv.textMinLength,
		pv.groupExistsIfSet(ctx))
	if err != nil {
		return err
	}
	return pv.postGorm.Create(ctx, post)
}

// Update runs validations needed for updating existing Post database records.
// The record's identity, author and publication date never change.
func (pv *postValidator) Update(ctx context.Context, post *domain.Post) error {
	err := runPostValFns(post,
		pv.idValid,
		pv.textMinLength,
		pv.groupExistsIfSet(ctx))
	if err != nil {
		return err
	}
	return pv.postGorm.Update(ctx, post)
}

// Delete runs validations needed for deleting existing Post database records.
func (pv *postValidator) Delete(ctx context.Context, post *domain.Post) error {
	if err := runPostValFns(post, pv.idValid); err != nil {
		return err
	}
	return pv.postGorm.Delete(ctx, post)
}

// runPostValFns runs any number of functions of type postValFn on the passed in Post object.
// If none of them returns an error, it returns nil. Otherwise, it returns the respective error.
func runPostValFns(post *domain.Post, fns ...postValFn) error {
	for _, fn := range fns {
		if err := fn(post); err != nil {
			return err
		}
	}
	return nil
}

// A postValFn is any function that takes in a pointer to a domain.Post object and returns an error.
type postValFn = func(post *domain.Post) error

// textMinLength makes sure that the post's text has at least PostTextMinLength characters.
// The error carries the offending value so it can be displayed on the form.
func (pv *postValidator) textMinLength(post *domain.Post) error {
	if utf8.RuneCountInString(post.Text) < PostTextMinLength {
		return errs.Errorf(errs.EINVALID,
			"A post must contain at least %d characters, got %q.", PostTextMinLength, post.Text)
	}
	return nil
}

// authorIDValid makes sure that the post has an author.
func (pv *postValidator) authorIDValid(post *domain.Post) error {
	if post.AuthorID <= 0 {
		return errs.Errorf(errs.EINVALID, "An author is required.")
	}
	return nil
}

// idValid makes sure that the passed in ID of a Post to be mutated is greater than 0.
func (pv *postValidator) idValid(post *domain.Post) error {
	if post.ID <= 0 {
		return errs.Errorf(errs.EINVALID, "Invalid post ID.")
	}
	return nil
}

// groupExistsIfSet makes sure that the group the post is attached to actually
// exists. This check only runs if the incoming Post has a group set at all.
func (pv *postValidator) groupExistsIfSet(ctx context.Context) postValFn {
	return func(post *domain.Post) error {
		if post.GroupID == nil {
			return nil
		}
		err := pv.db.WithContext(ctx).First(&domain.Group{}, "id = ?", *post.GroupID).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errs.Errorf(errs.EINVALID, "The group does not exist.")
			}
			return err
		}
		return nil
	}
}

// ByID retrieves a single Post by ID, along with its author and group.
func (pg *postGorm) ByID(ctx context.Context, id int) (*domain.Post, error) {
	var post domain.Post
	err := pg.db.WithContext(ctx).
		Preload("Author").
		Preload("Group").
		First(&post, "id = ?", id).
		Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errs.Errorf(errs.ENOTFOUND, "The post does not exist.")
		}
		return nil, err
	}
	return &post, nil
}

// Latest returns one page of all posts, newest first.
func (pg *postGorm) Latest(ctx context.Context, page string) (*domain.PostPage, error) {
	return pg.paginate(ctx, page, pg.db.WithContext(ctx).Model(&domain.Post{}))
}

// ByGroup returns one page of the posts attached to a group, newest first.
func (pg *postGorm) ByGroup(ctx context.Context, group *domain.Group, page string) (*domain.PostPage, error) {
	query := pg.db.WithContext(ctx).Model(&domain.Post{}).Where("group_id = ?", group.ID)
	return pg.paginate(ctx, page, query)
}

// ByAuthor returns one page of the posts written by an author, newest first.
func (pg *postGorm) ByAuthor(ctx context.Context, author *domain.User, page string) (*domain.PostPage, error) {
	query := pg.db.WithContext(ctx).Model(&domain.Post{}).Where("author_id = ?", author.ID)
	return pg.paginate(ctx, page, query)
}

// FeedFor returns one page of the posts whose authors are followed by the
// given user, newest first.
func (pg *postGorm) FeedFor(ctx context.Context, userID int, page string) (*domain.PostPage, error) {
	query := pg.db.WithContext(ctx).Model(&domain.Post{}).
		Joins("JOIN follows ON follows.author_id = posts.author_id").
		Where("follows.user_id = ?", userID)
	return pg.paginate(ctx, page, query)
}

// paginate resolves the raw page parameter against the query's total count
// and loads the addressed page of posts with their authors and groups.
func (pg *postGorm) paginate(ctx context.Context, page string, query *gorm.DB) (*domain.PostPage, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}
	resolved := pagination.Resolve(page, int(total), pg.perPage)

	var posts []domain.Post
	err := query.
		Preload("Author").
		Preload("Group").
		Order("pub_date desc").
		Offset(resolved.Offset).
		Limit(resolved.Limit).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return &domain.PostPage{
		Posts: posts,
		Page:  resolved,
	}, nil
}

// Create stores the data from the Post object in a new database record.
func (pg *postGorm) Create(ctx context.Context, post *domain.Post) error {
	if err := pg.db.WithContext(ctx).Create(post).Error; err != nil {
		return err
	}
	return pg.db.WithContext(ctx).Preload("Author").Preload("Group").First(post).Error
}

// Update saves the mutable fields of a post, leaving the record's identity,
// author and publication date untouched.
func (pg *postGorm) Update(ctx context.Context, post *domain.Post) error {
	return pg.db.WithContext(ctx).
		Model(&domain.Post{ID: post.ID}).
		Select("text", "group_id", "image").
		Updates(map[string]interface{}{
			"text":     post.Text,
			"group_id": post.GroupID,
			"image":    post.Image,
		}).Error
}

// Delete removes a Post record from the database, along with its Comments.
func (pg *postGorm) Delete(ctx context.Context, post *domain.Post) error {
	return pg.db.WithContext(ctx).Select("Comments").Delete(post).Error
}
