package crud

import (
	"context"
	"unicode/utf8"

	"gorm.io/gorm"

	"microblog/domain"
	"microblog/errs"
)

// Bounds on the length of a comment, in characters, both inclusive.
const (
	CommentTextMinLength = 4
	CommentTextMaxLength = 140
)

// CommentService manages Comments.
// It implements the domain.CommentService interface.
type CommentService struct {
	commentValidator
}

// commentValidator runs validations on incoming Comment data.
// On success, it passes the data on to commentGorm.
// Otherwise, it returns the error of the validation that has failed.
type commentValidator struct {
	commentGorm
}

// commentGorm runs CRUD operations on the database using incoming Comment data.
// It assumes that data has been validated. On success, it returns nil.
// Otherwise, it returns the error of the operation that has failed.
type commentGorm struct {
	db *gorm.DB
}

// NewCommentService returns an instance of CommentService.
func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{
		commentValidator{
			commentGorm{
				db: db,
			},
		},
	}
}

// Ensure the CommentService struct properly implements the domain.CommentService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.CommentService = &CommentService{}

// Create runs validations needed for creating new Comment database records.
func (cv *commentValidator) Create(ctx context.Context, comment *domain.Comment) error {
	err := runCommentValFns(comment,
		cv.authorIDValid,
		cv.textSize,
		cv.postExists(ctx))
	if err != nil {
		return err
	}
	return cv.commentGorm.Create(ctx, comment)
}

// runCommentValFns runs any number of functions of type commentValFn on the passed in Comment object.
// If none of them returns an error, it returns nil. Otherwise, it returns the respective error.
func runCommentValFns(comment *domain.Comment, fns ...commentValFn) error {
	for _, fn := range fns {
		if err := fn(comment); err != nil {
			return err
		}
	}
	return nil
}

// A commentValFn is any function that takes in a pointer to a domain.Comment object and returns an error.
type commentValFn = func(comment *domain.Comment) error

// textSize makes sure that the comment's text stays within the allowed length
// bounds. The error carries the offending value so it can be displayed on the form.
func (cv *commentValidator) textSize(comment *domain.Comment) error {
	size := utf8.RuneCountInString(comment.Text)
	if size < CommentTextMinLength {
		return errs.Errorf(errs.EINVALID,
			"A comment must contain at least %d characters, got %q.", CommentTextMinLength, comment.Text)
	}
	if size > CommentTextMaxLength {
		return errs.Errorf(errs.EINVALID,
			"A comment must not contain more than %d characters, got %q.", CommentTextMaxLength, comment.Text)
	}
	return nil
}

// authorIDValid makes sure that the comment has an author.
func (cv *commentValidator) authorIDValid(comment *domain.Comment) error {
	if comment.AuthorID <= 0 {
		return errs.Errorf(errs.EINVALID, "An author is required.")
	}
	return nil
}

// postExists makes sure that the post being commented on actually exists.
func (cv *commentValidator) postExists(ctx context.Context) commentValFn {
	return func(comment *domain.Comment) error {
		err := cv.db.WithContext(ctx).First(&domain.Post{}, "id = ?", comment.PostID).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errs.Errorf(errs.ENOTFOUND, "The post does not exist.")
			}
			return err
		}
		return nil
	}
}

// ByPost retrieves all comments of a post, newest first, with their authors.
func (cg *commentGorm) ByPost(ctx context.Context, postID int) ([]domain.Comment, error) {
	var comments []domain.Comment
	err := cg.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Preload("Author").
		Order("created desc").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// Create stores the data from the Comment object in a new database record.
func (cg *commentGorm) Create(ctx context.Context, comment *domain.Comment) error {
	if err := cg.db.WithContext(ctx).Create(comment).Error; err != nil {
		return err
	}
	return cg.db.WithContext(ctx).Preload("Author").First(comment).Error
}
