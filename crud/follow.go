package crud

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"microblog/domain"
	"microblog/errs"
)

// FollowService manages Follows.
// It implements the domain.FollowService interface.
type FollowService struct {
	followValidator
}

// followValidator runs validations on incoming Follow data.
// On success, it passes the data on to followGorm.
// Otherwise, it returns the error of the validation that has failed.
type followValidator struct {
	followGorm
}

// followGorm runs CRUD operations on the database using incoming Follow data.
// It assumes that data has been validated. On success, it returns nil.
// Otherwise, it returns the error of the operation that has failed.
type followGorm struct {
	db *gorm.DB
}

// NewFollowService returns an instance of FollowService.
func NewFollowService(db *gorm.DB) *FollowService {
	return &FollowService{
		followValidator{
			followGorm{
				db: db,
			},
		},
	}
}

// Ensure the FollowService struct properly implements the domain.FollowService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.FollowService = &FollowService{}

// Create inserts a follow edge. Following yourself and following someone you
// already follow are both no-ops, not errors. The self-follow guard lives
// here, above the schema: the unique index on (user_id, author_id) is the
// only constraint the data model itself enforces.
func (fv *followValidator) Create(ctx context.Context, follow *domain.Follow) error {
	if err := runFollowValFns(follow, fv.userIDsValid, fv.authorExists(ctx)); err != nil {
		return err
	}
	if follow.UserID == follow.AuthorID {
		return nil
	}
	existing, err := fv.followGorm.IsFollowing(ctx, follow.UserID, follow.AuthorID)
	if err != nil {
		return err
	}
	if existing {
		return nil
	}
	return fv.followGorm.Create(ctx, follow)
}

// Delete removes a follow edge if it exists. Deleting an absent edge is a no-op.
func (fv *followValidator) Delete(ctx context.Context, follow *domain.Follow) error {
	if err := runFollowValFns(follow, fv.userIDsValid); err != nil {
		return err
	}
	return fv.followGorm.Delete(ctx, follow)
}

// runFollowValFns runs any number of functions of type followValFn on the passed in Follow object.
// If none of them returns an error, it returns nil. Otherwise, it returns the respective error.
func runFollowValFns(follow *domain.Follow, fns ...followValFn) error {
	for _, fn := range fns {
		if err := fn(follow); err != nil {
			return err
		}
	}
	return nil
}

// A followValFn is any function that takes in a pointer to a domain.Follow object and returns an error.
type followValFn = func(follow *domain.Follow) error

// userIDsValid makes sure both ends of the edge are set.
func (fv *followValidator) userIDsValid(follow *domain.Follow) error {
	if follow.UserID <= 0 || follow.AuthorID <= 0 {
		return errs.Errorf(errs.EINVALID, "Both users of a follow are required.")
	}
	return nil
}

// authorExists makes sure that the user to be followed actually exists.
func (fv *followValidator) authorExists(ctx context.Context) followValFn {
	return func(follow *domain.Follow) error {
		err := fv.db.WithContext(ctx).First(&domain.User{}, "id = ?", follow.AuthorID).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errs.Errorf(errs.ENOTFOUND, "The user to be followed does not exist.")
			}
			return err
		}
		return nil
	}
}

// IsFollowing reports whether a follow edge from userID to authorID exists.
func (fg *followGorm) IsFollowing(ctx context.Context, userID, authorID int) (bool, error) {
	var count int64
	err := fg.db.WithContext(ctx).
		Model(&domain.Follow{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create stores the follow edge. The existence check in the validator and
// this insert are not one atomic step, so two racing requests can both pass
// the check; the unique index rejects the loser and that rejection is
// swallowed here, keeping Create idempotent.
func (fg *followGorm) Create(ctx context.Context, follow *domain.Follow) error {
	err := fg.db.WithContext(ctx).Create(follow).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return err
	}
	return nil
}

// Delete removes the follow edge matching both ends, if any.
func (fg *followGorm) Delete(ctx context.Context, follow *domain.Follow) error {
	return fg.db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", follow.UserID, follow.AuthorID).
		Delete(&domain.Follow{}).Error
}
