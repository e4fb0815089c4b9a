package crud

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"microblog/domain"
	"microblog/errs"
)

// GroupTitleMaxLength is the maximum number of characters in a group title.
const GroupTitleMaxLength = 200

// GroupService manages Groups. Groups are administered out-of-band, so the
// request handlers only use the read methods; Create exists for seeding and
// operational tooling. It implements the domain.GroupService interface.
type GroupService struct {
	groupValidator
}

// groupValidator runs validations on incoming Group data.
// On success, it passes the data on to groupGorm.
// Otherwise, it returns the error of the validation that has failed.
type groupValidator struct {
	slugRegex *regexp.Regexp
	groupGorm
}

// groupGorm runs CRUD operations on the database using incoming Group data.
// It assumes that data has been validated. On success, it returns nil.
// Otherwise, it returns the error of the operation that has failed.
type groupGorm struct {
	db *gorm.DB
}

// NewGroupService returns an instance of GroupService.
func NewGroupService(db *gorm.DB) *GroupService {
	return &GroupService{
		groupValidator{
			slugRegex: regexp.MustCompile(`^[a-z0-9_-]+$`),
			groupGorm: groupGorm{
				db: db,
			},
		},
	}
}

// Ensure the GroupService struct properly implements the domain.GroupService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.GroupService = &GroupService{}

// Create runs validations needed for creating new Group database records.
func (gv *groupValidator) Create(ctx context.Context, group *domain.Group) error {
	err := runGroupValFns(group,
		gv.titleNotEmpty,
		gv.titleMaxLength,
		gv.slugNormalize,
		gv.slugFormat,
		gv.slugIsAvail(ctx),
		gv.descriptionDefault)
	if err != nil {
		return err
	}
	return gv.groupGorm.Create(ctx, group)
}

// runGroupValFns runs any number of functions of type groupValFn on the passed in Group object.
// If none of them returns an error, it returns nil. Otherwise, it returns the respective error.
func runGroupValFns(group *domain.Group, fns ...groupValFn) error {
	for _, fn := range fns {
		if err := fn(group); err != nil {
			return err
		}
	}
	return nil
}

// A groupValFn is any function that takes in a pointer to a domain.Group object and returns an error.
type groupValFn = func(group *domain.Group) error

// titleNotEmpty makes sure that the group's title is not the empty string.
func (gv *groupValidator) titleNotEmpty(group *domain.Group) error {
	if group.Title == "" {
		return errs.Errorf(errs.EINVALID, "A title is required.")
	}
	return nil
}

// titleMaxLength makes sure that the group's title does not exceed GroupTitleMaxLength characters.
func (gv *groupValidator) titleMaxLength(group *domain.Group) error {
	if utf8.RuneCountInString(group.Title) > GroupTitleMaxLength {
		return errs.Errorf(errs.EINVALID,
			"A title must not contain more than %d characters.", GroupTitleMaxLength)
	}
	return nil
}

// slugNormalize lowercases the slug and trims its whitespace.
func (gv *groupValidator) slugNormalize(group *domain.Group) error {
	group.Slug = strings.ToLower(strings.TrimSpace(group.Slug))
	return nil
}

// slugFormat makes sure the slug only contains URL-safe characters.
func (gv *groupValidator) slugFormat(group *domain.Group) error {
	if !gv.slugRegex.MatchString(group.Slug) {
		return errs.Errorf(errs.EINVALID,
			"A slug may only contain lowercase letters, digits, hyphens and underscores, got %q.", group.Slug)
	}
	return nil
}

// slugIsAvail makes sure the slug is not yet taken by another group.
func (gv *groupValidator) slugIsAvail(ctx context.Context) groupValFn {
	return func(group *domain.Group) error {
		var existing domain.Group
		err := gv.db.WithContext(ctx).First(&existing, "slug = ?", group.Slug).Error
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		if existing.ID != group.ID {
			return errs.Errorf(errs.ECONFLICT, "The slug %q is already taken.", group.Slug)
		}
		return nil
	}
}

// descriptionDefault fills in the default description when none is provided.
func (gv *groupValidator) descriptionDefault(group *domain.Group) error {
	if group.Description == "" {
		group.Description = domain.DefaultGroupDescription
	}
	return nil
}

// ByID retrieves a Group database record by ID.
func (gg *groupGorm) ByID(ctx context.Context, id int) (*domain.Group, error) {
	var group domain.Group
	err := gg.db.WithContext(ctx).First(&group, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errs.Errorf(errs.ENOTFOUND, "The group does not exist.")
		}
		return nil, err
	}
	return &group, nil
}

// BySlug retrieves a Group database record by its slug.
func (gg *groupGorm) BySlug(ctx context.Context, slug string) (*domain.Group, error) {
	var group domain.Group
	err := gg.db.WithContext(ctx).First(&group, "slug = ?", slug).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errs.Errorf(errs.ENOTFOUND, "The group does not exist.")
		}
		return nil, err
	}
	return &group, nil
}

// Create stores the data from the Group object in a new database record.
func (gg *groupGorm) Create(ctx context.Context, group *domain.Group) error {
	return gg.db.WithContext(ctx).Create(group).Error
}
