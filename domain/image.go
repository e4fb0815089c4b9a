package domain

import (
	"fmt"
	"mime/multipart"
	"net/url"
)

const (
	// OwnerTypePost expresses that an Image belongs to a Post.
	OwnerTypePost = "post"
	// ImagesBaseDir determines the general storage location of uploaded images.
	ImagesBaseDir = "images"
	// MaxUploadSize determines the maximum filesize of an image to be uploaded.
	MaxUploadSize int64 = 5 << 20 // 5 Megabyte
)

// Image represents an image file attached to an owning entity (currently only
// Posts). Images are stored in the filesystem, not in the database; the owning
// Post merely records the relative path. The storage location encodes the
// relationship: an Image belonging to the Post with ID 2 is stored under
// images/post/2/<unique-name>.png.
type Image struct {
	URL         string         `json:"url"`
	OwnerType   string         `json:"-"`
	OwnerID     int            `json:"-"`
	File        multipart.File `json:"-"`
	Filename    string         `json:"-"`
	Extension   string         `json:"-"`
	ContentType string         `json:"-"`
	Size        int64          `json:"-"`

	// BaseDir is the storage root the image was written under. The storage
	// service sets it; empty means the default ImagesBaseDir.
	BaseDir string `json:"-"`
}

// ImageService is a set of methods to manipulate and work with the Image model
// and the respective image files.
type ImageService interface {
	Create(img *Image) error
	ByOwner(ownerType string, ownerID int) ([]Image, error)
	Delete(img *Image) error
	DeleteAll(ownerType string, ownerID int) error
}

// Path returns the URL path of an image stored in the filesystem.
func (i *Image) Path() string {
	temp := url.URL{
		Path: "/" + i.RelativePath(),
	}
	return temp.String()
}

// RelativePath returns the relative path to an image stored in the filesystem.
func (i *Image) RelativePath() string {
	baseDir := i.BaseDir
	if baseDir == "" {
		baseDir = ImagesBaseDir
	}
	return fmt.Sprintf("%v/%v/%v/%v", baseDir, i.OwnerType, i.OwnerID, i.Filename)
}
