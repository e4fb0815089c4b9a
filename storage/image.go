// Package storage keeps uploaded image files on the local filesystem.
package storage

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	_ "image/jpeg"
	_ "image/png"

	"microblog/domain"
	"microblog/errs"
)

// ImageService manages image files on disk.
// It implements the domain.ImageService interface.
type ImageService struct {
	imageValidator
}

// imageValidator runs validations on incoming Image data.
// On success, it passes the data on to imageDisk.
// Otherwise, it returns the error of the validation that has failed.
type imageValidator struct {
	imageDisk
}

// imageDisk runs file operations on the filesystem using incoming Image data.
// It assumes that data has been validated. On success, it returns nil.
// Otherwise, it returns the error of the operation that has failed.
type imageDisk struct {
	baseDir string
}

// NewImageService returns an instance of ImageService rooted at baseDir.
// An empty baseDir falls back to domain.ImagesBaseDir.
func NewImageService(baseDir string) *ImageService {
	if baseDir == "" {
		baseDir = domain.ImagesBaseDir
	}
	return &ImageService{
		imageValidator{
			imageDisk{
				baseDir: baseDir,
			},
		},
	}
}

// Ensure the ImageService struct properly implements the domain.ImageService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.ImageService = &ImageService{}

// Create runs validations needed for storing uploaded images in the filesystem.
func (iv *imageValidator) Create(img *domain.Image) error {
	err := runImageValFns(img,
		iv.extensionValid,
		iv.contentTypeValid,
		iv.contentTypeExtensionMatch,
		iv.belowMaxSize,
		iv.fileNameUnique,
	)
	if err != nil {
		return err
	}
	return iv.imageDisk.Create(img)
}

// runImageValFns runs any number of functions of type imageValFn on the passed in Image object.
// If none of them returns an error, it returns nil. Otherwise, it returns the respective error.
func runImageValFns(img *domain.Image, fns ...imageValFn) error {
	for _, fn := range fns {
		if err := fn(img); err != nil {
			return err
		}
	}
	return nil
}

// A imageValFn is any function that takes in a pointer to a domain.Image object and returns an error.
type imageValFn func(img *domain.Image) error

// belowMaxSize makes sure that the image to be uploaded does not exceed domain.MaxUploadSize.
func (iv *imageValidator) belowMaxSize(img *domain.Image) error {
	size, err := img.File.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}
	if err = resetFilePointer(img); err != nil {
		return err
	}
	if size > domain.MaxUploadSize {
		return errs.Errorf(errs.EINVALID,
			"Image %s exceeds the upload size limit of %sMB.",
			img.Filename, strconv.FormatInt(domain.MaxUploadSize/1000000, 10))
	}
	img.Size = size
	return nil
}

// contentTypeValid makes sure that the image to be uploaded is a valid jpeg or png file.
func (iv *imageValidator) contentTypeValid(img *domain.Image) error {
	buffer := make([]byte, 512)
	if _, err := img.File.Read(buffer); err != nil {
		return err
	}
	if err := resetFilePointer(img); err != nil {
		return err
	}
	contentType := http.DetectContentType(buffer)
	if contentType != "image/jpeg" && contentType != "image/png" {
		return errs.Errorf(errs.EINVALID,
			"Image %s invalid content-type, must be image/jpeg or image/png.", img.Filename)
	}
	img.ContentType = contentType
	return nil
}

// contentTypeExtensionMatch makes sure that the image's filename extension and content type match.
func (iv *imageValidator) contentTypeExtensionMatch(img *domain.Image) error {
	contentType := strings.TrimPrefix(img.ContentType, "image/")
	ext := strings.TrimPrefix(img.Extension, ".")
	if contentType != ext {
		return errs.Errorf(errs.EINVALID,
			"Image %s content-type %s does not match extension %s.",
			img.Filename, img.ContentType, img.Extension)
	}
	return nil
}

// extensionValid makes sure that the image to be uploaded has the extension
// .jpeg, .jpg or .png. A .jpg extension is renamed to .jpeg for consistency.
func (iv *imageValidator) extensionValid(img *domain.Image) error {
	ext := strings.ToLower(filepath.Ext(img.Filename))
	if ext != ".png" && ext != ".jpg" && ext != ".jpeg" {
		return errs.Errorf(errs.EINVALID,
			"Image %s invalid extension, must be .jpeg or .png.", img.Filename)
	}
	if ext == ".jpg" {
		ext = ".jpeg"
	}
	img.Extension = ext
	return nil
}

// fileNameUnique replaces the image's name with a random unique one, so
// uploads can never collide or overwrite each other.
func (iv *imageValidator) fileNameUnique(img *domain.Image) error {
	img.Filename = uuid.NewString() + img.Extension
	return nil
}

// resetFilePointer sets the file pointer back to the beginning of the file,
// so that subsequent reads can properly read from the beginning again.
func resetFilePointer(img *domain.Image) error {
	_, err := img.File.Seek(0, io.SeekStart)
	return err
}

// Create writes the image file into the owner's directory, creating the
// directory if needed. The image records the base directory it was written
// under, so its path and URL point at the actual storage location.
func (id *imageDisk) Create(img *domain.Image) error {
	img.BaseDir = id.baseDir
	path, err := id.mkImagePath(img.OwnerType, img.OwnerID)
	if err != nil {
		return err
	}
	dst, err := os.Create(filepath.Join(path, img.Filename))
	if err != nil {
		return err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, img.File); err != nil {
		return err
	}
	img.URL = img.Path()
	return nil
}

// ByOwner returns the images stored for an owner, resolved from the filesystem.
func (id *imageDisk) ByOwner(ownerType string, ownerID int) ([]domain.Image, error) {
	path := id.imagePath(ownerType, ownerID)
	matches, err := filepath.Glob(filepath.Join(path, "*"))
	if err != nil {
		return nil, err
	}
	ret := make([]domain.Image, len(matches))
	for i, match := range matches {
		ret[i] = domain.Image{
			Filename:  filepath.Base(match),
			OwnerType: ownerType,
			OwnerID:   ownerID,
			BaseDir:   id.baseDir,
		}
		ret[i].URL = ret[i].Path()
	}
	return ret, nil
}

// Delete removes a specific image file from the filesystem.
func (id *imageDisk) Delete(img *domain.Image) error {
	return os.Remove(filepath.Join(id.baseDir, img.OwnerType, strconv.Itoa(img.OwnerID), img.Filename))
}

// DeleteAll removes an owner's entire image directory from the filesystem.
func (id *imageDisk) DeleteAll(ownerType string, ownerID int) error {
	return os.RemoveAll(id.imagePath(ownerType, ownerID))
}

// mkImagePath creates the filesystem directory for an owner's images.
func (id *imageDisk) mkImagePath(ownerType string, ownerID int) (string, error) {
	imagePath := id.imagePath(ownerType, ownerID)
	if err := os.MkdirAll(imagePath, 0755); err != nil {
		return "", err
	}
	return imagePath, nil
}

// imagePath builds the directory path of an owner's images,
// resulting in directories like images/post/2/.
func (id *imageDisk) imagePath(ownerType string, ownerID int) string {
	return filepath.Join(id.baseDir, ownerType, strconv.Itoa(ownerID))
}
