package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"microblog/domain"
	"microblog/errs"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n")

// openUpload writes content into a temp file and reopens it for reading,
// standing in for the multipart file of a real upload.
func openUpload(t *testing.T, name string, content []byte) *os.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0644))
	file, err := os.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { file.Close() })
	return file
}

func TestImageCreate(t *testing.T) {
	baseDir := t.TempDir()
	is := NewImageService(baseDir)

	file := openUpload(t, "picture.PNG", append(pngHeader, []byte("pixeldata")...))
	img := &domain.Image{
		OwnerType: domain.OwnerTypePost,
		OwnerID:   7,
		File:      file,
		Filename:  "picture.PNG",
	}
	require.NoError(t, is.Create(img))

	// The original name is replaced with a unique one, extension kept.
	assert.NotEqual(t, "picture.PNG", img.Filename)
	assert.True(t, strings.HasSuffix(img.Filename, ".png"), img.Filename)
	assert.Equal(t, int64(len(pngHeader)+len("pixeldata")), img.Size)
	assert.NotEmpty(t, img.URL)

	stored, err := os.ReadFile(filepath.Join(baseDir, "post", "7", img.Filename))
	require.NoError(t, err)
	assert.Equal(t, append(pngHeader, []byte("pixeldata")...), stored)
}

// The recorded path must point inside the base directory the service writes
// under, also when that directory is not the default one.
func TestImagePathHonorsBaseDir(t *testing.T) {
	baseDir := t.TempDir()
	is := NewImageService(baseDir)

	file := openUpload(t, "picture.png", pngHeader)
	img := &domain.Image{
		OwnerType: domain.OwnerTypePost,
		OwnerID:   7,
		File:      file,
		Filename:  "picture.png",
	}
	require.NoError(t, is.Create(img))

	assert.Equal(t, baseDir, img.BaseDir)
	stored, err := os.ReadFile(filepath.FromSlash(img.RelativePath()))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, stored)
}

func TestImageCreateJpgRenamedToJpeg(t *testing.T) {
	is := NewImageService(t.TempDir())

	// Minimal jpeg magic bytes, enough for content sniffing.
	content := append([]byte("\xff\xd8\xff"), []byte("jpegdata")...)
	file := openUpload(t, "photo.jpg", content)
	img := &domain.Image{
		OwnerType: domain.OwnerTypePost,
		OwnerID:   1,
		File:      file,
		Filename:  "photo.jpg",
	}
	require.NoError(t, is.Create(img))
	assert.True(t, strings.HasSuffix(img.Filename, ".jpeg"), img.Filename)
}

func TestImageCreateRejectsBadExtension(t *testing.T) {
	is := NewImageService(t.TempDir())

	file := openUpload(t, "document.pdf", pngHeader)
	img := &domain.Image{
		OwnerType: domain.OwnerTypePost,
		OwnerID:   1,
		File:      file,
		Filename:  "document.pdf",
	}
	err := is.Create(img)
	require.Error(t, err)
	assert.Equal(t, errs.EINVALID, errs.ErrorCode(err))
}

func TestImageCreateRejectsNonImageContent(t *testing.T) {
	is := NewImageService(t.TempDir())

	file := openUpload(t, "fake.png", []byte("this is just text pretending to be an image"))
	img := &domain.Image{
		OwnerType: domain.OwnerTypePost,
		OwnerID:   1,
		File:      file,
		Filename:  "fake.png",
	}
	err := is.Create(img)
	require.Error(t, err)
	assert.Equal(t, errs.EINVALID, errs.ErrorCode(err))
}

func TestImageByOwnerAndDeleteAll(t *testing.T) {
	baseDir := t.TempDir()
	is := NewImageService(baseDir)

	for _, name := range []string{"one.png", "two.png"} {
		file := openUpload(t, name, pngHeader)
		img := &domain.Image{
			OwnerType: domain.OwnerTypePost,
			OwnerID:   3,
			File:      file,
			Filename:  name,
		}
		require.NoError(t, is.Create(img))
	}

	images, err := is.ByOwner(domain.OwnerTypePost, 3)
	require.NoError(t, err)
	assert.Len(t, images, 2)

	require.NoError(t, is.DeleteAll(domain.OwnerTypePost, 3))
	images, err = is.ByOwner(domain.OwnerTypePost, 3)
	require.NoError(t, err)
	assert.Empty(t, images)
}
