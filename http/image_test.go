package http

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"microblog/domain"
)

func uploadImage(t *testing.T, ts *testServer, postID int, user *domain.User) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", "upload.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG\r\n\x1a\nfakepixels"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	r := httptest.NewRequest("POST", "/posts/"+strconv.Itoa(postID)+"/image/", &body)
	r.Header.Set("Content-Type", writer.FormDataContentType())
	if user != nil {
		r.AddCookie(&http.Cookie{Name: "remember_token", Value: user.Remember})
	}
	w := httptest.NewRecorder()
	ts.ServeHTTP(w, r)
	return w
}

func TestUploadPostImage(t *testing.T) {
	ts := newTestServer(t)
	user := ts.seedUser(t, "sasha")
	post := ts.seedPost(t, user, nil, "A post getting an image.")

	w := uploadImage(t, ts, post.ID, user)
	require.Equal(t, http.StatusCreated, w.Code)

	require.Len(t, ts.images.created, 1)
	img := ts.images.created[0]
	assert.Equal(t, domain.OwnerTypePost, img.OwnerType)
	assert.Equal(t, post.ID, img.OwnerID)

	var updated domain.Post
	decodeBody(t, w, &updated)
	assert.Equal(t, "images/post/"+strconv.Itoa(post.ID)+"/fake.png", updated.Image)
	assert.Equal(t, updated.Image, ts.posts.posts[0].Image)
}

func TestUploadPostImageNonAuthor(t *testing.T) {
	ts := newTestServer(t)
	author := ts.seedUser(t, "sasha")
	stranger := ts.seedUser(t, "misha")
	post := ts.seedPost(t, author, nil, "A post getting an image.")

	w := uploadImage(t, ts, post.ID, stranger)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, ts.images.created)
	assert.Empty(t, ts.posts.posts[0].Image)
}

func TestUploadPostImageRequiresAuth(t *testing.T) {
	ts := newTestServer(t)
	author := ts.seedUser(t, "sasha")
	post := ts.seedPost(t, author, nil, "A post getting an image.")

	w := uploadImage(t, ts, post.ID, nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestUploadPostImageMissingFile(t *testing.T) {
	ts := newTestServer(t)
	user := ts.seedUser(t, "sasha")
	post := ts.seedPost(t, user, nil, "A post getting an image.")

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("caption", "no file here"))
	require.NoError(t, writer.Close())

	r := httptest.NewRequest("POST", "/posts/"+strconv.Itoa(post.ID)+"/image/", &body)
	r.Header.Set("Content-Type", writer.FormDataContentType())
	r.AddCookie(&http.Cookie{Name: "remember_token", Value: user.Remember})
	w := httptest.NewRecorder()
	ts.ServeHTTP(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
