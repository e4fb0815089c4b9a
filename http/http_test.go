package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"microblog/cache"
	"microblog/crud"
	"microblog/domain"
	"microblog/errs"
	"microblog/pagination"
)

// The handler tests run the real router, middleware and handlers against
// in-memory fake services, so they exercise routing, auth and response
// shaping without a database.

type fakeUserService struct {
	users  []*domain.User
	nextID int
}

func (f *fakeUserService) Authenticate(_ context.Context, email, password string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Email == email && u.Password == password {
			return u, nil
		}
	}
	return nil, errs.Errorf(errs.EINVALID, "The password is incorrect.")
}

func (f *fakeUserService) ByID(_ context.Context, id int) (*domain.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, errs.Errorf(errs.ENOTFOUND, "User not found.")
}

func (f *fakeUserService) ByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, errs.Errorf(errs.ENOTFOUND, "User not found.")
}

func (f *fakeUserService) ByRemember(_ context.Context, token string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Remember == token && token != "" {
			return u, nil
		}
	}
	return nil, errs.Errorf(errs.ENOTFOUND, "User not found.")
}

func (f *fakeUserService) Create(_ context.Context, user *domain.User) error {
	f.nextID++
	user.ID = f.nextID
	f.users = append(f.users, user)
	return nil
}

func (f *fakeUserService) Update(_ context.Context, user *domain.User) error {
	for i, u := range f.users {
		if u.ID == user.ID {
			f.users[i] = user
			return nil
		}
	}
	return errs.Errorf(errs.ENOTFOUND, "User not found.")
}

type fakeGroupService struct {
	groups []*domain.Group
}

func (f *fakeGroupService) ByID(_ context.Context, id int) (*domain.Group, error) {
	for _, g := range f.groups {
		if g.ID == id {
			return g, nil
		}
	}
	return nil, errs.Errorf(errs.ENOTFOUND, "Group not found.")
}

func (f *fakeGroupService) BySlug(_ context.Context, slug string) (*domain.Group, error) {
	for _, g := range f.groups {
		if g.Slug == slug {
			return g, nil
		}
	}
	return nil, errs.Errorf(errs.ENOTFOUND, "Group not found.")
}

func (f *fakeGroupService) Create(_ context.Context, group *domain.Group) error {
	group.ID = len(f.groups) + 1
	f.groups = append(f.groups, group)
	return nil
}

// fakePostService keeps posts newest first, mirroring the pub_date ordering
// of the real listing queries.
type fakePostService struct {
	posts   []domain.Post
	follows *fakeFollowService
	perPage int
	nextID  int
}

func (f *fakePostService) ByID(_ context.Context, id int) (*domain.Post, error) {
	for i := range f.posts {
		if f.posts[i].ID == id {
			post := f.posts[i]
			return &post, nil
		}
	}
	return nil, errs.Errorf(errs.ENOTFOUND, "Post not found.")
}

func (f *fakePostService) page(posts []domain.Post, pageParam string) *domain.PostPage {
	page := pagination.Resolve(pageParam, len(posts), f.perPage)
	end := page.Offset + page.Limit
	if end > len(posts) {
		end = len(posts)
	}
	return &domain.PostPage{Posts: posts[page.Offset:end], Page: page}
}

func (f *fakePostService) Latest(_ context.Context, pageParam string) (*domain.PostPage, error) {
	return f.page(f.posts, pageParam), nil
}

func (f *fakePostService) ByGroup(_ context.Context, group *domain.Group, pageParam string) (*domain.PostPage, error) {
	var posts []domain.Post
	for _, p := range f.posts {
		if p.GroupID != nil && *p.GroupID == group.ID {
			posts = append(posts, p)
		}
	}
	return f.page(posts, pageParam), nil
}

func (f *fakePostService) ByAuthor(_ context.Context, author *domain.User, pageParam string) (*domain.PostPage, error) {
	var posts []domain.Post
	for _, p := range f.posts {
		if p.AuthorID == author.ID {
			posts = append(posts, p)
		}
	}
	return f.page(posts, pageParam), nil
}

func (f *fakePostService) FeedFor(_ context.Context, userID int, pageParam string) (*domain.PostPage, error) {
	followed := map[int]bool{}
	for _, edge := range f.follows.edges {
		if edge.UserID == userID {
			followed[edge.AuthorID] = true
		}
	}
	var posts []domain.Post
	for _, p := range f.posts {
		if followed[p.AuthorID] {
			posts = append(posts, p)
		}
	}
	return f.page(posts, pageParam), nil
}

func (f *fakePostService) Create(_ context.Context, post *domain.Post) error {
	if utf8.RuneCountInString(post.Text) < crud.PostTextMinLength {
		return errs.Errorf(errs.EINVALID, "Post text must be at least %d characters long.", crud.PostTextMinLength)
	}
	f.nextID++
	post.ID = f.nextID
	post.PubDate = time.Now()
	f.posts = append([]domain.Post{*post}, f.posts...)
	return nil
}

func (f *fakePostService) Update(_ context.Context, post *domain.Post) error {
	if utf8.RuneCountInString(post.Text) < crud.PostTextMinLength {
		return errs.Errorf(errs.EINVALID, "Post text must be at least %d characters long.", crud.PostTextMinLength)
	}
	for i := range f.posts {
		if f.posts[i].ID == post.ID {
			f.posts[i].Text = post.Text
			f.posts[i].GroupID = post.GroupID
			f.posts[i].Image = post.Image
			return nil
		}
	}
	return errs.Errorf(errs.ENOTFOUND, "Post not found.")
}

func (f *fakePostService) Delete(_ context.Context, post *domain.Post) error {
	for i := range f.posts {
		if f.posts[i].ID == post.ID {
			f.posts = append(f.posts[:i], f.posts[i+1:]...)
			return nil
		}
	}
	return errs.Errorf(errs.ENOTFOUND, "Post not found.")
}

type fakeCommentService struct {
	comments []domain.Comment
}

func (f *fakeCommentService) ByPost(_ context.Context, postID int) ([]domain.Comment, error) {
	var comments []domain.Comment
	for i := len(f.comments) - 1; i >= 0; i-- {
		if f.comments[i].PostID == postID {
			comments = append(comments, f.comments[i])
		}
	}
	return comments, nil
}

func (f *fakeCommentService) Create(_ context.Context, comment *domain.Comment) error {
	size := utf8.RuneCountInString(comment.Text)
	if size < crud.CommentTextMinLength || size > crud.CommentTextMaxLength {
		return errs.Errorf(errs.EINVALID, "Comment text must be between %d and %d characters long.",
			crud.CommentTextMinLength, crud.CommentTextMaxLength)
	}
	comment.ID = len(f.comments) + 1
	comment.Created = time.Now()
	f.comments = append(f.comments, *comment)
	return nil
}

type fakeFollowService struct {
	edges []domain.Follow
}

func (f *fakeFollowService) Create(_ context.Context, follow *domain.Follow) error {
	if follow.UserID == follow.AuthorID {
		return nil
	}
	for _, edge := range f.edges {
		if edge.UserID == follow.UserID && edge.AuthorID == follow.AuthorID {
			return nil
		}
	}
	follow.ID = len(f.edges) + 1
	f.edges = append(f.edges, *follow)
	return nil
}

func (f *fakeFollowService) Delete(_ context.Context, follow *domain.Follow) error {
	for i, edge := range f.edges {
		if edge.UserID == follow.UserID && edge.AuthorID == follow.AuthorID {
			f.edges = append(f.edges[:i], f.edges[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeFollowService) IsFollowing(_ context.Context, userID, authorID int) (bool, error) {
	for _, edge := range f.edges {
		if edge.UserID == userID && edge.AuthorID == authorID {
			return true, nil
		}
	}
	return false, nil
}

type fakeImageService struct {
	created []domain.Image
}

func (f *fakeImageService) Create(img *domain.Image) error {
	img.Filename = "fake.png"
	f.created = append(f.created, *img)
	return nil
}

func (f *fakeImageService) ByOwner(ownerType string, ownerID int) ([]domain.Image, error) {
	var images []domain.Image
	for _, img := range f.created {
		if img.OwnerType == ownerType && img.OwnerID == ownerID {
			images = append(images, img)
		}
	}
	return images, nil
}

func (f *fakeImageService) Delete(img *domain.Image) error { return nil }

func (f *fakeImageService) DeleteAll(ownerType string, ownerID int) error { return nil }

// testServer bundles a Server wired to fakes with direct access to the fakes
// for seeding and inspection.
type testServer struct {
	*Server
	users    *fakeUserService
	groups   *fakeGroupService
	posts    *fakePostService
	comments *fakeCommentService
	follows  *fakeFollowService
	images   *fakeImageService
	cache    *cache.PageCache
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop().Sugar()
	pageCache := cache.NewMemory(20*time.Second, logger)

	us := &fakeUserService{}
	gs := &fakeGroupService{}
	fs := &fakeFollowService{}
	ps := &fakePostService{follows: fs, perPage: 10}
	cs := &fakeCommentService{}
	is := &fakeImageService{}

	server := NewServer(false, "", logger, pageCache, us, gs, ps, cs, fs, is)
	return &testServer{
		Server:   server,
		users:    us,
		groups:   gs,
		posts:    ps,
		comments: cs,
		follows:  fs,
		images:   is,
		cache:    pageCache,
	}
}

func (ts *testServer) seedUser(t *testing.T, username string) *domain.User {
	t.Helper()
	user := &domain.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "password1234",
		Remember: "remember-" + username,
	}
	require.NoError(t, ts.users.Create(context.Background(), user))
	return user
}

func (ts *testServer) seedGroup(t *testing.T, title, slug string) *domain.Group {
	t.Helper()
	group := &domain.Group{Title: title, Slug: slug, Description: domain.DefaultGroupDescription}
	require.NoError(t, ts.groups.Create(context.Background(), group))
	return group
}

func (ts *testServer) seedPost(t *testing.T, author *domain.User, group *domain.Group, text string) *domain.Post {
	t.Helper()
	post := &domain.Post{Text: text, AuthorID: author.ID, Author: author}
	if group != nil {
		post.GroupID = &group.ID
		post.Group = group
	}
	require.NoError(t, ts.posts.Create(context.Background(), post))
	// Create stores a copy, so push the preloaded associations into it.
	ts.posts.posts[0].Author = author
	ts.posts.posts[0].Group = post.Group
	return post
}

// do runs a request through the full middleware chain. A non-nil user is
// signed in via their remember token cookie.
func (ts *testServer) do(t *testing.T, method, target string, body interface{}, user *domain.User) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}
	r := httptest.NewRequest(method, target, reader)
	if user != nil {
		r.AddCookie(&http.Cookie{Name: "remember_token", Value: user.Remember})
	}
	w := httptest.NewRecorder()
	ts.ServeHTTP(w, r)
	return w
}

func (ts *testServer) get(t *testing.T, target string, user *domain.User) *httptest.ResponseRecorder {
	t.Helper()
	return ts.do(t, "GET", target, nil, user)
}

func (ts *testServer) postJSON(t *testing.T, target string, body interface{}, user *domain.User) *httptest.ResponseRecorder {
	t.Helper()
	return ts.do(t, "POST", target, body, user)
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, into interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(w.Body).Decode(into))
}
