package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"microblog/domain"
	"microblog/errs"
)

func (s *Server) registerPostRoutes(r *mux.Router) {
	r.HandleFunc("/", s.cachePage(s.handleIndex)).Methods("GET")
	r.HandleFunc("/group/{slug}/", s.handleGroupPosts).Methods("GET")
	r.HandleFunc("/profile/{username}/", s.handleProfile).Methods("GET")
	r.HandleFunc("/posts/{id:[0-9]+}/", s.handlePostDetail).Methods("GET")
	r.HandleFunc("/create/", s.requireAuth(s.handleCreateForm)).Methods("GET")
	r.HandleFunc("/create/", s.requireAuth(s.handleCreatePost)).Methods("POST")
	r.HandleFunc("/posts/{id:[0-9]+}/edit/", s.requireAuth(s.handleEditForm)).Methods("GET")
	r.HandleFunc("/posts/{id:[0-9]+}/edit/", s.requireAuth(s.handleEditPost)).Methods("POST")
}

// postForm is the submitted content of the post create/edit form.
type postForm struct {
	Text    string `json:"text"`
	GroupID *int   `json:"group_id"`
}

// handleIndex handles the route "GET /".
// It returns one page of all posts, newest first. The rendered response is
// cached for a short interval, see cachePage.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	feed, err := s.ps.Latest(r.Context(), r.URL.Query().Get("page"))
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	if err := json.NewEncoder(w).Encode(feed); err != nil {
		errs.LogError(r, err)
	}
}

// handleGroupPosts handles the route "GET /group/{slug}/".
// It returns one page of the posts attached to the group, or 404 if no group
// carries the slug.
func (s *Server) handleGroupPosts(w http.ResponseWriter, r *http.Request) {
	group, err := s.gs.BySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	feed, err := s.ps.ByGroup(r.Context(), group, r.URL.Query().Get("page"))
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	response := struct {
		Group *domain.Group `json:"group"`
		*domain.PostPage
	}{group, feed}
	if err := json.NewEncoder(w).Encode(&response); err != nil {
		errs.LogError(r, err)
	}
}

// handleProfile handles the route "GET /profile/{username}/".
// It returns one page of the author's posts, plus whether the requesting
// viewer follows the author. Following is null for anonymous viewers.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	author, err := s.us.ByUsername(r.Context(), mux.Vars(r)["username"])
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	feed, err := s.ps.ByAuthor(r.Context(), author, r.URL.Query().Get("page"))
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	var following *bool
	if viewer := s.getUserFromContext(r.Context()); viewer != nil {
		follows, err := s.fs.IsFollowing(r.Context(), viewer.ID, author.ID)
		if err != nil {
			errs.ReturnError(w, r, err)
			return
		}
		following = &follows
	}

	response := struct {
		Author    *domain.User `json:"author"`
		Following *bool        `json:"following"`
		*domain.PostPage
	}{author, following, feed}
	if err := json.NewEncoder(w).Encode(&response); err != nil {
		errs.LogError(r, err)
	}
}

// handlePostDetail handles the route "GET /posts/{id}/".
// It returns the post together with its comments, newest first, and a blank
// comment form for the client to fill in.
func (s *Server) handlePostDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		errs.ReturnError(w, r, errs.Errorf(errs.EINVALID, "Invalid ID format."))
		return
	}
	post, err := s.ps.ByID(r.Context(), id)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	comments, err := s.cs.ByPost(r.Context(), id)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	response := struct {
		Post     *domain.Post     `json:"post"`
		Comments []domain.Comment `json:"comments"`
		Form     commentForm      `json:"form"`
	}{post, comments, commentForm{}}
	if err := json.NewEncoder(w).Encode(&response); err != nil {
		errs.LogError(r, err)
	}
}

// handleCreateForm handles the route "GET /create/".
// It returns a blank post form.
func (s *Server) handleCreateForm(w http.ResponseWriter, r *http.Request) {
	if err := json.NewEncoder(w).Encode(&postForm{}); err != nil {
		errs.LogError(r, err)
	}
}

// handleCreatePost handles the route "POST /create/".
// It validates the submitted form and inserts a post authored by the caller.
// On success the caller is redirected to their profile; on a validation
// failure the error is surfaced on the form instead.
func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var form postForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		errs.ReturnError(w, r, errs.Errorf(errs.EINVALID, "Invalid post data."))
		return
	}
	user := s.getUserFromContext(r.Context())
	post := domain.Post{
		Text:     form.Text,
		GroupID:  form.GroupID,
		AuthorID: user.ID,
	}
	if err := s.ps.Create(r.Context(), &post); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	http.Redirect(w, r, "/profile/"+user.Username+"/", http.StatusFound)
}

// handleEditForm handles the route "GET /posts/{id}/edit/".
// It returns the post's current content as form data. A non-author asking
// for the form is redirected to the post's detail page instead.
func (s *Server) handleEditForm(w http.ResponseWriter, r *http.Request) {
	post, ok := s.editablePost(w, r)
	if !ok {
		return
	}
	form := postForm{Text: post.Text, GroupID: post.GroupID}
	if err := json.NewEncoder(w).Encode(&form); err != nil {
		errs.LogError(r, err)
	}
}

// handleEditPost handles the route "POST /posts/{id}/edit/".
// It updates the post's text and group in place, preserving its identity and
// publication date, then redirects to the post's detail page. A non-author
// is redirected there without any modification.
func (s *Server) handleEditPost(w http.ResponseWriter, r *http.Request) {
	post, ok := s.editablePost(w, r)
	if !ok {
		return
	}
	var form postForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		errs.ReturnError(w, r, errs.Errorf(errs.EINVALID, "Invalid post data."))
		return
	}
	post.Text = form.Text
	post.GroupID = form.GroupID
	if err := s.ps.Update(r.Context(), post); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	http.Redirect(w, r, "/posts/"+strconv.Itoa(post.ID)+"/", http.StatusFound)
}

// editablePost loads the post addressed by the route and enforces that the
// caller is its author. Non-authors are silently redirected to the post's
// detail page, reporting false.
func (s *Server) editablePost(w http.ResponseWriter, r *http.Request) (*domain.Post, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		errs.ReturnError(w, r, errs.Errorf(errs.EINVALID, "Invalid ID format."))
		return nil, false
	}
	post, err := s.ps.ByID(r.Context(), id)
	if err != nil {
		errs.ReturnError(w, r, err)
		return nil, false
	}
	user := s.getUserFromContext(r.Context())
	if post.AuthorID != user.ID {
		http.Redirect(w, r, "/posts/"+strconv.Itoa(post.ID)+"/", http.StatusFound)
		return nil, false
	}
	return post, true
}
