package http

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"microblog/domain"
	"microblog/errs"
)

func (s *Server) registerFollowRoutes(r *mux.Router) {
	r.HandleFunc("/follow/", s.requireAuth(s.handleFollowFeed)).Methods("GET")
	r.HandleFunc("/profile/{username}/follow/", s.requireAuth(s.handleCreateFollow)).Methods("GET")
	r.HandleFunc("/profile/{username}/unfollow/", s.requireAuth(s.handleDeleteFollow)).Methods("GET")
}

// handleFollowFeed handles the route "GET /follow/".
// It returns one page of the posts written by authors the caller follows.
func (s *Server) handleFollowFeed(w http.ResponseWriter, r *http.Request) {
	user := s.getUserFromContext(r.Context())
	feed, err := s.ps.FeedFor(r.Context(), user.ID, r.URL.Query().Get("page"))
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	if err := json.NewEncoder(w).Encode(feed); err != nil {
		errs.LogError(r, err)
	}
}

// handleCreateFollow handles the route "GET /profile/{username}/follow/".
// It subscribes the caller to the author and redirects to the author's
// profile. Following yourself or someone you already follow changes nothing.
func (s *Server) handleCreateFollow(w http.ResponseWriter, r *http.Request) {
	author, err := s.us.ByUsername(r.Context(), mux.Vars(r)["username"])
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	user := s.getUserFromContext(r.Context())
	follow := domain.Follow{
		UserID:   user.ID,
		AuthorID: author.ID,
	}
	if err := s.fs.Create(r.Context(), &follow); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	http.Redirect(w, r, "/profile/"+author.Username+"/", http.StatusFound)
}

// handleDeleteFollow handles the route "GET /profile/{username}/unfollow/".
// It removes the caller's subscription to the author, if there is one, and
// redirects to the follow feed.
func (s *Server) handleDeleteFollow(w http.ResponseWriter, r *http.Request) {
	author, err := s.us.ByUsername(r.Context(), mux.Vars(r)["username"])
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	user := s.getUserFromContext(r.Context())
	follow := domain.Follow{
		UserID:   user.ID,
		AuthorID: author.ID,
	}
	if err := s.fs.Delete(r.Context(), &follow); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	http.Redirect(w, r, "/follow/", http.StatusFound)
}
