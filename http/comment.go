package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"microblog/domain"
	"microblog/errs"
)

func (s *Server) registerCommentRoutes(r *mux.Router) {
	r.HandleFunc("/posts/{id:[0-9]+}/comment/", s.requireAuth(s.handleAddComment)).Methods("POST")
}

// commentForm is the submitted content of the comment form.
type commentForm struct {
	Text string `json:"text"`
}

// handleAddComment handles the route "POST /posts/{id}/comment/".
// It inserts a comment by the caller on the addressed post and redirects to
// the post's detail page. An invalid comment is simply not inserted; the
// redirect happens either way, and the detail page shows whatever was saved.
func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
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

	var form commentForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		errs.ReturnError(w, r, errs.Errorf(errs.EINVALID, "Invalid comment data."))
		return
	}
	user := s.getUserFromContext(r.Context())
	comment := domain.Comment{
		PostID:   post.ID,
		AuthorID: user.ID,
		Text:     form.Text,
	}
	if err := s.cs.Create(r.Context(), &comment); err != nil {
		if errs.ErrorCode(err) != errs.EINVALID {
			errs.ReturnError(w, r, err)
			return
		}
		errs.LogError(r, err)
	}
	http.Redirect(w, r, "/posts/"+strconv.Itoa(post.ID)+"/", http.StatusFound)
}
