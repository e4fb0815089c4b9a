package http

import (
	"bytes"
	"net/http"
)

// cachePage serves a handler's rendered response from the page cache when a
// fresh enough copy exists, keyed by the full request URI. Within the cache
// window the stale body is returned even if the underlying data changed;
// only an explicit cache invalidation forces an earlier re-render.
func (s *Server) cachePage(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.RequestURI()
		if body, contentType, ok := s.cache.Get(r.Context(), key); ok {
			w.Header().Set("Content-Type", contentType)
			w.Write(body)
			return
		}

		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		// Only successful renders are worth keeping.
		if rec.status == http.StatusOK {
			if err := s.cache.Set(r.Context(), key, rec.body.Bytes(), w.Header().Get("Content-Type")); err != nil {
				s.logger.Errorw("caching page failed", "key", key, "error", err)
			}
		}
	}
}

// responseRecorder tees a handler's output so it can be cached after being
// sent to the client.
type responseRecorder struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (rec *responseRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func (rec *responseRecorder) Write(b []byte) (int, error) {
	rec.body.Write(b)
	return rec.ResponseWriter.Write(b)
}
