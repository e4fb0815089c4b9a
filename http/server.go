package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"microblog/cache"
	"microblog/domain"
)

// Server provides the http functionality of the app: routing, request
// handling, and middleware. It performs authentication and authorization
// before handing things over to one of the crud services. There is no state
// shared between requests beyond the persisted store and the page cache.
type Server struct {
	router *mux.Router
	logger *zap.SugaredLogger
	cache  *cache.PageCache

	us domain.UserService
	gs domain.GroupService
	ps domain.PostService
	cs domain.CommentService
	fs domain.FollowService
	is domain.ImageService
}

// NewServer returns a new instance of the server, registers all routes and
// gives their handlers access to the app services passed in.
func NewServer(
	isProd bool,
	csrfAuthKey string,
	logger *zap.SugaredLogger,
	pageCache *cache.PageCache,
	us domain.UserService,
	gs domain.GroupService,
	ps domain.PostService,
	cs domain.CommentService,
	fs domain.FollowService,
	is domain.ImageService,
) *Server {
	s := &Server{
		router: mux.NewRouter(),
		logger: logger,
		cache:  pageCache,
		us:     us,
		gs:     gs,
		ps:     ps,
		cs:     cs,
		fs:     fs,
		is:     is,
	}

	// Routes of the auth system.
	s.registerAuthRoutes(s.router)

	// Routes of the content system.
	s.registerPostRoutes(s.router)
	s.registerCommentRoutes(s.router)
	s.registerFollowRoutes(s.router)
	s.registerImageRoutes(s.router)

	// Uploaded images are served as static files.
	s.router.PathPrefix("/" + domain.ImagesBaseDir + "/").
		Handler(http.StripPrefix("/"+domain.ImagesBaseDir+"/",
			http.FileServer(http.Dir(domain.ImagesBaseDir))))

	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Middleware that runs on every request. CSRF protection only runs in
	// production, where the client talks to us over https.
	s.router.Use(setContentTypeJSON, s.instrument, s.authUser)
	if isProd {
		csrfMw := csrf.Protect([]byte(csrfAuthKey), csrf.Secure(true), csrf.Path("/"))
		s.router.Use(csrfMw)
	}
	return s
}

// ServeHTTP makes the Server usable anywhere an http.Handler is, in
// particular by net/http/httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// The setContentTypeJSON middleware sets the content type to "application/json".
func setContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// Run starts to listen and serve on the specified port.
func (s *Server) Run(port int) error {
	s.logger.Infow("listening", "port", port)
	return http.ListenAndServe(":"+strconv.Itoa(port), s.router)
}
