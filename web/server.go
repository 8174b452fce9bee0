// Package web exposes the board over a JSON HTTP API.
package web

import (
	"log/slog"
	"net/http"

	"github.com/inho1628/korea-community-website/board"
)

const (
	sessionCookie = "session"
	visitorCookie = "visitor"
	maxBodyBytes  = 1 << 20
)

// Server routes API requests to a board.Service.
type Server struct {
	board       *board.Service
	logger      *slog.Logger
	hotFeedSize int
	secure      bool
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithHotFeedSize sets the default length of /api/feed/hot.
func WithHotFeedSize(n int) Option {
	return func(s *Server) { s.hotFeedSize = n }
}

// WithSecureCookies marks cookies Secure, for deployments behind TLS.
func WithSecureCookies(secure bool) Option {
	return func(s *Server) { s.secure = secure }
}

// New creates a Server for svc.
func New(svc *board.Service, opts ...Option) *Server {
	s := &Server{
		board:       svc,
		logger:      slog.Default(),
		hotFeedSize: board.HomeFeedSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the fully wrapped API handler.
func (s *Server) Handler() http.Handler {
	return s.recoverPanic(s.logRequest(s.identify(s.routes())))
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.HandleFunc("POST /api/auth/logout", s.logout)
	mux.HandleFunc("GET /api/users/me", s.me)

	mux.HandleFunc("GET /api/posts", s.listPosts)
	mux.HandleFunc("POST /api/posts", s.createPost)
	mux.HandleFunc("GET /api/posts/{id}", s.viewPost)
	mux.HandleFunc("POST /api/posts/{id}/like", s.likePost)
	mux.HandleFunc("GET /api/posts/{id}/comments", s.listComments)
	mux.HandleFunc("POST /api/posts/{id}/comments", s.submitComment)
	mux.HandleFunc("GET /api/posts/{id}/media", s.postMedia)
	mux.HandleFunc("POST /api/comments/{id}/like", s.likeComment)

	mux.HandleFunc("GET /api/feed/hot", s.hotFeed)
	mux.HandleFunc("GET /api/media/resolve", s.resolveMedia)

	mux.HandleFunc("GET /api/galleries", s.listGalleries)
	mux.HandleFunc("GET /api/galleries/{id}", s.getGallery)
	mux.HandleFunc("GET /api/galleries/{id}/posts", s.galleryPosts)
	mux.HandleFunc("POST /api/gallery-applications", s.applyForGallery)

	mux.HandleFunc("GET /api/admin/stats", s.adminStats)
	mux.HandleFunc("GET /api/admin/applications", s.adminApplications)
	mux.HandleFunc("POST /api/admin/applications/{id}/approve", s.approveApplication)
	mux.HandleFunc("POST /api/admin/applications/{id}/reject", s.rejectApplication)
	mux.HandleFunc("PUT /api/admin/galleries/{id}/admins", s.assignAdmins)
	mux.HandleFunc("DELETE /api/admin/posts/{id}", s.deletePost)
	mux.HandleFunc("GET /api/admin/posts", s.adminPosts)
	mux.HandleFunc("GET /api/admin/users", s.adminUsers)

	return mux
}
