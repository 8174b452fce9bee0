// Package board implements the community board: posting, commenting,
// liking, feeds, country galleries and moderation. Every operation that
// needs an actor takes an explicit Session.
package board

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/inho1628/korea-community-website/model"
	"github.com/inho1628/korea-community-website/ranker"
)

// Repository is the typed persistence the service needs.
type Repository interface {
	Ensure(ctx context.Context) error
	Posts(ctx context.Context) ([]model.Post, error)
	SavePosts(ctx context.Context, posts []model.Post) error
	Comments(ctx context.Context) ([]model.Comment, error)
	SaveComments(ctx context.Context, comments []model.Comment) error
	Likes(ctx context.Context) (model.LikeBook, error)
	SaveLikes(ctx context.Context, book model.LikeBook) error
	Users(ctx context.Context) ([]model.User, error)
	SaveUsers(ctx context.Context, users []model.User) error
	Galleries(ctx context.Context) ([]model.Gallery, error)
	SaveGalleries(ctx context.Context, galleries []model.Gallery) error
	Applications(ctx context.Context) ([]model.GalleryApplication, error)
	SaveApplications(ctx context.Context, apps []model.GalleryApplication) error
	UserIPs(ctx context.Context) (map[string]string, error)
	SaveUserIPs(ctx context.Context, ips map[string]string) error
	Sessions(ctx context.Context) ([]model.Session, error)
	SaveSessions(ctx context.Context, sessions []model.Session) error
}

// Notifier is told about events moderators should see.
type Notifier interface {
	NotifyApplication(ctx context.Context, app model.GalleryApplication, applicant model.User) error
}

// LinkPreview summarizes the page behind a plain media link.
type LinkPreview struct {
	Title    string `json:"title"`
	Excerpt  string `json:"excerpt,omitempty"`
	SiteName string `json:"siteName,omitempty"`
	Image    string `json:"image,omitempty"`
}

// Previewer fetches link previews.
type Previewer interface {
	Preview(ctx context.Context, url string) (*LinkPreview, error)
}

// Session identifies who is acting. UserID is empty for visitors, who are
// told apart by VisitorID.
type Session struct {
	UserID    string
	Name      string
	Role      model.Role
	Token     string
	VisitorID string
	ClientIP  string
}

// Authenticated reports whether a user is logged in.
func (s Session) Authenticated() bool {
	return s.UserID != ""
}

// IsAdmin reports whether the session may moderate.
func (s Session) IsAdmin() bool {
	return s.Authenticated() && s.Role == model.RoleAdmin
}

// actorKey is the userIPs entry for this session.
func (s Session) actorKey() string {
	if s.UserID != "" {
		return s.UserID
	}
	return s.VisitorID
}

const defaultSessionTTL = 30 * 24 * time.Hour

// Service coordinates board operations over a Repository. Each collection is
// stored as a whole document, so writes are serialized.
type Service struct {
	repo             Repository
	ranker           *ranker.Ranker
	notifier         Notifier
	previewer        Previewer
	logger           *slog.Logger
	now              func() time.Time
	newID            func() string
	sessionTTL       time.Duration
	bestCommentLimit int

	adminPasswordHash []byte

	mu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now for timestamps and scoring.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithIDGenerator replaces uuid.NewString.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		s.newID = fn
	}
}

// WithRanker sets the feed ranker.
func WithRanker(r *ranker.Ranker) Option {
	return func(s *Service) {
		s.ranker = r
	}
}

// WithNotifier sets who hears about new gallery applications.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithPreviewer enables link previews for plain media links.
func WithPreviewer(p Previewer) Option {
	return func(s *Service) {
		s.previewer = p
	}
}

// WithSessionTTL sets how long a login lasts.
func WithSessionTTL(d time.Duration) Option {
	return func(s *Service) {
		s.sessionTTL = d
	}
}

// WithBestCommentLimit sets how many comments feed entries preview.
func WithBestCommentLimit(n int) Option {
	return func(s *Service) {
		s.bestCommentLimit = n
	}
}

// WithAdminPasswordHash sets the bcrypt hash AdminLogin checks. Without
// it administrators cannot log in.
func WithAdminPasswordHash(hash []byte) Option {
	return func(s *Service) {
		s.adminPasswordHash = hash
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New creates a service. Unless WithRanker is given, the ranker shares the
// service clock.
func New(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:             repo,
		logger:           slog.Default(),
		now:              time.Now,
		newID:            uuid.NewString,
		sessionTTL:       defaultSessionTTL,
		bestCommentLimit: ranker.DefaultBestComments,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ranker == nil {
		s.ranker = ranker.NewRanker(ranker.WithClock(s.now))
	}
	return s
}

func (s *Service) timestamp() model.Timestamp {
	return model.At(s.now())
}
