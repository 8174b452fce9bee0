package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/inho1628/korea-community-website/model"
)

// Document keys. Sessions replace the single global current-user entry.
const (
	KeyPosts        = "posts"
	KeyComments     = "comments"
	KeyLikes        = "likes"
	KeyUsers        = "users"
	KeyGalleries    = "galleries"
	KeyApplications = "galleryApplications"
	KeyUserIPs      = "userIPs"
	KeySessions     = "sessions"
)

// Repository reads and writes each collection as one JSON document.
// A document that fails to decode is treated as an empty collection.
type Repository struct {
	kv     KV
	logger *slog.Logger
}

// RepositoryOption configures a Repository.
type RepositoryOption func(*Repository)

// WithRepositoryLogger sets where decode failures are reported.
func WithRepositoryLogger(logger *slog.Logger) RepositoryOption {
	return func(r *Repository) {
		r.logger = logger
	}
}

// NewRepository wraps kv.
func NewRepository(kv KV, opts ...RepositoryOption) *Repository {
	r := &Repository{kv: kv, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Ensure writes an empty document for every missing collection.
func (r *Repository) Ensure(ctx context.Context) error {
	empties := map[string]any{
		KeyPosts:        []model.Post{},
		KeyComments:     []model.Comment{},
		KeyLikes:        model.NewLikeBook(),
		KeyUsers:        []model.User{},
		KeyGalleries:    []model.Gallery{},
		KeyApplications: []model.GalleryApplication{},
		KeyUserIPs:      map[string]string{},
		KeySessions:     []model.Session{},
	}
	for key, empty := range empties {
		_, err := r.kv.Get(ctx, key)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("get %s: %w", key, err)
		}
		if err := save(ctx, r, key, empty); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) Posts(ctx context.Context) ([]model.Post, error) {
	return load(ctx, r, KeyPosts, func() []model.Post { return []model.Post{} })
}

func (r *Repository) SavePosts(ctx context.Context, posts []model.Post) error {
	return save(ctx, r, KeyPosts, posts)
}

func (r *Repository) Comments(ctx context.Context) ([]model.Comment, error) {
	return load(ctx, r, KeyComments, func() []model.Comment { return []model.Comment{} })
}

func (r *Repository) SaveComments(ctx context.Context, comments []model.Comment) error {
	return save(ctx, r, KeyComments, comments)
}

// Likes always returns a book with both maps allocated.
func (r *Repository) Likes(ctx context.Context) (model.LikeBook, error) {
	book, err := load(ctx, r, KeyLikes, model.NewLikeBook)
	if book.Posts == nil {
		book.Posts = make(map[string][]model.LikeRecord)
	}
	if book.Comments == nil {
		book.Comments = make(map[string][]model.LikeRecord)
	}
	return book, err
}

func (r *Repository) SaveLikes(ctx context.Context, book model.LikeBook) error {
	return save(ctx, r, KeyLikes, book)
}

func (r *Repository) Users(ctx context.Context) ([]model.User, error) {
	return load(ctx, r, KeyUsers, func() []model.User { return []model.User{} })
}

func (r *Repository) SaveUsers(ctx context.Context, users []model.User) error {
	return save(ctx, r, KeyUsers, users)
}

func (r *Repository) Galleries(ctx context.Context) ([]model.Gallery, error) {
	return load(ctx, r, KeyGalleries, func() []model.Gallery { return []model.Gallery{} })
}

func (r *Repository) SaveGalleries(ctx context.Context, galleries []model.Gallery) error {
	return save(ctx, r, KeyGalleries, galleries)
}

func (r *Repository) Applications(ctx context.Context) ([]model.GalleryApplication, error) {
	return load(ctx, r, KeyApplications, func() []model.GalleryApplication { return []model.GalleryApplication{} })
}

func (r *Repository) SaveApplications(ctx context.Context, apps []model.GalleryApplication) error {
	return save(ctx, r, KeyApplications, apps)
}

// UserIPs maps a user or visitor id to the address first seen for it.
func (r *Repository) UserIPs(ctx context.Context) (map[string]string, error) {
	ips, err := load(ctx, r, KeyUserIPs, func() map[string]string { return map[string]string{} })
	if ips == nil {
		ips = map[string]string{}
	}
	return ips, err
}

func (r *Repository) SaveUserIPs(ctx context.Context, ips map[string]string) error {
	return save(ctx, r, KeyUserIPs, ips)
}

func (r *Repository) Sessions(ctx context.Context) ([]model.Session, error) {
	return load(ctx, r, KeySessions, func() []model.Session { return []model.Session{} })
}

func (r *Repository) SaveSessions(ctx context.Context, sessions []model.Session) error {
	return save(ctx, r, KeySessions, sessions)
}

func load[T any](ctx context.Context, r *Repository, key string, empty func() T) (T, error) {
	data, err := r.kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return empty(), nil
	}
	if err != nil {
		return empty(), fmt.Errorf("get %s: %w", key, err)
	}

	v := empty()
	if err := json.Unmarshal(data, &v); err != nil {
		r.logger.Warn("stored collection is malformed, treating as empty", "key", key, "error", err)
		return empty(), nil
	}
	return v, nil
}

func save(ctx context.Context, r *Repository, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := r.kv.Set(ctx, key, data); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}
