package board

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/inho1628/korea-community-website/model"
	"github.com/inho1628/korea-community-website/ranker"
)

// GallerySummary is a gallery with its number of live posts.
type GallerySummary struct {
	model.Gallery
	PostCount int `json:"postCount"`
}

// ListGalleries returns approved galleries, predefined countries first in
// their fixed order and any others after them.
func (s *Service) ListGalleries(ctx context.Context) ([]GallerySummary, error) {
	galleries, err := s.repo.Galleries(ctx)
	if err != nil {
		return nil, fmt.Errorf("load galleries: %w", err)
	}
	posts, err := s.repo.Posts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load posts: %w", err)
	}

	counts := make(map[string]int)
	for _, p := range posts {
		if !p.Deleted && p.GalleryID != "" {
			counts[p.GalleryID]++
		}
	}

	out := make([]GallerySummary, 0, len(galleries))
	for _, g := range galleries {
		if g.Status == model.StatusApproved {
			out = append(out, GallerySummary{Gallery: g, PostCount: counts[g.ID]})
		}
	}

	order := func(country string) int {
		if i := model.CountryOrder(country); i >= 0 {
			return i
		}
		return len(model.PredefinedCountries)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return order(out[i].Country) < order(out[j].Country)
	})
	return out, nil
}

// GetGallery returns one gallery.
func (s *Service) GetGallery(ctx context.Context, id string) (model.Gallery, error) {
	return s.gallery(ctx, id)
}

// GalleryPosts lists a gallery's posts newest first.
func (s *Service) GalleryPosts(ctx context.Context, galleryID string) ([]PostView, error) {
	if _, err := s.gallery(ctx, galleryID); err != nil {
		return nil, err
	}
	posts, err := s.repo.Posts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load posts: %w", err)
	}
	return s.decorate(ctx, func(cs []model.Comment) []ranker.RankedPost {
		return s.ranker.Newest(posts, cs, func(p model.Post) bool { return p.GalleryID == galleryID })
	})
}

// ApplyForGallery files a request to open a gallery for country. It fails
// with ErrGalleryExists when an approved gallery for the same country
// exists, compared case-insensitively.
func (s *Service) ApplyForGallery(ctx context.Context, sess Session, country, description string) (model.GalleryApplication, error) {
	if !sess.Authenticated() {
		return model.GalleryApplication{}, ErrLoginRequired
	}
	country = strings.TrimSpace(country)
	description = strings.TrimSpace(description)
	if country == "" || description == "" {
		return model.GalleryApplication{}, fmt.Errorf("%w: country and description are required", ErrInvalidInput)
	}

	s.mu.Lock()
	galleries, err := s.repo.Galleries(ctx)
	if err != nil {
		s.mu.Unlock()
		return model.GalleryApplication{}, fmt.Errorf("load galleries: %w", err)
	}
	for _, g := range galleries {
		if g.Status == model.StatusApproved && sameCountry(g.Country, country) {
			s.mu.Unlock()
			return model.GalleryApplication{}, ErrGalleryExists
		}
	}

	apps, err := s.repo.Applications(ctx)
	if err != nil {
		s.mu.Unlock()
		return model.GalleryApplication{}, fmt.Errorf("load applications: %w", err)
	}
	app := model.GalleryApplication{
		ID:          s.newID(),
		UserID:      sess.UserID,
		Country:     country,
		Description: description,
		Status:      model.StatusPending,
		CreatedAt:   s.timestamp(),
	}
	apps = append(apps, app)
	if err := s.repo.SaveApplications(ctx, apps); err != nil {
		s.mu.Unlock()
		return model.GalleryApplication{}, fmt.Errorf("save applications: %w", err)
	}
	s.mu.Unlock()

	s.logger.Info("gallery application received", "application_id", app.ID, "country", country)

	if s.notifier != nil {
		applicant, err := s.CurrentUser(ctx, sess)
		if err != nil {
			applicant = model.User{ID: sess.UserID, Name: sess.Name}
		}
		if err := s.notifier.NotifyApplication(ctx, app, applicant); err != nil {
			s.logger.Warn("failed to notify about gallery application", "application_id", app.ID, "error", err)
		}
	}

	return app, nil
}

func (s *Service) gallery(ctx context.Context, id string) (model.Gallery, error) {
	galleries, err := s.repo.Galleries(ctx)
	if err != nil {
		return model.Gallery{}, fmt.Errorf("load galleries: %w", err)
	}
	for _, g := range galleries {
		if g.ID == id {
			return g, nil
		}
	}
	return model.Gallery{}, ErrGalleryNotFound
}

func sameCountry(a, b string) bool {
	fold := cases.Fold()
	return fold.String(strings.TrimSpace(a)) == fold.String(strings.TrimSpace(b))
}
