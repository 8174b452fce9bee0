package board

import (
	"context"
	"fmt"
	"sort"

	"github.com/inho1628/korea-community-website/model"
	"github.com/inho1628/korea-community-website/ranker"
)

// Stats is the moderation dashboard summary.
type Stats struct {
	PendingApplications int `json:"pendingApplications"`
	ApprovedGalleries   int `json:"approvedGalleries"`
	TotalPosts          int `json:"totalPosts"`
	Users               int `json:"users"`
}

// UserSummary is a member with the number of live posts they wrote.
type UserSummary struct {
	model.User
	PostCount int `json:"postCount"`
}

func requireAdmin(sess Session) error {
	if !sess.Authenticated() {
		return ErrLoginRequired
	}
	if !sess.IsAdmin() {
		return ErrAdminOnly
	}
	return nil
}

// Stats counts pending applications, approved galleries, stored posts and users.
func (s *Service) Stats(ctx context.Context, sess Session) (Stats, error) {
	if err := requireAdmin(sess); err != nil {
		return Stats{}, err
	}

	apps, err := s.repo.Applications(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("load applications: %w", err)
	}
	galleries, err := s.repo.Galleries(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("load galleries: %w", err)
	}
	posts, err := s.repo.Posts(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("load posts: %w", err)
	}
	users, err := s.repo.Users(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("load users: %w", err)
	}

	var st Stats
	for _, a := range apps {
		if a.Status == model.StatusPending {
			st.PendingApplications++
		}
	}
	for _, g := range galleries {
		if g.Status == model.StatusApproved {
			st.ApprovedGalleries++
		}
	}
	st.TotalPosts = len(posts)
	st.Users = len(users)
	return st, nil
}

// PendingApplications lists applications awaiting a decision, oldest first.
func (s *Service) PendingApplications(ctx context.Context, sess Session) ([]model.GalleryApplication, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	apps, err := s.repo.Applications(ctx)
	if err != nil {
		return nil, fmt.Errorf("load applications: %w", err)
	}
	pending := make([]model.GalleryApplication, 0, len(apps))
	for _, a := range apps {
		if a.Status == model.StatusPending {
			pending = append(pending, a)
		}
	}
	return pending, nil
}

// ApproveApplication opens the requested gallery.
func (s *Service) ApproveApplication(ctx context.Context, sess Session, appID string) (model.Gallery, error) {
	if err := requireAdmin(sess); err != nil {
		return model.Gallery{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	apps, idx, err := s.pendingApplication(ctx, appID)
	if err != nil {
		return model.Gallery{}, err
	}

	galleries, err := s.repo.Galleries(ctx)
	if err != nil {
		return model.Gallery{}, fmt.Errorf("load galleries: %w", err)
	}
	gallery := model.Gallery{
		ID:          s.newID(),
		Country:     apps[idx].Country,
		Description: apps[idx].Description,
		Status:      model.StatusApproved,
		Admins:      []string{},
		CreatedAt:   s.timestamp(),
	}
	if i := model.CountryOrder(gallery.Country); i >= 0 {
		gallery.Flag = model.PredefinedCountries[i].Flag
		gallery.CountryCode = model.PredefinedCountries[i].Code
	}
	galleries = append(galleries, gallery)
	if err := s.repo.SaveGalleries(ctx, galleries); err != nil {
		return model.Gallery{}, fmt.Errorf("save galleries: %w", err)
	}

	apps[idx].Status = model.StatusApproved
	apps[idx].ApprovedAt = s.timestamp()
	if err := s.repo.SaveApplications(ctx, apps); err != nil {
		return model.Gallery{}, fmt.Errorf("save applications: %w", err)
	}

	s.logger.Info("gallery application approved", "application_id", appID, "gallery_id", gallery.ID)
	return gallery, nil
}

// RejectApplication declines an application.
func (s *Service) RejectApplication(ctx context.Context, sess Session, appID string) error {
	if err := requireAdmin(sess); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	apps, idx, err := s.pendingApplication(ctx, appID)
	if err != nil {
		return err
	}
	apps[idx].Status = model.StatusRejected
	apps[idx].RejectedAt = s.timestamp()
	if err := s.repo.SaveApplications(ctx, apps); err != nil {
		return fmt.Errorf("save applications: %w", err)
	}

	s.logger.Info("gallery application rejected", "application_id", appID)
	return nil
}

func (s *Service) pendingApplication(ctx context.Context, appID string) ([]model.GalleryApplication, int, error) {
	apps, err := s.repo.Applications(ctx)
	if err != nil {
		return nil, -1, fmt.Errorf("load applications: %w", err)
	}
	for i, a := range apps {
		if a.ID != appID {
			continue
		}
		if a.Status != model.StatusPending {
			return nil, -1, ErrApplicationClosed
		}
		return apps, i, nil
	}
	return nil, -1, ErrApplicationNotFound
}

// AssignAdmins sets up to two administrators of a gallery. Empty ids leave
// a slot unassigned.
func (s *Service) AssignAdmins(ctx context.Context, sess Session, galleryID, admin1, admin2 string) (model.Gallery, error) {
	if err := requireAdmin(sess); err != nil {
		return model.Gallery{}, err
	}
	if admin1 != "" && admin1 == admin2 {
		return model.Gallery{}, ErrDuplicateAdmin
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.usersByID(ctx)
	if err != nil {
		return model.Gallery{}, err
	}
	admins := make([]string, 0, model.MaxGalleryAdmins)
	for _, id := range []string{admin1, admin2} {
		if id == "" {
			continue
		}
		if _, ok := users[id]; !ok {
			return model.Gallery{}, fmt.Errorf("%w: %s", ErrUserNotFound, id)
		}
		admins = append(admins, id)
	}

	galleries, err := s.repo.Galleries(ctx)
	if err != nil {
		return model.Gallery{}, fmt.Errorf("load galleries: %w", err)
	}
	for i := range galleries {
		if galleries[i].ID != galleryID {
			continue
		}
		galleries[i].Admins = admins
		if err := s.repo.SaveGalleries(ctx, galleries); err != nil {
			return model.Gallery{}, fmt.Errorf("save galleries: %w", err)
		}
		return galleries[i], nil
	}
	return model.Gallery{}, ErrGalleryNotFound
}

// DeletePost hides a post from every listing. The record is kept.
func (s *Service) DeletePost(ctx context.Context, sess Session, postID string) error {
	if err := requireAdmin(sess); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	posts, err := s.repo.Posts(ctx)
	if err != nil {
		return fmt.Errorf("load posts: %w", err)
	}
	idx := findPost(posts, postID)
	if idx < 0 {
		return ErrPostNotFound
	}
	posts[idx].Deleted = true
	if err := s.repo.SavePosts(ctx, posts); err != nil {
		return fmt.Errorf("save posts: %w", err)
	}

	s.logger.Info("post deleted", "post_id", postID, "by", sess.UserID)
	return nil
}

// AdminPosts lists every live post newest first.
func (s *Service) AdminPosts(ctx context.Context, sess Session) ([]PostView, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	posts, err := s.repo.Posts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load posts: %w", err)
	}
	return s.decorate(ctx, func(cs []model.Comment) []ranker.RankedPost {
		return s.ranker.Newest(posts, cs, func(model.Post) bool { return true })
	})
}

// AdminUsers lists members newest first with their post counts.
func (s *Service) AdminUsers(ctx context.Context, sess Session) ([]UserSummary, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	users, err := s.repo.Users(ctx)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	posts, err := s.repo.Posts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load posts: %w", err)
	}

	counts := make(map[string]int)
	for _, p := range posts {
		if !p.Deleted && p.UserID != "" {
			counts[p.UserID]++
		}
	}

	out := make([]UserSummary, len(users))
	for i, u := range users {
		out[i] = UserSummary{User: u, PostCount: counts[u.ID]}
	}

	now := s.now()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Or(now).After(out[j].CreatedAt.Or(now))
	})
	return out, nil
}
