package board

import (
	"context"
	"fmt"

	"github.com/inho1628/korea-community-website/model"
)

// Administrator account created by Seed.
const (
	AdminID    = "admin"
	AdminEmail = "admin@admin.com"
)

// Seed creates missing collections, the administrator account and the
// predefined country galleries. Existing data is never overwritten; seeded
// galleries missing a flag get one.
func (s *Service) Seed(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Ensure(ctx); err != nil {
		return fmt.Errorf("ensure collections: %w", err)
	}

	users, err := s.repo.Users(ctx)
	if err != nil {
		return fmt.Errorf("load users: %w", err)
	}
	hasAdmin := false
	for _, u := range users {
		if u.Email == AdminEmail {
			hasAdmin = true
			break
		}
	}
	if !hasAdmin {
		users = append(users, model.User{
			ID:        AdminID,
			Name:      "Admin",
			Email:     AdminEmail,
			Country:   "Korea",
			Role:      model.RoleAdmin,
			CreatedAt: s.timestamp(),
		})
		if err := s.repo.SaveUsers(ctx, users); err != nil {
			return fmt.Errorf("save users: %w", err)
		}
		s.logger.Info("seeded admin account", "email", AdminEmail)
	}

	galleries, err := s.repo.Galleries(ctx)
	if err != nil {
		return fmt.Errorf("load galleries: %w", err)
	}

	var created, updated int
	for _, country := range model.PredefinedCountries {
		idx := -1
		for i, g := range galleries {
			if g.Country == country.Name {
				idx = i
				break
			}
		}

		if idx < 0 {
			galleries = append(galleries, model.Gallery{
				ID:          s.newID(),
				Country:     country.Name,
				CountryCode: country.Code,
				Flag:        country.Flag,
				Description: country.GalleryDescription(),
				Status:      model.StatusApproved,
				Admins:      []string{},
				CreatedAt:   s.timestamp(),
			})
			created++
			continue
		}

		if galleries[idx].Flag == "" {
			galleries[idx].Flag = country.Flag
			galleries[idx].CountryCode = country.Code
			updated++
		}
	}

	if created > 0 || updated > 0 {
		if err := s.repo.SaveGalleries(ctx, galleries); err != nil {
			return fmt.Errorf("save galleries: %w", err)
		}
	}

	s.logger.Info("seed complete", "galleries_created", created, "galleries_updated", updated)
	return nil
}
