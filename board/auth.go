package board

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/inho1628/korea-community-website/model"
)

// Login finds the user with email, creating one if needed, and opens a
// session. Returning users get their name and country updated.
// Administrators cannot log in by email alone; they use AdminLogin.
func (s *Service) Login(ctx context.Context, name, email, country string) (model.User, model.Session, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	country = strings.TrimSpace(country)

	if name == "" {
		return model.User{}, model.Session{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if !strings.Contains(email, "@") {
		return model.User{}, model.Session{}, fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.repo.Users(ctx)
	if err != nil {
		return model.User{}, model.Session{}, fmt.Errorf("load users: %w", err)
	}

	var user model.User
	found := false
	for i := range users {
		if !strings.EqualFold(users[i].Email, email) {
			continue
		}
		if users[i].IsAdmin() {
			s.logger.Warn("email-only login refused for administrator", "user_id", users[i].ID)
			return model.User{}, model.Session{}, ErrAdminCredentials
		}
		users[i].Name = name
		if country != "" {
			users[i].Country = country
		}
		user = users[i]
		found = true
		break
	}
	if !found {
		user = model.User{
			ID:        s.newID(),
			Name:      name,
			Email:     email,
			Country:   country,
			Role:      model.RoleUser,
			CreatedAt: s.timestamp(),
		}
		users = append(users, user)
	}

	if err := s.repo.SaveUsers(ctx, users); err != nil {
		return model.User{}, model.Session{}, fmt.Errorf("save users: %w", err)
	}

	session, err := s.openSession(ctx, user)
	if err != nil {
		return model.User{}, model.Session{}, err
	}

	s.logger.Info("user logged in", "user_id", user.ID, "new_user", !found)
	return user, session, nil
}

// AdminLogin opens a session for an administrator after checking password
// against the configured bcrypt hash. Without a configured hash every
// attempt fails.
func (s *Service) AdminLogin(ctx context.Context, email, password string) (model.User, model.Session, error) {
	email = strings.TrimSpace(email)
	if len(s.adminPasswordHash) == 0 || password == "" {
		return model.User{}, model.Session{}, ErrAdminCredentials
	}
	if err := bcrypt.CompareHashAndPassword(s.adminPasswordHash, []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			s.logger.Warn("administrator login failed", "email", email)
			return model.User{}, model.Session{}, ErrAdminCredentials
		}
		return model.User{}, model.Session{}, fmt.Errorf("check admin password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.repo.Users(ctx)
	if err != nil {
		return model.User{}, model.Session{}, fmt.Errorf("load users: %w", err)
	}
	for _, u := range users {
		if !strings.EqualFold(u.Email, email) {
			continue
		}
		if !u.IsAdmin() {
			return model.User{}, model.Session{}, ErrAdminCredentials
		}
		session, err := s.openSession(ctx, u)
		if err != nil {
			return model.User{}, model.Session{}, err
		}
		s.logger.Info("administrator logged in", "user_id", u.ID)
		return u, session, nil
	}
	return model.User{}, model.Session{}, ErrAdminCredentials
}

// openSession stores a new session for user. Callers hold s.mu.
func (s *Service) openSession(ctx context.Context, user model.User) (model.Session, error) {
	sessions, err := s.repo.Sessions(ctx)
	if err != nil {
		return model.Session{}, fmt.Errorf("load sessions: %w", err)
	}

	now := s.now()
	session := model.Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: model.At(now),
		ExpiresAt: model.At(now.Add(s.sessionTTL)),
	}
	sessions = append(live(sessions, now), session)
	if err := s.repo.SaveSessions(ctx, sessions); err != nil {
		return model.Session{}, fmt.Errorf("save sessions: %w", err)
	}
	return session, nil
}

// Logout ends the session with token. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.repo.Sessions(ctx)
	if err != nil {
		return fmt.Errorf("load sessions: %w", err)
	}

	kept := sessions[:0]
	for _, sess := range sessions {
		if sess.Token != token {
			kept = append(kept, sess)
		}
	}
	if len(kept) == len(sessions) {
		return nil
	}
	return s.repo.SaveSessions(ctx, kept)
}

// Authenticate resolves a token into a logged-in Session. Unknown or
// expired tokens yield ErrLoginRequired.
func (s *Service) Authenticate(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrLoginRequired
	}

	sessions, err := s.repo.Sessions(ctx)
	if err != nil {
		return Session{}, fmt.Errorf("load sessions: %w", err)
	}

	now := s.now()
	for _, stored := range sessions {
		if stored.Token != token {
			continue
		}
		if !stored.ExpiresAt.Valid || !stored.ExpiresAt.Time.After(now) {
			return Session{}, ErrLoginRequired
		}

		users, err := s.usersByID(ctx)
		if err != nil {
			return Session{}, err
		}
		user, ok := users[stored.UserID]
		if !ok {
			return Session{}, ErrLoginRequired
		}
		return Session{UserID: user.ID, Name: user.Name, Role: user.Role, Token: token}, nil
	}
	return Session{}, ErrLoginRequired
}

// CurrentUser returns the logged-in user of sess.
func (s *Service) CurrentUser(ctx context.Context, sess Session) (model.User, error) {
	if !sess.Authenticated() {
		return model.User{}, ErrLoginRequired
	}
	users, err := s.usersByID(ctx)
	if err != nil {
		return model.User{}, err
	}
	user, ok := users[sess.UserID]
	if !ok {
		return model.User{}, ErrUserNotFound
	}
	return user, nil
}

// CleanupSessions drops expired sessions and reports how many were removed.
func (s *Service) CleanupSessions(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.repo.Sessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("load sessions: %w", err)
	}

	kept := live(sessions, s.now())
	removed := len(sessions) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := s.repo.SaveSessions(ctx, kept); err != nil {
		return 0, fmt.Errorf("save sessions: %w", err)
	}
	return removed, nil
}

func live(sessions []model.Session, now time.Time) []model.Session {
	kept := make([]model.Session, 0, len(sessions))
	for _, sess := range sessions {
		if sess.ExpiresAt.Valid && sess.ExpiresAt.Time.After(now) {
			kept = append(kept, sess)
		}
	}
	return kept
}
