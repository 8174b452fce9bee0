package board

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/inho1628/korea-community-website/model"
)

// IPPrefix masks an address down to its first six characters.
func IPPrefix(ip string) string {
	if ip == "" {
		return "******"
	}
	r := []rune(ip)
	if len(r) > 6 {
		r = r[:6]
	}
	return string(r) + "**"
}

func randomIP() string {
	return fmt.Sprintf("%d.%d.%d.%d", rand.IntN(256), rand.IntN(256), rand.IntN(256), rand.IntN(256))
}

// actorIP returns the address recorded for the session, recording the
// client address (or a random one) on first use. Callers hold s.mu.
func (s *Service) actorIP(ctx context.Context, sess Session) (string, error) {
	key := sess.actorKey()
	if key == "" {
		if sess.ClientIP != "" {
			return sess.ClientIP, nil
		}
		return randomIP(), nil
	}

	ips, err := s.repo.UserIPs(ctx)
	if err != nil {
		return "", fmt.Errorf("load user ips: %w", err)
	}
	if ip, ok := ips[key]; ok && ip != "" {
		return ip, nil
	}

	ip := sess.ClientIP
	if ip == "" {
		ip = randomIP()
	}
	ips[key] = ip
	if err := s.repo.SaveUserIPs(ctx, ips); err != nil {
		return "", fmt.Errorf("save user ips: %w", err)
	}
	return ip, nil
}

// author builds the authorship for content written in sess. Callers hold s.mu.
func (s *Service) author(ctx context.Context, sess Session, nickname string) (model.Author, error) {
	if sess.Authenticated() {
		return model.UserAuthor(sess.UserID), nil
	}
	ip, err := s.actorIP(ctx, sess)
	if err != nil {
		return model.Author{}, err
	}
	return model.AnonymousAuthor(nickname, IPPrefix(ip)), nil
}

// likeActor returns the identity the like guard checks. Callers hold s.mu.
func (s *Service) likeActor(ctx context.Context, sess Session) (userID, ipPrefix string, err error) {
	if sess.Authenticated() {
		return sess.UserID, "", nil
	}
	ip, err := s.actorIP(ctx, sess)
	if err != nil {
		return "", "", err
	}
	return "", IPPrefix(ip), nil
}

func displayName(a model.Author, users map[string]model.User) string {
	if a.UserID != "" {
		if u, ok := users[a.UserID]; ok {
			return u.Name
		}
		return "Unknown"
	}
	if a.Nickname != "" {
		return a.Nickname
	}
	return "Anonymous"
}

func (s *Service) usersByID(ctx context.Context) (map[string]model.User, error) {
	users, err := s.repo.Users(ctx)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	byID := make(map[string]model.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	return byID, nil
}
