package board

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/inho1628/korea-community-website/media"
	"github.com/inho1628/korea-community-website/model"
	"github.com/inho1628/korea-community-website/storage"
)

const adminPassword = "correct horse battery staple"

var adminHash, _ = bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	svc   *Service
	kv    *storage.Memory
	repo  *storage.Repository
	clock *fakeClock
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	clock := &fakeClock{now: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
	var seq int
	var seqMu sync.Mutex
	nextID := func() string {
		seqMu.Lock()
		defer seqMu.Unlock()
		seq++
		return fmt.Sprintf("id-%d", seq)
	}

	kv := storage.NewMemory()
	repo := storage.NewRepository(kv)
	base := []Option{WithClock(clock.Now), WithIDGenerator(nextID), WithAdminPasswordHash(adminHash)}
	svc := New(repo, append(base, opts...)...)
	require.NoError(t, svc.Seed(context.Background()))

	return &fixture{svc: svc, kv: kv, repo: repo, clock: clock}
}

func visitor(id, ip string) Session {
	return Session{VisitorID: id, ClientIP: ip}
}

func (f *fixture) login(t *testing.T, name, email string) Session {
	t.Helper()
	_, sess, err := f.svc.Login(context.Background(), name, email, "Vietnam")
	require.NoError(t, err)
	s, err := f.svc.Authenticate(context.Background(), sess.Token)
	require.NoError(t, err)
	return s
}

func (f *fixture) admin(t *testing.T) Session {
	t.Helper()
	_, sess, err := f.svc.AdminLogin(context.Background(), AdminEmail, adminPassword)
	require.NoError(t, err)
	s, err := f.svc.Authenticate(context.Background(), sess.Token)
	require.NoError(t, err)
	return s
}

func (f *fixture) post(t *testing.T, sess Session, category, title string) model.Post {
	t.Helper()
	p, err := f.svc.CreatePost(context.Background(), sess, PostInput{
		Category: category,
		Title:    title,
		Content:  "content of " + title,
	})
	require.NoError(t, err)
	return p
}

func TestSeed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	users, err := f.repo.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, AdminID, users[0].ID)
	assert.Equal(t, model.RoleAdmin, users[0].Role)
	assert.Equal(t, "Korea", users[0].Country)

	galleries, err := f.repo.Galleries(ctx)
	require.NoError(t, err)
	require.Len(t, galleries, len(model.PredefinedCountries))
	assert.Equal(t, "China", galleries[0].Country)
	assert.Equal(t, "🇨🇳", galleries[0].Flag)
	assert.Equal(t, "Community for China residents in Korea", galleries[0].Description)
	assert.Equal(t, model.StatusApproved, galleries[0].Status)
	assert.NotNil(t, galleries[0].Admins)

	require.NoError(t, f.svc.Seed(ctx))
	galleries, err = f.repo.Galleries(ctx)
	require.NoError(t, err)
	assert.Len(t, galleries, len(model.PredefinedCountries), "seeding twice must not duplicate")
}

func TestSeedBackfillsFlags(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	repo := storage.NewRepository(kv)
	require.NoError(t, repo.SaveGalleries(ctx, []model.Gallery{{ID: "g1", Country: "Japan", Status: model.StatusApproved}}))

	require.NoError(t, New(repo).Seed(ctx))

	galleries, err := repo.Galleries(ctx)
	require.NoError(t, err)
	assert.Len(t, galleries, len(model.PredefinedCountries))
	assert.Equal(t, "g1", galleries[0].ID)
	assert.Equal(t, "🇯🇵", galleries[0].Flag)
	assert.Equal(t, "Japan", galleries[0].CountryCode)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, sess, err := f.svc.Login(ctx, "Minh", "minh@example.com", "Vietnam")
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, user.Role)
	assert.NotEmpty(t, sess.Token)

	again, _, err := f.svc.Login(ctx, "Minh N.", "MINH@example.com", "Korea")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)
	assert.Equal(t, "Minh N.", again.Name)
	assert.Equal(t, "Korea", again.Country)

	users, err := f.repo.Users(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	_, _, err = f.svc.Login(ctx, "", "x@example.com", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, _, err = f.svc.Login(ctx, "x", "not-an-email", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLoginRefusesAdministratorByEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, sess, err := f.svc.Login(ctx, "Admin", AdminEmail, "Korea")
	assert.ErrorIs(t, err, ErrAdminCredentials)
	assert.Empty(t, sess.Token)

	_, sess, err = f.svc.Login(ctx, "Admin", "ADMIN@admin.com", "")
	assert.ErrorIs(t, err, ErrAdminCredentials)
	assert.Empty(t, sess.Token)

	sessions, err := f.repo.Sessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestAdminLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, sess, err := f.svc.AdminLogin(ctx, AdminEmail, adminPassword)
	require.NoError(t, err)
	assert.Equal(t, AdminID, user.ID)
	got, err := f.svc.Authenticate(ctx, sess.Token)
	require.NoError(t, err)
	assert.True(t, got.IsAdmin())

	_, _, err = f.svc.AdminLogin(ctx, AdminEmail, "wrong")
	assert.ErrorIs(t, err, ErrAdminCredentials)
	_, _, err = f.svc.AdminLogin(ctx, AdminEmail, "")
	assert.ErrorIs(t, err, ErrAdminCredentials)

	// The right password does not lift an ordinary user to admin.
	f.login(t, "Minh", "minh@example.com")
	_, _, err = f.svc.AdminLogin(ctx, "minh@example.com", adminPassword)
	assert.ErrorIs(t, err, ErrAdminCredentials)
	_, _, err = f.svc.AdminLogin(ctx, "nobody@example.com", adminPassword)
	assert.ErrorIs(t, err, ErrAdminCredentials)
}

func TestAdminLoginDisabledWithoutHash(t *testing.T) {
	f := newFixture(t, WithAdminPasswordHash(nil))

	_, _, err := f.svc.AdminLogin(context.Background(), AdminEmail, adminPassword)
	assert.ErrorIs(t, err, ErrAdminCredentials)
}

func TestSessions(t *testing.T) {
	f := newFixture(t, WithSessionTTL(time.Hour))
	ctx := context.Background()

	user, sess, err := f.svc.Login(ctx, "Ana", "ana@example.com", "Philippines")
	require.NoError(t, err)

	got, err := f.svc.Authenticate(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.UserID)
	assert.True(t, got.Authenticated())
	assert.False(t, got.IsAdmin())

	_, err = f.svc.Authenticate(ctx, "bogus")
	assert.ErrorIs(t, err, ErrLoginRequired)

	f.clock.Advance(2 * time.Hour)
	_, err = f.svc.Authenticate(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrLoginRequired)

	removed, err := f.svc.CleanupSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, sess, err = f.svc.Login(ctx, "Ana", "ana@example.com", "")
	require.NoError(t, err)
	require.NoError(t, f.svc.Logout(ctx, sess.Token))
	_, err = f.svc.Authenticate(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrLoginRequired)
}

func TestIPPrefix(t *testing.T) {
	assert.Equal(t, "192.16**", IPPrefix("192.168.0.1"))
	assert.Equal(t, "1.2.3**", IPPrefix("1.2.3"))
	assert.Equal(t, "******", IPPrefix(""))
}

func TestCreatePostAuthorship(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	anon, err := f.svc.CreatePost(ctx, visitor("v1", "10.20.30.40"), PostInput{
		Category: "info", Title: "Visa tips", Content: "Renew early", Nickname: " kim ",
	})
	require.NoError(t, err)
	assert.Empty(t, anon.UserID)
	assert.Equal(t, "kim", anon.Nickname)
	assert.Equal(t, "10.20.**", anon.IPPrefix)

	// The first address seen for a visitor sticks.
	again, err := f.svc.CreatePost(ctx, visitor("v1", "99.99.99.99"), PostInput{
		Category: "info", Title: "More", Content: "tips",
	})
	require.NoError(t, err)
	assert.Equal(t, "10.20.**", again.IPPrefix)

	member := f.login(t, "Lee", "lee@example.com")
	owned, err := f.svc.CreatePost(ctx, member, PostInput{
		Category: "humor", Title: "Joke", Content: "knock knock", Nickname: "ignored",
	})
	require.NoError(t, err)
	assert.Equal(t, member.UserID, owned.UserID)
	assert.Empty(t, owned.Nickname)
	assert.Empty(t, owned.IPPrefix)
}

func TestCreatePostValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := visitor("v1", "1.1.1.1")

	_, err := f.svc.CreatePost(ctx, v, PostInput{Category: "memes", Title: "t", Content: "c"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.CreatePost(ctx, v, PostInput{Category: "info", Title: "", Content: "c"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.CreatePost(ctx, v, PostInput{Category: "gallery", GalleryID: "nope", Title: "t", Content: "c"})
	assert.ErrorIs(t, err, ErrGalleryNotFound)

	lat, lng := 37.5, 127.0
	p, err := f.svc.CreatePost(ctx, v, PostInput{
		Category: "info", Title: "t", Content: "c",
		Location: &model.Location{Lat: &lat, Lng: &lng, Address: "Seoul"},
	})
	require.NoError(t, err)
	assert.Nil(t, p.Location, "location is only kept for hotplace posts")

	p, err = f.svc.CreatePost(ctx, v, PostInput{
		Category: "hotplace", Title: "Cafe", Content: "good",
		Location: &model.Location{Address: "Itaewon"},
	})
	require.NoError(t, err)
	require.NotNil(t, p.Location)
	assert.Nil(t, p.Location.Lat)
	assert.Equal(t, "Itaewon", p.Location.Address)
}

func TestViewPost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.post(t, visitor("v1", "1.1.1.1"), "info", "hello")

	for i := 1; i <= 3; i++ {
		v, err := f.svc.ViewPost(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, i, v.Views)
		assert.Equal(t, "Anonymous", v.AuthorName)
	}

	_, err := f.svc.ViewPost(ctx, "missing")
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestSubmitComment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.post(t, visitor("v1", "1.1.1.1"), "info", "hello")

	c, err := f.svc.SubmitComment(ctx, visitor("v2", "172.16.0.9"), p.ID, "  first! ", "park")
	require.NoError(t, err)
	assert.Equal(t, "first!", c.Content)
	assert.Equal(t, "park", c.Nickname)
	assert.Equal(t, "172.16**", c.IPPrefix)

	member := f.login(t, "Lee", "lee@example.com")
	f.clock.Advance(time.Minute)
	c2, err := f.svc.SubmitComment(ctx, member, p.ID, "second", "ignored")
	require.NoError(t, err)
	assert.Equal(t, member.UserID, c2.UserID)
	assert.Empty(t, c2.Nickname)
	assert.Empty(t, c2.IPPrefix)

	_, err = f.svc.SubmitComment(ctx, member, p.ID, "   ", "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.SubmitComment(ctx, member, "missing", "hi", "")
	assert.ErrorIs(t, err, ErrPostNotFound)

	stored, err := f.svc.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Comments)

	list, err := f.svc.ListComments(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, c.ID, list[0].ID, "oldest first")
	assert.Equal(t, "park", list[0].AuthorName)
	assert.Equal(t, "Lee", list[1].AuthorName)

	n, err := f.svc.CommentCount(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestLikePostGuard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.post(t, visitor("author", "1.1.1.1"), "humor", "funny")

	v := visitor("v1", "203.0.113.5")
	likes, err := f.svc.LikePost(ctx, v, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, likes)

	likes, err = f.svc.LikePost(ctx, v, p.ID)
	assert.ErrorIs(t, err, ErrAlreadyLiked)
	assert.Equal(t, 1, likes)

	// Another visitor behind the same prefix is the same actor.
	_, err = f.svc.LikePost(ctx, visitor("v2", "203.0.99.99"), p.ID)
	assert.ErrorIs(t, err, ErrAlreadyLiked)

	member := f.login(t, "Lee", "lee@example.com")
	likes, err = f.svc.LikePost(ctx, member, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, likes)
	_, err = f.svc.LikePost(ctx, member, p.ID)
	assert.ErrorIs(t, err, ErrAlreadyLiked)

	stored, err := f.svc.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Likes)

	book, err := f.repo.Likes(ctx)
	require.NoError(t, err)
	assert.Len(t, book.Posts[p.ID], 2)

	liked, err := f.svc.HasLikedPost(ctx, member, p.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	_, err = f.svc.LikePost(ctx, member, "missing")
	assert.ErrorIs(t, err, ErrPostNotFound)
}

// failingRepo makes selected saves fail.
type failingRepo struct {
	*storage.Repository
	posts, comments, likes bool
}

var errDiskFull = errors.New("disk full")

func (r *failingRepo) SavePosts(ctx context.Context, posts []model.Post) error {
	if r.posts {
		return errDiskFull
	}
	return r.Repository.SavePosts(ctx, posts)
}

func (r *failingRepo) SaveComments(ctx context.Context, comments []model.Comment) error {
	if r.comments {
		return errDiskFull
	}
	return r.Repository.SaveComments(ctx, comments)
}

func (r *failingRepo) SaveLikes(ctx context.Context, book model.LikeBook) error {
	if r.likes {
		return errDiskFull
	}
	return r.Repository.SaveLikes(ctx, book)
}

func TestLikeStaysConsistentWhenSaveFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.post(t, visitor("author", "1.1.1.1"), "humor", "funny")
	c, err := f.svc.SubmitComment(ctx, visitor("v1", "2.2.2.2"), p.ID, "nice", "")
	require.NoError(t, err)

	repo := &failingRepo{Repository: f.repo}
	svc := New(repo, WithClock(f.clock.Now))
	v := visitor("v9", "198.51.100.4")

	repo.likes = true
	_, err = svc.LikePost(ctx, v, p.ID)
	assert.ErrorIs(t, err, errDiskFull)
	_, err = svc.LikeComment(ctx, v, c.ID)
	assert.ErrorIs(t, err, errDiskFull)

	repo.likes, repo.posts, repo.comments = false, true, true
	_, err = svc.LikePost(ctx, v, p.ID)
	assert.ErrorIs(t, err, errDiskFull)
	_, err = svc.LikeComment(ctx, v, c.ID)
	assert.ErrorIs(t, err, errDiskFull)

	book, err := f.repo.Likes(ctx)
	require.NoError(t, err)
	assert.Empty(t, book.Posts[p.ID])
	assert.Empty(t, book.Comments[c.ID])
	stored, err := f.svc.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.Likes)

	// Once storage recovers the like is accepted exactly once.
	repo.posts, repo.comments = false, false
	likes, err := svc.LikePost(ctx, v, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, likes)
	_, err = svc.LikePost(ctx, v, p.ID)
	assert.ErrorIs(t, err, ErrAlreadyLiked)
	likes, err = svc.LikeComment(ctx, v, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, likes)
}

func TestLikeComment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.post(t, visitor("author", "1.1.1.1"), "info", "hello")
	c, err := f.svc.SubmitComment(ctx, visitor("v1", "2.2.2.2"), p.ID, "nice", "")
	require.NoError(t, err)

	likes, err := f.svc.LikeComment(ctx, visitor("v3", "3.3.3.3"), c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, likes)

	_, err = f.svc.LikeComment(ctx, visitor("v3", "3.3.3.3"), c.ID)
	assert.ErrorIs(t, err, ErrAlreadyLiked)

	_, err = f.svc.LikeComment(ctx, visitor("v3", "3.3.3.3"), "missing")
	assert.ErrorIs(t, err, ErrCommentNotFound)
}

func TestFeeds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := visitor("author", "1.1.1.1")

	quiet := f.post(t, author, "info", "quiet")
	f.clock.Advance(time.Minute)
	loud := f.post(t, author, "humor", "loud")

	for i := 0; i < 12; i++ {
		_, err := f.svc.LikePost(ctx, visitor(fmt.Sprintf("fan%d", i), fmt.Sprintf("10.%d.0.1", i)), loud.ID)
		require.NoError(t, err)
	}
	best, err := f.svc.SubmitComment(ctx, author, loud.ID, "best", "")
	require.NoError(t, err)
	_, err = f.svc.LikeComment(ctx, visitor("fan0", "10.0.0.1"), best.ID)
	require.NoError(t, err)
	_, err = f.svc.SubmitComment(ctx, author, loud.ID, "meh", "")
	require.NoError(t, err)
	_, err = f.svc.SubmitComment(ctx, author, loud.ID, "meh too", "")
	require.NoError(t, err)

	ranked, err := f.svc.RankAllPosts(ctx)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, loud.ID, ranked[0].ID)
	assert.Equal(t, 69, ranked[0].Score) // 12*5 + 3*3
	assert.Equal(t, quiet.ID, ranked[1].ID)

	top, err := f.svc.TopHotPosts(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, top, 1)

	humor, err := f.svc.RankCategory(ctx, model.CategoryHumor)
	require.NoError(t, err)
	assert.Len(t, humor, 1)

	feed, err := f.svc.HotFeed(ctx, HomeFeedSize)
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.True(t, feed[0].Featured)
	require.Len(t, feed[0].BestComments, 2)
	assert.Equal(t, best.ID, feed[0].BestComments[0].ID)
	assert.Empty(t, feed[1].BestComments)

	bestComments, err := f.svc.BestComments(ctx, loud.ID, 1)
	require.NoError(t, err)
	require.Len(t, bestComments, 1)
	assert.Equal(t, best.ID, bestComments[0].ID)

	listed, err := f.svc.ListPosts(ctx, "", "")
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, loud.ID, listed[0].ID, "newest first")

	_, err = f.svc.ListPosts(ctx, "memes", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDeletedPostsDisappear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.post(t, visitor("v1", "1.1.1.1"), "info", "bye")
	admin := f.admin(t)

	require.NoError(t, f.svc.DeletePost(ctx, admin, p.ID))

	ranked, err := f.svc.RankAllPosts(ctx)
	require.NoError(t, err)
	assert.Empty(t, ranked)

	_, err = f.svc.ViewPost(ctx, p.ID)
	assert.ErrorIs(t, err, ErrPostNotFound)

	posts, err := f.repo.Posts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1, "soft delete keeps the record")
	assert.True(t, posts[0].Deleted)

	assert.ErrorIs(t, f.svc.DeletePost(ctx, admin, p.ID), ErrPostNotFound)
}

type fakePreviewer struct {
	calls []string
	err   error
}

func (p *fakePreviewer) Preview(_ context.Context, url string) (*LinkPreview, error) {
	p.calls = append(p.calls, url)
	if p.err != nil {
		return nil, p.err
	}
	return &LinkPreview{Title: "Example"}, nil
}

func TestPostMedia(t *testing.T) {
	previewer := &fakePreviewer{}
	f := newFixture(t, WithPreviewer(previewer))
	ctx := context.Background()
	v := visitor("v1", "1.1.1.1")

	yt, err := f.svc.CreatePost(ctx, v, PostInput{Category: "humor", Title: "t", Content: "c", Video: "https://youtu.be/dQw4w9WgXcQ"})
	require.NoError(t, err)
	plain, err := f.svc.CreatePost(ctx, v, PostInput{Category: "humor", Title: "t", Content: "c", Video: "https://example.com/clip"})
	require.NoError(t, err)

	m, err := f.svc.PostMedia(ctx, yt.ID)
	require.NoError(t, err)
	assert.Equal(t, media.KindYouTube, m.Link.Kind)
	assert.Nil(t, m.Preview)
	assert.Empty(t, previewer.calls)

	m, err = f.svc.PostMedia(ctx, plain.ID)
	require.NoError(t, err)
	require.NotNil(t, m.Preview)
	assert.Equal(t, "Example", m.Preview.Title)

	previewer.err = errors.New("timeout")
	m, err = f.svc.PostMedia(ctx, plain.ID)
	require.NoError(t, err)
	assert.Nil(t, m.Preview)

	assert.Equal(t, "dQw4w9WgXcQ", f.svc.ResolveMediaLink("https://youtu.be/dQw4w9WgXcQ").VideoID)
}

type recordingNotifier struct {
	apps []model.GalleryApplication
}

func (n *recordingNotifier) NotifyApplication(_ context.Context, app model.GalleryApplication, _ model.User) error {
	n.apps = append(n.apps, app)
	return nil
}

func TestGalleries(t *testing.T) {
	notifier := &recordingNotifier{}
	f := newFixture(t, WithNotifier(notifier))
	ctx := context.Background()

	list, err := f.svc.ListGalleries(ctx)
	require.NoError(t, err)
	require.Len(t, list, 30)
	assert.Equal(t, "China", list[0].Country)
	assert.Equal(t, "Malaysia", list[29].Country)

	member := f.login(t, "Lee", "lee@example.com")

	_, err = f.svc.ApplyForGallery(ctx, visitor("v1", "1.1.1.1"), "Peru", "hola")
	assert.ErrorIs(t, err, ErrLoginRequired)

	_, err = f.svc.ApplyForGallery(ctx, member, "  china ", "again")
	assert.ErrorIs(t, err, ErrGalleryExists)

	app, err := f.svc.ApplyForGallery(ctx, member, "Peru", "Peruvians in Seoul")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, app.Status)
	require.Len(t, notifier.apps, 1)

	admin := f.admin(t)
	_, err = f.svc.ApproveApplication(ctx, member, app.ID)
	assert.ErrorIs(t, err, ErrAdminOnly)

	gallery, err := f.svc.ApproveApplication(ctx, admin, app.ID)
	require.NoError(t, err)
	assert.Equal(t, "Peru", gallery.Country)
	assert.Equal(t, model.StatusApproved, gallery.Status)

	_, err = f.svc.ApproveApplication(ctx, admin, app.ID)
	assert.ErrorIs(t, err, ErrApplicationClosed)

	apps, err := f.repo.Applications(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, apps[0].Status)
	assert.True(t, apps[0].ApprovedAt.Valid)

	_, err = f.svc.CreatePost(ctx, member, PostInput{Category: "gallery", GalleryID: gallery.ID, Title: "Hola", Content: "hi"})
	require.NoError(t, err)

	list, err = f.svc.ListGalleries(ctx)
	require.NoError(t, err)
	require.Len(t, list, 31)
	assert.Equal(t, "Peru", list[30].Country, "unknown countries sort last")
	assert.Equal(t, 1, list[30].PostCount)

	posts, err := f.svc.GalleryPosts(ctx, gallery.ID)
	require.NoError(t, err)
	assert.Len(t, posts, 1)

	_, err = f.svc.GalleryPosts(ctx, "missing")
	assert.ErrorIs(t, err, ErrGalleryNotFound)
}

func TestRejectApplication(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	member := f.login(t, "Lee", "lee@example.com")
	admin := f.admin(t)

	app, err := f.svc.ApplyForGallery(ctx, member, "Chile", "desc")
	require.NoError(t, err)

	require.NoError(t, f.svc.RejectApplication(ctx, admin, app.ID))
	assert.ErrorIs(t, f.svc.RejectApplication(ctx, admin, app.ID), ErrApplicationClosed)
	assert.ErrorIs(t, f.svc.RejectApplication(ctx, admin, "missing"), ErrApplicationNotFound)

	pending, err := f.svc.PendingApplications(ctx, admin)
	require.NoError(t, err)
	assert.Empty(t, pending)

	apps, err := f.repo.Applications(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, apps[0].Status)
	assert.True(t, apps[0].RejectedAt.Valid)
}

func TestAssignAdmins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin(t)
	a := f.login(t, "A", "a@example.com")
	b := f.login(t, "B", "b@example.com")

	galleries, err := f.svc.ListGalleries(ctx)
	require.NoError(t, err)
	gid := galleries[0].ID

	_, err = f.svc.AssignAdmins(ctx, admin, gid, a.UserID, a.UserID)
	assert.ErrorIs(t, err, ErrDuplicateAdmin)

	g, err := f.svc.AssignAdmins(ctx, admin, gid, a.UserID, b.UserID)
	require.NoError(t, err)
	assert.Equal(t, []string{a.UserID, b.UserID}, g.Admins)

	g, err = f.svc.AssignAdmins(ctx, admin, gid, "", b.UserID)
	require.NoError(t, err)
	assert.Equal(t, []string{b.UserID}, g.Admins)

	g, err = f.svc.AssignAdmins(ctx, admin, gid, "", "")
	require.NoError(t, err)
	assert.Empty(t, g.Admins)

	_, err = f.svc.AssignAdmins(ctx, admin, "missing", a.UserID, "")
	assert.ErrorIs(t, err, ErrGalleryNotFound)

	_, err = f.svc.AssignAdmins(ctx, admin, gid, "ghost", "")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = f.svc.AssignAdmins(ctx, a, gid, "", "")
	assert.ErrorIs(t, err, ErrAdminOnly)
}

func TestAdminListings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin(t)
	f.clock.Advance(time.Hour)
	member := f.login(t, "Lee", "lee@example.com")

	f.post(t, member, "info", "one")
	doomed := f.post(t, member, "info", "two")
	f.post(t, visitor("v1", "1.1.1.1"), "info", "three")
	require.NoError(t, f.svc.DeletePost(ctx, admin, doomed.ID))

	stats, err := f.svc.Stats(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, Stats{PendingApplications: 0, ApprovedGalleries: 30, TotalPosts: 3, Users: 2}, stats)

	users, err := f.svc.AdminUsers(ctx, admin)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, member.UserID, users[0].ID, "newest first")
	assert.Equal(t, 1, users[0].PostCount)

	posts, err := f.svc.AdminPosts(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, posts, 2)

	_, err = f.svc.Stats(ctx, visitor("v1", "1.1.1.1"))
	assert.ErrorIs(t, err, ErrLoginRequired)
}

func TestMalformedCollectionFailsClosed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.kv.Set(ctx, storage.KeyPosts, []byte(`{{{`)))

	ranked, err := f.svc.RankAllPosts(ctx)
	require.NoError(t, err)
	assert.Empty(t, ranked)

	feed, err := f.svc.HotFeed(ctx, HomeFeedSize)
	require.NoError(t, err)
	assert.Empty(t, feed)
}

func TestConcurrentLikesCountOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.post(t, visitor("author", "1.1.1.1"), "humor", "race")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.svc.LikePost(ctx, visitor("same", "8.8.8.8"), p.ID)
		}()
	}
	wg.Wait()

	stored, err := f.svc.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Likes)
}
