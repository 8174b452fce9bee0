package board

import (
	"context"
	"fmt"
	"strings"

	"github.com/inho1628/korea-community-website/media"
	"github.com/inho1628/korea-community-website/model"
	"github.com/inho1628/korea-community-website/ranker"
)

// PostInput is what a writer submits.
type PostInput struct {
	Category  string          `json:"category"`
	GalleryID string          `json:"galleryId"`
	Title     string          `json:"title"`
	Content   string          `json:"content"`
	Nickname  string          `json:"nickname"`
	Video     string          `json:"video"`
	Images    []string        `json:"images"`
	Location  *model.Location `json:"location"`
}

// PostView is a post as listed or displayed.
type PostView struct {
	ranker.RankedPost
	AuthorName string     `json:"authorName"`
	Featured   bool       `json:"featured"`
	Media      media.Link `json:"media"`
}

// CreatePost publishes a post. Logging in is not required.
func (s *Service) CreatePost(ctx context.Context, sess Session, in PostInput) (model.Post, error) {
	category, err := model.ParseCategory(in.Category)
	if err != nil {
		return model.Post{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if in.GalleryID != "" {
		if _, err := s.gallery(ctx, in.GalleryID); err != nil {
			return model.Post{}, err
		}
	}

	nickname := in.Nickname
	if sess.Authenticated() {
		nickname = ""
	}
	author, err := s.author(ctx, sess, nickname)
	if err != nil {
		return model.Post{}, err
	}

	location := in.Location
	if location != nil && category != model.CategoryHotplace {
		location = nil
	}
	if location != nil && location.Lat == nil && strings.TrimSpace(location.Address) == "" {
		location = nil
	}

	post, err := model.NewPost(s.newID(), model.PostDraft{
		Category:  category,
		GalleryID: in.GalleryID,
		Title:     in.Title,
		Content:   in.Content,
		Video:     in.Video,
		Images:    in.Images,
		Location:  location,
	}, author, s.timestamp())
	if err != nil {
		return model.Post{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	posts, err := s.repo.Posts(ctx)
	if err != nil {
		return model.Post{}, fmt.Errorf("load posts: %w", err)
	}
	posts = append(posts, post)
	if err := s.repo.SavePosts(ctx, posts); err != nil {
		return model.Post{}, fmt.Errorf("save posts: %w", err)
	}

	s.logger.Info("post created", "post_id", post.ID, "category", post.Category, "anonymous", post.Anonymous())
	return post, nil
}

// GetPost returns a non-deleted post.
func (s *Service) GetPost(ctx context.Context, id string) (model.Post, error) {
	posts, err := s.repo.Posts(ctx)
	if err != nil {
		return model.Post{}, fmt.Errorf("load posts: %w", err)
	}
	for _, p := range posts {
		if p.ID == id && !p.Deleted {
			return p, nil
		}
	}
	return model.Post{}, ErrPostNotFound
}

// ViewPost counts a view and returns the post as displayed.
func (s *Service) ViewPost(ctx context.Context, id string) (PostView, error) {
	s.mu.Lock()
	posts, err := s.repo.Posts(ctx)
	if err != nil {
		s.mu.Unlock()
		return PostView{}, fmt.Errorf("load posts: %w", err)
	}

	idx := findPost(posts, id)
	if idx < 0 {
		s.mu.Unlock()
		return PostView{}, ErrPostNotFound
	}
	posts[idx].Views++
	if err := s.repo.SavePosts(ctx, posts); err != nil {
		s.mu.Unlock()
		return PostView{}, fmt.Errorf("save posts: %w", err)
	}
	post := posts[idx]
	s.mu.Unlock()

	views, err := s.decorate(ctx, func(cs []model.Comment) []ranker.RankedPost {
		n := ranker.CommentCount(cs, post.ID)
		return []ranker.RankedPost{{Post: post, CommentCount: n, Score: s.ranker.Score(post, n)}}
	})
	if err != nil {
		return PostView{}, err
	}
	return views[0], nil
}

// ListPosts lists posts for a category (ranked as RankCategory does), for a
// gallery (newest first), or all posts newest first.
func (s *Service) ListPosts(ctx context.Context, category, galleryID string) ([]PostView, error) {
	posts, err := s.repo.Posts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load posts: %w", err)
	}

	switch {
	case galleryID != "":
		return s.decorate(ctx, func(cs []model.Comment) []ranker.RankedPost {
			return s.ranker.Newest(posts, cs, func(p model.Post) bool { return p.GalleryID == galleryID })
		})
	case category != "":
		c, err := model.ParseCategory(category)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		return s.decorate(ctx, func(cs []model.Comment) []ranker.RankedPost {
			return s.ranker.RankCategory(posts, cs, c)
		})
	default:
		return s.decorate(ctx, func(cs []model.Comment) []ranker.RankedPost {
			return s.ranker.Newest(posts, cs, func(model.Post) bool { return true })
		})
	}
}

// decorate orders posts with rank and adds display fields.
func (s *Service) decorate(ctx context.Context, rank func(comments []model.Comment) []ranker.RankedPost) ([]PostView, error) {
	comments, err := s.repo.Comments(ctx)
	if err != nil {
		return nil, fmt.Errorf("load comments: %w", err)
	}
	users, err := s.usersByID(ctx)
	if err != nil {
		return nil, err
	}

	ranked := rank(comments)
	out := make([]PostView, len(ranked))
	for i, r := range ranked {
		out[i] = PostView{
			RankedPost: r,
			AuthorName: displayName(r.Author, users),
			Featured:   s.ranker.IsFeatured(r),
			Media:      media.Resolve(r.Video),
		}
	}
	return out, nil
}

func findPost(posts []model.Post, id string) int {
	for i, p := range posts {
		if p.ID == id && !p.Deleted {
			return i
		}
	}
	return -1
}
