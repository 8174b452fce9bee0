package board

import (
	"context"
	"fmt"

	"github.com/inho1628/korea-community-website/media"
	"github.com/inho1628/korea-community-website/model"
	"github.com/inho1628/korea-community-website/ranker"
)

// HomeFeedSize is the number of hot posts on the home page.
const HomeFeedSize = 10

// FeedEntry is a ranked post with its best comments.
type FeedEntry struct {
	PostView
	BestComments []CommentView `json:"bestComments"`
}

// RankAllPosts returns every non-deleted post by popularity.
func (s *Service) RankAllPosts(ctx context.Context) ([]ranker.RankedPost, error) {
	posts, comments, err := s.postsAndComments(ctx)
	if err != nil {
		return nil, err
	}
	return s.ranker.RankAll(posts, comments), nil
}

// TopHotPosts returns the n most popular posts; n <= 0 returns all of them.
func (s *Service) TopHotPosts(ctx context.Context, n int) ([]ranker.RankedPost, error) {
	posts, comments, err := s.postsAndComments(ctx)
	if err != nil {
		return nil, err
	}
	return s.ranker.TopHot(posts, comments, n), nil
}

// RankCategory lists a category, humor by score and the rest newest first.
func (s *Service) RankCategory(ctx context.Context, category model.Category) ([]ranker.RankedPost, error) {
	posts, comments, err := s.postsAndComments(ctx)
	if err != nil {
		return nil, err
	}
	return s.ranker.RankCategory(posts, comments, category), nil
}

// BestComments returns a post's top comments by likes.
func (s *Service) BestComments(ctx context.Context, postID string, limit int) ([]model.Comment, error) {
	comments, err := s.repo.Comments(ctx)
	if err != nil {
		return nil, fmt.Errorf("load comments: %w", err)
	}
	return s.ranker.BestComments(comments, postID, limit), nil
}

// CommentCount counts a post's live comments.
func (s *Service) CommentCount(ctx context.Context, postID string) (int, error) {
	comments, err := s.repo.Comments(ctx)
	if err != nil {
		return 0, fmt.Errorf("load comments: %w", err)
	}
	return ranker.CommentCount(comments, postID), nil
}

// ResolveMediaLink classifies a video link.
func (s *Service) ResolveMediaLink(url string) media.Link {
	return media.Resolve(url)
}

// HotFeed returns the n most popular posts, each with its best comments.
func (s *Service) HotFeed(ctx context.Context, n int) ([]FeedEntry, error) {
	posts, err := s.repo.Posts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load posts: %w", err)
	}

	views, err := s.decorate(ctx, func(cs []model.Comment) []ranker.RankedPost {
		return s.ranker.TopHot(posts, cs, n)
	})
	if err != nil {
		return nil, err
	}

	comments, err := s.repo.Comments(ctx)
	if err != nil {
		return nil, fmt.Errorf("load comments: %w", err)
	}

	feed := make([]FeedEntry, len(views))
	for i, v := range views {
		best, err := s.commentViews(ctx, s.ranker.BestComments(comments, v.ID, s.bestCommentLimit))
		if err != nil {
			return nil, err
		}
		feed[i] = FeedEntry{PostView: v, BestComments: best}
	}
	return feed, nil
}

// MediaPreview is a post's resolved media with a page preview for plain links.
type MediaPreview struct {
	Link    media.Link   `json:"link"`
	Preview *LinkPreview `json:"preview,omitempty"`
}

// PostMedia resolves a post's video link. For plain links a preview is
// fetched when a Previewer is configured; failures only drop the preview.
func (s *Service) PostMedia(ctx context.Context, postID string) (MediaPreview, error) {
	post, err := s.GetPost(ctx, postID)
	if err != nil {
		return MediaPreview{}, err
	}

	out := MediaPreview{Link: media.Resolve(post.Video)}
	if out.Link.Kind != media.KindPlain || out.Link.Empty() || out.Link.Diagnostic != "" || s.previewer == nil {
		return out, nil
	}

	p, err := s.previewer.Preview(ctx, out.Link.URL)
	if err != nil {
		s.logger.Warn("link preview failed", "post_id", postID, "url", out.Link.URL, "error", err)
		return out, nil
	}
	out.Preview = p
	return out, nil
}

func (s *Service) postsAndComments(ctx context.Context) ([]model.Post, []model.Comment, error) {
	posts, err := s.repo.Posts(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load posts: %w", err)
	}
	comments, err := s.repo.Comments(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load comments: %w", err)
	}
	return posts, comments, nil
}
