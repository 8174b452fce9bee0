package board

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/inho1628/korea-community-website/model"
)

// CommentView is a comment with its author's display name.
type CommentView struct {
	model.Comment
	AuthorName string `json:"authorName"`
}

// SubmitComment adds a comment to a post. Logged-in authors are recorded by
// user id only; visitors by nickname and IP prefix.
func (s *Service) SubmitComment(ctx context.Context, sess Session, postID, content, nickname string) (model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	posts, err := s.repo.Posts(ctx)
	if err != nil {
		return model.Comment{}, fmt.Errorf("load posts: %w", err)
	}
	idx := findPost(posts, postID)
	if idx < 0 {
		return model.Comment{}, ErrPostNotFound
	}

	if sess.Authenticated() {
		nickname = ""
	}
	author, err := s.author(ctx, sess, nickname)
	if err != nil {
		return model.Comment{}, err
	}

	comment, err := model.NewComment(s.newID(), postID, content, author, s.timestamp())
	if err != nil {
		if errors.Is(err, model.ErrEmptyComment) {
			return model.Comment{}, fmt.Errorf("%w: please enter a comment", ErrInvalidInput)
		}
		return model.Comment{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	comments, err := s.repo.Comments(ctx)
	if err != nil {
		return model.Comment{}, fmt.Errorf("load comments: %w", err)
	}
	comments = append(comments, comment)
	if err := s.repo.SaveComments(ctx, comments); err != nil {
		return model.Comment{}, fmt.Errorf("save comments: %w", err)
	}

	posts[idx].Comments++
	if err := s.repo.SavePosts(ctx, posts); err != nil {
		return model.Comment{}, fmt.Errorf("save posts: %w", err)
	}

	s.logger.Info("comment added", "post_id", postID, "comment_id", comment.ID)
	return comment, nil
}

// ListComments returns a post's comments, oldest first.
func (s *Service) ListComments(ctx context.Context, postID string) ([]CommentView, error) {
	if _, err := s.GetPost(ctx, postID); err != nil {
		return nil, err
	}

	comments, err := s.repo.Comments(ctx)
	if err != nil {
		return nil, fmt.Errorf("load comments: %w", err)
	}

	var picked []model.Comment
	for _, c := range comments {
		if c.PostID == postID && !c.Deleted {
			picked = append(picked, c)
		}
	}

	now := s.now()
	sort.SliceStable(picked, func(i, j int) bool {
		return picked[i].CreatedAt.Or(now).Before(picked[j].CreatedAt.Or(now))
	})

	return s.commentViews(ctx, picked)
}

func (s *Service) commentViews(ctx context.Context, comments []model.Comment) ([]CommentView, error) {
	users, err := s.usersByID(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]CommentView, len(comments))
	for i, c := range comments {
		out[i] = CommentView{Comment: c, AuthorName: displayName(c.Author, users)}
	}
	return out, nil
}
