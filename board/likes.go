package board

import (
	"context"
	"fmt"

	"github.com/inho1628/korea-community-website/model"
)

// LikePost records a like from sess. A second like from the same user, or
// from the same IP prefix for visitors, returns ErrAlreadyLiked and changes
// nothing. The new like count is returned.
func (s *Service) LikePost(ctx context.Context, sess Session, postID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	posts, err := s.repo.Posts(ctx)
	if err != nil {
		return 0, fmt.Errorf("load posts: %w", err)
	}
	idx := findPost(posts, postID)
	if idx < 0 {
		return 0, ErrPostNotFound
	}

	book, err := s.repo.Likes(ctx)
	if err != nil {
		return 0, fmt.Errorf("load likes: %w", err)
	}
	userID, ipPrefix, err := s.likeActor(ctx, sess)
	if err != nil {
		return 0, err
	}
	if model.Has(book.Posts[postID], userID, ipPrefix) {
		return posts[idx].Likes, ErrAlreadyLiked
	}

	// The like book is written first so a failed count update can be undone.
	prev, had := book.Posts[postID]
	book.Posts[postID] = append(prev, model.LikeRecord{
		UserID:    userID,
		IPPrefix:  ipPrefix,
		CreatedAt: s.timestamp(),
	})
	if err := s.repo.SaveLikes(ctx, book); err != nil {
		return 0, fmt.Errorf("save likes: %w", err)
	}

	posts[idx].Likes++
	if err := s.repo.SavePosts(ctx, posts); err != nil {
		restore(book.Posts, postID, prev, had)
		s.rollbackLikes(ctx, book)
		return 0, fmt.Errorf("save posts: %w", err)
	}

	return posts[idx].Likes, nil
}

// LikeComment is LikePost for comments.
func (s *Service) LikeComment(ctx context.Context, sess Session, commentID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	comments, err := s.repo.Comments(ctx)
	if err != nil {
		return 0, fmt.Errorf("load comments: %w", err)
	}
	idx := -1
	for i, c := range comments {
		if c.ID == commentID && !c.Deleted {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0, ErrCommentNotFound
	}

	book, err := s.repo.Likes(ctx)
	if err != nil {
		return 0, fmt.Errorf("load likes: %w", err)
	}
	userID, ipPrefix, err := s.likeActor(ctx, sess)
	if err != nil {
		return 0, err
	}
	if model.Has(book.Comments[commentID], userID, ipPrefix) {
		return comments[idx].Likes, ErrAlreadyLiked
	}

	prev, had := book.Comments[commentID]
	book.Comments[commentID] = append(prev, model.LikeRecord{
		UserID:    userID,
		IPPrefix:  ipPrefix,
		CreatedAt: s.timestamp(),
	})
	if err := s.repo.SaveLikes(ctx, book); err != nil {
		return 0, fmt.Errorf("save likes: %w", err)
	}

	comments[idx].Likes++
	if err := s.repo.SaveComments(ctx, comments); err != nil {
		restore(book.Comments, commentID, prev, had)
		s.rollbackLikes(ctx, book)
		return 0, fmt.Errorf("save comments: %w", err)
	}

	return comments[idx].Likes, nil
}

func restore(likes map[string][]model.LikeRecord, id string, prev []model.LikeRecord, had bool) {
	if had {
		likes[id] = prev
		return
	}
	delete(likes, id)
}

// rollbackLikes writes back the like book after a failed count update. If
// that fails too the like stays recorded without being counted.
func (s *Service) rollbackLikes(ctx context.Context, book model.LikeBook) {
	if err := s.repo.SaveLikes(ctx, book); err != nil {
		s.logger.Error("failed to roll back like", "error", err)
	}
}

// HasLikedPost reports whether sess already liked the post.
func (s *Service) HasLikedPost(ctx context.Context, sess Session, postID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	book, err := s.repo.Likes(ctx)
	if err != nil {
		return false, fmt.Errorf("load likes: %w", err)
	}
	userID, ipPrefix, err := s.likeActor(ctx, sess)
	if err != nil {
		return false, err
	}
	return model.Has(book.Posts[postID], userID, ipPrefix), nil
}
