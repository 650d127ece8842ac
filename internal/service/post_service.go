package service

import (
	"context"
	"fmt"
	"strings"

	"blog-api/internal/domain"
	"blog-api/internal/repository"
)

// PostService coordinates post operations and enforces author-only mutation.
type PostService interface {
	// List returns all posts newest-first, annotated for the viewer.
	// viewerID 0 means anonymous.
	List(ctx context.Context, viewerID int64) ([]domain.PostView, error)
	Create(ctx context.Context, authorID int64, authorName, title, content string) (*domain.PostView, error)
	Update(ctx context.Context, callerID, postID int64, title, content string) (*domain.PostView, error)
	Delete(ctx context.Context, callerID, postID int64) error
	ToggleLike(ctx context.Context, callerID, postID int64) (*domain.PostView, error)
}

type postService struct {
	posts repository.PostRepository
}

func NewPostService(posts repository.PostRepository) PostService {
	return &postService{posts: posts}
}

func (s *postService) List(ctx context.Context, viewerID int64) ([]domain.PostView, error) {
	return s.posts.ListViews(ctx, viewerID)
}

func (s *postService) Create(ctx context.Context, authorID int64, authorName, title, content string) (*domain.PostView, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" || content == "" {
		return nil, fmt.Errorf("%w: title and content are required", domain.ErrValidation)
	}

	post := &domain.Post{
		Title:      title,
		Content:    content,
		AuthorID:   authorID,
		AuthorName: authorName,
	}
	if _, err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}

	return &domain.PostView{Post: *post}, nil
}

// Update applies each provided field only if non-empty; a caller cannot
// clear a field through this operation. Both fields empty is a no-op that
// still succeeds.
func (s *postService) Update(ctx context.Context, callerID, postID int64, title, content string) (*domain.PostView, error) {
	if err := s.checkAuthor(ctx, callerID, postID); err != nil {
		return nil, err
	}

	if err := s.posts.UpdateContent(ctx, postID, strings.TrimSpace(title), strings.TrimSpace(content)); err != nil {
		return nil, err
	}

	return s.posts.GetView(ctx, postID, callerID)
}

func (s *postService) Delete(ctx context.Context, callerID, postID int64) error {
	if err := s.checkAuthor(ctx, callerID, postID); err != nil {
		return err
	}
	return s.posts.Delete(ctx, postID)
}

// ToggleLike likes the post if the caller has not liked it yet, otherwise
// removes the like. The returned view is read after the flip, so
// LikedByViewer reports the post-toggle membership.
func (s *postService) ToggleLike(ctx context.Context, callerID, postID int64) (*domain.PostView, error) {
	if _, err := s.posts.Get(ctx, postID); err != nil {
		return nil, err
	}
	if _, err := s.posts.ToggleLike(ctx, postID, callerID); err != nil {
		return nil, err
	}
	return s.posts.GetView(ctx, postID, callerID)
}

func (s *postService) checkAuthor(ctx context.Context, callerID, postID int64) error {
	post, err := s.posts.Get(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != callerID {
		return fmt.Errorf("%w: only the author can modify this post", domain.ErrForbidden)
	}
	return nil
}
