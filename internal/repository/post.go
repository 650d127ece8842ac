package repository

import (
	"context"

	"blog-api/internal/domain"
)

// PostRepository exposes persistence operations for Post aggregates and
// their like sets.
type PostRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, post *domain.Post) (int64, error)
	Get(ctx context.Context, id int64) (*domain.Post, error)
	// GetView loads a post projected for the given viewer. viewerID 0 means
	// anonymous.
	GetView(ctx context.Context, id, viewerID int64) (*domain.PostView, error)
	// ListViews returns all posts newest-created first, projected for the
	// given viewer.
	ListViews(ctx context.Context, viewerID int64) ([]domain.PostView, error)
	// UpdateContent applies each non-empty field to the post in a single
	// statement; empty fields leave the stored value unchanged.
	UpdateContent(ctx context.Context, id int64, title, content string) error
	Delete(ctx context.Context, id int64) error
	// ToggleLike flips the (post, user) like membership atomically and
	// reports the resulting membership state.
	ToggleLike(ctx context.Context, postID, userID int64) (bool, error)
}
