package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"blog-api/internal/domain"
	"blog-api/internal/repository"
)

const (
	createPostsTable = `
CREATE TABLE IF NOT EXISTS posts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	author_id INTEGER NOT NULL REFERENCES users(id),
	author_name TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`

	createPostLikesTable = `
CREATE TABLE IF NOT EXISTS post_likes (
	post_id INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
	user_id INTEGER NOT NULL REFERENCES users(id),
	created_at DATETIME NOT NULL,
	PRIMARY KEY (post_id, user_id)
);
`

	selectPostView = `
SELECT p.id, p.title, p.content, p.author_id, p.author_name, p.created_at, p.updated_at,
	(SELECT COUNT(*) FROM post_likes l WHERE l.post_id = p.id) AS like_count,
	EXISTS(SELECT 1 FROM post_likes l WHERE l.post_id = p.id AND l.user_id = ?) AS liked_by_viewer
FROM posts p
`
)

type PostRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) repository.PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createPostsTable); err != nil {
		return fmt.Errorf("create posts table: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, createPostLikesTable); err != nil {
		return fmt.Errorf("create post_likes table: %w", err)
	}
	return nil
}

func (r *PostRepository) Create(ctx context.Context, post *domain.Post) (int64, error) {
	now := time.Now().UTC()
	post.CreatedAt = now
	post.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, `
INSERT INTO posts (title, content, author_id, author_name, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		post.Title,
		post.Content,
		post.AuthorID,
		post.AuthorName,
		post.CreatedAt,
		post.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert post: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("post last insert id: %w", err)
	}
	post.ID = id
	return id, nil
}

func (r *PostRepository) Get(ctx context.Context, id int64) (*domain.Post, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, title, content, author_id, author_name, created_at, updated_at
FROM posts
WHERE id = ?`,
		id,
	)

	var post domain.Post
	if err := row.Scan(
		&post.ID,
		&post.Title,
		&post.Content,
		&post.AuthorID,
		&post.AuthorName,
		&post.CreatedAt,
		&post.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan post: %w", err)
	}
	return &post, nil
}

func (r *PostRepository) GetView(ctx context.Context, id, viewerID int64) (*domain.PostView, error) {
	row := r.db.QueryRowContext(ctx, selectPostView+`WHERE p.id = ?`, viewerID, id)
	return scanPostView(row)
}

func (r *PostRepository) ListViews(ctx context.Context, viewerID int64) ([]domain.PostView, error) {
	rows, err := r.db.QueryContext(ctx, selectPostView+`ORDER BY p.created_at DESC, p.id DESC`, viewerID)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var views []domain.PostView
	for rows.Next() {
		view, err := scanPostView(rows)
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return views, nil
}

// UpdateContent applies the partial-update policy in a single statement:
// an empty argument keeps the stored value, so two concurrent updates
// cannot interleave a stale read back into the row.
func (r *PostRepository) UpdateContent(ctx context.Context, id int64, title, content string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE posts
SET title = CASE WHEN ? <> '' THEN ? ELSE title END,
	content = CASE WHEN ? <> '' THEN ? ELSE content END,
	updated_at = ?
WHERE id = ?`,
		title, title,
		content, content,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update post rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete post rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ToggleLike flips the like membership for (postID, userID) inside one
// transaction: a delete that removes nothing means the user had not liked
// the post yet, so a row is inserted instead. The reported bool is the
// post-toggle membership state.
func (r *PostRepository) ToggleLike(ctx context.Context, postID, userID int64) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin toggle like: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM post_likes WHERE post_id = ? AND user_id = ?`, postID, userID)
	if err != nil {
		return false, fmt.Errorf("remove like: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove like rows affected: %w", err)
	}

	liked := false
	if removed == 0 {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO post_likes (post_id, user_id, created_at)
VALUES (?, ?, ?)`,
			postID, userID, time.Now().UTC(),
		); err != nil {
			return false, fmt.Errorf("add like: %w", err)
		}
		liked = true
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit toggle like: %w", err)
	}
	return liked, nil
}

func scanPostView(row interface {
	Scan(dest ...any) error
}) (*domain.PostView, error) {
	var view domain.PostView
	if err := row.Scan(
		&view.ID,
		&view.Title,
		&view.Content,
		&view.AuthorID,
		&view.AuthorName,
		&view.CreatedAt,
		&view.UpdatedAt,
		&view.LikeCount,
		&view.LikedByViewer,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan post view: %w", err)
	}
	return &view, nil
}
