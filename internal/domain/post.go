package domain

import "time"

// Post represents a blog post. AuthorID never changes after creation and
// AuthorName is a snapshot of the author's username taken at creation time.
type Post struct {
	ID         int64
	Title      string
	Content    string
	AuthorID   int64
	AuthorName string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// PostView is a post projected for a particular viewer. LikedByViewer is
// always false for anonymous viewers.
type PostView struct {
	Post
	LikeCount     int
	LikedByViewer bool
}
