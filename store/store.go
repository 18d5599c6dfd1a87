// Package store abstracts persistence behind per-entity interfaces so the
// service layer runs unchanged against the relational backend or the
// in-memory double used in tests.
package store

import (
	"errors"

	"github.com/cspring/microblog/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("record not found")

// SortOrder selects the ordering of post listings.
type SortOrder string

const (
	// SortByRecency orders posts newest first (default).
	SortByRecency SortOrder = "recency"
	// SortByLikes orders posts by like count descending, ties broken by
	// insertion order.
	SortByLikes SortOrder = "likes"
)

// UserStore provides user rows.
type UserStore interface {
	UserByID(id uint) (*models.User, error)
	UserByUsername(username string) (*models.User, error)
	UserByExternalIDHash(hash string) (*models.User, error)
	InsertUser(u *models.User) error
}

// PostStore provides post rows.
type PostStore interface {
	Posts(order SortOrder) ([]models.Post, error)
	PostByID(id uint) (*models.Post, error)
	PostsByUsername(username string) ([]models.Post, error)
	InsertPost(p *models.Post) error
	DeletePost(id uint) error

	// UpdatePostLikes loads the post, applies mutate, and writes the result
	// back as one atomic step. Implementations must not interleave two
	// mutations of the same post; this closes the read-modify-write window
	// on like toggles.
	UpdatePostLikes(id uint, mutate func(*models.Post) error) (*models.Post, error)
}

// CommentStore provides comment rows.
type CommentStore interface {
	CommentsByPostID(postID uint) ([]models.Comment, error)
	InsertComment(c *models.Comment) error
	DeleteCommentsByPostID(postID uint) error
}

// Store aggregates all entity stores.
type Store interface {
	UserStore
	PostStore
	CommentStore
}
