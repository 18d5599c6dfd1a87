package services

import (
	"errors"
	"time"

	"github.com/cspring/microblog/models"
	"github.com/cspring/microblog/store"
)

// PostService implements the post, like, and comment business rules on top of
// an injected store.
type PostService struct {
	store store.Store
}

// NewPostService creates a PostService.
func NewPostService(st store.Store) *PostService {
	return &PostService{store: st}
}

// List returns all posts in the requested order. Unknown values fall back to
// recency. No pagination, the full table is small enough to scan.
func (s *PostService) List(order store.SortOrder) ([]models.Post, error) {
	if order != store.SortByLikes {
		order = store.SortByRecency
	}
	return s.store.Posts(order)
}

// Get returns one post by id.
func (s *PostService) Get(id uint) (*models.Post, error) {
	post, err := s.store.PostByID(id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	return post, err
}

// PostsBy returns the posts authored by username, newest first.
func (s *PostService) PostsBy(username string) ([]models.Post, error) {
	return s.store.PostsByUsername(username)
}

// Create inserts a new post for author. Content passes through unvalidated;
// newlines are preserved and escaping happens at render time.
func (s *PostService) Create(title, content string, author models.User) (*models.Post, error) {
	if author.IsAnonymous() {
		return nil, ErrUnauthenticated
	}
	post := &models.Post{
		Title:     title,
		Content:   content,
		Username:  author.Username,
		Timestamp: time.Now(),
		Likes:     0,
		LikedBy:   models.UsernameSet{},
	}
	if err := s.store.InsertPost(post); err != nil {
		return nil, err
	}
	return post, nil
}

// Delete removes a post. Only the author may delete; the post's comments are
// removed with it so no orphans remain.
func (s *PostService) Delete(id uint, requester models.User) error {
	if requester.IsAnonymous() {
		return ErrUnauthenticated
	}
	post, err := s.store.PostByID(id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if post.Username != requester.Username {
		return ErrForbidden
	}
	if err := s.store.DeleteCommentsByPostID(id); err != nil {
		return err
	}
	return s.store.DeletePost(id)
}

// ToggleLike flips requester's like on the post and returns the resulting
// count and whether the requester now likes it. Authors cannot like their own
// posts. The store runs the mutation atomically, so likes always equals the
// liked-by set size afterwards.
func (s *PostService) ToggleLike(id uint, requester models.User) (likes int, liked bool, err error) {
	if requester.IsAnonymous() {
		return 0, false, ErrUnauthenticated
	}
	post, err := s.store.UpdatePostLikes(id, func(p *models.Post) error {
		if p.Username == requester.Username {
			return ErrForbidden
		}
		liked = p.ToggleLiker(requester.Username)
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		return 0, false, ErrNotFound
	}
	if err != nil {
		return 0, false, err
	}
	return post.Likes, liked, nil
}

// AddComment attaches a comment by author to an existing post.
func (s *PostService) AddComment(postID uint, author models.User, content string) (*models.Comment, error) {
	if author.IsAnonymous() {
		return nil, ErrUnauthenticated
	}
	if _, err := s.store.PostByID(postID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	comment := &models.Comment{
		PostID:    postID,
		Username:  author.Username,
		Content:   content,
		Timestamp: time.Now(),
	}
	if err := s.store.InsertComment(comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// Comments returns a post's comments, oldest first.
func (s *PostService) Comments(postID uint) ([]models.Comment, error) {
	return s.store.CommentsByPostID(postID)
}
