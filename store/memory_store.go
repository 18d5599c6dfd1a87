package store

import (
	"sort"
	"sync"

	"github.com/cspring/microblog/models"
)

// memoryStore is an in-process Store used by tests and the no-database mode.
// All methods copy rows in and out so callers never alias internal state.
type memoryStore struct {
	mu        sync.Mutex
	users     map[uint]models.User
	posts     map[uint]models.Post
	comments  map[uint]models.Comment
	userSeq   uint
	postSeq   uint
	commentSq uint
}

// NewMemoryStore returns an empty in-memory Store.
func NewMemoryStore() Store {
	return &memoryStore{
		users:    map[uint]models.User{},
		posts:    map[uint]models.Post{},
		comments: map[uint]models.Comment{},
	}
}

func (s *memoryStore) UserByID(id uint) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *memoryStore) UserByUsername(username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memoryStore) UserByExternalIDHash(hash string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ExternalIDHash == hash {
			u := u
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memoryStore) InsertUser(u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userSeq++
	u.ID = s.userSeq
	s.users[u.ID] = *u
	return nil
}

func (s *memoryStore) Posts(order SortOrder) ([]models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	posts := s.postsByIDLocked()
	if order == SortByLikes {
		// Stable sort keeps insertion order for equal like counts.
		sort.SliceStable(posts, func(i, j int) bool { return posts[i].Likes > posts[j].Likes })
	} else {
		sort.SliceStable(posts, func(i, j int) bool { return posts[i].Timestamp.After(posts[j].Timestamp) })
	}
	return posts, nil
}

func (s *memoryStore) PostByID(id uint) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	p.LikedBy = append(models.UsernameSet{}, p.LikedBy...)
	return &p, nil
}

func (s *memoryStore) PostsByUsername(username string) ([]models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var posts []models.Post
	for _, p := range s.postsByIDLocked() {
		if p.Username == username {
			posts = append(posts, p)
		}
	}
	sort.SliceStable(posts, func(i, j int) bool { return posts[i].Timestamp.After(posts[j].Timestamp) })
	return posts, nil
}

func (s *memoryStore) InsertPost(p *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.postSeq++
	p.ID = s.postSeq
	cp := *p
	cp.LikedBy = append(models.UsernameSet{}, p.LikedBy...)
	s.posts[p.ID] = cp
	return nil
}

func (s *memoryStore) DeletePost(id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[id]; !ok {
		return ErrNotFound
	}
	delete(s.posts, id)
	return nil
}

func (s *memoryStore) UpdatePostLikes(id uint, mutate func(*models.Post) error) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	p.LikedBy = append(models.UsernameSet{}, p.LikedBy...)
	if err := mutate(&p); err != nil {
		return nil, err
	}
	s.posts[id] = p
	out := p
	out.LikedBy = append(models.UsernameSet{}, p.LikedBy...)
	return &out, nil
}

func (s *memoryStore) CommentsByPostID(postID uint) ([]models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]uint, 0, len(s.comments))
	for id, c := range s.comments {
		if c.PostID == postID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	comments := make([]models.Comment, 0, len(ids))
	for _, id := range ids {
		comments = append(comments, s.comments[id])
	}
	return comments, nil
}

func (s *memoryStore) InsertComment(c *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commentSq++
	c.ID = s.commentSq
	s.comments[c.ID] = *c
	return nil
}

func (s *memoryStore) DeleteCommentsByPostID(postID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.comments {
		if c.PostID == postID {
			delete(s.comments, id)
		}
	}
	return nil
}

// postsByIDLocked returns all posts in id (insertion) order with copied
// LikedBy slices. Caller must hold mu.
func (s *memoryStore) postsByIDLocked() []models.Post {
	ids := make([]uint, 0, len(s.posts))
	for id := range s.posts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	posts := make([]models.Post, 0, len(ids))
	for _, id := range ids {
		p := s.posts[id]
		p.LikedBy = append(models.UsernameSet{}, p.LikedBy...)
		posts = append(posts, p)
	}
	return posts
}
