package store

import (
	"errors"

	"gorm.io/gorm"

	"github.com/cspring/microblog/models"
)

// gormStore implements Store on a *gorm.DB (SQLite or MySQL).
type gormStore struct {
	db *gorm.DB
}

// NewGormStore wraps db in a Store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) UserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &user, nil
}

func (s *gormStore) UserByUsername(username string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &user, nil
}

func (s *gormStore) UserByExternalIDHash(hash string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("external_id_hash = ?", hash).First(&user).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &user, nil
}

func (s *gormStore) InsertUser(u *models.User) error {
	return s.db.Create(u).Error
}

func (s *gormStore) Posts(order SortOrder) ([]models.Post, error) {
	var posts []models.Post
	q := s.db.Order("timestamp DESC")
	if order == SortByLikes {
		q = s.db.Order("likes DESC, id ASC")
	}
	if err := q.Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *gormStore) PostByID(id uint) (*models.Post, error) {
	var post models.Post
	if err := s.db.First(&post, id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &post, nil
}

func (s *gormStore) PostsByUsername(username string) ([]models.Post, error) {
	var posts []models.Post
	if err := s.db.Where("username = ?", username).Order("timestamp DESC").Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *gormStore) InsertPost(p *models.Post) error {
	return s.db.Create(p).Error
}

func (s *gormStore) DeletePost(id uint) error {
	res := s.db.Delete(&models.Post{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePostLikes performs the read-modify-write inside a transaction so two
// concurrent toggles on the same post serialize instead of losing an update.
func (s *gormStore) UpdatePostLikes(id uint, mutate func(*models.Post) error) (*models.Post, error) {
	var post models.Post
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&post, id).Error; err != nil {
			return wrapNotFound(err)
		}
		if err := mutate(&post); err != nil {
			return err
		}
		return tx.Model(&post).Select("likes", "liked_by").Updates(&post).Error
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *gormStore) CommentsByPostID(postID uint) ([]models.Comment, error) {
	var comments []models.Comment
	if err := s.db.Where("post_id = ?", postID).Order("timestamp ASC").Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

func (s *gormStore) InsertComment(c *models.Comment) error {
	return s.db.Create(c).Error
}

func (s *gormStore) DeleteCommentsByPostID(postID uint) error {
	return s.db.Where("post_id = ?", postID).Delete(&models.Comment{}).Error
}

func wrapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
