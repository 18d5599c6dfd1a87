package services

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/cspring/microblog/models"
	"github.com/cspring/microblog/store"
)

// IdentityService maps external identity assertions and bare usernames to
// local user rows.
type IdentityService struct {
	store store.Store
}

// NewIdentityService creates an IdentityService.
func NewIdentityService(st store.Store) *IdentityService {
	return &IdentityService{store: st}
}

// HashSubjectID computes the stable one-way hash stored for an external
// identity subject. The raw subject id is never persisted.
func HashSubjectID(subjectID string) string {
	sum := sha256.Sum256([]byte(subjectID))
	return hex.EncodeToString(sum[:])
}

// CompleteExternalLogin resolves a verified provider subject id to a local
// user. When no account exists yet it returns ErrNotFound along with the
// hash, which the caller parks in the session as the pending registration
// handoff; the account is not created here.
func (s *IdentityService) CompleteExternalLogin(subjectID string) (*models.User, string, error) {
	hash := HashSubjectID(subjectID)
	user, err := s.store.UserByExternalIDHash(hash)
	if errors.Is(err, store.ErrNotFound) {
		return nil, hash, ErrNotFound
	}
	if err != nil {
		return nil, hash, err
	}
	return user, hash, nil
}

// RegisterLocalUser creates the account for username. pendingHash carries the
// external identity hash from the session when the registration follows an
// external login; username-only accounts get a fresh placeholder so the
// unique column constraint still holds. Fails with ErrConflict when the
// username or the identity hash already belongs to a user.
func (s *IdentityService) RegisterLocalUser(username, pendingHash string) (*models.User, error) {
	if _, err := s.store.UserByUsername(username); err == nil {
		return nil, ErrConflict
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if pendingHash == "" {
		pendingHash = "local:" + uuid.NewString()
	} else {
		if _, err := s.store.UserByExternalIDHash(pendingHash); err == nil {
			return nil, ErrConflict
		} else if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}
	user := &models.User{
		Username:       username,
		ExternalIDHash: pendingHash,
		AvatarURL:      "",
		MemberSince:    time.Now(),
	}
	if err := s.store.InsertUser(user); err != nil {
		return nil, err
	}
	return user, nil
}

// LoginByUsername resolves a bare username to its account (username-only
// mode, no credential check).
func (s *IdentityService) LoginByUsername(username string) (*models.User, error) {
	user, err := s.store.UserByUsername(username)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	return user, err
}

// UserByUsername returns the account for username, ErrNotFound when absent.
func (s *IdentityService) UserByUsername(username string) (*models.User, error) {
	user, err := s.store.UserByUsername(username)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	return user, err
}

// CurrentUser resolves the session to its user, or the anonymous sentinel
// when the session is absent, not logged in, or stale. Read-only; called on
// every request to populate the view context.
func (s *IdentityService) CurrentUser(sess *models.Session) models.User {
	if sess == nil || sess.UserID == 0 {
		return models.Anonymous
	}
	user, err := s.store.UserByID(sess.UserID)
	if err != nil {
		return models.Anonymous
	}
	return *user
}
