package services_test

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cspring/microblog/models"
	"github.com/cspring/microblog/services"
	"github.com/cspring/microblog/store"
)

func TestHashSubjectID(t *testing.T) {
	sum := sha256.Sum256([]byte("subject-123"))
	assert.Equal(t, hex.EncodeToString(sum[:]), services.HashSubjectID("subject-123"))
	// stable across calls
	assert.Equal(t, services.HashSubjectID("subject-123"), services.HashSubjectID("subject-123"))
	assert.NotEqual(t, services.HashSubjectID("subject-123"), services.HashSubjectID("subject-124"))
}

func TestIdentityService_RegisterLocalUser(t *testing.T) {
	svc := services.NewIdentityService(store.NewMemoryStore())

	user, err := svc.RegisterLocalUser("alice", "")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.NotEmpty(t, user.ExternalIDHash)
	assert.False(t, user.MemberSince.IsZero())

	_, err = svc.RegisterLocalUser("alice", "")
	assert.ErrorIs(t, err, services.ErrConflict)
}

func TestIdentityService_RegisterWithPendingHash(t *testing.T) {
	svc := services.NewIdentityService(store.NewMemoryStore())
	hash := services.HashSubjectID("google-sub-1")

	user, err := svc.RegisterLocalUser("alice", hash)
	require.NoError(t, err)
	assert.Equal(t, hash, user.ExternalIDHash)

	// the same external identity cannot claim a second username
	_, err = svc.RegisterLocalUser("alice2", hash)
	assert.ErrorIs(t, err, services.ErrConflict)
}

func TestIdentityService_ExternalLoginFlow(t *testing.T) {
	svc := services.NewIdentityService(store.NewMemoryStore())

	// first contact: unknown subject, hash handed back for the pending session
	user, hash, err := svc.CompleteExternalLogin("google-sub-1")
	assert.ErrorIs(t, err, services.ErrNotFound)
	assert.Nil(t, user)
	assert.Equal(t, services.HashSubjectID("google-sub-1"), hash)

	registered, err := svc.RegisterLocalUser("alice", hash)
	require.NoError(t, err)

	// next login resolves straight to the account
	user, _, err = svc.CompleteExternalLogin("google-sub-1")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.Equal(t, "alice", user.Username)
}

func TestIdentityService_LoginByUsername(t *testing.T) {
	svc := services.NewIdentityService(store.NewMemoryStore())

	_, err := svc.LoginByUsername("ghost")
	assert.ErrorIs(t, err, services.ErrNotFound)

	_, err = svc.RegisterLocalUser("alice", "")
	require.NoError(t, err)

	user, err := svc.LoginByUsername("alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
}

func TestIdentityService_CurrentUser(t *testing.T) {
	st := store.NewMemoryStore()
	svc := services.NewIdentityService(st)

	assert.True(t, svc.CurrentUser(nil).IsAnonymous())
	assert.True(t, svc.CurrentUser(&models.Session{}).IsAnonymous())

	user, err := svc.RegisterLocalUser("alice", "")
	require.NoError(t, err)

	sess := &models.Session{ID: "sid", UserID: user.ID, LoggedIn: true}
	assert.Equal(t, "alice", svc.CurrentUser(sess).Username)

	// stale session pointing at a deleted user degrades to anonymous
	stale := &models.Session{ID: "sid2", UserID: user.ID + 100, LoggedIn: true}
	assert.True(t, svc.CurrentUser(stale).IsAnonymous())
}
