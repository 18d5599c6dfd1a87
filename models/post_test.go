package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleLikerKeepsCountInSync(t *testing.T) {
	p := &Post{LikedBy: UsernameSet{}}

	assert.True(t, p.ToggleLiker("bob"))
	assert.Equal(t, 1, p.Likes)
	assert.True(t, p.ToggleLiker("carol"))
	assert.Equal(t, 2, p.Likes)

	assert.False(t, p.ToggleLiker("bob"))
	assert.Equal(t, 1, p.Likes)
	assert.Equal(t, len(p.LikedBy), p.Likes)
	assert.Equal(t, UsernameSet{"carol"}, p.LikedBy)
}

func TestUsernameSetScanNilColumn(t *testing.T) {
	var s UsernameSet
	require.NoError(t, s.Scan(nil))
	assert.Empty(t, s)

	v, err := UsernameSet(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}
