package services

import (
	"testing"

	"github.com/sbilibin2017/microblog/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecureHash(t *testing.T) {
	assert.Equal(t, SecureHash("salt--foobar"), SecureHash("salt--foobar"))
	assert.NotEqual(t, SecureHash("salt--foobar"), SecureHash("salt--foobaz"))
	assert.NotEqual(t, SecureHash("salt--foobar"), SecureHash("pepper--foobar"))
	assert.Len(t, SecureHash(""), 64)
}

func TestNewSalt(t *testing.T) {
	a, err := NewSalt()
	require.NoError(t, err)
	b, err := NewSalt()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}

func TestHasPassword(t *testing.T) {
	user := &models.UserDB{}
	require.NoError(t, setPassword(user, "foobar"))

	assert.NotEqual(t, "foobar", user.EncryptedPassword)
	assert.Equal(t, EncryptPassword(user.Salt, "foobar"), user.EncryptedPassword)
	assert.True(t, HasPassword(user, "foobar"))
	assert.False(t, HasPassword(user, "invalid"))

	oldSalt := user.Salt
	require.NoError(t, setPassword(user, "foobar"))
	assert.NotEqual(t, oldSalt, user.Salt)
	assert.True(t, HasPassword(user, "foobar"))
}
