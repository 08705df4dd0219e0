package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPasswordWithCost("s3cret", bcrypt.MinCost)
	require.NoError(t, err)

	assert.NotEqual(t, "s3cret", hash)
	assert.True(t, CheckPasswordHash("s3cret", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
	assert.False(t, CheckPasswordHash("s3cret", "not-a-hash"))
}

func TestCredentials(t *testing.T) {
	hash, err := HashPasswordWithCost("s3cret", bcrypt.MinCost)
	require.NoError(t, err)

	creds := Credentials{Username: "admin", PasswordHash: hash}
	assert.True(t, creds.Enabled())
	assert.True(t, creds.Check("admin", "s3cret"))
	assert.False(t, creds.Check("root", "s3cret"))
	assert.False(t, creds.Check("admin", "nope"))

	assert.False(t, Credentials{Username: "admin"}.Enabled())
}
