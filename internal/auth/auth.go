package auth

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt cost used for new hashes.
const DefaultCost = 14

// HashPassword generates a bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	return HashPasswordWithCost(password, DefaultCost)
}

// HashPasswordWithCost generates a bcrypt hash with an explicit cost.
func HashPasswordWithCost(password string, cost int) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(bytes), err
}

// CheckPasswordHash compares a plaintext password with a stored bcrypt hash.
// It returns true if the password matches the hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// Credentials is the single admin account guarding write routes.
type Credentials struct {
	Username     string
	PasswordHash string
}

// Enabled reports whether a password is configured. Without one the admin
// routes are open.
func (c Credentials) Enabled() bool {
	return c.PasswordHash != ""
}

// Check verifies a username and password pair.
func (c Credentials) Check(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.Username)) == 1
	passOK := CheckPasswordHash(password, c.PasswordHash)
	return userOK && passOK
}
