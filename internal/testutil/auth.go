package testutil

import (
	"net/http"
	"testing"

	"github.com/vrsandeep/xwc-settings/internal/auth"
	"github.com/vrsandeep/xwc-settings/internal/config"
	"golang.org/x/crypto/bcrypt"
)

// EnableAdminAuth protects the admin routes of cfg with username and
// password. The hash uses the minimum cost to keep tests fast.
func EnableAdminAuth(t *testing.T, cfg *config.Config, username, password string) {
	t.Helper()
	hash, err := auth.HashPasswordWithCost(password, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password for test admin: %v", err)
	}
	cfg.Admin.Username = username
	cfg.Admin.PasswordHash = hash
}

// WithBasicAuth returns req carrying the given credentials.
func WithBasicAuth(req *http.Request, username, password string) *http.Request {
	req.SetBasicAuth(username, password)
	return req
}
