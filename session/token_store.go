// session/token_store.go
package session

import (
	"os"
	"path/filepath"
	"strings"
)

// TokenStore persists the bearer token so a session survives a
// console restart. The token is the only state the console keeps on
// disk besides its own logs.
type TokenStore struct {
	path string
}

func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Load returns the stored token, or "" when none exists. Read errors
// degrade to "no token": the worst case is an extra login prompt.
func (t *TokenStore) Load() string {
	raw, err := os.ReadFile(t.path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(raw))
}

func (t *TokenStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(t.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(t.path, []byte(token), 0o600)
}

// Clear removes the stored token. A missing file is not an error.
func (t *TokenStore) Clear() error {
	err := os.Remove(t.path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}
