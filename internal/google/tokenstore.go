package google

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/zalando/go-keyring"
	"golang.org/x/oauth2"
)

const (
	// keyringService groups this tool's secrets in the OS keychain.
	keyringService = "lazy-email-to-spreadsheet"
	keyringAccount = "google-oauth"
)

// TokenStore persists the OAuth token. The OS keyring is preferred;
// on systems without one (headless boxes, CI) it falls back to a
// mode-0600 JSON file at path.
type TokenStore struct {
	path string

	// disableKeyring forces file-only storage. Used in tests.
	disableKeyring bool
}

// NewTokenStore creates a token store with the given file fallback path.
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Load reads the stored token, trying the keyring first.
func (s *TokenStore) Load() (*oauth2.Token, error) {
	if !s.disableKeyring {
		if raw, err := keyring.Get(keyringService, keyringAccount); err == nil {
			var tok oauth2.Token
			if err := json.Unmarshal([]byte(raw), &tok); err == nil {
				return &tok, nil
			}
		}
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read token file: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("parse token file: %w", err)
	}
	return &tok, nil
}

// Save writes the token to the keyring, falling back to the file when
// no keyring is available.
func (s *TokenStore) Save(tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}

	if !s.disableKeyring {
		if err := keyring.Set(keyringService, keyringAccount, string(data)); err == nil {
			return nil
		}
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

// Clear removes the token from both the keyring and the file.
func (s *TokenStore) Clear() error {
	if !s.disableKeyring {
		_ = keyring.Delete(keyringService, keyringAccount)
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}
