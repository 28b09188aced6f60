package google

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newFileStore(t *testing.T) *TokenStore {
	t.Helper()
	s := NewTokenStore(filepath.Join(t.TempDir(), "token.json"))
	s.disableKeyring = true
	return s
}

func TestTokenStoreRoundTrip(t *testing.T) {
	s := newFileStore(t)

	tok := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour).Truncate(time.Second),
	}
	require.NoError(t, s.Save(tok))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, tok.AccessToken, got.AccessToken)
	assert.Equal(t, tok.RefreshToken, got.RefreshToken)
	assert.Equal(t, tok.TokenType, got.TokenType)
}

func TestTokenStoreLoadMissing(t *testing.T) {
	s := newFileStore(t)

	_, err := s.Load()
	require.Error(t, err)
}

func TestTokenStoreClear(t *testing.T) {
	s := newFileStore(t)

	require.NoError(t, s.Save(&oauth2.Token{AccessToken: "a"}))
	require.NoError(t, s.Clear())

	_, err := s.Load()
	assert.Error(t, err)

	// Clearing an already-empty store is not an error.
	assert.NoError(t, s.Clear())
}

func TestAuthenticatorMissingCredentials(t *testing.T) {
	dir := t.TempDir()
	a := NewAuthenticator(filepath.Join(dir, "credentials.json"), filepath.Join(dir, "token.json"))
	a.store.disableKeyring = true

	_, err := a.AuthURL()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credentials file not found")
}

func TestAuthenticatorHasToken(t *testing.T) {
	dir := t.TempDir()
	a := NewAuthenticator(filepath.Join(dir, "credentials.json"), filepath.Join(dir, "token.json"))
	a.store.disableKeyring = true

	assert.False(t, a.HasToken())
	require.NoError(t, a.store.Save(&oauth2.Token{AccessToken: "a"}))
	assert.True(t, a.HasToken())
}

type staticTokenSource struct {
	tok *oauth2.Token
}

func (s staticTokenSource) Token() (*oauth2.Token, error) { return s.tok, nil }

func TestSavingTokenSourcePersistsRefreshedToken(t *testing.T) {
	store := newFileStore(t)
	require.NoError(t, store.Save(&oauth2.Token{AccessToken: "old"}))

	refreshed := &oauth2.Token{AccessToken: "new", RefreshToken: "r"}
	src := &savingTokenSource{
		src:   staticTokenSource{tok: refreshed},
		store: store,
		last:  &oauth2.Token{AccessToken: "old"},
	}

	got, err := src.Token()
	require.NoError(t, err)
	assert.Equal(t, "new", got.AccessToken)

	stored, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "new", stored.AccessToken)
}
