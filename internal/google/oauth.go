package google

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	sheets "google.golang.org/api/sheets/v4"
)

// Scopes required by the tool: read-only Gmail plus read/write Sheets.
var scopes = []string{
	gmail.GmailReadonlyScope,
	sheets.SpreadsheetsScope,
}

// Authenticator manages the OAuth2 flow for the Google APIs. Client
// secrets come from a downloaded credentials.json; the resulting token
// is stored in the OS keyring with a file fallback.
type Authenticator struct {
	credentialsPath string
	store           *TokenStore
}

// NewAuthenticator creates an Authenticator using the given
// credentials.json path and token storage path.
func NewAuthenticator(credentialsPath, tokenPath string) *Authenticator {
	return &Authenticator{
		credentialsPath: credentialsPath,
		store:           NewTokenStore(tokenPath),
	}
}

// config parses credentials.json into an OAuth2 config.
func (a *Authenticator) config() (*oauth2.Config, error) {
	b, err := os.ReadFile(a.credentialsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("credentials file not found: %s (download OAuth client credentials from the Google Cloud console)", a.credentialsPath)
		}
		return nil, fmt.Errorf("read client secret file: %w", err)
	}
	conf, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse client secret file: %w", err)
	}
	return conf, nil
}

// HasToken reports whether a stored token exists.
func (a *Authenticator) HasToken() bool {
	_, err := a.store.Load()
	return err == nil
}

// AuthURL returns the URL the user must visit to authorize access.
func (a *Authenticator) AuthURL() (string, error) {
	conf, err := a.config()
	if err != nil {
		return "", err
	}
	return conf.AuthCodeURL("state-token", oauth2.AccessTypeOffline), nil
}

// Exchange trades an authorization code for a token and stores it.
func (a *Authenticator) Exchange(ctx context.Context, authCode string) error {
	conf, err := a.config()
	if err != nil {
		return err
	}
	tok, err := conf.Exchange(ctx, authCode)
	if err != nil {
		return fmt.Errorf("exchange auth code: %w", err)
	}
	if err := a.store.Save(tok); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// ClearToken removes the stored token.
func (a *Authenticator) ClearToken() error {
	return a.store.Clear()
}

// HTTPClient returns an HTTP client that attaches the stored OAuth
// token to every request. Expired tokens are refreshed transparently
// and the refreshed token is written back to the store.
func (a *Authenticator) HTTPClient(ctx context.Context) (*http.Client, error) {
	conf, err := a.config()
	if err != nil {
		return nil, err
	}
	tok, err := a.store.Load()
	if err != nil {
		return nil, fmt.Errorf("no stored Google OAuth token: %w (run the auth command first)", err)
	}

	src := &savingTokenSource{
		src:   conf.TokenSource(ctx, tok),
		store: a.store,
		last:  tok,
	}
	return oauth2.NewClient(ctx, src), nil
}

// savingTokenSource persists tokens back to the store whenever the
// underlying source refreshes them, so the next run skips the refresh.
type savingTokenSource struct {
	src   oauth2.TokenSource
	store *TokenStore
	last  *oauth2.Token
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	if s.last == nil || tok.AccessToken != s.last.AccessToken {
		// Best effort: a failed save only costs a refresh next run.
		_ = s.store.Save(tok)
		s.last = tok
	}
	return tok, nil
}
