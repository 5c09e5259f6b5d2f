package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"

	"github.com/custodia-labs/pimsearch/internal/core/domain"
	"github.com/custodia-labs/pimsearch/internal/logger"
)

// Endpoint is Google's OAuth2 endpoint.
var Endpoint = oauth2.Endpoint{
	AuthURL:   "https://accounts.google.com/o/oauth2/auth",
	TokenURL:  "https://oauth2.googleapis.com/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

// OAuthConfig builds the OAuth2 client configuration for read-only calendar access.
func OAuthConfig(settings domain.GoogleSettings, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     settings.ClientID,
		ClientSecret: settings.ClientSecret,
		Endpoint:     Endpoint,
		RedirectURL:  redirectURL,
		Scopes:       []string{calendar.CalendarReadonlyScope},
	}
}

// LoadToken reads a token saved by SaveToken.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: no token at %s", domain.ErrAuthRequired, path)
		}
		return nil, fmt.Errorf("reading token: %w", err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("parsing token %s: %w", path, err)
	}
	return &tok, nil
}

// SaveToken writes tok to path with owner-only permissions.
func SaveToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing token: %w", err)
	}
	return nil
}

// NewTokenSource returns a token source that refreshes the saved token and
// writes refreshed tokens back to the token file.
func NewTokenSource(ctx context.Context, settings domain.GoogleSettings) (oauth2.TokenSource, error) {
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: google.client_id, google.client_secret and google.token_file must be set",
			domain.ErrAuthRequired)
	}

	tok, err := LoadToken(settings.TokenFile)
	if err != nil {
		return nil, err
	}

	base := OAuthConfig(settings, "").TokenSource(ctx, tok)
	return &persistingTokenSource{base: base, path: settings.TokenFile, last: tok.AccessToken}, nil
}

// persistingTokenSource saves every newly issued access token.
type persistingTokenSource struct {
	mu   sync.Mutex
	base oauth2.TokenSource
	path string
	last string
}

// Token implements oauth2.TokenSource.
func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: refreshing token: %w", domain.ErrAuthRequired, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if tok.AccessToken != p.last {
		if err := SaveToken(p.path, tok); err != nil {
			logger.Warn("Could not persist refreshed token: %v", err)
		} else {
			p.last = tok.AccessToken
		}
	}
	return tok, nil
}
