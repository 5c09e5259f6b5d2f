package oauth

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/pimsearch/internal/logger"
)

// Callback ports tried in order. Google desktop clients accept any loopback port.
const (
	callbackPortStart = 18080
	callbackPortEnd   = 18099
)

// DefaultLoginTimeout bounds how long Authorize waits for the browser.
const DefaultLoginTimeout = 5 * time.Minute

// LoginOptions tunes Authorize.
type LoginOptions struct {
	// Out receives the authorization URL.
	Out io.Writer

	// OpenBrowser opens the URL. Nil leaves it to the user.
	OpenBrowser func(url string) error

	// Timeout bounds the wait for the callback. Zero means DefaultLoginTimeout.
	Timeout time.Duration
}

// Authorize runs the authorization code flow with PKCE against cfg and
// returns the issued token. cfg.RedirectURL is set to the local callback.
func Authorize(ctx context.Context, cfg *oauth2.Config, opts LoginOptions) (*oauth2.Token, error) {
	port, err := FindAvailablePort(callbackPortStart, callbackPortEnd)
	if err != nil {
		return nil, err
	}

	state := uuid.NewString()
	server := NewCallbackServer(port, state)
	if err := server.Start(); err != nil {
		return nil, err
	}
	defer func() {
		if err := server.Stop(); err != nil {
			logger.Warn("Stopping callback server: %v", err)
		}
	}()

	cfg.RedirectURL = server.RedirectURI()
	verifier := oauth2.GenerateVerifier()
	authURL := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Open this URL to authorize calendar access:\n\n  %s\n\n", authURL)
	}
	if opts.OpenBrowser != nil {
		if err := opts.OpenBrowser(authURL); err != nil {
			logger.Debug("Could not open browser: %v", err)
		}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultLoginTimeout
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	code, err := server.WaitForCode(waitCtx)
	if err != nil {
		return nil, err
	}

	tok, err := cfg.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}
	return tok, nil
}
