package google

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"

	"github.com/custodia-labs/pimsearch/internal/core/domain"
)

// Google API errors not covered by a domain error.
var (
	// ErrForbidden indicates insufficient permissions.
	ErrForbidden = errors.New("google: forbidden (insufficient permissions)")

	// ErrSyncTokenExpired indicates the sync token has expired (410 GONE).
	// The client should perform a full resync.
	ErrSyncTokenExpired = errors.New("google: sync token expired, full resync required")
)

func statusCode(err error) int {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code
	}
	return 0
}

// IsUnauthorized returns true if the error indicates invalid credentials.
func IsUnauthorized(err error) bool {
	return errors.Is(err, domain.ErrAuthRequired) || statusCode(err) == http.StatusUnauthorized
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound) || statusCode(err) == http.StatusNotFound
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	return errors.Is(err, domain.ErrRateLimited) || statusCode(err) == http.StatusTooManyRequests
}

// WrapError converts a Google API error into the matching domain error,
// keeping the original in the chain.
func WrapError(err error) error {
	if err == nil {
		return nil
	}

	switch statusCode(err) {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %w", domain.ErrAuthRequired, err)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %w", ErrForbidden, err)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
	case http.StatusGone:
		return fmt.Errorf("%w: %w", ErrSyncTokenExpired, err)
	default:
		return err
	}
}
