package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Common domain errors
var (
	// ErrNoChannel is returned when the authenticated account has no channel
	ErrNoChannel = errors.New("no channel found for this account")

	// ErrChannelMismatch is returned when the authenticated channel is not
	// the configured expected channel
	ErrChannelMismatch = errors.New("unauthorized channel")

	// ErrMissingStreamID is returned when a request has no target stream ID
	ErrMissingStreamID = errors.New("missing persistent stream ID")

	// ErrMissingRefreshToken is returned when the stored token cannot be
	// silently refreshed
	ErrMissingRefreshToken = errors.New("stored token has no refresh token, reauthorize")
)

// APIError carries the upstream HTTP status code so an operator can tell a
// quota or server failure (worth a rerun) from an auth failure (needs reauth).
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("youtube api returned status %d: %s", e.StatusCode, e.Message)
}

// NeedsReauth reports whether the error cannot be recovered without
// re-authorizing the account.
func (e *APIError) NeedsReauth() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}
