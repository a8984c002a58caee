// Package auth supplies authenticated HTTP clients for the YouTube API.
//
// Two flows are provided. StoredTokenFlow is the unattended path: it loads a
// previously persisted token, refreshes it silently, and writes refreshed
// tokens back to disk. ConsentFlow is the one-time interactive path that
// obtains the initial token. The rest of the application only depends on the
// Provider interface.
package auth

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"stream-scheduler/internal/domain"
	"stream-scheduler/internal/logger"
)

// youtubeScope is the only scope this tool needs: manage live broadcasts
const youtubeScope = "https://www.googleapis.com/auth/youtube"

// Provider supplies an HTTP client whose requests carry a fresh access token
type Provider interface {
	Client(ctx context.Context) (*http.Client, error)
}

// newOAuthConfig builds the installed-application OAuth configuration
func newOAuthConfig(clientID, clientSecret string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
		Scopes:       []string{youtubeScope},
		Endpoint:     google.Endpoint,
	}
}

// StoredTokenFlow authenticates from a persisted token file without any
// user interaction. A missing file or a token without a refresh token is a
// fatal error: the operator must run the consent flow once.
type StoredTokenFlow struct {
	config    *oauth2.Config
	tokenPath string
	logger    *logger.Logger
}

// NewStoredTokenFlow creates a stored-token provider
func NewStoredTokenFlow(clientID, clientSecret, tokenPath string, log *logger.Logger) *StoredTokenFlow {
	return &StoredTokenFlow{
		config:    newOAuthConfig(clientID, clientSecret),
		tokenPath: tokenPath,
		logger:    log,
	}
}

// Client loads the stored token, validates that it can be refreshed, and
// returns an HTTP client that keeps the token fresh for the rest of the run
func (f *StoredTokenFlow) Client(ctx context.Context) (*http.Client, error) {
	tok, err := ReadTokenFile(f.tokenPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load stored token from %s: %w", f.tokenPath, err)
	}
	if tok.RefreshToken == "" {
		return nil, fmt.Errorf("%s: %w", f.tokenPath, domain.ErrMissingRefreshToken)
	}

	// Force a refresh attempt now so an invalid credential aborts the run
	// before any scheduling work starts
	src := f.config.TokenSource(ctx, tok)
	fresh, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh access token: %w", err)
	}

	persisting := &persistingTokenSource{
		src:       oauth2.ReuseTokenSource(fresh, src),
		tokenPath: f.tokenPath,
		last:      tok,
		logger:    f.logger,
	}
	persisting.persist(fresh)

	return oauth2.NewClient(ctx, persisting), nil
}

// persistingTokenSource writes refreshed tokens back to disk. The refresh
// response may omit the refresh token; the previously stored one is kept.
// The source is shared by every request goroutine in a run, so access to
// last is serialized.
type persistingTokenSource struct {
	src       oauth2.TokenSource
	tokenPath string
	logger    *logger.Logger

	mu   sync.Mutex
	last *oauth2.Token
}

func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := p.src.Token()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if tok.AccessToken != p.last.AccessToken {
		p.persistLocked(tok)
	}
	return tok, nil
}

func (p *persistingTokenSource) persist(tok *oauth2.Token) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.persistLocked(tok)
}

// persistLocked requires p.mu to be held
func (p *persistingTokenSource) persistLocked(tok *oauth2.Token) {
	merged := *tok
	if merged.RefreshToken == "" {
		merged.RefreshToken = p.last.RefreshToken
	}
	p.last = &merged

	if err := WriteTokenFile(p.tokenPath, &merged); err != nil {
		// Persisting is best effort: the in-memory token still works for
		// the remainder of this run
		p.logger.Warn("failed to persist refreshed token", map[string]interface{}{
			"path":  p.tokenPath,
			"error": err.Error(),
		})
	}
}

// ConsentFlow performs the one-time interactive authorization: it prints the
// consent URL, reads the authorization code, exchanges it, and stores the
// resulting token for later StoredTokenFlow runs.
type ConsentFlow struct {
	config    *oauth2.Config
	tokenPath string
	input     io.Reader
	output    io.Writer
}

// NewConsentFlow creates an interactive provider reading the code from input
func NewConsentFlow(clientID, clientSecret, tokenPath string, input io.Reader, output io.Writer) *ConsentFlow {
	return &ConsentFlow{
		config:    newOAuthConfig(clientID, clientSecret),
		tokenPath: tokenPath,
		input:     input,
		output:    output,
	}
}

// Client walks the user through the consent flow and returns an authorized client
func (f *ConsentFlow) Client(ctx context.Context) (*http.Client, error) {
	authURL := f.config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Fprintf(f.output, "Authorize this app by visiting:\n%s\n\nEnter the code from the page: ", authURL)

	code, err := bufio.NewReader(f.input).ReadString('\n')
	if err != nil && code == "" {
		return nil, fmt.Errorf("failed to read authorization code: %w", err)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("empty authorization code")
	}

	tok, err := f.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code for token: %w", err)
	}

	if err := WriteTokenFile(f.tokenPath, tok); err != nil {
		return nil, fmt.Errorf("failed to store token: %w", err)
	}
	fmt.Fprintf(f.output, "Token stored to %s\n", f.tokenPath)

	return oauth2.NewClient(ctx, f.config.TokenSource(ctx, tok)), nil
}

// ReadTokenFile loads an OAuth token from a JSON file
func ReadTokenFile(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("invalid token file: %w", err)
	}
	return &tok, nil
}

// WriteTokenFile persists an OAuth token as JSON, readable only by the owner
func WriteTokenFile(path string, tok *oauth2.Token) error {
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
