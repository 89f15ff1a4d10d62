// package auth provides OAuth2 credential acquisition for the YouTube Data API.
//
// The orchestrator core never sees tokens; it receives an *http.Client that
// injects and refreshes credentials transparently.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/mossridge/ytup/internal/shared"
)

const (
	googleAuthURL  = "https://accounts.google.com/o/oauth2/auth"
	googleTokenURL = "https://oauth2.googleapis.com/token"
)

// Scopes required for uploading videos and managing playlists/captions.
var Scopes = []string{
	"https://www.googleapis.com/auth/youtube",
	"https://www.googleapis.com/auth/youtube.upload",
}

// Provider supplies an authenticated HTTP client to the service layer.
type Provider interface {
	Client(ctx context.Context) (*http.Client, error)
}

// FileProvider implements Provider with a JSON token cache on disk.
// Expired access tokens are refreshed via the embedded refresh token and the
// refreshed token is written back to the cache.
type FileProvider struct {
	conf      *oauth2.Config
	tokenPath string
	mu        sync.Mutex
}

// NewFileProvider builds a FileProvider from the YouTube credentials config.
func NewFileProvider(cfg shared.YouTubeConfig) (*FileProvider, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: youtube client_id and client_secret are required", shared.ErrMissingCredentials)
	}

	tokenPath := cfg.TokenPath
	if tokenPath == "" {
		tokenPath = "token.json"
	}

	return &FileProvider{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  googleAuthURL,
				TokenURL: googleTokenURL,
			},
		},
		tokenPath: tokenPath,
	}, nil
}

// Token loads the cached token from disk.
func (p *FileProvider) Token() (*oauth2.Token, error) {
	var tok oauth2.Token
	if err := shared.ReadJSON(p.tokenPath, &tok); err != nil {
		return nil, fmt.Errorf("%w: no usable token at %s", shared.ErrNotAuthenticated, p.tokenPath)
	}
	return &tok, nil
}

// SaveToken persists a token to the cache file atomically.
func (p *FileProvider) SaveToken(tok *oauth2.Token) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := shared.AtomicWriteJSON(p.tokenPath, tok); err != nil {
		return fmt.Errorf("failed to persist token: %w", err)
	}
	return nil
}

// Client returns an *http.Client that injects the cached credentials and
// persists any refreshed token back to disk.
func (p *FileProvider) Client(ctx context.Context) (*http.Client, error) {
	tok, err := p.Token()
	if err != nil {
		return nil, err
	}
	if !tok.Valid() && tok.RefreshToken == "" {
		return nil, fmt.Errorf("%w: cached token expired and has no refresh token", shared.ErrTokenExpired)
	}

	src := p.conf.TokenSource(ctx, tok)
	return oauth2.NewClient(ctx, &savingSource{provider: p, src: src, last: tok}), nil
}

// savingSource wraps a TokenSource and writes refreshed tokens through to the
// provider's cache file.
type savingSource struct {
	provider *FileProvider
	src      oauth2.TokenSource
	mu       sync.Mutex
	last     *oauth2.Token
}

func (s *savingSource) Token() (*oauth2.Token, error) {
	tok, err := s.src.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil || tok.AccessToken != s.last.AccessToken {
		s.last = tok
		if err := s.provider.SaveToken(tok); err != nil {
			return nil, err
		}
	}
	return tok, nil
}

// Authorize runs the interactive authorization-code flow: it prints the
// consent URL, listens on the redirect address for the one-shot callback,
// exchanges the code and caches the resulting token.
//
// The notify callback receives the consent URL for display.
func (p *FileProvider) Authorize(ctx context.Context, notify func(authURL string)) error {
	state := shared.GenerateID()
	handler := newCallbackHandler(p.conf, state)

	addr, path, err := listenAddress(p.conf.RedirectURL)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle(path, handler)
	server := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	authURL := p.conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	if notify != nil {
		notify(authURL)
	}

	select {
	case result := <-handler.Result():
		if result.Error() != nil {
			return fmt.Errorf("%w: %v", shared.ErrAuthFailed, result.Error())
		}
		return p.SaveToken(result.Token)
	case err := <-errCh:
		return fmt.Errorf("%w: callback server failed: %v", shared.ErrAuthFailed, err)
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, ctx.Err())
	}
}

// listenAddress derives the listen address and callback path from the
// configured redirect URI.
func listenAddress(redirect string) (addr, path string, err error) {
	u, err := url.Parse(redirect)
	if err != nil || u.Host == "" {
		return "", "", fmt.Errorf("%w: invalid redirect_uri %q", shared.ErrInvalidConfig, redirect)
	}
	path = u.Path
	if path == "" {
		path = "/"
	}
	return u.Host, path, nil
}
