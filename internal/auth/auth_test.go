package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/mossridge/ytup/internal/shared"
)

func testConfig(tokenPath string) shared.YouTubeConfig {
	return shared.YouTubeConfig{
		ClientID:     "cid",
		ClientSecret: "secret",
		RedirectURI:  "http://localhost:8484/callback",
		TokenPath:    tokenPath,
	}
}

func TestNewFileProvider_MissingCredentials(t *testing.T) {
	_, err := NewFileProvider(shared.YouTubeConfig{})
	if !errors.Is(err, shared.ErrMissingCredentials) {
		t.Errorf("expected ErrMissingCredentials, got %v", err)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	p, err := NewFileProvider(testConfig(path))
	if err != nil {
		t.Fatal(err)
	}

	tok := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(time.Hour),
	}
	if err := p.SaveToken(tok); err != nil {
		t.Fatalf("SaveToken() error = %v", err)
	}

	loaded, err := p.Token()
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if loaded.AccessToken != "access" || loaded.RefreshToken != "refresh" {
		t.Errorf("token round trip lost data: %+v", loaded)
	}
}

func TestToken_Missing(t *testing.T) {
	p, err := NewFileProvider(testConfig(filepath.Join(t.TempDir(), "absent.json")))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := p.Token(); !errors.Is(err, shared.ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestClient_ExpiredWithoutRefreshToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	p, err := NewFileProvider(testConfig(path))
	if err != nil {
		t.Fatal(err)
	}

	expired := &oauth2.Token{AccessToken: "stale", Expiry: time.Now().Add(-time.Hour)}
	if err := p.SaveToken(expired); err != nil {
		t.Fatal(err)
	}

	if _, err := p.Client(context.Background()); !errors.Is(err, shared.ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestClient_ValidToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	p, err := NewFileProvider(testConfig(path))
	if err != nil {
		t.Fatal(err)
	}

	tok := &oauth2.Token{AccessToken: "live", Expiry: time.Now().Add(time.Hour)}
	if err := p.SaveToken(tok); err != nil {
		t.Fatal(err)
	}

	client, err := p.Client(context.Background())
	if err != nil {
		t.Fatalf("Client() error = %v", err)
	}
	if client == nil {
		t.Fatal("Client() returned nil client")
	}
}

func TestCallbackHandler_StateMismatch(t *testing.T) {
	conf := &oauth2.Config{}
	h := newCallbackHandler(conf, "expected-state")

	req := httptest.NewRequest(http.MethodGet, "/callback?state=wrong&code=abc", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}

	result := <-h.Result()
	if result.Error() == nil || !strings.Contains(result.Error().Error(), "state") {
		t.Errorf("expected state error, got %v", result.Error())
	}
}

func TestCallbackHandler_DeniedAuthorization(t *testing.T) {
	h := newCallbackHandler(&oauth2.Config{}, "s")

	req := httptest.NewRequest(http.MethodGet, "/callback?state=s&error=access_denied", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	result := <-h.Result()
	if result.Error() == nil || !strings.Contains(result.Error().Error(), "access_denied") {
		t.Errorf("expected access_denied error, got %v", result.Error())
	}
}

func TestCallbackHandler_Success(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"granted","token_type":"Bearer","refresh_token":"keep","expires_in":3600}`))
	}))
	defer tokenServer.Close()

	conf := &oauth2.Config{
		ClientID:     "cid",
		ClientSecret: "secret",
		Endpoint:     oauth2.Endpoint{TokenURL: tokenServer.URL},
	}
	h := newCallbackHandler(conf, "s")

	q := url.Values{"state": {"s"}, "code": {"authcode"}}
	req := httptest.NewRequest(http.MethodGet, "/callback?"+q.Encode(), nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	result := <-h.Result()
	if result.Error() != nil {
		t.Fatalf("callback error = %v", result.Error())
	}
	if result.Token.AccessToken != "granted" || result.Token.RefreshToken != "keep" {
		t.Errorf("unexpected token: %+v", result.Token)
	}
}

func TestCallbackHandler_SecondHitRejected(t *testing.T) {
	h := newCallbackHandler(&oauth2.Config{}, "s")

	first := httptest.NewRequest(http.MethodGet, "/callback?state=wrong", nil)
	h.ServeHTTP(httptest.NewRecorder(), first)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=s&code=x", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("second callback status = %d, want 400", rec.Code)
	}
}

func TestListenAddress(t *testing.T) {
	addr, path, err := listenAddress("http://localhost:8484/callback")
	if err != nil {
		t.Fatalf("listenAddress() error = %v", err)
	}
	if addr != "localhost:8484" || path != "/callback" {
		t.Errorf("addr = %q path = %q", addr, path)
	}

	if _, _, err := listenAddress("::bad::"); err == nil {
		t.Error("expected error for invalid redirect URI")
	}
}
