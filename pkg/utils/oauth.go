package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/NicoB77/ghi/internal/config"
)

const authTimeout = 5 * time.Minute

// Webex OAuth endpoints and the admin scopes needed to read and write the
// telephony configuration.
const (
	webexAuthURL  = "https://webexapis.com/v1/authorize"
	webexTokenURL = "https://webexapis.com/v1/access_token"

	ScopeTelephonyRead  = "spark-admin:telephony_config_read"
	ScopeTelephonyWrite = "spark-admin:telephony_config_write"
)

// Authority owns the Webex OAuth token lifecycle: it serves cached tokens,
// refreshes them with the stored refresh token, falls back to the full
// browser authorization flow, and persists every new token to the token
// file. It satisfies webexclient.Authenticator.
type Authority struct {
	oauthConfig *oauth2.Config
	tokenFile   string

	mu    sync.Mutex
	token *oauth2.Token
}

// NewAuthority builds the token authority from the Webex integration
// credentials. The redirect URI decides where the local callback server
// listens during the browser flow.
func NewAuthority(cfg *config.WebexConfig) *Authority {
	return &Authority{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       []string{ScopeTelephonyRead, ScopeTelephonyWrite},
			Endpoint: oauth2.Endpoint{
				AuthURL:  webexAuthURL,
				TokenURL: webexTokenURL,
			},
		},
		tokenFile: cfg.TokenFile,
	}
}

// Token returns a valid access token, loading the persisted one, refreshing
// it, or running the authorization flow as needed.
func (a *Authority) Token(ctx context.Context) (*oauth2.Token, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token == nil {
		if token, err := loadTokenFile(a.tokenFile); err == nil {
			a.token = token
		}
	}
	if a.token != nil && a.token.Valid() {
		return a.token, nil
	}
	return a.renewLocked(ctx)
}

// Refresh discards the current access token and obtains a new one. The API
// client calls this when the remote side rejects a token that still looked
// valid locally.
func (a *Authority) Refresh(ctx context.Context) (*oauth2.Token, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.renewLocked(ctx)
}

func (a *Authority) renewLocked(ctx context.Context) (*oauth2.Token, error) {
	if a.token != nil && a.token.RefreshToken != "" {
		refreshed, err := a.oauthConfig.TokenSource(ctx, &oauth2.Token{RefreshToken: a.token.RefreshToken}).Token()
		if err == nil {
			return a.storeLocked(refreshed)
		}
		// Refresh token rejected or expired; fall through to the full flow.
	}
	token, err := a.authorize(ctx)
	if err != nil {
		return nil, err
	}
	return a.storeLocked(token)
}

func (a *Authority) storeLocked(token *oauth2.Token) (*oauth2.Token, error) {
	a.token = token
	if err := saveTokenFile(a.tokenFile, token); err != nil {
		return nil, fmt.Errorf("failed to persist token: %w", err)
	}
	return token, nil
}

// authorize runs the interactive authorization flow: print the auth URL,
// wait for the browser redirect on a local callback server, exchange the
// code for a token.
func (a *Authority) authorize(ctx context.Context) (*oauth2.Token, error) {
	authURL := a.oauthConfig.AuthCodeURL("state", oauth2.AccessTypeOffline)
	fmt.Printf("\nVisit this URL to authorize the application:\n%s\n\n", authURL)

	code, err := a.listenForAuthCallback(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get authorization code: %w", err)
	}

	token, err := a.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code for token: %w", err)
	}
	return token, nil
}

// listenForAuthCallback serves the redirect URI until the authorization
// code arrives or the flow times out.
func (a *Authority) listenForAuthCallback(ctx context.Context) (string, error) {
	redirect, err := url.Parse(a.oauthConfig.RedirectURL)
	if err != nil {
		return "", fmt.Errorf("invalid redirect URI %q: %w", a.oauthConfig.RedirectURL, err)
	}

	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(redirect.Path, func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			errChan <- fmt.Errorf("no authorization code received")
			http.Error(w, "Authorization failed", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><body><h1>Authorization successful!</h1><p>You can close this window and return to the application.</p></body></html>")
		codeChan <- code
	})
	server := &http.Server{Addr: redirect.Host, Handler: mux}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("callback server error: %w", err)
		}
	}()

	timeoutCtx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	var code string
	var authErr error
	select {
	case code = <-codeChan:
	case authErr = <-errChan:
	case <-timeoutCtx.Done():
		authErr = fmt.Errorf("authorization timeout after %v", authTimeout)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)

	if authErr != nil {
		return "", authErr
	}
	return code, nil
}

func loadTokenFile(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token file %s: %w", path, err)
	}
	return &token, nil
}

func saveTokenFile(path string, token *oauth2.Token) error {
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return err
	}
	// The file holds credentials; keep it private to the user.
	return os.WriteFile(path, data, 0600)
}
