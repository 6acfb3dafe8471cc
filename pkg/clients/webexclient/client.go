package webexclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// DefaultBaseURL is the Webex telephony configuration API root.
const DefaultBaseURL = "https://webexapis.com/v1/telephony/config"

// ErrTransport marks any non-success HTTP response from the remote API.
var ErrTransport = errors.New("webex api request failed")

// Authenticator supplies bearer tokens for the Webex API and renews them
// when the remote side signals an expired credential.
type Authenticator interface {
	Token(ctx context.Context) (*oauth2.Token, error)
	Refresh(ctx context.Context) (*oauth2.Token, error)
}

// Client is an authenticated JSON client for the Webex telephony config
// API. Exactly one 401 response per call is retried after forcing a token
// refresh; every other failure propagates to the caller.
type Client struct {
	baseURL string
	http    *http.Client
	auth    Authenticator
	logger  *zap.Logger
}

// NewClient creates a client against the production Webex API.
func NewClient(auth Authenticator, logger *zap.Logger) *Client {
	return NewClientWithBaseURL(DefaultBaseURL, auth, logger)
}

// NewClientWithBaseURL creates a client against a custom API root.
func NewClientWithBaseURL(baseURL string, auth Authenticator, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{},
		auth:    auth,
		logger:  logger,
	}
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to encode %s %s body: %w", method, path, err)
		}
	}

	token, err := c.auth.Token(ctx)
	if err != nil {
		return fmt.Errorf("failed to get access token: %w", err)
	}

	resp, err := c.send(ctx, method, path, payload, token)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		c.logger.Debug("Access token rejected, re-authenticating once", zap.String("path", path))
		if token, err = c.auth.Refresh(ctx); err != nil {
			return fmt.Errorf("failed to refresh access token: %w", err)
		}
		if resp, err = c.send(ctx, method, path, payload, token); err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s %s returned %d: %s", ErrTransport, method, path, resp.StatusCode, bytes.TrimSpace(detail))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, token *oauth2.Token) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s %s request: %w", method, path, err)
	}
	token.SetAuthHeader(req)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrTransport, method, path, err)
	}
	return resp, nil
}
