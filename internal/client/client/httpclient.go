package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/glueauth/internal/common"
	"github.com/dmitrijs2005/glueauth/internal/zkp"
)

// HTTPClient talks to the GlueAuth JSON API. The session token cookie set by
// a successful login is kept in the client's cookie jar.
type HTTPClient struct {
	baseURL    *url.URL
	httpClient *http.Client
	jar        http.CookieJar
}

// Option configures the HTTP client.
type Option func(*HTTPClient)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		c.httpClient.Timeout = d
	}
}

// WithTransport replaces the underlying round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *HTTPClient) {
		c.httpClient.Transport = rt
	}
}

// NewHTTPClient creates a client for the API rooted at baseURL, for example
// "http://127.0.0.1:3000/api".
func NewHTTPClient(baseURL string, opts ...Option) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server URL %q: scheme must be http or https", baseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	c := &HTTPClient{
		baseURL:    u,
		jar:        jar,
		httpClient: &http.Client{Jar: jar, Timeout: 30 * time.Second},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func (c *HTTPClient) KeyExchange(ctx context.Context, clientPublicKey string) (*KeyExchangeResult, error) {
	var res KeyExchangeResult
	body := map[string]string{"clientPublicKey": clientPublicKey}
	if err := c.do(ctx, http.MethodPost, "/keyexchange", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *HTTPClient) Register(ctx context.Context, req *RegisterRequest) error {
	return c.do(ctx, http.MethodPost, "/zkp/auth/register", req, nil)
}

// SubmitProof posts a login proof. On success the server's token cookie is
// stored in the jar.
func (c *HTTPClient) SubmitProof(ctx context.Context, proof *zkp.Proof, sessionID string) error {
	body := struct {
		ZKP       *zkp.Proof `json:"zkp"`
		SessionID string     `json:"sessionID"`
	}{ZKP: proof, SessionID: sessionID}
	return c.do(ctx, http.MethodPost, "/zkp/auth/proof", body, nil)
}

// Members returns the registered commitments in registration order.
func (c *HTTPClient) Members(ctx context.Context) ([]string, error) {
	var res struct {
		Response []string `json:"response"`
	}
	if err := c.do(ctx, http.MethodGet, "/zkp/members", nil, &res); err != nil {
		return nil, err
	}
	return res.Response, nil
}

func (c *HTTPClient) Root(ctx context.Context) (string, int, error) {
	var res struct {
		Root string `json:"root"`
		Size int    `json:"size"`
	}
	if err := c.do(ctx, http.MethodGet, "/zkp/root", nil, &res); err != nil {
		return "", 0, err
	}
	return res.Root, res.Size, nil
}

// CheckSession asks the server whether the stored token is still valid.
func (c *HTTPClient) CheckSession(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/zkp/auth/session", nil, nil)
}

// Ping reports ErrUnavailable when the server cannot be reached.
func (c *HTTPClient) Ping(ctx context.Context) error {
	_, _, err := c.Root(ctx)
	return err
}

// HasSession reports whether a token cookie is held for the server.
func (c *HTTPClient) HasSession() bool {
	for _, ck := range c.jar.Cookies(c.baseURL) {
		if ck.Name == common.TokenCookieName && ck.Value != "" {
			return true
		}
	}
	return false
}

// Logout drops the token cookie.
func (c *HTTPClient) Logout() {
	root := *c.baseURL
	root.Path = "/"
	expired := &http.Cookie{Name: common.TokenCookieName, Path: "/", MaxAge: -1}
	c.jar.SetCookies(&root, []*http.Cookie{expired})
	if p := c.baseURL.Path; p != "" {
		c.jar.SetCookies(c.baseURL, []*http.Cookie{{Name: common.TokenCookieName, Path: p, MaxAge: -1}})
	}
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return parseErrorResponse(resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

func parseErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var errResp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &Error{StatusCode: resp.StatusCode, Message: errResp.Error}
	}

	return &Error{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
}
