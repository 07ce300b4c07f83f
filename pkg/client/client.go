// Package client provides the CleanChain Go SDK for anchoring trade
// documents and verifying them against the clearance service.
package client

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// ErrUnauthorized is returned when the service rejects the client's
// credentials or submitter token.
var ErrUnauthorized = errors.New("unauthorized")

// SubmitResult is the anchoring receipt returned by the service.
type SubmitResult struct {
	Fingerprint string  `json:"fingerprint"`
	Locator     string  `json:"locator"`
	GatewayURL  string  `json:"gateway_url,omitempty"`
	Channel     string  `json:"channel"`
	Receipt     Receipt `json:"receipt"`
}

// Receipt proves the ledger commit.
type Receipt struct {
	ID         string    `json:"id"`
	RecordedAt time.Time `json:"recorded_at"`
	Reused     bool      `json:"reused"`
}

// LedgerRecord is the immutable ledger row for a fingerprint.
type LedgerRecord struct {
	Fingerprint     string    `json:"fingerprint"`
	DeclaredValue   int64     `json:"declared_value"`
	MarketReference int64     `json:"market_reference"`
	Status          string    `json:"status"`
	Submitter       string    `json:"submitter,omitempty"`
	RecordedAt      time.Time `json:"recorded_at"`
}

// VerifyResult is the outcome of a verification run.
type VerifyResult struct {
	Outcome    string        `json:"outcome"`
	Record     *LedgerRecord `json:"record,omitempty"`
	Locator    string        `json:"locator,omitempty"`
	GatewayURL string        `json:"gateway_url,omitempty"`
	Channel    string        `json:"channel,omitempty"`
	Detail     string        `json:"detail,omitempty"`
}

// LedgerOverview summarises the ledger state.
type LedgerOverview struct {
	Entries       int     `json:"entries"`
	RiskThreshold float64 `json:"risk_threshold"`
}

// Client is the CleanChain SDK entry point.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *verifyCache

	// credential state, guarded by mu
	mu          sync.Mutex
	name        string
	secret      string
	bearerToken string
	tokenExpiry time.Time // zero = token was set manually (no auto-refresh)
}

// Option is a functional option for configuring a Client.
type Option func(*Client) error

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		c.httpClient = hc
		return nil
	}
}

// WithCacheTTL enables in-memory caching of verification results with
// the given TTL. Only fully verified outcomes are cached; negative
// outcomes always hit the service.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) error {
		c.cache = newVerifyCache(ttl)
		return nil
	}
}

// WithToken attaches a pre-obtained submitter token to every request.
// The token is treated as long-lived and will not be auto-refreshed.
func WithToken(token string) Option {
	return func(c *Client) error {
		c.bearerToken = token
		c.tokenExpiry = time.Time{}
		return nil
	}
}

// WithCredentials configures submitter name/secret authentication.
// Tokens are exchanged on demand and refreshed before expiry.
func WithCredentials(name, secret string) Option {
	return func(c *Client) error {
		c.name = name
		c.secret = secret
		return nil
	}
}

// New creates a CleanChain SDK Client connected to baseURL.
//
//	c, err := client.New("https://clearance.example.com",
//	    client.WithCredentials("acme-exports", secret),
//	    client.WithCacheTTL(60*time.Second),
//	)
func New(baseURL string, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		if err := o(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MustNew is like New but panics on error. Useful in tests and program init.
func MustNew(baseURL string, opts ...Option) *Client {
	c, err := New(baseURL, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Submit anchors a document with its declared value. The clearance
// channel is decided against the service's configured market reference.
func (c *Client) Submit(ctx context.Context, document []byte, declaredValue int64) (*SubmitResult, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fw, err := w.CreateFormFile("document", "document")
	if err != nil {
		return nil, fmt.Errorf("build multipart: %w", err)
	}
	if _, err := fw.Write(document); err != nil {
		return nil, fmt.Errorf("build multipart: %w", err)
	}
	if err := w.WriteField("declared_value", strconv.FormatInt(declaredValue, 10)); err != nil {
		return nil, fmt.Errorf("build multipart: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("build multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/documents", &buf)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	token, err := c.ensureToken(ctx)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var result SubmitResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &result, nil
}

// Verify checks a fingerprint against the ledger and content store.
// locatorOverride may be empty; when set, it is used if the service's
// index has no locator for the fingerprint.
func (c *Client) Verify(ctx context.Context, fingerprintHex, locatorOverride string) (*VerifyResult, error) {
	cacheKey := fingerprintHex + "|" + locatorOverride
	if c.cache != nil {
		if result, ok := c.cache.get(cacheKey); ok {
			return result, nil
		}
	}

	url := c.baseURL + "/api/v1/documents/" + fingerprintHex
	if locatorOverride != "" {
		url += "?locator=" + locatorOverride
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	// 404 carries a NOT_FOUND verification body, not an error.
	status, body, err := c.doStatusBody(req)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK && status != http.StatusNotFound {
		return nil, statusError(status, body)
	}

	var result VerifyResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if c.cache != nil && result.Outcome == "VERIFIED" {
		c.cache.set(cacheKey, &result)
	}
	return &result, nil
}

// FetchContent retrieves the original document bytes for a verified
// fingerprint and re-checks the hash locally before returning them.
func (c *Client) FetchContent(ctx context.Context, fingerprintHex string) ([]byte, error) {
	url := c.baseURL + "/api/v1/documents/" + fingerprintHex + "/content"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	data, err := c.do(req)
	if err != nil {
		return nil, err
	}

	// Trust nothing over the wire: the bytes must hash back to the
	// fingerprint that was asked for.
	sum := sha256.Sum256(data)
	if hex.EncodeToString(sum[:]) != fingerprintHex {
		return nil, fmt.Errorf("content integrity check failed: served bytes do not match fingerprint %s", fingerprintHex)
	}
	return data, nil
}

// Ledger fetches the ledger overview.
func (c *Client) Ledger(ctx context.Context) (*LedgerOverview, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/ledger", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var result LedgerOverview
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &result, nil
}

// LedgerRecord fetches the raw ledger record for a fingerprint without
// resolving or fetching the document bytes.
func (c *Client) LedgerRecord(ctx context.Context, fingerprintHex string) (*LedgerRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/ledger/"+fingerprintHex, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var result LedgerRecord
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &result, nil
}

// FetchToken exchanges the configured credentials for a submitter token,
// caches it, and returns it. Requires WithCredentials.
func (c *Client) FetchToken(ctx context.Context) (string, error) {
	token, expiry, err := c.fetchTokenRaw(ctx)
	if err != nil {
		return "", err
	}
	c.mu.Lock()
	c.bearerToken = token
	c.tokenExpiry = expiry
	c.mu.Unlock()
	return token, nil
}

// fetchTokenRaw fetches a fresh token without touching cached state.
func (c *Client) fetchTokenRaw(ctx context.Context) (string, time.Time, error) {
	payload, _ := json.Marshal(map[string]string{"name": c.name, "secret": c.secret})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/auth/token", bytes.NewReader(payload))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return "", time.Time{}, ErrUnauthorized
	}
	if resp.StatusCode >= 300 {
		return "", time.Time{}, fmt.Errorf("token endpoint error %d: %s", resp.StatusCode, string(body))
	}

	var out struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", time.Time{}, fmt.Errorf("decode token response: %w", err)
	}

	// Refresh 60 s before actual expiry to avoid clock-skew failures.
	return out.Token, out.ExpiresAt.Add(-60 * time.Second), nil
}

// ensureToken returns a valid token, fetching a new one if the cached
// token is absent or approaching expiry. Returns "" when the client has
// neither a token nor credentials (open/dev deployments). Thread-safe.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.bearerToken != "" && (c.tokenExpiry.IsZero() || time.Now().Before(c.tokenExpiry)) {
		return c.bearerToken, nil
	}
	if c.name == "" {
		return "", nil
	}

	token, expiry, err := c.fetchTokenRaw(ctx)
	if err != nil {
		return "", err
	}
	c.bearerToken = token
	c.tokenExpiry = expiry
	return token, nil
}

// do executes the request and returns the response body, treating any
// non-2xx status as an error.
func (c *Client) do(req *http.Request) ([]byte, error) {
	status, body, err := c.doStatusBody(req)
	if err != nil {
		return nil, err
	}
	if status >= 300 {
		return nil, statusError(status, body)
	}
	return body, nil
}

func (c *Client) doStatusBody(req *http.Request) (int, []byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func statusError(status int, body []byte) error {
	if status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		return fmt.Errorf("server error %d: %s", status, payload.Error)
	}
	return fmt.Errorf("server error %d: %s", status, string(body))
}

// --- simple in-memory verification cache ---

type cacheEntry struct {
	result    *VerifyResult
	expiresAt time.Time
}

type verifyCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	ttl     time.Duration
}

func newVerifyCache(ttl time.Duration) *verifyCache {
	return &verifyCache{entries: make(map[string]*cacheEntry), ttl: ttl}
}

func (vc *verifyCache) get(key string) (*VerifyResult, bool) {
	vc.mu.Lock()
	defer vc.mu.Unlock()
	e, ok := vc.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		delete(vc.entries, key)
		return nil, false
	}
	return e.result, true
}

func (vc *verifyCache) set(key string, result *VerifyResult) {
	vc.mu.Lock()
	defer vc.mu.Unlock()
	vc.entries[key] = &cacheEntry{result: result, expiresAt: time.Now().Add(vc.ttl)}
}
