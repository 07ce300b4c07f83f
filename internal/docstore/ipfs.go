package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// IPFSStore stores documents on an IPFS node via its HTTP RPC (/api/v0).
// The locator is the CID returned by the add call; CIDv0 is pinned so the
// same bytes always yield the same locator across node versions.
type IPFSStore struct {
	apiURL     string
	gatewayURL string
	httpClient *http.Client
}

// NewIPFSStore creates an IPFSStore.
//
//	apiURL     — the node's RPC endpoint, e.g. "http://127.0.0.1:5001"
//	gatewayURL — public gateway base for receipt links, e.g. "https://ipfs.io";
//	             empty disables gateway URL rendering
func NewIPFSStore(apiURL, gatewayURL string, timeout time.Duration) *IPFSStore {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &IPFSStore{
		apiURL:     strings.TrimRight(apiURL, "/"),
		gatewayURL: strings.TrimRight(gatewayURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Store implements Store via POST /api/v0/add.
func (s *IPFSStore) Store(ctx context.Context, data []byte) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "document")
	if err != nil {
		return "", fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("build multipart body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("build multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL+"/api/v0/add?cid-version=0&pin=true", &body)
	if err != nil {
		return "", fmt.Errorf("build add request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: add returned %d: %s", ErrWriteRejected, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out struct {
		Hash string `json:"Hash"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode add response: %v", ErrUnavailable, err)
	}
	if out.Hash == "" {
		return "", fmt.Errorf("%w: add response missing Hash", ErrWriteRejected)
	}
	return out.Hash, nil
}

// Fetch implements Store via POST /api/v0/cat.
func (s *IPFSStore) Fetch(ctx context.Context, locator string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.apiURL+"/api/v0/cat?arg="+url.QueryEscape(locator), nil)
	if err != nil {
		return nil, fmt.Errorf("build cat request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusInternalServerError, http.StatusNotFound:
		// The IPFS RPC reports unknown or invalid CIDs as a 500 with an
		// error payload rather than a 404.
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: %s: %s", ErrNotFound, locator, strings.TrimSpace(string(msg)))
	default:
		return nil, fmt.Errorf("%w: cat returned %d", ErrUnavailable, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read cat response: %v", ErrUnavailable, err)
	}
	return data, nil
}

// Ping reports whether the node's RPC endpoint answers.
func (s *IPFSStore) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL+"/api/v0/version", nil)
	if err != nil {
		return fmt.Errorf("build version request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: version returned %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}

// GatewayURL implements GatewayURLer.
func (s *IPFSStore) GatewayURL(locator string) string {
	if s.gatewayURL == "" {
		return ""
	}
	return s.gatewayURL + "/ipfs/" + locator
}
