package handler_test

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GangaMannan/CustomsClearnace/internal/clearance"
	"github.com/GangaMannan/CustomsClearnace/internal/clearance/handler"
	"github.com/GangaMannan/CustomsClearnace/internal/docindex"
	"github.com/GangaMannan/CustomsClearnace/internal/docstore"
	"github.com/GangaMannan/CustomsClearnace/internal/identity"
	"github.com/GangaMannan/CustomsClearnace/internal/ledger"
	"github.com/GangaMannan/CustomsClearnace/internal/risk"
	"github.com/GangaMannan/CustomsClearnace/internal/submitters"
)

// newAuthedRouter builds a router with token enforcement on submissions
// and one registered submitter account.
func newAuthedRouter(t *testing.T) *gin.Engine {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	issuer := identity.NewTokenIssuer(key, "http://test", time.Hour)

	accounts := submitters.NewService(submitters.NewMemoryRepository(), issuer, zap.NewNop())
	if _, err := accounts.Register(context.Background(), "acme-exports", "correct horse battery"); err != nil {
		t.Fatalf("register account: %v", err)
	}

	svc := clearance.NewService(
		docstore.NewMemoryStore(),
		docindex.NewMemoryIndex(),
		ledger.New(),
		risk.NewEngine(0.7),
		1000,
		zap.NewNop(),
	)

	r := gin.New()
	api := r.Group("/api/v1")
	handler.NewDocumentHandler(svc, issuer, zap.NewNop()).Register(api)
	handler.NewAuthHandler(accounts, issuer, zap.NewNop()).Register(api)
	return r
}

func requestToken(t *testing.T, r *gin.Engine, name, secret string) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"name": name, "secret": secret})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestIssueToken_validCredentials(t *testing.T) {
	r := newAuthedRouter(t)

	rec := requestToken(t, r, "acme-exports", "correct horse battery")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var res struct {
		Token     string `json:"token"`
		ExpiresAt string `json:"expires_at"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if res.Token == "" || res.ExpiresAt == "" {
		t.Fatalf("incomplete response: %+v", res)
	}
}

func TestIssueToken_badCredentials401(t *testing.T) {
	r := newAuthedRouter(t)

	if rec := requestToken(t, r, "acme-exports", "wrong"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong secret status = %d", rec.Code)
	}
	if rec := requestToken(t, r, "nobody", "correct horse battery"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("unknown account status = %d", rec.Code)
	}
}

func TestSubmitDocument_requiresToken(t *testing.T) {
	r := newAuthedRouter(t)

	body, contentType := multipartSubmission(t, []byte("doc"), map[string]string{"declared_value": "900"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token status = %d, want 401", rec.Code)
	}
}

func TestSubmitDocument_recordsAuthenticatedSubmitter(t *testing.T) {
	r := newAuthedRouter(t)

	tokenRec := requestToken(t, r, "acme-exports", "correct horse battery")
	var tokenRes struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(tokenRec.Body.Bytes(), &tokenRes); err != nil {
		t.Fatalf("unmarshal token: %v", err)
	}

	body, contentType := multipartSubmission(t, []byte("authed doc"), map[string]string{"declared_value": "900"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+tokenRes.Token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var res clearance.SubmitResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	// The submitter name from the token must be on the ledger record.
	verifyReq := httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+res.Fingerprint.String(), nil)
	verifyRec := httptest.NewRecorder()
	r.ServeHTTP(verifyRec, verifyReq)
	if verifyRec.Code != http.StatusOK {
		t.Fatalf("verify status = %d", verifyRec.Code)
	}
	var vres clearance.VerifyResult
	if err := json.Unmarshal(verifyRec.Body.Bytes(), &vres); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if vres.Record.Submitter != "acme-exports" {
		t.Fatalf("submitter = %q, want acme-exports", vres.Record.Submitter)
	}
}

func TestPublicKey_served(t *testing.T) {
	r := newAuthedRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/key", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "BEGIN PUBLIC KEY") {
		t.Fatalf("body = %q", rec.Body.String())
	}
}
