package client_test

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
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
	"github.com/GangaMannan/CustomsClearnace/pkg/client"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestServer runs the full API against in-memory backends, counting
// requests so cache behaviour is observable.
func newTestServer(t *testing.T) (*httptest.Server, *atomic.Int64) {
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

	led := ledger.New()
	svc := clearance.NewService(
		docstore.NewMemoryStore(),
		docindex.NewMemoryIndex(),
		led,
		risk.NewEngine(0.7),
		1000,
		zap.NewNop(),
	)

	var hits atomic.Int64
	r := gin.New()
	r.Use(func(c *gin.Context) {
		hits.Add(1)
		c.Next()
	})
	api := r.Group("/api/v1")
	handler.NewDocumentHandler(svc, issuer, zap.NewNop()).Register(api)
	handler.NewLedgerHandler(led, risk.NewEngine(0.7), zap.NewNop()).Register(api)
	handler.NewAuthHandler(accounts, issuer, zap.NewNop()).Register(api)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestClient_submitVerifyFetchRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx := context.Background()

	c := client.MustNew(srv.URL, client.WithCredentials("acme-exports", "correct horse battery"))

	doc := []byte("commercial invoice for 120 pallets")
	res, err := c.Submit(ctx, doc, 650)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Channel != "RED" {
		t.Fatalf("channel = %s, want RED", res.Channel)
	}

	sum := sha256.Sum256(doc)
	if res.Fingerprint != hex.EncodeToString(sum[:]) {
		t.Fatal("fingerprint does not match local hash")
	}

	vres, err := c.Verify(ctx, res.Fingerprint, "")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if vres.Outcome != "VERIFIED" || vres.Record == nil || vres.Record.DeclaredValue != 650 {
		t.Fatalf("verify result = %+v", vres)
	}

	data, err := c.FetchContent(ctx, res.Fingerprint)
	if err != nil {
		t.Fatalf("fetch content: %v", err)
	}
	if !bytes.Equal(data, doc) {
		t.Fatal("fetched bytes differ from submitted document")
	}
}

func TestClient_verifyNotFoundIsNotError(t *testing.T) {
	srv, _ := newTestServer(t)

	c := client.MustNew(srv.URL)
	sum := sha256.Sum256([]byte("never anchored"))
	res, err := c.Verify(context.Background(), hex.EncodeToString(sum[:]), "")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if res.Outcome != "NOT_FOUND" {
		t.Fatalf("outcome = %s, want NOT_FOUND", res.Outcome)
	}
}

func TestClient_badCredentials(t *testing.T) {
	srv, _ := newTestServer(t)

	c := client.MustNew(srv.URL, client.WithCredentials("acme-exports", "wrong"))
	if _, err := c.Submit(context.Background(), []byte("doc"), 900); !errors.Is(err, client.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestClient_submitWithoutTokenRejected(t *testing.T) {
	srv, _ := newTestServer(t)

	c := client.MustNew(srv.URL)
	if _, err := c.Submit(context.Background(), []byte("doc"), 900); !errors.Is(err, client.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestClient_cachesVerifiedResults(t *testing.T) {
	srv, hits := newTestServer(t)
	ctx := context.Background()

	c := client.MustNew(srv.URL,
		client.WithCredentials("acme-exports", "correct horse battery"),
		client.WithCacheTTL(time.Minute),
	)

	res, err := c.Submit(ctx, []byte("cache me"), 900)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if _, err := c.Verify(ctx, res.Fingerprint, ""); err != nil {
		t.Fatalf("first verify: %v", err)
	}
	before := hits.Load()
	if _, err := c.Verify(ctx, res.Fingerprint, ""); err != nil {
		t.Fatalf("second verify: %v", err)
	}
	if hits.Load() != before {
		t.Fatal("second verify hit the server despite cache")
	}
}

func TestClient_fetchContentRejectsTamperedBytes(t *testing.T) {
	// A hostile gateway serving the wrong bytes must be caught locally.
	tampered := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/content") {
			w.Write([]byte("not the original document"))
			return
		}
		http.NotFound(w, r)
	}))
	defer tampered.Close()

	c := client.MustNew(tampered.URL)
	sum := sha256.Sum256([]byte("the original document"))
	if _, err := c.FetchContent(context.Background(), hex.EncodeToString(sum[:])); err == nil {
		t.Fatal("tampered content accepted")
	}
}

func TestClient_tokenReuse(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx := context.Background()

	c := client.MustNew(srv.URL, client.WithCredentials("acme-exports", "correct horse battery"))
	tok, err := c.FetchToken(ctx)
	if err != nil {
		t.Fatalf("fetch token: %v", err)
	}
	if tok == "" {
		t.Fatal("empty token")
	}

	// A second client using only the token can still anchor.
	c2 := client.MustNew(srv.URL, client.WithToken(tok))
	if _, err := c2.Submit(ctx, []byte("token reuse"), 900); err != nil {
		t.Fatalf("submit with reused token: %v", err)
	}
}

func TestClient_ledgerOverview(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx := context.Background()

	c := client.MustNew(srv.URL, client.WithCredentials("acme-exports", "correct horse battery"))
	if _, err := c.Submit(ctx, []byte("entry one"), 900); err != nil {
		t.Fatalf("submit: %v", err)
	}

	overview, err := c.Ledger(ctx)
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	if overview.Entries != 1 || overview.RiskThreshold != 0.7 {
		t.Fatalf("overview = %+v", overview)
	}

	sum := sha256.Sum256([]byte("entry one"))
	rec, err := c.LedgerRecord(ctx, hex.EncodeToString(sum[:]))
	if err != nil {
		t.Fatalf("ledger record: %v", err)
	}
	if rec.Status != "GREEN" || rec.Submitter != "acme-exports" {
		t.Fatalf("record = %+v", rec)
	}
}
