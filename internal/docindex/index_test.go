package docindex_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/GangaMannan/CustomsClearnace/internal/docindex"
	"github.com/GangaMannan/CustomsClearnace/internal/fingerprint"
)

func testIndexes(t *testing.T) map[string]docindex.Index {
	t.Helper()
	fi, err := docindex.NewFileIndex(filepath.Join(t.TempDir(), "index.jsonl"))
	if err != nil {
		t.Fatalf("new file index: %v", err)
	}
	t.Cleanup(func() { fi.Close() })
	return map[string]docindex.Index{
		"memory": docindex.NewMemoryIndex(),
		"file":   fi,
	}
}

func TestIndex_putGet(t *testing.T) {
	for name, idx := range testIndexes(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			fp := fingerprint.New([]byte("doc A"))

			if err := idx.Put(ctx, fp, "QmLocatorA"); err != nil {
				t.Fatalf("put: %v", err)
			}
			locator, ok, err := idx.Get(ctx, fp)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if !ok || locator != "QmLocatorA" {
				t.Fatalf("get = (%q, %v), want (QmLocatorA, true)", locator, ok)
			}
		})
	}
}

func TestIndex_missingKeyIsNotAnError(t *testing.T) {
	for name, idx := range testIndexes(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := idx.Get(context.Background(), fingerprint.New([]byte("never put")))
			if err != nil {
				t.Fatalf("get of missing key errored: %v", err)
			}
			if ok {
				t.Fatal("get of missing key reported present")
			}
		})
	}
}

func TestIndex_samePairIsNoOp(t *testing.T) {
	for name, idx := range testIndexes(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			fp := fingerprint.New([]byte("doc B"))

			if err := idx.Put(ctx, fp, "QmSame"); err != nil {
				t.Fatalf("first put: %v", err)
			}
			if err := idx.Put(ctx, fp, "QmSame"); err != nil {
				t.Fatalf("identical re-put should succeed, got %v", err)
			}
		})
	}
}

func TestIndex_conflictingPutRejected(t *testing.T) {
	for name, idx := range testIndexes(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			fp := fingerprint.New([]byte("doc C"))

			if err := idx.Put(ctx, fp, "QmOriginal"); err != nil {
				t.Fatalf("first put: %v", err)
			}
			err := idx.Put(ctx, fp, "QmImpostor")
			if !errors.Is(err, docindex.ErrConflict) {
				t.Fatalf("expected ErrConflict, got %v", err)
			}

			// The original mapping must be untouched.
			locator, ok, err := idx.Get(ctx, fp)
			if err != nil || !ok || locator != "QmOriginal" {
				t.Fatalf("mapping changed after rejected put: (%q, %v, %v)", locator, ok, err)
			}
		})
	}
}

func TestIndex_concurrentPutsSameFingerprint(t *testing.T) {
	idx := docindex.NewMemoryIndex()
	ctx := context.Background()
	fp := fingerprint.New([]byte("contended doc"))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Identical pair from every goroutine: all must succeed.
			if err := idx.Put(ctx, fp, "QmShared"); err != nil {
				t.Errorf("concurrent identical put failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if idx.Len() != 1 {
		t.Fatalf("expected exactly one entry, got %d", idx.Len())
	}
}

func TestFileIndex_survivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.jsonl")
	ctx := context.Background()

	idx, err := docindex.NewFileIndex(path)
	if err != nil {
		t.Fatalf("new file index: %v", err)
	}
	var fps []fingerprint.Fingerprint
	for n := 0; n < 5; n++ {
		fp := fingerprint.New(fmt.Appendf(nil, "doc %d", n))
		fps = append(fps, fp)
		if err := idx.Put(ctx, fp, fmt.Sprintf("Qm%d", n)); err != nil {
			t.Fatalf("put %d: %v", n, err)
		}
	}
	idx.Close()

	reopened, err := docindex.NewFileIndex(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	for n, fp := range fps {
		locator, ok, err := reopened.Get(ctx, fp)
		if err != nil || !ok {
			t.Fatalf("entry %d missing after reopen: (%v, %v)", n, ok, err)
		}
		if want := fmt.Sprintf("Qm%d", n); locator != want {
			t.Fatalf("entry %d: got %s, want %s", n, locator, want)
		}
	}

	// Conflict rule still enforced against replayed state.
	if err := reopened.Put(ctx, fps[0], "QmOther"); !errors.Is(err, docindex.ErrConflict) {
		t.Fatalf("expected ErrConflict after reopen, got %v", err)
	}
}
