package docstore_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GangaMannan/CustomsClearnace/internal/docstore"
)

// fakeIPFS is a minimal stand-in for the IPFS HTTP RPC: /api/v0/add and
// /api/v0/cat backed by a map.
func fakeIPFS(t *testing.T) (*httptest.Server, map[string][]byte) {
	t.Helper()
	objects := make(map[string][]byte)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v0/add", func(w http.ResponseWriter, r *http.Request) {
		file, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(file)
		cid := fmt.Sprintf("Qm%x", data[:min(8, len(data))])
		objects[cid] = data
		fmt.Fprintf(w, `{"Name":"document","Hash":%q,"Size":"%d"}`, cid, len(data))
	})
	mux.HandleFunc("/api/v0/cat", func(w http.ResponseWriter, r *http.Request) {
		data, ok := objects[r.URL.Query().Get("arg")]
		if !ok {
			// The real RPC reports unknown CIDs as a 500 error payload.
			http.Error(w, `{"Message":"merkledag: not found","Code":0}`, http.StatusInternalServerError)
			return
		}
		w.Write(data)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, objects
}

func TestIPFSStore_roundTrip(t *testing.T) {
	srv, _ := fakeIPFS(t)
	store := docstore.NewIPFSStore(srv.URL, "https://ipfs.io", 0)
	ctx := context.Background()

	doc := []byte("ipfs-bound invoice")
	locator, err := store.Store(ctx, doc)
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	got, err := store.Fetch(ctx, locator)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !bytes.Equal(got, doc) {
		t.Fatal("fetched bytes differ")
	}

	if url := store.GatewayURL(locator); url != "https://ipfs.io/ipfs/"+locator {
		t.Fatalf("unexpected gateway URL %q", url)
	}
}

func TestIPFSStore_unknownCID(t *testing.T) {
	srv, _ := fakeIPFS(t)
	store := docstore.NewIPFSStore(srv.URL, "", 0)

	_, err := store.Fetch(context.Background(), "QmDoesNotExist")
	if !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestIPFSStore_nodeDown(t *testing.T) {
	srv, _ := fakeIPFS(t)
	srv.Close() // connection refused from here on
	store := docstore.NewIPFSStore(srv.URL, "", 0)

	if _, err := store.Store(context.Background(), []byte("x")); !errors.Is(err, docstore.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable on store, got %v", err)
	}
	if _, err := store.Fetch(context.Background(), "QmWhatever"); !errors.Is(err, docstore.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable on fetch, got %v", err)
	}
}
