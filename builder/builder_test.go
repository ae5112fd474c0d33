package builder

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"lyricist/cache"
	"lyricist/corpus"
	"lyricist/genius"
)

// fakeGenius serves a five-song catalog for one artist. Song page behavior
// is tweakable per path and every request is counted.
type fakeGenius struct {
	server   *httptest.Server
	requests atomic.Int64
	songPage map[string]http.HandlerFunc
}

func newFakeGenius(t *testing.T) *fakeGenius {
	t.Helper()
	f := &fakeGenius{songPage: make(map[string]http.HandlerFunc)}

	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"response":{"hits":[{"result":{"id":100,"primary_artist":{"id":92,"name":"Johnny Cash","url":"/artists/92"}}}]}}`)
	})
	mux.HandleFunc("/artists/92/songs", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprint(w, `{"response":{"songs":[
				{"id":1,"title":"One","url":"/songs/1"},
				{"id":2,"title":"Two","url":"/songs/2"},
				{"id":3,"title":"Three","url":"/songs/3"}
			],"next_page":2}}`)
		default:
			fmt.Fprint(w, `{"response":{"songs":[
				{"id":4,"title":"Four","url":"/songs/4"},
				{"id":5,"title":"Five","url":"/songs/5"}
			],"next_page":null}}`)
		}
	})
	mux.HandleFunc("/songs/", func(w http.ResponseWriter, r *http.Request) {
		if h, ok := f.songPage[r.URL.Path]; ok {
			h(w, r)
			return
		}
		fmt.Fprintf(w, `<div data-lyrics-container="true">lyrics of song %s</div>`, filepath.Base(r.URL.Path))
	})

	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.server.Close)
	return f
}

func newTestBuilder(t *testing.T, f *fakeGenius) (*Builder, *cache.Store) {
	t.Helper()
	client := genius.New("test-token", 5*time.Second)
	client.APIBaseURL = f.server.URL
	client.WebBaseURL = f.server.URL

	store := cache.New(t.TempDir())
	b := New(client, store)
	b.Backoff = time.Millisecond
	return b, store
}

func TestBuildFetchesAndCommits(t *testing.T) {
	f := newFakeGenius(t)
	b, store := newTestBuilder(t, f)

	c, stats, err := b.Build(context.Background(), "Johnny Cash")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if stats.FromCache {
		t.Error("stats.FromCache = true on first build")
	}
	if stats.ArtistID != 92 || stats.SongCount != 5 || stats.FailedSongs != 0 {
		t.Errorf("stats = %+v", stats)
	}

	wantIDs := []int64{1, 2, 3, 4, 5}
	for i, id := range wantIDs {
		if c.Songs[i].ID != id {
			t.Errorf("Songs[%d].ID = %d; want %d (catalog order)", i, c.Songs[i].ID, id)
		}
	}
	if c.Songs[0].Lyrics != "lyrics of song 1" {
		t.Errorf("Songs[0].Lyrics = %q", c.Songs[0].Lyrics)
	}

	if !store.Exists("Johnny Cash") {
		t.Error("cache entry missing after successful build")
	}
}

func TestBuildIsIdempotent(t *testing.T) {
	f := newFakeGenius(t)
	b, _ := newTestBuilder(t, f)

	first, _, err := b.Build(context.Background(), "Johnny Cash")
	if err != nil {
		t.Fatalf("first Build() error = %v", err)
	}
	afterFirst := f.requests.Load()
	if afterFirst == 0 {
		t.Fatal("first build performed no remote requests")
	}

	second, stats, err := b.Build(context.Background(), "Johnny Cash")
	if err != nil {
		t.Fatalf("second Build() error = %v", err)
	}
	if got := f.requests.Load(); got != afterFirst {
		t.Errorf("second build performed %d extra remote requests; want 0", got-afterFirst)
	}
	if !stats.FromCache {
		t.Error("stats.FromCache = false on second build")
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("cached corpus differs from fetched corpus:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestBuildOrderSurvivesCompletionOrder(t *testing.T) {
	f := newFakeGenius(t)
	// Song 1 finishes last, songs 4 and 5 finish first
	f.songPage["/songs/1"] = func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(60 * time.Millisecond)
		fmt.Fprint(w, `<div data-lyrics-container="true">lyrics of song 1</div>`)
	}
	f.songPage["/songs/2"] = func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(30 * time.Millisecond)
		fmt.Fprint(w, `<div data-lyrics-container="true">lyrics of song 2</div>`)
	}

	b, _ := newTestBuilder(t, f)
	b.Concurrency = 5

	c, _, err := b.Build(context.Background(), "Johnny Cash")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	for i, want := range []int64{1, 2, 3, 4, 5} {
		if c.Songs[i].ID != want {
			t.Errorf("Songs[%d].ID = %d; want %d (listing order, not completion order)", i, c.Songs[i].ID, want)
		}
	}
}

func TestBuildPartialFailureStillCommits(t *testing.T) {
	f := newFakeGenius(t)
	f.songPage["/songs/3"] = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	b, store := newTestBuilder(t, f)
	c, stats, err := b.Build(context.Background(), "Johnny Cash")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if len(c.Songs) != 5 {
		t.Fatalf("corpus has %d songs; want all 5 despite one failure", len(c.Songs))
	}
	if c.Songs[2].Lyrics != "" {
		t.Errorf("failed song lyrics = %q; want empty", c.Songs[2].Lyrics)
	}
	if c.Songs[2].Title != "Three" {
		t.Errorf("failed song title = %q; want retained title", c.Songs[2].Title)
	}
	if stats.FailedSongs != 1 {
		t.Errorf("stats.FailedSongs = %d; want 1", stats.FailedSongs)
	}
	if !store.Exists("Johnny Cash") {
		t.Error("corpus with a failed song was not committed to cache")
	}
}

func TestBuildGoneSongPageRecordedEmpty(t *testing.T) {
	f := newFakeGenius(t)
	var songRequests atomic.Int64
	f.songPage["/songs/2"] = func(w http.ResponseWriter, r *http.Request) {
		songRequests.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}

	b, _ := newTestBuilder(t, f)
	c, stats, err := b.Build(context.Background(), "Johnny Cash")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if c.Songs[1].Lyrics != "" || c.Songs[1].Title != "Two" {
		t.Errorf("gone song = %+v; want empty lyrics with retained title", c.Songs[1])
	}
	if stats.FailedSongs != 1 {
		t.Errorf("stats.FailedSongs = %d; want 1", stats.FailedSongs)
	}
	if got := songRequests.Load(); got != 1 {
		t.Errorf("gone page fetched %d times; want 1 (not-found is terminal, not retried)", got)
	}
}

func TestBuildAuthErrorAbortsWithoutRetryOrCommit(t *testing.T) {
	var searchRequests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		searchRequests.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	client := genius.New("bad-token", 5*time.Second)
	client.APIBaseURL = server.URL
	client.WebBaseURL = server.URL
	store := cache.New(t.TempDir())
	b := New(client, store)
	b.Backoff = time.Millisecond

	_, _, err := b.Build(context.Background(), "Johnny Cash")
	if !errors.Is(err, corpus.ErrAuth) {
		t.Fatalf("Build() error = %v; want ErrAuth", err)
	}
	if got := searchRequests.Load(); got != 1 {
		t.Errorf("auth failure retried %d times; want exactly 1 attempt", got)
	}
	if store.Exists("Johnny Cash") {
		t.Error("cache entry exists after aborted build")
	}
}

func TestBuildResolveRetriesExhaustAsTransient(t *testing.T) {
	var searchRequests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		searchRequests.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	client := genius.New("test-token", 5*time.Second)
	client.APIBaseURL = server.URL
	client.WebBaseURL = server.URL
	store := cache.New(t.TempDir())
	b := New(client, store)
	b.Backoff = time.Millisecond
	b.Retries = 3

	_, _, err := b.Build(context.Background(), "Johnny Cash")
	if !errors.Is(err, corpus.ErrTransient) {
		t.Fatalf("Build() error = %v; want ErrTransient", err)
	}
	if got := searchRequests.Load(); got != 3 {
		t.Errorf("resolve attempted %d times; want 3", got)
	}
	if store.Exists("Johnny Cash") {
		t.Error("cache entry exists after failed build")
	}
}

func TestBuildCorruptCacheSurfacesWithoutRemoteCalls(t *testing.T) {
	f := newFakeGenius(t)
	client := genius.New("test-token", 5*time.Second)
	client.APIBaseURL = f.server.URL
	client.WebBaseURL = f.server.URL

	dir := t.TempDir()
	store := cache.New(dir)
	if err := os.WriteFile(filepath.Join(dir, "Johnny%20Cash.json"), []byte("{{{"), 0644); err != nil {
		t.Fatal(err)
	}

	b := New(client, store)
	_, _, err := b.Build(context.Background(), "Johnny Cash")
	if !errors.Is(err, corpus.ErrCacheCorrupt) {
		t.Fatalf("Build() error = %v; want ErrCacheCorrupt", err)
	}
	if got := f.requests.Load(); got != 0 {
		t.Errorf("corrupt cache triggered %d remote requests; want 0", got)
	}
}

func TestBuildCancelledContext(t *testing.T) {
	f := newFakeGenius(t)
	b, store := newTestBuilder(t, f)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := b.Build(ctx, "Johnny Cash")
	if !errors.Is(err, corpus.ErrTransient) {
		t.Fatalf("Build() error = %v; want ErrTransient", err)
	}
	if store.Exists("Johnny Cash") {
		t.Error("cancelled build left a cache entry")
	}
}
