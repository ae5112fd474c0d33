package cache

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"lyricist/corpus"
)

func testCorpus() *corpus.Corpus {
	return &corpus.Corpus{
		ArtistID:   92,
		ArtistName: "Nicki Minaj",
		FetchedAt:  time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		Songs: []corpus.Song{
			{ID: 1, Title: "Alpha", URL: "https://genius.com/alpha", Lyrics: "first song text"},
			{ID: 2, Title: "Beta", URL: "https://genius.com/beta", Lyrics: ""},
			{ID: 3, Title: "Gamma", URL: "https://genius.com/gamma", Lyrics: "third\nsong\ntext"},
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := New(t.TempDir())
	want := testCorpus()

	if store.Exists("Nicki Minaj") {
		t.Fatal("Exists() = true before save")
	}
	if err := store.Save("Nicki Minaj", want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !store.Exists("Nicki Minaj") {
		t.Fatal("Exists() = false after save")
	}

	got, err := store.Load("Nicki Minaj")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Load() = %+v; want %+v", got, want)
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "artists")
	store := New(dir)
	if err := store.Save("Beck", testCorpus()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !store.Exists("Beck") {
		t.Error("Exists() = false after save into fresh directory")
	}
}

func TestKeysAreFilesystemSafeAndCaseSensitive(t *testing.T) {
	store := New(t.TempDir())

	names := []string{
		"AC/DC",
		"Sixpence None the Richer?",
		"Mary Kate & Ashley Olsen",
		"..",
		"beck",
		"Beck",
	}
	for i, name := range names {
		c := testCorpus()
		c.ArtistID = int64(i + 1)
		c.ArtistName = name
		if err := store.Save(name, c); err != nil {
			t.Fatalf("Save(%q) error = %v", name, err)
		}
	}
	for i, name := range names {
		got, err := store.Load(name)
		if err != nil {
			t.Fatalf("Load(%q) error = %v", name, err)
		}
		if got.ArtistID != int64(i+1) || got.ArtistName != name {
			t.Errorf("Load(%q) = artist %d %q; entries collided", name, got.ArtistID, got.ArtistName)
		}
	}
}

func TestLoadCorruptEntry(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not_json", "{{{"},
		{"truncated", `{"artist_id":92,"artist_name":"Nicki`},
		{"missing_identity", `{"songs":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			store := New(dir)
			if err := os.WriteFile(filepath.Join(dir, "Broken.json"), []byte(tt.data), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := store.Load("Broken")
			if !errors.Is(err, corpus.ErrCacheCorrupt) {
				t.Errorf("Load() error = %v; want ErrCacheCorrupt", err)
			}
		})
	}
}

func TestLoadMissingEntry(t *testing.T) {
	store := New(t.TempDir())
	_, err := store.Load("Nobody")
	if !errors.Is(err, corpus.ErrNotFound) {
		t.Errorf("Load() error = %v; want ErrNotFound", err)
	}
}

func TestInterruptedSaveLeavesNoEntry(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)

	// A save that dies mid-write leaves only the staging temp file behind
	if err := os.WriteFile(filepath.Join(dir, "entry-12345.tmp"), []byte(`{"artist_id":92,"artist_name":"Half`), 0644); err != nil {
		t.Fatal(err)
	}

	if store.Exists("Nicki Minaj") {
		t.Error("Exists() = true with only a staging temp file present")
	}
	if _, err := store.Load("Nicki Minaj"); !errors.Is(err, corpus.ErrNotFound) {
		t.Errorf("Load() error = %v; want ErrNotFound (a torn write must read as a miss)", err)
	}
}

func TestDelete(t *testing.T) {
	store := New(t.TempDir())
	if err := store.Save("Beck", testCorpus()); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete("Beck"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if store.Exists("Beck") {
		t.Error("Exists() = true after delete")
	}
	// Idempotent
	if err := store.Delete("Beck"); err != nil {
		t.Errorf("Delete() on missing entry error = %v; want nil", err)
	}
}
