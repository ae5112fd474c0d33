package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"lyricist/corpus"
)

// Store persists one JSON file per artist under a single directory. Entries
// are written with a temp-file-then-rename commit, so a reader never sees a
// partially written corpus: an interrupted save is simply a cache miss.
//
// Keys are derived with url.PathEscape, which is filesystem-safe, reversible
// and collision-free for distinct artist names. Keys are case-sensitive:
// "Beck" and "beck" are separate entries.
type Store struct {
	dir string
}

func New(dir string) *Store {
	return &Store{dir: dir}
}

// Exists reports whether a committed cache entry is present for the artist.
func (s *Store) Exists(artistName string) bool {
	_, err := os.Stat(s.entryPath(artistName))
	return err == nil
}

// Load reads the artist's cache entry back into a corpus.
func (s *Store) Load(artistName string) (*corpus.Corpus, error) {
	data, err := os.ReadFile(s.entryPath(artistName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("no cache entry for %q: %w", artistName, corpus.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read cache entry for %q: %w", artistName, corpus.ErrCacheCorrupt)
	}

	var c corpus.Corpus
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("cache entry for %q is not a valid corpus: %w", artistName, corpus.ErrCacheCorrupt)
	}
	if c.ArtistID == 0 || c.ArtistName == "" {
		return nil, fmt.Errorf("cache entry for %q is missing artist identity: %w", artistName, corpus.ErrCacheCorrupt)
	}

	log.Debugf("Loaded cached corpus for %q (%d songs)", artistName, len(c.Songs))
	return &c, nil
}

// Save commits the corpus as a single atomic unit. The entry is staged in a
// temp file in the same directory and renamed into place.
func (s *Store) Save(artistName string, c *corpus.Corpus) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory %s: %w", s.dir, err)
	}

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode corpus for %q: %w", artistName, err)
	}

	tmp, err := os.CreateTemp(s.dir, "entry-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to stage cache entry for %q: %w", artistName, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write cache entry for %q: %w", artistName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to flush cache entry for %q: %w", artistName, err)
	}

	if err := os.Rename(tmpName, s.entryPath(artistName)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to commit cache entry for %q: %w", artistName, err)
	}

	log.Infof("Cached corpus for %q (%d songs)", artistName, len(c.Songs))
	return nil
}

// Delete removes the artist's cache entry. Deleting a missing entry is not
// an error, so invalidation is idempotent.
func (s *Store) Delete(artistName string) error {
	err := os.Remove(s.entryPath(artistName))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete cache entry for %q: %w", artistName, err)
	}
	return nil
}

func (s *Store) entryPath(artistName string) string {
	return filepath.Join(s.dir, url.PathEscape(artistName)+".json")
}
