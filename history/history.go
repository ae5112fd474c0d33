package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// Store records corpus builds and searches for diagnostics. Per-song fetch
// failures are invisible in search results, so this is where they get
// counted.
type Store struct {
	db *sql.DB
}

type FetchRecord struct {
	ID          int64
	ArtistName  string
	ArtistID    int64
	SongCount   int
	FailedSongs int
	FromCache   bool
	DurationMS  int64
	FetchedAt   time.Time
}

type SearchRecord struct {
	ID         int64
	ArtistName string
	Query      string
	MatchCount int
	SearchedAt time.Time
}

type ArtistSearchCount struct {
	ArtistName   string
	SearchCount  int
	LastSearched time.Time
}

// New opens (or creates) the history database. dbPath defaults to
// lyricist.db in the working directory.
func New(dbPath string) (*Store, error) {
	if dbPath == "" {
		dbPath = "lyricist.db"
	}

	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Debugf("History database initialized at %s", dbPath)
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS corpus_fetches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			artist_name TEXT NOT NULL,
			artist_id INTEGER NOT NULL,
			song_count INTEGER NOT NULL DEFAULT 0,
			failed_songs INTEGER NOT NULL DEFAULT 0,
			from_cache INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			fetched_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_corpus_fetches_artist ON corpus_fetches(artist_name)`,
		`CREATE TABLE IF NOT EXISTS searches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			artist_name TEXT NOT NULL,
			query TEXT NOT NULL,
			match_count INTEGER NOT NULL DEFAULT 0,
			searched_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_searches_artist ON searches(artist_name)`,
		`CREATE INDEX IF NOT EXISTS idx_searches_searched_at ON searches(searched_at DESC)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}

	return nil
}

// RecordFetch inserts one corpus-build record.
func (s *Store) RecordFetch(artistName string, artistID int64, songCount, failedSongs int, fromCache bool, duration time.Duration) error {
	_, err := s.db.Exec(
		`INSERT INTO corpus_fetches (artist_name, artist_id, song_count, failed_songs, from_cache, duration_ms, fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		artistName, artistID, songCount, failedSongs, boolToInt(fromCache), duration.Milliseconds(),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to record fetch: %w", err)
	}
	return nil
}

// RecordSearch inserts one search record.
func (s *Store) RecordSearch(artistName, query string, matchCount int) error {
	_, err := s.db.Exec(
		`INSERT INTO searches (artist_name, query, match_count, searched_at)
		 VALUES (?, ?, ?, ?)`,
		artistName, query, matchCount, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to record search: %w", err)
	}
	return nil
}

// RecentSearches returns the most recent searches, newest first.
func (s *Store) RecentSearches(limit int) ([]SearchRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT id, artist_name, query, match_count, searched_at
		 FROM searches
		 ORDER BY searched_at DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query searches: %w", err)
	}
	defer rows.Close()

	var records []SearchRecord
	for rows.Next() {
		var r SearchRecord
		var searchedAt string
		if err := rows.Scan(&r.ID, &r.ArtistName, &r.Query, &r.MatchCount, &searchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan search row: %w", err)
		}
		r.SearchedAt = parseTimestamp(searchedAt)
		records = append(records, r)
	}
	return records, rows.Err()
}

// MostSearchedArtists returns the artists with the most recorded searches.
func (s *Store) MostSearchedArtists(limit int) ([]ArtistSearchCount, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT artist_name, COUNT(*) as search_count, MAX(searched_at) as last_searched
		 FROM searches
		 GROUP BY artist_name
		 ORDER BY search_count DESC, last_searched DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query most searched artists: %w", err)
	}
	defer rows.Close()

	var records []ArtistSearchCount
	for rows.Next() {
		var r ArtistSearchCount
		var lastSearched string
		if err := rows.Scan(&r.ArtistName, &r.SearchCount, &lastSearched); err != nil {
			return nil, fmt.Errorf("failed to scan artist count row: %w", err)
		}
		r.LastSearched = parseTimestamp(lastSearched)
		records = append(records, r)
	}
	return records, rows.Err()
}

// RecentFetches returns the most recent corpus builds, newest first.
func (s *Store) RecentFetches(limit int) ([]FetchRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT id, artist_name, artist_id, song_count, failed_songs, from_cache, duration_ms, fetched_at
		 FROM corpus_fetches
		 ORDER BY fetched_at DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query fetches: %w", err)
	}
	defer rows.Close()

	var records []FetchRecord
	for rows.Next() {
		var r FetchRecord
		var fromCache int
		var fetchedAt string
		if err := rows.Scan(&r.ID, &r.ArtistName, &r.ArtistID, &r.SongCount, &r.FailedSongs,
			&fromCache, &r.DurationMS, &fetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan fetch row: %w", err)
		}
		r.FromCache = fromCache != 0
		r.FetchedAt = parseTimestamp(fetchedAt)
		records = append(records, r)
	}
	return records, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func parseTimestamp(value string) time.Time {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, value); err == nil {
			return t
		}
	}
	log.Warnf("failed to parse timestamp '%s' with all known formats", value)
	return time.Now()
}
