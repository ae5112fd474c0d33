package corpus

import "time"

// Song is one song in an artist's catalog. Lyrics may be empty when the
// lyric page was unavailable or every fetch attempt failed.
type Song struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	URL    string `json:"url"`
	Lyrics string `json:"lyrics"`
}

// Corpus is the complete catalog of one artist's songs, in catalog order.
// A persisted corpus is always complete: either every song known to the
// remote catalog at fetch time is present, or nothing is persisted at all.
type Corpus struct {
	ArtistID   int64     `json:"artist_id"`
	ArtistName string    `json:"artist_name"`
	FetchedAt  time.Time `json:"fetched_at"`
	Songs      []Song    `json:"songs"`
}
