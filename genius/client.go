package genius

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/unicode/norm"

	"lyricist/corpus"
)

const (
	defaultAPIBaseURL = "https://api.genius.com"
	defaultWebBaseURL = "https://genius.com"
	perPage           = 50
)

// Client talks to the Genius API and to the human-facing song pages.
// APIBaseURL and WebBaseURL are overridable for tests.
type Client struct {
	httpClient *http.Client
	token      string

	APIBaseURL string
	WebBaseURL string
}

func New(token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		token:      token,
		APIBaseURL: defaultAPIBaseURL,
		WebBaseURL: defaultWebBaseURL,
	}
}

// ResolveArtist resolves an artist name to its Genius catalog entry via the
// search endpoint. An exact (case-folded) primary-artist name match wins;
// otherwise the first hit's primary artist is used.
func (c *Client) ResolveArtist(ctx context.Context, name string) (ArtistRef, error) {
	span := sentry.StartSpan(ctx, "genius.resolve_artist")
	span.Description = "Resolve artist via Genius search"
	span.SetTag("artist", name)
	defer span.Finish()

	u := fmt.Sprintf("%s/search?q=%s", c.APIBaseURL, url.QueryEscape(name))
	var res searchResponse
	if err := c.getJSON(ctx, u, &res); err != nil {
		span.Status = sentry.SpanStatusInternalError
		return ArtistRef{}, err
	}

	var first *apiArtist
	for i := range res.Response.Hits {
		artist := res.Response.Hits[i].Result.PrimaryArtist
		if artist.ID == 0 {
			continue
		}
		if strings.EqualFold(artist.Name, name) {
			log.Debugf("Resolved %q to Genius artist %d (%s)", name, artist.ID, artist.Name)
			span.Status = sentry.SpanStatusOK
			return ArtistRef{ID: artist.ID, Name: artist.Name, URL: artist.URL}, nil
		}
		if first == nil {
			first = &artist
		}
	}

	if first == nil {
		span.Status = sentry.SpanStatusNotFound
		return ArtistRef{}, fmt.Errorf("no artist matching %q: %w", name, corpus.ErrNotFound)
	}

	log.Debugf("No exact match for %q, using first hit: artist %d (%s)", name, first.ID, first.Name)
	span.Status = sentry.SpanStatusOK
	return ArtistRef{ID: first.ID, Name: first.Name, URL: first.URL}, nil
}

// ListSongs pages through an artist's catalog listing until the API reports
// no further pages. Songs repeated across overlapping pages are dropped;
// first-seen order is kept.
func (c *Client) ListSongs(ctx context.Context, artistID int64) ([]SongRef, error) {
	span := sentry.StartSpan(ctx, "genius.list_songs")
	span.Description = "Page through artist song listing"
	span.SetTag("artist_id", strconv.FormatInt(artistID, 10))
	defer span.Finish()

	seen := make(map[int64]bool)
	var songs []SongRef

	page := 1
	for {
		u := fmt.Sprintf("%s/artists/%d/songs?per_page=%d&page=%d", c.APIBaseURL, artistID, perPage, page)
		var res songsResponse
		if err := c.getJSON(ctx, u, &res); err != nil {
			span.Status = sentry.SpanStatusInternalError
			return nil, err
		}

		for _, s := range res.Response.Songs {
			if seen[s.ID] {
				log.Tracef("Skipping duplicate song %d across pages", s.ID)
				continue
			}
			seen[s.ID] = true
			songs = append(songs, SongRef{
				ID:    s.ID,
				Title: norm.NFKD.String(s.Title),
				URL:   s.URL,
			})
		}

		if res.Response.NextPage == nil {
			break
		}
		page = *res.Response.NextPage
	}

	log.Debugf("Listed %d songs for artist %d", len(songs), artistID)
	span.Status = sentry.SpanStatusOK
	span.SetData("song_count", len(songs))
	return songs, nil
}

// FetchLyricPage retrieves the raw HTML of a song's web page. The API does
// not expose lyric text, only the rendered page does.
func (c *Client) FetchLyricPage(ctx context.Context, songURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.pageURL(songURL), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", corpus.ErrTransient, err)
	}
	// Song pages are served to browsers, not API clients
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	log.Tracef("Fetching lyric page: %s", songURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", corpus.ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("lyric page gone: %w", corpus.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: lyric page returned HTTP %d", corpus.ErrTransient, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", corpus.ErrTransient, err)
	}
	return string(body), nil
}

// pageURL resolves a song URL against the configured web base so tests can
// point the client at a local server. Absolute URLs from the real API pass
// through when the base is the default.
func (c *Client) pageURL(songURL string) string {
	if c.WebBaseURL == defaultWebBaseURL {
		return songURL
	}
	parsed, err := url.Parse(songURL)
	if err != nil {
		return songURL
	}
	return c.WebBaseURL + parsed.Path
}

func (c *Client) getJSON(ctx context.Context, u string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", corpus.ErrTransient, err)
	}
	req.Header.Set("User-Agent", "Lyricist")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", corpus.ErrTransient, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("genius API returned HTTP %d: %w", resp.StatusCode, corpus.ErrAuth)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("genius API returned HTTP 404: %w", corpus.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: genius API returned HTTP %d", corpus.ErrTransient, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: malformed API response: %v", corpus.ErrTransient, err)
	}
	return nil
}
