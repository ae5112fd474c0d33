package genius

// ArtistRef identifies a resolved artist in the Genius catalog.
type ArtistRef struct {
	ID   int64
	Name string
	URL  string
}

// SongRef is one catalog listing entry. The lyric text itself lives on the
// song's web page, not in the API.
type SongRef struct {
	ID    int64
	Title string
	URL   string
}

type apiArtist struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

type apiSong struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	URL           string    `json:"url"`
	PrimaryArtist apiArtist `json:"primary_artist"`
}

type searchResponse struct {
	Response struct {
		Hits []struct {
			Result apiSong `json:"result"`
		} `json:"hits"`
	} `json:"response"`
}

type songsResponse struct {
	Response struct {
		Songs    []apiSong `json:"songs"`
		NextPage *int      `json:"next_page"`
	} `json:"response"`
}
