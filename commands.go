package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	log "github.com/sirupsen/logrus"

	"lyricist/builder"
	"lyricist/cache"
	appConfig "lyricist/config"
	"lyricist/controller"
	"lyricist/corpus"
	"lyricist/genius"
	"lyricist/history"
)

func newRootCommand() *cobra.Command {
	var tokenFlag string

	rootCmd := &cobra.Command{
		Use:           "lyricist",
		Short:         "Search for a lyric in an artist's songs",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&tokenFlag, "token", "t", "",
		"Genius access token (defaults to GENIUS_ACCESS_TOKEN)")

	rootCmd.AddCommand(newSearchCommand(&tokenFlag))
	rootCmd.AddCommand(newServeCommand(&tokenFlag))
	rootCmd.AddCommand(newHistoryCommand())
	rootCmd.AddCommand(newInvalidateCommand())

	return rootCmd
}

func newSearchCommand(token *string) *cobra.Command {
	var matchAll bool

	cmd := &cobra.Command{
		Use:   "search ARTIST LYRIC...",
		Short: "Print the artist's songs whose lyrics contain the given text",
		Long: "Fetches the artist's full catalog from Genius on first use, caches it on disk,\n" +
			"and searches the cached lyrics. With multiple LYRIC arguments a song matches\n" +
			"when it contains any of them, or all of them with --all.",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, hist, err := buildController(*token)
			if err != nil {
				return err
			}
			defer closeHistory(hist)

			matches, err := ctrl.FindLyric(cmd.Context(), args[0], args[1:], matchAll)
			if err != nil {
				return err
			}

			if len(matches) == 0 {
				fmt.Println("No matching songs.")
				return nil
			}
			for _, song := range matches {
				fmt.Println(song.Title)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&matchAll, "all", "a", false,
		"Require a song to contain every LYRIC argument, not just one")
	return cmd
}

func newHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [searches|fetches|artists]",
		Short: "Show recent searches, corpus builds, or most searched artists",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hist, err := history.New(appConfig.Config.History.DBPath)
			if err != nil {
				return err
			}
			defer hist.Close()

			kind := "searches"
			if len(args) > 0 {
				kind = args[0]
			}

			switch kind {
			case "searches":
				records, err := hist.RecentSearches(limit)
				if err != nil {
					return err
				}
				for _, r := range records {
					fmt.Printf("%s  %-24s %-32q %d matches\n",
						r.SearchedAt.Local().Format("2006-01-02 15:04"), r.ArtistName, r.Query, r.MatchCount)
				}
			case "fetches":
				records, err := hist.RecentFetches(limit)
				if err != nil {
					return err
				}
				for _, r := range records {
					source := "remote"
					if r.FromCache {
						source = "cache"
					}
					fmt.Printf("%s  %-24s %4d songs  %2d failed  %6dms  %s\n",
						r.FetchedAt.Local().Format("2006-01-02 15:04"), r.ArtistName,
						r.SongCount, r.FailedSongs, r.DurationMS, source)
				}
			case "artists":
				records, err := hist.MostSearchedArtists(limit)
				if err != nil {
					return err
				}
				for _, r := range records {
					fmt.Printf("%-24s %d searches (last %s)\n",
						r.ArtistName, r.SearchCount, r.LastSearched.Local().Format("2006-01-02 15:04"))
				}
			default:
				return fmt.Errorf("unknown history kind %q (want searches, fetches or artists)", kind)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of records to show")
	return cmd
}

func newInvalidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "invalidate ARTIST",
		Short: "Delete the artist's cache entry so the next search re-fetches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := cache.New(appConfig.Config.Cache.Dir)
			if err := store.Delete(args[0]); err != nil {
				return err
			}
			fmt.Printf("Dropped cache entry for %q.\n", args[0])
			return nil
		},
	}
}

// buildController wires the client, cache store, builder and history store
// from config. The history store is best-effort: failure to open it logs a
// warning and searches proceed without diagnostics.
func buildController(tokenFlag string) (*controller.Controller, *history.Store, error) {
	token := tokenFlag
	if token == "" {
		token = appConfig.Config.Genius.AccessToken
	}
	if token == "" {
		return nil, nil, fmt.Errorf("lyricist requires an access token: %w", corpus.ErrAuth)
	}

	cfg := appConfig.Config
	client := genius.New(token, time.Duration(cfg.Fetch.TimeoutSeconds)*time.Second)
	store := cache.New(cfg.Cache.Dir)

	b := builder.New(client, store)
	b.Concurrency = cfg.Fetch.Concurrency
	b.Retries = cfg.Fetch.Retries

	hist, err := history.New(cfg.History.DBPath)
	if err != nil {
		log.Warnf("History store unavailable, continuing without diagnostics: %v", err)
		hist = nil
	}

	return controller.New(b, store, hist), hist, nil
}

func closeHistory(hist *history.Store) {
	if hist != nil {
		hist.Close()
	}
}
