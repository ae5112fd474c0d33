package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	log "github.com/sirupsen/logrus"

	appConfig "lyricist/config"
	"lyricist/controller"
	"lyricist/corpus"
	"lyricist/history"
	"lyricist/pages"
	"lyricist/sentry"
)

func newServeCommand(token *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, hist, err := buildController(*token)
			if err != nil {
				return err
			}
			defer closeHistory(hist)
			return runServer(ctrl, hist)
		},
	}
}

func runServer(ctrl *controller.Controller, hist *history.Store) error {
	router := gin.Default()
	router.Use(sentry.GetSentryGin())

	router.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(pages.Index))
	})

	router.GET("/api/search", func(c *gin.Context) {
		artist := c.Query("artist")
		queries := c.QueryArray("lyric")
		if artist == "" || len(queries) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "artist and lyric query parameters are required"})
			return
		}
		matchAll := c.Query("all") == "true"

		matches, err := ctrl.FindLyric(c.Request.Context(), artist, queries, matchAll)
		if err != nil {
			status := statusForError(err)
			if status >= http.StatusInternalServerError {
				sentry.ReportError(err)
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		titles := make([]string, len(matches))
		for i, song := range matches {
			titles[i] = song.Title
		}
		c.JSON(http.StatusOK, gin.H{
			"artist":  artist,
			"queries": queries,
			"titles":  titles,
		})
	})

	router.DELETE("/api/cache/:artist", func(c *gin.Context) {
		artist := c.Param("artist")
		if err := ctrl.Invalidate(artist); err != nil {
			sentry.ReportError(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"invalidated": artist})
	})

	router.GET("/api/history/searches", func(c *gin.Context) {
		if hist == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history store unavailable"})
			return
		}
		records, err := hist.RecentSearches(queryLimit(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"searches": records})
	})

	router.GET("/api/history/fetches", func(c *gin.Context) {
		if hist == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history store unavailable"})
			return
		}
		records, err := hist.RecentFetches(queryLimit(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"fetches": records})
	})

	router.GET("/api/history/artists", func(c *gin.Context) {
		if hist == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history store unavailable"})
			return
		}
		records, err := hist.MostSearchedArtists(queryLimit(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"artists": records})
	})

	port := appConfig.Config.Options.Port
	if port == "" {
		port = "8080"
	}
	log.Infof("Starting server on :%s", port)
	return http.ListenAndServe(":"+port, router)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, corpus.ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, corpus.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, corpus.ErrTransient):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func queryLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil {
		return 10
	}
	return limit
}
