package main

import (
	"errors"
	"fmt"
	"os"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	appConfig "lyricist/config"
	"lyricist/corpus"
	"lyricist/sentry"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debugf("No .env file loaded: %v", err)
	}
	appConfig.NewConfig()
	setupLogging()
	sentry.Init()

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, userMessage(err))
		os.Exit(1)
	}
}

func setupLogging() {
	log.SetFormatter(&nested.Formatter{
		HideKeys:    true,
		FieldsOrder: []string{"module"},
	})
	if levelStr := appConfig.Config.Options.LogLevel; levelStr != "" {
		level, err := log.ParseLevel(levelStr)
		if err != nil {
			log.Warnf("Invalid LOG_LEVEL %q, using info", levelStr)
			return
		}
		log.SetLevel(level)
	}
}

// userMessage maps the error taxonomy to actionable CLI messages.
func userMessage(err error) string {
	switch {
	case errors.Is(err, corpus.ErrAuth):
		return "Genius rejected the access token. Pass -t/--token or set GENIUS_ACCESS_TOKEN."
	case errors.Is(err, corpus.ErrCacheCorrupt):
		return fmt.Sprintf("%v\nThe local cache entry is unreadable. Run `lyricist invalidate \"<artist>\"` and retry.", err)
	case errors.Is(err, corpus.ErrTransient):
		return fmt.Sprintf("%v\nGenius looks unreachable right now, try again in a bit.", err)
	case errors.Is(err, corpus.ErrNotFound):
		return fmt.Sprintf("%v", err)
	default:
		return fmt.Sprintf("%v", err)
	}
}
