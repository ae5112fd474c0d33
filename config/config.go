package config

import (
	"os"
	"strconv"
)

type ConfigStruct struct {
	Genius  GeniusConfig
	Cache   CacheConfig
	Fetch   FetchConfig
	History HistoryConfig
	Options Options
}

type GeniusConfig struct {
	AccessToken string
}

type CacheConfig struct {
	Dir string
}

type FetchConfig struct {
	Concurrency    int
	Retries        int
	TimeoutSeconds int
}

type HistoryConfig struct {
	DBPath string
}

type Options struct {
	Port     string
	LogLevel string
}

func (g *GeniusConfig) HasToken() bool {
	return g.AccessToken != ""
}

var Config *ConfigStruct

func NewConfig() {
	config := &ConfigStruct{
		Genius: GeniusConfig{
			AccessToken: os.Getenv("GENIUS_ACCESS_TOKEN"),
		},
		Cache: CacheConfig{
			Dir: getCacheDir(),
		},
		Fetch: FetchConfig{
			Concurrency:    getFetchConcurrency(),
			Retries:        getFetchRetries(),
			TimeoutSeconds: getHTTPTimeout(),
		},
		History: HistoryConfig{
			DBPath: os.Getenv("HISTORY_DB_PATH"),
		},
		Options: Options{
			Port:     os.Getenv("PORT"),
			LogLevel: os.Getenv("LOG_LEVEL"),
		},
	}

	Config = config
}

func getCacheDir() string {
	dir := os.Getenv("LYRICIST_CACHE_DIR")
	if dir == "" {
		return "artists"
	}
	return dir
}

func getFetchConcurrency() int {
	concurrencyStr := os.Getenv("FETCH_CONCURRENCY")
	if concurrencyStr == "" {
		return 4
	}
	concurrency, err := strconv.Atoi(concurrencyStr)
	if err != nil || concurrency <= 0 {
		return 4
	}
	if concurrency > 16 {
		return 16 // Cap to stay polite to the lyric pages
	}
	return concurrency
}

func getFetchRetries() int {
	retriesStr := os.Getenv("FETCH_RETRIES")
	if retriesStr == "" {
		return 3
	}
	retries, err := strconv.Atoi(retriesStr)
	if err != nil || retries <= 0 {
		return 3
	}
	if retries > 10 {
		return 10
	}
	return retries
}

func getHTTPTimeout() int {
	timeoutStr := os.Getenv("HTTP_TIMEOUT_SECONDS")
	if timeoutStr == "" {
		return 10
	}
	timeout, err := strconv.Atoi(timeoutStr)
	if err != nil || timeout <= 0 {
		return 10
	}
	if timeout > 120 {
		return 120
	}
	return timeout
}
