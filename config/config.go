package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
)

var conf = mustLoad()

type Config struct {
	Configuration struct {
		Port                string `envconfig:"PORT" default:"8080"`
		RateLimitPerSecond  int    `envconfig:"RATE_LIMIT_PER_SECOND" default:"5"`
		RateLimitBurstLimit int    `envconfig:"RATE_LIMIT_BURST_LIMIT" default:"10"`
		AccessToken         string `envconfig:"ACCESS_TOKEN" default:""`

		// Lyrics API configuration
		LyricsAPIBase        string `envconfig:"LYRICS_API_BASE" default:"https://spotify-lyrics-api.example.com"`
		LyricsTimeoutSeconds int    `envconfig:"LYRICS_TIMEOUT_SECONDS" default:"15"`

		// Spotify catalog configuration
		SpotifyClientID     string `envconfig:"SPOTIFY_CLIENT_ID" default:""`
		SpotifyClientSecret string `envconfig:"SPOTIFY_CLIENT_SECRET" default:""`
		SpotifyTokenURL     string `envconfig:"SPOTIFY_TOKEN_URL" default:"https://accounts.spotify.com/api/token"`
		SpotifyAPIBase      string `envconfig:"SPOTIFY_API_BASE" default:"https://api.spotify.com/v1"`

		// Batch download behaviour
		BatchConcurrency      int `envconfig:"BATCH_CONCURRENCY" default:"5"`
		RateLimitWaitSeconds  int `envconfig:"RATE_LIMIT_WAIT_SECONDS" default:"30"`
		PausePollIntervalMs   int `envconfig:"PAUSE_POLL_INTERVAL_MS" default:"500"`
		JobRetentionMinutes   int `envconfig:"JOB_RETENTION_MINUTES" default:"30"`

		// Caching
		CatalogCacheTTLInSeconds           int    `envconfig:"CATALOG_CACHE_TTL_IN_SECONDS" default:"3600"`
		LyricsCacheTTLInSeconds            int    `envconfig:"LYRICS_CACHE_TTL_IN_SECONDS" default:"300"`
		CacheInvalidationIntervalInSeconds int    `envconfig:"CACHE_INVALIDATION_INTERVAL_IN_SECONDS" default:"600"`
		CatalogCachePath                   string `envconfig:"CATALOG_CACHE_PATH" default:"./data/catalog.db"`

		// Circuit breaker for the Spotify catalog upstream
		CircuitBreakerThreshold    int `envconfig:"CIRCUIT_BREAKER_THRESHOLD" default:"5"`
		CircuitBreakerCooldownSecs int `envconfig:"CIRCUIT_BREAKER_COOLDOWN_SECS" default:"300"`
	}

	FeatureFlags struct {
		CacheCompression bool `envconfig:"FF_CACHE_COMPRESSION" default:"true"`
	}
}

// load loads the configuration from the environment.
func load() (Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Warnf("Error loading env config: %v", err)
	}

	cfg := Config{}
	err = envconfig.Process("", &cfg)
	return cfg, err
}

func mustLoad() Config {
	c, err := load()
	if err != nil {
		log.WithError(err).Warnf("Unable to load configuration")
	}

	return c
}

func Get() Config {
	return conf
}
