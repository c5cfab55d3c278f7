package main

import (
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"lyrics-downloader-go/batch"
	"lyrics-downloader-go/cache"
	"lyrics-downloader-go/circuitbreaker"
	"lyrics-downloader-go/config"
	"lyrics-downloader-go/logcolors"
	"lyrics-downloader-go/middleware"
	"lyrics-downloader-go/services/lyrics"
	"lyrics-downloader-go/services/spotify"
)

var conf = config.Get()

var (
	catalogCache   *cache.PersistentCache
	catalogBreaker *circuitbreaker.CircuitBreaker
	catalogClient  *spotify.Client
	lyricsClient   *lyrics.Client
	jobManager     *batch.Manager
)

func init() {
	log.SetFormatter(&log.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel) // Set to InfoLevel (change to DebugLevel for detailed logs)

	err := godotenv.Load()
	if err != nil {
		log.Warn("Error loading .env file, using environment variables")
	}
}

func main() {
	var err error
	catalogCache, err = cache.NewPersistentCache(conf.Configuration.CatalogCachePath, conf.FeatureFlags.CacheCompression)
	if err != nil {
		log.Fatalf("%s Failed to open catalog cache: %v", logcolors.LogCacheInit, err)
	}
	defer catalogCache.Close()

	catalogBreaker = circuitbreaker.New(circuitbreaker.Config{
		Name:      "spotify-catalog",
		Threshold: conf.Configuration.CircuitBreakerThreshold,
		Cooldown:  time.Duration(conf.Configuration.CircuitBreakerCooldownSecs) * time.Second,
	})

	catalogClient = spotify.NewClient(catalogCache, catalogBreaker)
	lyricsClient = lyrics.NewClient(conf.Configuration.LyricsAPIBase)
	jobManager = batch.NewManager(lyricsClient)

	scheduler := startSchedulers()
	defer scheduler.Stop()

	router := mux.NewRouter()
	setupRoutes(router)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	})

	limiter := middleware.NewIPRateLimiter(rate.Limit(conf.Configuration.RateLimitPerSecond), conf.Configuration.RateLimitBurstLimit)

	loggedRouter := middleware.LoggingMiddleware(router)
	corsHandler := c.Handler(loggedRouter)
	handler := limitMiddleware(corsHandler, limiter)

	port := conf.Configuration.Port
	log.Infof("%s Server listening on port %s", logcolors.LogServer, port)
	log.Fatal(http.ListenAndServe(":"+port, handler))
}
