package main

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"lyrics-downloader-go/logcolors"
	"lyrics-downloader-go/utils"
)

// lyricsCache is the short-lived in-memory cache for single-track
// lyrics responses. It is deliberately not persisted.
var lyricsCache sync.Map

func getCache(key string) (string, bool) {
	entry, ok := lyricsCache.Load(key)
	if !ok {
		return "", false
	}
	cacheEntry := entry.(CacheEntry)
	if time.Now().UnixNano() > cacheEntry.Expiration {
		lyricsCache.Delete(key)
		return "", false
	}
	if conf.FeatureFlags.CacheCompression {
		decompressedValue, err := utils.DecompressString(cacheEntry.Value)
		if err != nil {
			log.Errorf("%s Error decompressing cache value: %v", logcolors.LogCacheLyrics, err)
			return "", false
		}
		return decompressedValue, true
	}
	return cacheEntry.Value, true
}

func setCache(key, value string, duration time.Duration) {
	stored := value
	if conf.FeatureFlags.CacheCompression {
		compressedValue, err := utils.CompressString(value)
		if err != nil {
			log.Errorf("%s Error compressing cache value: %v", logcolors.LogCacheLyrics, err)
			return
		}
		stored = compressedValue
	}
	lyricsCache.Store(key, CacheEntry{
		Value:      stored,
		Expiration: time.Now().Add(duration).UnixNano(),
	})
}

// invalidateLyricsCache deletes expired entries and reports how many
// were dropped. Scheduled from main.
func invalidateLyricsCache() int {
	removed := 0
	now := time.Now().UnixNano()
	lyricsCache.Range(func(key, value interface{}) bool {
		if now > value.(CacheEntry).Expiration {
			lyricsCache.Delete(key)
			removed++
		}
		return true
	})
	if removed > 0 {
		log.Infof("%s Dropped %d expired lyrics entries", logcolors.LogCacheSweep, removed)
	}
	return removed
}

// clearLyricsCache empties the in-memory lyrics cache, returning the
// number of entries removed.
func clearLyricsCache() int {
	removed := 0
	lyricsCache.Range(func(key, _ interface{}) bool {
		lyricsCache.Delete(key)
		removed++
		return true
	})
	return removed
}
