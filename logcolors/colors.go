package logcolors

// ANSI color codes for log prefixes
const (
	Reset  = "\033[0m"
	Green  = "\033[32m"
	Blue   = "\033[34m"
	Purple = "\033[35m"
	Cyan   = "\033[36m"
	Red    = "\033[31m"
)

// Cache-related log prefixes
const (
	LogCacheInit    = Blue + "[Cache:Init]" + Reset
	LogCache        = Blue + "[Cache]" + Reset
	LogCacheCatalog = Green + "[Cache:Catalog]" + Reset
	LogCacheLyrics  = Green + "[Cache:Lyrics]" + Reset
	LogCacheClear   = Blue + "[Cache:Clear]" + Reset
	LogCacheSweep   = Cyan + "[Cache:Sweep]" + Reset
)

// Rate limiting log prefixes
const (
	LogRateLimit = Purple + "[RateLimit]" + Reset
)

// Server/Init log prefixes
const (
	LogServer = Green + "[Server]" + Reset
	LogConfig = Cyan + "[Config]" + Reset
	LogStats  = Blue + "[Stats]" + Reset
)

// Domain log prefixes
const (
	LogLyrics  = Blue + "[Lyrics]" + Reset
	LogCatalog = Cyan + "[Catalog]" + Reset
	LogToken   = Cyan + "[Token]" + Reset
	LogBatch   = Green + "[Batch]" + Reset
	LogJob     = Green + "[Job]" + Reset
	LogArchive = Blue + "[Archive]" + Reset
	LogHTTP    = Cyan + "[HTTP]" + Reset
	LogWarning = Red + "[Warning]" + Reset
)

// CircuitBreakerPrefix returns a colored circuit breaker prefix with the given name
func CircuitBreakerPrefix(name string) string {
	return Purple + "[CircuitBreaker:" + name + "]" + Reset
}
