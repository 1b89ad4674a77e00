package config

// RemotePrefetchEnabled controls the best-effort ledger lookup that fills a
// fresh draft when nothing is cached on the device.
//
// Set via env:
// - REMOTE_PREFETCH=false
func RemotePrefetchEnabled() bool {
	return envBoolDefault("REMOTE_PREFETCH", true)
}

// RateLimitEnabled turns on the redis-backed limiter in front of the gateway.
//
// Set via env:
// - RATE_LIMIT_ENABLED=true
// - RATE_LIMIT_WINDOW_SECONDS=60
// - RATE_LIMIT_MAX_REQUESTS=600
func RateLimitEnabled() bool {
	return envBoolDefault("RATE_LIMIT_ENABLED", false)
}
