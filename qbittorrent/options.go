package qbittorrent

import "time"

// Option configures a Client.
type Option func(*clientOptions)

// clientOptions holds configuration options for the Client.
type clientOptions struct {
	trackerCacheSize int
	trackerCacheTTL  time.Duration
	requestsPerSec   float64
	burst            int
	skipVerify       bool
}

func defaultOptions() clientOptions {
	return clientOptions{
		trackerCacheSize: 2048,
		trackerCacheTTL:  6 * time.Hour,
		requestsPerSec:   5,
		burst:            5,
	}
}

// WithTrackerCache sets the size and lifetime of the per-torrent tracker cache.
func WithTrackerCache(size int, ttl time.Duration) Option {
	return func(o *clientOptions) {
		if size > 0 {
			o.trackerCacheSize = size
		}
		if ttl >= 0 {
			o.trackerCacheTTL = ttl
		}
	}
}

// WithRateLimit limits per-torrent API lookups to rps requests per second.
// A non-positive rps disables the limit.
func WithRateLimit(rps float64, burst int) Option {
	return func(o *clientOptions) {
		o.requestsPerSec = rps
		if burst > 0 {
			o.burst = burst
		}
	}
}

// WithInsecureSkipVerify disables certificate verification.
// Use with caution and only for development/testing.
func WithInsecureSkipVerify() Option {
	return func(o *clientOptions) {
		o.skipVerify = true
	}
}
