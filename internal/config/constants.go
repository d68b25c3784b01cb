package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerWriteTimeout    = 75 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Audit writes run detached from the request so a cancelled client does not
// drop the entry.
const AuditWriteTimeout = 5 * time.Second

// Background job intervals
const PartnershipExpiryInterval = 15 * time.Minute

// Upload limits
const (
	MaxImageSize        = 5 << 20
	MaxImagesPerUpload  = 10
	MaxUploadFormMemory = 8 << 20
	// Whole multipart body, files plus form overhead.
	MaxUploadBodySize = MaxImagesPerUpload*MaxImageSize + 1<<20
)

// Metadata scraper limits
const (
	ScraperMaxURLs      = 20
	ScraperConcurrency  = 5
	ScraperFetchTimeout = 10 * time.Second
	ScraperMaxBodySize  = 2 << 20
)

// Public clinic intake rate limit
const (
	PublicIntakeLimit  = 10
	PublicIntakeWindow = time.Minute
)
