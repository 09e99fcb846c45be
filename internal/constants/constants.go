package constants

import "time"

// Context keys
const (
	ContextKeyUser      = "current_user"
	ContextKeyRequestID = "request_id"
	ContextKeyTaskID    = "task_id"

	HeaderRequestID = "X-Request-ID"
)

// Auth
const (
	MinPasswordLength = 8
	DefaultTokenTTL   = 2 * time.Hour
	BearerPrefix      = "Bearer "

	// TokenStorageKey is the key the client persists its bearer token under.
	TokenStorageKey = "primecode_token"
)

// Field bounds
const (
	MinNameLength        = 2
	MaxNameLength        = 60
	MaxBioLength         = 240
	MinTitleLength       = 2
	MaxTitleLength       = 120
	MaxDescriptionLength = 400
	MaxTagLength         = 40
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Server
const (
	DefaultBodyLimit = 1 << 20
)
