package constants

import "time"

// Session and context keys
const (
	SessionCookieName = "project_session"
	ContextKeyUserID  = "user_id"
	ContextKeyUser    = "user"
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Auth
const MinPasswordLength = 8

// Notifications and sweeps
const (
	DefaultDedupWindow     = 24 * time.Hour
	DefaultDueSoonHorizon  = 24 * time.Hour
	DefaultDueSoonInterval = time.Hour
	DefaultOverdueInterval = 24 * time.Hour
)

// MaxAIGeneratedTasks caps the number of drafts returned by task generation.
const MaxAIGeneratedTasks = 20
