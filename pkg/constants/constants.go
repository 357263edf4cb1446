// Package constants provides shared constants used throughout the groupsync
// codebase. This includes the sync tag convention, timeouts, retry limits,
// and paging sizes that should be consistent across the application.
package constants

import "time"

// Sync tag constants define the externalId convention that marks a target
// group as owned by this engine.
const (
	// SyncTag is the prefix written into a target group's externalId.
	SyncTag = "DDG"

	// SyncTagDelimiter separates the tag from the source group's stable id.
	SyncTagDelimiter = ";"
)

// Timeout and pacing constants
const (
	// DefaultHTTPTimeout is the standard timeout for HTTP requests to the
	// target directory API.
	DefaultHTTPTimeout = 30 * time.Second

	// MutationPause is the courtesy delay between consecutive mutating API
	// calls. Skipped entirely in dry-run mode.
	MutationPause = 500 * time.Millisecond

	// RetryDelay is the base backoff duration between retry attempts.
	// The effective delay grows linearly with the attempt number.
	RetryDelay = 2 * time.Second

	// UserCacheTTL is how long a fetched target-user snapshot stays fresh.
	UserCacheTTL = 15 * time.Minute
)

// Limit constants
const (
	// MaxRetries is the maximum number of attempts for a remote operation.
	MaxRetries = 3

	// UsersPerPage is the page size for target-user listings.
	UsersPerPage = 1000

	// GroupsPerPage is the page size for target-group listings.
	GroupsPerPage = 1000

	// MaxPages caps pagination loops against a misbehaving endpoint.
	MaxPages = 1000
)

// Identity constants
const (
	// MinCloudUserID is the lowest id the target service assigns to regular
	// cloud accounts. Entries below it are service or portal artifacts and
	// are excluded from sync.
	MinCloudUserID = 1130000000000000
)

// File permission constants
const (
	// DirPermissions is the default permission for created directories.
	DirPermissions = 0755

	// FilePermissions is the default permission for created files.
	FilePermissions = 0644
)

// Roster file constants
const (
	// RosterFilePrefix is prepended to the group display name when locating
	// its membership export file.
	RosterFilePrefix = "Группа_рассылки_"

	// RosterDelimiter is the field separator used by membership exports.
	RosterDelimiter = ';'
)
