package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

// Skip reasons reported in ingest counters. Records skipped under a
// named reason are inspectable after a run; they are never errors.
const (
	SkipUnknownEvent    = "unknown_event"
	SkipUnparseable     = "unparseable_performance"
	SkipAmbiguous       = "ambiguous_performance"
	SkipAlreadyImported = "already_imported"
	SkipInvalidRecord   = "invalid_record"
)
