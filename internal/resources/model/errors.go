package model

import "fmt"

// ErrKind is the closed taxonomy of reasons a load can fail internally.
// None of these ever reach a Loader.Load caller directly — per spec,
// load() only distinguishes "found" from "not found" to its caller, but
// the kind drives which log line and counter a failure increments.
type ErrKind int

const (
	ErrKindNone ErrKind = iota
	ErrKindParse
	ErrKindSchema
	ErrKindIO
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindParse:
		return "ParseError"
	case ErrKindSchema:
		return "SchemaError"
	case ErrKindIO:
		return "IoError"
	default:
		return "NoError"
	}
}

// LoadError carries the kind, the offending path, and the id of one load
// failure in a single value. The loaders log their failures directly
// and do not construct it.
type LoadError struct {
	Kind ErrKind
	ID   string
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: id=%s path=%s: %v", e.Kind, e.ID, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: id=%s: %v", e.Kind, e.ID, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// CacheStats tracks hit/miss/error counts for a loader's cache,
// consulted by observability and by tests asserting cache coherence.
type CacheStats struct {
	Hits   int
	Misses int
	Errors int
}
