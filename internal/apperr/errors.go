// Package apperr defines the sentinel errors shared across the servers.
package apperr

import "errors"

var (
	// ErrInvalidInput marks a request rejected by validation before any write.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound marks a referenced deck, card, or note that must pre-exist.
	ErrNotFound = errors.New("not found")
	// ErrPathEscape marks a resolved file path outside the vault root.
	ErrPathEscape = errors.New("path escapes vault root")
	// ErrUpstream marks an unreachable collaborator (embedding API, scripting bridge).
	ErrUpstream = errors.New("upstream unavailable")
)
