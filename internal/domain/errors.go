// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a concurrent modification conflict (optimistic locking).
var ErrConflict = errors.New("conflict: resource was modified by another request")

// ErrValidation indicates invalid input rejected before any work began.
var ErrValidation = errors.New("validation failed")

// ErrIllegalTransition indicates an attempted status change that is not in the
// legal edge set for the article's current status.
var ErrIllegalTransition = errors.New("illegal status transition")
