// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values let the handler layer distinguish
// failure scenarios instead of collapsing every store problem into a
// generic message: a missing movie maps to HTTP 404, a stale version to
// 409, a path/payload id disagreement to 400, and anything else to a
// logged 500.
package repository

import "errors"

// ErrEmailExists is returned when a registration reuses an email that is
// already present in the users table.
var ErrEmailExists = errors.New("email already exists")

// ErrMovieNotFound is returned when no movie row matches the requested id
// (or, for bulk deletes, when none of the ids match).
var ErrMovieNotFound = errors.New("movie not found")

// ErrIDMismatch is returned by Update when the id in the URL path and the
// id carried in the payload disagree.
var ErrIDMismatch = errors.New("movie id does not match")

// ErrVersionConflict is returned when an update's optimistic concurrency
// token no longer matches the stored row, i.e. the movie changed between
// the caller's read and write.
var ErrVersionConflict = errors.New("movie was modified concurrently")
