// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers and middleware to distinguish between different failure
// scenarios without inspecting SQL errors directly. For example,
// ErrNotFound indicates that a referenced entity is absent, while
// ErrConflict signals a duplicate unique key.
package repository

import "errors"

// ErrNotFound is returned when a requested entity does not exist.
// Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an insert collides with an existing
// unique key, such as creating a user with a handle that is already
// taken. Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")
