// Package storage implements Postgres persistence for users and reports.
package storage

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("storage: not found")
	// ErrEmailTaken indicates another user already owns the email address.
	ErrEmailTaken = errors.New("storage: email already taken")
)
