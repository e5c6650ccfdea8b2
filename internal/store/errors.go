package store

import "errors"

// ErrNotFound is returned when a row does not exist or a session has expired.
var ErrNotFound = errors.New("store: not found")
