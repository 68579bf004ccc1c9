package terminology

import "errors"

// ErrNotFound is returned when a requested concept does not exist in the store.
var ErrNotFound = errors.New("terminology: concept not found")
