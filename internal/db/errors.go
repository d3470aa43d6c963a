// Package db holds errors shared by the storage backends.
package db

import "errors"

// ErrKeyNotFound signals a cache miss.
var ErrKeyNotFound = errors.New("key not found")
