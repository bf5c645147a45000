package store

import "errors"

var (
	// ErrNilDB indicates the store was constructed without a database handle
	ErrNilDB = errors.New("store: db is nil")
)
