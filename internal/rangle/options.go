package rangle

import "fmt"

const (
	DefaultMaxClientChunks       = 5
	DefaultMinValidChunkRatio    = 0.9
	DefaultMaxClientStorageRatio = 1.2
)

// Options configures a single reconciliation. Zero fields take their defaults.
// A negative MaxClientStorageRatio disables the storage ratio guard.
type Options struct {
	Path                  string
	MaxClientChunks       int
	MinValidChunkRatio    float64
	MaxClientStorageRatio float64
}

// DefaultOptions returns the options used when a caller passes the zero value
func DefaultOptions() Options {
	return Options{}.withDefaults()
}

func (o Options) withDefaults() Options {
	if o.Path == "" {
		o.Path = DefaultPath
	}
	if o.MaxClientChunks == 0 {
		o.MaxClientChunks = DefaultMaxClientChunks
	}
	if o.MinValidChunkRatio == 0 {
		o.MinValidChunkRatio = DefaultMinValidChunkRatio
	}
	if o.MaxClientStorageRatio == 0 {
		o.MaxClientStorageRatio = DefaultMaxClientStorageRatio
	}
	return o
}

// storageGuard reports whether the client storage ratio check is enabled
func (o Options) storageGuard() bool {
	return o.MaxClientStorageRatio > 0
}

// Validate checks the options after defaults are applied
func (o Options) Validate() error {
	o = o.withDefaults()

	if err := ValidatePath(o.Path); err != nil {
		return err
	}
	// consolidation merges two chunks, so the ceiling needs room for a pair
	if o.MaxClientChunks < 2 {
		return fmt.Errorf("%w: maxClientChunks must be at least 2, got %d", ErrInvalidOptions, o.MaxClientChunks)
	}
	if o.MinValidChunkRatio < 0 || o.MinValidChunkRatio > 1 {
		return fmt.Errorf("%w: minValidChunkRatio must be in (0,1], got %g", ErrInvalidOptions, o.MinValidChunkRatio)
	}
	if o.storageGuard() && o.MaxClientStorageRatio <= 1 {
		return fmt.Errorf("%w: maxClientStorageRatio must be greater than 1, got %g", ErrInvalidOptions, o.MaxClientStorageRatio)
	}
	return nil
}
