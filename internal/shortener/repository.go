package shortener

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("mapping not found")

// Repository is the mapping store. The store, not the caller, guarantees code uniqueness.
type Repository interface {
	// TryClaim inserts m if and only if no mapping with the same code exists.
	// On conflict it returns claimed == false, a nil error and writes nothing.
	TryClaim(ctx context.Context, m Mapping) (stored Mapping, claimed bool, err error)

	// Lookup fetches a mapping by exact code. It returns ErrNotFound on a miss.
	Lookup(ctx context.Context, code Code) (Mapping, error)
}
