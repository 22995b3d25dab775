package shortener

import "context"

// Resolver maps codes back to their long URLs.
type Resolver struct {
	store Repository
}

// NewResolver creates a resolver reading from store.
func NewResolver(store Repository) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the long URL for code, or ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, code Code) (string, error) {
	m, err := r.Lookup(ctx, code)
	if err != nil {
		return "", err
	}

	return m.LongURL(), nil
}

// Lookup returns the full mapping for code, or ErrNotFound.
func (r *Resolver) Lookup(ctx context.Context, code Code) (Mapping, error) {
	return r.store.Lookup(ctx, code)
}
