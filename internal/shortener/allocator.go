package shortener

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// DefaultMaxAttempts caps claim attempts per allocation. With 62^7 codes a
// healthy store never gets close.
const DefaultMaxAttempts = 16

var ErrKeySpaceExhausted = errors.New("no free code found within the attempt limit")

// ClaimOutcome classifies a single TryClaim call.
type ClaimOutcome string

const (
	OutcomeClaimed  ClaimOutcome = "claimed"
	OutcomeConflict ClaimOutcome = "conflict"
	OutcomeError    ClaimOutcome = "error"
)

// Observer receives allocation telemetry.
type Observer interface {
	ObserveClaim(outcome ClaimOutcome)
	ObserveAllocation(attempts int, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveClaim(ClaimOutcome)            {}
func (nopObserver) ObserveAllocation(int, time.Duration) {}

// Option configures an Allocator.
type Option func(*Allocator)

// WithMaxAttempts overrides DefaultMaxAttempts. Values below 1 are ignored.
func WithMaxAttempts(n int) Option {
	return func(a *Allocator) {
		if n > 0 {
			a.maxAttempts = n
		}
	}
}

// WithObserver attaches an Observer.
func WithObserver(o Observer) Option {
	return func(a *Allocator) {
		if o != nil {
			a.observer = o
		}
	}
}

// Allocator hands out codes that are unique in the store.
type Allocator struct {
	store        Repository
	generateCode CodeGenerator
	maxAttempts  int
	observer     Observer
	logger       *zap.Logger
}

// NewAllocator creates an allocator claiming generated codes in store.
func NewAllocator(store Repository, generator CodeGenerator, logger *zap.Logger, opts ...Option) *Allocator {
	a := &Allocator{
		store:        store,
		generateCode: generator,
		maxAttempts:  DefaultMaxAttempts,
		observer:     nopObserver{},
		logger:       logger,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Allocate claims a fresh code for longURL and returns the stored mapping.
// baseOrigin (scheme and host) is combined with the code to build the short URL.
func (a *Allocator) Allocate(ctx context.Context, longURL, baseOrigin string) (Mapping, error) {
	start := time.Now()

	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Mapping{}, err
		}

		code := a.generateCode()

		candidate, err := NewMapping(code, longURL, ShortURL(baseOrigin, code))
		if err != nil {
			return Mapping{}, fmt.Errorf("generated code rejected: %w", err)
		}

		stored, claimed, err := a.store.TryClaim(ctx, candidate)
		if err != nil {
			a.observer.ObserveClaim(OutcomeError)

			return Mapping{}, fmt.Errorf("claim code %s: %w", code, err)
		}

		if claimed {
			a.observer.ObserveClaim(OutcomeClaimed)
			a.observer.ObserveAllocation(attempt, time.Since(start))

			return stored, nil
		}

		a.observer.ObserveClaim(OutcomeConflict)
		a.logger.Debug("code collision, retrying",
			zap.String("code", string(code)),
			zap.Int("attempt", attempt),
		)
	}

	a.observer.ObserveAllocation(a.maxAttempts, time.Since(start))
	a.logger.Error("code allocation exhausted attempts",
		zap.Int("maxAttempts", a.maxAttempts),
	)

	return Mapping{}, ErrKeySpaceExhausted
}
