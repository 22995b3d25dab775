package shortener

import (
	"math/rand/v2"
	"sync"

	"github.com/jaevor/go-nanoid"
)

// CodeGenerator produces a candidate code. Implementations must be safe for concurrent use.
type CodeGenerator func() Code

// NewCodeGenerator returns a generator backed by crypto/rand through nanoid.
func NewCodeGenerator(alphabet string, length int) (CodeGenerator, error) {
	if err := checkShape(alphabet, length); err != nil {
		return nil, err
	}

	gen, err := nanoid.CustomASCII(alphabet, length)
	if err != nil {
		return nil, err
	}

	return func() Code { return Code(gen()) }, nil
}

// Source picks an index in [0, n).
type Source interface {
	IntN(n int) int
}

// NewSourceGenerator returns a generator drawing every position from src.
// It exists so callers can plug in deterministic sources.
func NewSourceGenerator(alphabet string, length int, src Source) (CodeGenerator, error) {
	if err := checkShape(alphabet, length); err != nil {
		return nil, err
	}

	return func() Code {
		b := make([]byte, length)
		for i := range b {
			b[i] = alphabet[src.IntN(len(alphabet))]
		}

		return Code(b)
	}, nil
}

// LockedSource serializes access to a *rand.Rand so it can be shared across goroutines.
type LockedSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewLockedSource creates a seeded, goroutine-safe source.
func NewLockedSource(seed1, seed2 uint64) *LockedSource {
	return &LockedSource{rnd: rand.New(rand.NewPCG(seed1, seed2))}
}

func (s *LockedSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.rnd.IntN(n)
}

func checkShape(alphabet string, length int) error {
	if len(alphabet) == 0 {
		return ErrInvalidAlphabet
	}

	if length <= 0 {
		return ErrInvalidLength
	}

	return nil
}
