package shortener

import (
	"time"

	"github.com/google/uuid"
)

// Mapping is the persisted association between a code and its long URL.
// It is immutable once built.
type Mapping struct {
	id        uuid.UUID
	code      Code
	longURL   string
	shortURL  string
	createdAt time.Time
}

// NewMapping validates code and builds a Mapping with a fresh id and creation time.
func NewMapping(code Code, longURL, shortURL string) (Mapping, error) {
	return RestoreMapping(uuid.New(), code, longURL, shortURL, time.Now().UTC())
}

// RestoreMapping rebuilds a Mapping read back from a store.
func RestoreMapping(id uuid.UUID, code Code, longURL, shortURL string, createdAt time.Time) (Mapping, error) {
	if err := code.Validate(); err != nil {
		return Mapping{}, err
	}

	return Mapping{
		id:        id,
		code:      code,
		longURL:   longURL,
		shortURL:  shortURL,
		createdAt: createdAt,
	}, nil
}

func (m Mapping) ID() uuid.UUID        { return m.id }
func (m Mapping) Code() Code           { return m.code }
func (m Mapping) LongURL() string      { return m.longURL }
func (m Mapping) ShortURL() string     { return m.shortURL }
func (m Mapping) CreatedAt() time.Time { return m.createdAt }

// IsZero reports whether m was never built by NewMapping or RestoreMapping.
func (m Mapping) IsZero() bool {
	return m.code == ""
}
