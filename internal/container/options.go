package container

import (
	"errors"
	"fmt"
	"net/url"
)

const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreRedis    = "redis"

	LogFormatJSON    = "json"
	LogFormatConsole = "console"
)

var ErrInvalidOptions = errors.New("invalid options")

// Options are read from flags or SERVICE_* environment variables.
type Options struct {
	Port        int    `default:"8888"                                 help:"Port to listen on"                            short:"p"`
	BaseURL     string `default:""                                     help:"Public origin of short URLs, per request if empty" short:"b"`
	Store       string `default:"memory"                               help:"Mapping store: memory, sqlite, postgres or redis" short:"s"`
	DBFile      string `default:"shortlink.db"                         help:"SQLite database file"`
	DatabaseURL string `default:"postgres://localhost:5432/shortlink" help:"Postgres connection string"`
	RedisAddr   string `default:"localhost:6379"                       help:"Redis server address"                         short:"r"`
	Cache       bool   `default:"false"                                help:"Cache lookups in Redis in front of sqlite or postgres"`
	CacheTTL    int    `default:"3600"                                 help:"Cache entry lifetime in seconds"`
	MaxAttempts int    `default:"16"                                   help:"Claim attempts per allocation before giving up"`
	Events      bool   `default:"false"                                help:"Publish audit events to Redis streams"`
	LogFormat   string `default:"json"                                 help:"Log format: json or console"`
}

// Validate reports the first invalid option.
func (o *Options) Validate() error {
	if o.Port < 1 || o.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidOptions, o.Port)
	}

	if o.BaseURL != "" {
		u, err := url.Parse(o.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: base url %q must be an absolute http(s) origin", ErrInvalidOptions, o.BaseURL)
		}
	}

	switch o.Store {
	case StoreMemory, StoreRedis:
		if o.Cache {
			return fmt.Errorf("%w: cache needs the sqlite or postgres store", ErrInvalidOptions)
		}
	case StoreSQLite:
		if o.DBFile == "" {
			return fmt.Errorf("%w: sqlite store needs a database file", ErrInvalidOptions)
		}
	case StorePostgres:
		if o.DatabaseURL == "" {
			return fmt.Errorf("%w: postgres store needs a database url", ErrInvalidOptions)
		}
	default:
		return fmt.Errorf("%w: unknown store %q", ErrInvalidOptions, o.Store)
	}

	if o.Cache && o.CacheTTL < 1 {
		return fmt.Errorf("%w: cache ttl must be positive", ErrInvalidOptions)
	}

	if o.MaxAttempts < 1 {
		return fmt.Errorf("%w: max attempts must be positive", ErrInvalidOptions)
	}

	if o.LogFormat != LogFormatJSON && o.LogFormat != LogFormatConsole {
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidOptions, o.LogFormat)
	}

	return nil
}

// usesRedis reports whether any configured component talks to Redis.
func (o *Options) usesRedis() bool {
	return o.Store == StoreRedis || o.Cache || o.Events
}
