package container

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/shortlink/internal/audit"
	"github.com/serroba/shortlink/internal/handlers"
	"github.com/serroba/shortlink/internal/health"
	"github.com/serroba/shortlink/internal/messaging"
	"github.com/serroba/shortlink/internal/metrics"
	"github.com/serroba/shortlink/internal/middleware"
	"github.com/serroba/shortlink/internal/shortener"
	"github.com/serroba/shortlink/internal/store"
	"go.uber.org/zap"
)

// MetricsPath serves Prometheus metrics. The dash keeps it outside the code alphabet.
const MetricsPath = "/-/metrics"

// auditConsumerGroup is the Redis stream consumer group of the audit consumer.
const auditConsumerGroup = "audit"

// RedisClient wraps the shared client so the injector closes it on shutdown.
type RedisClient struct {
	*redis.Client
}

func (c *RedisClient) Shutdown() error {
	return c.Close()
}

// New validates options and registers every server package.
func New(options *Options) (*do.Injector, error) {
	if err := options.Validate(); err != nil {
		return nil, err
	}

	injector := do.New()
	do.ProvideValue(injector, options)
	LoggerPackage(injector)
	RedisPackage(injector)
	PostgresPackage(injector)
	SQLitePackage(injector)
	RepositoryPackage(injector)
	MetricsPackage(injector)
	ShortenerPackage(injector)
	PublisherPackage(injector)
	HTTPPackage(injector)

	return injector, nil
}

func LoggerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*zap.Logger, error) {
		opts := do.MustInvoke[*Options](i)

		return NewLogger(opts.LogFormat)
	})
}

// NewLogger builds a production JSON logger or a development console logger.
func NewLogger(format string) (*zap.Logger, error) {
	switch format {
	case LogFormatConsole:
		return zap.NewDevelopment()
	case LogFormatJSON, "":
		return zap.NewProduction()
	default:
		return nil, fmt.Errorf("%w: unknown log format %q", ErrInvalidOptions, format)
	}
}

func RedisPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*RedisClient, error) {
		opts := do.MustInvoke[*Options](i)

		return &RedisClient{Client: redis.NewClient(&redis.Options{Addr: opts.RedisAddr})}, nil
	})
}

func PostgresPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*store.PostgresStore, error) {
		opts := do.MustInvoke[*Options](i)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		pool, err := pgxpool.New(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}

		return store.NewPostgresStore(pool), nil
	})
}

func SQLitePackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*store.SQLiteStore, error) {
		opts := do.MustInvoke[*Options](i)

		db, err := store.OpenSQLite(opts.DBFile)
		if err != nil {
			return nil, err
		}

		return store.NewSQLiteStore(db), nil
	})
}

func RepositoryPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (shortener.Repository, error) {
		opts := do.MustInvoke[*Options](i)

		var repo shortener.Repository

		switch opts.Store {
		case StoreSQLite:
			sqlite, err := do.Invoke[*store.SQLiteStore](i)
			if err != nil {
				return nil, err
			}

			repo = sqlite
		case StorePostgres:
			pg, err := do.Invoke[*store.PostgresStore](i)
			if err != nil {
				return nil, err
			}

			repo = pg
		case StoreRedis:
			return store.NewRedisStore(do.MustInvoke[*RedisClient](i).Client), nil
		default:
			return store.NewMemoryStore(), nil
		}

		if !opts.Cache {
			return repo, nil
		}

		return store.NewRedisCacheRepository(
			repo,
			do.MustInvoke[*RedisClient](i).Client,
			time.Duration(opts.CacheTTL)*time.Second,
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
}

func MetricsPackage(i *do.Injector) {
	do.Provide(i, func(_ *do.Injector) (*prometheus.Registry, error) {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		return reg, nil
	})

	do.Provide(i, func(i *do.Injector) (*metrics.Allocation, error) {
		return metrics.NewAllocation(do.MustInvoke[*prometheus.Registry](i)), nil
	})
}

func ShortenerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*shortener.Allocator, error) {
		opts := do.MustInvoke[*Options](i)

		repo, err := do.Invoke[shortener.Repository](i)
		if err != nil {
			return nil, err
		}

		generator, err := shortener.NewCodeGenerator(shortener.Alphabet, shortener.CodeLength)
		if err != nil {
			return nil, err
		}

		return shortener.NewAllocator(
			repo,
			generator,
			do.MustInvoke[*zap.Logger](i),
			shortener.WithMaxAttempts(opts.MaxAttempts),
			shortener.WithObserver(do.MustInvoke[*metrics.Allocation](i)),
		), nil
	})

	do.Provide(i, func(i *do.Injector) (*shortener.Resolver, error) {
		repo, err := do.Invoke[shortener.Repository](i)
		if err != nil {
			return nil, err
		}

		return shortener.NewResolver(repo), nil
	})
}

func PublisherPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		publisher, err := messaging.NewRedisPublisher(
			do.MustInvoke[*RedisClient](i).Client,
			do.MustInvoke[*zap.Logger](i),
		)
		if err != nil {
			return nil, fmt.Errorf("create publisher: %w", err)
		}

		return messaging.NewPublisherGroup(publisher), nil
	})

	do.Provide(i, func(i *do.Injector) (messaging.Publish[audit.MappingClaimedEvent], error) {
		if !do.MustInvoke[*Options](i).Events {
			return messaging.NopPublish[audit.MappingClaimedEvent](), nil
		}

		group, err := do.Invoke[*messaging.PublisherGroup](i)
		if err != nil {
			return nil, err
		}

		return messaging.NewPublishFunc[audit.MappingClaimedEvent](group.Publisher(), audit.TopicMappingClaimed), nil
	})
}

func HTTPPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*chi.Mux, error) {
		router := chi.NewMux()
		router.Handle(MetricsPath, metrics.Handler(do.MustInvoke[*prometheus.Registry](i)))

		return router, nil
	})

	do.Provide(i, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		api := humachi.New(do.MustInvoke[*chi.Mux](i), huma.DefaultConfig("Short Link", "1.0.0"))
		api.UseMiddleware(middleware.RequestMeta(api))

		allocator, err := do.Invoke[*shortener.Allocator](i)
		if err != nil {
			return nil, err
		}

		resolver, err := do.Invoke[*shortener.Resolver](i)
		if err != nil {
			return nil, err
		}

		publish, err := do.Invoke[messaging.Publish[audit.MappingClaimedEvent]](i)
		if err != nil {
			return nil, err
		}

		checks, err := healthChecks(i, opts)
		if err != nil {
			return nil, err
		}

		handlers.RegisterRoutes(api, handlers.NewURLHandler(allocator, resolver, opts.BaseURL, publish, logger))
		health.RegisterRoutes(api, health.NewHandler(checks))

		return api, nil
	})
}

func healthChecks(i *do.Injector, opts *Options) (map[string]health.Checker, error) {
	checks := make(map[string]health.Checker)

	switch opts.Store {
	case StoreSQLite:
		sqlite, err := do.Invoke[*store.SQLiteStore](i)
		if err != nil {
			return nil, err
		}

		checks[StoreSQLite] = sqlite
	case StorePostgres:
		pg, err := do.Invoke[*store.PostgresStore](i)
		if err != nil {
			return nil, err
		}

		checks[StorePostgres] = pg
	}

	if opts.usesRedis() {
		checks[StoreRedis] = health.NewRedisChecker(do.MustInvoke[*RedisClient](i).Client)
	}

	return checks, nil
}

// ConsumerPackage registers the audit consumer group for the consumer binary.
func ConsumerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		logger := do.MustInvoke[*zap.Logger](i)

		subscriber, err := messaging.NewRedisSubscriber(do.MustInvoke[*RedisClient](i).Client, auditConsumerGroup, logger)
		if err != nil {
			return nil, fmt.Errorf("create subscriber: %w", err)
		}

		return newAuditGroup(subscriber, logger), nil
	})
}

func newAuditGroup(subscriber message.Subscriber, logger *zap.Logger) *messaging.ConsumerGroup {
	recorder := audit.NewRecorder(logger)

	group := messaging.NewConsumerGroup(subscriber, logger)
	group.Add(messaging.NewConsumer(subscriber, audit.TopicMappingClaimed, recorder.RecordMappingClaimed, logger))

	return group
}
