// Package container wires the service together with samber/do. Each
// *Package function registers the providers of one concern.
package container

import (
	"context"
	"net/http"
	"time"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/jaevor/go-nanoid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/samber/do"
	"github.com/samber/oops"
	"github.com/serroba/linkkeeper/internal/account"
	"github.com/serroba/linkkeeper/internal/config"
	"github.com/serroba/linkkeeper/internal/handlers"
	"github.com/serroba/linkkeeper/internal/health"
	"github.com/serroba/linkkeeper/internal/mail"
	"github.com/serroba/linkkeeper/internal/messaging"
	"github.com/serroba/linkkeeper/internal/metrics"
	"github.com/serroba/linkkeeper/internal/middleware"
	"github.com/serroba/linkkeeper/internal/shortener"
	"github.com/serroba/linkkeeper/internal/store"
	"github.com/serroba/linkkeeper/internal/token"
	"go.uber.org/zap"
)

const (
	deliveryAttempts = 3
	deliveryBackoff  = 2 * time.Second
)

// Backend is the primary store holding accounts and links.
type Backend interface {
	account.Repository
	shortener.Repository
	Ping(ctx context.Context) error
}

// Redis owns the shared client so the injector can close it.
type Redis struct {
	Client redis.UniversalClient
}

// Shutdown closes the client.
func (r *Redis) Shutdown() error {
	return r.Client.Close()
}

func LoggerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*zap.Logger, error) {
		return NewLogger(do.MustInvoke[*Options](i).LogFormat)
	})
}

func RedisPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*Redis, error) {
		opts := do.MustInvoke[*Options](i)

		return &Redis{Client: redis.NewClient(&redis.Options{Addr: opts.RedisAddr})}, nil
	})
}

// PostgresPackage provides the Backend: PostgreSQL when a database URL is
// configured, otherwise an in-memory store.
func PostgresPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (Backend, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		if opts.DBURL == "" {
			logger.Warn("no database configured, data is kept in memory")

			return store.NewMemoryStore(), nil
		}

		pool, err := store.Connect(context.Background(), opts.DBURL, opts.DBName)
		if err != nil {
			return nil, err
		}

		return store.NewPostgresStore(pool), nil
	})
}

// RepositoryPackage exposes the Backend as the account repository and, behind
// the Redis cache, as the link repository.
func RepositoryPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (account.Repository, error) {
		return do.MustInvoke[Backend](i), nil
	})

	do.Provide(i, func(i *do.Injector) (*store.LinkCache, error) {
		opts := do.MustInvoke[*Options](i)

		return store.NewLinkCache(
			do.MustInvoke[Backend](i),
			do.MustInvoke[*Redis](i).Client,
			opts.cacheTTL(),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
}

// PublisherGroupPackage provides the Redis stream publisher and the mail
// dispatcher that publishes on it.
func PublisherGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{
			Client:     do.MustInvoke[*Redis](i).Client,
			Marshaller: redisstream.DefaultMarshallerUnmarshaller{},
		}, messaging.NewZapLogger(do.MustInvoke[*zap.Logger](i)))
		if err != nil {
			return nil, oops.Wrapf(err, "creating redis stream publisher")
		}

		return messaging.NewPublisherGroup(publisher), nil
	})

	do.Provide(i, func(i *do.Injector) (mail.Dispatcher, error) {
		generate, err := mail.NewTokenGenerator()
		if err != nil {
			return nil, err
		}

		group := do.MustInvoke[*messaging.PublisherGroup](i)

		return mail.NewQueueDispatcher(
			generate,
			messaging.NewPublishFunc[mail.DeliveryRequestedEvent](group.Publisher(), mail.TopicDelivery),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
}

// ServicePackage provides settings, the token issuer and the account and
// link services.
func ServicePackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*config.Settings, error) {
		opts := do.MustInvoke[*Options](i)

		return config.Load(opts.Config, opts.BaseURL())
	})

	do.Provide(i, func(i *do.Injector) (*token.Issuer, error) {
		opts := do.MustInvoke[*Options](i)

		return token.NewIssuer([]byte(opts.JWTKey), opts.tokenTTL())
	})

	do.Provide(i, func(i *do.Injector) (*account.Service, error) {
		settings := do.MustInvoke[*config.Settings](i)

		return account.NewService(
			do.MustInvoke[account.Repository](i),
			account.NewBcryptHasher(0),
			do.MustInvoke[*token.Issuer](i),
			do.MustInvoke[mail.Dispatcher](i),
			account.Templates{
				ActivationSubject: settings.Mail.ActivationSubject,
				ActivationMessage: settings.Mail.ActivationBody,
				ActivationLink:    settings.ActivationLink,
				ResetSubject:      settings.Mail.ResetSubject,
				ResetMessage:      settings.Mail.ResetBody,
				ResetLink:         settings.ResetLink,
			},
			do.MustInvoke[*zap.Logger](i),
		), nil
	})

	do.Provide(i, func(i *do.Injector) (*shortener.Service, error) {
		opts := do.MustInvoke[*Options](i)

		generate, err := nanoid.Standard(opts.CodeLength)
		if err != nil {
			return nil, oops.With("code_length", opts.CodeLength).Wrapf(err, "creating code generator")
		}

		return shortener.NewService(
			do.MustInvoke[*store.LinkCache](i),
			do.MustInvoke[account.Repository](i),
			generate,
			uint64(max(opts.CodeAttempts, 1)),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
}

// MetricsPackage provides a registry with the process collectors and the
// service counters.
func MetricsPackage(i *do.Injector) {
	do.Provide(i, func(_ *do.Injector) (*prometheus.Registry, error) {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		return reg, nil
	})

	do.Provide(i, func(i *do.Injector) (*metrics.Metrics, error) {
		return metrics.New(do.MustInvoke[*prometheus.Registry](i)), nil
	})
}

// HTTPPackage provides the router, the huma API with every route
// registered, and the CORS wrapped handler served by the process.
func HTTPPackage(i *do.Injector) {
	do.Provide(i, func(_ *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(i, func(i *do.Injector) (huma.API, error) {
		router := do.MustInvoke[*chi.Mux](i)
		logger := do.MustInvoke[*zap.Logger](i)
		opts := do.MustInvoke[*Options](i)
		m := do.MustInvoke[*metrics.Metrics](i)
		issuer := do.MustInvoke[*token.Issuer](i)

		router.Handle("/metrics", metrics.Handler(do.MustInvoke[*prometheus.Registry](i)))

		handlers.UseFailureEnvelope()

		api := humachi.New(router, huma.DefaultConfig("Link Keeper", "1.0.0"))
		api.UseMiddleware(
			middleware.RequestLogger(logger),
			middleware.Authenticate(api, issuer, logger),
		)

		health.RegisterRoutes(api, health.NewHandler(
			health.Dependency{Name: "database", Checker: do.MustInvoke[Backend](i)},
			health.Dependency{Name: "redis", Checker: health.NewRedisChecker(do.MustInvoke[*Redis](i).Client)},
		))

		accounts := do.MustInvoke[*account.Service](i)
		handlers.RegisterRoutes(api,
			handlers.NewAccountHandler(
				accounts,
				account.NewGuards(do.MustInvoke[account.Repository](i)),
				do.MustInvoke[*config.Settings](i),
				m,
				logger,
			),
			handlers.NewLinkHandler(do.MustInvoke[*shortener.Service](i), opts.BaseURL(), m, logger),
		)

		return api, nil
	})

	do.Provide(i, func(i *do.Injector) (http.Handler, error) {
		// Building the API registers every route on the router.
		api := do.MustInvoke[huma.API](i)
		do.MustInvoke[*zap.Logger](i).Debug("routes registered", zap.Int("paths", len(api.OpenAPI().Paths)))

		return cors.AllowAll().Handler(do.MustInvoke[*chi.Mux](i)), nil
	})
}

// ConsumerGroupPackage provides the mail delivery consumer reading the
// Redis stream.
func ConsumerGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (mail.Sender, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		if opts.MailSender != "ses" {
			return mail.NewLogSender(logger), nil
		}

		client, err := mail.NewSESClient(context.Background(), opts.SESConfig())
		if err != nil {
			return nil, err
		}

		return mail.NewSESSender(client, opts.MailFrom), nil
	})

	do.Provide(i, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		logger := do.MustInvoke[*zap.Logger](i)

		subscriber, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
			Client:        do.MustInvoke[*Redis](i).Client,
			Unmarshaller:  redisstream.DefaultMarshallerUnmarshaller{},
			ConsumerGroup: "mail-delivery",
		}, messaging.NewZapLogger(logger))
		if err != nil {
			return nil, oops.Wrapf(err, "creating redis stream subscriber")
		}

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(messaging.NewConsumer(
			subscriber,
			mail.TopicDelivery,
			mail.NewDeliveryHandler(do.MustInvoke[mail.Sender](i), logger),
			logger,
			messaging.WithAttempts(deliveryAttempts, deliveryBackoff),
		))

		return group, nil
	})
}
