package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/snake-eaterr/Snake-Way-Server/configs"
	"github.com/snake-eaterr/Snake-Way-Server/internal/adapter/cache"
	"github.com/snake-eaterr/Snake-Way-Server/internal/adapter/gql"
	"github.com/snake-eaterr/Snake-Way-Server/internal/adapter/http"
	"github.com/snake-eaterr/Snake-Way-Server/internal/adapter/http/middleware"
	"github.com/snake-eaterr/Snake-Way-Server/internal/adapter/kafka"
	"github.com/snake-eaterr/Snake-Way-Server/internal/adapter/queue"
	"github.com/snake-eaterr/Snake-Way-Server/internal/adapter/repo"
	"github.com/snake-eaterr/Snake-Way-Server/internal/logging"
	"github.com/snake-eaterr/Snake-Way-Server/internal/security"
	"github.com/snake-eaterr/Snake-Way-Server/internal/usecase"
)

const defaultDialTimeout = 10 * time.Second

// Options selects which parts of the process are wired. Operator commands
// only need the stores.
type Options struct {
	Messaging bool
	HTTP      bool
}

type App struct {
	Router  *gin.Engine
	Catalog *usecase.Catalog
	Users   *usecase.Users
	Orders  *usecase.Orders

	log           *zap.Logger
	starters      []func(ctx context.Context) error
	closers       []closer
	stopConsumers context.CancelFunc
}

type closer struct {
	name string
	fn   func(ctx context.Context) error
}

type stores struct {
	products usecase.ProductRepo
	users    usecase.UserRepo
	orders   usecase.OrderRepo

	// set by the mysql driver; order events go through it when rabbit is on
	outbox *repo.MySQLOutbox
}

// New connects the configured backends and builds the services on top of
// them. On failure everything opened so far is closed again.
func New(ctx context.Context, cfg configs.Config, log *zap.Logger, opts Options) (app *App, err error) {
	a := &App{log: log}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
		}
	}()

	st, err := a.openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var (
		productCache usecase.ProductCache
		orderOpts    []usecase.OrdersOption
	)
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		a.addCloser("redis", func(context.Context) error { return rdb.Close() })
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		rc := cache.NewRedisCache(rdb, cfg.Cache.TTL)
		productCache = rc
		orderOpts = append(orderOpts,
			usecase.WithProductCache(rc),
			usecase.WithIdempotency(cache.NewRedisIdempotencyStore(rdb, cfg.Idempotency.TTL)),
		)
		log.Info("redis connected", zap.String("addr", cfg.Redis.Addr))
	}

	var rabbit *amqp.Connection
	if opts.Messaging && cfg.Rabbit.Enabled {
		rabbit, err = amqp.Dial(cfg.Rabbit.URL)
		if err != nil {
			return nil, fmt.Errorf("amqp dial: %w", err)
		}
		a.addCloser("amqp", func(context.Context) error { return rabbit.Close() })

		pubCh, err := rabbit.Channel()
		if err != nil {
			return nil, fmt.Errorf("amqp channel: %w", err)
		}
		if err := queue.DeclareTopology(pubCh, cfg.Rabbit.Exchange, cfg.Rabbit.ShippedQueue); err != nil {
			return nil, err
		}
		pub, err := queue.NewRabbitPublisher(pubCh, cfg.Rabbit.Exchange)
		if err != nil {
			return nil, err
		}
		if st.outbox != nil {
			relay := queue.NewOutboxRelay(st.outbox, pub, log.Named("outbox"))
			a.runInBackground("outbox-relay", relay.Run)
			orderOpts = append(orderOpts, usecase.WithEvents(st.outbox))
		} else {
			orderOpts = append(orderOpts, usecase.WithEvents(pub))
		}
	}

	keys, err := security.LoadKeyMaterial(cfg)
	if err != nil {
		return nil, err
	}
	tokens := security.NewTokens(keys, cfg.Security.Issuer, cfg.Security.Audience, cfg.Security.TTL)

	a.Catalog = usecase.NewCatalog(st.products, st.users, productCache)
	a.Users = usecase.NewUsers(st.users, security.BcryptHasher{}, tokens)
	a.Orders = usecase.NewOrders(st.products, st.orders, st.users, orderOpts...)

	if rabbit != nil && cfg.Rabbit.ShippedQueue != "" {
		if err := a.wireRabbitConsumer(rabbit, cfg); err != nil {
			return nil, err
		}
	}
	if opts.Messaging && cfg.Kafka.Enabled {
		if err := a.wireKafkaConsumer(cfg); err != nil {
			return nil, err
		}
	}

	if opts.HTTP {
		schema, err := gql.NewSchema(gql.NewResolver(a.Catalog, a.Users, a.Orders), cfg.GraphQL.MaxDepth)
		if err != nil {
			return nil, err
		}
		reqLog := logging.Init(cfg.App.Name, cfg.App.LogFile, cfg.App.LogLevel)
		a.Router = http.NewRouter(http.Handlers{
			GraphQL:     http.NewGraphQLHandler(schema),
			Token:       http.NewTokenHandler(security.NewClientRegistry(cfg.Security.Clients), tokens),
			Fulfillment: http.NewFulfillmentHandler(a.Orders),
		}, middleware.NewAuthz(tokens), usecase.NewAuthenticator(tokens, st.users), reqLog)
	}

	return a, nil
}

func (a *App) openStore(ctx context.Context, cfg configs.Config) (stores, error) {
	switch cfg.Store.Driver {
	case "mongo":
		timeout := cfg.Mongo.Timeout
		if timeout <= 0 {
			timeout = defaultDialTimeout
		}
		mctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		ms, err := repo.OpenMongo(mctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return stores{}, err
		}
		a.addCloser("mongo", ms.Close)
		if err := ms.EnsureIndexes(mctx); err != nil {
			return stores{}, err
		}
		a.log.Info("mongo connected", zap.String("database", cfg.Mongo.Database))
		return stores{products: ms.Products(), users: ms.Users(), orders: ms.Orders()}, nil

	case "mysql":
		db, err := repo.OpenMySQL(ctx, cfg.MySQL.DSN, repo.MySQLPool{
			MaxOpenConns:    cfg.MySQL.MaxOpenConns,
			MaxIdleConns:    cfg.MySQL.MaxIdleConns,
			ConnMaxLifetime: cfg.MySQL.ConnMaxLifetime,
		})
		if err != nil {
			return stores{}, err
		}
		a.addCloser("mysql", func(context.Context) error { return db.Close() })
		if err := repo.MigrateMySQL(ctx, db); err != nil {
			return stores{}, err
		}
		a.log.Info("mysql connected")
		return stores{
			products: repo.NewMySQLProductRepo(db),
			users:    repo.NewMySQLUserRepo(db),
			orders:   repo.NewMySQLOrderRepo(db),
			outbox:   repo.NewMySQLOutbox(db),
		}, nil

	case "memory":
		a.log.Warn("using in-memory store, data is lost on exit")
		return stores{
			products: repo.NewMemoryProductRepo(),
			users:    repo.NewMemoryUserRepo(),
			orders:   repo.NewMemoryOrderRepo(),
		}, nil
	}
	return stores{}, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

func (a *App) wireRabbitConsumer(conn *amqp.Connection, cfg configs.Config) error {
	// consumers get their own channel so publisher confirms never queue behind deliveries
	subCh, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("amqp consumer channel: %w", err)
	}
	prefetch := cfg.Rabbit.Prefetch
	if prefetch <= 0 {
		prefetch = 50
	}
	router := queue.NewRouter(subCh, a.log.Named("rabbit"), queue.WithPrefetch(prefetch))
	router.Register(cfg.Rabbit.ShippedQueue, queue.NewShippedHandler(a.Orders))

	a.starters = append(a.starters, func(context.Context) error { return router.Start() })
	a.addCloser("rabbit-consumers", router.Stop)
	return nil
}

func (a *App) wireKafkaConsumer(cfg configs.Config) error {
	group, err := kafka.NewGroup(cfg.Kafka.Brokers, cfg.Kafka.GroupID)
	if err != nil {
		return fmt.Errorf("kafka group: %w", err)
	}
	a.addCloser("kafka", func(context.Context) error { return group.Close() })

	consumer := kafka.NewConsumer(group, []string{cfg.Kafka.TopicFulfillment},
		kafka.NewFulfillmentStatusHandler(a.Orders), a.log.Named("kafka"))

	a.runInBackground("kafka-consumer", func(ctx context.Context) error {
		err := consumer.Start(ctx)
		if errors.Is(err, sarama.ErrClosedConsumerGroup) {
			return nil
		}
		return err
	})
	return nil
}

// runInBackground registers a loop that StartConsumers launches. Its closer
// waits for the loop to return, and runs before anything opened earlier.
func (a *App) runInBackground(name string, run func(ctx context.Context) error) {
	var wg sync.WaitGroup
	a.starters = append(a.starters, func(ctx context.Context) error {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.log.Error("background loop stopped", zap.String("loop", name), zap.Error(err))
			}
		}()
		return nil
	})
	a.addCloser(name, func(ctx context.Context) error {
		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

// StartConsumers launches the message consumers. They run until Close.
func (a *App) StartConsumers(ctx context.Context) error {
	cctx, cancel := context.WithCancel(ctx)
	a.stopConsumers = cancel
	for _, start := range a.starters {
		if err := start(cctx); err != nil {
			cancel()
			return err
		}
	}
	return nil
}

func (a *App) addCloser(name string, fn func(ctx context.Context) error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}

// Close releases resources in reverse order of acquisition, so consumers
// stop before the stores they write to.
func (a *App) Close(ctx context.Context) error {
	if a.stopConsumers != nil {
		a.stopConsumers()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.fn(ctx); err != nil {
			a.log.Warn("close failed", zap.String("resource", c.name), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// ShutdownOps returns the operations for gfshutdown. The server is drained
// before the backends are released.
func (a *App) ShutdownOps(stopServer func(ctx context.Context) error) map[string]gfshutdown.Operation {
	return map[string]gfshutdown.Operation{
		"shop-api": func(ctx context.Context) error {
			a.log.Info("graceful shutdown initiated")
			var errs []error
			if stopServer != nil {
				if err := stopServer(ctx); err != nil {
					errs = append(errs, fmt.Errorf("http server: %w", err))
				}
			}
			errs = append(errs, a.Close(ctx))
			return errors.Join(errs...)
		},
	}
}
