package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"pos_sales/api"
	"pos_sales/internal/config"
	"pos_sales/internal/directory"
	"pos_sales/internal/events"
	"pos_sales/internal/metrics"
	"pos_sales/internal/postgres"
	"pos_sales/internal/redisstore"
	"pos_sales/internal/sales"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Errorf("invalid configuration: %v", err))
	}

	logger, err := newLogger(cfg)
	if err != nil {
		panic(fmt.Errorf("error creating logger: %v", err))
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

// run wires the dependencies and serves until the server fails. Closers run
// on every return path.
func run(cfg config.Config, logger *zap.Logger) error {
	deps, closers, err := buildDependencies(context.Background(), cfg, logger)
	defer closeAll(closers)
	if err != nil {
		return fmt.Errorf("error wiring dependencies: %w", err)
	}

	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	api.InitRoutes(r, deps)

	logger.Info("starting server",
		zap.String("port", cfg.Port),
		zap.String("store_backend", cfg.StoreBackend),
		zap.String("catalog_backend", cfg.CatalogBackend),
		zap.String("folio_source", cfg.FolioSource))
	if err := r.Run(":" + cfg.Port); err != nil {
		return fmt.Errorf("error trying to start server: %w", err)
	}
	return nil
}

func closeAll(closers []func()) {
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.Env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// buildDependencies picks an adapter for every port from cfg. The returned
// closers are valid even when err is not nil.
func buildDependencies(ctx context.Context, cfg config.Config, logger *zap.Logger) (api.Dependencies, []func(), error) {
	var (
		closers   []func()
		repo      sales.SaleRepository
		catalog   sales.Catalog
		customers sales.CustomerDirectory
		opts      []sales.Option
		deps      = api.Dependencies{Logger: logger}
	)

	memCatalog := sales.NewMemoryCatalog()
	memCustomers := sales.NewMemoryCustomers()
	var seed sales.Seed
	if cfg.SeedFile != "" {
		s, err := sales.LoadSeed(cfg.SeedFile, memCatalog, memCustomers)
		if err != nil {
			return deps, closers, err
		}
		seed = s
		logger.Info("seed loaded",
			zap.Int("products", len(seed.Products)),
			zap.Int("customers", len(seed.Customers)))
	}

	switch cfg.StoreBackend {
	case config.BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return deps, closers, err
		}
		closers = append(closers, pool.Close)
		if err := postgres.Migrate(ctx, pool); err != nil {
			return deps, closers, err
		}
		pgCatalog := postgres.NewCatalog(pool)
		pgCustomers := postgres.NewCustomers(pool)
		for _, p := range seed.Products {
			if err := pgCatalog.Seed(ctx, p); err != nil {
				return deps, closers, err
			}
		}
		for _, cu := range seed.Customers {
			if err := pgCustomers.Seed(ctx, cu); err != nil {
				return deps, closers, err
			}
		}
		repo, catalog, customers = postgres.NewSaleRepository(pool), pgCatalog, pgCustomers
		deps.Ready = pool.Ping
	default:
		repo, catalog, customers = sales.NewLocalStorage(), memCatalog, memCustomers
	}

	if cfg.UsesRedis() {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		closers = append(closers, func() { client.Close() })
		if err := client.Ping(ctx).Err(); err != nil {
			return deps, closers, fmt.Errorf("unable to reach redis at %s: %w", cfg.RedisAddr, err)
		}

		if cfg.CatalogBackend == config.BackendRedis {
			redisCatalog := redisstore.NewCatalog(client)
			for _, p := range seed.Products {
				if _, err := redisCatalog.Seed(ctx, p); err != nil {
					return deps, closers, fmt.Errorf("seeding redis catalog: %w", err)
				}
			}
			catalog = redisCatalog
		}
		if cfg.FolioSource == config.FolioRedis {
			opts = append(opts, sales.WithFolioGenerator(redisstore.NewSequenceFolio(client, cfg.FolioPrefix)))
		}
	}
	if cfg.FolioSource == config.FolioRandom {
		opts = append(opts, sales.WithFolioGenerator(sales.NewRandomFolio(cfg.FolioPrefix)))
	}

	if cfg.CustomerDirectoryURL != "" {
		client := directory.NewClient(cfg.CustomerDirectoryURL, logger)
		closers = append(closers, func() { client.Close() })
		customers = client
	}

	if cfg.AMQPURL != "" {
		conn, ch, err := events.SetupConn(cfg.AMQPURL, logger)
		if err != nil {
			return deps, closers, err
		}
		closers = append(closers, func() { conn.Close() }, func() { ch.Close() })
		opts = append(opts, sales.WithPublisher(events.NewPublisher(ch)))
	} else {
		opts = append(opts, sales.WithPublisher(events.NewLogPublisher(logger)))
	}

	if cfg.PrometheusEnabled {
		m := metrics.New()
		opts = append(opts, sales.WithMetrics(m))
		deps.Metrics = m.Handler()
	}

	opts = append(opts, sales.WithStoreName(cfg.StoreName))
	deps.Service = sales.NewService(repo, catalog, customers, logger, opts...)
	return deps, closers, nil
}
