package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/jdmccork/auctionhouse/internal/adapters/database"
	adapterevents "github.com/jdmccork/auctionhouse/internal/adapters/events"
	"github.com/jdmccork/auctionhouse/internal/adapters/httpapi"
	"github.com/jdmccork/auctionhouse/internal/adapters/storage"
	"github.com/jdmccork/auctionhouse/internal/config"
	"github.com/jdmccork/auctionhouse/internal/domain/auctions"
	"github.com/jdmccork/auctionhouse/internal/domain/bids"
	"github.com/jdmccork/auctionhouse/internal/domain/images"
	"github.com/jdmccork/auctionhouse/internal/domain/users"
	"github.com/jdmccork/auctionhouse/pkg/auth"
	pkgdb "github.com/jdmccork/auctionhouse/pkg/database"
	pkgevents "github.com/jdmccork/auctionhouse/pkg/events"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Postgres
	dbConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	pool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return err
	}
	logger.Info("Postgres connected")

	if err := migrate(cfg); err != nil {
		return err
	}
	logger.Info("Migrations applied")

	// RabbitMQ
	amqpConn, err := amqp091.Dial(cfg.RabbitURL)
	if err != nil {
		return err
	}
	defer amqpConn.Close()
	logger.Info("RabbitMQ connected")

	publisher, err := adapterevents.NewRabbitMQPublisher(amqpConn, cfg.EventExchange)
	if err != nil {
		return err
	}
	defer publisher.Close()

	// Redis
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return err
	}
	defer rdb.Close()
	logger.Info("Redis connected")

	// Infrastructure layer
	txManager := pkgdb.NewPostgresTransactionManager(pool, cfg.LockTimeout)
	auctionRepo := database.NewPostgresAuctionRepository(pool)
	bidRepo := database.NewPostgresBidRepository(pool)
	categoryRepo := database.NewPostgresCategoryRepository(pool)
	userRepo := database.NewPostgresUserRepository(pool)
	outboxRepo := database.NewPostgresOutboxRepository(pool)

	imageStore, err := storage.NewDiskStore(cfg.ImageDir)
	if err != nil {
		return err
	}
	imageManager := images.NewManager(imageStore)

	signer := auth.NewSigner([]byte(cfg.JWTSecret), "auctionhouse", cfg.SessionTTL)
	sessions := auth.NewRedisSessionStore(rdb)

	// Domain layer
	auctionSvc := auctions.NewService(txManager, auctionRepo, categoryRepo, outboxRepo, imageManager)
	bidSvc := bids.NewService(txManager, bidRepo, auctionRepo, outboxRepo, cfg.AllowBidsAfterClose)
	userSvc := users.NewService(userRepo, signer, sessions, imageManager)

	relay := pkgevents.NewOutboxRelay(
		outboxRepo,
		publisher,
		txManager,
		cfg.OutboxBatchSize,
		cfg.OutboxInterval,
		cfg.EventExchange,
		logger,
	)

	router := httpapi.NewRouter(auctionSvc, bidSvc, userSvc, signer, sessions, logger)

	mux := http.NewServeMux()
	mux.Handle("/", router)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// h2c serves HTTP/2 without TLS for internal and local deployments.
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: h2c.NewHandler(mux, &http2.Server{}),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting outbox relay")
		return relay.Run(gctx)
	})

	g.Go(func() error {
		logger.Info("Starting API server", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// migrate applies pending goose migrations over the standard sql driver.
func migrate(cfg *config.Config) error {
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(db, cfg.MigrationsDir)
}
