package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quizzie-service/internal/app"
	"quizzie-service/internal/auth"
	"quizzie-service/internal/config"
	"quizzie-service/internal/infra/images"
	"quizzie-service/internal/infra/memory"
	mongostore "quizzie-service/internal/infra/mongo"
	pgstore "quizzie-service/internal/infra/postgres"
	rediscache "quizzie-service/internal/infra/redis"
	transport "quizzie-service/internal/transport/http"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

type stores struct {
	quizzes interface {
		app.QuizStore
		memory.QuizLoader
	}
	users app.UserStore
	close func()
}

func openStores(ctx context.Context, cfg config.Config) (stores, error) {
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return stores{}, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return stores{}, fmt.Errorf("connect postgres: %w", err)
		}
		return stores{
			quizzes: pgstore.NewQuizStore(pool),
			users:   pgstore.NewUserStore(pool),
			close:   pool.Close,
		}, nil
	case config.StorageMongo:
		client, err := mongostore.Connect(ctx, cfg.Mongo.URI)
		if err != nil {
			return stores{}, err
		}
		db := client.Database(cfg.Mongo.Database)
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return stores{}, err
		}
		return stores{
			quizzes: mongostore.NewQuizStore(db),
			users:   mongostore.NewUserStore(db),
			close:   func() { _ = client.Disconnect(context.Background()) },
		}, nil
	default:
		store := memory.NewStore()
		return stores{quizzes: store, users: store, close: func() {}}, nil
	}
}

func openImages(cfg config.Config) (app.ImageStore, string, error) {
	if cfg.Images.Driver == config.ImagesS3 {
		store, err := images.NewS3Store(cfg.Images.Region, cfg.Images.Bucket)
		return store, "", err
	}
	publicURL := cfg.Images.PublicURL
	if publicURL == "" {
		publicURL = "/assets"
	}
	store := images.NewFSStore(cfg.Images.BasePath, publicURL)
	return store, store.Root(), nil
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	opts := []app.Option{
		app.WithViewTimeout(config.TTLDuration(cfg.Quiz.ViewTimeout, 5*time.Second)),
	}
	var cache app.QuizCache
	if redisClient != nil {
		cache = rediscache.NewQuizCache(redisClient, st.quizzes, quizTTL)
		redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)
		opts = append(opts, app.WithLiveBroker(rediscache.NewLiveBroker(redisClient, redisTTL)))
	} else {
		cache = memory.NewQuizCache(st.quizzes, quizTTL)
	}

	tokenTTL := config.TTLDuration(cfg.Auth.TokenTTL, 7*24*time.Hour)
	tokens := auth.NewTokenIssuer(cfg.Auth.AccessTokenSecret, tokenTTL)
	users := app.NewUserService(st.users, auth.NewPasswordHasher(cfg.Auth.BcryptCost), tokens)
	quizzes := app.NewQuizService(st.quizzes, cache, opts...)

	imageStore, assetsDir, err := openImages(cfg)
	if err != nil {
		return err
	}

	router := transport.NewRouter(transport.RouterConfig{
		Users:       transport.NewUserHandler(users, transport.CookiePolicy{Development: cfg.IsDevelopment(), MaxAge: tokens.TTL()}),
		Quizzes:     transport.NewQuizHandler(quizzes),
		Images:      transport.NewImageHandler(imageStore),
		Live:        transport.NewWSHandler(quizzes, cfg.Server.FrontendURL),
		Sessions:    tokens,
		FrontendURL: cfg.Server.FrontendURL,
		AssetsDir:   assetsDir,
	})

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	relayCtx, stopRelay := context.WithCancel(ctx)
	defer stopRelay()
	go func() {
		if err := quizzes.RelayLive(relayCtx); err != nil {
			log.Printf("live analysis relay stopped: %v", err)
		}
	}()

	go func() {
		log.Printf("starting quizzie on :%s (storage=%s)", finalPort, cfg.Storage.Driver)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = server.Shutdown(shutdownCtx)
	stopRelay()
	quizzes.Drain()
	return err
}
