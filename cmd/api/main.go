package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/auth"
	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/challenge"
	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/config"
	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/event"
	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/leaderboard"
	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/realtime"
	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/router"
	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/scoring"
	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/store"
	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/store/repo"
	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/user"
	"github.com/ovaphlow/pitchfork/service-ctf-core/pkg/database"
	"github.com/ovaphlow/pitchfork/service-ctf-core/pkg/utilities"
)

func main() {
	// load .env file if present so os.Getenv picks values from it
	// this is best-effort: if no .env exists, continue (use defaults or real env)
	_ = godotenv.Load()

	lg, err := utilities.Init(utilities.ConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	cfg := config.ConfigFromEnv()
	sugar.Infow("starting service-ctf-core", "backend", cfg.StoreBackend, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, closer, err := openBackend(ctx, cfg, sugar)
	if err != nil {
		sugar.Fatalf("store backend: %v", err)
	}
	defer closer.Close()

	st := store.New(backend, sugar)
	users := user.NewUserService(st, user.BcryptHasher{Cost: cfg.BcryptCost}, sugar)
	admin, err := users.DefaultAdmin(cfg.AdminPassword)
	if err != nil {
		sugar.Fatalf("default admin: %v", err)
	}
	if _, err := st.Bootstrap(ctx, store.DefaultSeed(time.Now(), admin)); err != nil {
		sugar.Fatalf("bootstrap store: %v", err)
	}

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)
	events := event.NewService(st, sugar)
	hub := realtime.NewHub(sugar)
	go hub.Run(ctx)

	handler := router.RegisterRoutes(sugar, router.Handlers{
		Auth:        router.NewAuthenticator(st, tokens, sugar),
		Users:       user.NewHandler(users, st, tokens, sugar),
		Event:       event.NewHandler(events, sugar),
		Challenges:  challenge.NewHandler(challenge.NewService(st, sugar), events, sugar),
		Scoring:     scoring.NewHandler(scoring.NewService(st, hub, sugar), events, sugar),
		Leaderboard: leaderboard.NewHandler(leaderboard.NewService(st, sugar), sugar),
		Hub:         hub,
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()
	sugar.Info("service is running; press Ctrl+C to stop")

	<-ctx.Done()
	sugar.Info("shutting down")

	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}
	sugar.Info("goodbye")
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openBackend connects the configured key-value backend.
func openBackend(ctx context.Context, cfg config.Config, logger *zap.SugaredLogger) (store.Repo, io.Closer, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		db, err := database.Connect(database.ConfigFromEnv())
		if err != nil {
			return nil, nil, err
		}
		pg := repo.NewPostgresRepo(db)
		if err := pg.EnsureTable(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return pg, db, nil
	case config.BackendRedis:
		rdb, err := database.ConnectRedis(database.RedisConfigFromEnv())
		if err != nil {
			return nil, nil, err
		}
		return repo.NewRedisRepo(rdb, cfg.RedisKeyPrefix), rdb, nil
	default:
		logger.Warn("using in-memory store; data is lost on restart")
		return repo.NewMemoryRepo(), nopCloser{}, nil
	}
}
