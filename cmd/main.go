package main

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/immxrtalbeast/mystery_room/internal/agent"
	httpapi "github.com/immxrtalbeast/mystery_room/internal/api/http"
	"github.com/immxrtalbeast/mystery_room/internal/auth"
	"github.com/immxrtalbeast/mystery_room/internal/config"
	"github.com/immxrtalbeast/mystery_room/internal/content"
	"github.com/immxrtalbeast/mystery_room/internal/repository"
	"github.com/immxrtalbeast/mystery_room/internal/repository/model"
	"github.com/immxrtalbeast/mystery_room/internal/service"
	"github.com/immxrtalbeast/mystery_room/internal/ws"
	"github.com/immxrtalbeast/mystery_room/lib/logger/sl"
	"github.com/immxrtalbeast/mystery_room/lib/logger/slogpretty"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	_ = godotenv.Load(".env")

	cfg := config.MustLoad()
	log := setupLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, err := setupRepositories(cfg.Database, log)
	if err != nil {
		log.Error("failed to connect database", sl.Err(err))
		os.Exit(1)
	}

	claims, closeClaims := setupClaimer(ctx, cfg.Redis, log)
	defer closeClaims()

	generator, speaker := setupContent(cfg.LLM, log)

	if cfg.Auth.JWTSecret == "" {
		log.Error("auth.jwt_secret is empty")
		os.Exit(1)
	}
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	registry := ws.NewRegistry(log)

	roomService := service.NewRoomService(repos, registry, generator, service.Options{
		DefaultCapacity: cfg.Game.DefaultCapacity,
		MaxCapacity:     cfg.Game.MaxCapacity,
	}, log)
	userService := service.NewUserService(repos.Users, tokens, log)

	scheduler := agent.NewScheduler(agent.Config{
		TickInterval: cfg.Agent.TickInterval,
		ClaimTTL:     cfg.Agent.ClaimTTL,
	}, roomService, repos.Agents, claims, speaker, log)
	roomService.SetAgentHooks(scheduler)

	if err := roomService.Resume(ctx); err != nil {
		log.Error("failed to resume rooms", sl.Err(err))
	}

	wsOpts := ws.Options{
		WriteWait:      cfg.WS.WriteWait,
		PongWait:       cfg.WS.PongWait,
		PingPeriod:     cfg.WS.PingPeriod,
		MaxMessageSize: cfg.WS.MaxMessageSize,
		SendBuffer:     cfg.WS.SendBuffer,
		RatePerSecond:  cfg.WS.RatePerSecond,
		Burst:          cfg.WS.Burst,
	}

	roomController := httpapi.NewRoomController(roomService, tokens, registry, wsOpts, cfg.HTTP.AllowedOrigins, log)
	userController := httpapi.NewUserController(userService)
	agentController := httpapi.NewAgentController(roomService)

	router := httpapi.SetupRouter(httpapi.RouterConfig{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Tokens:         tokens,
	}, roomController, userController, agentController)

	srv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting application", slog.String("addr", cfg.HTTP.Address), slog.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return scheduler.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("application stopped", sl.Err(err))
	}
	roomService.Shutdown()
	log.Info("application stopped")
}

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = setupPrettySlog()
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}

// setupRepositories uses postgres when a DSN is configured and memory otherwise.
func setupRepositories(cfg config.DatabaseConfig, log *slog.Logger) (service.Repositories, error) {
	if cfg.DSN == "" {
		log.Warn("database dsn is empty, state lives in memory")
		scripts := repository.NewInMemoryScriptRepository()
		return service.Repositories{
			Rooms:   repository.NewInMemoryRoomRepository(),
			Users:   repository.NewInMemoryUserRepository(),
			Scripts: scripts,
			Game:    repository.NewInMemoryGameRepository(scripts),
			Agents:  repository.NewInMemoryAgentRepository(),
		}, nil
	}

	db, err := connectDatabase(cfg)
	if err != nil {
		return service.Repositories{}, err
	}
	return service.Repositories{
		Rooms:   repository.NewPostgresRoomRepository(db),
		Users:   repository.NewPostgresUserRepository(db),
		Scripts: repository.NewPostgresScriptRepository(db),
		Game:    repository.NewPostgresGameRepository(db),
		Agents:  repository.NewPostgresAgentRepository(db),
	}, nil
}

func connectDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(model.All()...); err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

func setupClaimer(ctx context.Context, cfg config.RedisConfig, log *slog.Logger) (agent.Claimer, func()) {
	if cfg.Address == "" {
		return agent.NewMemoryClaimer(), func() {}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis unavailable, agent claims stay local", slog.String("addr", cfg.Address), sl.Err(err))
		_ = rdb.Close()
		return agent.NewMemoryClaimer(), func() {}
	}
	log.Info("connected to redis", slog.String("addr", cfg.Address))
	return agent.NewRedisClaimer(rdb, ""), func() { _ = rdb.Close() }
}

func setupContent(cfg config.LLMConfig, log *slog.Logger) (service.Generator, agent.Speaker) {
	canned := agent.CannedSpeaker{Pick: rand.IntN}
	if cfg.APIKey == "" {
		log.Warn("llm api key is empty, using the sample script and canned agent lines")
		return content.SampleGenerator{}, canned
	}

	client := content.NewClient(content.ClientConfig{
		URL:         cfg.APIURL,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.Timeout,
		MaxAttempts: cfg.MaxAttempts,
		BaseBackoff: cfg.BaseBackoff,
	}, log)
	return content.NewGenerator(client, log), agent.NewLLMSpeaker(client, canned)
}
