package app

import (
	"context"
	"log/slog"
	"time"

	httpapp "chat_auth/internal/app/http"
	"chat_auth/internal/config"
	"chat_auth/internal/lib/jwt"
	"chat_auth/internal/lib/logger/sl"
	"chat_auth/internal/lib/password"
	"chat_auth/internal/repository"
	"chat_auth/internal/services/auth"
	"chat_auth/internal/storage/postgresql"
	redisapp "chat_auth/internal/storage/redis"
	httprouters "chat_auth/internal/transport/http"

	tokensvc "chat_auth/internal/services/token_service"
	usersvc "chat_auth/internal/services/user_service"
)

const (
	startupTimeout = 30 * time.Second
	loginPath      = "/api/v1/users/login"
)

type App struct {
	HTTPServer *httpapp.Server

	log           *slog.Logger
	storage       *postgresql.Storage
	redis         *redisapp.Client
	tokens        *tokensvc.TokenService
	sweepInterval time.Duration
	stopSweeper   context.CancelFunc
}

// New connects the backends, applies the schema, seeds users and assembles
// the http server. It panics on any startup failure.
func New(log *slog.Logger, cfg *config.Config) *App {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	storage, err := postgresql.New(ctx, cfg.DSN)
	if err != nil {
		panic(err)
	}

	if err := storage.Migrate(ctx); err != nil {
		panic(err)
	}

	var rdb *redisapp.Client
	if cfg.RefreshStore.Backend == repository.BackendRedis {
		rdb = redisapp.NewClient(cfg.Redis.RedisAddr, cfg.Redis.RedisPassword, cfg.Redis.RedisDB)
		if err := rdb.HealthCheck(ctx); err != nil {
			panic(err)
		}
	}

	repo, err := repository.NewRepository(cfg.RefreshStore.Backend, storage.Pool(), rdb)
	if err != nil {
		panic(err)
	}

	hasher, err := password.New(cfg.Password.Algorithm, cfg.Password.BcryptCost)
	if err != nil {
		panic(err)
	}

	signer, err := jwt.New(jwt.Config{
		Secret: []byte(cfg.Token.Secret),
		TTL:    cfg.Token.AccessTTL,
		Issuer: cfg.Token.Issuer,
	})
	if err != nil {
		panic(err)
	}

	userService := usersvc.NewUserService(log, repo.User, hasher)
	tokenService := tokensvc.NewTokenService(log, repo.RefreshTokens, cfg.Token.RefreshTTL)

	if len(cfg.SeedUsers) > 0 {
		seed := make([]usersvc.SeedUser, 0, len(cfg.SeedUsers))
		for _, u := range cfg.SeedUsers {
			seed = append(seed, usersvc.SeedUser{Email: u.Email, Password: u.Password, Roles: u.Roles})
		}

		if err := userService.Seed(ctx, seed); err != nil {
			panic(err)
		}
	}

	authService := auth.New(log, userService, signer, tokenService)

	routers := httprouters.NewRouter(log, userService, authService, httprouters.RoutersConfig{
		Cookie: httprouters.CookieConfig{
			Name:   cfg.Cookie.Name,
			Path:   cfg.Cookie.Path,
			Secure: !cfg.Cookie.Insecure,
		},
		LandingPath: cfg.LandingPath,
		LoginPath:   loginPath,
	})

	server := httpapp.New(log, httpapp.Config{
		Host:         cfg.HTTP.Host,
		Port:         cfg.HTTP.Port,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}, routers, signer)

	return &App{
		HTTPServer:    server,
		log:           log,
		storage:       storage,
		redis:         rdb,
		tokens:        tokenService,
		sweepInterval: cfg.RefreshStore.SweepInterval,
	}
}

// StartSweeper purges expired refresh tokens in the background when an
// interval is configured.
func (a *App) StartSweeper() {
	if a.sweepInterval <= 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.stopSweeper = cancel

	go a.tokens.RunSweeper(ctx, a.sweepInterval)
}

func (a *App) Stop() {
	const op = "app.Stop"

	log := a.log.With(slog.String("op", op))

	if a.stopSweeper != nil {
		a.stopSweeper()
	}

	if err := a.HTTPServer.Stop(); err != nil {
		log.Error("failed to stop http server", sl.Err(err))
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.Error("failed to close redis", sl.Err(err))
		}
	}

	a.storage.Stop()
}
