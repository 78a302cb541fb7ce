package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/streaming-catalog/internal/config"
	"github.com/iliyamo/streaming-catalog/internal/database"
	"github.com/iliyamo/streaming-catalog/internal/handler"
	"github.com/iliyamo/streaming-catalog/internal/logging"
	"github.com/iliyamo/streaming-catalog/internal/mail"
	"github.com/iliyamo/streaming-catalog/internal/middleware"
	"github.com/iliyamo/streaming-catalog/internal/model"
	"github.com/iliyamo/streaming-catalog/internal/queue"
	"github.com/iliyamo/streaming-catalog/internal/repository"
	"github.com/iliyamo/streaming-catalog/internal/router"
	"github.com/iliyamo/streaming-catalog/internal/service"
	"github.com/iliyamo/streaming-catalog/internal/storage"
)

func main() {
	_ = godotenv.Load() // .env is optional; real environment wins

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.Env, os.Getenv("LOG_LEVEL"))
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	// Database
	db, err := database.Open(ctx, database.DSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName))
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(ctx, db.DB); err != nil {
		return err
	}

	// Redis is optional; without it rate limiting and caching are skipped.
	rdb, err := config.NewRedisClient(ctx, config.LoadRedisConfig())
	if err != nil {
		logger.Warn("redis unavailable; rate limiting and response cache disabled", zap.Error(err))
		rdb = nil
	}
	if rdb != nil {
		defer rdb.Close()
	}

	// Stores
	accounts := repository.NewAccountRepo(db)
	movies := repository.NewMovieRepo(db)
	favorites := repository.NewFavoriteRepo(db)
	images, err := storage.NewFilesystemImageStore(cfg.UploadDir, strings.TrimRight(cfg.PublicBaseURL, "/")+"/uploads")
	if err != nil {
		return err
	}

	// Mail delivery: SMTP when configured, otherwise the log.
	var mailer mail.Mailer = mail.NewLogMailer(logger, !cfg.IsProduction())
	if cfg.SMTP.Enabled() {
		mailer = mail.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.MailFrom)
	}
	// Reset notices go through RabbitMQ when a broker is configured.
	var notifier service.ResetNotifier = mail.NewResetNotifier(mailer)
	if cfg.RabbitMQURL != "" {
		notifier = queue.NewPublisher(cfg.RabbitMQURL, logger)
		go func() {
			if err := queue.StartMailConsumer(ctx, cfg.RabbitMQURL, mailer, logger); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("mail consumer stopped", zap.Error(err))
			}
		}()
	}

	// Services
	tokens := service.NewTokenService(cfg.JWTSecret, cfg.SessionTTL, cfg.RememberTTL)
	auth := service.NewAuthService(accounts, tokens, cfg.BcryptCost, logger)
	reset := service.NewPasswordResetService(accounts, notifier, cfg.ResetTTL, cfg.ClientURL, cfg.BcryptCost, logger)
	catalog := service.NewCatalogService(movies, accounts)
	movieSvc := service.NewMovieService(movies, images, logger)
	favSvc := service.NewFavoritesService(favorites, movies)

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if err := auth.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return err
		}
	}

	var external handler.ExternalLogin
	if cfg.OIDC.Enabled() {
		p, err := service.NewOIDCProvider(ctx, cfg.OIDC.ProviderURL, cfg.OIDC.ClientID, cfg.OIDC.ClientSecret, cfg.OIDC.RedirectURL)
		if err != nil {
			logger.Warn("oidc provider unavailable; external login disabled", zap.Error(err))
		} else {
			external = p
		}
	}

	// HTTP
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.NewErrorHandler(logger, cfg.IsProduction())
	e.Use(middleware.RequestLogger(logger))
	e.Use(middleware.Recover(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowCredentials: len(cfg.CORSOrigins) > 0,
	}))

	cookie := handler.CookieSettings{Name: cfg.SessionCookie, Secure: cfg.IsProduction()}
	router.RegisterRoutes(e, images.Dir())
	router.RegisterAPI(e, router.Handlers{
		Auth:      handler.NewAuthHandler(auth, reset, cookie),
		OIDC:      handler.NewOIDCHandler(external, auth, cookie, cfg.ClientURL),
		Admin:     handler.NewAdminHandler(auth, cookie),
		Movies:    handler.NewMovieHandler(catalog, movieSvc),
		Favorites: handler.NewFavoriteHandler(favSvc),
		Users:     handler.NewUserHandler(catalog),
	}, router.Guards{
		Session:   middleware.RequireSession(tokens, cfg.SessionCookie),
		Admin:     middleware.RestrictTo(model.RoleAdmin),
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logger),
		Cache:     middleware.NewRedisCache(config.LoadCacheConfig(), rdb, logger),
	})

	addr := ":" + cfg.Port
	logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))

	errCh := make(chan error, 1)
	go func() { errCh <- e.Start(addr) }()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down")
	err = e.Shutdown(shutdownCtx)
	reset.Wait()
	return err
}
