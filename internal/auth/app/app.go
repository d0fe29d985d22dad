package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	httpapi "github.com/saludware/citamed/internal/auth/http"
	"github.com/saludware/citamed/internal/auth/mailer"
	"github.com/saludware/citamed/internal/auth/otp"
	"github.com/saludware/citamed/internal/auth/service"
	"github.com/saludware/citamed/internal/auth/store"
	"github.com/saludware/citamed/internal/auth/store/drivers/sqlite"
	"github.com/saludware/citamed/pkg/cryptox"
	"github.com/saludware/citamed/pkg/jwtx"
	"github.com/saludware/citamed/pkg/slogx"
)

// BuildVersion should be set at build time via ldflags.
const BuildVersion = "v0.1.0"

// Application encapsulates the auth service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db    store.Store
	rdb   *redis.Client
	cache *otp.Cache
	keys  *jwtx.Keypair

	tokenService        *service.TokenService
	mfaService          *service.MFAService
	emailCodeService    *service.EmailCodeService
	loginService        *service.LoginService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "citamed-auth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	cryptox.SetPepperPath(cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	app.initCache()

	keys, err := InitSigningKeys(cfg, app.logger)
	if err != nil {
		return nil, err
	}
	app.keys = keys

	m, err := app.initMailer()
	if err != nil {
		return nil, err
	}

	app.initServices(m)
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.rdb.Close(); err != nil {
		app.logger.Error("error closing redis client", "error", err)
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initCache() {
	app.rdb = redis.NewClient(&redis.Options{
		Addr:     app.cfg.RedisAddr,
		Password: app.cfg.RedisPassword,
		DB:       app.cfg.RedisDB,
	})
	app.cache = otp.NewCache(app.rdb, app.cfg.EmailCodeTTL)
}

func (app *Application) initMailer() (mailer.Mailer, error) {
	switch app.cfg.MailTransport {
	case "postmark":
		m, err := mailer.NewPostmarkMailer(mailer.PostmarkConfig{
			ServerToken:  app.cfg.PostmarkServerToken,
			AccountToken: app.cfg.PostmarkAccountToken,
			SenderEmail:  app.cfg.PostmarkSender,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postmark mailer: %w", err)
		}
		app.logger.Info("postmark mail transport enabled")
		return m, nil
	default:
		app.logger.Warn("log mail transport enabled, codes are written to the log")
		return &mailer.LogMailer{Logger: app.logger}, nil
	}
}

func (app *Application) initServices(m mailer.Mailer) {
	app.tokenService = &service.TokenService{
		Signer:     app.keys,
		Verifier:   app.keys,
		Store:      app.db,
		Issuer:     app.cfg.Issuer,
		AccessTTL:  app.cfg.AccessTokenTTL,
		RefreshTTL: app.cfg.RefreshTokenTTL,
	}
	app.mfaService = &service.MFAService{
		Store:  app.db,
		Issuer: app.cfg.Issuer,
		Skew:   uint(max(app.cfg.TOTPSkew, 0)), // #nosec G115 - bounded small config value
	}
	app.emailCodeService = &service.EmailCodeService{
		Cache:  app.cache,
		Mailer: m,
	}
	app.loginService = &service.LoginService{
		Store:      app.db,
		Tokens:     app.tokenService,
		MFA:        app.mfaService,
		EmailCodes: app.emailCodeService,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
		app.cfg.AccessTokenTTL,
	)
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.cache, app.logger)
	router.LoginService = app.loginService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
