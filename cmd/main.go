// @title NoteSync Backend API
// @version 1.0
// @description Personal notes and calendar events with optional calendar mirroring.

// @host localhost:8080
// @BasePath /
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT token.

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli/v2"
	"golang.org/x/oauth2"

	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/calendarsync"
	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/config"
	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/handlers"
	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/logging"
	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/middleware"
	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/routes"
	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/store"
)

func main() {
	app := &cli.App{
		Name:  "notesync",
		Usage: "Notes and calendar events API.",
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			googleAuthCommand(),
		},
		// serve is the default when no command is given
		Action: serve,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "notesync:", err)
		os.Exit(1)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the HTTP API.",
		Action: serve,
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage the database schema.",
		Subcommands: []*cli.Command{
			{
				Name:  "up",
				Usage: "Apply all pending migrations.",
				Action: func(c *cli.Context) error {
					return withPool(c.Context, func(cfg *config.Config, log logging.Logger, pool *pgxpool.Pool) error {
						if err := store.Migrate(c.Context, pool); err != nil {
							return err
						}
						log.Info(c.Context, "migrations applied")
						return nil
					})
				},
			},
			{
				Name:  "status",
				Usage: "Print the state of every migration.",
				Action: func(c *cli.Context) error {
					return withPool(c.Context, func(cfg *config.Config, log logging.Logger, pool *pgxpool.Pool) error {
						return store.MigrationStatus(c.Context, pool)
					})
				},
			},
		},
	}
}

func googleAuthCommand() *cli.Command {
	return &cli.Command{
		Name:  "google-auth",
		Usage: "Authorize calendar access for the google-oauth sync provider and save the token.",
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			cs := cfg.CalendarSync
			if cs.GoogleClientID == "" || cs.GoogleClientSecret == "" {
				return errors.New("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET are required")
			}

			oauthCfg := calendarsync.OAuthConfig(cs.GoogleClientID, cs.GoogleClientSecret)
			authURL := oauthCfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
			fmt.Printf("Go to the following link in your browser then type the "+
				"authorization code: \n%v\n", authURL)

			fmt.Print("Enter Authorization Code: ")
			code, _ := bufio.NewReader(os.Stdin).ReadString('\n')
			code = strings.TrimSpace(code)
			if code == "" {
				return errors.New("no authorization code given")
			}

			token, err := oauthCfg.Exchange(c.Context, code)
			if err != nil {
				return fmt.Errorf("unable to retrieve token from web: %w", err)
			}
			if err := calendarsync.SaveToken(cs.GoogleTokenFile, token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}
			fmt.Println("Token saved to", cs.GoogleTokenFile)
			return nil
		},
	}
}

func newPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	// simple protocol keeps the pool usable behind PgBouncer
	poolCfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	poolCfg.ConnConfig.RuntimeParams["application_name"] = "notesync-backend"
	poolCfg.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprint(cfg.Database.QueryTimeout.Milliseconds())
	poolCfg.MaxConns = cfg.Database.MaxConns
	poolCfg.MinConns = cfg.Database.MinConns
	poolCfg.MaxConnLifetime = cfg.Database.MaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*cfg.Database.ConnTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

// withPool loads configuration, opens the database and runs fn.
func withPool(ctx context.Context, fn func(*config.Config, logging.Logger, *pgxpool.Pool) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	pool, err := newPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	return fn(cfg, log, pool)
}

func serve(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return withPool(ctx, func(cfg *config.Config, log logging.Logger, pool *pgxpool.Pool) error {
		if cfg.Database.AutoMigrate {
			if err := store.Migrate(ctx, pool); err != nil {
				return err
			}
			log.Info(ctx, "database schema up to date")
		}

		db := store.New(pool)
		tokens := middleware.NewTokenService([]byte(cfg.JWT.Secret), cfg.JWT.TokenTTL)

		syncer, err := calendarsync.New(ctx, cfg.CalendarSync, log)
		if err != nil {
			return fmt.Errorf("calendar sync: %w", err)
		}
		if cfg.IsCalendarSyncEnabled() {
			log.Info(ctx, "calendar sync enabled", "provider", cfg.CalendarSync.Provider, "timeout", cfg.CalendarSync.Timeout)
		} else {
			log.Info(ctx, "calendar sync disabled")
		}

		limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, cfg.RateLimit.TrustProxy)
		go limiter.Run(ctx)

		h := routes.Handlers{
			Auth:    handlers.NewAuthHandler(db, tokens, log),
			Events:  handlers.NewEventsHandler(db, syncer, cfg.CalendarSync.Timeout, log),
			Profile: handlers.NewProfileHandler(db, log),
			Health:  handlers.NewHealthHandler(pool),
		}
		if cfg.IsGoogleOAuthConfigured() {
			identity := handlers.NewGoogleOAuthIdentity(cfg.GoogleOAuth)
			h.GoogleAuth = handlers.NewGoogleAuthHandler(db, identity, tokens, log)
		}
		guard := middleware.NewAccessGuard(tokens, db, log)

		srv := &http.Server{
			Addr:              ":" + cfg.Server.Port,
			Handler:           routes.SetupRoutes(h, guard, limiter, cfg.CORS, log),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       cfg.Server.ReadTimeout,
			WriteTimeout:      cfg.Server.WriteTimeout,
			IdleTimeout:       cfg.Server.IdleTimeout,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info(ctx, "HTTP server listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			return fmt.Errorf("listen: %w", err)
		case <-ctx.Done():
		}

		log.Info(context.Background(), "shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		log.Info(context.Background(), "server stopped")
		return nil
	})
}
