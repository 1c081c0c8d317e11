package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/clinscribe/clinscribe/internal/config"
	"github.com/clinscribe/clinscribe/internal/domain/chat"
	"github.com/clinscribe/clinscribe/internal/domain/patient"
	"github.com/clinscribe/clinscribe/internal/domain/visit"
	"github.com/clinscribe/clinscribe/internal/platform/ai"
	"github.com/clinscribe/clinscribe/internal/platform/auth"
	"github.com/clinscribe/clinscribe/internal/platform/db"
	"github.com/clinscribe/clinscribe/internal/platform/middleware"
)

var migrationsDir string

func main() {
	rootCmd := &cobra.Command{
		Use:   "scribe-server",
		Short: "Clinical transcript and visit documentation service",
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  func(cmd *cobra.Command, args []string) error { return runServe() },
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
	}
	migrateCmd.PersistentFlags().StringVar(&migrationsDir, "dir", "migrations", "migrations directory")

	migrateUpCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE:  func(cmd *cobra.Command, args []string) error { return runMigrate(true) },
	}
	migrateStatusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE:  func(cmd *cobra.Command, args []string) error { return runMigrate(false) },
	}
	migrateCmd.AddCommand(migrateUpCmd, migrateStatusCmd)
	rootCmd.AddCommand(serveCmd, migrateCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogger(cfg *config.Config) zerolog.Logger {
	if cfg.IsProduction() {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if cfg.IsDev() {
		return log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	logger := setupLogger(cfg)
	log.Logger = logger

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	var aiClient ai.Client = ai.Disabled{}
	if cfg.OpenAIAPIKey != "" {
		aiClient = ai.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		logger.Info().Str("model", cfg.OpenAIModel).Msg("ai client enabled")
	} else {
		logger.Warn().Msg("OPENAI_API_KEY not set, using extraction fallbacks")
	}

	patientSvc := patient.NewService(patient.NewRepo(pool))
	visitSvc := visit.NewService(visit.NewRepo(pool), aiClient)
	chatSvc := chat.NewService(chat.NewRepo(pool), visitSvc, aiClient, cfg.ChatMessageCap)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization, "X-Request-ID"},
	}))
	e.Use(middleware.RequestTimeout(30 * time.Second))

	e.GET("/health", func(c echo.Context) error {
		h := db.CheckHealth(c.Request().Context(), pool)
		status := http.StatusOK
		if !h.Healthy {
			status = http.StatusServiceUnavailable
		}
		return c.JSON(status, h)
	})

	api := e.Group("/api/v1")
	if cfg.IsDev() && cfg.AuthSecret == "" {
		logger.Warn().Msg("AUTH_SECRET not set, using dev auth")
		api.Use(auth.DevAuthMiddleware())
	} else {
		api.Use(auth.JWTMiddleware(cfg.AuthSecret))
	}
	// After auth so the limiter can key on the authenticated user.
	api.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}))

	patient.NewHandler(patientSvc).RegisterRoutes(api)
	visit.NewHandler(visitSvc).RegisterRoutes(api)
	chat.NewHandler(chatSvc).RegisterRoutes(api)

	go func() {
		logger.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func runMigrate(apply bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := setupLogger(cfg)
	ctx := context.Background()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	m := db.NewMigrator(pool, migrationsDir)
	if apply {
		n, err := m.Up(ctx)
		if err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
		logger.Info().Int("applied", n).Msg("migrations complete")
		return nil
	}

	statuses, err := m.Status(ctx)
	if err != nil {
		return fmt.Errorf("migration status: %w", err)
	}
	for _, s := range statuses {
		state := "pending"
		if s.Applied && s.AppliedAt != nil {
			state = "applied " + s.AppliedAt.Format(time.RFC3339)
		}
		fmt.Printf("%03d %-30s %s\n", s.Version, s.Name, state)
	}
	return nil
}
