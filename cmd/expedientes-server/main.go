package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/expedientes/expedientes/internal/config"
	"github.com/expedientes/expedientes/internal/domain/attentiontype"
	"github.com/expedientes/expedientes/internal/domain/encounter"
	"github.com/expedientes/expedientes/internal/domain/formcatalog"
	"github.com/expedientes/expedientes/internal/domain/formsubmission"
	"github.com/expedientes/expedientes/internal/domain/professional"
	"github.com/expedientes/expedientes/internal/domain/projection"
	"github.com/expedientes/expedientes/internal/domain/subject"
	"github.com/expedientes/expedientes/internal/platform/auth"
	"github.com/expedientes/expedientes/internal/platform/db"
	"github.com/expedientes/expedientes/internal/platform/guard"
	"github.com/expedientes/expedientes/internal/platform/middleware"
	"github.com/expedientes/expedientes/internal/platform/reporting"
	"github.com/expedientes/expedientes/internal/submission"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "expedientes-server",
		Short: "Juvenile case-file encounter and form recording API",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(catalogCmd())
	rootCmd.AddCommand(reconcileCmd())
	rootCmd.AddCommand(reportCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg != nil && cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	level := zerolog.InfoLevel
	if cfg != nil {
		if parsed, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && cfg.LogLevel != "" {
			level = parsed
		}
	}
	return logger.Level(level)
}

// connect loads config and opens the pool for one-shot commands.
func connect(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")

			ctx := context.Background()
			pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, db.Migrations(), schema).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("schema", "public", "Target schema for migrations")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")

			ctx := context.Background()
			pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, db.Migrations(), schema).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("schema", "public", "Target schema for migrations")
	cmd.AddCommand(statusCmd)

	return cmd
}

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the attention-type catalog",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "seed",
		Short: "Create one attention type for every role that has none",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			roles := make([]string, 0, len(professional.Roles))
			for _, r := range professional.Roles {
				if r == professional.RoleAdmin {
					continue
				}
				roles = append(roles, r.String())
			}

			created, err := attentiontype.NewService(attentiontype.NewRepo(pool)).SeedRoles(ctx, roles)
			for _, at := range created {
				fmt.Printf("created %-20s %s (%s)\n", at.ResponsibleRole, at.Name, at.ID)
			}
			if err != nil {
				return fmt.Errorf("seed catalog: %w", err)
			}
			fmt.Printf("Seeded %d attention type(s).\n", len(created))
			return nil
		},
	})

	return cmd
}

func reconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Inspect partially recorded submissions",
	}

	orphansCmd := &cobra.Command{
		Use:   "orphans",
		Short: "List encounters that have no stored form payload",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			ctx := context.Background()
			pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			orphans, err := encounter.NewService(encounter.NewRepo(pool)).ListOrphans(ctx, limit)
			if err != nil {
				return fmt.Errorf("list orphan encounters: %w", err)
			}

			fmt.Printf("%-36s %-36s %-20s %s\n", "ENCOUNTER", "SUBJECT", "OCCURRED AT", "REASON")
			for _, e := range orphans {
				fmt.Printf("%-36s %-36s %-20s %s\n", e.ID, e.SubjectID, e.OccurredAt.Format("2006-01-02 15:04:05"), e.Reason)
			}
			fmt.Printf("%d orphan encounter(s).\n", len(orphans))
			return nil
		},
	}
	orphansCmd.Flags().Int("limit", 100, "Maximum number of encounters to list")
	cmd.AddCommand(orphansCmd)

	return cmd
}

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Evaluate predefined measures",
	}

	exportCmd := &cobra.Command{
		Use:   "export <measure-id>",
		Short: "Evaluate a measure and write the result as an xlsx workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")
			since, _ := cmd.Flags().GetString("since")

			ctx := context.Background()
			pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			params := map[string]string{}
			if since != "" {
				params["since"] = since
			}
			runner := reporting.NewRunner(reporting.NewPGSource(pool), formcatalog.Default().List(""))
			report, err := runner.Evaluate(ctx, args[0], params)
			if err != nil {
				return err
			}

			if out == "" {
				out = args[0] + ".xlsx"
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			defer f.Close()
			if err := reporting.WriteXLSX(f, report); err != nil {
				return err
			}
			fmt.Printf("Wrote %d row(s) to %s\n", len(report.Results), out)
			return nil
		},
	}
	exportCmd.Flags().String("out", "", "Output file (defaults to <measure-id>.xlsx)")
	exportCmd.Flags().String("since", "", "Lower bound date for measures that accept it (YYYY-MM-DD)")
	cmd.AddCommand(exportCmd)

	return cmd
}

func runServer() error {
	cfg, err := config.Load()
	logger := newLogger(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}
	facility, err := cfg.Location()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid facility timezone")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	var inflight guard.Guard = guard.NewMemoryGuard()
	if cfg.RedisURL != "" {
		client, err := guard.Connect(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer client.Close()
		inflight = guard.NewRedisGuard(client, "", logger)
		logger.Info().Msg("submission guard backed by redis")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	e.GET("/health", db.HealthHandler(pool, version))

	apiV1 := e.Group("/api/v1")
	if cfg.IsDev() {
		logger.Warn().Str("user_id", cfg.DevUserID).Msg("development auth enabled")
		apiV1.Use(auth.DevAuthMiddleware(cfg.DevUserID))
	} else {
		apiV1.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			JWKSURL:    cfg.AuthJWKSURL,
			SigningKey: []byte(cfg.AuthSigningKey),
		}))
	}

	forms := formcatalog.Default()

	subjectSvc := subject.NewService(subject.NewRepo(pool))
	identity := professional.NewResolver(professional.NewRepo(pool))
	typeRepo := attentiontype.NewRepo(pool)
	encounterRepo := encounter.NewRepo(pool)
	submissionRepo := formsubmission.NewRepo(pool)

	orch := submission.New(submission.Deps{
		Forms:           forms,
		Subjects:        subjectSvc,
		Identity:        identity,
		Classifications: attentiontype.NewResolver(typeRepo),
		Encounters:      encounter.NewFactory(encounterRepo),
		Payloads:        formsubmission.NewWriter(submissionRepo),
		Projections:     projection.NewWriter(pool, projection.DefaultDefinitions()),
		Guard:           inflight,
		LockTTL:         cfg.SubmissionLockTTL,
		Location:        facility,
	}, logger)

	subject.NewHandler(subjectSvc).RegisterRoutes(apiV1)
	professional.NewHandler(identity).RegisterRoutes(apiV1)
	attentiontype.NewHandler(attentiontype.NewService(typeRepo)).RegisterRoutes(apiV1)
	encounter.NewHandler(encounter.NewService(encounterRepo)).RegisterRoutes(apiV1)
	formsubmission.NewHandler(formsubmission.NewService(submissionRepo)).RegisterRoutes(apiV1)
	formcatalog.NewHandler(forms).RegisterRoutes(apiV1)
	submission.NewHandler(orch).RegisterRoutes(apiV1)
	reporting.NewHandler(reporting.NewRunner(reporting.NewPGSource(pool), forms.List(""))).RegisterRoutes(apiV1)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("version", version).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
