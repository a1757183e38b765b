package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/classpulse/embedapi/internal/auth"
	"github.com/classpulse/embedapi/internal/db/bunx"
	"github.com/classpulse/embedapi/internal/middleware"
	"github.com/classpulse/embedapi/internal/powerbi"
	"github.com/classpulse/embedapi/internal/repository"
	"github.com/classpulse/embedapi/internal/server"
	"github.com/classpulse/embedapi/internal/telemetry"
)

// sweepInterval is how often expired revocation entries are cleaned up.
// Entries are harmless past their token's expiry; this only bounds growth.
const sweepInterval = 10 * time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the embed API server",
	Long:  `Starts the HTTP server with the auth and Power BI embed endpoints.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		telemetryShutdown, err := telemetry.Init(cmd.Context(), cfg.Observability)
		if err != nil {
			return fmt.Errorf("failed to initialize telemetry: %w", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := telemetryShutdown(ctx); err != nil {
				log.Printf("WARNING: telemetry shutdown failed: %v", err)
			}
		}()

		serverMetrics, err := telemetry.NewServerMetrics()
		if err != nil {
			return fmt.Errorf("failed to create server metrics: %w", err)
		}
		authMetrics, err := telemetry.NewAuthMetrics()
		if err != nil {
			return fmt.Errorf("failed to create auth metrics: %w", err)
		}

		db, err := bunx.NewDB(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer bunx.Close(db)

		log.Printf("Connected to database")

		userRepo := repository.NewBunUserRepository(db)

		// Background cleanup of the revocation registry. The cleanup
		// goroutine stops with the command context on shutdown.
		sweepCtx, cancelSweep := context.WithCancel(cmd.Context())
		defer cancelSweep()

		var registry auth.Registry
		switch cfg.RevocationBackend {
		case "db":
			revokedRepo := repository.NewBunRevokedJTIRepository(db)
			registry = auth.NewStoreRegistry(revokedRepo)
			go func() {
				ticker := time.NewTicker(sweepInterval)
				defer ticker.Stop()
				for {
					select {
					case <-ticker.C:
						if err := revokedRepo.DeleteExpired(sweepCtx, time.Minute); err != nil {
							log.Printf("ERROR: revocation cleanup failed: %v", err)
						}
					case <-sweepCtx.Done():
						return
					}
				}
			}()
			log.Printf("Using database-backed revocation registry")
		default:
			memRegistry := auth.NewMemoryRegistry()
			registry = memRegistry
			go func() {
				ticker := time.NewTicker(sweepInterval)
				defer ticker.Stop()
				for {
					select {
					case <-ticker.C:
						if removed := memRegistry.Sweep(); removed > 0 {
							log.Printf("Revocation sweep removed %d expired entries (%d live)", removed, memRegistry.Len())
						}
					case <-sweepCtx.Done():
						return
					}
				}
			}()
			log.Printf("Using in-memory revocation registry")
		}

		issuer, err := auth.NewIssuer(userRepo, cfg.JWT)
		if err != nil {
			return fmt.Errorf("failed to initialize issuer: %w", err)
		}
		validator := auth.NewValidator(registry, cfg.JWT)

		// The embed broker is optional; without it the server still does
		// authentication, just without the /embed route.
		var broker server.EmbedBroker
		if cfg.PowerBI != nil {
			if err := cfg.PowerBI.Validate(); err != nil {
				return fmt.Errorf("invalid Power BI configuration: %w", err)
			}
			broker = powerbi.NewClient(cfg.PowerBI)
			log.Printf("Power BI broker configured (workspace %s, report %s)", cfg.PowerBI.WorkspaceID, cfg.PowerBI.ReportID)
		} else {
			log.Printf("WARNING: Power BI broker not configured, /embed/getEmbedToken disabled")
		}

		r := server.NewRouter(server.RouterOptions{
			Issuer:       issuer,
			Validator:    validator,
			Registry:     registry,
			Broker:       broker,
			Cfg:          cfg,
			LoginLimiter: middleware.NewRateLimiter(cfg.LoginRateLimit, cfg.LoginRateWindow),
			Metrics:      serverMetrics,
			AuthMetrics:  authMetrics,
		})

		srv := &http.Server{
			Addr:         cfg.ServerAddr,
			Handler:      r,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			log.Printf("Starting server on %s", cfg.ServerAddr)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			log.Printf("Received signal %v, shutting down gracefully", sig)

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				srv.Close()
				return fmt.Errorf("graceful shutdown failed: %w", err)
			}

			log.Printf("Server stopped")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
