// Package main is the entry point for the CivicPulse grievance server.
// It provides a REST API where citizens file complaints, administrators
// route them to departments and departments resolve them.
//
// Architecture:
//   - Stateless HS256 bearer tokens; any instance verifies any token
//   - A route policy table decides access after the token gate
//   - Complaint status changes are conditional updates on the prior status
//   - Attachments live on local disk, the department directory in Redis
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/civicpulse/grievance-server/internal/auth"
	"github.com/civicpulse/grievance-server/internal/cache"
	"github.com/civicpulse/grievance-server/internal/config"
	"github.com/civicpulse/grievance-server/internal/database"
	"github.com/civicpulse/grievance-server/internal/server"
	"github.com/civicpulse/grievance-server/internal/services"
	"github.com/civicpulse/grievance-server/internal/store"
	"github.com/civicpulse/grievance-server/internal/store/memory"
	"github.com/civicpulse/grievance-server/internal/uploads"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	logger, _ := zap.NewProduction()
	if cfg.IsDevelopment() {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	sugar.Infow("Starting CivicPulse Grievance Server",
		"port", cfg.Port,
		"env", cfg.Environment,
		"upload_dir", cfg.UploadDir,
	)

	ctx := context.Background()

	codec, err := auth.NewCodec(cfg.JWTSecret, cfg.TokenTTL, cfg.TokenIssuer)
	if err != nil {
		sugar.Fatalf("Failed to create token codec: %v", err)
	}
	policy, err := auth.LoadPolicy(cfg.PolicyFile)
	if err != nil {
		sugar.Fatalf("Failed to load authorization policy: %v", err)
	}

	deps := server.Deps{
		Logger:         logger,
		Codec:          codec,
		Policy:         policy,
		PublicPrefixes: cfg.PublicPrefixes,
		AllowedOrigins: cfg.AllowedOrigins,
		StaticDir:      cfg.StaticDir,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}

	// Initialize storage
	var (
		complaints  store.ComplaintStore
		users       store.UserStore
		departments store.DepartmentStore
		activity    store.ActivityStore
	)
	if cfg.DatabaseURL != "" {
		db, err := database.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			sugar.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := database.Migrate(ctx, db); err != nil {
			sugar.Fatalf("Failed to migrate database: %v", err)
		}
		complaints = database.NewComplaintRepository(db)
		users = database.NewUserRepository(db)
		departments = database.NewDepartmentRepository(db)
		activity = database.NewActivityRepository(db)
		deps.DB = db
	} else {
		sugar.Warn("DATABASE_URL not set, using in-memory store")
		mem := memory.NewStore()
		complaints, users, departments, activity = mem.Complaints(), mem.Users(), mem.Departments(), mem.Activity()
	}

	var deptCache services.DepartmentCache
	if cfg.RedisURL != "" {
		rdb, err := cache.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			sugar.Warnw("Redis unavailable, department cache disabled", "error", err)
		} else {
			defer rdb.Close()
			dc := cache.NewDepartmentCache(rdb, cfg.DepartmentCacheTTL)
			deptCache = dc
			deps.Cache = dc
		}
	}

	uploadStore, err := uploads.NewStore(cfg.UploadDir)
	if err != nil {
		sugar.Fatalf("Failed to prepare upload storage: %v", err)
	}

	// Initialize services
	deps.Activity = services.NewActivityLogService(activity, sugar)
	deps.Complaints = services.NewComplaintService(complaints, deps.Activity, sugar)
	deps.Users = services.NewUserService(users, codec, cfg.BcryptCost, sugar)
	if cfg.AllowPrivilegedRegistration {
		sugar.Warn("ALLOW_PRIVILEGED_REGISTRATION is on: anyone can register ADMIN and DEPARTMENT accounts")
		deps.Users.AllowPrivilegedRegistration(true)
	}
	deps.Departments = services.NewDepartmentService(departments, deptCache, sugar)
	deps.Uploads = uploadStore

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      server.NewRouter(deps),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sugar.Infof("Server listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	sugar.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Fatalf("Forced shutdown: %v", err)
	}

	sugar.Info("Server stopped")
}
