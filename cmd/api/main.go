package main

import (
	"context"
	"log"

	"cloud.google.com/go/firestore"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/qolda/qolda-backend/internal/config"
	"github.com/qolda/qolda-backend/internal/logger"
	"github.com/qolda/qolda-backend/internal/middleware"
	"github.com/qolda/qolda-backend/internal/server"
	"github.com/qolda/qolda-backend/internal/storage"
	"github.com/qolda/qolda-backend/internal/store"
)

// Set via -ldflags at build time.
var (
	gitSHA    = "dev"
	buildTime = "unknown"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	if err := logger.Initialize(cfg.LogLevel); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer logger.Log.Sync()

	ctx := context.Background()

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	var st store.Store
	var authMw *middleware.AuthMiddleware
	if cfg.FirebaseProjectID != "" {
		fs, err := firestore.NewClient(ctx, cfg.FirebaseProjectID, opts...)
		if err != nil {
			logger.Log.Fatal("firestore client", zap.Error(err))
		}
		st = store.NewFirestore(fs)

		authMw, err = middleware.NewAuthMiddleware(ctx, cfg)
		if err != nil {
			logger.Log.Fatal("firebase auth", zap.Error(err))
		}
	} else {
		logger.Log.Warn("FIREBASE_PROJECT_ID not set, using in-memory store with debug auth")
		st = store.NewMemory()
	}
	defer st.Close()

	var uploader storage.Uploader
	if cfg.StorageBucket != "" {
		gcs, err := storage.NewGCS(ctx, cfg.StorageBucket, opts...)
		if err != nil {
			logger.Log.Fatal("storage client", zap.Error(err))
		}
		uploader = gcs
	} else {
		logger.Log.Warn("STORAGE_BUCKET not set, uploads disabled")
	}

	srv := server.New(st, uploader, authMw, gitSHA, buildTime)

	addr := ":" + cfg.Port
	logger.Log.Info("starting server", zap.String("addr", addr), zap.String("git_sha", gitSHA))
	if err := srv.Start(addr); err != nil {
		logger.Log.Fatal("server stopped", zap.Error(err))
	}
}
