package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/galerija/imagepipe/internal/config"
	"github.com/galerija/imagepipe/internal/ftpsync"
	"github.com/galerija/imagepipe/internal/store"
	"github.com/galerija/imagepipe/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.SetLevel(cfg.Server.LogLevel)

	if !cfg.FTP.Enabled() {
		log.Fatal("FTP_HOST, FTP_USER and FTP_PASSWORD must be configured for the sync service")
	}

	st, err := store.NewMinioStore(cfg.Minio)
	if err != nil {
		log.Fatalf("Failed to create store client: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Log.Info().Msg("Shutting down...")
		cancel()
	}()

	syncer := ftpsync.New(st, cfg.FTP, cfg.Sync, cfg.Minio.Bucket, cfg.Resize.TempDir)

	logger.Log.Info().
		Str("ftp_host", cfg.FTP.Host).
		Str("remote_path", cfg.FTP.RemotePath).
		Str("bucket", cfg.Minio.Bucket).
		Int("lookback_hours", cfg.Sync.LookbackHours).
		Msg("Starting FTP sync service")

	if err := syncer.Start(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Sync service failed")
	}

	logger.Log.Info().Msg("Sync service exiting")
}
