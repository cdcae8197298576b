package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/galerija/imagepipe/internal/api"
	"github.com/galerija/imagepipe/internal/config"
	"github.com/galerija/imagepipe/internal/derive"
	"github.com/galerija/imagepipe/internal/ftp"
	"github.com/galerija/imagepipe/internal/pipeline"
	"github.com/galerija/imagepipe/internal/sku"
	"github.com/galerija/imagepipe/internal/store"
	"github.com/galerija/imagepipe/internal/sweep"
	"github.com/galerija/imagepipe/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.SetLevel(cfg.Server.LogLevel)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	st, err := store.NewMinioStore(cfg.Minio)
	if err != nil {
		log.Fatalf("Failed to create store client: %v", err)
	}

	var translator sku.Translator = sku.NoopTranslator{}
	if cfg.SKU.TranslatorURL != "" {
		translator = sku.NewHTTPTranslator(cfg.SKU.TranslatorURL, cfg.SKU.TranslatorTimeout)
	}

	var exporter pipeline.Exporter
	if cfg.FTP.Enabled() {
		exporter = ftp.NewExporter(cfg.FTP)
		logger.Log.Info().Str("host", cfg.FTP.Host).Str("base_path", cfg.FTP.ExportPath).Msg("FTP export enabled")
	} else {
		logger.Log.Info().Msg("FTP export disabled (configuration incomplete)")
	}

	profiles := derive.DefaultProfiles()
	generator := derive.NewGenerator(cfg.Resize.TempDir, derive.Options{
		WebPQuality:        cfg.Resize.WebPQuality,
		OriginalQuality:    cfg.Resize.OriginalQuality,
		KeepOriginalFormat: cfg.Resize.SaveOriginalFormat,
	})

	runner := pipeline.NewRunner(st, translator, generator, exporter, profiles, pipeline.Options{
		Bucket:                     cfg.Minio.Bucket,
		SKUMode:                    cfg.SKU.Mode,
		SupportedExtensions:        cfg.Resize.SupportedExtensions,
		TempDir:                    cfg.Resize.TempDir,
		DeleteOriginalAfterProcess: cfg.Resize.DeleteOriginalAfterProcess,
		ExportBasePath:             cfg.FTP.ExportPath,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker := pipeline.NewWorker(runner)
	worker.Start(ctx, cfg.Resize.WorkerCount)

	if cfg.Sweep.Enabled {
		go sweep.New(st, worker, cfg.Minio.Bucket, cfg.Sweep).Run(ctx)
	}

	router := api.NewRouter(st, worker, cfg.Minio.Bucket, cfg.Minio.PresignTTL)
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Str("bucket", cfg.Minio.Bucket).Msg("Starting resize service")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down...")

	cancel()
	worker.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
