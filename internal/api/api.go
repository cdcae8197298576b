package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/galerija/imagepipe/internal/api/handlers"
	"github.com/galerija/imagepipe/internal/api/middleware"
	"github.com/galerija/imagepipe/internal/pipeline"
	"github.com/galerija/imagepipe/internal/store"
)

// NewRouter assembles the notification surface: MinIO webhook, manual
// trigger, health, presign and metrics.
func NewRouter(st store.Store, worker *pipeline.Worker, bucket string, presignTTL time.Duration) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.Logger(),
		middleware.Recovery(),
	)

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	h := handlers.NewResizeHandler(st, worker, bucket, presignTTL)

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Image resize service is up. POST /webhook for MinIO notifications, POST /resize for manual processing, GET /health for status.")
	})
	router.GET("/health", h.Health)
	router.POST("/webhook", h.Webhook)
	router.POST("/resize", h.Resize)
	router.GET("/presign", h.Presign)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
