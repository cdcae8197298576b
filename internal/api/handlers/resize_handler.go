package handlers

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/galerija/imagepipe/internal/pipeline"
	"github.com/galerija/imagepipe/internal/store"
)

// ResizeHandler wires the HTTP notification surface to the pipeline
// worker pool. Processing is asynchronous: responses go out before the
// pipeline touches the object.
type ResizeHandler struct {
	store      store.Store
	worker     *pipeline.Worker
	bucket     string
	presignTTL time.Duration
}

func NewResizeHandler(st store.Store, worker *pipeline.Worker, bucket string, presignTTL time.Duration) *ResizeHandler {
	return &ResizeHandler{store: st, worker: worker, bucket: bucket, presignTTL: presignTTL}
}

type webhookPayload struct {
	Records []struct {
		EventName string `json:"eventName"`
		S3        struct {
			Bucket struct {
				Name string `json:"name"`
			} `json:"bucket"`
			Object struct {
				Key string `json:"key"`
			} `json:"object"`
		} `json:"s3"`
	} `json:"Records"`
}

// Webhook receives MinIO bucket notification batches. The response is
// sent before any processing so the notifier is never blocked.
func (h *ResizeHandler) Webhook(c *gin.Context) {
	var payload webhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		log.Warn().Err(err).Msg("webhook payload unparseable")
		c.JSON(http.StatusOK, gin.H{"status": "OK", "message": "notification received"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "OK", "message": "notification received"})
	log.Info().Int("records", len(payload.Records)).Msg("webhook notification received")

	runner := h.worker.Runner()
	for _, record := range payload.Records {
		if !strings.HasPrefix(record.EventName, "s3:ObjectCreated:") {
			continue
		}
		bucket := record.S3.Bucket.Name
		if bucket == "" || record.S3.Object.Key == "" {
			log.Warn().Str("event", record.EventName).Msg("skipping record with incomplete structure")
			continue
		}

		// Keys arrive percent-encoded with + for spaces.
		key, err := url.QueryUnescape(record.S3.Object.Key)
		if err != nil {
			log.Error().Err(err).Str("raw_key", record.S3.Object.Key).Msg("failed to decode object key")
			continue
		}

		if reason := runner.SkipReason(key); reason != "" {
			log.Debug().Str("key", key).Str("reason", reason).Msg("webhook record skipped")
			continue
		}

		h.worker.Submit(pipeline.Task{Bucket: bucket, Key: key})
	}
}

type resizeRequest struct {
	Bucket string `json:"bucket"`
	Object string `json:"object"`
}

// Resize triggers processing of one named object, for operators and
// testing. Validates existence before accepting.
func (h *ResizeHandler) Resize(c *gin.Context) {
	var req resizeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Bucket == "" || req.Object == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing bucket and object parameters"})
		return
	}

	if _, err := h.store.Stat(c.Request.Context(), req.Bucket, req.Object); err != nil {
		if store.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "object " + req.Object + " does not exist in bucket " + req.Bucket})
			return
		}
		log.Error().Err(err).Str("key", req.Object).Msg("object stat failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check object status"})
		return
	}

	h.worker.Submit(pipeline.Task{Bucket: req.Bucket, Key: req.Object})
	c.JSON(http.StatusAccepted, gin.H{"message": "processing of " + req.Object + " started"})
}

// Health reports whether the configured bucket is reachable.
func (h *ResizeHandler) Health(c *gin.Context) {
	exists, err := h.store.Exists(c.Request.Context(), h.bucket)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "ERROR", "message": "cannot reach object store"})
		return
	}
	if !exists {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "ERROR", "message": "bucket " + h.bucket + " does not exist"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "OK", "message": "service is up and bucket exists"})
}

// Presign returns a time-limited download URL for one object.
func (h *ResizeHandler) Presign(c *gin.Context) {
	object := c.Query("object")
	if object == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing object parameter"})
		return
	}

	ctx := c.Request.Context()
	if _, err := h.store.Stat(ctx, h.bucket, object); err != nil {
		if store.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "object " + object + " does not exist"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check object status"})
		return
	}

	u, err := h.store.PresignedGetURL(ctx, h.bucket, object, h.presignTTL)
	if err != nil {
		log.Error().Err(err).Str("key", object).Msg("presign failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate URL"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": u, "expires_in": int(h.presignTTL.Seconds())})
}
