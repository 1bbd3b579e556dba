/**************************************************************************************************
** Package server exposes the watermarking pipeline over HTTP so a browser or a remote CLI can
** preview labels and download watermarked archives.
**************************************************************************************************/
package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/majorfi/photo-stamp/pkg/batch"
	"github.com/majorfi/photo-stamp/pkg/utils"
)

const (
	// APIKeyHeader carries the shared secret when the server is started with an API key.
	APIKeyHeader    = "x-api-key"
	// RequestIDHeader echoes the request ID, generated when the caller does not send one.
	RequestIDHeader = "X-Request-ID"

	// maxConcurrentBatches bounds the batches decoded and rendered at the same time.
	maxConcurrentBatches = 2

	// maxMultipartMemory bounds what a multipart upload keeps in memory before spilling to disk.
	maxMultipartMemory = 64 << 20

	// maxPreviewBytes bounds a preview request body.
	maxPreviewBytes = 1 << 20

	// uploadSlack covers the job field and multipart framing on top of the images themselves.
	uploadSlack = 1 << 20

	shutdownTimeout = 10 * time.Second
)

/**************************************************************************************************
** Server wires the HTTP routes to a batch processor.
**************************************************************************************************/
type Server struct {
	router    *gin.Engine
	processor *batch.Processor
	logger    *logrus.Logger
	apiKey    string
	batches   *semaphore.Weighted

	maxUploadBytes int64
}

/**************************************************************************************************
** New creates a server and registers its routes.
**
** @param processor - Processor used by the watermark endpoint
** @param logger - Logger for requests and errors
** @param apiKey - Shared secret required on /api routes, "" to disable
** @return *Server - Server ready to be run or mounted
**************************************************************************************************/
func New(processor *batch.Processor, logger *logrus.Logger, apiKey string) *Server {
	if logger.GetLevel() < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.MaxMultipartMemory = maxMultipartMemory

	s := &Server{
		router:    router,
		processor: processor,
		logger:    logger,
		apiKey:    apiKey,
		batches:   semaphore.NewWeighted(maxConcurrentBatches),

		maxUploadBytes: utils.MaxImageCount*utils.MaxImageBytes + uploadSlack,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(
		gin.CustomRecovery(func(c *gin.Context, err any) {
			s.logger.WithField("path", c.Request.URL.Path).Errorf("panic: %v", err)
			c.AbortWithStatus(http.StatusInternalServerError)
		}),
		s.requestLogger(),
		cors.New(cors.Config{
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders:     []string{"Accept", "Content-Length", "Content-Type", "Origin", APIKeyHeader, RequestIDHeader},
			ExposeHeaders:    []string{"Content-Disposition", RequestIDHeader},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
			AllowAllOrigins:  true,
		}),
		gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/api/watermark"})),
	)

	s.router.GET("/healthz", s.handleHealth)

	api := s.router.Group("/api", s.requireAPIKey())
	api.POST("/preview", s.handlePreview)
	api.POST("/watermark", s.handleWatermark)
}

/**************************************************************************************************
** Handler returns the router, for tests and for mounting under another server.
**************************************************************************************************/
func (s *Server) Handler() http.Handler {
	return s.router
}

/**************************************************************************************************
** Run serves on addr until ctx is cancelled, then shuts down gracefully.
**
** @param ctx - Stops the server when done
** @param addr - Listen address, e.g. ":8080"
** @return error - Listen or shutdown error
**************************************************************************************************/
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

/**************************************************************************************************
** requestLogger tags every request with an ID and logs it with logrus once it has been served.
**************************************************************************************************/
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header(RequestIDHeader, requestID)
		c.Next()

		entry := s.logger.WithFields(logrus.Fields{
			"request":  requestID,
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
			"client":   c.ClientIP(),
		})
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Error("Request failed")
		case c.Writer.Status() >= http.StatusBadRequest:
			entry.Warn("Request rejected")
		default:
			entry.Debug("Request served")
		}
	}
}

/**************************************************************************************************
** requireAPIKey rejects requests without the configured key. It is a no-op without a key.
**************************************************************************************************/
func (s *Server) requireAPIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.apiKey == "" || c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		if subtle.ConstantTimeCompare([]byte(c.GetHeader(APIKeyHeader)), []byte(s.apiKey)) != 1 {
			abortWithError(c, http.StatusUnauthorized, errors.New("missing or invalid API key"))
			return
		}
		c.Next()
	}
}
