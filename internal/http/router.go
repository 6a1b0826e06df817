// Package httpapi wires the HTTP transport (Gin) to the concierge handlers
// and the cross-cutting middleware: tracing, correlation ids, access logs
// with redaction, panic recovery, metrics, rate limiting, compression, CORS
// and security headers.
package httpapi

import (
	"net/http"
	"path"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tbourn/go-dining-concierge/docs"
	"github.com/tbourn/go-dining-concierge/internal/config"
	"github.com/tbourn/go-dining-concierge/internal/http/handlers"
	"github.com/tbourn/go-dining-concierge/internal/http/middleware"
)

const maxBodyBytes = 1 << 20

// RegisterRoutes attaches the middleware and endpoints to r. Routes whose
// dependency is nil in h are not mounted.
//
// Middleware order matters:
//  1. OpenTelemetry
//  2. RequestID and front-end error shape
//  3. AccessLog (request-scoped logger, redaction)
//  4. Gzip, outside Recovery so a recovered panic writes while the
//     compressor is still open
//  5. Recovery
//  6. Body size limit
//  7. Metrics
//  8. CORS, so throttled responses stay readable by browsers
//  9. Rate limiter (per session/IP)
//  10. Security headers
func RegisterRoutes(r *gin.Engine, h *handlers.Handlers, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	chatbotPath := path.Join("/", cfg.APIBasePath, "chatbot")

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.MessageBodyPaths(chatbotPath))
	r.Use(middleware.AccessLog(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key"},
	}))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))
	r.Use(middleware.Recovery())
	r.Use(limitBody(maxBodyBytes))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins))

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyBySessionOrIP())
	r.Use(rl.Handler())

	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS: cfg.Security.EnableHSTS,
		HSTSMaxAge: cfg.Security.HSTSMaxAge,
		NoStore:    true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)

	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := groupWithPrefix(r, cfg.APIBasePath)
	if h.Conversation != nil {
		api.POST("/chatbot", middleware.SessionID(), h.PostChatbot)
	}
	if h.Dialog != nil {
		api.POST("/dialog/hook", h.DialogHook)
	}

	if !cfg.AdminEnabled {
		return
	}
	admin := api.Group("/admin")
	if h.Ingestion != nil {
		admin.POST("/ingest/index", h.RebuildIndex)
		admin.POST("/ingest/source", h.IngestSource)
	}
	if h.Index != nil {
		admin.GET("/index", h.ListIndex)
	}
}

// corsMiddleware allows any origin when none are configured. The session
// header is both accepted and exposed so browser clients can keep a
// conversation across calls.
func corsMiddleware(origins []string) gin.HandlerFunc {
	cc := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderSessionID},
		ExposeHeaders:    []string{"X-Request-ID", middleware.HeaderSessionID, "Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = origins
	}
	return cors.New(cc)
}

// limitBody caps the request body at maxBytes. Reads past the cap fail.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
