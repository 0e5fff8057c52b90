package http

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/nurpe/pointage/internal/config"
	"github.com/nurpe/pointage/internal/http/middleware"
)

// NewRouter builds the engine with the stock middleware chain and the
// JSON 404 fallback.
func NewRouter(handler *Handler, authMiddleware gin.HandlerFunc, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.MaxMultipartMemory = cfg.HTTP.MaxBodyBytes
	router.Use(
		middleware.Recovery(log, cfg.IsDevelopment()),
		middleware.RequestLogger(log),
		middleware.SecurityHeaders(middleware.DefaultHeadersConfig()),
		cors.New(corsConfig(cfg.HTTP.ClientURL)),
		gzip.Gzip(gzip.DefaultCompression),
		middleware.BodyLimit(cfg.HTTP.MaxBodyBytes),
	)

	handler.Register(router, authMiddleware)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "route not found",
			"path":    c.Request.URL.Path,
			"method":  c.Request.Method,
			"message": "this URL does not exist on the API",
		})
	})
	return router
}

func corsConfig(clientURL string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization")
	cfg.AllowCredentials = true
	cfg.ExposeHeaders = []string{"Content-Disposition"}
	if clientURL == "" {
		cfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		cfg.AllowOrigins = []string{clientURL}
	}
	return cfg
}
