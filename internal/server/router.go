package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/panelforge/panelforge/internal/auth"
	"github.com/panelforge/panelforge/internal/comic"
)

// NewRouter builds the gin engine: health check, static artifact serving,
// and the authenticated JSON API.
func NewRouter(svc *comic.Service, authorizer *auth.Authorizer, artifactDir string, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if artifactDir != "" {
		router.Static("/images", artifactDir)
	}

	h := &Handler{svc: svc, logger: logger}

	api := router.Group("/api")
	api.Use(BearerAuth(authorizer))
	{
		api.POST("/pages", h.GeneratePage)
		api.POST("/comics", h.CreateComic)
		api.GET("/stories", h.ListStories)
		api.GET("/stories/:slug/characters", h.CharacterGallery)
	}

	return router
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()))
	}
}
