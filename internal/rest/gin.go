package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edgeblocks/edgesite/internal/config"
)

func NewServer(cfg config.Config) (*gin.Engine, *http.Server) {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	// Process liveness, distinct from the proxied /api/v1/health resource.
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}
	return r, srv
}
