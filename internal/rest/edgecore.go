package rest

import (
	"context"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// EdgeCoreController is the transparent pass-through to the EdgeCore
// internal endpoint. Unlike the /api/v1 family it surfaces the upstream's
// real status code, and a structured 502 on total failure, because its
// consumers render an explicit error state.
type EdgeCoreController struct {
	base    string
	timeout time.Duration
	httpc   *http.Client
	logger  *log.Logger
}

func NewEdgeCoreController(base string, timeout time.Duration, logger *log.Logger) *EdgeCoreController {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &EdgeCoreController{
		base:    base,
		timeout: timeout,
		httpc:   &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (c *EdgeCoreController) RegisterEdgeCoreRoutes(rg *gin.RouterGroup) {
	rg.GET("/api/edgecore/*path", c.handleProxy)
}

func (c *EdgeCoreController) handleProxy(ctx *gin.Context) {
	target := c.base + ctx.Param("path")
	if raw := ctx.Request.URL.RawQuery; raw != "" {
		target += "?" + raw
	}

	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target, nil)
	if err != nil {
		c.unreachable(ctx, err)
		return
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.unreachable(ctx, err)
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.unreachable(ctx, err)
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}
	ctx.Header("Cache-Control", "no-store")
	ctx.Data(resp.StatusCode, contentType, body)
}

func (c *EdgeCoreController) unreachable(ctx *gin.Context, err error) {
	c.logger.Printf("edgecore proxy %s: %v", ctx.Param("path"), err)
	ctx.Header("Cache-Control", "no-store")
	ctx.JSON(http.StatusBadGateway, gin.H{
		"error":  "edgecore_unreachable",
		"detail": err.Error(),
	})
}
