package rest

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edgeblocks/edgesite/internal/live"
)

// DashboardController exposes the aggregated live view state and an SSE
// change stream so browsers do not have to poll each route themselves.
type DashboardController struct {
	dash *live.Dashboard
}

func NewDashboardController(dash *live.Dashboard) *DashboardController {
	return &DashboardController{dash: dash}
}

func (c *DashboardController) RegisterDashboardRoutes(rg *gin.RouterGroup) {
	rg.GET("/api/v1/dashboard/state", c.handleState)
	rg.GET("/api/v1/dashboard/events", c.handleEvents)
}

func (c *DashboardController) handleState(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "30"))
	opts := live.FeedOptions{
		PnLSign: ctx.Query("pnl"),
		Limit:   limit,
	}
	ctx.Header("Cache-Control", "no-store")
	ctx.JSON(http.StatusOK, c.dash.View(opts))
}

func (c *DashboardController) handleEvents(ctx *gin.Context) {
	ctx.Header("Cache-Control", "no-cache")

	ch, cancel := c.dash.Subscribe()
	defer cancel()

	// Heartbeat keeps intermediaries from timing the stream out.
	ticker := time.NewTicker(25 * time.Second)
	defer ticker.Stop()

	ctxDone := ctx.Request.Context().Done()

	// Initial ping so the client can confirm the connection.
	ctx.SSEvent("ping", gin.H{})

	ctx.Stream(func(w io.Writer) bool {
		select {
		case <-ctxDone:
			return false
		case module := <-ch:
			ctx.SSEvent("update", gin.H{"module": module})
			return true
		case <-ticker.C:
			ctx.SSEvent("ping", gin.H{})
			return true
		}
	})
}
