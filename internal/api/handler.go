package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/umairkarel/Amazon-Sales-Data-Engineering/internal/metrics"
)

// Pinger verifies the warehouse connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the pipeline's operational endpoints: a health probe backed
// by a warehouse ping and the Prometheus metrics of the current process.
type Handler struct {
	pinger Pinger
	reg    *metrics.Registry
	router *gin.Engine
	log    *zap.Logger
}

func NewHandler(pinger Pinger, reg *metrics.Registry, log *zap.Logger) *Handler {
	gin.SetMode(gin.ReleaseMode)
	h := &Handler{
		pinger: pinger,
		reg:    reg,
		router: gin.New(),
		log:    log,
	}

	h.registerRoutes()

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.router.GET("/health", h.healthCheck)
	h.router.GET("/metrics", gin.WrapH(h.reg.Handler()))
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	if err := h.pinger.Ping(c.Request.Context()); err != nil {
		h.log.Error("Health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}
