package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/tariff_api/internal/catalog"
	"github.com/GTDGit/tariff_api/internal/utils"
)

var startTime = time.Now()

// HealthHandler provides health endpoint.
type HealthHandler struct {
	catalog *catalog.Catalog
	loadErr error
	source  string
}

// NewHealthHandler creates a new HealthHandler. Exactly one of cat and loadErr
// is expected to be set.
func NewHealthHandler(cat *catalog.Catalog, loadErr error, source string) *HealthHandler {
	return &HealthHandler{catalog: cat, loadErr: loadErr, source: source}
}

// GetHealth responds with service and reference data status.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	uptime := int(time.Since(startTime).Seconds())

	if h.catalog == nil {
		msg := "reference data not loaded"
		if h.loadErr != nil {
			msg = h.loadErr.Error()
		}
		utils.DetailedError(c, http.StatusServiceUnavailable, "DATA_LOAD_ERROR", msg, gin.H{
			"status": "unavailable",
			"uptime": uptime,
			"source": h.source,
		})
		return
	}

	utils.Success(c, http.StatusOK, "Service is healthy", gin.H{
		"status":  "healthy",
		"version": "1.0.0",
		"uptime":  uptime,
		"catalog": gin.H{
			"source": h.source,
			"stats":  h.catalog.Stats(),
		},
	})
}
