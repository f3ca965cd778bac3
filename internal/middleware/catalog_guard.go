package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/tariff_api/internal/utils"
)

// CatalogGuard answers every request with 503 DATA_LOAD_ERROR. It is
// installed instead of the API routes when the reference data failed to load.
func CatalogGuard(loadErr error) gin.HandlerFunc {
	return func(c *gin.Context) {
		utils.Error(c, http.StatusServiceUnavailable, "DATA_LOAD_ERROR", loadErr.Error())
		c.Abort()
	}
}
