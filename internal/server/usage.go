package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/vendaria/trustcore/internal/guard"
)

// HandleUsageMetrics serves the monitoring overview. Without a tenantId the
// caller gets the global rollup, which requires superAdmin.
func (s *Server) HandleUsageMetrics(c *gin.Context) {
	actorUID, err := guard.RequireAuth(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	tenantID := strings.TrimSpace(c.Query("tenantId"))
	if tenantID == "" {
		overview, err := s.usageSvc.GlobalOverview(c.Request.Context(), actorUID)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, overview)
		return
	}

	overview, err := s.usageSvc.TenantOverview(c.Request.Context(), actorUID, tenantID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}
