package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/vendaria/trustcore/internal/audit/domain"
	"github.com/vendaria/trustcore/internal/guard"
	identitydomain "github.com/vendaria/trustcore/internal/identity/domain"
	"github.com/vendaria/trustcore/pkg/db/pagination"
)

func (s *Server) HandleListAuditLogs(c *gin.Context) {
	actorUID, err := guard.RequireAuth(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	user, err := s.identitySvc.Resolve(c.Request.Context(), actorUID)
	if err != nil {
		if errors.Is(err, identitydomain.ErrUserNotFound) {
			AbortWithError(c, guard.Unauthenticated(""))
			return
		}
		AbortWithError(c, err)
		return
	}

	tenantID := strings.TrimSpace(c.Query("tenantId"))
	if err := guard.RequireTenantScope(user, tenantID); err != nil {
		AbortWithError(c, err)
		return
	}
	if err := guard.RequireRole(user, identitydomain.RoleOwner, identitydomain.RoleAdmin, identitydomain.RoleSuperAdmin); err != nil {
		AbortWithError(c, err)
		return
	}

	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, guard.InvalidArgument(""))
		return
	}

	resp, err := s.auditSvc.List(c.Request.Context(), auditdomain.ListAuditLogRequest{
		Pagination: page,
		TenantID:   tenantID,
		Action:     strings.TrimSpace(c.Query("action")),
		TargetType: strings.TrimSpace(c.Query("targetType")),
	})
	if err != nil {
		if errors.Is(err, auditdomain.ErrInvalidPageToken) || errors.Is(err, auditdomain.ErrInvalidTenant) {
			AbortWithError(c, guard.InvalidArgument(""))
			return
		}
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
