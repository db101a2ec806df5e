package server

import (
	"net/http"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/vendaria/trustcore/internal/guard"
	"github.com/vendaria/trustcore/internal/redaction"
)

type requestTenantBackupRequest struct {
	TenantID string `json:"tenantId"`
	Reason   string `json:"reason"`
}

func (s *Server) HandleRequestTenantBackup(c *gin.Context) {
	actorUID, err := guard.RequireAuth(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req requestTenantBackupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, guard.InvalidArgument(""))
		return
	}

	result, err := s.backupSvc.RequestBackup(c.Request.Context(), actorUID, req.TenantID, req.Reason)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	response := gin.H{
		"ok":        true,
		"requestId": result.RequestID.String(),
	}
	if result.Deduplicated {
		response["deduplicated"] = true
	}
	c.JSON(http.StatusOK, response)
}

type requestTenantRestoreRequest struct {
	TenantID string `json:"tenantId"`
	RunID    string `json:"runId"`
	Scope    string `json:"scope"`
	DryRun   bool   `json:"dryRun"`
}

func (s *Server) HandleRequestTenantRestore(c *gin.Context) {
	actorUID, err := guard.RequireAuth(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req requestTenantRestoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, guard.InvalidArgument(""))
		return
	}

	restore, err := s.backupSvc.RequestRestore(c.Request.Context(), actorUID, req.TenantID, req.RunID, req.Scope, req.DryRun)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":        true,
		"tenantId":  restore.TenantID,
		"restoreId": restore.ID.String(),
	})
}

type approveTenantRestoreRequest struct {
	TenantID  string `json:"tenantId"`
	RestoreID string `json:"restoreId"`
}

func (s *Server) HandleApproveTenantRestoreRequest(c *gin.Context) {
	actorUID, err := guard.RequireAuth(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req approveTenantRestoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, guard.InvalidArgument(""))
		return
	}
	restoreID, err := guard.ValidateAndSanitize(req.RestoreID, func(raw string) (snowflake.ID, error) {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			return 0, guard.InvalidArgument("A restoreId is required.")
		}
		return snowflake.ID(parsed), nil
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	approved, err := s.backupSvc.ApproveRestore(c.Request.Context(), actorUID, req.TenantID, restoreID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	response := map[string]any{
		"ok":         true,
		"tenantId":   approved.TenantID,
		"restoreId":  approved.ID.String(),
		"status":     string(approved.Status),
		"approvedBy": "",
	}
	if approved.ApprovedBy != nil {
		response["approvedBy"] = *approved.ApprovedBy
	}
	c.JSON(http.StatusOK, s.scopeOwnershipFields(c, actorUID, response))
}

// scopeOwnershipFields masks uid-like fields for tenant-tier callers. The
// masking is presentation only; access control already happened.
func (s *Server) scopeOwnershipFields(c *gin.Context, actorUID string, response map[string]any) map[string]any {
	user, err := s.identitySvc.Resolve(c.Request.Context(), actorUID)
	isGlobalAdmin := err == nil && user.IsSuperAdmin
	return redaction.BuildRoleScopedOwnershipResponse(response, isGlobalAdmin)
}
