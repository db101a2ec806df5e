package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/vendaria/trustcore/pkg/tenantctx"
)

const bearerPrefix = "Bearer "

// AuthRequired resolves the bearer token to a caller UID and stores it on
// the request context. Only identity comes from the token; role and tenant
// are re-read from the user directory by every privileged service call.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if !strings.HasPrefix(header, bearerPrefix) {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
		if token == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		uid, err := s.authSvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		c.Request = c.Request.WithContext(tenantctx.WithActorUID(c.Request.Context(), uid))
		c.Next()
	}
}
