package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/railzwaylabs/clubsettle/internal/tenantcontext"
	"go.uber.org/zap"
)

const (
	headerRequestID  = "X-Request-ID"
	headerTenantID   = "X-Tenant-ID"
	headerUserID     = "X-User-ID"
	headerUserRole   = "X-User-Role"
	headerSubclubIDs = "X-Subclub-IDs"

	contextRequestIDKey = "request_id"
)

var knownRoles = map[string]bool{
	tenantcontext.RoleOwner:   true,
	tenantcontext.RoleAdmin:   true,
	tenantcontext.RoleFinance: true,
	tenantcontext.RoleViewer:  true,
}

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(headerRequestID))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(contextRequestIDKey, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

// TenantRequired reads the identity forwarded by the authenticating proxy.
// Requests without a tenant never reach a handler.
func (s *Server) TenantRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, err := snowflake.ParseString(strings.TrimSpace(c.GetHeader(headerTenantID)))
		if err != nil || tenantID == 0 {
			AbortWithError(c, tenantcontext.ErrMissingTenant)
			return
		}
		userID, err := snowflake.ParseString(strings.TrimSpace(c.GetHeader(headerUserID)))
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		role := strings.ToLower(strings.TrimSpace(c.GetHeader(headerUserRole)))
		if !knownRoles[role] {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		identity := tenantcontext.Identity{TenantID: tenantID, UserID: userID, Role: role}
		if raw := strings.TrimSpace(c.GetHeader(headerSubclubIDs)); raw != "" {
			for _, part := range strings.Split(raw, ",") {
				id, err := snowflake.ParseString(strings.TrimSpace(part))
				if err != nil {
					AbortWithError(c, ErrInvalidRequest.WithField(headerSubclubIDs, "invalid id"))
					return
				}
				identity.SubclubIDs = append(identity.SubclubIDs, id)
			}
		}

		c.Request = c.Request.WithContext(tenantcontext.With(c.Request.Context(), identity))
		c.Next()
	}
}

// RequirePermission checks the caller's role against the policy store.
func (s *Server) RequirePermission(object, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := tenantcontext.Require(c.Request.Context())
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if err := s.authz.Authorize(c.Request.Context(), identity.Role, object, action); err != nil {
			s.log.Info("request denied",
				zap.String("tenant_id", identity.TenantID.String()),
				zap.String("role", identity.Role),
				zap.String("object", object),
				zap.String("action", action),
			)
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}
