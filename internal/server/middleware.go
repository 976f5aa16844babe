package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/smallbiznis/teamdesk/internal/orgcontext"
)

const (
	HeaderOrgSlug   = "X-Organization-Slug"
	HeaderUserID    = "X-User-ID"
	HeaderRequestID = "X-Request-ID"

	contextUserIDKey = "user_id"
	contextOrgIDKey  = "org_id"
)

// RequestID propagates the inbound request id or mints one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := strings.TrimSpace(c.GetHeader(HeaderRequestID))
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Header(HeaderRequestID, rid)
		c.Next()
	}
}

// CurrentUser reads the identity the outer auth layer forwarded. The header
// is optional here; guarded routes reject the missing case.
func (s *Server) CurrentUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if raw != "" {
			id, err := snowflake.ParseString(raw)
			if err != nil {
				AbortWithError(c, ErrUnauthorized)
				return
			}
			c.Set(contextUserIDKey, id)
		}
		c.Next()
	}
}

// OrgContext resolves the tenant slug header to a concrete organization and
// injects it into the request context. A missing or unknown slug leaves the
// org unset; the membership gates deny the request downstream, so callers
// cannot distinguish an absent tenant from one they don't belong to.
func (s *Server) OrgContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		slug := strings.TrimSpace(c.GetHeader(HeaderOrgSlug))

		org, err := s.organizationSvc.ResolveBySlug(c.Request.Context(), slug)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if org != nil {
			c.Set(contextOrgIDKey, org.ID)
			c.Request = c.Request.WithContext(orgcontext.WithOrgID(c.Request.Context(), org.ID))
		}
		c.Next()
	}
}

func userIDFrom(c *gin.Context) (snowflake.ID, bool) {
	v, ok := c.Get(contextUserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(snowflake.ID)
	return id, ok
}

func orgIDFrom(c *gin.Context) (snowflake.ID, bool) {
	v, ok := c.Get(contextOrgIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(snowflake.ID)
	return id, ok
}
