package server

import (
	"github.com/gin-gonic/gin"
)

// RequireMember admits any member of the resolved organization. No user is
// 401; an unresolved tenant or a user without a membership row is 403, so
// outsiders cannot probe which slugs exist.
func (s *Server) RequireMember() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := userIDFrom(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		orgID, ok := orgIDFrom(c)
		if !ok {
			AbortWithError(c, ErrForbidden)
			return
		}

		member, err := s.organizationSvc.IsMember(c.Request.Context(), orgID, userID)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if !member {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

// RequireOwnerOrAdmin admits only owner or admin memberships.
func (s *Server) RequireOwnerOrAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := userIDFrom(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		orgID, ok := orgIDFrom(c)
		if !ok {
			AbortWithError(c, ErrForbidden)
			return
		}

		allowed, err := s.organizationSvc.IsOwnerOrAdmin(c.Request.Context(), orgID, userID)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if !allowed {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}
