package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	organizationdomain "github.com/smallbiznis/teamdesk/internal/organization/domain"
)

type createOrganizationRequest struct {
	Name string `json:"name"`
}

func (s *Server) CreateOrganization(c *gin.Context) {
	userID, ok := userIDFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req createOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	org, err := s.organizationSvc.Create(c.Request.Context(), userID, organizationdomain.CreateOrganizationRequest{
		Name: req.Name,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, org)
}

func (s *Server) ListOrganizations(c *gin.Context) {
	userID, ok := userIDFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	orgs, err := s.organizationSvc.ListByUser(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": orgs})
}
