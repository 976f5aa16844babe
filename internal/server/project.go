package server

import (
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	projectdomain "github.com/smallbiznis/teamdesk/internal/project/domain"
)

type createProjectRequest struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	OwnerID     string     `json:"owner_id"`
	Status      string     `json:"status"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
}

type updateProjectRequest struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	OwnerID     *string    `json:"owner_id"`
	Status      *string    `json:"status"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
}

func (s *Server) CreateProject(c *gin.Context) {
	userID, _ := userIDFrom(c)

	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	ownerID, err := parseOptionalID(req.OwnerID)
	if err != nil {
		AbortWithError(c, newValidationError("owner_id", "invalid_owner_id", "invalid identifier"))
		return
	}

	project, err := s.projectSvc.Create(c.Request.Context(), userID, projectdomain.CreateProjectRequest{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     ownerID,
		Status:      req.Status,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, project)
}

func (s *Server) GetProject(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	project, err := s.projectSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, project)
}

func (s *Server) ListProjects(c *gin.Context) {
	projects, err := s.projectSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": projects})
}

func (s *Server) UpdateProject(c *gin.Context) {
	userID, _ := userIDFrom(c)

	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req updateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	var ownerID *snowflake.ID
	if req.OwnerID != nil {
		ownerID, err = parseOptionalID(*req.OwnerID)
		if err != nil {
			AbortWithError(c, newValidationError("owner_id", "invalid_owner_id", "invalid identifier"))
			return
		}
	}

	project, err := s.projectSvc.Update(c.Request.Context(), userID, id, projectdomain.UpdateProjectRequest{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     ownerID,
		Status:      req.Status,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, project)
}

func (s *Server) DeleteProject(c *gin.Context) {
	userID, _ := userIDFrom(c)

	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.projectSvc.Delete(c.Request.Context(), userID, id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func parseOptionalID(raw string) (*snowflake.ID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := snowflake.ParseString(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
