package server

import (
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	taskdomain "github.com/smallbiznis/teamdesk/internal/task/domain"
)

type createTaskRequest struct {
	ProjectID   string     `json:"project_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	AssigneeID  string     `json:"assignee_id"`
	DueDate     *time.Time `json:"due_date"`
	Priority    string     `json:"priority"`
	SortOrder   int        `json:"sort_order"`
}

type updateTaskRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
	AssigneeID  *string    `json:"assignee_id"`
	DueDate     *time.Time `json:"due_date"`
	Priority    *string    `json:"priority"`
	SortOrder   *int       `json:"sort_order"`
}

type createTaskCommentRequest struct {
	Body string `json:"body"`
}

func (s *Server) CreateTask(c *gin.Context) {
	userID, _ := userIDFrom(c)

	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	projectID, err := snowflake.ParseString(req.ProjectID)
	if err != nil {
		AbortWithError(c, newValidationError("project_id", "invalid_project_id", "invalid identifier"))
		return
	}

	assigneeID, err := parseOptionalID(req.AssigneeID)
	if err != nil {
		AbortWithError(c, newValidationError("assignee_id", "invalid_assignee_id", "invalid identifier"))
		return
	}

	task, err := s.taskSvc.Create(c.Request.Context(), userID, taskdomain.CreateTaskRequest{
		ProjectID:   projectID,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		AssigneeID:  assigneeID,
		DueDate:     req.DueDate,
		Priority:    req.Priority,
		SortOrder:   req.SortOrder,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, task)
}

func (s *Server) GetTask(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	task, err := s.taskSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

func (s *Server) ListTasks(c *gin.Context) {
	projectID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	tasks, err := s.taskSvc.List(c.Request.Context(), projectID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": tasks})
}

func (s *Server) UpdateTask(c *gin.Context) {
	userID, _ := userIDFrom(c)

	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	var assigneeID *snowflake.ID
	if req.AssigneeID != nil {
		assigneeID, err = parseOptionalID(*req.AssigneeID)
		if err != nil {
			AbortWithError(c, newValidationError("assignee_id", "invalid_assignee_id", "invalid identifier"))
			return
		}
	}

	task, err := s.taskSvc.Update(c.Request.Context(), userID, id, taskdomain.UpdateTaskRequest{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		AssigneeID:  assigneeID,
		DueDate:     req.DueDate,
		Priority:    req.Priority,
		SortOrder:   req.SortOrder,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

func (s *Server) DeleteTask(c *gin.Context) {
	userID, _ := userIDFrom(c)

	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.taskSvc.Delete(c.Request.Context(), userID, id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) CreateTaskComment(c *gin.Context) {
	userID, _ := userIDFrom(c)

	taskID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req createTaskCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	comment, err := s.taskSvc.AddComment(c.Request.Context(), userID, taskID, req.Body)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

func (s *Server) ListTaskComments(c *gin.Context) {
	taskID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	comments, err := s.taskSvc.ListComments(c.Request.Context(), taskID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": comments})
}

func (s *Server) DeleteTaskComment(c *gin.Context) {
	userID, _ := userIDFrom(c)

	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.taskSvc.DeleteComment(c.Request.Context(), userID, id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
