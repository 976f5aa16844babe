// Package domain contains persistence models for tasks and their comments.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

func ValidStatus(status string) bool {
	switch status {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	default:
		return false
	}
}

func ValidPriority(priority string) bool {
	switch priority {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// Task is a tenant-scoped work item inside a project.
type Task struct {
	ID          snowflake.ID  `gorm:"primaryKey" json:"id"`
	OrgID       snowflake.ID  `gorm:"not null;index" json:"org_id"`
	ProjectID   snowflake.ID  `gorm:"not null;index" json:"project_id"`
	Title       string        `gorm:"type:text;not null" json:"title"`
	Description string        `gorm:"type:text" json:"description"`
	Status      string        `gorm:"type:text;not null;default:'todo'" json:"status"`
	AssigneeID  *snowflake.ID `gorm:"index" json:"assignee_id"`
	DueDate     *time.Time    `json:"due_date"`
	Priority    string        `gorm:"type:text;not null;default:'medium'" json:"priority"`
	SortOrder   int           `gorm:"not null;default:0" json:"sort_order"`
	CreatedAt   time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Task) TableName() string { return "tasks" }

// TaskComment is a child of Task. It carries no org column of its own;
// ownership resolves through the task.
type TaskComment struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	TaskID    snowflake.ID `gorm:"not null;index" json:"task_id"`
	AuthorID  snowflake.ID `gorm:"not null;index" json:"author_id"`
	Body      string       `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (TaskComment) TableName() string { return "task_comments" }

type CreateTaskRequest struct {
	ProjectID   snowflake.ID
	Title       string
	Description string
	Status      string
	AssigneeID  *snowflake.ID
	DueDate     *time.Time
	Priority    string
	SortOrder   int
}

type UpdateTaskRequest struct {
	Title       *string
	Description *string
	Status      *string
	AssigneeID  *snowflake.ID
	DueDate     *time.Time
	Priority    *string
	SortOrder   *int
}

type Service interface {
	Create(ctx context.Context, userID snowflake.ID, req CreateTaskRequest) (*Task, error)
	Get(ctx context.Context, id snowflake.ID) (*Task, error)
	List(ctx context.Context, projectID snowflake.ID) ([]*Task, error)
	Update(ctx context.Context, userID snowflake.ID, id snowflake.ID, req UpdateTaskRequest) (*Task, error)
	Delete(ctx context.Context, userID snowflake.ID, id snowflake.ID) error

	AddComment(ctx context.Context, userID snowflake.ID, taskID snowflake.ID, body string) (*TaskComment, error)
	ListComments(ctx context.Context, taskID snowflake.ID) ([]*TaskComment, error)
	DeleteComment(ctx context.Context, userID snowflake.ID, commentID snowflake.ID) error
}

var (
	ErrInvalidTitle        = errors.New("invalid_title")
	ErrInvalidStatus       = errors.New("invalid_status")
	ErrInvalidPriority     = errors.New("invalid_priority")
	ErrInvalidBody         = errors.New("invalid_body")
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrProjectNotFound     = errors.New("project_not_found")
	ErrTaskNotFound        = errors.New("task_not_found")
	ErrCommentNotFound     = errors.New("comment_not_found")
)
