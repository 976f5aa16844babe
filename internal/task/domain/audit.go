package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/teamdesk/internal/audit/introspect"
)

// Describe registers the task's audit descriptor. Tasks own an org column,
// so resolution never needs the project hop.
func Describe() *introspect.Descriptor[Task] {
	return &introspect.Descriptor[Task]{
		EntityType: "task",
		ID:         func(t *Task) snowflake.ID { return t.ID },
		Fields: []introspect.Field[Task]{
			introspect.Scalar("id", func(t *Task) any { return t.ID.String() }),
			introspect.Relation("org_id", func(t *Task) *snowflake.ID { return &t.OrgID }),
			introspect.Relation("project_id", func(t *Task) *snowflake.ID { return &t.ProjectID }),
			introspect.Scalar("title", func(t *Task) any { return t.Title }),
			introspect.Scalar("description", func(t *Task) any { return t.Description }),
			introspect.Scalar("status", func(t *Task) any { return t.Status }),
			introspect.Relation("assignee_id", func(t *Task) *snowflake.ID { return t.AssigneeID }),
			introspect.Scalar("due_date", func(t *Task) any { return timeValue(t.DueDate) }),
			introspect.Scalar("priority", func(t *Task) any { return t.Priority }),
			introspect.Scalar("sort_order", func(t *Task) any { return t.SortOrder }),
			introspect.Scalar("created_at", func(t *Task) any { return t.CreatedAt }),
			introspect.Scalar("updated_at", func(t *Task) any { return t.UpdatedAt }),
		},
		OrgResolvers: []introspect.OrgResolver[Task]{
			introspect.DirectOrg(func(t *Task) snowflake.ID { return t.OrgID }),
		},
	}
}

// DescribeComment registers the comment descriptor. Comments have no org
// column; ownership resolves through the parent task, then the ambient
// request tenant as a last resort.
func DescribeComment() *introspect.Descriptor[TaskComment] {
	return &introspect.Descriptor[TaskComment]{
		EntityType: "task_comment",
		ID:         func(c *TaskComment) snowflake.ID { return c.ID },
		Fields: []introspect.Field[TaskComment]{
			introspect.Scalar("id", func(c *TaskComment) any { return c.ID.String() }),
			introspect.Relation("task_id", func(c *TaskComment) *snowflake.ID { return &c.TaskID }),
			introspect.Relation("author_id", func(c *TaskComment) *snowflake.ID { return &c.AuthorID }),
			introspect.Scalar("body", func(c *TaskComment) any { return c.Body }),
			introspect.Scalar("created_at", func(c *TaskComment) any { return c.CreatedAt }),
		},
		OrgResolvers: []introspect.OrgResolver[TaskComment]{
			introspect.ParentOrg("tasks", func(c *TaskComment) snowflake.ID { return c.TaskID }),
		},
	}
}

func timeValue(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
