package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/teamdesk/internal/audit/introspect"
)

// Describe registers the project's audit descriptor: every persisted field,
// relations flattened to identifiers, ownership from the org column.
func Describe() *introspect.Descriptor[Project] {
	return &introspect.Descriptor[Project]{
		EntityType: "project",
		ID:         func(p *Project) snowflake.ID { return p.ID },
		Fields: []introspect.Field[Project]{
			introspect.Scalar("id", func(p *Project) any { return p.ID.String() }),
			introspect.Relation("org_id", func(p *Project) *snowflake.ID { return &p.OrgID }),
			introspect.Scalar("name", func(p *Project) any { return p.Name }),
			introspect.Scalar("description", func(p *Project) any { return p.Description }),
			introspect.Relation("owner_id", func(p *Project) *snowflake.ID { return p.OwnerID }),
			introspect.Scalar("status", func(p *Project) any { return p.Status }),
			introspect.Scalar("start_date", func(p *Project) any { return timeValue(p.StartDate) }),
			introspect.Scalar("end_date", func(p *Project) any { return timeValue(p.EndDate) }),
			introspect.Scalar("created_at", func(p *Project) any { return p.CreatedAt }),
			introspect.Scalar("updated_at", func(p *Project) any { return p.UpdatedAt }),
		},
		OrgResolvers: []introspect.OrgResolver[Project]{
			introspect.DirectOrg(func(p *Project) snowflake.ID { return p.OrgID }),
		},
	}
}

func timeValue(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
