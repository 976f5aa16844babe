// Package orgcontext carries the resolved tenant through a request context.
package orgcontext

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// OrgContextKey is the request context key for the active organization ID.
type OrgContextKey struct{}

// WithOrgID stores the org ID in the context.
func WithOrgID(ctx context.Context, orgID snowflake.ID) context.Context {
	return context.WithValue(ctx, OrgContextKey{}, orgID)
}

// OrgIDFromContext returns the org ID from context, if set.
func OrgIDFromContext(ctx context.Context) (snowflake.ID, bool) {
	if ctx == nil {
		return 0, false
	}

	orgID, ok := ctx.Value(OrgContextKey{}).(snowflake.ID)
	if !ok || orgID == 0 {
		return 0, false
	}
	return orgID, true
}
