package organization

import (
	"github.com/smallbiznis/teamdesk/internal/organization/repository"
	"github.com/smallbiznis/teamdesk/internal/organization/service"
	"go.uber.org/fx"
)

var Module = fx.Module("organization.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
