package migration

import (
	"github.com/smallbiznis/teamdesk/internal/config"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// Module applies migrations on startup. The embedded SQL targets postgres;
// other dialects (sqlite in tests, mysql) manage schema elsewhere.
var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType != "postgres" {
			return nil
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
