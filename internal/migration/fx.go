package migration

import (
	"context"

	"github.com/railzwaylabs/wastebill/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Module migrates the database while the fx graph is built. Only the migrate
// command includes it.
var Module = fx.Module("migration",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
		return Apply(context.Background(), conn, cfg.Database.Driver, log.Named("migration"))
	}),
)

// GateModule refuses to start a process against an unmigrated or stale schema.
var GateModule = fx.Module("migration.gate",
	fx.Invoke(func(lc fx.Lifecycle, conn *gorm.DB) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return CheckSchema(ctx, conn)
			},
		})
	}),
)
