package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	billingmodeldomain "github.com/railzwaylabs/wastebill/internal/billingmodel/domain"
	collectiondomain "github.com/railzwaylabs/wastebill/internal/collection/domain"
	"github.com/railzwaylabs/wastebill/internal/events"
	invoicedomain "github.com/railzwaylabs/wastebill/internal/invoice/domain"
	paymentdomain "github.com/railzwaylabs/wastebill/internal/payment/domain"
	residentdomain "github.com/railzwaylabs/wastebill/internal/resident/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Apply brings the schema to the latest version and records it in schema_state.
// Postgres runs the embedded SQL migrations. SQLite, used for local runs, is
// migrated from the gorm models instead.
func Apply(ctx context.Context, conn *gorm.DB, driver string, log *zap.Logger) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}

	switch driver {
	case "postgres":
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		if err := RunMigrations(ctx, sqlDB); err != nil {
			return err
		}
	case "sqlite":
		if err := AutoMigrate(conn); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported database driver %q", driver)
	}

	version, checksum, err := recordSchemaState(ctx, conn)
	if err != nil {
		return err
	}
	log.Info("schema migrated",
		zap.String("driver", driver),
		zap.String("schema_version", version),
		zap.String("checksum", checksum))
	return nil
}

// Models lists every table the service owns, parents before children.
func Models() []any {
	return []any{
		&residentdomain.Resident{},
		&billingmodeldomain.Record{},
		&invoicedomain.Invoice{},
		&collectiondomain.CollectionEvent{},
		&collectiondomain.RecyclingEvent{},
		&paymentdomain.Payment{},
		&paymentdomain.NotificationRecord{},
		&events.Record{},
		&SchemaState{},
	}
}

// partialIndexes are the indexes gorm tags cannot express. They mirror the ones
// created by the SQL migrations.
var partialIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_billing_models_active_locality
		ON billing_models (locality_code) WHERE active`,
}

func AutoMigrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	for _, stmt := range partialIndexes {
		if err := conn.Exec(stmt).Error; err != nil {
			return fmt.Errorf("auto-migrate index: %w", err)
		}
	}
	return nil
}

// RunMigrations applies the embedded postgres migrations under an advisory
// lock so concurrent deploys cannot interleave.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	unlock, err := acquireAdvisoryLock(ctx, db)
	if err != nil {
		return err
	}
	defer func() {
		_ = unlock(context.Background())
	}()

	latestVersion, err := LatestMigrationVersion()
	if err != nil {
		return err
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}
	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if _, err := ensureNotDirty(migrator); err != nil {
		return err
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}

	currentVersion, err := ensureNotDirty(migrator)
	if err != nil {
		return err
	}
	if currentVersion != latestVersion {
		return fmt.Errorf("schema version mismatch after migrate: got %d want %d", currentVersion, latestVersion)
	}
	return nil
}

func ensureNotDirty(migrator *migrate.Migrate) (uint, error) {
	version, dirty, err := migrator.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, nil
		}
		return 0, fmt.Errorf("read migration version: %w", err)
	}
	if dirty {
		return 0, fmt.Errorf("database migrations are dirty at version %d", version)
	}
	return version, nil
}
