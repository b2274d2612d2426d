package migration

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrSchemaNotApplied       = errors.New("schema_not_applied")
	ErrSchemaVersionMismatch  = errors.New("schema_version_mismatch")
	ErrSchemaChecksumMismatch = errors.New("schema_checksum_mismatch")
)

// SchemaState is the single row describing which migration set was applied.
type SchemaState struct {
	ID            bool      `gorm:"primaryKey;autoIncrement:false"`
	SchemaVersion string    `gorm:"type:varchar(32);not null"`
	Checksum      string    `gorm:"type:varchar(64)"`
	AppliedAt     time.Time `gorm:"not null"`
}

func (SchemaState) TableName() string { return "schema_state" }

func expectedState() (string, string, error) {
	latest, err := LatestMigrationVersion()
	if err != nil {
		return "", "", err
	}
	checksum, err := MigrationsChecksum()
	if err != nil {
		return "", "", err
	}
	return strconv.FormatUint(uint64(latest), 10), checksum, nil
}

func recordSchemaState(ctx context.Context, conn *gorm.DB) (string, string, error) {
	version, checksum, err := expectedState()
	if err != nil {
		return "", "", err
	}

	state := SchemaState{
		ID:            true,
		SchemaVersion: version,
		Checksum:      checksum,
		AppliedAt:     time.Now().UTC(),
	}
	err = conn.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"schema_version", "checksum", "applied_at"}),
	}).Create(&state).Error
	if err != nil {
		return "", "", fmt.Errorf("record schema state: %w", err)
	}
	return version, checksum, nil
}

// CheckSchema fails unless the database was migrated with exactly the
// migrations embedded in this binary.
func CheckSchema(ctx context.Context, conn *gorm.DB) error {
	version, checksum, err := expectedState()
	if err != nil {
		return err
	}

	var state SchemaState
	result := conn.WithContext(ctx).Where("id = ?", true).Limit(1).Find(&state)
	if result.Error != nil {
		return fmt.Errorf("%w: %v", ErrSchemaNotApplied, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSchemaNotApplied
	}
	if state.SchemaVersion != version {
		return fmt.Errorf("%w: state=%s expected=%s", ErrSchemaVersionMismatch, state.SchemaVersion, version)
	}
	if state.Checksum != "" && state.Checksum != checksum {
		return fmt.Errorf("%w: state=%s expected=%s", ErrSchemaChecksumMismatch, state.Checksum, checksum)
	}
	return nil
}
