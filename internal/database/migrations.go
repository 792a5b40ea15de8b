package database

import (
	"errors"
	"time"

	"github.com/MarcoPoloResearchLab/advocate/backend/internal/records"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	migrationUppercaseTrackingCodes = "2026-06-14_uppercase_case_tracking_codes"
	migrationPurgeExpiredSessions   = "2026-07-02_purge_expired_operator_sessions"
)

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationUppercaseTrackingCodes, apply: uppercaseTrackingCodes},
		{name: migrationPurgeExpiredSessions, apply: purgeExpiredSessions},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// uppercaseTrackingCodes normalizes codes entered before lookups became
// case-insensitive.
func uppercaseTrackingCodes(db *gorm.DB) error {
	return db.Model(&records.Case{}).
		Where("case_id <> UPPER(TRIM(case_id))").
		Update("case_id", gorm.Expr("UPPER(TRIM(case_id))")).Error
}

func purgeExpiredSessions(db *gorm.DB) error {
	return db.Exec("DELETE FROM operator_sessions WHERE expires_at < ?", time.Now().UTC()).Error
}
