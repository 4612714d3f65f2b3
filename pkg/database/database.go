package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/klinikku/clinic-api/internal/config"
	"github.com/klinikku/clinic-api/internal/domain"
	"github.com/klinikku/clinic-api/internal/domain/billing"
	"github.com/klinikku/clinic-api/internal/domain/catalog"
	"github.com/klinikku/clinic-api/internal/domain/medication"
	"github.com/klinikku/clinic-api/internal/domain/patient"
	"github.com/klinikku/clinic-api/internal/domain/treatment"
	"github.com/klinikku/clinic-api/internal/domain/visit"
)

func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		PrepareStmt:                              true,
		DisableForeignKeyConstraintWhenMigrating: false,
		DisableAutomaticPing:                     false,
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DNS(),
		PreferSimpleProtocol: false,
	}), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

func Migrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("running database migrations")
	start := time.Now()

	schemas := []string{"clinical", "catalog", "billing", "auth", "audit"} // logical namespace
	for _, schema := range schemas {
		if err := db.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)).Error; err != nil {
			return fmt.Errorf("creating schema %s: %w", schema, err)
		}
	}

	models := []any{
		&domain.User{},
		&domain.AuditLog{},
		&patient.Patient{},
		&visit.Visit{},
		&treatment.Treatment{},
		&medication.Medication{},
		&catalog.Service{},
		&catalog.Procedure{},
		&catalog.Package{},
		&billing.Payment{},
		&billing.Commission{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto-migrating models: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("creating indexes: %w", err)
	}

	log.Info("migrations completed", zap.Duration("duration", time.Since(start)))
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []struct {
		name  string
		query string
	}{
		// Patient search: GIN index for fuzzy name matching
		{
			name:  "idx_patients_name_trgm",
			query: `CREATE INDEX IF NOT EXISTS idx_patients_name_trgm ON clinical.patients USING gin (full_name gin_trgm_ops) WHERE deleted_at IS NULL`,
		},
		// At most one non-voided commission per treatment. The deferred
		// materialization path relies on this as its last line of defense
		// against double payout.
		{
			name:  "ux_commissions_treatment_active",
			query: `CREATE UNIQUE INDEX IF NOT EXISTS ux_commissions_treatment_active ON billing.commissions (treatment_id) WHERE status <> 'voided'`,
		},
		{
			name:  "idx_commissions_staff_period",
			query: `CREATE INDEX IF NOT EXISTS idx_commissions_staff_period ON billing.commissions (staff_id, period_year, period_month) WHERE status <> 'voided'`,
		},
		{
			name:  "idx_visits_queue_day",
			query: `CREATE INDEX IF NOT EXISTS idx_visits_queue_day ON clinical.visits (visit_day, status, queue_number) WHERE deleted_at IS NULL`,
		},
		{
			name:  "idx_treatments_visit_active",
			query: `CREATE INDEX IF NOT EXISTS idx_treatments_visit_active ON clinical.treatments (visit_id) WHERE deleted_at IS NULL`,
		},
	}

	// The trigram index below needs pg_trgm.
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS pg_trgm").Error; err != nil {
		return fmt.Errorf("creating pg_trgm extension: %w", err)
	}

	for _, idx := range indexes {
		if err := db.Exec(idx.query).Error; err != nil {
			return fmt.Errorf("creating index %s: %w", idx.name, err)
		}
	}

	return nil
}
