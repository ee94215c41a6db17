package db

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/BruksfildServices01/barber-agenda/internal/config"
	"github.com/BruksfildServices01/barber-agenda/internal/models"
)

// NotifyChannel is the LISTEN/NOTIFY channel fed by the appointments trigger.
const NotifyChannel = "appointment_changes"

func NewDB(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	level := gormlogger.Warn
	if !cfg.IsProduction() {
		level = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DBUrl), &gorm.Config{
		PrepareStmt: true,
		Logger:      gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := Migrate(db, cfg.ChangeFeed == config.ChangeFeedPostgres); err != nil {
		return nil, err
	}

	log.Info("database ready", zap.String("change_feed", cfg.ChangeFeed))
	return db, nil
}

func Migrate(db *gorm.DB, withNotifyTrigger bool) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.OperatorSettings{},
		&models.Barber{},
		&models.Service{},
		&models.Client{},
		&models.Appointment{},
		&models.Payment{},
		&models.ExpenseCategory{},
		&models.Expense{},
		&models.AuditLog{},
	); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS btree_gist`,
		// Nenhum par de agendamentos ativos do mesmo barbeiro/dia se sobrepõe.
		`DO $$
		BEGIN
			IF NOT EXISTS (
				SELECT 1 FROM pg_constraint WHERE conname = 'appointments_no_overlap'
			) THEN
				ALTER TABLE appointments
					ADD CONSTRAINT appointments_no_overlap
					EXCLUDE USING gist (
						barber_id WITH =,
						appointment_date WITH =,
						int4range(start_minute, end_minute) WITH &&
					)
					WHERE (status <> 'cancelled');
			END IF;
		END $$`,
	}

	if withNotifyTrigger {
		stmts = append(stmts,
			`CREATE OR REPLACE FUNCTION notify_appointment_change() RETURNS trigger AS $$
			DECLARE
				rec RECORD;
				cname TEXT;
			BEGIN
				IF TG_OP = 'DELETE' THEN
					rec := OLD;
				ELSE
					rec := NEW;
				END IF;

				SELECT name INTO cname FROM clients WHERE id = rec.client_id;

				PERFORM pg_notify('`+NotifyChannel+`', json_build_object(
					'type', TG_OP,
					'table', TG_TABLE_NAME,
					'id', rec.id,
					'barber_id', rec.barber_id,
					'date', to_char(rec.appointment_date, 'YYYY-MM-DD'),
					'start_minute', rec.start_minute,
					'status', rec.status,
					'client_name', cname
				)::text);

				RETURN rec;
			END;
			$$ LANGUAGE plpgsql`,
			`DROP TRIGGER IF EXISTS appointments_notify ON appointments`,
			`CREATE TRIGGER appointments_notify
				AFTER INSERT OR UPDATE OR DELETE ON appointments
				FOR EACH ROW EXECUTE FUNCTION notify_appointment_change()`,
		)
	}

	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	return nil
}
