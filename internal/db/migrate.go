package db

import (
	"fmt"

	types "github.com/floortrack/floortrack-backend/internal/domain"
	"gorm.io/gorm"
)

// Migrate runs AutoMigrate for every core table and then applies the
// constraints gorm cannot express: the partial unique indexes the invariants
// ride on, and the cascade FKs. Shared by PostgresService and the test
// harness so both environments enforce identical semantics.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&types.Worker{},
		&types.Station{},
		&types.Job{},
		&types.JobItem{},
		&types.JobItemStep{},
		&types.WipBalance{},
		&types.WipConsumption{},
		&types.JobItemProgress{},
		&types.StatusDefinition{},
		&types.Session{},
		&types.StatusEvent{},
		&types.Report{},
	); err != nil {
		return err
	}

	statements := []string{
		// One active session per worker; a concurrent insert loses with 23505.
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_session_active_worker
		   ON session (worker_id) WHERE status = 'active'`,
		// Backstop for the one-open-event invariant; healthy flows never hit
		// it because transitions serialize on the session row lock.
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_status_event_open
		   ON status_event (session_id) WHERE ended_at IS NULL`,
		// One non-approved first-product request per step.
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_report_first_product_open
		   ON report (job_item_step_id) WHERE is_first_product_qa AND status = 'new'`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_job_item_step_position
		   ON job_item_step (job_item_id, position)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_wip_balance_step
		   ON wip_balance (job_item_step_id)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_job_item_progress_item
		   ON job_item_progress (job_item_id)`,
		// Replacing a pipeline deletes its steps; balances must go with them.
		`DO $$ BEGIN
		   IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'fk_wip_balance_step') THEN
		     ALTER TABLE wip_balance
		       ADD CONSTRAINT fk_wip_balance_step
		       FOREIGN KEY (job_item_step_id) REFERENCES job_item_step (id)
		       ON DELETE CASCADE;
		   END IF;
		 END $$`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("apply constraint: %w", err)
		}
	}
	return nil
}
