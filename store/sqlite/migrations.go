package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

const createSchedulesSQL = `
CREATE TABLE IF NOT EXISTS vesting_schedules (
    id                TEXT PRIMARY KEY,
    seq               INTEGER NOT NULL,
    beneficiary_index INTEGER NOT NULL DEFAULT 0,
    token             TEXT NOT NULL,
    beneficiary       TEXT NOT NULL,
    decimals          INTEGER NOT NULL DEFAULT 0,
    start_at          DATETIME NOT NULL,
    cliff_seconds     INTEGER NOT NULL DEFAULT 0,
    duration_seconds  INTEGER NOT NULL CHECK (duration_seconds > 0),
    slice_seconds     INTEGER NOT NULL CHECK (slice_seconds > 0),
    total_amount      TEXT NOT NULL,
    released          TEXT NOT NULL DEFAULT '0',
    created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_vesting_schedules_seq ON vesting_schedules (seq);
CREATE INDEX IF NOT EXISTS idx_vesting_schedules_beneficiary ON vesting_schedules (beneficiary, seq);
CREATE INDEX IF NOT EXISTS idx_vesting_schedules_token ON vesting_schedules (token, seq);
`

const createStateSQL = `
CREATE TABLE IF NOT EXISTS vesting_state (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Migrations is the grove migration group for the vesting store (SQLite).
var Migrations = migrate.NewGroup("vesting")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_vesting_schedules",
			Version: "20250101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, createSchedulesSQL)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS vesting_schedules`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_vesting_state",
			Version: "20250101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, createStateSQL)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS vesting_state`)
				return err
			},
		},
	)
}
