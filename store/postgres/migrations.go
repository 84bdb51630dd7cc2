package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the vesting store.
var Migrations = migrate.NewGroup("vesting")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_vesting_schedules",
			Version: "20250101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS vesting_schedules (
    id                TEXT PRIMARY KEY,
    seq               BIGINT NOT NULL,
    beneficiary_index INT NOT NULL DEFAULT 0,
    token             TEXT NOT NULL,
    beneficiary       TEXT NOT NULL,
    decimals          SMALLINT NOT NULL DEFAULT 0,
    start_at          TIMESTAMPTZ NOT NULL,
    cliff_seconds     BIGINT NOT NULL DEFAULT 0,
    duration_seconds  BIGINT NOT NULL CHECK (duration_seconds > 0),
    slice_seconds     BIGINT NOT NULL CHECK (slice_seconds > 0),
    total_amount      TEXT NOT NULL,
    released          TEXT NOT NULL DEFAULT '0',
    created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_vesting_schedules_seq ON vesting_schedules (seq);
CREATE INDEX IF NOT EXISTS idx_vesting_schedules_beneficiary ON vesting_schedules (beneficiary, seq);
CREATE INDEX IF NOT EXISTS idx_vesting_schedules_token ON vesting_schedules (token, seq);
`)
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
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS vesting_state (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS vesting_state`)
				return err
			},
		},
	)
}
