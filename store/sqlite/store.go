package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/xraph/vesting"
	"github.com/xraph/vesting/id"
	"github.com/xraph/vesting/schedule"
	vestingstore "github.com/xraph/vesting/store"
	"github.com/xraph/vesting/types"
)

// compile-time interface check
var _ vestingstore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("vesting/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("vesting/sqlite: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Schedule Store ====================

func (s *Store) CreateSchedule(ctx context.Context, sch *schedule.Schedule) error {
	m := toScheduleModel(sch)
	if _, err := s.sdb.NewInsert(m).Exec(ctx); err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("vesting/sqlite: insert schedule %s: %w", m.ID, vesting.ErrAlreadyExists)
		}
		return fmt.Errorf("vesting/sqlite: insert schedule %s: %w", m.ID, err)
	}
	return nil
}

func (s *Store) GetSchedule(ctx context.Context, scheduleID id.ScheduleID) (*schedule.Schedule, error) {
	m := new(scheduleModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", scheduleID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, vesting.ErrScheduleNotFound
		}
		return nil, err
	}
	return fromScheduleModel(m)
}

func (s *Store) ListScheduleIDsByBeneficiary(ctx context.Context, beneficiary string) ([]id.ScheduleID, error) {
	var models []scheduleModel
	err := s.sdb.NewSelect(&models).
		Where("beneficiary = ?", beneficiary).
		OrderExpr("seq ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]id.ScheduleID, len(models))
	for i := range models {
		scheduleID, err := id.ParseScheduleID(models[i].ID)
		if err != nil {
			return nil, err
		}
		result[i] = scheduleID
	}
	return result, nil
}

func (s *Store) ListSchedules(ctx context.Context, opts schedule.ListOpts) ([]*schedule.Schedule, error) {
	var models []scheduleModel
	q := s.sdb.NewSelect(&models)

	if opts.Token != "" {
		q = q.Where("token = ?", opts.Token)
	}
	if opts.Beneficiary != "" {
		q = q.Where("beneficiary = ?", opts.Beneficiary)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("seq ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*schedule.Schedule, len(models))
	for i := range models {
		sch, err := fromScheduleModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = sch
	}
	return result, nil
}

func (s *Store) CountSchedules(ctx context.Context) (int64, error) {
	var count int64
	err := s.sdb.NewRaw(`SELECT COUNT(*) FROM vesting_schedules`).Scan(ctx, &count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) UpdateReleased(ctx context.Context, scheduleID id.ScheduleID, from, to types.Amount, at time.Time) error {
	res, err := s.sdb.NewUpdate((*scheduleModel)(nil)).
		Set("released = ?", to.String()).
		Set("updated_at = ?", at.UTC()).
		Where("id = ?", scheduleID.String()).
		Where("released = ?", from.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	return casResult(scheduleID, from, rows, func() error {
		_, err := s.GetSchedule(ctx, scheduleID)
		return err
	})
}

// casResult maps the rows touched by a released compare-and-set to the
// store contract. lookup is only consulted when nothing matched, to tell a
// missing schedule from a stale expectation.
func casResult(scheduleID id.ScheduleID, from types.Amount, rows int64, lookup func() error) error {
	if rows == 1 {
		return nil
	}
	if err := lookup(); err != nil {
		return err
	}
	return fmt.Errorf("vesting/sqlite: released of %s is no longer %s: %w", scheduleID, from, vesting.ErrConflict)
}

// ==================== Ownership ====================

func (s *Store) GetOwner(ctx context.Context) (string, error) {
	m := new(stateModel)
	err := s.sdb.NewSelect(m).
		Where("key = ?", stateKeyOwner).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return "", vesting.ErrNotFound
		}
		return "", err
	}
	return m.Value, nil
}

func (s *Store) SetOwner(ctx context.Context, owner string) error {
	m := &stateModel{Key: stateKeyOwner, Value: owner, UpdatedAt: now()}
	_, err := s.sdb.NewInsert(m).
		OnConflict("(key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// isConstraintViolation reports a UNIQUE or PRIMARY KEY violation.
func isConstraintViolation(err error) bool {
	var coded interface{ Code() int }
	if !errors.As(err, &coded) {
		return false
	}
	switch coded.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		// Connections without extended result codes only carry the primary code.
		return strings.Contains(err.Error(), "UNIQUE constraint failed")
	}
	return false
}
