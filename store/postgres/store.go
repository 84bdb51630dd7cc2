package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/vesting"
	"github.com/xraph/vesting/id"
	"github.com/xraph/vesting/schedule"
	vestingstore "github.com/xraph/vesting/store"
	"github.com/xraph/vesting/types"
)

// compile-time interface check
var _ vestingstore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("vesting/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("vesting/postgres: migration failed: %w", err)
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
	if _, err := s.pg.NewInsert(m).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("vesting/postgres: insert schedule %s: %w", m.ID, vesting.ErrAlreadyExists)
		}
		return fmt.Errorf("vesting/postgres: insert schedule %s: %w", m.ID, err)
	}
	return nil
}

func (s *Store) GetSchedule(ctx context.Context, scheduleID id.ScheduleID) (*schedule.Schedule, error) {
	m := new(scheduleModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", scheduleID.String()).
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
	err := s.pg.NewSelect(&models).
		Where("beneficiary = $1", beneficiary).
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
	q := s.pg.NewSelect(&models)

	argIdx := 0
	if opts.Token != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("token = $%d", argIdx), opts.Token)
	}
	if opts.Beneficiary != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("beneficiary = $%d", argIdx), opts.Beneficiary)
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
	err := s.pg.NewRaw(`SELECT COUNT(*) FROM vesting_schedules`).Scan(ctx, &count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// UpdateReleased is a single conditional UPDATE; the WHERE clause on the
// current released value makes it a compare-and-set.
func (s *Store) UpdateReleased(ctx context.Context, scheduleID id.ScheduleID, from, to types.Amount, at time.Time) error {
	res, err := s.pg.NewUpdate((*scheduleModel)(nil)).
		Set("released = $1", to.String()).
		Set("updated_at = $2", at.UTC()).
		Where("id = $3", scheduleID.String()).
		Where("released = $4", from.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 1 {
		return nil
	}

	// Nothing matched: tell a missing schedule from a stale expectation.
	if _, err := s.GetSchedule(ctx, scheduleID); err != nil {
		return err
	}
	return fmt.Errorf("vesting/postgres: released of %s is no longer %s: %w", scheduleID, from, vesting.ErrConflict)
}

// ==================== Ownership ====================

func (s *Store) GetOwner(ctx context.Context) (string, error) {
	m := new(stateModel)
	err := s.pg.NewSelect(m).
		Where("key = $1", stateKeyOwner).
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
	_, err := s.pg.NewInsert(m).
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

// isUniqueViolation reports a PostgreSQL unique_violation (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
