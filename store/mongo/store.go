package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/vesting"
	"github.com/xraph/vesting/id"
	"github.com/xraph/vesting/schedule"
	vestingstore "github.com/xraph/vesting/store"
	"github.com/xraph/vesting/types"
)

// Collection name constants.
const (
	colSchedules = "vesting_schedules"
	colState     = "vesting_state"
)

// compile-time interface check
var _ vestingstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all vesting collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("vesting/mongo: migrate %s indexes: %w", col, err)
		}
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
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("vesting/mongo: create schedule %s: %w", m.ID, vesting.ErrAlreadyExists)
		}
		return fmt.Errorf("vesting/mongo: create schedule: %w", err)
	}
	return nil
}

func (s *Store) GetSchedule(ctx context.Context, scheduleID id.ScheduleID) (*schedule.Schedule, error) {
	var m scheduleModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": scheduleID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, vesting.ErrScheduleNotFound
		}
		return nil, fmt.Errorf("vesting/mongo: get schedule: %w", err)
	}
	return fromScheduleModel(&m)
}

func (s *Store) ListScheduleIDsByBeneficiary(ctx context.Context, beneficiary string) ([]id.ScheduleID, error) {
	var models []scheduleModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"beneficiary": beneficiary}).
		Sort(bson.D{{Key: "seq", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("vesting/mongo: list beneficiary schedules: %w", err)
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
	filter := bson.M{}
	if opts.Token != "" {
		filter["token"] = opts.Token
	}
	if opts.Beneficiary != "" {
		filter["beneficiary"] = opts.Beneficiary
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "seq", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("vesting/mongo: list schedules: %w", err)
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
	n, err := s.mdb.Collection(colSchedules).CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("vesting/mongo: count schedules: %w", err)
	}
	return n, nil
}

// UpdateReleased filters on the expected released value so the single-document
// update acts as a compare-and-set.
func (s *Store) UpdateReleased(ctx context.Context, scheduleID id.ScheduleID, from, to types.Amount, at time.Time) error {
	res, err := s.mdb.NewUpdate((*scheduleModel)(nil)).
		Filter(bson.M{"_id": scheduleID.String(), "released": from.String()}).
		Set("released", to.String()).
		Set("updated_at", at.UTC()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("vesting/mongo: update released: %w", err)
	}
	if res.MatchedCount() == 1 {
		return nil
	}

	if _, err := s.GetSchedule(ctx, scheduleID); err != nil {
		return err
	}
	return fmt.Errorf("vesting/mongo: released of %s is no longer %s: %w", scheduleID, from, vesting.ErrConflict)
}

// ==================== Ownership ====================

func (s *Store) GetOwner(ctx context.Context) (string, error) {
	var m stateModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": stateKeyOwner}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return "", vesting.ErrNotFound
		}
		return "", fmt.Errorf("vesting/mongo: get owner: %w", err)
	}
	return m.Value, nil
}

func (s *Store) SetOwner(ctx context.Context, owner string) error {
	_, err := s.mdb.Collection(colState).UpdateOne(ctx,
		bson.M{"_id": stateKeyOwner},
		bson.M{"$set": bson.M{"value": owner, "updated_at": now()}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("vesting/mongo: set owner: %w", err)
	}
	return nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all vesting collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colSchedules: {
			{
				Keys:    bson.D{{Key: "seq", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "beneficiary", Value: 1}, {Key: "seq", Value: 1}}},
			{Keys: bson.D{{Key: "token", Value: 1}, {Key: "seq", Value: 1}}},
		},
	}
}
