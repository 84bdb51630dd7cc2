package vesting

import "github.com/xraph/vesting/id"

// ID is the primary identifier type for all ledger entities.
type ID = id.ID

// ScheduleID identifies a vesting schedule.
type ScheduleID = id.ScheduleID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
