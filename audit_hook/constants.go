package audithook

// Action constants for audit events.
const (
	// Schedule actions
	ActionScheduleCreated = "vesting.schedule.created"

	// Payout actions
	ActionTokensReleased = "vesting.tokens.released"
	ActionReleaseFailed  = "vesting.release.failed"

	// Owner actions
	ActionEmergencyWithdraw    = "vesting.emergency.withdraw"
	ActionOwnershipTransferred = "vesting.ownership.transferred"

	// Integrity actions
	ActionInvariantViolation = "vesting.invariant.violation"
)

// Resource constants for audit events.
const (
	ResourceSchedule = "schedule"
	ResourceRelease  = "release"
	ResourceTreasury = "treasury"
	ResourceOwner    = "owner"
)

// Category constants for audit events.
const (
	CategoryVesting   = "vesting"
	CategoryPayout    = "payout"
	CategoryAccess    = "access"
	CategoryIntegrity = "integrity"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
