package types

import "time"

// Entity carries record timestamps. Embed it in persisted domain types.
type Entity struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEntity creates an Entity stamped with the current time.
func NewEntity() Entity {
	return NewEntityAt(time.Now())
}

// NewEntityAt creates an Entity stamped with t (converted to UTC).
func NewEntityAt(t time.Time) Entity {
	t = t.UTC()
	return Entity{
		CreatedAt: t,
		UpdatedAt: t,
	}
}

// Touch sets UpdatedAt to t (converted to UTC).
func (e *Entity) Touch(t time.Time) {
	e.UpdatedAt = t.UTC()
}

// Age returns how long before now the entity was created.
func (e Entity) Age(now time.Time) time.Duration {
	return now.Sub(e.CreatedAt)
}
