// Package events carries mutation notifications between the API server and
// the worker. Instead of an ambient query-cache, every successful mutation
// publishes a message that names the derived views it made stale; consumers
// decide when to recompute.
package events

import (
	"encoding/json"
	"time"
)

type (
	Entity string
	Op     string
)

const (
	EntityExpense  Entity = "expense"
	EntityCategory Entity = "category"
	EntityBudget   Entity = "budget"

	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Derived view names, matching the query keys the client invalidates.
const (
	ViewExpenses   = "expenses"
	ViewStats      = "stats"
	ViewCategories = "categories"
)

// ChangeMessage describes one committed mutation. Month is the yyyy-MM of
// the affected expense date (empty for category-only changes) so the worker
// can limit rollup recomputation to the touched month.
type ChangeMessage struct {
	Entity     Entity    `json:"entity"`
	Op         Op        `json:"op"`
	ID         int64     `json:"id"`
	Month      string    `json:"month,omitempty"`
	StaleViews []string  `json:"staleViews"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewChangeMessage(entity Entity, op Op, id int64, month string, staleViews []string) *ChangeMessage {
	return &ChangeMessage{
		Entity:     entity,
		Op:         op,
		ID:         id,
		Month:      month,
		StaleViews: staleViews,
		Timestamp:  time.Now(),
	}
}

func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
