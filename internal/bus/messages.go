package bus

import (
	"encoding/json"
	"time"

	"tally/internal/core"
)

const (
	KindStoreChange = "store-change"
	KindReminder    = "reminder"
)

// Envelope wraps every event on the exchange so consumers can dispatch on
// kind before decoding the payload.
type Envelope struct {
	Kind    string          `json:"kind"`
	Origin  string          `json:"origin"`
	Payload json.RawMessage `json:"payload"`
}

// StoreChangeEvent announces that a store key was rewritten. Other
// processes resync their mirror of the key when they see one.
type StoreChangeEvent struct {
	Key       string    `json:"key"`
	Rev       int64     `json:"rev"`
	Timestamp time.Time `json:"timestamp"`
}

// ReminderEvent carries a fired planned-expense reminder to whatever
// delivers notifications.
type ReminderEvent struct {
	PlanID    string    `json:"planId"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

// NewReminderEvent builds the notification payload for a fired reminder:
// the plan title plus its category.
func NewReminderEvent(plan core.PlannedExpense) *ReminderEvent {
	return &ReminderEvent{
		PlanID:    plan.ID,
		Title:     plan.Title,
		Body:      "Category: " + string(plan.Category),
		Timestamp: time.Now(),
	}
}

func NewStoreChangeEvent(key string, rev int64) *StoreChangeEvent {
	return &StoreChangeEvent{Key: key, Rev: rev, Timestamp: time.Now()}
}

func wrap(kind, origin string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Kind: kind, Origin: origin, Payload: body})
}

func unwrap(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return &env, nil
}
