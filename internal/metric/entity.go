// AngelaMos | 2026
// entity.go

package metric

import (
	"time"
)

// Metric is one immutable daily log entry. Every scale is optional.
type Metric struct {
	ID         string    `json:"id"                   db:"id"`
	UserID     string    `json:"userId"               db:"user_id"`
	Timestamp  time.Time `json:"timestamp"            db:"timestamp"`
	Mood       *int      `json:"mood,omitempty"       db:"mood"`
	Energy     *int      `json:"energy,omitempty"     db:"energy"`
	SleepHours *int      `json:"sleepHours,omitempty" db:"sleep_hours"`
}

type CreateInput struct {
	Date       string
	SleepHours *int `validate:"omitempty,min=0,max=24"`
	Mood       *int `validate:"omitempty,min=1,max=10"`
	Energy     *int `validate:"omitempty,min=1,max=10"`
}

// TimestampLayout renders millisecond precision UTC timestamps, the form
// clients already parse.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

func (m *Metric) Date() string {
	return m.Timestamp.UTC().Format(TimestampLayout)
}
