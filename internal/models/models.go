package models

import "time"

type User struct {
	ID        int64
	Email     string
	PassHash  []byte
	CreatedAt time.Time
}

type Team struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	IsOwner   bool      `json:"is_owner"`
}

// Profile is the payload returned by the account endpoint: the user row
// merged with every team the user belongs to.
type Profile struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	Teams     []Team    `json:"teams"`
}

type ScheduledTask struct {
	Name              string
	Interval          int64
	NextExecutionTime time.Time
}

// IsOverdue reports whether the task missed its next execution slot.
// Timestamps are stored in UTC.
func (t ScheduledTask) IsOverdue(now time.Time) bool {
	return now.After(t.NextExecutionTime)
}

type Message struct {
	Email   string `json:"to"`
	Link    string `json:"link"`
	Purpose string `json:"purpose"`
}
