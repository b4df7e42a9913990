package models

import (
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire format of Event.Date
const DateLayout = "2006-01-02"

// Soft defaults for the free-form event columns
const (
	DefaultEventType     = "event"
	DefaultEventPriority = "medium"
	DefaultEventStatus   = "pending"
)

// Event is a user-owned note/task/reminder
type Event struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	Title       string    `json:"title" db:"title"`
	Description *string   `json:"description" db:"description"`
	Date        time.Time `json:"date" db:"date"`
	Time        *string   `json:"time" db:"time"` // "HH:MM"
	Location    *string   `json:"location" db:"location"`
	Type        string    `json:"type" db:"type"`
	Priority    string    `json:"priority" db:"priority"`
	Status      string    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// EventPatch carries a partial update. A nil field keeps the stored value.
type EventPatch struct {
	Title       *string
	Description *string
	Date        *time.Time
	Time        *string
	Location    *string
	Type        *string
	Priority    *string
	Status      *string
}

// IsEmpty reports whether the patch changes nothing
func (p EventPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Date == nil && p.Time == nil &&
		p.Location == nil && p.Type == nil && p.Priority == nil && p.Status == nil
}

// EventFilter restricts a listing to an inclusive date range
type EventFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
}

// UserPatch carries a partial profile update. A nil field keeps the stored value.
type UserPatch struct {
	Name     *string
	Email    *string
	Bio      *string
	Phone    *string
	Location *string
	Timezone *string
}
