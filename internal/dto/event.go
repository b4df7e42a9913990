package dto

import (
	"time"

	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/models"
)

// CreateEventRequest is the body of POST /api/events
type CreateEventRequest struct {
	Title       string  `json:"title" example:"Dentist"`
	Description *string `json:"description"`
	Date        string  `json:"date" example:"2025-08-02"` // YYYY-MM-DD
	Time        *string `json:"time" example:"09:30"`      // HH:MM
	Location    *string `json:"location"`
	Type        *string `json:"type" example:"event"`
	Priority    *string `json:"priority" example:"medium"`
	Status      *string `json:"status" example:"pending"`
}

// UpdateEventRequest is the body of PUT /api/events/{id}. Omitted fields are
// left untouched; "" clears description, time and location.
type UpdateEventRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Date        *string `json:"date"`
	Time        *string `json:"time"`
	Location    *string `json:"location"`
	Type        *string `json:"type"`
	Priority    *string `json:"priority"`
	Status      *string `json:"status"`
}

// EventResponse is an event as returned by the API
type EventResponse struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Date        string  `json:"date"`
	Time        *string `json:"time"`
	Location    *string `json:"location"`
	Type        string  `json:"type"`
	Priority    string  `json:"priority"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

func NewEventResponse(e *models.Event) EventResponse {
	return EventResponse{
		ID:          e.ID.String(),
		Title:       e.Title,
		Description: e.Description,
		Date:        e.Date.Format(models.DateLayout),
		Time:        e.Time,
		Location:    e.Location,
		Type:        e.Type,
		Priority:    e.Priority,
		Status:      e.Status,
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   e.UpdatedAt.Format(time.RFC3339),
	}
}

// NewEventListResponse never returns a nil slice so the JSON is [] not null
func NewEventListResponse(events []models.Event) EventListResponse {
	out := make([]EventResponse, 0, len(events))
	for i := range events {
		out = append(out, NewEventResponse(&events[i]))
	}
	return EventListResponse{Success: true, Events: out}
}

// EventListResponse wraps a list of events
type EventListResponse struct {
	Success bool            `json:"success"`
	Events  []EventResponse `json:"events"`
}

// EventEnvelope wraps a single event. CalendarLink is only set on create
// when the calendar mirror succeeded.
type EventEnvelope struct {
	Success      bool          `json:"success"`
	Message      string        `json:"message,omitempty"`
	Event        EventResponse `json:"event"`
	CalendarLink string        `json:"calendar_link,omitempty"`
}

// SyncResponse is returned by POST /api/events/{id}/sync
type SyncResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Link    string `json:"link,omitempty"`
}
