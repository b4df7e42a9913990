// Package calendarsync mirrors events into an external calendar.
//
// Mirroring is best effort: callers persist the event first and only log a
// failed Sync. Exactly one provider is active, chosen by configuration.
package calendarsync

import (
	"context"
	"fmt"
	"time"

	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/config"
	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/logging"
	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/models"
)

// timed events have no end in the notes model; they are mirrored as one hour
const defaultDuration = time.Hour

// Syncer publishes one event and returns a link to it, or "" when the
// provider has no link to give.
type Syncer interface {
	Sync(ctx context.Context, e Event) (string, error)
}

// Event is the part of a note an external calendar cares about.
type Event struct {
	UID         string
	Title       string
	Description *string
	Location    *string
	Date        time.Time
	Time        *string // HH:MM, nil for all-day
	Timezone    string  // IANA name of the owner's timezone
}

// FromModel builds the mirror payload of e for an owner in timezone tz.
func FromModel(e *models.Event, tz string) Event {
	return Event{
		UID:         e.ID.String(),
		Title:       e.Title,
		Description: e.Description,
		Location:    e.Location,
		Date:        e.Date,
		Time:        e.Time,
		Timezone:    tz,
	}
}

// SyncError is returned by every provider.
type SyncError struct {
	Provider string
	Err      error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("calendar sync (%s): %v", e.Provider, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// window is the resolved start and end of an event.
type window struct {
	start  time.Time
	end    time.Time
	allDay bool
	loc    *time.Location
}

// resolveWindow places e in its owner's timezone, falling back to
// defaultTZ and then UTC. A missing or unparseable time gives an all-day
// window whose end is the next day.
func resolveWindow(e Event, defaultTZ string) window {
	loc := loadLocation(e.Timezone, defaultTZ)
	y, m, d := e.Date.Date()

	if e.Time != nil && *e.Time != "" {
		if clock, err := time.Parse("15:04", *e.Time); err == nil {
			start := time.Date(y, m, d, clock.Hour(), clock.Minute(), 0, 0, loc)
			return window{start: start, end: start.Add(defaultDuration), loc: loc}
		}
	}

	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return window{start: start, end: start.AddDate(0, 0, 1), allDay: true, loc: loc}
}

func loadLocation(names ...string) *time.Location {
	for _, name := range names {
		if name == "" {
			continue
		}
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return time.UTC
}

// New returns the provider selected by cfg, or nil when sync is disabled.
func New(ctx context.Context, cfg config.CalendarSyncConfig, log logging.Logger) (Syncer, error) {
	switch cfg.Provider {
	case config.SyncProviderNone, "":
		return nil, nil
	case config.SyncProviderLog:
		return NewLogSyncer(log, cfg.DefaultTimezone), nil
	case config.SyncProviderGoogleOAuth:
		return NewGoogleOAuthSyncer(ctx, cfg, log)
	case config.SyncProviderGoogleServiceAccount:
		return NewGoogleServiceAccountSyncer(ctx, cfg, log)
	case config.SyncProviderCalDAV:
		return NewCalDAVSyncer(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unknown calendar sync provider %q", cfg.Provider)
	}
}
