package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/models"
)

const eventColumns = `id, user_id, title, description, date, time, location, type, priority, status, created_at, updated_at`

// events without a time sort before timed events on the same day
const eventOrder = ` ORDER BY date ASC, time ASC NULLS FIRST, created_at ASC`

func scanEvent(row rowScanner) (*models.Event, error) {
	e := &models.Event{}
	err := row.Scan(&e.ID, &e.UserID, &e.Title, &e.Description, &e.Date, &e.Time,
		&e.Location, &e.Type, &e.Priority, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func collectEvents(rows pgx.Rows) ([]models.Event, error) {
	defer rows.Close()

	out := []models.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// CreateEvent inserts e and fills its timestamps.
func (s *Store) CreateEvent(ctx context.Context, e *models.Event) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO events (id, user_id, title, description, date, time, location, type, priority, status)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		 RETURNING created_at, updated_at`,
		e.ID, e.UserID, e.Title, e.Description, e.Date, e.Time, e.Location, e.Type, e.Priority, e.Status,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// GetEvent returns the event only when userID owns it.
func (s *Store) GetEvent(ctx context.Context, userID, id uuid.UUID) (*models.Event, error) {
	e, err := scanEvent(s.db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// ListEvents returns the owner's events within the inclusive date range.
func (s *Store) ListEvents(ctx context.Context, userID uuid.UUID, f models.EventFilter) ([]models.Event, error) {
	var b setBuilder
	where := []string{"user_id = " + b.next(userID)}
	if f.StartDate != nil {
		where = append(where, "date >= "+b.next(*f.StartDate))
	}
	if f.EndDate != nil {
		where = append(where, "date <= "+b.next(*f.EndDate))
	}

	q := `SELECT ` + eventColumns + ` FROM events WHERE ` + strings.Join(where, " AND ") + eventOrder
	rows, err := s.db.Query(ctx, q, b.args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	events, err := collectEvents(rows)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// SearchEvents matches text as a case-insensitive substring of the title or
// description. LIKE metacharacters in text are matched literally.
func (s *Store) SearchEvents(ctx context.Context, userID uuid.UUID, text string) ([]models.Event, error) {
	pattern := "%" + escapeLike(text) + "%"
	rows, err := s.db.Query(ctx,
		`SELECT `+eventColumns+` FROM events
		 WHERE user_id = $1 AND (title ILIKE $2 ESCAPE '\' OR description ILIKE $2 ESCAPE '\')`+eventOrder,
		userID, pattern)
	if err != nil {
		return nil, fmt.Errorf("search events: %w", err)
	}
	events, err := collectEvents(rows)
	if err != nil {
		return nil, fmt.Errorf("search events: %w", err)
	}
	return events, nil
}

// UpdateEvent applies the non-nil fields of p to the owner's event.
func (s *Store) UpdateEvent(ctx context.Context, userID, id uuid.UUID, p models.EventPatch) (*models.Event, error) {
	var b setBuilder
	b.addStr("title", p.Title, false)
	b.addStr("description", p.Description, true)
	if p.Date != nil {
		b.add("date", *p.Date)
	}
	b.addStr("time", p.Time, true)
	b.addStr("location", p.Location, true)
	b.addStr("type", p.Type, false)
	b.addStr("priority", p.Priority, false)
	b.addStr("status", p.Status, false)

	if b.empty() {
		return s.GetEvent(ctx, userID, id)
	}

	q := fmt.Sprintf(`UPDATE events SET %s, updated_at = NOW() WHERE id = %s AND user_id = %s RETURNING `+eventColumns,
		b.clause(), b.next(id), b.next(userID))

	e, err := scanEvent(s.db.QueryRow(ctx, q, b.args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	return e, nil
}

// DeleteEvent removes the owner's event.
func (s *Store) DeleteEvent(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM events WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
