package store

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/models"
)

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return New(mock), mock
}

func strp(s string) *string { return &s }

var (
	userCols  = []string{"id", "name", "email", "password_hash", "bio", "phone", "location", "timezone", "created_at", "updated_at"}
	eventCols = []string{"id", "user_id", "title", "description", "date", "time", "location", "type", "priority", "status", "created_at", "updated_at"}
	ts        = time.Date(2025, 8, 2, 14, 0, 0, 0, time.UTC)
)

func eventRow(rows *pgxmock.Rows, id, owner uuid.UUID, title string, date time.Time, tm *string) *pgxmock.Rows {
	return rows.AddRow(id, owner, title, (*string)(nil), date, tm, (*string)(nil),
		"event", "medium", "pending", ts, ts)
}

func TestCreateUser_Success(t *testing.T) {
	s, mock := newMockStore(t)

	u := &models.User{ID: uuid.New(), Name: "A", Email: "a@x.com", PasswordHash: "hash"}
	mock.ExpectQuery(`INSERT INTO users \(id, name, email, password_hash, bio, phone, location, timezone\)`).
		WithArgs(pgxmock.AnyArg(), "A", "a@x.com", "hash", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), models.DefaultTimezone).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(ts, ts))

	require.NoError(t, s.CreateUser(context.Background(), u))
	assert.Equal(t, ts, u.CreatedAt)
	assert.Equal(t, models.DefaultTimezone, u.Timezone)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	err := s.CreateUser(context.Background(), &models.User{ID: uuid.New(), Email: "a@x.com"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestCreateUser_DBError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("db down"))

	err := s.CreateUser(context.Background(), &models.User{ID: uuid.New()})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmailTaken)
	assert.Contains(t, err.Error(), "db down")
}

func TestUserByEmail_Found(t *testing.T) {
	s, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectQuery(`SELECT id, name, email, password_hash, .* FROM users WHERE email = \$1`).
		WithArgs("a@x.com").
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow(id, "A", "a@x.com", "hash", (*string)(nil), (*string)(nil), strp("Recife"), "UTC", ts, ts))

	u, err := s.UserByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, "hash", u.PasswordHash)
	require.NotNil(t, u.Location)
	assert.Equal(t, "Recife", *u.Location)
}

func TestUserByEmail_NotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`FROM users WHERE email = \$1`).
		WithArgs("ghost@x.com").
		WillReturnRows(pgxmock.NewRows(userCols))

	_, err := s.UserByEmail(context.Background(), "ghost@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserByID_NotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`FROM users WHERE id = \$1`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(userCols))

	_, err := s.UserByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateUser_OnlyProvidedFields(t *testing.T) {
	s, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectQuery(`UPDATE users SET name = \$1, bio = \$2, updated_at = NOW\(\) WHERE id = \$3 RETURNING id, name`).
		WithArgs("New", nil, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow(id, "New", "a@x.com", "hash", (*string)(nil), (*string)(nil), (*string)(nil), "UTC", ts, ts))

	u, err := s.UpdateUser(context.Background(), id, models.UserPatch{Name: strp("New"), Bio: strp("")})
	require.NoError(t, err)
	assert.Equal(t, "New", u.Name)
	assert.Nil(t, u.Bio)
}

func TestUpdateUser_EmailTaken(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`UPDATE users SET email = \$1`).
		WithArgs("b@x.com", pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := s.UpdateUser(context.Background(), uuid.New(), models.UserPatch{Email: strp("b@x.com")})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestUpdateUser_EmptyPatchReadsUser(t *testing.T) {
	s, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectQuery(`FROM users WHERE id = \$1`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow(id, "A", "a@x.com", "hash", (*string)(nil), (*string)(nil), (*string)(nil), "UTC", ts, ts))

	u, err := s.UpdateUser(context.Background(), id, models.UserPatch{})
	require.NoError(t, err)
	assert.Equal(t, "A", u.Name)
}

func TestCreateEvent_Success(t *testing.T) {
	s, mock := newMockStore(t)
	date := time.Date(2025, 8, 2, 0, 0, 0, 0, time.UTC)

	e := &models.Event{ID: uuid.New(), UserID: uuid.New(), Title: "Dentist", Date: date,
		Type: "event", Priority: "high", Status: "pending"}
	mock.ExpectQuery(`INSERT INTO events \(id, user_id, title, description, date, time, location, type, priority, status\)`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "Dentist", pgxmock.AnyArg(), date, pgxmock.AnyArg(),
			pgxmock.AnyArg(), "event", "high", "pending").
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(ts, ts))

	require.NoError(t, s.CreateEvent(context.Background(), e))
	assert.Equal(t, ts, e.CreatedAt)
	assert.Equal(t, ts, e.UpdatedAt)
}

func TestGetEvent_ScopedByOwner(t *testing.T) {
	s, mock := newMockStore(t)
	id, owner := uuid.New(), uuid.New()
	date := time.Date(2025, 8, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM events WHERE id = \$1 AND user_id = \$2`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(eventRow(pgxmock.NewRows(eventCols), id, owner, "Dentist", date, strp("09:30")))

	e, err := s.GetEvent(context.Background(), owner, id)
	require.NoError(t, err)
	assert.Equal(t, id, e.ID)
	assert.Equal(t, owner, e.UserID)
	require.NotNil(t, e.Time)
	assert.Equal(t, "09:30", *e.Time)
}

func TestGetEvent_NotFoundOrNotOwned(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`FROM events WHERE id = \$1 AND user_id = \$2`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(eventCols))

	_, err := s.GetEvent(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListEvents_DateRange(t *testing.T) {
	s, mock := newMockStore(t)
	owner := uuid.New()
	from := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC)

	rows := pgxmock.NewRows(eventCols)
	eventRow(rows, uuid.New(), owner, "all day", from, nil)
	eventRow(rows, uuid.New(), owner, "morning", from, strp("08:00"))

	mock.ExpectQuery(`WHERE user_id = \$1 AND date >= \$2 AND date <= \$3 ORDER BY date ASC, time ASC NULLS FIRST, created_at ASC`).
		WithArgs(pgxmock.AnyArg(), from, to).
		WillReturnRows(rows)

	events, err := s.ListEvents(context.Background(), owner, models.EventFilter{StartDate: &from, EndDate: &to})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "all day", events[0].Title)
	assert.Nil(t, events[0].Time)
}

func TestListEvents_NoFilterEmpty(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`FROM events WHERE user_id = \$1 ORDER BY`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(eventCols))

	events, err := s.ListEvents(context.Background(), uuid.New(), models.EventFilter{})
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestSearchEvents_EscapesPattern(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`WHERE user_id = \$1 AND \(title ILIKE \$2 ESCAPE '\\' OR description ILIKE \$2 ESCAPE '\\'\)`).
		WithArgs(pgxmock.AnyArg(), `%50\%\_off%`).
		WillReturnRows(pgxmock.NewRows(eventCols))

	events, err := s.SearchEvents(context.Background(), uuid.New(), "50%_off")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestUpdateEvent_PartialTitle(t *testing.T) {
	s, mock := newMockStore(t)
	id, owner := uuid.New(), uuid.New()
	date := time.Date(2025, 8, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`UPDATE events SET title = \$1, updated_at = NOW\(\) WHERE id = \$2 AND user_id = \$3 RETURNING id, user_id`).
		WithArgs("Renamed", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(eventRow(pgxmock.NewRows(eventCols), id, owner, "Renamed", date, strp("10:00")))

	e, err := s.UpdateEvent(context.Background(), owner, id, models.EventPatch{Title: strp("Renamed")})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", e.Title)
	assert.Equal(t, "10:00", *e.Time)
}

func TestUpdateEvent_ClearsOptionalAndSetsDate(t *testing.T) {
	s, mock := newMockStore(t)
	id, owner := uuid.New(), uuid.New()
	date := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`UPDATE events SET description = \$1, date = \$2, time = \$3, updated_at = NOW\(\) WHERE id = \$4 AND user_id = \$5`).
		WithArgs(nil, date, nil, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(eventRow(pgxmock.NewRows(eventCols), id, owner, "x", date, nil))

	_, err := s.UpdateEvent(context.Background(), owner, id, models.EventPatch{
		Description: strp(""), Date: &date, Time: strp(""),
	})
	require.NoError(t, err)
}

func TestUpdateEvent_NotOwned(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`UPDATE events SET status = \$1`).
		WithArgs("done", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(eventCols))

	_, err := s.UpdateEvent(context.Background(), uuid.New(), uuid.New(), models.EventPatch{Status: strp("done")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteEvent(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`DELETE FROM events WHERE id = \$1 AND user_id = \$2`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM events WHERE id = \$1 AND user_id = \$2`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, s.DeleteEvent(context.Background(), uuid.New(), uuid.New()))
	assert.ErrorIs(t, s.DeleteEvent(context.Background(), uuid.New(), uuid.New()), ErrNotFound)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, "plain", escapeLike("plain"))
	assert.Equal(t, `a\\b`, escapeLike(`a\b`))
	assert.Equal(t, `100\%`, escapeLike("100%"))
	assert.Equal(t, `snake\_case`, escapeLike("snake_case"))
}

func TestMigrationsEmbedded(t *testing.T) {
	b, err := fs.ReadFile(migrations, "migrations/00001_init.sql")
	require.NoError(t, err)

	sql := string(b)
	assert.True(t, strings.HasPrefix(sql, "-- +goose Up"))
	assert.Contains(t, sql, "CREATE TABLE IF NOT EXISTS users")
	assert.Contains(t, sql, "CREATE TABLE IF NOT EXISTS events")
	assert.Contains(t, sql, "UNIQUE (email)")
}
