package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/models"
)

const userColumns = `id, name, email, password_hash, bio, phone, location, timezone, created_at, updated_at`

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Bio, &u.Phone,
		&u.Location, &u.Timezone, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// CreateUser inserts u and fills its timestamps.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if u.Timezone == "" {
		u.Timezone = models.DefaultTimezone
	}
	err := s.db.QueryRow(ctx,
		`INSERT INTO users (id, name, email, password_hash, bio, phone, location, timezone)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		 RETURNING created_at, updated_at`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Bio, u.Phone, u.Location, u.Timezone,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("user by email: %w", err)
	}
	return u, nil
}

func (s *Store) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("user by id: %w", err)
	}
	return u, nil
}

// UpdateUser applies the non-nil fields of p. Optional profile fields set
// to "" are stored as NULL; name, email and timezone are never cleared.
func (s *Store) UpdateUser(ctx context.Context, id uuid.UUID, p models.UserPatch) (*models.User, error) {
	var b setBuilder
	b.addStr("name", p.Name, false)
	b.addStr("email", p.Email, false)
	b.addStr("bio", p.Bio, true)
	b.addStr("phone", p.Phone, true)
	b.addStr("location", p.Location, true)
	b.addStr("timezone", p.Timezone, false)

	if b.empty() {
		return s.UserByID(ctx, id)
	}

	q := fmt.Sprintf(`UPDATE users SET %s, updated_at = NOW() WHERE id = %s RETURNING `+userColumns,
		b.clause(), b.next(id))

	u, err := scanUser(s.db.QueryRow(ctx, q, b.args...))
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil, ErrNotFound
		case isUniqueViolation(err):
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}
