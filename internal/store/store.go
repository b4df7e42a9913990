// Package store is the PostgreSQL persistence layer for users and events.
// Every event query is scoped by owner id.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound covers both a missing row and a row owned by someone else.
	ErrNotFound = errors.New("not found")
	// ErrEmailTaken is returned when the email unique index rejects a write.
	ErrEmailTaken = errors.New("email already registered")
)

const uniqueViolation = "23505"

// DB is the subset of *pgxpool.Pool the store needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	db DB
}

func New(db DB) *Store {
	return &Store{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// setBuilder accumulates "col = $n" fragments for partial updates.
type setBuilder struct {
	set  []string
	args []any
}

func (b *setBuilder) add(col string, v any) {
	b.args = append(b.args, v)
	b.set = append(b.set, fmt.Sprintf("%s = $%d", col, len(b.args)))
}

// addStr adds col when p is non-nil; "" becomes NULL when nullIfEmpty is set.
func (b *setBuilder) addStr(col string, p *string, nullIfEmpty bool) {
	if p == nil {
		return
	}
	var v any = *p
	if nullIfEmpty && *p == "" {
		v = nil
	}
	b.add(col, v)
}

func (b *setBuilder) empty() bool { return len(b.set) == 0 }

// next returns the placeholder for the next positional argument.
func (b *setBuilder) next(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *setBuilder) clause() string { return strings.Join(b.set, ", ") }
