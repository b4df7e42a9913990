package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/logging"
	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/models"
	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/utils"
)

// UserStore is the account persistence used by the auth and profile handlers.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, p models.UserPatch) (*models.User, error)
}

// EventStore is the owner-scoped event persistence.
type EventStore interface {
	CreateEvent(ctx context.Context, e *models.Event) error
	GetEvent(ctx context.Context, userID, id uuid.UUID) (*models.Event, error)
	ListEvents(ctx context.Context, userID uuid.UUID, f models.EventFilter) ([]models.Event, error)
	SearchEvents(ctx context.Context, userID uuid.UUID, text string) ([]models.Event, error)
	UpdateEvent(ctx context.Context, userID, id uuid.UUID, p models.EventPatch) (*models.Event, error)
	DeleteEvent(ctx context.Context, userID, id uuid.UUID) error
}

// writeInternalError logs err and answers 500 without echoing it.
func writeInternalError(w http.ResponseWriter, r *http.Request, log logging.Logger, msg string, err error) {
	log.Error(r.Context(), msg, "error", err, "method", r.Method, "path", r.URL.Path)
	utils.WriteErrorResponse(w, http.StatusInternalServerError, "Internal server error", msg)
}
