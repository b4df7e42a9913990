package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/calendarsync"
	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/dto"
	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/logging"
	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/middleware"
	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/models"
	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/store"
	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/utils"
)

// EventsHandler serves the owner-scoped event API. syncer may be nil when
// calendar mirroring is disabled.
type EventsHandler struct {
	events      EventStore
	syncer      calendarsync.Syncer
	syncTimeout time.Duration
	log         logging.Logger
}

func NewEventsHandler(events EventStore, syncer calendarsync.Syncer, syncTimeout time.Duration, log logging.Logger) *EventsHandler {
	return &EventsHandler{events: events, syncer: syncer, syncTimeout: syncTimeout, log: log}
}

func writeNotFound(w http.ResponseWriter) {
	utils.WriteErrorResponse(w, http.StatusNotFound, "Not found", "Event not found")
}

func writeBadDate(w http.ResponseWriter) {
	utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid date", utils.ErrInvalidDate.Error())
}

// eventID parses the {id} path segment. A malformed id is reported as not
// found, the same as a missing one.
func eventID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	return id, err == nil
}

// blankToNil maps "" to nil so optional columns stay NULL on create.
func blankToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

func orDefault(s *string, def string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return def
	}
	return strings.TrimSpace(*s)
}

// List returns the caller's events, optionally within a date range
// @Summary List events
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param start_date query string false "inclusive lower bound, YYYY-MM-DD"
// @Param end_date query string false "inclusive upper bound, YYYY-MM-DD"
// @Success 200 {object} dto.EventListResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid date"
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/events [get]
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())

	var filter models.EventFilter
	q := r.URL.Query()
	if s := q.Get("start_date"); s != "" {
		d, err := utils.ParseDate(s)
		if err != nil {
			writeBadDate(w)
			return
		}
		filter.StartDate = &d
	}
	if s := q.Get("end_date"); s != "" {
		d, err := utils.ParseDate(s)
		if err != nil {
			writeBadDate(w)
			return
		}
		filter.EndDate = &d
	}

	events, err := h.events.ListEvents(r.Context(), user.ID, filter)
	if err != nil {
		writeInternalError(w, r, h.log, "Failed to list events", err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, dto.NewEventListResponse(events))
}

// Create stores a new event and mirrors it to the configured calendar
// @Summary Create event
// @Description Persists the event first; a calendar sync failure is logged and does not fail the request
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateEventRequest true "Event"
// @Success 201 {object} dto.EventEnvelope
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/events [post]
func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())

	var req dto.CreateEventRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" || req.Date == "" {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Missing required fields", "Title and date are required")
		return
	}
	date, err := utils.ParseDate(req.Date)
	if err != nil {
		writeBadDate(w)
		return
	}
	if err := checkEventLengths(&title, req.Time, req.Location, req.Type, req.Priority, req.Status); err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request data", err.Error())
		return
	}

	event := &models.Event{
		ID:          uuid.New(),
		UserID:      user.ID,
		Title:       title,
		Description: blankToNil(req.Description),
		Date:        date,
		Time:        blankToNil(req.Time),
		Location:    blankToNil(req.Location),
		Type:        orDefault(req.Type, models.DefaultEventType),
		Priority:    orDefault(req.Priority, models.DefaultEventPriority),
		Status:      orDefault(req.Status, models.DefaultEventStatus),
	}
	if err := h.events.CreateEvent(r.Context(), event); err != nil {
		writeInternalError(w, r, h.log, "Failed to create event", err)
		return
	}

	resp := dto.EventEnvelope{
		Success: true,
		Message: "Event created successfully",
		Event:   dto.NewEventResponse(event),
	}
	if h.syncer != nil {
		link, err := h.sync(r.Context(), event, user.Timezone)
		if err != nil {
			h.log.Warn(r.Context(), "calendar sync failed", "event_id", event.ID, "error", err)
		}
		resp.CalendarLink = link
	}
	utils.WriteJSONResponse(w, http.StatusCreated, resp)
}

// sync mirrors e with its own deadline. The request context only
// contributes its values, so a client hanging up does not abort the call.
func (h *EventsHandler) sync(ctx context.Context, e *models.Event, tz string) (string, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.syncTimeout)
	defer cancel()
	return h.syncer.Sync(ctx, calendarsync.FromModel(e, tz))
}

// Get returns one of the caller's events
// @Summary Get event
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} dto.EventEnvelope
// @Failure 404 {object} dto.ErrorResponse "Not found or not owned"
// @Router /api/events/{id} [get]
func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())
	id, ok := eventID(r)
	if !ok {
		writeNotFound(w)
		return
	}

	event, err := h.events.GetEvent(r.Context(), user.ID, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeNotFound(w)
			return
		}
		writeInternalError(w, r, h.log, "Failed to load event", err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, dto.EventEnvelope{Success: true, Event: dto.NewEventResponse(event)})
}

// Update applies a partial update to one of the caller's events
// @Summary Update event
// @Description Omitted fields keep their value. "" clears description, time and location.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param request body dto.UpdateEventRequest true "Fields to change"
// @Success 200 {object} dto.EventEnvelope
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse "Not found or not owned"
// @Router /api/events/{id} [put]
func (h *EventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())
	id, ok := eventID(r)
	if !ok {
		writeNotFound(w)
		return
	}

	var req dto.UpdateEventRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	patch, err := buildEventPatch(req)
	if err != nil {
		if errors.Is(err, utils.ErrInvalidDate) {
			writeBadDate(w)
			return
		}
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request data", err.Error())
		return
	}

	event, err := h.events.UpdateEvent(r.Context(), user.ID, id, patch)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeNotFound(w)
			return
		}
		writeInternalError(w, r, h.log, "Failed to update event", err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, dto.EventEnvelope{
		Success: true,
		Message: "Event updated successfully",
		Event:   dto.NewEventResponse(event),
	})
}

var errEmptyTitle = errors.New("title cannot be empty")

func checkEventLengths(title, tm, location, typ, priority, status *string) error {
	return checkLengths(
		limit("title", title, models.MaxTitleLen),
		limit("time", tm, models.MaxTimeLen),
		limit("location", location, models.MaxEventLocationLen),
		limit("type", typ, models.MaxLabelLen),
		limit("priority", priority, models.MaxLabelLen),
		limit("status", status, models.MaxLabelLen),
	)
}

// buildEventPatch validates req. An empty date, type, priority or status
// counts as omitted.
func buildEventPatch(req dto.UpdateEventRequest) (models.EventPatch, error) {
	var p models.EventPatch

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return p, errEmptyTitle
		}
		p.Title = &title
	}
	if req.Date != nil && *req.Date != "" {
		d, err := utils.ParseDate(*req.Date)
		if err != nil {
			return p, err
		}
		p.Date = &d
	}
	if err := checkEventLengths(p.Title, req.Time, req.Location, req.Type, req.Priority, req.Status); err != nil {
		return p, err
	}
	p.Time = req.Time
	p.Description = req.Description
	p.Location = req.Location
	p.Type = blankToNil(req.Type)
	p.Priority = blankToNil(req.Priority)
	p.Status = blankToNil(req.Status)
	return p, nil
}

// Delete removes one of the caller's events
// @Summary Delete event
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} dto.MessageResponse
// @Failure 404 {object} dto.ErrorResponse "Not found or not owned"
// @Router /api/events/{id} [delete]
func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())
	id, ok := eventID(r)
	if !ok {
		writeNotFound(w)
		return
	}

	if err := h.events.DeleteEvent(r.Context(), user.ID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeNotFound(w)
			return
		}
		writeInternalError(w, r, h.log, "Failed to delete event", err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, dto.MessageResponse{Success: true, Message: "Event deleted successfully"})
}

// Search matches q against the title and description of the caller's events
// @Summary Search events
// @Description Case-insensitive substring match. An empty q returns an empty list.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param q query string false "text to look for"
// @Success 200 {object} dto.EventListResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/events/search [get]
func (h *EventsHandler) Search(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())

	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		utils.WriteJSONResponse(w, http.StatusOK, dto.NewEventListResponse(nil))
		return
	}

	events, err := h.events.SearchEvents(r.Context(), user.ID, q)
	if err != nil {
		writeInternalError(w, r, h.log, "Failed to search events", err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, dto.NewEventListResponse(events))
}

// Sync mirrors one stored event to the configured calendar on demand
// @Summary Sync event to calendar
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} dto.SyncResponse
// @Failure 404 {object} dto.ErrorResponse "Not found or not owned"
// @Failure 502 {object} dto.ErrorResponse "Calendar provider failed"
// @Failure 503 {object} dto.ErrorResponse "Calendar sync disabled"
// @Router /api/events/{id}/sync [post]
func (h *EventsHandler) Sync(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())
	if h.syncer == nil {
		utils.WriteErrorResponse(w, http.StatusServiceUnavailable, "Calendar sync disabled", "No calendar provider is configured")
		return
	}
	id, ok := eventID(r)
	if !ok {
		writeNotFound(w)
		return
	}

	event, err := h.events.GetEvent(r.Context(), user.ID, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeNotFound(w)
			return
		}
		writeInternalError(w, r, h.log, "Failed to load event", err)
		return
	}

	link, err := h.sync(r.Context(), event, user.Timezone)
	if err != nil {
		h.log.Warn(r.Context(), "calendar sync failed", "event_id", event.ID, "error", err)
		utils.WriteErrorResponse(w, http.StatusBadGateway, "Calendar sync failed", "The calendar provider rejected the event")
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, dto.SyncResponse{Success: true, Message: "Event synced", Link: link})
}
