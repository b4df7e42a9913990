package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/calendarsync"
	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/logging"
	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/middleware"
	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/models"
	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/store"
)

// memStore is an in-memory UserStore and EventStore with the same
// ownership and patch rules as the PostgreSQL store.
type memStore struct {
	mu          sync.Mutex
	users       map[uuid.UUID]*models.User
	events      map[uuid.UUID]*models.Event
	searchCalls int
	failWith    error
}

func newMemStore() *memStore {
	return &memStore{users: map[uuid.UUID]*models.User{}, events: map[uuid.UUID]*models.Event{}}
}

func (m *memStore) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return store.ErrEmailTaken
		}
	}
	u.CreatedAt, u.UpdatedAt = time.Now(), time.Now()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memStore) UserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) UserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, store.ErrNotFound
}

func nullIfEmpty(dst **string, v *string) {
	if v == nil {
		return
	}
	if *v == "" {
		*dst = nil
		return
	}
	s := *v
	*dst = &s
}

func (m *memStore) UpdateUser(_ context.Context, id uuid.UUID, p models.UserPatch) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if p.Email != nil {
		for otherID, other := range m.users {
			if otherID != id && other.Email == *p.Email {
				return nil, store.ErrEmailTaken
			}
		}
		u.Email = *p.Email
	}
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Timezone != nil {
		u.Timezone = *p.Timezone
	}
	nullIfEmpty(&u.Bio, p.Bio)
	nullIfEmpty(&u.Phone, p.Phone)
	nullIfEmpty(&u.Location, p.Location)
	u.UpdatedAt = time.Now()
	cp := *u
	return &cp, nil
}

func (m *memStore) CreateEvent(_ context.Context, e *models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	e.CreatedAt, e.UpdatedAt = time.Now(), time.Now()
	cp := *e
	m.events[e.ID] = &cp
	return nil
}

func (m *memStore) owned(userID, id uuid.UUID) (*models.Event, bool) {
	e, ok := m.events[id]
	if !ok || e.UserID != userID {
		return nil, false
	}
	return e, true
}

func (m *memStore) GetEvent(_ context.Context, userID, id uuid.UUID) (*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.owned(userID, id)
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *memStore) collect(keep func(*models.Event) bool) []models.Event {
	out := []models.Event{}
	for _, e := range m.events {
		if keep(e) {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		ti, tj := "", ""
		if out[i].Time != nil {
			ti = *out[i].Time
		}
		if out[j].Time != nil {
			tj = *out[j].Time
		}
		return ti < tj
	})
	return out
}

func (m *memStore) ListEvents(_ context.Context, userID uuid.UUID, f models.EventFilter) ([]models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.collect(func(e *models.Event) bool {
		if e.UserID != userID {
			return false
		}
		if f.StartDate != nil && e.Date.Before(*f.StartDate) {
			return false
		}
		if f.EndDate != nil && e.Date.After(*f.EndDate) {
			return false
		}
		return true
	}), nil
}

func (m *memStore) SearchEvents(_ context.Context, userID uuid.UUID, text string) ([]models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchCalls++
	needle := strings.ToLower(text)
	return m.collect(func(e *models.Event) bool {
		if e.UserID != userID {
			return false
		}
		if strings.Contains(strings.ToLower(e.Title), needle) {
			return true
		}
		return e.Description != nil && strings.Contains(strings.ToLower(*e.Description), needle)
	}), nil
}

func (m *memStore) UpdateEvent(_ context.Context, userID, id uuid.UUID, p models.EventPatch) (*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.owned(userID, id)
	if !ok {
		return nil, store.ErrNotFound
	}
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Type != nil {
		e.Type = *p.Type
	}
	if p.Priority != nil {
		e.Priority = *p.Priority
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
	nullIfEmpty(&e.Description, p.Description)
	nullIfEmpty(&e.Time, p.Time)
	nullIfEmpty(&e.Location, p.Location)
	e.UpdatedAt = time.Now()
	cp := *e
	return &cp, nil
}

func (m *memStore) DeleteEvent(_ context.Context, userID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.owned(userID, id); !ok {
		return store.ErrNotFound
	}
	delete(m.events, id)
	return nil
}

// fakeSyncer records calls and answers with link/err.
type fakeSyncer struct {
	mu          sync.Mutex
	link        string
	err         error
	calls       []calendarsync.Event
	hadDeadline bool
}

func (f *fakeSyncer) Sync(ctx context.Context, e calendarsync.Event) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, e)
	_, f.hadDeadline = ctx.Deadline()
	return f.link, f.err
}

// testEnv wires the handlers into a mux the way the router does.
type testEnv struct {
	store  *memStore
	tokens *middleware.TokenService
	syncer *fakeSyncer
	mux    *http.ServeMux
}

func newTestEnv(t *testing.T, syncer *fakeSyncer) *testEnv {
	t.Helper()
	env := &testEnv{
		store:  newMemStore(),
		tokens: middleware.NewTokenService([]byte("test-secret"), time.Hour),
		syncer: syncer,
		mux:    http.NewServeMux(),
	}

	log := logging.Discard()
	guard := middleware.NewAccessGuard(env.tokens, env.store, log)

	var s calendarsync.Syncer
	if syncer != nil {
		s = syncer
	}
	auth := NewAuthHandler(env.store, env.tokens, log)
	events := NewEventsHandler(env.store, s, time.Second, log)
	profile := NewProfileHandler(env.store, log)

	env.mux.HandleFunc("POST /api/auth/register", auth.Register)
	env.mux.HandleFunc("POST /api/auth/login", auth.Login)
	env.mux.Handle("GET /api/auth/validate", guard.RequireFunc(auth.Validate))
	env.mux.Handle("GET /api/events", guard.RequireFunc(events.List))
	env.mux.Handle("POST /api/events", guard.RequireFunc(events.Create))
	env.mux.Handle("GET /api/events/search", guard.RequireFunc(events.Search))
	env.mux.Handle("GET /api/events/{id}", guard.RequireFunc(events.Get))
	env.mux.Handle("PUT /api/events/{id}", guard.RequireFunc(events.Update))
	env.mux.Handle("DELETE /api/events/{id}", guard.RequireFunc(events.Delete))
	env.mux.Handle("POST /api/events/{id}/sync", guard.RequireFunc(events.Sync))
	env.mux.Handle("GET /api/user/profile", guard.RequireFunc(profile.Get))
	env.mux.Handle("PUT /api/user/profile", guard.RequireFunc(profile.Update))
	return env
}

// do sends body (marshalled unless it is already a string) with an
// optional bearer token.
func (env *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	return rec
}

// register creates an account and returns its token and id.
func (env *testEnv) register(t *testing.T, email string) (string, uuid.UUID) {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "User " + email, "email": email, "password": "p",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	decode(t, rec, &resp)
	return resp.Token, uuid.MustParse(resp.User.ID)
}

// createEvent posts body and returns the new event id.
func (env *testEnv) createEvent(t *testing.T, token string, body map[string]any) string {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/api/events", token, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Event struct {
			ID string `json:"id"`
		} `json:"event"`
	}
	decode(t, rec, &resp)
	return resp.Event.ID
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}
