package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/dto"
	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/logging"
	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/models"
)

func TestCheckLengths(t *testing.T) {
	ok := strings.Repeat("é", 5)
	long := strings.Repeat("a", 6)

	assert.NoError(t, checkLengths(limit("time", &ok, 5), limit("title", nil, 1)))

	err := checkLengths(limit("time", &ok, 5), limit("title", &long, 5))
	require.Error(t, err)
	assert.Equal(t, "title must be at most 5 characters", err.Error())

	assert.Equal(t, "ab", truncateRunes("abc", 2))
	assert.Equal(t, "éé", truncateRunes("ééé", 2))
	assert.Equal(t, "abc", truncateRunes("abc", 10))
}

func TestRegister_FieldLengths(t *testing.T) {
	env := newTestEnv(t, nil)

	longEmail := strings.Repeat("a", models.MaxEmailLen-len("@x.com")+1) + "@x.com"
	cases := map[string]map[string]string{
		"name":     {"name": strings.Repeat("n", models.MaxNameLen+1), "email": "a@x.com", "password": "p"},
		"email":    {"name": "A", "email": longEmail, "password": "p"},
		"password": {"name": "A", "email": "a@x.com", "password": strings.Repeat("p", models.MaxPasswordBytes+1)},
	}
	for field, body := range cases {
		t.Run(field, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/auth/register", "", body)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var resp dto.ErrorResponse
			decode(t, rec, &resp)
			assert.Contains(t, resp.Message, field)
		})
	}
	assert.Empty(t, env.store.users)

	// limits count characters, not bytes
	rec := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": strings.Repeat("ã", models.MaxNameLen), "email": "a@x.com", "password": "p",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateEvent_FieldLengths(t *testing.T) {
	env := newTestEnv(t, nil)
	token, _ := env.register(t, "a@x.com")

	base := func(field string, value string) map[string]any {
		return map[string]any{"title": "x", "date": "2025-08-02", field: value}
	}
	cases := map[string]map[string]any{
		"title":    base("title", strings.Repeat("t", models.MaxTitleLen+1)),
		"time":     base("time", "09:30:00"),
		"location": base("location", strings.Repeat("l", models.MaxEventLocationLen+1)),
		"type":     base("type", strings.Repeat("y", models.MaxLabelLen+1)),
		"priority": base("priority", strings.Repeat("p", models.MaxLabelLen+1)),
		"status":   base("status", strings.Repeat("s", models.MaxLabelLen+1)),
	}
	for field, body := range cases {
		t.Run(field, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/events", token, body)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var resp dto.ErrorResponse
			decode(t, rec, &resp)
			assert.Contains(t, resp.Message, field)
		})
	}
	assert.Empty(t, env.store.events)

	rec := env.do(t, http.MethodPost, "/api/events", token, map[string]any{
		"title": strings.Repeat("é", models.MaxTitleLen), "date": "2025-08-02", "time": "09h3ó",
	})
	assert.Equal(t, http.StatusCreated, rec.Code, "multi-byte values at the limit fit")
}

func TestUpdateEvent_FieldLengths(t *testing.T) {
	env := newTestEnv(t, nil)
	token, _ := env.register(t, "a@x.com")
	id := env.createEvent(t, token, map[string]any{"title": "Dentist", "date": "2025-08-02"})

	cases := map[string]map[string]any{
		"title":    {"title": strings.Repeat("t", models.MaxTitleLen+1)},
		"time":     {"time": "123456"},
		"location": {"location": strings.Repeat("l", models.MaxEventLocationLen+1)},
		"type":     {"type": strings.Repeat("y", models.MaxLabelLen+1)},
		"priority": {"priority": strings.Repeat("p", models.MaxLabelLen+1)},
		"status":   {"status": strings.Repeat("s", models.MaxLabelLen+1)},
	}
	for field, body := range cases {
		t.Run(field, func(t *testing.T) {
			rec := env.do(t, http.MethodPut, "/api/events/"+id, token, body)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var resp dto.ErrorResponse
			decode(t, rec, &resp)
			assert.Contains(t, resp.Message, field)
		})
	}

	rec := env.do(t, http.MethodPut, "/api/events/"+id, token, map[string]any{"time": "09h3ó"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProfile_FieldLengths(t *testing.T) {
	env := newTestEnv(t, nil)
	token, _ := env.register(t, "a@x.com")

	cases := map[string]map[string]any{
		"name":     {"name": strings.Repeat("n", models.MaxNameLen+1)},
		"email":    {"email": strings.Repeat("e", models.MaxEmailLen) + "@x.com"},
		"phone":    {"phone": strings.Repeat("9", models.MaxPhoneLen+1)},
		"location": {"location": strings.Repeat("l", models.MaxUserLocationLen+1)},
	}
	for field, body := range cases {
		t.Run(field, func(t *testing.T) {
			rec := env.do(t, http.MethodPut, "/api/user/profile", token, body)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var resp dto.ErrorResponse
			decode(t, rec, &resp)
			assert.Contains(t, resp.Message, field)
		})
	}

	rec := env.do(t, http.MethodPut, "/api/user/profile", token, map[string]any{"phone": strings.Repeat("9", models.MaxPhoneLen)})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGoogleCallback_LongProfileValues(t *testing.T) {
	env := newTestEnv(t, nil)

	info := &dto.GoogleUserInfo{Email: "g@gmail.com", Name: strings.Repeat("N", models.MaxNameLen+20), Verified: true}
	h := NewGoogleAuthHandler(env.store, &fakeIdentity{info: info}, env.tokens, logging.Discard())
	rec := googleCallback(t, h, "code=c&state=s", "s")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.AuthResponse
	decode(t, rec, &resp)
	assert.Len(t, resp.User.Name, models.MaxNameLen)

	info = &dto.GoogleUserInfo{Email: strings.Repeat("e", models.MaxEmailLen) + "@gmail.com", Verified: true}
	h = NewGoogleAuthHandler(env.store, &fakeIdentity{info: info}, env.tokens, logging.Discard())
	assert.Equal(t, http.StatusBadRequest, googleCallback(t, h, "code=c&state=s", "s").Code)
	assert.Len(t, env.store.users, 1)
}
