package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/dto"
	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/logging"
	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/middleware"
	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/models"
	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/store"
	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/utils"
)

type ProfileHandler struct {
	users UserStore
	log   logging.Logger
}

func NewProfileHandler(users UserStore, log logging.Logger) *ProfileHandler {
	return &ProfileHandler{users: users, log: log}
}

// Get godoc
// @Summary      Get user profile
// @Tags         profile
// @Produce      json
// @Security     BearerAuth
// @Success      200      {object}  dto.UserEnvelope
// @Failure      401      {object}  dto.ErrorResponse
// @Router       /api/user/profile [get]
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())
	utils.WriteJSONResponse(w, http.StatusOK, dto.UserEnvelope{Success: true, User: dto.NewUserResponse(user)})
}

// Update godoc
// @Summary      Update user profile
// @Description  Partial update. "" clears bio, phone and location.
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      dto.ProfileUpdateRequest  true  "Fields to change"
// @Success      200      {object}  dto.UserEnvelope
// @Failure      400      {object}  dto.ErrorResponse
// @Failure      401      {object}  dto.ErrorResponse
// @Failure      409      {object}  dto.ErrorResponse
// @Failure      500      {object}  dto.ErrorResponse
// @Router       /api/user/profile [put]
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())

	var req dto.ProfileUpdateRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	patch, err := buildUserPatch(req)
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	updated, err := h.users.UpdateUser(r.Context(), user.ID, patch)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrEmailTaken):
			utils.WriteErrorResponse(w, http.StatusConflict, "Email already in use", "Another account uses this email")
		case errors.Is(err, store.ErrNotFound):
			utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "User no longer exists")
		default:
			writeInternalError(w, r, h.log, "Failed to update profile", err)
		}
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, dto.UserEnvelope{
		Success: true,
		Message: "Profile updated successfully",
		User:    dto.NewUserResponse(updated),
	})
}

func buildUserPatch(req dto.ProfileUpdateRequest) (models.UserPatch, error) {
	var p models.UserPatch

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return p, errors.New("name cannot be empty")
		}
		p.Name = &name
	}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if email == "" {
			return p, errors.New("email cannot be empty")
		}
		p.Email = &email
	}
	if req.Timezone != nil {
		tz := strings.TrimSpace(*req.Timezone)
		if _, err := time.LoadLocation(tz); err != nil || tz == "" {
			return p, errors.New("timezone must be an IANA name such as America/Sao_Paulo")
		}
		p.Timezone = &tz
	}
	if err := checkLengths(
		limit("name", p.Name, models.MaxNameLen),
		limit("email", p.Email, models.MaxEmailLen),
		limit("phone", req.Phone, models.MaxPhoneLen),
		limit("location", req.Location, models.MaxUserLocationLen),
		limit("timezone", p.Timezone, models.MaxTimezoneLen),
	); err != nil {
		return p, err
	}
	p.Bio = req.Bio
	p.Phone = req.Phone
	p.Location = req.Location
	return p, nil
}
