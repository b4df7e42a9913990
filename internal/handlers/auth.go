package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/dto"
	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/logging"
	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/middleware"
	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/models"
	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/store"
	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/utils"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	users  UserStore
	tokens *middleware.TokenService
	log    logging.Logger
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(users UserStore, tokens *middleware.TokenService, log logging.Logger) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, log: log}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register handles user registration
// @Summary Register a new user
// @Description Create a new user account with name, email, and password
// @Tags authentication
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "User registration data"
// @Success 201 {object} dto.AuthResponse "User created successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 409 {object} dto.ErrorResponse "User already exists"
// @Failure 429 {object} dto.ErrorResponse "Too many requests"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /api/auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	if name == "" || email == "" || req.Password == "" {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Missing required fields", "Name, email, and password are required")
		return
	}
	if err := checkLengths(
		limit("name", &name, models.MaxNameLen),
		limit("email", &email, models.MaxEmailLen),
	); err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request data", err.Error())
		return
	}
	if len(req.Password) > models.MaxPasswordBytes {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request data",
			fmt.Sprintf("password must be at most %d bytes", models.MaxPasswordBytes))
		return
	}

	user := &models.User{
		ID:       uuid.New(),
		Name:     name,
		Email:    email,
		Timezone: models.DefaultTimezone,
	}
	if err := user.SetPassword(req.Password); err != nil {
		writeInternalError(w, r, h.log, "Failed to hash password", err)
		return
	}

	if err := h.users.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			utils.WriteErrorResponse(w, http.StatusConflict, "User already exists", "Email already registered")
			return
		}
		writeInternalError(w, r, h.log, "Failed to create user", err)
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Email)
	if err != nil {
		writeInternalError(w, r, h.log, "Failed to generate token", err)
		return
	}

	h.log.Info(r.Context(), "user registered", "user_id", user.ID)
	utils.WriteJSONResponse(w, http.StatusCreated, dto.AuthResponse{
		Success: true,
		Token:   token,
		User:    dto.NewUserResponse(user),
	})
}

// Login handles user login
// @Summary Login user
// @Description Authenticate user with email and password
// @Tags authentication
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.AuthResponse "Login successful"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Invalid credentials"
// @Failure 429 {object} dto.ErrorResponse "Too many requests"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Missing required fields", "Email and password are required")
		return
	}

	user, err := h.users.UserByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.WriteErrorResponse(w, http.StatusUnauthorized, "Invalid credentials", "Email or password is incorrect")
			return
		}
		writeInternalError(w, r, h.log, "Failed to load user", err)
		return
	}

	if !user.CheckPassword(req.Password) {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Invalid credentials", "Email or password is incorrect")
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Email)
	if err != nil {
		writeInternalError(w, r, h.log, "Failed to generate token", err)
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, dto.AuthResponse{
		Success: true,
		Token:   token,
		User:    dto.NewUserResponse(user),
	})
}

// Validate reports the account behind the presented token
// @Summary Validate token
// @Description Return the user the bearer token belongs to
// @Tags authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.UserEnvelope
// @Failure 401 {object} dto.ErrorResponse "Invalid or missing token"
// @Router /api/auth/validate [get]
func (h *AuthHandler) Validate(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())
	utils.WriteJSONResponse(w, http.StatusOK, dto.UserEnvelope{
		Success: true,
		User:    dto.NewUserResponse(user),
	})
}
