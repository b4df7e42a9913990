package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	googleOAuth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/config"
	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/dto"
	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/logging"
	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/middleware"
	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/models"
	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/store"
	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/utils"
)

const stateCookieName = "oauth_state"

var (
	errEmailNotVerified = errors.New("google email is not verified")
	errEmailTooLong     = errors.New("google email is too long")
)

// GoogleIdentity turns an authorization code into the Google account behind it.
type GoogleIdentity interface {
	AuthCodeURL(state string) string
	Identify(ctx context.Context, code string) (*dto.GoogleUserInfo, error)
}

// googleOAuthIdentity is the GoogleIdentity backed by Google's OAuth and
// userinfo endpoints.
type googleOAuthIdentity struct {
	oauth2Config     *oauth2.Config
	userinfoEndpoint string // empty means the library default
}

func NewGoogleOAuthIdentity(cfg config.GoogleOAuthConfig) GoogleIdentity {
	return &googleOAuthIdentity{oauth2Config: &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes: []string{
			googleOAuth2.UserinfoEmailScope,
			googleOAuth2.UserinfoProfileScope,
		},
		Endpoint: google.Endpoint,
	}}
}

func (g *googleOAuthIdentity) AuthCodeURL(state string) string {
	return g.oauth2Config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (g *googleOAuthIdentity) Identify(ctx context.Context, code string) (*dto.GoogleUserInfo, error) {
	token, err := g.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	opts := []option.ClientOption{option.WithTokenSource(g.oauth2Config.TokenSource(ctx, token))}
	if g.userinfoEndpoint != "" {
		opts = append(opts, option.WithEndpoint(g.userinfoEndpoint))
	}
	service, err := googleOAuth2.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}

	userInfo, err := service.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	verified := false
	if userInfo.VerifiedEmail != nil {
		verified = *userInfo.VerifiedEmail
	}
	return &dto.GoogleUserInfo{
		ID:       userInfo.Id,
		Email:    userInfo.Email,
		Name:     userInfo.Name,
		Verified: verified,
	}, nil
}

// GoogleAuthHandler handles Google OAuth authentication
type GoogleAuthHandler struct {
	users    UserStore
	identity GoogleIdentity
	tokens   *middleware.TokenService
	log      logging.Logger
}

// NewGoogleAuthHandler creates a new GoogleAuthHandler instance
func NewGoogleAuthHandler(users UserStore, identity GoogleIdentity, tokens *middleware.TokenService, log logging.Logger) *GoogleAuthHandler {
	return &GoogleAuthHandler{users: users, identity: identity, tokens: tokens, log: log}
}

// GoogleLogin initiates Google OAuth login
// @Summary Google OAuth login
// @Description Initiate Google OAuth login flow. The state is also set as a cookie and checked on callback.
// @Tags authentication
// @Produce json
// @Success 200 {object} dto.GoogleLoginResponse "Google OAuth URL"
// @Router /api/auth/google/login [get]
func (h *GoogleAuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	// Generate state parameter for CSRF protection
	state := uuid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/api/auth/google",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	utils.WriteJSONResponse(w, http.StatusOK, dto.GoogleLoginResponse{
		AuthURL: h.identity.AuthCodeURL(state),
		State:   state,
	})
}

// GoogleCallback handles Google OAuth callback
// @Summary Google OAuth callback
// @Description Handle Google OAuth callback with authorization code. Unknown accounts are created.
// @Tags authentication
// @Produce json
// @Param code query string true "Authorization code from Google"
// @Param state query string true "State returned by /api/auth/google/login"
// @Success 200 {object} dto.AuthResponse "Login successful"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Invalid authorization code"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /api/auth/google/callback [get]
func (h *GoogleAuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Missing authorization code", "Authorization code is required")
		return
	}

	cookie, err := r.Cookie(stateCookieName)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid state", "OAuth state mismatch")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookieName, Path: "/api/auth/google", MaxAge: -1})

	info, err := h.identity.Identify(r.Context(), code)
	if err != nil {
		h.log.Warn(r.Context(), "google code exchange failed", "error", err)
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Invalid authorization code", "Could not verify the Google account")
		return
	}

	user, err := h.findOrCreate(r.Context(), info)
	if err != nil {
		if errors.Is(err, errEmailNotVerified) {
			utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unverified email", "The Google account email is not verified")
			return
		}
		if errors.Is(err, errEmailTooLong) {
			utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request data",
				fmt.Sprintf("email must be at most %d characters", models.MaxEmailLen))
			return
		}
		writeInternalError(w, r, h.log, "Failed to sign in with Google", err)
		return
	}

	jwtToken, err := h.tokens.Issue(user.ID, user.Email)
	if err != nil {
		writeInternalError(w, r, h.log, "Failed to generate token", err)
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, dto.AuthResponse{
		Success: true,
		Token:   jwtToken,
		User:    dto.NewUserResponse(user),
	})
}

// findOrCreate links the Google account to a user by email. New users get
// a random password they never learn, so only Google sign-in works for them
// until they set one.
func (h *GoogleAuthHandler) findOrCreate(ctx context.Context, info *dto.GoogleUserInfo) (*models.User, error) {
	if !info.Verified {
		return nil, errEmailNotVerified
	}
	email := normalizeEmail(info.Email)

	user, err := h.users.UserByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	name := strings.TrimSpace(info.Name)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	name = truncateRunes(name, models.MaxNameLen)
	if utf8.RuneCountInString(email) > models.MaxEmailLen {
		return nil, errEmailTooLong
	}
	user = &models.User{ID: uuid.New(), Name: name, Email: email, Timezone: models.DefaultTimezone}
	if err := user.SetPassword(uuid.NewString() + uuid.NewString()); err != nil {
		return nil, err
	}

	if err := h.users.CreateUser(ctx, user); err != nil {
		// lost a race with a concurrent sign-in for the same email
		if errors.Is(err, store.ErrEmailTaken) {
			return h.users.UserByEmail(ctx, email)
		}
		return nil, err
	}
	h.log.Info(ctx, "user created from google sign-in", "user_id", user.ID)
	return user, nil
}
