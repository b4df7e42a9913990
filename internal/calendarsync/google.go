package calendarsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/config"
	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/logging"
	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/models"
)

// GoogleSyncer inserts events into one Google calendar.
type GoogleSyncer struct {
	service    *calendar.Service
	calendarID string
	defaultTZ  string
	provider   string
	log        logging.Logger
}

func NewGoogleSyncer(service *calendar.Service, calendarID, defaultTZ, provider string, log logging.Logger) *GoogleSyncer {
	return &GoogleSyncer{
		service:    service,
		calendarID: calendarID,
		defaultTZ:  defaultTZ,
		provider:   provider,
		log:        log,
	}
}

// NewGoogleOAuthSyncer authenticates with a user token saved by the
// google-auth command.
func NewGoogleOAuthSyncer(ctx context.Context, cfg config.CalendarSyncConfig, log logging.Logger) (*GoogleSyncer, error) {
	token, err := TokenFromFile(cfg.GoogleTokenFile)
	if err != nil {
		return nil, fmt.Errorf("could not load token from %s: %w. Please run the 'google-auth' command first", cfg.GoogleTokenFile, err)
	}

	client := OAuthConfig(cfg.GoogleClientID, cfg.GoogleClientSecret).Client(ctx, token)
	service, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return NewGoogleSyncer(service, cfg.CalendarID, cfg.DefaultTimezone, config.SyncProviderGoogleOAuth, log), nil
}

// NewGoogleServiceAccountSyncer authenticates with a service account key.
// The target calendar must be shared with the service account.
func NewGoogleServiceAccountSyncer(ctx context.Context, cfg config.CalendarSyncConfig, log logging.Logger) (*GoogleSyncer, error) {
	b, err := os.ReadFile(cfg.GoogleServiceAccountFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read service account file: %w", err)
	}
	jwtCfg, err := google.JWTConfigFromJSON(b, calendar.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse service account file: %w", err)
	}

	service, err := calendar.NewService(ctx, option.WithHTTPClient(jwtCfg.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return NewGoogleSyncer(service, cfg.CalendarID, cfg.DefaultTimezone, config.SyncProviderGoogleServiceAccount, log), nil
}

func (s *GoogleSyncer) Sync(ctx context.Context, e Event) (string, error) {
	s.log.Debug(ctx, "Syncing event to Google Calendar", "uid", e.UID, "calendar_id", s.calendarID)

	created, err := s.service.Events.Insert(s.calendarID, toGoogleEvent(e, s.defaultTZ)).Context(ctx).Do()
	if err != nil {
		return "", &SyncError{Provider: s.provider, Err: err}
	}

	s.log.Info(ctx, "Successfully synced event to Google Calendar", "uid", e.UID, "google_id", created.Id)
	return created.HtmlLink, nil
}

func toGoogleEvent(e Event, defaultTZ string) *calendar.Event {
	w := resolveWindow(e, defaultTZ)

	ev := &calendar.Event{Summary: e.Title}
	if e.Description != nil {
		ev.Description = *e.Description
	}
	if e.Location != nil {
		ev.Location = *e.Location
	}

	if w.allDay {
		ev.Start = &calendar.EventDateTime{Date: w.start.Format(models.DateLayout)}
		ev.End = &calendar.EventDateTime{Date: w.end.Format(models.DateLayout)}
		return ev
	}
	ev.Start = &calendar.EventDateTime{DateTime: w.start.Format(time.RFC3339), TimeZone: w.loc.String()}
	ev.End = &calendar.EventDateTime{DateTime: w.end.Format(time.RFC3339), TimeZone: w.loc.String()}
	return ev
}

// OAuthConfig returns the installed-app OAuth config used both by the
// google-auth command and to refresh the saved token.
func OAuthConfig(clientID, clientSecret string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  "http://localhost",
		Scopes:       []string{calendar.CalendarEventsScope},
		Endpoint:     google.Endpoint,
	}
}

// SaveToken saves a token to a file path readable only by the owner.
func SaveToken(path string, token *oauth2.Token) error {
	if token == nil {
		return errors.New("nil token")
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("unable to create token file: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

// TokenFromFile retrieves a token from a local file.
func TokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}
