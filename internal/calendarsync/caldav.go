package calendarsync

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"

	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/config"
	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/logging"
)

const productID = "-//notesync//EN"

// basicAuthTransport handles adding Basic Auth and custom headers to requests.
type basicAuthTransport struct {
	username  string
	password  string
	transport http.RoundTripper
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.SetBasicAuth(t.username, t.password)
	req.Header.Set("User-Agent", "notesync/1.0")
	return t.transport.RoundTrip(req)
}

// CalDAVSyncer PUTs events as VEVENT objects into one CalDAV collection.
type CalDAVSyncer struct {
	client       *caldav.Client
	endpoint     *url.URL
	calendarPath string
	defaultTZ    string
	log          logging.Logger
	now          func() time.Time
}

// NewCalDAVSyncer connects to cfg.CalDAVEndpoint. CalDAVCalendarName is
// either the display name of a calendar, found through principal discovery,
// or a collection path starting with "/".
func NewCalDAVSyncer(ctx context.Context, cfg config.CalendarSyncConfig, log logging.Logger) (*CalDAVSyncer, error) {
	endpoint, err := url.Parse(cfg.CalDAVEndpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid CalDAV endpoint: %w", err)
	}

	httpClient := &http.Client{Transport: &basicAuthTransport{
		username:  cfg.CalDAVUsername,
		password:  cfg.CalDAVPassword,
		transport: http.DefaultTransport,
	}}
	client, err := caldav.NewClient(httpClient, cfg.CalDAVEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}

	s := &CalDAVSyncer{
		client:    client,
		endpoint:  endpoint,
		defaultTZ: cfg.DefaultTimezone,
		log:       log,
		now:       time.Now,
	}

	if strings.HasPrefix(cfg.CalDAVCalendarName, "/") {
		s.calendarPath = cfg.CalDAVCalendarName
		return s, nil
	}

	log.Info(ctx, "Finding CalDAV calendar", "calendar_name", cfg.CalDAVCalendarName)
	s.calendarPath, err = s.findCalendar(ctx, cfg.CalDAVCalendarName)
	if err != nil {
		return nil, fmt.Errorf("could not find calendar '%s': %w", cfg.CalDAVCalendarName, err)
	}
	log.Info(ctx, "Successfully found CalDAV calendar", "path", s.calendarPath)
	return s, nil
}

func (s *CalDAVSyncer) Sync(ctx context.Context, e Event) (string, error) {
	s.log.Debug(ctx, "Syncing event to CalDAV", "uid", e.UID, "title", e.Title)

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Children = append(cal.Children, toICal(e, s.defaultTZ, s.now()))

	objectPath := path.Join(s.calendarPath, e.UID+".ics")
	obj, err := s.client.PutCalendarObject(ctx, objectPath, cal)
	if err != nil {
		return "", &SyncError{Provider: config.SyncProviderCalDAV, Err: err}
	}

	if obj != nil && obj.Path != "" {
		objectPath = obj.Path
	}
	link := s.endpoint.ResolveReference(&url.URL{Path: objectPath})
	s.log.Info(ctx, "Successfully synced event to CalDAV", "uid", e.UID, "url", link.String())
	return link.String(), nil
}

// toICal converts an Event to a VEVENT component.
func toICal(e Event, defaultTZ string, stamp time.Time) *ical.Component {
	w := resolveWindow(e, defaultTZ)

	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, e.UID)
	ve.Props.SetText(ical.PropSummary, e.Title)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	if w.allDay {
		ve.Props.SetDate(ical.PropDateTimeStart, w.start)
		ve.Props.SetDate(ical.PropDateTimeEnd, w.end)
	} else {
		ve.Props.SetDateTime(ical.PropDateTimeStart, w.start)
		ve.Props.SetDateTime(ical.PropDateTimeEnd, w.end)
	}

	if e.Description != nil && *e.Description != "" {
		ve.Props.SetText(ical.PropDescription, *e.Description)
	}
	if e.Location != nil && *e.Location != "" {
		ve.Props.SetText(ical.PropLocation, *e.Location)
	}
	return ve
}

// findCalendar discovers the user's calendars and returns the path of the one with the matching name.
func (s *CalDAVSyncer) findCalendar(ctx context.Context, name string) (string, error) {
	principalPath, err := s.client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to find principal path: %w", err)
	}

	homeSetPath, err := s.client.FindCalendarHomeSet(ctx, principalPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendar home set: %w", err)
	}

	calendars, err := s.client.FindCalendars(ctx, homeSetPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendars: %w", err)
	}

	for _, cal := range calendars {
		if cal.Name == name {
			return cal.Path, nil
		}
	}
	return "", fmt.Errorf("no calendar found with name '%s'", name)
}
