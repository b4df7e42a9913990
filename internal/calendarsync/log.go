package calendarsync

import (
	"context"

	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/logging"
)

// LogSyncer writes events to the log instead of a calendar. Useful in
// development and as a smoke test of the sync path.
type LogSyncer struct {
	log       logging.Logger
	defaultTZ string
}

func NewLogSyncer(log logging.Logger, defaultTZ string) *LogSyncer {
	return &LogSyncer{log: log, defaultTZ: defaultTZ}
}

func (s *LogSyncer) Sync(ctx context.Context, e Event) (string, error) {
	w := resolveWindow(e, s.defaultTZ)
	s.log.Info(ctx, "calendar sync",
		"provider", "log",
		"uid", e.UID,
		"title", e.Title,
		"start", w.start,
		"end", w.end,
		"all_day", w.allDay,
	)
	return "", nil
}
