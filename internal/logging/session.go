package logging

import (
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// sessionField is the entry field carrying the per-run session ID.
const sessionField = "session"

// NewSessionID creates a new 8-character session ID.
func NewSessionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// sessionHook stamps every entry with the session ID of the current run.
type sessionHook struct {
	id string
}

func (h *sessionHook) Levels() []log.Level {
	return log.AllLevels
}

func (h *sessionHook) Fire(entry *log.Entry) error {
	if _, ok := entry.Data[sessionField]; !ok {
		entry.Data[sessionField] = h.id
	}
	return nil
}

// StartSession generates a session ID, attaches it to all subsequent entries of the
// standard logger and returns it.
func StartSession() string {
	id := NewSessionID()
	log.AddHook(&sessionHook{id: id})
	return id
}
