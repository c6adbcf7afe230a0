package logging

import (
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// runIDHook stamps every log entry with the ID of the current CLI invocation
// so interleaved runs writing to the same rotating log file stay separable.
type runIDHook struct {
	id string
}

// NewRunID generates the 8-character correlation ID for this invocation.
func NewRunID() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return id[:8]
}

// InstallRunID attaches the run ID to all subsequent log entries and returns it.
func InstallRunID() string {
	id := NewRunID()
	log.AddHook(&runIDHook{id: id})
	return id
}

func (h *runIDHook) Levels() []log.Level {
	return log.AllLevels
}

func (h *runIDHook) Fire(entry *log.Entry) error {
	if _, exists := entry.Data["run_id"]; !exists {
		entry.Data["run_id"] = h.id
	}
	return nil
}
