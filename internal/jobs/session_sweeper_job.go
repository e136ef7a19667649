package job

import (
	"log/slog"
	"time"

	"github.com/maheshrc27/composeflow/internal/service"
)

// SessionSweeperJob discards composer sessions that have been idle long
// enough to count as abandoned, dropping their drafts and media queues.
type SessionSweeperJob struct {
	cs      service.ComposerService
	maxIdle time.Duration
}

func NewSessionSweeperJob(cs service.ComposerService, maxIdle time.Duration) *SessionSweeperJob {
	return &SessionSweeperJob{
		cs:      cs,
		maxIdle: maxIdle,
	}
}

func (j *SessionSweeperJob) SweepSessions() {
	removed := j.cs.Sweep(j.maxIdle)
	if removed > 0 {
		slog.Info("composer session sweep finished", "removed", removed)
	}
}
