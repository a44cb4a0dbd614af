// Package job contains the scheduled maintenance jobs of the web server.
package job

import (
	"secret-keeper/logger"
	"secret-keeper/util/common"
	"secret-keeper/web/sessionstore"
)

// ClearSessionsJob purges expired sessions from the in-process backend.
// The Redis backend expires its own keys, so it needs no job.
type ClearSessionsJob struct {
	backend *sessionstore.MemoryBackend
}

func NewClearSessionsJob(backend *sessionstore.MemoryBackend) *ClearSessionsJob {
	return &ClearSessionsJob{backend: backend}
}

// Run implements cron.Job.
func (j *ClearSessionsJob) Run() {
	defer common.Recover("clear sessions job")

	if purged := j.backend.PurgeExpired(); purged > 0 {
		logger.Debugf("purged %d expired sessions, %d live", purged, j.backend.Len())
	}
}
