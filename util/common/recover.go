package common

import (
	"secret-keeper/logger"
)

// Recover logs a recovered panic. Use deferred in goroutines and jobs
// that must not take the process down.
func Recover(msg string) any {
	panicErr := recover()
	if panicErr != nil {
		if msg != "" {
			logger.Error(msg, "panic:", panicErr)
		}
	}
	return panicErr
}
