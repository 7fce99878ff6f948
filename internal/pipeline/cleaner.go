package pipeline

import (
	"log/slog"
	"os"

	"turntable/internal/logging"
)

// Clean removes a render work directory. Cleanup is best effort and
// idempotent: a directory that is already gone is success, and failures
// are logged rather than surfaced so they never mask the render result.
func Clean(logger *slog.Logger, workDir string) {
	if workDir == "" {
		return
	}
	if _, err := os.Stat(workDir); os.IsNotExist(err) {
		return
	}
	if err := os.RemoveAll(workDir); err != nil {
		if logger != nil {
			logger.Warn("work directory cleanup failed",
				logging.String("path", workDir),
				logging.Error(err))
		}
		return
	}
	if logger != nil {
		logger.Debug("work directory removed", logging.String("path", workDir))
	}
}
