package cmdlog

import (
	"time"

	"github.com/huygnguyen04/at-everyone/internal/logging"
	"github.com/huygnguyen04/at-everyone/internal/metrics"
)

func Run(cmd string, f func() error) error {
	metrics.IncCommandRun(cmd)
	start := time.Now()
	err := f()
	if err != nil {
		metrics.IncCommandError(cmd)
		logging.Error(cmd+"_error", map[string]any{"error": err.Error()})
	} else {
		logging.Info(cmd+"_ok", map[string]any{"elapsed_ms": time.Since(start).Milliseconds()})
	}
	return err
}
