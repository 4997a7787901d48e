package tasks

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/darmiel/toki/internal/logging"
)

var _ logging.InternalLogger = (*storeLogger)(nil)

// storeLogger appends every message to the logs of the current run.
type storeLogger struct {
	task *RunnableTask
}

func (t storeLogger) Info(format string, args ...any) {
	t.task.appendLog("info", fmt.Sprintf(format, args...))
}

func (t storeLogger) Warn(format string, args ...any) {
	t.task.appendLog("warn", fmt.Sprintf(format, args...))
}

func (t storeLogger) Error(format string, args ...any) {
	t.task.appendLog("error", fmt.Sprintf(format, args...))
}

// newCompositeLogger logs to zerolog first and then into the task logs.
func newCompositeLogger(task *RunnableTask, zlog zerolog.Logger) logging.MultiLogger {
	return logging.NewMultiLogger(
		logging.NewZLogger(zlog),
		storeLogger{task: task},
	)
}
