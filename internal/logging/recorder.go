package logging

import (
	"fmt"
	"sync"
)

// Line is one message collected by a Recorder.
type Line struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

var _ InternalLogger = (*Recorder)(nil)

// Recorder keeps all messages in memory.
type Recorder struct {
	mu    sync.Mutex
	lines []Line
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Info(format string, args ...any) {
	r.append("info", format, args...)
}

func (r *Recorder) Warn(format string, args ...any) {
	r.append("warn", format, args...)
}

func (r *Recorder) Error(format string, args ...any) {
	r.append("error", format, args...)
}

// Lines returns a copy of the collected messages.
func (r *Recorder) Lines() []Line {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := make([]Line, len(r.lines))
	copy(cpy, r.lines)
	return cpy
}

func (r *Recorder) append(level, format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lines = append(r.lines, Line{Level: level, Message: fmt.Sprintf(format, args...)})
}
