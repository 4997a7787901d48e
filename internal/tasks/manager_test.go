package tasks

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/darmiel/toki/internal/logging"
)

func TestManager_RunNow(t *testing.T) {
	m := NewManager()
	defer m.Close()

	m.Register("reload", 0, func(ctx context.Context, logger logging.InternalLogger) error {
		logger.Info("reloaded %d handlers", 3)
		return nil
	})

	ran, err := m.RunNow(context.Background(), "reload")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ran {
		t.Fatal("expected the task to run")
	}

	status := m.ListStatus()
	if len(status) != 1 {
		t.Fatalf("expected 1 task, got %d", len(status))
	}
	if status[0].LastResult != ResultSuccess {
		t.Errorf("expected last result %q, got %q", ResultSuccess, status[0].LastResult)
	}
	if status[0].Runs != 1 {
		t.Errorf("expected 1 run, got %d", status[0].Runs)
	}
	if !status[0].NextRun.IsZero() {
		t.Errorf("expected no next run for unscheduled task, got %v", status[0].NextRun)
	}

	logs, err := m.GetLogs("reload")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// start, the message itself, completion
	if len(logs) != 3 {
		t.Fatalf("expected 3 log entries, got %d: %+v", len(logs), logs)
	}
	if logs[1].Message != "reloaded 3 handlers" || logs[1].Level != "info" {
		t.Errorf("unexpected log entry: %+v", logs[1])
	}
}

func TestManager_FailedRun(t *testing.T) {
	m := NewManager()
	defer m.Close()

	m.Register("broken", 0, func(context.Context, logging.InternalLogger) error {
		return errors.New("config file vanished")
	})

	if _, err := m.RunNow(context.Background(), "broken"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	status := m.ListStatus()[0]
	if status.LastResult != "failed: config file vanished" {
		t.Errorf("unexpected last result %q", status.LastResult)
	}

	logs, _ := m.GetLogs("broken")
	if last := logs[len(logs)-1]; last.Level != "error" {
		t.Errorf("expected last log entry to be an error, got %+v", last)
	}
}

func TestManager_UnknownTask(t *testing.T) {
	m := NewManager()
	defer m.Close()

	var notFound TaskNotFoundError
	if err := m.Trigger("nope"); !errors.As(err, &notFound) {
		t.Errorf("Trigger: expected TaskNotFoundError, got %v", err)
	}
	if _, err := m.GetLogs("nope"); !errors.As(err, &notFound) {
		t.Errorf("GetLogs: expected TaskNotFoundError, got %v", err)
	}
	if _, err := m.RunNow(context.Background(), "nope"); !errors.As(err, &notFound) {
		t.Errorf("RunNow: expected TaskNotFoundError, got %v", err)
	}
}

func TestManager_TriggerAndClose(t *testing.T) {
	m := NewManager()

	var runs atomic.Int32
	m.Register("count", 0, func(context.Context, logging.InternalLogger) error {
		runs.Add(1)
		return nil
	})

	if err := m.Trigger("count"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m.Close() // waits for the triggered run

	if got := runs.Load(); got != 1 {
		t.Errorf("expected 1 run, got %d", got)
	}
}

func TestManager_Scheduled(t *testing.T) {
	m := NewManager()

	ran := make(chan struct{}, 1)
	m.Register("tick", 10*time.Millisecond, func(context.Context, logging.InternalLogger) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	})

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled task did not run")
	}
	m.Close()

	if status := m.ListStatus()[0]; status.Interval != 10*time.Millisecond {
		t.Errorf("expected interval 10ms, got %s", status.Interval)
	}
}

func TestManager_SkipsConcurrentRun(t *testing.T) {
	m := NewManager()
	defer m.Close()

	started := make(chan struct{})
	release := make(chan struct{})
	m.Register("slow", 0, func(context.Context, logging.InternalLogger) error {
		close(started)
		<-release
		return nil
	})

	if err := m.Trigger("slow"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	<-started

	ran, err := m.RunNow(context.Background(), "slow")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ran {
		t.Error("expected the second run to be skipped")
	}
	close(release)
}

func TestManager_Timeout(t *testing.T) {
	m := NewManager(WithTimeout(10 * time.Millisecond))
	defer m.Close()

	m.Register("hang", 0, func(ctx context.Context, _ logging.InternalLogger) error {
		<-ctx.Done()
		return ctx.Err()
	})

	if _, err := m.RunNow(context.Background(), "hang"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status := m.ListStatus()[0]; status.LastResult != "failed: "+context.DeadlineExceeded.Error() {
		t.Errorf("unexpected last result %q", status.LastResult)
	}
}
