package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/taskflow/internal/models"
)

func TestSweeper_AutoCompletesOverdueTasks(t *testing.T) {
	clock := &fakeClock{now: base}
	service := NewTaskService(&memoryPersister{}, Options{Clock: clock.Now, Logger: discardLogger()})
	task := service.Create(CreateTaskInput{Text: "overdue", StartTime: base, EndTime: base.Add(time.Hour)})
	clock.Advance(2 * time.Hour)

	sweeper := NewSweeper(service, SweeperConfig{
		AutoCompleteInterval:   5 * time.Millisecond,
		RetentionSweepInterval: time.Hour,
	}, discardLogger())
	sweeper.Start(context.Background())
	defer sweeper.Stop()

	require.Eventually(t, func() bool {
		got, _ := service.Get(task.ID)
		return got.WasAutoCompleted
	}, time.Second, 5*time.Millisecond)
}

func TestSweeper_RemovesExpiredTasks(t *testing.T) {
	clock := &fakeClock{now: base}
	service := NewTaskService(&memoryPersister{}, Options{Clock: clock.Now, Logger: discardLogger()})
	service.Create(CreateTaskInput{Text: "stale", StartTime: base, EndTime: base.Add(time.Hour)})
	clock.Advance(5 * 24 * time.Hour)

	sweeper := NewSweeper(service, SweeperConfig{
		AutoCompleteInterval:   time.Hour,
		RetentionSweepInterval: 5 * time.Millisecond,
	}, discardLogger())
	sweeper.Start(context.Background())
	defer sweeper.Stop()

	require.Eventually(t, func() bool {
		return len(service.Tasks()) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestSweeper_NoSweepAfterStop(t *testing.T) {
	clock := &fakeClock{now: base}
	service := NewTaskService(&memoryPersister{}, Options{Clock: clock.Now, Logger: discardLogger()})
	task := service.Create(CreateTaskInput{Text: "late", StartTime: base, EndTime: base.Add(time.Hour)})

	sweeper := NewSweeper(service, SweeperConfig{
		AutoCompleteInterval:   time.Millisecond,
		RetentionSweepInterval: time.Millisecond,
	}, discardLogger())
	sweeper.Start(context.Background())
	sweeper.Stop()

	clock.Advance(2 * time.Hour)
	time.Sleep(20 * time.Millisecond)

	got, _ := service.Get(task.ID)
	assert.Equal(t, models.TaskStatusActive, got.Status)
}

func TestSweeper_StopIsIdempotent(t *testing.T) {
	service := NewTaskService(&memoryPersister{}, Options{Logger: discardLogger()})
	sweeper := NewSweeper(service, SweeperConfig{}, discardLogger())

	sweeper.Stop()
	sweeper.Start(context.Background())
	sweeper.Start(context.Background())
	sweeper.Stop()
	sweeper.Stop()
}

func TestSweeper_StopsWhenContextCancelled(t *testing.T) {
	service := NewTaskService(&memoryPersister{}, Options{Logger: discardLogger()})
	sweeper := NewSweeper(service, SweeperConfig{AutoCompleteInterval: time.Millisecond}, discardLogger())
	ctx, cancel := context.WithCancel(context.Background())

	sweeper.Start(ctx)
	cancel()

	stopped := make(chan struct{})
	go func() {
		sweeper.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestNewSweeper_Defaults(t *testing.T) {
	sweeper := NewSweeper(nil, SweeperConfig{}, nil)

	assert.Equal(t, 30*time.Second, sweeper.cfg.AutoCompleteInterval)
	assert.Equal(t, 10*time.Minute, sweeper.cfg.RetentionSweepInterval)
}
