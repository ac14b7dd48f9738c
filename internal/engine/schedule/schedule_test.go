package schedule

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r3e-network/oxy-engine/internal/engine/output"
)

type countingLauncher struct {
	mu    sync.Mutex
	calls []string
}

func (c *countingLauncher) LaunchWorkflow(ctx context.Context, workflowRef string, variables map[string]any) (output.Container, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, workflowRef)
	return output.Single{Output: output.Text{Text: "ok"}}, nil
}

func (c *countingLauncher) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func TestTriggerSchedulerFiresRegisteredTrigger(t *testing.T) {
	launcher := &countingLauncher{}
	s := NewTriggerScheduler(launcher, nil)

	require.NoError(t, s.Schedule(Trigger{Name: "every-second", CronExpr: "*/1 * * * * *", WorkflowRef: "wf-1"}))
	s.Start()
	defer s.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for launcher.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}

	assert.NotZero(t, launcher.count(), "expected the trigger to have fired at least once")
}

func TestTriggerSchedulerRejectsDuplicateName(t *testing.T) {
	launcher := &countingLauncher{}
	s := NewTriggerScheduler(launcher, nil)

	require.NoError(t, s.Schedule(Trigger{Name: "dup", CronExpr: "0 0 * * * *", WorkflowRef: "wf-1"}))
	err := s.Schedule(Trigger{Name: "dup", CronExpr: "0 0 * * * *", WorkflowRef: "wf-2"})
	assert.Error(t, err, "expected an error scheduling a duplicate trigger name")
}

func TestTriggerSchedulerUnscheduleRemovesEntry(t *testing.T) {
	launcher := &countingLauncher{}
	s := NewTriggerScheduler(launcher, nil)

	require.NoError(t, s.Schedule(Trigger{Name: "once", CronExpr: "0 0 0 1 1 *", WorkflowRef: "wf-1"}))
	s.Unschedule("once")

	err := s.Schedule(Trigger{Name: "once", CronExpr: "0 0 0 1 1 *", WorkflowRef: "wf-2"})
	assert.NoError(t, err, "expected re-scheduling the same name to succeed after Unschedule")
}

func TestScheduleReindexRejectsDuplicateName(t *testing.T) {
	launcher := &countingLauncher{}
	s := NewTriggerScheduler(launcher, nil)

	reindex := func(ctx context.Context) error { return nil }
	require.NoError(t, s.ScheduleReindex("reindex", "0 0 * * * *", reindex))
	err := s.ScheduleReindex("reindex", "0 0 * * * *", reindex)
	assert.Error(t, err, "expected an error scheduling a duplicate reindex job name")
}
