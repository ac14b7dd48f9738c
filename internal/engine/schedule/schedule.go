// Package schedule drives recurring workflow triggers and periodic
// retrieval reindexing on cron schedules (spec §11.7), the properly
// library-backed equivalent of the teacher's domain/automation cron
// triggers — whose own scheduler hand-parses a "simplified" single-field
// cron expression (services/automation/automation_triggers.go's
// parseNextCronExecution) instead of exercising its own declared
// github.com/robfig/cron/v3 dependency.
package schedule

import (
	"context"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/r3e-network/oxy-engine/internal/engine/ectx"
	"github.com/r3e-network/oxy-engine/internal/engine/enginerr"
	"github.com/r3e-network/oxy-engine/internal/engine/output"
	"github.com/r3e-network/oxy-engine/pkg/logger"
)

// WorkflowLauncher is implemented by package workflow and injected here
// (the same dependency-injection seam as workflow.AgentRunner) so
// schedule does not import workflow directly.
type WorkflowLauncher interface {
	LaunchWorkflow(ctx context.Context, workflowRef string, variables map[string]any) (output.Container, error)
}

// ReindexFunc periodically refreshes a retrieval store; injected so
// schedule does not import retrieval directly.
type ReindexFunc func(ctx context.Context) error

// Trigger configures one recurring workflow launch.
type Trigger struct {
	Name        string
	CronExpr    string
	WorkflowRef string
	Variables   map[string]any
}

// TriggerScheduler re-enters a WorkflowLauncher on a cron schedule (spec
// §11.7), the Agent/Workflow task's equivalent of the teacher's
// domain/automation cron-scheduled jobs.
type TriggerScheduler struct {
	mu       sync.Mutex
	cron     *cron.Cron
	launcher WorkflowLauncher
	newCtx   func() *ectx.ExecutionContext
	log      *logger.Logger
	entries  map[string]cron.EntryID
}

// NewTriggerScheduler builds a TriggerScheduler. Each fired trigger calls
// the launcher with a fresh context.Background(); a nil log defaults to a
// "trigger-scheduler" logger.
func NewTriggerScheduler(launcher WorkflowLauncher, log *logger.Logger) *TriggerScheduler {
	if log == nil {
		log = logger.NewDefault("trigger-scheduler")
	}
	return &TriggerScheduler{
		cron:     cron.New(cron.WithSeconds()),
		launcher: launcher,
		log:      log,
		entries:  make(map[string]cron.EntryID),
	}
}

// Schedule registers a recurring trigger. CronExpr follows robfig/cron's
// six-field (seconds-included) format.
func (s *TriggerScheduler) Schedule(t Trigger) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[t.Name]; exists {
		return enginerr.New(enginerr.ConfigurationError, "trigger already scheduled").WithDetail("name", t.Name)
	}

	id, err := s.cron.AddFunc(t.CronExpr, func() {
		s.log.WithFields(map[string]any{"trigger": t.Name, "workflow": t.WorkflowRef}).Info("firing scheduled trigger")
		if _, err := s.launcher.LaunchWorkflow(context.Background(), t.WorkflowRef, t.Variables); err != nil {
			s.log.WithFields(map[string]any{"trigger": t.Name, "error": err.Error()}).Error("scheduled trigger failed")
		}
	})
	if err != nil {
		return enginerr.Wrap(enginerr.ConfigurationError, "parsing cron expression", err).WithDetail("expr", t.CronExpr)
	}

	s.entries[t.Name] = id
	return nil
}

// Unschedule removes a previously registered trigger by name.
func (s *TriggerScheduler) Unschedule(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.entries[name]; ok {
		s.cron.Remove(id)
		delete(s.entries, name)
	}
}

// ScheduleReindex registers a periodic retrieval-store reindex on the
// given cron expression.
func (s *TriggerScheduler) ScheduleReindex(name, cronExpr string, reindex ReindexFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[name]; exists {
		return enginerr.New(enginerr.ConfigurationError, "reindex job already scheduled").WithDetail("name", name)
	}

	id, err := s.cron.AddFunc(cronExpr, func() {
		if err := reindex(context.Background()); err != nil {
			s.log.WithFields(map[string]any{"job": name, "error": err.Error()}).Error("retrieval reindex failed")
		}
	})
	if err != nil {
		return enginerr.Wrap(enginerr.ConfigurationError, "parsing cron expression", err).WithDetail("expr", cronExpr)
	}

	s.entries[name] = id
	return nil
}

// Start begins firing scheduled triggers in the background.
func (s *TriggerScheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler, waiting for any in-flight trigger to finish.
func (s *TriggerScheduler) Stop() {
	<-s.cron.Stop().Done()
}
