package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

type scheduledJob struct {
	spec    string
	job     *Job
	entryID cron.EntryID
}

// Scheduler runs jobs on cron schedules. A run is skipped while the
// previous run of the same job is still going.
type Scheduler struct {
	cron    *cron.Cron
	mu      sync.Mutex
	logger  *slog.Logger
	jobs    map[string]*scheduledJob
	order   []string
	running bool
}

// NewScheduler creates a scheduler with no jobs.
func NewScheduler() *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger: slog.Default().With("component", "pipeline.scheduler"),
		jobs:   make(map[string]*scheduledJob),
	}
}

// Add registers job under a standard cron expression.
//
// Common cron expressions:
//   - "0 3 * * *"    - Daily at 3 AM
//   - "*/15 * * * *" - Every 15 minutes
//   - "@hourly"      - Every hour
func (s *Scheduler) Add(spec string, job *Job) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid cron schedule %q for job %s: %w", spec, job.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("job %s: scheduler already started", job.Name)
	}
	if _, dup := s.jobs[job.Name]; dup {
		return fmt.Errorf("job %s scheduled twice", job.Name)
	}
	s.jobs[job.Name] = &scheduledJob{spec: spec, job: job}
	s.order = append(s.order, job.Name)
	return nil
}

// Start schedules every job and starts the cron loop. The scheduler stops
// when ctx is done. Without jobs it does nothing.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already started")
	}
	if len(s.jobs) == 0 {
		s.logger.Info("no scheduled jobs configured, skipping scheduler")
		return nil
	}

	for _, name := range s.order {
		sj := s.jobs[name]
		id, err := s.cron.AddFunc(sj.spec, func() {
			s.run(ctx, sj.job)
		})
		if err != nil {
			return fmt.Errorf("failed to schedule job %s: %w", name, err)
		}
		sj.entryID = id
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("scheduler started", "jobs", len(s.jobs))

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

func (s *Scheduler) run(ctx context.Context, job *Job) {
	s.logger.Info("starting scheduled job", "job", job.Name)

	counter, err := job.Run(ctx)
	if err != nil {
		s.logger.Error("scheduled job failed", "job", job.Name, "error", err)
		return
	}
	s.logger.Debug("scheduled job completed", "job", job.Name, "counts", counter.String())
}

// Stop stops the scheduler and waits for running jobs to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		<-s.cron.Stop().Done()
		s.running = false
		s.logger.Info("scheduler stopped")
	}
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next run time of the named job, or nil if the job is
// unknown or the scheduler has not started.
func (s *Scheduler) NextRun(name string) *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	sj, ok := s.jobs[name]
	if !ok || !s.running {
		return nil
	}
	next := s.cron.Entry(sj.entryID).Next
	return &next
}
