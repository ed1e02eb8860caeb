package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job represents a scheduled task
type Job func(ctx context.Context) error

// Scheduler manages periodic tasks. A tick is skipped while the previous run
// of the same job is still going.
type Scheduler struct {
	cron     *cron.Cron
	jobs     map[string]cron.EntryID
	timezone *time.Location
	log      *zap.SugaredLogger

	// Parent of every job context; cancelled by Stop.
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new scheduler with the given timezone
func New(timezone string, log *zap.SugaredLogger) (*Scheduler, error) {
	if timezone == "" {
		timezone = "Local"
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %s: %w", timezone, err)
	}

	cl := cronLogger{log: log}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:     c,
		jobs:     make(map[string]cron.EntryID),
		timezone: loc,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// AddJob adds a job with a cron schedule
// schedule format: "0 */6 * * *" (every six hours)
func (s *Scheduler) AddJob(name, schedule string, job Job) error {
	entryID, err := s.cron.AddFunc(schedule, func() {
		s.log.Infof("[scheduler] Starting job: %s", name)
		start := time.Now()

		if err := job(s.ctx); err != nil {
			s.log.Errorf("[scheduler] Job %s failed: %v", name, err)
		} else {
			s.log.Infof("[scheduler] Job %s completed in %v", name, time.Since(start).Round(time.Second))
		}
	})

	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}

	s.jobs[name] = entryID
	s.log.Infof("[scheduler] Added job: %s (schedule: %s)", name, schedule)

	return nil
}

// Start begins running scheduled jobs
func (s *Scheduler) Start() {
	s.log.Info("[scheduler] Starting scheduler")
	s.cron.Start()
}

// Stop halts the scheduler and cancels running jobs. The returned context
// is done once they have returned.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("[scheduler] Stopping scheduler")
	s.cancel()
	return s.cron.Stop()
}

// RunNow immediately executes a scheduled job outside its schedule. It goes
// through the same chain as a tick, so it is skipped while the job is
// already running and its outcome is logged rather than returned.
func (s *Scheduler) RunNow(name string) error {
	entryID, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("unknown job %s", name)
	}
	entry := s.cron.Entry(entryID)
	if !entry.Valid() {
		return fmt.Errorf("unknown job %s", name)
	}

	s.log.Infof("[scheduler] Running job now: %s", name)
	entry.WrappedJob.Run()
	return nil
}

// ListJobs returns info about scheduled jobs
func (s *Scheduler) ListJobs() []JobInfo {
	entries := s.cron.Entries()
	infos := make([]JobInfo, 0, len(entries))

	for name, entryID := range s.jobs {
		for _, entry := range entries {
			if entry.ID == entryID {
				infos = append(infos, JobInfo{
					Name:    name,
					NextRun: entry.Next,
					LastRun: entry.Prev,
				})
				break
			}
		}
	}

	return infos
}

// JobInfo contains information about a scheduled job
type JobInfo struct {
	Name    string
	NextRun time.Time
	LastRun time.Time
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw("[cron] "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw("[cron] "+msg, append(keysAndValues, "error", err)...)
}
