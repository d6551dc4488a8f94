// Package scheduler runs background jobs on cron schedules and on demand.
package scheduler

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

var (
	// ErrJobNotFound is returned when no job is registered under a name
	ErrJobNotFound = errors.New("job not registered")
	// ErrJobRunning is returned when a job is triggered while a previous run is in flight
	ErrJobRunning = errors.New("job already running")
)

// Job represents a scheduled job
type Job interface {
	Run() error
	Name() string
}

// JobStatus describes a registered job and its most recent run
type JobStatus struct {
	Name           string     `json:"name"`
	Schedule       string     `json:"schedule,omitempty"`
	NextRun        *time.Time `json:"next_run,omitempty"`
	LastRun        *time.Time `json:"last_run,omitempty"`
	LastDurationMs int64      `json:"last_duration_ms,omitempty"`
	LastError      string     `json:"last_error,omitempty"`
	Running        bool       `json:"running"`
}

type entry struct {
	job          Job
	schedule     string
	cronID       cron.EntryID
	running      bool
	lastRun      time.Time
	lastDuration time.Duration
	lastErr      error
}

// Scheduler keeps every job by name. Scheduled jobs also sit in cron;
// manual-only jobs are reachable through RunNow and Trigger.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger

	mu   sync.Mutex
	jobs map[string]*entry
}

// New creates a new scheduler. Schedules carry a leading seconds field.
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds()),
		log:  log.With().Str("component", "scheduler").Logger(),
		jobs: make(map[string]*entry),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("Scheduler started")
}

// Stop stops the scheduler and waits for running cron jobs to return
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}

// Register adds a job that only runs when triggered
func (s *Scheduler) Register(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkNameLocked(job); err != nil {
		return err
	}
	s.jobs[job.Name()] = &entry{job: job}

	s.log.Info().Str("job", job.Name()).Msg("Job registered for manual trigger")
	return nil
}

// AddJob registers a job and schedules it, e.g. "0 30 2 * * *" or "@every 1h".
// Names must be unique across scheduled and manual jobs.
func (s *Scheduler) AddJob(schedule string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkNameLocked(job); err != nil {
		return err
	}

	name := job.Name()
	id, err := s.cron.AddFunc(schedule, func() {
		if err := s.run(name); err != nil && errors.Is(err, ErrJobRunning) {
			s.log.Warn().Str("job", name).Msg("Skipping scheduled run, previous run still in progress")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q for %s: %w", schedule, name, err)
	}
	s.jobs[name] = &entry{job: job, schedule: schedule, cronID: id}

	s.log.Info().
		Str("schedule", schedule).
		Str("job", name).
		Msg("Job registered")

	return nil
}

func (s *Scheduler) checkNameLocked(job Job) error {
	if job == nil || job.Name() == "" {
		return fmt.Errorf("job must have a name")
	}
	if _, exists := s.jobs[job.Name()]; exists {
		return fmt.Errorf("job %s already registered", job.Name())
	}
	return nil
}

// Jobs returns the number of jobs on a cron schedule
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

// Status reports every registered job, sorted by name
func (s *Scheduler) Status() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobStatus, 0, len(s.jobs))
	for name, e := range s.jobs {
		st := JobStatus{Name: name, Schedule: e.schedule, Running: e.running}
		if e.cronID != 0 {
			if next := s.cron.Entry(e.cronID).Next; !next.IsZero() {
				st.NextRun = &next
			}
		}
		if !e.lastRun.IsZero() {
			last := e.lastRun
			st.LastRun = &last
			st.LastDurationMs = e.lastDuration.Milliseconds()
		}
		if e.lastErr != nil {
			st.LastError = e.lastErr.Error()
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// RunNow executes a registered job immediately and returns its error
func (s *Scheduler) RunNow(name string) error {
	s.log.Info().Str("job", name).Msg("Running job immediately")
	return s.run(name)
}

// Trigger starts a registered job in the background. It fails fast when
// the job is unknown or already running.
func (s *Scheduler) Trigger(name string) error {
	e, err := s.begin(name)
	if err != nil {
		return err
	}
	s.log.Info().Str("job", name).Msg("Manual job triggered")
	go func() { _ = s.execute(e) }()
	return nil
}

func (s *Scheduler) run(name string) error {
	e, err := s.begin(name)
	if err != nil {
		return err
	}
	return s.execute(e)
}

func (s *Scheduler) begin(name string) (*entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.jobs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	if e.running {
		return nil, fmt.Errorf("%w: %s", ErrJobRunning, name)
	}
	e.running = true
	return e, nil
}

func (s *Scheduler) execute(e *entry) error {
	name := e.job.Name()
	s.log.Debug().Str("job", name).Msg("Running job")

	started := time.Now()
	err := e.job.Run()
	elapsed := time.Since(started)

	s.mu.Lock()
	e.running = false
	e.lastRun = started
	e.lastDuration = elapsed
	e.lastErr = err
	s.mu.Unlock()

	if err != nil {
		s.log.Error().
			Err(err).
			Str("job", name).
			Dur("duration", elapsed).
			Msg("Job failed")
		return err
	}
	s.log.Debug().Str("job", name).Dur("duration", elapsed).Msg("Job completed")
	return nil
}
