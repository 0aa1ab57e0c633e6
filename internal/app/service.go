// Package service wires the dashboard controller, the prediction forms and
// the chat relay behind the dependencies required by the HTTP API.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/okian/paddock/internal/adapters/mq/queue"
	"github.com/okian/paddock/internal/adapters/mq/worker"
	"github.com/okian/paddock/internal/chat"
	"github.com/okian/paddock/internal/domain/dedupe"
	"github.com/okian/paddock/internal/domain/model"
	"github.com/okian/paddock/internal/domain/selection"
	"github.com/okian/paddock/pkg/logger"
	"github.com/okian/paddock/pkg/metrics"
)

const stopTimeout = 30 * time.Second

// PredictionAPI is everything the service reads from the prediction API.
type PredictionAPI interface {
	Fetcher
	Predictor
	Health(ctx context.Context) error
}

// Service implements the API dependencies for the dashboard. Every session
// gets its own Dashboard; the fetch queue and workers are shared.
type Service struct {
	mu sync.RWMutex

	// Core components
	api      PredictionAPI
	relay    chat.Relayer
	sessions *sessionStore
	forms    *Forms
	jobs     *queue.InMemoryQueue
	pool     *worker.Pool

	// Configuration
	workerCount     int
	queueSize       int
	refreshInterval time.Duration
	autoRefresh     bool
	maxSessions     int
	sessionIdle     time.Duration
	years           []int
	defaultYear     int
	now             func() time.Time

	// State
	started     bool
	cancel      context.CancelFunc
	refreshDone chan struct{}

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of fetch workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the fetch job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithRefreshInterval sets the background refresh period.
func WithRefreshInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.refreshInterval = d
		}
	}
}

// WithAutoRefresh sets whether the refresh timer starts enabled.
func WithAutoRefresh(enabled bool) Option {
	return func(s *Service) { s.autoRefresh = enabled }
}

// WithMaxSessions bounds the number of session dashboards held at once.
func WithMaxSessions(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSessions = n
		}
	}
}

// WithSessionIdle sets how long an untouched session keeps its dashboard.
func WithSessionIdle(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.sessionIdle = d
		}
	}
}

// WithChampionshipYears sets the selectable championship years and the default.
func WithChampionshipYears(years []int, defaultYear int) Option {
	return func(s *Service) {
		s.years = years
		if defaultYear > 0 {
			s.defaultYear = defaultYear
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithNow sets the time source.
func WithNow(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Service over the prediction API and the chat relay.
func New(api PredictionAPI, relay chat.Relayer, opts ...Option) *Service {
	s := &Service{
		api:             api,
		relay:           relay,
		workerCount:     4,
		queueSize:       64,
		refreshInterval: 5 * time.Minute,
		autoRefresh:     true,
		maxSessions:     1024,
		sessionIdle:     30 * time.Minute,
		years:           []int{2025, 2026, 2027, 2028, 2029, 2030},
		defaultYear:     2030,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.sessions = newSessionStore(s.maxSessions, s.sessionIdle, s.now, s.newDashboard)
	s.sessions.get(DefaultSession)
	s.forms = NewForms(api, s.years, s.defaultYear, s.logger.Named("forms"))
	return s
}

func (s *Service) newDashboard(id string) *Dashboard {
	return NewDashboard(s.api,
		WithSessionID(id),
		WithClock(s.now),
		WithDashboardAutoRefresh(s.autoRefresh),
		WithInFlight(dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.queueSize*2))),
		WithDashboardLogger(s.logger.Named("dashboard")),
	)
}

// session returns the dashboard of the session in ctx. A session seen for
// the first time is mounted.
func (s *Service) session(ctx context.Context) *Dashboard {
	d, created := s.sessions.get(SessionFromContext(ctx))
	if created {
		s.logger.Debug(ctx, "session opened", logger.String("session", SessionFromContext(ctx)))
		s.dispatch(ctx, d, d.OnMount())
	}
	return d
}

// Start launches the fetch workers and the refresh timer, then issues the
// mount fetches of every held session.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting dashboard service...")

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.jobs = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.jobs, s,
		worker.WithLogger(s.logger.Named("worker")))
	s.pool.Start(runCtx)

	s.refreshDone = make(chan struct{})
	go s.runRefresher(runCtx, s.refreshDone)

	s.started = true
	s.logger.Info(ctx, "dashboard service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Duration("refreshInterval", s.refreshInterval),
	)

	for _, d := range s.sessions.all() {
		s.dispatchLocked(ctx, d, d.OnMount())
	}
	return nil
}

// Stop stops the refresh timer and the workers. Jobs still queued are
// abandoned so their dashboards stop waiting for them.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	// Once started is false no dispatch reaches the queue, so the refresher
	// and the pool can be drained without holding the lock.
	s.started = false
	stopRefresher, refreshDone, pool, jobs := s.cancel, s.refreshDone, s.pool, s.jobs
	s.mu.Unlock()

	ctx := context.Background()
	s.logger.Info(ctx, "stopping dashboard service...")

	stopRefresher()
	<-refreshDone

	shutdownCtx, cancel := context.WithTimeout(ctx, stopTimeout)
	defer cancel()
	if err := pool.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown incomplete", logger.Error(err))
	}
	left := jobs.Drain(shutdownCtx)
	for _, job := range left {
		if d, ok := s.sessions.peek(job.Session); ok {
			d.Abandon(job, ErrNotStarted)
		}
	}
	s.logger.Info(ctx, "dashboard service stopped", logger.Int("abandoned", len(left)))
}

// runRefresher re-issues the current state's fetch of every session on
// every tick.
func (s *Service) runRefresher(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, d := range s.sessions.all() {
				s.dispatch(ctx, d, d.OnTick())
			}
		}
	}
}

func (s *Service) dispatch(ctx context.Context, d *Dashboard, jobs []selection.Job) {
	if len(jobs) == 0 {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.dispatchLocked(ctx, d, jobs)
}

// dispatchLocked queues jobs issued by d. Must be called with s.mu held.
func (s *Service) dispatchLocked(ctx context.Context, d *Dashboard, jobs []selection.Job) {
	for _, job := range jobs {
		if !s.started {
			d.Abandon(job, ErrNotStarted)
			continue
		}
		// Request contexts end with the response; queued jobs must not.
		if err := s.jobs.Enqueue(context.WithoutCancel(ctx), job); err != nil {
			s.logger.Warn(ctx, "fetch job not queued",
				logger.String("session", job.Session),
				logger.String("kind", string(job.Kind)),
				logger.String("tag", job.Tag.String()),
				logger.Error(err))
			d.Abandon(job, err)
		}
	}
}

// Execute runs job on the dashboard of its session. It satisfies
// worker.Executor. Jobs of an evicted session are dropped.
func (s *Service) Execute(ctx context.Context, job selection.Job) error {
	d, ok := s.sessions.peek(job.Session)
	if !ok {
		metrics.RecordBatch(string(job.Kind), metrics.OutcomeStale)
		s.logger.Debug(ctx, "dropped job of closed session",
			logger.String("session", job.Session),
			logger.String("kind", string(job.Kind)))
		return nil
	}
	return d.Execute(ctx, job)
}

// Dashboard returns the dashboard view of the session in ctx.
func (s *Service) Dashboard(ctx context.Context) DashboardView {
	return s.session(ctx).View()
}

// SetFilter moves the session's dashboard to f and queues its fetches.
func (s *Service) SetFilter(ctx context.Context, f Filter) (DashboardView, error) {
	d := s.session(ctx)
	jobs, err := d.OnFilterChange(f)
	if err != nil {
		return DashboardView{}, err
	}
	s.dispatch(ctx, d, jobs)
	return d.View(), nil
}

// Refresh queues a manual refresh of the session's dashboard and reports
// how many jobs were queued.
func (s *Service) Refresh(ctx context.Context) int {
	d := s.session(ctx)
	jobs := d.Refresh()
	s.dispatch(ctx, d, jobs)
	return len(jobs)
}

// SetAutoRefresh turns the session's refresh timer on or off.
func (s *Service) SetAutoRefresh(ctx context.Context, enabled bool) DashboardView {
	d := s.session(ctx)
	d.SetAutoRefresh(enabled)
	return d.View()
}

// Options returns the driver and team choosers of the session's dashboard.
func (s *Service) Options(ctx context.Context) (drivers, teams []model.SelectableOption) {
	return s.session(ctx).Options()
}

// Seasons returns the known seasons, newest first.
func (s *Service) Seasons(ctx context.Context) ([]int, error) {
	return s.forms.Seasons(ctx)
}

// Championships returns the normalised forecasts of year.
func (s *Service) Championships(ctx context.Context, year int) (model.ChampionshipPredictions, error) {
	return s.forms.Championships(ctx, year)
}

// ChampionshipYears returns the selectable years and the default one.
func (s *Service) ChampionshipYears() (years []int, defaultYear int) {
	return s.forms.Years(), s.forms.DefaultYear()
}

// PredictPodium validates and forwards a podium prediction.
func (s *Service) PredictPodium(ctx context.Context, driverID, constructorID, grid int) (model.PodiumResult, error) {
	return s.forms.PredictPodium(ctx, driverID, constructorID, grid)
}

// PredictWDC validates and forwards a drivers' championship prediction.
func (s *Service) PredictWDC(ctx context.Context, year, driverID int, points float64) (model.WDCResult, error) {
	return s.forms.PredictWDC(ctx, year, driverID, points)
}

// Chat relays one message to the completion model.
func (s *Service) Chat(ctx context.Context, message string) (string, error) {
	return s.relay.Relay(ctx, message)
}

// Ready reports whether the prediction API answers its health check.
func (s *Service) Ready(ctx context.Context) error {
	return s.api.Health(ctx)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":         s.started,
		"workerCount":     s.workerCount,
		"queueSize":       s.queueSize,
		"refreshInterval": s.refreshInterval.String(),
		"sessions":        s.sessions.len(),
	}

	if s.started {
		queueLen := s.jobs.Len()
		stats["queueLength"] = queueLen
		stats["jobsProcessed"] = s.pool.Processed()
		stats["jobsFailed"] = s.pool.Failed()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateWorkerActiveCount(s.workerCount)
	}
	return stats
}
