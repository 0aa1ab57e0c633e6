package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/okian/paddock/internal/adapters/predictapi"
	"github.com/okian/paddock/internal/domain/dedupe"
	"github.com/okian/paddock/internal/domain/model"
	"github.com/okian/paddock/internal/domain/selection"
	"github.com/okian/paddock/pkg/logger"
	"github.com/okian/paddock/pkg/metrics"
)

// ErrUnknownJob is returned for a job kind the dashboard does not run.
var ErrUnknownJob = errors.New("unknown job kind")

// Fetcher is the part of the prediction API the dashboard reads.
type Fetcher interface {
	ListDrivers(ctx context.Context) ([]model.SelectableOption, error)
	ListConstructors(ctx context.Context) ([]model.SelectableOption, error)
	DriverAnalytics(ctx context.Context, f predictapi.Filter) ([]model.DriverRow, error)
	TeamAnalytics(ctx context.Context, f predictapi.Filter) ([]model.TeamRow, error)
	PodiumAnalytics(ctx context.Context, f predictapi.Filter) ([]model.PodiumRow, error)
	Prediction(ctx context.Context, kind model.PredictionKind, id, targetYear int) (*model.PredictionData, error)
}

// Filter is a requested filter. At most one id may be set; none clears.
type Filter struct {
	DriverID      int `json:"driverId,omitempty"`
	ConstructorID int `json:"constructorId,omitempty"`
}

// analytics is one applied batch together with the tag it was fetched for.
type analytics struct {
	tag     selection.Tag
	drivers []model.DriverRow
	teams   []model.TeamRow
	podiums []model.PodiumRow
}

// Dashboard owns the filter state and the data shown for it. Methods that
// change the state return the fetch jobs to run; Execute runs one job and
// applies its result only while the job's tag is still current.
type Dashboard struct {
	mu sync.Mutex

	session  string
	api      Fetcher
	machine  *selection.Machine
	inflight dedupe.Deduper
	now      func() time.Time
	log      logger.Logger

	drivers         []model.SelectableOption
	teams           []model.SelectableOption
	referenceLoaded bool

	data          analytics
	prediction    *model.PredictionData
	predictionErr string

	errMsg      string
	blocking    bool
	pending     map[selection.JobKind]int
	lastUpdated time.Time
	autoRefresh bool
}

// DashboardOption configures a Dashboard.
type DashboardOption func(*Dashboard)

// WithClock sets the time source used for the prediction year and timestamps.
func WithClock(now func() time.Time) DashboardOption {
	return func(d *Dashboard) {
		if now != nil {
			d.now = now
		}
	}
}

// WithInFlight sets the deduper that coalesces identical pending jobs.
func WithInFlight(dd dedupe.Deduper) DashboardOption {
	return func(d *Dashboard) {
		if dd != nil {
			d.inflight = dd
		}
	}
}

// WithDashboardAutoRefresh sets whether timer ticks start enabled.
func WithDashboardAutoRefresh(enabled bool) DashboardOption {
	return func(d *Dashboard) { d.autoRefresh = enabled }
}

// WithSessionID names the session whose jobs this dashboard issues.
func WithSessionID(id string) DashboardOption {
	return func(d *Dashboard) { d.session = id }
}

// WithDashboardLogger sets the dashboard logger.
func WithDashboardLogger(l logger.Logger) DashboardOption {
	return func(d *Dashboard) {
		if l != nil {
			d.log = l
		}
	}
}

// NewDashboard creates an Unfiltered dashboard reading from api.
func NewDashboard(api Fetcher, opts ...DashboardOption) *Dashboard {
	d := &Dashboard{
		session:     DefaultSession,
		api:         api,
		machine:     selection.NewMachine(),
		now:         time.Now,
		pending:     make(map[selection.JobKind]int),
		autoRefresh: true,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.inflight == nil {
		d.inflight = dedupe.NewInMemoryDeduper()
	}
	if d.log == nil {
		d.log = logger.Get().Named("dashboard")
	}
	d.data.tag = d.machine.Current()
	return d
}

// OnMount loads the choosers and the unfiltered analytics.
func (d *Dashboard) OnMount() []selection.Job {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.issue(d.machine.Current(), selection.JobReference, selection.JobAnalytics)
}

// OnFilterChange moves to the requested filter. A driver or team filter
// fetches its scoped analytics and next season's prediction; clearing the
// filter fetches unscoped analytics and drops the held prediction.
func (d *Dashboard) OnFilterChange(f Filter) ([]selection.Job, error) {
	if f.DriverID != 0 && f.ConstructorID != 0 {
		return nil, invalid(MsgOneFilter)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	var tag selection.Tag
	switch {
	case f.DriverID != 0:
		tag = d.machine.SelectDriver(d.option(d.drivers, f.DriverID))
	case f.ConstructorID != 0:
		tag = d.machine.SelectTeam(d.option(d.teams, f.ConstructorID))
	default:
		tag = d.machine.Clear()
	}
	metrics.RecordSelectionTransition(string(tag.State.Kind))

	d.prediction = nil
	d.predictionErr = ""
	if !d.blocking {
		d.errMsg = ""
	}
	d.log.Debug(context.Background(), "filter changed", logger.String("tag", tag.String()))

	if tag.State.Filtered() {
		return d.issue(tag, selection.JobAnalytics, selection.JobPrediction), nil
	}
	return d.issue(tag, selection.JobAnalytics), nil
}

// OnTick re-fetches analytics for the current state without changing it.
// It returns nothing while auto refresh is off.
func (d *Dashboard) OnTick() []selection.Job {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.autoRefresh {
		return nil
	}
	metrics.RecordRefreshTick()
	return d.issue(d.machine.Current(), selection.JobAnalytics)
}

// Refresh is the manual refresh: analytics plus, when filtered, the
// prediction. Choosers that failed to load are retried as well.
func (d *Dashboard) Refresh() []selection.Job {
	d.mu.Lock()
	defer d.mu.Unlock()

	tag := d.machine.Current()
	kinds := []selection.JobKind{selection.JobAnalytics}
	if !d.referenceLoaded {
		kinds = append([]selection.JobKind{selection.JobReference}, kinds...)
	}
	if tag.State.Filtered() {
		kinds = append(kinds, selection.JobPrediction)
	}
	return d.issue(tag, kinds...)
}

// SetAutoRefresh turns timer ticks on or off.
func (d *Dashboard) SetAutoRefresh(enabled bool) {
	d.mu.Lock()
	d.autoRefresh = enabled
	d.mu.Unlock()
}

// Selection returns the current tag.
func (d *Dashboard) Selection() selection.Tag {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.machine.Current()
}

// Execute runs job and applies its result.
func (d *Dashboard) Execute(ctx context.Context, job selection.Job) error {
	switch job.Kind {
	case selection.JobReference:
		return d.loadReference(ctx, job)
	case selection.JobAnalytics:
		return d.loadAnalytics(ctx, job)
	case selection.JobPrediction:
		return d.loadPrediction(ctx, job)
	default:
		d.mu.Lock()
		d.finish(job)
		d.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownJob, job.Kind)
	}
}

// Abandon releases a job that could not be queued and reports it the same
// way a failed fetch is reported.
func (d *Dashboard) Abandon(job selection.Job, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.finish(job)
	if !d.machine.IsCurrent(job.Tag) && job.Kind != selection.JobReference {
		return
	}
	d.fail(job, err)
}

func (d *Dashboard) loadReference(ctx context.Context, job selection.Job) error {
	var drivers, teams []model.SelectableOption
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		drivers, err = d.api.ListDrivers(gctx)
		return err
	})
	g.Go(func() (err error) {
		teams, err = d.api.ListConstructors(gctx)
		return err
	})
	err := g.Wait()

	d.mu.Lock()
	defer d.mu.Unlock()
	d.finish(job)

	// Choosers do not depend on the filter, so they are never stale.
	if err != nil {
		return d.fail(job, err)
	}
	d.drivers, d.teams = drivers, teams
	d.referenceLoaded = true
	if d.blocking {
		d.blocking, d.errMsg = false, ""
	}
	metrics.RecordBatch(string(job.Kind), metrics.OutcomeOK)
	return nil
}

func (d *Dashboard) loadAnalytics(ctx context.Context, job selection.Job) error {
	batch, err := d.fetchAnalytics(ctx, job.Tag)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.finish(job)

	if !d.machine.IsCurrent(job.Tag) {
		d.stale(ctx, job)
		return nil
	}
	if err != nil {
		return d.fail(job, err)
	}
	d.data = batch
	if !d.blocking {
		d.errMsg = ""
	}
	d.lastUpdated = d.now()
	metrics.RecordBatch(string(job.Kind), metrics.OutcomeOK)
	return nil
}

// fetchAnalytics runs the datasets of one state concurrently. The batch is
// returned only when every dataset loaded.
func (d *Dashboard) fetchAnalytics(ctx context.Context, tag selection.Tag) (analytics, error) {
	batch := analytics{tag: tag}
	g, gctx := errgroup.WithContext(ctx)

	switch tag.State.Kind {
	case selection.ByDriver:
		f := predictapi.Filter{DriverID: tag.State.ID}
		g.Go(func() (err error) {
			batch.drivers, err = d.api.DriverAnalytics(gctx, f)
			return err
		})
		g.Go(func() (err error) {
			batch.podiums, err = d.api.PodiumAnalytics(gctx, f)
			return err
		})
	case selection.ByTeam:
		f := predictapi.Filter{ConstructorID: tag.State.ID}
		g.Go(func() (err error) {
			batch.teams, err = d.api.TeamAnalytics(gctx, f)
			return err
		})
	default:
		g.Go(func() (err error) {
			batch.drivers, err = d.api.DriverAnalytics(gctx, predictapi.Filter{})
			return err
		})
		g.Go(func() (err error) {
			batch.teams, err = d.api.TeamAnalytics(gctx, predictapi.Filter{})
			return err
		})
		g.Go(func() (err error) {
			batch.podiums, err = d.api.PodiumAnalytics(gctx, predictapi.Filter{})
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return analytics{}, err
	}
	return batch, nil
}

func (d *Dashboard) loadPrediction(ctx context.Context, job selection.Job) error {
	var (
		pred *model.PredictionData
		err  error
	)
	year := d.targetYear()
	switch job.Tag.State.Kind {
	case selection.ByDriver:
		pred, err = d.api.Prediction(ctx, model.PredictionDriver, job.Tag.State.ID, year)
	case selection.ByTeam:
		pred, err = d.api.Prediction(ctx, model.PredictionConstructor, job.Tag.State.ID, year)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.finish(job)

	if !d.machine.IsCurrent(job.Tag) {
		d.stale(ctx, job)
		return nil
	}
	if err != nil {
		return d.fail(job, err)
	}
	d.prediction = nil
	if pred != nil {
		p := *pred
		p.Normalize()
		d.prediction = &p
	}
	d.predictionErr = ""
	metrics.RecordBatch(string(job.Kind), metrics.OutcomeOK)
	return nil
}

// targetYear is the season after the current one.
func (d *Dashboard) targetYear() int {
	return d.now().Year() + 1
}

// issue creates jobs for tag, skipping any kind already pending for it.
// Must be called with d.mu held.
func (d *Dashboard) issue(tag selection.Tag, kinds ...selection.JobKind) []selection.Job {
	jobs := make([]selection.Job, 0, len(kinds))
	for _, kind := range kinds {
		job := selection.NewJob(tag, kind)
		job.Session = d.session
		if d.inflight.SeenAndRecord(context.Background(), job.Key()) {
			metrics.RecordQueueCoalesced()
			continue
		}
		d.pending[kind]++
		jobs = append(jobs, job)
	}
	return jobs
}

// finish must be called with d.mu held.
func (d *Dashboard) finish(job selection.Job) {
	d.inflight.Unrecord(context.Background(), job.Key())
	if d.pending[job.Kind] > 0 {
		d.pending[job.Kind]--
	}
}

// fail records the user-facing message for a failed job. Must be called
// with d.mu held.
func (d *Dashboard) fail(job selection.Job, err error) error {
	metrics.RecordBatch(string(job.Kind), metrics.OutcomeError)

	var msg string
	switch job.Kind {
	case selection.JobReference:
		msg = MsgReferenceFailed
		d.blocking = true
		d.errMsg = msg
	case selection.JobPrediction:
		msg = MsgPredictionFailed
		d.prediction = nil
		d.predictionErr = msg
	default:
		msg = MsgAnalyticsFailed
		if job.Tag.State.Filtered() {
			msg = MsgFilteredFailed
		}
		if !d.blocking {
			d.errMsg = msg
		}
	}

	d.log.Warn(context.Background(), "fetch batch failed",
		logger.String("kind", string(job.Kind)),
		logger.String("tag", job.Tag.String()),
		logger.Error(err))
	return &UserError{Message: msg, Err: err}
}

// stale must be called with d.mu held.
func (d *Dashboard) stale(ctx context.Context, job selection.Job) {
	metrics.RecordBatch(string(job.Kind), metrics.OutcomeStale)
	d.log.Debug(ctx, "dropped stale result",
		logger.String("kind", string(job.Kind)),
		logger.String("tag", job.Tag.String()),
		logger.String("current", d.machine.Current().String()))
}

// option finds the chooser entry for id. Unknown ids keep an empty label.
func (d *Dashboard) option(opts []model.SelectableOption, id int) *model.SelectableOption {
	if opt, ok := lo.Find(opts, func(o model.SelectableOption) bool { return o.Value == id }); ok {
		return &opt
	}
	return &model.SelectableOption{Value: id}
}
