package probe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"

	app "github.com/okian/paddock/internal/app"
	"github.com/okian/paddock/internal/chat"
	"github.com/okian/paddock/internal/domain/model"
	"github.com/okian/paddock/internal/domain/selection"
	"github.com/okian/paddock/pkg/logger"
)

// Step names in run order.
const (
	StepReady       = "ready"
	StepOptions     = "options"
	StepDashboard   = "dashboard"
	StepFilterDrv   = "filter-driver"
	StepFilterTeam  = "filter-team"
	StepClearFilter = "clear-filter"
	StepChat        = "chat"
)

// ErrProbeFailed is returned when at least one step failed.
var ErrProbeFailed = errors.New("probe failed")

type options struct {
	Drivers []model.SelectableOption `json:"drivers"`
	Teams   []model.SelectableOption `json:"teams"`
}

type runner struct {
	cfg    *Config
	client *httpClient
	log    logger.Logger
	report *Report

	opts      options
	lastEpoch uint64
}

// Run executes every probe step against cfg.BaseURL. The report is always
// returned; the error wraps ErrProbeFailed when any step failed.
func Run(ctx context.Context, cfg *Config) (*Report, error) {
	cfg = cfg.withDefaults()
	r := &runner{
		cfg:    cfg,
		client: newHTTPClient(cfg.BaseURL, cfg.Timeout),
		log:    logger.Get().Named("probe"),
		report: &Report{StartTime: time.Now()},
	}

	r.log.Info(ctx, "starting paddock probe",
		logger.String("baseURL", cfg.BaseURL),
		logger.Duration("timeout", cfg.Timeout),
		logger.Duration("settle", cfg.Settle),
		logger.Int("driver", cfg.DriverID),
		logger.Int("team", cfg.TeamID),
		logger.Bool("chat", cfg.Chat != ""))

	r.step(ctx, StepReady, r.ready)
	r.step(ctx, StepOptions, r.options)
	r.step(ctx, StepDashboard, r.dashboard)
	r.step(ctx, StepFilterDrv, r.filterDriver)
	r.step(ctx, StepFilterTeam, r.filterTeam)
	r.step(ctx, StepClearFilter, r.clearFilter)
	if cfg.Chat != "" {
		r.step(ctx, StepChat, r.chat)
	} else {
		r.report.Steps = append(r.report.Steps, Step{Name: StepChat, Skipped: true})
	}

	r.report.EndTime = time.Now()
	r.summary(ctx)

	if n := r.report.Failed(); n > 0 {
		return r.report, fmt.Errorf("%w: %d of %d steps", ErrProbeFailed, n, len(r.report.Steps))
	}
	return r.report, nil
}

func (r *runner) step(ctx context.Context, name string, fn func(context.Context) []string) {
	start := time.Now()
	problems := fn(ctx)
	s := Step{Name: name, OK: len(problems) == 0, Problems: problems, Duration: time.Since(start)}
	r.report.Steps = append(r.report.Steps, s)

	if s.OK {
		r.log.Info(ctx, "step passed", logger.String("step", name), logger.Duration("duration", s.Duration))
		return
	}
	for _, p := range problems {
		r.log.Error(ctx, "step failed", logger.String("step", name), logger.String("problem", p))
	}
}

func (r *runner) ready(ctx context.Context) []string {
	if _, err := r.client.getJSON(ctx, "/readyz", nil); err != nil {
		return []string{err.Error()}
	}
	return nil
}

// options waits until the reference data has loaded.
func (r *runner) options(ctx context.Context) []string {
	var lastErr error
	err := r.poll(ctx, func() bool {
		var out options
		if _, err := r.client.getJSON(ctx, "/api/options", &out); err != nil {
			lastErr = err
			return false
		}
		r.opts = out
		return len(out.Drivers) > 0 && len(out.Teams) > 0
	})
	if err != nil {
		if lastErr != nil {
			return []string{lastErr.Error()}
		}
		return []string{fmt.Sprintf("options still empty: %d drivers, %d teams", len(r.opts.Drivers), len(r.opts.Teams))}
	}
	r.log.Debug(ctx, "options loaded", logger.Int("drivers", len(r.opts.Drivers)), logger.Int("teams", len(r.opts.Teams)))
	return nil
}

func (r *runner) dashboard(ctx context.Context) []string {
	var v app.DashboardView
	if _, err := r.client.getJSON(ctx, "/api/dashboard", &v); err != nil {
		return []string{err.Error()}
	}
	r.lastEpoch = v.Epoch
	return r.await(ctx, v.Filter)
}

func (r *runner) filterDriver(ctx context.Context) []string {
	opt, ok := pick(r.opts.Drivers, r.cfg.DriverID)
	if !ok {
		return []string{fmt.Sprintf("driver %d is not among %d options", r.cfg.DriverID, len(r.opts.Drivers))}
	}
	want := selection.State{Kind: selection.ByDriver, ID: opt.Value, Label: opt.Label}
	return r.transition(ctx, app.Filter{DriverID: opt.Value}, want)
}

func (r *runner) filterTeam(ctx context.Context) []string {
	opt, ok := pick(r.opts.Teams, r.cfg.TeamID)
	if !ok {
		return []string{fmt.Sprintf("team %d is not among %d options", r.cfg.TeamID, len(r.opts.Teams))}
	}
	want := selection.State{Kind: selection.ByTeam, ID: opt.Value, Label: opt.Label}
	return r.transition(ctx, app.Filter{ConstructorID: opt.Value}, want)
}

func (r *runner) clearFilter(ctx context.Context) []string {
	return r.transition(ctx, app.Filter{}, selection.State{Kind: selection.Unfiltered})
}

// transition posts f and checks the immediate answer before waiting for data.
func (r *runner) transition(ctx context.Context, f app.Filter, want selection.State) []string {
	var v app.DashboardView
	if _, err := r.client.postJSON(ctx, "/api/dashboard/filter", f, &v); err != nil {
		return []string{err.Error()}
	}

	var problems []string
	if !sameState(v.Filter, want) {
		problems = append(problems, fmt.Sprintf("filter answer is %s, want %s", v.Filter, want))
	}
	if want.Filtered() && v.Filter.Label != want.Label {
		problems = append(problems, fmt.Sprintf("filter label is %q, want %q", v.Filter.Label, want.Label))
	}
	if v.Epoch <= r.lastEpoch {
		problems = append(problems, fmt.Sprintf("epoch did not advance: %d after %d", v.Epoch, r.lastEpoch))
	}
	if v.Prediction != nil {
		problems = append(problems, "prediction from the previous filter was not cleared")
	}
	r.lastEpoch = v.Epoch

	return append(problems, r.await(ctx, want)...)
}

// await polls the dashboard until the fetches for want settle, then
// checks the view.
func (r *runner) await(ctx context.Context, want selection.State) []string {
	var v app.DashboardView
	var lastErr error
	err := r.poll(ctx, func() bool {
		lastErr = nil
		if _, err := r.client.getJSON(ctx, "/api/dashboard", &v); err != nil {
			lastErr = err
			return false
		}
		if r.cfg.Verbose {
			r.log.Debug(ctx, "dashboard poll",
				logger.String("filter", v.Filter.String()),
				logger.String("dataFor", v.DataFor.String()),
				logger.Any("loading", v.Loading))
		}
		return settled(v, want)
	})
	if err != nil {
		if lastErr != nil {
			return []string{lastErr.Error()}
		}
		return []string{fmt.Sprintf("data for %s did not settle within %s", want, r.cfg.Settle)}
	}
	return checkView(v, want)
}

func (r *runner) chat(ctx context.Context) []string {
	transcript := chat.NewTranscript()
	reply, ok := transcript.Send(ctx, serverRelay{client: r.client}, r.cfg.Chat)
	if !ok {
		return []string{"chat message is blank"}
	}
	if reply.Content == chat.FallbackReply {
		return []string{"chat relay failed; fallback reply shown"}
	}
	r.log.Info(ctx, "chat reply", logger.Int("messages", transcript.Len()), logger.String("reply", reply.Content))
	return nil
}

// poll calls done every pollInterval until it returns true or Settle elapses.
func (r *runner) poll(ctx context.Context, done func() bool) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Settle)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		if done() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (r *runner) summary(ctx context.Context) {
	passed := lo.CountBy(r.report.Steps, func(s Step) bool { return s.OK })
	skipped := lo.CountBy(r.report.Steps, func(s Step) bool { return s.Skipped })
	r.log.Info(ctx, "probe summary",
		logger.Int("passed", passed),
		logger.Int("failed", r.report.Failed()),
		logger.Int("skipped", skipped),
		logger.Duration("duration", r.report.EndTime.Sub(r.report.StartTime)))
}

// pick finds id among opts, or the first option when id is zero.
func pick(opts []model.SelectableOption, id int) (model.SelectableOption, bool) {
	if id == 0 {
		return lo.First(opts)
	}
	return lo.Find(opts, func(o model.SelectableOption) bool { return o.Value == id })
}
