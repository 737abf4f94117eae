package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cppla/evsign/models"
	"github.com/cppla/evsign/utils"
)

// TokenStore is the part of the repository a Runner needs.
type TokenStore interface {
	FindDue(ctx context.Context, asOf time.Time) ([]models.Token, error)
	UpdateScheduleAndResult(ctx context.Context, id uint, next, last time.Time, outcome *models.Outcome) error
}

// SignInClient performs one remote check-in.
type SignInClient interface {
	SignIn(ctx context.Context, token, accountName string) (*models.Outcome, error)
}

const DefaultCallTimeout = 30 * time.Second

// Report summarises one pass.
type Report struct {
	Due           int `json:"due"`
	Succeeded     int `json:"succeeded"`
	Failed        int `json:"failed"`
	PersistErrors int `json:"persist_errors"`
}

// Runner executes due check-ins. Concurrent calls to Tick are serialised.
type Runner struct {
	store       TokenStore
	client      SignInClient
	window      Window
	workers     int
	callTimeout time.Duration
	log         *zap.SugaredLogger
	now         func() time.Time

	mu sync.Mutex
}

// RunnerOption customises a Runner.
type RunnerOption func(*Runner)

// WithWorkers bounds the number of check-ins in flight. 1 means sequential.
func WithWorkers(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithCallTimeout bounds each remote call.
func WithCallTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.callTimeout = d
		}
	}
}

// WithWindow replaces the window used for rescheduling.
func WithWindow(w Window) RunnerOption { return func(r *Runner) { r.window = w } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) RunnerOption { return func(r *Runner) { r.now = now } }

// WithLogger replaces the logger.
func WithLogger(l *zap.SugaredLogger) RunnerOption { return func(r *Runner) { r.log = l } }

// NewRunner returns a sequential Runner with the default call timeout.
func NewRunner(store TokenStore, client SignInClient, opts ...RunnerOption) *Runner {
	r := &Runner{
		store:       store,
		client:      client,
		window:      NewWindow(),
		workers:     1,
		callTimeout: DefaultCallTimeout,
		log:         utils.Sugar,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Tick runs one pass over the records due at the current time. A failing
// record never stops the pass: remote errors become failure outcomes and
// persist errors are logged and counted. The returned error is non-nil only
// when the due set could not be loaded or ctx was cancelled.
func (r *Runner) Tick(ctx context.Context) (Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	due, err := r.store.FindDue(ctx, now)
	if err != nil {
		r.log.Errorw("failed to load due tasks", "error", err)
		return Report{}, err
	}
	if len(due) == 0 {
		r.log.Debugw("no due tasks", "as_of", now)
		return Report{}, nil
	}

	report := Report{Due: len(due)}
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(r.workers)
	for i := range due {
		if ctx.Err() != nil {
			break
		}
		t := due[i]
		g.Go(func() error {
			ok, persisted := r.execute(ctx, &t, now)
			mu.Lock()
			defer mu.Unlock()
			if ok {
				report.Succeeded++
			} else {
				report.Failed++
			}
			if !persisted {
				report.PersistErrors++
			}
			return nil
		})
	}
	_ = g.Wait()

	r.log.Infow("tick finished",
		"due", report.Due,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"persist_errors", report.PersistErrors,
	)
	return report, ctx.Err()
}

// execute handles one record and reports whether the check-in succeeded and
// whether the result was stored.
func (r *Runner) execute(ctx context.Context, t *models.Token, now time.Time) (bool, bool) {
	callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
	outcome, err := r.client.SignIn(callCtx, t.Token, t.AccountName)
	cancel()
	if err != nil {
		outcome = models.FailureOutcome(err)
	}

	next := r.window.NextDay(now)
	if err := r.store.UpdateScheduleAndResult(ctx, t.ID, next, now, outcome); err != nil {
		r.log.Errorw("failed to store task result",
			"id", t.ID,
			"account", t.AccountName,
			"error", err,
		)
		return outcome.Success, false
	}

	r.log.Infow("executed task",
		"id", t.ID,
		"account", t.AccountName,
		"success", outcome.Success,
		"next_execution_time", next,
	)
	return outcome.Success, true
}
