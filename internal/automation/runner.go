package automation

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/ashureev/promptrelay/internal/domain"
)

const readyStateComplete = "complete"

// Config is everything the runner needs to drive one target site.
type Config struct {
	TargetURL string

	Input       domain.Strategy
	SendButtons domain.Strategy
	Messages    domain.Strategy

	ReadyTimeout     time.Duration
	HydrateDelay     time.Duration
	LocateTimeout    time.Duration
	LocateInterval   time.Duration
	FocusSettle      time.Duration
	SubmitGrace      time.Duration
	ExtractMinLength int
	Stability        StabilityConfig

	// QueueTimeout bounds how long a run waits for the profile to be free.
	// Zero waits until the caller's context is done.
	QueueTimeout time.Duration
}

func (c Config) submitConfig() SubmitConfig {
	return SubmitConfig{
		FocusSettle:      c.FocusSettle,
		Grace:            c.SubmitGrace,
		SendButtons:      c.SendButtons,
		Messages:         c.Messages,
		ExtractMinLength: c.ExtractMinLength,
	}
}

// Runner executes prompt runs one at a time against a single profile.
type Runner struct {
	cfg      Config
	launcher Launcher
	gate     *semaphore.Weighted
	busy     atomic.Bool
	draining atomic.Bool
	rec      Recorder
	log      *slog.Logger
}

// NewRunner creates a runner. rec and log may be nil.
func NewRunner(cfg Config, launcher Launcher, rec Recorder, log *slog.Logger) *Runner {
	if rec == nil {
		rec = nopRecorder{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Runner{
		cfg:      cfg,
		launcher: launcher,
		gate:     semaphore.NewWeighted(1),
		rec:      rec,
		log:      log,
	}
}

// Busy reports whether a run currently holds the profile.
func (r *Runner) Busy() bool {
	return r.busy.Load()
}

// Config returns the runner configuration.
func (r *Runner) Config() Config {
	return r.cfg
}

// run is the state of a single request.
type run struct {
	id    string
	state State
	obs   Observer
	log   *slog.Logger
	rec   Recorder
}

func (rn *run) enter(s State) {
	rn.state = s
	rn.log.Debug("Run state", "state", string(s))
	rn.obs.OnState(s, nil)
}

func (rn *run) fail(err error) error {
	stage := rn.state
	rn.state = StateFailed
	rn.rec.StageFailed(stage)
	rn.log.Error("Run failed", "stage", string(stage), "error", err)
	rn.obs.OnState(StateFailed, err)
	return err
}

type runIDKey struct{}

// WithRunID attaches a caller-chosen run identifier to ctx.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunID returns the identifier set by WithRunID, or "".
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

// Run submits prompt to the target page and returns the settled reply.
// obs may be nil.
func (r *Runner) Run(ctx context.Context, prompt string, obs Observer) (output string, err error) {
	if obs == nil {
		obs = nopObserver{}
	}
	prompt, err = domain.PromptRequest{Prompt: prompt}.Normalize()
	if err != nil {
		return "", err
	}

	id := RunID(ctx)
	if id == "" {
		id = uuid.NewString()
	}
	rn := &run{id: id, state: StateIdle, obs: obs, rec: r.rec}
	rn.log = r.log.With("run_id", rn.id)

	if err := r.acquire(ctx); err != nil {
		r.rec.RunFinished(string(domain.KindBusy), 0)
		return "", err
	}
	r.busy.Store(true)
	defer func() {
		r.busy.Store(false)
		r.gate.Release(1)
	}()

	start := time.Now()
	rn.log.Info("Run started", "target", r.cfg.TargetURL, "prompt_length", len(prompt))

	var sess Session
	defer func() {
		if p := recover(); p != nil {
			rn.log.Error("Run panicked", "stage", string(rn.state), "panic", p, "stack", string(debug.Stack()))
			output = ""
			err = rn.fail(domain.NewError(domain.KindInternal, string(rn.state), "unexpected failure", fmt.Errorf("panic: %v", p)))
		}
		r.teardown(rn, sess)
		outcome := "success"
		if err != nil {
			outcome = string(domain.KindOf(err))
		}
		r.rec.RunFinished(outcome, time.Since(start).Seconds())
		rn.log.Info("Run finished", "outcome", outcome, "duration", time.Since(start))
	}()

	rn.enter(StateLaunching)
	sess, err = r.launcher.Launch(ctx)
	if err != nil {
		sess = nil
		if domain.KindOf(err) == "" {
			err = domain.NewError(domain.KindLaunch, "launch", "browser could not start", err)
		}
		return "", rn.fail(err)
	}
	r.rec.SessionOpened()

	output, err = r.drive(ctx, rn, sess.Page(), prompt)
	if err != nil {
		return "", rn.fail(err)
	}
	rn.enter(StateDone)
	return output, nil
}

// drive runs every step between launch and done on page.
func (r *Runner) drive(ctx context.Context, rn *run, page Page, prompt string) (string, error) {
	rn.enter(StateNavigating)
	if err := r.navigate(ctx, page); err != nil {
		return "", err
	}

	rn.enter(StateAwaitingReady)
	if err := r.awaitReady(ctx, page); err != nil {
		return "", err
	}

	rn.enter(StateLocatingInput)
	located, err := Locate(ctx, page, r.cfg.Input, Usable, r.cfg.LocateTimeout, r.cfg.LocateInterval)
	if err != nil {
		return "", err
	}
	rn.log.Debug("Located chat input", "selector", located.Selector.String())

	sc := r.cfg.submitConfig()
	rn.enter(StateSubmitting)
	outcome, err := Submit(ctx, page, located.Element, prompt, sc, rn.log)
	if err != nil {
		return "", err
	}
	if outcome.ClearFallback {
		r.rec.ClearFallback()
	}

	rn.enter(StateConfirmingSubmission)
	outcome, err = Confirm(ctx, page, outcome, sc, rn.log)
	if err != nil {
		return "", err
	}
	if outcome.FallbackClicked {
		r.rec.FallbackClick()
	}

	rn.enter(StateAwaitingStability)
	read := func() string {
		return ExtractLatest(page, r.cfg.Messages, r.cfg.ExtractMinLength)
	}
	reply, err := WaitStable(ctx, r.cfg.Stability, read, rn.obs.OnPartial)
	r.rec.StabilityPolls(reply.Polls)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(reply.Text) == "" {
		return "", domain.NewError(domain.KindExtractionEmpty, "await_stability", "no output extracted, update message selectors", nil)
	}
	return reply.Text, nil
}

// navigate opens the target, bounded by ReadyTimeout.
func (r *Runner) navigate(ctx context.Context, page Page) error {
	nctx, cancel := context.WithTimeout(ctx, r.cfg.ReadyTimeout)
	defer cancel()
	err := page.Navigate(nctx, r.cfg.TargetURL)
	if err == nil {
		return nil
	}
	if nctx.Err() != nil {
		return domain.NewError(domain.KindTimeout, "navigate", "target page did not respond", err)
	}
	return domain.NewError(domain.KindLaunch, "navigate", "could not open target page", err)
}

// awaitReady polls document.readyState, then gives the app time to hydrate.
func (r *Runner) awaitReady(ctx context.Context, page Page) error {
	deadline := time.Now().Add(r.cfg.ReadyTimeout)
	var lastErr error
	for {
		state, err := page.ReadyState()
		if err == nil && state == readyStateComplete {
			break
		}
		if err != nil {
			lastErr = err
		}
		if !time.Now().Before(deadline) {
			return domain.NewError(domain.KindTimeout, "await_ready", "page never finished loading", lastErr)
		}
		if err := sleep(ctx, r.cfg.LocateInterval); err != nil {
			return domain.NewError(domain.KindTimeout, "await_ready", "aborted", err)
		}
	}
	if err := sleep(ctx, r.cfg.HydrateDelay); err != nil {
		return domain.NewError(domain.KindTimeout, "await_ready", "aborted", err)
	}
	return nil
}

// teardown releases the session exactly once, on every exit path.
func (r *Runner) teardown(rn *run, sess Session) {
	rn.enter(StateTeardown)
	if sess == nil {
		return
	}
	if err := sess.Close(); err != nil {
		rn.log.Warn("Session teardown reported an error", "error", err)
	}
	r.rec.SessionClosed()
}

// Drain stops new runs and waits for the in-flight one to finish.
func (r *Runner) Drain(ctx context.Context) error {
	r.draining.Store(true)
	if err := r.gate.Acquire(ctx, 1); err != nil {
		return err
	}
	r.gate.Release(1)
	return nil
}

func (r *Runner) acquire(ctx context.Context) error {
	if r.draining.Load() {
		return domain.NewError(domain.KindBusy, "acquire_profile", "server is shutting down", nil)
	}
	actx := ctx
	if r.cfg.QueueTimeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, r.cfg.QueueTimeout)
		defer cancel()
	}
	if err := r.gate.Acquire(actx, 1); err != nil {
		return domain.NewError(domain.KindBusy, "acquire_profile", "another run is using the browser profile", err)
	}
	return nil
}
