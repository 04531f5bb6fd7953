package automation

// State is a step of one prompt run.
type State string

const (
	StateIdle                 State = "idle"
	StateLaunching            State = "launching"
	StateNavigating           State = "navigating"
	StateAwaitingReady        State = "awaiting_ready"
	StateLocatingInput        State = "locating_input"
	StateSubmitting           State = "submitting"
	StateConfirmingSubmission State = "confirming_submission"
	StateAwaitingStability    State = "awaiting_stability"
	StateDone                 State = "done"
	StateFailed               State = "failed"
	StateTeardown             State = "teardown"
)

// Terminal reports whether s ends the pipeline (before teardown).
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Observer receives progress of a run. Implementations must not block.
type Observer interface {
	// OnState is called on every transition; err is set only for StateFailed.
	OnState(s State, err error)
	// OnPartial is called with each new non-empty reply reading.
	OnPartial(text string)
}

type nopObserver struct{}

func (nopObserver) OnState(State, error) {}
func (nopObserver) OnPartial(string)     {}

// Recorder receives run metrics.
type Recorder interface {
	RunFinished(outcome string, seconds float64)
	StageFailed(stage State)
	SessionOpened()
	SessionClosed()
	ClearFallback()
	FallbackClick()
	StabilityPolls(n int)
}

type nopRecorder struct{}

func (nopRecorder) RunFinished(string, float64) {}
func (nopRecorder) StageFailed(State)           {}
func (nopRecorder) SessionOpened()              {}
func (nopRecorder) SessionClosed()              {}
func (nopRecorder) ClearFallback()              {}
func (nopRecorder) FallbackClick()              {}
func (nopRecorder) StabilityPolls(int)          {}
