package automation

import (
	"context"
	"errors"
	"sync"

	"github.com/ashureev/promptrelay/internal/domain"
)

type fakeElement struct {
	mu sync.Mutex

	text     string
	hidden   bool
	disabled bool
	editable bool // contenteditable: Clear is unsupported

	focusErr error
	inputErr error
	enterErr error
	clickErr error
	textErr  error

	value   string
	pressed []Key
	clicks  int
	onEnter func()
	onClick func()
}

func (e *fakeElement) Visible() (bool, error) { return !e.hidden, nil }
func (e *fakeElement) Enabled() (bool, error) { return !e.disabled, nil }
func (e *fakeElement) Focus() error           { return e.focusErr }

func (e *fakeElement) Clear() error {
	if e.editable {
		return ErrUnsupported
	}
	e.mu.Lock()
	e.value = ""
	e.mu.Unlock()
	return nil
}

func (e *fakeElement) Input(text string) error {
	if e.inputErr != nil {
		return e.inputErr
	}
	e.mu.Lock()
	e.value += text
	e.mu.Unlock()
	return nil
}

func (e *fakeElement) Press(key Key) error {
	e.mu.Lock()
	e.pressed = append(e.pressed, key)
	if key == KeyBackspace {
		e.value = ""
	}
	e.mu.Unlock()
	if key == KeyEnter {
		if e.enterErr != nil {
			return e.enterErr
		}
		if e.onEnter != nil {
			e.onEnter()
		}
	}
	return nil
}

func (e *fakeElement) Click() error {
	if e.clickErr != nil {
		return e.clickErr
	}
	e.mu.Lock()
	e.clicks++
	e.mu.Unlock()
	if e.onClick != nil {
		e.onClick()
	}
	return nil
}

func (e *fakeElement) Text() (string, error) {
	if e.textErr != nil {
		return "", e.textErr
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.text, nil
}

func (e *fakeElement) Value() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value
}

type fakePage struct {
	mu sync.Mutex

	nodes map[string][]*fakeElement
	errs  map[string]error

	ready          string
	readyErr       error
	navigateErr    error
	navigateHangs  bool
	navigated      string
	selectAllCalls int
	queries        int
}

func newFakePage() *fakePage {
	return &fakePage{
		nodes: make(map[string][]*fakeElement),
		errs:  make(map[string]error),
		ready: "complete",
	}
}

func (p *fakePage) add(pattern string, els ...*fakeElement) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nodes[pattern] = append(p.nodes[pattern], els...)
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	p.navigated = url
	hang := p.navigateHangs
	p.mu.Unlock()
	if hang {
		<-ctx.Done()
		return ctx.Err()
	}
	return p.navigateErr
}

func (p *fakePage) ReadyState() (string, error) { return p.ready, p.readyErr }

func (p *fakePage) Elements(sel domain.Selector) ([]Element, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queries++
	if err := p.errs[sel.Pattern]; err != nil {
		return nil, err
	}
	var out []Element
	for _, el := range p.nodes[sel.Pattern] {
		out = append(out, el)
	}
	return out, nil
}

func (p *fakePage) SelectAll() error {
	p.mu.Lock()
	p.selectAllCalls++
	p.mu.Unlock()
	return nil
}

type fakeSession struct {
	page   Page
	mu     sync.Mutex
	closed int
}

func (s *fakeSession) Page() Page { return s.page }

func (s *fakeSession) Close() error {
	s.mu.Lock()
	s.closed++
	s.mu.Unlock()
	return nil
}

func (s *fakeSession) closeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeLauncher struct {
	mu       sync.Mutex
	session  *fakeSession
	err      error
	launches int
	block    chan struct{}
	started  chan struct{}
	panics   string
}

func (l *fakeLauncher) Launch(ctx context.Context) (Session, error) {
	l.mu.Lock()
	l.launches++
	l.mu.Unlock()
	if l.started != nil {
		close(l.started)
	}
	if l.block != nil {
		select {
		case <-l.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if l.panics != "" {
		panic(l.panics)
	}
	if l.err != nil {
		return nil, l.err
	}
	return l.session, nil
}

func (l *fakeLauncher) launchCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.launches
}

type recordingObserver struct {
	mu       sync.Mutex
	states   []State
	partials []string
	failErr  error
}

func (o *recordingObserver) OnState(s State, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.states = append(o.states, s)
	if s == StateFailed {
		o.failErr = err
	}
}

func (o *recordingObserver) OnPartial(text string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.partials = append(o.partials, text)
}

func (o *recordingObserver) count(s State) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, got := range o.states {
		if got == s {
			n++
		}
	}
	return n
}

// outcomeRecorder keeps the outcomes passed to RunFinished.
type outcomeRecorder struct {
	nopRecorder
	mu       sync.Mutex
	outcomes []string
}

func (r *outcomeRecorder) RunFinished(outcome string, _ float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

var errBoom = errors.New("boom")
