package api

import (
	"context"
	"sync"

	"github.com/ashureev/promptrelay/internal/automation"
)

// fakeRunner replays a fixed run through the observer.
type fakeRunner struct {
	mu       sync.Mutex
	output   string
	err      error
	states   []automation.State
	partials []string
	busy     bool
	prompts  []string
	ctxs     []context.Context
}

func (f *fakeRunner) Run(ctx context.Context, prompt string, obs automation.Observer) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.ctxs = append(f.ctxs, ctx)
	f.mu.Unlock()

	if obs != nil {
		for _, s := range f.states {
			if s == automation.StateAwaitingStability {
				obs.OnState(s, nil)
				for _, p := range f.partials {
					obs.OnPartial(p)
				}
				continue
			}
			if s == automation.StateFailed {
				obs.OnState(s, f.err)
				continue
			}
			obs.OnState(s, nil)
		}
	}
	return f.output, f.err
}

func (f *fakeRunner) Busy() bool { return f.busy }

func (f *fakeRunner) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func (f *fakeRunner) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}
