package automation

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/ashureev/promptrelay/internal/domain"
)

// StabilityConfig bounds the reply stability wait.
type StabilityConfig struct {
	Timeout       time.Duration
	Interval      time.Duration
	RequiredPolls int
	MinLength     int
}

// StableReply is the outcome of WaitStable.
type StableReply struct {
	Text  string
	Polls int
}

// WaitStable polls read until the same non-empty reading has repeated
// RequiredPolls times in a row and is at least MinLength long.
//
// onChange, when set, is called with every new non-empty reading.
func WaitStable(ctx context.Context, cfg StabilityConfig, read func() string, onChange func(string)) (StableReply, error) {
	deadline := time.Now().Add(cfg.Timeout)

	var (
		last        string
		stableCount int
		polls       int
		sawText     bool
	)
	for {
		current := read()
		polls++

		if current != "" && current == last {
			stableCount++
		} else {
			stableCount = 0
			last = current
			if current != "" {
				sawText = true
				if onChange != nil {
					onChange(current)
				}
			}
		}

		if stableCount >= cfg.RequiredPolls && utf8.RuneCountInString(last) >= cfg.MinLength {
			return StableReply{Text: last, Polls: polls}, nil
		}

		if !time.Now().Before(deadline) {
			break
		}
		if err := sleep(ctx, cfg.Interval); err != nil {
			return StableReply{Polls: polls}, domain.NewError(domain.KindTimeout, "await_stability", "wait for response aborted", err)
		}
	}

	if !sawText {
		return StableReply{Polls: polls}, domain.NewError(domain.KindExtractionEmpty, "await_stability",
			"no output extracted, update message selectors", nil)
	}
	return StableReply{Polls: polls}, domain.NewError(domain.KindTimeout, "await_stability",
		"timed out waiting for response, try increasing timeout or adjust selectors", nil)
}
