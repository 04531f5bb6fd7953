package automation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ashureev/promptrelay/internal/domain"
)

// SubmitConfig controls the submission driver.
type SubmitConfig struct {
	FocusSettle      time.Duration
	Grace            time.Duration
	SendButtons      domain.Strategy
	Messages         domain.Strategy
	ExtractMinLength int
}

// SubmitOutcome records which mechanisms were used to submit the prompt.
type SubmitOutcome struct {
	ClearFallback   bool
	EnterPressed    bool
	ReplyVisible    bool
	FallbackClicked bool
	FallbackButton  string
	enterErr        error
}

// Submit focuses el, clears it, types text and presses Enter.
// A failed Enter is not fatal here; Confirm decides whether anything took.
func Submit(ctx context.Context, page Page, el Element, text string, cfg SubmitConfig, log *slog.Logger) (SubmitOutcome, error) {
	var out SubmitOutcome

	if err := el.Focus(); err != nil {
		return out, domain.NewError(domain.KindSubmit, "focus", "could not focus chat input", err)
	}
	if err := sleep(ctx, cfg.FocusSettle); err != nil {
		return out, domain.NewError(domain.KindSubmit, "focus", "aborted", err)
	}

	if err := el.Clear(); err != nil {
		log.Debug("Direct clear failed, using select-all fallback", "error", err)
		out.ClearFallback = true
		if err := page.SelectAll(); err != nil {
			return out, domain.NewError(domain.KindSubmit, "clear", "select-all failed", err)
		}
		if err := el.Press(KeyBackspace); err != nil {
			return out, domain.NewError(domain.KindSubmit, "clear", "delete after select-all failed", err)
		}
	}

	if err := el.Input(text); err != nil {
		return out, domain.NewError(domain.KindSubmit, "insert_text", "could not type prompt", err)
	}

	if err := el.Press(KeyEnter); err != nil {
		log.Warn("Enter key press failed", "error", err)
		out.enterErr = err
	} else {
		out.EnterPressed = true
	}
	return out, nil
}

// Confirm waits the grace period and, when no reply is visible yet, clicks
// the first usable send button. The click is best effort.
func Confirm(ctx context.Context, page Page, out SubmitOutcome, cfg SubmitConfig, log *slog.Logger) (SubmitOutcome, error) {
	if err := sleep(ctx, cfg.Grace); err != nil {
		return out, domain.NewError(domain.KindSubmit, "confirm_submission", "aborted", err)
	}

	if ExtractLatest(page, cfg.Messages, cfg.ExtractMinLength) != "" {
		out.ReplyVisible = true
		return out, nil
	}

	found, lastErr := Sweep(page, cfg.SendButtons, Usable)
	if found == nil {
		log.Info("No reply yet and no send button found", "last_error", lastErr)
		return out, enterOnlyResult(out)
	}
	if err := found.Element.Click(); err != nil {
		log.Warn("Fallback send click failed", "selector", found.Selector.String(), "error", err)
		return out, enterOnlyResult(out)
	}
	out.FallbackClicked = true
	out.FallbackButton = found.Selector.String()
	log.Info("Clicked fallback send button", "selector", out.FallbackButton)
	return out, nil
}

// enterOnlyResult fails only when Enter also failed, so no submission
// mechanism could have worked.
func enterOnlyResult(out SubmitOutcome) error {
	if out.EnterPressed {
		return nil
	}
	cause := out.enterErr
	if cause == nil {
		cause = errors.New("enter not pressed")
	}
	return domain.NewError(domain.KindSubmit, "confirm_submission", "no submission mechanism succeeded", cause)
}
