package automation

import (
	"context"
	"fmt"
	"time"

	"github.com/ashureev/promptrelay/internal/domain"
)

// Located is the result of a successful Locate.
type Located struct {
	Element  Element
	Selector domain.Selector
}

// Sweep runs one pass over the strategy and returns the first node for which
// usable holds. Query failures are skipped and returned as lastErr.
func Sweep(page Page, strategy domain.Strategy, usable Predicate) (found *Located, lastErr error) {
	for _, sel := range strategy {
		els, err := page.Elements(sel)
		if err != nil {
			lastErr = fmt.Errorf("query %s: %w", sel, err)
			continue
		}
		for _, el := range els {
			if usable(el) {
				return &Located{Element: el, Selector: sel}, lastErr
			}
		}
	}
	return nil, lastErr
}

// Locate polls the page until a usable node matches one of the selectors or
// timeout elapses.
func Locate(ctx context.Context, page Page, strategy domain.Strategy, usable Predicate, timeout, interval time.Duration) (*Located, error) {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for {
		found, err := Sweep(page, strategy, usable)
		if err != nil {
			lastErr = err
		}
		if found != nil {
			return found, nil
		}
		if !time.Now().Before(deadline) {
			break
		}
		if err := sleep(ctx, min(interval, time.Until(deadline))); err != nil {
			return nil, domain.NewError(domain.KindLocate, "locate_input", "locate aborted", err)
		}
	}
	return nil, domain.NewError(domain.KindLocate, "locate_input", "could not find chat input, update selectors", lastErr)
}
