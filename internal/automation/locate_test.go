package automation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashureev/promptrelay/internal/domain"
)

func TestLocateFallsBackToThirdSelector(t *testing.T) {
	page := newFakePage()
	page.errs["textarea"] = errBoom
	page.add("textarea[placeholder*='Message']", &fakeElement{hidden: true}, &fakeElement{disabled: true})
	want := &fakeElement{}
	page.add("div[contenteditable='true']", want)

	strategy := domain.Strategy{
		domain.CSS("textarea"),
		domain.CSS("textarea[placeholder*='Message']"),
		domain.CSS("div[contenteditable='true']"),
	}

	got, err := Locate(context.Background(), page, strategy, Usable, time.Second, time.Millisecond)
	require.NoError(t, err)
	assert.Same(t, want, got.Element)
	assert.Equal(t, "div[contenteditable='true']", got.Selector.Pattern)
}

func TestLocatePrefersEarlierSelector(t *testing.T) {
	page := newFakePage()
	first := &fakeElement{}
	page.add("textarea", first)
	page.add("[role='textbox']", &fakeElement{})

	got, err := Locate(context.Background(), page,
		domain.Strategy{domain.CSS("textarea"), domain.CSS("[role='textbox']")},
		Usable, time.Second, time.Millisecond)
	require.NoError(t, err)
	assert.Same(t, first, got.Element)
}

func TestLocateTimesOutWithLastError(t *testing.T) {
	page := newFakePage()
	page.errs["bad["] = errBoom

	timeout := 30 * time.Millisecond
	start := time.Now()
	_, err := Locate(context.Background(), page, domain.Strategy{domain.CSS("bad["), domain.CSS("textarea")},
		Usable, timeout, 5*time.Millisecond)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLocate)
	assert.ErrorIs(t, err, errBoom)
	assert.GreaterOrEqual(t, time.Since(start), timeout)
	assert.Greater(t, page.queries, 2, "expected several sweeps before giving up")
}

func TestLocateFindsLateRenderedInput(t *testing.T) {
	page := newFakePage()
	el := &fakeElement{}
	go func() {
		time.Sleep(15 * time.Millisecond)
		page.add("textarea", el)
	}()

	got, err := Locate(context.Background(), page, domain.Strategy{domain.CSS("textarea")}, Usable, time.Second, 2*time.Millisecond)
	require.NoError(t, err)
	assert.Same(t, el, got.Element)
}
