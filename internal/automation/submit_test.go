package automation

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashureev/promptrelay/internal/domain"
)

func testSubmitConfig() SubmitConfig {
	return SubmitConfig{
		SendButtons: domain.Strategy{
			domain.CSS("button[type='submit']"),
			domain.CSS("button[aria-label*='Send']"),
		},
		Messages:         domain.Strategy{domain.CSS(".message")},
		ExtractMinLength: 10,
	}
}

func TestSubmitTypesPromptAndPressesEnter(t *testing.T) {
	page := newFakePage()
	el := &fakeElement{value: "stale draft"}

	out, err := Submit(context.Background(), page, el, "hello there", testSubmitConfig(), slog.Default())
	require.NoError(t, err)
	assert.True(t, out.EnterPressed)
	assert.False(t, out.ClearFallback)
	assert.Equal(t, "hello there", el.Value())
	assert.Equal(t, []Key{KeyEnter}, el.pressed)
	assert.Zero(t, page.selectAllCalls)
}

func TestSubmitClearsEditableRegionWithKeyFallback(t *testing.T) {
	page := newFakePage()
	el := &fakeElement{editable: true, value: "old text"}

	out, err := Submit(context.Background(), page, el, "new prompt", testSubmitConfig(), slog.Default())
	require.NoError(t, err)
	assert.True(t, out.ClearFallback)
	assert.Equal(t, 1, page.selectAllCalls)
	assert.Equal(t, []Key{KeyBackspace, KeyEnter}, el.pressed)
	assert.Equal(t, "new prompt", el.Value())
}

func TestSubmitInputFailureIsFatal(t *testing.T) {
	page := newFakePage()
	el := &fakeElement{inputErr: errBoom}

	_, err := Submit(context.Background(), page, el, "hello", testSubmitConfig(), slog.Default())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSubmit)
	assert.ErrorIs(t, err, errBoom)
	assert.Empty(t, el.pressed, "enter must not be pressed after a failed insert")
}

func TestConfirmSkipsClickWhenReplyVisible(t *testing.T) {
	page := newFakePage()
	page.add(".message", &fakeElement{text: "reply already streaming in"})
	btn := &fakeElement{}
	page.add("button[type='submit']", btn)

	out, err := Confirm(context.Background(), page, SubmitOutcome{EnterPressed: true}, testSubmitConfig(), slog.Default())
	require.NoError(t, err)
	assert.True(t, out.ReplyVisible)
	assert.False(t, out.FallbackClicked)
	assert.Zero(t, btn.clicks)
}

func TestConfirmClicksFirstUsableButton(t *testing.T) {
	page := newFakePage()
	disabled := &fakeElement{disabled: true}
	page.add("button[type='submit']", disabled)
	send := &fakeElement{}
	page.add("button[aria-label*='Send']", send)

	out, err := Confirm(context.Background(), page, SubmitOutcome{EnterPressed: true}, testSubmitConfig(), slog.Default())
	require.NoError(t, err)
	assert.True(t, out.FallbackClicked)
	assert.Equal(t, "css:button[aria-label*='Send']", out.FallbackButton)
	assert.Zero(t, disabled.clicks)
	assert.Equal(t, 1, send.clicks)
}

func TestConfirmClickFailureIsNotFatal(t *testing.T) {
	page := newFakePage()
	page.add("button[type='submit']", &fakeElement{clickErr: errBoom})

	out, err := Confirm(context.Background(), page, SubmitOutcome{EnterPressed: true}, testSubmitConfig(), slog.Default())
	require.NoError(t, err)
	assert.False(t, out.FallbackClicked)
}

func TestConfirmFailsWhenNothingSubmitted(t *testing.T) {
	page := newFakePage()
	el := &fakeElement{enterErr: errBoom}

	out, err := Submit(context.Background(), page, el, "hello", testSubmitConfig(), slog.Default())
	require.NoError(t, err)
	assert.False(t, out.EnterPressed)

	_, err = Confirm(context.Background(), page, out, testSubmitConfig(), slog.Default())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSubmit)
	assert.ErrorIs(t, err, errBoom)
}
