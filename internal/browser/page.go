package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"

	"github.com/ashureev/promptrelay/internal/automation"
	"github.com/ashureev/promptrelay/internal/domain"
)

// clearFormField empties an input or textarea and reports whether it could.
const clearFormField = `() => {
	if (!(this instanceof HTMLInputElement || this instanceof HTMLTextAreaElement)) {
		return false;
	}
	this.value = '';
	this.dispatchEvent(new Event('input', { bubbles: true }));
	return true;
}`

const readyStateJS = `() => document.readyState`

// Page adapts a rod page to automation.Page.
type Page struct {
	page     *rod.Page
	ctx      context.Context
	timeout  time.Duration
	modifier input.Key
}

var _ automation.Page = (*Page)(nil)

// scoped returns the page bound to a fresh per-action timeout.
func (p *Page) scoped() (*rod.Page, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(p.ctx, p.timeout)
	return p.page.Context(ctx), cancel
}

// Navigate opens url in the tab. ctx bounds the whole navigation.
func (p *Page) Navigate(ctx context.Context, url string) error {
	return p.page.Context(ctx).Navigate(url)
}

// ReadyState returns document.readyState.
func (p *Page) ReadyState() (string, error) {
	page, cancel := p.scoped()
	defer cancel()
	res, err := page.Eval(readyStateJS)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

// Elements queries the live DOM without waiting.
func (p *Page) Elements(sel domain.Selector) ([]automation.Element, error) {
	page, cancel := p.scoped()
	defer cancel()

	var (
		found rod.Elements
		err   error
	)
	switch sel.Method {
	case domain.MethodCSS, "":
		found, err = page.Elements(sel.Pattern)
	case domain.MethodXPath:
		found, err = page.ElementsX(sel.Pattern)
	default:
		return nil, fmt.Errorf("unsupported selector method %q", sel.Method)
	}
	if err != nil {
		return nil, err
	}

	out := make([]automation.Element, 0, len(found))
	for _, el := range found {
		out = append(out, &Element{el: el, page: p})
	}
	return out, nil
}

// SelectAll presses the select-all chord on the focused node.
func (p *Page) SelectAll() error {
	page, cancel := p.scoped()
	defer cancel()
	return page.KeyActions().Press(p.modifier).Type(input.KeyA).Do()
}

// Element adapts a rod element to automation.Element.
type Element struct {
	el   *rod.Element
	page *Page
}

var _ automation.Element = (*Element)(nil)

func (e *Element) scoped() (*rod.Element, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(e.page.ctx, e.page.timeout)
	return e.el.Context(ctx), cancel
}

// Visible reports whether the node is rendered.
func (e *Element) Visible() (bool, error) {
	el, cancel := e.scoped()
	defer cancel()
	return el.Visible()
}

// Enabled reports whether the node lacks the disabled property.
func (e *Element) Enabled() (bool, error) {
	el, cancel := e.scoped()
	defer cancel()
	disabled, err := el.Property("disabled")
	if err != nil {
		return false, err
	}
	return !disabled.Bool(), nil
}

// Focus clicks the node, falling back to a programmatic focus.
func (e *Element) Focus() error {
	el, cancel := e.scoped()
	defer cancel()
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return el.Focus()
	}
	return nil
}

// Clear empties form fields; other nodes return automation.ErrUnsupported.
func (e *Element) Clear() error {
	el, cancel := e.scoped()
	defer cancel()
	res, err := el.Eval(clearFormField)
	if err != nil {
		return err
	}
	if !res.Value.Bool() {
		return automation.ErrUnsupported
	}
	return nil
}

// Input types text into the node.
func (e *Element) Input(text string) error {
	el, cancel := e.scoped()
	defer cancel()
	return el.Input(text)
}

// Press sends a single key to the focused node.
func (e *Element) Press(key automation.Key) error {
	page, cancel := e.page.scoped()
	defer cancel()
	switch key {
	case automation.KeyEnter:
		return page.Keyboard.Type(input.Enter)
	case automation.KeyBackspace:
		return page.Keyboard.Type(input.Backspace)
	default:
		return fmt.Errorf("unsupported key %d", key)
	}
}

// Click performs a left click.
func (e *Element) Click() error {
	el, cancel := e.scoped()
	defer cancel()
	return el.Click(proto.InputMouseButtonLeft, 1)
}

// Text returns the rendered text of the node.
func (e *Element) Text() (string, error) {
	el, cancel := e.scoped()
	defer cancel()
	return el.Text()
}
