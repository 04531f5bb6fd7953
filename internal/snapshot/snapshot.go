// Package snapshot serves a static HTML document through the automation Page
// interface so selector strategies can be checked without a browser.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/ashureev/promptrelay/internal/automation"
	"github.com/ashureev/promptrelay/internal/domain"
)

// ErrReadOnly is returned by every mutating call on a snapshot.
var ErrReadOnly = errors.New("snapshot is read-only")

// Page is a parsed HTML document.
type Page struct {
	doc *goquery.Document
}

var _ automation.Page = (*Page)(nil)

// Parse reads an HTML document.
func Parse(r io.Reader) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Page{doc: doc}, nil
}

// ParseString is Parse for an in-memory document.
func ParseString(html string) (*Page, error) {
	return Parse(strings.NewReader(html))
}

// Navigate is not supported on a snapshot.
func (p *Page) Navigate(context.Context, string) error { return ErrReadOnly }

// ReadyState is always "complete".
func (p *Page) ReadyState() (string, error) { return "complete", nil }

// SelectAll is not supported on a snapshot.
func (p *Page) SelectAll() error { return ErrReadOnly }

// Elements returns css matches in document order. XPath is not supported.
func (p *Page) Elements(sel domain.Selector) ([]automation.Element, error) {
	if sel.Method != domain.MethodCSS && sel.Method != "" {
		return nil, fmt.Errorf("snapshot supports css selectors only, got %s", sel.Method)
	}
	// goquery matches nothing for a malformed selector; surface it instead.
	if _, err := cascadia.Compile(sel.Pattern); err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", sel.Pattern, err)
	}
	var els []automation.Element
	p.doc.Find(sel.Pattern).Each(func(_ int, s *goquery.Selection) {
		els = append(els, &Element{sel: s})
	})
	return els, nil
}

// Element is one node of a snapshot.
type Element struct {
	sel *goquery.Selection
}

var _ automation.Element = (*Element)(nil)

// Visible is false when the node or an ancestor is hidden by attribute or
// inline style.
func (e *Element) Visible() (bool, error) {
	for s := e.sel; s.Length() > 0; s = s.Parent() {
		if hidden(s) {
			return false, nil
		}
	}
	return true, nil
}

func hidden(s *goquery.Selection) bool {
	if _, ok := s.Attr("hidden"); ok {
		return true
	}
	if v, _ := s.Attr("aria-hidden"); v == "true" {
		return true
	}
	if t, _ := s.Attr("type"); goquery.NodeName(s) == "input" && strings.EqualFold(t, "hidden") {
		return true
	}
	style, _ := s.Attr("style")
	style = strings.ReplaceAll(strings.ToLower(style), " ", "")
	return strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden")
}

// Enabled is false when the node carries a disabled attribute.
func (e *Element) Enabled() (bool, error) {
	_, disabled := e.sel.Attr("disabled")
	return !disabled, nil
}

// Text returns the node's text content.
func (e *Element) Text() (string, error) {
	return e.sel.Text(), nil
}

func (e *Element) Focus() error               { return ErrReadOnly }
func (e *Element) Clear() error               { return ErrReadOnly }
func (e *Element) Input(string) error         { return ErrReadOnly }
func (e *Element) Press(automation.Key) error { return ErrReadOnly }
func (e *Element) Click() error               { return ErrReadOnly }

// Inspection is what the configured strategies find in a snapshot.
type Inspection struct {
	InputSelector *domain.Selector `json:"input_selector"`
	SendSelector  *domain.Selector `json:"send_selector"`
	Output        string           `json:"output"`
	Errors        []string         `json:"errors,omitempty"`
}

// Inspect runs one locator sweep for the input and send button and the reply
// extractor over the page.
func Inspect(p *Page, input, send, messages domain.Strategy, minLen int) Inspection {
	var out Inspection
	if found, err := automation.Sweep(p, input, automation.Usable); found != nil {
		sel := found.Selector
		out.InputSelector = &sel
	} else if err != nil {
		out.Errors = append(out.Errors, err.Error())
	}
	if found, err := automation.Sweep(p, send, automation.Usable); found != nil {
		sel := found.Selector
		out.SendSelector = &sel
	} else if err != nil {
		out.Errors = append(out.Errors, err.Error())
	}
	out.Output = automation.ExtractLatest(p, messages, minLen)
	return out
}
