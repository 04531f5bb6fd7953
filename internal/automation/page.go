// Package automation drives a chat web page: it locates the chat input,
// submits a prompt, and waits for the streamed reply to settle.
package automation

import (
	"context"
	"errors"
	"time"

	"github.com/ashureev/promptrelay/internal/domain"
)

// Key is a keyboard key the submission driver can press.
type Key int

const (
	KeyEnter Key = iota
	KeyBackspace
)

// ErrUnsupported is returned by Element.Clear when the node is not a form
// field (for example a contenteditable div).
var ErrUnsupported = errors.New("operation not supported by element")

// Element is a live DOM node.
type Element interface {
	Visible() (bool, error)
	Enabled() (bool, error)
	Focus() error
	Clear() error
	Input(text string) error
	Press(key Key) error
	Click() error
	Text() (string, error)
}

// Page is the DOM of a single tab.
type Page interface {
	// Navigate opens url and returns when ctx is done at the latest.
	Navigate(ctx context.Context, url string) error
	ReadyState() (string, error)
	// Elements returns every node matching sel in document order.
	Elements(sel domain.Selector) ([]Element, error)
	// SelectAll sends the platform select-all chord to the focused node.
	SelectAll() error
}

// Session is a launched browser bound to one profile.
type Session interface {
	Page() Page
	Close() error
}

// Launcher starts browser sessions.
type Launcher interface {
	Launch(ctx context.Context) (Session, error)
}

// Predicate decides whether a located node can be used.
type Predicate func(Element) bool

// Usable holds when the node is visible and enabled.
func Usable(el Element) bool {
	visible, err := el.Visible()
	if err != nil || !visible {
		return false
	}
	enabled, err := el.Enabled()
	return err == nil && enabled
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
