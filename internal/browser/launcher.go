// Package browser launches Chromium against a persistent profile with go-rod
// and exposes its DOM through the automation interfaces.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"

	"github.com/ashureev/promptrelay/internal/automation"
	"github.com/ashureev/promptrelay/internal/domain"
)

const defaultActionTimeout = 10 * time.Second

// Options configures the launched browser.
type Options struct {
	Bin          string // empty lets rod find or download a browser
	UserDataDir  string
	ProfileName  string
	Visible      bool
	WindowWidth  int
	WindowHeight int
	// SelectAllModifier is "control" or "meta".
	SelectAllModifier string
	ActionTimeout     time.Duration
}

// Launcher starts one browser process per session.
type Launcher struct {
	opts Options
	log  *slog.Logger
}

// NewLauncher creates a Launcher.
func NewLauncher(opts Options, log *slog.Logger) *Launcher {
	if log == nil {
		log = slog.Default()
	}
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = defaultActionTimeout
	}
	return &Launcher{opts: opts, log: log}
}

var _ automation.Launcher = (*Launcher)(nil)

func (l *Launcher) command(ctx context.Context) *launcher.Launcher {
	ln := launcher.New().
		Context(ctx).
		Headless(!l.opts.Visible).
		Set("disable-gpu").
		Set("no-first-run").
		Set("no-default-browser-check").
		Set("window-size", fmt.Sprintf("%d,%d", l.opts.WindowWidth, l.opts.WindowHeight))
	if l.opts.Bin != "" {
		ln = ln.Bin(l.opts.Bin)
	}
	if l.opts.UserDataDir != "" {
		ln = ln.Set(flags.UserDataDir, l.opts.UserDataDir)
	}
	if l.opts.ProfileName != "" {
		ln = ln.Set(flags.ProfileDir, l.opts.ProfileName)
	}
	return ln
}

// Launch starts the browser, connects over CDP and opens a blank tab.
// A partially started browser is killed before Launch returns an error.
func (l *Launcher) Launch(ctx context.Context) (automation.Session, error) {
	ln := l.command(ctx)

	controlURL, err := ln.Launch()
	if err != nil {
		return nil, launchError(err)
	}
	l.log.Info("Browser launched", "pid", ln.PID(), "profile", l.opts.ProfileName, "visible", l.opts.Visible)

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		ln.Kill()
		return nil, domain.NewError(domain.KindLaunch, "launch", "could not connect to browser", err)
	}

	page, err := b.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = b.Close()
		ln.Kill()
		return nil, domain.NewError(domain.KindLaunch, "launch", "could not open a tab", err)
	}

	return &Session{
		browser:  b,
		launcher: ln,
		page: &Page{
			page:     page.Context(ctx),
			ctx:      ctx,
			timeout:  l.opts.ActionTimeout,
			modifier: modifierKey(l.opts.SelectAllModifier),
		},
		log: l.log,
	}, nil
}

// launchError explains the common profile-lock failure.
func launchError(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "SingletonLock") || strings.Contains(msg, "ProcessSingleton") {
		return domain.NewError(domain.KindLaunch, "launch",
			"browser profile is in use by another browser process, close it and retry", err)
	}
	return domain.NewError(domain.KindLaunch, "launch", "browser could not start", err)
}

func modifierKey(name string) input.Key {
	if strings.EqualFold(strings.TrimSpace(name), "meta") {
		return input.MetaLeft
	}
	return input.ControlLeft
}

// Session owns one browser process.
type Session struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	page     *Page
	log      *slog.Logger
}

var _ automation.Session = (*Session)(nil)

// Page returns the session's tab.
func (s *Session) Page() automation.Page {
	return s.page
}

// Close shuts the browser down and kills the process.
// The user data directory is the caller's real profile and is left on disk,
// so launcher.Cleanup is never used here.
func (s *Session) Close() error {
	err := s.browser.Close()
	s.launcher.Kill()
	if err != nil {
		return fmt.Errorf("close browser: %w", err)
	}
	s.log.Info("Browser closed")
	return nil
}
