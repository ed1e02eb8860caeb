package browser

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"go.uber.org/zap"

	"github.com/tokpromo/tokpromo/internal/config"
)

var (
	// ErrTimeout is returned when a wait gives up before its condition holds.
	ErrTimeout = errors.New("browser: timed out")
	// ErrClickIntercepted is returned when another element covers the click target.
	ErrClickIntercepted = errors.New("browser: click intercepted")
	// ErrNotFound is returned when a selector matches nothing.
	ErrNotFound = errors.New("browser: element not found")
)

// DefaultActionTimeout bounds single actions such as a click or a keystroke.
const DefaultActionTimeout = 30 * time.Second

// DefaultPageLoadTimeout bounds a navigation or reload.
const DefaultPageLoadTimeout = 60 * time.Second

// Session owns one Chrome process with a single tab. Methods take the
// context returned by Context (or one derived from it).
type Session struct {
	ctx           context.Context
	cancel        context.CancelFunc
	allocCancel   context.CancelFunc
	ActionTimeout time.Duration

	// PageLoadTimeout bounds Navigate and Reload.
	PageLoadTimeout time.Duration
}

// Start launches Chrome. A failure here means the bot cannot run at all.
func Start(parent context.Context, cfg config.BrowserConfig, log *zap.SugaredLogger) (*Session, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, Options(cfg)...)

	browserCtx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(log.Debugf),
		chromedp.WithErrorf(log.Debugf),
	)

	// The first Run with no actions starts the browser
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start chrome: %w", err)
	}

	return newSession(browserCtx, cancel, allocCancel, cfg), nil
}

func newSession(ctx context.Context, cancel, allocCancel context.CancelFunc, cfg config.BrowserConfig) *Session {
	pageLoad := cfg.PageLoadTimeout
	if pageLoad <= 0 {
		pageLoad = DefaultPageLoadTimeout
	}
	return &Session{
		ctx:             ctx,
		cancel:          cancel,
		allocCancel:     allocCancel,
		ActionTimeout:   DefaultActionTimeout,
		PageLoadTimeout: pageLoad,
	}
}

// Context returns the context bound to the session's tab.
func (s *Session) Context() context.Context {
	return s.ctx
}

// Close shuts the tab and the browser process down.
func (s *Session) Close() {
	s.cancel()
	s.allocCancel()
}

// withTimeout runs actions under a deadline, reporting expiry as ErrTimeout.
func (s *Session) withTimeout(ctx context.Context, timeout time.Duration, what string, actions ...chromedp.Action) error {
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := chromedp.Run(tctx, actions...)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("%w after %s: %s", ErrTimeout, timeout, what)
	}
	return err
}

// Navigate loads url in the tab
func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := s.withTimeout(ctx, s.PageLoadTimeout, url, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

// Reload reloads the current page
func (s *Session) Reload(ctx context.Context) error {
	return s.withTimeout(ctx, s.PageLoadTimeout, "reload", chromedp.Reload())
}

// Location returns the current page URL
func (s *Session) Location(ctx context.Context) (string, error) {
	var url string
	err := chromedp.Run(ctx, chromedp.Location(&url))
	return url, err
}

// WaitPresent waits until sel is in the DOM
func (s *Session) WaitPresent(ctx context.Context, sel string, timeout time.Duration) error {
	return s.withTimeout(ctx, timeout, sel, chromedp.WaitReady(sel, chromedp.ByQuery))
}

// WaitVisible waits until sel is in the DOM and visible
func (s *Session) WaitVisible(ctx context.Context, sel string, timeout time.Duration) error {
	return s.withTimeout(ctx, timeout, sel, chromedp.WaitVisible(sel, chromedp.ByQuery))
}

// WaitURLChange polls the location until it differs from from.
// Returns the new URL.
func (s *Session) WaitURLChange(ctx context.Context, from string, timeout time.Duration) (string, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-deadline.C:
			return "", fmt.Errorf("%w after %s waiting for URL to leave %s", ErrTimeout, timeout, from)
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
			url, err := s.Location(ctx)
			if err != nil {
				continue
			}
			if url != from {
				return url, nil
			}
		}
	}
}

// hitTestJS scrolls the first element matching the selector to the centre
// of the viewport and reports whether a click there would reach it:
// "ok", "covered", "offscreen" or "missing".
const hitTestJS = `(function(sel) {
	const el = document.querySelector(sel);
	if (!el) return "missing";
	el.scrollIntoView({block: 'center', inline: 'center'});
	const r = el.getBoundingClientRect();
	const x = r.left + r.width / 2, y = r.top + r.height / 2;
	if (x < 0 || y < 0 || x >= window.innerWidth || y >= window.innerHeight) return "offscreen";
	const top = document.elementFromPoint(x, y);
	if (top === null) return "offscreen";
	return (top === el || el.contains(top)) ? "ok" : "covered";
})(%s)`

// hitTestError maps a hit test status to the error Click reports. Targets
// that stay outside the viewport are left to chromedp, which scrolls itself.
func hitTestError(status, sel string) error {
	switch status {
	case "ok", "offscreen":
		return nil
	case "missing":
		return fmt.Errorf("%w: %s", ErrNotFound, sel)
	case "covered":
		return fmt.Errorf("%w: %s", ErrClickIntercepted, sel)
	default:
		return fmt.Errorf("hit test %s: unexpected status %q", sel, status)
	}
}

// Click clicks the first element matching sel. It returns ErrClickIntercepted
// when an overlay sits on top of the target.
func (s *Session) Click(ctx context.Context, sel string) error {
	var status string
	err := s.withTimeout(ctx, s.ActionTimeout, sel,
		chromedp.Evaluate(fmt.Sprintf(hitTestJS, strconv.Quote(sel)), &status),
	)
	if err != nil {
		return fmt.Errorf("hit test %s: %w", sel, err)
	}
	if err := hitTestError(status, sel); err != nil {
		return err
	}

	return s.withTimeout(ctx, s.ActionTimeout, sel,
		chromedp.Click(sel, chromedp.ByQuery, chromedp.NodeVisible),
	)
}

// ScrollBy scrolls the window vertically by dy pixels
func (s *Session) ScrollBy(ctx context.Context, dy int) error {
	return chromedp.Run(ctx,
		chromedp.Evaluate(fmt.Sprintf(`window.scrollBy(0, %d);`, dy), nil),
	)
}

// ScrollIntoView centres the first element matching sel in the viewport
func (s *Session) ScrollIntoView(ctx context.Context, sel string) error {
	js := fmt.Sprintf(`(function(sel) {
		const el = document.querySelector(sel);
		if (!el) return false;
		el.scrollIntoView({behavior: 'smooth', block: 'center'});
		return true;
	})(%s)`, strconv.Quote(sel))

	var found bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(js, &found)); err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrNotFound, sel)
	}
	return nil
}

// SendKeys types keys into the element matching sel
func (s *Session) SendKeys(ctx context.Context, sel, keys string) error {
	return s.withTimeout(ctx, s.ActionTimeout, sel,
		chromedp.SendKeys(sel, keys, chromedp.ByQuery),
	)
}

// PressEnter sends the Enter key to the element matching sel
func (s *Session) PressEnter(ctx context.Context, sel string) error {
	return s.SendKeys(ctx, sel, kb.Enter)
}

// SetValue clears an input and types value into it
func (s *Session) SetValue(ctx context.Context, sel, value string) error {
	return s.withTimeout(ctx, s.ActionTimeout, sel,
		chromedp.Clear(sel, chromedp.ByQuery),
		chromedp.SendKeys(sel, value, chromedp.ByQuery),
	)
}

// Links returns the resolved href of every element matching sel
func (s *Session) Links(ctx context.Context, sel string) ([]string, error) {
	js := fmt.Sprintf(`Array.from(document.querySelectorAll(%s))
		.map(a => a.href)
		.filter(h => typeof h === 'string' && h.length > 0)`, strconv.Quote(sel))

	var hrefs []string
	if err := chromedp.Run(ctx, chromedp.Evaluate(js, &hrefs)); err != nil {
		return nil, fmt.Errorf("failed to extract links from DOM: %w", err)
	}
	return hrefs, nil
}

// Screenshot captures the visible viewport as PNG
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := chromedp.Run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, err
	}
	return buf, nil
}

// Cookies gets all cookies from the browser
func (s *Session) Cookies(ctx context.Context) ([]*network.Cookie, error) {
	var cookies []*network.Cookie

	err := chromedp.Run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			cookies, err = storage.GetCookies().Do(ctx)
			return err
		}),
	)

	return cookies, err
}

// SetCookies sets cookies in the browser context
func (s *Session) SetCookies(ctx context.Context, cookies []*network.Cookie) error {
	return chromedp.Run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			for _, c := range cookies {
				params := network.SetCookie(c.Name, c.Value).
					WithDomain(c.Domain).
					WithPath(c.Path).
					WithSecure(c.Secure).
					WithHTTPOnly(c.HTTPOnly)

				if c.SameSite != "" {
					params = params.WithSameSite(c.SameSite)
				}
				if !c.Session && c.Expires > 0 {
					exp := cdp.TimeSinceEpoch(time.Unix(int64(c.Expires), 0))
					params = params.WithExpires(&exp)
				}

				if err := params.Do(ctx); err != nil {
					return fmt.Errorf("set cookie %q: %w", c.Name, err)
				}
			}
			return nil
		}),
	)
}
