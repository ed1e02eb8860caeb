// Package interact wraps raw page clicks with popup dismissal and a bounded
// retry for clicks that land on an overlay.
package interact

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/tokpromo/tokpromo/internal/browser"
	"github.com/tokpromo/tokpromo/internal/config"
	"github.com/tokpromo/tokpromo/internal/pacing"
)

// PopupClose matches the close button of TikTok's modal overlays.
const PopupClose = `button[class*="close"]`

// ErrClickFailed is returned when every attempt at a click was intercepted.
var ErrClickFailed = errors.New("interact: click failed after retries")

// Page is the part of a browser tab the interactor drives.
type Page interface {
	WaitVisible(ctx context.Context, sel string, timeout time.Duration) error
	Click(ctx context.Context, sel string) error
}

// Interactor clicks things on a page while keeping popups out of the way.
type Interactor struct {
	page   Page
	log    *zap.SugaredLogger
	pacer  *pacing.Pacer
	timing config.TimingConfig

	retries int
}

// New creates an interactor. retries is the total number of click attempts.
func New(page Page, log *zap.SugaredLogger, pacer *pacing.Pacer, timing config.TimingConfig, retries int) *Interactor {
	if retries < 1 {
		retries = 1
	}
	return &Interactor{
		page:    page,
		log:     log,
		pacer:   pacer,
		timing:  timing,
		retries: retries,
	}
}

// ClosePopups dismisses an overlay if one shows up within the popup timeout.
// It never fails: no popup is the common case and other errors are logged.
func (i *Interactor) ClosePopups(ctx context.Context) {
	err := i.page.WaitVisible(ctx, PopupClose, i.timing.PopupTimeout)
	if errors.Is(err, browser.ErrTimeout) {
		return
	}
	if err == nil {
		err = i.page.Click(ctx, PopupClose)
	}
	if err != nil {
		if ctx.Err() == nil {
			i.log.Errorf("Failed to close a pop-up: %v", err)
		}
		return
	}

	i.log.Info("Closed a pop-up successfully.")
	_ = i.pacer.Pause(ctx, i.timing.AfterPopup)
}

// retryPolicy spaces attempts uniformly across the click-retry range.
func (i *Interactor) retryPolicy(ctx context.Context) backoff.BackOff {
	r := i.timing.ClickRetry
	mid := (r.Min + r.Max) / 2

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = mid
	b.Multiplier = 1
	b.MaxInterval = r.Max
	b.MaxElapsedTime = 0
	if mid > 0 {
		b.RandomizationFactor = float64(r.Max-r.Min) / float64(2*mid)
	} else {
		b.RandomizationFactor = 0
	}

	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(i.retries-1)), ctx)
}

// Click clicks sel, closing popups and retrying while the click is
// intercepted. Any other error ends the attempts at once.
func (i *Interactor) Click(ctx context.Context, sel string) error {
	attempt := 0

	op := func() error {
		attempt++
		err := i.page.Click(ctx, sel)
		if err == nil {
			i.log.Info("Clicked on element successfully.")
			return nil
		}
		if errors.Is(err, browser.ErrClickIntercepted) {
			return err
		}
		return backoff.Permanent(err)
	}

	notify := func(err error, _ time.Duration) {
		i.log.Warnf("Attempt %d - Click intercepted. Retrying...", attempt)
		i.ClosePopups(ctx)
	}

	err := backoff.RetryNotify(op, i.retryPolicy(ctx), notify)
	if err == nil {
		return nil
	}
	if errors.Is(err, browser.ErrClickIntercepted) {
		i.log.Error("Failed to click on element after multiple attempts.")
		return fmt.Errorf("%w: %s: %w", ErrClickFailed, sel, err)
	}
	return err
}
