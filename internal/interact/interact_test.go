package interact

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tokpromo/tokpromo/internal/browser"
	"github.com/tokpromo/tokpromo/internal/config"
	"github.com/tokpromo/tokpromo/internal/pacing"
)

// fakePage scripts the results of clicks per selector.
type fakePage struct {
	clickErrs  map[string][]error
	clicks     []string
	popupShown bool
	waitErr    error
}

func (f *fakePage) WaitVisible(ctx context.Context, sel string, timeout time.Duration) error {
	if f.waitErr != nil {
		return f.waitErr
	}
	if sel == PopupClose && !f.popupShown {
		return fmt.Errorf("%w: %s", browser.ErrTimeout, sel)
	}
	return nil
}

func (f *fakePage) Click(ctx context.Context, sel string) error {
	f.clicks = append(f.clicks, sel)
	if sel == PopupClose {
		f.popupShown = false
		return nil
	}
	errs := f.clickErrs[sel]
	if len(errs) == 0 {
		return nil
	}
	err := errs[0]
	f.clickErrs[sel] = errs[1:]
	return err
}

func newTestInteractor(t *testing.T, page Page, retries int) *Interactor {
	timing := config.TimingConfig{PopupTimeout: time.Millisecond}
	return New(page, zaptest.NewLogger(t).Sugar(), pacing.New(0), timing, retries)
}

func intercepted() error {
	return fmt.Errorf("%w: target", browser.ErrClickIntercepted)
}

func TestClickSucceedsFirstTry(t *testing.T) {
	page := &fakePage{clickErrs: map[string][]error{}}
	in := newTestInteractor(t, page, 3)

	require.NoError(t, in.Click(context.Background(), "#target"))
	assert.Equal(t, []string{"#target"}, page.clicks)
}

func TestClickRetriesInterceptedAndClosesPopups(t *testing.T) {
	page := &fakePage{
		clickErrs:  map[string][]error{"#target": {intercepted(), intercepted()}},
		popupShown: true,
	}
	in := newTestInteractor(t, page, 3)

	require.NoError(t, in.Click(context.Background(), "#target"))
	assert.Equal(t, []string{"#target", PopupClose, "#target", "#target"}, page.clicks)
}

func TestClickGivesUpAfterRetries(t *testing.T) {
	page := &fakePage{clickErrs: map[string][]error{
		"#target": {intercepted(), intercepted(), intercepted(), intercepted()},
	}}
	in := newTestInteractor(t, page, 3)

	err := in.Click(context.Background(), "#target")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrClickFailed)
	assert.ErrorIs(t, err, browser.ErrClickIntercepted)
	assert.Len(t, page.clicks, 3)
}

func TestClickOtherErrorsAreNotRetried(t *testing.T) {
	boom := errors.New("node detached")
	page := &fakePage{clickErrs: map[string][]error{"#target": {boom}}}
	in := newTestInteractor(t, page, 3)

	err := in.Click(context.Background(), "#target")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrClickFailed)
	assert.Len(t, page.clicks, 1)
}

func TestClosePopupsWithoutPopup(t *testing.T) {
	page := &fakePage{}
	newTestInteractor(t, page, 3).ClosePopups(context.Background())
	assert.Empty(t, page.clicks)
}

func TestClosePopupsLogsOtherErrors(t *testing.T) {
	page := &fakePage{waitErr: errors.New("target crashed")}
	newTestInteractor(t, page, 3).ClosePopups(context.Background())
	assert.Empty(t, page.clicks)
}

func TestClosePopupsClicksClose(t *testing.T) {
	page := &fakePage{popupShown: true}
	newTestInteractor(t, page, 3).ClosePopups(context.Background())
	assert.Equal(t, []string{PopupClose}, page.clicks)
}
