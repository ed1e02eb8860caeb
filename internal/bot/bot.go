// Package bot runs a comment campaign: for each hashtag it collects videos
// and posts one comment on each video that was not commented before.
package bot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/tokpromo/tokpromo/internal/browser"
	"github.com/tokpromo/tokpromo/internal/campaign"
	"github.com/tokpromo/tokpromo/internal/config"
	"github.com/tokpromo/tokpromo/internal/interact"
	"github.com/tokpromo/tokpromo/internal/pacing"
	"github.com/tokpromo/tokpromo/internal/scraper"
	"github.com/tokpromo/tokpromo/internal/store"
	"github.com/tokpromo/tokpromo/internal/types"
)

// Screenshot kinds, used in file names and attempt reasons.
const (
	ShotClickFailed      = "click_failed"
	ShotTimeout          = "timeout_error"
	ShotClickIntercepted = "click_intercepted_error"
	ShotGeneral          = "general_error"
)

// ReasonAlreadyCommented marks videos skipped by the dedup set.
const ReasonAlreadyCommented = "already commented"

// Page is the part of a browser tab the bot drives.
type Page interface {
	scraper.Page
	WaitPresent(ctx context.Context, sel string, timeout time.Duration) error
	ScrollIntoView(ctx context.Context, sel string) error
	SendKeys(ctx context.Context, sel, keys string) error
	PressEnter(ctx context.Context, sel string) error
	Screenshot(ctx context.Context) ([]byte, error)
}

// Clicker clicks with popup handling and retries.
type Clicker interface {
	ClosePopups(ctx context.Context)
	Click(ctx context.Context, sel string) error
}

// Recorder keeps an audit trail of attempts.
type Recorder interface {
	Record(a types.Attempt) error
}

// Deps groups what a Bot needs.
type Deps struct {
	Page      Page
	Clicker   Clicker
	Scraper   *scraper.Scraper
	Commented *store.CommentedSet
	Picker    *campaign.Picker
	Pacer     *pacing.Pacer
	History   Recorder // optional
	Log       *zap.SugaredLogger
}

// Bot posts comments on hashtag videos
type Bot struct {
	Deps
	timing        config.TimingConfig
	screenshotDir string
	now           func() time.Time
}

// New creates a bot
func New(d Deps, cfg *config.Config) *Bot {
	return &Bot{
		Deps:          d,
		timing:        cfg.Timing,
		screenshotDir: cfg.Paths.ScreenshotDir,
		now:           time.Now,
	}
}

// Run processes hashtags in order, attempting up to perHashtag videos each.
// Per-video failures are logged and recorded; the returned error is only
// ever the context's.
func (b *Bot) Run(ctx context.Context, hashtags []string, perHashtag int) (*types.RunSummary, error) {
	run := &types.RunSummary{StartedAt: b.now()}
	defer func() { run.FinishedAt = b.now() }()

	for i, tag := range hashtags {
		result := b.processHashtag(ctx, tag, perHashtag)
		run.Hashtags = append(run.Hashtags, result)

		if err := ctx.Err(); err != nil {
			return run, err
		}
		if i == len(hashtags)-1 {
			break
		}
		if err := b.Pacer.Pause(ctx, b.timing.BetweenHashtags); err != nil {
			return run, err
		}
	}

	return run, nil
}

func (b *Bot) processHashtag(ctx context.Context, tag string, perHashtag int) types.HashtagResult {
	b.Log.Infof("Processing hashtag: #%s", tag)
	result := types.HashtagResult{Hashtag: tag}

	videos, err := b.Scraper.HashtagVideos(ctx, b.Page, tag)
	if err != nil {
		if ctx.Err() == nil {
			b.Log.Errorf("Failed to collect videos for #%s: %v", tag, err)
		}
		result.Error = err.Error()
		return result
	}
	result.VideosFound = len(videos)

	attempted := 0
	for _, url := range videos {
		if attempted >= perHashtag || ctx.Err() != nil {
			break
		}

		if b.Commented.Has(url) {
			b.Log.Infof("Already commented on %s. Skipping...", url)
			b.record(&result, types.Attempt{
				VideoURL: url,
				Hashtag:  tag,
				Outcome:  types.OutcomeSkipped,
				Reason:   ReasonAlreadyCommented,
			})
			continue
		}

		attempted++
		b.record(&result, b.commentOn(ctx, tag, url))
	}

	return result
}

// commentOn posts one comment on the video at url.
func (b *Bot) commentOn(ctx context.Context, tag, url string) types.Attempt {
	a := types.Attempt{VideoURL: url, Hashtag: tag}

	comment, err := b.postComment(ctx, url)
	a.Comment = comment
	if err == nil {
		a.Outcome = types.OutcomePosted
		return a
	}

	a.Outcome = types.OutcomeFailed
	if ctx.Err() != nil {
		a.Reason = ctx.Err().Error()
		return a
	}

	kind := classify(err)
	switch kind {
	case ShotClickFailed:
		b.Log.Errorf("Failed to click on comment box for %s. Skipping...", url)
	case ShotTimeout:
		b.Log.Errorf("Timeout while trying to comment on %s.", url)
	case ShotClickIntercepted:
		b.Log.Errorf("Element click intercepted while trying to comment on %s.", url)
	default:
		b.Log.Errorf("Failed to comment on %s: %v", url, err)
	}
	a.Reason = kind + ": " + err.Error()
	a.Screenshot = b.captureScreenshot(ctx, kind)
	return a
}

func (b *Bot) postComment(ctx context.Context, url string) (string, error) {
	if err := b.Page.Navigate(ctx, url); err != nil {
		return "", err
	}
	if err := b.Pacer.Pause(ctx, b.timing.VideoLoad); err != nil {
		return "", err
	}

	b.Clicker.ClosePopups(ctx)

	if err := b.Page.WaitPresent(ctx, scraper.CommentBox, b.timing.CommentBoxTimeout); err != nil {
		return "", err
	}
	if err := b.Page.ScrollIntoView(ctx, scraper.CommentBox); err != nil {
		return "", err
	}
	if err := b.Pacer.Pause(ctx, b.timing.BeforeClick); err != nil {
		return "", err
	}
	// At most one comment per min_comment_gap.
	if err := b.Pacer.Throttle(ctx); err != nil {
		return "", err
	}

	if err := b.Clicker.Click(ctx, scraper.CommentBox); err != nil {
		return "", err
	}

	comment := b.Picker.Pick()
	b.Log.Infof("Selected comment: %s", comment)

	for _, r := range comment {
		if err := b.Page.SendKeys(ctx, scraper.CommentBox, string(r)); err != nil {
			return comment, fmt.Errorf("type comment: %w", err)
		}
		if err := b.Pacer.Pause(ctx, b.timing.Keystroke); err != nil {
			return comment, err
		}
	}

	if err := b.Page.PressEnter(ctx, scraper.CommentBox); err != nil {
		return comment, fmt.Errorf("submit comment: %w", err)
	}
	b.Log.Infof("Posted comment on %s", url)

	// Save failures are logged by the set; the URL stays deduped in memory.
	_ = b.Commented.Add(url)

	// The comment is already posted; a cancelled pause only means shutdown.
	_ = b.Pacer.Pause(ctx, b.timing.AfterComment)
	return comment, nil
}

func (b *Bot) record(result *types.HashtagResult, a types.Attempt) {
	a.At = b.now()
	result.Attempts = append(result.Attempts, a)

	if b.History == nil {
		return
	}
	if err := b.History.Record(a); err != nil {
		b.Log.Warnf("Failed to record attempt for %s: %v", a.VideoURL, err)
	}
}

// classify maps a failure to the screenshot kind used for it.
func classify(err error) string {
	switch {
	case errors.Is(err, interact.ErrClickFailed):
		return ShotClickFailed
	case errors.Is(err, browser.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return ShotTimeout
	case errors.Is(err, browser.ErrClickIntercepted):
		return ShotClickIntercepted
	default:
		return ShotGeneral
	}
}

// captureScreenshot saves the viewport and returns the file path, or "" if
// the capture failed.
func (b *Bot) captureScreenshot(ctx context.Context, kind string) string {
	name := fmt.Sprintf("screenshot_%s_%s.png", kind, b.now().Format("20060102-150405"))
	path := filepath.Join(b.screenshotDir, name)

	buf, err := b.Page.Screenshot(ctx)
	if err == nil && b.screenshotDir != "" {
		err = os.MkdirAll(b.screenshotDir, 0755)
	}
	if err == nil {
		err = os.WriteFile(path, buf, 0644)
	}
	if err != nil {
		b.Log.Errorf("Failed to capture screenshot: %v", err)
		return ""
	}

	b.Log.Infof("Captured screenshot: %s", path)
	return path
}
