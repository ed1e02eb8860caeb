package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tokpromo/tokpromo/internal/auth"
	"github.com/tokpromo/tokpromo/internal/bot"
	"github.com/tokpromo/tokpromo/internal/browser"
	"github.com/tokpromo/tokpromo/internal/campaign"
	"github.com/tokpromo/tokpromo/internal/config"
	"github.com/tokpromo/tokpromo/internal/interact"
	"github.com/tokpromo/tokpromo/internal/notifier"
	"github.com/tokpromo/tokpromo/internal/pacing"
	"github.com/tokpromo/tokpromo/internal/report"
	"github.com/tokpromo/tokpromo/internal/scraper"
	"github.com/tokpromo/tokpromo/internal/store"
	"github.com/tokpromo/tokpromo/internal/types"
)

// Campaign is what one run works through.
type Campaign struct {
	Hashtags   []string
	Comments   []string
	PerHashtag int
}

// App holds the application state.
type App struct {
	mu sync.Mutex // one run at a time

	config    *config.Config
	log       *zap.SugaredLogger
	campaign  Campaign
	auth      *auth.Manager
	pacer     *pacing.Pacer // shared by every run so the comment gap holds across runs
	commented *store.CommentedSet
	history   *store.History // nil when the database could not be opened

	// Manual login prompts go to out and are confirmed on in.
	in  io.Reader
	out io.Writer
}

// New creates a new App instance.
func New(cfg *config.Config, log *zap.SugaredLogger, c Campaign, commented *store.CommentedSet, history *store.History, in io.Reader, out io.Writer) *App {
	pacer := pacing.New(cfg.Campaign.MinCommentGap)
	return &App{
		config:    cfg,
		log:       log,
		campaign:  c,
		auth:      auth.NewManager(auth.NewCookieStore(cfg.Paths.CookiesFile), log, pacer, cfg, in, out),
		pacer:     pacer,
		commented: commented,
		history:   history,
		in:        in,
		out:       out,
	}
}

// IsAuthenticated checks if TikTok session cookies are stored.
func (a *App) IsAuthenticated() bool {
	return a.auth.IsAuthenticated()
}

// Logout clears stored TikTok cookies.
func (a *App) Logout() error {
	return a.auth.Logout()
}

// RunOnce performs the full browser -> login -> campaign -> report flow.
// Only a browser that fails to start, a bad campaign or cancellation is
// returned as an error.
func (a *App) RunOnce(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	picker, err := campaign.NewPicker(a.campaign.Comments)
	if err != nil {
		return err
	}

	session, err := browser.Start(ctx, a.config.Browser, a.log)
	if err != nil {
		a.log.Errorf("Failed to initialize Chrome: %v", err)
		return err
	}
	a.log.Info("Initialized Chrome successfully.")
	defer a.closeBrowser(ctx, session)

	bctx := session.Context()
	clicker := interact.New(session, a.log, a.pacer, a.config.Timing, a.config.Campaign.ClickRetries)

	method, err := a.auth.Login(bctx, session, clicker)
	if err != nil {
		return err
	}

	deps := bot.Deps{
		Page:      session,
		Clicker:   clicker,
		Scraper:   scraper.New(a.log, a.pacer, a.config),
		Commented: a.commented,
		Picker:    picker,
		Pacer:     a.pacer,
		Log:       a.log,
	}
	if a.history != nil {
		deps.History = a.history
	}

	run, runErr := bot.New(deps, a.config).Run(bctx, a.campaign.Hashtags, a.campaign.PerHashtag)
	run.Login = string(method)
	a.log.Infof("Run finished: %d posted, %d skipped, %d failed.",
		run.Count(types.OutcomePosted), run.Count(types.OutcomeSkipped), run.Count(types.OutcomeFailed))

	a.publish(run)
	return runErr
}

// publish saves the run summary and report and mails the report when email
// is configured. Failures are logged.
func (a *App) publish(run *types.RunSummary) {
	dir := a.config.Paths.ReportDir

	if path, err := store.SaveRun(dir, run); err != nil {
		a.log.Errorf("Failed to save run summary: %v", err)
	} else {
		a.log.Infof("Saved run summary to: %s", path)
	}

	builder, err := report.New()
	if err != nil {
		a.log.Errorf("Failed to build report: %v", err)
		return
	}
	r, err := builder.Build(run)
	if err != nil {
		a.log.Errorf("Failed to build report: %v", err)
		return
	}

	if path, err := r.Save(dir); err != nil {
		a.log.Errorf("Failed to save report: %v", err)
	} else {
		a.log.Infof("Report saved to: %s", path)
	}

	if !a.config.Email.Enabled() {
		return
	}
	n, err := notifier.NewFromConfig(a.config.Email)
	if err != nil {
		a.log.Errorf("Failed to set up email: %v", err)
		return
	}
	if err := n.SendReport(r); err != nil {
		a.log.Errorf("Failed to email report: %v", err)
		return
	}
	a.log.Infof("Report emailed to %s", a.config.Email.ToAddr)
}

// closeBrowser leaves the window open for the close delay, then shuts it.
// Cancelling ctx skips the wait.
func (a *App) closeBrowser(ctx context.Context, session *browser.Session) {
	delay := a.config.Browser.CloseDelay
	msg := fmt.Sprintf("Bot execution finished. Closing browser in %s.", humanSeconds(delay))
	a.log.Info(msg)
	fmt.Fprintln(a.out, msg)

	if err := sleep(ctx, delay); err != nil && !errors.Is(err, context.Canceled) {
		a.log.Warnf("Close delay interrupted: %v", err)
	}
	session.Close()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// humanSeconds renders whole-second durations as "10 seconds".
func humanSeconds(d time.Duration) string {
	if d%time.Second != 0 {
		return d.String()
	}
	n := int(d / time.Second)
	if n == 1 {
		return "1 second"
	}
	return fmt.Sprintf("%d seconds", n)
}
