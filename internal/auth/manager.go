package auth

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"go.uber.org/zap"

	"github.com/tokpromo/tokpromo/internal/config"
	"github.com/tokpromo/tokpromo/internal/pacing"
	"github.com/tokpromo/tokpromo/internal/scraper"
)

// Page is the part of a browser tab the login flow drives.
type Page interface {
	Navigate(ctx context.Context, url string) error
	Reload(ctx context.Context) error
	Location(ctx context.Context) (string, error)
	WaitPresent(ctx context.Context, sel string, timeout time.Duration) error
	WaitURLChange(ctx context.Context, from string, timeout time.Duration) (string, error)
	SetValue(ctx context.Context, sel, value string) error
	Cookies(ctx context.Context) ([]*network.Cookie, error)
	SetCookies(ctx context.Context, cookies []*network.Cookie) error
}

// Clicker clicks with popup handling and retries.
type Clicker interface {
	Click(ctx context.Context, sel string) error
}

// Method says how a session was established.
type Method string

const (
	MethodCookies     Method = "cookies"
	MethodCredentials Method = "credentials"
	MethodManual      Method = "manual"
)

// Manager handles TikTok authentication
type Manager struct {
	cookieStore *CookieStore
	log         *zap.SugaredLogger
	pacer       *pacing.Pacer
	timing      config.TimingConfig
	account     config.AccountConfig

	// Manual login instructions are written to out and confirmed on in.
	in  io.Reader
	out io.Writer
}

// NewManager creates a new auth manager
func NewManager(cookieStore *CookieStore, log *zap.SugaredLogger, pacer *pacing.Pacer, cfg *config.Config, in io.Reader, out io.Writer) *Manager {
	return &Manager{
		cookieStore: cookieStore,
		log:         log,
		pacer:       pacer,
		timing:      cfg.Timing,
		account:     cfg.Account,
		in:          in,
		out:         out,
	}
}

// IsAuthenticated checks if we have valid stored credentials
func (m *Manager) IsAuthenticated() bool {
	return m.cookieStore.IsValid()
}

// Logout clears stored credentials
func (m *Manager) Logout() error {
	m.log.Info("Logout triggered - clearing stored cookies")
	if err := m.cookieStore.Clear(); err != nil {
		m.log.Errorf("Logout failed: %v", err)
		return err
	}
	m.log.Infof("Logout successful - cleared %s", m.cookieStore.Path())
	return nil
}

func onLoginPage(url string) bool {
	return strings.Contains(strings.ToLower(url), "login")
}

// Login signs the browser in. Stored cookies are tried first, then the
// account credentials. If both fail the user is asked to finish the login by
// hand. Only context cancellation is returned as an error.
func (m *Manager) Login(ctx context.Context, page Page, clicker Clicker) (Method, error) {
	if err := page.Navigate(ctx, scraper.LoginURL); err != nil {
		m.log.Errorf("Failed to open login page: %v", err)
	}

	if ok := m.loginWithCookies(ctx, page); ok {
		m.log.Info("Logged in using cookies.")
		return MethodCookies, nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	err := m.loginWithCredentials(ctx, page, clicker)
	if err == nil {
		m.log.Info("Logged in successfully.")
		m.saveCookies(ctx, page)
		return MethodCredentials, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}
	m.log.Errorf("An error occurred during login: %v", err)

	if err := m.waitForManualLogin(); err != nil {
		return "", err
	}
	m.saveCookies(ctx, page)
	m.log.Info("Cookies saved after manual login.")
	return MethodManual, nil
}

// loginWithCookies injects the stored jar and checks whether the login page
// redirects away.
func (m *Manager) loginWithCookies(ctx context.Context, page Page) bool {
	stored, err := m.cookieStore.Load()
	switch {
	case errors.Is(err, ErrNoCookies):
		m.log.Info("No cookies found. Proceeding with manual login.")
		return false
	case errors.Is(err, ErrInvalidCookies):
		m.log.Error("Cookies file contains invalid JSON. Deleting the file and skipping cookies loading.")
		return false
	case err != nil:
		m.log.Errorf("An unexpected error occurred while loading cookies: %v", err)
		return false
	}

	if err := page.SetCookies(ctx, prepareForInjection(stored.Cookies)); err != nil {
		m.log.Errorf("An unexpected error occurred while loading cookies: %v", err)
		return false
	}
	m.log.Info("Cookies loaded successfully.")

	if err := page.Reload(ctx); err != nil {
		m.log.Errorf("Failed to reload after loading cookies: %v", err)
		return false
	}
	if err := m.pacer.Pause(ctx, m.timing.AfterCookieLogin); err != nil {
		return false
	}

	url, err := page.Location(ctx)
	if err != nil || onLoginPage(url) {
		m.log.Warn("Cookies expired or invalid. Proceeding with manual login.")
		return false
	}
	return true
}

// loginWithCredentials fills in the email/password form.
func (m *Manager) loginWithCredentials(ctx context.Context, page Page, clicker Clicker) error {
	if m.account.Email == "" || m.account.Password == "" {
		return errors.New("no account credentials configured")
	}

	if err := page.WaitPresent(ctx, scraper.LoginEmailInput, m.timing.LoginFormTimeout); err != nil {
		return fmt.Errorf("login form: %w", err)
	}

	if err := page.SetValue(ctx, scraper.LoginEmailInput, m.account.Email); err != nil {
		return fmt.Errorf("enter email: %w", err)
	}
	m.log.Info("Entered email.")
	if err := m.pacer.Pause(ctx, m.timing.BetweenFields); err != nil {
		return err
	}

	if err := page.SetValue(ctx, scraper.LoginPasswordInput, m.account.Password); err != nil {
		return fmt.Errorf("enter password: %w", err)
	}
	m.log.Info("Entered password.")
	if err := m.pacer.Pause(ctx, m.timing.BetweenFields); err != nil {
		return err
	}

	before, err := page.Location(ctx)
	if err != nil {
		before = scraper.LoginURL
	}

	if err := clicker.Click(ctx, scraper.LoginSubmitButton); err != nil {
		return fmt.Errorf("failed to click login button: %w", err)
	}

	if _, err := page.WaitURLChange(ctx, before, m.timing.LoginRedirect); err != nil {
		return fmt.Errorf("login redirect: %w", err)
	}
	if err := m.pacer.Pause(ctx, m.timing.AfterLogin); err != nil {
		return err
	}

	url, err := page.Location(ctx)
	if err != nil {
		return err
	}
	if onLoginPage(url) {
		m.log.Warn("Login may not have been successful. Proceeding with manual login.")
		return errors.New("login did not redirect as expected")
	}
	return nil
}

// waitForManualLogin blocks until the user presses Enter.
func (m *Manager) waitForManualLogin() error {
	fmt.Fprintln(m.out, "Please complete the login manually in the opened browser window.")
	fmt.Fprint(m.out, "Press Enter after completing login manually...")

	_, err := bufio.NewReader(m.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read confirmation: %w", err)
	}
	return nil
}

// saveCookies captures the browser cookies into the jar. Failures are logged.
func (m *Manager) saveCookies(ctx context.Context, page Page) {
	cookies, err := page.Cookies(ctx)
	if err != nil {
		m.log.Errorf("Failed to save cookies: %v", err)
		return
	}
	if err := m.cookieStore.Save(cookies); err != nil {
		m.log.Errorf("Failed to save cookies: %v", err)
		return
	}
	m.log.Info("Cookies have been saved successfully.")
}
