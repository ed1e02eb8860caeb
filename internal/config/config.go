package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Environment variables that override the account section
const (
	EnvEmail    = "TIKTOK_EMAIL"
	EnvPassword = "TIKTOK_PASSWORD"
)

// Config holds all application configuration
type Config struct {
	Version  int            `toml:"version"`
	Account  AccountConfig  `toml:"account"`
	Campaign CampaignConfig `toml:"campaign"`
	Browser  BrowserConfig  `toml:"browser"`
	Paths    PathsConfig    `toml:"paths"`
	Timing   TimingConfig   `toml:"timing"`
	Schedule ScheduleConfig `toml:"schedule"`
	Email    EmailConfig    `toml:"email"`
}

type AccountConfig struct {
	Email    string `toml:"email"`
	Password string `toml:"password"`
}

type CampaignConfig struct {
	Hashtags           []string      `toml:"hashtags"`
	Comments           []string      `toml:"comments"`
	CommentsPerHashtag int           `toml:"comments_per_hashtag"`
	ScrollPasses       int           `toml:"scroll_passes"`
	ScrollStep         int           `toml:"scroll_step"`
	ClickRetries       int           `toml:"click_retries"`
	MinCommentGap      time.Duration `toml:"min_comment_gap"`
}

type BrowserConfig struct {
	Headless    bool          `toml:"headless"`
	UserDataDir string        `toml:"user_data_dir"`
	UserAgent   string        `toml:"user_agent"`
	CloseDelay  time.Duration `toml:"close_delay"`

	// PageLoadTimeout bounds each navigation and reload.
	PageLoadTimeout time.Duration `toml:"page_load_timeout"`
}

// PathsConfig holds the on-disk artifacts. Relative paths resolve against
// the working directory.
type PathsConfig struct {
	CookiesFile   string `toml:"cookies_file"`
	CommentedFile string `toml:"commented_file"`
	LogFile       string `toml:"log_file"`
	ScreenshotDir string `toml:"screenshot_dir"`
	HistoryDB     string `toml:"history_db"`
	ReportDir     string `toml:"report_dir"`
}

// Range is a closed interval a random pause is drawn from
type Range struct {
	Min time.Duration `toml:"min"`
	Max time.Duration `toml:"max"`
}

type TimingConfig struct {
	AfterCookieLogin Range `toml:"after_cookie_login"`
	AfterLogin       Range `toml:"after_login"`
	BetweenFields    Range `toml:"between_fields"`
	HashtagLoad      Range `toml:"hashtag_load"`
	BetweenScrolls   Range `toml:"between_scrolls"`
	VideoLoad        Range `toml:"video_load"`
	BeforeClick      Range `toml:"before_click"`
	ClickRetry       Range `toml:"click_retry"`
	AfterPopup       Range `toml:"after_popup"`
	Keystroke        Range `toml:"keystroke"`
	AfterComment     Range `toml:"after_comment"`
	BetweenHashtags  Range `toml:"between_hashtags"`

	LoginFormTimeout  time.Duration `toml:"login_form_timeout"`
	LoginRedirect     time.Duration `toml:"login_redirect_timeout"`
	PopupTimeout      time.Duration `toml:"popup_timeout"`
	CommentBoxTimeout time.Duration `toml:"comment_box_timeout"`
}

type ScheduleConfig struct {
	Cron     string `toml:"cron"`
	Timezone string `toml:"timezone"`
}

type EmailConfig struct {
	Provider string `toml:"provider"`
	SMTPHost string `toml:"smtp_host"`
	SMTPPort int    `toml:"smtp_port"`
	SMTPUser string `toml:"smtp_user"`
	SMTPPass string `toml:"smtp_pass"`
	FromAddr string `toml:"from_address"`
	ToAddr   string `toml:"to_address"`
}

// Enabled reports whether run reports should be mailed.
func (e EmailConfig) Enabled() bool {
	return e.SMTPHost != "" && e.ToAddr != ""
}

func span(min, max time.Duration) Range {
	return Range{Min: min, Max: max}
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Version: 1,
		Campaign: CampaignConfig{
			Hashtags:           []string{},
			Comments:           []string{},
			CommentsPerHashtag: 3,
			ScrollPasses:       3,
			ScrollStep:         1000,
			ClickRetries:       3,
			MinCommentGap:      10 * time.Second,
		},
		Browser: BrowserConfig{
			Headless:        false,
			UserDataDir:     "browser_profile",
			CloseDelay:      10 * time.Second,
			PageLoadTimeout: 60 * time.Second,
		},
		Paths: PathsConfig{
			CookiesFile:   "tiktok_cookies.json",
			CommentedFile: "commented_videos.json",
			LogFile:       "tiktok_bot.log",
			ScreenshotDir: ".",
			HistoryDB:     "history.db",
			ReportDir:     "reports",
		},
		Timing: TimingConfig{
			AfterCookieLogin: span(3*time.Second, 6*time.Second),
			AfterLogin:       span(3*time.Second, 5*time.Second),
			BetweenFields:    span(1*time.Second, 2*time.Second),
			HashtagLoad:      span(5*time.Second, 8*time.Second),
			BetweenScrolls:   span(2*time.Second, 4*time.Second),
			VideoLoad:        span(5*time.Second, 7*time.Second),
			BeforeClick:      span(1*time.Second, 2*time.Second),
			ClickRetry:       span(1*time.Second, 2*time.Second),
			AfterPopup:       span(1*time.Second, 2*time.Second),
			Keystroke:        span(30*time.Millisecond, 70*time.Millisecond),
			AfterComment:     span(2*time.Second, 5*time.Second),
			BetweenHashtags:  span(10*time.Second, 15*time.Second),

			LoginFormTimeout:  20 * time.Second,
			LoginRedirect:     30 * time.Second,
			PopupTimeout:      5 * time.Second,
			CommentBoxTimeout: 15 * time.Second,
		},
		Schedule: ScheduleConfig{
			Timezone: "Local",
		},
		Email: EmailConfig{
			Provider: "smtp",
			SMTPPort: 587,
		},
	}
}

// ApplyEnv overrides credentials with values from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvEmail); v != "" {
		c.Account.Email = v
	}
	if v := os.Getenv(EnvPassword); v != "" {
		c.Account.Password = v
	}
}

// ConfigDir returns the platform-appropriate config directory
func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "tokpromo"), nil
}

// ConfigPath returns the full path to the config file
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads config from the default location
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads config from path. Keys missing from the file keep their
// default values.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes config to the default location
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes config to path
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(c)
}
