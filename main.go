package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/tokpromo/tokpromo/internal/app"
	"github.com/tokpromo/tokpromo/internal/campaign"
	"github.com/tokpromo/tokpromo/internal/config"
	"github.com/tokpromo/tokpromo/internal/logger"
	"github.com/tokpromo/tokpromo/internal/scheduler"
	"github.com/tokpromo/tokpromo/internal/store"
)

func main() {
	hashtagsFile := flag.String("hashtags", "", "Path to a file containing hashtags, one per line")
	perHashtag := flag.Int("comments", 0, "Number of comments to post per hashtag (0 keeps the config value, 3 unless changed)")
	configPath := flag.String("config", "", "Path to the TOML config file")
	headless := flag.Bool("headless", false, "Run Chrome without a window")
	schedule := flag.String("schedule", "", `Run on a cron schedule, e.g. "0 */6 * * *"`)
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	runNow := flag.Bool("run-now", false, "With --schedule, also run once right away")
	flag.Parse()

	// A missing .env is fine; credentials may come from the config file
	_ = godotenv.Load()

	cfg, cfgMsg := loadConfig(*configPath)
	cfg.ApplyEnv()
	if *headless {
		cfg.Browser.Headless = true
	}
	if *schedule != "" {
		cfg.Schedule.Cron = *schedule
	}
	commentsMsg := applyPerHashtag(cfg, *perHashtag, flagSet("comments"))

	log, closeLog, err := logger.New(cfg.Paths.LogFile, logger.ParseLevel(*logLevel))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open log file: %v\n", err)
		log = logger.NewWithWriters(logger.ParseLevel(*logLevel), os.Stdout)
		closeLog = log.Sync
	}
	if cfgMsg != "" {
		log.Info(cfgMsg)
	}
	if commentsMsg != "" {
		log.Warn(commentsMsg)
	}

	code := run(log, cfg, *hashtagsFile, *runNow)
	_ = closeLog()
	os.Exit(code)
}

func flagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// applyPerHashtag applies a --comments value. Values below one are ignored
// and the returned warning says which count is used instead.
func applyPerHashtag(cfg *config.Config, n int, set bool) string {
	if n > 0 {
		cfg.Campaign.CommentsPerHashtag = n
		return ""
	}
	if !set {
		return ""
	}
	return fmt.Sprintf("Ignoring --comments %d: it must be at least 1 (using %d from config)", n, cfg.Campaign.CommentsPerHashtag)
}

// loadConfig reads the config from path, or from the default location when
// path is empty. A missing default config is created on first run.
func loadConfig(path string) (*config.Config, string) {
	if path != "" {
		cfg, err := config.LoadFile(path)
		if err != nil {
			return config.Default(), fmt.Sprintf("Warning: could not load config %s: %v (using defaults)", path, err)
		}
		return cfg, ""
	}

	cfg, err := config.Load()
	if err == nil {
		return cfg, ""
	}
	if !errors.Is(err, os.ErrNotExist) {
		return config.Default(), fmt.Sprintf("Warning: could not load config: %v (using defaults)", err)
	}

	// First run - create default config
	cfg = config.Default()
	if err := cfg.Save(); err != nil {
		return cfg, fmt.Sprintf("Warning: could not save default config: %v", err)
	}
	p, _ := config.ConfigPath()
	return cfg, fmt.Sprintf("Created default config at: %s", p)
}

func run(log *zap.SugaredLogger, cfg *config.Config, hashtagsFile string, runNow bool) int {
	defaults := campaign.DefaultHashtags
	if len(cfg.Campaign.Hashtags) > 0 {
		defaults = cfg.Campaign.Hashtags
	}
	comments := campaign.DefaultComments
	if len(cfg.Campaign.Comments) > 0 {
		comments = cfg.Campaign.Comments
	}

	c := app.Campaign{
		Hashtags:   campaign.LoadHashtags(log, hashtagsFile, defaults),
		Comments:   comments,
		PerHashtag: cfg.Campaign.CommentsPerHashtag,
	}

	commented := store.LoadCommented(log, cfg.Paths.CommentedFile)

	history, err := store.OpenHistory(cfg.Paths.HistoryDB)
	if err != nil {
		log.Warnf("Comment history disabled: %v", err)
	} else {
		defer history.Close()
	}

	a := app.New(cfg, log, c, commented, history, os.Stdin, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Schedule.Cron == "" {
		if err := a.RunOnce(ctx); err != nil && ctx.Err() == nil {
			log.Errorf("An unexpected error occurred: %v", err)
			return 1
		}
		return 0
	}

	s, err := scheduler.New(cfg.Schedule.Timezone, log)
	if err != nil {
		log.Errorf("Invalid schedule: %v", err)
		return 1
	}
	if err := s.AddJob("campaign", cfg.Schedule.Cron, a.RunOnce); err != nil {
		log.Errorf("Invalid schedule: %v", err)
		return 1
	}
	s.Start()
	for _, j := range s.ListJobs() {
		log.Infof("Next %s run at %s", j.Name, j.NextRun.Format("2006-01-02 15:04"))
	}
	immediate := make(chan struct{})
	go func() {
		defer close(immediate)
		if !runNow {
			return
		}
		if err := s.RunNow("campaign"); err != nil {
			log.Errorf("Immediate run failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down...")
	<-s.Stop().Done()
	<-immediate
	return 0
}
