// Command tpctl is a dev CLI for tokpromo maintenance and debugging tasks.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/chromedp/chromedp"
	"github.com/pkg/browser"
	"go.uber.org/zap"

	"github.com/tokpromo/tokpromo/internal/app"
	chrome "github.com/tokpromo/tokpromo/internal/browser"
	"github.com/tokpromo/tokpromo/internal/config"
	"github.com/tokpromo/tokpromo/internal/logger"
	"github.com/tokpromo/tokpromo/internal/report"
	"github.com/tokpromo/tokpromo/internal/store"
	"github.com/tokpromo/tokpromo/internal/types"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		cfg = config.Default()
	}

	switch os.Args[1] {
	case "bot-test":
		runBotTest(cfg)
	case "open":
		if len(os.Args) < 3 {
			fmt.Println("Usage: tpctl open <config|log|reports|report>")
			os.Exit(1)
		}
		runOpen(cfg, os.Args[2])
	case "stats":
		runStats(cfg)
	case "last":
		runLast(cfg)
	case "logout":
		runLogout(cfg)
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: tpctl <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  bot-test       Open bot.sannysoft.com to audit browser fingerprint")
	fmt.Println("  open config    Open config file in default editor")
	fmt.Println("  open log       Open the bot log file")
	fmt.Println("  open reports   Open the reports directory in file explorer")
	fmt.Println("  open report    Open the most recent run report")
	fmt.Println("  stats          Show comment history totals and recent attempts")
	fmt.Println("  last           Summarize the most recent run")
	fmt.Println("  logout         Delete the stored TikTok cookies")
}

func runBotTest(cfg *config.Config) {
	log.Println("Opening bot.sannysoft.com with stealth browser options...")

	bcfg := cfg.Browser
	bcfg.Headless = false // non-headless so you can see it

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), chrome.Options(bcfg)...)
	defer cancel()

	ctx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	go func() {
		err := chromedp.Run(ctx,
			chromedp.Navigate("https://bot.sannysoft.com"),
		)
		if err != nil {
			log.Printf("Failed to navigate: %v", err)
		}
	}()

	fmt.Println("Press Enter to end program...")
	fmt.Scanln()

	log.Println("Done.")
}

func runOpen(cfg *config.Config, target string) {
	var path string
	var err error

	switch target {
	case "config":
		path, err = config.ConfigPath()
	case "log":
		path, err = filepath.Abs(cfg.Paths.LogFile)
	case "reports":
		path, err = filepath.Abs(cfg.Paths.ReportDir)
	case "report":
		path, err = report.Latest(cfg.Paths.ReportDir)
	default:
		fmt.Printf("Unknown target: %s\n", target)
		os.Exit(1)
	}

	if err != nil {
		log.Fatalf("Failed to get path: %v", err)
	}

	if err := browser.OpenFile(path); err != nil {
		log.Fatalf("Failed to open: %v", err)
	}
}

// newApp builds an App for maintenance commands that never start a run.
func newApp(cfg *config.Config, log *zap.SugaredLogger) *app.App {
	return app.New(cfg, log, app.Campaign{}, nil, nil, os.Stdin, os.Stdout)
}

func runStats(cfg *config.Config) {
	loggedIn := "no"
	if newApp(cfg, zap.NewNop().Sugar()).IsAuthenticated() {
		loggedIn = "yes"
	}
	fmt.Printf("Stored login cookies: %s\n", loggedIn)

	commented := store.LoadCommented(zap.NewNop().Sugar(), cfg.Paths.CommentedFile)
	fmt.Printf("Videos commented on: %d\n", commented.Len())

	h, err := store.OpenHistory(cfg.Paths.HistoryDB)
	if err != nil {
		log.Fatalf("Failed to open history: %v", err)
	}
	defer h.Close()

	stats, err := h.Stats()
	if err != nil {
		log.Fatalf("Failed to read history: %v", err)
	}
	fmt.Printf("Attempts: %d posted, %d skipped, %d failed\n",
		stats[types.OutcomePosted], stats[types.OutcomeSkipped], stats[types.OutcomeFailed])

	recent, err := h.Recent(10)
	if err != nil {
		log.Fatalf("Failed to read history: %v", err)
	}
	if len(recent) == 0 {
		return
	}
	fmt.Println()
	fmt.Println("Recent attempts:")
	for _, a := range recent {
		fmt.Printf("  %s  %-7s  #%-12s %s\n", a.At.Local().Format("2006-01-02 15:04"), a.Outcome, a.Hashtag, a.VideoURL)
	}
}

func runLast(cfg *config.Config) {
	run, path, err := store.LoadLatestRun(cfg.Paths.ReportDir)
	if err != nil {
		log.Fatalf("No run found: %v", err)
	}

	fmt.Printf("Run from %s (%s)\n", run.StartedAt.Local().Format("2006-01-02 15:04"), path)
	if run.Login != "" {
		fmt.Printf("Login: %s\n", run.Login)
	}
	for _, h := range run.Hashtags {
		fmt.Printf("  #%-16s %3d found", h.Hashtag, h.VideosFound)
		if h.Error != "" {
			fmt.Printf("  error: %s", h.Error)
		}
		fmt.Println()
	}
	fmt.Printf("Posted %d, skipped %d, failed %d\n",
		run.Count(types.OutcomePosted), run.Count(types.OutcomeSkipped), run.Count(types.OutcomeFailed))
}

func runLogout(cfg *config.Config) {
	l := logger.NewWithWriters(logger.ParseLevel("info"), os.Stdout)
	if err := newApp(cfg, l).Logout(); err != nil {
		os.Exit(1)
	}
}
