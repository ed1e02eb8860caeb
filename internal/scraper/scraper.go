package scraper

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tokpromo/tokpromo/internal/config"
	"github.com/tokpromo/tokpromo/internal/pacing"
)

// Page is the part of a browser tab the scraper reads from.
type Page interface {
	Navigate(ctx context.Context, url string) error
	ScrollBy(ctx context.Context, dy int) error
	Links(ctx context.Context, sel string) ([]string, error)
}

// Scraper collects video links from hashtag pages
type Scraper struct {
	log    *zap.SugaredLogger
	pacer  *pacing.Pacer
	timing config.TimingConfig

	scrollPasses int
	scrollStep   int
}

// New creates a new scraper
func New(log *zap.SugaredLogger, pacer *pacing.Pacer, cfg *config.Config) *Scraper {
	return &Scraper{
		log:          log,
		pacer:        pacer,
		timing:       cfg.Timing,
		scrollPasses: cfg.Campaign.ScrollPasses,
		scrollStep:   cfg.Campaign.ScrollStep,
	}
}

// HashtagVideos opens the page for tag, scrolls to load more videos and
// returns the unique video URLs in the order they appear.
func (s *Scraper) HashtagVideos(ctx context.Context, page Page, tag string) ([]string, error) {
	if err := page.Navigate(ctx, HashtagURL(tag)); err != nil {
		return nil, err
	}
	if err := s.pacer.Pause(ctx, s.timing.HashtagLoad); err != nil {
		return nil, err
	}

	// Scroll to load enough videos
	for i := 0; i < s.scrollPasses; i++ {
		if err := page.ScrollBy(ctx, s.scrollStep); err != nil {
			return nil, fmt.Errorf("scroll: %w", err)
		}
		if err := s.pacer.Pause(ctx, s.timing.BetweenScrolls); err != nil {
			return nil, err
		}
	}

	hrefs, err := page.Links(ctx, VideoLink)
	if err != nil {
		return nil, err
	}

	videos := uniqueInOrder(hrefs)
	s.log.Infof("Found %d videos for #%s.", len(videos), tag)
	return videos, nil
}

// uniqueInOrder drops repeated entries, keeping first occurrences.
func uniqueInOrder(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it == "" || seen[it] {
			continue
		}
		seen[it] = true
		out = append(out, it)
	}
	return out
}
