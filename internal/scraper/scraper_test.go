package scraper

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tokpromo/tokpromo/internal/config"
	"github.com/tokpromo/tokpromo/internal/pacing"
)

type fakePage struct {
	navigated []string
	scrolls   []int
	links     []string
	linksErr  error
}

func (f *fakePage) Navigate(ctx context.Context, url string) error {
	f.navigated = append(f.navigated, url)
	return nil
}

func (f *fakePage) ScrollBy(ctx context.Context, dy int) error {
	f.scrolls = append(f.scrolls, dy)
	return nil
}

func (f *fakePage) Links(ctx context.Context, sel string) ([]string, error) {
	if sel != VideoLink {
		return nil, errors.New("unexpected selector " + sel)
	}
	return f.links, f.linksErr
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Timing = config.TimingConfig{}
	return cfg
}

func TestHashtagVideos(t *testing.T) {
	page := &fakePage{links: []string{
		"https://www.tiktok.com/@a/video/1",
		"https://www.tiktok.com/@b/video/2",
		"https://www.tiktok.com/@a/video/1",
		"",
		"https://www.tiktok.com/@c/video/3",
	}}
	s := New(zaptest.NewLogger(t).Sugar(), pacing.New(0), testConfig())

	videos, err := s.HashtagVideos(context.Background(), page, "golang")
	require.NoError(t, err)

	assert.Equal(t, []string{"https://www.tiktok.com/tag/golang"}, page.navigated)
	assert.Equal(t, []int{1000, 1000, 1000}, page.scrolls)
	assert.Equal(t, []string{
		"https://www.tiktok.com/@a/video/1",
		"https://www.tiktok.com/@b/video/2",
		"https://www.tiktok.com/@c/video/3",
	}, videos)
}

func TestHashtagVideosLinkError(t *testing.T) {
	page := &fakePage{linksErr: errors.New("evaluate failed")}
	s := New(zaptest.NewLogger(t).Sugar(), pacing.New(0), testConfig())

	_, err := s.HashtagVideos(context.Background(), page, "golang")
	assert.Error(t, err)
}

func TestHashtagURLEscapes(t *testing.T) {
	assert.Equal(t, "https://www.tiktok.com/tag/open%20source", HashtagURL("open source"))
	assert.Equal(t, "https://www.tiktok.com/tag/devops", HashtagURL("devops"))
}
