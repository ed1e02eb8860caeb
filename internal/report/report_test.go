package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokpromo/tokpromo/internal/types"
)

func sampleRun(start time.Time) *types.RunSummary {
	return &types.RunSummary{
		StartedAt:  start,
		FinishedAt: start.Add(90 * time.Second),
		Login:      "cookies",
		Hashtags: []types.HashtagResult{
			{
				Hashtag:     "golang",
				VideosFound: 12,
				Attempts: []types.Attempt{
					{VideoURL: "https://www.tiktok.com/@a/video/1", Outcome: types.OutcomePosted, Comment: "Nice <b>work</b>"},
					{VideoURL: "https://www.tiktok.com/@b/video/2", Outcome: types.OutcomeSkipped, Reason: "already commented"},
					{VideoURL: "https://www.tiktok.com/@c/video/3", Outcome: types.OutcomeFailed, Reason: "timeout_error: comment box"},
				},
			},
			{Hashtag: "devops", Error: "navigate: net::ERR_NAME_NOT_RESOLVED"},
		},
	}
}

func TestBuild(t *testing.T) {
	b, err := New()
	require.NoError(t, err)

	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	r, err := b.Build(sampleRun(start))
	require.NoError(t, err)

	assert.Equal(t, "TikTok campaign - 1 posted, 1 failed, May 1 09:00", r.Subject)
	assert.Contains(t, r.HTMLBody, "#golang")
	assert.Contains(t, r.HTMLBody, "login: cookies")
	assert.Contains(t, r.HTMLBody, "Nice &lt;b&gt;work&lt;/b&gt;", "comment text is escaped")
	assert.Contains(t, r.HTMLBody, "ERR_NAME_NOT_RESOLVED")

	assert.Contains(t, r.PlainBody, "Posted: 1  Skipped: 1  Failed: 1")
	assert.Contains(t, r.PlainBody, "[failed] https://www.tiktok.com/@c/video/3")
	assert.Contains(t, r.PlainBody, "1m30s")
}

func TestBuildNil(t *testing.T) {
	b, err := New()
	require.NoError(t, err)
	_, err = b.Build(nil)
	assert.Error(t, err)
}

func TestSaveAndLatest(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	b, err := New()
	require.NoError(t, err)

	_, err = Latest(dir)
	assert.Error(t, err)

	first, err := b.Build(sampleRun(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	second, err := b.Build(sampleRun(time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	_, err = second.Save(dir)
	require.NoError(t, err)
	_, err = first.Save(dir)
	require.NoError(t, err)

	latest, err := Latest(dir)
	require.NoError(t, err)
	assert.Equal(t, "report_2024-05-02_09-00-00.html", filepath.Base(latest))

	data, err := os.ReadFile(latest)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "<!DOCTYPE html>"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
