package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tokpromo/tokpromo/internal/types"
)

func TestLoadCommentedMissingFile(t *testing.T) {
	s := LoadCommented(zaptest.NewLogger(t).Sugar(), filepath.Join(t.TempDir(), "commented.json"))
	assert.Zero(t, s.Len())
	assert.False(t, s.Has("https://www.tiktok.com/@a/video/1"))
}

func TestLoadCommentedMalformedIsEmpty(t *testing.T) {
	for name, body := range map[string]string{
		"truncated": `["https://www.tiktok.com/@a/video/1"`,
		"object":    `{"url": "x"}`,
		"garbage":   "not json at all",
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "commented.json")
			require.NoError(t, os.WriteFile(path, []byte(body), 0644))

			s := LoadCommented(zaptest.NewLogger(t).Sugar(), path)
			assert.Zero(t, s.Len())
		})
	}
}

func TestCommentedAddPersistsImmediately(t *testing.T) {
	log := zaptest.NewLogger(t).Sugar()
	path := filepath.Join(t.TempDir(), "commented.json")

	s := LoadCommented(log, path)
	require.NoError(t, s.Add("https://www.tiktok.com/@a/video/1"))

	var onDisk []string
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Equal(t, []string{"https://www.tiktok.com/@a/video/1"}, onDisk)

	require.NoError(t, s.Add("https://www.tiktok.com/@b/video/2"))
	require.NoError(t, s.Add("https://www.tiktok.com/@a/video/1"))

	reloaded := LoadCommented(log, path)
	assert.Equal(t, []string{
		"https://www.tiktok.com/@a/video/1",
		"https://www.tiktok.com/@b/video/2",
	}, reloaded.URLs())
	assert.True(t, reloaded.Has("https://www.tiktok.com/@b/video/2"))
}

func TestLoadCommentedDropsDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commented.json")
	require.NoError(t, os.WriteFile(path, []byte(`["u1","u2","u1"]`), 0644))

	s := LoadCommented(zaptest.NewLogger(t).Sugar(), path)
	assert.Equal(t, []string{"u1", "u2"}, s.URLs())
}

func TestHistoryRecordAndStats(t *testing.T) {
	h, err := OpenHistory(filepath.Join(t.TempDir(), "db", "history.db"))
	require.NoError(t, err)
	defer h.Close()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	attempts := []types.Attempt{
		{VideoURL: "u1", Hashtag: "go", Comment: "hi", Outcome: types.OutcomePosted, At: base},
		{VideoURL: "u2", Hashtag: "go", Outcome: types.OutcomeFailed, Reason: "timeout_error", Screenshot: "s.png", At: base.Add(time.Minute)},
		{VideoURL: "u1", Hashtag: "go", Outcome: types.OutcomeSkipped, At: base.Add(2 * time.Minute)},
		{VideoURL: "u3", Hashtag: "ai", Comment: "yo", Outcome: types.OutcomePosted, At: base.Add(3 * time.Minute)},
	}
	for _, a := range attempts {
		require.NoError(t, h.Record(a))
	}

	stats, err := h.Stats()
	require.NoError(t, err)
	assert.Equal(t, map[types.Outcome]int{
		types.OutcomePosted:  2,
		types.OutcomeFailed:  1,
		types.OutcomeSkipped: 1,
	}, stats)

	recent, err := h.Recent(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "u3", recent[0].VideoURL)
	assert.Equal(t, types.OutcomeSkipped, recent[1].Outcome)
	assert.True(t, recent[0].At.Equal(base.Add(3*time.Minute)))
}

func TestSaveAndLoadLatestRun(t *testing.T) {
	dir := t.TempDir()

	first := &types.RunSummary{StartedAt: time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)}
	second := &types.RunSummary{
		StartedAt: time.Date(2026, 1, 2, 8, 0, 0, 0, time.UTC),
		Login:     "manual",
		Hashtags:  []types.HashtagResult{{Hashtag: "go", VideosFound: 4}},
	}

	_, err := SaveRun(dir, first)
	require.NoError(t, err)
	path, err := SaveRun(dir, second)
	require.NoError(t, err)

	run, loadedFrom, err := LoadLatestRun(dir)
	require.NoError(t, err)
	assert.Equal(t, path, loadedFrom)
	assert.Equal(t, "manual", run.Login)
	assert.Equal(t, "go", run.Hashtags[0].Hashtag)
}

func TestLoadLatestRunEmpty(t *testing.T) {
	_, _, err := LoadLatestRun(filepath.Join(t.TempDir(), "none"))
	assert.Error(t, err)
}
