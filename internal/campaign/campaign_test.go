package campaign

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestRemoveEmojis(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text untouched", "Great work! https://github.com/x", "Great work! https://github.com/x"},
		{"emoticon", "Nice \U0001F600 video", "Nice  video"},
		{"emoticon block end", "a\U0001F64Fb", "ab"},
		{"pictograph block", "\U0001F300fire\U0001F5FF", "fire"},
		{"transport block", "rocket\U0001F680\U0001F6FF", "rocket"},
		{"flags", "\U0001F1FA\U0001F1F8 usa", " usa"},
		{"just outside emoticons", "\U0001F650", "\U0001F650"},
		{"just before flags", "\U0001F1DF", "\U0001F1DF"},
		{"supplemental symbols kept", "robot \U0001F916", "robot \U0001F916"},
		{"dingbat heart kept", "love ❤", "love ❤"},
		{"accents kept", "café naïve", "café naïve"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RemoveEmojis(tt.in))
		})
	}
}

func TestPickerStripsEmojis(t *testing.T) {
	p, err := NewPicker([]string{"first \U0001F60A", "second"})
	require.NoError(t, err)

	p.intn = func(n int) int { return 0 }
	assert.Equal(t, "first ", p.Pick())

	p.intn = func(n int) int { return n - 1 }
	assert.Equal(t, "second", p.Pick())
}

func TestNewPickerEmpty(t *testing.T) {
	_, err := NewPicker(nil)
	assert.ErrorIs(t, err, ErrNoComments)
}

func TestParseHashtags(t *testing.T) {
	in := "golang\n  #devops  \n\n##security\n#\n   \nai\n"
	tags, err := ParseHashtags(bufio.NewScanner(strings.NewReader(in)))
	require.NoError(t, err)
	assert.Equal(t, []string{"golang", "devops", "security", "ai"}, tags)
}

func TestLoadHashtags(t *testing.T) {
	log := zaptest.NewLogger(t).Sugar()
	defaults := []string{"tech"}

	t.Run("no path uses defaults", func(t *testing.T) {
		assert.Equal(t, defaults, LoadHashtags(log, "", defaults))
	})

	t.Run("missing file uses defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing.txt")
		assert.Equal(t, defaults, LoadHashtags(log, path, defaults))
	})

	t.Run("file contents", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tags.txt")
		require.NoError(t, os.WriteFile(path, []byte("#python\njavascript\n"), 0644))
		assert.Equal(t, []string{"python", "javascript"}, LoadHashtags(log, path, defaults))
	})

	t.Run("directory falls back", func(t *testing.T) {
		assert.Equal(t, defaults, LoadHashtags(log, t.TempDir(), defaults))
	})
}
