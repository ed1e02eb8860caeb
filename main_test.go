package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tokpromo/tokpromo/internal/config"
)

func TestApplyPerHashtag(t *testing.T) {
	cfg := config.Default()
	assert.Empty(t, applyPerHashtag(cfg, 5, true))
	assert.Equal(t, 5, cfg.Campaign.CommentsPerHashtag)

	cfg = config.Default()
	assert.Empty(t, applyPerHashtag(cfg, 0, false), "an unset flag keeps the config value silently")
	assert.Equal(t, 3, cfg.Campaign.CommentsPerHashtag)
}

func TestApplyPerHashtagRejectsNonPositive(t *testing.T) {
	for _, n := range []int{0, -2} {
		cfg := config.Default()
		cfg.Campaign.CommentsPerHashtag = 4

		msg := applyPerHashtag(cfg, n, true)
		assert.Contains(t, msg, "using 4 from config")
		assert.Equal(t, 4, cfg.Campaign.CommentsPerHashtag)
	}
}
