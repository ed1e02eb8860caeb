package scraper

import "net/url"

// TikTok URLs and DOM selectors
// These are isolated here because TikTok changes their DOM frequently
// Update these when commenting breaks

const (
	BaseURL  = "https://www.tiktok.com"
	LoginURL = BaseURL + "/login"
)

const (
	// Login form
	LoginEmailInput    = `input[name="email"]`
	LoginPasswordInput = `input[name="password"]`
	LoginSubmitButton  = `button[type="submit"]`

	// Hashtag page
	VideoLink = `a[href*="/video/"]`

	// Video page
	CommentBox = `div[contenteditable="true"]`
)

// HashtagURL returns the page listing videos for tag.
func HashtagURL(tag string) string {
	return BaseURL + "/tag/" + url.PathEscape(tag)
}
