package campaign

import (
	"errors"
	"math/rand/v2"
	"strings"
	"unicode"
)

// DefaultComments is the promotional text posted when the config has none.
var DefaultComments = []string{
	"Love this! Check out my GitHub for cool projects: https://github.com/zebbern",
	"Interesting video! I share similar projects on GitHub: https://github.com/zebbern",
	"Great content! Feel free to explore my GitHub: https://github.com/zebbern",
	"Nice work! Visit my GitHub for more tech tools: https://github.com/zebbern",
	"Awesome! If you're into tech, check out my GitHub: https://github.com/zebbern",
	"Fantastic! I have related projects on GitHub: https://github.com/zebbern",
	"Great insights! Browse my GitHub repositories: https://github.com/zebbern",
	"Loved this! Explore my GitHub for more projects: https://github.com/zebbern",
	"Impressive! Check out my GitHub for similar tools: https://github.com/zebbern",
	"Excellent! Feel free to visit my GitHub: https://github.com/zebbern",
	"Nice video! I share security projects on GitHub: https://github.com/zebbern",
	"Great explanation! See my GitHub for related projects: https://github.com/zebbern",
	"Superb content! Explore my GitHub here: https://github.com/zebbern",
	"Loved your post! Visit my GitHub for tech tools: https://github.com/zebbern",
	"Excellent job! Check out my GitHub for more: https://github.com/zebbern",
	"Inspired by your video! Feel free to browse my GitHub: https://github.com/zebbern",
	"Great work! I have similar projects on GitHub: https://github.com/zebbern",
	"Awesome insights! Explore my GitHub projects: https://github.com/zebbern",
	"Fantastic video! Visit my GitHub for more tech content: https://github.com/zebbern",
	"Impressive! Check out my GitHub for tools: https://github.com/zebbern",
}

// emojiRanges are the blocks stripped from comment text: emoticons, symbols
// and pictographs, transport and map symbols, regional indicator flags.
var emojiRanges = &unicode.RangeTable{
	R32: []unicode.Range32{
		{Lo: 0x1F1E0, Hi: 0x1F1FF, Stride: 1},
		{Lo: 0x1F300, Hi: 0x1F5FF, Stride: 1},
		{Lo: 0x1F600, Hi: 0x1F64F, Stride: 1},
		{Lo: 0x1F680, Hi: 0x1F6FF, Stride: 1},
	},
}

// RemoveEmojis drops every rune in emojiRanges and leaves the rest untouched.
func RemoveEmojis(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.Is(emojiRanges, r) {
			return -1
		}
		return r
	}, text)
}

// ErrNoComments is returned when a Picker is built from an empty list.
var ErrNoComments = errors.New("campaign: no comments configured")

// Picker chooses comment text at random.
type Picker struct {
	comments []string
	intn     func(n int) int
}

// NewPicker creates a picker over comments.
func NewPicker(comments []string) (*Picker, error) {
	if len(comments) == 0 {
		return nil, ErrNoComments
	}
	return &Picker{comments: comments, intn: rand.IntN}, nil
}

// Pick returns a random comment with emojis removed.
func (p *Picker) Pick() string {
	return RemoveEmojis(p.comments[p.intn(len(p.comments))])
}
