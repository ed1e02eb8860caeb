package types

import "time"

// Outcome is the result of processing a single video
type Outcome string

const (
	OutcomePosted  Outcome = "posted"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Attempt records what happened on one video page
type Attempt struct {
	VideoURL   string    `json:"video_url"`
	Hashtag    string    `json:"hashtag"`
	Comment    string    `json:"comment,omitempty"`
	Outcome    Outcome   `json:"outcome"`
	Reason     string    `json:"reason,omitempty"`
	Screenshot string    `json:"screenshot,omitempty"`
	At         time.Time `json:"at"`
}

// HashtagResult groups the attempts made for one hashtag
type HashtagResult struct {
	Hashtag     string    `json:"hashtag"`
	VideosFound int       `json:"videos_found"`
	Attempts    []Attempt `json:"attempts"`
	Error       string    `json:"error,omitempty"`
}

// RunSummary describes a full campaign run
type RunSummary struct {
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Login      string          `json:"login"`
	Hashtags   []HashtagResult `json:"hashtags"`
}

// Count returns how many attempts in the run ended with the given outcome.
func (r *RunSummary) Count(o Outcome) int {
	n := 0
	for _, h := range r.Hashtags {
		for _, a := range h.Attempts {
			if a.Outcome == o {
				n++
			}
		}
	}
	return n
}
