// Package report renders a campaign run as an HTML and plain-text summary.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/tokpromo/tokpromo/internal/types"
)

// Builder creates run reports
type Builder struct {
	template *template.Template
}

// New creates a new report builder
func New() (*Builder, error) {
	tmpl, err := template.New("report").Parse(defaultTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	return &Builder{template: tmpl}, nil
}

// Report represents a rendered report ready for saving or sending
type Report struct {
	Subject   string
	HTMLBody  string
	PlainBody string
	CreatedAt time.Time
}

// ReportData is the template data structure
type ReportData struct {
	Title    string
	Date     string
	Duration string
	Login    string
	Hashtags []HashtagData
	Stats    StatsData
}

// HashtagData represents one hashtag section of the report
type HashtagData struct {
	Tag         string
	VideosFound int
	Error       string
	Attempts    []AttemptData
}

// AttemptData represents one video row
type AttemptData struct {
	URL     string
	Outcome string
	Comment string
	Reason  string
}

// StatsData contains run totals
type StatsData struct {
	Posted  int
	Skipped int
	Failed  int
}

// Build renders a report for run
func (b *Builder) Build(run *types.RunSummary) (*Report, error) {
	if run == nil {
		return nil, fmt.Errorf("no run to report")
	}

	data := ReportData{
		Title:    "TikTok campaign report",
		Date:     run.StartedAt.Format("Monday, January 2 15:04"),
		Duration: run.FinishedAt.Sub(run.StartedAt).Round(time.Second).String(),
		Login:    run.Login,
		Hashtags: make([]HashtagData, len(run.Hashtags)),
		Stats: StatsData{
			Posted:  run.Count(types.OutcomePosted),
			Skipped: run.Count(types.OutcomeSkipped),
			Failed:  run.Count(types.OutcomeFailed),
		},
	}

	for i, h := range run.Hashtags {
		hd := HashtagData{
			Tag:         h.Hashtag,
			VideosFound: h.VideosFound,
			Error:       h.Error,
			Attempts:    make([]AttemptData, len(h.Attempts)),
		}
		for j, a := range h.Attempts {
			hd.Attempts[j] = AttemptData{
				URL:     a.VideoURL,
				Outcome: string(a.Outcome),
				Comment: a.Comment,
				Reason:  truncate(a.Reason, 160),
			}
		}
		data.Hashtags[i] = hd
	}

	var htmlBuf bytes.Buffer
	if err := b.template.Execute(&htmlBuf, data); err != nil {
		return nil, fmt.Errorf("failed to render template: %w", err)
	}

	return &Report{
		Subject: fmt.Sprintf("TikTok campaign - %d posted, %d failed, %s",
			data.Stats.Posted, data.Stats.Failed, run.StartedAt.Format("Jan 2 15:04")),
		HTMLBody:  htmlBuf.String(),
		PlainBody: buildPlainText(data),
		CreatedAt: run.StartedAt,
	}, nil
}

// Save writes the HTML body to dir and returns the file path.
func (r *Report) Save(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("report_%s.html", r.CreatedAt.Format("2006-01-02_15-04-05")))
	if err := os.WriteFile(path, []byte(r.HTMLBody), 0644); err != nil {
		return "", err
	}
	return path, nil
}

// Latest returns the most recent report in dir.
func Latest(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "report_*.html"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no reports in %s", dir)
	}
	// Timestamped names sort chronologically
	latest := matches[0]
	for _, m := range matches[1:] {
		if m > latest {
			latest = m
		}
	}
	return latest, nil
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

func buildPlainText(data ReportData) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s\n%s (%s)\n\n", data.Title, data.Date, data.Duration)
	fmt.Fprintf(&buf, "Posted: %d  Skipped: %d  Failed: %d\n\n",
		data.Stats.Posted, data.Stats.Skipped, data.Stats.Failed)

	for _, h := range data.Hashtags {
		fmt.Fprintf(&buf, "#%s (%d videos found)\n", h.Tag, h.VideosFound)
		if h.Error != "" {
			fmt.Fprintf(&buf, "   error: %s\n", h.Error)
		}
		for _, a := range h.Attempts {
			fmt.Fprintf(&buf, "   [%s] %s\n", a.Outcome, a.URL)
			if a.Reason != "" {
				fmt.Fprintf(&buf, "      %s\n", a.Reason)
			}
		}
		buf.WriteString("\n")
	}

	return buf.String()
}

const defaultTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>{{.Title}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 700px; margin: 0 auto; padding: 20px; background: #f5f5f5; }
        .container { background: white; border-radius: 8px; padding: 20px; }
        h1 { color: #fe2c55; margin-bottom: 5px; }
        h2 { font-size: 16px; margin: 20px 0 8px; }
        .date { color: #666; margin-bottom: 20px; }
        .stats span { margin-right: 15px; font-weight: bold; }
        .error { color: #c0392b; font-size: 13px; }
        table { width: 100%; border-collapse: collapse; font-size: 13px; }
        td { border-bottom: 1px solid #eee; padding: 6px 4px; vertical-align: top; }
        .posted { color: #27ae60; }
        .skipped { color: #999; }
        .failed { color: #c0392b; }
        .reason { color: #666; }
        .footer { margin-top: 20px; padding-top: 15px; border-top: 1px solid #eee; color: #999; font-size: 12px; text-align: center; }
    </style>
</head>
<body>
    <div class="container">
        <h1>{{.Title}}</h1>
        <div class="date">{{.Date}} · {{.Duration}}{{if .Login}} · login: {{.Login}}{{end}}</div>
        <div class="stats">
            <span class="posted">{{.Stats.Posted}} posted</span>
            <span class="skipped">{{.Stats.Skipped}} skipped</span>
            <span class="failed">{{.Stats.Failed}} failed</span>
        </div>

        {{range .Hashtags}}
        <h2>#{{.Tag}} <small>({{.VideosFound}} videos found)</small></h2>
        {{if .Error}}<div class="error">{{.Error}}</div>{{end}}
        <table>
            {{range .Attempts}}
            <tr>
                <td class="{{.Outcome}}">{{.Outcome}}</td>
                <td><a href="{{.URL}}">{{.URL}}</a>{{if .Comment}}<br>{{.Comment}}{{end}}</td>
                <td class="reason">{{.Reason}}</td>
            </tr>
            {{end}}
        </table>
        {{end}}

        <div class="footer">Generated by tokpromo</div>
    </div>
</body>
</html>`
