package notifier

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokpromo/tokpromo/internal/config"
	"github.com/tokpromo/tokpromo/internal/report"
)

type captureSender struct {
	to, subject, html, plain string
	err                      error
}

func (c *captureSender) Send(to, subject, htmlBody, plainBody string) error {
	c.to, c.subject, c.html, c.plain = to, subject, htmlBody, plainBody
	return c.err
}

func TestSendReport(t *testing.T) {
	s := &captureSender{}
	n := New(s, "me@example.com")

	err := n.SendReport(&report.Report{Subject: "subj", HTMLBody: "<p>hi</p>", PlainBody: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", s.to)
	assert.Equal(t, "subj", s.subject)
	assert.Equal(t, "<p>hi</p>", s.html)
	assert.Equal(t, "hi", s.plain)
}

func TestSendReportError(t *testing.T) {
	n := New(&captureSender{err: errors.New("relay denied")}, "me@example.com")
	assert.Error(t, n.SendReport(&report.Report{}))
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.Default().Email

	_, err := NewFromConfig(cfg)
	assert.Error(t, err, "no host or recipient")

	cfg.SMTPHost = "smtp.example.com"
	cfg.ToAddr = "me@example.com"
	n, err := NewFromConfig(cfg)
	require.NoError(t, err)
	assert.NotNil(t, n)

	cfg.Provider = "carrier-pigeon"
	_, err = NewFromConfig(cfg)
	assert.Error(t, err)
}
