package emailsvc

import (
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/bunkguard/core"
)

func newTestSendgrid() sendgridService {
	conf := core.NewTestConfig()
	return sendgridService{from: sgEmail(conf.DefaultFromEmail()), subjPrefix: "[BunkGuard] "}
}

func TestSendgridService_prepare(t *testing.T) {
	svc := newTestSendgrid()

	m := svc.prepare(core.EmailMessage{
		To:          []mail.Address{{Name: "Jane", Address: "jane@example.com"}},
		Subject:     "Low attendance in Maths",
		Category:    core.MailAttendanceAlert,
		TextContent: "You are at 60.00% in Maths.",
	})

	require.Len(t, m.Personalizations, 1)
	p := m.Personalizations[0]
	assert.Equal(t, "[BunkGuard] Low attendance in Maths", p.Subject)
	require.Len(t, p.To, 1)
	assert.Equal(t, "jane@example.com", p.To[0].Address)
	assert.Empty(t, p.CC)
	assert.Empty(t, p.BCC)

	// no empty text/html part
	require.Len(t, m.Content, 1)
	assert.Equal(t, "text/plain", m.Content[0].Type)
	assert.Equal(t, []string{core.MailAttendanceAlert}, m.Categories)
	assert.Nil(t, m.TrackingSettings)
}

func TestSendgridService_preparePasswordReset(t *testing.T) {
	svc := newTestSendgrid()

	msg := core.EmailMessage{
		To:          []mail.Address{{Address: "jane@example.com"}},
		Bcc:         []mail.Address{{Address: "audit@example.com"}},
		Subject:     "Password Reset",
		Category:    core.MailPasswordReset,
		TextContent: "reset: /password-reset/dWlk/tok-en",
		HTMLContent: `<a href="/password-reset/dWlk/tok-en">reset</a>`,
	}
	require.NoError(t, msg.Attach(strings.NewReader("date,status\n"), "logs.csv", "text/csv"))

	m := svc.prepare(msg)
	require.Len(t, m.Content, 2)
	assert.Equal(t, "text/plain", m.Content[0].Type)
	assert.Equal(t, "text/html", m.Content[1].Type)
	assert.Len(t, m.Personalizations[0].BCC, 1)

	require.NotNil(t, m.TrackingSettings)
	require.NotNil(t, m.TrackingSettings.ClickTracking)
	require.NotNil(t, m.TrackingSettings.ClickTracking.Enable)
	assert.False(t, *m.TrackingSettings.ClickTracking.Enable)

	require.Len(t, m.Attachments, 1)
	assert.Equal(t, "logs.csv", m.Attachments[0].Filename)
	assert.Equal(t, "text/csv", m.Attachments[0].Type)
	assert.Equal(t, "attachment", m.Attachments[0].Disposition)
}
