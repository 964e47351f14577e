package emailsvc

import (
	"io"
	"log"
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/bunkguard/core"
	"github.com/trezcool/bunkguard/services/logger"
)

func newMock() core.EmailService {
	conf := core.NewTestConfig()
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	core.ParseEmailTemplates(conf, logger)
	return NewConsoleServiceMock(logger, conf)
}

func TestConsoleServiceMock_SendMessages(t *testing.T) {
	svc := newMock()
	ClearSentMessages()

	svc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: "Jane", Address: "jane@example.com"}},
		Subject:      "Password Reset",
		TemplateName: "password_reset",
		TemplateData: map[string]interface{}{"Name": "Jane", "UID": "dWlk", "Token": "tok-en"},
	})

	msg, ok := LastSentMessage()
	require.True(t, ok)
	assert.Contains(t, msg.TextContent, "Hi Jane,")
	assert.Contains(t, msg.TextContent, "/password-reset/dWlk/tok-en")
	assert.Contains(t, msg.HTMLContent, "/password-reset/dWlk/tok-en")
}

func TestConsoleServiceMock_SkipsEmptyMessages(t *testing.T) {
	svc := newMock()
	ClearSentMessages()

	svc.SendMessages(
		&core.EmailMessage{Subject: "no recipient", BodyStr: "hello"},
		&core.EmailMessage{To: []mail.Address{{Address: "jane@example.com"}}, Subject: "no content"},
	)
	_, ok := LastSentMessage()
	assert.False(t, ok)
}

func TestConsoleService_format(t *testing.T) {
	conf := core.NewTestConfig()
	svc := consoleService{defaultFromEmail: conf.DefaultFromEmail(), subjPrefix: "[BunkGuard] "}

	msg := core.EmailMessage{
		To:          []mail.Address{{Address: "jane@example.com"}},
		Subject:     "Report",
		Category:    core.MailAttendanceAlert,
		TextContent: "see attached",
	}
	require.NoError(t, msg.Attach(strings.NewReader("date,status\n"), "report.csv", "text/csv"))

	out, err := svc.format(msg)
	require.NoError(t, err)
	assert.Contains(t, out, "Subject: [BunkGuard] Report\r\n")
	assert.Contains(t, out, "Content-Type: multipart/mixed; boundary=")
	assert.Contains(t, out, "filename=report.csv")
	assert.Contains(t, out, "X-Category: attendance_alert\r\n")
	assert.NotContains(t, out, "CC:")
}
