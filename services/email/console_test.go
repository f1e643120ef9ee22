package emailsvc

import (
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iepapp/iep/core"
)

type testLogger struct{ errors []string }

func (l *testLogger) Debug(string, ...interface{}) {}
func (l *testLogger) Info(string, ...interface{}) {}
func (l *testLogger) Warn(string, ...interface{}) {}
func (l *testLogger) Error(msg string, _ ...interface{}) { l.errors = append(l.errors, msg) }
func (l *testLogger) Fatal(msg string, _ ...interface{}) { l.errors = append(l.errors, msg) }

func TestConsoleServiceMock(t *testing.T) {
	conf := core.NewTestConfig()
	logger := new(testLogger)
	svc := NewConsoleServiceMock(conf, logger)

	to := []mail.Address{{Name: "Ada", Address: "ada@okul.test"}}
	svc.SendMessages(
		&core.EmailMessage{To: to, Subject: "plain", BodyStr: "hello"},
		&core.EmailMessage{
			To:           to,
			Subject:      "reset",
			TemplateName: "password_reset",
			TemplateData: map[string]string{"Name": "Ada", "Username": "ada", "Tenant": "okul", "UID": "uid", "Token": "tok"},
		},
		&core.EmailMessage{Subject: "no recipients", BodyStr: "dropped"},
		&core.EmailMessage{To: to, Subject: "unknown", TemplateName: "nope"},
	)

	sent := svc.SentMessages()
	require.Len(t, sent, 2)
	assert.Equal(t, "hello", sent[0].TextContent)
	assert.Contains(t, sent[1].TextContent, conf.FrontendBaseURL+"/password-reset/okul/uid/tok")
	assert.Contains(t, sent[1].HTMLContent, "okul")
	assert.Equal(t, []string{"rendering email"}, logger.errors)
}
