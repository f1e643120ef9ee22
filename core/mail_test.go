package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailMessage_Render(t *testing.T) {
	conf := NewTestConfig()
	require.NotPanics(t, func() { ParseEmailTemplates(conf) })

	tests := []struct {
		name    string
		msg     EmailMessage
		wantErr bool
		want    []string
	}{
		{
			name: "password reset",
			msg: EmailMessage{
				TemplateName: "password_reset",
				TemplateData: map[string]string{"Name": "Ada", "Username": "ada", "Tenant": "lycee", "UID": "u-1", "Token": "t0k"},
			},
			want: []string{"Merhaba Ada", "ada", "/password-reset/lycee/u-1/t0k", conf.AppName},
		},
		{name: "plain body", msg: EmailMessage{BodyStr: "hello"}, want: []string{"hello"}},
		{name: "unknown template", msg: EmailMessage{TemplateName: "nope"}, wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Render(conf)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			for _, s := range tt.want {
				assert.Contains(t, tt.msg.TextContent, s)
			}
			if tt.msg.TemplateName != "" {
				assert.Contains(t, tt.msg.HTMLContent, "/password-reset/lycee/u-1/t0k")
			}
		})
	}
}
