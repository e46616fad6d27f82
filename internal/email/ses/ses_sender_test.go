package ses_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zuma-group/bill-integration-platform/internal/config"
	"github.com/zuma-group/bill-integration-platform/internal/email/ses"
	"github.com/zuma-group/bill-integration-platform/internal/port"
)

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, params *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = params
	return &sesv2.SendEmailOutput{}, f.err
}

func emailConfig(recipients ...string) config.EmailConfig {
	return config.EmailConfig{FromAddress: "noreply@example.com", FromName: "Bill Integration", Recipients: recipients}
}

func TestSESSender_NotifySyncFailure(t *testing.T) {
	client := &fakeSES{}
	n := ses.NewSESSenderWithClient(client, emailConfig("ops@example.com"))

	err := n.NotifySyncFailure(context.Background(), port.SyncFailure{
		TaskID:         "TASK-1",
		InvoiceNumbers: []string{"A-1", "<B-2>"},
		StatusCode:     502,
		Reason:         "odoo webhook returned 502",
	})

	require.NoError(t, err)
	require.NotNil(t, client.input)
	assert.Equal(t, "Bill Integration <noreply@example.com>", *client.input.FromEmailAddress)
	assert.Equal(t, []string{"ops@example.com"}, client.input.Destination.ToAddresses)
	msg := client.input.Content.Simple
	assert.Equal(t, "Odoo sync failed for task TASK-1", *msg.Subject.Data)
	assert.Contains(t, *msg.Body.Text.Data, "A-1, <B-2>")
	assert.Contains(t, *msg.Body.Html.Data, "&lt;B-2&gt;")
}

func TestSESSender_NoRecipients(t *testing.T) {
	client := &fakeSES{}
	n := ses.NewSESSenderWithClient(client, emailConfig())

	require.NoError(t, n.NotifySyncFailure(context.Background(), port.SyncFailure{TaskID: "TASK-1"}))
	assert.Nil(t, client.input)
}

func TestSESSender_Error(t *testing.T) {
	n := ses.NewSESSenderWithClient(&fakeSES{err: errors.New("throttled")}, emailConfig("ops@example.com"))

	err := n.NotifySyncFailure(context.Background(), port.SyncFailure{TaskID: "TASK-1"})
	assert.ErrorContains(t, err, "throttled")
}
