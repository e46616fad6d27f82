package ses

import (
	"context"
	"fmt"
	"html"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/zuma-group/bill-integration-platform/internal/config"
	"github.com/zuma-group/bill-integration-platform/internal/port"
)

// SendEmailAPI is the subset of the SES v2 client used for notifications.
type SendEmailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

type sesSender struct {
	client      SendEmailAPI
	fromAddress string
	fromName    string
	recipients  []string
}

// NewSESSender creates an SES-backed Notifier that mails sync failures to
// the configured operators.
func NewSESSender(cfg config.EmailConfig) (port.Notifier, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for SES: %w", err)
	}
	return NewSESSenderWithClient(sesv2.NewFromConfig(awsCfg), cfg), nil
}

// NewSESSenderWithClient creates a Notifier around an existing client.
func NewSESSenderWithClient(client SendEmailAPI, cfg config.EmailConfig) port.Notifier {
	return &sesSender{
		client:      client,
		fromAddress: cfg.FromAddress,
		fromName:    cfg.FromName,
		recipients:  cfg.Recipients,
	}
}

func (s *sesSender) NotifySyncFailure(ctx context.Context, failure port.SyncFailure) error {
	if len(s.recipients) == 0 {
		return nil
	}

	subject := fmt.Sprintf("Odoo sync failed for task %s", failure.TaskID)
	textBody := buildFailureText(failure)
	htmlBody := buildFailureHTML(failure)
	from := fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: &from,
		Destination: &types.Destination{
			ToAddresses: s.recipients,
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: &subject},
				Body: &types.Body{
					Html: &types.Content{Data: &htmlBody},
					Text: &types.Content{Data: &textBody},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("SES SendEmail: %w", err)
	}
	return nil
}

func buildFailureText(f port.SyncFailure) string {
	return fmt.Sprintf("The push of task %s to Odoo did not succeed.\n\nStatus: %d\nReason: %s\nInvoices: %s\n",
		f.TaskID, f.StatusCode, f.Reason, strings.Join(f.InvoiceNumbers, ", "))
}

func buildFailureHTML(f port.SyncFailure) string {
	var items strings.Builder
	for _, n := range f.InvoiceNumbers {
		fmt.Fprintf(&items, "<li>%s</li>", html.EscapeString(n))
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #B91C1C;">Odoo sync failed</h2>
  <p>The push of task <strong>%s</strong> did not succeed.</p>
  <p>Status: %d<br>Reason: %s</p>
  <ul>%s</ul>
</body>
</html>`, html.EscapeString(f.TaskID), f.StatusCode, html.EscapeString(f.Reason), items.String())
}
