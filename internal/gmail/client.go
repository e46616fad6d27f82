// Package gmail reads invoice attachments from a Gmail mailbox.
package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"path"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/zuma-group/bill-integration-platform/internal/config"
	"github.com/zuma-group/bill-integration-platform/internal/port"
)

// Client implements port.Mailbox on the Gmail REST API.
type Client struct {
	svc  *gmailapi.Service
	user string
}

// NewClient authorises with the configured OAuth refresh token.
func NewClient(ctx context.Context, cfg config.GmailConfig) (*Client, error) {
	const op = "gmail.NewClient"
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%s: oauth client id and secret are required", op)
	}
	if cfg.RefreshToken == "" {
		return nil, fmt.Errorf("%s: no refresh token configured", op)
	}
	ts := OAuthConfig(cfg).TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})

	svc, err := gmailapi.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return NewClientWithService(svc, cfg.User), nil
}

// OAuthConfig is the OAuth client used both for the consent flow and for
// refreshing access tokens.
func OAuthConfig(cfg config.GmailConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmailapi.GmailReadonlyScope, gmailapi.GmailModifyScope},
	}
}

// NewClientWithService wraps an existing API service.
func NewClientWithService(svc *gmailapi.Service, user string) *Client {
	if user == "" {
		user = "me"
	}
	return &Client{svc: svc, user: user}
}

// EnsureLabel returns the id of the label called name, creating it if needed.
func (c *Client) EnsureLabel(ctx context.Context, name string) (string, error) {
	list, err := c.svc.Users.Labels.List(c.user).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("listing labels: %w", err)
	}
	for _, l := range list.Labels {
		if l.Name == name && l.Id != "" {
			return l.Id, nil
		}
	}
	created, err := c.svc.Users.Labels.Create(c.user, &gmailapi.Label{
		Name:                  name,
		LabelListVisibility:   "labelShow",
		MessageListVisibility: "show",
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("creating label %q: %w", name, err)
	}
	return created.Id, nil
}

// ListCandidates returns up to max messages matching query with their labels.
func (c *Client) ListCandidates(ctx context.Context, query string, max int) ([]port.MailMessage, error) {
	resp, err := c.svc.Users.Messages.List(c.user).Q(query).MaxResults(int64(max)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	out := make([]port.MailMessage, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		if m.Id == "" {
			continue
		}
		msg, err := c.GetMessage(ctx, m.Id)
		if err != nil {
			return nil, err
		}
		out = append(out, *msg)
	}
	return out, nil
}

// GetMessage fetches one message's metadata.
func (c *Client) GetMessage(ctx context.Context, messageID string) (*port.MailMessage, error) {
	m, err := c.svc.Users.Messages.Get(c.user, messageID).Format("metadata").
		MetadataHeaders("Subject", "From").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("getting message %s: %w", messageID, err)
	}
	return toMailMessage(m), nil
}

// Attachments downloads the invoice-like attachments of a message.
func (c *Client) Attachments(ctx context.Context, messageID string) ([]port.MailAttachment, error) {
	m, err := c.svc.Users.Messages.Get(c.user, messageID).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("getting message %s: %w", messageID, err)
	}

	var out []port.MailAttachment
	for _, part := range invoiceParts(m.Payload) {
		data := part.Body.Data
		if part.Body.AttachmentId != "" {
			body, err := c.svc.Users.Messages.Attachments.Get(c.user, messageID, part.Body.AttachmentId).Context(ctx).Do()
			if err != nil {
				return nil, fmt.Errorf("getting attachment of %s: %w", messageID, err)
			}
			data = body.Data
		}
		if data == "" {
			continue
		}
		decoded, err := decodeBase64URL(data)
		if err != nil {
			return nil, fmt.Errorf("decoding attachment of %s: %w", messageID, err)
		}
		name := part.Filename
		if name == "" {
			name = fmt.Sprintf("attachment-%d", len(out)+1)
		}
		mime := part.MimeType
		if mime == "" {
			mime = "application/octet-stream"
		}
		out = append(out, port.MailAttachment{Filename: name, MimeType: mime, Data: decoded})
	}
	return out, nil
}

// AddLabel applies labelID to a message.
func (c *Client) AddLabel(ctx context.Context, messageID, labelID string) error {
	_, err := c.svc.Users.Messages.Modify(c.user, messageID, &gmailapi.ModifyMessageRequest{
		AddLabelIds: []string{labelID},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("labelling message %s: %w", messageID, err)
	}
	return nil
}

// MessagesAddedSince lists ids of messages added after historyID and the
// mailbox's latest history id.
func (c *Client) MessagesAddedSince(ctx context.Context, historyID string) ([]string, string, error) {
	start, err := parseHistoryID(historyID)
	if err != nil {
		return nil, "", err
	}

	var (
		ids    []string
		seen   = map[string]bool{}
		latest uint64
	)
	call := c.svc.Users.History.List(c.user).StartHistoryId(start).HistoryTypes("messageAdded")
	err = call.Pages(ctx, func(page *gmailapi.ListHistoryResponse) error {
		if page.HistoryId > latest {
			latest = page.HistoryId
		}
		for _, h := range page.History {
			for _, added := range h.MessagesAdded {
				if added.Message == nil || added.Message.Id == "" || seen[added.Message.Id] {
					continue
				}
				seen[added.Message.Id] = true
				ids = append(ids, added.Message.Id)
			}
		}
		return nil
	})
	if err != nil {
		return nil, "", fmt.Errorf("listing history since %s: %w", historyID, err)
	}
	latestID := ""
	if latest > 0 {
		latestID = fmt.Sprintf("%d", latest)
	}
	return ids, latestID, nil
}

// Watch subscribes the mailbox to push notifications on topic.
func (c *Client) Watch(ctx context.Context, topic string, labelIDs []string) (*port.WatchResult, error) {
	req := &gmailapi.WatchRequest{TopicName: topic, LabelIds: labelIDs}
	if len(labelIDs) > 0 {
		req.LabelFilterAction = "include"
	}
	resp, err := c.svc.Users.Watch(c.user, req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("starting watch on %s: %w", topic, err)
	}
	result := &port.WatchResult{Expiration: resp.Expiration}
	if resp.HistoryId > 0 {
		result.HistoryID = fmt.Sprintf("%d", resp.HistoryId)
	}
	return result, nil
}

func toMailMessage(m *gmailapi.Message) *port.MailMessage {
	out := &port.MailMessage{ID: m.Id, ThreadID: m.ThreadId, LabelIDs: m.LabelIds}
	if m.Payload != nil {
		for _, h := range m.Payload.Headers {
			switch strings.ToLower(h.Name) {
			case "subject":
				out.Subject = h.Value
			case "from":
				out.From = h.Value
			}
		}
	}
	return out
}

// invoiceParts walks the MIME tree depth first and returns the parts that
// look like PDF or image attachments.
func invoiceParts(root *gmailapi.MessagePart) []*gmailapi.MessagePart {
	var out []*gmailapi.MessagePart
	var walk func(p *gmailapi.MessagePart)
	walk = func(p *gmailapi.MessagePart) {
		if p == nil {
			return
		}
		isAttachment := p.Filename != "" || (p.Body != nil && p.Body.AttachmentId != "")
		if isAttachment && p.Body != nil && isInvoiceType(p.MimeType, p.Filename) {
			out = append(out, p)
		}
		for _, child := range p.Parts {
			walk(child)
		}
	}
	walk(root)
	return out
}

func isInvoiceType(mime, filename string) bool {
	for _, prefix := range []string{"application/pdf", "image/png", "image/jpeg"} {
		if strings.HasPrefix(mime, prefix) {
			return true
		}
	}
	switch strings.ToLower(path.Ext(filename)) {
	case ".pdf", ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}

func decodeBase64URL(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}
