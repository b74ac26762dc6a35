// Package notify delivers the e-mails sent around the join request workflow.
// Delivery is best effort: callers log failures and carry on.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/casedock/casedock-api/models"
	templates "github.com/casedock/casedock-api/templates/html"
)

// Message is a single outbound e-mail
type Message struct {
	ToEmail   string
	ToName    string
	Subject   string
	HTML      string
	PlainText string
}

// Sender delivers a message
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SendgridSender delivers through the SendGrid v3 mail API
type SendgridSender struct {
	client *sendgrid.Client
	from   *mail.Email
}

// NewSendgridSender returns a sender using apiKey with the given from address
func NewSendgridSender(apiKey, fromName, fromEmail string) *SendgridSender {
	return &SendgridSender{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(fromName, fromEmail),
	}
}

// Send implements Sender
func (s *SendgridSender) Send(ctx context.Context, msg Message) error {
	to := mail.NewEmail(msg.ToName, msg.ToEmail)
	message := mail.NewSingleEmail(s.from, msg.Subject, to, msg.PlainText, msg.HTML)
	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d: %s", response.StatusCode, response.Body)
	}
	return nil
}

// NopSender drops every message. It is used when no API key is configured.
type NopSender struct{}

// Send implements Sender
func (NopSender) Send(_ context.Context, msg Message) error {
	zap.S().Debugw("mail delivery disabled, dropping message", "to", msg.ToEmail, "subject", msg.Subject)
	return nil
}

// Mailer renders and sends the join request notifications
type Mailer struct {
	Sender  Sender
	BaseURL string
}

// NewMailer returns a Mailer. A nil sender disables delivery.
func NewMailer(s Sender, baseURL string) *Mailer {
	if s == nil {
		s = NopSender{}
	}
	return &Mailer{Sender: s, BaseURL: strings.TrimRight(baseURL, "/")}
}

func (m *Mailer) chamberLink(c *models.Chamber) string {
	if m.BaseURL == "" {
		return ""
	}
	return m.BaseURL + "/chambers/" + c.ID.Hex()
}

// JoinRequested notifies the chamber admin about a new request
func (m *Mailer) JoinRequested(ctx context.Context, admin, requester *models.User, chamber *models.Chamber, message string) error {
	data := templates.JoinRequestEmailData{
		RecipientName: admin.FullName.String(),
		RequesterName: requester.FullName.String(),
		ChamberName:   chamber.Name,
		Message:       message,
		Link:          m.chamberLink(chamber),
	}
	return m.Sender.Send(ctx, Message{
		ToEmail:   admin.Email,
		ToName:    data.RecipientName,
		Subject:   fmt.Sprintf("%s wants to join %s", data.RequesterName, chamber.Name),
		HTML:      templates.RenderJoinRequestReceivedEmail(data),
		PlainText: fmt.Sprintf("%s has asked to join %s.", data.RequesterName, chamber.Name),
	})
}

// JoinResolved notifies the requester of the admin's decision
func (m *Mailer) JoinResolved(ctx context.Context, requester *models.User, chamber *models.Chamber, status models.JoinRequestStatus) error {
	data := templates.JoinRequestEmailData{
		RecipientName: requester.FullName.String(),
		ChamberName:   chamber.Name,
		Link:          m.chamberLink(chamber),
	}
	msg := Message{ToEmail: requester.Email, ToName: data.RecipientName}
	switch status {
	case models.JoinRequestApproved:
		msg.Subject = "You have joined " + chamber.Name
		msg.HTML = templates.RenderJoinRequestApprovedEmail(data)
		msg.PlainText = fmt.Sprintf("Your request to join %s was approved.", chamber.Name)
	case models.JoinRequestRejected:
		msg.Subject = "Your request to join " + chamber.Name
		msg.HTML = templates.RenderJoinRequestRejectedEmail(data)
		msg.PlainText = fmt.Sprintf("Your request to join %s was declined.", chamber.Name)
	default:
		return fmt.Errorf("no notification for join request status %q", status)
	}
	return m.Sender.Send(ctx, msg)
}
