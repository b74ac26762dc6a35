package templates

import (
	"fmt"
	"html"
)

// JoinRequestEmailData holds the values shown in join request e-mails
type JoinRequestEmailData struct {
	RecipientName string
	RequesterName string
	ChamberName   string
	Message       string
	Link          string
}

// RenderJoinRequestReceivedEmail is sent to a chamber admin when someone asks to join
func RenderJoinRequestReceivedEmail(d JoinRequestEmailData) string {
	body := fmt.Sprintf(`<p>Hi %s,</p>
      <p><strong>%s</strong> has asked to join <strong>%s</strong>.</p>`,
		html.EscapeString(d.RecipientName), html.EscapeString(d.RequesterName), html.EscapeString(d.ChamberName))
	if d.Message != "" {
		body += fmt.Sprintf(`
      <div class="quote">%s</div>`, html.EscapeString(d.Message))
	}
	if d.Link != "" {
		body += fmt.Sprintf(`
      <a href="%s" class="cta-button">Review request</a>`, html.EscapeString(d.Link))
	}
	return renderLayout("New join request", body)
}

// RenderJoinRequestApprovedEmail tells the requester they are now a member
func RenderJoinRequestApprovedEmail(d JoinRequestEmailData) string {
	body := fmt.Sprintf(`<p>Hi %s,</p>
      <p>Your request to join <strong>%s</strong> was approved. The chamber's cases are now available to you according to the permissions the admin granted.</p>`,
		html.EscapeString(d.RecipientName), html.EscapeString(d.ChamberName))
	if d.Link != "" {
		body += fmt.Sprintf(`
      <a href="%s" class="cta-button">Open chamber</a>`, html.EscapeString(d.Link))
	}
	return renderLayout("Join request approved", body)
}

// RenderJoinRequestRejectedEmail tells the requester the admin declined
func RenderJoinRequestRejectedEmail(d JoinRequestEmailData) string {
	body := fmt.Sprintf(`<p>Hi %s,</p>
      <p>Your request to join <strong>%s</strong> was declined by the chamber admin.</p>`,
		html.EscapeString(d.RecipientName), html.EscapeString(d.ChamberName))
	return renderLayout("Join request declined", body)
}
