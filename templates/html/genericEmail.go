package templates

import (
	"fmt"
	"html"
	"strings"
)

// RenderGenericEmail generates branded HTML for a plain notification.
// bodyContent is plain text: it is HTML-escaped and newlines become <br>.
func RenderGenericEmail(subject, bodyContent string) string {
	htmlBody := strings.ReplaceAll(html.EscapeString(bodyContent), "\n", "<br>")
	return renderLayout(subject, htmlBody)
}

// renderLayout wraps already safe HTML in the CaseDock layout. subject is escaped.
func renderLayout(subject, htmlBody string) string {
	safeSubject := html.EscapeString(subject)

	return fmt.Sprintf(`<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1, minimum-scale=1, maximum-scale=1">
  <title>%s</title>
  <style type="text/css">
    body { font-family: Georgia, 'Times New Roman', serif; margin: 0; padding: 0; background-color: #f4f1ea; }
    .container { max-width: 600px; margin: 0 auto; background-color: #ffffff; }
    .header { background-color: #1f2a44; padding: 32px 30px; text-align: center; }
    .header h1 { color: #f4f1ea; margin: 0; font-size: 22px; font-weight: 700; }
    .content { padding: 32px 30px; color: #1f2937; line-height: 1.6; font-size: 15px; }
    .quote { border-left: 3px solid #b08d57; padding: 8px 16px; margin: 20px 0; color: #4b5563; font-style: italic; }
    .cta-button { display: inline-block; background-color: #b08d57; color: #ffffff; padding: 12px 24px; border-radius: 6px; text-decoration: none; font-weight: 700; margin-top: 16px; }
    .footer { padding: 24px 30px; text-align: center; color: #6b7280; font-size: 12px; border-top: 1px solid #e5e7eb; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>%s</h1>
    </div>
    <div class="content">
      %s
    </div>
    <div class="footer">
      <p>&copy; CaseDock</p>
    </div>
  </div>
</body>
</html>`, safeSubject, safeSubject, htmlBody)
}
