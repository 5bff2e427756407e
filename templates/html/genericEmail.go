package templates

import (
	"fmt"
	"html"
	"strings"

	"github.com/linesmerrill/dose-reminder-api/clock"
	"github.com/linesmerrill/dose-reminder-api/supply"
)

// RenderReminderEmail generates HTML for a single reminder. The body is plain
// text that gets HTML-escaped and has newlines converted to <br> tags.
func RenderReminderEmail(title, body string) string {
	escaped := html.EscapeString(body)
	return renderLayout(title, strings.ReplaceAll(escaped, "\n", "<br>"))
}

// RenderSupplyDigestEmail generates HTML listing the drugs of a supply report.
func RenderSupplyDigestEmail(r *supply.Report) string {
	var b strings.Builder
	if len(r.LowSupply) > 0 {
		b.WriteString("<h2>Running low</h2><ul>")
		for _, s := range r.LowSupply {
			fmt.Fprintf(&b, "<li><strong>%s</strong>: %d days left</li>", html.EscapeString(s.Name), s.DaysLeft)
		}
		b.WriteString("</ul>")
	}
	if len(r.ExpiringSoon) > 0 {
		b.WriteString("<h2>Expiring soon</h2><ul>")
		for _, s := range r.ExpiringSoon {
			fmt.Fprintf(&b, "<li><strong>%s</strong>: expires %s</li>", html.EscapeString(s.Name), clock.FormatDate(s.ExpirationDate))
		}
		b.WriteString("</ul>")
	}
	return renderLayout("Supply report for "+clock.FormatDate(r.Date), b.String())
}

func renderLayout(subject, htmlBody string) string {
	safeSubject := html.EscapeString(subject)

	return fmt.Sprintf(`<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>%s</title>
  <style type="text/css">
    body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 0; background-color: #f4f6f8; }
    .container { max-width: 600px; margin: 0 auto; background-color: #ffffff; }
    .header { background-color: #2f855a; padding: 32px 24px; text-align: center; }
    .header h1 { color: #fff; margin: 0; font-size: 22px; }
    .content { padding: 32px 24px; color: #1a202c; line-height: 1.6; font-size: 15px; }
    .footer { padding: 24px; text-align: center; color: #718096; font-size: 12px; }
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
      <p>Sent by your dose reminder. Update your supply after every refill.</p>
    </div>
  </div>
</body>
</html>`, safeSubject, safeSubject, htmlBody)
}
