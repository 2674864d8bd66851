package templates

import (
	"fmt"
	"html"
)

// StatusEmailData holds the fields shown in a status change email
type StatusEmailData struct {
	ReporterName          string
	IssueTitle            string
	Status                string
	ResolutionEvidenceURL string
}

// StatusEmailSubject is the subject line of a status change email
func StatusEmailSubject(status string) string {
	return fmt.Sprintf("Your complaint is now %s", status)
}

// RenderStatusEmail generates the HTML sent to a reporter when an admin
// changes the status of their issue
func RenderStatusEmail(d StatusEmailData) string {
	name := d.ReporterName
	if name == "" {
		name = "there"
	}
	body := fmt.Sprintf(`<p>Hi %s,</p>
      <p>The status of your complaint <strong>%s</strong> has been updated.</p>
      <p><span class="status">%s</span></p>`,
		html.EscapeString(name), html.EscapeString(d.IssueTitle), html.EscapeString(d.Status))
	if d.ResolutionEvidenceURL != "" {
		body += fmt.Sprintf(`
      <p><a href="%s">View the resolution evidence</a></p>`, html.EscapeString(d.ResolutionEvidenceURL))
	}
	body += `
      <p>Thank you for helping keep the city running.</p>`
	return renderLayout(html.EscapeString(StatusEmailSubject(d.Status)), body)
}

// RenderStatusText is the plain text alternative of RenderStatusEmail
func RenderStatusText(d StatusEmailData) string {
	text := fmt.Sprintf("The status of your complaint %q is now %s.", d.IssueTitle, d.Status)
	if d.ResolutionEvidenceURL != "" {
		text += " Resolution evidence: " + d.ResolutionEvidenceURL
	}
	return text
}
