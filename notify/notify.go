// Package notify tells reporters that the status of their issue changed.
package notify

import (
	"context"
	"sync"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/fixitnow/fixitnow-api/models"
	templates "github.com/fixitnow/fixitnow-api/templates/html"
)

const fromName = "FixItNow"

// LogNotifier only logs the notification that would have been sent
type LogNotifier struct{}

// StatusChanged logs a placeholder for the reporter notification
func (LogNotifier) StatusChanged(ctx context.Context, issue models.Issue, reporter *models.User) {
	zap.S().Infow("notification placeholder: issue status changed",
		"issue", issue.ID.Hex(),
		"reporter", issue.ReporterID.Hex(),
		"status", issue.Status,
	)
}

// Sender delivers a prepared email. *sendgrid.Client satisfies it.
type Sender interface {
	Send(email *mail.SGMailV3) (*rest.Response, error)
}

// EmailNotifier emails the reporter through SendGrid. Sends happen in the
// background so a slow mail provider never holds up the request.
type EmailNotifier struct {
	client Sender
	from   *mail.Email
	wg     sync.WaitGroup
}

// NewEmailNotifier returns an EmailNotifier using the SendGrid API key
func NewEmailNotifier(apiKey, fromAddress string) *EmailNotifier {
	return NewEmailNotifierWithSender(sendgrid.NewSendClient(apiKey), fromAddress)
}

// NewEmailNotifierWithSender returns an EmailNotifier delivering through s
func NewEmailNotifierWithSender(s Sender, fromAddress string) *EmailNotifier {
	return &EmailNotifier{client: s, from: mail.NewEmail(fromName, fromAddress)}
}

// StatusChanged queues an email to the reporter of issue
func (n *EmailNotifier) StatusChanged(ctx context.Context, issue models.Issue, reporter *models.User) {
	if reporter == nil || reporter.Email == "" {
		zap.S().Debugw("no reporter email, skipping status notification", "issue", issue.ID.Hex())
		return
	}

	data := templates.StatusEmailData{
		ReporterName:          reporter.Name,
		IssueTitle:            issue.Title,
		Status:                string(issue.Status),
		ResolutionEvidenceURL: issue.ResolutionEvidenceURL,
	}
	message := mail.NewSingleEmail(
		n.from,
		templates.StatusEmailSubject(data.Status),
		mail.NewEmail(reporter.Name, reporter.Email),
		templates.RenderStatusText(data),
		templates.RenderStatusEmail(data),
	)

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.send(issue, message)
	}()
}

func (n *EmailNotifier) send(issue models.Issue, message *mail.SGMailV3) {
	response, err := n.client.Send(message)
	if err != nil {
		zap.S().Errorw("failed to send status email", "issue", issue.ID.Hex(), "error", err)
		return
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status", "issue", issue.ID.Hex(), "status", response.StatusCode, "body", response.Body)
		return
	}
	zap.S().Infow("status email sent", "issue", issue.ID.Hex(), "status", issue.Status)
}

// Wait blocks until every queued email has been handed to SendGrid
func (n *EmailNotifier) Wait() {
	n.wg.Wait()
}
