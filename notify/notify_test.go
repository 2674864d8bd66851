package notify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fixitnow/fixitnow-api/models"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []*mail.SGMailV3
	err  error
	code int
}

func (f *fakeSender) Send(email *mail.SGMailV3) (*rest.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, email)
	if f.err != nil {
		return nil, f.err
	}
	return &rest.Response{StatusCode: f.code}, nil
}

func resolvedIssue() models.Issue {
	return models.Issue{
		ID:                    primitive.NewObjectID(),
		ReporterID:            primitive.NewObjectID(),
		Title:                 "Street light out",
		Status:                models.StatusResolved,
		ResolutionEvidenceURL: "https://img.example.com/fixed.jpg",
	}
}

func TestEmailNotifier_SendsToReporter(t *testing.T) {
	s := &fakeSender{code: 202}
	n := NewEmailNotifierWithSender(s, "no-reply@fixitnow.app")

	n.StatusChanged(context.Background(), resolvedIssue(), &models.User{Name: "Asha", Email: "asha@example.com"})
	n.Wait()

	require.Len(t, s.sent, 1)
	msg := s.sent[0]
	assert.Equal(t, "Your complaint is now Resolved", msg.Subject)
	assert.Equal(t, "no-reply@fixitnow.app", msg.From.Address)
	require.Len(t, msg.Personalizations, 1)
	assert.Equal(t, "asha@example.com", msg.Personalizations[0].To[0].Address)
	require.Len(t, msg.Content, 2)
	assert.Contains(t, msg.Content[1].Value, "fixed.jpg")
}

func TestEmailNotifier_SkipsWithoutEmail(t *testing.T) {
	s := &fakeSender{code: 202}
	n := NewEmailNotifierWithSender(s, "no-reply@fixitnow.app")

	n.StatusChanged(context.Background(), resolvedIssue(), nil)
	n.StatusChanged(context.Background(), resolvedIssue(), &models.User{Name: "No Mail"})
	n.Wait()

	assert.Empty(t, s.sent)
}

func TestEmailNotifier_SendFailureIsContained(t *testing.T) {
	s := &fakeSender{err: errors.New("network down")}
	n := NewEmailNotifierWithSender(s, "no-reply@fixitnow.app")

	assert.NotPanics(t, func() {
		n.StatusChanged(context.Background(), resolvedIssue(), &models.User{Email: "a@example.com"})
		n.Wait()
	})
	assert.Len(t, s.sent, 1)
}

func TestLogNotifier(t *testing.T) {
	assert.NotPanics(t, func() {
		LogNotifier{}.StatusChanged(context.Background(), resolvedIssue(), nil)
	})
}
