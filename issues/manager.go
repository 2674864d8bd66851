// Package issues holds the grievance lifecycle: the mutations citizens and
// admins perform on an issue, the reads shaped for the caller's role, the
// dashboard aggregation and the retention sweep.
package issues

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/fixitnow/fixitnow-api/apperrors"
	"github.com/fixitnow/fixitnow-api/databases"
	"github.com/fixitnow/fixitnow-api/models"
)

// Caller is the authenticated user an operation is performed for
type Caller struct {
	ID   primitive.ObjectID
	Role models.Role
}

// IsAdmin reports whether the caller holds the admin role
func (c Caller) IsAdmin() bool {
	return c.Role == models.RoleAdmin
}

// Notifier is told about every successful status change
type Notifier interface {
	StatusChanged(ctx context.Context, issue models.Issue, reporter *models.User)
}

// Manager validates and applies every operation on the issues collection
type Manager struct {
	Issues   databases.IssueDatabase
	Users    databases.UserDatabase
	Policy   TransitionPolicy
	Notifier Notifier

	// Now stamps createdAt, updatedAt and resolvedAt
	Now func() time.Time
}

// NewManager returns a Manager using the wall clock
func NewManager(idb databases.IssueDatabase, udb databases.UserDatabase, policy TransitionPolicy, n Notifier) *Manager {
	return &Manager{
		Issues:   idb,
		Users:    udb,
		Policy:   policy,
		Notifier: n,
		Now:      time.Now,
	}
}

func (m *Manager) now() time.Time {
	clock := m.Now
	if clock == nil {
		clock = time.Now
	}
	// mongo stores milliseconds, truncate so echoes match what is persisted
	return clock().UTC().Truncate(time.Millisecond)
}

// load fetches one issue by id, mapping a miss to NotFound
func (m *Manager) load(ctx context.Context, id primitive.ObjectID) (*models.Issue, error) {
	issue, err := m.Issues.FindOne(ctx, bson.M{"_id": id})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.NewNotFound("Issue not found")
	}
	if err != nil {
		return nil, apperrors.NewInfrastructure("failed to get issue", err)
	}
	return issue, nil
}

func (m *Manager) notify(ctx context.Context, issue models.Issue) {
	if m.Notifier == nil {
		return
	}
	var reporter *models.User
	if m.Users != nil {
		u, err := m.Users.FindOne(ctx, bson.M{"_id": issue.ReporterID})
		if err != nil {
			zap.S().Warnw("failed to load reporter for notification", "issue", issue.ID.Hex(), "error", err)
		} else {
			reporter = u
		}
	}
	m.Notifier.StatusChanged(ctx, issue, reporter)
}
