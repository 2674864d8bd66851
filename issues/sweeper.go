package issues

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/fixitnow/fixitnow-api/apperrors"
	"github.com/fixitnow/fixitnow-api/databases"
	"github.com/fixitnow/fixitnow-api/models"
)

// RetentionWindow is how long a resolved issue is kept before the sweep
// deletes it
const RetentionWindow = 24 * time.Hour

// Sweeper permanently deletes resolved issues past the retention window
type Sweeper struct {
	Issues databases.IssueDatabase
	Now    func() time.Time
}

// NewSweeper returns a Sweeper using the wall clock
func NewSweeper(idb databases.IssueDatabase) *Sweeper {
	return &Sweeper{Issues: idb, Now: time.Now}
}

// Sweep deletes every issue resolved more than RetentionWindow ago and
// returns how many were removed. A sweep that finds nothing is not an
// error.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	cutoff := now().UTC().Add(-RetentionWindow)
	deleted, err := s.Issues.DeleteMany(ctx, bson.M{
		"status":     models.StatusResolved,
		"resolvedAt": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, apperrors.NewInfrastructure("cleanup sweep failed", err)
	}
	return deleted, nil
}
