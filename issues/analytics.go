package issues

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/fixitnow/fixitnow-api/apperrors"
	"github.com/fixitnow/fixitnow-api/databases"
	"github.com/fixitnow/fixitnow-api/models"
)

// NoResolutionTime is reported while no issue has been resolved
const NoResolutionTime = "N/A"

const day = 24 * time.Hour

// Aggregator computes the admin dashboard over the issues collection
type Aggregator struct {
	Issues databases.IssueDatabase
}

// NewAggregator returns an Aggregator reading from idb
func NewAggregator(idb databases.IssueDatabase) *Aggregator {
	return &Aggregator{Issues: idb}
}

type totals struct {
	Total    int64 `bson:"total"`
	Resolved int64 `bson:"resolved"`
	Pending  int64 `bson:"pending"`
}

type resolution struct {
	Count int64   `bson:"count"`
	AvgMs float64 `bson:"avgMs"`
}

type dashboardFacets struct {
	Totals     []totals              `bson:"totals"`
	Categories []models.CategoryStat `bson:"categories"`
	Resolution []resolution          `bson:"resolution"`
}

func statusCount(s models.Status) bson.M {
	return bson.M{"$sum": bson.M{"$cond": bson.A{bson.M{"$eq": bson.A{"$status", s}}, 1, 0}}}
}

// dashboardPipeline computes every figure of the dashboard in one pass
func dashboardPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$facet", Value: bson.D{
			{Key: "totals", Value: bson.A{
				bson.M{"$group": bson.M{
					"_id":      nil,
					"total":    bson.M{"$sum": 1},
					"resolved": statusCount(models.StatusResolved),
					"pending":  statusCount(models.StatusPending),
				}},
			}},
			{Key: "categories", Value: bson.A{
				bson.M{"$group": bson.M{"_id": "$category", "count": bson.M{"$sum": 1}}},
				bson.M{"$sort": bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}},
			}},
			{Key: "resolution", Value: bson.A{
				bson.M{"$match": bson.M{"status": models.StatusResolved, "resolvedAt": bson.M{"$type": "date"}}},
				bson.M{"$group": bson.M{
					"_id":   nil,
					"count": bson.M{"$sum": 1},
					"avgMs": bson.M{"$avg": bson.M{"$subtract": bson.A{"$resolvedAt", "$createdAt"}}},
				}},
			}},
		}}},
	}
}

// Dashboard returns the current snapshot. It only reads.
func (a *Aggregator) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	var facets []dashboardFacets
	if err := a.Issues.Aggregate(ctx, dashboardPipeline(), &facets); err != nil {
		return nil, apperrors.NewInfrastructure("Analytics Error", err)
	}
	var f dashboardFacets
	if len(facets) > 0 {
		f = facets[0]
	}
	stats := summarize(f)
	return &stats, nil
}

func summarize(f dashboardFacets) models.DashboardStats {
	stats := models.DashboardStats{
		CategoryStats:     f.Categories,
		AvgResolutionTime: NoResolutionTime,
	}
	if stats.CategoryStats == nil {
		stats.CategoryStats = []models.CategoryStat{}
	}
	if len(f.Totals) > 0 {
		stats.TotalIssues = f.Totals[0].Total
		stats.ResolvedIssues = f.Totals[0].Resolved
		stats.PendingIssues = f.Totals[0].Pending
	}
	if len(f.Resolution) > 0 && f.Resolution[0].Count > 0 {
		avg := time.Duration(f.Resolution[0].AvgMs * float64(time.Millisecond))
		stats.AvgResolutionTime = FormatResolutionTime(avg)
	}
	return stats
}

// FormatResolutionTime renders d as a number of days with two decimals
func FormatResolutionTime(d time.Duration) string {
	return fmt.Sprintf("%.2f days", float64(d)/float64(day))
}
