package databases

// go generate: mockery --name IssueDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fixitnow/fixitnow-api/models"
)

const issueName = "issues"

// IssueDatabase contains the methods to use with the issue database
type IssueDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Issue, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Issue, error)
	InsertOne(ctx context.Context, issue models.Issue) error
	FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}) (*models.Issue, error)
	DeleteOne(ctx context.Context, filter interface{}) (int64, error)
	DeleteMany(ctx context.Context, filter interface{}) (int64, error)
	CountDocuments(ctx context.Context, filter interface{}) (int64, error)
	Aggregate(ctx context.Context, pipeline interface{}, results interface{}) error
	EnsureIndexes(ctx context.Context) error
}

type issueDatabase struct {
	db DatabaseHelper
}

// NewIssueDatabase initializes a new instance of issue database with the provided db connection
func NewIssueDatabase(db DatabaseHelper) IssueDatabase {
	return &issueDatabase{
		db: db,
	}
}

// FindOne returns mongo.ErrNoDocuments when nothing matches
func (c *issueDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Issue, error) {
	issue := &models.Issue{}
	err := c.db.Collection(issueName).FindOne(ctx, filter).Decode(&issue)
	if err != nil {
		return nil, err
	}
	return issue, nil
}

func (c *issueDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Issue, error) {
	var issues []models.Issue
	curr, err := c.db.Collection(issueName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &issues)
	if err != nil {
		return nil, err
	}
	return issues, nil
}

func (c *issueDatabase) InsertOne(ctx context.Context, issue models.Issue) error {
	_, err := c.db.Collection(issueName).InsertOne(ctx, issue)
	return err
}

// FindOneAndUpdate applies update to the first match and returns the
// document as it is after the update.
func (c *issueDatabase) FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}) (*models.Issue, error) {
	issue := &models.Issue{}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := c.db.Collection(issueName).FindOneAndUpdate(ctx, filter, update, opts).Decode(&issue)
	if err != nil {
		return nil, err
	}
	return issue, nil
}

func (c *issueDatabase) DeleteOne(ctx context.Context, filter interface{}) (int64, error) {
	return c.db.Collection(issueName).DeleteOne(ctx, filter)
}

func (c *issueDatabase) DeleteMany(ctx context.Context, filter interface{}) (int64, error) {
	return c.db.Collection(issueName).DeleteMany(ctx, filter)
}

func (c *issueDatabase) CountDocuments(ctx context.Context, filter interface{}) (int64, error) {
	return c.db.Collection(issueName).CountDocuments(ctx, filter)
}

func (c *issueDatabase) Aggregate(ctx context.Context, pipeline interface{}, results interface{}) error {
	curr, err := c.db.Collection(issueName).Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	defer curr.Close(ctx)
	return curr.All(ctx, results)
}

// EnsureIndexes creates the indexes backing the list filters, the
// reporter lookups and the resolved-issue sweep.
func (c *issueDatabase) EnsureIndexes(ctx context.Context) error {
	return c.db.Collection(issueName).CreateIndexes(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "category", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "resolvedAt", Value: 1}}},
	})
}
