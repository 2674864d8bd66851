package databases

// go generate: mockery --name InfoDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fixitnow/fixitnow-api/models"
)

const infoName = "infos"

// InfoDatabase contains the methods to use with the info database
type InfoDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Info, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Info, error)
	InsertOne(ctx context.Context, info models.Info) error
	FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}) (*models.Info, error)
	DeleteOne(ctx context.Context, filter interface{}) (int64, error)
}

type infoDatabase struct {
	db DatabaseHelper
}

// NewInfoDatabase initializes a new instance of info database with the provided db connection
func NewInfoDatabase(db DatabaseHelper) InfoDatabase {
	return &infoDatabase{
		db: db,
	}
}

func (c *infoDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Info, error) {
	info := &models.Info{}
	err := c.db.Collection(infoName).FindOne(ctx, filter).Decode(&info)
	if err != nil {
		return nil, err
	}
	return info, nil
}

func (c *infoDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Info, error) {
	var infos []models.Info
	curr, err := c.db.Collection(infoName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &infos)
	if err != nil {
		return nil, err
	}
	return infos, nil
}

func (c *infoDatabase) InsertOne(ctx context.Context, info models.Info) error {
	_, err := c.db.Collection(infoName).InsertOne(ctx, info)
	return err
}

func (c *infoDatabase) FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}) (*models.Info, error) {
	info := &models.Info{}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := c.db.Collection(infoName).FindOneAndUpdate(ctx, filter, update, opts).Decode(&info)
	if err != nil {
		return nil, err
	}
	return info, nil
}

func (c *infoDatabase) DeleteOne(ctx context.Context, filter interface{}) (int64, error) {
	return c.db.Collection(infoName).DeleteOne(ctx, filter)
}
