package databases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/fixitnow/fixitnow-api/config"
	"github.com/fixitnow/fixitnow-api/databases"
	"github.com/fixitnow/fixitnow-api/databases/mocks"
	"github.com/fixitnow/fixitnow-api/models"
)

func TestNewIssueDatabase(t *testing.T) {
	t.Setenv("DB_URI", "mongodb://127.0.0.1:27017")
	t.Setenv("DB_NAME", "test")
	conf := config.New()

	dbClient, err := databases.NewClient(conf)
	assert.NoError(t, err)

	db := databases.NewDatabase(conf, dbClient)

	issueDB := databases.NewIssueDatabase(db)

	assert.NotEmpty(t, issueDB)
}

func TestIssueDatabase_FindOne(t *testing.T) {
	id := primitive.NewObjectID()

	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	srHelperErr := &mocks.SingleResultHelper{}
	srHelperCorrect := &mocks.SingleResultHelper{}

	srHelperErr.On("Decode", mock.Anything).Return(mongo.ErrNoDocuments)

	srHelperCorrect.On("Decode", mock.Anything).
		Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Issue)
		(*arg).ID = id
		(*arg).Title = "Pothole on 5th"
	})

	collectionHelper.On("FindOne", context.Background(), bson.M{"error": true}).Return(srHelperErr)
	collectionHelper.On("FindOne", context.Background(), bson.M{"error": false}).Return(srHelperCorrect)

	dbHelper.On("Collection", "issues").Return(collectionHelper)

	issueDB := databases.NewIssueDatabase(dbHelper)

	issue, err := issueDB.FindOne(context.Background(), bson.M{"error": true})

	assert.Nil(t, issue)
	assert.ErrorIs(t, err, mongo.ErrNoDocuments)

	issue, err = issueDB.FindOne(context.Background(), bson.M{"error": false})

	assert.NoError(t, err)
	assert.Equal(t, &models.Issue{ID: id, Title: "Pothole on 5th"}, issue)
}

func TestIssueDatabase_Find(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	cursorCorrect := &mocks.CursorHelper{}

	cursorCorrect.On("All", context.Background(), mock.Anything).
		Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(1).(*[]models.Issue)
		*arg = []models.Issue{{Title: "first"}, {Title: "second"}}
	})
	cursorCorrect.On("Close", context.Background()).Return(nil)

	opts := databases.NewestFirstPage(10, 1)

	collectionHelper.On("Find", context.Background(), bson.M{"error": true}, opts).
		Return(nil, errors.New("mocked-error"))
	collectionHelper.On("Find", context.Background(), bson.M{"error": false}, opts).
		Return(cursorCorrect, nil)

	dbHelper.On("Collection", "issues").Return(collectionHelper)

	issueDB := databases.NewIssueDatabase(dbHelper)

	issues, err := issueDB.Find(context.Background(), bson.M{"error": true}, opts)

	assert.Empty(t, issues)
	assert.EqualError(t, err, "mocked-error")

	issues, err = issueDB.Find(context.Background(), bson.M{"error": false}, opts)

	assert.NoError(t, err)
	assert.Len(t, issues, 2)
	cursorCorrect.AssertCalled(t, "Close", context.Background())
}

func TestIssueDatabase_InsertOne(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	ok := models.Issue{ID: primitive.NewObjectID(), Title: "ok"}
	bad := models.Issue{ID: primitive.NewObjectID(), Title: "bad"}

	collectionHelper.On("InsertOne", context.Background(), ok).Return(ok.ID, nil)
	collectionHelper.On("InsertOne", context.Background(), bad).Return(nil, errors.New("mocked-error"))
	dbHelper.On("Collection", "issues").Return(collectionHelper)

	issueDB := databases.NewIssueDatabase(dbHelper)

	assert.NoError(t, issueDB.InsertOne(context.Background(), ok))
	assert.EqualError(t, issueDB.InsertOne(context.Background(), bad), "mocked-error")
}

func TestIssueDatabase_FindOneAndUpdate(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	srHelperCorrect := &mocks.SingleResultHelper{}
	srHelperMissing := &mocks.SingleResultHelper{}

	srHelperCorrect.On("Decode", mock.Anything).
		Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Issue)
		(*arg).Status = models.StatusInProgress
	})
	srHelperMissing.On("Decode", mock.Anything).Return(mongo.ErrNoDocuments)

	update := bson.M{"$set": bson.M{"status": models.StatusInProgress}}

	collectionHelper.On("FindOneAndUpdate", context.Background(), bson.M{"match": true}, update, mock.Anything).
		Return(srHelperCorrect)
	collectionHelper.On("FindOneAndUpdate", context.Background(), bson.M{"match": false}, update, mock.Anything).
		Return(srHelperMissing)
	dbHelper.On("Collection", "issues").Return(collectionHelper)

	issueDB := databases.NewIssueDatabase(dbHelper)

	issue, err := issueDB.FindOneAndUpdate(context.Background(), bson.M{"match": true}, update)
	assert.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, issue.Status)

	issue, err = issueDB.FindOneAndUpdate(context.Background(), bson.M{"match": false}, update)
	assert.Nil(t, issue)
	assert.ErrorIs(t, err, mongo.ErrNoDocuments)
}

func TestIssueDatabase_Deletes(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	collectionHelper.On("DeleteOne", context.Background(), bson.M{"_id": 1}).Return(int64(1), nil)
	collectionHelper.On("DeleteMany", context.Background(), bson.M{"status": models.StatusResolved}).Return(int64(3), nil)
	dbHelper.On("Collection", "issues").Return(collectionHelper)

	issueDB := databases.NewIssueDatabase(dbHelper)

	n, err := issueDB.DeleteOne(context.Background(), bson.M{"_id": 1})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = issueDB.DeleteMany(context.Background(), bson.M{"status": models.StatusResolved})
	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestIssueDatabase_CountDocuments(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	collectionHelper.On("CountDocuments", context.Background(), bson.M{}).Return(int64(42), nil)
	dbHelper.On("Collection", "issues").Return(collectionHelper)

	issueDB := databases.NewIssueDatabase(dbHelper)

	n, err := issueDB.CountDocuments(context.Background(), bson.M{})
	assert.NoError(t, err)
	assert.Equal(t, int64(42), n)
}

func TestIssueDatabase_Aggregate(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	cursor := &mocks.CursorHelper{}

	pipeline := mongo.Pipeline{{{Key: "$match", Value: bson.M{}}}}

	cursor.On("All", context.Background(), mock.Anything).
		Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(1).(*[]models.CategoryStat)
		*arg = []models.CategoryStat{{Category: models.CategoryPothole, Count: 2}}
	})
	cursor.On("Close", context.Background()).Return(nil)

	collectionHelper.On("Aggregate", context.Background(), pipeline).Return(cursor, nil)
	collectionHelper.On("Aggregate", context.Background(), mongo.Pipeline{}).Return(nil, errors.New("mocked-error"))
	dbHelper.On("Collection", "issues").Return(collectionHelper)

	issueDB := databases.NewIssueDatabase(dbHelper)

	var stats []models.CategoryStat
	assert.NoError(t, issueDB.Aggregate(context.Background(), pipeline, &stats))
	assert.Equal(t, []models.CategoryStat{{Category: models.CategoryPothole, Count: 2}}, stats)

	assert.EqualError(t, issueDB.Aggregate(context.Background(), mongo.Pipeline{}, &stats), "mocked-error")
}

func TestIssueDatabase_EnsureIndexes(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	collectionHelper.On("CreateIndexes", context.Background(), mock.MatchedBy(func(m []mongo.IndexModel) bool {
		return len(m) == 3
	})).Return(nil)
	dbHelper.On("Collection", "issues").Return(collectionHelper)

	issueDB := databases.NewIssueDatabase(dbHelper)

	assert.NoError(t, issueDB.EnsureIndexes(context.Background()))
}
