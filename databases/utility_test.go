package databases

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestNewestFirstPage(t *testing.T) {
	opts := NewestFirstPage(10, 3)

	assert.Equal(t, int64(10), *opts.Limit)
	assert.Equal(t, int64(20), *opts.Skip)
	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}}, opts.Sort)
}

func TestNewestFirstPageClampsPage(t *testing.T) {
	opts := NewestFirstPage(10, 0)

	assert.Equal(t, int64(0), *opts.Skip)
}

func TestNewestFirst(t *testing.T) {
	opts := NewestFirst()

	assert.Nil(t, opts.Limit)
	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}}, opts.Sort)
}
