package services

import (
	"math"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"greendrake/carads/internal/models"
)

func TestParseCarQuery_Defaults(t *testing.T) {
	q := ParseCarQuery(url.Values{})
	assert.Equal(t, DefaultPage, q.Page)
	assert.Equal(t, DefaultLimit, q.Limit)
	assert.Empty(t, q.Search)
	assert.Empty(t, q.Status)
	assert.Empty(t, q.Sort)
}

func TestParseCarQuery_InvalidNumbersFallBack(t *testing.T) {
	for _, raw := range []string{"abc", "0", "-3", "1.5"} {
		q := ParseCarQuery(url.Values{"page": {raw}, "limit": {raw}})
		assert.Equal(t, DefaultPage, q.Page, raw)
		assert.Equal(t, DefaultLimit, q.Limit, raw)
	}
}

func TestParseCarQuery_Values(t *testing.T) {
	q := ParseCarQuery(url.Values{
		"search": {"golf"},
		"status": {"sold"},
		"sort":   {"a-z"},
		"page":   {"3"},
		"limit":  {"10"},
	})
	assert.Equal(t, models.CarQuery{Search: "golf", Status: "sold", Sort: "a-z", Page: 3, Limit: 10}, q)
}

func TestBuildCarQuery_OwnerAlwaysScoped(t *testing.T) {
	owner := primitive.NewObjectID()
	filter, opts := BuildCarQuery(owner, models.CarQuery{Page: 1, Limit: 5})

	assert.Equal(t, bson.M{"createdBy": owner}, filter)
	assert.Equal(t, int64(0), *opts.Skip)
	assert.Equal(t, int64(5), *opts.Limit)
	assert.Equal(t, bson.D{{Key: "_id", Value: 1}}, opts.Sort)
}

func TestBuildCarQuery_SearchIsQuotedCaseInsensitive(t *testing.T) {
	owner := primitive.NewObjectID()
	filter, _ := BuildCarQuery(owner, models.CarQuery{Search: "a.b(", Page: 1, Limit: 5})

	assert.Equal(t, primitive.Regex{Pattern: `a\.b\(`, Options: "i"}, filter["carModel"])
	assert.Equal(t, owner, filter["createdBy"])
}

func TestBuildCarQuery_StatusFilter(t *testing.T) {
	owner := primitive.NewObjectID()

	filter, _ := BuildCarQuery(owner, models.CarQuery{Status: "pending"})
	assert.Equal(t, "pending", filter["status"])

	filter, _ = BuildCarQuery(owner, models.CarQuery{Status: StatusAll})
	assert.NotContains(t, filter, "status")
}

func TestBuildCarQuery_Sorts(t *testing.T) {
	owner := primitive.NewObjectID()
	tests := map[string]bson.D{
		SortLatest: {{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}},
		SortOldest: {{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}},
		SortAZ:     {{Key: "carModel", Value: 1}, {Key: "_id", Value: 1}},
		SortZA:     {{Key: "carModel", Value: -1}, {Key: "_id", Value: -1}},
		"bogus":    {{Key: "_id", Value: 1}},
	}
	for sortKey, want := range tests {
		_, opts := BuildCarQuery(owner, models.CarQuery{Sort: sortKey})
		assert.Equal(t, want, opts.Sort, sortKey)
	}
}

func TestBuildCarQuery_Pagination(t *testing.T) {
	_, opts := BuildCarQuery(primitive.NewObjectID(), models.CarQuery{Page: 3, Limit: 7})
	assert.Equal(t, int64(14), *opts.Skip)
	assert.Equal(t, int64(7), *opts.Limit)
}

func TestBuildCarQuery_HugePageSaturates(t *testing.T) {
	q := ParseCarQuery(url.Values{"page": {"2305843009213693953"}, "limit": {"5"}})
	_, opts := BuildCarQuery(primitive.NewObjectID(), q)
	assert.Equal(t, int64(math.MaxInt64), *opts.Skip)

	q = ParseCarQuery(url.Values{"page": {"3"}, "limit": {"9223372036854775807"}})
	_, opts = BuildCarQuery(primitive.NewObjectID(), q)
	assert.Equal(t, int64(math.MaxInt64), *opts.Skip)
	assert.GreaterOrEqual(t, *opts.Skip, int64(0))
}

func TestPageCount(t *testing.T) {
	assert.Equal(t, int64(0), PageCount(0, 5))
	assert.Equal(t, int64(1), PageCount(5, 5))
	assert.Equal(t, int64(2), PageCount(6, 5))
	assert.Equal(t, int64(4), PageCount(10, 3))
	assert.Equal(t, int64(2), PageCount(6, 0))
	assert.Equal(t, int64(1), PageCount(3, math.MaxInt))
}
