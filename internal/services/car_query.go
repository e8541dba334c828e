package services

import (
	"math"
	"net/url"
	"regexp"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"greendrake/carads/internal/models"
)

// List query defaults and recognised values.
const (
	DefaultPage  = 1
	DefaultLimit = 5

	StatusAll = "all"

	SortLatest = "latest"
	SortOldest = "oldest"
	SortAZ     = "a-z"
	SortZA     = "z-a"
)

// ParseCarQuery normalises raw query parameters. Page and limit values that
// are not positive integers fall back to the defaults.
func ParseCarQuery(values url.Values) models.CarQuery {
	return models.CarQuery{
		Search: values.Get("search"),
		Status: values.Get("status"),
		Sort:   values.Get("sort"),
		Page:   positiveIntOr(values.Get("page"), DefaultPage),
		Limit:  positiveIntOr(values.Get("limit"), DefaultLimit),
	}
}

func positiveIntOr(raw string, def int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// BuildCarQuery turns a normalised query into an owner-scoped filter and the
// find options for the requested page.
func BuildCarQuery(ownerID primitive.ObjectID, q models.CarQuery) (bson.M, *options.FindOptions) {
	filter := bson.M{"createdBy": ownerID}
	if q.Search != "" {
		filter["carModel"] = primitive.Regex{Pattern: regexp.QuoteMeta(q.Search), Options: "i"}
	}
	if q.Status != "" && q.Status != StatusAll {
		filter["status"] = q.Status
	}

	page := q.Page
	if page <= 0 {
		page = DefaultPage
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	opts := options.Find().
		SetSort(sortFor(q.Sort)).
		SetSkip(skipFor(page, limit)).
		SetLimit(int64(limit))
	return filter, opts
}

// skipFor returns (page-1)*limit, saturating at MaxInt64 so that absurd page
// numbers yield an empty page instead of a negative skip.
func skipFor(page, limit int) int64 {
	p, l := int64(page-1), int64(limit)
	if p > 0 && p > math.MaxInt64/l {
		return math.MaxInt64
	}
	return p * l
}

// sortFor always ends in _id so that equal keys still page deterministically.
func sortFor(key string) bson.D {
	switch key {
	case SortLatest:
		return bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}
	case SortOldest:
		return bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}
	case SortAZ:
		return bson.D{{Key: "carModel", Value: 1}, {Key: "_id", Value: 1}}
	case SortZA:
		return bson.D{{Key: "carModel", Value: -1}, {Key: "_id", Value: -1}}
	default:
		return bson.D{{Key: "_id", Value: 1}}
	}
}

// PageCount returns ceil(total/limit).
func PageCount(total int64, limit int) int64 {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if total <= 0 {
		return 0
	}
	return (total-1)/int64(limit) + 1
}
