// Package logquery translates validated log filters into MongoDB queries.
//
// Two shapes are built here:
//   - range queries for findLogs: timestamp in [start, end) plus optional
//     literal substring filters and an exact login-name filter
//   - the scan query: every document, newest identity first, used only to
//     page through the whole collection
//
// Filter strings are escaped before they become regular expressions, so a
// filter always means "contains this text" and never a pattern.
package logquery

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/dalemusser/stratalog/internal/app/system/apperr"
	"github.com/dalemusser/stratalog/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultScanPageSize is the page size of a full-collection scan.
const DefaultScanPageSize = 100

// Query is a find against the logs collection in driver form.
type Query struct {
	Filter     bson.D
	Sort       bson.D // nil means store order
	Limit      int64  // 0 means no limit
	Projection bson.D // nil means whole documents
}

// RangeRequest is the raw findLogs input. Optional filters are nil when the
// parameter was absent; an empty string present in the request still filters.
type RangeRequest struct {
	Start       string
	End         string
	DeviceOS    *string
	DeviceInfo  *string
	UserMessage *string
	UserName    *string
}

// Range is a validated RangeRequest.
type Range struct {
	Start       float64
	End         float64
	DeviceOS    *string
	DeviceInfo  *string
	UserMessage *string
	UserName    *string
}

// ParseRange validates req. Bounds must be finite numbers with start <= end.
func ParseRange(req RangeRequest) (Range, error) {
	if req.Start == "" || req.End == "" {
		return Range{}, apperr.Validation("Missing Request Fields")
	}
	start, ok := parseBound(req.Start)
	if !ok {
		return Range{}, apperr.Validation("Bad Timestamp Values.")
	}
	end, ok := parseBound(req.End)
	if !ok {
		return Range{}, apperr.Validation("Bad Timestamp Values.")
	}
	if start > end {
		return Range{}, apperr.Validation("Bad Timestamp Values.")
	}
	return Range{
		Start:       start,
		End:         end,
		DeviceOS:    req.DeviceOS,
		DeviceInfo:  req.DeviceInfo,
		UserMessage: req.UserMessage,
		UserName:    req.UserName,
	}, nil
}

func parseBound(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Selector returns the conjunctive filter for r. The timestamp bound is
// half-open: start inclusive, end exclusive.
func (r Range) Selector() bson.D {
	sel := bson.D{
		{Key: models.FieldTimestamp, Value: bson.D{
			{Key: "$gte", Value: r.Start},
			{Key: "$lt", Value: r.End},
		}},
	}
	if r.DeviceOS != nil {
		sel = append(sel, bson.E{Key: models.FieldOS, Value: Contains(*r.DeviceOS, true)})
	}
	if r.DeviceInfo != nil {
		sel = append(sel, bson.E{Key: models.FieldDeviceInfo, Value: Contains(*r.DeviceInfo, false)})
	}
	if r.UserMessage != nil {
		sel = append(sel, bson.E{Key: models.FieldUserMessage, Value: Contains(*r.UserMessage, false)})
	}
	if r.UserName != nil {
		sel = append(sel, bson.E{Key: models.FieldLoginName, Value: bson.D{{Key: "$eq", Value: *r.UserName}}})
	}
	return sel
}

// Contains returns a regex matching any string containing s literally.
func Contains(s string, caseInsensitive bool) primitive.Regex {
	re := primitive.Regex{Pattern: regexp.QuoteMeta(s)}
	if caseInsensitive {
		re.Options = "i"
	}
	return re
}

// ListProjection includes every listed field and so leaves out the payload.
func ListProjection() bson.D {
	p := make(bson.D, 0, len(models.ListedFields))
	for _, f := range models.ListedFields {
		p = append(p, bson.E{Key: f, Value: 1})
	}
	return p
}

// RangeQuery is a single bounded find for r returning at most limit records.
func RangeQuery(r Range, limit int64) Query {
	return Query{
		Filter:     r.Selector(),
		Limit:      limit,
		Projection: ListProjection(),
	}
}

// RangePage is one page of r in identity-descending order, for bookmark paging.
func RangePage(r Range, pageSize int64) Query {
	q := RangeQuery(r, pageSize)
	q.Sort = IdentityDesc()
	return q
}

// ScanQuery selects every document, newest identity first. Identities are
// non-empty strings, so "greater than the empty string" matches all of them.
func ScanQuery(pageSize int64) Query {
	if pageSize <= 0 {
		pageSize = DefaultScanPageSize
	}
	return Query{
		Filter: bson.D{{Key: models.FieldID, Value: bson.D{{Key: "$gt", Value: ""}}}},
		Sort:   IdentityDesc(),
		Limit:  pageSize,
	}
}

// IdentityDesc sorts by _id, newest first.
func IdentityDesc() bson.D {
	return bson.D{{Key: models.FieldID, Value: -1}}
}
