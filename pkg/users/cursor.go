package users

import (
	"net/url"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Direction is a cursor traversal direction over the _id order.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// CursorQuery is a resolved cursor-pagination request. Offset pagination
// drifts when the collection mutates between page fetches; anchoring each
// page to the last-seen ObjectID keeps traversal stable under concurrent
// inserts.
type CursorQuery struct {
	PageSize  int
	Direction Direction
	MinID     primitive.ObjectID
	HasMinID  bool
	MaxID     primitive.ObjectID
	HasMaxID  bool
	Filters   ListFilters

	// Collection boundaries supplied by the caller, sparing the boundary
	// lookups when present.
	KnownBounds    CollectionBounds
	HasKnownBounds bool
}

// CollectionBounds are the smallest and largest _id in the filtered view.
type CollectionBounds struct {
	MinID primitive.ObjectID
	MaxID primitive.ObjectID
	Empty bool
}

// ResolveCursorQuery parses cursor parameters. Direction resolution, in
// priority order: min_id forces descending and an id < min_id bound; max_id
// forces ascending and an id > max_id bound; an explicit direction param is
// honored next; ascending is the default. pageSize is required.
func ResolveCursorQuery(values url.Values, filters ListFilters) (CursorQuery, error) {
	q := CursorQuery{Filters: filters, Direction: Ascending}

	raw := values.Get("pageSize")
	if raw == "" {
		return CursorQuery{}, NewClientError("pageSize is required for cursor requests")
	}
	pageSize, err := strconv.Atoi(raw)
	if err != nil || pageSize < 1 {
		return CursorQuery{}, NewClientError("invalid pageSize %q", raw)
	}
	q.PageSize = pageSize

	switch {
	case values.Get("min_id") != "":
		id, err := primitive.ObjectIDFromHex(values.Get("min_id"))
		if err != nil {
			return CursorQuery{}, NewClientError("invalid min_id %q", values.Get("min_id"))
		}
		q.MinID = id
		q.HasMinID = true
		q.Direction = Descending
	case values.Get("max_id") != "":
		id, err := primitive.ObjectIDFromHex(values.Get("max_id"))
		if err != nil {
			return CursorQuery{}, NewClientError("invalid max_id %q", values.Get("max_id"))
		}
		q.MaxID = id
		q.HasMaxID = true
		q.Direction = Ascending
	case values.Get("direction") != "":
		switch values.Get("direction") {
		case "asc", "ascending":
			q.Direction = Ascending
		case "desc", "descending":
			q.Direction = Descending
		default:
			return CursorQuery{}, NewClientError("invalid direction %q", values.Get("direction"))
		}
	}

	if rawMin, rawMax := values.Get("collection_min_id"), values.Get("collection_max_id"); rawMin != "" && rawMax != "" {
		minID, errMin := primitive.ObjectIDFromHex(rawMin)
		maxID, errMax := primitive.ObjectIDFromHex(rawMax)
		if errMin != nil || errMax != nil {
			return CursorQuery{}, NewClientError("invalid collection boundary ids")
		}
		q.KnownBounds = CollectionBounds{MinID: minID, MaxID: maxID}
		q.HasKnownBounds = true
	}

	return q, nil
}

// Filter builds the find() filter: the list-filter predicates plus the
// cursor's id bound.
func (q CursorQuery) Filter() bson.M {
	filter := q.Filters.Filter()
	if q.HasMinID {
		filter["_id"] = bson.M{"$lt": q.MinID}
	} else if q.HasMaxID {
		filter["_id"] = bson.M{"$gt": q.MaxID}
	}
	return filter
}

// Sort returns the _id sort document for the resolved direction.
func (q CursorQuery) Sort() bson.D {
	order := 1
	if q.Direction == Descending {
		order = -1
	}
	return bson.D{{Key: "_id", Value: order}}
}

// CursorResult is what the repository hands back for one cursor page.
type CursorResult struct {
	Users   []User
	Bounds  CollectionBounds
	Elapsed time.Duration
}

// CursorMeta is the pagination metadata attached to a cursor page. MinID
// and MaxID are absent for an empty page.
type CursorMeta struct {
	MinID           string    `json:"min_id,omitempty"`
	MaxID           string    `json:"max_id,omitempty"`
	PageSize        int       `json:"page_size"`
	Direction       Direction `json:"direction"`
	QueryTimeMS     int64     `json:"query_time_ms"`
	CollectionMinID string    `json:"collection_min_id,omitempty"`
	CollectionMaxID string    `json:"collection_max_id,omitempty"`
	PreviousPageURL string    `json:"previous_page_url,omitempty"`
	NextPageURL     string    `json:"next_page_url,omitempty"`
}

// BuildCursorMeta assembles page metadata and navigation links. A previous
// link is emitted only when the page's smallest id is not the collection
// minimum, and a next link only when its largest id is not the collection
// maximum. Links carry the filter parameters so paging stays within the
// same filtered view. An empty page degrades gracefully: no boundary ids,
// no links.
func BuildCursorMeta(q CursorQuery, result *CursorResult, basePath string) CursorMeta {
	meta := CursorMeta{
		PageSize:    q.PageSize,
		Direction:   q.Direction,
		QueryTimeMS: result.Elapsed.Milliseconds(),
	}
	if !result.Bounds.Empty {
		meta.CollectionMinID = result.Bounds.MinID.Hex()
		meta.CollectionMaxID = result.Bounds.MaxID.Hex()
	}
	if len(result.Users) == 0 {
		return meta
	}

	first := result.Users[0].ID
	last := result.Users[len(result.Users)-1].ID
	pageMin, pageMax := first, last
	if q.Direction == Descending {
		pageMin, pageMax = last, first
	}
	meta.MinID = pageMin.Hex()
	meta.MaxID = pageMax.Hex()

	if result.Bounds.Empty {
		return meta
	}
	if pageMin != result.Bounds.MinID {
		meta.PreviousPageURL = cursorPageURL(basePath, q, "min_id", pageMin, result.Bounds)
	}
	if pageMax != result.Bounds.MaxID {
		meta.NextPageURL = cursorPageURL(basePath, q, "max_id", pageMax, result.Bounds)
	}
	return meta
}

func cursorPageURL(basePath string, q CursorQuery, anchorParam string, anchor primitive.ObjectID, bounds CollectionBounds) string {
	values := q.Filters.QueryValues()
	values.Set("type", "cursor")
	values.Set("pageSize", strconv.Itoa(q.PageSize))
	values.Set(anchorParam, anchor.Hex())
	values.Set("collection_min_id", bounds.MinID.Hex())
	values.Set("collection_max_id", bounds.MaxID.Hex())
	return basePath + "?" + values.Encode()
}
