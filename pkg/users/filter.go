package users

import (
	"net/url"

	"go.mongodb.org/mongo-driver/bson"
)

// ListFilters captures the query parameters shared by all bulk lookups.
// The defaults exclude banned and opted-out users; the include flags lift
// those exclusions. All predicates combine conjunctively.
type ListFilters struct {
	Source              string
	ExcludeNoCampaigns  bool
	IncludeBanned       bool
	IncludeUnsubscribed bool
}

// ParseListFilters reads filter parameters from a request query.
func ParseListFilters(values url.Values) ListFilters {
	return ListFilters{
		Source:              values.Get("source"),
		ExcludeNoCampaigns:  values.Get("excludeNoCampaigns") == "1",
		IncludeBanned:       values.Get("includeBanned") == "1",
		IncludeUnsubscribed: values.Get("includeUnsubscribed") == "1",
	}
}

// notBannedClause matches users with no ban record or one explicitly false.
func notBannedClause() bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"subscriptions.banned": bson.M{"$exists": false}},
		bson.M{"subscriptions.banned": false},
	}}
}

// subscribedClause matches users who have not opted out of the digest.
// An absent flag means the user never expressed a preference and counts
// as opted in.
func subscribedClause() bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"subscriptions.digest": bson.M{"$exists": false}},
		bson.M{"subscriptions.digest": true},
	}}
}

// Filter builds the find() filter document for these parameters.
func (f ListFilters) Filter() bson.M {
	filter := bson.M{}

	var disjunctions []bson.M
	if !f.IncludeBanned {
		disjunctions = append(disjunctions, notBannedClause())
	}
	if !f.IncludeUnsubscribed {
		disjunctions = append(disjunctions, subscribedClause())
	}
	switch len(disjunctions) {
	case 1:
		filter["$or"] = disjunctions[0]["$or"]
	case 2:
		filter["$and"] = disjunctions
	}

	if f.Source != "" {
		filter["source"] = f.Source
	}
	if f.ExcludeNoCampaigns {
		filter["campaigns"] = bson.M{"$exists": true}
	}
	return filter
}

// PipelineStages translates the same predicates into $match stages for
// appending to an aggregation pipeline, after the date projection.
func (f ListFilters) PipelineStages() []bson.D {
	var stages []bson.D
	if !f.IncludeBanned {
		stages = append(stages, bson.D{{Key: "$match", Value: notBannedClause()}})
	}
	if !f.IncludeUnsubscribed {
		stages = append(stages, bson.D{{Key: "$match", Value: subscribedClause()}})
	}
	if f.Source != "" {
		stages = append(stages, bson.D{{Key: "$match", Value: bson.M{"source": f.Source}}})
	}
	if f.ExcludeNoCampaigns {
		stages = append(stages, bson.D{{Key: "$match", Value: bson.M{"campaigns": bson.M{"$exists": true}}}})
	}
	return stages
}

// QueryValues re-encodes the filter parameters, so pagination links stay
// within the same filtered view.
func (f ListFilters) QueryValues() url.Values {
	values := url.Values{}
	if f.Source != "" {
		values.Set("source", f.Source)
	}
	if f.ExcludeNoCampaigns {
		values.Set("excludeNoCampaigns", "1")
	}
	if f.IncludeBanned {
		values.Set("includeBanned", "1")
	}
	if f.IncludeUnsubscribed {
		values.Set("includeUnsubscribed", "1")
	}
	return values
}
