package users

import (
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// DateField names a stored timestamp field usable for date-component
// lookups.
type DateField string

const (
	FieldBirthdate          DateField = "birthdate"
	FieldDrupalRegisterDate DateField = "drupal_register_date"
)

// DateSpec is a parsed MM-DD or MM-DD-YYYY lookup. Months are 1-indexed,
// matching both calendar convention and the stored form.
type DateSpec struct {
	Month   int
	Day     int
	Year    int
	HasYear bool
}

// ParseDateSpec parses a date spec string. Anything other than two or three
// dash-separated numeric segments is a client error; no query is issued for
// malformed specs.
func ParseDateSpec(spec string) (DateSpec, error) {
	segments := strings.Split(spec, "-")
	if len(segments) != 2 && len(segments) != 3 {
		return DateSpec{}, NewClientError("date spec must be MM-DD or MM-DD-YYYY, got %q", spec)
	}

	month, err := strconv.Atoi(segments[0])
	if err != nil || month < 1 || month > 12 {
		return DateSpec{}, NewClientError("invalid month in date spec %q", spec)
	}
	day, err := strconv.Atoi(segments[1])
	if err != nil || day < 1 || day > 31 {
		return DateSpec{}, NewClientError("invalid day in date spec %q", spec)
	}

	parsed := DateSpec{Month: month, Day: day}
	if len(segments) == 3 {
		year, err := strconv.Atoi(segments[2])
		if err != nil || year < 1 {
			return DateSpec{}, NewClientError("invalid year in date spec %q", spec)
		}
		parsed.Year = year
		parsed.HasYear = true
	}
	return parsed, nil
}

// DatePipeline builds the aggregation pipeline for a date-component lookup
// on field. Stage order: require the field, project the date components
// alongside passthrough identity fields, match the requested components,
// then sort ascending by year when the spec has none (recurring
// anniversaries come back chronologically). The list filters are appended
// last as additional match stages. $month and $dayOfMonth are 1-indexed, so
// the projected components need no adjustment.
func DatePipeline(field DateField, spec DateSpec, filters ListFilters) mongo.Pipeline {
	name := string(field)

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{name: bson.M{"$exists": true}}}},
		bson.D{{Key: "$project", Value: bson.M{
			"email":         1,
			"first_name":    1,
			"last_name":     1,
			"source":        1,
			"campaigns":     1,
			"subscriptions": 1,
			name:            1,
			"month":         bson.M{"$month": "$" + name},
			"day":           bson.M{"$dayOfMonth": "$" + name},
			"year":          bson.M{"$year": "$" + name},
		}}},
	}

	match := bson.M{"month": spec.Month, "day": spec.Day}
	if spec.HasYear {
		match["year"] = spec.Year
	}
	pipeline = append(pipeline, bson.D{{Key: "$match", Value: match}})

	if !spec.HasYear {
		pipeline = append(pipeline, bson.D{{Key: "$sort", Value: bson.D{{Key: "year", Value: 1}}}})
	}

	return append(pipeline, filters.PipelineStages()...)
}
