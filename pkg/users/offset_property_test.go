package users

import (
	"net/url"
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestOffsetPageProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("skip is always (page-1)*pageSize", prop.ForAll(
		func(page, pageSize int) bool {
			values := url.Values{}
			values.Set("page", strconv.Itoa(page))
			values.Set("pageSize", strconv.Itoa(pageSize))

			resolved, err := ResolveOffsetPage(values, testDefaults)
			if err != nil {
				return false
			}
			return resolved.Skip == (resolved.Page-1)*resolved.PageSize
		},
		gen.IntRange(1, 10000),
		gen.IntRange(1, 1000),
	))

	properties.Property("limit never exceeds pageSize when pageSize is set", prop.ForAll(
		func(page, pageSize, limit int) bool {
			values := url.Values{}
			values.Set("page", strconv.Itoa(page))
			values.Set("pageSize", strconv.Itoa(pageSize))
			values.Set("limit", strconv.Itoa(limit))

			resolved, err := ResolveOffsetPage(values, testDefaults)
			if err != nil {
				return false
			}
			return resolved.Limit <= resolved.PageSize
		},
		gen.IntRange(1, 10000),
		gen.IntRange(1, 1000),
		gen.IntRange(1, 10000),
	))

	properties.Property("resolved page is never below 1", prop.ForAll(
		func(page int) bool {
			values := url.Values{}
			values.Set("page", strconv.Itoa(page))

			resolved, err := ResolveOffsetPage(values, testDefaults)
			if err != nil {
				return false
			}
			return resolved.Page >= 1 && resolved.Skip >= 0
		},
		gen.IntRange(-10000, 10000),
	))

	properties.TestingRun(t)
}
