package users

import (
	"net/url"
	"strconv"
)

// OffsetDefaults are the limits applied when a list request omits paging
// parameters.
type OffsetDefaults struct {
	Limit    int
	PageSize int
}

// OffsetPage is a resolved offset-pagination window.
type OffsetPage struct {
	Page     int
	PageSize int
	Limit    int
	Skip     int
}

// ResolveOffsetPage resolves page, pageSize, and limit from the request
// query. Rules:
//   - page defaults to 1; values below 1 clamp to 1
//   - pageSize without page is a client error
//   - pageSize caps limit once pagination is active
//   - skip is (page-1)*pageSize
func ResolveOffsetPage(values url.Values, defaults OffsetDefaults) (OffsetPage, error) {
	page := 1
	pageSet := false
	if raw := values.Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return OffsetPage{}, NewClientError("invalid page %q", raw)
		}
		if parsed < 1 {
			parsed = 1
		}
		page = parsed
		pageSet = true
	}

	pageSize := defaults.PageSize
	pageSizeSet := false
	if raw := values.Get("pageSize"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return OffsetPage{}, NewClientError("invalid pageSize %q", raw)
		}
		if !pageSet {
			return OffsetPage{}, NewClientError("page is required when pageSize is set")
		}
		pageSize = parsed
		pageSizeSet = true
	}

	limit := defaults.Limit
	limitSet := false
	if raw := values.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return OffsetPage{}, NewClientError("invalid limit %q", raw)
		}
		limit = parsed
		limitSet = true
	}

	if pageSizeSet {
		if !limitSet || limit > pageSize {
			limit = pageSize
		}
	}

	return OffsetPage{
		Page:     page,
		PageSize: pageSize,
		Limit:    limit,
		Skip:     (page - 1) * pageSize,
	}, nil
}
