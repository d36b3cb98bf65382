package utils

import (
	"net/url"
	"strconv"
	"strings"

	"device-manager/pkg/types"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// ParseFilterFromQuery разбирает search/sort[...]/filter[...]/limit/offset/page
// из query-параметров в общий Filter.
func ParseFilterFromQuery(values url.Values) types.Filter {
	filter := types.Filter{
		Search: values.Get("search"),
		Sort:   map[string]string{},
		Filter: map[string]interface{}{},
		Limit:  defaultLimit,
		Page:   1,
	}

	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}
		if strings.HasPrefix(key, "sort[") && strings.HasSuffix(key, "]") {
			field := key[len("sort[") : len(key)-1]
			filter.Sort[field] = vals[0]
		}
		if strings.HasPrefix(key, "filter[") && strings.HasSuffix(key, "]") {
			field := key[len("filter[") : len(key)-1]
			filter.Filter[field] = vals[0]
		}
	}

	if limit, err := strconv.Atoi(values.Get("limit")); err == nil && limit > 0 {
		if limit > maxLimit {
			limit = maxLimit
		}
		filter.Limit = limit
	}
	if page, err := strconv.Atoi(values.Get("page")); err == nil && page > 0 {
		filter.Page = page
	}
	if offset, err := strconv.Atoi(values.Get("offset")); err == nil && offset >= 0 {
		filter.Offset = offset
	} else {
		filter.Offset = (filter.Page - 1) * filter.Limit
	}

	if wp := values.Get("withPagination"); wp == "true" || wp == "1" {
		filter.WithPagination = true
	}

	return filter
}

func ParseUint64Slice(strs []string) ([]uint64, error) {
	ids := make([]uint64, 0, len(strs))
	for _, s := range strs {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
