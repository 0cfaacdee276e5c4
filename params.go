package tokenapi

import (
	"net/url"
	"strconv"
	"time"

	"github.com/yourorg/tokenapi/internal/fetch"
	"github.com/yourorg/tokenapi/internal/validation"
	"github.com/yourorg/tokenapi/types"
)

const (
	DefaultLimit        = 10
	DefaultHistoryLimit = 24
	DefaultHistoryDays  = 1
	MaxLimit            = validation.MaxLimit
)

// Pagination selects a page of a list endpoint. Zero values mean limit 10
// (24 for price series) and page 1.
type Pagination struct {
	Limit int
	Page  int
}

func (p Pagination) resolve(defaultLimit int) (limit, page int) {
	limit, page = p.Limit, p.Page
	if limit == 0 {
		limit = defaultLimit
	}
	if page == 0 {
		page = 1
	}
	return limit, page
}

// TimeRange bounds a query by block time. Either side may be zero.
// When both are set Start must not be after End.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Ordering sorts list results. The zero value is newest first by timestamp.
type Ordering struct {
	By        types.OrderBy
	Direction types.OrderDirection
}

func (o Ordering) resolve() Ordering {
	if o.By == "" {
		o.By = types.OrderByTimestamp
	}
	if o.Direction == "" {
		o.Direction = types.OrderDesc
	}
	return o
}

// query collects URL parameters, skipping empty values
type query url.Values

func (q query) str(key, v string) query {
	if v != "" {
		url.Values(q).Set(key, v)
	}
	return q
}

func (q query) num(key string, v int) query {
	url.Values(q).Set(key, strconv.Itoa(v))
	return q
}

func (q query) timeRange(r TimeRange) query {
	if !r.Start.IsZero() {
		url.Values(q).Set(fetch.KeyStartTime, strconv.FormatInt(r.Start.Unix(), 10))
	}
	if !r.End.IsZero() {
		url.Values(q).Set(fetch.KeyEndTime, strconv.FormatInt(r.End.Unix(), 10))
	}
	return q
}

func (q query) order(o Ordering) query {
	return q.str(fetch.KeyOrderBy, string(o.By)).str(fetch.KeyOrderDirection, string(o.Direction))
}

func (q query) page(network string, limit, page int) query {
	return q.str(fetch.KeyNetwork, network).num(fetch.KeyLimit, limit).num(fetch.KeyPage, page)
}

func (q query) values() url.Values { return url.Values(q) }

// pagingErr validates resolved pagination
func pagingErr(limit, page int) error {
	return validation.First(validation.Limit(limit), validation.Page(page))
}

func orderErr(o Ordering) error {
	return validation.First(
		validation.Enum("orderBy", o.By),
		validation.Enum("orderDirection", o.Direction),
	)
}
