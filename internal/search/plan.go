// Package search turns raw listing query parameters into a normalized filter
// plan and caches the results of executing it.
package search

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"estatehub/internal/models"
)

const (
	DefaultLimit = 9
	MaxLimit     = 100
	DefaultPage  = 1
	DefaultSort  = "createdAt"

	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// Query parameter names accepted by the listing search.
const (
	ParamLimit     = "limit"
	ParamPage      = "page"
	ParamParking   = "parking"
	ParamOffer     = "offer"
	ParamFurnished = "furnished"
	ParamType      = "type"
	ParamSearch    = "search"
	ParamSort      = "sort"
	ParamOrder     = "order"
	ParamMaxPrice  = "maxPrice"
)

// TriState is a boolean filter that may also match either value.
type TriState int

const (
	Either TriState = iota
	OnlyTrue
	OnlyFalse
)

func (t TriState) Match(v bool) bool {
	switch t {
	case OnlyTrue:
		return v
	case OnlyFalse:
		return !v
	default:
		return true
	}
}

func (t TriState) String() string {
	switch t {
	case OnlyTrue:
		return "true"
	case OnlyFalse:
		return "false"
	default:
		return "either"
	}
}

// Plan is the normalized form of one search request.
type Plan struct {
	Search    string
	Types     []string
	Furnished TriState
	Offer     TriState
	Parking   TriState
	MaxPrice  *float64
	SortField string
	SortDesc  bool
	Page      int
	Limit     int
}

// Skip is the number of matching listings before the requested page. It
// saturates at math.MaxInt instead of wrapping for absurd page numbers.
func (p Plan) Skip() int {
	if p.Page <= 1 || p.Limit <= 0 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Limit
}

func (p Plan) Order() string {
	if p.SortDesc {
		return OrderDesc
	}
	return OrderAsc
}

// BuildPlan normalizes raw query values. It never fails: unparseable values
// fall back to their permissive defaults.
func BuildPlan(q url.Values) Plan {
	p := Plan{
		Search:    q.Get(ParamSearch),
		Types:     parseTypes(q.Get(ParamType)),
		Furnished: ParseTriState(q.Get(ParamFurnished)),
		Offer:     ParseTriState(q.Get(ParamOffer)),
		Parking:   ParseTriState(q.Get(ParamParking)),
		MaxPrice:  parseMaxPrice(q.Get(ParamMaxPrice)),
		SortField: q.Get(ParamSort),
		SortDesc:  !isAscending(q.Get(ParamOrder)),
		Page:      parsePositive(q.Get(ParamPage), DefaultPage),
		Limit:     min(parsePositive(q.Get(ParamLimit), DefaultLimit), MaxLimit),
	}
	if p.SortField == "" {
		p.SortField = DefaultSort
	}
	return p
}

// ParseTriState maps "true"/"1" and "false"/"0" to a fixed value; anything else,
// including "", "undefined" and "all", matches both.
func ParseTriState(raw string) TriState {
	switch raw {
	case "true", "1":
		return OnlyTrue
	case "false", "0":
		return OnlyFalse
	default:
		return Either
	}
}

func parseTypes(raw string) []string {
	switch raw {
	case "", "undefined", "all":
		return []string{models.ListingTypeSale, models.ListingTypeRent}
	default:
		// not checked against the known types: an unknown one just matches nothing
		return []string{raw}
	}
}

func parseMaxPrice(raw string) *float64 {
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	// NaN/Inf не фильтр: NaN не совпал бы ни с одной ценой
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func parsePositive(raw string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return def
	}
	return n
}

func isAscending(raw string) bool {
	return raw == OrderAsc || raw == "1"
}

// Matches reports whether l satisfies every filter of the plan.
func (p Plan) Matches(l models.Listing) bool {
	if p.Search != "" && !strings.Contains(strings.ToLower(l.Name), strings.ToLower(p.Search)) {
		return false
	}
	if !p.matchesType(l.Type) {
		return false
	}
	if !p.Furnished.Match(l.Furnished) || !p.Offer.Match(l.Offer) || !p.Parking.Match(l.Parking) {
		return false
	}
	if p.MaxPrice != nil && !MatchesMaxPrice(l, *p.MaxPrice) {
		return false
	}
	return true
}

func (p Plan) matchesType(t string) bool {
	for _, want := range p.Types {
		if want == t {
			return true
		}
	}
	return false
}

// MatchesMaxPrice prefers a positive discounted price as the effective price,
// while a regular price under the ceiling also qualifies.
func MatchesMaxPrice(l models.Listing, maxPrice float64) bool {
	if l.DiscountedPrice > 0 && l.DiscountedPrice <= maxPrice {
		return true
	}
	return l.RegularPrice <= maxPrice
}

// CacheKey derives the result-cache key. limit/page/sort/order use their
// normalized values; the filter parameters are taken verbatim, so an omitted
// "offer" and offer=all are cached separately even though they filter alike.
func CacheKey(q url.Values) string {
	p := BuildPlan(q)
	var b strings.Builder
	b.WriteString("listings")
	write := func(name, value string) {
		b.WriteByte(':')
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(value))
	}
	write(ParamLimit, strconv.Itoa(p.Limit))
	write(ParamPage, strconv.Itoa(p.Page))
	write(ParamParking, q.Get(ParamParking))
	write(ParamOffer, q.Get(ParamOffer))
	write(ParamFurnished, q.Get(ParamFurnished))
	write(ParamType, q.Get(ParamType))
	write(ParamSearch, q.Get(ParamSearch))
	write(ParamSort, p.SortField)
	write(ParamOrder, p.Order())
	write(ParamMaxPrice, q.Get(ParamMaxPrice))
	return b.String()
}
