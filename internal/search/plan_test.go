package search

import (
	"math"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estatehub/internal/models"
)

func TestBuildPlan_Defaults(t *testing.T) {
	p := BuildPlan(url.Values{})

	assert.Equal(t, DefaultLimit, p.Limit)
	assert.Equal(t, DefaultPage, p.Page)
	assert.Equal(t, 0, p.Skip())
	assert.Equal(t, "", p.Search)
	assert.Equal(t, []string{"sale", "rent"}, p.Types)
	assert.Equal(t, Either, p.Offer)
	assert.Equal(t, Either, p.Parking)
	assert.Equal(t, Either, p.Furnished)
	assert.Nil(t, p.MaxPrice)
	assert.Equal(t, "createdAt", p.SortField)
	assert.True(t, p.SortDesc)
	assert.Equal(t, "desc", p.Order())
}

func TestBuildPlan_Pagination(t *testing.T) {
	p := BuildPlan(url.Values{"limit": {"12"}, "page": {"3"}})
	assert.Equal(t, 12, p.Limit)
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 24, p.Skip())

	bad := BuildPlan(url.Values{"limit": {"abc"}, "page": {"-2"}})
	assert.Equal(t, DefaultLimit, bad.Limit)
	assert.Equal(t, DefaultPage, bad.Page)
}

func TestBuildPlan_HugePaginationDoesNotWrap(t *testing.T) {
	p := BuildPlan(url.Values{"limit": {"4611686018427387904"}, "page": {"3"}})
	assert.Equal(t, MaxLimit, p.Limit)
	assert.Equal(t, 2*MaxLimit, p.Skip())

	far := BuildPlan(url.Values{"page": {strconv.Itoa(math.MaxInt)}, "limit": {"100"}})
	assert.Equal(t, math.MaxInt, far.Skip())

	raw := Plan{Page: math.MaxInt, Limit: math.MaxInt}
	assert.Equal(t, math.MaxInt, raw.Skip())
	assert.Equal(t, 0, Plan{Page: 0, Limit: 5}.Skip())

	assert.Contains(t, CacheKey(url.Values{"limit": {"500"}}), "limit=100:")
}

func TestParseTriState(t *testing.T) {
	tests := []struct {
		raw  string
		want TriState
	}{
		{"", Either},
		{"undefined", Either},
		{"all", Either},
		{"true", OnlyTrue},
		{"1", OnlyTrue},
		{"false", OnlyFalse},
		{"0", OnlyFalse},
		{"yes", Either},
		{"TRUE", Either},
	}
	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseTriState(tc.raw))
		})
	}
}

func TestBuildPlan_TypeAndOrder(t *testing.T) {
	assert.Equal(t, []string{"sale", "rent"}, BuildPlan(url.Values{"type": {"all"}}).Types)
	assert.Equal(t, []string{"sale", "rent"}, BuildPlan(url.Values{"type": {"undefined"}}).Types)
	assert.Equal(t, []string{"rent"}, BuildPlan(url.Values{"type": {"rent"}}).Types)
	assert.Equal(t, []string{"castle"}, BuildPlan(url.Values{"type": {"castle"}}).Types)

	assert.False(t, BuildPlan(url.Values{"order": {"asc"}}).SortDesc)
	assert.False(t, BuildPlan(url.Values{"order": {"1"}}).SortDesc)
	assert.True(t, BuildPlan(url.Values{"order": {"ascending"}}).SortDesc)
	assert.Equal(t, "regularPrice", BuildPlan(url.Values{"sort": {"regularPrice"}}).SortField)
}

func TestBuildPlan_MaxPrice(t *testing.T) {
	p := BuildPlan(url.Values{"maxPrice": {"150.5"}})
	require.NotNil(t, p.MaxPrice)
	assert.Equal(t, 150.5, *p.MaxPrice)

	assert.Nil(t, BuildPlan(url.Values{"maxPrice": {"cheap"}}).MaxPrice)

	for _, raw := range []string{"NaN", "nan", "Inf", "+Inf", "-Infinity", "1e400"} {
		assert.Nil(t, BuildPlan(url.Values{"maxPrice": {raw}}).MaxPrice, raw)
	}
}

func TestPlanMatches_MaxPricePrefersDiscount(t *testing.T) {
	all := BuildPlan(url.Values{})
	offer := models.Listing{Name: "Loft", Type: "sale", RegularPrice: 200, DiscountedPrice: 150, Offer: true}
	plain := models.Listing{Name: "Flat", Type: "rent", RegularPrice: 200, DiscountedPrice: 0}

	at := func(max float64) Plan {
		p := all
		p.MaxPrice = &max
		return p
	}

	assert.True(t, at(150).Matches(offer))
	assert.True(t, at(180).Matches(offer))
	assert.False(t, at(149).Matches(offer))

	assert.True(t, at(200).Matches(plain))
	assert.False(t, at(150).Matches(plain))
}

func TestPlanMatches_Filters(t *testing.T) {
	l := models.Listing{Name: "Sunny Beach House", Type: "rent", Furnished: true, Parking: false, Offer: false}

	assert.True(t, BuildPlan(url.Values{"search": {"beach"}}).Matches(l))
	assert.True(t, BuildPlan(url.Values{"search": {"SUNNY"}}).Matches(l))
	assert.False(t, BuildPlan(url.Values{"search": {"cabin"}}).Matches(l))
	assert.True(t, BuildPlan(url.Values{"search": {""}}).Matches(l))

	assert.True(t, BuildPlan(url.Values{"furnished": {"true"}}).Matches(l))
	assert.False(t, BuildPlan(url.Values{"furnished": {"false"}}).Matches(l))
	assert.True(t, BuildPlan(url.Values{"parking": {"0"}}).Matches(l))
	assert.False(t, BuildPlan(url.Values{"parking": {"1"}}).Matches(l))
	assert.True(t, BuildPlan(url.Values{"offer": {"all"}}).Matches(l))

	assert.True(t, BuildPlan(url.Values{"type": {"rent"}}).Matches(l))
	assert.False(t, BuildPlan(url.Values{"type": {"sale"}}).Matches(l))
	assert.False(t, BuildPlan(url.Values{"type": {"castle"}}).Matches(l))
}

func TestCacheKey_DeterministicAndRawSensitive(t *testing.T) {
	q := url.Values{"search": {"loft"}, "offer": {"true"}, "limit": {"9"}}
	assert.Equal(t, CacheKey(q), CacheKey(url.Values{"limit": {"9"}, "offer": {"true"}, "search": {"loft"}}))

	// Both spellings filter identically but are cached under separate keys.
	undefinedOffer := url.Values{"offer": {"undefined"}}
	allOffer := url.Values{"offer": {"all"}}
	assert.Equal(t, BuildPlan(undefinedOffer).Offer, BuildPlan(allOffer).Offer)
	assert.NotEqual(t, CacheKey(undefinedOffer), CacheKey(allOffer))

	assert.NotEqual(t, CacheKey(url.Values{"page": {"1"}}), CacheKey(url.Values{"page": {"2"}}))
	assert.Equal(t, CacheKey(url.Values{}), CacheKey(url.Values{"page": {"1"}, "limit": {"9"}}))
}

func TestCacheKey_EscapesSeparators(t *testing.T) {
	a := CacheKey(url.Values{"search": {"a:type=rent"}})
	b := CacheKey(url.Values{"search": {"a"}, "type": {"rent"}})
	assert.NotEqual(t, a, b)
}
