package defra

import (
	"testing"
	"time"
)

func TestQueryBuilder_Build(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		query, vars := NewQuery("MarketPrice").Build()
		if query != "{ MarketPrice { _docID } }" {
			t.Errorf("query = %s", query)
		}
		if len(vars) != 0 {
			t.Errorf("vars = %v", vars)
		}
	})

	t.Run("filters order and paging", func(t *testing.T) {
		from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		query, vars := NewQuery("PriceItem").
			Filter("market", "Owino").
			FilterGTE("date", from).
			FilterIn("product", []string{"Rice", "Beans"}).
			Fields("product", "price").
			OrderBy("date", DESC).
			Limit(5).
			Offset(10).
			Build()

		want := "query($v0: String, $v1: DateTime, $v2: [String!]) { PriceItem(" +
			"filter: {market: {_eq: $v0}, date: {_geq: $v1}, product: {_in: $v2}}, " +
			"order: {date: DESC}, limit: 5, offset: 10) { product price } }"
		if query != want {
			t.Errorf("query =\n%s\nwant\n%s", query, want)
		}
		if vars["v0"] != "Owino" || vars["v1"] != "2026-01-01T00:00:00Z" {
			t.Errorf("vars = %v", vars)
		}
	})

	t.Run("multiple order terms", func(t *testing.T) {
		query, _ := NewQuery("PriceItem").OrderBy("date", DESC).OrderBy("position", ASC).Build()
		want := "{ PriceItem(order: [{date: DESC}, {position: ASC}]) { _docID } }"
		if query != want {
			t.Errorf("query = %s", query)
		}
	})
}

func TestInferGraphQLType(t *testing.T) {
	tests := map[string]any{
		"String":   "x",
		"Int":      int64(1),
		"Float":    1.5,
		"Boolean":  false,
		"DateTime": time.Now(),
	}
	for want, v := range tests {
		if got := inferGraphQLType(v); got != want {
			t.Errorf("inferGraphQLType(%T) = %s, want %s", v, got, want)
		}
	}
}

func TestDoc(t *testing.T) {
	d := Doc{
		"_docID": "bae-1",
		"price":  4500.0,
		"count":  3.0,
		"ok":     true,
		"date":   "2026-03-01T00:00:00Z",
		"bad":    "not a time",
	}
	if d.ID() != "bae-1" || d.Float("price") != 4500 || d.Int("count") != 3 || !d.Bool("ok") {
		t.Errorf("accessors returned wrong values for %v", d)
	}
	if !d.Time("date").Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Time(date) = %v", d.Time("date"))
	}
	if !d.Time("bad").IsZero() || d.String("missing") != "" || d.Float("ok") != 0 {
		t.Error("missing or mistyped fields should be zero")
	}
}
