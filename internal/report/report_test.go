package report

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Cank256/market-mail/internal/prices"
)

type fakeSource struct {
	items  map[string][]prices.Item
	latest map[string]*prices.Submission
	from   time.Time
	to     time.Time
}

func (f *fakeSource) Markets(context.Context) ([]string, error) {
	var out []string
	for _, m := range []string{"Kalerwe", "Nakasero", "Owino"} {
		if _, ok := f.items[m]; ok {
			out = append(out, m)
		} else if _, ok := f.latest[m]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeSource) Latest(_ context.Context, m string) (*prices.Submission, error) {
	if s, ok := f.latest[m]; ok {
		return s, nil
	}
	return nil, prices.ErrNotFound
}

func (f *fakeSource) Range(_ context.Context, m string, from, to time.Time) ([]prices.Item, error) {
	f.from, f.to = from, to
	var out []prices.Item
	for _, it := range f.items[m] {
		if (from.IsZero() || !it.Date.Before(from)) && (to.IsZero() || !it.Date.After(to)) {
			out = append(out, it)
		}
	}
	return out, nil
}

func day(d int) time.Time {
	return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC)
}

func item(sub, product, unit string, price float64, date time.Time) prices.Item {
	return prices.Item{SubmissionID: sub, Market: "Owino", Product: product, Unit: unit, Price: price, Date: date}
}

func newService(src Source) *Service {
	s := New(src)
	s.now = func() time.Time { return day(10) }
	return s
}

func TestSummary(t *testing.T) {
	src := &fakeSource{items: map[string][]prices.Item{
		"Owino": {
			item("s2", "Rice", "kg", 4600, day(3)),
			item("s1", "Rice", "kg", 4500, day(1)),
			item("s1", "Tomatoes", "crate", 9000, day(1)),
			item("s2", "Tomatoes", "kg", 3001, day(3)),
			item("s3", "Rice", "kg", 4401, day(5)),
		},
	}}

	got, err := newService(src).Summary(context.Background(), "Owino", day(1), day(10))
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}

	want := &Summary{
		Market:           "Owino",
		TotalSubmissions: 3,
		UniqueProducts:   2,
		DateRange:        DateRange{Start: day(1), End: day(5)},
		Products: []ProductStats{
			{Product: "Rice", Unit: "kg", AveragePrice: 4500, MinPrice: 4401, MaxPrice: 4600, Count: 3},
			{Product: "Tomatoes", Unit: "crate", AveragePrice: 6001, MinPrice: 3001, MaxPrice: 9000, Count: 2},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Summary() mismatch (-want +got):\n%s", diff)
	}
}

func TestSummary_NoData(t *testing.T) {
	_, err := newService(&fakeSource{}).Summary(context.Background(), "Owino", day(1), day(2))
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("Summary() error = %v, want ErrNoData", err)
	}
	if !strings.Contains(err.Error(), "Owino") {
		t.Errorf("error should name the market: %v", err)
	}
}

func TestTrend(t *testing.T) {
	src := &fakeSource{items: map[string][]prices.Item{
		"Owino": {
			item("s1", "Rice", "kg", 4500, day(4)),
			item("s2", "rice", "kg", 4600, day(4)),
			item("s3", "Rice", "kg", 4700, day(2)),
			item("s3", "Beans", "kg", 5000, day(2)),
		},
	}}
	svc := newService(src)

	got, err := svc.Trend(context.Background(), "Owino", "Rice", 7)
	if err != nil {
		t.Fatalf("Trend() error = %v", err)
	}
	want := &Trend{
		Product: "Rice",
		Unit:    "kg",
		Trends: []TrendPoint{
			{Date: "2026-03-04", AveragePrice: 4550, Count: 2},
		},
	}
	// day(2) is outside the 7 day window ending day(10).
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Trend() mismatch (-want +got):\n%s", diff)
	}
	if !src.from.Equal(day(3)) || !src.to.Equal(day(10)) {
		t.Errorf("window = %v..%v", src.from, src.to)
	}

	t.Run("default window and ordering", func(t *testing.T) {
		got, _ := svc.Trend(context.Background(), "Owino", "Rice", 0)
		if len(got.Trends) != 2 || got.Trends[0].Date != "2026-03-02" {
			t.Errorf("Trends = %+v", got.Trends)
		}
		if !src.from.Equal(day(10).AddDate(0, 0, -DefaultDays)) {
			t.Errorf("default window start = %v", src.from)
		}
	})

	t.Run("no data", func(t *testing.T) {
		got, err := svc.Trend(context.Background(), "Owino", "Maize", 30)
		if err != nil || got != nil {
			t.Errorf("Trend() = %+v, %v; want nil, nil", got, err)
		}
	})
}

func TestTrends(t *testing.T) {
	src := &fakeSource{items: map[string][]prices.Item{
		"Owino":    {item("s1", "Rice", "kg", 4500, day(9))},
		"Nakasero": {item("s2", "Beans", "kg", 5000, day(9))},
	}}

	got, err := newService(src).Trends(context.Background(), []string{"Rice", "Maize"}, 30)
	if err != nil {
		t.Fatalf("Trends() error = %v", err)
	}
	if len(got) != 1 || got[0].Market != "Owino" || len(got[0].Trends) != 1 {
		t.Errorf("Trends() = %+v", got)
	}
}

func TestOverview(t *testing.T) {
	src := &fakeSource{latest: map[string]*prices.Submission{
		"Owino": {
			Market: "Owino", Country: "Uganda", Date: day(5), SubmitterEmail: "a@example.com",
			CreatedAt: day(5),
			Items:     []prices.Item{{Product: "Rice"}, {Product: "Beans"}},
		},
		"Nakasero": {
			Market: "Nakasero", Date: day(7), SubmitterEmail: "b@example.com",
			CreatedAt: day(8),
			Items:     []prices.Item{{Product: "rice"}, {Product: "Matooke"}},
		},
	}}

	got, err := newService(src).Overview(context.Background())
	if err != nil {
		t.Fatalf("Overview() error = %v", err)
	}
	if got.TotalMarkets != 2 || got.TotalProducts != 3 {
		t.Errorf("totals = %d markets, %d products", got.TotalMarkets, got.TotalProducts)
	}
	if !got.LastUpdated.Equal(day(8)) {
		t.Errorf("LastUpdated = %v", got.LastUpdated)
	}
	if got.Markets[0].Market != "Nakasero" || got.Markets[1].Country != "Uganda" || got.Markets[1].ProductCount != 2 {
		t.Errorf("Markets = %+v", got.Markets)
	}
}
