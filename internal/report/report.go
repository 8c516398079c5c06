// Package report aggregates stored prices into market summaries, product
// trends and the dashboard overview.
package report

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Cank256/market-mail/internal/prices"
)

// DefaultDays is the look-back window when none is given.
const DefaultDays = 30

// ErrNoData is returned when a summary window holds no submissions.
var ErrNoData = errors.New("no data")

// Source is the subset of prices.Store reports read from.
type Source interface {
	Markets(ctx context.Context) ([]string, error)
	Latest(ctx context.Context, market string) (*prices.Submission, error)
	Range(ctx context.Context, market string, from, to time.Time) ([]prices.Item, error)
}

// ProductStats summarizes one product's prices.
type ProductStats struct {
	Product      string  `json:"product"`
	Unit         string  `json:"unit"`
	AveragePrice float64 `json:"averagePrice"`
	MinPrice     float64 `json:"minPrice"`
	MaxPrice     float64 `json:"maxPrice"`
	Count        int     `json:"count"`
}

// DateRange is an inclusive span of submission dates.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Summary is a market's statistics over a window.
type Summary struct {
	Market           string         `json:"market"`
	TotalSubmissions int            `json:"totalSubmissions"`
	UniqueProducts   int            `json:"uniqueProducts"`
	DateRange        DateRange      `json:"dateRange"`
	Products         []ProductStats `json:"products"`
}

// TrendPoint is one day's average price.
type TrendPoint struct {
	Date         string  `json:"date"`
	AveragePrice float64 `json:"averagePrice"`
	Count        int     `json:"count"`
}

// Trend is a product's daily price series.
type Trend struct {
	Product string       `json:"product"`
	Unit    string       `json:"unit"`
	Trends  []TrendPoint `json:"trends"`
}

// MarketTrends groups product trends under a market.
type MarketTrends struct {
	Market string  `json:"market"`
	Trends []Trend `json:"trends"`
}

// MarketOverview is one dashboard row.
type MarketOverview struct {
	Market         string    `json:"market"`
	Country        string    `json:"country,omitempty"`
	LastSubmission time.Time `json:"lastSubmission"`
	LastSubmitter  string    `json:"lastSubmitter"`
	ProductCount   int       `json:"productCount"`
}

// Overview is the dashboard view across all markets.
type Overview struct {
	TotalMarkets  int              `json:"totalMarkets"`
	TotalProducts int              `json:"totalProducts"`
	LastUpdated   time.Time        `json:"lastUpdated"`
	Markets       []MarketOverview `json:"markets"`
}

// Service builds reports.
type Service struct {
	src Source
	now func() time.Time
}

// New creates a report service.
func New(src Source) *Service {
	return &Service{src: src, now: time.Now}
}

// Window returns the [now-days, now] range, using DefaultDays when days is
// not positive.
func (s *Service) Window(days int) (time.Time, time.Time) {
	if days <= 0 {
		days = DefaultDays
	}
	end := s.now()
	return end.AddDate(0, 0, -days), end
}

// Summary aggregates every product price for market in [from, to].
// Products keep the unit of their first sighting.
func (s *Service) Summary(ctx context.Context, market string, from, to time.Time) (*Summary, error) {
	items, err := s.src.Range(ctx, market, from, to)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w for market %s in the specified date range", ErrNoData, market)
	}
	sortItems(items)

	type acc struct {
		unit   string
		prices []float64
	}
	stats := make(map[string]*acc)
	var order []string
	submissions := make(map[string]bool)
	for _, it := range items {
		submissions[it.SubmissionID] = true
		a, ok := stats[it.Product]
		if !ok {
			a = &acc{unit: it.Unit}
			stats[it.Product] = a
			order = append(order, it.Product)
		}
		a.prices = append(a.prices, it.Price)
	}

	products := make([]ProductStats, 0, len(order))
	for _, name := range order {
		a := stats[name]
		ps := ProductStats{
			Product:  name,
			Unit:     a.unit,
			MinPrice: a.prices[0],
			MaxPrice: a.prices[0],
			Count:    len(a.prices),
		}
		var sum float64
		for _, p := range a.prices {
			sum += p
			ps.MinPrice = math.Min(ps.MinPrice, p)
			ps.MaxPrice = math.Max(ps.MaxPrice, p)
		}
		ps.AveragePrice = math.Round(sum / float64(len(a.prices)))
		products = append(products, ps)
	}

	return &Summary{
		Market:           market,
		TotalSubmissions: len(submissions),
		UniqueProducts:   len(products),
		DateRange:        DateRange{Start: items[0].Date, End: items[len(items)-1].Date},
		Products:         products,
	}, nil
}

// Trend returns product's daily average in market over the last days.
// It returns nil when there is no data.
func (s *Service) Trend(ctx context.Context, market, product string, days int) (*Trend, error) {
	from, to := s.Window(days)
	items, err := s.src.Range(ctx, market, from, to)
	if err != nil {
		return nil, err
	}
	sortItems(items)

	type day struct {
		sum   float64
		count int
	}
	daily := make(map[string]*day)
	trend := &Trend{Product: product}
	for _, it := range items {
		if !strings.EqualFold(it.Product, product) {
			continue
		}
		if trend.Unit == "" {
			trend.Unit = it.Unit
		}
		key := it.Date.UTC().Format(time.DateOnly)
		d, ok := daily[key]
		if !ok {
			d = &day{}
			daily[key] = d
		}
		d.sum += it.Price
		d.count++
	}
	if len(daily) == 0 {
		return nil, nil
	}

	for date, d := range daily {
		trend.Trends = append(trend.Trends, TrendPoint{
			Date:         date,
			AveragePrice: math.Round(d.sum / float64(d.count)),
			Count:        d.count,
		})
	}
	sort.Slice(trend.Trends, func(i, j int) bool { return trend.Trends[i].Date < trend.Trends[j].Date })
	return trend, nil
}

// Trends returns, per market, the trends of each requested product that
// has data. Markets with no matching data are left out.
func (s *Service) Trends(ctx context.Context, products []string, days int) ([]MarketTrends, error) {
	markets, err := s.src.Markets(ctx)
	if err != nil {
		return nil, err
	}
	var out []MarketTrends
	for _, m := range markets {
		mt := MarketTrends{Market: m}
		for _, p := range products {
			t, err := s.Trend(ctx, m, p, days)
			if err != nil {
				return nil, err
			}
			if t != nil {
				mt.Trends = append(mt.Trends, *t)
			}
		}
		if len(mt.Trends) > 0 {
			out = append(out, mt)
		}
	}
	return out, nil
}

// Overview lists every market's latest submission and totals across them.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	markets, err := s.src.Markets(ctx)
	if err != nil {
		return nil, err
	}

	ov := &Overview{Markets: make([]MarketOverview, 0, len(markets))}
	products := make(map[string]bool)
	for _, m := range markets {
		latest, err := s.src.Latest(ctx, m)
		if errors.Is(err, prices.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, it := range latest.Items {
			products[strings.ToLower(it.Product)] = true
		}
		if latest.CreatedAt.After(ov.LastUpdated) {
			ov.LastUpdated = latest.CreatedAt
		}
		ov.Markets = append(ov.Markets, MarketOverview{
			Market:         latest.Market,
			Country:        latest.Country,
			LastSubmission: latest.Date,
			LastSubmitter:  latest.SubmitterEmail,
			ProductCount:   len(latest.Items),
		})
	}
	ov.TotalMarkets = len(ov.Markets)
	ov.TotalProducts = len(products)
	return ov, nil
}

func sortItems(items []prices.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].Date.Equal(items[j].Date) {
			return items[i].Date.Before(items[j].Date)
		}
		return items[i].Position < items[j].Position
	})
}
