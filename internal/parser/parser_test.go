package parser

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Cank256/market-mail/internal/market"
)

var fixedNow = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

func testParser() *Parser {
	return &Parser{Now: func() time.Time { return fixedNow }}
}

func TestParse_WellFormed(t *testing.T) {
	body := "Market: Kampala Central Market\n" +
		"Date: 2024-01-15\n" +
		"Tomatoes (kg): 3000\n" +
		"Matooke (bunch): 15 000\n"

	got, err := testParser().Parse(body, "trader@example.com")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := &market.MarketData{
		Market:         "Kampala Central Market",
		Date:           time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		SubmitterEmail: "trader@example.com",
		PriceItems: []market.PriceItem{
			{Product: "Tomatoes", Unit: "kg", Price: 3000},
			{Product: "Matooke", Unit: "bunch", Price: 15000},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Failures(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		contains string
	}{
		{"no market line", "Tomatoes (kg): 3000\nBeans (kg): 4000", "market name"},
		{"empty market value", "Market:   \nTomatoes (kg): 3000", "market name"},
		{"no price lines", "Market: Owino\nDate: 2024-01-15\nprices are high today", "price items"},
		{"only decimal prices", "Market: Owino\nRice (kg): 12.50", "price items"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := testParser().Parse(tt.body, "a@b.com")
			if !errors.Is(err, market.ErrParse) {
				t.Fatalf("Parse() error = %v, want ErrParse", err)
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("error %q should mention %q", err, tt.contains)
			}
		})
	}
}

func TestParse_DefaultsDateToNow(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing", "Market: Owino\nRice (kg): 4500"},
		{"unparseable", "Market: Owino\nDate: last tuesday\nRice (kg): 4500"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := testParser().Parse(tt.body, "a@b.com")
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if !got.Date.Equal(fixedNow) {
				t.Errorf("Date = %v, want %v", got.Date, fixedNow)
			}
		})
	}
}

func TestParse_FirstMarketAndDateWin(t *testing.T) {
	body := "Market: First\nDate: 2024-02-01\nMarket: Second\nDate: 2024-03-01\nRice (kg): 4500"
	got, err := testParser().Parse(body, "a@b.com")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got.Market != "First" {
		t.Errorf("Market = %q, want First", got.Market)
	}
	if got.Date.Month() != time.February {
		t.Errorf("Date = %v, want February", got.Date)
	}
}

func TestParse_SubmitterIsEnvelopeSender(t *testing.T) {
	body := "Market: Owino\nEmail: someone-else@example.com\nRice (kg): 4500"
	got, err := testParser().Parse(body, "sender@example.com")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got.SubmitterEmail != "sender@example.com" {
		t.Errorf("SubmitterEmail = %q", got.SubmitterEmail)
	}
}

func TestParse_ZeroPriceIsValidationError(t *testing.T) {
	_, err := testParser().Parse("Market: Owino\nRice (kg): 0", "a@b.com")
	var ve *market.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Parse() error = %v, want *ValidationError", err)
	}
	if ve.Field != "priceItems[0].price" {
		t.Errorf("Field = %q", ve.Field)
	}
}

func TestParse_CaseInsensitiveLabelsAndCRLF(t *testing.T) {
	body := "  MARKET: Nakasero\r\ndate: 2024-05-02\r\nBeans (kg): 5 200\r\n"
	got, err := testParser().Parse(body, "a@b.com")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got.Market != "Nakasero" || len(got.PriceItems) != 1 || got.PriceItems[0].Price != 5200 {
		t.Errorf("unexpected record: %+v", got)
	}
}

func TestParse_NoBreakSpaceGroups(t *testing.T) {
	body := "Market: Nakasero\nTomatoes (kg): 9\u00a0500\nOnions (kg): 2\u00a0500"

	got, err := testParser().Parse(body, "a@b.com")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := []market.PriceItem{
		{Product: "Tomatoes", Unit: "kg", Price: 9500},
		{Product: "Onions", Unit: "kg", Price: 2500},
	}
	if diff := cmp.Diff(want, got.PriceItems); diff != "" {
		t.Errorf("PriceItems mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_SameBodySameRecord(t *testing.T) {
	body := "Market: Owino\nRice (kg): 4500\nBeans (kg): 5 200\nSugar (kg): 1,500"
	p := testParser()

	first, err := p.Parse(body, "a@b.com")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	second, err := p.Parse(body, "a@b.com")
	if err != nil {
		t.Fatalf("second Parse() error = %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated Parse() differs (-first +second):\n%s", diff)
	}
}

func TestItems(t *testing.T) {
	lines := Lines(strings.Join([]string{
		"Market: Owino",
		"Tomatoes (kg): 3000",
		"Rice (kg): 12.50",
		"Sugar (kg): 1,500",
		"Irish Potatoes (bag 100kg): 120 000 UGX",
		"Onions(kg):2500",
		"Greeting line with (parens) but no price",
		"Milk (litre): 99999999999999999999999",
		"Cassava (heap) : 2000",
		"Maize flour (kg):   3 400   ",
		"Matooke (bunch): 9\u00a0500",
		"Sim sim (kg): 12\u202f000",
		"Millet\u00a0(kg):\u00a04\u2009800",
	}, "\n"))

	want := []market.PriceItem{
		{Product: "Tomatoes", Unit: "kg", Price: 3000},
		{Product: "Irish Potatoes", Unit: "bag 100kg", Price: 120000},
		{Product: "Onions", Unit: "kg", Price: 2500},
		{Product: "Maize flour", Unit: "kg", Price: 3400},
		{Product: "Matooke", Unit: "bunch", Price: 9500},
		{Product: "Sim sim", Unit: "kg", Price: 12000},
		{Product: "Millet", Unit: "kg", Price: 4800},
	}
	if diff := cmp.Diff(want, Items(lines)); diff != "" {
		t.Errorf("Items() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2024-01-15", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), true},
		{"2024/01/15", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), true},
		{"January 15, 2024", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), true},
		{"15 Jan 2024", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), true},
		{"01/15/2024", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), true},
		{"2024-01-15.", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), true},
		{"soon", time.Time{}, false},
		{"", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDate(tt.in)
			if ok != tt.ok {
				t.Fatalf("ParseDate(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLabel(t *testing.T) {
	body := "Country:  Uganda \r\nMarket: Owino\ncountry: Kenya\nCountry:\n"

	if got, ok := Label(body, "Country"); !ok || got != "Uganda" {
		t.Errorf("Label(Country) = %q, %v", got, ok)
	}
	if _, ok := Label(body, "Region"); ok {
		t.Error("Label(Region) should not match")
	}
	if got, ok := Label(body, "COUNTRY"); !ok || got != "Uganda" {
		t.Errorf("Label(COUNTRY) = %q, %v", got, ok)
	}
	if got, ok := Label("Region: Central", "Region"); !ok || got != "Central" {
		t.Errorf("Label(Region) = %q, %v", got, ok)
	}
	if _, ok := Label("Country:\n", "country"); ok {
		t.Error("blank value should not match")
	}
}
