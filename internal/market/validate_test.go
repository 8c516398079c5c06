package market

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var day = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

func TestValidate(t *testing.T) {
	items := []PriceItem{{Product: "Tomatoes", Unit: "kg", Price: 3000}}

	tests := []struct {
		name      string
		market    string
		date      time.Time
		submitter string
		items     []PriceItem
		wantField string
	}{
		{"valid", "Kampala", day, "a@b.com", items, ""},
		{"blank market", "   ", day, "a@b.com", items, "market"},
		{"zero date", "Kampala", time.Time{}, "a@b.com", items, "date"},
		{"missing submitter", "Kampala", day, "", items, "submitterEmail"},
		{"bad submitter", "Kampala", day, "not-an-email", items, "submitterEmail"},
		{"no items", "Kampala", day, "a@b.com", nil, "priceItems"},
		{"blank product", "Kampala", day, "a@b.com", []PriceItem{{Product: " ", Unit: "kg", Price: 1}}, "priceItems[0].product"},
		{"blank unit", "Kampala", day, "a@b.com", []PriceItem{{Product: "Rice", Unit: "", Price: 1}}, "priceItems[0].unit"},
		{"zero price", "Kampala", day, "a@b.com", []PriceItem{{Product: "Rice", Unit: "kg", Price: 0}}, "priceItems[0].price"},
		{"negative price second item", "Kampala", day, "a@b.com", []PriceItem{
			{Product: "Rice", Unit: "kg", Price: 10},
			{Product: "Beans", Unit: "kg", Price: -5},
		}, "priceItems[1].price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Validate(tt.market, tt.date, tt.submitter, tt.items)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				if got == nil {
					t.Fatal("Validate() returned nil record")
				}
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Validate() error = %v, want *ValidationError", err)
			}
			if ve.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", ve.Field, tt.wantField)
			}
			if !errors.Is(err, ErrValidation) {
				t.Error("errors.Is(err, ErrValidation) = false")
			}
			if ve.Message == "" {
				t.Error("empty validation message")
			}
		})
	}
}

func TestValidate_FirstViolationWins(t *testing.T) {
	_, err := Validate("", time.Time{}, "", nil)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
	if ve.Field != "market" {
		t.Errorf("Field = %q, want market", ve.Field)
	}
	if !strings.Contains(ve.Message, "Market:") {
		t.Errorf("message %q should show the expected format", ve.Message)
	}
}

func TestValidate_TrimsText(t *testing.T) {
	got, err := Validate("  Owino Market ", day, " trader@example.com ", []PriceItem{
		{Product: " Matooke ", Unit: " bunch ", Price: 15000},
	})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	want := &MarketData{
		Market:         "Owino Market",
		Date:           day,
		SubmitterEmail: "trader@example.com",
		PriceItems:     []PriceItem{{Product: "Matooke", Unit: "bunch", Price: 15000}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Validate() mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate_DoesNotAliasInput(t *testing.T) {
	items := []PriceItem{{Product: "Rice", Unit: "kg", Price: 4500}}
	got, err := Validate("Kampala", day, "a@b.com", items)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	items[0].Price = 1
	if got.PriceItems[0].Price != 4500 {
		t.Error("record shares backing array with caller input")
	}
}

func TestPayloadCheck(t *testing.T) {
	tests := []struct {
		name    string
		payload Payload
		wantErr bool
	}{
		{"complete", Payload{Body: "Market: X", SenderEmail: "a@b.com"}, false},
		{"missing body", Payload{SenderEmail: "a@b.com"}, true},
		{"whitespace body", Payload{Body: " \n ", SenderEmail: "a@b.com"}, true},
		{"missing sender", Payload{Body: "Market: X"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.payload.Check()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Check() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidPayload) {
				t.Errorf("error %v should wrap ErrInvalidPayload", err)
			}
		})
	}
}

func TestProducts(t *testing.T) {
	m := &MarketData{PriceItems: []PriceItem{
		{Product: "Rice"}, {Product: "Beans"}, {Product: "rice"},
	}}
	if diff := cmp.Diff([]string{"Rice", "Beans"}, m.Products()); diff != "" {
		t.Errorf("Products() mismatch (-want +got):\n%s", diff)
	}
}
