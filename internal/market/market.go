// Package market defines the canonical price submission record and the
// validation rules every extraction strategy must satisfy.
package market

import (
	"strings"
	"time"
)

// PriceItem is a single product price observation.
type PriceItem struct {
	Product string  `json:"product" validate:"required"`
	Unit    string  `json:"unit" validate:"required"`
	Price   float64 `json:"price" validate:"gt=0"`
}

// MarketData is a validated price submission for one market on one date.
// Values are stored as submitted: no currency or unit normalization.
type MarketData struct {
	Market         string      `json:"market" validate:"required"`
	Date           time.Time   `json:"date" validate:"required"`
	SubmitterEmail string      `json:"submitterEmail" validate:"required,email"`
	PriceItems     []PriceItem `json:"priceItems" validate:"min=1,dive"`

	// Delivery metadata, attached after validation.
	MessageID         string `json:"messageId,omitempty"`
	OriginalRecipient string `json:"originalRecipient,omitempty"`
	Subject           string `json:"subject,omitempty"`
}

// Products returns the distinct product names in submission order.
func (m *MarketData) Products() []string {
	seen := make(map[string]struct{}, len(m.PriceItems))
	out := make([]string, 0, len(m.PriceItems))
	for _, item := range m.PriceItems {
		key := strings.ToLower(item.Product)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item.Product)
	}
	return out
}

// Payload is an inbound email reduced to the fields extraction needs.
type Payload struct {
	Body              string `json:"body"`
	SenderEmail       string `json:"senderEmail"`
	MessageID         string `json:"messageId,omitempty"`
	OriginalRecipient string `json:"originalRecipient,omitempty"`
	Subject           string `json:"subject,omitempty"`
}

// Check reports ErrInvalidPayload when the body or sender is missing.
func (p Payload) Check() error {
	var missing []string
	if strings.TrimSpace(p.Body) == "" {
		missing = append(missing, "body")
	}
	if strings.TrimSpace(p.SenderEmail) == "" {
		missing = append(missing, "senderEmail")
	}
	if len(missing) > 0 {
		return invalidPayload(missing)
	}
	return nil
}
