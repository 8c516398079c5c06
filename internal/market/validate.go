package market

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks a candidate submission and returns the canonical record.
// Text fields are trimmed before checking. On failure the returned error is
// a *ValidationError describing the first violated constraint, checked in
// field order: market, date, submitterEmail, priceItems, then each item's
// product, unit and price.
func Validate(market string, date time.Time, submitter string, items []PriceItem) (*MarketData, error) {
	record := &MarketData{
		Market:         strings.TrimSpace(market),
		Date:           date,
		SubmitterEmail: strings.TrimSpace(submitter),
		PriceItems:     make([]PriceItem, len(items)),
	}
	for i, item := range items {
		record.PriceItems[i] = PriceItem{
			Product: strings.TrimSpace(item.Product),
			Unit:    strings.TrimSpace(item.Unit),
			Price:   item.Price,
		}
	}

	if err := validatorInstance().Struct(record); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return nil, translate(fieldErrs[0])
		}
		return nil, fmt.Errorf("validate market data: %w", err)
	}
	return record, nil
}

var itemIndex = regexp.MustCompile(`^priceItems\[(\d+)\]\.(\w+)$`)

// translate turns a validator field error into a message a submitter can act on.
func translate(fe validator.FieldError) *ValidationError {
	field := strings.TrimPrefix(fe.Namespace(), "MarketData.")
	ve := &ValidationError{Field: field, Rule: fe.Tag()}

	if m := itemIndex.FindStringSubmatch(field); m != nil {
		var n int
		fmt.Sscanf(m[1], "%d", &n)
		prefix := fmt.Sprintf("price item %d", n+1)
		switch m[2] {
		case "product":
			ve.Message = prefix + ": product name is required"
		case "unit":
			ve.Message = prefix + ": unit is required, e.g. \"Rice (kg): 4500\""
		case "price":
			ve.Message = prefix + ": price must be a positive number"
		default:
			ve.Message = fmt.Sprintf("%s: invalid %s", prefix, m[2])
		}
		return ve
	}

	switch field {
	case "market":
		ve.Message = "market name is required (add a line like \"Market: Kampala Central Market\")"
	case "date":
		ve.Message = "submission date is required"
	case "submitterEmail":
		if fe.Tag() == "email" {
			ve.Message = fmt.Sprintf("submitter email %q is not a valid email address", fe.Value())
		} else {
			ve.Message = "submitter email is required"
		}
	case "priceItems":
		ve.Message = "at least one price item is required (format: \"Product (unit): price\")"
	default:
		ve.Message = fmt.Sprintf("invalid %s", field)
	}
	return ve
}
