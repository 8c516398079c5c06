// Package parser extracts market price submissions from plain-text email
// bodies that follow the line format:
//
//	Market: Kampala Central Market
//	Date: 2024-01-15
//	Tomatoes (kg): 3000
//	Matooke (bunch): 15 000
package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/Cank256/market-mail/internal/market"
)

const (
	msgNoMarket = "could not extract market name from email. " +
		"Add a line like \"Market: Kampala Central Market\""
	msgNoItems = "could not extract any price items from email. " +
		"Use one line per product like \"Tomatoes (kg): 3000\""
)

var (
	marketLine = regexp.MustCompile(`(?i)^\s*market\s*:\s*(\S.*?)\s*$`)
	dateLine   = regexp.MustCompile(`(?i)^\s*date\s*:\s*(\S.*?)\s*$`)
	itemLine   = regexp.MustCompile(`^\s*([^(]+?)\s*\(([^)]+)\):[\s\p{Zs}]*([0-9][0-9\t\p{Zs}]*)(.*)$`)
	decimal    = regexp.MustCompile(`^[.,][0-9]`)

	// Labels looked up on every submission.
	labels = map[string]*regexp.Regexp{
		CountryLabel: labelPattern(CountryLabel),
	}
)

// CountryLabel names the optional "Country:" line.
const CountryLabel = "country"

func labelPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)^\s*` + regexp.QuoteMeta(name) + `\s*:\s*(\S.*?)\s*$`)
}

// Parser is the deterministic line parser. The zero value is ready to use.
type Parser struct {
	// Now supplies the default date when none is found. Defaults to time.Now.
	Now func() time.Time
}

// New returns a Parser using the wall clock.
func New() *Parser {
	return &Parser{}
}

func (p *Parser) now() time.Time {
	if p != nil && p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// Parse extracts a record from body. The submitter is always sender, never
// anything found in the body. Errors wrap market.ErrParse, or are the
// *market.ValidationError produced by validation of the candidate.
func (p *Parser) Parse(body, sender string) (*market.MarketData, error) {
	lines := Lines(body)

	name, ok := firstMatch(lines, marketLine)
	if !ok {
		return nil, market.ParseError(msgNoMarket)
	}

	date := p.now()
	if raw, ok := firstMatch(lines, dateLine); ok {
		if parsed, ok := ParseDate(raw); ok {
			date = parsed
		}
	}

	items := Items(lines)
	if len(items) == 0 {
		return nil, market.ParseError(msgNoItems)
	}

	return market.Validate(name, date, sender, items)
}

// Lines splits a body on any line ending.
func Lines(body string) []string {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	body = strings.ReplaceAll(body, "\r", "\n")
	return strings.Split(body, "\n")
}

// Label returns the value of the first "name: value" line in body, matched
// case-insensitively. Used for optional headers such as "Country:".
func Label(body, name string) (string, bool) {
	re, ok := labels[strings.ToLower(name)]
	if !ok {
		re = labelPattern(name)
	}
	return firstMatch(Lines(body), re)
}

func firstMatch(lines []string, re *regexp.Regexp) (string, bool) {
	for _, line := range lines {
		if m := re.FindStringSubmatch(line); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// Items returns every price line in order of appearance. Lines that do not
// match, whose price has a decimal fraction, or whose price overflows are
// skipped. Digit groups may be separated by any space, including the
// no-break spaces that locale formatting inserts.
func Items(lines []string) []market.PriceItem {
	var items []market.PriceItem
	for _, line := range lines {
		m := itemLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if decimal.MatchString(m[4]) {
			continue
		}
		digits := strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return -1
			}
			return r
		}, m[3])
		price, err := strconv.ParseInt(digits, 10, 64)
		if err != nil {
			continue
		}
		items = append(items, market.PriceItem{
			Product: m[1],
			Unit:    strings.TrimSpace(m[2]),
			Price:   float64(price),
		})
	}
	return items
}
