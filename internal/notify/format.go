// Package notify tells submitters what happened to their email: a
// confirmation table when prices were saved, or the error with the
// expected submission format when they were not.
package notify

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Cank256/market-mail/internal/market"
)

const (
	ErrorSubject        = "Unable to Process Your Market Price Submission"
	confirmationSubject = "Market Price Data Processed - "
)

// Message is a rendered notification.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Confirmation describes a saved submission.
type Confirmation struct {
	To           string
	Market       string
	Country      string
	Date         time.Time
	Items        []market.PriceItem
	SubmissionID string
}

// Formatter renders notification bodies. The zero value is usable.
type Formatter struct {
	// DashboardURL is linked from confirmations when set.
	DashboardURL string
}

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithXHTML()),
)

// NewFormatter creates a formatter linking to dashboardURL.
func NewFormatter(dashboardURL string) *Formatter {
	return &Formatter{DashboardURL: strings.TrimRight(dashboardURL, "/")}
}

// Confirmation renders the message sent after a successful save.
func (f *Formatter) Confirmation(c Confirmation) (*Message, error) {
	subject := confirmationSubject + c.Market
	if c.Country != "" {
		subject += ", " + c.Country
	}
	date := c.Date.UTC().Format("2006-01-02")
	where := c.Market
	if c.Country != "" {
		where += " in " + c.Country
	}

	var body strings.Builder
	body.WriteString("# Market Price Data Received\n\n")
	fmt.Fprintf(&body, "Thank you for submitting prices for %s on %s.\n\n", where, date)
	body.WriteString("| Product | Unit | Price |\n|---|---|---:|\n")
	for _, it := range c.Items {
		fmt.Fprintf(&body, "| %s | %s | %s |\n", escapeCell(it.Product), escapeCell(it.Unit), FormatPrice(it.Price))
	}
	fmt.Fprintf(&body, "\nTotal items: %d\n", len(c.Items))
	if link := f.link(c); link != "" {
		fmt.Fprintf(&body, "\n[View the market dashboard](%s)\n", link)
	}

	var text strings.Builder
	fmt.Fprintf(&text, "Thank you for submitting prices for %s on %s.\n\n", where, date)
	fmt.Fprintf(&text, "%-18s%-14s%s\n", "Product", "Unit", "Price")
	text.WriteString(strings.Repeat("-", 44) + "\n")
	for _, it := range c.Items {
		fmt.Fprintf(&text, "%-18s%-14s%s\n", it.Product, it.Unit, FormatPrice(it.Price))
	}
	fmt.Fprintf(&text, "\nTotal items: %d\n", len(c.Items))
	if link := f.link(c); link != "" {
		fmt.Fprintf(&text, "\nView the market dashboard: %s\n", link)
	}

	htmlBody, err := render(body.String())
	if err != nil {
		return nil, err
	}
	return &Message{To: c.To, Subject: subject, Text: text.String(), HTML: htmlBody}, nil
}

// Failure renders the message sent when a submission could not be
// processed. reason is shown to the submitter verbatim.
func (f *Formatter) Failure(to, reason string) (*Message, error) {
	var body strings.Builder
	body.WriteString("# We Couldn't Process Your Market Price Submission\n\n")
	fmt.Fprintf(&body, "**Error:** %s\n\n", reason)
	body.WriteString("## Submission format\n\n")
	body.WriteString("```\n" + formatBlock + "```\n\n")
	body.WriteString("## Example\n\n")
	body.WriteString("```\n" + exampleBlock + "```\n\n")
	body.WriteString("Please try submitting your data again with the correct format.\n\n")
	body.WriteString("Need help? Reply to this email and we'll assist you.\n")

	var text strings.Builder
	text.WriteString("We Couldn't Process Your Market Price Submission\n\n")
	fmt.Fprintf(&text, "Error: %s\n\n", reason)
	text.WriteString("Submission format:\n\n" + formatBlock + "\n")
	text.WriteString("Example:\n\n" + exampleBlock + "\n")
	text.WriteString("Please try submitting your data again with the correct format.\n\n")
	text.WriteString("Need help? Reply to this email and we'll assist you.\n")

	htmlBody, err := render(body.String())
	if err != nil {
		return nil, err
	}
	return &Message{To: to, Subject: ErrorSubject, Text: text.String(), HTML: htmlBody}, nil
}

const formatBlock = `Market: [Market Name]
Date: [YYYY-MM-DD]
Country: [Country] (optional)
[Product] ([Unit]): [Price]
[Product] ([Unit]): [Price]
`

const exampleBlock = `Market: Kampala Central Market
Date: 2023-09-15
Maize (kg): 1200
Beans (kg): 3500
Tomatoes (crate): 45000
`

func (f *Formatter) link(c Confirmation) string {
	if f.DashboardURL == "" {
		return ""
	}
	return f.DashboardURL + "/markets/" + url.PathEscape(strings.TrimSpace(c.Market))
}

func render(src string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("failed to render notification: %w", err)
	}
	return buf.String(), nil
}

var printer = message.NewPrinter(language.English)

// FormatPrice renders a price with thousands separators, keeping decimals
// only when the value has a fractional part.
func FormatPrice(p float64) string {
	if p == float64(int64(p)) {
		return printer.Sprintf("%d", int64(p))
	}
	return printer.Sprintf("%.2f", p)
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
