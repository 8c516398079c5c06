// Package inbound turns delivered email into market.Payload values. It
// understands Postmark's inbound webhook JSON and raw RFC 5322 messages.
package inbound

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message/mail"

	"github.com/Cank256/market-mail/internal/market"
)

// MaxBodyBytes bounds an inbound webhook body.
const MaxBodyBytes = 10 << 20

// Address is a Postmark address object.
type Address struct {
	Email string `json:"Email"`
	Name  string `json:"Name"`
}

// Header is a Postmark header entry.
type Header struct {
	Name  string `json:"Name"`
	Value string `json:"Value"`
}

// PostmarkMessage is the subset of the Postmark inbound webhook we read.
type PostmarkMessage struct {
	From              string    `json:"From"`
	FromFull          Address   `json:"FromFull"`
	To                string    `json:"To"`
	ToFull            []Address `json:"ToFull"`
	OriginalRecipient string    `json:"OriginalRecipient"`
	Subject           string    `json:"Subject"`
	MessageID         string    `json:"MessageID"`
	TextBody          string    `json:"TextBody"`
	HtmlBody          string    `json:"HtmlBody"`
	StrippedTextReply string    `json:"StrippedTextReply"`
	Headers           []Header  `json:"Headers"`
}

// DecodePostmark reads a webhook body.
func DecodePostmark(r io.Reader) (*PostmarkMessage, error) {
	var msg PostmarkMessage
	dec := json.NewDecoder(io.LimitReader(r, MaxBodyBytes))
	if err := dec.Decode(&msg); err != nil {
		return nil, fmt.Errorf("%w: malformed webhook body: %v", market.ErrInvalidPayload, err)
	}
	return &msg, nil
}

// Sender returns the sender address, preferring FromFull over the raw
// From header.
func (m *PostmarkMessage) Sender() string {
	if e := strings.TrimSpace(m.FromFull.Email); e != "" {
		return e
	}
	if addr, err := mail.ParseAddress(m.From); err == nil {
		return addr.Address
	}
	return strings.TrimSpace(m.From)
}

// Body returns the plain text body, falling back to text derived from the
// HTML part when the sender only sent HTML.
func (m *PostmarkMessage) Body() string {
	if strings.TrimSpace(m.TextBody) != "" {
		return m.TextBody
	}
	return HTMLToText(m.HtmlBody)
}

// Payload converts the webhook into the extraction input.
func (m *PostmarkMessage) Payload() market.Payload {
	recipient := m.OriginalRecipient
	if recipient == "" && len(m.ToFull) > 0 {
		recipient = m.ToFull[0].Email
	}
	return market.Payload{
		Body:              m.Body(),
		SenderEmail:       m.Sender(),
		MessageID:         m.MessageID,
		OriginalRecipient: recipient,
		Subject:           m.Subject,
	}
}
