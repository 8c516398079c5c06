package inbound

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"

	"github.com/Cank256/market-mail/internal/market"
)

// ParseMIME reads an RFC 5322 message. The first text/plain part is the
// body; an HTML-only message is reduced with HTMLToText. Attachments are
// ignored.
func ParseMIME(r io.Reader) (market.Payload, error) {
	mr, err := mail.CreateReader(r)
	if err != nil && !message.IsUnknownCharset(err) {
		return market.Payload{}, fmt.Errorf("%w: unreadable message: %v", market.ErrInvalidPayload, err)
	}
	defer mr.Close()

	p := market.Payload{}
	h := mr.Header
	if from, err := h.AddressList("From"); err == nil && len(from) > 0 {
		p.SenderEmail = from[0].Address
	}
	p.Subject, _ = h.Subject()
	if id, err := h.MessageID(); err == nil && id != "" {
		p.MessageID = "<" + id + ">"
	}
	for _, key := range []string{"Delivered-To", "X-Original-To", "To"} {
		if to, err := h.AddressList(key); err == nil && len(to) > 0 {
			p.OriginalRecipient = to[0].Address
			break
		}
	}

	var text, htmlBody string
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil && !message.IsUnknownCharset(err) {
			return market.Payload{}, fmt.Errorf("%w: unreadable message part: %v", market.ErrInvalidPayload, err)
		}
		if part == nil {
			continue
		}
		ih, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		ct, _, _ := ih.ContentType()
		switch {
		case text == "" && (ct == "" || strings.EqualFold(ct, "text/plain")):
			b, err := io.ReadAll(part.Body)
			if err != nil {
				return market.Payload{}, fmt.Errorf("%w: reading body: %v", market.ErrInvalidPayload, err)
			}
			text = string(b)
		case htmlBody == "" && strings.EqualFold(ct, "text/html"):
			b, err := io.ReadAll(part.Body)
			if err != nil {
				return market.Payload{}, fmt.Errorf("%w: reading body: %v", market.ErrInvalidPayload, err)
			}
			htmlBody = string(b)
		}
	}

	p.Body = text
	if strings.TrimSpace(p.Body) == "" {
		p.Body = HTMLToText(htmlBody)
	}
	return p, nil
}
