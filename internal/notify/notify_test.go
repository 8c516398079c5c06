package notify

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-message/mail"

	"github.com/Cank256/market-mail/internal/market"
)

func confirmation() Confirmation {
	return Confirmation{
		To:      "jane@example.com",
		Market:  "Kampala Central Market",
		Country: "Uganda",
		Date:    time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Items: []market.PriceItem{
			{Product: "Maize", Unit: "kg", Price: 1200},
			{Product: "Tomatoes", Unit: "crate", Price: 45000},
		},
	}
}

func TestFormatter_Confirmation(t *testing.T) {
	msg, err := NewFormatter("https://prices.example.com/").Confirmation(confirmation())
	if err != nil {
		t.Fatalf("Confirmation() error = %v", err)
	}

	if msg.Subject != "Market Price Data Processed - Kampala Central Market, Uganda" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if msg.To != "jane@example.com" {
		t.Errorf("To = %q", msg.To)
	}
	for _, want := range []string{
		"Thank you for submitting prices for Kampala Central Market in Uganda on 2026-03-01.",
		"Product           Unit          Price\n",
		"Tomatoes          crate         45,000\n",
		"Total items: 2",
		"https://prices.example.com/markets/Kampala%20Central%20Market",
	} {
		if !strings.Contains(msg.Text, want) {
			t.Errorf("Text missing %q:\n%s", want, msg.Text)
		}
	}
	for _, want := range []string{"<table>", "<td>Maize</td>", "45,000", `href="https://prices.example.com/markets/Kampala%20Central%20Market"`} {
		if !strings.Contains(msg.HTML, want) {
			t.Errorf("HTML missing %q:\n%s", want, msg.HTML)
		}
	}
}

func TestFormatter_ConfirmationWithoutCountryOrDashboard(t *testing.T) {
	c := confirmation()
	c.Country = ""
	msg, err := (&Formatter{}).Confirmation(c)
	if err != nil {
		t.Fatalf("Confirmation() error = %v", err)
	}
	if msg.Subject != "Market Price Data Processed - Kampala Central Market" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if strings.Contains(msg.Text, "dashboard") || strings.Contains(msg.Text, " in ") {
		t.Errorf("unexpected text:\n%s", msg.Text)
	}
}

func TestFormatter_Failure(t *testing.T) {
	msg, err := (&Formatter{}).Failure("jane@example.com", "Could not find market name in email")
	if err != nil {
		t.Fatalf("Failure() error = %v", err)
	}
	if msg.Subject != ErrorSubject {
		t.Errorf("Subject = %q", msg.Subject)
	}
	for _, want := range []string{
		"We Couldn't Process Your Market Price Submission",
		"Error: Could not find market name in email",
		"Market: Kampala Central Market\nDate: 2023-09-15\nMaize (kg): 1200",
		"Please try submitting your data again with the correct format.",
		"Need help? Reply to this email and we'll assist you.",
	} {
		if !strings.Contains(msg.Text, want) {
			t.Errorf("Text missing %q", want)
		}
	}
	if !strings.Contains(msg.HTML, "<strong>Error:</strong> Could not find market name in email") {
		t.Errorf("HTML:\n%s", msg.HTML)
	}
	if !strings.Contains(msg.HTML, "<pre><code>Market: [Market Name]") {
		t.Errorf("format block should render as code:\n%s", msg.HTML)
	}
}

func TestFormatPrice(t *testing.T) {
	tests := map[float64]string{
		1200:    "1,200",
		45000:   "45,000",
		5:       "5",
		1234567: "1,234,567",
		2500.5:  "2,500.50",
		999.999: "1,000.00",
	}
	for in, want := range tests {
		if got := FormatPrice(in); got != want {
			t.Errorf("FormatPrice(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestCompose(t *testing.T) {
	msg := &Message{To: "jane@example.com", Subject: "Hello", Text: "plain body", HTML: "<p>html body</p>"}
	raw, err := Compose("prices@example.com", "Market Mail", msg, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("CreateReader() error = %v", err)
	}
	if s, _ := mr.Header.Subject(); s != "Hello" {
		t.Errorf("Subject = %q", s)
	}
	from, _ := mr.Header.AddressList("From")
	if len(from) != 1 || from[0].Address != "prices@example.com" || from[0].Name != "Market Mail" {
		t.Errorf("From = %v", from)
	}
	if id, _ := mr.Header.MessageID(); id == "" {
		t.Error("Message-Id not set")
	}

	parts := map[string]string{}
	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("NextPart() error = %v", err)
		}
		ct, _, _ := p.Header.(*mail.InlineHeader).ContentType()
		b, _ := io.ReadAll(p.Body)
		parts[ct] = string(b)
	}
	if parts["text/plain"] != "plain body" || parts["text/html"] != "<p>html body</p>" {
		t.Errorf("parts = %v", parts)
	}
}

// fakeSMTP accepts one session without STARTTLS or AUTH and captures the
// envelope and data.
type fakeSMTP struct {
	ln   net.Listener
	from string
	rcpt string
	data string
	done chan struct{}
}

func newFakeSMTP(t *testing.T) *fakeSMTP {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	f := &fakeSMTP{ln: ln, done: make(chan struct{})}
	t.Cleanup(func() { ln.Close() })
	go f.serve()
	return f
}

func (f *fakeSMTP) serve() {
	defer close(f.done)
	conn, err := f.ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()
	tp := textproto.NewConn(conn)
	tp.PrintfLine("220 fake ESMTP")
	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}
		cmd := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
			tp.PrintfLine("250 fake")
		case strings.HasPrefix(cmd, "MAIL FROM:"):
			f.from = strings.Trim(line[len("MAIL FROM:"):], "<> ")
			tp.PrintfLine("250 ok")
		case strings.HasPrefix(cmd, "RCPT TO:"):
			f.rcpt = strings.Trim(line[len("RCPT TO:"):], "<> ")
			tp.PrintfLine("250 ok")
		case cmd == "DATA":
			tp.PrintfLine("354 go ahead")
			b, _ := io.ReadAll(tp.DotReader())
			f.data = string(b)
			tp.PrintfLine("250 queued")
		case cmd == "QUIT":
			tp.PrintfLine("221 bye")
			return
		default:
			tp.PrintfLine("502 unsupported")
		}
	}
}

func TestSMTPSender_Send(t *testing.T) {
	srv := newFakeSMTP(t)
	addr := srv.ln.Addr().(*net.TCPAddr)

	s := NewSMTPSender(SMTPConfig{Host: "127.0.0.1", Port: addr.Port, From: "prices@example.com", FromName: "Market Mail"})
	msg, _ := (&Formatter{}).Failure("jane@example.com", "bad date")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Send(ctx, msg); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	<-srv.done

	if srv.from != "prices@example.com" || srv.rcpt != "jane@example.com" {
		t.Errorf("envelope = %q -> %q", srv.from, srv.rcpt)
	}
	m, err := mail.CreateReader(bufio.NewReader(strings.NewReader(srv.data)))
	if err != nil {
		t.Fatalf("delivered message unreadable: %v", err)
	}
	if s, _ := m.Header.Subject(); s != ErrorSubject {
		t.Errorf("Subject = %q", s)
	}
}

func TestSMTPSender_NoRecipient(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{Host: "127.0.0.1"})
	if err := s.Send(context.Background(), &Message{Subject: "x"}); !errors.Is(err, ErrNoRecipient) {
		t.Errorf("Send() error = %v, want ErrNoRecipient", err)
	}
}

func TestLogSender(t *testing.T) {
	if err := (LogSender{}).Send(context.Background(), &Message{To: "a@b.c", Subject: "x"}); err != nil {
		t.Errorf("Send() error = %v", err)
	}
}
