package mailbox

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"strconv"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
)

// Message is a raw RFC 5322 message and its mailbox UID.
type Message struct {
	UID uint32
	Raw []byte
}

// Mailbox is an open, selected IMAP folder.
type Mailbox interface {
	// Unseen returns up to limit messages without the \Seen flag, oldest
	// first. A limit of zero returns all of them.
	Unseen(ctx context.Context, limit int) ([]Message, error)
	// MarkSeen adds the \Seen flag to the given UIDs.
	MarkSeen(ctx context.Context, uids []uint32) error
	Close() error
}

// Dialer opens a Mailbox.
type Dialer func(ctx context.Context, cfg Config) (Mailbox, error)

// DialIMAP connects, logs in and selects cfg.Folder.
func DialIMAP(_ context.Context, cfg Config) (Mailbox, error) {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	var c *client.Client
	var err error
	if cfg.TLS {
		c, err = client.DialTLS(addr, nil)
	} else {
		c, err = client.Dial(addr)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to IMAP server: %w", err)
	}
	if cfg.Timeout > 0 {
		c.Timeout = cfg.Timeout
	}

	if err := c.Login(cfg.Username, cfg.Password); err != nil {
		c.Logout()
		return nil, fmt.Errorf("IMAP login failed: %w", err)
	}
	if _, err := c.Select(cfg.Folder, false); err != nil {
		c.Logout()
		return nil, fmt.Errorf("failed to select %s: %w", cfg.Folder, err)
	}
	return &imapMailbox{c: c}, nil
}

type imapMailbox struct {
	c *client.Client
}

func (m *imapMailbox) Unseen(ctx context.Context, limit int) ([]Message, error) {
	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	uids, err := m.c.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("IMAP search failed: %w", err)
	}
	if len(uids) == 0 {
		return nil, nil
	}
	if limit > 0 && len(uids) > limit {
		uids = uids[:limit]
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uids...)

	// BODY.PEEK so a message that fails mid-cycle stays unseen.
	section := &imap.BodySectionName{Peek: true}
	messages := make(chan *imap.Message, len(uids))
	done := make(chan error, 1)
	go func() {
		done <- m.c.UidFetch(seqSet, []imap.FetchItem{imap.FetchUid, section.FetchItem()}, messages)
	}()

	var out []Message
	for msg := range messages {
		if err := ctx.Err(); err != nil {
			continue
		}
		body := msg.GetBody(section)
		if body == nil {
			continue
		}
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, body); err != nil {
			return nil, fmt.Errorf("failed to read message %d: %w", msg.Uid, err)
		}
		out = append(out, Message{UID: msg.Uid, Raw: buf.Bytes()})
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("IMAP fetch failed: %w", err)
	}
	return out, ctx.Err()
}

func (m *imapMailbox) MarkSeen(_ context.Context, uids []uint32) error {
	if len(uids) == 0 {
		return nil
	}
	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uids...)
	item := imap.FormatFlagsOp(imap.AddFlags, true)
	if err := m.c.UidStore(seqSet, item, []interface{}{imap.SeenFlag}, nil); err != nil {
		return fmt.Errorf("failed to mark messages seen: %w", err)
	}
	return nil
}

func (m *imapMailbox) Close() error {
	return m.c.Logout()
}
