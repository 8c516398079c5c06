// Package prices persists extracted submissions and their price items in
// DefraDB and reads them back for the query API and reports.
package prices

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Cank256/market-mail/internal/defra"
	"github.com/Cank256/market-mail/internal/market"
)

// Collection names.
const (
	SubmissionCollection = "MarketPrice"
	ItemCollection       = "PriceItem"
)

// DefaultLimit caps list queries that do not set one.
const DefaultLimit = 100

// ErrNotFound is returned by Get for an unknown submission.
var ErrNotFound = errors.New("submission not found")

// Submission is a stored market record.
type Submission struct {
	ID                string    `json:"id"`
	Market            string    `json:"market"`
	Country           string    `json:"country,omitempty"`
	Date              time.Time `json:"date"`
	SubmitterEmail    string    `json:"submitterEmail"`
	MessageID         string    `json:"messageId,omitempty"`
	OriginalRecipient string    `json:"originalRecipient,omitempty"`
	Subject           string    `json:"subject,omitempty"`
	Strategy          string    `json:"strategy"`
	ItemCount         int       `json:"itemCount"`
	CreatedAt         time.Time `json:"createdAt"`
	Items             []Item    `json:"priceItems,omitempty"`
}

// Item is one stored price line.
type Item struct {
	ID           string    `json:"id"`
	SubmissionID string    `json:"submissionId"`
	Market       string    `json:"market"`
	Product      string    `json:"product"`
	Unit         string    `json:"unit"`
	Price        float64   `json:"price"`
	Date         time.Time `json:"date"`
	Position     int       `json:"position"`
}

// SaveInput is a validated record plus how it was produced.
type SaveInput struct {
	Record   *market.MarketData
	Strategy string
	Country  string
}

// ListFilter narrows List. Zero fields are ignored.
type ListFilter struct {
	Market    string
	Submitter string
	From, To  time.Time
	Limit     int
	Offset    int
}

var submissionFields = []string{
	"_docID", "market", "country", "date", "submitter_email", "message_id",
	"original_recipient", "subject", "strategy", "item_count", "created_at",
}

var itemFields = []string{
	"_docID", "submission_id", "market", "product", "unit", "price", "date", "position",
}

// Store reads and writes submissions.
type Store struct {
	client *defra.Client
	now    func() time.Time
}

// NewStore creates a store.
func NewStore(client *defra.Client) *Store {
	return &Store{client: client, now: time.Now}
}

// Save writes the submission document, then its items in one batch.
// Items are denormalized with market and date so history queries never
// need a join.
func (s *Store) Save(ctx context.Context, in SaveInput) (*Submission, error) {
	rec := in.Record
	if rec == nil {
		return nil, fmt.Errorf("nil record")
	}

	sub := &Submission{
		Market:            rec.Market,
		Country:           in.Country,
		Date:              rec.Date,
		SubmitterEmail:    rec.SubmitterEmail,
		MessageID:         rec.MessageID,
		OriginalRecipient: rec.OriginalRecipient,
		Subject:           rec.Subject,
		Strategy:          in.Strategy,
		ItemCount:         len(rec.PriceItems),
		CreatedAt:         s.now().UTC(),
	}

	id, err := s.client.Create(ctx, SubmissionCollection, submissionDoc(sub))
	if err != nil {
		return nil, fmt.Errorf("save submission: %w", err)
	}
	sub.ID = id

	docs := make([]map[string]any, len(rec.PriceItems))
	sub.Items = make([]Item, len(rec.PriceItems))
	for i, p := range rec.PriceItems {
		sub.Items[i] = Item{
			SubmissionID: id,
			Market:       rec.Market,
			Product:      p.Product,
			Unit:         p.Unit,
			Price:        p.Price,
			Date:         rec.Date,
			Position:     i,
		}
		docs[i] = itemDoc(sub.Items[i])
	}
	if _, err := s.client.CreateMany(ctx, ItemCollection, docs); err != nil {
		// Leave no submission without its items.
		if delErr := s.client.Delete(ctx, SubmissionCollection, id); delErr != nil {
			return nil, fmt.Errorf("save price items: %w (cleanup failed: %v)", err, delErr)
		}
		return nil, fmt.Errorf("save price items: %w", err)
	}
	return sub, nil
}

// Get returns a submission with its items.
func (s *Store) Get(ctx context.Context, id string) (*Submission, error) {
	if err := defra.ValidateID(id); err != nil {
		return nil, ErrNotFound
	}
	docs, err := defra.NewQuery(SubmissionCollection).
		Filter("_docID", id).
		Fields(submissionFields...).
		Docs(ctx, s.client)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNotFound
	}
	sub := parseSubmission(docs[0])

	items, err := s.items(ctx, defra.NewQuery(ItemCollection).Filter("submission_id", id).OrderBy("position", defra.ASC))
	if err != nil {
		return nil, err
	}
	sub.Items = items
	return &sub, nil
}

// List returns submissions, newest submission date first.
func (s *Store) List(ctx context.Context, f ListFilter) ([]Submission, error) {
	q := defra.NewQuery(SubmissionCollection).Fields(submissionFields...)
	if f.Market != "" {
		q.FilterLike("market", f.Market)
	}
	if f.Submitter != "" {
		q.Filter("submitter_email", f.Submitter)
	}
	if !f.From.IsZero() {
		q.FilterGTE("date", f.From)
	}
	if !f.To.IsZero() {
		q.FilterLTE("date", f.To)
	}
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	q.OrderBy("date", defra.DESC).OrderBy("created_at", defra.DESC).Limit(f.Limit).Offset(f.Offset)

	docs, err := q.Docs(ctx, s.client)
	if err != nil {
		return nil, err
	}
	subs := make([]Submission, 0, len(docs))
	for _, d := range docs {
		subs = append(subs, parseSubmission(d))
	}
	return subs, nil
}

// Markets returns the distinct market names seen, sorted. Names that
// differ only in case collapse to the first spelling seen.
func (s *Store) Markets(ctx context.Context) ([]string, error) {
	docs, err := defra.NewQuery(SubmissionCollection).
		Fields("market").
		OrderBy("created_at", defra.ASC).
		Docs(ctx, s.client)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var markets []string
	for _, d := range docs {
		name := defra.Doc(d).String("market")
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true
		markets = append(markets, name)
	}
	sort.Strings(markets)
	return markets, nil
}

// Latest returns the most recent submission for marketName with its items,
// or ErrNotFound.
func (s *Store) Latest(ctx context.Context, marketName string) (*Submission, error) {
	subs, err := s.List(ctx, ListFilter{Market: marketName, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, subs[0].ID)
}

// History returns the newest limit prices of product in marketName.
func (s *Store) History(ctx context.Context, marketName, product string, limit int) ([]Item, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return s.items(ctx, defra.NewQuery(ItemCollection).
		FilterLike("market", marketName).
		FilterLike("product", product).
		OrderBy("date", defra.DESC).
		Limit(limit))
}

// Range returns every item for marketName dated within [from, to]. A zero
// bound is open.
func (s *Store) Range(ctx context.Context, marketName string, from, to time.Time) ([]Item, error) {
	q := defra.NewQuery(ItemCollection).FilterLike("market", marketName)
	if !from.IsZero() {
		q.FilterGTE("date", from)
	}
	if !to.IsZero() {
		q.FilterLTE("date", to)
	}
	return s.items(ctx, q.OrderBy("date", defra.ASC))
}

func (s *Store) items(ctx context.Context, q *defra.QueryBuilder) ([]Item, error) {
	docs, err := q.Fields(itemFields...).Docs(ctx, s.client)
	if err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(docs))
	for _, d := range docs {
		items = append(items, parseItem(d))
	}
	return items, nil
}

func submissionDoc(s *Submission) map[string]any {
	doc := map[string]any{
		"market":          s.Market,
		"date":            s.Date,
		"submitter_email": s.SubmitterEmail,
		"strategy":        s.Strategy,
		"item_count":      s.ItemCount,
		"created_at":      s.CreatedAt,
	}
	for k, v := range map[string]string{
		"country":            s.Country,
		"message_id":         s.MessageID,
		"original_recipient": s.OriginalRecipient,
		"subject":            s.Subject,
	} {
		if v != "" {
			doc[k] = v
		}
	}
	return doc
}

func itemDoc(it Item) map[string]any {
	return map[string]any{
		"submission_id": it.SubmissionID,
		"market":        it.Market,
		"product":       it.Product,
		"unit":          it.Unit,
		"price":         it.Price,
		"date":          it.Date,
		"position":      it.Position,
	}
}

func parseSubmission(m map[string]any) Submission {
	d := defra.Doc(m)
	return Submission{
		ID:                d.ID(),
		Market:            d.String("market"),
		Country:           d.String("country"),
		Date:              d.Time("date"),
		SubmitterEmail:    d.String("submitter_email"),
		MessageID:         d.String("message_id"),
		OriginalRecipient: d.String("original_recipient"),
		Subject:           d.String("subject"),
		Strategy:          d.String("strategy"),
		ItemCount:         d.Int("item_count"),
		CreatedAt:         d.Time("created_at"),
	}
}

func parseItem(m map[string]any) Item {
	d := defra.Doc(m)
	return Item{
		ID:           d.ID(),
		SubmissionID: d.String("submission_id"),
		Market:       d.String("market"),
		Product:      d.String("product"),
		Unit:         d.String("unit"),
		Price:        d.Float("price"),
		Date:         d.Time("date"),
		Position:     d.Int("position"),
	}
}
