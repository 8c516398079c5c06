package defra

import "time"

// Doc wraps a GraphQL result document with typed accessors. JSON numbers
// arrive as float64; missing or mistyped fields yield zero values.
type Doc map[string]any

// ID returns the _docID.
func (d Doc) ID() string {
	return d.String("_docID")
}

// String returns a string field.
func (d Doc) String(key string) string {
	s, _ := d[key].(string)
	return s
}

// Float returns a numeric field.
func (d Doc) Float(key string) float64 {
	f, _ := d[key].(float64)
	return f
}

// Int returns a numeric field truncated to int.
func (d Doc) Int(key string) int {
	return int(d.Float(key))
}

// Bool returns a boolean field.
func (d Doc) Bool(key string) bool {
	b, _ := d[key].(bool)
	return b
}

// Time parses an RFC 3339 field.
func (d Doc) Time(key string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, d.String(key))
	if err != nil {
		return time.Time{}
	}
	return t
}
