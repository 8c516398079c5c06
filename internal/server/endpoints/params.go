package endpoints

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Cank256/market-mail/internal/parser"
)

// intParam reads a non-negative integer query parameter.
func intParam(q url.Values, name string, def int) (int, error) {
	v := q.Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s: %q must be a non-negative integer", name, v)
	}
	return n, nil
}

// dateParam reads a date query parameter in any layout the line parser
// accepts. Missing values give the zero time.
func dateParam(q url.Values, name string) (time.Time, error) {
	v := q.Get(name)
	if v == "" {
		return time.Time{}, nil
	}
	t, ok := parser.ParseDate(v)
	if !ok {
		return time.Time{}, fmt.Errorf("invalid %s: %q is not a date (e.g., 2026-03-01)", name, v)
	}
	return t, nil
}

// endOfDay moves a date-only bound to the last instant of that day.
func endOfDay(t time.Time) time.Time {
	if t.IsZero() || t.Hour() != 0 || t.Minute() != 0 || t.Second() != 0 {
		return t
	}
	return t.Add(24*time.Hour - time.Nanosecond)
}

// listParam splits a comma separated parameter, dropping empty entries.
func listParam(q url.Values, name string) []string {
	var out []string
	for _, s := range strings.Split(q.Get(name), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
