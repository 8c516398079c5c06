package ingest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Cank256/market-mail/internal/inbound"
	"github.com/Cank256/market-mail/internal/market"
)

// ReadFile loads a submission from disk. ".eml" files are parsed as
// RFC 5322 messages, ".json" files as Postmark webhook bodies, and
// anything else as a plain text body sent by sender.
func ReadFile(path, sender string) (market.Payload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return market.Payload{}, err
	}

	var p market.Payload
	switch strings.ToLower(filepath.Ext(path)) {
	case ".eml":
		p, err = inbound.ParseMIME(bytes.NewReader(data))
	case ".json":
		var msg *inbound.PostmarkMessage
		msg, err = inbound.DecodePostmark(bytes.NewReader(data))
		if err == nil {
			p = msg.Payload()
		}
	default:
		p = market.Payload{Body: string(data)}
	}
	if err != nil {
		return market.Payload{}, fmt.Errorf("%s: %w", path, err)
	}
	if sender != "" {
		p.SenderEmail = sender
	}
	if p.Subject == "" {
		p.Subject = filepath.Base(path)
	}
	return p, nil
}

var numberSuffix = regexp.MustCompile(`-(\d+)\.[^.]+$`)

// SortFiles orders paths by numeric suffix (prices-2.eml before
// prices-10.eml). Files without a number come first, alphabetically.
func SortFiles(paths []string) []string {
	sorted := make([]string, len(paths))
	copy(sorted, paths)

	sort.SliceStable(sorted, func(i, j int) bool {
		mi := numberSuffix.FindStringSubmatch(sorted[i])
		mj := numberSuffix.FindStringSubmatch(sorted[j])

		if len(mi) > 1 && len(mj) > 1 {
			ni, _ := strconv.Atoi(mi[1])
			nj, _ := strconv.Atoi(mj[1])
			if ni != nj {
				return ni < nj
			}
			return sorted[i] < sorted[j]
		}
		if len(mi) > 1 {
			return false
		}
		if len(mj) > 1 {
			return true
		}
		return sorted[i] < sorted[j]
	})
	return sorted
}
