package screening

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

var chainColumns = []string{"expiry", "strike", "last_price", "volume", "open_interest"}

// LoadChainCSV reads a put chain with the header
// expiry,strike,last_price,volume,open_interest. Column order is free; volume
// and open_interest may be empty.
func LoadChainCSV(r io.Reader) ([]Quote, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty chain file", ErrEmptyBook)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read chain header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range chainColumns {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("chain header missing column %q", c)
		}
	}

	var quotes []Quote
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read chain csv: %w", err)
		}
		line++

		q, err := parseQuote(record, idx)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		quotes = append(quotes, q)
	}
	return quotes, nil
}

func parseQuote(record []string, idx map[string]int) (Quote, error) {
	field := func(name string) string {
		return strings.TrimSpace(record[idx[name]])
	}

	expiry, err := time.Parse("2006-01-02", field("expiry"))
	if err != nil {
		return Quote{}, fmt.Errorf("invalid expiry %q", field("expiry"))
	}
	strike, err := strconv.ParseFloat(field("strike"), 64)
	if err != nil {
		return Quote{}, fmt.Errorf("invalid strike %q", field("strike"))
	}
	last, err := strconv.ParseFloat(field("last_price"), 64)
	if err != nil {
		return Quote{}, fmt.Errorf("invalid last_price %q", field("last_price"))
	}
	volume, err := parseCount(field("volume"))
	if err != nil {
		return Quote{}, err
	}
	oi, err := parseCount(field("open_interest"))
	if err != nil {
		return Quote{}, err
	}

	return Quote{
		Expiry:       expiry,
		Strike:       strike,
		LastPrice:    last,
		Volume:       volume,
		OpenInterest: oi,
	}, nil
}

// parseCount accepts integers and float-formatted counts such as "12.0"
func parseCount(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid count %q", s)
	}
	return int64(f), nil
}
