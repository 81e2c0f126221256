package screening

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// BookSummary is one entry of an exchange option book summary
type BookSummary struct {
	InstrumentName  string   `json:"instrument_name"`
	MarkIV          float64  `json:"mark_iv"` // percent
	MarkPrice       float64  `json:"mark_price"`
	AskPrice        *float64 `json:"ask_price"` // in units of the underlying
	BidPrice        *float64 `json:"bid_price"`
	UnderlyingPrice float64  `json:"underlying_price"`
}

type bookEnvelope struct {
	Result []BookSummary `json:"result"`
}

// Instrument is a parsed option name such as BTC-27DEC24-50000-P
type Instrument struct {
	Name     string
	Currency string
	Expiry   time.Time
	Strike   float64
	Put      bool
}

// ParseInstrument splits CURRENCY-DDMONYY-STRIKE-(P|C)
func ParseInstrument(name string) (Instrument, error) {
	parts := strings.Split(name, "-")
	if len(parts) != 4 {
		return Instrument{}, fmt.Errorf("invalid instrument name %q", name)
	}

	expiry, err := time.Parse("2Jan06", parts[1])
	if err != nil {
		return Instrument{}, fmt.Errorf("invalid expiry in %q: %w", name, err)
	}
	strike, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return Instrument{}, fmt.Errorf("invalid strike in %q: %w", name, err)
	}

	var put bool
	switch parts[3] {
	case "P":
		put = true
	case "C":
	default:
		return Instrument{}, fmt.Errorf("invalid option type in %q", name)
	}

	return Instrument{
		Name:     name,
		Currency: parts[0],
		Expiry:   expiry,
		Strike:   strike,
		Put:      put,
	}, nil
}

// Put is a tradable put ready for stress testing
type Put struct {
	Instrument
	IV          float64 // fraction
	MarketPrice float64 // ask converted to quote currency
	Underlying  float64
}

// LoadBook decodes a book summary response, either {"result": [...]} or a bare array
func LoadBook(r io.Reader) ([]BookSummary, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read book: %w", err)
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var list []BookSummary
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("failed to decode book: %w", err)
		}
		return list, nil
	}

	var env bookEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode book: %w", err)
	}
	if env.Result == nil {
		return nil, fmt.Errorf("%w: response has no result", ErrEmptyBook)
	}
	return env.Result, nil
}

// SelectPuts keeps out-of-the-money puts with a positive mark and ask that
// expire at least minDays whole days after now. Unparseable names are skipped.
func SelectPuts(book []BookSummary, now time.Time, minDays int) []Put {
	var out []Put
	for _, b := range book {
		inst, err := ParseInstrument(b.InstrumentName)
		if err != nil || !inst.Put {
			continue
		}
		if b.MarkPrice <= 0 || b.UnderlyingPrice <= 0 {
			continue
		}
		if inst.Strike >= b.UnderlyingPrice {
			continue
		}
		if b.AskPrice == nil || *b.AskPrice <= 0 {
			continue
		}
		if int(inst.Expiry.Sub(now).Hours()/24) < minDays {
			continue
		}

		out = append(out, Put{
			Instrument:  inst,
			IV:          b.MarkIV / 100,
			MarketPrice: *b.AskPrice * b.UnderlyingPrice,
			Underlying:  b.UnderlyingPrice,
		})
	}
	return out
}
