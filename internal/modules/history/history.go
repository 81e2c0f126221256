// Package history turns a monthly price series into the overlapping annual
// returns the bootstrap simulator samples from.
package history

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/safehaven/pkg/formulas"
)

// DefaultWindow compounds twelve monthly returns into one annual return
const DefaultWindow = 12

var (
	// ErrNoPrices is returned when a price file contains no data rows
	ErrNoPrices = errors.New("no price rows")
	// ErrInvalidPrice is returned for non-positive or non-finite closes
	ErrInvalidPrice = errors.New("price must be positive and finite")
	// ErrInsufficientHistory is returned when the series is shorter than the window
	ErrInsufficientHistory = errors.New("not enough history for the return window")
)

var dateLayouts = []string{"2006-01-02", "2006-01"}

// PricePoint is one close of the underlying series
type PricePoint struct {
	Date  time.Time
	Close float64
}

// AnnualReturn is the trailing compounded return ending at Date
type AnnualReturn struct {
	Date   time.Time
	Year   int
	Return float64
}

// Options controls the annual return derivation
type Options struct {
	Window   int // periods compounded per observation, DefaultWindow when <= 0
	FromYear int // inclusive, 0 = no lower bound
	ToYear   int // inclusive, 0 = no upper bound
}

// LoadPricesCSV reads "date,close" rows. A first row whose close column is not
// numeric is treated as a header. Rows are returned sorted by date.
func LoadPricesCSV(r io.Reader) ([]PricePoint, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var points []PricePoint
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read price csv: %w", err)
		}
		line++

		if len(record) < 2 {
			return nil, fmt.Errorf("line %d: expected date,close", line)
		}

		closeStr := strings.TrimSpace(record[1])
		price, perr := strconv.ParseFloat(closeStr, 64)
		if perr != nil {
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("line %d: invalid close %q: %w", line, closeStr, perr)
		}
		if price <= 0 || math.IsInf(price, 0) || math.IsNaN(price) {
			return nil, fmt.Errorf("line %d: %w: %v", line, ErrInvalidPrice, price)
		}

		date, derr := parseDate(strings.TrimSpace(record[0]))
		if derr != nil {
			return nil, fmt.Errorf("line %d: %w", line, derr)
		}

		points = append(points, PricePoint{Date: date, Close: price})
	}

	if len(points) == 0 {
		return nil, ErrNoPrices
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})

	return points, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// AnnualReturns derives one trailing compounded return per price after the
// first Window periods, then keeps the ones whose year lies in
// [FromYear, ToYear].
//
// Args:
//   - prices: closes sorted by date, oldest first
//   - opts: window and optional year filter
//
// Returns:
//   - observations in date order
func AnnualReturns(prices []PricePoint, opts Options) ([]AnnualReturn, error) {
	window := opts.Window
	if window <= 0 {
		window = DefaultWindow
	}
	if len(prices) <= window {
		return nil, fmt.Errorf("%w: %d prices, window %d", ErrInsufficientHistory, len(prices), window)
	}

	closes := make([]float64, len(prices))
	for i, p := range prices {
		closes[i] = p.Close
	}

	rolled := formulas.RollingCompoundReturn(formulas.PercentChange(closes), window)

	out := make([]AnnualReturn, 0, len(rolled))
	for i, r := range rolled {
		date := prices[i+window].Date
		year := date.Year()
		if opts.FromYear != 0 && year < opts.FromYear {
			continue
		}
		if opts.ToYear != 0 && year > opts.ToYear {
			continue
		}
		out = append(out, AnnualReturn{Date: date, Year: year, Return: r})
	}

	return out, nil
}

// Returns extracts the return values in order
func Returns(obs []AnnualReturn) []float64 {
	out := make([]float64, len(obs))
	for i, o := range obs {
		out[i] = o.Return
	}
	return out
}

// AnnualizedVolatility is the standard deviation of period returns scaled by
// sqrt(periodsPerYear), e.g. 12 for monthly closes
func AnnualizedVolatility(prices []PricePoint, periodsPerYear int) float64 {
	if len(prices) < 3 || periodsPerYear <= 0 {
		return 0
	}
	closes := make([]float64, len(prices))
	for i, p := range prices {
		closes[i] = p.Close
	}
	return formulas.StdDev(formulas.PercentChange(closes)) * math.Sqrt(float64(periodsPerYear))
}
