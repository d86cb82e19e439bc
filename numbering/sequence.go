// Package numbering formats invoice numbers from a named series.
//
// Numbers are never reused and the counter never goes down. A cancelled or deleted invoice keeps its
// number, so gaps in a series are expected. Persisting the advanced counter atomically with the
// invoice is the storage layer's job.
package numbering

import (
	"errors"
	"fmt"
)

// DefaultPadding is the zero-padded width of the counter.
const DefaultPadding = 4

var ErrInvalidNumber = errors.New("invoice number must not be negative")

// FormatInvoiceNumber returns prefix + zero-padded number + suffix. Padding of zero or less means no
// padding; numbers wider than the padding are kept whole.
func FormatInvoiceNumber(prefix string, number int64, suffix string, padding int) (string, error) {
	if number < 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidNumber, number)
	}
	if padding < 0 {
		padding = 0
	}
	return fmt.Sprintf("%s%0*d%s", prefix, padding, number, suffix), nil
}

// Series is a snapshot of a named invoice number series. Padding is used as given: the zero value
// formats unpadded numbers, so callers building a Series set Padding to DefaultPadding (or a
// configured width) themselves.
type Series struct {
	Prefix     string
	Suffix     string
	StartWith  int64
	NextNumber int64
	Padding    int
}

// current is the counter value the next invoice consumes.
func (s Series) current() int64 {
	if s.NextNumber < s.StartWith {
		return s.StartWith
	}
	return s.NextNumber
}

// Preview formats the number the next invoice would get without consuming it.
func (s Series) Preview() (string, error) {
	return FormatInvoiceNumber(s.Prefix, s.current(), s.Suffix, s.Padding)
}

// Next consumes one number: it returns the formatted number and the series with its counter advanced.
func (s Series) Next() (string, Series, error) {
	n := s.current()
	number, err := FormatInvoiceNumber(s.Prefix, n, s.Suffix, s.Padding)
	if err != nil {
		return "", s, err
	}
	s.NextNumber = n + 1
	return number, s, nil
}
