// Package validity resolves the date expressions used for token validity periods.
//
// An expression is either an absolute date or an offset relative to the time of
// evaluation, like "+10m", "+24h" or "-7d".
package validity

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateFormat is the format validity period bounds are stored in by the token library.
const DateFormat = "2006-01-02T15:04-0700"

var ErrInvalidExpression = errors.New("invalid date expression")

// sign, amount and unit may be separated by blanks; the unit is case-insensitive
var relativePattern = regexp.MustCompile(`(?i)^([+-])\s*(\d+)\s*([mhd])$`)

// absolute layouts tried in order; the first one is the storage format itself
var layouts = []string{
	DateFormat,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006 15:04",
	"02/01/2006",
	"02.01.2006 15:04",
	"02.01.2006",
}

var units = map[string]time.Duration{
	"m": time.Minute,
	"h": time.Hour,
	"d": 24 * time.Hour,
}

// Parse resolves expr to an absolute time. Relative offsets are applied to now,
// absolute dates without a zone are read in now's location.
func Parse(expr string, now time.Time) (time.Time, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidExpression)
	}

	if m := relativePattern.FindStringSubmatch(expr); m != nil {
		n, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: '%s': %v", ErrInvalidExpression, expr, err)
		}
		unit := units[strings.ToLower(m[3])]
		if n > math.MaxInt64/int64(unit) {
			return time.Time{}, fmt.Errorf("%w: '%s' is out of range", ErrInvalidExpression, expr)
		}
		offset := time.Duration(n) * unit
		if m[1] == "-" {
			offset = -offset
		}
		return now.Add(offset), nil
	}

	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, expr, now.Location()); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: '%s' is neither a date nor an offset like +10m, +24h, +7d",
		ErrInvalidExpression, expr)
}

// Resolve resolves expr and formats it in the storage format.
func Resolve(expr string, now time.Time) (string, error) {
	t, err := Parse(expr, now)
	if err != nil {
		return "", err
	}
	return t.Format(DateFormat), nil
}
