// Package duration parses the age thresholds accepted by prune --older-than.
package duration

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	Day   = 24 * time.Hour
	Week  = 7 * Day
	Month = 30 * Day
	Year  = 365 * Day
)

const formats = "use formats like: 30d, 2w, 6M, 1y, 12h, 30m or ISO 8601 like P30D, P1Y, P2W, PT1H"

var (
	humanRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*([dDwWMmyYhHsS])$`)

	number = `(\d+(?:\.\d+)?)`
	isoRe  = regexp.MustCompile(`^P(?:` + number + `Y)?(?:` + number + `M)?(?:` + number + `W)?(?:` + number + `D)?` +
		`(?:T(?:` + number + `H)?(?:` + number + `M)?(?:` + number + `S)?)?$`)

	// isoUnits lines up with isoRe's capture groups.
	isoUnits = []time.Duration{Year, Month, Week, Day, time.Hour, time.Minute, time.Second}
)

var ErrInvalid = errors.New("invalid duration")

// Parse accepts a number with a unit (uppercase M is months, lowercase m is
// minutes; every other unit ignores case) or an ISO 8601 duration. Months
// count as 30 days and years as 365. Zero durations are rejected.
func Parse(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: duration cannot be empty (%s)", ErrInvalid, formats)
	}

	d, ok := parse(s)
	if !ok || d <= 0 {
		return 0, fmt.Errorf("%w: %q (%s)", ErrInvalid, s, formats)
	}
	return d, nil
}

func parse(s string) (time.Duration, bool) {
	if m := humanRe.FindStringSubmatch(s); m != nil {
		unit, ok := humanUnit(m[2])
		if !ok {
			return 0, false
		}
		return scale(m[1], unit)
	}

	m := isoRe.FindStringSubmatch(strings.ToUpper(s))
	if m == nil || strings.HasSuffix(strings.ToUpper(s), "T") {
		return 0, false
	}

	var total time.Duration
	matched := false
	for i, unit := range isoUnits {
		value := m[i+1]
		if value == "" {
			continue
		}
		d, ok := scale(value, unit)
		if !ok || total > math.MaxInt64-d {
			return 0, false
		}
		total += d
		matched = true
	}
	return total, matched
}

func humanUnit(u string) (time.Duration, bool) {
	switch u {
	case "M":
		return Month, true
	case "m":
		return time.Minute, true
	}
	switch strings.ToLower(u) {
	case "d":
		return Day, true
	case "w":
		return Week, true
	case "y":
		return Year, true
	case "h":
		return time.Hour, true
	case "s":
		return time.Second, true
	}
	return 0, false
}

func scale(value string, unit time.Duration) (time.Duration, bool) {
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		if n > (1<<63-1)/int64(unit) {
			return 0, false
		}
		return time.Duration(n) * unit, true
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f*float64(unit) >= float64(1<<63-1) {
		return 0, false
	}
	return time.Duration(f * float64(unit)), true
}
