package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Granularity is the length of a goal period.
type Granularity int

const (
	Daily Granularity = iota + 1
	Weekly
	Monthly
	Yearly
)

// BucketKey identifies one period of one granularity, e.g. "2024-03-01",
// "2024-W09", "2024-03" or "2024".
type BucketKey string

// Granularities lists every valid granularity in ascending length.
var Granularities = []Granularity{Daily, Weekly, Monthly, Yearly}

func (g Granularity) Valid() bool {
	return g >= Daily && g <= Yearly
}

func (g Granularity) String() string {
	switch g {
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	case Yearly:
		return "yearly"
	}
	return fmt.Sprintf("granularity(%d)", int(g))
}

// ParseGranularity maps "daily", "weekly", "monthly" or "yearly" to a Granularity.
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily":
		return Daily, nil
	case "weekly":
		return Weekly, nil
	case "monthly":
		return Monthly, nil
	case "yearly":
		return Yearly, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidGranularity, s)
}

func (g Granularity) MarshalText() ([]byte, error) {
	if !g.Valid() {
		return nil, ErrInvalidGranularity
	}
	return []byte(g.String()), nil
}

func (g *Granularity) UnmarshalText(text []byte) error {
	parsed, err := ParseGranularity(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// ResolveBucket returns the bucket key that d falls into.
func ResolveBucket(d Date, g Granularity) BucketKey {
	switch g {
	case Daily:
		return BucketKey(d.String())
	case Weekly:
		year, week := weekOfYear(d)
		return BucketKey(fmt.Sprintf("%04d-W%02d", year, week))
	case Monthly:
		return BucketKey(d.MonthKey())
	case Yearly:
		return BucketKey(d.Format("2006"))
	}
	panic(fmt.Sprintf("core: resolve bucket with %v", g))
}

// CurrentBucket is the bucket containing the calendar day of now.
func CurrentBucket(now time.Time, g Granularity) BucketKey {
	return ResolveBucket(DateOf(now), g)
}

// weekOfYear counts Sunday-aligned weeks since January 1st:
// ceil((daysSinceJan1 + weekdayOfJan1 + 1) / 7).
// This is not ISO-8601 week numbering; stored weekly goal periods depend on it.
func weekOfYear(d Date) (year, week int) {
	year = d.Year()
	jan1 := NewDate(year, 1, 1)
	n := d.YearDay() - 1 + int(jan1.Weekday()) + 1
	return year, (n + 6) / 7
}

// BucketRange returns the inclusive day range covered by key.
//
// Weekly ranges start on January 1st plus (week-1)*7 days and span seven days,
// independently of the weekday alignment used by ResolveBucket.
func BucketRange(key BucketKey, g Granularity) (DateRange, error) {
	s := string(key)
	switch g {
	case Daily:
		d, err := ParseDate(s)
		if err != nil {
			return DateRange{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
		}
		return DateRange{Start: d, End: d}, nil
	case Weekly:
		year, week, err := parseWeekKey(s)
		if err != nil {
			return DateRange{}, err
		}
		start := NewDate(year, 1, 1).AddDays((week - 1) * 7)
		return DateRange{Start: start, End: start.AddDays(6)}, nil
	case Monthly:
		t, err := time.Parse("2006-01", s)
		if err != nil {
			return DateRange{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
		}
		start := Date{Time: t}
		return DateRange{Start: start, End: Date{Time: t.AddDate(0, 1, -1)}}, nil
	case Yearly:
		t, err := time.Parse("2006", s)
		if err != nil {
			return DateRange{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
		}
		return DateRange{Start: Date{Time: t}, End: NewDate(t.Year(), 12, 31)}, nil
	}
	return DateRange{}, ErrInvalidGranularity
}

func parseWeekKey(s string) (year, week int, err error) {
	yearPart, weekPart, ok := strings.Cut(s, "-W")
	if !ok || len(yearPart) != 4 || len(weekPart) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	year, err = strconv.Atoi(yearPart)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	week, err = strconv.Atoi(weekPart)
	if err != nil || week < 1 || week > 54 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	return year, week, nil
}

// InBucket reports whether d belongs to key. Daily keys match exactly,
// monthly and yearly keys match as a prefix of the ISO date, weekly keys
// match the inclusive BucketRange.
func InBucket(d Date, key BucketKey, g Granularity) bool {
	switch g {
	case Daily:
		return d.String() == string(key)
	case Monthly, Yearly:
		return strings.HasPrefix(d.String(), string(key))
	case Weekly:
		r, err := BucketRange(key, g)
		if err != nil {
			return false
		}
		return r.Contains(d)
	}
	return false
}

// bucketMatcher returns a predicate equivalent to InBucket with the weekly
// range resolved once.
func bucketMatcher(key BucketKey, g Granularity) func(Date) bool {
	if g == Weekly {
		r, err := BucketRange(key, g)
		if err != nil {
			return func(Date) bool { return false }
		}
		return r.Contains
	}
	return func(d Date) bool { return InBucket(d, key, g) }
}
