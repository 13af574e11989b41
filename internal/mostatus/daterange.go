package mostatus

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

const dateLayout = "2006-01-02"

// MaxRangeDays caps how many days one range may span, inclusive.
const MaxRangeDays = 366

var validate = validator.New()

type rangeInput struct {
	Start string `validate:"required,datetime=2006-01-02"`
	End   string `validate:"required,datetime=2006-01-02"`
}

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ParseDateRange validates two ISO dates and requires start <= end with at most
// MaxRangeDays days in between.
func ParseDateRange(start, end string) (DateRange, error) {
	if err := validate.Struct(rangeInput{Start: start, End: end}); err != nil {
		return DateRange{}, fmt.Errorf("%w: %v", ErrInvalidRange, err)
	}
	s, _ := time.ParseInLocation(dateLayout, start, time.UTC)
	e, _ := time.ParseInLocation(dateLayout, end, time.UTC)
	if e.Before(s) {
		return DateRange{}, fmt.Errorf("%w: start %s is after end %s", ErrInvalidRange, start, end)
	}
	r := DateRange{Start: s, End: e}
	if n := r.Len(); n > MaxRangeDays {
		return DateRange{}, fmt.Errorf("%w: %d days exceeds the %d day limit", ErrInvalidRange, n, MaxRangeDays)
	}
	return r, nil
}

// DefaultRange runs from the first day of now's month to now's day.
func DefaultRange(now time.Time) DateRange {
	today := truncateDay(now)
	return DateRange{Start: time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC), End: today}
}

// LastDays returns the window of n days ending on now's day. n is clamped to
// [1, MaxRangeDays].
func LastDays(now time.Time, n int) DateRange {
	if n <= 0 {
		n = 1
	}
	if n > MaxRangeDays {
		n = MaxRangeDays
	}
	today := truncateDay(now)
	return DateRange{Start: today.AddDate(0, 0, -(n - 1)), End: today}
}

// Len is the number of days in the range, inclusive.
func (r DateRange) Len() int {
	start, end := truncateDay(r.Start), truncateDay(r.End)
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// Days lists every day of the range, inclusive.
func (r DateRange) Days() []time.Time {
	if r.End.Before(r.Start) {
		return nil
	}
	var days []time.Time
	for d := truncateDay(r.Start); !d.After(r.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// StartString formats the start day.
func (r DateRange) StartString() string { return r.Start.Format(dateLayout) }

// EndString formats the end day.
func (r DateRange) EndString() string { return r.End.Format(dateLayout) }

func (r DateRange) String() string { return r.StartString() + ".." + r.EndString() }

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
