package pricing

import (
	"fmt"
	"time"

	"github.com/dormhub/service-booking/internal/platform/domain"
)

// DateLayout is the wire format of stay dates.
const DateLayout = "2006-01-02"

// StayRange is a half-open range of calendar dates [Start, End).
type StayRange struct {
	start time.Time
	end   time.Time
}

// NewStayRange builds a StayRange. Time of day is dropped and end must be
// strictly after start.
func NewStayRange(start, end time.Time) (StayRange, error) {
	s := truncateToDate(start)
	e := truncateToDate(end)
	if !e.After(s) {
		return StayRange{}, domain.NewValidationError("stay end must be after stay start")
	}
	return StayRange{start: s, end: e}, nil
}

// ParseStayRange parses YYYY-MM-DD start and end dates.
func ParseStayRange(start, end string) (StayRange, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return StayRange{}, domain.NewValidationError(fmt.Sprintf("invalid start date %q, expected YYYY-MM-DD", start))
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return StayRange{}, domain.NewValidationError(fmt.Sprintf("invalid end date %q, expected YYYY-MM-DD", end))
	}
	return NewStayRange(s, e)
}

// Start returns the first night of the stay.
func (r StayRange) Start() time.Time { return r.start }

// End returns the checkout date.
func (r StayRange) End() time.Time { return r.end }

// Days returns the number of whole days in the range. Zero for the zero value.
func (r StayRange) Days() int {
	if r.start.IsZero() || r.end.IsZero() {
		return 0
	}
	// Calendar days in UTC have no DST jumps, so hours divide evenly.
	return int(r.end.Sub(r.start).Hours() / 24)
}

// String formats the range as start..end.
func (r StayRange) String() string {
	return r.start.Format(DateLayout) + ".." + r.end.Format(DateLayout)
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
