// Package schedule maps (day-of-week, time-of-day) to an hourly rate with a
// default fallback. Lookup is a pure function of the schedule and a clock
// reading; all range normalization happens once, at construction.
package schedule

import (
	"fmt"
	"time"
)

// DayTime is a time of day expressed as seconds since midnight, 0..86399.
type DayTime int

func NewDayTime(hour, minute, second int) DayTime {
	return DayTime(hour*3600 + minute*60 + second)
}

// ParseDayTime parses "HH:MM:SS".
func ParseDayTime(s string) (DayTime, error) {
	var h, m, sec int
	if _, err := fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec); err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 || sec < 0 || sec > 59 || (h == 24 && (m != 0 || sec != 0)) {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	return NewDayTime(h, m, sec), nil
}

func (t DayTime) Hour() int   { return int(t) / 3600 }
func (t DayTime) Minute() int { return int(t) / 60 % 60 }
func (t DayTime) Second() int { return int(t) % 60 }

func (t DayTime) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour(), t.Minute(), t.Second())
}

const endOfDay = DayTime(23*3600 + 59*60 + 59)

// TimeRange is one priced window within a day. End is inclusive of its
// exact instant.
type TimeRange struct {
	Start        DayTime
	End          DayTime
	PricePerHour float64
}

// NewTimeRange normalizes the supplied end once, here: midnight (00:00:00 or
// 24:00:00) means "until end of day" and becomes 23:59:59; any other
// zero-second boundary is treated as an exclusive end and loses one second,
// so adjacent ranges do not overlap at their shared boundary.
func NewTimeRange(start, end DayTime, pricePerHour float64) TimeRange {
	if end.Second() == 0 {
		if end == 0 || end == DayTime(24*3600) {
			end = endOfDay
		} else {
			end--
		}
	}
	return TimeRange{Start: start, End: end, PricePerHour: pricePerHour}
}

// Contains reports whether t falls within the range, both ends inclusive.
func (r TimeRange) Contains(t DayTime) bool {
	return r.Start <= t && t <= r.End
}

// Schedule is a per-day list of priced ranges plus a default hourly rate.
// Ranges need not be exhaustive or disjoint; lookup takes the first match in
// declaration order. Immutable after construction.
type Schedule struct {
	Days                map[time.Weekday][]TimeRange
	DefaultPricePerHour float64
}

func New(defaultPricePerHour float64) *Schedule {
	return &Schedule{
		Days:                make(map[time.Weekday][]TimeRange),
		DefaultPricePerHour: defaultPricePerHour,
	}
}

// AddRange appends a normalized range to a day's list.
func (s *Schedule) AddRange(day time.Weekday, start, end DayTime, pricePerHour float64) {
	s.Days[day] = append(s.Days[day], NewTimeRange(start, end, pricePerHour))
}

// RateAt returns the hourly rate in force at the given instant.
func (s *Schedule) RateAt(now time.Time) float64 {
	tod := NewDayTime(now.Hour(), now.Minute(), now.Second())
	for _, r := range s.Days[now.Weekday()] {
		if r.Contains(tod) {
			return r.PricePerHour
		}
	}
	return s.DefaultPricePerHour
}
