package schedule

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Wire document for a schedule, as stored by the admin side:
//
//	{
//	  "default_price_per_hour": 5,
//	  "days": {
//	    "monday": [{"start": "09:00:00", "end": "12:00:00", "price_per_hour": 10}]
//	  }
//	}
type document struct {
	DefaultPricePerHour float64                 `json:"default_price_per_hour"`
	Days                map[string][]rangeEntry `json:"days"`
}

type rangeEntry struct {
	Start        string  `json:"start"`
	End          string  `json:"end"`
	PricePerHour float64 `json:"price_per_hour"`
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Parse builds a Schedule from its JSON document, applying range
// normalization as each range is constructed.
func Parse(data []byte) (*Schedule, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schedule: %w", err)
	}

	s := New(doc.DefaultPricePerHour)
	for name, entries := range doc.Days {
		day, ok := weekdayNames[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q in schedule", name)
		}
		for _, e := range entries {
			start, err := ParseDayTime(e.Start)
			if err != nil {
				return nil, err
			}
			end, err := ParseDayTime(e.End)
			if err != nil {
				return nil, err
			}
			s.AddRange(day, start, end, e.PricePerHour)
		}
	}
	return s, nil
}
