package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2024-01-01 is a Monday.
func mondayAt(hour, minute, second int) time.Time {
	return time.Date(2024, time.January, 1, hour, minute, second, 0, time.UTC)
}

func TestParseDayTime(t *testing.T) {
	dt, err := ParseDayTime("09:30:15")
	require.NoError(t, err)
	assert.Equal(t, NewDayTime(9, 30, 15), dt)
	assert.Equal(t, "09:30:15", dt.String())

	_, err = ParseDayTime("25:00:00")
	assert.Error(t, err)
	_, err = ParseDayTime("bogus")
	assert.Error(t, err)
}

func TestRangeEndNormalization(t *testing.T) {
	cases := []struct {
		name string
		end  DayTime
		want DayTime
	}{
		{"midnight means end of day", NewDayTime(0, 0, 0), NewDayTime(23, 59, 59)},
		{"24h means end of day", NewDayTime(24, 0, 0), NewDayTime(23, 59, 59)},
		{"whole hour is exclusive", NewDayTime(12, 0, 0), NewDayTime(11, 59, 59)},
		{"whole minute is exclusive", NewDayTime(12, 30, 0), NewDayTime(12, 29, 59)},
		{"explicit seconds untouched", NewDayTime(12, 30, 15), NewDayTime(12, 30, 15)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewTimeRange(NewDayTime(9, 0, 0), tc.end, 10)
			assert.Equal(t, tc.want, r.End)
		})
	}
}

func TestRateAtFirstMatchWins(t *testing.T) {
	s := New(5)
	s.AddRange(time.Monday, NewDayTime(9, 0, 0), NewDayTime(18, 0, 0), 10)
	s.AddRange(time.Monday, NewDayTime(12, 0, 0), NewDayTime(14, 0, 0), 7)

	// Overlap resolved by declaration order.
	assert.Equal(t, 10.0, s.RateAt(mondayAt(13, 0, 0)))
}

func TestRateAtBoundaries(t *testing.T) {
	s := New(5)
	s.AddRange(time.Monday, NewDayTime(9, 0, 0), NewDayTime(12, 0, 0), 10)

	assert.Equal(t, 5.0, s.RateAt(mondayAt(8, 59, 59)))
	assert.Equal(t, 10.0, s.RateAt(mondayAt(9, 0, 0)))
	assert.Equal(t, 10.0, s.RateAt(mondayAt(11, 59, 59)))
	// Normalized exclusive end: noon itself already bills at the default.
	assert.Equal(t, 5.0, s.RateAt(mondayAt(12, 0, 0)))

	// Other days have no entries and fall through to the default.
	tuesday := mondayAt(10, 0, 0).AddDate(0, 0, 1)
	assert.Equal(t, 5.0, s.RateAt(tuesday))
}

func TestParseDocument(t *testing.T) {
	data := []byte(`{
		"default_price_per_hour": 5,
		"days": {
			"monday": [
				{"start": "09:00:00", "end": "12:00:00", "price_per_hour": 10}
			],
			"saturday": [
				{"start": "18:00:00", "end": "00:00:00", "price_per_hour": 12.5}
			]
		}
	}`)

	s, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, 5.0, s.DefaultPricePerHour)
	assert.Equal(t, 10.0, s.RateAt(mondayAt(10, 0, 0)))

	saturday := time.Date(2024, time.January, 6, 23, 59, 59, 0, time.UTC)
	assert.Equal(t, 12.5, s.RateAt(saturday))
}

func TestParseRejectsBadDocuments(t *testing.T) {
	_, err := Parse([]byte(`{"days": {"funday": []}}`))
	assert.Error(t, err)

	_, err = Parse([]byte(`{"days": {"monday": [{"start": "oops", "end": "10:00:00"}]}}`))
	assert.Error(t, err)

	_, err = Parse([]byte(`not json`))
	assert.Error(t, err)
}
