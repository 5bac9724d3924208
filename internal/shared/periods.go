package shared

import (
	"errors"
	"time"
)

// ErrInvalidPeriod indicates a malformed commission period.
var ErrInvalidPeriod = errors.New("invalid period")

// ParsePeriod validates a YYYY-MM commission period string.
func ParsePeriod(s string) (time.Time, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return time.Time{}, ErrInvalidPeriod
	}
	return t, nil
}

// CurrentPeriod returns the current month in YYYY-MM form.
func CurrentPeriod(now time.Time) string {
	return now.Format("2006-01")
}

// PreviousPeriod returns the month before the given YYYY-MM period.
func PreviousPeriod(period string) (string, error) {
	t, err := ParsePeriod(period)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, -1, 0).Format("2006-01"), nil
}
