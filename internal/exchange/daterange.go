package exchange

import (
	"net/url"
	"time"
)

// ProviderTimeLayout is the date/time format El Toque expects for date_from/date_to.
const ProviderTimeLayout = "2006-01-02 15:04:05"

// MaxRangeSpan is the exclusive upper bound for To-From.
const MaxRangeSpan = 24 * time.Hour

// DateRange bounds a TRMI query. A zero From or To means the bound is absent.
type DateRange struct {
	From time.Time
	To   time.Time
}

// IsZero reports whether neither bound is set.
func (r DateRange) IsZero() bool {
	return r.From.IsZero() && r.To.IsZero()
}

// Validate checks 0 <= To-From < 24h. It only applies when both bounds are set.
func (r DateRange) Validate() error {
	if r.From.IsZero() || r.To.IsZero() {
		return nil
	}
	diff := r.To.Sub(r.From)
	if diff >= MaxRangeSpan {
		return &ValidationError{
			Message: "Date range must be less than 24 hours. The difference between date_from and date_to cannot exceed 24 hours.",
		}
	}
	if diff < 0 {
		return &ValidationError{Message: "date_from must be before date_to"}
	}
	return nil
}

// Values returns the date_from/date_to query parameters for the set bounds.
func (r DateRange) Values() url.Values {
	values := url.Values{}
	if !r.From.IsZero() {
		values.Set("date_from", r.From.Format(ProviderTimeLayout))
	}
	if !r.To.IsZero() {
		values.Set("date_to", r.To.Format(ProviderTimeLayout))
	}
	return values
}

// Key returns a canonical cache key; the empty range maps to "latest".
func (r DateRange) Key() string {
	if r.IsZero() {
		return "latest"
	}
	return r.Values().Encode()
}

// SameDayWindow returns the 00:00:01-23:59:01 window of the day containing t.
func SameDayWindow(t time.Time) DateRange {
	y, m, d := t.Date()
	return DateRange{
		From: time.Date(y, m, d, 0, 0, 1, 0, t.Location()),
		To:   time.Date(y, m, d, 23, 59, 1, 0, t.Location()),
	}
}
