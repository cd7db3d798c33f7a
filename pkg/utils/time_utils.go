package utils

import (
	"math"
	"time"
)

const Day = 24 * time.Hour

// Clock returns the current time. Services take one so tests can pin "now".
type Clock func() time.Time

func SystemClock() time.Time { return time.Now().UTC() }

// Use explicit "seconds" variant for DB storage
func NowUnixSeconds() int64 { return time.Now().Unix() }

// FromUnixSeconds converts stored epoch seconds to UTC.
// Returns zero time if t<=0 to let callers decide how to render.
func FromUnixSeconds(t int64) time.Time {
	if t <= 0 {
		return time.Time{}
	}
	return time.Unix(t, 0).UTC()
}

func AddDaysUnix(t int64, days int) int64 {
	return t + int64(days)*int64(Day/time.Second)
}

// DaysUntil counts whole days left until end, rounding partial days up.
// A deadline already passed (or hit exactly) yields a value <= 0.
func DaysUntil(end, now time.Time) int {
	d := end.Sub(now)
	if d <= 0 {
		return int(math.Floor(d.Hours() / 24))
	}
	return int(math.Ceil(d.Hours() / 24))
}

func FormatRFC3339(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
