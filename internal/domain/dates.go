package domain

import "time"

// Day-boundary math is normalized to UTC so "the day a status applies" does
// not depend on the caller's timezone.

func StartOfUTCDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func EndOfUTCDay(t time.Time) time.Time {
	return StartOfUTCDay(t).Add(24*time.Hour - time.Second)
}

func SameUTCDay(a, b time.Time) bool {
	return StartOfUTCDay(a).Equal(StartOfUTCDay(b))
}
