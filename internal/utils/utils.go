package utils

import "time"

// Berlin is the canteen's calendar timezone. Order days are bucketed by the
// Berlin calendar date regardless of server timezone.
func Berlin() *time.Location {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		panic(err)
	}
	return loc
}

// DateOf returns t's calendar date in loc, at midnight local time. Used as
// the order_date bucket key.
func DateOf(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
