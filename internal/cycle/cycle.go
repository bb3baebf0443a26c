// Package cycle computes delivery dates for the weekly order cycle.
// Cycles are anchored to Wednesday; the canonical time-of-day is noon UTC
// so the date cannot slip across midnight when converted between zones.
package cycle

import "time"

const (
	deliveryWeekday = time.Wednesday
	canonicalHour   = 12
)

// NextDeliveryDate returns the delivery date of the current order cycle:
// the first Wednesday strictly after now. If now already is a Wednesday,
// the date still advances a full week.
func NextDeliveryDate(now time.Time) time.Time {
	days := (int(deliveryWeekday) - int(now.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	d := now.AddDate(0, 0, days)
	return time.Date(d.Year(), d.Month(), d.Day(), canonicalHour, 0, 0, 0, time.UTC)
}

// PreviousDeliveryDate returns the delivery date of the cycle preceding
// the given one.
func PreviousDeliveryDate(current time.Time) time.Time {
	return current.AddDate(0, 0, -7)
}
