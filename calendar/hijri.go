// Package calendar converts Gregorian dates to the tabular Islamic calendar.
package calendar

import (
	"math"
	"time"
)

// Ramadan is the ninth Hijri month.
const Ramadan = 9

// HijriDate is a date in the tabular Islamic calendar.
type HijriDate struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// ToHijri converts the calendar date of t using the Kuwaiti algorithm.
// The result can differ by a day from sighting-based calendars.
func ToHijri(t time.Time) HijriDate {
	y, mo, d := t.Date()
	m := int(mo)
	day := float64(d)

	if m < 3 {
		y--
		m += 12
	}
	a := math.Floor(float64(y) / 100)
	b := 2 - a + math.Floor(a/4)
	if y < 1583 {
		b = 0
	}
	if y == 1582 {
		if m > 10 {
			b = -10
		}
		if m == 10 {
			b = 0
			if day > 4 {
				b = -10
			}
		}
	}
	jd := math.Floor(365.25*float64(y+4716)) + math.Floor(30.6001*float64(m+1)) + day + b - 1524

	const (
		cycleDays = 10631.0
		epoch     = 1948084.0
		shift     = 8.01 / 60
	)
	yearDays := cycleDays / 30

	z := jd - epoch
	cycle := math.Floor(z / cycleDays)
	z -= cycleDays * cycle
	j := math.Floor((z - shift) / yearDays)
	year := 30*cycle + j
	z -= math.Floor(j*yearDays + shift)
	month := math.Floor((z + 28.5001) / 29.5)
	if month == 13 {
		month = 12
	}
	hday := z - math.Floor(29.5001*month-29)

	return HijriDate{Year: int(year), Month: int(month), Day: int(hday)}
}

// IsRamadan reports whether t falls in Ramadan.
func IsRamadan(t time.Time) bool {
	return ToHijri(t).Month == Ramadan
}

// Theme names the site theme for t.
func Theme(t time.Time) string {
	if IsRamadan(t) {
		return "ramadan"
	}
	return "default"
}
