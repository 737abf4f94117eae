// Package scheduler runs the daily check-in for every due account.
package scheduler

import (
	"math/rand"
	"time"
)

const (
	windowStartHour = 9
	windowMinutes   = 180
)

// Window picks execution times inside the daily 09:00–12:00 UTC band.
type Window struct {
	// Intn returns a uniform value in [0, n). Defaults to math/rand.
	Intn func(n int) int
}

// NewWindow returns a Window backed by math/rand.
func NewWindow() Window {
	return Window{Intn: rand.Intn}
}

// NextDay returns a time on the UTC calendar day after now, between 09:00 and
// 11:59 inclusive, on a whole minute.
func (w Window) NextDay(now time.Time) time.Time {
	return w.at(now.UTC().AddDate(0, 0, 1))
}

// Initial returns a time in today's window, or NextDay(now) if that time has
// already passed.
func (w Window) Initial(now time.Time) time.Time {
	t := w.at(now.UTC())
	if t.Before(now) {
		return w.NextDay(now)
	}
	return t
}

func (w Window) at(day time.Time) time.Time {
	intn := w.Intn
	if intn == nil {
		intn = rand.Intn
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), windowStartHour, 0, 0, 0, time.UTC)
	return start.Add(time.Duration(intn(windowMinutes)) * time.Minute)
}
