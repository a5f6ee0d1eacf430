package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock supplies the current time. Implementations return UTC.
type Clock interface {
	Now() time.Time
}

// Func adapts a plain function into a Clock.
type Func func() time.Time

// Now implements Clock.
func (f Func) Now() time.Time { return f().UTC() }

// System is the wall clock.
var System Clock = Func(time.Now)

// Module provides the system clock to the Fx graph.
var Module = fx.Provide(func() Clock { return System })

// Fixed returns a Clock frozen at t.
func Fixed(t time.Time) Clock {
	return Func(func() time.Time { return t })
}

// StartOfDay truncates t to midnight UTC of its calendar day.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
