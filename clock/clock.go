// Package clock advances simulated store time and derives the calendar state
// the rest of the simulation keys off: day of week, peak-hour windows and the
// evening alcohol restriction. Window transitions are edge-triggered; a
// listener is notified exactly once per boundary crossing, never per tick.
package clock

import (
	"fmt"

	"github.com/shopsim-xyz/go-shopsim/event"
)

// Notification topics published by the clock.
const (
	TopicDayStarted         = "clock.day_started"
	TopicDayEnded           = "clock.day_ended"
	TopicPeakStarted        = "clock.peak_started"
	TopicPeakEnded          = "clock.peak_ended"
	TopicAlcoholRestriction = "clock.alcohol_restriction_started"
)

// Weekday cycles Monday..Sunday.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [...]string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

func (d Weekday) String() string {
	if d < Monday || d > Sunday {
		return "Unknown"
	}
	return weekdayNames[d]
}

// Window is a half-open [From, To) range of whole hours.
type Window struct {
	From int `json:"from" yaml:"from"`
	To   int `json:"to" yaml:"to"`
}

func (w Window) contains(hour float64) bool {
	return hour >= float64(w.From) && hour < float64(w.To)
}

// Settings configures the simulated day.
type Settings struct {
	StartHour              int      `json:"startHour" yaml:"startHour"`
	EndHour                int      `json:"endHour" yaml:"endHour"`
	PeakWindows            []Window `json:"peakWindows" yaml:"peakWindows"`
	AlcoholRestrictionHour int      `json:"alcoholRestrictionHour" yaml:"alcoholRestrictionHour"`
	PeakMultiplier         float64  `json:"peakMultiplier" yaml:"peakMultiplier"`
}

// DefaultSettings mirrors the store's opening hours: 08:00-23:00, peaks at
// 12-14 and 18-20, no alcohol sales from 22:00.
func DefaultSettings() Settings {
	return Settings{
		StartHour:              8,
		EndHour:                23,
		PeakWindows:            []Window{{From: 12, To: 14}, {From: 18, To: 20}},
		AlcoholRestrictionHour: 22,
		PeakMultiplier:         2.0,
	}
}

// Clock tracks elapsed time within the current day. It is driven exclusively
// through Advance; it owns no timer or goroutine.
type Clock struct {
	settings Settings
	bus      *event.Bus

	elapsed float64 // seconds since day start
	day     int     // 1-based day index

	peakActive        bool
	alcoholRestricted bool
}

// New creates a clock positioned at the opening hour of day 1.
func New(settings Settings, bus *event.Bus) *Clock {
	return &Clock{settings: settings, bus: bus, day: 1}
}

// DayLength returns the simulated day length in seconds.
func (c *Clock) DayLength() float64 {
	return float64(c.settings.EndHour-c.settings.StartHour) * 3600
}

// Advance moves simulated time forward by dt seconds. Day rollovers fire
// DayEnded then DayStarted; window memberships are recomputed and transition
// notifications fire once per crossing. Negative dt is rejected as a no-op.
func (c *Clock) Advance(dt float64) {
	if dt <= 0 {
		return
	}

	c.elapsed += dt
	for c.elapsed >= c.DayLength() {
		c.publish(TopicDayEnded, nil)
		// A peak window running through closing time ends with the day.
		if c.peakActive {
			c.peakActive = false
			c.publish(TopicPeakEnded, nil)
		}
		c.elapsed -= c.DayLength()
		c.day++
		c.alcoholRestricted = false
		c.publish(TopicDayStarted, nil)
	}

	c.updateWindows()
}

func (c *Clock) updateWindows() {
	hour := c.Hour()

	peak := false
	for _, w := range c.settings.PeakWindows {
		if w.contains(hour) {
			peak = true
			break
		}
	}
	if peak != c.peakActive {
		c.peakActive = peak
		if peak {
			c.publish(TopicPeakStarted, nil)
		} else {
			c.publish(TopicPeakEnded, nil)
		}
	}

	restricted := hour >= float64(c.settings.AlcoholRestrictionHour)
	if restricted != c.alcoholRestricted {
		c.alcoholRestricted = restricted
		if restricted {
			c.publish(TopicAlcoholRestriction, nil)
		}
	}
}

func (c *Clock) publish(topic string, data any) {
	c.bus.Publish(&event.Signal{
		Topic:  topic,
		Source: "clock",
		Day:    c.day,
		At:     c.elapsed,
		Data:   data,
	})
}

// Hour returns the fractional hour of day, e.g. 13.5 for 13:30.
func (c *Clock) Hour() float64 {
	return float64(c.settings.StartHour) + c.elapsed/3600
}

// Elapsed returns seconds since the start of the current day.
func (c *Clock) Elapsed() float64 { return c.elapsed }

// Day returns the 1-based day index.
func (c *Clock) Day() int { return c.day }

// DayOfWeek derives the weekday from the day index; day 1 is Monday.
func (c *Clock) DayOfWeek() Weekday {
	return Weekday((c.day - 1) % 7)
}

// IsPeakHours reports whether the current hour is inside a peak window.
func (c *Clock) IsPeakHours() bool { return c.peakActive }

// PeakMultiplier returns the demand multiplier for the current hour.
func (c *Clock) PeakMultiplier() float64 {
	if c.peakActive {
		return c.settings.PeakMultiplier
	}
	return 1.0
}

// IsAlcoholSaleAllowed reports whether alcohol may still be sold today.
func (c *Clock) IsAlcoholSaleAllowed() bool { return !c.alcoholRestricted }

// IsFamilyDay reports the weekend family-shopping days, when purchases
// carry the weekend income bonus.
func (c *Clock) IsFamilyDay() bool { return c.IsWeekend() }

// IsWeekend reports Saturday or Sunday.
func (c *Clock) IsWeekend() bool {
	d := c.DayOfWeek()
	return d == Saturday || d == Sunday
}

// IsNoTobaccoDay reports the Monday tobacco ban.
func (c *Clock) IsNoTobaccoDay() bool { return c.DayOfWeek() == Monday }

// IsPensionerDiscountDay reports the Wednesday pensioner discount.
func (c *Clock) IsPensionerDiscountDay() bool { return c.DayOfWeek() == Wednesday }

// IsYouthDay reports the Friday youth day.
func (c *Clock) IsYouthDay() bool { return c.DayOfWeek() == Friday }

// FormattedTime returns the time of day as HH:MM.
func (c *Clock) FormattedTime() string {
	hour := c.Hour()
	h := int(hour)
	m := int((hour - float64(h)) * 60)
	return fmt.Sprintf("%02d:%02d", h, m)
}
