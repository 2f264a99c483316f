package clock

import (
	"testing"

	"github.com/shopsim-xyz/go-shopsim/event"
)

func newTestClock(bus *event.Bus) *Clock {
	return New(DefaultSettings(), bus)
}

func countTopic(bus *event.Bus, topic string, counter *int) {
	bus.Subscribe("test", topic, func(s *event.Signal) { *counter++ })
}

func TestAdvanceRejectsNegativeDelta(t *testing.T) {
	c := newTestClock(nil)
	c.Advance(-5)
	if c.Elapsed() != 0 {
		t.Errorf("negative delta should be rejected, elapsed=%f", c.Elapsed())
	}
}

func TestDayRollover(t *testing.T) {
	bus := event.NewBus()
	c := newTestClock(bus)

	var started, ended int
	countTopic(bus, TopicDayStarted, &started)
	countTopic(bus, TopicDayEnded, &ended)

	c.Advance(c.DayLength() + 10)

	if c.Day() != 2 {
		t.Errorf("expected day 2, got %d", c.Day())
	}
	if started != 1 || ended != 1 {
		t.Errorf("expected exactly one day_started and one day_ended, got %d/%d", started, ended)
	}
	if c.Elapsed() != 10 {
		t.Errorf("expected 10s into new day, got %f", c.Elapsed())
	}
}

func TestWeekdayCycle(t *testing.T) {
	c := newTestClock(nil)
	if c.DayOfWeek() != Monday {
		t.Fatalf("day 1 should be Monday, got %s", c.DayOfWeek())
	}

	for i := 0; i < 7; i++ {
		c.Advance(c.DayLength())
	}
	if c.Day() != 8 {
		t.Fatalf("expected day 8, got %d", c.Day())
	}
	if c.DayOfWeek() != Monday {
		t.Errorf("day 8 should wrap to Monday, got %s", c.DayOfWeek())
	}
}

func TestPeakWindowEdgeTriggered(t *testing.T) {
	bus := event.NewBus()
	c := newTestClock(bus)

	var started, ended int
	countTopic(bus, TopicPeakStarted, &started)
	countTopic(bus, TopicPeakEnded, &ended)

	// 08:00 -> 12:30, then many small ticks inside the window.
	c.Advance(4.5 * 3600)
	if !c.IsPeakHours() {
		t.Fatalf("12:30 should be peak hours")
	}
	for i := 0; i < 100; i++ {
		c.Advance(1)
	}
	if started != 1 {
		t.Errorf("peak_started should fire once, fired %d times", started)
	}

	// Leave the window: 12:30 -> 14:30.
	c.Advance(2 * 3600)
	if c.IsPeakHours() {
		t.Errorf("14:30 should not be peak hours")
	}
	if ended != 1 {
		t.Errorf("peak_ended should fire once, fired %d times", ended)
	}

	// Second window 18:00-20:00.
	c.Advance(4 * 3600) // 18:30
	if !c.IsPeakHours() || started != 2 {
		t.Errorf("second peak window should trigger, started=%d", started)
	}
}

func TestEveningPeakEndsWithTheDay(t *testing.T) {
	bus := event.NewBus()
	settings := DefaultSettings()
	settings.PeakWindows = []Window{{From: 21, To: 23}}
	c := New(settings, bus)

	var started, ended int
	countTopic(bus, TopicPeakStarted, &started)
	countTopic(bus, TopicPeakEnded, &ended)

	c.Advance(13*3600 + 1800) // 21:30
	if started != 1 || !c.IsPeakHours() {
		t.Fatalf("evening peak should be active, started=%d", started)
	}

	c.Advance(2 * 3600) // 08:30 the next day
	if ended != 1 {
		t.Errorf("a peak running through closing should end once at rollover, ended=%d", ended)
	}
	if c.IsPeakHours() {
		t.Errorf("the next morning is not peak hours")
	}
}

func TestAlcoholRestriction(t *testing.T) {
	bus := event.NewBus()
	c := newTestClock(bus)

	var fired int
	countTopic(bus, TopicAlcoholRestriction, &fired)

	if !c.IsAlcoholSaleAllowed() {
		t.Fatalf("morning should allow alcohol sales")
	}

	c.Advance(14*3600 + 30*60) // 22:30
	if c.IsAlcoholSaleAllowed() {
		t.Errorf("22:30 should restrict alcohol")
	}
	c.Advance(600)
	if fired != 1 {
		t.Errorf("restriction notification should fire once, fired %d times", fired)
	}

	// Restriction resets on the next day; land at 09:00, well before the
	// cutoff, rather than a full day later back inside the window.
	c.Advance(c.DayLength() - (14*3600+30*60+600) + 3600)
	if !c.IsAlcoholSaleAllowed() {
		t.Errorf("new day should reset the restriction")
	}
}

func TestCalendarFlags(t *testing.T) {
	c := newTestClock(nil)

	// Day 1 = Monday.
	if !c.IsNoTobaccoDay() {
		t.Errorf("Monday should be the no-tobacco day")
	}

	c.Advance(2 * c.DayLength()) // Wednesday
	if !c.IsPensionerDiscountDay() {
		t.Errorf("Wednesday should be the pensioner discount day")
	}

	c.Advance(2 * c.DayLength()) // Friday
	if !c.IsYouthDay() {
		t.Errorf("Friday should be youth day")
	}

	c.Advance(c.DayLength()) // Saturday
	if !c.IsWeekend() {
		t.Errorf("Saturday should be a weekend")
	}
	if !c.IsFamilyDay() {
		t.Errorf("the weekend is family day")
	}
}

func TestFormattedTime(t *testing.T) {
	c := newTestClock(nil)
	if got := c.FormattedTime(); got != "08:00" {
		t.Errorf("expected 08:00, got %s", got)
	}
	c.Advance(90 * 60)
	if got := c.FormattedTime(); got != "09:30" {
		t.Errorf("expected 09:30, got %s", got)
	}
}
