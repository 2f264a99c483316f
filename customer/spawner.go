package customer

import (
	"math/rand"

	"github.com/google/uuid"
)

// DefaultSpawnInterval is the quiet-hours gap between arrivals, in seconds.
const DefaultSpawnInterval = 30.0

// ThemedDayBias is the share of spawns taken by a themed day's featured
// kind (pensioner Wednesdays, youth Fridays).
const ThemedDayBias = 0.7

// SpawnCalendar answers the date questions that shape the arrival mix.
type SpawnCalendar interface {
	Calendar
	IsYouthDay() bool
	IsPeakHours() bool
}

// Spawner produces customers on a fixed interval, halved during peak hours,
// with the kind mix skewed by themed weekdays.
type Spawner struct {
	table    Table
	rng      *rand.Rand
	deps     Deps
	interval float64
	timer    float64
}

// NewSpawner wires a spawner. The deps are handed to every spawned customer.
func NewSpawner(table Table, rng *rand.Rand, interval float64, deps Deps) *Spawner {
	if interval <= 0 {
		interval = DefaultSpawnInterval
	}
	return &Spawner{table: table, rng: rng, deps: deps, interval: interval}
}

// Update advances the spawn timer and returns any customers that arrived
// during this slice of time.
func (s *Spawner) Update(dt float64, cal SpawnCalendar) []*Customer {
	if dt <= 0 {
		return nil
	}
	interval := s.interval
	if cal != nil && cal.IsPeakHours() {
		interval /= 2
	}
	s.timer += dt
	var spawned []*Customer
	for s.timer >= interval {
		s.timer -= interval
		spawned = append(spawned, s.Spawn(cal))
	}
	return spawned
}

// Spawn rolls and builds one customer immediately.
func (s *Spawner) Spawn(cal SpawnCalendar) *Customer {
	kind := s.pickKind(cal)
	data := s.table[kind]
	profile := data.RollProfile(s.rng)
	return New(uuid.NewString(), kind, data, profile, s.rng, s.deps)
}

func (s *Spawner) pickKind(cal SpawnCalendar) Kind {
	if cal != nil {
		switch {
		case cal.IsPensionerDiscountDay() && s.rng.Float64() < ThemedDayBias:
			return Elderly
		case cal.IsYouthDay() && s.rng.Float64() < ThemedDayBias:
			return Teenager
		}
	}
	kinds := Kinds()
	return kinds[s.rng.Intn(len(kinds))]
}
