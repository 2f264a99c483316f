// Package shop wires the clock, ledger, lanes, customers and dispatcher
// into one tick-driven simulation. A Shop owns the only goroutine-facing
// surface: callers advance it with Tick and read snapshots between ticks.
package shop

import (
	"math/rand"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/shopsim-xyz/go-shopsim/clock"
	"github.com/shopsim-xyz/go-shopsim/customer"
	"github.com/shopsim-xyz/go-shopsim/dispatch"
	"github.com/shopsim-xyz/go-shopsim/economy"
	"github.com/shopsim-xyz/go-shopsim/event"
	"github.com/shopsim-xyz/go-shopsim/register"
	"github.com/shopsim-xyz/go-shopsim/stress"
)

// Event topics published on the shop bus.
const (
	TopicLevelUp = "shop.level_up"
)

// Floor timings and compliance tuning.
const (
	AssistInterval      = 2.5   // seconds between assistant auto-helps
	NeglectFineInterval = 120.0 // seconds of tolerated broken lanes between fines
	MassLeaveWindow     = 60.0  // seconds over which unserved departures accumulate
	MassLeaveThreshold  = 3     // departures within the window that draw a fine
	ExitWalkDistance    = 20.0  // meters of floor walk, door to lanes and back
)

// HireCosts are the one-time signing costs per staff role; daily wages live
// in the ledger settings.
var HireCosts = map[economy.StaffRole]float64{
	economy.Mechanic:  3000,
	economy.Assistant: 2000,
	economy.Guard:     2500,
}

// Outcome is the terminal result of a run.
type Outcome int

const (
	Running Outcome = iota
	Victory
	Bankrupt
)

var outcomeNames = [...]string{"running", "victory", "bankrupt"}

func (o Outcome) String() string {
	if o < Running || o > Bankrupt {
		return "unknown"
	}
	return outcomeNames[o]
}

// Navigator prices the walks across the shop floor in seconds; the core
// never computes positions itself. The default walks fixed distances at the
// customer's speed; tests substitute instant moves.
type Navigator interface {
	// MoveToRegister is the walk from the front door to the queues.
	MoveToRegister(c *customer.Customer) float64
	// MoveToExit is the walk from a lane back to the door.
	MoveToExit(c *customer.Customer) float64
}

type walkNavigator struct{ distance float64 }

func (w walkNavigator) MoveToRegister(c *customer.Customer) float64 { return w.walk(c) }
func (w walkNavigator) MoveToExit(c *customer.Customer) float64     { return w.walk(c) }

func (w walkNavigator) walk(c *customer.Customer) float64 {
	speed := c.MoveSpeed()
	if speed <= 0 {
		speed = 1
	}
	return w.distance / speed
}

// Config assembles every tunable table the shop needs. Zero or missing
// tables are a construction error; everything after New is tolerant of
// partial wiring.
type Config struct {
	Clock     clock.Settings   `json:"clock" yaml:"clock"`
	Economy   economy.Settings `json:"economy" yaml:"economy"`
	Customers customer.Table   `json:"customers" yaml:"customers"`
	Registers register.Classes `json:"registers" yaml:"registers"`

	CamerasInstalled bool    `json:"camerasInstalled" yaml:"camerasInstalled"`
	SpawnInterval    float64 `json:"spawnInterval" yaml:"spawnInterval"`
	InitialRegisters int     `json:"initialRegisters" yaml:"initialRegisters"`
	Seed             int64   `json:"seed" yaml:"seed"`
}

// DefaultConfig returns the stock simulation setup: two basic lanes, the
// default archetype and hardware tables, seed 1.
func DefaultConfig() Config {
	return Config{
		Clock:            clock.DefaultSettings(),
		Economy:          economy.DefaultSettings(),
		Customers:        customer.DefaultTable(),
		Registers:        register.DefaultClasses(),
		SpawnInterval:    customer.DefaultSpawnInterval,
		InitialRegisters: 2,
		Seed:             1,
	}
}

// Shop is the simulation root. Not safe for concurrent use; drive it from a
// single goroutine and read snapshots between ticks.
type Shop struct {
	cfg        Config
	bus        *event.Bus
	meter      *stress.Meter
	clock      *clock.Clock
	ledger     *economy.Ledger
	policy     economy.Policy
	dispatcher *dispatch.Dispatcher
	spawner    *customer.Spawner
	navigator  Navigator
	rng        *rand.Rand

	level   Level
	outcome Outcome
	now     float64 // continuous sim seconds across days

	floor    []*customer.Customer
	arrivals []arrival
	exits    map[*customer.Customer]float64

	assistTimer  float64
	neglectTimer float64
	leaveTimes   []float64

	served     int
	lost       int
	finesPaid  int
	finesTotal float64
}

// New validates the config and assembles a shop. Table or window
// misconfiguration is the only hard failure in the system; once a shop is
// built every later misuse degrades to a no-op.
func New(cfg Config) (*Shop, error) {
	if cfg.Clock.EndHour <= cfg.Clock.StartHour {
		return nil, errors.Errorf("shop: closing hour %d must be after opening hour %d",
			cfg.Clock.EndHour, cfg.Clock.StartHour)
	}
	for _, k := range customer.Kinds() {
		if _, ok := cfg.Customers[k]; !ok {
			return nil, errors.Errorf("shop: customer table is missing the %s archetype", k)
		}
	}
	if len(cfg.Registers) == 0 {
		return nil, errors.New("shop: register class table is empty")
	}
	if cfg.InitialRegisters < 1 {
		return nil, errors.Errorf("shop: need at least one initial register, got %d", cfg.InitialRegisters)
	}
	if limit := Startup.MaxRegisters(); cfg.InitialRegisters > limit {
		return nil, errors.Errorf("shop: %d initial registers exceeds the startup cap of %d",
			cfg.InitialRegisters, limit)
	}

	bus := event.NewBus()
	meter := stress.NewMeter()
	clk := clock.New(cfg.Clock, bus)
	dispatcher := dispatch.New(bus)

	s := &Shop{
		cfg:        cfg,
		bus:        bus,
		meter:      meter,
		clock:      clk,
		policy:     economy.Policy{CamerasInstalled: cfg.CamerasInstalled},
		dispatcher: dispatcher,
		navigator:  walkNavigator{distance: ExitWalkDistance},
		rng:        rand.New(rand.NewSource(cfg.Seed)),
		exits:      make(map[*customer.Customer]float64),
	}

	s.ledger = economy.NewLedger(cfg.Economy, bus, meter, clk.IsWeekend, func() bool {
		return dispatcher.AverageQueueLength() <= cfg.Economy.MaxQueueForEfficiency
	})

	s.spawner = customer.NewSpawner(cfg.Customers, s.rng, cfg.SpawnInterval, customer.Deps{
		Ledger:   s.ledger,
		Fines:    s,
		Stress:   meter,
		Bus:      bus,
		Calendar: clk,
	})

	for i := 0; i < cfg.InitialRegisters; i++ {
		s.addRegister(register.Basic)
	}

	s.subscribe()
	return s, nil
}

// SetNavigator swaps the floor-walk model.
func (s *Shop) SetNavigator(n Navigator) {
	if n != nil {
		s.navigator = n
	}
}

func (s *Shop) subscribe() {
	s.bus.Subscribe("shop", economy.TopicVictory, func(*event.Signal) { s.finish(Victory) })
	s.bus.Subscribe("shop", economy.TopicGameOver, func(*event.Signal) { s.finish(Bankrupt) })
	s.bus.Subscribe("shop", economy.TopicFineApplied, func(sig *event.Signal) {
		s.finesPaid++
		if payload, ok := sig.Data.(map[string]any); ok {
			if amount, ok := payload["amount"].(float64); ok {
				s.finesTotal += amount
			}
		}
	})
	s.bus.Subscribe("shop", customer.TopicServed, func(*event.Signal) { s.served++ })
	s.bus.Subscribe("shop", customer.TopicLeft, func(*event.Signal) {
		s.lost++
		s.leaveTimes = append(s.leaveTimes, s.now)
	})
	s.bus.Subscribe("shop", customer.TopicKicked, func(*event.Signal) { s.lost++ })
	s.bus.Subscribe("shop", clock.TopicDayEnded, func(sig *event.Signal) {
		// Maintenance is owed on every installed lane, powered or not.
		s.ledger.ProcessDailyExpenses(sig.Day, len(s.dispatcher.Registers()))
		s.ledger.EvaluateCriticalDay(sig.Day)
	})
}

func (s *Shop) finish(o Outcome) {
	if s.outcome == Running {
		s.outcome = o
	}
}

// Route resolves a fine through the policy at the current hour and books it
// on the ledger.
func (s *Shop) Route(kind economy.FineKind, provoked bool) {
	amount := s.policy.Compute(kind, provoked, economy.IsNight(s.clock.Hour()))
	s.ledger.ApplyFine(kind, amount)
}

// Tick advances the whole simulation by dt seconds. The pipeline order is
// fixed: clock, lanes, staff, arrivals, dispatch, compliance, exits, and a
// single ledger commit that makes the tick's money moves visible atomically.
func (s *Shop) Tick(dt float64) {
	if dt <= 0 || s.outcome != Running {
		return
	}
	s.now += dt

	s.clock.Advance(dt)

	for _, r := range s.dispatcher.Registers() {
		r.Tick(dt)
	}

	s.runAssistant(dt)
	s.admitArrivals(dt)
	s.dispatcher.Update(dt)
	s.fineNeglectedLanes(dt)
	s.fineMassLeave()
	s.walkExits(dt)

	s.ledger.Commit()
	s.checkLevel()
}

func (s *Shop) runAssistant(dt float64) {
	if !s.ledger.HasStaff(economy.Assistant) {
		return
	}
	s.assistTimer += dt
	for s.assistTimer >= AssistInterval {
		s.assistTimer -= AssistInterval
		for _, r := range s.dispatcher.Registers() {
			if c := r.Current(); c != nil && c.NeedsHelp() && !r.BusyWithAction() {
				r.HelpCustomer()
				break
			}
		}
	}
}

// arrival is a customer still walking from the door to the queues.
type arrival struct {
	c    *customer.Customer
	left float64
}

func (s *Shop) admitArrivals(dt float64) {
	for _, c := range s.spawner.Update(dt, s.clock) {
		s.floor = append(s.floor, c)
		s.arrivals = append(s.arrivals, arrival{c: c, left: s.navigator.MoveToRegister(c)})
	}
	walking := s.arrivals[:0]
	for _, a := range s.arrivals {
		a.left -= dt
		if a.left > 0 {
			walking = append(walking, a)
			continue
		}
		if !s.dispatcher.Enqueue(a.c) {
			// Nowhere to check out; the arrival turns around.
			a.c.Arrive()
			a.c.Release()
		}
	}
	s.arrivals = walking
}

func (s *Shop) fineNeglectedLanes(dt float64) {
	s.neglectTimer += dt
	for s.neglectTimer >= NeglectFineInterval {
		s.neglectTimer -= NeglectFineInterval
		// One fine per register left broken through the interval.
		for i := 0; i < s.dispatcher.BrokenCount(); i++ {
			s.Route(economy.FineIgnoreBrokenRegister, false)
		}
	}
}

func (s *Shop) fineMassLeave() {
	cutoff := s.now - MassLeaveWindow
	keep := s.leaveTimes[:0]
	for _, ts := range s.leaveTimes {
		if ts >= cutoff {
			keep = append(keep, ts)
		}
	}
	s.leaveTimes = keep
	if len(s.leaveTimes) >= MassLeaveThreshold {
		s.Route(economy.FineMassCustomerLeave, false)
		s.leaveTimes = s.leaveTimes[:0]
	}
}

func (s *Shop) walkExits(dt float64) {
	remaining := s.floor[:0]
	for _, c := range s.floor {
		switch c.State() {
		case customer.StateExiting:
			left, tracked := s.exits[c]
			if !tracked {
				left = s.navigator.MoveToExit(c)
			}
			left -= dt
			if left <= 0 {
				c.Depart()
				delete(s.exits, c)
				continue
			}
			s.exits[c] = left
			remaining = append(remaining, c)
		case customer.StateRemoved:
			delete(s.exits, c)
		default:
			remaining = append(remaining, c)
		}
	}
	s.floor = remaining
}

func (s *Shop) checkLevel() {
	next := levelForBalance(s.ledger.Balance())
	if next > s.level {
		s.level = next
		s.bus.Publish(&event.Signal{Topic: TopicLevelUp, Source: "shop", Day: s.clock.Day(), Data: next.String()})
	}
}

func (s *Shop) addRegister(class register.Class) *register.Register {
	r := register.New(uuid.NewString(), class, s.cfg.Registers[class], s.rng, register.Deps{
		Sink:   s.ledger,
		Stress: s.meter,
		Bus:    s.bus,
	})
	s.dispatcher.AddRegister(r)
	return r
}

// BuyRegister purchases and installs a new lane of the given tier, bounded
// by the store level's register cap and the current balance.
func (s *Shop) BuyRegister(class register.Class) (*register.Register, error) {
	data, ok := s.cfg.Registers[class]
	if !ok {
		return nil, errors.Errorf("shop: unknown register class %s", class)
	}
	if n := len(s.dispatcher.Registers()); n >= s.level.MaxRegisters() {
		return nil, errors.Errorf("shop: the %s store caps out at %d registers", s.level, s.level.MaxRegisters())
	}
	if !s.ledger.CanAfford(data.Cost) {
		return nil, errors.Errorf("shop: cannot afford a %s register at %.0f TR", class, data.Cost)
	}
	s.ledger.AddExpense(data.Cost)
	return s.addRegister(class), nil
}

// RemoveRegister withdraws a lane. The seated customer and everyone queued
// behind it are released to the door unserved, with no fine draw.
func (s *Shop) RemoveRegister(id string) error {
	for _, r := range s.dispatcher.Registers() {
		if r.ID() != id {
			continue
		}
		r.ReleaseCustomer()
		for _, waiting := range s.dispatcher.RemoveRegister(id) {
			waiting.Arrive()
			waiting.Release()
		}
		return nil
	}
	return errors.Errorf("shop: no register %s", id)
}

// UpgradeRegister moves a lane to a higher tier, charging the upgrade price.
func (s *Shop) UpgradeRegister(id string, to register.Class) error {
	data, ok := s.cfg.Registers[to]
	if !ok {
		return errors.Errorf("shop: unknown register class %s", to)
	}
	for _, r := range s.dispatcher.Registers() {
		if r.ID() != id {
			continue
		}
		cost, ok := UpgradeCostFor(r.Class(), to)
		if !ok {
			return errors.Errorf("shop: no upgrade from %s to %s", r.Class(), to)
		}
		if !s.ledger.CanAfford(cost) {
			return errors.Errorf("shop: cannot afford the %s upgrade at %.0f TR", to, cost)
		}
		if !r.Upgrade(to, data) {
			return errors.Errorf("shop: register %s is busy, try again later", id)
		}
		s.ledger.AddExpense(cost)
		return nil
	}
	return errors.Errorf("shop: no register %s", id)
}

// UpgradeCostFor exposes the tier pricing table.
func UpgradeCostFor(from, to register.Class) (float64, bool) {
	return register.UpgradeCost(from, to)
}

// Hire signs a staff member, paying the one-time cost; wages accrue daily.
// Hiring the guard also hardens the fine policy's security modifier.
func (s *Shop) Hire(role economy.StaffRole) error {
	cost, ok := HireCosts[role]
	if !ok {
		return errors.Errorf("shop: unknown staff role %q", role)
	}
	if s.ledger.HasStaff(role) {
		return errors.Errorf("shop: a %s is already on staff", role)
	}
	if !s.ledger.CanAfford(cost) {
		return errors.Errorf("shop: cannot afford to hire a %s at %.0f TR", role, cost)
	}
	s.ledger.AddExpense(cost)
	s.ledger.HireStaff(role)
	if role == economy.Guard {
		s.policy.SecurityPresent = true
	}
	return nil
}

// Fire lets a staff member go, ending the daily wage.
func (s *Shop) Fire(role economy.StaffRole) {
	s.ledger.FireStaff(role)
	if role == economy.Guard {
		s.policy.SecurityPresent = false
	}
}

// RepairRegister starts a repair on the given lane, shortened when a
// mechanic is on staff.
func (s *Shop) RepairRegister(id string) bool {
	for _, r := range s.dispatcher.Registers() {
		if r.ID() == id {
			return r.Repair(s.ledger.HasStaff(economy.Mechanic))
		}
	}
	return false
}

// Accessors for the composed parts; external drivers read, never mutate.

func (s *Shop) Bus() *event.Bus                  { return s.bus }
func (s *Shop) Clock() *clock.Clock              { return s.clock }
func (s *Shop) Ledger() *economy.Ledger          { return s.ledger }
func (s *Shop) Dispatcher() *dispatch.Dispatcher { return s.dispatcher }
func (s *Shop) Stress() *stress.Meter            { return s.meter }
func (s *Shop) Outcome() Outcome                 { return s.outcome }
func (s *Shop) StoreLevel() Level                { return s.level }

// WorkingRegisters lists the lanes currently in Working state.
func (s *Shop) WorkingRegisters() []*register.Register {
	return s.registersInState(register.StateWorking)
}

// BrokenRegisters lists the lanes currently broken down.
func (s *Shop) BrokenRegisters() []*register.Register {
	return s.registersInState(register.StateBroken)
}

func (s *Shop) registersInState(state register.State) []*register.Register {
	var out []*register.Register
	for _, r := range s.dispatcher.Registers() {
		if r.State() == state {
			out = append(out, r)
		}
	}
	return out
}

// Snapshot is a point-in-time view of the run, shaped for the journal, the
// run store and the HTTP status endpoint.
type Snapshot struct {
	Day         int     `json:"day"`
	Time        string  `json:"time"`
	Weekday     string  `json:"weekday"`
	Balance     float64 `json:"balance"`
	Stress      float64 `json:"stress"`
	StressLevel string  `json:"stressLevel"`
	Level       string  `json:"level"`
	Registers   int     `json:"registers"`
	Working     int     `json:"working"`
	Broken      int     `json:"broken"`
	AvgQueue    float64 `json:"avgQueue"`
	Served      int     `json:"served"`
	Lost        int     `json:"lost"`
	FinesPaid   int     `json:"finesPaid"`
	FinesTotal  float64 `json:"finesTotal"`
	Outcome     string  `json:"outcome"`
}

// Stats snapshots the current run state.
func (s *Shop) Stats() Snapshot {
	return Snapshot{
		Day:         s.clock.Day(),
		Time:        s.clock.FormattedTime(),
		Weekday:     s.clock.DayOfWeek().String(),
		Balance:     s.ledger.Balance(),
		Stress:      s.meter.Current(),
		StressLevel: s.meter.Level().String(),
		Level:       s.level.String(),
		Registers:   len(s.dispatcher.Registers()),
		Working:     s.dispatcher.WorkingCount(),
		Broken:      s.dispatcher.BrokenCount(),
		AvgQueue:    s.dispatcher.AverageQueueLength(),
		Served:      s.served,
		Lost:        s.lost,
		FinesPaid:   s.finesPaid,
		FinesTotal:  s.finesTotal,
		Outcome:     s.outcome.String(),
	}
}
