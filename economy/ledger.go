package economy

import (
	"sync"

	"github.com/shopsim-xyz/go-shopsim/event"
	"github.com/shopsim-xyz/go-shopsim/stress"
)

// Notification topics published by the ledger.
const (
	TopicVictory     = "economy.victory"
	TopicGameOver    = "economy.game_over"
	TopicFineApplied = "economy.fine_applied"
	TopicDayClosed   = "economy.day_closed"
)

// StaffRole is a hireable role with a per-day cost.
type StaffRole string

const (
	Mechanic  StaffRole = "mechanic"  // repairs complete in 5s
	Assistant StaffRole = "assistant" // auto-helps waiting customers
	Guard     StaffRole = "guard"     // raises the fine security modifier
)

// Settings holds the economic constants of the store.
type Settings struct {
	InitialBalance      float64 `json:"initialBalance" yaml:"initialBalance"`
	VictoryGoal         float64 `json:"victoryGoal" yaml:"victoryGoal"`
	CriticalBalance     float64 `json:"criticalBalance" yaml:"criticalBalance"`
	BankruptcyDaysLimit int     `json:"bankruptcyDaysLimit" yaml:"bankruptcyDaysLimit"`

	RentCost                float64 `json:"rentCost" yaml:"rentCost"`
	ElectricityCost         float64 `json:"electricityCost" yaml:"electricityCost"`
	CollectionCost          float64 `json:"collectionCost" yaml:"collectionCost"`
	RegisterMaintenanceCost float64 `json:"registerMaintenanceCost" yaml:"registerMaintenanceCost"`

	EfficiencyBonus       float64 `json:"efficiencyBonus" yaml:"efficiencyBonus"`
	WeekendBonus          float64 `json:"weekendBonus" yaml:"weekendBonus"`
	MaxQueueForEfficiency float64 `json:"maxQueueForEfficiency" yaml:"maxQueueForEfficiency"`
	FineStressIncrease    float64 `json:"fineStressIncrease" yaml:"fineStressIncrease"`

	MechanicDailyCost  float64 `json:"mechanicDailyCost" yaml:"mechanicDailyCost"`
	AssistantDailyCost float64 `json:"assistantDailyCost" yaml:"assistantDailyCost"`
	GuardDailyCost     float64 `json:"guardDailyCost" yaml:"guardDailyCost"`
}

// DefaultSettings returns the stock economic constants.
func DefaultSettings() Settings {
	return Settings{
		InitialBalance:          50000,
		VictoryGoal:             500000,
		CriticalBalance:         0,
		BankruptcyDaysLimit:     3,
		RentCost:                5000,
		ElectricityCost:         1000,
		CollectionCost:          500,
		RegisterMaintenanceCost: 200,
		EfficiencyBonus:         0.2,
		WeekendBonus:            0.5,
		MaxQueueForEfficiency:   2,
		FineStressIncrease:      20,
		MechanicDailyCost:       3000,
		AssistantDailyCost:      2000,
		GuardDailyCost:          2500,
	}
}

type deltaKind int

const (
	deltaIncome deltaKind = iota
	deltaExpense
	deltaFine
)

type delta struct {
	kind   deltaKind
	amount float64
}

// DayReport summarizes one closed simulation day.
type DayReport struct {
	Day          int     `json:"day"`
	Income       float64 `json:"income"`
	Expenses     float64 `json:"expenses"`
	Balance      float64 `json:"balance"`
	CriticalDays int     `json:"criticalDays"`
}

// Ledger tracks the store balance. AddIncome, AddExpense and ApplyFine only
// enqueue deltas; Commit applies the queue atomically at tick end. Victory and
// bankruptcy are one-shot events; the ledger keeps accepting deltas after
// either fires — halting is the owning game-state layer's call.
type Ledger struct {
	mu       sync.Mutex
	settings Settings
	bus      *event.Bus
	meter    *stress.Meter

	// weekend and efficient may be nil when the clock or dispatch layer is
	// absent; both read as false.
	weekend   func() bool
	efficient func() bool

	balance       float64
	dailyIncome   float64
	dailyExpenses float64
	criticalDays  int
	staff         map[StaffRole]bool

	victoryFired  bool
	gameOverFired bool

	pending []delta
}

// NewLedger creates a ledger with the opening balance from settings.
func NewLedger(settings Settings, bus *event.Bus, meter *stress.Meter, weekend, efficient func() bool) *Ledger {
	return &Ledger{
		settings:  settings,
		bus:       bus,
		meter:     meter,
		weekend:   weekend,
		efficient: efficient,
		balance:   settings.InitialBalance,
		staff:     make(map[StaffRole]bool),
	}
}

// AddIncome enqueues an income delta. The efficiency bonus (+20% while the
// average queue stays short) and the weekend bonus (+50% on Saturday/Sunday)
// are evaluated at enqueue time.
func (l *Ledger) AddIncome(amount float64) {
	if amount <= 0 {
		return
	}

	final := amount
	if l.efficient != nil && l.efficient() {
		final *= 1 + l.settings.EfficiencyBonus
	}
	if l.weekend != nil && l.weekend() {
		final *= 1 + l.settings.WeekendBonus
	}

	l.mu.Lock()
	l.pending = append(l.pending, delta{kind: deltaIncome, amount: final})
	l.mu.Unlock()
}

// AddExpense enqueues an expense delta.
func (l *Ledger) AddExpense(amount float64) {
	if amount <= 0 {
		return
	}
	l.mu.Lock()
	l.pending = append(l.pending, delta{kind: deltaExpense, amount: amount})
	l.mu.Unlock()
}

// ApplyFine enqueues a fine (already computed by the fine policy), raises
// ambient stress and notifies listeners.
func (l *Ledger) ApplyFine(kind FineKind, amount float64) {
	if amount <= 0 {
		return
	}
	l.mu.Lock()
	l.pending = append(l.pending, delta{kind: deltaFine, amount: amount})
	l.mu.Unlock()

	l.meter.Add(l.settings.FineStressIncrease)
	l.bus.Publish(&event.Signal{
		Topic:  TopicFineApplied,
		Source: "ledger",
		Data:   map[string]any{"kind": kind.String(), "amount": amount},
	})
}

// Commit applies all enqueued deltas to the balance in one atomic step and
// evaluates the victory threshold. Returns the net balance change.
func (l *Ledger) Commit() float64 {
	l.mu.Lock()

	var net float64
	for _, d := range l.pending {
		switch d.kind {
		case deltaIncome:
			l.balance += d.amount
			l.dailyIncome += d.amount
			net += d.amount
		case deltaExpense, deltaFine:
			l.balance -= d.amount
			l.dailyExpenses += d.amount
			net -= d.amount
		}
	}
	l.pending = l.pending[:0]

	fireVictory := l.balance >= l.settings.VictoryGoal && !l.victoryFired
	if fireVictory {
		l.victoryFired = true
	}
	balance := l.balance
	l.mu.Unlock()

	if fireVictory {
		l.bus.Publish(&event.Signal{
			Topic:  TopicVictory,
			Source: "ledger",
			Data:   balance,
		})
	}
	return net
}

// EvaluateCriticalDay runs the once-per-day-boundary bankruptcy check: a
// balance at or below the critical threshold counts the day; any day above it
// resets the streak. The third consecutive critical day fires game over.
func (l *Ledger) EvaluateCriticalDay(day int) {
	l.mu.Lock()
	if l.balance <= l.settings.CriticalBalance {
		l.criticalDays++
	} else {
		l.criticalDays = 0
	}
	fire := l.criticalDays >= l.settings.BankruptcyDaysLimit && !l.gameOverFired
	if fire {
		l.gameOverFired = true
	}
	critical := l.criticalDays
	l.mu.Unlock()

	if fire {
		l.bus.Publish(&event.Signal{
			Topic:  TopicGameOver,
			Source: "ledger",
			Day:    day,
			Data:   critical,
		})
	}
}

// ProcessDailyExpenses applies the fixed daily costs as a single expense:
// rent, electricity, cash collection, per-register maintenance and the
// per-day wage of each hired role. Afterwards the daily accumulators reset
// and a day report is published.
func (l *Ledger) ProcessDailyExpenses(day, registerCount int) DayReport {
	total := l.settings.RentCost + l.settings.ElectricityCost + l.settings.CollectionCost
	total += float64(registerCount) * l.settings.RegisterMaintenanceCost
	total += l.StaffDailyCost()

	l.AddExpense(total)
	l.Commit()

	l.mu.Lock()
	report := DayReport{
		Day:          day,
		Income:       l.dailyIncome,
		Expenses:     l.dailyExpenses,
		Balance:      l.balance,
		CriticalDays: l.criticalDays,
	}
	l.dailyIncome = 0
	l.dailyExpenses = 0
	l.mu.Unlock()

	l.bus.Publish(&event.Signal{
		Topic:  TopicDayClosed,
		Source: "ledger",
		Day:    day,
		Data:   report,
	})
	return report
}

// CanAfford reports whether the balance covers a purchase cost.
func (l *Ledger) CanAfford(cost float64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance >= cost
}

// HireStaff sets a role's hire flag. Hiring an already-hired role is a no-op.
func (l *Ledger) HireStaff(role StaffRole) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.staff[role] = true
}

// FireStaff clears a role's hire flag.
func (l *Ledger) FireStaff(role StaffRole) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.staff, role)
}

// HasStaff reports whether a role is hired.
func (l *Ledger) HasStaff(role StaffRole) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.staff[role]
}

// StaffDailyCost returns the combined per-day cost of hired roles.
func (l *Ledger) StaffDailyCost() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	var total float64
	if l.staff[Mechanic] {
		total += l.settings.MechanicDailyCost
	}
	if l.staff[Assistant] {
		total += l.settings.AssistantDailyCost
	}
	if l.staff[Guard] {
		total += l.settings.GuardDailyCost
	}
	return total
}

// Balance returns the current balance. It can be negative.
func (l *Ledger) Balance() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance
}

// DailyIncome returns income accrued since the last day close.
func (l *Ledger) DailyIncome() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dailyIncome
}

// DailyExpenses returns expenses accrued since the last day close.
func (l *Ledger) DailyExpenses() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dailyExpenses
}

// CriticalDays returns the consecutive critical-day count.
func (l *Ledger) CriticalDays() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.criticalDays
}

// VictoryReached reports whether the victory event has fired.
func (l *Ledger) VictoryReached() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.victoryFired
}

// Bankrupt reports whether the game-over event has fired.
func (l *Ledger) Bankrupt() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gameOverFired
}

// Settings returns the ledger's economic constants.
func (l *Ledger) Settings() Settings { return l.settings }
