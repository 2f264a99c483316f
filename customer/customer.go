package customer

import (
	"math/rand"

	"github.com/shopsim-xyz/go-shopsim/economy"
	"github.com/shopsim-xyz/go-shopsim/event"
	"github.com/shopsim-xyz/go-shopsim/stress"
)

// State identifies a step in the customer lifecycle. Transitions only ever
// move forward; a customer that has left the register line never re-enters.
type State int

const (
	StateTraveling State = iota
	StateWaiting
	StateScanning
	StateServed
	StateLeftUnserved
	StateExiting
	StateRemoved
)

var stateNames = [...]string{
	"Traveling", "Waiting", "Scanning", "Served", "LeftUnserved", "Exiting", "Removed",
}

func (s State) String() string {
	if s < StateTraveling || s > StateRemoved {
		return "Unknown"
	}
	return stateNames[s]
}

// Event topics published on the shop bus.
const (
	TopicNeedsHelp     = "customer.needs_help"
	TopicAngry         = "customer.angry"
	TopicServed        = "customer.served"
	TopicLeft          = "customer.left"
	TopicKicked        = "customer.kicked"
	TopicExitRequested = "customer.exit_requested"
	TopicViolation     = "customer.violation"
)

// Purchase and timing constants shared by every kind.
const (
	BaseIncomePerItem        = 50.0
	VIPIncomeMultiplier      = 1.5
	AngryIncomeMultiplier    = 0.7
	PensionerDiscount        = 0.8
	AngryPatienceThreshold   = 0.3
	AngryScanMultiplier      = 1.3
	SpecialItemsMultiplier   = 1.2
	AngryStressIncrease      = 5.0
	AngryLeaveStressIncrease = 10.0
	HelpScanDiscount         = 2.0 // seconds shaved off by an assist
)

// Ledger receives the purchase income of served customers.
type Ledger interface {
	AddIncome(amount float64)
}

// FineRouter resolves and applies a fine. Implementations decide the final
// amount from policy modifiers and the time of day.
type FineRouter interface {
	Route(kind economy.FineKind, provoked bool)
}

// Calendar answers the date-dependent sales rules a customer checks at the
// register.
type Calendar interface {
	IsAlcoholSaleAllowed() bool
	IsNoTobaccoDay() bool
	IsPensionerDiscountDay() bool
}

// Deps are the collaborators a customer talks to. Every field is optional;
// a nil collaborator turns the corresponding effect into a no-op.
type Deps struct {
	Ledger   Ledger
	Fines    FineRouter
	Stress   *stress.Meter
	Bus      *event.Bus
	Calendar Calendar
}

// Customer is a single shopper working through the checkout lifecycle.
// Customers are not safe for concurrent use; the simulation loop drives each
// one from a single goroutine.
type Customer struct {
	id    string
	kind  Kind
	data  TypeData
	deps  Deps
	rng   *rand.Rand
	state State

	items         int
	hasAlcohol    bool
	hasCigarettes bool
	needsHelp     bool

	remainingScan     float64
	remainingPatience float64
	initialPatience   float64

	angry         bool
	served        bool
	hasLeft       bool
	itemsChecked  bool
	wednesdayDeal bool

	aggression AggressionLevel
}

// New builds a customer from a rolled profile. The rng is retained for the
// kick-fine draw.
func New(id string, kind Kind, data TypeData, profile Profile, rng *rand.Rand, deps Deps) *Customer {
	c := &Customer{
		id:                id,
		kind:              kind,
		data:              data,
		deps:              deps,
		rng:               rng,
		state:             StateTraveling,
		items:             profile.Items,
		hasAlcohol:        profile.HasAlcohol,
		hasCigarettes:     profile.HasCigarettes,
		needsHelp:         profile.NeedsHelp,
		remainingPatience: data.Patience,
		initialPatience:   data.Patience,
	}
	if c.items < 1 {
		c.items = 1
	}
	c.remainingScan = float64(c.items) * data.ScanTimePerItem
	if c.hasAlcohol || c.hasCigarettes {
		c.remainingScan *= SpecialItemsMultiplier
	}
	if kind == Elderly && deps.Calendar != nil && deps.Calendar.IsPensionerDiscountDay() {
		c.wednesdayDeal = true
	}
	return c
}

func (c *Customer) ID() string             { return c.id }
func (c *Customer) Kind() Kind             { return c.kind }
func (c *Customer) State() State           { return c.state }
func (c *Customer) ItemCount() int         { return c.items }
func (c *Customer) HasAlcohol() bool       { return c.hasAlcohol }
func (c *Customer) HasCigarettes() bool    { return c.hasCigarettes }
func (c *Customer) NeedsHelp() bool        { return c.needsHelp }
func (c *Customer) IsAngry() bool          { return c.angry }
func (c *Customer) IsServed() bool         { return c.served }
func (c *Customer) HasLeft() bool          { return c.hasLeft }
func (c *Customer) RemainingScan() float64 { return c.remainingScan }
func (c *Customer) MoveSpeed() float64     { return c.data.MoveSpeed }

// Aggression reports the escalation stage; only Aggressive customers move
// past Calm.
func (c *Customer) Aggression() AggressionLevel { return c.aggression }

// PatienceFraction reports remaining patience as a 0..1 share of the start
// value.
func (c *Customer) PatienceFraction() float64 {
	if c.initialPatience <= 0 {
		return 0
	}
	return c.remainingPatience / c.initialPatience
}

// Arrive marks the customer as having reached a register. Customers that
// need help wait frozen until an assist arrives; everyone else starts
// scanning at once. Invalid from any state but Traveling.
func (c *Customer) Arrive() {
	if c.state != StateTraveling {
		return
	}
	if c.needsHelp {
		c.state = StateWaiting
		c.publish(TopicNeedsHelp, nil)
		return
	}
	c.startScanning()
}

// ProvideHelp unblocks a customer waiting for assistance and shaves a bit
// off the remaining scan work. No-op when no help is needed.
func (c *Customer) ProvideHelp() {
	if !c.needsHelp || c.hasLeft {
		return
	}
	c.needsHelp = false
	c.remainingScan -= HelpScanDiscount
	if c.remainingScan < 0 {
		c.remainingScan = 0
	}
	if c.state == StateWaiting {
		c.startScanning()
	}
}

func (c *Customer) startScanning() {
	c.state = StateScanning
	c.checkSpecialItems()
}

// checkSpecialItems fires the point-of-sale compliance checks exactly once
// per customer, at the moment scanning begins.
func (c *Customer) checkSpecialItems() {
	if c.itemsChecked {
		return
	}
	c.itemsChecked = true
	if c.hasAlcohol {
		switch {
		case c.kind == Teenager:
			c.routeFine(economy.FineAlcoholToMinor, false)
		case c.deps.Calendar != nil && !c.deps.Calendar.IsAlcoholSaleAllowed():
			c.routeFine(economy.FineAlcoholAfterHours, false)
		}
	}
	if c.hasCigarettes && c.deps.Calendar != nil && c.deps.Calendar.IsNoTobaccoDay() {
		// Tobacco-free day sales are flagged for the journal but carry no
		// statutory fine.
		c.publish(TopicViolation, "tobacco_restricted_day")
	}
}

// Tick advances the customer's timers. Patience and scan progress move only
// while scanning: travel, waiting-for-help and every terminal state are
// frozen. Non-positive deltas are ignored.
func (c *Customer) Tick(dt float64) {
	if dt <= 0 || c.state != StateScanning {
		return
	}

	c.remainingScan -= dt
	c.remainingPatience -= dt
	if c.remainingPatience < 0 {
		c.remainingPatience = 0
	}

	if !c.angry && c.PatienceFraction() < AngryPatienceThreshold {
		c.turnAngry()
	}

	if c.remainingScan <= 0 {
		c.remainingScan = 0
		c.finishServed()
		return
	}
	if c.remainingPatience <= 0 {
		c.leaveUnserved()
	}
}

func (c *Customer) turnAngry() {
	c.angry = true
	c.remainingScan *= AngryScanMultiplier
	c.deps.Stress.Add(AngryStressIncrease)
	if hook := reactToWaiting[c.kind]; hook != nil {
		hook(c)
	}
	c.publish(TopicAngry, nil)
}

func (c *Customer) escalateAggression() {
	if c.aggression < Scandal {
		c.aggression++
	}
	c.deps.Stress.Add(float64(c.aggression))
}

func (c *Customer) finishServed() {
	c.served = true
	c.hasLeft = true
	c.state = StateServed
	if c.deps.Ledger != nil {
		c.deps.Ledger.AddIncome(c.PurchaseTotal())
	}
	c.publish(TopicServed, c.PurchaseTotal())
	c.requestExit()
}

func (c *Customer) leaveUnserved() {
	c.hasLeft = true
	c.state = StateLeftUnserved
	if c.angry {
		c.deps.Stress.Add(AngryLeaveStressIncrease)
	}
	c.publish(TopicLeft, nil)
	c.requestExit()
}

// Kick throws the customer out before service completes. The kick draws
// against the kind's fine risk; a provoked kick is one witnesses saw the
// operator start, which raises the fine. Kicking a customer that already
// left is a no-op.
func (c *Customer) Kick(provoked bool) {
	if c.hasLeft {
		return
	}
	if c.rng != nil && c.rng.Float64() < c.data.KickFineRisk {
		c.routeFine(KickFineKind(c.kind), provoked)
	}
	c.hasLeft = true
	c.state = StateLeftUnserved
	c.publish(TopicKicked, nil)
	c.requestExit()
}

// Release sends the customer away unserved without a fine draw, used when
// the lane itself is withdrawn. No-op once the customer has left.
func (c *Customer) Release() {
	if c.hasLeft {
		return
	}
	c.leaveUnserved()
}

func (c *Customer) requestExit() {
	c.state = StateExiting
	c.publish(TopicExitRequested, nil)
}

// Depart removes the customer from the floor once the exit completes.
func (c *Customer) Depart() {
	if c.state != StateExiting {
		return
	}
	c.state = StateRemoved
}

// PurchaseTotal prices the basket: per-item base, VIP premium, an angry
// markdown, and the pensioner weekday discount.
func (c *Customer) PurchaseTotal() float64 {
	total := float64(c.items) * BaseIncomePerItem
	if c.kind == VIP {
		total *= VIPIncomeMultiplier
	}
	if c.angry {
		total *= AngryIncomeMultiplier
	}
	if c.wednesdayDeal {
		total *= PensionerDiscount
	}
	return total
}

func (c *Customer) routeFine(kind economy.FineKind, provoked bool) {
	if c.deps.Fines == nil {
		return
	}
	c.deps.Fines.Route(kind, provoked)
}

func (c *Customer) publish(topic string, data any) {
	c.deps.Bus.Publish(&event.Signal{Topic: topic, Source: c.id, Data: data})
}
