package register

import (
	"math/rand"

	"github.com/shopsim-xyz/go-shopsim/customer"
	"github.com/shopsim-xyz/go-shopsim/event"
	"github.com/shopsim-xyz/go-shopsim/stress"
)

// State identifies the register's operational condition.
type State int

const (
	StateOff State = iota
	StateWorking
	StateNeedsAttention
	StateBroken
)

var stateNames = [...]string{"Off", "Working", "NeedsAttention", "Broken"}

func (s State) String() string {
	if s < StateOff || s > StateBroken {
		return "Unknown"
	}
	return stateNames[s]
}

// Event topics published on the shop bus.
const (
	TopicNeedsAttention = "register.needs_attention"
	TopicBroken         = "register.broken"
	TopicRepaired       = "register.repaired"
	TopicFreed          = "register.freed"
	TopicToggledOff     = "register.off"
	TopicToggledOn      = "register.on"
	TopicUpgraded       = "register.upgraded"
)

// Operator action timings and odds.
const (
	AttentionTimeout       = 60.0 // seconds before an unresolved malfunction becomes a breakdown
	HelpDuration           = 2.5
	RepairDurationMin      = 10.0
	RepairDurationMax      = 15.0
	MechanicRepairDuration = 5.0
	RebootDuration         = 5.0
	RebootSuccessChance    = 0.7
	KickSuccessChance      = 0.85
	HelpStressRelief       = 2.0
	KickStressRelief       = 10.0
)

// actionKind tags the operator action currently in progress.
type actionKind int

const (
	actionNone actionKind = iota
	actionHelp
	actionRepair
	actionReboot
)

// Sink receives the passive income an idle working register earns.
type Sink interface {
	AddIncome(amount float64)
}

// Deps are the register's collaborators; each is optional and nil turns the
// corresponding effect into a no-op.
type Deps struct {
	Sink   Sink
	Stress *stress.Meter
	Bus    *event.Bus
}

// Register is one checkout lane. Like customers, registers are driven from
// the simulation loop on a single goroutine and are not safe for concurrent
// use.
type Register struct {
	id    string
	class Class
	data  ClassData
	deps  Deps
	rng   *rand.Rand

	state       State
	resumeState State // state to restore when toggled back on
	current     *customer.Customer

	attentionTimer float64
	action         actionKind
	actionTimer    float64
}

// New builds a register of the given tier, starting in Working state.
func New(id string, class Class, data ClassData, rng *rand.Rand, deps Deps) *Register {
	return &Register{
		id:    id,
		class: class,
		data:  data,
		deps:  deps,
		rng:   rng,
		state: StateWorking,
	}
}

func (r *Register) ID() string                  { return r.id }
func (r *Register) Class() Class                { return r.class }
func (r *Register) ClassData() ClassData        { return r.data }
func (r *Register) State() State                { return r.state }
func (r *Register) IsOccupied() bool            { return r.current != nil }
func (r *Register) Current() *customer.Customer { return r.current }
func (r *Register) BusyWithAction() bool        { return r.action != actionNone }

// AttentionProgress reports how far the malfunction countdown has run, as a
// fraction in [0,1]. It is 0 outside NeedsAttention.
func (r *Register) AttentionProgress() float64 {
	if r.state != StateNeedsAttention {
		return 0
	}
	return 1 - r.attentionTimer/AttentionTimeout
}

// IsServiceable reports whether the register can accept a customer right
// now.
func (r *Register) IsServiceable() bool {
	return r.state == StateWorking && r.current == nil && r.action == actionNone
}

// AssignCustomer seats a customer at the lane. The register rolls against
// its reliability: a failed roll, or a customer that needs help, flags the
// lane for operator attention; left unresolved the malfunction escalates to
// a breakdown. Assignment is ignored unless the register is serviceable.
func (r *Register) AssignCustomer(c *customer.Customer) bool {
	if c == nil || !r.IsServiceable() {
		return false
	}
	r.current = c
	c.Arrive()
	if c.NeedsHelp() || (r.rng != nil && r.rng.Float64() > r.data.Reliability) {
		r.flagAttention()
	}
	return true
}

func (r *Register) flagAttention() {
	r.state = StateNeedsAttention
	r.attentionTimer = AttentionTimeout
	r.publish(TopicNeedsAttention, nil)
}

// Tick advances the register and its seated customer. Timers only run in
// the states that own them: the attention countdown while flagged, breakdown
// rolls and customer progress while working, action timers whenever an
// operator action is underway. Off suspends everything.
func (r *Register) Tick(dt float64) {
	if dt <= 0 || r.state == StateOff {
		return
	}

	if r.action != actionNone {
		r.actionTimer -= dt
		if r.actionTimer <= 0 {
			r.resolveAction()
		}
		return
	}

	switch r.state {
	case StateNeedsAttention:
		r.attentionTimer -= dt
		if r.attentionTimer <= 0 {
			r.breakDown()
		}
	case StateWorking:
		if r.rng != nil && r.rng.Float64() < r.data.BreakdownChance()*dt {
			r.breakDown()
			return
		}
		if r.current != nil {
			r.current.Tick(dt)
			if r.current.HasLeft() {
				r.detach()
			}
		} else if r.deps.Sink != nil {
			r.deps.Sink.AddIncome(r.data.IncomePerMinute / 60 * dt)
		}
	}
}

// breakDown takes the lane out of service. A broken lane holds no customer:
// whoever was seated is sent away unserved.
func (r *Register) breakDown() {
	r.state = StateBroken
	r.attentionTimer = 0
	if r.current != nil {
		r.current.Release()
		r.detach()
	}
	r.publish(TopicBroken, nil)
}

func (r *Register) detach() {
	r.current = nil
	r.publish(TopicFreed, nil)
}

// HelpCustomer begins the 2.5s assist. Valid only when the seated customer
// is waiting for help.
func (r *Register) HelpCustomer() bool {
	if r.state == StateOff {
		return false
	}
	if r.current == nil || !r.current.NeedsHelp() {
		return false
	}
	r.beginAction(actionHelp, HelpDuration)
	return true
}

// Repair begins fixing a broken register. Without a mechanic the job takes
// somewhere between 10 and 15 seconds; a hired mechanic finishes in 5.
func (r *Register) Repair(hasMechanic bool) bool {
	if r.state != StateBroken {
		return false
	}
	d := MechanicRepairDuration
	if !hasMechanic {
		d = RepairDurationMin
		if r.rng != nil {
			d += r.rng.Float64() * (RepairDurationMax - RepairDurationMin)
		}
	}
	r.beginAction(actionRepair, d)
	return true
}

// Reboot begins the 5s soft reset of a malfunctioning or broken register.
// It clears the fault 70% of the time; otherwise the register ends up
// broken.
func (r *Register) Reboot() bool {
	if r.state != StateNeedsAttention && r.state != StateBroken {
		return false
	}
	r.beginAction(actionReboot, RebootDuration)
	return true
}

// beginAction starts an operator action, cancelling one already underway;
// the superseded timer never fires.
func (r *Register) beginAction(kind actionKind, duration float64) {
	r.action = kind
	r.actionTimer = duration
}

func (r *Register) resolveAction() {
	kind := r.action
	r.action = actionNone
	r.actionTimer = 0

	switch kind {
	case actionHelp:
		if r.current != nil {
			r.current.ProvideHelp()
		}
		r.deps.Stress.Reduce(HelpStressRelief)
		if r.state == StateNeedsAttention {
			r.recover()
		}
	case actionRepair:
		r.recover()
	case actionReboot:
		if r.rng != nil && r.rng.Float64() < RebootSuccessChance {
			r.recover()
		} else if r.state != StateBroken {
			r.breakDown()
		}
	}
}

func (r *Register) recover() {
	r.state = StateWorking
	r.attentionTimer = 0
	r.publish(TopicRepaired, nil)
}

// Kick is percussive maintenance on a malfunctioning or broken register:
// it resolves instantly, recovering the lane 85% of the time and leaving it
// broken otherwise. Venting on the hardware relieves stress either way. A
// seated customer takes offense, leaves, and draws the kick-fine risk.
func (r *Register) Kick(provoked bool) bool {
	if r.state != StateNeedsAttention && r.state != StateBroken {
		return false
	}
	r.action = actionNone
	r.actionTimer = 0
	r.deps.Stress.Reduce(KickStressRelief)
	if r.current != nil {
		r.current.Kick(provoked)
		r.detach()
	}
	if r.rng == nil || r.rng.Float64() < KickSuccessChance {
		r.recover()
		return true
	}
	if r.state != StateBroken {
		r.breakDown()
	}
	return false
}

// ReleaseCustomer sends the seated customer away without a kick attempt or
// fine draw, used when the lane is withdrawn from service.
func (r *Register) ReleaseCustomer() {
	if r.current == nil {
		return
	}
	r.current.Release()
	r.detach()
}

// ToggleOff powers the lane down, suspending every timer including a
// pending malfunction countdown. The seated customer, if any, freezes with
// it.
func (r *Register) ToggleOff() {
	if r.state == StateOff {
		return
	}
	r.resumeState = r.state
	r.state = StateOff
	r.publish(TopicToggledOff, nil)
}

// ToggleOn restores the state the register was in when powered down.
func (r *Register) ToggleOn() {
	if r.state != StateOff {
		return
	}
	r.state = r.resumeState
	if r.state == StateOff {
		r.state = StateWorking
	}
	r.publish(TopicToggledOn, nil)
}

// Upgrade swaps the hardware tier in place. The caller is responsible for
// checking and paying the upgrade cost. Upgrades are refused mid-service.
func (r *Register) Upgrade(to Class, data ClassData) bool {
	if r.current != nil || r.action != actionNone {
		return false
	}
	if _, ok := UpgradeCost(r.class, to); !ok {
		return false
	}
	r.class = to
	r.data = data
	r.publish(TopicUpgraded, to.String())
	return true
}

func (r *Register) publish(topic string, data any) {
	r.deps.Bus.Publish(&event.Signal{Topic: topic, Source: r.id, Data: data})
}
