// Package dispatch routes arriving customers to checkout lanes and keeps
// the lane fleet sized to demand. Each register owns a FIFO queue; arrivals
// join the shortest one and are seated as lanes free up.
package dispatch

import (
	"github.com/shopsim-xyz/go-shopsim/customer"
	"github.com/shopsim-xyz/go-shopsim/event"
	"github.com/shopsim-xyz/go-shopsim/register"
)

// Fleet management tuning.
const (
	ManageInterval    = 30.0 // seconds between auto-management passes
	OpenQueueTrigger  = 3.0  // average queue length that opens another lane
	CloseQueueTrigger = 1.0  // average queue length that closes an idle lane
	MinWorking        = 2    // lanes never auto-closed below this
)

// Event topics published on the shop bus.
const (
	TopicLaneOpened = "dispatch.lane_opened"
	TopicLaneClosed = "dispatch.lane_closed"
)

// Dispatcher owns the per-lane queues and the auto-management timer. It is
// driven from the simulation loop and is not safe for concurrent use.
type Dispatcher struct {
	registers []*register.Register
	queues    map[string][]*customer.Customer
	bus       *event.Bus

	autoManage  bool
	manageTimer float64
}

// New builds an empty dispatcher. Auto-management starts enabled.
func New(bus *event.Bus) *Dispatcher {
	return &Dispatcher{
		queues:     make(map[string][]*customer.Customer),
		bus:        bus,
		autoManage: true,
	}
}

// SetAutoManage toggles the periodic open/close pass.
func (d *Dispatcher) SetAutoManage(on bool) { d.autoManage = on }

// AddRegister brings a lane under dispatch control.
func (d *Dispatcher) AddRegister(r *register.Register) {
	if r == nil {
		return
	}
	d.registers = append(d.registers, r)
	d.queues[r.ID()] = nil
}

// RemoveRegister detaches a lane and returns its queued customers so the
// caller can re-route or release them.
func (d *Dispatcher) RemoveRegister(id string) []*customer.Customer {
	for i, r := range d.registers {
		if r.ID() != id {
			continue
		}
		d.registers = append(d.registers[:i], d.registers[i+1:]...)
		waiting := d.queues[id]
		delete(d.queues, id)
		return waiting
	}
	return nil
}

// Registers returns the managed lanes in add order.
func (d *Dispatcher) Registers() []*register.Register { return d.registers }

// Enqueue places a customer in the shortest open queue. Returns false when
// every lane is powered down.
func (d *Dispatcher) Enqueue(c *customer.Customer) bool {
	target := d.shortestOpenLane()
	if target == nil {
		return false
	}
	d.queues[target.ID()] = append(d.queues[target.ID()], c)
	return true
}

// AvailableRegister returns a lane ready to take a customer right now, or
// nil when none is free.
func (d *Dispatcher) AvailableRegister() *register.Register {
	for _, r := range d.registers {
		if r.IsServiceable() && len(d.queues[r.ID()]) == 0 {
			return r
		}
	}
	return nil
}

// ShortestQueue returns the open lane with the fewest waiting customers, or
// nil when every lane is powered down.
func (d *Dispatcher) ShortestQueue() *register.Register {
	return d.shortestOpenLane()
}

func (d *Dispatcher) shortestOpenLane() *register.Register {
	var best *register.Register
	bestLen := 0
	for _, r := range d.registers {
		if r.State() == register.StateOff {
			continue
		}
		n := len(d.queues[r.ID()])
		if best == nil || n < bestLen {
			best, bestLen = r, n
		}
	}
	return best
}

// QueueLength reports how many customers wait at the given lane.
func (d *Dispatcher) QueueLength(id string) int { return len(d.queues[id]) }

// AverageQueueLength is the mean queue length across open lanes; zero when
// nothing is open.
func (d *Dispatcher) AverageQueueLength() float64 {
	open, total := 0, 0
	for _, r := range d.registers {
		if r.State() == register.StateOff {
			continue
		}
		open++
		total += len(d.queues[r.ID()])
	}
	if open == 0 {
		return 0
	}
	return float64(total) / float64(open)
}

// WorkingCount reports lanes currently in Working state.
func (d *Dispatcher) WorkingCount() int {
	n := 0
	for _, r := range d.registers {
		if r.State() == register.StateWorking {
			n++
		}
	}
	return n
}

// BrokenCount reports lanes currently broken.
func (d *Dispatcher) BrokenCount() int {
	n := 0
	for _, r := range d.registers {
		if r.State() == register.StateBroken {
			n++
		}
	}
	return n
}

// Update seats queued customers at freed lanes and runs the periodic
// auto-management pass.
func (d *Dispatcher) Update(dt float64) {
	if dt <= 0 {
		return
	}
	d.seatWaiting()
	if !d.autoManage {
		return
	}
	d.manageTimer += dt
	for d.manageTimer >= ManageInterval {
		d.manageTimer -= ManageInterval
		d.managePass()
	}
}

func (d *Dispatcher) seatWaiting() {
	for _, r := range d.registers {
		if !r.IsServiceable() {
			continue
		}
		q := d.queues[r.ID()]
		if len(q) == 0 {
			continue
		}
		head := q[0]
		d.queues[r.ID()] = q[1:]
		r.AssignCustomer(head)
	}
}

// managePass opens a powered-down lane when queues pile up and powers down
// one idle lane when the floor is quiet, never dropping below MinWorking.
func (d *Dispatcher) managePass() {
	avg := d.AverageQueueLength()
	switch {
	case avg > OpenQueueTrigger:
		for _, r := range d.registers {
			if r.State() == register.StateOff {
				r.ToggleOn()
				d.publish(TopicLaneOpened, r.ID())
				return
			}
		}
	case avg < CloseQueueTrigger:
		if d.WorkingCount() <= MinWorking {
			return
		}
		for _, r := range d.registers {
			if r.State() == register.StateWorking && !r.IsOccupied() && len(d.queues[r.ID()]) == 0 {
				r.ToggleOff()
				d.publish(TopicLaneClosed, r.ID())
				return
			}
		}
	}
}

func (d *Dispatcher) publish(topic string, data any) {
	d.bus.Publish(&event.Signal{Topic: topic, Source: "dispatch", Data: data})
}
