package main

import (
	"log/slog"

	"github.com/shopsim-xyz/go-shopsim/economy"
	"github.com/shopsim-xyz/go-shopsim/register"
	"github.com/shopsim-xyz/go-shopsim/shop"
	"github.com/shopsim-xyz/go-shopsim/stress"
)

// autoDriver stands in for the player: it fixes what breaks, helps stuck
// customers, and spends surplus cash on staff and hardware. Decisions run
// on a coarse interval so the simulation loop stays cheap.
type autoDriver struct {
	shop   *shop.Shop
	logger *slog.Logger
	timer  float64
}

const driverInterval = 5.0

// Cash thresholds for the driver's spending habits.
const (
	hireMechanicAt  = 30000.0
	hireAssistantAt = 40000.0
	buyRegisterAt   = 45000.0
	upgradeAt       = 60000.0
)

func newAutoDriver(s *shop.Shop, logger *slog.Logger) *autoDriver {
	return &autoDriver{shop: s, logger: logger}
}

func (d *autoDriver) step(dt float64) {
	d.timer += dt
	if d.timer < driverInterval {
		return
	}
	d.timer -= driverInterval

	d.fixLanes()
	d.spendSurplus()
}

func (d *autoDriver) fixLanes() {
	for _, r := range d.shop.Dispatcher().Registers() {
		if r.BusyWithAction() {
			continue
		}
		switch r.State() {
		case register.StateBroken:
			// A panicking owner kicks the machine instead of waiting
			// out a repair; it usually works and always blows off steam.
			if d.shop.Stress().Level() >= stress.Panic && !r.IsOccupied() {
				if r.Kick(false) {
					d.logger.Debug("kicked lane back to life", "lane", r.ID())
				}
				continue
			}
			if d.shop.RepairRegister(r.ID()) {
				d.logger.Debug("repairing lane", "lane", r.ID())
			}
		case register.StateNeedsAttention:
			if c := r.Current(); c != nil && c.NeedsHelp() {
				r.HelpCustomer()
			} else if r.Reboot() {
				d.logger.Debug("rebooting lane", "lane", r.ID())
			}
		case register.StateWorking:
			if c := r.Current(); c != nil && c.NeedsHelp() {
				r.HelpCustomer()
			}
		}
	}
}

func (d *autoDriver) spendSurplus() {
	ledger := d.shop.Ledger()
	balance := ledger.Balance()

	if balance > hireMechanicAt && !ledger.HasStaff(economy.Mechanic) {
		if err := d.shop.Hire(economy.Mechanic); err == nil {
			d.logger.Info("hired mechanic", "balance", balance)
		}
	}
	if balance > hireAssistantAt && !ledger.HasStaff(economy.Assistant) {
		if err := d.shop.Hire(economy.Assistant); err == nil {
			d.logger.Info("hired assistant", "balance", balance)
		}
	}

	if balance > buyRegisterAt && d.shop.Dispatcher().AverageQueueLength() > 2.5 {
		if r, err := d.shop.BuyRegister(register.Basic); err == nil {
			d.logger.Info("bought register", "lane", r.ID(), "balance", balance)
		}
	}

	if balance > upgradeAt {
		for _, r := range d.shop.Dispatcher().Registers() {
			if r.Class() == register.Basic {
				if err := d.shop.UpgradeRegister(r.ID(), register.Enhanced); err == nil {
					d.logger.Info("upgraded register", "lane", r.ID())
				}
				break
			}
		}
	}
}
