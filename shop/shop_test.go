package shop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopsim-xyz/go-shopsim/customer"
	"github.com/shopsim-xyz/go-shopsim/economy"
	"github.com/shopsim-xyz/go-shopsim/event"
	"github.com/shopsim-xyz/go-shopsim/register"
)

func newShop(t *testing.T) *Shop {
	t.Helper()
	s, err := New(DefaultConfig())
	require.NoError(t, err)
	return s
}

func TestNewRejectsMisconfiguration(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Clock.EndHour = cfg.Clock.StartHour
	_, err := New(cfg)
	assert.Error(t, err, "closing before opening")

	cfg = DefaultConfig()
	delete(cfg.Customers, customer.VIP)
	_, err = New(cfg)
	assert.Error(t, err, "incomplete archetype table")

	cfg = DefaultConfig()
	cfg.Registers = register.Classes{}
	_, err = New(cfg)
	assert.Error(t, err, "empty register table")

	cfg = DefaultConfig()
	cfg.InitialRegisters = 0
	_, err = New(cfg)
	assert.Error(t, err, "no registers")

	cfg = DefaultConfig()
	cfg.InitialRegisters = Startup.MaxRegisters() + 1
	_, err = New(cfg)
	assert.Error(t, err, "over the startup cap")
}

func TestOpeningDaySmoke(t *testing.T) {
	s := newShop(t)
	assert.Equal(t, 2, len(s.Dispatcher().Registers()))
	assert.Equal(t, Running, s.Outcome())

	// Ten simulated minutes in half-second steps.
	for i := 0; i < 1200; i++ {
		s.Tick(0.5)
	}

	stats := s.Stats()
	assert.Equal(t, 1, stats.Day)
	assert.Equal(t, "running", stats.Outcome)
	assert.GreaterOrEqual(t, stats.Served+stats.Lost, 0)
	assert.Equal(t, "Startup", stats.Level)
}

func TestBuyRegisterHonorsCapAndBalance(t *testing.T) {
	s := newShop(t)

	_, err := s.BuyRegister(register.Basic)
	require.NoError(t, err)
	_, err = s.BuyRegister(register.Basic)
	require.NoError(t, err)
	assert.Len(t, s.Dispatcher().Registers(), 4)

	_, err = s.BuyRegister(register.Basic)
	assert.Error(t, err, "startup stores cap at four lanes")

	s.Ledger().Commit() // apply the purchases without accruing tick income
	assert.InDelta(t, 50000-2*8000, s.Ledger().Balance(), 1e-9)
}

func TestBuyRegisterNeedsFunds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Economy.InitialBalance = 100
	s, err := New(cfg)
	require.NoError(t, err)

	_, err = s.BuyRegister(register.Premium)
	assert.Error(t, err)
}

func TestGuardHardensFinePolicy(t *testing.T) {
	s := newShop(t)
	require.NoError(t, s.Hire(economy.Guard))

	s.Route(economy.FineKickRegular, false)
	s.Ledger().Commit()

	// 2500 signing cost plus 800 base fine raised 1.3x by security.
	assert.InDelta(t, 50000-2500-800*1.3, s.Ledger().Balance(), 1e-9)

	s.Fire(economy.Guard)
	s.Route(economy.FineKickRegular, false)
	s.Ledger().Commit()
	assert.InDelta(t, 50000-2500-800*1.3-800, s.Ledger().Balance(), 1e-9)
}

func TestHireRejectsDuplicatesAndUnknownRoles(t *testing.T) {
	s := newShop(t)
	require.NoError(t, s.Hire(economy.Mechanic))
	assert.Error(t, s.Hire(economy.Mechanic))
	assert.Error(t, s.Hire(economy.StaffRole("janitor")))
}

func TestUpgradeRegisterChargesCost(t *testing.T) {
	s := newShop(t)
	id := s.Dispatcher().Registers()[0].ID()

	require.NoError(t, s.UpgradeRegister(id, register.Enhanced))
	assert.Equal(t, register.Enhanced, s.Dispatcher().Registers()[0].Class())

	assert.Error(t, s.UpgradeRegister(id, register.Basic), "no downgrades")
	assert.Error(t, s.UpgradeRegister("nope", register.Premium))

	s.Ledger().Commit()
	assert.InDelta(t, 50000-7000, s.Ledger().Balance(), 1e-9)
}

func TestRemoveRegisterReleasesEveryone(t *testing.T) {
	s := newShop(t)
	r := s.Dispatcher().Registers()[0]

	data := customer.DefaultTable()[customer.Regular]
	seated := customer.New("seated", customer.Regular, data, customer.Profile{Items: 8}, nil, customer.Deps{})
	queued := customer.New("queued", customer.Regular, data, customer.Profile{Items: 1}, nil, customer.Deps{})
	require.True(t, r.AssignCustomer(seated))
	s.Dispatcher().Enqueue(queued)

	require.NoError(t, s.RemoveRegister(r.ID()))
	assert.Len(t, s.Dispatcher().Registers(), 1)
	assert.True(t, seated.HasLeft())
	assert.False(t, seated.IsServed())
	assert.Error(t, s.RemoveRegister(r.ID()), "already gone")
}

func TestVictoryHaltsTheRun(t *testing.T) {
	s := newShop(t)
	s.Ledger().AddIncome(600000)
	s.Tick(0.5)

	assert.Equal(t, Victory, s.Outcome())
	day := s.Clock().Day()
	elapsed := s.Clock().Elapsed()

	s.Tick(1000)
	assert.Equal(t, day, s.Clock().Day(), "a finished run no longer advances")
	assert.Equal(t, elapsed, s.Clock().Elapsed())
}

func TestThreeCriticalDaysBankruptTheStore(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Clock.EndHour = cfg.Clock.StartHour + 1 // one-hour days keep the test fast
	cfg.Economy.InitialBalance = 1000
	cfg.SpawnInterval = 3600
	s, err := New(cfg)
	require.NoError(t, err)

	for day := 0; day < 3; day++ {
		s.Tick(3600)
	}
	assert.Equal(t, Bankrupt, s.Outcome())
}

func TestLevelUpUnlocksMoreRegisters(t *testing.T) {
	s := newShop(t)
	var levelups []string
	s.Bus().Subscribe("test", TopicLevelUp, func(sig *event.Signal) {
		levelups = append(levelups, sig.Data.(string))
	})

	s.Ledger().AddIncome(100000) // the efficiency bonus lifts this to 120k
	s.Tick(0.5)

	require.Equal(t, Developing, s.StoreLevel())
	require.Equal(t, []string{"Developing"}, levelups)

	for i := 0; i < 6; i++ {
		_, err := s.BuyRegister(register.Basic)
		require.NoError(t, err)
	}
	assert.Len(t, s.Dispatcher().Registers(), 8)
	_, err := s.BuyRegister(register.Basic)
	assert.Error(t, err, "developing stores cap at eight lanes")
}

func TestDailyMaintenanceCountsEveryLane(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Clock.EndHour = cfg.Clock.StartHour + 1
	cfg.SpawnInterval = 1e9
	s, err := New(cfg)
	require.NoError(t, err)

	// Powering a lane down does not stop its maintenance fee.
	s.Dispatcher().Registers()[1].ToggleOff()

	var reports []economy.DayReport
	s.Bus().Subscribe("test", economy.TopicDayClosed, func(sig *event.Signal) {
		reports = append(reports, sig.Data.(economy.DayReport))
	})
	s.Tick(3600)

	require.Len(t, reports, 1)
	assert.InDelta(t, 6900.0, reports[0].Expenses, 1e-9,
		"rent 5000 + electricity 1000 + collection 500 + 200 per installed lane")
}

func TestNeglectedBrokenLanesFinePerRegister(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SpawnInterval = 1e9 // keep the floor empty
	s, err := New(cfg)
	require.NoError(t, err)

	var fined []string
	s.Bus().Subscribe("test", economy.TopicFineApplied, func(sig *event.Signal) {
		payload := sig.Data.(map[string]any)
		fined = append(fined, payload["kind"].(string))
	})

	// A help request flags the lane; ignored for a minute, it breaks down.
	data := customer.DefaultTable()[customer.Regular]
	for _, r := range s.Dispatcher().Registers() {
		c := customer.New("c", customer.Regular, data, customer.Profile{Items: 1, NeedsHelp: true}, nil, customer.Deps{})
		require.True(t, r.AssignCustomer(c))
	}
	for i := 0; i < 60; i++ {
		s.Tick(1)
	}
	require.Len(t, s.BrokenRegisters(), 2)
	assert.Empty(t, s.WorkingRegisters())

	for i := 0; i < 60; i++ {
		s.Tick(1)
	}
	assert.Equal(t, []string{"ignore_broken_register", "ignore_broken_register"}, fined,
		"each neglected lane draws its own fine")
}

func TestMassLeaveDrawsOneFine(t *testing.T) {
	s := newShop(t)
	var fined []string
	s.Bus().Subscribe("test", economy.TopicFineApplied, func(sig *event.Signal) {
		payload := sig.Data.(map[string]any)
		fined = append(fined, payload["kind"].(string))
	})

	data := customer.DefaultTable()[customer.Regular]
	for i := 0; i < MassLeaveThreshold; i++ {
		c := customer.New("c", customer.Regular, data, customer.Profile{Items: 1}, nil, customer.Deps{Bus: s.Bus()})
		c.Arrive()
		c.Release()
	}
	s.Tick(0.5)

	assert.Equal(t, []string{"mass_customer_leave"}, fined)

	s.Tick(0.5)
	assert.Len(t, fined, 1, "the window resets after the fine")
}
