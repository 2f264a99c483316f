// Package register implements the cash register state machine: hardware
// class data, malfunction and breakdown handling, and the operator actions
// that resolve them.
package register

// Class identifies a register hardware tier.
type Class int

const (
	Basic Class = iota
	Enhanced
	Premium
)

var classNames = [...]string{"Basic", "Enhanced", "Premium"}

func (c Class) String() string {
	if c < Basic || c > Premium {
		return "Unknown"
	}
	return classNames[c]
}

// ClassData holds the per-tier hardware constants.
type ClassData struct {
	Name            string  `json:"name" yaml:"name"`
	IncomePerMinute float64 `json:"incomePerMinute" yaml:"incomePerMinute"` // passive income while idle
	Reliability     float64 `json:"reliability" yaml:"reliability"`         // 0..1, drives malfunction rolls
	Cost            float64 `json:"cost" yaml:"cost"`
}

// BreakdownChance is the per-second probability of a spontaneous breakdown
// while working, derived from the tier's reliability.
func (d ClassData) BreakdownChance() float64 {
	return (1 - d.Reliability) / 60
}

// Classes maps each tier to its constants.
type Classes map[Class]ClassData

// DefaultClasses returns the stock hardware tiers.
func DefaultClasses() Classes {
	return Classes{
		Basic:    {Name: "Basic", IncomePerMinute: 15, Reliability: 0.90, Cost: 8000},
		Enhanced: {Name: "Enhanced", IncomePerMinute: 25, Reliability: 0.93, Cost: 15000},
		Premium:  {Name: "Premium", IncomePerMinute: 40, Reliability: 0.97, Cost: 25000},
	}
}

// upgradeCosts prices each supported tier jump.
var upgradeCosts = map[[2]Class]float64{
	{Basic, Enhanced}:   7000,
	{Enhanced, Premium}: 10000,
	{Basic, Premium}:    17000,
}

// UpgradeCost returns the price of moving between tiers, or false when the
// jump is not offered (downgrades, same tier).
func UpgradeCost(from, to Class) (float64, bool) {
	cost, ok := upgradeCosts[[2]Class{from, to}]
	return cost, ok
}
