// Package customer models shoppers as independently-timed state machines.
// The original type hierarchy is flattened into a tagged Kind carrying
// per-kind constants plus a small capability table of behavior hooks; the
// state machine shape is shared by every kind.
package customer

import (
	"math/rand"

	"github.com/shopsim-xyz/go-shopsim/economy"
)

// Kind tags a customer archetype.
type Kind int

const (
	Elderly Kind = iota
	Teenager
	Regular
	Aggressive
	VIP
)

var kindNames = [...]string{"Elderly", "Teenager", "Regular", "Aggressive", "VIP"}

func (k Kind) String() string {
	if k < Elderly || k > VIP {
		return "Unknown"
	}
	return kindNames[k]
}

// Kinds lists every archetype in declaration order.
func Kinds() []Kind { return []Kind{Elderly, Teenager, Regular, Aggressive, VIP} }

// TypeData holds the immutable per-kind constants. Tables are loaded once at
// startup and treated as read-only lookup data.
type TypeData struct {
	Name            string  `json:"name" yaml:"name"`
	ScanTimePerItem float64 `json:"scanTimePerItem" yaml:"scanTimePerItem"` // seconds
	Patience        float64 `json:"patience" yaml:"patience"`               // seconds
	KickFineRisk    float64 `json:"kickFineRisk" yaml:"kickFineRisk"`       // 0..1
	MoveSpeed       float64 `json:"moveSpeed" yaml:"moveSpeed"`             // consumed by the navigation layer
	MinItems        int     `json:"minItems" yaml:"minItems"`
	MaxItems        int     `json:"maxItems" yaml:"maxItems"`
	AlcoholChance   float64 `json:"alcoholChance" yaml:"alcoholChance"`
	CigaretteChance float64 `json:"cigaretteChance" yaml:"cigaretteChance"`
	NeedsHelpChance float64 `json:"needsHelpChance" yaml:"needsHelpChance"`
}

// Table maps each kind to its constants.
type Table map[Kind]TypeData

// DefaultTable returns the stock customer archetypes.
func DefaultTable() Table {
	return Table{
		Elderly: {
			Name:            "Elderly",
			ScanTimePerItem: 25,
			Patience:        240,
			KickFineRisk:    0.7,
			MoveSpeed:       1.0,
			MinItems:        3,
			MaxItems:        12,
			AlcoholChance:   0.05,
			CigaretteChance: 0.10,
			NeedsHelpChance: 0.5,
		},
		Teenager: {
			Name:            "Teenager",
			ScanTimePerItem: 12,
			Patience:        90,
			KickFineRisk:    0.5,
			MoveSpeed:       2.5,
			MinItems:        1,
			MaxItems:        8,
			AlcoholChance:   0.3, // attempts despite being underage
			CigaretteChance: 0.15,
		},
		Regular: {
			Name:            "Regular",
			ScanTimePerItem: 10,
			Patience:        150,
			KickFineRisk:    0.2,
			MoveSpeed:       2.0,
			MinItems:        1,
			MaxItems:        8,
			AlcoholChance:   0.2,
			CigaretteChance: 0.15,
		},
		Aggressive: {
			Name:            "Aggressive",
			ScanTimePerItem: 8,
			Patience:        45,
			KickFineRisk:    0.1,
			MoveSpeed:       2.2,
			MinItems:        1,
			MaxItems:        8,
			AlcoholChance:   0.2,
			CigaretteChance: 0.15,
		},
		VIP: {
			Name:            "VIP",
			ScanTimePerItem: 10,
			Patience:        60,
			KickFineRisk:    0.8,
			MoveSpeed:       2.0,
			MinItems:        1,
			MaxItems:        8,
			AlcoholChance:   0.2,
			CigaretteChance: 0.15,
		},
	}
}

// KickFineKind maps a customer kind to the fine risked by kicking them out.
func KickFineKind(k Kind) economy.FineKind {
	switch k {
	case Elderly:
		return economy.FineKickElderly
	case Teenager:
		return economy.FineKickTeenager
	case Aggressive:
		return economy.FineKickAggressive
	case VIP:
		return economy.FineKickVIP
	default:
		return economy.FineKickRegular
	}
}

// AggressionLevel tracks the escalation stages of an aggressive customer.
type AggressionLevel int

const (
	Calm AggressionLevel = iota
	Grumbling
	Yelling
	Scandal
)

// reactToWaiting is the kind-specific hook invoked when a customer turns
// angry. Hooks adjust stress or escalation state only; the shared timer
// mechanics are untouched.
var reactToWaiting = map[Kind]func(c *Customer){
	Elderly: func(c *Customer) {
		// Asks for assistance.
		c.deps.Stress.Add(2)
	},
	Aggressive: func(c *Customer) {
		c.escalateAggression()
	},
	VIP: func(c *Customer) {
		// Threatens to complain to management.
		c.deps.Stress.Add(3)
	},
	// Teenager and Regular wait it out.
}

// Profile is the randomized per-customer draw made at spawn time.
type Profile struct {
	Items         int
	HasAlcohol    bool
	HasCigarettes bool
	NeedsHelp     bool
}

// RollProfile draws item count, special-item flags and the needs-help flag
// from the kind's constants.
func (t TypeData) RollProfile(rng *rand.Rand) Profile {
	span := t.MaxItems - t.MinItems
	if span < 1 {
		span = 1
	}
	return Profile{
		Items:         t.MinItems + rng.Intn(span),
		HasAlcohol:    rng.Float64() < t.AlcoholChance,
		HasCigarettes: rng.Float64() < t.CigaretteChance,
		NeedsHelp:     t.NeedsHelpChance > 0 && rng.Float64() < t.NeedsHelpChance,
	}
}
