// Package economy holds the financial ledger and the fine policy for the
// store simulation. The ledger is the only resource shared by every entity in
// a tick; mutations are enqueued as deltas and applied in a single serialized
// commit so parallel register and customer updates cannot lose writes.
package economy

// FineKind identifies a regulatory violation.
type FineKind int

const (
	FineAlcoholToMinor FineKind = iota
	FineAlcoholAfterHours
	FineKickElderly
	FineKickTeenager
	FineKickRegular
	FineKickAggressive
	FineKickVIP
	FineIgnoreBrokenRegister
	FineMassCustomerLeave
)

// fineBases are the unmodified amounts in TR.
var fineBases = map[FineKind]float64{
	FineAlcoholToMinor:       10000,
	FineAlcoholAfterHours:    5000,
	FineKickElderly:          2000,
	FineKickTeenager:         1500,
	FineKickRegular:          800,
	FineKickAggressive:       500,
	FineKickVIP:              5000,
	FineIgnoreBrokenRegister: 1000,
	FineMassCustomerLeave:    2000,
}

var fineNames = map[FineKind]string{
	FineAlcoholToMinor:       "alcohol_to_minor",
	FineAlcoholAfterHours:    "alcohol_after_hours",
	FineKickElderly:          "kick_elderly",
	FineKickTeenager:         "kick_teenager",
	FineKickRegular:          "kick_regular",
	FineKickAggressive:       "kick_aggressive",
	FineKickVIP:              "kick_vip",
	FineIgnoreBrokenRegister: "ignore_broken_register",
	FineMassCustomerLeave:    "mass_customer_leave",
}

// Base returns the unmodified fine amount in TR.
func (k FineKind) Base() float64 { return fineBases[k] }

func (k FineKind) String() string {
	if name, ok := fineNames[k]; ok {
		return name
	}
	return "unknown"
}

// Fine modifier constants. All modifiers are multiplicative and independently
// togglable.
const (
	ProvocationMultiplier = 1.5
	CameraMultiplier      = 2.0
	SecurityMultiplier    = 1.3
	NightReduction        = 0.8
	NightHour             = 20 // fines drop after 20:00
)

// Policy computes final fine amounts from a kind and contextual modifiers.
// Compute has no side effects; the caller alone performs the ledger mutation.
type Policy struct {
	CamerasInstalled bool
	SecurityPresent  bool
}

// Compute returns base(kind) ×1.5 if provoked ×2.0 with cameras ×1.3 with
// security ×0.8 at night.
func (p Policy) Compute(kind FineKind, provoked, night bool) float64 {
	fine := kind.Base()
	if provoked {
		fine *= ProvocationMultiplier
	}
	if p.CamerasInstalled {
		fine *= CameraMultiplier
	}
	if p.SecurityPresent {
		fine *= SecurityMultiplier
	}
	if night {
		fine *= NightReduction
	}
	return fine
}

// IsNight reports whether the fine night reduction applies at the given
// fractional hour of day.
func IsNight(hour float64) bool { return hour >= NightHour }
