package shop

// Level is the store's growth stage. Levels unlock register capacity and
// only ever rise; a later losing streak does not shrink the store.
type Level int

const (
	Startup Level = iota
	Developing
	Stable
)

var levelNames = [...]string{"Startup", "Developing", "Stable"}

func (l Level) String() string {
	if l < Startup || l > Stable {
		return "Unknown"
	}
	return levelNames[l]
}

// Growth thresholds and the register cap per stage.
const (
	DevelopingBalance = 100000.0
	StableBalance     = 250000.0
)

var levelCaps = map[Level]int{
	Startup:    4,
	Developing: 8,
	Stable:     12,
}

// MaxRegisters returns the register cap for a stage.
func (l Level) MaxRegisters() int { return levelCaps[l] }

// levelForBalance maps a balance to the stage it qualifies for.
func levelForBalance(balance float64) Level {
	switch {
	case balance >= StableBalance:
		return Stable
	case balance >= DevelopingBalance:
		return Developing
	default:
		return Startup
	}
}
