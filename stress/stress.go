// Package stress tracks the ambient stress level of the shop operator.
// The meter is an explicitly passed handle rather than a global; every
// component that raises or lowers stress receives it at construction.
package stress

import "sync"

// Level buckets the raw meter value for UI and behavior thresholds.
type Level int

const (
	Normal   Level = iota // 0-30
	Tired                 // 31-60
	Stressed              // 61-80
	Panic                 // 81-100
)

func (l Level) String() string {
	switch l {
	case Normal:
		return "Normal"
	case Tired:
		return "Tired"
	case Stressed:
		return "Stressed"
	case Panic:
		return "Panic"
	default:
		return "Unknown"
	}
}

const maxStress = 100

// Meter is a clamped 0-100 stress accumulator. All methods are safe on a nil
// receiver so callers can treat the meter as an optional collaborator.
type Meter struct {
	mu      sync.Mutex
	current float64
}

// NewMeter returns a meter starting at zero stress.
func NewMeter() *Meter {
	return &Meter{}
}

// Add raises stress, clamped at 100.
func (m *Meter) Add(amount float64) {
	if m == nil || amount <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current += amount
	if m.current > maxStress {
		m.current = maxStress
	}
}

// Reduce lowers stress, clamped at 0.
func (m *Meter) Reduce(amount float64) {
	if m == nil || amount <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current -= amount
	if m.current < 0 {
		m.current = 0
	}
}

// Current returns the raw meter value.
func (m *Meter) Current() float64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Level returns the bucket for the current value.
func (m *Meter) Level() Level {
	v := m.Current()
	switch {
	case v <= 30:
		return Normal
	case v <= 60:
		return Tired
	case v <= 80:
		return Stressed
	default:
		return Panic
	}
}
