package stress

import "testing"

func TestClamping(t *testing.T) {
	m := NewMeter()

	m.Add(150)
	if m.Current() != 100 {
		t.Errorf("expected clamp at 100, got %f", m.Current())
	}

	m.Reduce(500)
	if m.Current() != 0 {
		t.Errorf("expected clamp at 0, got %f", m.Current())
	}
}

func TestLevels(t *testing.T) {
	cases := []struct {
		value float64
		want  Level
	}{
		{0, Normal},
		{30, Normal},
		{31, Tired},
		{60, Tired},
		{61, Stressed},
		{80, Stressed},
		{81, Panic},
		{100, Panic},
	}

	for _, tc := range cases {
		m := NewMeter()
		m.Add(tc.value)
		if got := m.Level(); got != tc.want {
			t.Errorf("value %f: expected %s, got %s", tc.value, tc.want, got)
		}
	}
}

func TestNilMeterIsNoop(t *testing.T) {
	var m *Meter
	m.Add(10)
	m.Reduce(10)
	if m.Current() != 0 || m.Level() != Normal {
		t.Errorf("nil meter should read as zero")
	}
}
