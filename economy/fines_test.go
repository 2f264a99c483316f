package economy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeAllModifiers(t *testing.T) {
	p := Policy{CamerasInstalled: true, SecurityPresent: true}

	base := FineKickVIP.Base()
	want := base * 1.5 * 2.0 * 1.3 * 0.8
	got := p.Compute(FineKickVIP, true, true)

	assert.InDelta(t, want, got, 1e-6)
}

func TestComputeModifiersIndependent(t *testing.T) {
	base := FineAlcoholAfterHours.Base()

	cases := []struct {
		name     string
		policy   Policy
		provoked bool
		night    bool
		want     float64
	}{
		{"none", Policy{}, false, false, base},
		{"provoked", Policy{}, true, false, base * 1.5},
		{"cameras", Policy{CamerasInstalled: true}, false, false, base * 2.0},
		{"security", Policy{SecurityPresent: true}, false, false, base * 1.3},
		{"night", Policy{}, false, true, base * 0.8},
		{"cameras+night", Policy{CamerasInstalled: true}, false, true, base * 2.0 * 0.8},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.policy.Compute(FineAlcoholAfterHours, tc.provoked, tc.night)
			assert.InDelta(t, tc.want, got, 1e-6)
		})
	}
}

func TestComputeIsPure(t *testing.T) {
	p := Policy{CamerasInstalled: true}
	first := p.Compute(FineKickElderly, true, false)
	second := p.Compute(FineKickElderly, true, false)
	assert.Equal(t, first, second)
}

func TestFineBases(t *testing.T) {
	assert.Equal(t, 10000.0, FineAlcoholToMinor.Base())
	assert.Equal(t, 5000.0, FineAlcoholAfterHours.Base())
	assert.Equal(t, 2000.0, FineKickElderly.Base())
	assert.Equal(t, 1500.0, FineKickTeenager.Base())
	assert.Equal(t, 800.0, FineKickRegular.Base())
	assert.Equal(t, 500.0, FineKickAggressive.Base())
	assert.Equal(t, 5000.0, FineKickVIP.Base())
	assert.Equal(t, 1000.0, FineIgnoreBrokenRegister.Base())
}

func TestIsNight(t *testing.T) {
	assert.False(t, IsNight(19.99))
	assert.True(t, IsNight(20))
	assert.True(t, IsNight(22.5))
}
