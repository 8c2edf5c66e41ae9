package controller

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func at(ms int) time.Time { return t0.Add(time.Duration(ms) * time.Millisecond) }

func in(target, actuator float64, ms int) Input {
	return Input{Target: target, RawTarget: target, Actuator: actuator, Now: at(ms)}
}

func TestStep_PressThenNoDuplicate(t *testing.T) {
	p := DefaultParams()
	var st ActuatorState

	st, d, err := Step(p, st, in(100, 80, 0))
	require.NoError(t, err)
	assert.Equal(t, Press, d.Kind)
	assert.Equal(t, 20.0, d.Diff)
	assert.True(t, st.Pressed)
	assert.Equal(t, at(0), st.PressStartedAt)

	st, d, err = Step(p, st, in(100, 80, 50))
	require.NoError(t, err)
	assert.Equal(t, Hold, d.Kind)
	assert.True(t, st.Pressed)
	assert.Equal(t, at(0), st.PressStartedAt)
	assert.Equal(t, 50*time.Millisecond, d.Hold)
}

func TestStep_AlignedReleaseWaitsForMinHold(t *testing.T) {
	p := DefaultParams()
	st := ActuatorState{Pressed: true, PressStartedAt: at(0)}

	st, d, err := Step(p, st, in(100, 95, 100))
	require.NoError(t, err)
	assert.Equal(t, Hold, d.Kind)
	assert.True(t, st.Pressed)

	st, d, err = Step(p, st, in(100, 95, 350))
	require.NoError(t, err)
	assert.Equal(t, ReleaseAligned, d.Kind)
	assert.Equal(t, 350*time.Millisecond, d.Hold)
	assert.True(t, d.Caught)
	assert.False(t, st.Pressed)
	assert.Equal(t, at(350), st.LastTransitionAt)
}

func TestStep_CatchUsesRawTarget(t *testing.T) {
	p := DefaultParams()
	st := ActuatorState{Pressed: true, PressStartedAt: at(0)}

	// предсказание совпало, а реальная цель ещё далеко
	_, d, err := Step(p, st, Input{Target: 100, RawTarget: 85, Actuator: 95, Now: at(400)})
	require.NoError(t, err)
	assert.Equal(t, ReleaseAligned, d.Kind)
	assert.False(t, d.Caught)

	_, d, err = Step(p, st, Input{Target: 100, RawTarget: math.NaN(), Actuator: 95, Now: at(400)})
	require.NoError(t, err)
	assert.Equal(t, ReleaseAligned, d.Kind)
	assert.False(t, d.Caught)
}

func TestStep_OvershootOverridesMinHold(t *testing.T) {
	p := DefaultParams()
	pressed := ActuatorState{Pressed: true, PressStartedAt: at(0)}

	// поплавок выше цели больше чем на 25
	st, d, err := Step(p, pressed, in(100, 130, 50))
	require.NoError(t, err)
	assert.Equal(t, Release, d.Kind)
	assert.False(t, st.Pressed)
	assert.Equal(t, 50*time.Millisecond, d.Hold)

	// ниже цели, но в пределах широкого допуска: держим до min hold
	st, d, err = Step(p, pressed, in(100, 120, 50))
	require.NoError(t, err)
	assert.Equal(t, Hold, d.Kind)
	assert.True(t, st.Pressed)

	st, d, err = Step(p, st, in(100, 120, 300))
	require.NoError(t, err)
	assert.Equal(t, Release, d.Kind)
	assert.False(t, st.Pressed)
}

func TestStep_Debounce(t *testing.T) {
	p := DefaultParams()
	st := ActuatorState{LastTransitionAt: at(1000)}

	st, d, err := Step(p, st, in(200, 100, 1050))
	require.NoError(t, err)
	assert.Equal(t, Hold, d.Kind)
	assert.False(t, st.Pressed)

	st, d, err = Step(p, st, in(200, 100, 1100))
	require.NoError(t, err)
	assert.Equal(t, Press, d.Kind)
	assert.True(t, st.Pressed)
}

func TestStep_ReleasedAlignedOrBelowHolds(t *testing.T) {
	p := DefaultParams()
	for _, c := range []Input{in(100, 100, 0), in(50, 100, 0), in(110, 100, 0)} {
		st, d, err := Step(p, ActuatorState{}, c)
		require.NoError(t, err)
		assert.Equal(t, Hold, d.Kind)
		assert.False(t, st.Pressed)
	}
}

func TestStep_MissingInput(t *testing.T) {
	p := DefaultParams()
	pressed := ActuatorState{Pressed: true, PressStartedAt: at(0)}

	for _, c := range []Input{
		{Target: math.NaN(), Actuator: 100, Now: at(1000)},
		{Target: 100, Actuator: math.NaN(), Now: at(1000)},
	} {
		st, d, err := Step(p, pressed, c)
		assert.ErrorIs(t, err, ErrMissingInput)
		assert.Equal(t, Hold, d.Kind)
		assert.Equal(t, pressed, st)
	}
}

func TestStep_InvalidConfiguration(t *testing.T) {
	cases := map[string]Params{
		"zero tolerance":     {Tolerance: 0, ReleaseFactor: 2.5},
		"negative tolerance": {Tolerance: -5, ReleaseFactor: 2.5},
		"nan tolerance":      {Tolerance: math.NaN(), ReleaseFactor: 2.5},
		"narrow release":     {Tolerance: 10, ReleaseFactor: 0.5},
		"negative hold":      {Tolerance: 10, ReleaseFactor: 2.5, MinHold: -time.Millisecond},
		"negative debounce":  {Tolerance: 10, ReleaseFactor: 2.5, Debounce: -time.Millisecond},
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			st, d, err := Step(p, ActuatorState{}, in(500, 0, 0))
			assert.ErrorIs(t, err, ErrInvalidConfiguration)
			assert.Equal(t, Hold, d.Kind)
			assert.False(t, st.Pressed)
		})
	}
}

func TestForceRelease(t *testing.T) {
	st, d, ok := ForceRelease(ActuatorState{}, at(10))
	assert.False(t, ok)
	assert.Equal(t, Hold, d.Kind)
	assert.False(t, st.Pressed)

	st, d, ok = ForceRelease(ActuatorState{Pressed: true, PressStartedAt: at(0)}, at(120))
	assert.True(t, ok)
	assert.Equal(t, Release, d.Kind)
	assert.Equal(t, 120*time.Millisecond, d.Hold)
	assert.False(t, st.Pressed)
	assert.Equal(t, at(120), st.LastTransitionAt)
}

func TestStep_RandomWalkInvariants(t *testing.T) {
	p := DefaultParams()
	rng := rand.New(rand.NewSource(42))
	var st ActuatorState
	var lastPress, lastRelease time.Time
	lastKind := Release
	ms := 0

	for i := 0; i < 5000; i++ {
		ms += 10 + rng.Intn(60)
		target := rng.Float64() * 200
		actuator := rng.Float64() * 200
		now := at(ms)

		prev := st
		next, d, err := Step(p, st, Input{Target: target, RawTarget: target, Actuator: actuator, Now: now})
		require.NoError(t, err)

		switch d.Kind {
		case Press:
			require.False(t, prev.Pressed)
			require.NotEqual(t, Press, lastKind, "duplicate press")
			if !lastRelease.IsZero() {
				require.GreaterOrEqual(t, now.Sub(lastRelease), p.Debounce)
			}
			lastPress = now
			lastKind = Press
		case Release, ReleaseAligned:
			require.True(t, prev.Pressed)
			require.Equal(t, Press, lastKind, "duplicate release")
			overshoot := actuator > target+p.ReleaseTolerance()
			if !overshoot {
				require.GreaterOrEqual(t, now.Sub(lastPress), p.MinHold)
			}
			lastRelease = now
			lastKind = d.Kind
		case Hold:
			require.Equal(t, prev, next)
		}
		if next.Pressed {
			require.Equal(t, lastPress, next.PressStartedAt)
		}
		st = next
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "press", Press.String())
	assert.Equal(t, "release_aligned", ReleaseAligned.String())
	assert.Equal(t, "kind(9)", Kind(9).String())
	assert.False(t, Hold.IsTransition())
	assert.True(t, Release.IsTransition())
}
