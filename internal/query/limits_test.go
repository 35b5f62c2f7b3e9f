package query

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeLimit(t *testing.T) {
	l := DefaultLimits()
	tests := []struct {
		name      string
		remaining int
		base      int
		mods      bool
		want      int
	}{
		{"no remaining", 0, 10, false, 10},
		{"one remaining doubles", 1, 10, false, 20},
		{"three remaining", 3, 10, false, 80},
		{"capped by hard max", 30, 10, false, 300000},
		{"base above hard max kept", 2, 500000, false, 500000},
		{"base above hard max with slack kept", 0, 500000, true, 500000},
		{"no limit passes through", 4, NoLimit, false, NoLimit},
		{"modification slack", 0, 10, true, 15},
		{"slack after doubling", 1, 10, true, 25},
		{"zero base", 3, 0, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, l.ComputeLimit(tt.remaining, tt.base, tt.mods))
		})
	}
}

func TestComputeLimitSaturates(t *testing.T) {
	l := Limits{HardMaxLimit: math.MaxInt32}
	got := l.ComputeLimit(64, 1<<20, false)
	assert.LessOrEqual(t, got, math.MaxInt32)
	assert.GreaterOrEqual(t, got, 1<<20)

	l.ModificationSlack = 5
	assert.Equal(t, math.MaxInt32, l.ComputeLimit(0, math.MaxInt32, true))
}

func TestComputeLimitProperties(t *testing.T) {
	l := DefaultLimits()
	r := rand.New(rand.NewPCG(1, 2))
	for range 2000 {
		remaining := r.IntN(40)
		base := 1 + r.IntN(1_000_000)
		mods := r.IntN(2) == 0

		got := l.ComputeLimit(remaining, base, mods)
		assert.GreaterOrEqual(t, got, base)
		assert.LessOrEqual(t, got, max(base, l.HardMaxLimit))

		// Monotone in base and in the number of unenforced constraints.
		assert.GreaterOrEqual(t, l.ComputeLimit(remaining, base+1, mods), got)
		assert.GreaterOrEqual(t, l.ComputeLimit(remaining+1, base, mods), got)
	}
}
