package nn

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

// fillWeights sets every weight of net to w.
func fillWeights(net *Network, w float64) {
	s := net.Structure()
	for l := range s.Layers {
		for n := range s.Layers[l].Neurons {
			for i := range s.Layers[l].Neurons[n].Weights {
				s.Layers[l].Neurons[n].Weights[i] = w
			}
		}
	}
	net.SetStructure(s)
}

func TestMutateChangesWeights(t *testing.T) {
	for seed := uint64(100); seed < 120; seed++ {
		net := newSeeded(t, seed, 3, 2, 2)
		before := net.Structure()

		net.Mutate(0.5)

		changed := false
		after := net.Structure()
		eachWeight(after, func(l, n, i int, w float64) {
			if before.Layers[l].Neurons[n].Weights[i] != w {
				changed = true
			}
			require.GreaterOrEqual(t, w, WeightMin)
			require.LessOrEqual(t, w, WeightMax)
		})
		assert.True(t, changed, "seed %d left every weight untouched", seed)
	}
}

func TestMutateSteps(t *testing.T) {
	net := newSeeded(t, 16, 4, 2, 3)
	fillWeights(net, 0)

	net.Mutate(0.25)

	counts := map[float64]int{}
	eachWeight(net.Structure(), func(l, n, i int, w float64) {
		counts[w]++
	})
	for w := range counts {
		assert.Contains(t, []float64{-0.25, 0, 0.25}, w)
	}
	// 2*4*5 hidden weights + 3*5 output weights; about half are touched.
	total := counts[-0.25] + counts[0] + counts[0.25]
	assert.Equal(t, 55, total)
	assert.Positive(t, counts[0.25])
	assert.Positive(t, counts[-0.25])
	assert.Positive(t, counts[0])
}

func TestMutateClampsToBounds(t *testing.T) {
	net := newSeeded(t, 17, 3, 1, 2)

	for i := 0; i < 50; i++ {
		net.Mutate(5)
		eachWeight(net.Structure(), func(l, n, i int, w float64) {
			require.GreaterOrEqual(t, w, WeightMin)
			require.LessOrEqual(t, w, WeightMax)
		})
	}

	// A large step from zero lands exactly on a bound or stays put.
	fillWeights(net, 0)
	net.Mutate(3)
	eachWeight(net.Structure(), func(l, n, i int, w float64) {
		assert.Contains(t, []float64{-1, 0, 1}, w)
	})
}

func TestMutateZeroDeltaKeepsWeights(t *testing.T) {
	net := newSeeded(t, 18, 3, 2, 2)
	before := net.Structure()

	net.Mutate(0)
	assert.Equal(t, before, net.Structure())
}

func TestMutateDeterministicWithSeed(t *testing.T) {
	a := newSeeded(t, 19, 3, 2, 2)
	b := newSeeded(t, 19, 3, 2, 2)

	a.Mutate(0.1)
	b.Mutate(0.1)
	assert.Equal(t, a.Structure(), b.Structure())
}

func TestMutateLeavesBiasAlone(t *testing.T) {
	net := newSeeded(t, 20, 2, 3, 1)

	for i := 0; i < 10; i++ {
		net.Mutate(1)
	}
	s := net.Structure()
	for l := 0; l < len(s.Layers)-1; l++ {
		bias := s.Layers[l].Neurons[len(s.Layers[l].Neurons)-1]
		assert.Equal(t, 1.0, bias.Value)
		assert.Nil(t, bias.Weights)
	}
}

func TestAverageOfIdenticalNetworks(t *testing.T) {
	net := newSeeded(t, 21, 3, 2, 2)

	avg, err := Average([]*Network{net, net.Clone()})
	require.NoError(t, err)
	assert.Equal(t, net.Structure(), avg.Structure())
	assert.NotSame(t, net, avg)
}

func TestAverageSingleWeightDiffers(t *testing.T) {
	a := newSeeded(t, 22, 3, 1, 2)
	b := a.Clone()

	s := b.Structure()
	w1 := s.Layers[2].Neurons[1].Weights[3]
	w2 := -0.375
	s.Layers[2].Neurons[1].Weights[3] = w2
	b.SetStructure(s)

	avg, err := Average([]*Network{a, b})
	require.NoError(t, err)

	want := a.Structure()
	want.Layers[2].Neurons[1].Weights[3] = (w1 + w2) / 2
	assert.Equal(t, want, avg.Structure())
}

func TestAverageOfMany(t *testing.T) {
	nets := []*Network{
		newSeeded(t, 23, 2, 1, 2),
		newSeeded(t, 24, 2, 1, 2),
		newSeeded(t, 25, 2, 1, 2),
	}

	avg, err := Average(nets)
	require.NoError(t, err)

	structures := []Structure{nets[0].Structure(), nets[1].Structure(), nets[2].Structure()}
	eachWeight(avg.Structure(), func(l, n, i int, w float64) {
		sum := 0.0
		for _, s := range structures {
			sum += s.Layers[l].Neurons[n].Weights[i]
		}
		assert.InDelta(t, sum/3, w, 1e-12)
		assert.GreaterOrEqual(t, w, WeightMin)
		assert.LessOrEqual(t, w, WeightMax)
	})
}

func TestAverageLeavesInputsUntouched(t *testing.T) {
	a := newSeeded(t, 26, 2, 1, 1)
	b := newSeeded(t, 27, 2, 1, 1)
	sa, sb := a.Structure(), b.Structure()

	_, err := Average([]*Network{a, b})
	require.NoError(t, err)
	assert.Equal(t, sa, a.Structure())
	assert.Equal(t, sb, b.Structure())
}

func TestAverageResetsValues(t *testing.T) {
	net := newSeeded(t, 28, 2, 1, 1)
	s := net.Structure()
	for l := range s.Layers {
		for n := range s.Layers[l].Neurons {
			s.Layers[l].Neurons[n].Value = 7
		}
	}
	net.SetStructure(s)

	avg, err := Average([]*Network{net, net})
	require.NoError(t, err)
	requireBaseline(t, avg)
}

func TestAverageEmpty(t *testing.T) {
	avg, err := Average(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyEnsemble))
	require.NotNil(t, avg)
	assert.Empty(t, avg.Structure().Layers)
	assert.Equal(t, 0, avg.InputSize())
	assert.Equal(t, 0, avg.OutputSize())

	// Mutating the placeholder is a no-op.
	avg.Mutate(0.5)
	assert.Empty(t, avg.Structure().Layers)
}

func TestAverageShapeMismatch(t *testing.T) {
	base := newSeeded(t, 29, 3, 2, 2)

	cases := []struct {
		name  string
		other *Network
	}{
		{"more inputs", newSeeded(t, 30, 4, 2, 2)},
		{"fewer hidden layers", newSeeded(t, 31, 3, 1, 2)},
		{"more outputs", newSeeded(t, 32, 3, 2, 3)},
		{"no bias", newSeeded(t, 33, 3, 2, 2, WithBias(false))},
		{"nil network", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			avg, err := Average([]*Network{base, base.Clone(), tc.other})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrShapeMismatch))
			assert.Contains(t, err.Error(), "network 2")
			assert.Nil(t, avg)
		})
	}

	t.Run("truncated weights", func(t *testing.T) {
		other := base.Clone()
		s := other.Structure()
		s.Layers[1].Neurons[0].Weights = s.Layers[1].Neurons[0].Weights[:2]
		other.SetStructure(s)

		_, err := Average([]*Network{base, other})
		assert.ErrorIs(t, err, ErrShapeMismatch)
	})
}

func TestAverageWithSource(t *testing.T) {
	a := newSeeded(t, 34, 2, 1, 1)
	b := newSeeded(t, 35, 2, 1, 1)

	x, err := Average([]*Network{a, b}, WithSource(rand.NewSource(1)))
	require.NoError(t, err)
	y, err := Average([]*Network{a, b}, WithSource(rand.NewSource(1)))
	require.NoError(t, err)

	x.Mutate(0.2)
	y.Mutate(0.2)
	assert.Equal(t, x.Structure(), y.Structure())
}
