package nn

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
)

// mutateChance is the probability that a single weight is perturbed by Mutate.
const mutateChance = 0.5

// Mutate perturbs the weights of every non-bias neuron in place. Each weight has
// a 50% chance of being shifted by +delta or -delta (sign chosen uniformly), and
// is then clamped to [WeightMin, WeightMax]. Bias neurons are never touched.
func (net *Network) Mutate(delta float64) {
	layers := net.structure.Layers
	for l := 1; l < len(layers); l++ { // Input layer carries no weights
		neurons := layers[l].Neurons
		for n := range neurons {
			if net.isBias(l, n) {
				continue
			}
			weights := neurons[n].Weights
			for i := range weights {
				if net.rng.Float64() >= mutateChance {
					continue
				}
				if net.rng.Intn(2) == 1 {
					weights[i] += delta
				} else {
					weights[i] -= delta
				}
				weights[i] = clamp(weights[i], WeightMin, WeightMax)
			}
		}
	}
}

// Average combines several structurally identical networks into a new one whose
// every weight is the mean of the corresponding weights. The inputs are not modified.
//
// With no networks it returns a network without layers together with ErrEmptyEnsemble.
// Networks of differing shape yield ErrShapeMismatch. The result takes the random
// source derived from the first network unless WithSource is given.
func Average(nets []*Network, opts ...Option) (*Network, error) {
	o := buildOptions(opts)

	if len(nets) == 0 {
		src := o.src
		if src == nil {
			src = newSource()
		}
		empty := &Network{useBias: o.useBias, src: src, rng: rand.New(src)}
		return empty, ErrEmptyEnsemble
	}

	first := nets[0]
	if first == nil {
		return nil, fmt.Errorf("%w: network 0 is nil", ErrShapeMismatch)
	}
	for i := 1; i < len(nets); i++ {
		if err := sameShape(first, nets[i]); err != nil {
			return nil, fmt.Errorf("network %d: %w", i, err)
		}
	}

	avg := first.Clone(opts...)
	scale := 1 / float64(len(nets))
	for l, layer := range avg.structure.Layers {
		for n := range layer.Neurons {
			weights := layer.Neurons[n].Weights
			if len(weights) == 0 {
				continue
			}
			for _, other := range nets[1:] {
				floats.Add(weights, other.structure.Layers[l].Neurons[n].Weights)
			}
			floats.Scale(scale, weights)
			for i := range weights {
				weights[i] = clamp(weights[i], WeightMin, WeightMax)
			}
		}
	}

	// Values copied from the first network are not meaningful for the result.
	avg.reset()
	return avg, nil
}

// sameShape checks that b has the layer, neuron and weight layout of a.
func sameShape(a, b *Network) error {
	if b == nil {
		return fmt.Errorf("%w: network is nil", ErrShapeMismatch)
	}
	if a.useBias != b.useBias {
		return fmt.Errorf("%w: bias enabled %t vs %t", ErrShapeMismatch, a.useBias, b.useBias)
	}
	la, lb := a.structure.Layers, b.structure.Layers
	if len(la) != len(lb) {
		return fmt.Errorf("%w: %d layers vs %d", ErrShapeMismatch, len(la), len(lb))
	}
	for l := range la {
		na, nb := la[l].Neurons, lb[l].Neurons
		if len(na) != len(nb) {
			return fmt.Errorf("%w: layer %d has %d neurons vs %d", ErrShapeMismatch, l, len(na), len(nb))
		}
		for n := range na {
			if len(na[n].Weights) != len(nb[n].Weights) {
				return fmt.Errorf("%w: layer %d neuron %d has %d weights vs %d",
					ErrShapeMismatch, l, n, len(na[n].Weights), len(nb[n].Weights))
			}
		}
	}
	return nil
}
