package nn

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Weight bounds. Every weight is kept within [WeightMin, WeightMax].
const (
	WeightMin = -1.0
	WeightMax = 1.0
)

// biasValue is the constant output of every bias neuron.
const biasValue = 1.0

var (
	// ErrInvalidSize is returned by New when a layer size is not usable.
	ErrInvalidSize = errors.New("invalid network size")
	// ErrInputSizeMismatch is returned by Activate when the input vector does not match the input layer.
	ErrInputSizeMismatch = errors.New("input size mismatch")
	// ErrEmptyEnsemble is returned by Average when no networks are given.
	ErrEmptyEnsemble = errors.New("empty ensemble")
	// ErrShapeMismatch is returned by Average when the networks do not share one structure.
	ErrShapeMismatch = errors.New("network shape mismatch")
)

// Neuron is a single unit of a layer.
// Value is transient: it only means something during a forward pass.
type Neuron struct {
	Value   float64
	Weights []float64 // One weight per neuron of the previous layer, bias included. Nil for input and bias neurons.
}

// Layer is an ordered list of neurons. When bias is enabled the last neuron of
// every layer except the output layer is the bias neuron.
type Layer struct {
	Neurons []Neuron
}

// Structure is the full layered graph of a network: input layer, hidden layers, output layer.
type Structure struct {
	Layers []Layer
}

// Copy creates a deep copy of the Structure.
func (s Structure) Copy() Structure {
	if s.Layers == nil {
		return Structure{}
	}
	out := Structure{Layers: make([]Layer, len(s.Layers))}
	for l, layer := range s.Layers {
		neurons := make([]Neuron, len(layer.Neurons))
		for n, neuron := range layer.Neurons {
			neurons[n].Value = neuron.Value
			if neuron.Weights != nil {
				neurons[n].Weights = append([]float64(nil), neuron.Weights...)
			}
		}
		out.Layers[l] = Layer{Neurons: neurons}
	}
	return out
}

// Network is a layered feedforward network trained by mutation and averaging.
// A Network is not safe for concurrent use: Infer writes neuron values in place.
type Network struct {
	structure Structure
	useBias   bool
	src       rand.Source
	rng       *rand.Rand
}

// Option configures a Network.
type Option func(*options)

type options struct {
	src     rand.Source
	useBias bool
}

// WithSource sets the random source used for weight initialisation and mutation.
// Pass a seeded source (rand.NewSource(seed)) for reproducible networks.
func WithSource(src rand.Source) Option {
	return func(o *options) { o.src = src }
}

// WithBias enables or disables the bias neuron appended to every non-output layer.
// Bias is enabled by default.
func WithBias(enabled bool) Option {
	return func(o *options) { o.useBias = enabled }
}

func buildOptions(opts []Option) options {
	o := options{useBias: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// newSource returns a clock-seeded source for networks built without WithSource.
func newSource() rand.Source {
	return rand.NewSource(uint64(time.Now().UnixNano()))
}

// New builds a network with inputSize input neurons, numHidden hidden layers of
// inputSize neurons each and outputSize output neurons. Every weight is drawn
// uniformly from [-1, 1].
func New(inputSize, numHidden, outputSize int, opts ...Option) (*Network, error) {
	if inputSize <= 0 {
		return nil, fmt.Errorf("%w: input size must be positive, got %d", ErrInvalidSize, inputSize)
	}
	if numHidden < 0 {
		return nil, fmt.Errorf("%w: hidden layer count cannot be negative, got %d", ErrInvalidSize, numHidden)
	}
	if outputSize <= 0 {
		return nil, fmt.Errorf("%w: output size must be positive, got %d", ErrInvalidSize, outputSize)
	}

	o := buildOptions(opts)
	if o.src == nil {
		o.src = newSource()
	}
	net := &Network{
		useBias: o.useBias,
		src:     o.src,
		rng:     rand.New(o.src),
	}
	net.structure = net.generate(inputSize, numHidden, outputSize)
	return net, nil
}

// generate lays out the layers and assigns random weights.
func (net *Network) generate(inputSize, numHidden, outputSize int) Structure {
	dist := distuv.Uniform{Min: WeightMin, Max: WeightMax, Src: net.src}
	biasCount := 0
	if net.useBias {
		biasCount = 1
	}
	// Hidden layers mirror the input width, so every layer after the input
	// sees the same number of predecessors.
	fanIn := inputSize + biasCount

	randomWeights := func() []float64 {
		w := make([]float64, fanIn)
		for i := range w {
			w[i] = dist.Rand()
		}
		return w
	}

	s := Structure{Layers: make([]Layer, 0, numHidden+2)}

	input := Layer{Neurons: make([]Neuron, inputSize, inputSize+biasCount)}
	if net.useBias {
		input.Neurons = append(input.Neurons, Neuron{Value: biasValue})
	}
	s.Layers = append(s.Layers, input)

	for h := 0; h < numHidden; h++ {
		hidden := Layer{Neurons: make([]Neuron, 0, inputSize+biasCount)}
		for i := 0; i < inputSize; i++ {
			hidden.Neurons = append(hidden.Neurons, Neuron{Weights: randomWeights()})
		}
		if net.useBias {
			hidden.Neurons = append(hidden.Neurons, Neuron{Value: biasValue})
		}
		s.Layers = append(s.Layers, hidden)
	}

	output := Layer{Neurons: make([]Neuron, 0, outputSize)}
	for i := 0; i < outputSize; i++ {
		output.Neurons = append(output.Neurons, Neuron{Weights: randomWeights()})
	}
	s.Layers = append(s.Layers, output)

	return s
}

// isBias reports whether neuron n of layer l is a bias neuron.
func (net *Network) isBias(l, n int) bool {
	layers := net.structure.Layers
	return net.useBias && l < len(layers)-1 && n == len(layers[l].Neurons)-1
}

// reset returns every neuron to its baseline value: 0 for regular neurons, 1 for bias neurons.
func (net *Network) reset() {
	for l := range net.structure.Layers {
		neurons := net.structure.Layers[l].Neurons
		for n := range neurons {
			if net.isBias(l, n) {
				neurons[n].Value = biasValue
			} else {
				neurons[n].Value = 0
			}
		}
	}
}

// Structure returns a deep copy of the network's layers.
func (net *Network) Structure() Structure {
	return net.structure.Copy()
}

// SetStructure replaces the network's layers with a copy of s. It always succeeds;
// a layout with the wrong number of weights is reported by the next Activate.
func (net *Network) SetStructure(s Structure) bool {
	net.structure = s.Copy()
	return true
}

// Clone creates a deep copy of the network with its own random generator,
// seeded from the original's. WithSource overrides the derived source; other
// options are ignored. Clones can be mutated concurrently with each other.
func (net *Network) Clone(opts ...Option) *Network {
	o := buildOptions(opts)
	src := o.src
	if src == nil {
		src = net.deriveSource()
	}
	return &Network{
		structure: net.structure.Copy(),
		useBias:   net.useBias,
		src:       src,
		rng:       rand.New(src),
	}
}

// deriveSource returns a new source seeded from the network's generator.
func (net *Network) deriveSource() rand.Source {
	if net.rng == nil {
		return newSource()
	}
	return rand.NewSource(net.rng.Uint64())
}

// checkShape reports whether every non-bias neuron after the input layer has
// one weight per neuron of the previous layer.
func (net *Network) checkShape() error {
	layers := net.structure.Layers
	for l := 1; l < len(layers); l++ {
		prev := len(layers[l-1].Neurons)
		for n, neuron := range layers[l].Neurons {
			if net.isBias(l, n) {
				continue
			}
			if len(neuron.Weights) != prev {
				return fmt.Errorf("%w: layer %d neuron %d has %d weights, previous layer has %d neurons",
					ErrShapeMismatch, l, n, len(neuron.Weights), prev)
			}
		}
	}
	return nil
}

// UsesBias reports whether the network carries bias neurons.
func (net *Network) UsesBias() bool {
	return net.useBias
}

// InputSize returns the number of real (non-bias) input neurons.
func (net *Network) InputSize() int {
	if len(net.structure.Layers) == 0 {
		return 0
	}
	n := len(net.structure.Layers[0].Neurons)
	if net.useBias && len(net.structure.Layers) > 1 && n > 0 {
		n--
	}
	return n
}

// OutputSize returns the number of output neurons.
func (net *Network) OutputSize() int {
	if len(net.structure.Layers) == 0 {
		return 0
	}
	return len(net.structure.Layers[len(net.structure.Layers)-1].Neurons)
}

// String returns a string representation of the network's shape.
func (net *Network) String() string {
	sizes := make([]string, len(net.structure.Layers))
	for l, layer := range net.structure.Layers {
		sizes[l] = fmt.Sprint(len(layer.Neurons))
	}
	return fmt.Sprintf("Network(Layers: [%s], Bias: %t)", strings.Join(sizes, " "), net.useBias)
}
