package nn

import "fmt"

// Activations applied by the forward pass, looked up in ActivationFunctions.
const (
	hiddenActivation = "relu"
	outputActivation = "identity"
)

// Activate runs a forward pass and returns the raw sum of every output neuron.
// The input slice must match the number of real input neurons, otherwise
// ErrInputSizeMismatch is returned. A layout left inconsistent by SetStructure
// yields ErrShapeMismatch. Neuron values are reset when it returns, whether or
// not the pass succeeded.
func (net *Network) Activate(inputs []float64) ([]float64, error) {
	defer net.reset()

	layers := net.structure.Layers
	if len(layers) == 0 {
		return nil, fmt.Errorf("%w: network has no layers", ErrInputSizeMismatch)
	}
	if len(inputs) != net.InputSize() {
		return nil, fmt.Errorf("%w: got %d inputs, network has %d input neurons", ErrInputSizeMismatch, len(inputs), net.InputSize())
	}
	if err := net.checkShape(); err != nil {
		return nil, err
	}
	hidden, err := GetActivation(hiddenActivation)
	if err != nil {
		return nil, err
	}
	output, err := GetActivation(outputActivation)
	if err != nil {
		return nil, err
	}

	// Load the input layer; the bias keeps its value of 1.
	input := layers[0].Neurons
	for i, v := range inputs {
		input[i].Value = v
	}
	if len(input) > 0 && net.isBias(0, len(input)-1) {
		input[len(input)-1].Value = biasValue
	}

	last := len(layers) - 1
	for l := 1; l <= last; l++ {
		activation := hidden
		if l == last {
			activation = output
		}
		prev := layers[l-1].Neurons
		neurons := layers[l].Neurons
		for n := range neurons {
			if net.isBias(l, n) {
				neurons[n].Value = biasValue
				continue
			}
			// Weighted sum over the previous layer, bias included.
			sum := 0.0
			for p := range prev {
				sum += prev[p].Value * neurons[n].Weights[p]
			}
			neurons[n].Value = activation(sum)
		}
	}

	out := layers[last].Neurons
	outputs := make([]float64, len(out))
	for i := range out {
		outputs[i] = out[i].Value
	}
	return outputs, nil
}

// Infer runs a forward pass and decodes each output neuron as true when its
// sum is positive. An input slice of the wrong length yields an empty result.
func (net *Network) Infer(inputs []float64) []bool {
	outputs, err := net.Activate(inputs)
	if err != nil {
		return []bool{}
	}
	decisions := make([]bool, len(outputs))
	for i, v := range outputs {
		decisions[i] = v > 0
	}
	return decisions
}
