package nn

import (
	"fmt"
	"math"
)

// ActivationType defines the type for activation functions.
type ActivationType func(input float64, params ...float64) float64

// ActivationFunctions maps function names to the activations a network can use.
var ActivationFunctions = map[string]ActivationType{
	"relu":     ReLU,
	"identity": Identity,
}

// GetActivation retrieves an activation function by name.
func GetActivation(name string) (ActivationType, error) {
	if fn, ok := ActivationFunctions[name]; ok {
		return fn, nil
	}
	return nil, fmt.Errorf("unknown activation function: %s", name)
}

// ReLU (Rectified Linear Unit) activation function. Applied to hidden layers.
func ReLU(x float64, params ...float64) float64 {
	return math.Max(0, x)
}

// Identity activation function (linear). The output layer keeps its raw sum.
func Identity(x float64, params ...float64) float64 {
	return x
}
