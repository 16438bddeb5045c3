// Package evonet provides a minimal feedforward neural network built for
// evolutionary training, together with a small population loop that drives it.
//
// Networks are fully connected layer stacks. Hidden layers use ReLU and are as
// wide as the input layer, the output layer is linear, and every non-output
// layer can carry a bias neuron pinned to 1. Weights stay inside [-1, 1].
// Networks are never trained by gradient descent: they are mutated by small
// signed steps and combined by averaging the weights of the fittest members of
// a population (truncation selection).
//
// The package is split in two:
//
//   - nn holds the network itself: New, Infer, Activate, Mutate, Average,
//     Structure and SetStructure.
//   - evo holds the evolutionary loop: an INI configuration, a Population that
//     evaluates a user supplied fitness function each generation, and the
//     Reproduction step that averages and mutates.
//
// Basic usage:
//
//	// Load configuration
//	config, err := evo.LoadConfig("path/to/config")
//	if err != nil {
//		log.Fatalf("Error loading config: %v", err)
//	}
//
//	// Create a new population
//	pop, err := evo.NewPopulation(config)
//	if err != nil {
//		log.Fatalf("Error creating population: %v", err)
//	}
//
//	// Run until the fitness threshold is met or max_generations runs out
//	winner, err := pop.Run(evalNetworks, 0)
//	if err != nil {
//		log.Fatalf("Error running evolution: %v", err)
//	}
//	if winner != nil {
//		fmt.Println("Solution found!", winner.Net.Infer([]float64{1, 0}))
//	}
//
// A single network can also be used directly:
//
//	net, err := nn.New(4, 2, 2)
//	if err != nil {
//		log.Fatal(err)
//	}
//	net.Mutate(0.1)
//	fmt.Println(net.Infer([]float64{1, 0, 0, 1}))
package evonet
