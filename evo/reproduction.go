package evo

import (
	"fmt"
	"math"
	"sort"

	"github.com/baldhumanity/evonet/nn"
	"golang.org/x/exp/rand"
)

// Reproduction creates new networks, either from scratch or by averaging the
// fittest individuals and mutating copies of the result.
type Reproduction struct {
	Config    *ReproductionConfig
	Network   *NetworkConfig
	NextKey   int           // State for the next individual key
	Ancestors map[int][]int // Map individual key -> parent keys (for tracking lineage)
	src       rand.Source   // Seeds every network this reproduction builds
}

// NewReproduction creates a new reproduction manager.
func NewReproduction(config *ReproductionConfig, network *NetworkConfig, src rand.Source) *Reproduction {
	return &Reproduction{
		Config:    config,
		Network:   network,
		NextKey:   1, // Start keys at 1
		Ancestors: make(map[int][]int),
		src:       src,
	}
}

// getNextKey gets the next available individual key and increments the internal counter.
func (r *Reproduction) getNextKey() int {
	key := r.NextKey
	r.NextKey++
	return key
}

// newNetwork builds a randomly initialised network of the configured shape.
func (r *Reproduction) newNetwork() (*nn.Network, error) {
	return nn.New(r.Network.NumInputs, r.Network.NumHidden, r.Network.NumOutputs,
		nn.WithSource(r.src), nn.WithBias(r.Network.UseBias))
}

// CreateNewPopulation creates an initial population of random networks.
func (r *Reproduction) CreateNewPopulation(popSize int) (map[int]*Individual, error) {
	individuals := make(map[int]*Individual, popSize)
	for i := 0; i < popSize; i++ {
		net, err := r.newNetwork()
		if err != nil {
			return nil, fmt.Errorf("failed to create network: %w", err)
		}
		key := r.getNextKey()
		individuals[key] = &Individual{Key: key, Net: net}
		r.Ancestors[key] = []int{} // No parents for initial population
	}
	return individuals, nil
}

// Reproduce creates the next generation from an evaluated population.
//
// Elites are carried over unchanged. The survivors (the fittest
// survival_threshold fraction, at least min_parents) are averaged into a single
// parent network, and every remaining slot receives a mutated copy of it.
func (r *Reproduction) Reproduce(population map[int]*Individual, popSize int) (map[int]*Individual, error) {
	if len(population) == 0 {
		return nil, fmt.Errorf("cannot reproduce an empty population")
	}

	ranked := rankByFitness(population)
	newPopulation := make(map[int]*Individual, popSize)
	newAncestors := make(map[int][]int, popSize)

	// Transfer elites.
	for j := 0; j < r.Config.Elitism && j < len(ranked) && len(newPopulation) < popSize; j++ {
		elite := ranked[j]
		newPopulation[elite.Key] = &Individual{Key: elite.Key, Net: elite.Net.Clone(), Fitness: elite.Fitness}
		newAncestors[elite.Key] = []int{elite.Key} // Mark as its own ancestor for tracking
	}

	// Determine parents for the remaining slots.
	survivalCutoff := int(math.Ceil(r.Config.SurvivalThreshold * float64(len(ranked))))
	survivalCutoff = max(survivalCutoff, r.Config.MinParents)
	survivalCutoff = min(survivalCutoff, len(ranked))
	parents := ranked[:survivalCutoff]

	parentNets := make([]*nn.Network, len(parents))
	parentKeys := make([]int, len(parents))
	for i, p := range parents {
		parentNets[i] = p.Net
		parentKeys[i] = p.Key
	}
	parent, err := nn.Average(parentNets, nn.WithSource(r.src))
	if err != nil {
		return nil, fmt.Errorf("failed to average %d parents: %w", len(parents), err)
	}

	// Produce offspring.
	for len(newPopulation) < popSize {
		child := parent.Clone()
		child.Mutate(r.Config.MutationPower)

		childKey := r.getNextKey()
		newPopulation[childKey] = &Individual{Key: childKey, Net: child}
		newAncestors[childKey] = parentKeys
	}
	r.Ancestors = newAncestors

	return newPopulation, nil
}

// rankByFitness returns the individuals sorted by fitness, best first. Ties are
// broken by key so the order does not depend on map iteration.
func rankByFitness(population map[int]*Individual) []*Individual {
	ranked := make([]*Individual, 0, len(population))
	for _, ind := range population {
		ranked = append(ranked, ind)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Fitness != ranked[j].Fitness {
			return ranked[i].Fitness > ranked[j].Fitness
		}
		return ranked[i].Key < ranked[j].Key
	})
	return ranked
}
