package evo

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/baldhumanity/evonet/nn"
	"golang.org/x/exp/rand"
)

// Individual is a single network of the population together with its score.
type Individual struct {
	Key     int         // Unique identifier for this individual
	Net     *nn.Network // Owned by this individual
	Fitness float64     // Set by the FitnessFunc each generation
}

// String returns a string representation of the Individual.
func (ind *Individual) String() string {
	return fmt.Sprintf("Individual(Key: %d, Fitness: %.4f, %s)", ind.Key, ind.Fitness, ind.Net)
}

// FitnessFunc is the type for the function provided by the user to evaluate fitness.
// It takes the current generation and should update each individual's Fitness field.
type FitnessFunc func(individuals map[int]*Individual) error

// Population holds the state of the evolutionary process.
type Population struct {
	Config         *Config
	Population     map[int]*Individual // Current generation (maps key -> individual)
	Reproduction   *Reproduction
	Generation     int
	BestIndividual *Individual // Best individual found so far

	logger *log.Logger
}

// PopulationOption configures a Population.
type PopulationOption func(*Population)

// WithLogger sets where generation progress is reported. Defaults to stdout.
func WithLogger(logger *log.Logger) PopulationOption {
	return func(p *Population) { p.logger = logger }
}

// NewPopulation creates a new Population instance.
// It initializes the first generation of networks based on the config.
func NewPopulation(config *Config, opts ...PopulationOption) (*Population, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	seed := config.Evolution.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	reproduction := NewReproduction(&config.Reproduction, &config.Network, rand.NewSource(seed))
	initialPopulation, err := reproduction.CreateNewPopulation(config.Evolution.PopSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create initial population: %w", err)
	}

	p := &Population{
		Config:       config,
		Population:   initialPopulation,
		Reproduction: reproduction,
		logger:       log.New(os.Stdout, "", 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// RunGeneration executes a single generation.
// Returns the winning individual if the fitness threshold is met this generation, otherwise nil.
func (p *Population) RunGeneration(fitnessFunc FitnessFunc) (*Individual, error) {
	p.Generation++
	genStartTime := time.Now()
	p.logger.Printf("****** Generation %d ******", p.Generation)

	// 1. Evaluate Fitness
	if err := fitnessFunc(p.Population); err != nil {
		return nil, fmt.Errorf("fitness evaluation failed in generation %d: %w", p.Generation, err)
	}

	// 2. Track Best Individual & Check Termination Condition
	currentBest := p.findBestIndividual()
	if currentBest != nil && (p.BestIndividual == nil || currentBest.Fitness > p.BestIndividual.Fitness) {
		p.BestIndividual = currentBest
		p.logger.Printf(" New best individual found! Key: %d, Fitness: %.4f", currentBest.Key, currentBest.Fitness)
	}

	fitnesses := p.fitnesses()
	p.logger.Printf(" Population fitness: mean %.4f stdev %.4f best %.4f", Mean(fitnesses), Stdev(fitnesses), MaxFloat(fitnesses))

	if !p.Config.Evolution.NoFitnessTermination {
		criterion := StatFunctions[strings.ToLower(p.Config.Evolution.FitnessCriterion)]
		if criterion(fitnesses) >= p.Config.Evolution.FitnessThreshold {
			return p.BestIndividual, nil
		}
	}

	// 3. Reproduce
	newPopulation, err := p.Reproduction.Reproduce(p.Population, p.Config.Evolution.PopSize)
	if err != nil {
		return p.BestIndividual, fmt.Errorf("reproduction failed in generation %d: %w", p.Generation, err)
	}
	p.Population = newPopulation

	p.logger.Printf("Generation %d finished in %s", p.Generation, time.Since(genStartTime))
	return nil, nil
}

// Run executes up to n generations, or max_generations when n is not positive.
// It stops early and returns the winner once the fitness threshold is met.
// A nil winner with a nil error means the generation budget ran out; the best
// individual seen is still available as BestIndividual.
func (p *Population) Run(fitnessFunc FitnessFunc, n int) (*Individual, error) {
	if n <= 0 {
		n = p.Config.Evolution.MaxGenerations
	}
	for i := 0; i < n; i++ {
		winner, err := p.RunGeneration(fitnessFunc)
		if err != nil {
			return nil, err
		}
		if winner != nil {
			return winner, nil
		}
	}
	return nil, nil
}

// findBestIndividual finds the individual with the highest fitness in the current population.
func (p *Population) findBestIndividual() *Individual {
	ranked := rankByFitness(p.Population)
	if len(ranked) == 0 {
		return nil
	}
	return ranked[0]
}

// fitnesses collects the fitness of every individual in the current population.
func (p *Population) fitnesses() []float64 {
	values := make([]float64, 0, len(p.Population))
	for _, ind := range p.Population {
		values = append(values, ind.Fitness)
	}
	return values
}
