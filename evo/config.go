package evo

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/ini.v1"
)

// Config stores the configuration parameters for an evolutionary run.
type Config struct {
	Evolution    EvolutionConfig
	Network      NetworkConfig
	Reproduction ReproductionConfig
}

// EvolutionConfig holds parameters of the evolutionary loop itself.
type EvolutionConfig struct {
	PopSize              int     `ini:"pop_size"`
	FitnessCriterion     string  `ini:"fitness_criterion"` // Any StatFunctions name, e.g. "max", "mean", "median"
	FitnessThreshold     float64 `ini:"fitness_threshold"`
	NoFitnessTermination bool    `ini:"no_fitness_termination"`
	MaxGenerations       int     `ini:"max_generations"`
	Seed                 uint64  `ini:"seed"` // 0 seeds from the clock
}

// NetworkConfig holds the shape of every network in the population.
type NetworkConfig struct {
	NumInputs  int  `ini:"num_inputs"`
	NumHidden  int  `ini:"num_hidden"` // Hidden layers, each NumInputs wide
	NumOutputs int  `ini:"num_outputs"`
	UseBias    bool `ini:"use_bias"`
}

// ReproductionConfig holds parameters related to reproduction.
type ReproductionConfig struct {
	Elitism           int     `ini:"elitism"`
	SurvivalThreshold float64 `ini:"survival_threshold"` // Fraction of the population averaged into the next parent
	MinParents        int     `ini:"min_parents"`
	MutationPower     float64 `ini:"mutation_power"` // Delta passed to Network.Mutate
}

// DefaultConfig returns a configuration for nIn inputs, nHidden hidden layers and
// nOut outputs with the same defaults LoadConfig applies.
func DefaultConfig(nIn, nHidden, nOut int) *Config {
	config := &Config{
		Evolution: EvolutionConfig{
			PopSize:              50,
			FitnessCriterion:     "max",
			NoFitnessTermination: true,
			MaxGenerations:       100,
		},
		Network: NetworkConfig{
			NumInputs:  nIn,
			NumHidden:  nHidden,
			NumOutputs: nOut,
			UseBias:    true,
		},
	}
	config.applyDefaults()
	return config
}

// LoadConfig loads configuration parameters from an INI file.
func LoadConfig(filePath string) (*Config, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true,
		UnescapeValueCommentSymbols: true,
	}, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file '%s': %w", filePath, err)
	}

	// Bias is on unless the file says otherwise.
	config := &Config{Network: NetworkConfig{UseBias: true}}

	if err := cfg.Section("Evolution").MapTo(&config.Evolution); err != nil {
		return nil, fmt.Errorf("failed to map [Evolution] section: %w", err)
	}
	if err := cfg.Section("Network").MapTo(&config.Network); err != nil {
		return nil, fmt.Errorf("failed to map [Network] section: %w", err)
	}
	if err := cfg.Section("Reproduction").MapTo(&config.Reproduction); err != nil {
		return nil, fmt.Errorf("failed to map [Reproduction] section: %w", err)
	}

	config.Evolution.FitnessCriterion = cleanIniString(config.Evolution.FitnessCriterion)
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// applyDefaults fills in values left at zero.
func (c *Config) applyDefaults() {
	if c.Evolution.FitnessCriterion == "" {
		c.Evolution.FitnessCriterion = "max"
	}
	if c.Reproduction.SurvivalThreshold == 0 {
		c.Reproduction.SurvivalThreshold = 0.2
	}
	if c.Reproduction.MinParents == 0 {
		c.Reproduction.MinParents = 1
	}
	if c.Reproduction.MutationPower == 0 {
		c.Reproduction.MutationPower = 0.1
	}
}

// Validate checks that the configuration can drive a population.
func (c *Config) Validate() error {
	if c.Evolution.PopSize <= 0 {
		return fmt.Errorf("config error: pop_size must be positive")
	}
	if c.Evolution.MaxGenerations < 0 {
		return fmt.Errorf("config error: max_generations cannot be negative")
	}
	if _, ok := StatFunctions[strings.ToLower(c.Evolution.FitnessCriterion)]; !ok {
		names := make([]string, 0, len(StatFunctions))
		for name := range StatFunctions {
			names = append(names, name)
		}
		sort.Strings(names)
		return fmt.Errorf("config error: invalid fitness_criterion '%s', must be one of %s", c.Evolution.FitnessCriterion, strings.Join(names, ", "))
	}

	if c.Network.NumInputs <= 0 {
		return fmt.Errorf("config error: num_inputs must be positive")
	}
	if c.Network.NumOutputs <= 0 {
		return fmt.Errorf("config error: num_outputs must be positive")
	}
	if c.Network.NumHidden < 0 {
		return fmt.Errorf("config error: num_hidden cannot be negative")
	}

	if c.Reproduction.Elitism < 0 {
		return fmt.Errorf("config error: elitism cannot be negative")
	}
	if c.Reproduction.Elitism > c.Evolution.PopSize {
		return fmt.Errorf("config error: elitism (%d) cannot exceed pop_size (%d)", c.Reproduction.Elitism, c.Evolution.PopSize)
	}
	if c.Reproduction.SurvivalThreshold < 0 || c.Reproduction.SurvivalThreshold > 1 {
		return fmt.Errorf("config error: survival_threshold must be between 0 and 1")
	}
	if c.Reproduction.MinParents <= 0 {
		return fmt.Errorf("config error: min_parents must be positive")
	}
	if c.Reproduction.MinParents > c.Evolution.PopSize {
		return fmt.Errorf("config error: min_parents (%d) cannot exceed pop_size (%d)", c.Reproduction.MinParents, c.Evolution.PopSize)
	}
	if c.Reproduction.MutationPower < 0 {
		return fmt.Errorf("config error: mutation_power cannot be negative")
	}
	return nil
}

// cleanIniString removes inline comments and trims whitespace from a string read from INI.
func cleanIniString(s string) string {
	if idx := strings.IndexAny(s, "#;"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
