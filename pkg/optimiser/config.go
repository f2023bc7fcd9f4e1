package optimiser

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// ConsiderComms selects which candidate communities are scored when a
// vertex is considered for moving.
type ConsiderComms int

const (
	// AllNeighComms scores every distinct community among the vertex's
	// neighbours.
	AllNeighComms ConsiderComms = iota
	// AllComms scores every currently used community.
	AllComms
	// RandNeighComm scores one uniformly chosen neighbour community.
	RandNeighComm
	// RandComm scores one uniformly chosen used community.
	RandComm
)

// String returns the configuration name of the mode.
func (c ConsiderComms) String() string {
	switch c {
	case AllNeighComms:
		return "all_neigh_comms"
	case AllComms:
		return "all_comms"
	case RandNeighComm:
		return "rand_neigh_comm"
	case RandComm:
		return "rand_comm"
	}
	return fmt.Sprintf("consider_comms(%d)", int(c))
}

// ParseConsiderComms parses a configuration name into a mode.
func ParseConsiderComms(s string) (ConsiderComms, error) {
	switch s {
	case "all_neigh_comms":
		return AllNeighComms, nil
	case "all_comms":
		return AllComms, nil
	case "rand_neigh_comm":
		return RandNeighComm, nil
	case "rand_comm":
		return RandComm, nil
	}
	return 0, fmt.Errorf("unknown consider_comms mode %q", s)
}

// Routine selects which optimisation routine a phase uses.
type Routine int

const (
	// RoutineMoveNodes uses the local-move routine.
	RoutineMoveNodes Routine = iota
	// RoutineMergeNodes uses the merge routine, in which a vertex only
	// leaves a community it occupies alone and is pinned once moved.
	RoutineMergeNodes
)

// String returns the configuration name of the routine.
func (r Routine) String() string {
	switch r {
	case RoutineMoveNodes:
		return "move_nodes"
	case RoutineMergeNodes:
		return "merge_nodes"
	}
	return fmt.Sprintf("routine(%d)", int(r))
}

// ParseRoutine parses a configuration name into a routine.
func ParseRoutine(s string) (Routine, error) {
	switch s {
	case "move_nodes":
		return RoutineMoveNodes, nil
	case "merge_nodes":
		return RoutineMergeNodes, nil
	}
	return 0, fmt.Errorf("unknown routine %q", s)
}

// Config manages optimiser configuration using Viper.
type Config struct {
	v *viper.Viper
}

// NewConfig creates a configuration with defaults. The defaults give the
// standard Leiden behaviour: local moves over neighbour communities, merge
// refinement before aggregation, empty communities considered, no size
// bound, seed 0.
func NewConfig() *Config {
	v := viper.New()

	v.SetDefault("optimiser.consider_comms", "all_neigh_comms")
	v.SetDefault("optimiser.refine_consider_comms", "all_neigh_comms")
	v.SetDefault("optimiser.optimise_routine", "move_nodes")
	v.SetDefault("optimiser.refine_routine", "merge_nodes")
	v.SetDefault("optimiser.consider_empty_community", true)
	v.SetDefault("optimiser.refine_partition", true)
	v.SetDefault("optimiser.max_comm_size", 0)
	v.SetDefault("optimiser.random_seed", int64(0))

	v.SetDefault("logging.level", "info")

	v.SetDefault("analysis.track_moves", false)
	v.SetDefault("analysis.output_file", "moves.jsonl")

	return &Config{v: v}
}

// LoadFromFile loads configuration from file.
func (c *Config) LoadFromFile(path string) error {
	c.v.SetConfigFile(path)
	return c.v.ReadInConfig()
}

// Set allows dynamic configuration changes.
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// Getters for optimiser parameters.
func (c *Config) ConsiderComms() string       { return c.v.GetString("optimiser.consider_comms") }
func (c *Config) RefineConsiderComms() string { return c.v.GetString("optimiser.refine_consider_comms") }
func (c *Config) OptimiseRoutine() string     { return c.v.GetString("optimiser.optimise_routine") }
func (c *Config) RefineRoutine() string       { return c.v.GetString("optimiser.refine_routine") }
func (c *Config) ConsiderEmptyCommunity() bool {
	return c.v.GetBool("optimiser.consider_empty_community")
}
func (c *Config) RefinePartition() bool { return c.v.GetBool("optimiser.refine_partition") }
func (c *Config) MaxCommSize() int      { return c.v.GetInt("optimiser.max_comm_size") }
func (c *Config) RandomSeed() int64     { return c.v.GetInt64("optimiser.random_seed") }

func (c *Config) LogLevel() string { return c.v.GetString("logging.level") }

func (c *Config) EnableMoveTracking() bool { return c.v.GetBool("analysis.track_moves") }
func (c *Config) TrackingOutputFile() string {
	return c.v.GetString("analysis.output_file")
}

// CreateLogger creates a zerolog logger based on config.
func (c *Config) CreateLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	}).Level(level).With().Timestamp().Str("service", "leiden").Logger()
}
