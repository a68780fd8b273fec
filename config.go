package stoplight

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/anggasct/stoplight/pkg/core"
	"github.com/anggasct/stoplight/pkg/logging"
	"github.com/anggasct/stoplight/pkg/utils"
)

// Config is the file form of a simulation
//
//	cars: 20
//	wait_strategy: block
//	seed: 42
//	routes:
//	  - direction: north
//	    maneuver: left
//	    quadrants: [NW, SW, SE]
type Config struct {
	Cars         int           `yaml:"cars"`
	WaitStrategy string        `yaml:"wait_strategy"`
	MaxTasks     int           `yaml:"max_tasks"`
	Seed         int64         `yaml:"seed"`
	LogLevel     string        `yaml:"log_level"`
	LogFormat    string        `yaml:"log_format"`
	RankedOrder  bool          `yaml:"ranked_order"`
	Routes       []RouteConfig `yaml:"routes"`
}

// RouteConfig overrides the quadrants of one route
type RouteConfig struct {
	Direction string   `yaml:"direction"`
	Maneuver  string   `yaml:"maneuver"`
	Quadrants []string `yaml:"quadrants"`
}

// DefaultConfig returns the configuration used when no file is given
func DefaultConfig() Config {
	return Config{
		Cars:         DefaultCars,
		WaitStrategy: StrategyBlock,
		LogLevel:     string(logging.LevelInfo),
		LogFormat:    "text",
	}
}

// LoadConfig reads a YAML configuration file. Missing keys keep their defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML on top of DefaultConfig and validates the result
func ParseConfig(data []byte) (Config, error) {
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, utils.NewConfigurationError("malformed YAML").WithCause(err)
	}
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// Validate checks every field, reporting all problems at once
func (c Config) Validate() error {
	collector := utils.NewErrorCollector()

	if c.Cars < 0 {
		collector.Add(utils.NewConfigurationError("cars must not be negative").WithDetail("cars", c.Cars))
	}
	if c.MaxTasks < 0 {
		collector.Add(utils.NewConfigurationError("max_tasks must not be negative").WithDetail("max_tasks", c.MaxTasks))
	}
	if _, err := NewWaitStrategy(c.WaitStrategy, nil); err != nil {
		collector.Add(err)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		collector.Add(utils.NewConfigurationError("invalid log_level").WithCause(err))
	}
	if c.LogFormat != "" && c.LogFormat != "text" && c.LogFormat != "json" {
		collector.Add(utils.NewConfigurationError("log_format must be text or json").WithDetail("log_format", c.LogFormat))
	}
	if len(c.Routes) > 0 {
		if _, err := c.RouteTable(); err != nil {
			collector.Add(err)
		}
	}

	return collector.Err()
}

// RouteTable returns DefaultRoutes with the configured routes applied on top
func (c Config) RouteTable() (*RouteTable, error) {
	specs := append([]RouteSpec(nil), DefaultRoutes...)

	for i, rc := range c.Routes {
		spec, err := rc.spec()
		if err != nil {
			return nil, utils.NewConfigurationError(fmt.Sprintf("routes[%d]", i)).WithCause(err)
		}
		specs = append(specs, spec)
	}

	table := NewRouteTable(specs)
	if err := table.Validate(); err != nil {
		return nil, utils.NewConfigurationError("route table").WithCause(err)
	}
	return table, nil
}

func (rc RouteConfig) spec() (RouteSpec, error) {
	direction, err := core.ParseDirection(rc.Direction)
	if err != nil {
		return RouteSpec{}, err
	}
	maneuver, err := core.ParseManeuver(rc.Maneuver)
	if err != nil {
		return RouteSpec{}, err
	}

	quadrants := make([]core.Quadrant, 0, len(rc.Quadrants))
	for _, name := range rc.Quadrants {
		q, err := core.ParseQuadrant(name)
		if err != nil {
			return RouteSpec{}, err
		}
		quadrants = append(quadrants, q)
	}

	return RouteSpec{Direction: direction, Maneuver: maneuver, Quadrants: quadrants}, nil
}

// Logging returns the logger configuration
func (c Config) Logging() logging.Config {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		level = logging.LevelInfo
	}
	return logging.Config{Level: level, Format: c.LogFormat}
}
