package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("invalid config")

type Vec3 [3]float64

type Config struct {
	Logging     LoggingConfig     `yaml:"logging" toml:"logging"`
	Simulation  SimulationConfig  `yaml:"simulation" toml:"simulation"`
	Damping     DampingConfig     `yaml:"damping" toml:"damping"`
	Deformation DeformationConfig `yaml:"deformation" toml:"deformation"`
	Balls       []BallConfig      `yaml:"balls" toml:"balls"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
	File   string `yaml:"file" toml:"file"`
}

// SimulationConfig times are in seconds.
type SimulationConfig struct {
	FixedStep    float64 `yaml:"fixed_step" toml:"fixed_step"`
	FrameStep    float64 `yaml:"frame_step" toml:"frame_step"`
	Duration     float64 `yaml:"duration" toml:"duration"`
	Realtime     bool    `yaml:"realtime" toml:"realtime"`
	Gravity      float64 `yaml:"gravity" toml:"gravity"`
	GroundHeight float64 `yaml:"ground_height" toml:"ground_height"`
	GroundName   string  `yaml:"ground_name" toml:"ground_name"`
	GroundTag    string  `yaml:"ground_tag" toml:"ground_tag"`
}

// DampingConfig.VelocityThreshold is a pointer so an explicit zero turns the hard stop off.
type DampingConfig struct {
	VelocityThreshold *float64 `yaml:"velocity_threshold" toml:"velocity_threshold"`
}

// DeformationConfig.MaxDeformation is a pointer so an explicit zero turns the squash off.
type DeformationConfig struct {
	MaxDeformation    *float64 `yaml:"max_deformation" toml:"max_deformation"`
	DeformationSpeed  float64  `yaml:"deformation_speed" toml:"deformation_speed"`
	RecoverySpeed     float64  `yaml:"recovery_speed" toml:"recovery_speed"`
	MinImpactVelocity float64  `yaml:"min_impact_velocity" toml:"min_impact_velocity"`
}

// BallConfig describes one ball. Restitution and Friction are pointers so an explicit
// zero is kept.
type BallConfig struct {
	Name            string   `yaml:"name" toml:"name"`
	Tag             string   `yaml:"tag" toml:"tag"`
	Radius          float64  `yaml:"radius" toml:"radius"`
	Mass            float64  `yaml:"mass" toml:"mass"`
	Restitution     *float64 `yaml:"restitution" toml:"restitution"`
	Friction        *float64 `yaml:"friction" toml:"friction"`
	Position        Vec3     `yaml:"position" toml:"position"`
	Velocity        Vec3     `yaml:"velocity" toml:"velocity"`
	AngularVelocity Vec3     `yaml:"angular_velocity" toml:"angular_velocity"`
	Scale           Vec3     `yaml:"scale" toml:"scale"`
	Behaviors       []string `yaml:"behaviors" toml:"behaviors"`
}

// Load reads a YAML file (TOML when the extension is .toml), applies environment
// overrides and defaults, and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("decode toml %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode yaml %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a fully defaulted config with a single ball.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}
