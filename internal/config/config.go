// Package config reads and writes run files.
package config

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"github.com/san-kum/fsim/internal/dynamo"
	"github.com/san-kum/fsim/internal/integrators"
	"gopkg.in/yaml.v3"
)

const (
	DefaultTF = 10.0
	DefaultKp = 10.0
	DefaultKi = 0.1
	DefaultKd = 5.0
)

// Config is one simulation run: which model, over which span, how it is
// stepped and sampled.
type Config struct {
	Model            string              `yaml:"model"`
	Kind             string              `yaml:"kind,omitempty"`
	Method           string              `yaml:"method,omitempty"`
	Controller       string              `yaml:"controller,omitempty"`
	T0               float64             `yaml:"t0"`
	TF               float64             `yaml:"tf"`
	State            []float64           `yaml:"state,omitempty"`
	Params           map[string]float64  `yaml:"params,omitempty"`
	SaveStep         float64             `yaml:"save_step,omitempty"`
	SaveAt           []float64           `yaml:"save_at,omitempty"`
	Solver           integrators.Options `yaml:"solver"`
	ControllerParams ControllerConfig    `yaml:"controller_params"`
}

type ControllerConfig struct {
	Kp     float64 `yaml:"kp"`
	Ki     float64 `yaml:"ki"`
	Kd     float64 `yaml:"kd"`
	Target float64 `yaml:"target"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:      "pendulum",
		Controller: "none",
		TF:         DefaultTF,
		Solver:     integrators.DefaultOptions(),
		ControllerParams: ControllerConfig{
			Kp: DefaultKp,
			Ki: DefaultKi,
			Kd: DefaultKd,
		},
	}
}

// Parse decodes a run file over the defaults. Unknown keys are errors.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("%w: parsing run file: %w", dynamo.ErrConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run file: %w", err)
	}
	return Parse(data)
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

var validControllers = map[string]bool{"": true, "none": true, "pid": true, "lqr": true}

// Validate checks the fields that do not depend on the model.
func (c *Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("%w: model is required", dynamo.ErrConfig)
	}
	if _, err := dynamo.ParseKind(c.Kind); err != nil {
		return err
	}
	if c.Method != "" {
		if _, err := integrators.ByName(c.Method); err != nil {
			return err
		}
	}
	if !validControllers[c.Controller] {
		return fmt.Errorf("%w: unknown controller %q; valid: none, pid, lqr", dynamo.ErrConfig, c.Controller)
	}
	if err := validateFinite("t0", c.T0); err != nil {
		return err
	}
	if err := validateFinite("tf", c.TF); err != nil {
		return err
	}
	if c.T0 == c.TF {
		return fmt.Errorf("%w: empty time span [%g, %g]", dynamo.ErrConfig, c.T0, c.TF)
	}
	if len(c.SaveAt) > 0 && c.SaveStep != 0 {
		return fmt.Errorf("%w: save_at and save_step are mutually exclusive", dynamo.ErrConfig)
	}
	if c.SaveStep < 0 || math.IsNaN(c.SaveStep) {
		return fmt.Errorf("%w: save_step must be positive, got %f", dynamo.ErrConfig, c.SaveStep)
	}
	for i, v := range c.State {
		if err := validateFinite(fmt.Sprintf("state[%d]", i), v); err != nil {
			return err
		}
	}
	return nil
}

func validateFinite(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s must be finite, got %f", dynamo.ErrConfig, name, v)
	}
	return nil
}
