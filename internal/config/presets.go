package config

import (
	"sort"

	"github.com/san-kum/fsim/internal/integrators"
)

var Presets = map[string]map[string]*Config{
	"pendulum": {
		"small": {
			Model: "pendulum", Method: "rk4", TF: 20.0, SaveStep: 0.05,
			State: []float64{0.2, 0.0},
		},
		"large": {
			Model: "pendulum", Method: "rk4", TF: 20.0, SaveStep: 0.05,
			State: []float64{2.5, 0.0},
		},
		"spinning": {
			Model: "pendulum", Method: "rk45", TF: 30.0, SaveStep: 0.05,
			State:  []float64{0.1, 8.0},
			Solver: adaptive(),
		},
		"balance": {
			Model: "pendulum", Method: "rk4", Controller: "lqr", TF: 10.0, SaveStep: 0.05,
			State: []float64{0.5, 0.0},
		},
	},
	"spring_mass": {
		"bounce": {
			Model: "spring_mass", Method: "rk4", TF: 20.0, SaveStep: 0.05,
			State: []float64{2.0, 0.0},
		},
		"fast": {
			Model: "spring_mass", Method: "rk4", TF: 10.0, SaveStep: 0.05,
			State: []float64{1.0, 5.0},
		},
		"regulated": {
			Model: "spring_mass", Method: "rk4", Controller: "pid", TF: 10.0, SaveStep: 0.05,
			State:            []float64{1.0, 0.0},
			ControllerParams: ControllerConfig{Kp: DefaultKp, Ki: DefaultKi, Kd: DefaultKd},
		},
	},
	"decay": {
		"unit": {
			Model: "decay", TF: 1.0, SaveStep: 0.01,
			State: []float64{1.0, 2.0}, Params: map[string]float64{"rate": 1.0},
		},
	},
	"geometric": {
		"slow": {
			Model: "geometric", Kind: "discrete", TF: 10.0, SaveStep: 1.0,
			State: []float64{1.0, 2.0}, Params: map[string]float64{"factor": 0.99},
		},
	},
	"lorenz": {
		"butterfly": {
			Model: "lorenz", Method: "rk45", TF: 40.0, SaveStep: 0.01,
			State:  []float64{1.0, 1.0, 1.0},
			Solver: adaptive(),
		},
	},
}

func adaptive() integrators.Options {
	o := integrators.DefaultOptions()
	o.Adaptive = true
	return o
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(model, preset string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	c := *cfg
	c.State = append([]float64(nil), cfg.State...)
	if cfg.Params != nil {
		c.Params = make(map[string]float64, len(cfg.Params))
		for k, v := range cfg.Params {
			c.Params[k] = v
		}
	}
	if c.Solver == (integrators.Options{}) {
		c.Solver = integrators.DefaultOptions()
	}
	return &c
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
