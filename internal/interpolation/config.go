package interpolation

import (
	"fmt"
	"runtime"
)

// Resolution is the number of lattice points along each grid axis.
type Resolution struct {
	X int `yaml:"x" json:"x"`
	Y int `yaml:"y" json:"y"`
}

// Config holds the tunables for grid construction and both interpolators.
type Config struct {
	// Buffer pads the sample extent on every side, in degrees.
	Buffer float64 `yaml:"buffer"`

	IDWPower float64 `yaml:"idwPower"`
	// IDWEpsilon replaces a zero distance so a coincident sample dominates
	// the estimate without special-casing equality.
	IDWEpsilon float64 `yaml:"idwEpsilon"`

	IDWResolution     Resolution `yaml:"idwResolution"`
	KrigingResolution Resolution `yaml:"krigingResolution"`

	Variogram VariogramModel `yaml:"variogram"`
	Lags      int            `yaml:"lags"`

	// Workers bounds the goroutines used to evaluate grid rows.
	Workers int `yaml:"workers"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Buffer:            0.1,
		IDWPower:          2,
		IDWEpsilon:        1e-10,
		IDWResolution:     Resolution{X: 150, Y: 150},
		KrigingResolution: Resolution{X: 120, Y: 120},
		Variogram:         Spherical,
		Lags:              6,
		Workers:           runtime.NumCPU(),
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.Buffer <= 0 {
		return fmt.Errorf("buffer must be positive, got %v", c.Buffer)
	}
	if c.IDWPower <= 0 {
		return fmt.Errorf("idwPower must be positive, got %v", c.IDWPower)
	}
	if c.IDWEpsilon <= 0 {
		return fmt.Errorf("idwEpsilon must be positive, got %v", c.IDWEpsilon)
	}
	if err := c.IDWResolution.validate("idwResolution"); err != nil {
		return err
	}
	if err := c.KrigingResolution.validate("krigingResolution"); err != nil {
		return err
	}
	if _, err := ParseVariogramModel(string(c.Variogram)); err != nil {
		return err
	}
	if c.Lags < 1 {
		return fmt.Errorf("lags must be at least 1, got %d", c.Lags)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	return nil
}

func (r Resolution) validate(name string) error {
	if r.X < 1 || r.Y < 1 {
		return fmt.Errorf("%s must be at least 1x1, got %dx%d", name, r.X, r.Y)
	}
	return nil
}
