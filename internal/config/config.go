// Package config loads the YAML description of a site assessment run.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/rtm0/era5wind/internal/powercurve"
)

// Config describes a site assessment run.
type Config struct {
	Site     Site               `yaml:"site"`
	Files    []string           `yaml:"era5_files"`
	Period   Period             `yaml:"period"`
	Height   float64            `yaml:"height"`
	Weibull  Weibull            `yaml:"weibull"`
	Sectors  int                `yaml:"wind_rose_sectors"`
	AEPYear  int                `yaml:"aep_year"`
	Turbines []Turbine          `yaml:"turbines"`
	Columns  powercurve.Columns `yaml:"power_curve_columns"`
	Export   Export             `yaml:"export"`
}

// Site is the assessed location.
type Site struct {
	Name      string  `yaml:"name"`
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
}

// Period is the range of years used for statistics.
type Period struct {
	StartYear int `yaml:"start_year"`
	EndYear   int `yaml:"end_year"`
}

// Weibull selects the height of the Weibull fit.
type Weibull struct {
	Height      float64 `yaml:"height"`
	UsePowerLaw bool    `yaml:"use_power_law"`
}

// Turbine is a turbine evaluated for annual energy production.
type Turbine struct {
	Name         string   `yaml:"name"`
	HubHeight    float64  `yaml:"hub_height"`
	PowerCurve   string   `yaml:"power_curve"`
	Availability *float64 `yaml:"availability"`
}

// AvailabilityFactor returns the configured availability, 1 when unset. The
// value is passed through without range checks.
func (t Turbine) AvailabilityFactor() float64 {
	if t.Availability == nil {
		return 1
	}
	return *t.Availability
}

// Export configures the optional VictoriaMetrics export of the point series.
type Export struct {
	InsertURL     string `yaml:"vm_insert_url"`
	MetricPrefix  string `yaml:"metric_prefix"`
	Concurrency   int    `yaml:"concurrency"`
	RecsPerInsert int    `yaml:"recs_per_insert"`
}

// Load reads and validates a configuration file. Missing optional settings
// take their defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Default returns the default settings.
func Default() *Config {
	return &Config{
		Height:  100,
		Weibull: Weibull{Height: 100},
		Sectors: 16,
		Columns: powercurve.DefaultColumns(),
		Export: Export{
			MetricPrefix:  "era5wind",
			Concurrency:   runtime.NumCPU(),
			RecsPerInsert: 500,
		},
	}
}

// Validate checks the settings that the run cannot do without.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Files) == 0 {
		errs = append(errs, errors.New("era5_files: at least one file is required"))
	}
	if c.Site.Latitude < -90 || c.Site.Latitude > 90 {
		errs = append(errs, fmt.Errorf("site.latitude: %g out of range", c.Site.Latitude))
	}
	if c.Site.Longitude < -180 || c.Site.Longitude > 360 {
		errs = append(errs, fmt.Errorf("site.longitude: %g out of range", c.Site.Longitude))
	}
	if c.Period.StartYear > c.Period.EndYear {
		errs = append(errs, fmt.Errorf("period: start year %d after end year %d", c.Period.StartYear, c.Period.EndYear))
	}
	if c.Sectors < 1 {
		errs = append(errs, fmt.Errorf("wind_rose_sectors: %d must be positive", c.Sectors))
	}
	for i, t := range c.Turbines {
		if t.PowerCurve == "" {
			errs = append(errs, fmt.Errorf("turbines[%d]: power_curve is required", i))
		}
		if t.HubHeight <= 0 {
			errs = append(errs, fmt.Errorf("turbines[%d]: hub_height %g must be positive", i, t.HubHeight))
		}
	}
	if c.Export.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("export.concurrency: %d must be positive", c.Export.Concurrency))
	}
	if c.Export.RecsPerInsert < 1 {
		errs = append(errs, fmt.Errorf("export.recs_per_insert: %d must be positive", c.Export.RecsPerInsert))
	}
	return errors.Join(errs...)
}
