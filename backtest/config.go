// Copyright 2021-2022
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package backtest

import (
	"errors"
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/penny-vault/pv-allocate/allocator"
	"github.com/penny-vault/pv-allocate/cost"
	"github.com/penny-vault/pv-allocate/overlay"
	"github.com/penny-vault/pv-allocate/rolling"
	"github.com/spf13/viper"
)

const (
	DefaultWindow = 252
)

var (
	ErrInvalidConfig = errors.New("invalid backtest configuration")
	ErrNoPrices      = errors.New("price table must have at least two dates and one asset")
	ErrGenerateHash  = errors.New("could not generate fingerprint")
)

// Config selects the allocation rules and their parameters for a single run
type Config struct {
	Window         int                `toml:"window"`
	CrossSectional allocator.Strategy `toml:"cross_sectional_strategy"`
	Overlay        overlay.Strategy   `toml:"overlay_strategy"`
	CostRate       float64            `toml:"cost_rate"`
	VolTarget      float64            `toml:"vol_target"`
	CVaRTarget     float64            `toml:"cvar_target"`
	CVaRDelta      float64            `toml:"cvar_delta"`
}

// DefaultConfig returns an equal weight, no overlay configuration with the default window and cost
func DefaultConfig() *Config {
	params := overlay.DefaultParams(DefaultWindow)
	return &Config{
		Window:         DefaultWindow,
		CrossSectional: allocator.EW,
		Overlay:        overlay.None,
		CostRate:       cost.DefaultRate,
		VolTarget:      params.VolTarget,
		CVaRTarget:     params.CVaRTarget,
		CVaRDelta:      params.CVaRDelta,
	}
}

// SetDefaults registers the default value of every configuration key with viper
func SetDefaults() {
	cfg := DefaultConfig()
	viper.SetDefault("window", cfg.Window)
	viper.SetDefault("cross_sectional_strategy", cfg.CrossSectional.String())
	viper.SetDefault("overlay_strategy", cfg.Overlay.String())
	viper.SetDefault("cost_rate", cfg.CostRate)
	viper.SetDefault("vol_target", cfg.VolTarget)
	viper.SetDefault("cvar_target", cfg.CVaRTarget)
	viper.SetDefault("cvar_delta", cfg.CVaRDelta)
}

// ConfigFromViper reads and validates the backtest configuration
func ConfigFromViper() (*Config, error) {
	crossSectional, err := allocator.Parse(viper.GetString("cross_sectional_strategy"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	overlayStrategy, err := overlay.Parse(viper.GetString("overlay_strategy"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	cfg := &Config{
		Window:         viper.GetInt("window"),
		CrossSectional: crossSectional,
		Overlay:        overlayStrategy,
		CostRate:       viper.GetFloat64("cost_rate"),
		VolTarget:      viper.GetFloat64("vol_target"),
		CVaRTarget:     viper.GetFloat64("cvar_target"),
		CVaRDelta:      viper.GetFloat64("cvar_delta"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks every option and replaces the strategy names with their canonical form, so
// "msr" becomes MSR; all errors wrap ErrInvalidConfig
func (cfg *Config) Validate() error {
	if cfg.Window < 2 {
		return fmt.Errorf("%w: %w: got %d", ErrInvalidConfig, rolling.ErrInvalidWindow, cfg.Window)
	}

	crossSectional, err := allocator.Parse(cfg.CrossSectional.String())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	overlayStrategy, err := overlay.Parse(cfg.Overlay.String())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	cfg.CrossSectional = crossSectional
	cfg.Overlay = overlayStrategy

	// written as !(x >= 0) so that NaN is rejected too
	if !(cfg.CostRate >= 0) {
		return fmt.Errorf("%w: %w: got %f", ErrInvalidConfig, cost.ErrNegativeRate, cfg.CostRate)
	}

	if !(cfg.VolTarget >= 0) || !(cfg.CVaRTarget >= 0) {
		return fmt.Errorf("%w: risk targets must not be negative", ErrInvalidConfig)
	}

	if !(cfg.CVaRDelta > 0 && cfg.CVaRDelta < 1) {
		return fmt.Errorf("%w: cvar delta must be in (0, 1): got %f", ErrInvalidConfig, cfg.CVaRDelta)
	}

	return nil
}

// OverlayParams returns the overlay parameters of the configuration
func (cfg *Config) OverlayParams() overlay.Params {
	return overlay.Params{
		Window:     cfg.Window,
		VolTarget:  cfg.VolTarget,
		CVaRTarget: cfg.CVaRTarget,
		CVaRDelta:  cfg.CVaRDelta,
	}
}

// TOML encodes the configuration in the format read from config.toml
func (cfg *Config) TOML() ([]byte, error) {
	return toml.Marshal(cfg)
}
