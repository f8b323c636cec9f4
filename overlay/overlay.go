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

// Package overlay scales total market exposure of a portfolio between the risky allocation
// and cash based on the trailing risk of the portfolio's own returns.
package overlay

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// Strategy identifies a risk overlay rule
type Strategy string

const (
	None Strategy = "none"
	VT   Strategy = "VT"
	CVT  Strategy = "CVT"
)

var (
	ErrUnknownOverlay = errors.New("unknown overlay strategy")
)

// Strategies lists every supported overlay in display order
var Strategies = []Strategy{None, VT, CVT}

// Params configures the overlay rules
type Params struct {
	Window     int
	VolTarget  float64
	CVaRTarget float64
	CVaRDelta  float64
}

// DefaultParams returns the default targets for a given window
func DefaultParams(window int) Params {
	return Params{
		Window:     window,
		VolTarget:  0.10,
		CVaRTarget: 0.05,
		CVaRDelta:  0.01,
	}
}

// Parse converts a case-insensitive overlay name into a Strategy; the empty string is None
func Parse(name string) (Strategy, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", "NONE":
		return None, nil
	case "VT":
		return VT, nil
	case "CVT":
		return CVT, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownOverlay, name)
	}
}

func (s Strategy) String() string {
	return string(s)
}

// Multipliers computes the exposure multiplier for every period of portReturns. The multiplier
// for period t only uses returns up to and including t-1: risk is measured over the trailing
// window ending at t-1 and the ratio target/risk is clamped into [0, 1]. The first period, and
// any period whose lagged risk is undefined, gets zero exposure.
func Multipliers(strategy Strategy, portReturns []float64, params Params) ([]float64, error) {
	multipliers := make([]float64, len(portReturns))

	var (
		risk   []float64
		target float64
	)

	switch strategy {
	case None:
		for idx := range multipliers {
			multipliers[idx] = 1
		}
		return multipliers, nil
	case VT:
		risk = RollingVolatility(portReturns, params.Window)
		target = params.VolTarget
	case CVT:
		risk = RollingCVaR(portReturns, params.Window, params.CVaRDelta)
		for idx := range risk {
			risk[idx] = -risk[idx]
		}
		target = params.CVaRTarget
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOverlay, strategy)
	}

	for idx := 1; idx < len(multipliers); idx++ {
		multipliers[idx] = clamp(target / risk[idx-1])
	}

	return multipliers, nil
}

// RollingVolatility returns the sample standard deviation of the trailing window ending at each
// index, annualized by sqrt(window). Indices without a full window are NaN
func RollingVolatility(returns []float64, window int) []float64 {
	res := make([]float64, len(returns))
	for idx := range res {
		if window < 2 || idx+1 < window {
			res[idx] = math.NaN()
			continue
		}
		res[idx] = stat.StdDev(returns[idx-window+1:idx+1], nil) * math.Sqrt(float64(window))
	}
	return res
}

// RollingCVaR returns the conditional value at risk of the trailing window ending at each index.
// Indices without a full window are NaN
func RollingCVaR(returns []float64, window int, delta float64) []float64 {
	res := make([]float64, len(returns))
	for idx := range res {
		if window < 1 || idx+1 < window {
			res[idx] = math.NaN()
			continue
		}
		res[idx] = CVaR(returns[idx-window+1:idx+1], delta)
	}
	return res
}

// CVaR is the mean of the returns at or below the delta-quantile of returns; this is a
// (usually negative) return, not a loss
func CVaR(returns []float64, delta float64) float64 {
	if len(returns) == 0 {
		return math.NaN()
	}

	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	threshold := Quantile(sorted, delta)
	count := sort.Search(len(sorted), func(idx int) bool {
		return sorted[idx] > threshold
	})

	return stat.Mean(sorted[:count], nil)
}

// Quantile returns the p-quantile of sorted, linearly interpolated between the order statistics
// around position (n-1)p
func Quantile(sorted []float64, p float64) float64 {
	last := len(sorted) - 1
	pos := float64(last) * p
	lo := int(math.Floor(pos))
	if lo >= last {
		return sorted[last]
	}
	if lo < 0 {
		return sorted[0]
	}
	return sorted[lo] + (pos-float64(lo))*(sorted[lo+1]-sorted[lo])
}

// clamp bounds an exposure multiplier into [0, 1]; undefined and negative values mean no exposure
func clamp(val float64) float64 {
	switch {
	case math.IsNaN(val) || math.IsInf(val, 0) || val < 0:
		return 0
	case val > 1:
		return 1
	default:
		return val
	}
}
