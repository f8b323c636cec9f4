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

// Package cost charges proportional transaction costs on the turnover needed to move a
// portfolio from its drifted holdings back to the target weights.
package cost

import (
	"errors"
	"fmt"
	"math"

	"github.com/penny-vault/pv-allocate/dataframe"
	"gonum.org/v1/gonum/floats"
)

// DefaultRate is the cost per unit of traded weight
const DefaultRate = 0.0005

var (
	ErrNegativeRate = errors.New("cost rate must not be negative")
)

// Compute returns the transaction cost of every row of weights. The cost of row t is
// rate * sum(|w[t] - drift(w[t-1], r[t])|). Rows up to and including firstEligible have no
// cost; the first rebalance is the initial purchase
func Compute(weights, returns *dataframe.DataFrame, rate float64, firstEligible int) ([]float64, error) {
	if rate < 0 {
		return nil, fmt.Errorf("%w: %f", ErrNegativeRate, rate)
	}

	if !weights.AlignedWith(returns) {
		return nil, dataframe.ErrDateIndexNotAligned
	}

	costs := make([]float64, weights.Len())
	if rate == 0 {
		return costs, nil
	}

	start := firstEligible + 1
	if start < 1 {
		start = 1
	}

	for rowIdx := start; rowIdx < weights.Len(); rowIdx++ {
		drifted := Drift(weights.Row(rowIdx-1), returns.Row(rowIdx))
		costs[rowIdx] = rate * Turnover(weights.Row(rowIdx), drifted)
	}

	return costs, nil
}

// Drift returns the weights held at the end of a period that started with weights prev and
// earned returns r, renormalized to sum to 1. If nothing was held, or the holdings were wiped
// out, the drifted weights are all zero
func Drift(prev, r []float64) []float64 {
	drifted := make([]float64, len(prev))
	for idx := range prev {
		drifted[idx] = prev[idx] * (1 + r[idx])
	}

	total := floats.Sum(drifted)
	if total <= 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return make([]float64, len(prev))
	}

	floats.Scale(1/total, drifted)
	return drifted
}

// Turnover is the total absolute weight traded to move from current to target
func Turnover(target, current []float64) float64 {
	return floats.Distance(target, current, 1)
}
