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

package allocator

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// VarianceObjective is the portfolio variance w'Σw. Its minimizer is the minimum volatility
// portfolio
func VarianceObjective(cov mat.Symmetric) Objective {
	return Objective{
		Func: func(w []float64) float64 {
			wv := mat.NewVecDense(len(w), w)
			return mat.Inner(wv, cov, wv)
		},
		Grad: func(grad, w []float64) {
			g := mat.NewVecDense(len(grad), grad)
			g.MulVec(cov, mat.NewVecDense(len(w), w))
			floats.Scale(2, grad)
		},
	}
}

// RatioObjective is the negated ratio of a linear score s'w to portfolio volatility. With
// expected returns as the score it is the negative Sharpe ratio (zero risk-free rate); with
// asset volatilities it is the negative diversification ratio
func RatioObjective(score []float64, cov mat.Symmetric) Objective {
	return Objective{
		Func: func(w []float64) float64 {
			wv := mat.NewVecDense(len(w), w)
			return -floats.Dot(score, w) / math.Sqrt(mat.Inner(wv, cov, wv))
		},
		Grad: func(grad, w []float64) {
			wv := mat.NewVecDense(len(w), w)
			cw := mat.NewVecDense(len(w), nil)
			cw.MulVec(cov, wv)

			variance := mat.Dot(wv, cw)
			sigma := math.Sqrt(variance)
			ret := floats.Dot(score, w)

			for k := range grad {
				grad[k] = -score[k]/sigma + ret*cw.AtVec(k)/(variance*sigma)
			}
		},
	}
}

// RiskParityObjective is the squared distance between each asset's share of portfolio
// variance, w_i(Σw)_i / w'Σw, and the equal share 1/N
func RiskParityObjective(cov mat.Symmetric) Objective {
	return Objective{
		Func: func(w []float64) float64 {
			contrib := RiskContributions(cov, w)
			target := 1.0 / float64(len(w))
			var total float64
			for _, rc := range contrib {
				total += (rc - target) * (rc - target)
			}
			return total
		},
		Grad: func(grad, w []float64) {
			n := len(w)
			wv := mat.NewVecDense(n, w)
			cw := mat.NewVecDense(n, nil)
			cw.MulVec(cov, wv)
			variance := mat.Dot(wv, cw)
			target := 1.0 / float64(n)

			contrib := make([]float64, n)
			excess := make([]float64, n)
			excessW := make([]float64, n)
			var weighted float64
			for i := 0; i < n; i++ {
				contrib[i] = w[i] * cw.AtVec(i) / variance
				excess[i] = contrib[i] - target
				excessW[i] = excess[i] * w[i]
				weighted += excess[i] * contrib[i]
			}

			ce := mat.NewVecDense(n, nil)
			ce.MulVec(cov, mat.NewVecDense(n, excessW))

			for k := 0; k < n; k++ {
				grad[k] = 2/variance*(excess[k]*cw.AtVec(k)+ce.AtVec(k)) - 4*cw.AtVec(k)/variance*weighted
			}
		},
	}
}

// RiskContributions returns each asset's fraction of the portfolio variance
func RiskContributions(cov mat.Symmetric, w []float64) []float64 {
	n := len(w)
	wv := mat.NewVecDense(n, w)
	cw := mat.NewVecDense(n, nil)
	cw.MulVec(cov, wv)
	variance := mat.Dot(wv, cw)

	contrib := make([]float64, n)
	for i := range contrib {
		contrib[i] = w[i] * cw.AtVec(i) / variance
	}
	return contrib
}
