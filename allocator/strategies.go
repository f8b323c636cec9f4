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

	"github.com/penny-vault/pv-allocate/rolling"
	"gonum.org/v1/gonum/mat"
)

// EqualWeight assigns 1/N to every asset
func EqualWeight(snap *rolling.Snapshot) Result {
	return Result{
		Weights:   equalWeights(snap.NumAssets()),
		Converged: true,
		Status:    statusClosedForm,
	}
}

// EqualVolatility weights every asset in inverse proportion to its volatility so each
// contributes the same stand-alone volatility. Falls back to equal weight when any
// volatility is zero or not finite
func EqualVolatility(snap *rolling.Snapshot) Result {
	n := snap.NumAssets()
	inv := make([]float64, n)
	var total float64
	for idx, vol := range snap.Volatility {
		if vol <= 0 || math.IsNaN(vol) || math.IsInf(vol, 0) {
			return degenerate(n)
		}
		inv[idx] = 1 / vol
		total += inv[idx]
	}

	for idx := range inv {
		inv[idx] /= total
	}

	return Result{
		Weights:   inv,
		Converged: true,
		Status:    statusClosedForm,
	}
}

// MinVariance finds the global minimum variance portfolio
func MinVariance(snap *rolling.Snapshot) Result {
	n := snap.NumAssets()
	if !usableCovariance(snap.Covariance, n) {
		return degenerate(n)
	}
	return Solve(VarianceObjective(snap.Covariance), n)
}

// MaxSharpe finds the portfolio with the highest ratio of expected return to volatility
func MaxSharpe(snap *rolling.Snapshot) Result {
	n := snap.NumAssets()
	if !usableCovariance(snap.Covariance, n) || !allFinite(snap.ExpectedReturn) {
		return degenerate(n)
	}
	return Solve(RatioObjective(snap.ExpectedReturn, snap.Covariance), n)
}

// MaxDiversification finds the portfolio with the highest ratio of weighted asset volatility
// to portfolio volatility
func MaxDiversification(snap *rolling.Snapshot) Result {
	n := snap.NumAssets()
	if !usableCovariance(snap.Covariance, n) || !allFinite(snap.Volatility) {
		return degenerate(n)
	}
	return Solve(RatioObjective(snap.Volatility, snap.Covariance), n)
}

// RiskParity finds the portfolio in which every asset contributes the same share of the
// portfolio variance
func RiskParity(snap *rolling.Snapshot) Result {
	n := snap.NumAssets()
	if !usableCovariance(snap.Covariance, n) {
		return degenerate(n)
	}
	return Solve(RiskParityObjective(snap.Covariance), n)
}

// usableCovariance reports whether cov is finite and gives the equal weight portfolio a
// positive variance
func usableCovariance(cov *mat.SymDense, n int) bool {
	if n == 0 || cov == nil || cov.SymmetricDim() != n {
		return false
	}

	for ii := 0; ii < n; ii++ {
		for jj := ii; jj < n; jj++ {
			val := cov.At(ii, jj)
			if math.IsNaN(val) || math.IsInf(val, 0) {
				return false
			}
		}
	}

	ew := mat.NewVecDense(n, equalWeights(n))
	return mat.Inner(ew, cov, ew) > 0
}

func degenerate(n int) Result {
	return Result{
		Weights:   equalWeights(n),
		Converged: true,
		Status:    statusDegenerate,
	}
}
