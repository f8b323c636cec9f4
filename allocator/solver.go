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
	"gonum.org/v1/gonum/optimize"
)

const (
	statusDegenerate = "DegenerateInput"
	statusClosedForm = "ClosedForm"
	statusStationary = "Stationary"

	// kktTolerance is relative to the largest gradient component
	kktTolerance = 1e-6
)

// Objective is a differentiable function of the weight vector to be minimized
type Objective struct {
	Func func(w []float64) float64
	Grad func(grad, w []float64)
}

var convergedStatuses = map[optimize.Status]bool{
	optimize.Success:             true,
	optimize.GradientThreshold:   true,
	optimize.FunctionConvergence: true,
}

// ToWeights maps unconstrained parameters onto the long-only simplex: w = x*x / sum(x*x)
func ToWeights(x []float64) []float64 {
	w := make([]float64, len(x))
	floats.MulTo(w, x, x)
	total := floats.Sum(w)
	floats.Scale(1/total, w)
	return w
}

// Problem wraps obj in the simplex parameterization so that every point visited by the
// optimizer corresponds to weights that are non-negative and sum to one
func Problem(obj Objective) optimize.Problem {
	return optimize.Problem{
		Func: func(x []float64) float64 {
			val := obj.Func(ToWeights(x))
			if math.IsNaN(val) || math.IsInf(val, 0) {
				return math.Inf(1)
			}
			return val
		},
		Grad: func(grad, x []float64) {
			w := ToWeights(x)
			obj.Grad(grad, w)
			dot := floats.Dot(grad, w)
			total := floats.Dot(x, x)
			for k := range grad {
				grad[k] = 2 * x[k] / total * (grad[k] - dot)
				if math.IsNaN(grad[k]) || math.IsInf(grad[k], 0) {
					grad[k] = 0
				}
			}
		},
	}
}

// Solve minimizes obj over the n-asset simplex with BFGS starting from equal weights. If the
// optimizer stops early the best point it found is returned; it still counts as converged when
// it satisfies the optimality conditions of the simplex (see Stationary), which is the usual
// outcome of a line search failing next to a corner. A non-finite best point becomes an
// all-cash (zero) allocation
func Solve(obj Objective, n int) Result {
	initial := make([]float64, n)
	for idx := range initial {
		initial[idx] = 1.0 / math.Sqrt(float64(n))
	}

	settings := &optimize.Settings{
		GradientThreshold: 1e-10,
		MajorIterations:   1000,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-14,
			Relative:   1e-12,
			Iterations: 25,
		},
	}

	result, err := optimize.Minimize(Problem(obj), initial, settings, &optimize.BFGS{})
	if result == nil {
		return Result{
			Weights:   make([]float64, n),
			Converged: false,
			Status:    optimize.Failure.String(),
		}
	}

	weights := ToWeights(result.X)
	if !allFinite(weights) {
		weights = make([]float64, n)
	}

	converged := err == nil && convergedStatuses[result.Status]
	status := result.Status.String()
	if !converged && allFinite(weights) && Stationary(obj, weights) {
		converged = true
		status = statusStationary
	}

	return Result{
		Weights:   weights,
		Converged: converged,
		Status:    status,
	}
}

// Stationary reports whether w satisfies the Karush-Kuhn-Tucker conditions of minimizing obj
// over the simplex: with lambda = grad.w, every asset has grad[i] >= lambda and every held asset
// has grad[i] == lambda, both up to a tolerance relative to the largest gradient component.
// Held is weighted by w[i] so that weights vanishing into a corner do not count
func Stationary(obj Objective, w []float64) bool {
	grad := make([]float64, len(w))
	obj.Grad(grad, w)
	if !allFinite(grad) {
		return false
	}

	scale := floats.Norm(grad, math.Inf(1))
	if scale == 0 {
		return true
	}
	tol := kktTolerance * scale

	lambda := floats.Dot(grad, w)
	for idx, g := range grad {
		if g-lambda < -tol {
			return false
		}
		if w[idx]*math.Abs(g-lambda) > tol {
			return false
		}
	}

	return true
}

// ClampToSimplex returns a copy of w with non-finite and negative entries set to zero,
// entries capped at one and the total scaled down to one if it exceeds it. A total below
// one is left alone; the remainder is cash
func ClampToSimplex(w []float64) []float64 {
	res := make([]float64, len(w))
	for idx, val := range w {
		switch {
		case math.IsNaN(val) || math.IsInf(val, 0) || val < 0:
			res[idx] = 0
		case val > 1:
			res[idx] = 1
		default:
			res[idx] = val
		}
	}

	if total := floats.Sum(res); total > 1 {
		floats.Scale(1/total, res)
	}

	return res
}

func equalWeights(n int) []float64 {
	w := make([]float64, n)
	for idx := range w {
		w[idx] = 1.0 / float64(n)
	}
	return w
}

func allFinite(vals []float64) bool {
	for _, val := range vals {
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return false
		}
	}
	return true
}
