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

package overlay_test

import (
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pv-allocate/overlay"
)

func randomReturns(seed int64, n int, scale float64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	res := make([]float64, n)
	for idx := range res {
		res[idx] = rng.NormFloat64() * scale
	}
	return res
}

func exposure(strategy overlay.Strategy, returns []float64, params overlay.Params) []float64 {
	res, err := overlay.Multipliers(strategy, returns, params)
	ExpectWithOffset(1, err).To(BeNil())
	return res
}

var _ = Describe("Overlay", func() {
	DescribeTable("parses overlay names", func(name string, expected overlay.Strategy) {
		strategy, err := overlay.Parse(name)
		Expect(err).To(BeNil())
		Expect(strategy).To(Equal(expected))
	},
		Entry("none", "none", overlay.None),
		Entry("empty", "", overlay.None),
		Entry("VT", "vt", overlay.VT),
		Entry("CVT", "CVT", overlay.CVT),
	)

	It("rejects unknown overlays", func() {
		_, err := overlay.Parse("leverage")
		Expect(err).To(MatchError(overlay.ErrUnknownOverlay))
	})

	It("rejects an overlay that was never parsed", func() {
		_, err := overlay.Multipliers(overlay.Strategy("vt"), randomReturns(1, 50, 0.01), overlay.DefaultParams(10))
		Expect(err).To(MatchError(overlay.ErrUnknownOverlay))
	})

	Context("with no overlay", func() {
		It("is fully invested every period", func() {
			multipliers := exposure(overlay.None, randomReturns(1, 50, 0.01), overlay.DefaultParams(10))
			Expect(multipliers).To(HaveLen(50))
			for _, m := range multipliers {
				Expect(m).To(Equal(1.0))
			}
		})
	})

	Context("with volatility targeting", func() {
		var (
			params overlay.Params
		)

		BeforeEach(func() {
			params = overlay.DefaultParams(4)
			params.VolTarget = 0.01
		})

		It("scales exposure by target over lagged volatility", func() {
			returns := []float64{0.01, -0.01, 0.01, -0.01, 0.01, -0.01}
			multipliers := exposure(overlay.VT, returns, params)

			vol := math.Sqrt(4*0.0001/3) * 2
			Expect(multipliers[0]).To(Equal(0.0))
			Expect(multipliers[3]).To(Equal(0.0), "window ending at t-1 is not full")
			Expect(multipliers[4]).To(BeNumerically("~", 0.01/vol, 1e-12))
			Expect(multipliers[5]).To(BeNumerically("~", 0.01/vol, 1e-12))
		})

		It("does not use the current period's return", func() {
			returns := randomReturns(2, 40, 0.01)
			before := exposure(overlay.VT, returns, params)

			returns[39] = 0.5
			after := exposure(overlay.VT, returns, params)
			Expect(after).To(Equal(before))
		})

		It("stays within [0, 1]", func() {
			params.VolTarget = 0.10
			for seed := int64(1); seed < 5; seed++ {
				for _, m := range exposure(overlay.VT, randomReturns(seed, 100, 0.05), params) {
					Expect(m).To(BeNumerically(">=", 0))
					Expect(m).To(BeNumerically("<=", 1))
				}
			}
		})

		It("lowers exposure when volatility rises", func() {
			calm := randomReturns(3, 60, 0.01)
			volatile := make([]float64, len(calm))
			for idx := range calm {
				volatile[idx] = calm[idx] * 2
			}

			calmM := exposure(overlay.VT, calm, params)
			volatileM := exposure(overlay.VT, volatile, params)
			for idx := range calmM {
				Expect(volatileM[idx]).To(BeNumerically("<=", calmM[idx]))
			}
		})

		It("has no exposure when volatility is zero", func() {
			multipliers := exposure(overlay.VT, make([]float64, 10), params)
			for _, m := range multipliers {
				Expect(m).To(Equal(0.0))
			}
		})
	})

	Context("with CVaR targeting", func() {
		It("computes the mean of the tail", func() {
			returns := []float64{0.0, -0.03, 0.02, -0.05, -0.01}
			Expect(overlay.CVaR(returns, 0.1)).To(BeNumerically("~", -0.05, 1e-12))
			Expect(overlay.CVaR(returns, 0.3)).To(BeNumerically("~", -0.04, 1e-12))
		})

		It("interpolates the quantile between order statistics", func() {
			sorted := []float64{-0.04, -0.02, 0.01, 0.03}
			Expect(overlay.Quantile(sorted, 0.0)).To(Equal(-0.04))
			Expect(overlay.Quantile(sorted, 1.0)).To(Equal(0.03))
			Expect(overlay.Quantile(sorted, 0.5)).To(BeNumerically("~", -0.005, 1e-12))
			Expect(overlay.Quantile(sorted, 0.3)).To(BeNumerically("~", -0.022, 1e-12))
		})

		It("keeps only returns at or below the interpolated quantile", func() {
			// position (n-1)p = 0.9 falls below the second order statistic
			returns := []float64{0.03, -0.02, 0.01, -0.04}
			Expect(overlay.CVaR(returns, 0.3)).To(BeNumerically("~", -0.04, 1e-12))
		})

		It("averages the three lowest returns of a year at the default delta", func() {
			returns := make([]float64, 252)
			for idx := range returns {
				returns[idx] = -0.05 + 0.0004*float64(idx)
			}
			rand.New(rand.NewSource(7)).Shuffle(len(returns), func(i, j int) {
				returns[i], returns[j] = returns[j], returns[i]
			})

			// position 251 * 0.01 = 2.51 lies between the third and fourth lowest returns
			Expect(overlay.CVaR(returns, overlay.DefaultParams(252).CVaRDelta)).To(BeNumerically("~", -0.0496, 1e-12))
		})

		It("scales exposure by target over lagged CVaR", func() {
			params := overlay.DefaultParams(5)
			params.CVaRDelta = 0.3
			params.CVaRTarget = 0.02

			returns := []float64{0.0, -0.03, 0.02, -0.05, -0.01, 0.01}
			multipliers := exposure(overlay.CVT, returns, params)
			Expect(multipliers[:5]).To(Equal([]float64{0, 0, 0, 0, 0}))
			Expect(multipliers[5]).To(BeNumerically("~", 0.5, 1e-12))
		})

		It("has no exposure when the tail is a gain", func() {
			params := overlay.DefaultParams(3)
			returns := []float64{0.01, 0.02, 0.03, 0.04, 0.05}
			for _, m := range exposure(overlay.CVT, returns, params) {
				Expect(m).To(Equal(0.0))
			}
		})

		It("marks incomplete windows as undefined", func() {
			cvar := overlay.RollingCVaR([]float64{-0.01, 0.01, 0.02}, 2, 0.1)
			Expect(math.IsNaN(cvar[0])).To(BeTrue())
			Expect(cvar[1]).To(BeNumerically("~", -0.01, 1e-12))
			Expect(cvar[2]).To(BeNumerically("~", 0.01, 1e-12))
		})
	})
})
