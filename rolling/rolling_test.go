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

package rolling_test

import (
	"context"
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pv-allocate/dataframe"
	"github.com/penny-vault/pv-allocate/rolling"
)

func makeReturns(cols ...[]float64) *dataframe.DataFrame {
	dates := make([]time.Time, len(cols[0]))
	dt := time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC)
	for idx := range dates {
		dates[idx] = dt
		dt = dt.AddDate(0, 0, 1)
	}

	names := []string{"VFINX", "PRIDX", "VUSTX", "VWEHX"}
	return &dataframe.DataFrame{
		Dates:    dates,
		ColNames: names[:len(cols)],
		Vals:     cols,
	}
}

var _ = Describe("Rolling", func() {
	var (
		returns *dataframe.DataFrame
	)

	BeforeEach(func() {
		returns = makeReturns(
			[]float64{0.01, -0.02, 0.03, 0.005, -0.01, 0.02},
			[]float64{0.002, 0.004, -0.001, 0.003, 0.0, -0.002},
			[]float64{-0.01, 0.015, -0.02, 0.01, 0.005, 0.0},
		)
	})

	It("rejects windows shorter than 2", func() {
		_, err := rolling.Estimate(context.Background(), returns, 1)
		Expect(err).To(MatchError(rolling.ErrInvalidWindow))
	})

	It("returns no snapshots when history is shorter than the window", func() {
		snaps, err := rolling.Estimate(context.Background(), returns, 7)
		Expect(err).To(BeNil())
		Expect(snaps).To(BeEmpty())
	})

	It("produces one snapshot per eligible row in date order", func() {
		snaps, err := rolling.Estimate(context.Background(), returns, 3)
		Expect(err).To(BeNil())
		Expect(snaps).To(HaveLen(4))
		for idx, snap := range snaps {
			Expect(snap.Row).To(Equal(idx + 2))
			Expect(snap.Date).To(Equal(returns.Dates[idx+2]))
			Expect(snap.NumAssets()).To(Equal(3))
		}
	})

	It("includes the current row in the window", func() {
		snaps, err := rolling.Estimate(context.Background(), returns, 6)
		Expect(err).To(BeNil())
		Expect(snaps).To(HaveLen(1))
		Expect(snaps[0].Row).To(Equal(5))
	})

	It("annualizes the latest realized return", func() {
		snaps, err := rolling.Estimate(context.Background(), returns, 3)
		Expect(err).To(BeNil())
		Expect(snaps[0].ExpectedReturn[0]).To(BeNumerically("~", 0.09, 1e-12))
		Expect(snaps[3].ExpectedReturn[1]).To(BeNumerically("~", -0.006, 1e-12))
	})

	It("computes the sample volatility scaled by the window", func() {
		snaps, err := rolling.Estimate(context.Background(), returns, 3)
		Expect(err).To(BeNil())

		// window rows 0..2 of VFINX: mean 0.00666.., sample variance
		vals := []float64{0.01, -0.02, 0.03}
		mean := (vals[0] + vals[1] + vals[2]) / 3
		variance := 0.0
		for _, v := range vals {
			variance += (v - mean) * (v - mean)
		}
		variance /= 2
		Expect(snaps[0].Volatility[0]).To(BeNumerically("~", math.Sqrt(variance*3), 1e-12))
	})

	It("has a symmetric covariance whose diagonal is the squared volatility", func() {
		snaps, err := rolling.Estimate(context.Background(), returns, 4)
		Expect(err).To(BeNil())
		for _, snap := range snaps {
			n := snap.NumAssets()
			Expect(snap.Covariance.SymmetricDim()).To(Equal(n))
			for ii := 0; ii < n; ii++ {
				Expect(snap.Covariance.At(ii, ii)).To(BeNumerically("~", snap.Volatility[ii]*snap.Volatility[ii], 1e-12))
				for jj := 0; jj < n; jj++ {
					Expect(snap.Covariance.At(ii, jj)).To(Equal(snap.Covariance.At(jj, ii)))
				}
			}
		}
	})

	It("matches a hand computed covariance", func() {
		snaps, err := rolling.Estimate(context.Background(), returns, 6)
		Expect(err).To(BeNil())

		x := returns.Vals[0]
		y := returns.Vals[1]
		var mx, my float64
		for idx := range x {
			mx += x[idx]
			my += y[idx]
		}
		mx /= 6
		my /= 6
		cov := 0.0
		for idx := range x {
			cov += (x[idx] - mx) * (y[idx] - my)
		}
		cov = cov / 5 * 6
		Expect(snaps[0].Covariance.At(0, 1)).To(BeNumerically("~", cov, 1e-12))
	})

	It("stops when the context is cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := rolling.Estimate(ctx, returns, 2)
		Expect(err).To(MatchError(context.Canceled))
	})

	DescribeTable("eligibility", func(row, window int, expected bool) {
		Expect(rolling.Eligible(row, window)).To(Equal(expected))
	},
		Entry("before the window is full", 1, 3, false),
		Entry("first full window", 2, 3, true),
		Entry("after the window is full", 10, 3, true),
	)
})
