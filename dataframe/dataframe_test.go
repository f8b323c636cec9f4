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

package dataframe_test

import (
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pv-allocate/dataframe"
)

var _ = Describe("DataFrame", func() {
	Context("with no values", func() {
		var (
			df *dataframe.DataFrame
		)

		BeforeEach(func() {
			df = &dataframe.DataFrame{}
		})

		It("has zero length", func() {
			Expect(df.Len()).To(Equal(0))
		})

		It("has zero columns", func() {
			Expect(df.ColCount()).To(Equal(0))
		})

		It("validates", func() {
			Expect(df.Validate()).To(Succeed())
		})

		It("does not error on drop", func() {
			df = df.Drop(1)
			Expect(df.Len()).To(Equal(0))
		})

		It("does not error on trim", func() {
			df = df.Trim(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC))
			Expect(df.Len()).To(Equal(0))
		})

		It("has an empty pct change", func() {
			Expect(df.PctChange().Len()).To(Equal(0))
		})

		It("renders a placeholder table", func() {
			Expect(df.Table()).To(Equal("<NO DATA>"))
		})
	})

	Context("with 2 years of values and a single column", func() {
		var (
			df *dataframe.DataFrame
		)

		BeforeEach(func() {
			dates := make([]time.Time, 730)
			vals := make([]float64, 730)
			dt := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
			for idx := range dates {
				dates[idx] = dt
				dt = dt.AddDate(0, 0, 1)
				vals[idx] = float64(idx)
			}
			df = &dataframe.DataFrame{
				ColNames: []string{"Col1"},
				Dates:    dates,
				Vals:     [][]float64{vals},
			}
		})

		It("has length", func() {
			Expect(df.Len()).To(Equal(730))
		})

		It("has 1 column", func() {
			Expect(df.ColCount()).To(Equal(1))
		})

		It("finds the column index", func() {
			Expect(df.ColIndex("Col1")).To(Equal(0))
			Expect(df.ColIndex("Col2")).To(Equal(-1))
		})

		It("can remove all 0s with drop", func() {
			df = df.Drop(0)
			Expect(df.Len()).To(Equal(729))
			Expect(df.Vals[0][0]).To(BeNumerically("==", 1.0))
		})

		It("lags values and fills the gap", func() {
			lagged := df.Lag(2, 0)
			Expect(lagged.Vals[0][0]).To(Equal(0.0))
			Expect(lagged.Vals[0][1]).To(Equal(0.0))
			Expect(lagged.Vals[0][2]).To(Equal(0.0))
			Expect(lagged.Vals[0][3]).To(Equal(1.0))
			Expect(df.Vals[0][3]).To(Equal(3.0), "original is untouched")
		})

		It("returns the last row", func() {
			last := df.Last()
			Expect(last.Len()).To(Equal(1))
			Expect(last.Vals[0][0]).To(Equal(729.0))
			Expect(last.Start()).To(Equal(time.Date(2021, 12, 30, 0, 0, 0, 0, time.UTC)))
		})

		DescribeTable("trims values by date range", func(a, b time.Time, expectedLen int, expectedA, expectedB time.Time) {
			df = df.Trim(a, b)
			Expect(df.Len()).To(Equal(expectedLen))
			Expect(df.Vals[0]).To(HaveLen(expectedLen))
			if expectedLen > 1 {
				Expect(df.Dates[0]).To(Equal(expectedA), "expected begin date")
				Expect(df.Dates[len(df.Dates)-1]).To(Equal(expectedB), "expected end date")
			}
		},
			Entry("whole range", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2021, 12, 30, 0, 0, 0, 0, time.UTC), 730, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2021, 12, 30, 0, 0, 0, 0, time.UTC)),
			Entry("range that does not exist in dataframe (left)", time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2019, 12, 30, 0, 0, 0, 0, time.UTC), 0, time.Time{}, time.Time{}),
			Entry("range that does not exist in dataframe (right)", time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2023, 12, 30, 0, 0, 0, 0, time.UTC), 0, time.Time{}, time.Time{}),
			Entry("range in the middle of dataframe", time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2020, 6, 5, 0, 0, 0, 0, time.UTC), 5, time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2020, 6, 5, 0, 0, 0, 0, time.UTC)),
			Entry("range that extends beyond the end", time.Date(2021, 12, 27, 0, 0, 0, 0, time.UTC), time.Date(2021, 12, 31, 0, 0, 0, 0, time.UTC), 4, time.Date(2021, 12, 27, 0, 0, 0, 0, time.UTC), time.Date(2021, 12, 30, 0, 0, 0, 0, time.UTC)),
			Entry("single date", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), 1, time.Time{}, time.Time{}),
			Entry("inverted range", time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), 0, time.Time{}, time.Time{}),
		)

		DescribeTable("resamples to period ends", func(frequency dataframe.Frequency, expectedCnt int, expectedStart, expectedEnd time.Time) {
			res, err := df.Resample(frequency)
			Expect(err).To(BeNil())
			Expect(res.Len()).To(Equal(expectedCnt), "expected count")
			Expect(res.Dates[0]).To(Equal(expectedStart), "expected start")
			Expect(res.Dates[res.Len()-1]).To(Equal(expectedEnd), "expected end")
		},
			Entry("daily", dataframe.Daily, 730, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2021, 12, 30, 0, 0, 0, 0, time.UTC)),
			Entry("weekly", dataframe.Weekly, 105, time.Date(2020, 1, 5, 0, 0, 0, 0, time.UTC), time.Date(2021, 12, 30, 0, 0, 0, 0, time.UTC)),
			Entry("monthly", dataframe.Monthly, 24, time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC), time.Date(2021, 12, 30, 0, 0, 0, 0, time.UTC)),
		)

		It("rejects an unknown frequency", func() {
			_, err := df.Resample(dataframe.Frequency("Hourly"))
			Expect(err).To(MatchError(dataframe.ErrUnknownFrequency))
		})
	})

	Context("with NaN values in dataframe", func() {
		var (
			df *dataframe.DataFrame
		)

		BeforeEach(func() {
			df = &dataframe.DataFrame{
				ColNames: []string{"Col1", "Col2"},
				Dates: []time.Time{
					time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
					time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
					time.Date(2020, 1, 3, 0, 0, 0, 0, time.UTC),
					time.Date(2020, 1, 4, 0, 0, 0, 0, time.UTC),
				},
				Vals: [][]float64{
					{math.NaN(), 1.0, math.NaN(), 3.0},
					{1.0, 2.0, 3.0, math.NaN()},
				},
			}
		})

		It("drops NaNs", func() {
			df = df.Drop(math.NaN())
			Expect(df.Len()).To(Equal(1))
			Expect(df.Vals[0]).To(Equal([]float64{1.0}))
			Expect(df.Vals[1]).To(Equal([]float64{2.0}))
		})

		It("forward fills NaNs", func() {
			filled := df.FFill()
			Expect(math.IsNaN(filled.Vals[0][0])).To(BeTrue(), "leading NaN is kept")
			Expect(filled.Vals[0][1:]).To(Equal([]float64{1.0, 1.0, 3.0}))
			Expect(filled.Vals[1]).To(Equal([]float64{1.0, 2.0, 3.0, 3.0}))
			Expect(math.IsNaN(df.Vals[1][3])).To(BeTrue(), "original is untouched")
		})
	})

	Context("when validating", func() {
		It("rejects dates that are not strictly increasing", func() {
			dt := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
			df := &dataframe.DataFrame{
				ColNames: []string{"A"},
				Dates:    []time.Time{dt, dt},
				Vals:     [][]float64{{1, 2}},
			}
			Expect(df.Validate()).To(MatchError(dataframe.ErrDatesNotIncreasing))
		})

		It("rejects duplicate columns", func() {
			df := &dataframe.DataFrame{
				ColNames: []string{"A", "A"},
				Dates:    []time.Time{time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
				Vals:     [][]float64{{1}, {2}},
			}
			Expect(df.Validate()).To(MatchError(dataframe.ErrDuplicateColumn))
		})

		It("rejects ragged columns", func() {
			df := &dataframe.DataFrame{
				ColNames: []string{"A"},
				Dates:    []time.Time{time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
				Vals:     [][]float64{{1, 2}},
			}
			Expect(df.Validate()).To(MatchError(dataframe.ErrColumnLength))
		})
	})

	Context("when inserting rows", func() {
		It("appends rows in date order", func() {
			df := dataframe.New([]time.Time{}, "A", "B")
			df.InsertRow(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), 1, 2)
			df.InsertRow(time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC), 3, 4)
			Expect(df.Len()).To(Equal(2))
			Expect(df.Row(1)).To(Equal([]float64{3, 4}))
		})

		It("panics when the date is not after the last date", func() {
			df := dataframe.New([]time.Time{}, "A")
			df.InsertRow(time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC), 1)
			Expect(func() { df.InsertRow(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), 2) }).To(Panic())
		})
	})
})
