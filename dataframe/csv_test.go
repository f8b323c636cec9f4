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
	"bytes"
	"math"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pv-allocate/dataframe"
)

var _ = Describe("CSV", func() {
	Context("with a well formed price table", func() {
		var (
			input string
		)

		BeforeEach(func() {
			input = "date,SPY,TLT\n2021-01-04,368.79,163.03\n2021-01-05,371.33,\n2021-01-06,373.55,160.32\n"
		})

		It("reads the dates and assets", func() {
			df, err := dataframe.ReadCSV(strings.NewReader(input))
			Expect(err).To(BeNil())
			Expect(df.ColNames).To(Equal([]string{"SPY", "TLT"}))
			Expect(df.Len()).To(Equal(3))
			Expect(df.Start()).To(Equal(time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC)))
			Expect(df.End()).To(Equal(time.Date(2021, 1, 6, 0, 0, 0, 0, time.UTC)))
			Expect(df.Vals[0][1]).To(Equal(371.33))
		})

		It("reads empty cells as NaN", func() {
			df, err := dataframe.ReadCSV(strings.NewReader(input))
			Expect(err).To(BeNil())
			Expect(math.IsNaN(df.Vals[1][1])).To(BeTrue())
		})

		It("round trips through WriteCSV", func() {
			df, err := dataframe.ReadCSV(strings.NewReader(input))
			Expect(err).To(BeNil())

			buf := &bytes.Buffer{}
			Expect(df.WriteCSV(buf)).To(Succeed())
			Expect(buf.String()).To(Equal(input))
		})
	})

	DescribeTable("rejects malformed input", func(input string, expected error) {
		_, err := dataframe.ReadCSV(strings.NewReader(input))
		Expect(err).To(MatchError(expected))
	},
		Entry("empty input", "", dataframe.ErrMalformedCSV),
		Entry("no assets", "date\n2021-01-04\n", dataframe.ErrMalformedCSV),
		Entry("bad date", "date,SPY\n01/04/2021,1.0\n", dataframe.ErrMalformedCSV),
		Entry("bad value", "date,SPY\n2021-01-04,abc\n", dataframe.ErrMalformedCSV),
		Entry("ragged row", "date,SPY,TLT\n2021-01-04,1.0\n", dataframe.ErrMalformedCSV),
		Entry("dates out of order", "date,SPY\n2021-01-05,1.0\n2021-01-04,2.0\n", dataframe.ErrDatesNotIncreasing),
		Entry("duplicate asset", "date,SPY,SPY\n2021-01-04,1.0,2.0\n", dataframe.ErrDuplicateColumn),
	)
})
