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
	"fmt"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/penny-vault/pv-allocate/dataframe"
)

// Result holds the outputs of a backtest. Weights and CrossSectionalWeights cover every return
// date (zero before the first rebalance); AssetReturns and NetReturns start the period after
// the first rebalance. Multipliers[t] scales the weights chosen at the close of t, so
// Weights[t] = CrossSectionalWeights[t] * Multipliers[t], and Costs[t] is the cost of that
// rebalance
type Result struct {
	Weights               *dataframe.DataFrame
	CrossSectionalWeights *dataframe.DataFrame
	AssetReturns          *dataframe.DataFrame
	NetReturns            *dataframe.DataFrame
	Multipliers           []float64
	Costs                 []float64
	FirstEligible         time.Time
	NonConverged          int
	Fingerprint           string
}

// CumulativeReturns compounds the net return series into the growth of one unit of wealth
func (r *Result) CumulativeReturns() *dataframe.DataFrame {
	growth := &dataframe.DataFrame{
		Dates:    r.NetReturns.Dates,
		ColNames: []string{"Growth"},
		Vals:     [][]float64{make([]float64, r.NetReturns.Len())},
	}

	value := 1.0
	for idx, ret := range r.NetReturns.Vals[0] {
		value *= 1 + ret
		growth.Vals[0][idx] = value
	}

	return growth
}

// TotalReturn is the compounded net return over the whole run
func (r *Result) TotalReturn() float64 {
	growth := r.CumulativeReturns()
	if growth.Len() == 0 {
		return 0
	}
	return growth.Vals[0][growth.Len()-1] - 1
}

// Table renders the net return series with its compounded growth
func (r *Result) Table() string {
	if r.NetReturns.Len() == 0 {
		return "<NO DATA>"
	}

	growth := r.CumulativeReturns()
	offset := len(r.Costs) - r.NetReturns.Len()

	s := &strings.Builder{}
	table := tablewriter.NewWriter(s)
	table.SetHeader([]string{"Date", "Net Return", "Growth", "Exposure", "Cost"})
	table.SetFooter([]string{"", "Total", fmt.Sprintf("%.2f%%", r.TotalReturn()*100), "", ""})
	table.SetBorder(false)

	for idx, dt := range r.NetReturns.Dates {
		table.Append([]string{
			dt.Format("2006-01-02"),
			fmt.Sprintf("%.4f%%", r.NetReturns.Vals[0][idx]*100),
			fmt.Sprintf("%.4f", growth.Vals[0][idx]),
			fmt.Sprintf("%.2f", r.Multipliers[offset+idx]),
			fmt.Sprintf("%.6f", r.Costs[offset+idx]),
		})
	}

	table.Render()
	return s.String()
}
