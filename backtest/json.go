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
	"time"

	"github.com/goccy/go-json"
)

type weightRecord struct {
	Date    string             `json:"date"`
	Weights map[string]float64 `json:"weights"`
}

type returnRecord struct {
	Date         string             `json:"date"`
	NetReturn    float64            `json:"net_return"`
	Exposure     float64            `json:"exposure"`
	Cost         float64            `json:"cost"`
	AssetReturns map[string]float64 `json:"asset_returns"`
}

type resultRecord struct {
	Fingerprint   string         `json:"fingerprint"`
	FirstEligible string         `json:"first_eligible,omitempty"`
	NonConverged  int            `json:"non_converged"`
	TotalReturn   float64        `json:"total_return"`
	Weights       []weightRecord `json:"weights"`
	Returns       []returnRecord `json:"returns"`
}

// MarshalJSON encodes the combined weights from the first rebalance onward and the per-period
// returns, exposure and cost
func (r *Result) MarshalJSON() ([]byte, error) {
	rec := resultRecord{
		Fingerprint:  r.Fingerprint,
		NonConverged: r.NonConverged,
		TotalReturn:  r.TotalReturn(),
		Weights:      []weightRecord{},
		Returns:      make([]returnRecord, 0, r.NetReturns.Len()),
	}

	if !r.FirstEligible.IsZero() {
		rec.FirstEligible = r.FirstEligible.Format(time.DateOnly)
		held := r.Weights.Trim(r.FirstEligible, r.Weights.End())
		rec.Weights = make([]weightRecord, 0, held.Len())
		for rowIdx, dt := range held.Dates {
			rec.Weights = append(rec.Weights, weightRecord{
				Date:    dt.Format(time.DateOnly),
				Weights: rowMap(held.ColNames, held.Row(rowIdx)),
			})
		}
	}

	offset := len(r.Costs) - r.NetReturns.Len()
	for rowIdx, dt := range r.NetReturns.Dates {
		rec.Returns = append(rec.Returns, returnRecord{
			Date:         dt.Format(time.DateOnly),
			NetReturn:    r.NetReturns.Vals[0][rowIdx],
			Exposure:     r.Multipliers[offset+rowIdx],
			Cost:         r.Costs[offset+rowIdx],
			AssetReturns: rowMap(r.AssetReturns.ColNames, r.AssetReturns.Row(rowIdx)),
		})
	}

	return json.Marshal(rec)
}

func rowMap(names []string, vals []float64) map[string]float64 {
	res := make(map[string]float64, len(names))
	for idx, name := range names {
		res[name] = vals[idx]
	}
	return res
}
