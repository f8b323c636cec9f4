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

package dataframe

import (
	"fmt"
	"math"
	"time"
)

// FFill replaces NaN values with the most recent non-NaN value in the same column. Leading NaNs
// are left untouched. Returns a new dataframe
func (df *DataFrame) FFill() *DataFrame {
	df = df.Copy()
	for _, col := range df.Vals {
		last := math.NaN()
		for rowIdx, val := range col {
			if math.IsNaN(val) {
				col[rowIdx] = last
			} else {
				last = val
			}
		}
	}
	return df
}

// Resample keeps the last row of every period of the requested frequency, e.g. the last trading
// day of each week for Weekly. Returns a new dataframe
func (df *DataFrame) Resample(frequency Frequency) (*DataFrame, error) {
	var periodKey func(time.Time) int

	switch frequency {
	case Daily:
		return df.Copy(), nil
	case Weekly:
		periodKey = func(dt time.Time) int {
			year, week := dt.ISOWeek()
			return year*100 + week
		}
	case Monthly:
		periodKey = func(dt time.Time) int {
			return dt.Year()*100 + int(dt.Month())
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFrequency, frequency)
	}

	res := &DataFrame{
		Dates:    make([]time.Time, 0, df.Len()),
		ColNames: df.ColNames,
		Vals:     make([][]float64, len(df.Vals)),
	}

	for rowIdx, rowDate := range df.Dates {
		isLast := rowIdx == len(df.Dates)-1 || periodKey(df.Dates[rowIdx+1]) != periodKey(rowDate)
		if !isLast {
			continue
		}

		res.Dates = append(res.Dates, rowDate)
		for colIdx, col := range df.Vals {
			res.Vals[colIdx] = append(res.Vals[colIdx], col[rowIdx])
		}
	}

	return res, nil
}
