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
	"time"

	"gonum.org/v1/gonum/floats"
)

// PctChange computes the period-over-period relative change of every column and returns a new dataframe
// that is one row shorter than df (the first row has no prior value and is dropped)
func (df *DataFrame) PctChange() *DataFrame {
	if df.Len() < 2 {
		return &DataFrame{
			Dates:    []time.Time{},
			ColNames: df.ColNames,
			Vals:     make([][]float64, len(df.ColNames)),
		}
	}

	res := &DataFrame{
		Dates:    make([]time.Time, df.Len()-1),
		ColNames: make([]string, len(df.ColNames)),
		Vals:     make([][]float64, len(df.Vals)),
	}
	copy(res.Dates, df.Dates[1:])
	copy(res.ColNames, df.ColNames)

	for colIdx, col := range df.Vals {
		res.Vals[colIdx] = make([]float64, len(col)-1)
		copy(res.Vals[colIdx], col[1:])
		floats.Div(res.Vals[colIdx], col[:len(col)-1])
		floats.AddConst(-1.0, res.Vals[colIdx])
	}

	return res
}

// Mul multiplies all columns in dataframe df by the corresponding column in dataframe other and returns a new dataframe
// panics if rows are not equal.
func (df *DataFrame) Mul(other *DataFrame) *DataFrame {
	df = df.Copy()

	otherMap := make(map[string]int, len(other.ColNames))
	for idx, val := range other.ColNames {
		otherMap[val] = idx
	}

	for idx, colName := range df.ColNames {
		if otherIdx, ok := otherMap[colName]; ok {
			floats.Mul(df.Vals[idx], other.Vals[otherIdx])
		}
	}
	return df
}

// MulRows scales each row of df by the corresponding entry of vec and returns a new dataframe
// panics if len(vec) does not equal the number of rows.
func (df *DataFrame) MulRows(vec []float64) *DataFrame {
	df = df.Copy()
	for colIdx := range df.Vals {
		floats.Mul(df.Vals[colIdx], vec)
	}
	return df
}

// SumRows adds all columns of each row together and stores the result in a new single column dataframe
func (df *DataFrame) SumRows(name string) *DataFrame {
	res := &DataFrame{
		Dates:    df.Dates,
		ColNames: []string{name},
		Vals:     [][]float64{make([]float64, df.Len())},
	}

	for _, col := range df.Vals {
		floats.Add(res.Vals[0], col)
	}

	return res
}
