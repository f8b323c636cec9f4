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
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
)

// New creates a dataframe with the given date index and column names where every value is initialized to zero
func New(dates []time.Time, colNames ...string) *DataFrame {
	df := &DataFrame{
		Dates:    dates,
		ColNames: colNames,
		Vals:     make([][]float64, len(colNames)),
	}

	for idx := range df.Vals {
		df.Vals[idx] = make([]float64, len(dates))
	}

	return df
}

// Validate checks the structural invariants of the dataframe: dates are strictly increasing,
// column names are unique and every column has one value per date
func (df *DataFrame) Validate() error {
	for idx := 1; idx < len(df.Dates); idx++ {
		if !df.Dates[idx-1].Before(df.Dates[idx]) {
			return fmt.Errorf("%w: %s is not after %s", ErrDatesNotIncreasing,
				df.Dates[idx].Format("2006-01-02"), df.Dates[idx-1].Format("2006-01-02"))
		}
	}

	seen := make(map[string]bool, len(df.ColNames))
	for _, name := range df.ColNames {
		if seen[name] {
			return fmt.Errorf("%w: %s", ErrDuplicateColumn, name)
		}
		seen[name] = true
	}

	if len(df.Vals) != len(df.ColNames) {
		return fmt.Errorf("%w: %d columns named but %d present", ErrColumnLength, len(df.ColNames), len(df.Vals))
	}

	for colIdx, col := range df.Vals {
		if len(col) != len(df.Dates) {
			return fmt.Errorf("%w: column %s has %d values for %d dates", ErrColumnLength, df.ColNames[colIdx], len(col), len(df.Dates))
		}
	}

	return nil
}

// AlignedWith returns true if both dataframes share the same date index and column names
func (df *DataFrame) AlignedWith(other *DataFrame) bool {
	if len(df.Dates) != len(other.Dates) || len(df.ColNames) != len(other.ColNames) {
		return false
	}

	for idx := range df.Dates {
		if !df.Dates[idx].Equal(other.Dates[idx]) {
			return false
		}
	}

	for idx := range df.ColNames {
		if df.ColNames[idx] != other.ColNames[idx] {
			return false
		}
	}

	return true
}

// Get index of specified column; returns -1 if column doesn't exist
func (df *DataFrame) ColIndex(colName string) int {
	for idx, val := range df.ColNames {
		if colName == val {
			return idx
		}
	}

	return -1
}

// ColCount returns the number of columns in the dataframe
func (df *DataFrame) ColCount() int {
	return len(df.ColNames)
}

// Copy creates a copy of the dataframe
func (df *DataFrame) Copy() *DataFrame {
	df2 := &DataFrame{
		ColNames: make([]string, len(df.ColNames)),
		Dates:    make([]time.Time, len(df.Dates)),
		Vals:     make([][]float64, len(df.Vals)),
	}

	copy(df2.ColNames, df.ColNames)
	copy(df2.Dates, df.Dates)

	for idx := range df2.Vals {
		df2.Vals[idx] = make([]float64, len(df.Vals[idx]))
		copy(df2.Vals[idx], df.Vals[idx])
	}

	return df2
}

// Drop removes rows that contain the value `val` from the dataframe
func (df *DataFrame) Drop(val float64) *DataFrame {
	isNA := math.IsNaN(val)
	newVals := make([][]float64, len(df.Vals))
	newDates := make([]time.Time, 0, len(df.Dates))

	for rowIdx, rowDate := range df.Dates {
		keep := true
		for _, col := range df.Vals {
			rowVal := col[rowIdx]
			keep = keep && !(rowVal == val || (isNA && math.IsNaN(rowVal)))
			if !keep {
				break
			}
		}

		if keep {
			newDates = append(newDates, rowDate)
			for colIdx, col := range df.Vals {
				newVals[colIdx] = append(newVals[colIdx], col[rowIdx])
			}
		}
	}

	df.Vals = newVals
	df.Dates = newDates
	return df
}

// End returns the last time in the DataFrame
func (df *DataFrame) End() time.Time {
	if len(df.Dates) == 0 {
		return time.Time{}
	}
	return df.Dates[len(df.Dates)-1]
}

// InsertRow adds a new row to the dataframe. Date must be after the last date in the dataframe and vals must equal the number
// of columns. If either of these conditions are not met then panic
func (df *DataFrame) InsertRow(date time.Time, vals ...float64) *DataFrame {
	// Check that the last date in the dataframe is prior to the new date
	if len(df.Dates) != 0 {
		last := df.Dates[len(df.Dates)-1]
		if !last.Before(date) {
			log.Panic().Time("lastDate", last).Time("newDate", date).Msg("newDate must be after lastDate")
		}
	}

	// Check that the number of columns equals the number of vals passed
	if len(vals) != len(df.ColNames) {
		log.Panic().Int("NumValsPassed", len(vals)).Int("NumColumns", len(df.ColNames)).Msg("number of vals passed must equal number of columns")
	}

	if len(df.Vals) != len(df.ColNames) {
		df.Vals = make([][]float64, len(df.ColNames))
	}

	df.Dates = append(df.Dates, date)
	for colIdx := range df.ColNames {
		df.Vals[colIdx] = append(df.Vals[colIdx], vals[colIdx])
	}

	return df
}

// Lag shifts the dataframe by the specified number of rows, replacing shifted values by `fill` and returns a new dataframe
func (df *DataFrame) Lag(n int, fill float64) *DataFrame {
	df = df.Copy()
	for idx := range df.Vals {
		l := len(df.Vals[idx])
		shifted := make([]float64, l)
		for rowIdx := range shifted {
			if rowIdx < n {
				shifted[rowIdx] = fill
			} else {
				shifted[rowIdx] = df.Vals[idx][rowIdx-n]
			}
		}
		df.Vals[idx] = shifted
	}
	return df
}

// Last returns a new dataframe with only the last item of the current dataframe
func (df *DataFrame) Last() *DataFrame {
	if df.Len() == 0 {
		return df
	}

	lastVals := make([][]float64, len(df.ColNames))
	lastRow := len(df.Dates) - 1
	for idx, col := range df.Vals {
		lastVals[idx] = []float64{col[lastRow]}
	}

	return &DataFrame{
		ColNames: df.ColNames,
		Dates:    []time.Time{df.Dates[lastRow]},
		Vals:     lastVals,
	}
}

// Len returns the number of rows in the dataframe
func (df *DataFrame) Len() int {
	return len(df.Dates)
}

// Row returns a copy of the values in row `rowIdx` ordered by column
func (df *DataFrame) Row(rowIdx int) []float64 {
	row := make([]float64, len(df.Vals))
	for colIdx, col := range df.Vals {
		row[colIdx] = col[rowIdx]
	}
	return row
}

// SetRow overwrites the values in row `rowIdx`; panics if len(vals) does not match the number of columns
func (df *DataFrame) SetRow(rowIdx int, vals []float64) {
	if len(vals) != len(df.Vals) {
		log.Panic().Int("NumValsPassed", len(vals)).Int("NumColumns", len(df.Vals)).Msg("number of vals passed must equal number of columns")
	}
	for colIdx, col := range df.Vals {
		col[rowIdx] = vals[colIdx]
	}
}

// Start returns the first date of the dataframe
func (df *DataFrame) Start() time.Time {
	if len(df.Dates) == 0 {
		return time.Time{}
	}
	return df.Dates[0]
}

// Table prints an ASCII formatted table to stdout
func (df *DataFrame) Table() string {
	if len(df.Dates) == 0 {
		return "<NO DATA>" // nothing to do as there is no data available in the dataframe
	}

	// construct table header
	tableCols := append([]string{"Date"}, df.ColNames...)

	// initialize table
	s := &strings.Builder{}
	table := tablewriter.NewWriter(s)
	table.SetHeader(tableCols)
	footer := make([]string, len(tableCols))
	footer[0] = "Num Rows"
	if len(footer) > 1 {
		footer[1] = fmt.Sprintf("%d", df.Len())
	}
	table.SetFooter(footer)
	table.SetBorder(false)

	for rowIdx, rowDate := range df.Dates {
		row := make([]string, 0, len(df.Vals)+1)
		row = append(row, rowDate.Format("2006-01-02"))
		for _, col := range df.Vals {
			row = append(row, fmt.Sprintf("%.4f", col[rowIdx]))
		}
		table.Append(row)
	}

	table.Render()
	return s.String()
}

// Trim the dataframe to the specified date range (inclusive)
func (df *DataFrame) Trim(begin, end time.Time) *DataFrame {
	df2 := &DataFrame{
		ColNames: df.ColNames,
		Dates:    df.Dates,
		Vals:     make([][]float64, len(df.Vals)),
	}
	copy(df2.Vals, df.Vals)

	// special case 0: requested range is invalid
	// special case 1: data frame is empty
	// special case 2: range does not overlap the dataframe
	if end.Before(begin) || df.Len() == 0 || end.Before(df.Start()) || begin.After(df.End()) {
		df2.Dates = []time.Time{}
		for colIdx := range df2.Vals {
			df2.Vals[colIdx] = []float64{}
		}
		return df2
	}

	// Use binary search to find the index corresponding to the start and end times
	beginIdx := sort.Search(len(df.Dates), func(i int) bool {
		return !df.Dates[i].Before(begin)
	})

	endIdx := sort.Search(len(df.Dates), func(i int) bool {
		return df.Dates[i].After(end)
	})

	df2.Dates = df.Dates[beginIdx:endIdx]
	for colIdx, col := range df.Vals {
		df2.Vals[colIdx] = col[beginIdx:endIdx]
	}

	return df2
}

// TrimRows returns a view of the dataframe restricted to rows [begin, end)
func (df *DataFrame) TrimRows(begin, end int) *DataFrame {
	df2 := &DataFrame{
		ColNames: df.ColNames,
		Dates:    df.Dates[begin:end],
		Vals:     make([][]float64, len(df.Vals)),
	}
	for colIdx, col := range df.Vals {
		df2.Vals[colIdx] = col[begin:end]
	}
	return df2
}
