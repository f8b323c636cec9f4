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
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const dateLayout = "2006-01-02"

// ReadCSV parses a price table of the form:
//
//	date,SPY,TLT
//	2021-01-04,368.79,163.03
//
// Empty cells are read as NaN. The resulting dataframe is validated before it is returned
func ReadCSV(r io.Reader) (*DataFrame, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: could not read header: %s", ErrMalformedCSV, err.Error())
	}

	if len(header) < 2 {
		return nil, fmt.Errorf("%w: header must contain a date column and at least one asset", ErrMalformedCSV)
	}

	df := &DataFrame{
		Dates:    []time.Time{},
		ColNames: make([]string, 0, len(header)-1),
		Vals:     make([][]float64, len(header)-1),
	}

	for _, name := range header[1:] {
		name = strings.TrimSpace(name)
		if df.ColIndex(name) >= 0 {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateColumn, name)
		}
		df.ColNames = append(df.ColNames, name)
	}

	lineNum := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		lineNum++
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %s", ErrMalformedCSV, lineNum, err.Error())
		}

		dt, err := time.Parse(dateLayout, strings.TrimSpace(record[0]))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: invalid date %q", ErrMalformedCSV, lineNum, record[0])
		}

		// InsertRow panics on out of order dates
		if !df.End().IsZero() && !df.End().Before(dt) {
			return nil, fmt.Errorf("%w: line %d: %s is not after %s", ErrDatesNotIncreasing, lineNum,
				dt.Format(dateLayout), df.End().Format(dateLayout))
		}

		vals := make([]float64, len(df.ColNames))
		for colIdx, cell := range record[1:] {
			cell = strings.TrimSpace(cell)
			vals[colIdx] = math.NaN()
			if cell != "" {
				vals[colIdx], err = strconv.ParseFloat(cell, 64)
				if err != nil {
					return nil, fmt.Errorf("%w: line %d: invalid value %q for %s", ErrMalformedCSV, lineNum, cell, df.ColNames[colIdx])
				}
			}
		}

		df.InsertRow(dt, vals...)
	}

	if err := df.Validate(); err != nil {
		return nil, err
	}

	log.Debug().Int("NumRows", df.Len()).Strs("Assets", df.ColNames).Msg("read price table")

	return df, nil
}

// WriteCSV writes the dataframe in the same layout accepted by ReadCSV
func (df *DataFrame) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)

	header := append([]string{"date"}, df.ColNames...)
	if err := writer.Write(header); err != nil {
		return err
	}

	for rowIdx, rowDate := range df.Dates {
		record := make([]string, 0, len(df.Vals)+1)
		record = append(record, rowDate.Format(dateLayout))
		for _, col := range df.Vals {
			if math.IsNaN(col[rowIdx]) {
				record = append(record, "")
			} else {
				record = append(record, strconv.FormatFloat(col[rowIdx], 'g', -1, 64))
			}
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
