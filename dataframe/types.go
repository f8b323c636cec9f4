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
	"errors"
	"time"
)

// DataFrame stores a table of values organized by date
// the vals array is column major - e.g.,
// SPY  TLT
// 1    4
// 2    5
// 3    6
//
// Vals[0][0] = 1
// Vals[0][1] = 2
type DataFrame struct {
	Dates    []time.Time
	ColNames []string
	Vals     [][]float64
}

// Frequency defines the period used when resampling a dataframe
type Frequency string

const (
	Daily   Frequency = "Daily"
	Weekly  Frequency = "WeekEnd"
	Monthly Frequency = "MonthEnd"
)

var (
	ErrDateIndexNotAligned = errors.New("date index does not align")
	ErrDatesNotIncreasing  = errors.New("dates must be strictly increasing")
	ErrDuplicateColumn     = errors.New("duplicate column name")
	ErrColumnLength        = errors.New("column length does not match date index")
	ErrMalformedCSV        = errors.New("malformed csv")
	ErrUnknownFrequency    = errors.New("unknown frequency")
)
