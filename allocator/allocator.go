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

// Package allocator implements the cross-sectional weighting rules. Every allocator is a pure
// function of a rolling snapshot that returns long-only, fully invested weights.
package allocator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/penny-vault/pv-allocate/rolling"
	"github.com/rs/zerolog/log"
)

// Strategy identifies a cross-sectional weighting rule
type Strategy string

const (
	EW  Strategy = "EW"
	MSR Strategy = "MSR"
	GMV Strategy = "GMV"
	MDP Strategy = "MDP"
	RP  Strategy = "RP"
	EMV Strategy = "EMV"
)

var (
	ErrUnknownStrategy = errors.New("unknown cross-sectional strategy")
)

// Strategies lists every supported rule in display order
var Strategies = []Strategy{EW, MSR, GMV, MDP, RP, EMV}

// Result is the outcome of allocating a single date
type Result struct {
	Weights   []float64
	Converged bool
	Status    string
}

// Func computes weights for the snapshot
type Func func(snap *rolling.Snapshot) Result

var funcs = map[Strategy]Func{
	EW:  EqualWeight,
	MSR: MaxSharpe,
	GMV: MinVariance,
	MDP: MaxDiversification,
	RP:  RiskParity,
	EMV: EqualVolatility,
}

// Parse converts a case-insensitive strategy name into a Strategy
func Parse(name string) (Strategy, error) {
	strategy := Strategy(strings.ToUpper(strings.TrimSpace(name)))
	if _, ok := funcs[strategy]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
	return strategy, nil
}

func (s Strategy) String() string {
	return string(s)
}

// Func returns the allocator for the strategy. Non-converged optimizations are logged
// and returned as-is so the caller can count them. Strategies must come from Parse; any
// other value is ErrUnknownStrategy
func (s Strategy) Func() (Func, error) {
	fn, ok := funcs[s]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, string(s))
	}

	return func(snap *rolling.Snapshot) Result {
		res := fn(snap)
		if !res.Converged {
			log.Warn().Time("Date", snap.Date).Str("Strategy", string(s)).Str("Status", res.Status).Msg("optimizer did not converge; using best iterate")
		}
		return res
	}, nil
}
