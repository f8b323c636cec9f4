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

// Package rolling computes trailing-window statistics of asset returns that feed the
// cross-sectional allocators. Every statistic is annualized by the window length, which
// doubles as the scaling period.
package rolling

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/penny-vault/pv-allocate/dataframe"
	"github.com/penny-vault/pv-allocate/observability/opentelemetry"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrInvalidWindow = errors.New("window must be at least 2")
)

// Snapshot holds the statistics of every asset as of the close of Date, computed from the
// trailing window of returns ending at (and including) Row of the return table
type Snapshot struct {
	Date           time.Time
	Row            int
	ExpectedReturn []float64
	Volatility     []float64
	Covariance     *mat.SymDense
}

// Eligible returns true when the return row has a full trailing window
func Eligible(row, window int) bool {
	return row+1 >= window
}

// FirstEligible returns the index of the first return row with a full trailing window
func FirstEligible(window int) int {
	return window - 1
}

// Estimate computes a snapshot for every eligible row of returns. Rows without a full
// window produce no snapshot. Snapshots are returned in date order
func Estimate(ctx context.Context, returns *dataframe.DataFrame, window int) ([]*Snapshot, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "rolling.Estimate")
	defer span.End()

	if window < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWindow, window)
	}

	span.SetAttributes(
		attribute.Int("Window", window),
		attribute.Int("NumAssets", returns.ColCount()),
		attribute.Int("NumRows", returns.Len()),
	)

	first := FirstEligible(window)
	if returns.Len() <= first || returns.ColCount() == 0 {
		log.Debug().Int("Window", window).Int("NumRows", returns.Len()).Msg("insufficient history for rolling statistics")
		return []*Snapshot{}, nil
	}

	snapshots := make([]*Snapshot, returns.Len()-first)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for idx := range snapshots {
		idx := idx
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			snapshots[idx] = Compute(returns, first+idx, window)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return snapshots, nil
}

// Compute builds the snapshot for a single row of returns; row must be eligible
func Compute(returns *dataframe.DataFrame, row, window int) *Snapshot {
	numAssets := returns.ColCount()
	begin := row - window + 1
	scale := float64(window)

	// observations are rows, assets are columns
	obs := mat.NewDense(window, numAssets, nil)
	for colIdx, col := range returns.Vals {
		obs.SetCol(colIdx, col[begin:row+1])
	}

	snap := &Snapshot{
		Date:           returns.Dates[row],
		Row:            row,
		ExpectedReturn: make([]float64, numAssets),
		Volatility:     make([]float64, numAssets),
		Covariance:     &mat.SymDense{},
	}

	for colIdx, col := range returns.Vals {
		snap.ExpectedReturn[colIdx] = col[row] * scale
		snap.Volatility[colIdx] = stat.StdDev(col[begin:row+1], nil) * math.Sqrt(scale)
	}

	stat.CovarianceMatrix(snap.Covariance, obs, nil)
	snap.Covariance.ScaleSym(scale, snap.Covariance)

	return snap
}

// NumAssets returns the number of assets described by the snapshot
func (snap *Snapshot) NumAssets() int {
	return len(snap.Volatility)
}
