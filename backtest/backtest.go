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

// Package backtest sequences the rolling estimator, the cross-sectional allocator, the risk
// overlay and the transaction cost model over a price history without lookahead: weights
// decided at the close of t earn the return realized at t+1.
package backtest

import (
	"context"
	"runtime"
	"time"

	"github.com/penny-vault/pv-allocate/allocator"
	"github.com/penny-vault/pv-allocate/cost"
	"github.com/penny-vault/pv-allocate/dataframe"
	"github.com/penny-vault/pv-allocate/observability/opentelemetry"
	"github.com/penny-vault/pv-allocate/overlay"
	"github.com/penny-vault/pv-allocate/rolling"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// Run backtests cfg over prices. The configuration is validated before any computation begins.
// A nil cfg runs DefaultConfig
func Run(ctx context.Context, prices *dataframe.DataFrame, cfg *Config) (*Result, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "backtest.Run")
	defer span.End()

	if cfg == nil {
		cfg = DefaultConfig()
	}

	if err := cfg.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid configuration")
		return nil, err
	}

	if prices == nil || prices.Len() < 2 || prices.ColCount() == 0 {
		span.SetStatus(codes.Error, "no prices")
		return nil, ErrNoPrices
	}

	if err := prices.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid price table")
		return nil, err
	}

	span.SetAttributes(
		attribute.String("CrossSectional", cfg.CrossSectional.String()),
		attribute.String("Overlay", cfg.Overlay.String()),
		attribute.Int("Window", cfg.Window),
		attribute.Int("NumAssets", prices.ColCount()),
		attribute.Int("NumDates", prices.Len()),
	)

	subLog := log.With().Str("CrossSectional", cfg.CrossSectional.String()).Str("Overlay", cfg.Overlay.String()).Logger()

	start := time.Now()
	returns := prices.PctChange()
	snapshots, err := rolling.Estimate(ctx, returns, cfg.Window)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rolling estimate failed")
		return nil, err
	}
	estimateDur := time.Since(start).Round(time.Millisecond)

	start = time.Now()
	weights, nonConverged, err := allocate(ctx, returns, snapshots, cfg.CrossSectional)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "allocation failed")
		return nil, err
	}
	allocateDur := time.Since(start).Round(time.Millisecond)

	firstEligible := returns.Len()
	if len(snapshots) > 0 {
		firstEligible = snapshots[0].Row
	} else {
		subLog.Warn().Int("Window", cfg.Window).Int("NumReturns", returns.Len()).Msg("price history is shorter than the window; no rebalance dates")
	}

	// m[t] only sees portfolio returns through t-1, so scaling w[t] by it never looks ahead
	portReturns := CrossSectionalReturns(weights, returns)
	multipliers, err := overlay.Multipliers(cfg.Overlay, portReturns, cfg.OverlayParams())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "overlay failed")
		return nil, err
	}
	combined := weights.MulRows(multipliers)

	costs, err := cost.Compute(combined, returns, cfg.CostRate, firstEligible)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transaction cost failed")
		return nil, err
	}

	assetReturns := combined.Lag(1, 0).Mul(returns)
	netReturns := assetReturns.SumRows("Net")
	floats.Sub(netReturns.Vals[0], costs)

	trimStart := firstEligible + 1
	if trimStart > returns.Len() {
		trimStart = returns.Len()
	}

	result := &Result{
		Weights:               combined,
		CrossSectionalWeights: weights,
		AssetReturns:          assetReturns.TrimRows(trimStart, returns.Len()),
		NetReturns:            netReturns.TrimRows(trimStart, returns.Len()),
		Multipliers:           multipliers,
		Costs:                 costs,
		NonConverged:          nonConverged,
	}

	if firstEligible < returns.Len() {
		result.FirstEligible = returns.Dates[firstEligible]
	}

	result.Fingerprint, err = computeFingerprint(prices, cfg)
	if err != nil {
		// not fatal
		subLog.Warn().Err(err).Msg("could not compute run fingerprint")
	}

	subLog.Info().
		Dur("EstimateDur", estimateDur).
		Dur("AllocateDur", allocateDur).
		Int("NumRebalances", len(snapshots)).
		Int("NonConverged", nonConverged).
		Msg("backtest complete")

	return result, nil
}

// allocate calls the cross-sectional allocator for every snapshot in parallel and assembles the
// weight history over the return dates. Rows without a snapshot are zero
func allocate(ctx context.Context, returns *dataframe.DataFrame, snapshots []*rolling.Snapshot, strategy allocator.Strategy) (*dataframe.DataFrame, int, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "backtest.allocate")
	defer span.End()

	fn, err := strategy.Func()
	if err != nil {
		span.RecordError(err)
		return nil, 0, err
	}

	weights := dataframe.New(returns.Dates, returns.ColNames...)
	results := make([]allocator.Result, len(snapshots))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for idx, snap := range snapshots {
		idx, snap := idx, snap
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[idx] = fn(snap)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	nonConverged := 0
	for idx, snap := range snapshots {
		if !results[idx].Converged {
			nonConverged++
		}
		weights.SetRow(snap.Row, allocator.ClampToSimplex(results[idx].Weights))
	}

	span.SetAttributes(attribute.Int("NonConverged", nonConverged))

	return weights, nonConverged, nil
}

// CrossSectionalReturns is the return of holding weights chosen at t-1 over period t. The first
// period has no prior weights and returns zero
func CrossSectionalReturns(weights, returns *dataframe.DataFrame) []float64 {
	return weights.Lag(1, 0).Mul(returns).SumRows("CrossSectional").Vals[0]
}
