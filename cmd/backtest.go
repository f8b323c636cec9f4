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

package cmd

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"runtime/pprof"
	"runtime/trace"
	"strings"

	"github.com/goccy/go-json"
	"github.com/penny-vault/pv-allocate/allocator"
	"github.com/penny-vault/pv-allocate/backtest"
	"github.com/penny-vault/pv-allocate/common"
	"github.com/penny-vault/pv-allocate/dataframe"
	"github.com/penny-vault/pv-allocate/observability/opentelemetry"
	"github.com/penny-vault/pv-allocate/overlay"
	"github.com/rs/zerolog/log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	backtestFormat   string
	backtestOutput   string
	backtestCompress bool
)

func init() {
	backtest.SetDefaults()
	defaults := backtest.DefaultConfig()

	viper.BindEnv("window", "PVA_WINDOW")
	backtestCmd.Flags().IntP("window", "w", defaults.Window, "Rolling window length; also the annualization period")
	viper.BindPFlag("window", backtestCmd.Flags().Lookup("window"))

	viper.BindEnv("cross_sectional_strategy", "PVA_CROSS_SECTIONAL_STRATEGY")
	backtestCmd.Flags().StringP("strategy", "s", defaults.CrossSectional.String(), fmt.Sprintf("Cross-sectional strategy, one of: %s", strategyNames()))
	viper.BindPFlag("cross_sectional_strategy", backtestCmd.Flags().Lookup("strategy"))

	viper.BindEnv("overlay_strategy", "PVA_OVERLAY_STRATEGY")
	backtestCmd.Flags().String("overlay", defaults.Overlay.String(), fmt.Sprintf("Risk overlay, one of: %s", overlayNames()))
	viper.BindPFlag("overlay_strategy", backtestCmd.Flags().Lookup("overlay"))

	viper.BindEnv("cost_rate", "PVA_COST_RATE")
	backtestCmd.Flags().Float64("cost-rate", defaults.CostRate, "Transaction cost per unit of turnover")
	viper.BindPFlag("cost_rate", backtestCmd.Flags().Lookup("cost-rate"))

	viper.BindEnv("vol_target", "PVA_VOL_TARGET")
	backtestCmd.Flags().Float64("vol-target", defaults.VolTarget, "Annualized volatility target of the VT overlay")
	viper.BindPFlag("vol_target", backtestCmd.Flags().Lookup("vol-target"))

	viper.BindEnv("cvar_target", "PVA_CVAR_TARGET")
	backtestCmd.Flags().Float64("cvar-target", defaults.CVaRTarget, "CVaR target of the CVT overlay")
	viper.BindPFlag("cvar_target", backtestCmd.Flags().Lookup("cvar-target"))

	viper.BindEnv("cvar_delta", "PVA_CVAR_DELTA")
	backtestCmd.Flags().Float64("cvar-delta", defaults.CVaRDelta, "Tail probability used by the CVT overlay")
	viper.BindPFlag("cvar_delta", backtestCmd.Flags().Lookup("cvar-delta"))

	viper.BindEnv("resample", "PVA_RESAMPLE")
	backtestCmd.Flags().String("resample", "none", "Rebalance frequency applied to the price table, one of: none, daily, weekly, monthly")
	viper.BindPFlag("resample", backtestCmd.Flags().Lookup("resample"))

	backtestCmd.Flags().StringVar(&backtestFormat, "format", "table", "Output format, one of: table, json")
	backtestCmd.Flags().StringVar(&backtestOutput, "output", "", "Write results to file instead of stdout")
	backtestCmd.Flags().BoolVar(&backtestCompress, "compress", false, "Compress output with lz4")

	rootCmd.AddCommand(backtestCmd)
}

var backtestCmd = &cobra.Command{
	Use:        "backtest [flags] PriceFile",
	Short:      "Run a backtest over a CSV price table",
	Long:       `Run a backtest over a CSV price table with a header row of the form "date,ASSET1,ASSET2,..." and dates formatted as YYYY-MM-DD`,
	Args:       cobra.ExactArgs(1),
	ArgAliases: []string{"PriceFile"},
	Run: func(cmd *cobra.Command, args []string) {
		if Profile {
			f, err := os.Create("profile.out")
			if err != nil {
				log.Fatal().Err(err).Msg("could not create profile output file")
			}
			if err := pprof.StartCPUProfile(f); err != nil {
				log.Fatal().Err(err).Msg("could not start cpu profile")
			}
			defer pprof.StopCPUProfile()
		}

		if Trace {
			f, err := os.Create("trace.out")
			if err != nil {
				log.Fatal().Err(err).Msg("failed to create trace output file")
			}
			defer func() {
				if err := f.Close(); err != nil {
					log.Fatal().Err(err).Msg("failed to close trace file")
				}
			}()

			if err := trace.Start(f); err != nil {
				log.Fatal().Err(err).Msg("failed to start trace")
			}
			defer trace.Stop()
		}

		logCloser, err := common.SetupLogging()
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not setup logging: %s\n", err)
			os.Exit(1)
		}
		defer logCloser.Close()

		ctx := context.Background()
		shutdown, err := opentelemetry.Setup()
		if err != nil {
			log.Error().Stack().Err(err).Msg("could not setup tracing")
		} else {
			defer func() {
				if err := shutdown(ctx); err != nil {
					log.Error().Stack().Err(err).Msg("could not flush traces")
				}
			}()
		}

		cfg, err := backtest.ConfigFromViper()
		if err != nil {
			log.Error().Stack().Err(err).Msg("invalid configuration")
			return
		}

		prices, err := loadPrices(args[0], viper.GetString("resample"))
		if err != nil {
			log.Error().Stack().Err(err).Str("PriceFile", args[0]).Msg("could not load prices")
			return
		}

		result, err := backtest.Run(ctx, prices, cfg)
		if err != nil {
			log.Error().Stack().Err(err).Object("Config", cfg).Msg("backtest failed")
			return
		}

		log.Info().Object("Config", cfg).Object("Result", result).Msg("backtest finished")

		if err := writeResult(result); err != nil {
			log.Error().Stack().Err(err).Msg("could not write results")
		}
	},
}

// loadPrices reads the CSV price table, forward fills missing prices and keeps only the period
// end rows of the requested frequency. Rows that are still missing a price for any asset (before
// it started trading) are dropped
func loadPrices(fn string, frequency string) (*dataframe.DataFrame, error) {
	fh, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	prices, err := dataframe.ReadCSV(fh)
	if err != nil {
		return nil, err
	}

	prices = prices.FFill()

	switch strings.ToLower(frequency) {
	case "", "none":
	case "daily":
		prices, err = prices.Resample(dataframe.Daily)
	case "weekly":
		prices, err = prices.Resample(dataframe.Weekly)
	case "monthly":
		prices, err = prices.Resample(dataframe.Monthly)
	default:
		err = fmt.Errorf("%w: %s", dataframe.ErrUnknownFrequency, frequency)
	}
	if err != nil {
		return nil, err
	}

	prices = prices.Drop(math.NaN())

	log.Debug().Int("NumRows", prices.Len()).Time("Start", prices.Start()).Time("End", prices.End()).Msg("loaded prices")
	return prices, nil
}

func writeResult(result *backtest.Result) error {
	var out io.Writer = os.Stdout
	if backtestOutput != "" {
		fh, err := os.Create(backtestOutput)
		if err != nil {
			return err
		}
		defer fh.Close()
		out = fh
	}

	if backtestCompress {
		zw, err := common.NewCompressedWriter(out)
		if err != nil {
			return err
		}
		defer zw.Close()
		out = zw
	}

	switch backtestFormat {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	case "table":
		held := result.Weights
		if !result.FirstEligible.IsZero() {
			held = held.Trim(result.FirstEligible, held.End())
		}
		_, err := fmt.Fprintf(out, "Combined Weights\n\n%s\nAsset Returns\n\n%s\nNet Returns\n\n%s\nCurrent Allocation\n\n%s\nFingerprint: %s\nNon-converged rebalances: %d\n",
			held.Table(), result.AssetReturns.Table(), result.Table(), result.Weights.Last().Table(), result.Fingerprint, result.NonConverged)
		return err
	default:
		return fmt.Errorf("unknown output format %q", backtestFormat)
	}
}

func strategyNames() string {
	names := make([]string, len(allocator.Strategies))
	for idx, s := range allocator.Strategies {
		names[idx] = s.String()
	}
	return strings.Join(names, ", ")
}

func overlayNames() string {
	names := make([]string, len(overlay.Strategies))
	for idx, s := range overlay.Strategies {
		names[idx] = s.String()
	}
	return strings.Join(names, ", ")
}
