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
	"fmt"
	"os"

	"github.com/penny-vault/pv-allocate/backtest"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective backtest configuration as TOML",
	Long: `Print the backtest configuration after applying defaults, config.toml,
environment variables and flags. The output can be saved as config.toml.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := backtest.ConfigFromViper()
		if err != nil {
			log.Error().Err(err).Msg("invalid configuration")
			os.Exit(1)
		}

		doc, err := cfg.TOML()
		if err != nil {
			log.Error().Err(err).Msg("could not encode configuration")
			os.Exit(1)
		}

		fmt.Print(string(doc))
	},
}
