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

	"github.com/penny-vault/pv-allocate/catalog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(strategiesCmd)
}

var strategiesCmd = &cobra.Command{
	Use:   "strategies [shortcode]",
	Short: "List the available allocation strategies and overlays",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cat, err := catalog.Load()
		if err != nil {
			os.Exit(1)
		}

		if len(args) == 1 {
			info, err := cat.Lookup(args[0])
			if err != nil {
				log.Error().Err(err).Msg("lookup failed")
				os.Exit(1)
			}
			fmt.Printf("%s (%s)\n\n%s\n", info.Name, info.Shortcode, info.Description)
			return
		}

		fmt.Print(cat.Table())
	},
}
