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

package backtest

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"

	"github.com/penny-vault/pv-allocate/dataframe"
	"github.com/rs/zerolog/log"
	"github.com/zeebo/blake3"
)

// computeFingerprint hashes the configuration and price table so that two runs with the same
// inputs can be recognized
func computeFingerprint(prices *dataframe.DataFrame, cfg *Config) (string, error) {
	h := blake3.New()

	settings := fmt.Sprintf("%d|%s|%s|%.8f|%.8f|%.8f|%.8f", cfg.Window, cfg.CrossSectional, cfg.Overlay,
		cfg.CostRate, cfg.VolTarget, cfg.CVaRTarget, cfg.CVaRDelta)
	if _, err := h.Write([]byte(settings)); err != nil {
		log.Error().Stack().Err(err).Msg("could not write config to blake3 hasher")
		return "", err
	}

	for _, name := range prices.ColNames {
		if _, err := h.Write([]byte(name)); err != nil {
			log.Error().Stack().Err(err).Str("Asset", name).Msg("could not write asset to blake3 hasher")
			return "", err
		}
	}

	buf := make([]byte, 8)
	for rowIdx, dt := range prices.Dates {
		binary.LittleEndian.PutUint64(buf, uint64(dt.UTC().Unix()))
		if _, err := h.Write(buf); err != nil {
			log.Error().Stack().Err(err).Time("Date", dt).Msg("could not write date to blake3 hasher")
			return "", err
		}

		for _, col := range prices.Vals {
			binary.LittleEndian.PutUint64(buf, math.Float64bits(col[rowIdx]))
			if _, err := h.Write(buf); err != nil {
				log.Error().Stack().Err(err).Time("Date", dt).Msg("could not write price to blake3 hasher")
				return "", err
			}
		}
	}

	digest := h.Digest()
	out := make([]byte, 16)
	n, err := digest.Read(out)
	if err != nil {
		return "", err
	}
	if n != 16 {
		return "", ErrGenerateHash
	}

	return hex.EncodeToString(out), nil
}
