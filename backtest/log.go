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
	"github.com/rs/zerolog"
)

func (cfg *Config) MarshalZerologObject(e *zerolog.Event) {
	e.Int("Window", cfg.Window)
	e.Str("CrossSectional", cfg.CrossSectional.String())
	e.Str("Overlay", cfg.Overlay.String())
	e.Float64("CostRate", cfg.CostRate)
	e.Float64("VolTarget", cfg.VolTarget)
	e.Float64("CVaRTarget", cfg.CVaRTarget)
	e.Float64("CVaRDelta", cfg.CVaRDelta)
}

func (r *Result) MarshalZerologObject(e *zerolog.Event) {
	e.Time("FirstEligible", r.FirstEligible)
	e.Int("NumPeriods", r.NetReturns.Len())
	e.Int("NonConverged", r.NonConverged)
	e.Float64("TotalReturn", r.TotalReturn())
	e.Str("Fingerprint", r.Fingerprint)
}
