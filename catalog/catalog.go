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

// Package catalog describes the available allocation rules for display
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
)

//go:embed catalog.toml
var catalogDoc []byte

var (
	ErrNotFound = errors.New("strategy not found in catalog")
)

// Info describes a single allocation rule
type Info struct {
	Shortcode   string   `toml:"shortcode"`
	Name        string   `toml:"name"`
	Description string   `toml:"description"`
	Inputs      []string `toml:"inputs"`
}

// Catalog lists the cross-sectional rules and the risk overlays
type Catalog struct {
	CrossSectional []Info `toml:"cross_sectional"`
	Overlay        []Info `toml:"overlay"`
}

// Load parses the embedded catalog
func Load() (*Catalog, error) {
	var cat Catalog
	if err := toml.Unmarshal(catalogDoc, &cat); err != nil {
		log.Error().Err(err).Msg("failed to parse catalog toml")
		return nil, err
	}
	return &cat, nil
}

// Lookup finds a cross-sectional rule or overlay by its case-insensitive shortcode
func (cat *Catalog) Lookup(shortcode string) (Info, error) {
	for _, list := range [][]Info{cat.CrossSectional, cat.Overlay} {
		for _, info := range list {
			if strings.EqualFold(info.Shortcode, shortcode) {
				return info, nil
			}
		}
	}
	return Info{}, fmt.Errorf("%w: %s", ErrNotFound, shortcode)
}

// Table renders the catalog as an ASCII table
func (cat *Catalog) Table() string {
	s := &strings.Builder{}
	table := tablewriter.NewWriter(s)
	table.SetHeader([]string{"Kind", "Shortcode", "Name", "Inputs", "Description"})
	table.SetBorder(false)
	table.SetAutoWrapText(true)

	add := func(kind string, infos []Info) {
		for _, info := range infos {
			table.Append([]string{kind, info.Shortcode, info.Name, strings.Join(info.Inputs, ", "), info.Description})
		}
	}
	add("cross-sectional", cat.CrossSectional)
	add("overlay", cat.Overlay)

	table.Render()
	return s.String()
}
