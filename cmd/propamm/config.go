// Copyright 2025 The go-propamm Authors
// This file is part of go-propamm.
//
// go-propamm is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-propamm is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-propamm. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"bufio"
	"fmt"
	"os"
	"reflect"

	"github.com/naoina/toml"

	"github.com/propamm/go-propamm/core/sim"
)

// tomlSettings mirrors the field names verbatim and rejects unknown keys, so
// a typo in a preset fails loudly instead of silently running defaults.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		return fmt.Errorf("field '%s' is not defined in %s", field, rt.String())
	},
}

// simPreset is the on-disk shape of a simulation preset. Every field is
// optional; zero-valued fields keep their defaults.
type simPreset struct {
	InitialReserveX  *float64
	InitialReserveY  *float64
	RetailProb       *float64
	RetailMeanSize   *float64
	ArbThresholdBps  *float64
	ArbProb          *float64
	ArbFraction      *float64
	MaxTradeFraction *float64
}

// loadSimConfig applies a TOML preset on top of cfg.
func loadSimConfig(path string, cfg *sim.SimulationConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var preset simPreset
	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(&preset)
	if _, ok := err.(*toml.LineError); ok {
		err = fmt.Errorf("%v in %s", err, path)
	}
	if err != nil {
		return err
	}

	apply := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	apply(&cfg.InitialReserveX, preset.InitialReserveX)
	apply(&cfg.InitialReserveY, preset.InitialReserveY)
	apply(&cfg.RetailProb, preset.RetailProb)
	apply(&cfg.RetailMeanSize, preset.RetailMeanSize)
	apply(&cfg.ArbThresholdBps, preset.ArbThresholdBps)
	apply(&cfg.ArbProb, preset.ArbProb)
	apply(&cfg.ArbFraction, preset.ArbFraction)
	apply(&cfg.MaxTradeFraction, preset.MaxTradeFraction)
	return nil
}
