/*
Copyright © 2017 the InMAP authors.
This file is part of InMAP.

InMAP is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

InMAP is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with InMAP.  If not, see <http://www.gnu.org/licenses/>.*/


package dfsutil

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/dfs/eum"
	"github.com/spf13/cast"
)

// checkOutputFile makes sure that the output file is specified and its
// directory exists, and expands any environment variables.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`dfsutil: you need to specify an output file configuration variable (for example: OutputFile="output.dfs0")`)
	}
	f = os.ExpandEnv(f)
	outdir := filepath.Dir(f)
	if _, err := os.Stat(outdir); err != nil {
		return f, fmt.Errorf("dfsutil: the OutputFile directory doesn't exist: %v", err)
	}
	return f, nil
}

// toFloat64SliceE converts a configuration value to a slice of floats.
// Values set from the command line arrive as slices of strings, and
// values from configuration files as slices of numbers.
func toFloat64SliceE(s interface{}) ([]float64, error) {
	switch v := s.(type) {
	case []float64:
		return v, nil
	case []string:
		o := make([]float64, len(v))
		for i, val := range v {
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return nil, err
			}
			o[i] = f
		}
		return o, nil
	case []interface{}:
		o := make([]float64, len(v))
		for i, val := range v {
			f, err := cast.ToFloat64E(val)
			if err != nil {
				return nil, err
			}
			o[i] = f
		}
		return o, nil
	case string:
		var o []float64
		if err := json.Unmarshal([]byte(v), &o); err != nil {
			return nil, err
		}
		return o, nil
	default:
		return nil, fmt.Errorf("invalid type %T", s)
	}
}

// GetStringMapString returns a map[string]string from a viper configuration,
// accounting for the fact that it might be a json object if it was set
// from a command line argument.
func GetStringMapString(varName string, cfg *viper.Viper) (map[string]string, error) {
	switch v := cfg.Get(varName).(type) {
	case map[string]string:
		return v, nil
	case map[string]interface{}:
		return cast.ToStringMapStringE(v)
	case string:
		if v == "" {
			return make(map[string]string), nil
		}
		o := make(map[string]string)
		if err := json.NewDecoder(strings.NewReader(v)).Decode(&o); err != nil {
			return nil, fmt.Errorf("dfsutil: %s is not a JSON object of strings: %v", varName, err)
		}
		return o, nil
	default:
		return nil, fmt.Errorf("dfsutil: invalid type for %s: %#v", varName, v)
	}
}

// quantity reads an item type code and unit abbreviation from m.
func quantity(m map[string]string) (eum.Quantity, error) {
	q := eum.UndefinedQuantity()
	if s, ok := m["ItemType"]; ok {
		t, err := strconv.Atoi(s)
		if err != nil {
			return q, fmt.Errorf("dfsutil: invalid item type %q: %v", s, err)
		}
		q.Item = eum.ItemType(t)
	}
	if s, ok := m["Unit"]; ok {
		u, err := eum.UnitFromAbbreviation(s)
		if err != nil {
			return q, fmt.Errorf("dfsutil: %v", err)
		}
		q.Unit = u
	}
	return q, nil
}
