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
along with InMAP.  If not, see <http://www.gnu.org/licenses/>.
*/

package eum

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Converter converts values between two units. A Converter holds
// no mutable state and may be shared.
type Converter struct {
	from, to       Unit
	factor, offset float64
}

// NewConverter returns a converter from unit from to unit to. If
// checkEquivalence is true, an error is returned when the units
// do not measure the same dimension.
func NewConverter(from, to Unit, checkEquivalence bool) (*Converter, error) {
	if checkEquivalence && !UnitsEquivalent(from, to) {
		return nil, fmt.Errorf("eum: units %s and %s are not equivalent", from, to)
	}
	f1, o1, err := SIFactor(from)
	if err != nil {
		return nil, err
	}
	f2, o2, err := SIFactor(to)
	if err != nil {
		return nil, err
	}
	// si = f1*v + o1; out = (si - o2) / f2
	return &Converter{
		from:   from,
		to:     to,
		factor: f1 / f2,
		offset: (o1 - o2) / f2,
	}, nil
}

// Factor returns the multiplicative part of the conversion.
func (c *Converter) Factor() float64 { return c.factor }

// Offset returns the additive part of the conversion.
func (c *Converter) Offset() float64 { return c.offset }

// Convert converts v from the source unit to the target unit.
func (c *Converter) Convert(v float64) float64 {
	return c.factor*v + c.offset
}

// InvConvert converts v from the target unit back to the source unit.
func (c *Converter) InvConvert(v float64) float64 {
	return (v - c.offset) / c.factor
}

// ConvertFloat64s converts vals in place.
func (c *Converter) ConvertFloat64s(vals []float64) {
	floats.Scale(c.factor, vals)
	floats.AddConst(c.offset, vals)
}

// InvConvertFloat64s converts vals in place from the target unit back
// to the source unit.
func (c *Converter) InvConvertFloat64s(vals []float64) {
	floats.AddConst(-c.offset, vals)
	floats.Scale(1/c.factor, vals)
}

// ConvertFloat64sSkip converts vals in place, leaving any value exactly
// equal to deleteValue untouched.
func (c *Converter) ConvertFloat64sSkip(vals []float64, deleteValue float64) {
	for i, v := range vals {
		if v == deleteValue {
			continue
		}
		vals[i] = c.factor*v + c.offset
	}
}

// ConvertFloat32s converts vals in place.
func (c *Converter) ConvertFloat32s(vals []float32) {
	for i, v := range vals {
		vals[i] = float32(c.factor*float64(v) + c.offset)
	}
}

// ConvertFloat32sSkip converts vals in place, leaving any value exactly
// equal to deleteValue untouched.
func (c *Converter) ConvertFloat32sSkip(vals []float32, deleteValue float32) {
	for i, v := range vals {
		if v == deleteValue {
			continue
		}
		vals[i] = float32(c.factor*float64(v) + c.offset)
	}
}

// InvConvertFloat32s converts vals in place from the target unit back
// to the source unit.
func (c *Converter) InvConvertFloat32s(vals []float32) {
	for i, v := range vals {
		vals[i] = float32((float64(v) - c.offset) / c.factor)
	}
}
