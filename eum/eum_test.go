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
	"math"
	"testing"
)

func different(a, b, tolerance float64) bool {
	if 2*math.Abs(a-b)/math.Abs(a+b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

func TestConverter(t *testing.T) {
	tests := []struct {
		from, to Unit
		in, want float64
	}{
		{from: Kilometer, to: Meter, in: 1.5, want: 1500},
		{from: Meter, to: Feet, in: 0.3048, want: 1},
		{from: DegreeCelsius, to: DegreeFahrenheit, in: 100, want: 212},
		{from: DegreeFahrenheit, to: DegreeKelvin, in: 32, want: 273.15},
		{from: Hour, to: Second, in: 2, want: 7200},
		{from: Degree, to: Radian, in: 180, want: math.Pi},
		{from: LiterPerSec, to: M3PerSec, in: 250, want: 0.25},
	}
	for _, test := range tests {
		c, err := NewConverter(test.from, test.to, true)
		if err != nil {
			t.Fatal(err)
		}
		if have := c.Convert(test.in); different(have, test.want, 1e-12) {
			t.Errorf("%s->%s: have %g, want %g", test.from, test.to, have, test.want)
		}
		if have := c.InvConvert(test.want); different(have, test.in, 1e-12) {
			t.Errorf("%s<-%s: have %g, want %g", test.from, test.to, have, test.in)
		}
	}
}

func TestConverterEquivalence(t *testing.T) {
	if _, err := NewConverter(Meter, Second, true); err == nil {
		t.Error("meter to second should fail the equivalence check")
	}
	c, err := NewConverter(Meter, Second, false)
	if err != nil {
		t.Fatal(err)
	}
	if c.Factor() != 1 || c.Offset() != 0 {
		t.Errorf("factor %g offset %g", c.Factor(), c.Offset())
	}
	if !UnitsEquivalent(MillimeterPerDay, KilometerPerHour) {
		t.Error("speeds should be equivalent")
	}
	if UnitsEquivalent(Meter, Unit(-5)) {
		t.Error("unknown unit should not be equivalent")
	}
}

func TestConvertSkipDeleteValue(t *testing.T) {
	c, err := NewConverter(Meter, Centimeter, true)
	if err != nil {
		t.Fatal(err)
	}
	const del = 1e-35
	vals32 := []float32{1, del, 2}
	c.ConvertFloat32sSkip(vals32, del)
	want32 := []float32{100, del, 200}
	for i := range vals32 {
		if vals32[i] != want32[i] {
			t.Errorf("float32 %d: have %g want %g", i, vals32[i], want32[i])
		}
	}

	vals := []float64{1, -1e-255, 3}
	c.ConvertFloat64sSkip(vals, -1e-255)
	want := []float64{100, -1e-255, 300}
	for i := range vals {
		if different(vals[i], want[i], 1e-12) {
			t.Errorf("float64 %d: have %g want %g", i, vals[i], want[i])
		}
	}
	// A value within tolerance of the delete value is still converted.
	near := []float64{-1.0000001e-255}
	c.ConvertFloat64sSkip(near, -1e-255)
	if near[0] == -1.0000001e-255 {
		t.Error("near delete value should be converted")
	}

	all := []float64{1, 2}
	c.ConvertFloat64s(all)
	c.InvConvertFloat64s(all)
	if different(all[0], 1, 1e-12) || different(all[1], 2, 1e-12) {
		t.Errorf("round trip: %v", all)
	}
}

func TestConvertUnit(t *testing.T) {
	v, err := ConvertUnit(HectoPascal, 1013.25, Pascal)
	if err != nil {
		t.Fatal(err)
	}
	if different(v, 101325, 1e-12) {
		t.Errorf("have %g", v)
	}
	f, o, err := SIFactor(DegreeCelsius)
	if err != nil {
		t.Fatal(err)
	}
	if f != 1 || o != 273.15 {
		t.Errorf("celsius SI factor %g offset %g", f, o)
	}
	u, err := UnitFromAbbreviation("km/h")
	if err != nil {
		t.Fatal(err)
	}
	if u != KilometerPerHour {
		t.Errorf("abbreviation lookup: %v", u)
	}
	q := NewQuantity(WaterLevel, Meter)
	if q.String() != "Water Level [m]" {
		t.Errorf("quantity string %q", q.String())
	}
}
