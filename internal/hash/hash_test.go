/*
Copyright © 2019 the InMAP authors.
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


package hash

import (
	"math"
	"testing"
)

type mesh struct {
	X, Y     []float64
	Elements [][]int
}

func TestHash(t *testing.T) {
	a := mesh{X: []float64{0, 1, 1}, Y: []float64{0, 0, 1}, Elements: [][]int{{1, 2, 3}}}
	b := mesh{X: []float64{0, 1, 1}, Y: []float64{0, 0, 1}, Elements: [][]int{{1, 2, 3}}}
	if Hash(a) != Hash(b) {
		t.Error("equal values have different hashes")
	}
	b.Elements[0][2] = 2
	if Hash(a) == Hash(b) {
		t.Error("different values have the same hash")
	}
	if len(Hash(a)) != 32 {
		t.Errorf("hash %q is not 128 bits", Hash(a))
	}
}

func TestHashFallback(t *testing.T) {
	// gob cannot encode a struct without exported fields.
	type point struct{ x, y float64 }
	a := point{x: math.NaN(), y: 1}
	if Hash(a) != Hash(point{x: math.NaN(), y: 1}) {
		t.Error("fallback hash is not deterministic")
	}
	if Hash(a) == Hash(point{x: math.NaN(), y: 2}) {
		t.Error("fallback hash ignores field values")
	}
}
