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

package dfsu

// FindTopLayerElements returns the 0-based indices of the top element
// of every column of a layered mesh. Elements of a column are stored
// from the bottom up, and the upper face of an element is the lower
// face of the element above it. The last element is always a top
// element.
func FindTopLayerElements(elements [][]int) []int {
	var top []int
	for i := 0; i+1 < len(elements); i++ {
		if !stacked(elements[i], elements[i+1]) {
			top = append(top, i)
		}
	}
	if len(elements) > 0 {
		top = append(top, len(elements)-1)
	}
	return top
}

// stacked reports whether upper sits directly on lower. The first
// half of the nodes of an element is its lower face and the second
// half its upper face. Faces of vertical profile quadrilaterals have
// two nodes, which run in opposite directions on the lower and upper
// face.
func stacked(lower, upper []int) bool {
	if len(lower) != len(upper) || len(lower)%2 != 0 {
		return false
	}
	h := len(lower) / 2
	for j := 0; j < h; j++ {
		k := j
		if h == 2 {
			k = h - 1 - j
		}
		if lower[h+j] != upper[k] {
			return false
		}
	}
	return true
}

// FindTopLayerElementsXY finds the top elements of a layered mesh
// from the horizontal element centres: the element above another in
// the same column has the same centre, to within 1e-4 of the squared
// longest edge of the smaller of the two elements. x and y are the node coordinates; node
// indices in elements count from 1.
func FindTopLayerElementsXY(elements [][]int, x, y []float64) []int {
	cx := make([]float64, len(elements))
	cy := make([]float64, len(elements))
	tol := make([]float64, len(elements))
	for i, e := range elements {
		var maxEdge float64
		for j, n := range e {
			cx[i] += x[n-1]
			cy[i] += y[n-1]
			m := e[(j+1)%len(e)]
			dx, dy := x[m-1]-x[n-1], y[m-1]-y[n-1]
			if d := dx*dx + dy*dy; d > maxEdge {
				maxEdge = d
			}
		}
		cx[i] /= float64(len(e))
		cy[i] /= float64(len(e))
		tol[i] = 1e-4 * maxEdge
	}
	var top []int
	for i := 0; i+1 < len(elements); i++ {
		dx, dy := cx[i+1]-cx[i], cy[i+1]-cy[i]
		t := tol[i]
		if tol[i+1] < t {
			t = tol[i+1]
		}
		if len(elements[i]) != len(elements[i+1]) || dx*dx+dy*dy > t {
			top = append(top, i)
		}
	}
	if len(elements) > 0 {
		top = append(top, len(elements)-1)
	}
	return top
}

// FindMaxNumberOfLayers returns the number of layers of the deepest
// column, given the top elements found by FindTopLayerElements.
func FindMaxNumberOfLayers(top []int) int {
	max := 0
	prev := -1
	for _, t := range top {
		if n := t - prev; n > max {
			max = n
		}
		prev = t
	}
	return max
}

// FindMinNumberOfLayers returns the number of layers of the shallowest
// column, given the top elements found by FindTopLayerElements.
func FindMinNumberOfLayers(top []int) int {
	if len(top) == 0 {
		return 0
	}
	min := top[0] + 1
	for i := 1; i < len(top); i++ {
		if n := top[i] - top[i-1]; n < min {
			min = n
		}
	}
	return min
}
