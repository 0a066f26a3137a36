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

import (
	"fmt"

	"github.com/ctessum/geom"
	"github.com/spatialmodel/dfs/internal/hash"
)

// Geometry is an unstructured mesh: a node table and an element table
// whose entries list node indices counting from 1.
type Geometry struct {
	FileType FileType

	NodeIDs []int
	X, Y, Z []float64
	Codes   []int

	ElementIDs []int
	Elements   [][]int

	// NumberOfSigmaLayers is the number of terrain following layers
	// of a layered mesh.
	NumberOfSigmaLayers int
}

// NumberOfNodes returns the number of nodes.
func (g *Geometry) NumberOfNodes() int { return len(g.X) }

// NumberOfElements returns the number of elements.
func (g *Geometry) NumberOfElements() int { return len(g.Elements) }

// Validate returns every inconsistency in the geometry.
func (g *Geometry) Validate() []string { return g.validate(true) }

func (g *Geometry) validate(layers bool) []string {
	var p []string
	n := len(g.X)
	if n == 0 {
		p = append(p, "mesh has no nodes")
	}
	if len(g.Y) != n || len(g.Z) != n || len(g.Codes) != n {
		p = append(p, fmt.Sprintf("node arrays have different lengths (x %d, y %d, z %d, code %d)",
			n, len(g.Y), len(g.Z), len(g.Codes)))
	}
	if g.NodeIDs != nil && len(g.NodeIDs) != n {
		p = append(p, fmt.Sprintf("%d node ids for %d nodes", len(g.NodeIDs), n))
	}
	if len(g.Elements) == 0 {
		p = append(p, "mesh has no elements")
	}
	if g.ElementIDs != nil && len(g.ElementIDs) != len(g.Elements) {
		p = append(p, fmt.Sprintf("%d element ids for %d elements", len(g.ElementIDs), len(g.Elements)))
	}
	for i, e := range g.Elements {
		if _, err := ElementType(len(e), g.FileType); err != nil {
			p = append(p, fmt.Sprintf("element %d: %v", i+1, err))
		}
		for _, node := range e {
			if node < 1 || node > n {
				p = append(p, fmt.Sprintf("element %d refers to node %d; mesh has %d nodes", i+1, node, n))
				break
			}
		}
	}
	if len(p) > 0 || !layers || !g.FileType.IsLayered() {
		return p
	}
	if g.NumberOfSigmaLayers < 1 {
		return append(p, fmt.Sprintf("%v mesh needs the number of sigma layers", g.FileType))
	}
	top := FindTopLayerElements(g.Elements)
	switch g.FileType {
	case DfsuVerticalColumn:
		if len(top) != 1 {
			p = append(p, fmt.Sprintf("vertical column has %d columns", len(top)))
		}
		fallthrough
	case DfsuVerticalProfileSigma, Dfsu3DSigma:
		if FindMinNumberOfLayers(top) != g.NumberOfSigmaLayers || FindMaxNumberOfLayers(top) != g.NumberOfSigmaLayers {
			p = append(p, fmt.Sprintf("every column of a %v mesh must have %d layers; columns have %d to %d",
				g.FileType, g.NumberOfSigmaLayers, FindMinNumberOfLayers(top), FindMaxNumberOfLayers(top)))
		}
	default:
		if min := FindMinNumberOfLayers(top); min < g.NumberOfSigmaLayers {
			p = append(p, fmt.Sprintf("columns of a %v mesh need at least %d layers; the shallowest has %d",
				g.FileType, g.NumberOfSigmaLayers, min))
		}
	}
	return p
}

// ElementTypes returns the type code of every element.
func (g *Geometry) ElementTypes() ([]int, error) {
	t := make([]int, len(g.Elements))
	for i, e := range g.Elements {
		var err error
		if t[i], err = ElementType(len(e), g.FileType); err != nil {
			return nil, fmt.Errorf("element %d: %w", i+1, err)
		}
	}
	return t, nil
}

// connectivity returns the number of nodes of each element and the
// node lists of all elements end to end.
func (g *Geometry) connectivity() (counts, flat []int) {
	counts = make([]int, len(g.Elements))
	for i, e := range g.Elements {
		counts[i] = len(e)
		flat = append(flat, e...)
	}
	return counts, flat
}

// elementsFromConnectivity splits a flat node list into elements.
func elementsFromConnectivity(counts, flat []int) ([][]int, error) {
	elements := make([][]int, len(counts))
	pos := 0
	for i, c := range counts {
		if c < 0 || pos+c > len(flat) {
			return nil, fmt.Errorf("dfsu: connectivity ends inside element %d", i+1)
		}
		elements[i] = append([]int(nil), flat[pos:pos+c]...)
		pos += c
	}
	if pos != len(flat) {
		return nil, fmt.Errorf("dfsu: connectivity has %d values, elements use %d", len(flat), pos)
	}
	return elements, nil
}

// TopLayerElements returns the 0-based indices of the top element of
// every column, or nil for a 2D mesh.
func (g *Geometry) TopLayerElements() []int {
	if !g.FileType.IsLayered() {
		return nil
	}
	return FindTopLayerElements(g.Elements)
}

// NumberOfLayers returns the number of layers of the deepest column,
// or 0 for a 2D mesh.
func (g *Geometry) NumberOfLayers() int {
	return FindMaxNumberOfLayers(g.TopLayerElements())
}

// ElementCenters returns the horizontal centre and the mean node
// depth of every element.
func (g *Geometry) ElementCenters() ([]geom.Point, []float64) {
	c := make([]geom.Point, len(g.Elements))
	z := make([]float64, len(g.Elements))
	for i, e := range g.Elements {
		for _, n := range e {
			c[i].X += g.X[n-1]
			c[i].Y += g.Y[n-1]
			z[i] += g.Z[n-1]
		}
		f := float64(len(e))
		c[i].X /= f
		c[i].Y /= f
		z[i] /= f
	}
	return c, z
}

// ElementPolygons returns the horizontal outline of every element. 3D
// elements are represented by their upper face.
func (g *Geometry) ElementPolygons() []geom.Polygon {
	out := make([]geom.Polygon, len(g.Elements))
	is3D := g.FileType.Dimension() == 3
	for i, e := range g.Elements {
		if is3D {
			e = e[len(e)/2:]
		}
		ring := make([]geom.Point, len(e)+1)
		for j, n := range e {
			ring[j] = geom.Point{X: g.X[n-1], Y: g.Y[n-1]}
		}
		ring[len(e)] = ring[0]
		out[i] = geom.Polygon{ring}
	}
	return out
}

// Fingerprint returns a key that is equal for geometries with the same
// nodes and elements.
func (g *Geometry) Fingerprint() string {
	return hash.Hash(g)
}
