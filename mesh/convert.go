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

package mesh

import (
	"fmt"
	"time"

	"github.com/spatialmodel/dfs"
	"github.com/spatialmodel/dfs/dfsu"
	"github.com/spatialmodel/dfs/eum"
)

func copyInts(v []int) []int {
	if v == nil {
		return nil
	}
	return append([]int(nil), v...)
}

func copyElements(e [][]int) [][]int {
	o := make([][]int, len(e))
	for i := range e {
		o[i] = copyInts(e[i])
	}
	return o
}

// Geometry returns the mesh as a 2D dfsu geometry.
func (m *File) Geometry() *dfsu.Geometry {
	return &dfsu.Geometry{
		FileType:   dfsu.Dfsu2D,
		NodeIDs:    copyInts(m.NodeIDs),
		X:          append([]float64(nil), m.X...),
		Y:          append([]float64(nil), m.Y...),
		Z:          append([]float64(nil), m.Z...),
		Codes:      copyInts(m.Codes),
		ElementIDs: copyInts(m.ElementIDs),
		Elements:   copyElements(m.Elements),
	}
}

// FromDfsu returns the mesh of a 2D dfsu geometry. Node z values are
// bathymetry in meters.
func FromDfsu(g *dfsu.Geometry, projection string) (*File, error) {
	if g.FileType != dfsu.Dfsu2D {
		return nil, fmt.Errorf("mesh: %v geometry is not 2D", g.FileType)
	}
	if p := g.Validate(); len(p) > 0 {
		return nil, &dfs.ValidationError{Problems: p}
	}
	return &File{
		Quantity:   eum.NewQuantity(eum.Bathymetry, eum.Meter),
		Projection: projection,
		NodeIDs:    copyInts(g.NodeIDs),
		X:          append([]float64(nil), g.X...),
		Y:          append([]float64(nil), g.Y...),
		Z:          append([]float64(nil), g.Z...),
		Codes:      copyInts(g.Codes),
		ElementIDs: copyInts(g.ElementIDs),
		Elements:   copyElements(g.Elements),
	}, nil
}

// Builder assembles a mesh.
type Builder struct {
	m File
}

// NewBuilder returns a builder for a bathymetry mesh.
func NewBuilder() *Builder {
	return &Builder{m: File{Quantity: eum.NewQuantity(eum.Bathymetry, eum.Meter)}}
}

// SetNodes sets the node coordinates and boundary codes.
func (b *Builder) SetNodes(x, y, z []float64, codes []int) error {
	if len(y) != len(x) || len(z) != len(x) || len(codes) != len(x) {
		return fmt.Errorf("mesh: node arrays have different lengths (x %d, y %d, z %d, code %d)",
			len(x), len(y), len(z), len(codes))
	}
	b.m.X = append([]float64(nil), x...)
	b.m.Y = append([]float64(nil), y...)
	b.m.Z = append([]float64(nil), z...)
	b.m.Codes = copyInts(codes)
	return nil
}

// SetNodeIDs sets the node ids.
func (b *Builder) SetNodeIDs(ids []int) error {
	if len(ids) != len(b.m.X) {
		return fmt.Errorf("mesh: %d node ids for %d nodes", len(ids), len(b.m.X))
	}
	b.m.NodeIDs = copyInts(ids)
	return nil
}

// SetElements sets the element table. Node indices count from 1.
func (b *Builder) SetElements(elements [][]int) { b.m.Elements = copyElements(elements) }

// SetElementIDs sets the element ids.
func (b *Builder) SetElementIDs(ids []int) error {
	if len(ids) != len(b.m.Elements) {
		return fmt.Errorf("mesh: %d element ids for %d elements", len(ids), len(b.m.Elements))
	}
	b.m.ElementIDs = copyInts(ids)
	return nil
}

// SetProjection sets the projection string.
func (b *Builder) SetProjection(p string) { b.m.Projection = p }

// SetQuantity sets the quantity of the node z values.
func (b *Builder) SetQuantity(q eum.Quantity) { b.m.Quantity = q }

// Validate returns every problem in the mesh.
func (b *Builder) Validate() []string {
	var p []string
	if b.m.Projection == "" {
		p = append(p, "projection has not been set")
	}
	return append(p, b.m.Geometry().Validate()...)
}

// CreateMesh returns the mesh.
func (b *Builder) CreateMesh() (*File, error) {
	if p := b.Validate(); len(p) > 0 {
		return nil, &dfs.ValidationError{Problems: p}
	}
	m := b.m
	m.Elements = copyElements(b.m.Elements)
	return &m, nil
}

// WriteDfsu writes the mesh as a 2D dfsu file with one time step of
// one item holding the mean node z value of every element.
func (m *File) WriteDfsu(path string, start time.Time) error {
	b := dfsu.NewBuilder(dfsu.Dfsu2D)
	b.SetFileTitle("mesh")
	b.SetProjection(dfs.NewProjection(m.Projection, 0, 0, 0))
	b.SetTimeInfo(start, 1)
	if err := b.SetNodes(m.X, m.Y, m.Z, m.Codes); err != nil {
		return err
	}
	if m.NodeIDs != nil {
		if err := b.SetNodeIDs(m.NodeIDs); err != nil {
			return err
		}
	}
	if err := b.SetElements(m.Elements); err != nil {
		return err
	}
	if m.ElementIDs != nil {
		if err := b.SetElementIDs(m.ElementIDs); err != nil {
			return err
		}
	}
	name := m.Quantity.ItemDescription()
	b.AddDynamicItem(name, m.Quantity)
	f, err := b.CreateFile(path)
	if err != nil {
		return err
	}
	_, z := f.Geometry.ElementCenters()
	data := make(dfs.FloatData, len(z))
	for i, v := range z {
		data[i] = float32(v)
	}
	if err := f.WriteItemTimeStepNext(0, data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
