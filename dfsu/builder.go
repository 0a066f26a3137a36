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
	"time"

	"github.com/spatialmodel/dfs"
	"github.com/spatialmodel/dfs/engine"
	"github.com/spatialmodel/dfs/eum"
)

// DataType is the application data type tag of dfsu files.
const DataType = 2001

// BlockName is the name of the custom block describing the mesh.
const BlockName = "MIKE_FM"

// ZItemName is the name of the per-node dynamic item that layered
// files store ahead of the data items.
const ZItemName = "Z coordinate"

// Names of the static items, in the order they are stored.
var staticItemNames = [...]string{
	"Node id", "X-coord", "Y-coord", "Z-coord", "Code",
	"Element id", "Element type", "No of nodes", "Connectivity",
}

// Builder creates dfsu files.
type Builder struct {
	e        engine.Engine
	g        Geometry
	title    string
	proj     *dfs.Projection
	start    time.Time
	step     float64
	hasTime  bool
	sigmaSet bool
	items    []dfs.ItemInfo
}

// NewBuilder returns a builder for a dfsu file of type t.
func NewBuilder(t FileType) *Builder {
	return &Builder{g: Geometry{FileType: t}}
}

// NewBuilderWith returns a builder that creates the file with engine e.
func NewBuilderWith(e engine.Engine, t FileType) *Builder {
	b := NewBuilder(t)
	b.e = e
	return b
}

// SetNodes sets the node coordinates and boundary codes.
func (b *Builder) SetNodes(x, y, z []float64, codes []int) error {
	if len(y) != len(x) || len(z) != len(x) || len(codes) != len(x) {
		return fmt.Errorf("dfsu: node arrays have different lengths (x %d, y %d, z %d, code %d)",
			len(x), len(y), len(z), len(codes))
	}
	b.g.X = append([]float64(nil), x...)
	b.g.Y = append([]float64(nil), y...)
	b.g.Z = append([]float64(nil), z...)
	b.g.Codes = append([]int(nil), codes...)
	return nil
}

// SetNodeIDs sets the node ids. It must be called after SetNodes.
// Without it nodes are numbered from 1.
func (b *Builder) SetNodeIDs(ids []int) error {
	if len(ids) != len(b.g.X) {
		return fmt.Errorf("dfsu: %d node ids for %d nodes", len(ids), len(b.g.X))
	}
	b.g.NodeIDs = append([]int(nil), ids...)
	return nil
}

// SetElements sets the element table. Node indices count from 1.
func (b *Builder) SetElements(elements [][]int) error {
	if len(elements) == 0 {
		return fmt.Errorf("dfsu: no elements")
	}
	b.g.Elements = make([][]int, len(elements))
	for i, e := range elements {
		b.g.Elements[i] = append([]int(nil), e...)
	}
	return nil
}

// SetElementIDs sets the element ids. It must be called after
// SetElements. Without it elements are numbered from 1.
func (b *Builder) SetElementIDs(ids []int) error {
	if len(ids) != len(b.g.Elements) {
		return fmt.Errorf("dfsu: %d element ids for %d elements", len(ids), len(b.g.Elements))
	}
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return fmt.Errorf("dfsu: duplicate element id %d", id)
		}
		seen[id] = true
	}
	b.g.ElementIDs = append([]int(nil), ids...)
	return nil
}

// SetProjection sets the map projection of the node coordinates.
func (b *Builder) SetProjection(p dfs.Projection) { b.proj = &p }

// SetTimeInfo sets the start time and the time step in seconds.
func (b *Builder) SetTimeInfo(start time.Time, step float64) {
	b.start, b.step, b.hasTime = start, step, true
}

// SetNumberOfSigmaLayers sets the number of terrain following layers.
// It is required for every file type except Dfsu2D.
func (b *Builder) SetNumberOfSigmaLayers(n int) error {
	if n < 1 {
		return fmt.Errorf("dfsu: %d sigma layers", n)
	}
	b.g.NumberOfSigmaLayers, b.sigmaSet = n, true
	return nil
}

// SetFileTitle sets the title of the file.
func (b *Builder) SetFileTitle(title string) { b.title = title }

// AddDynamicItem adds a float item with one value per element.
func (b *Builder) AddDynamicItem(name string, q eum.Quantity) {
	b.items = append(b.items, dfs.ItemInfo{Name: name, Quantity: q, DataType: dfs.Float})
}

// Validate returns every problem that prevents the file from being
// created.
func (b *Builder) Validate() []string {
	var p []string
	if b.proj == nil {
		p = append(p, "projection has not been set")
	}
	if !b.hasTime {
		p = append(p, "time info has not been set")
	}
	needSigma := b.g.FileType.IsLayered() && !b.sigmaSet
	if needSigma {
		p = append(p, fmt.Sprintf("%v file needs the number of sigma layers", b.g.FileType))
	}
	return append(p, b.g.validate(!needSigma)...)
}

// CreateFile creates the file, writes the mesh and returns the file
// ready for dynamic data. In layered files the first dynamic item is
// the per-node Z coordinate.
func (b *Builder) CreateFile(path string) (*File, error) {
	if p := b.Validate(); len(p) > 0 {
		return nil, &dfs.ValidationError{Problems: p}
	}
	g := b.g
	if g.NodeIDs == nil {
		g.NodeIDs = sequence(g.NumberOfNodes())
	}
	if g.ElementIDs == nil {
		g.ElementIDs = sequence(g.NumberOfElements())
	}
	types, err := g.ElementTypes()
	if err != nil {
		return nil, err
	}
	layers := 0
	if g.FileType.IsLayered() {
		layers = g.NumberOfLayers()
	} else {
		g.NumberOfSigmaLayers = 0
	}

	db := dfs.NewBuilderWith(b.e, b.title, "dfsu", 1)
	db.SetDataType(DataType)
	db.SetGeographicalProjection(*b.proj)
	db.SetTemporalAxis(dfs.NewCalendarEquidistantAxis(eum.Second, b.start, b.step))
	db.AddCustomBlock(dfs.CustomBlock{Name: BlockName, Data: dfs.IntData{
		int32(g.NumberOfNodes()), int32(g.NumberOfElements()), int32(g.FileType.Dimension()),
		int32(layers), int32(g.NumberOfSigmaLayers),
	}})
	if g.FileType.IsLayered() {
		a, err := dfs.NewEqD1Axis(eum.Meter, g.NumberOfNodes(), 0, 1)
		if err != nil {
			return nil, err
		}
		db.AddCreateDynamicItem(ZItemName, eum.NewQuantity(eum.ItemGeometry3D, eum.Meter), dfs.Float, a)
	}
	for i := range b.items {
		item := b.items[i]
		a, err := dfs.NewEqD1Axis(eum.Meter, g.NumberOfElements(), 0, 1)
		if err != nil {
			return nil, err
		}
		item.SpatialAxis = a
		if err := db.AddDynamicItem(&item); err != nil {
			return nil, err
		}
	}
	if err := db.CreateFile(path); err != nil {
		return nil, err
	}

	counts, flat := g.connectivity()
	geometryCoord := eum.NewQuantity(eum.GeographicalCoordinate, eum.Meter)
	code := eum.NewQuantity(eum.IntegerCode, eum.IntCode)
	statics := []struct {
		q    eum.Quantity
		data dfs.Data
	}{
		{code, intData(g.NodeIDs)},
		{geometryCoord, dfs.DoubleData(g.X)},
		{geometryCoord, dfs.DoubleData(g.Y)},
		{geometryCoord, floatData(g.Z)},
		{code, intData(g.Codes)},
		{code, intData(g.ElementIDs)},
		{code, intData(types)},
		{code, intData(counts)},
		{code, intData(flat)},
	}
	for i, s := range statics {
		if _, err := db.AddCreateStaticItem(staticItemNames[i], s.q, s.data); err != nil {
			return nil, err
		}
	}
	f, err := db.GetFile()
	if err != nil {
		return nil, err
	}
	return &File{File: f, Geometry: &g}, nil
}

func sequence(n int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = i + 1
	}
	return s
}

func intData(v []int) dfs.IntData {
	d := make(dfs.IntData, len(v))
	for i, x := range v {
		d[i] = int32(x)
	}
	return d
}

func floatData(v []float64) dfs.FloatData {
	d := make(dfs.FloatData, len(v))
	for i, x := range v {
		d[i] = float32(x)
	}
	return d
}
