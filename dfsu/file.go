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

	"github.com/spatialmodel/dfs"
	"github.com/spatialmodel/dfs/engine"
)

// File is an open dfsu file and its mesh.
type File struct {
	*dfs.File
	Geometry *Geometry
}

// Open opens a dfsu file with the engine installed by dfs.Init.
func Open(path string, mode dfs.Mode) (*File, error) {
	e, err := dfs.DefaultEngine()
	if err != nil {
		return nil, err
	}
	return OpenWith(e, path, mode)
}

// OpenWith opens a dfsu file with engine e and reads its mesh.
func OpenWith(e engine.Engine, path string, mode dfs.Mode) (*File, error) {
	f, err := dfs.OpenWith(e, path, mode)
	if err != nil {
		return nil, err
	}
	g, err := readGeometry(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("dfsu: reading mesh of %s: %w", path, err)
	}
	if mode == dfs.Append {
		// Reading the mesh moved the cursor into the static items.
		if err := f.FindTimeStep(f.NumberOfTimeSteps()); err != nil {
			f.Close()
			return nil, err
		}
	}
	return &File{File: f, Geometry: g}, nil
}

func readGeometry(f *dfs.File) (*Geometry, error) {
	block, ok := f.FileInfo().CustomBlock(BlockName)
	if !ok {
		return nil, fmt.Errorf("no %s custom block", BlockName)
	}
	if block.Data == nil || block.Data.Len() < 5 {
		return nil, fmt.Errorf("%s block is too short", BlockName)
	}
	var fm [5]int
	for i := range fm {
		fm[i] = int(engine.Float64At(block.Data, i))
	}
	t, err := fileTypeFromBlock(fm[2], fm[3], fm[4])
	if err != nil {
		return nil, err
	}
	g := &Geometry{FileType: t}
	if t.IsLayered() {
		g.NumberOfSigmaLayers = fm[4]
	}

	var counts, flat []int
	ints := []*[]int{&g.NodeIDs, nil, nil, nil, &g.Codes, &g.ElementIDs, nil, &counts, &flat}
	floats := []*[]float64{nil, &g.X, &g.Y, &g.Z}
	for i, name := range staticItemNames {
		s, err := f.ReadStaticItem(i + 1)
		if err != nil {
			return nil, fmt.Errorf("static item %d %q: %w", i+1, name, err)
		}
		if s.Name != name {
			return nil, fmt.Errorf("static item %d is %q, want %q", i+1, s.Name, name)
		}
		v := make([]float64, s.Data.Len())
		for j := range v {
			v[j] = engine.Float64At(s.Data, j)
		}
		switch {
		case i < len(floats) && floats[i] != nil:
			*floats[i] = v
		case ints[i] != nil:
			*ints[i] = toInts(v)
		}
	}
	if len(g.X) != fm[0] {
		return nil, fmt.Errorf("%s block lists %d nodes, file has %d", BlockName, fm[0], len(g.X))
	}
	if len(counts) != fm[1] {
		return nil, fmt.Errorf("%s block lists %d elements, file has %d", BlockName, fm[1], len(counts))
	}
	if g.Elements, err = elementsFromConnectivity(counts, flat); err != nil {
		return nil, err
	}
	return g, nil
}

func toInts(v []float64) []int {
	o := make([]int, len(v))
	for i, x := range v {
		o[i] = int(x)
	}
	return o
}

// NumberOfLayers returns the number of layers of the deepest column.
func (f *File) NumberOfLayers() int { return f.Geometry.NumberOfLayers() }

// NumberOfSigmaLayers returns the number of terrain following layers.
func (f *File) NumberOfSigmaLayers() int { return f.Geometry.NumberOfSigmaLayers }

// DataItems returns the dynamic items that hold per-element data,
// which excludes the Z coordinate item of layered files.
func (f *File) DataItems() []*dfs.ItemInfo {
	items := f.ItemInfo()
	if f.Geometry.FileType.IsLayered() && len(items) > 0 && items[0].Name == ZItemName {
		return items[1:]
	}
	return items
}
