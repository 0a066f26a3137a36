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
	"bytes"
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kr/pretty"
	"github.com/spatialmodel/dfs"
	"github.com/spatialmodel/dfs/dfsu"
	"github.com/spatialmodel/dfs/engine/netcdf"
	"github.com/spatialmodel/dfs/eum"
)

func TestMain(m *testing.M) {
	if err := dfs.Init(netcdf.New()); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

const mesh2012 = `100079  1000  5  PROJCS["UTM-32",GEOGCS["Unused",DATUM["UTM Projections",SPHEROID["WGS 1984",6378137,298.257223563]]]]
11 0 0 -1.5 1
12 10 0 -2 0
13 10 10 -3.25 0
14 0 10 -4 1
15 20 5 -5 2
2 4 25
1 11 12 13 14
2 12 15 13 0
`

const mesh2011 = `4 LONG/LAT
1 12.0 55.0 -10 1
2 12.1 55.0 -11 1
3 12.1 55.1 -12 0
4 12.0 55.1 -13 1
2 3 21
1 1 2 3
2 1 3 4
`

func want2012() *File {
	return &File{
		Quantity:   eum.NewQuantity(eum.Bathymetry, eum.Meter),
		Projection: `PROJCS["UTM-32",GEOGCS["Unused",DATUM["UTM Projections",SPHEROID["WGS 1984",6378137,298.257223563]]]]`,
		NodeIDs:    []int{11, 12, 13, 14, 15},
		X:          []float64{0, 10, 10, 0, 20},
		Y:          []float64{0, 0, 10, 10, 5},
		Z:          []float64{-1.5, -2, -3.25, -4, -5},
		Codes:      []int{1, 0, 0, 1, 2},
		ElementIDs: []int{1, 2},
		Elements:   [][]int{{1, 2, 3, 4}, {2, 5, 3}},
	}
}

func TestRead2012(t *testing.T) {
	m, err := Read(strings.NewReader(mesh2012))
	if err != nil {
		t.Fatal(err)
	}
	if diff := pretty.Diff(want2012(), m); len(diff) > 0 {
		t.Errorf("%v", diff)
	}
}

func TestRead2011(t *testing.T) {
	m, err := Read(strings.NewReader(mesh2011))
	if err != nil {
		t.Fatal(err)
	}
	if m.Quantity != eum.NewQuantity(eum.Bathymetry, eum.Meter) || m.Projection != "LONG/LAT" {
		t.Errorf("header: %v %q", m.Quantity, m.Projection)
	}
	if len(m.X) != 4 || m.X[1] != 12.1 || m.Z[3] != -13 {
		t.Errorf("nodes: %v %v", m.X, m.Z)
	}
	if len(m.Elements) != 2 || len(m.Elements[1]) != 3 || m.Elements[1][2] != 4 {
		t.Errorf("elements: %v", m.Elements)
	}
}

func TestReadErrors(t *testing.T) {
	for name, text := range map[string]string{
		"header":       "LONG/LAT\n",
		"short nodes":  "2 LONG/LAT\n1 0 0 0 1\n",
		"unknown node": "1 LONG/LAT\n1 0 0 0 1\n1 3 21\n1 1 2 3\n",
		"bad number":   "1 LONG/LAT\n1 x 0 0 1\n",
	} {
		if _, err := Read(strings.NewReader(text)); err == nil {
			t.Errorf("%s: want error", name)
		}
	}
}

func TestWriteRead(t *testing.T) {
	m := want2012()
	m.Quantity = eum.NewQuantity(eum.WaterDepth, eum.Feet)
	m.X[4] = 1.0 / 3
	var buf bytes.Buffer
	if err := m.Write(&buf); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if !strings.HasPrefix(lines[0], "100078  1003  5  PROJCS") {
		t.Errorf("header %q", lines[0])
	}
	if lines[6] != "2 4 25" {
		t.Errorf("element header %q", lines[6])
	}
	if lines[8] != "2 12 15 13 0" {
		t.Errorf("triangle is not padded: %q", lines[8])
	}
	m2, err := Read(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if diff := pretty.Diff(m, m2); len(diff) > 0 {
		t.Errorf("%v", diff)
	}
}

func TestBuilder(t *testing.T) {
	b := NewBuilder()
	if p := b.Validate(); len(p) < 3 {
		t.Errorf("empty builder: %v", p)
	}
	w := want2012()
	b.SetProjection(w.Projection)
	if err := b.SetNodes(w.X, w.Y, w.Z, w.Codes); err != nil {
		t.Fatal(err)
	}
	if err := b.SetNodeIDs(w.NodeIDs); err != nil {
		t.Fatal(err)
	}
	b.SetElements(w.Elements)
	if err := b.SetElementIDs(w.ElementIDs); err != nil {
		t.Fatal(err)
	}
	m, err := b.CreateMesh()
	if err != nil {
		t.Fatal(err)
	}
	if diff := pretty.Diff(w, m); len(diff) > 0 {
		t.Errorf("%v", diff)
	}
	b.SetElements([][]int{{1, 2, 9}})
	if _, err := b.CreateMesh(); err == nil {
		t.Error("want error for an element outside the mesh")
	}
}

func TestDfsuConversion(t *testing.T) {
	dir, err := ioutil.TempDir("", "mesh_test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	m := want2012()
	path := filepath.Join(dir, "mesh.dfsu")
	if err := m.WriteDfsu(path, time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatal(err)
	}
	f, err := dfsu.Open(path, dfs.Read)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if f.Geometry.Fingerprint() != m.Geometry().Fingerprint() {
		t.Errorf("geometry changed: %v", pretty.Diff(m.Geometry(), f.Geometry))
	}
	d, err := f.ReadItemTimeStep(1, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	// Mean z of nodes 12, 15 and 13.
	if v := float64(d.Data.(dfs.FloatData)[1]); math.Abs(v+10.25/3) > 1e-5 {
		t.Errorf("element 2 depth %g", v)
	}
	m2, err := FromDfsu(f.Geometry, m.Projection)
	if err != nil {
		t.Fatal(err)
	}
	if diff := pretty.Diff(m, m2); len(diff) > 0 {
		t.Errorf("%v", diff)
	}
	if _, err := FromDfsu(&dfsu.Geometry{FileType: dfsu.Dfsu3DSigma}, ""); err == nil {
		t.Error("3D geometry converted to a mesh")
	}
}
