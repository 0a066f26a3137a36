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
	"io/ioutil"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/ctessum/geom/encoding/shp"
	"github.com/kr/pretty"
	"github.com/spatialmodel/dfs"
	"github.com/spatialmodel/dfs/engine/netcdf"
	"github.com/spatialmodel/dfs/eum"
)

func TestMain(m *testing.M) {
	if err := dfs.Init(netcdf.New()); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// prismMesh returns k columns of l stacked prisms. Column c sits on
// the triangle (c, 0), (c+1, 0), (c, 1).
func prismMesh(k, l int) (x, y, z []float64, codes []int, elements [][]int) {
	node := func(c, level, j int) int { return c*(l+1)*3 + level*3 + j + 1 }
	for c := 0; c < k; c++ {
		for level := 0; level <= l; level++ {
			x = append(x, float64(c), float64(c+1), float64(c))
			y = append(y, 0, 0, 1)
			d := -float64(l - level)
			z = append(z, d, d, d)
			codes = append(codes, 0, 0, 0)
		}
		for level := 0; level < l; level++ {
			elements = append(elements, []int{
				node(c, level, 0), node(c, level, 1), node(c, level, 2),
				node(c, level+1, 0), node(c, level+1, 1), node(c, level+1, 2),
			})
		}
	}
	return
}

func TestFindTopLayerElements(t *testing.T) {
	for _, kl := range [][2]int{{1, 1}, {3, 4}, {5, 2}} {
		k, l := kl[0], kl[1]
		x, y, _, _, elements := prismMesh(k, l)
		want := make([]int, k)
		for i := range want {
			want[i] = (i+1)*l - 1
		}
		top := FindTopLayerElements(elements)
		if !reflect.DeepEqual(top, want) {
			t.Errorf("%dx%d: have %v, want %v", k, l, top, want)
		}
		if topXY := FindTopLayerElementsXY(elements, x, y); !reflect.DeepEqual(topXY, want) {
			t.Errorf("%dx%d from centres: have %v, want %v", k, l, topXY, want)
		}
		if n := FindMaxNumberOfLayers(top); n != l {
			t.Errorf("max layers %d, want %d", n, l)
		}
		if n := FindMinNumberOfLayers(top); n != l {
			t.Errorf("min layers %d, want %d", n, l)
		}
	}
}

func TestFindTopLayerMixedResolution(t *testing.T) {
	var x, y []float64
	var elements [][]int
	// column adds a column of stacked prisms on the triangle with its
	// right angle at (x0, y0) and legs of length size.
	column := func(x0, y0, size float64, layers int) {
		first := len(x)
		for level := 0; level <= layers; level++ {
			x = append(x, x0, x0+size, x0)
			y = append(y, y0, y0, y0+size)
		}
		for level := 0; level < layers; level++ {
			n := first + level*3 + 1
			elements = append(elements, []int{n, n + 1, n + 2, n + 3, n + 4, n + 5})
		}
	}
	column(0, 0, 100, 1)
	column(200, 0, 0.01, 2)
	column(200.05, 0, 0.01, 2)
	want := []int{0, 2, 4}
	if top := FindTopLayerElementsXY(elements, x, y); !reflect.DeepEqual(top, want) {
		t.Errorf("have %v, want %v", top, want)
	}
}

func TestFindTopLayerProfile(t *testing.T) {
	// Two columns of vertical profile quadrilaterals: three layers,
	// then two. Nodes are numbered left to right within each level.
	//
	//   9 10 11
	//   6  7  8
	//   3  4  5
	//   0  1  2
	q := func(bl, br int) []int { return []int{bl + 1, br + 1, br + 4, bl + 4} }
	elements := [][]int{q(0, 1), q(3, 4), q(6, 7), q(4, 5), q(7, 8)}
	top := FindTopLayerElements(elements)
	if want := []int{2, 4}; !reflect.DeepEqual(top, want) {
		t.Errorf("have %v, want %v", top, want)
	}
	if FindMaxNumberOfLayers(top) != 3 || FindMinNumberOfLayers(top) != 2 {
		t.Errorf("layers %d to %d", FindMinNumberOfLayers(top), FindMaxNumberOfLayers(top))
	}
}

func TestElementType(t *testing.T) {
	tests := []struct {
		nodes int
		ft    FileType
		want  int
	}{
		{3, Dfsu2D, Triangle},
		{4, Dfsu2D, Quadrilateral},
		{2, DfsuVerticalColumn, VerticalSegment},
		{4, DfsuVerticalProfileSigma, Quadrilateral},
		{6, Dfsu3DSigma, Prism},
		{8, Dfsu3DSigmaZ, Hexahedron},
	}
	for _, test := range tests {
		have, err := ElementType(test.nodes, test.ft)
		if err != nil {
			t.Errorf("%d nodes in %v: %v", test.nodes, test.ft, err)
		} else if have != test.want {
			t.Errorf("%d nodes in %v: have %d, want %d", test.nodes, test.ft, have, test.want)
		}
	}
	for _, bad := range []struct {
		nodes int
		ft    FileType
	}{{6, Dfsu2D}, {3, Dfsu3DSigma}, {3, DfsuVerticalColumn}} {
		if _, err := ElementType(bad.nodes, bad.ft); err == nil {
			t.Errorf("%d nodes in %v should be invalid", bad.nodes, bad.ft)
		}
	}
}

func TestFileTypeFromBlock(t *testing.T) {
	tests := []struct {
		dim, layers, sigma int
		want               FileType
	}{
		{1, 5, 5, DfsuVerticalColumn},
		{2, 0, 0, Dfsu2D},
		{2, 4, 4, DfsuVerticalProfileSigma},
		{2, 6, 4, DfsuVerticalProfileSigmaZ},
		{3, 4, 4, Dfsu3DSigma},
		{3, 9, 4, Dfsu3DSigmaZ},
	}
	for _, test := range tests {
		have, err := fileTypeFromBlock(test.dim, test.layers, test.sigma)
		if err != nil {
			t.Fatal(err)
		}
		if have != test.want {
			t.Errorf("%+v: have %v", test, have)
		}
		if have.Dimension() != test.dim {
			t.Errorf("%v has dimension %d, want %d", have, have.Dimension(), test.dim)
		}
	}
	if _, err := fileTypeFromBlock(4, 0, 0); err == nil {
		t.Error("want error for dimension 4")
	}
}

func TestBuilderValidate(t *testing.T) {
	b := NewBuilder(Dfsu3DSigma)
	if p := b.Validate(); len(p) < 4 {
		t.Errorf("empty builder: %v", p)
	}

	x, y, z, codes, elements := prismMesh(2, 3)
	tests := []struct {
		ft       FileType
		sigma    int
		problems int
	}{
		{Dfsu3DSigma, 3, 0},
		{Dfsu3DSigma, 2, 1},
		{Dfsu3DSigmaZ, 2, 0},
		{Dfsu3DSigmaZ, 4, 1},
	}
	for _, test := range tests {
		b := NewBuilder(test.ft)
		b.SetProjection(dfs.NewProjection("LONG/LAT", 0, 0, 0))
		b.SetTimeInfo(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), 3600)
		if err := b.SetNodes(x, y, z, codes); err != nil {
			t.Fatal(err)
		}
		if err := b.SetElements(elements); err != nil {
			t.Fatal(err)
		}
		if err := b.SetNumberOfSigmaLayers(test.sigma); err != nil {
			t.Fatal(err)
		}
		if p := b.Validate(); len(p) != test.problems {
			t.Errorf("%v with %d sigma layers: %v", test.ft, test.sigma, p)
		}
	}

	b = NewBuilder(DfsuVerticalColumn)
	b.SetProjection(dfs.NewProjection("LONG/LAT", 0, 0, 0))
	b.SetTimeInfo(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), 3600)
	b.SetNodes([]float64{0, 0, 0}, []float64{0, 0, 0}, []float64{-2, -1, 0}, []int{1, 0, 0})
	b.SetElements([][]int{{1, 2}, {2, 4}})
	b.SetNumberOfSigmaLayers(2)
	if p := b.Validate(); len(p) != 1 || !strings.Contains(p[0], "node 4") {
		t.Errorf("node out of range: %v", p)
	}
	if err := b.SetElementIDs([]int{1}); err == nil {
		t.Error("want error for wrong number of element ids")
	}
	if err := b.SetElementIDs([]int{7, 7}); err == nil {
		t.Error("want error for duplicate element ids")
	}
}

func mixedMesh() *Geometry {
	return &Geometry{
		FileType:   Dfsu2D,
		NodeIDs:    []int{1, 2, 3, 4, 5},
		X:          []float64{0, 1, 1, 0, 2},
		Y:          []float64{0, 0, 1, 1, 0.5},
		Z:          []float64{-1, -2, -3, -4, -5},
		Codes:      []int{1, 0, 0, 1, 2},
		ElementIDs: []int{10, 20},
		Elements:   [][]int{{1, 2, 3, 4}, {2, 5, 3}},
	}
}

func TestCreateOpen2D(t *testing.T) {
	dir, err := ioutil.TempDir("", "dfsu_test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "mesh.dfsu")

	want := mixedMesh()
	b := NewBuilder(Dfsu2D)
	b.SetFileTitle("mixed mesh")
	b.SetProjection(dfs.NewProjection("LONG/LAT", 0, 0, 0))
	b.SetTimeInfo(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), 3600)
	b.SetNodes(want.X, want.Y, want.Z, want.Codes)
	b.SetElements(want.Elements)
	if err := b.SetElementIDs(want.ElementIDs); err != nil {
		t.Fatal(err)
	}
	b.AddDynamicItem("Surface elevation", eum.NewQuantity(eum.WaterLevel, eum.Meter))
	f, err := b.CreateFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for step := 0; step < 2; step++ {
		if err := f.WriteItemTimeStepNext(0, dfs.FloatData{float32(step), float32(step + 1)}); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	f, err = Open(path, dfs.Read)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if diff := pretty.Diff(want, f.Geometry); len(diff) > 0 {
		t.Errorf("geometry differs: %v", diff)
	}
	if f.Geometry.Fingerprint() != want.Fingerprint() {
		t.Error("fingerprints differ")
	}
	if f.NumberOfLayers() != 0 || f.NumberOfSigmaLayers() != 0 {
		t.Errorf("2D file has %d layers, %d sigma layers", f.NumberOfLayers(), f.NumberOfSigmaLayers())
	}
	if f.FileInfo().DataType != DataType || f.FileInfo().FileTitle != "mixed mesh" {
		t.Errorf("file info: %+v", f.FileInfo())
	}
	items := f.DataItems()
	if len(items) != 1 || items[0].ElementCount != 2 {
		t.Fatalf("data items: %+v", items)
	}
	d, err := f.ReadItemTimeStep(1, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	if v := d.Data.(dfs.FloatData); v[0] != 1 || v[1] != 2 {
		t.Errorf("have %v", v)
	}
	s, err := f.ReadStaticItem(9)
	if err != nil {
		t.Fatal(err)
	}
	if s.Name != "Connectivity" || s.Data.Len() != 7 {
		t.Errorf("connectivity item: %+v", s)
	}
}

func TestCreateOpen3D(t *testing.T) {
	dir, err := ioutil.TempDir("", "dfsu_test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "layered.dfsu")

	x, y, z, codes, elements := prismMesh(3, 2)
	b := NewBuilder(Dfsu3DSigma)
	b.SetProjection(dfs.NewProjection("LONG/LAT", 0, 0, 0))
	b.SetTimeInfo(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), 60)
	b.SetNodes(x, y, z, codes)
	b.SetElements(elements)
	b.SetNumberOfSigmaLayers(2)
	b.AddDynamicItem("Salinity", eum.NewQuantity(eum.Concentration, eum.KilogramPerM3))
	f, err := b.CreateFile(path)
	if err != nil {
		t.Fatal(err)
	}
	zs := make(dfs.FloatData, len(z))
	for i, v := range z {
		zs[i] = float32(v)
	}
	if err := f.WriteItemTimeStepNext(0, zs); err != nil {
		t.Fatal(err)
	}
	if err := f.WriteItemTimeStepNext(0, make(dfs.FloatData, len(elements))); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	f, err = Open(path, dfs.Append)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	g := f.Geometry
	if g.FileType != Dfsu3DSigma || f.NumberOfLayers() != 2 || f.NumberOfSigmaLayers() != 2 {
		t.Errorf("have %v with %d layers, %d sigma layers", g.FileType, f.NumberOfLayers(), f.NumberOfSigmaLayers())
	}
	if !reflect.DeepEqual(g.TopLayerElements(), []int{1, 3, 5}) {
		t.Errorf("top layer %v", g.TopLayerElements())
	}
	items := f.ItemInfo()
	if len(items) != 2 || items[0].Name != ZItemName || items[0].ElementCount != len(x) {
		t.Errorf("items: %+v", items)
	}
	if d := f.DataItems(); len(d) != 1 || d[0].Name != "Salinity" {
		t.Errorf("data items: %+v", d)
	}
	// Opening for append leaves the cursor after the last time step.
	if err := f.WriteItemTimeStepNext(60, zs); err != nil {
		t.Fatal(err)
	}
	if err := f.WriteItemTimeStepNext(60, make(dfs.FloatData, len(elements))); err != nil {
		t.Fatal(err)
	}
	if f.NumberOfTimeSteps() != 2 {
		t.Errorf("have %d time steps, want 2", f.NumberOfTimeSteps())
	}
	c, depth := g.ElementCenters()
	if c[0].X != 1.0/3 || c[0].Y != 1.0/3 || depth[0] != -1.5 {
		t.Errorf("centre of element 1: %v, %g", c[0], depth[0])
	}
}

func TestWriteShapefile(t *testing.T) {
	dir, err := ioutil.TempDir("", "dfsu_test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "mesh.shp")
	g := mixedMesh()
	if err := WriteShapefile(g, path, "LONG/LAT"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "mesh.prj")); err != nil {
		t.Error(err)
	}
	d, err := shp.NewDecoder(path)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()
	var ids []string
	for {
		_, fields, more := d.DecodeRowFields("ElementID", "Nodes")
		if !more {
			break
		}
		ids = append(ids, strings.TrimSpace(fields["ElementID"]))
	}
	if err := d.Error(); err != nil {
		t.Fatal(err)
	}
	if want := []string{"10", "20"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("have ids %v, want %v", ids, want)
	}
}

func TestElementPolygons(t *testing.T) {
	p := mixedMesh().ElementPolygons()
	if len(p) != 2 || len(p[1][0]) != 4 {
		t.Fatalf("polygons: %v", p)
	}
	if p[1][0][1].X != 2 || p[1][0][1].Y != 0.5 || p[1][0][3] != p[1][0][0] {
		t.Errorf("triangle ring %v", p[1][0])
	}
}
