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

package dfs

import (
	"errors"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spatialmodel/dfs/engine/netcdf"
	"github.com/spatialmodel/dfs/eum"
	"gonum.org/v1/gonum/mat"
)

func TestMain(m *testing.M) {
	if err := Init(netcdf.New()); err != nil {
		panic(err)
	}
	code := m.Run()
	Shutdown()
	os.Exit(code)
}

func tempDir(t *testing.T) (string, func()) {
	dir, err := ioutil.TempDir("", "dfs_test")
	if err != nil {
		t.Fatal(err)
	}
	return dir, func() { os.RemoveAll(dir) }
}

var testStart = time.Date(2010, 1, 4, 12, 34, 0, 0, time.UTC)

// newTestBuilder returns a builder with the header set and one point
// item per entry in names.
func newTestBuilder(t *testing.T, names []string, types []DataType) *Builder {
	b := NewBuilder("test file", "dfs test", 1)
	if err := b.SetDataType(1); err != nil {
		t.Fatal(err)
	}
	if err := b.SetGeographicalProjection(NewProjection("LONG/LAT", 12, 55, 0)); err != nil {
		t.Fatal(err)
	}
	if err := b.SetTemporalAxis(NewCalendarEquidistantAxis(eum.Second, testStart, 10)); err != nil {
		t.Fatal(err)
	}
	ib := b.CreateDynamicItemBuilder()
	for i, name := range names {
		ib.Set(name, eum.NewQuantity(eum.WaterLevel, eum.Meter), types[i])
		ib.SetAxis(NewPointAxis(eum.UnitUndefined))
		ib.SetValueType(Instantaneous)
		item, err := ib.GetDynamicItemInfo()
		if err != nil {
			t.Fatal(err)
		}
		if err := b.AddDynamicItem(item); err != nil {
			t.Fatal(err)
		}
	}
	return b
}

// createWaterFile writes the water level and depth dfs0 file with
// nsteps time steps.
func createWaterFile(t *testing.T, path string, nsteps int) *File {
	b := newTestBuilder(t, []string{"WaterLevel", "WaterDepth"}, []DataType{Float, Float})
	if err := b.CreateFile(path); err != nil {
		t.Fatal(err)
	}
	f, err := b.GetFile()
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < nsteps; i++ {
		if err := f.WriteItemTimeStepNext(float64(i*10), FloatData{float32(i)}); err != nil {
			t.Fatal(err)
		}
		if err := f.WriteItemTimeStepNext(float64(i*10), FloatData{float32(100 + i)}); err != nil {
			t.Fatal(err)
		}
	}
	return f
}

func TestDfs0CreateRead(t *testing.T) {
	dir, clean := tempDir(t)
	defer clean()
	path := filepath.Join(dir, "water.dfs0")
	f := createWaterFile(t, path, 10)
	if f.NumberOfTimeSteps() != 10 {
		t.Errorf("have %d time steps, want 10", f.NumberOfTimeSteps())
	}
	check := func(f *File) {
		d, err := f.ReadItemTimeStep(1, 3, nil)
		if err != nil {
			t.Fatal(err)
		}
		if d.Time != 30 {
			t.Errorf("time: have %g, want 30", d.Time)
		}
		if v := d.Data.(FloatData)[0]; v != 3 {
			t.Errorf("item 1: have %g, want 3", v)
		}
		d, err = f.ReadItemTimeStep(2, 3, nil)
		if err != nil {
			t.Fatal(err)
		}
		if v := d.Data.(FloatData)[0]; v != 103 {
			t.Errorf("item 2: have %g, want 103", v)
		}
	}
	check(f)
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
	if _, err := f.ReadItemTimeStep(1, 0, nil); !errors.Is(err, ErrClosed) {
		t.Errorf("read after close: %v", err)
	}

	f, err := Open(path, Read)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	check(f)
	info := f.FileInfo()
	if info.FileTitle != "test file" || info.Projection.WKT != "LONG/LAT" || info.DataType != 1 {
		t.Errorf("file info: %+v", info)
	}
	a, ok := info.TimeAxis.(*CalendarEquidistantAxis)
	if !ok {
		t.Fatalf("temporal axis is %T", info.TimeAxis)
	}
	if !a.StartDateTime().Equal(testStart) || a.TimeStep() != 10 {
		t.Errorf("temporal axis start %v step %g", a.StartDateTime(), a.TimeStep())
	}
	dt, err := a.DateTimeAt(3)
	if err != nil {
		t.Fatal(err)
	}
	if want := testStart.Add(30 * time.Second); !dt.Equal(want) {
		t.Errorf("date of step 3: have %v, want %v", dt, want)
	}
	items := f.ItemInfo()
	if len(items) != 2 || items[1].Name != "WaterDepth" || items[0].Quantity.Item != eum.WaterLevel {
		t.Errorf("items: %+v", items)
	}
	if _, err := f.ReadItemTimeStep(1, 10, nil); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("read past last step: %v", err)
	}
	if _, err := f.ReadItemTimeStep(3, 0, nil); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("read item 3: %v", err)
	}
}

func TestRoundRobin(t *testing.T) {
	dir, clean := tempDir(t)
	defer clean()
	path := filepath.Join(dir, "water.dfs0")
	createWaterFile(t, path, 4).Close()

	f, err := Open(path, Read)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := f.Reset(); err != nil {
		t.Fatal(err)
	}
	for step := 0; step < 4; step++ {
		for item := 1; item <= 2; item++ {
			d, err := f.ReadItemTimeStepNext(nil)
			if err != nil {
				t.Fatal(err)
			}
			if d.ItemNumber != item || d.TimeStepIndex != step {
				t.Errorf("have (%d, %d), want (%d, %d)", d.ItemNumber, d.TimeStepIndex, item, step)
			}
		}
	}
	if _, err := f.ReadItemTimeStepNext(nil); err != io.EOF {
		t.Errorf("want io.EOF, have %v", err)
	}
}

func TestReuseBuffer(t *testing.T) {
	dir, clean := tempDir(t)
	defer clean()
	f := createWaterFile(t, filepath.Join(dir, "water.dfs0"), 2)
	defer f.Close()
	buf := make(FloatData, 1)
	d, err := f.ReadItemTimeStep(2, 1, buf)
	if err != nil {
		t.Fatal(err)
	}
	if buf[0] != 101 || d.Data.(FloatData)[0] != 101 {
		t.Errorf("buffer not filled: %v", buf)
	}
	if _, err := f.ReadItemTimeStep(1, 0, make(FloatData, 2)); !errors.Is(err, ErrSize) {
		t.Errorf("wrong size buffer: %v", err)
	}
	if _, err := f.ReadItemTimeStep(1, 0, make(DoubleData, 1)); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("wrong type buffer: %v", err)
	}
}

func TestAppendOrdering(t *testing.T) {
	dir, clean := tempDir(t)
	defer clean()
	f := createWaterFile(t, filepath.Join(dir, "water.dfs0"), 1)
	defer f.Close()

	if err := f.WriteItemTimeStep(2, 1, 10, FloatData{1}); !errors.Is(err, ErrOrdering) {
		t.Fatalf("want ordering error, have %v", err)
	}
	if err := f.WriteItemTimeStep(1, 1, 10, FloatData{1}); err != nil {
		t.Fatal(err)
	}
	if f.NumberOfTimeSteps() != 1 {
		t.Errorf("half written step counted: %d", f.NumberOfTimeSteps())
	}
	if err := f.WriteItemTimeStep(2, 1, 10, FloatData{101}); err != nil {
		t.Fatal(err)
	}
	if f.NumberOfTimeSteps() != 2 {
		t.Errorf("have %d time steps, want 2", f.NumberOfTimeSteps())
	}
	if err := f.WriteItemTimeStep(1, 3, 30, FloatData{1}); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("write past frontier: %v", err)
	}
	// Rewriting existing steps never grows the file.
	if err := f.WriteItemTimeStep(2, 0, 0, FloatData{42}); err != nil {
		t.Fatal(err)
	}
	if err := f.WriteItemTimeStep(1, 1, 10, FloatData{7}); err != nil {
		t.Fatal(err)
	}
	if err := f.WriteItemTimeStep(2, 1, 10, FloatData{8}); err != nil {
		t.Fatal(err)
	}
	if f.NumberOfTimeSteps() != 2 {
		t.Errorf("have %d time steps, want 2", f.NumberOfTimeSteps())
	}
	d, err := f.ReadItemTimeStep(2, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if v := d.Data.(FloatData)[0]; v != 42 {
		t.Errorf("have %g, want 42", v)
	}
}

func TestAppendAfterOpen(t *testing.T) {
	dir, clean := tempDir(t)
	defer clean()
	path := filepath.Join(dir, "water.dfs0")
	createWaterFile(t, path, 3).Close()

	f, err := Open(path, Append)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.WriteItemTimeStepNext(30, FloatData{3}); err != nil {
		t.Fatal(err)
	}
	if err := f.WriteItemTimeStepNext(30, FloatData{103}); err != nil {
		t.Fatal(err)
	}
	if f.NumberOfTimeSteps() != 4 {
		t.Errorf("have %d time steps, want 4", f.NumberOfTimeSteps())
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	f, err = Open(path, Read)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if f.NumberOfTimeSteps() != 4 {
		t.Errorf("reopened: have %d time steps, want 4", f.NumberOfTimeSteps())
	}
	d, err := f.ReadItemTimeStep(2, 3, nil)
	if err != nil {
		t.Fatal(err)
	}
	if v := d.Data.(FloatData)[0]; v != 103 {
		t.Errorf("have %g, want 103", v)
	}
}

func createStaticFile(t *testing.T, path string) {
	b := newTestBuilder(t, []string{"a", "b"}, []DataType{Double, Int})
	if _, err := b.AddCreateStaticItem("early", eum.UndefinedQuantity(), IntData{1}); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("static item before CreateFile: %v", err)
	}
	if err := b.CreateFile(path); err != nil {
		t.Fatal(err)
	}
	if err := b.SetDataType(2); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("SetDataType after CreateFile: %v", err)
	}
	if _, err := b.AddCreateStaticItem("codes", eum.NewQuantity(eum.IntegerCode, eum.IntCode), IntData{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	sb, err := b.CreateStaticItemBuilder()
	if err != nil {
		t.Fatal(err)
	}
	sb.Set("depth", eum.NewQuantity(eum.Bathymetry, eum.Meter), Float)
	a, _ := NewEqD1Axis(eum.Meter, 2, 0, 5)
	sb.SetAxis(a)
	sb.SetData(FloatData{-3, -4})
	s, err := sb.GetStaticItem()
	if err != nil {
		t.Fatal(err)
	}
	if len(sb.Validate()) == 0 {
		t.Error("builder was not reset")
	}
	if _, err := b.AddStaticItem(s); err != nil {
		t.Fatal(err)
	}
	f, err := b.GetFile()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.GetFile(); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("second GetFile: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := f.WriteItemTimeStepNext(0, DoubleData{float64(i)}); err != nil {
			t.Fatal(err)
		}
		if err := f.WriteItemTimeStepNext(0, IntData{int32(i)}); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestRegionCrossingReset(t *testing.T) {
	dir, clean := tempDir(t)
	defer clean()
	path := filepath.Join(dir, "static.dfs0")
	createStaticFile(t, path)

	f, err := Open(path, Read)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if f.StaticItemCount() != 2 {
		t.Fatalf("have %d static items, want 2", f.StaticItemCount())
	}
	for i := 0; i < 3; i++ {
		if _, err := f.ReadItemTimeStepNext(nil); err != nil {
			t.Fatal(err)
		}
	}
	s, err := f.ReadStaticItemNext()
	if err != nil {
		t.Fatal(err)
	}
	if s.Name != "codes" || s.Data.(IntData)[2] != 3 {
		t.Errorf("static item 1: %+v", s)
	}
	d, err := f.ReadItemTimeStepNext(nil)
	if err != nil {
		t.Fatal(err)
	}
	if d.ItemNumber != 1 || d.TimeStepIndex != 0 {
		t.Errorf("after static read: have (%d, %d), want (1, 0)", d.ItemNumber, d.TimeStepIndex)
	}
	s, err = f.ReadStaticItemNext()
	if err != nil {
		t.Fatal(err)
	}
	if s.StaticItemNumber() != 1 {
		t.Errorf("static cursor not reset: read item %d", s.StaticItemNumber())
	}
	s, err = f.ReadStaticItem(2)
	if err != nil {
		t.Fatal(err)
	}
	if s.Name != "depth" || s.Data.(FloatData)[1] != -4 || s.ElementCount != 2 {
		t.Errorf("static item 2: %+v", s)
	}
	if _, err := f.ReadStaticItemNext(); err != io.EOF {
		t.Errorf("want io.EOF, have %v", err)
	}
}

func TestStaticItemUpdate(t *testing.T) {
	dir, clean := tempDir(t)
	defer clean()
	path := filepath.Join(dir, "static.dfs0")
	createStaticFile(t, path)

	f, err := Open(path, Edit)
	if err != nil {
		t.Fatal(err)
	}
	s, err := f.ReadStaticItem(2)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Update(DoubleData{1, 2}); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("update with wrong type: %v", err)
	}
	if err := s.Update(FloatData{1}); !errors.Is(err, ErrSize) {
		t.Errorf("update with short data: %v", err)
	}
	if err := s.Update(FloatData{-10, -20}); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	f, err = Open(path, Read)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	s, err = f.ReadStaticItem(2)
	if err != nil {
		t.Fatal(err)
	}
	if v := s.Data.(FloatData); v[0] != -10 || v[1] != -20 {
		t.Errorf("have %v", v)
	}
}

func testData(dt DataType) Data {
	switch dt {
	case Float:
		return FloatData{1.5, -2.25, 3}
	case Double:
		return DoubleData{1e-300, -2.5, 3}
	case Byte:
		return ByteData{-128, 0, 127}
	case Int:
		return IntData{-2147483648, 0, 2147483647}
	case UInt:
		return UIntData{0, 1, 4294967295}
	case Short:
		return ShortData{-32768, 1, 32767}
	case UShort:
		return UShortData{0, 1, 65535}
	}
	panic("invalid type")
}

func wrongData(dt DataType) Data {
	if dt == Double {
		return FloatData{1, 2, 3}
	}
	return DoubleData{1, 2, 3}
}

func createTypedFile(t *testing.T, path string, dt DataType) *File {
	b := newTestBuilder(t, nil, nil)
	a, err := NewEqD1Axis(eum.Meter, 3, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.AddCreateDynamicItem("item", eum.UndefinedQuantity(), dt, a); err != nil {
		t.Fatal(err)
	}
	if err := b.CreateFile(path); err != nil {
		t.Fatal(err)
	}
	f, err := b.GetFile()
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestDataTypes(t *testing.T) {
	dir, clean := tempDir(t)
	defer clean()
	for _, dt := range []DataType{Float, Double, Byte, Int, UInt, Short, UShort} {
		t.Run(dt.String(), func(t *testing.T) {
			path := filepath.Join(dir, dt.String()+".dfs1")
			f := createTypedFile(t, path, dt)
			if err := f.WriteItemTimeStepNext(0, wrongData(dt)); !errors.Is(err, ErrTypeMismatch) {
				t.Errorf("want type mismatch, have %v", err)
			}
			want := testData(dt)
			if err := f.WriteItemTimeStepNext(0, want); err != nil {
				t.Fatal(err)
			}
			if err := f.Close(); err != nil {
				t.Fatal(err)
			}
			f, err := Open(path, Read)
			if err != nil {
				t.Fatal(err)
			}
			defer f.Close()
			d, err := f.ReadItemTimeStep(1, 0, nil)
			if err != nil {
				t.Fatal(err)
			}
			if d.Data.Len() != 3 {
				t.Fatalf("have %d values", d.Data.Len())
			}
			for i := 0; i < 3; i++ {
				if a, b := d.Data, want; !sameElement(a, b, i) {
					t.Errorf("element %d: have %v, want %v", i, a, b)
				}
			}
		})
	}
}

func sameElement(a, b Data, i int) bool {
	switch av := a.(type) {
	case FloatData:
		return av[i] == b.(FloatData)[i]
	case DoubleData:
		return av[i] == b.(DoubleData)[i]
	case ByteData:
		return av[i] == b.(ByteData)[i]
	case IntData:
		return av[i] == b.(IntData)[i]
	case UIntData:
		return av[i] == b.(UIntData)[i]
	case ShortData:
		return av[i] == b.(ShortData)[i]
	case UShortData:
		return av[i] == b.(UShortData)[i]
	}
	return false
}

func TestBuilderValidate(t *testing.T) {
	b := NewBuilder("", "", 0)
	p, err := b.Validate(false)
	if err != nil {
		t.Fatal(err)
	}
	if len(p) < 3 {
		t.Errorf("have %d problems, want at least 3: %v", len(p), p)
	}
	if _, err := b.Validate(true); err == nil {
		t.Error("want error")
	} else {
		var ve *ValidationError
		if !errors.As(err, &ve) || len(ve.Problems) != len(p) {
			t.Errorf("have %v", err)
		}
	}
	if err := b.CreateFile("never.dfs0"); err == nil {
		t.Error("invalid builder created a file")
	}

	b = newTestBuilder(t, []string{"a"}, []DataType{Float})
	if p, _ := b.Validate(false); len(p) != 0 {
		t.Errorf("complete builder has problems: %v", p)
	}
	b.AddCustomBlock(CustomBlock{Data: IntData{}})
	b.AddDynamicItem(&ItemInfo{DataType: Float})
	if p, _ := b.Validate(false); len(p) != 4 {
		t.Errorf("have %d problems, want 4: %v", len(p), p)
	}
}

func TestCompressedValidation(t *testing.T) {
	b := NewBuilder("compressed", "dfs test", 1)
	b.SetDataType(0)
	b.SetGeographicalProjection(NewProjection("NON-UTM", 0, 0, 0))
	b.SetTemporalAxis(NewTimeEquidistantAxis(eum.Second, 0, 60))
	a, _ := NewEqD2Axis(eum.Meter, 3, 2, 0, 1, 0, 1)
	b.AddCreateDynamicItem("f", eum.UndefinedQuantity(), Float, a)
	b.AddCreateDynamicItem("d", eum.UndefinedQuantity(), Double, a)
	b.SetEncodingKey(EncodeKey{X: []int{0, 2, 3}, Y: []int{0, 1, 0}, Z: []int{0, 0, 0}})
	p, _ := b.Validate(false)
	// x=3 is outside both items; item d is not float.
	if len(p) != 3 {
		t.Errorf("have %d problems, want 3: %v", len(p), p)
	}
}

func TestExpandCompressed(t *testing.T) {
	dir, clean := tempDir(t)
	defer clean()
	path := filepath.Join(dir, "compressed.dfs2")
	b := NewBuilder("compressed", "dfs test", 1)
	b.SetDataType(0)
	b.SetGeographicalProjection(NewProjection("NON-UTM", 0, 0, 0))
	b.SetTemporalAxis(NewTimeEquidistantAxis(eum.Second, 0, 60))
	a, _ := NewEqD2Axis(eum.Meter, 3, 2, 0, 1, 0, 1)
	b.AddCreateDynamicItem("f", eum.UndefinedQuantity(), Float, a)
	b.SetEncodingKey(EncodeKey{X: []int{0, 2}, Y: []int{0, 1}, Z: []int{0, 0}})
	if err := b.CreateFile(path); err != nil {
		t.Fatal(err)
	}
	f, err := b.GetFile()
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	item := f.ItemInfo()[0]
	if item.ElementCount != 2 {
		t.Errorf("compressed item has %d elements, want 2", item.ElementCount)
	}
	if err := f.WriteItemTimeStepNext(0, FloatData{7, 8}); err != nil {
		t.Fatal(err)
	}
	d, err := f.ReadItemTimeStep(1, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	full, err := ExpandCompressed(f.FileInfo(), item, d.Data.(FloatData))
	if err != nil {
		t.Fatal(err)
	}
	del := f.FileInfo().DeleteValues.Float
	want := FloatData{7, del, del, del, del, 8}
	for i := range want {
		if full[i] != want[i] {
			t.Errorf("cell %d: have %g, want %g", i, full[i], want[i])
		}
	}
}

func TestDfs0Bulk(t *testing.T) {
	dir, clean := tempDir(t)
	defer clean()
	f := createWaterFile(t, filepath.Join(dir, "water.dfs0"), 5)
	defer f.Close()
	m, err := ReadDfs0DataDouble(f)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Reset(); err != nil {
		t.Fatal(err)
	}
	for step := 0; step < 5; step++ {
		for item := 1; item <= 2; item++ {
			d, err := f.ReadItemTimeStepNext(nil)
			if err != nil {
				t.Fatal(err)
			}
			if m.At(step, 0) != d.Time {
				t.Errorf("step %d: time %g != %g", step, m.At(step, 0), d.Time)
			}
			if v := float64(d.Data.(FloatData)[0]); m.At(step, item) != v {
				t.Errorf("step %d item %d: %g != %g", step, item, m.At(step, item), v)
			}
		}
	}

	path := filepath.Join(dir, "bulk.dfs0")
	b := newTestBuilder(t, []string{"f", "d"}, []DataType{Float, Double})
	if err := b.CreateFile(path); err != nil {
		t.Fatal(err)
	}
	g, err := b.GetFile()
	if err != nil {
		t.Fatal(err)
	}
	defer g.Close()
	in := mat.NewDense(3, 3, []float64{0, 1, 2, 10, 3, 4, 20, 5, 6})
	if err := WriteDfs0DataDouble(g, in); err != nil {
		t.Fatal(err)
	}
	if g.NumberOfTimeSteps() != 3 {
		t.Errorf("have %d time steps, want 3", g.NumberOfTimeSteps())
	}
	out, err := ReadDfs0DataDouble(g)
	if err != nil {
		t.Fatal(err)
	}
	if !mat.Equal(in, out) {
		t.Errorf("have %v, want %v", mat.Formatted(out), mat.Formatted(in))
	}
	if err := WriteDfs0DataDouble(g, mat.NewDense(1, 2, nil)); !errors.Is(err, ErrSize) {
		t.Errorf("wrong column count: %v", err)
	}
}

func TestTemporalAxisWriteThrough(t *testing.T) {
	dir, clean := tempDir(t)
	defer clean()
	path := filepath.Join(dir, "water.dfs0")
	createWaterFile(t, path, 2).Close()

	f, err := Open(path, Edit)
	if err != nil {
		t.Fatal(err)
	}
	a := f.FileInfo().TimeAxis.(*CalendarEquidistantAxis)
	if err := a.SetTimeStep(60); err != nil {
		t.Fatal(err)
	}
	newStart := testStart.Add(time.Hour)
	if err := a.SetStartDateTime(newStart); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	f, err = Open(path, Read)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	a = f.FileInfo().TimeAxis.(*CalendarEquidistantAxis)
	if a.TimeStep() != 60 || !a.StartDateTime().Equal(newStart) {
		t.Errorf("have step %g start %v", a.TimeStep(), a.StartDateTime())
	}
	d, err := f.ReadItemTimeStep(1, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	if d.Time != 60 {
		t.Errorf("have time %g, want 60", d.Time)
	}
	if err := a.SetTimeStep(5); err == nil {
		t.Error("read-only file accepted a temporal axis change")
	}
	if err := a.SetStartDateTime(testStart); err == nil {
		t.Error("read-only file accepted a new start date")
	}
	if err := a.SetStartTimeOffset(7); err == nil {
		t.Error("read-only file accepted a new start offset")
	}
	if a.TimeStep() != 60 || !a.StartDateTime().Equal(newStart) || a.StartTimeOffset() != 0 {
		t.Errorf("rejected changes kept: step %g start %v offset %g",
			a.TimeStep(), a.StartDateTime(), a.StartTimeOffset())
	}
	if d := f.FileInfo().TimeAxis.(*CalendarEquidistantAxis); d.TimeStep() != 60 {
		t.Errorf("file info has step %g", d.TimeStep())
	}
}

func TestNonEquidistantTime(t *testing.T) {
	dir, clean := tempDir(t)
	defer clean()
	path := filepath.Join(dir, "neq.dfs0")
	b := newTestBuilder(t, []string{"a"}, []DataType{Double})
	b.SetTemporalAxis(NewTimeNonEquidistantAxis(eum.Second, 5))
	if err := b.CreateFile(path); err != nil {
		t.Fatal(err)
	}
	f, err := b.GetFile()
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	times := []float64{5, 7, 20}
	for _, tm := range times {
		if err := f.WriteItemTimeStepNext(tm, DoubleData{tm}); err != nil {
			t.Fatal(err)
		}
	}
	a := f.FileInfo().TimeAxis.(*TimeNonEquidistantAxis)
	if a.NumberOfTimeSteps() != 3 || a.TimeSpan() != 15 {
		t.Errorf("have %d steps, span %g", a.NumberOfTimeSteps(), a.TimeSpan())
	}
	for i, tm := range times {
		d, err := f.ReadItemTimeStep(1, i, nil)
		if err != nil {
			t.Fatal(err)
		}
		if d.Time != tm {
			t.Errorf("step %d: have time %g, want %g", i, d.Time, tm)
		}
	}
}

func TestGridData(t *testing.T) {
	a, err := NewEqD3Axis(eum.Meter, 3, 2, 2, 0, 1, 0, 1, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	item := &ItemInfo{Name: "g", DataType: Float, SpatialAxis: a}
	d := make(FloatData, 12)
	for i := range d {
		d[i] = float32(i)
	}
	g, err := GridData(item, d)
	if err != nil {
		t.Fatal(err)
	}
	if g.Shape[0] != 2 || g.Shape[1] != 2 || g.Shape[2] != 3 {
		t.Errorf("shape %v", g.Shape)
	}
	// x + 3*(y + 2*z)
	if v := g.Get(1, 0, 2); v != 8 {
		t.Errorf("have %g, want 8", v)
	}
	if _, err := GridData(&ItemInfo{SpatialAxis: NewPointAxis(eum.Meter)}, d); err == nil {
		t.Error("point axis is not a grid")
	}
}
