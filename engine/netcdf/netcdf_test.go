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

package netcdf

import (
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/spatialmodel/dfs/engine"
)

func createTestFile(t *testing.T, path string) {
	e := New()
	h, err := e.CreateHeader(engine.EqtimeFixedspaceAllitems, "test", "app", 1, 2, engine.NoStat)
	if err != nil {
		t.Fatal(err)
	}
	axis := engine.AxisDef{Type: engine.AxisEqD1, Unit: 1000, Counts: []int{3}, Origin: []float64{0}, Spacing: []float64{1}}
	types := []engine.DataType{engine.Float, engine.Short}
	for i := 1; i <= 2; i++ {
		s, err := h.Item(i)
		if err != nil {
			t.Fatal(err)
		}
		if err := s.SetName("item"); err != nil {
			t.Fatal(err)
		}
		if err := s.SetDataType(types[i-1]); err != nil {
			t.Fatal(err)
		}
		if err := s.SetAxis(axis); err != nil {
			t.Fatal(err)
		}
	}
	if err := h.AddCustomBlock(engine.CustomBlock{Name: "block", Data: engine.IntData{1, 2, 3}}); err != nil {
		t.Fatal(err)
	}
	if err := h.SetTemporalAxis(engine.TimeAxisDef{Type: engine.CalendarEquidistant, Unit: 1400,
		StartDateTime: "2010-01-04T12:34:00.000", TimeStep: 10}); err != nil {
		t.Fatal(err)
	}
	f, err := e.Create(path, h)
	if err != nil {
		t.Fatal(err)
	}
	s, err := f.NewStaticItem()
	if err != nil {
		t.Fatal(err)
	}
	s.SetName("static")
	s.SetDataType(engine.Byte)
	s.SetAxis(engine.AxisDef{Type: engine.AxisEqD1, Counts: []int{5}, Origin: []float64{0}, Spacing: []float64{1}})
	if err := f.WriteStaticItem(s, engine.ByteData{1, -2, 3, 4, 5}); err != nil {
		t.Fatal(err)
	}
	if err := f.WriteDynamicBlockMarker(); err != nil {
		t.Fatal(err)
	}
	if _, err := f.NewStaticItem(); err == nil {
		t.Error("static item after block marker should fail")
	}
	for step := 0; step < 2; step++ {
		v := float32(step)
		if err := f.WriteItemTimeStep(float64(step*10), engine.FloatData{v, v + 1, v + 2}); err != nil {
			t.Fatal(err)
		}
		if err := f.WriteItemTimeStep(float64(step*10), engine.ShortData{int16(step), -1, 7}); err != nil {
			t.Fatal(err)
		}
	}
	if h.NumberOfTimeSteps() != 2 {
		t.Errorf("have %d time steps, want 2", h.NumberOfTimeSteps())
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.dfs")
	createTestFile(t, path)

	h, f, err := New().Open(path, engine.Read)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	info := h.Info()
	if info.Title != "test" || info.ApplicationTitle != "app" || info.ApplicationVersion != 1 {
		t.Errorf("header info: %+v", info)
	}
	if info.TimeAxis.StartDateTime != "2010-01-04T12:34:00.000" || info.TimeAxis.TimeStep != 10 {
		t.Errorf("temporal axis: %+v", info.TimeAxis)
	}
	if info.TimeAxis.NumberOfTimeSteps != 2 {
		t.Errorf("have %d time steps, want 2", info.TimeAxis.NumberOfTimeSteps)
	}
	if len(info.CustomBlocks) != 1 || info.CustomBlocks[0].Name != "block" {
		t.Fatalf("custom blocks: %+v", info.CustomBlocks)
	}
	if d := info.CustomBlocks[0].Data.(engine.IntData); len(d) != 3 || d[2] != 3 {
		t.Errorf("custom block data: %v", d)
	}
	if h.ItemCount() != 2 || h.StaticItemCount() != 1 {
		t.Fatalf("have %d items and %d static items", h.ItemCount(), h.StaticItemCount())
	}

	def, sd, err := f.ReadStaticItemNext()
	if err != nil {
		t.Fatal(err)
	}
	if def.Name != "static" || def.ElementCount != 5 {
		t.Errorf("static def: %+v", def)
	}
	if b := sd.(engine.ByteData); b[1] != -2 || len(b) != 5 {
		t.Errorf("static data: %v", b)
	}
	if _, _, err := f.ReadStaticItemNext(); !engine.IsEOF(err) {
		t.Errorf("want EOF, have %v", err)
	}

	fd := make(engine.FloatData, 3)
	sh := make(engine.ShortData, 3)
	for step := 0; step < 2; step++ {
		tm, err := f.ReadItemTimeStep(fd)
		if err != nil {
			t.Fatal(err)
		}
		if tm != float64(step*10) || fd[2] != float32(step+2) {
			t.Errorf("step %d: time %g data %v", step, tm, fd)
		}
		if _, err := f.ReadItemTimeStep(sh); err != nil {
			t.Fatal(err)
		}
		if sh[0] != int16(step) || sh[1] != -1 {
			t.Errorf("step %d: data %v", step, sh)
		}
	}
	if _, err := f.ReadItemTimeStep(fd); !engine.IsEOF(err) {
		t.Errorf("want EOF, have %v", err)
	}
	if err := f.FindItemDynamic(1, 2); err != nil {
		t.Fatal(err)
	}
	if _, err := f.ReadItemTimeStep(fd); engine.StatusOf(err) != engine.TypeMismatch {
		t.Errorf("want type mismatch, have %v", err)
	}
	if err := f.WriteItemTimeStep(0, fd); engine.StatusOf(err) != engine.ReadOnly {
		t.Errorf("want read-only, have %v", err)
	}
	if err := f.FindItemDynamic(0, 3); engine.StatusOf(err) != engine.ItemOutOfRange {
		t.Errorf("want item out of range, have %v", err)
	}
}

func TestAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.dfs")
	createTestFile(t, path)

	h, f, err := New().Open(path, engine.Append)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.WriteItemTimeStep(20, engine.FloatData{9, 9, 9}); err != nil {
		t.Fatal(err)
	}
	if h.NumberOfTimeSteps() != 2 {
		t.Errorf("partial step counted: %d", h.NumberOfTimeSteps())
	}
	if err := f.WriteItemTimeStep(20, engine.ShortData{9, 9, 9}); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	h, f, err = New().Open(path, engine.Read)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if h.NumberOfTimeSteps() != 3 {
		t.Errorf("have %d time steps, want 3", h.NumberOfTimeSteps())
	}
	if err := f.FindTimeStep(2); err != nil {
		t.Fatal(err)
	}
	fd := make(engine.FloatData, 3)
	tm, err := f.ReadItemTimeStep(fd)
	if err != nil {
		t.Fatal(err)
	}
	if tm != 20 || fd[0] != 9 {
		t.Errorf("time %g data %v", tm, fd)
	}
}

func TestOpenErrors(t *testing.T) {
	if _, _, err := New().Open(filepath.Join(t.TempDir(), "missing.dfs"), engine.Read); engine.StatusOf(err) != engine.FileNotFound {
		t.Errorf("want file not found, have %v", err)
	}
}

func TestHeaderLockedAfterWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.dfs")
	createTestFile(t, path)
	h, f, err := New().Open(path, engine.Edit)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := h.SetProjection(engine.Projection{Type: engine.ProjectionDefined, WKT: "NON-UTM"}); engine.StatusOf(err) != engine.WriteFailed {
		t.Errorf("want write failed, have %v", err)
	}
	s, _ := h.Item(1)
	if err := s.SetName("x"); engine.StatusOf(err) != engine.WriteFailed {
		t.Errorf("want write failed, have %v", err)
	}
	if err := h.SetTemporalAxis(engine.TimeAxisDef{Type: engine.CalendarEquidistant, Unit: 1400,
		StartDateTime: "2011-02-03T00:00:00.000", TimeStep: 60}); err != nil {
		t.Fatal(err)
	}
	if got := h.Info().TimeAxis.StartDateTime; got != "2011-02-03T00:00:00.000" {
		t.Errorf("have start %q", got)
	}
}

func TestCompleteAccess(t *testing.T) {
	for _, c := range []struct {
		n, want int
		err     error
		ok      bool
	}{
		{n: 5, want: 5, err: io.EOF, ok: true},
		{n: 5, want: 5, ok: true},
		{n: 3, want: 5, err: io.EOF},
		{n: 3, want: 5},
		{n: 5, want: 5, err: errors.New("disk")},
	} {
		if err := complete(c.n, c.want, c.err); (err == nil) != c.ok {
			t.Errorf("complete(%d, %d, %v) = %v", c.n, c.want, c.err, err)
		}
	}
}

// A single element item makes every read and write end at the end of
// its variable.
func TestSingleValueRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "single.dfs0")
	e := New()
	h, err := e.CreateHeader(engine.EqtimeFixedspaceAllitems, "single", "app", 1, 1, engine.NoStat)
	if err != nil {
		t.Fatal(err)
	}
	s, err := h.Item(1)
	if err != nil {
		t.Fatal(err)
	}
	s.SetName("level")
	s.SetDataType(engine.Double)
	s.SetAxis(engine.AxisDef{Type: engine.AxisEqD0})
	if err := h.SetTemporalAxis(engine.TimeAxisDef{Type: engine.TimeEquidistant, Unit: 1400, TimeStep: 1}); err != nil {
		t.Fatal(err)
	}
	f, err := e.Create(path, h)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := f.WriteItemTimeStep(float64(i), engine.DoubleData{float64(10 * i)}); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	h, f, err = New().Open(path, engine.Read)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if h.NumberOfTimeSteps() != 3 {
		t.Fatalf("have %d time steps, want 3", h.NumberOfTimeSteps())
	}
	d := make(engine.DoubleData, 1)
	for i := 0; i < 3; i++ {
		tm, err := f.ReadItemTimeStep(d)
		if err != nil {
			t.Fatal(err)
		}
		if tm != float64(i) || d[0] != float64(10*i) {
			t.Errorf("step %d: time %g value %g", i, tm, d[0])
		}
	}
	if _, err := f.ReadItemTimeStep(d); !engine.IsEOF(err) {
		t.Errorf("want EOF, have %v", err)
	}
}
