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
along with InMAP.  If not, see <http://www.gnu.org/licenses/>.*/


package dfsutil

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/dfs"
	"github.com/spatialmodel/dfs/engine"
	"github.com/spatialmodel/dfs/eum"
	"gonum.org/v1/gonum/mat"
)

// Definition is the TOML definition of a dfs0 file. An example:
//
//	Title = "Station 12"
//	Start = 2010-01-04T12:00:00Z
//	TimeUnit = "sec"
//	TimeStep = 3600.0
//	Projection = "LONG/LAT"
//	Longitude = 12.5
//	Latitude = 55.7
//
//	[[Items]]
//	Name = "WaterLevel"
//	ItemType = 100000
//	Unit = "m"
//
// A zero Start gives a relative time axis, and a zero TimeStep a
// non-equidistant one with the times read from the data. DataType is
// the application data type tag of the file, 0 unless given.
type Definition struct {
	Title      string
	DataType   int
	Start      time.Time
	TimeUnit   string
	TimeStep   float64
	Projection string

	Longitude, Latitude, Orientation float64

	Items []ItemDefinition
}

// ItemDefinition defines one item of a dfs0 file. DataType defaults to
// Float and ValueType to Instantaneous.
type ItemDefinition struct {
	Name      string
	ItemType  int
	Unit      string
	DataType  string
	ValueType string
}

// ReadDefinition reads a file definition from r.
func ReadDefinition(r io.Reader) (*Definition, error) {
	d := &Definition{TimeUnit: "sec", Projection: "LONG/LAT"}
	if _, err := toml.DecodeReader(r, d); err != nil {
		return nil, fmt.Errorf("dfsutil: reading file definition: %v", err)
	}
	if len(d.Items) == 0 {
		return nil, fmt.Errorf("dfsutil: the file definition has no items")
	}
	return d, nil
}

func parseDataType(s string) (dfs.DataType, error) {
	if s == "" {
		return dfs.Float, nil
	}
	for _, t := range engine.DataTypes {
		if strings.EqualFold(t.String(), s) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("dfsutil: unknown data type %q", s)
}

func parseValueType(s string) (dfs.ValueType, error) {
	if s == "" {
		return dfs.Instantaneous, nil
	}
	for v := dfs.Instantaneous; v <= dfs.MeanStepBackward; v++ {
		if strings.EqualFold(strings.Replace(v.String(), " ", "", -1), strings.Replace(s, " ", "", -1)) {
			return v, nil
		}
	}
	return 0, fmt.Errorf("dfsutil: unknown value type %q", s)
}

func (d *Definition) timeAxis() (dfs.TemporalAxis, eum.Unit, error) {
	u, err := eum.UnitFromAbbreviation(d.TimeUnit)
	if err != nil {
		return nil, u, fmt.Errorf("dfsutil: time unit: %v", err)
	}
	if !eum.UnitsEquivalent(u, eum.Second) {
		return nil, u, fmt.Errorf("dfsutil: %q is not a unit of time", d.TimeUnit)
	}
	switch {
	case d.Start.IsZero() && d.TimeStep > 0:
		return dfs.NewTimeEquidistantAxis(u, 0, d.TimeStep), u, nil
	case d.Start.IsZero():
		return dfs.NewTimeNonEquidistantAxis(u, 0), u, nil
	case d.TimeStep > 0:
		return dfs.NewCalendarEquidistantAxis(u, d.Start, d.TimeStep), u, nil
	default:
		return dfs.NewCalendarNonEquidistantAxis(u, d.Start), u, nil
	}
}

// Builder returns a builder holding the definition.
func (d *Definition) Builder() (*dfs.Builder, error) {
	b := dfs.NewBuilder(d.Title, "dfsutil", 1)
	if err := b.SetDataType(d.DataType); err != nil {
		return nil, err
	}
	if err := b.SetGeographicalProjection(dfs.NewProjection(d.Projection, d.Longitude, d.Latitude, d.Orientation)); err != nil {
		return nil, err
	}
	a, _, err := d.timeAxis()
	if err != nil {
		return nil, err
	}
	if d.TimeStep <= 0 {
		if err := b.SetFileType(engine.NeqtimeFixedspaceAllitems); err != nil {
			return nil, err
		}
	}
	if err := b.SetTemporalAxis(a); err != nil {
		return nil, err
	}
	ib := b.CreateDynamicItemBuilder()
	for _, id := range d.Items {
		u, err := eum.UnitFromAbbreviation(id.Unit)
		if err != nil {
			return nil, fmt.Errorf("dfsutil: item %q: %v", id.Name, err)
		}
		t, err := parseDataType(id.DataType)
		if err != nil {
			return nil, err
		}
		v, err := parseValueType(id.ValueType)
		if err != nil {
			return nil, err
		}
		it := eum.ItemType(id.ItemType)
		if it == 0 {
			it = eum.ItemUndefined
		}
		ib.Set(id.Name, eum.NewQuantity(it, u), t)
		ib.SetAxis(dfs.NewPointAxis(eum.UnitUndefined))
		ib.SetValueType(v)
		item, err := ib.GetDynamicItemInfo()
		if err != nil {
			return nil, err
		}
		if err := b.AddDynamicItem(item); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// ReadData reads CSV time steps for the definition. The first row
// holds column names; the first column the time, either a number in
// the time unit or, for calendar axes, a date and time. Empty fields
// become delete values.
func (d *Definition) ReadData(r io.Reader) (*mat.Dense, error) {
	_, u, err := d.timeAxis()
	if err != nil {
		return nil, err
	}
	factor, _, err := eum.SIFactor(u)
	if err != nil {
		return nil, err
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(d.Items) + 1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("dfsutil: reading data: %v", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("dfsutil: the data have no time steps")
	}
	for j, id := range d.Items {
		if name := rows[0][j+1]; name != id.Name {
			return nil, fmt.Errorf("dfsutil: data column %d is %q, but item %d is %q", j+2, name, j+1, id.Name)
		}
	}
	dv := engine.DefaultDeleteValues()
	m := mat.NewDense(len(rows)-1, len(d.Items)+1, nil)
	for i, row := range rows[1:] {
		t, err := strconv.ParseFloat(row[0], 64)
		if err != nil {
			tt, err2 := time.Parse(timeLayout, row[0])
			if err2 != nil || d.Start.IsZero() {
				return nil, fmt.Errorf("dfsutil: data row %d: invalid time %q", i+2, row[0])
			}
			t = tt.Sub(d.Start).Seconds() / factor
		}
		m.Set(i, 0, t)
		for j, id := range d.Items {
			s := row[j+1]
			if s == "" {
				dt, _ := parseDataType(id.DataType)
				m.Set(i, j+1, deleteValue(dv, dt))
				continue
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("dfsutil: data row %d, item %q: %v", i+2, id.Name, err)
			}
			m.Set(i, j+1, v)
		}
	}
	return m, nil
}

func deleteValue(dv dfs.DeleteValues, t dfs.DataType) float64 {
	switch t {
	case dfs.Float:
		return float64(dv.Float)
	case dfs.Double:
		return dv.Double
	case dfs.Byte:
		return float64(dv.Byte)
	case dfs.Int:
		return float64(dv.Int)
	case dfs.UInt:
		return float64(dv.UInt)
	}
	return 0
}

// Create makes the dfs0 file out from the TOML definition at
// definitionPath and the CSV data at dataPath.
func Create(definitionPath, dataPath, out string) error {
	df, err := os.Open(definitionPath)
	if err != nil {
		return fmt.Errorf("dfsutil: %v", err)
	}
	defer df.Close()
	d, err := ReadDefinition(df)
	if err != nil {
		return err
	}
	data, err := os.Open(dataPath)
	if err != nil {
		return fmt.Errorf("dfsutil: %v", err)
	}
	defer data.Close()
	m, err := d.ReadData(data)
	if err != nil {
		return err
	}
	b, err := d.Builder()
	if err != nil {
		return err
	}
	if err := b.CreateFile(out); err != nil {
		return err
	}
	f, err := b.GetFile()
	if err != nil {
		return err
	}
	if err := dfs.WriteDfs0DataDouble(f, m); err != nil {
		f.Close()
		return err
	}
	r, _ := m.Dims()
	logrus.WithFields(logrus.Fields{"file": out, "items": len(d.Items), "steps": r}).Info("created file")
	return f.Close()
}
