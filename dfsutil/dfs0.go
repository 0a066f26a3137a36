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
	"math"
	"strconv"

	"github.com/Knetic/govaluate"
	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/dfs"
	"github.com/spatialmodel/dfs/dfsu"
	"github.com/spatialmodel/dfs/engine"
	"github.com/spatialmodel/dfs/eum"
	"github.com/tealeg/xlsx"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// timeLayout is the layout of calendar times in tables.
const timeLayout = "2006-01-02 15:04:05"

// timeLabel returns the calendar time of a time step when the axis has
// one, and otherwise the time value.
func timeLabel(a dfs.TemporalAxis, step int, t float64) string {
	switch ax := a.(type) {
	case *dfs.CalendarEquidistantAxis:
		if d, err := ax.DateTimeAt(step); err == nil {
			return d.Format(timeLayout)
		}
	case *dfs.CalendarNonEquidistantAxis:
		if d, err := ax.DateTime(t); err == nil {
			return d.Format(timeLayout)
		}
	}
	return strconv.FormatFloat(t, 'g', -1, 64)
}

// isDelete reports whether v is the delete value of data type t.
func isDelete(dv dfs.DeleteValues, t dfs.DataType, v float64) bool {
	switch t {
	case dfs.Float:
		return float32(v) == dv.Float
	case dfs.Double:
		return v == dv.Double
	case dfs.Byte:
		return v == float64(dv.Byte)
	case dfs.Int:
		return v == float64(dv.Int)
	case dfs.UInt:
		return v == float64(dv.UInt)
	}
	return false
}

// itemStats summarizes the values of one item.
type itemStats struct {
	vals    []float64
	deleted int
}

func (s *itemStats) add(dv dfs.DeleteValues, d dfs.Data) {
	for i := 0; i < d.Len(); i++ {
		v := engine.Float64At(d, i)
		if isDelete(dv, d.DataType(), v) {
			s.deleted++
			continue
		}
		s.vals = append(s.vals, v)
	}
}

// row returns the table cells of an item with the statistics.
func (s *itemStats) row(item *dfs.ItemInfo) []string {
	r := []string{strconv.Itoa(item.ItemNumber), item.Name, item.Quantity.String(), item.DataType.String(),
		strconv.Itoa(item.ElementCount), item.ValueType.String()}
	if len(s.vals) == 0 {
		return append(r, "", "", "", strconv.Itoa(s.deleted))
	}
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', 6, 64) }
	return append(r, f(floats.Min(s.vals)), f(floats.Max(s.vals)),
		f(floats.Sum(s.vals)/float64(len(s.vals))), strconv.Itoa(s.deleted))
}

// readStats reads every item time step of f.
func readStats(f *dfs.File) ([]*itemStats, error) {
	items := f.ItemInfo()
	if len(items) == 0 {
		return nil, nil
	}
	stats := make([]*itemStats, len(items))
	bufs := make([]dfs.Data, len(items))
	for i, item := range items {
		stats[i] = new(itemStats)
		var err error
		if bufs[i], err = engine.NewData(item.DataType, item.ElementCount); err != nil {
			return nil, err
		}
	}
	if err := f.Reset(); err != nil {
		return nil, err
	}
	dv := f.FileInfo().DeleteValues
	// Item time steps come in round-robin order from the first item.
	for k := 0; ; k++ {
		d, err := f.ReadItemTimeStepNext(bufs[k%len(bufs)])
		if err == io.EOF {
			return stats, nil
		} else if err != nil {
			return nil, err
		}
		stats[d.ItemNumber-1].add(dv, d.Data)
	}
}

// Info writes a description of the DFS file at path to w.
func Info(w io.Writer, path string) error {
	f, err := dfs.Open(path, dfs.Read)
	if err != nil {
		return err
	}
	defer f.Close()
	fi := f.FileInfo()
	fmt.Fprintf(w, "File:          %s\n", path)
	fmt.Fprintf(w, "Title:         %s\n", fi.FileTitle)
	fmt.Fprintf(w, "Application:   %s v%d\n", fi.ApplicationTitle, fi.ApplicationVersion)
	fmt.Fprintf(w, "Data type:     %d\n", fi.DataType)
	fmt.Fprintf(w, "Projection:    %s (origin %g, %g; orientation %g)\n", fi.Projection.WKT,
		fi.Projection.Longitude, fi.Projection.Latitude, fi.Projection.Orientation)
	fmt.Fprintf(w, "Time axis:     %s, %d steps\n", timeAxisName(fi.TimeAxis), f.NumberOfTimeSteps())
	if n := f.NumberOfTimeSteps(); n > 0 {
		first, last := fi.TimeAxis.StartTimeOffset(), fi.TimeAxis.StartTimeOffset()
		if t, ok := lastTime(fi.TimeAxis, n); ok {
			last = t
		}
		fmt.Fprintf(w, "Time span:     %s to %s\n", timeLabel(fi.TimeAxis, 0, first), timeLabel(fi.TimeAxis, n-1, last))
	}
	if fi.IsFileCompressed() {
		fmt.Fprintf(w, "Compressed:    %d of the grid cells are stored\n", fi.EncodeKey.Len())
	}
	fmt.Fprintf(w, "Static items:  %d\n", f.StaticItemCount())
	stats, err := readStats(f)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Dynamic items: %d\n", len(f.ItemInfo()))
	if len(stats) > 0 {
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"#", "Name", "Quantity", "Type", "Elements", "Value type", "Min", "Max", "Mean", "Deleted"})
		table.SetAutoWrapText(false)
		table.SetAutoFormatHeaders(false)
		for i, item := range f.ItemInfo() {
			table.Append(stats[i].row(item))
		}
		table.Render()
	}
	if fi.DataType != dfsu.DataType {
		return nil
	}
	f.Close()
	return meshInfo(w, path)
}

func meshInfo(w io.Writer, path string) error {
	f, err := dfsu.Open(path, dfs.Read)
	if err != nil {
		return err
	}
	defer f.Close()
	g := f.Geometry
	fmt.Fprintf(w, "Mesh:          %v, %d nodes, %d elements\n", g.FileType, g.NumberOfNodes(), g.NumberOfElements())
	if g.FileType.IsLayered() {
		fmt.Fprintf(w, "Layers:        %d (%d sigma)\n", f.NumberOfLayers(), f.NumberOfSigmaLayers())
	}
	fmt.Fprintf(w, "Fingerprint:   %s\n", g.Fingerprint())
	return nil
}

func timeAxisName(a dfs.TemporalAxis) string {
	switch a.TimeAxisType() {
	case engine.TimeEquidistant:
		return "equidistant"
	case engine.TimeNonEquidistant:
		return "non-equidistant"
	case engine.CalendarEquidistant:
		return "calendar equidistant"
	case engine.CalendarNonEquidistant:
		return "calendar non-equidistant"
	}
	return "undefined"
}

func lastTime(a dfs.TemporalAxis, n int) (float64, bool) {
	switch ax := a.(type) {
	case *dfs.TimeEquidistantAxis:
		return ax.TimeOf(n - 1), true
	case *dfs.CalendarEquidistantAxis:
		return ax.TimeOf(n - 1), true
	case *dfs.TimeNonEquidistantAxis:
		return ax.StartTimeOffset() + ax.TimeSpan(), true
	case *dfs.CalendarNonEquidistantAxis:
		return ax.StartTimeOffset() + ax.TimeSpan(), true
	}
	return 0, false
}

// readDfs0 reads the dfs0 file at path.
func readDfs0(path string) (*dfs.File, *mat.Dense, error) {
	f, err := dfs.Open(path, dfs.Read)
	if err != nil {
		return nil, nil, err
	}
	m, err := dfs.ReadDfs0DataDouble(f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return f, m, nil
}

// Dump writes the dfs0 file at path to w as CSV.
func Dump(w io.Writer, path string) error {
	f, m, err := readDfs0(path)
	if err != nil {
		return err
	}
	defer f.Close()
	cw := csv.NewWriter(w)
	header := []string{"Time"}
	for _, item := range f.ItemInfo() {
		header = append(header, item.Name)
	}
	cw.Write(header)
	r, c := m.Dims()
	row := make([]string, c)
	for i := 0; i < r; i++ {
		row[0] = timeLabel(f.FileInfo().TimeAxis, i, m.At(i, 0))
		for j := 1; j < c; j++ {
			row[j] = strconv.FormatFloat(m.At(i, j), 'g', -1, 64)
		}
		cw.Write(row)
	}
	cw.Flush()
	return cw.Error()
}

// ToXLSX writes the dfs0 file at path to an Excel workbook at out.
func ToXLSX(path, out string) error {
	f, m, err := readDfs0(path)
	if err != nil {
		return err
	}
	defer f.Close()
	wb := xlsx.NewFile()
	sheet, err := wb.AddSheet("dfs0")
	if err != nil {
		return fmt.Errorf("dfsutil: %v", err)
	}
	row := sheet.AddRow()
	row.AddCell().SetString("Time")
	for _, item := range f.ItemInfo() {
		row.AddCell().SetString(fmt.Sprintf("%s [%s]", item.Name, item.Quantity.Unit.Abbreviation()))
	}
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		row := sheet.AddRow()
		row.AddCell().SetString(timeLabel(f.FileInfo().TimeAxis, i, m.At(i, 0)))
		for j := 1; j < c; j++ {
			row.AddCell().SetFloat(m.At(i, j))
		}
	}
	if err := wb.Save(out); err != nil {
		return fmt.Errorf("dfsutil: writing %s: %v", out, err)
	}
	logrus.WithFields(logrus.Fields{"file": out, "steps": r}).Info("wrote workbook")
	return nil
}

// copyTimeAxis returns an unattached temporal axis with the same
// definition as a.
func copyTimeAxis(a dfs.TemporalAxis) (dfs.TemporalAxis, error) {
	var o dfs.TemporalAxis
	switch ax := a.(type) {
	case *dfs.TimeEquidistantAxis:
		return dfs.NewTimeEquidistantAxis(ax.TimeUnit(), ax.StartTimeOffset(), ax.TimeStep()), nil
	case *dfs.TimeNonEquidistantAxis:
		return dfs.NewTimeNonEquidistantAxis(ax.TimeUnit(), ax.StartTimeOffset()), nil
	case *dfs.CalendarEquidistantAxis:
		c := dfs.NewCalendarEquidistantAxis(ax.TimeUnit(), ax.StartDateTime(), ax.TimeStep())
		c.SetStartTimeOffset(ax.StartTimeOffset())
		o = c
	case *dfs.CalendarNonEquidistantAxis:
		c := dfs.NewCalendarNonEquidistantAxis(ax.TimeUnit(), ax.StartDateTime())
		c.SetStartTimeOffset(ax.StartTimeOffset())
		o = c
	default:
		return nil, fmt.Errorf("dfsutil: unsupported temporal axis %T", a)
	}
	return o, nil
}

// expressionFuncs are the functions available in calc expressions.
var expressionFuncs = map[string]govaluate.ExpressionFunction{
	"exp":   unary("exp", math.Exp),
	"log":   unary("log", math.Log),
	"sqrt":  unary("sqrt", math.Sqrt),
	"abs":   unary("abs", math.Abs),
	"sin":   unary("sin", func(d float64) float64 { return math.Sin(d * math.Pi / 180) }),
	"cos":   unary("cos", func(d float64) float64 { return math.Cos(d * math.Pi / 180) }),
	"atan2": atan2,
}

func unary(name string, f func(float64) float64) govaluate.ExpressionFunction {
	return func(arg ...interface{}) (interface{}, error) {
		if len(arg) != 1 {
			return nil, fmt.Errorf("dfsutil: got %d arguments for function '%s', but needs 1", len(arg), name)
		}
		v, ok := arg[0].(float64)
		if !ok {
			return nil, fmt.Errorf("dfsutil: argument of '%s' is not a number", name)
		}
		return f(v), nil
	}
}

// atan2 returns the direction in degrees of the vector (x, y) where
// y points north: atan2(x, y).
func atan2(arg ...interface{}) (interface{}, error) {
	if len(arg) != 2 {
		return nil, fmt.Errorf("dfsutil: got %d arguments for function 'atan2', but needs 2", len(arg))
	}
	x, okx := arg[0].(float64)
	y, oky := arg[1].(float64)
	if !okx || !oky {
		return nil, fmt.Errorf("dfsutil: arguments of 'atan2' are not numbers")
	}
	return math.Atan2(x, y) * 180 / math.Pi, nil
}

// Calc evaluates expression for every time step of the dfs0 file at
// path and writes a copy of the file with the result appended as a new
// double precision item to out. Item names are the expression
// variables, and the variable Time holds the time of each step.
func Calc(path, out, expression, name string, q eum.Quantity) error {
	if expression == "" {
		return fmt.Errorf("dfsutil: the Expression configuration variable is empty")
	}
	expr, err := govaluate.NewEvaluableExpressionWithFunctions(expression, expressionFuncs)
	if err != nil {
		return fmt.Errorf("dfsutil: parsing expression: %v", err)
	}
	f, m, err := readDfs0(path)
	if err != nil {
		return err
	}
	defer f.Close()
	items := f.ItemInfo()
	fi := f.FileInfo()
	columns := map[string]int{"Time": 0}
	for _, item := range items {
		columns[item.Name] = item.ItemNumber
	}
	for _, v := range expr.Vars() {
		if _, ok := columns[v]; !ok {
			return fmt.Errorf("dfsutil: expression variable %q is not an item of %s", v, path)
		}
	}

	r, c := m.Dims()
	result := mat.NewDense(r, c+1, nil)
	result.Slice(0, r, 0, c).(*mat.Dense).Copy(m)
	params := make(map[string]interface{}, len(columns))
	deleted := 0
	for i := 0; i < r; i++ {
		v, err := evaluate(expr, columns, items, fi.DeleteValues, m.RawRowView(i), params)
		if err != nil {
			return fmt.Errorf("dfsutil: evaluating expression at time step %d: %v", i, err)
		}
		if v == fi.DeleteValues.Double {
			deleted++
		}
		result.Set(i, c, v)
	}

	b := dfs.NewBuilder(fi.FileTitle, fi.ApplicationTitle, fi.ApplicationVersion)
	if err := copyHeader(b, f); err != nil {
		return err
	}
	if _, err := b.AddCreateDynamicItem(name, q, dfs.Double, dfs.NewPointAxis(eum.UnitUndefined)); err != nil {
		return err
	}
	if err := b.CreateFile(out); err != nil {
		return err
	}
	o, err := copyStatics(b, f)
	if err != nil {
		return err
	}
	if err := dfs.WriteDfs0DataDouble(o, result); err != nil {
		o.Close()
		return err
	}
	logrus.WithFields(logrus.Fields{"file": out, "item": name, "deleted": deleted}).Info("calculated item")
	return o.Close()
}

// evaluate computes the expression for one row of a dfs0 matrix. Rows
// where a used item holds its delete value give the double delete value.
func evaluate(expr *govaluate.EvaluableExpression, columns map[string]int, items []*dfs.ItemInfo,
	dv dfs.DeleteValues, row []float64, params map[string]interface{}) (float64, error) {
	for _, v := range expr.Vars() {
		j := columns[v]
		if j > 0 && isDelete(dv, items[j-1].DataType, row[j]) {
			return dv.Double, nil
		}
		params[v] = row[j]
	}
	res, err := expr.Evaluate(params)
	if err != nil {
		return 0, err
	}
	switch v := res.(type) {
	case float64:
		return v, nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("result %v is not a number", res)
}

// copyHeader defines the header and dynamic items of f in b.
func copyHeader(b *dfs.Builder, f *dfs.File) error {
	fi := f.FileInfo()
	if err := b.SetFileType(fi.FileType); err != nil {
		return err
	}
	if err := b.SetDataType(fi.DataType); err != nil {
		return err
	}
	if err := b.SetGeographicalProjection(fi.Projection); err != nil {
		return err
	}
	a, err := copyTimeAxis(fi.TimeAxis)
	if err != nil {
		return err
	}
	if err := b.SetTemporalAxis(a); err != nil {
		return err
	}
	dv := fi.DeleteValues
	for _, err := range []error{
		b.SetDeleteValueFloat(dv.Float),
		b.SetDeleteValueDouble(dv.Double),
		b.SetDeleteValueByte(dv.Byte),
		b.SetDeleteValueInt(dv.Int),
		b.SetDeleteValueUnsignedInt(dv.UInt),
	} {
		if err != nil {
			return err
		}
	}
	for _, item := range f.ItemInfo() {
		it := *item
		if err := b.AddDynamicItem(&it); err != nil {
			return err
		}
	}
	return nil
}

// copyStatics writes the static items of f to the file being built
// by b and returns the new file.
func copyStatics(b *dfs.Builder, f *dfs.File) (*dfs.File, error) {
	for n := 1; n <= f.StaticItemCount(); n++ {
		s, err := f.ReadStaticItem(n)
		if err != nil {
			return nil, err
		}
		if _, err := b.AddStaticItem(&dfs.StaticItem{ItemInfo: s.ItemInfo, Data: s.Data}); err != nil {
			return nil, err
		}
	}
	return b.GetFile()
}
