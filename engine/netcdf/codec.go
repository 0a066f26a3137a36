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
	"fmt"
	"io"

	"github.com/ctessum/cdf"
	"github.com/spatialmodel/dfs/engine"
)

const (
	formatTag      = "DFS"
	timeAxisParams = 5
)

func itemVar(n int) string   { return fmt.Sprintf("item%d", n) }
func staticVar(n int) string { return fmt.Sprintf("static%d", n) }
func dimName(v string) string { return v + "_n" }

// storageLen returns the number of elements stored on disk for n
// values of type t. Short and byte data are padded to whole 4-byte
// words so that every record slab is contiguous and the record count
// can be recovered from the file size.
func storageLen(t engine.DataType, n int) int {
	if n < 1 {
		n = 1
	}
	per := 4 / t.Size()
	if per <= 1 {
		return n
	}
	return (n + per - 1) / per * per
}

// newStorage allocates a slice of the NetCDF type used to store t.
func newStorage(t engine.DataType, n int) interface{} {
	switch t {
	case engine.Float:
		return make([]float32, n)
	case engine.Double:
		return make([]float64, n)
	case engine.Byte:
		return make([]uint8, n)
	case engine.Int, engine.UInt:
		return make([]int32, n)
	case engine.Short, engine.UShort:
		return make([]int16, n)
	}
	panic(fmt.Errorf("netcdf: invalid data type %v", t))
}

// toStorage copies the first min(d.Len(), n) values of d into a new
// storage slice of length n.
func toStorage(d engine.Data, n int) interface{} {
	switch v := d.(type) {
	case engine.FloatData:
		o := make([]float32, n)
		copy(o, v)
		return o
	case engine.DoubleData:
		o := make([]float64, n)
		copy(o, v)
		return o
	case engine.ByteData:
		o := make([]uint8, n)
		for i := 0; i < n && i < len(v); i++ {
			o[i] = uint8(v[i])
		}
		return o
	case engine.IntData:
		o := make([]int32, n)
		copy(o, v)
		return o
	case engine.UIntData:
		o := make([]int32, n)
		for i := 0; i < n && i < len(v); i++ {
			o[i] = int32(v[i])
		}
		return o
	case engine.ShortData:
		o := make([]int16, n)
		copy(o, v)
		return o
	case engine.UShortData:
		o := make([]int16, n)
		for i := 0; i < n && i < len(v); i++ {
			o[i] = int16(v[i])
		}
		return o
	}
	panic(fmt.Errorf("netcdf: invalid data %T", d))
}

// fromStorage copies storage values into d.
func fromStorage(s interface{}, d engine.Data) {
	switch v := d.(type) {
	case engine.FloatData:
		copy(v, s.([]float32))
	case engine.DoubleData:
		copy(v, s.([]float64))
	case engine.ByteData:
		for i, x := range s.([]uint8) {
			if i < len(v) {
				v[i] = int8(x)
			}
		}
	case engine.IntData:
		copy(v, s.([]int32))
	case engine.UIntData:
		for i, x := range s.([]int32) {
			if i < len(v) {
				v[i] = uint32(x)
			}
		}
	case engine.ShortData:
		copy(v, s.([]int16))
	case engine.UShortData:
		for i, x := range s.([]int16) {
			if i < len(v) {
				v[i] = uint16(x)
			}
		}
	default:
		panic(fmt.Errorf("netcdf: invalid data %T", d))
	}
}

// storageCount returns the length of a storage slice.
func storageCount(s interface{}) int {
	switch x := s.(type) {
	case []float32:
		return len(x)
	case []float64:
		return len(x)
	case []uint8:
		return len(x)
	case []int32:
		return len(x)
	case []int16:
		return len(x)
	}
	return 0
}

// complete reports the result of a cdf access of want values. The
// strider returns io.EOF along with a full count when the access ends
// at the end of the variable.
func complete(n, want int, err error) error {
	if err == io.EOF && n == want {
		return nil
	}
	if err == nil && n < want {
		return fmt.Errorf("accessed %d of %d values", n, want)
	}
	return err
}

func readValues(r cdf.Reader, buf interface{}) error {
	n, err := r.Read(buf)
	return complete(n, storageCount(buf), err)
}

func writeValues(w cdf.Writer, buf interface{}) error {
	n, err := w.Write(buf)
	return complete(n, storageCount(buf), err)
}

func hasVar(h *cdf.Header, v string) bool {
	for _, vv := range h.Variables() {
		if vv == v {
			return true
		}
	}
	return false
}

func putInts(h *cdf.Header, v, a string, vals ...int) {
	if len(vals) == 0 {
		return
	}
	o := make([]int32, len(vals))
	for i, x := range vals {
		o[i] = int32(x)
	}
	h.AddAttribute(v, a, o)
}

func putFloats(h *cdf.Header, v, a string, vals ...float64) {
	if len(vals) == 0 {
		return
	}
	h.AddAttribute(v, a, vals)
}

func putString(h *cdf.Header, v, a, s string) {
	if s == "" {
		return
	}
	h.AddAttribute(v, a, s)
}

func getInts(h *cdf.Header, v, a string) []int {
	vals, ok := h.GetAttribute(v, a).([]int32)
	if !ok {
		return nil
	}
	o := make([]int, len(vals))
	for i, x := range vals {
		o[i] = int(x)
	}
	return o
}

func getInt(h *cdf.Header, v, a string) int {
	if vals := getInts(h, v, a); len(vals) > 0 {
		return vals[0]
	}
	return 0
}

func getFloats(h *cdf.Header, v, a string) []float64 {
	vals, ok := h.GetAttribute(v, a).([]float64)
	if !ok {
		return nil
	}
	return append([]float64(nil), vals...)
}

func getString(h *cdf.Header, v, a string) string {
	s, _ := h.GetAttribute(v, a).(string)
	return s
}

// putData stores d as an attribute together with its element type.
func putData(h *cdf.Header, v, a string, d engine.Data) {
	putInts(h, v, a+"_type", int(d.DataType()))
	h.AddAttribute(v, a, toStorage(d, d.Len()))
}

func getData(h *cdf.Header, v, a string) (engine.Data, error) {
	t := engine.DataType(getInt(h, v, a+"_type"))
	if !t.Valid() {
		return nil, fmt.Errorf("attribute %s has invalid data type %d", a, int(t))
	}
	s := h.GetAttribute(v, a)
	if s == nil {
		return nil, fmt.Errorf("missing attribute %s", a)
	}
	if want := newStorage(t, 0); fmt.Sprintf("%T", want) != fmt.Sprintf("%T", s) {
		return nil, fmt.Errorf("attribute %s has type %T but %v data is stored as %T", a, s, t, want)
	}
	d, err := engine.NewData(t, storageCount(s))
	if err != nil {
		return nil, err
	}
	fromStorage(s, d)
	return d, nil
}

func putHeaderInfo(h *cdf.Header, info engine.HeaderInfo, nItems int) {
	putString(h, "", "dfs_format", formatTag)
	putInts(h, "", "dfs_file_type", int(info.FileType))
	putString(h, "", "dfs_title", info.Title)
	putString(h, "", "dfs_app_title", info.ApplicationTitle)
	putInts(h, "", "dfs_app_version", info.ApplicationVersion)
	putInts(h, "", "dfs_data_type", info.DataType)
	putInts(h, "", "dfs_stats_type", int(info.StatsType))
	putInts(h, "", "dfs_item_count", nItems)

	p := info.Projection
	putInts(h, "", "dfs_projection_type", int(p.Type))
	putString(h, "", "dfs_projection", p.WKT)
	putFloats(h, "", "dfs_projection_origin", p.Longitude, p.Latitude, p.Orientation)

	dv := info.DeleteValues
	h.AddAttribute("", "dfs_delete_float", []float32{dv.Float})
	h.AddAttribute("", "dfs_delete_double", []float64{dv.Double})
	h.AddAttribute("", "dfs_delete_byte", []uint8{uint8(dv.Byte)})
	h.AddAttribute("", "dfs_delete_int", []int32{dv.Int})
	h.AddAttribute("", "dfs_delete_uint", []int32{int32(dv.UInt)})

	putInts(h, "", "dfs_custom_blocks", len(info.CustomBlocks))
	for i, b := range info.CustomBlocks {
		a := fmt.Sprintf("dfs_custom_block%d", i+1)
		putString(h, "", a+"_name", b.Name)
		putData(h, "", a, b.Data)
	}
	if k := info.EncodeKey; k != nil && k.Len() > 0 {
		putInts(h, "", "dfs_encode_key_x", k.X...)
		putInts(h, "", "dfs_encode_key_y", k.Y...)
		putInts(h, "", "dfs_encode_key_z", k.Z...)
	}
}

func getHeaderInfo(h *cdf.Header) (engine.HeaderInfo, error) {
	var info engine.HeaderInfo
	if getString(h, "", "dfs_format") != formatTag {
		return info, fmt.Errorf("not a DFS file")
	}
	info.FileType = engine.FileType(getInt(h, "", "dfs_file_type"))
	info.Title = getString(h, "", "dfs_title")
	info.ApplicationTitle = getString(h, "", "dfs_app_title")
	info.ApplicationVersion = getInt(h, "", "dfs_app_version")
	info.DataType = getInt(h, "", "dfs_data_type")
	info.StatsType = engine.StatType(getInt(h, "", "dfs_stats_type"))

	info.Projection.Type = engine.ProjectionType(getInt(h, "", "dfs_projection_type"))
	info.Projection.WKT = getString(h, "", "dfs_projection")
	if o := getFloats(h, "", "dfs_projection_origin"); len(o) == 3 {
		info.Projection.Longitude, info.Projection.Latitude, info.Projection.Orientation = o[0], o[1], o[2]
	}

	info.DeleteValues = engine.DefaultDeleteValues()
	if v, ok := h.GetAttribute("", "dfs_delete_float").([]float32); ok && len(v) == 1 {
		info.DeleteValues.Float = v[0]
	}
	if v := getFloats(h, "", "dfs_delete_double"); len(v) == 1 {
		info.DeleteValues.Double = v[0]
	}
	if v, ok := h.GetAttribute("", "dfs_delete_byte").([]uint8); ok && len(v) == 1 {
		info.DeleteValues.Byte = int8(v[0])
	}
	if v, ok := h.GetAttribute("", "dfs_delete_int").([]int32); ok && len(v) == 1 {
		info.DeleteValues.Int = v[0]
	}
	if v, ok := h.GetAttribute("", "dfs_delete_uint").([]int32); ok && len(v) == 1 {
		info.DeleteValues.UInt = uint32(v[0])
	}

	n := getInt(h, "", "dfs_custom_blocks")
	for i := 1; i <= n; i++ {
		a := fmt.Sprintf("dfs_custom_block%d", i)
		d, err := getData(h, "", a)
		if err != nil {
			return info, fmt.Errorf("custom block %d: %v", i, err)
		}
		info.CustomBlocks = append(info.CustomBlocks, engine.CustomBlock{
			Name: getString(h, "", a+"_name"),
			Data: d,
		})
	}
	if x := getInts(h, "", "dfs_encode_key_x"); len(x) > 0 {
		k := &engine.EncodeKey{
			X: x,
			Y: getInts(h, "", "dfs_encode_key_y"),
			Z: getInts(h, "", "dfs_encode_key_z"),
		}
		if len(k.Y) != len(k.X) || len(k.Z) != len(k.X) {
			return info, fmt.Errorf("encode key arrays have different lengths")
		}
		info.EncodeKey = k
	}
	return info, nil
}

func putItemDef(h *cdf.Header, v string, d engine.ItemDef) {
	putString(h, v, "name", d.Name)
	putInts(h, v, "eum", d.Item, d.Unit)
	putInts(h, v, "data_type", int(d.DataType))
	putInts(h, v, "value_type", d.ValueType)
	putInts(h, v, "element_count", d.ElementCount)
	putInts(h, v, "axis_type", int(d.Axis.Type), d.Axis.Unit)
	putInts(h, v, "axis_counts", d.Axis.Counts...)
	putFloats(h, v, "axis_origin", d.Axis.Origin...)
	putFloats(h, v, "axis_spacing", d.Axis.Spacing...)
	putInts(h, v, "axis_coords", len(d.Axis.Coords))
	for i, c := range d.Axis.Coords {
		putFloats(h, v, fmt.Sprintf("axis_coords%d", i), c...)
	}
	putFloats(h, v, "reference_coordinates", d.ReferenceCoordinates[:]...)
	putFloats(h, v, "orientation", d.Orientation[:]...)
	putInts(h, v, "conversion", d.ConversionType, d.ConversionUnit)
	putInts(h, v, "associated_static_items", d.AssociatedStaticItems...)
}

func getItemDef(h *cdf.Header, v string) (engine.ItemDef, error) {
	var d engine.ItemDef
	d.Name = getString(h, v, "name")
	if q := getInts(h, v, "eum"); len(q) == 2 {
		d.Item, d.Unit = q[0], q[1]
	}
	d.DataType = engine.DataType(getInt(h, v, "data_type"))
	if !d.DataType.Valid() {
		return d, fmt.Errorf("item %s: invalid data type %d", v, int(d.DataType))
	}
	d.ValueType = getInt(h, v, "value_type")
	d.ElementCount = getInt(h, v, "element_count")
	if a := getInts(h, v, "axis_type"); len(a) == 2 {
		d.Axis.Type, d.Axis.Unit = engine.AxisType(a[0]), a[1]
	}
	d.Axis.Counts = getInts(h, v, "axis_counts")
	d.Axis.Origin = getFloats(h, v, "axis_origin")
	d.Axis.Spacing = getFloats(h, v, "axis_spacing")
	nc := getInt(h, v, "axis_coords")
	for i := 0; i < nc; i++ {
		d.Axis.Coords = append(d.Axis.Coords, getFloats(h, v, fmt.Sprintf("axis_coords%d", i)))
	}
	copy(d.ReferenceCoordinates[:], getFloats(h, v, "reference_coordinates"))
	copy(d.Orientation[:], getFloats(h, v, "orientation"))
	if c := getInts(h, v, "conversion"); len(c) == 2 {
		d.ConversionType, d.ConversionUnit = c[0], c[1]
	}
	d.AssociatedStaticItems = getInts(h, v, "associated_static_items")
	return d, nil
}
