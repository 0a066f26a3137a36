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

package engine

import "fmt"

// DataType is the element type of item data.
type DataType int

// The supported element types.
const (
	Float DataType = iota + 1
	Double
	Byte
	Int
	UInt
	Short
	UShort
)

// DataTypes lists every supported element type.
var DataTypes = []DataType{Float, Double, Byte, Int, UInt, Short, UShort}

func (t DataType) String() string {
	switch t {
	case Float:
		return "Float"
	case Double:
		return "Double"
	case Byte:
		return "Byte"
	case Int:
		return "Int"
	case UInt:
		return "UInt"
	case Short:
		return "Short"
	case UShort:
		return "UShort"
	default:
		return fmt.Sprintf("DataType(%d)", int(t))
	}
}

// Size returns the number of bytes per element.
func (t DataType) Size() int {
	switch t {
	case Double:
		return 8
	case Float, Int, UInt:
		return 4
	case Short, UShort:
		return 2
	case Byte:
		return 1
	default:
		return 0
	}
}

// Valid reports whether t is one of the supported element types.
func (t DataType) Valid() bool { return t >= Float && t <= UShort }

// Data is item data of one of the supported element types. The set of
// implementations is closed: FloatData, DoubleData, ByteData, IntData,
// UIntData, ShortData and UShortData.
type Data interface {
	DataType() DataType
	Len() int
	isData()
}

type (
	// FloatData holds Float elements.
	FloatData []float32
	// DoubleData holds Double elements.
	DoubleData []float64
	// ByteData holds Byte elements.
	ByteData []int8
	// IntData holds Int elements.
	IntData []int32
	// UIntData holds UInt elements.
	UIntData []uint32
	// ShortData holds Short elements.
	ShortData []int16
	// UShortData holds UShort elements.
	UShortData []uint16
)

func (FloatData) DataType() DataType  { return Float }
func (DoubleData) DataType() DataType { return Double }
func (ByteData) DataType() DataType   { return Byte }
func (IntData) DataType() DataType    { return Int }
func (UIntData) DataType() DataType   { return UInt }
func (ShortData) DataType() DataType  { return Short }
func (UShortData) DataType() DataType { return UShort }

func (d FloatData) Len() int  { return len(d) }
func (d DoubleData) Len() int { return len(d) }
func (d ByteData) Len() int   { return len(d) }
func (d IntData) Len() int    { return len(d) }
func (d UIntData) Len() int   { return len(d) }
func (d ShortData) Len() int  { return len(d) }
func (d UShortData) Len() int { return len(d) }

func (FloatData) isData()  {}
func (DoubleData) isData() {}
func (ByteData) isData()   {}
func (IntData) isData()    {}
func (UIntData) isData()   {}
func (ShortData) isData()  {}
func (UShortData) isData() {}

// NewData allocates n zero elements of type t.
func NewData(t DataType, n int) (Data, error) {
	switch t {
	case Float:
		return make(FloatData, n), nil
	case Double:
		return make(DoubleData, n), nil
	case Byte:
		return make(ByteData, n), nil
	case Int:
		return make(IntData, n), nil
	case UInt:
		return make(UIntData, n), nil
	case Short:
		return make(ShortData, n), nil
	case UShort:
		return make(UShortData, n), nil
	default:
		return nil, fmt.Errorf("engine: invalid data type %d", int(t))
	}
}

// Float64At returns element i converted to float64.
func Float64At(d Data, i int) float64 {
	switch v := d.(type) {
	case FloatData:
		return float64(v[i])
	case DoubleData:
		return v[i]
	case ByteData:
		return float64(v[i])
	case IntData:
		return float64(v[i])
	case UIntData:
		return float64(v[i])
	case ShortData:
		return float64(v[i])
	case UShortData:
		return float64(v[i])
	}
	panic(fmt.Errorf("engine: invalid data %T", d))
}

// SetFloat64At sets element i from a float64, converting to the
// element type of d.
func SetFloat64At(d Data, i int, val float64) {
	switch v := d.(type) {
	case FloatData:
		v[i] = float32(val)
	case DoubleData:
		v[i] = val
	case ByteData:
		v[i] = int8(val)
	case IntData:
		v[i] = int32(val)
	case UIntData:
		v[i] = uint32(val)
	case ShortData:
		v[i] = int16(val)
	case UShortData:
		v[i] = uint16(val)
	default:
		panic(fmt.Errorf("engine: invalid data %T", d))
	}
}

// Float64s returns a copy of d converted to float64.
func Float64s(d Data) []float64 {
	if v, ok := d.(DoubleData); ok {
		return append([]float64(nil), v...)
	}
	o := make([]float64, d.Len())
	for i := range o {
		o[i] = Float64At(d, i)
	}
	return o
}

// Copy returns a deep copy of d.
func Copy(d Data) Data {
	switch v := d.(type) {
	case FloatData:
		return append(FloatData(nil), v...)
	case DoubleData:
		return append(DoubleData(nil), v...)
	case ByteData:
		return append(ByteData(nil), v...)
	case IntData:
		return append(IntData(nil), v...)
	case UIntData:
		return append(UIntData(nil), v...)
	case ShortData:
		return append(ShortData(nil), v...)
	case UShortData:
		return append(UShortData(nil), v...)
	}
	return nil
}

// DataFromFloat64s converts vals to data of type t.
func DataFromFloat64s(t DataType, vals []float64) (Data, error) {
	d, err := NewData(t, len(vals))
	if err != nil {
		return nil, err
	}
	for i, v := range vals {
		SetFloat64At(d, i, v)
	}
	return d, nil
}
