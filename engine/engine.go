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

// Package engine defines the boundary between the DFS object model and
// the codec that stores DFS files on disk. Handles returned by an
// Engine must be released exactly once, with Destroy or Close.
package engine

// Mode is the access mode a file is opened with.
type Mode int

// Access modes.
const (
	Read Mode = iota
	Edit
	Append
)

// FileType describes how time and space vary in a file.
type FileType int

// File types.
const (
	EqtimeFixedspaceAllitems FileType = iota + 1
	EqtimeFixedspaceSomeitems
	NeqtimeFixedspaceAllitems
	NeqtimeFixedspaceSomeitems
)

// StatType selects which item statistics are kept in the header.
type StatType int

// Statistics types.
const (
	NoStat StatType = iota
	RegularStat
	LargeValStat
)

// ProjectionType tells whether a projection is defined.
type ProjectionType int

// Projection types.
const (
	ProjectionUndefined ProjectionType = iota
	ProjectionDefined
)

// Projection is the map projection of a file: a WKT (or abbreviated)
// projection string plus the geographical origin and orientation of
// the model coordinate system.
type Projection struct {
	Type        ProjectionType
	WKT         string
	Longitude   float64
	Latitude    float64
	Orientation float64
}

// TimeAxisType identifies the temporal axis variant.
type TimeAxisType int

// Temporal axis variants.
const (
	TimeUndefined TimeAxisType = iota
	TimeEquidistant
	TimeNonEquidistant
	CalendarEquidistant
	CalendarNonEquidistant
)

// DateTimeLayout is the layout used for start date-times passed to and
// from the engine.
const DateTimeLayout = "2006-01-02T15:04:05.000"

// TimeAxisDef is the header record of a temporal axis.
type TimeAxisDef struct {
	Type               TimeAxisType
	Unit               int
	StartTimeOffset    float64
	TimeStep           float64
	StartDateTime      string
	NumberOfTimeSteps  int
	FirstTimeStepIndex int
}

// AxisType identifies the spatial axis variant.
type AxisType int

// Spatial axis variants.
const (
	AxisUndefined AxisType = iota
	AxisEqD0
	AxisEqD1
	AxisEqD2
	AxisEqD3
	AxisNeqD1
	AxisNeqD2
	AxisNeqD3
	AxisCurveLinearD2
	AxisCurveLinearD3
)

// AxisDef is the header record of a spatial axis. Counts holds the
// number of values along each dimension. Equidistant axes use Origin
// and Spacing; non-equidistant and curvilinear axes use Coords, one
// slice per coordinate direction.
type AxisDef struct {
	Type    AxisType
	Unit    int
	Counts  []int
	Origin  []float64
	Spacing []float64
	Coords  [][]float64
}

// Size returns the number of values described by the axis.
func (a AxisDef) Size() int {
	n := 1
	for _, c := range a.Counts {
		n *= c
	}
	return n
}

// ItemDef is the header record of a static or dynamic item.
type ItemDef struct {
	Name                  string
	Item                  int
	Unit                  int
	DataType              DataType
	ValueType             int
	Axis                  AxisDef
	ReferenceCoordinates  [3]float64
	Orientation           [3]float64
	ConversionType        int
	ConversionUnit        int
	AssociatedStaticItems []int

	// ElementCount is the number of values stored per time step. It
	// is filled in by the engine.
	ElementCount int
}

// DeleteValues are the sentinel values marking missing data.
type DeleteValues struct {
	Float  float32
	Double float64
	Byte   int8
	Int    int32
	UInt   uint32
}

// DefaultDeleteValues returns the delete values used when none are set.
func DefaultDeleteValues() DeleteValues {
	return DeleteValues{
		Float:  1e-35,
		Double: -1e-255,
		Byte:   0,
		Int:    2147483647,
		UInt:   2147483647,
	}
}

// CustomBlock is a named, typed metadata array stored in a header.
type CustomBlock struct {
	Name string
	Data Data
}

// EncodeKey lists the (x, y, z) index triples of the cells kept in
// a spatially compressed file.
type EncodeKey struct {
	X, Y, Z []int
}

// Len returns the number of index triples.
func (k EncodeKey) Len() int { return len(k.X) }

// HeaderInfo is a snapshot of a header's file-level fields.
type HeaderInfo struct {
	FileType           FileType
	Title              string
	ApplicationTitle   string
	ApplicationVersion int
	DataType           int
	StatsType          StatType
	Projection         Projection
	TimeAxis           TimeAxisDef
	DeleteValues       DeleteValues
	CustomBlocks       []CustomBlock
	EncodeKey          *EncodeKey
}

// Engine opens and creates DFS files.
type Engine interface {
	// Open opens an existing file.
	Open(path string, mode Mode) (Header, File, error)

	// CreateHeader allocates a header with itemCount dynamic item slots.
	CreateHeader(fileType FileType, title, appTitle string, appVersion, itemCount int, stats StatType) (Header, error)

	// Create creates a new file described by h. The file takes
	// ownership of the header.
	Create(path string, h Header) (File, error)
}

// Header is a handle to a file header.
type Header interface {
	Info() HeaderInfo
	SetDataType(dataType int) error
	SetProjection(p Projection) error

	// SetTemporalAxis replaces the temporal axis. It is valid after
	// the file has been created.
	SetTemporalAxis(t TimeAxisDef) error
	SetDeleteValues(d DeleteValues) error
	AddCustomBlock(b CustomBlock) error
	SetEncodeKey(k EncodeKey) error

	// ItemCount returns the number of dynamic items.
	ItemCount() int

	// Item returns the slot of dynamic item n, counting from 1.
	Item(n int) (ItemSlot, error)

	NumberOfTimeSteps() int
	StaticItemCount() int

	// Destroy releases the header. It is safe to call more than once.
	Destroy() error
}

// ItemSlot is a handle to an item definition inside a header or a
// file's static item list.
type ItemSlot interface {
	SetName(name string) error
	SetQuantity(item, unit int) error
	SetDataType(t DataType) error
	SetValueType(v int) error
	SetAxis(a AxisDef) error
	SetReferenceCoordinates(x, y, z float64) error
	SetOrientation(alpha, phi, theta float64) error
	SetConversion(conversionType, unit int) error
	SetAssociatedStaticItems(items []int) error
	Def() ItemDef

	// Destroy releases a slot that has not been written.
	Destroy() error
}

// File is a handle to an open file. The file keeps a cursor into the
// static item list and a (time step, item) cursor into the dynamic
// data.
type File interface {
	FindTimeStep(step int) error
	FindItemDynamic(step, item int) error
	FindItemStatic(n int) error

	// ReadItemTimeStep reads the item at the dynamic cursor into data
	// and advances the cursor. It returns an EndOfFile status when
	// there is no more data.
	ReadItemTimeStep(data Data) (time float64, err error)

	// WriteItemTimeStep writes the item at the dynamic cursor and
	// advances the cursor.
	WriteItemTimeStep(time float64, data Data) error

	// ReadStaticItemNext reads the static item at the static cursor
	// and advances the cursor. It returns an EndOfFile status when
	// there are no more static items.
	ReadStaticItemNext() (ItemDef, Data, error)

	// WriteStaticItemData overwrites the data of the static item at
	// the static cursor and advances the cursor.
	WriteStaticItemData(data Data) error

	// NewStaticItem allocates a slot for a new static item.
	NewStaticItem() (ItemSlot, error)

	// WriteStaticItem appends a static item defined by slot.
	WriteStaticItem(slot ItemSlot, data Data) error

	// WriteDynamicBlockMarker ends the static item region.
	WriteDynamicBlockMarker() error

	Flush() error
	Close() error
}
