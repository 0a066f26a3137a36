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
	"fmt"

	"github.com/spatialmodel/dfs/eum"
	"github.com/spatialmodel/dfs/engine"
)

// ValueType tells how item values relate to the time axis.
type ValueType int

// Value types.
const (
	Instantaneous ValueType = iota
	Accumulated
	StepAccumulated
	MeanStepForward
	MeanStepBackward
)

func (v ValueType) String() string {
	switch v {
	case Instantaneous:
		return "Instantaneous"
	case Accumulated:
		return "Accumulated"
	case StepAccumulated:
		return "Step Accumulated"
	case MeanStepForward:
		return "Mean Step Forward"
	case MeanStepBackward:
		return "Mean Step Backward"
	}
	return fmt.Sprintf("ValueType(%d)", int(v))
}

// ConversionType tells how a reader should convert item values.
type ConversionType int

// Conversion types.
const (
	NoConversion ConversionType = iota
	UbgConversion
	FreeConversion
)

// UnitConversion is the unit conversion suggested for an item.
type UnitConversion struct {
	Type ConversionType
	Unit eum.Unit
}

// ItemInfo describes a dynamic item. The position of the item in its
// file, counting from 1, is the item number.
type ItemInfo struct {
	Name                  string
	Quantity              eum.Quantity
	DataType              DataType
	ValueType             ValueType
	SpatialAxis           SpatialAxis
	ReferenceCoordinates  [3]float64
	Orientation           [3]float64
	Conversion            UnitConversion
	AssociatedStaticItems []int

	// ElementCount is the number of values in one time step. It is
	// set when the item is read from or added to a file.
	ElementCount int

	// ItemNumber is set when the item belongs to a file.
	ItemNumber int
}

// StaticItem is an item that is stored once, outside the time steps.
type StaticItem struct {
	ItemInfo
	Data Data

	file   *File
	number int
}

// StaticItemNumber returns the position of the item among the
// static items of its file, counting from 1.
func (s *StaticItem) StaticItemNumber() int { return s.number }

// Update overwrites the data of the item in its file.
func (s *StaticItem) Update(data Data) error {
	if s.file == nil {
		return fmt.Errorf("%w: static item %q does not belong to a file", ErrInvalidOperation, s.Name)
	}
	return s.file.WriteStaticItemData(s, data)
}

// ItemData is one item time step.
type ItemData struct {
	ItemNumber    int
	TimeStepIndex int

	// Time is relative to the start of the temporal axis, in its
	// time unit.
	Time float64
	Data Data
}

// FileInfo holds the file level header fields.
type FileInfo struct {
	FileType           FileType
	FileTitle          string
	ApplicationTitle   string
	ApplicationVersion int

	// DataType is an application specific tag; dfsu files use 2001.
	DataType     int
	StatsType    StatType
	Projection   Projection
	TimeAxis     TemporalAxis
	DeleteValues DeleteValues
	CustomBlocks []CustomBlock

	// EncodeKey is set for spatially compressed files.
	EncodeKey *EncodeKey
}

// IsFileCompressed reports whether the file stores only a subset of
// its grid cells.
func (fi *FileInfo) IsFileCompressed() bool {
	return fi.EncodeKey != nil && fi.EncodeKey.Len() > 0
}

// CustomBlock returns the first custom block with the given name.
func (fi *FileInfo) CustomBlock(name string) (CustomBlock, bool) {
	for _, b := range fi.CustomBlocks {
		if b.Name == name {
			return b, true
		}
	}
	return CustomBlock{}, false
}

func itemFromDef(d engine.ItemDef) (ItemInfo, error) {
	a, err := axisFromDef(d.Axis)
	if err != nil {
		return ItemInfo{}, fmt.Errorf("item %q: %w", d.Name, err)
	}
	return ItemInfo{
		Name:                  d.Name,
		Quantity:              eum.NewQuantity(eum.ItemType(d.Item), eum.Unit(d.Unit)),
		DataType:              d.DataType,
		ValueType:             ValueType(d.ValueType),
		SpatialAxis:           a,
		ReferenceCoordinates:  d.ReferenceCoordinates,
		Orientation:           d.Orientation,
		Conversion:            UnitConversion{Type: ConversionType(d.ConversionType), Unit: eum.Unit(d.ConversionUnit)},
		AssociatedStaticItems: d.AssociatedStaticItems,
		ElementCount:          d.ElementCount,
	}, nil
}

// setItemSlot copies the definition of item into an engine slot.
func setItemSlot(s engine.ItemSlot, item *ItemInfo) error {
	r, o := item.ReferenceCoordinates, item.Orientation
	steps := []func() error{
		func() error { return s.SetName(item.Name) },
		func() error { return s.SetQuantity(int(item.Quantity.Item), int(item.Quantity.Unit)) },
		func() error { return s.SetDataType(item.DataType) },
		func() error { return s.SetValueType(int(item.ValueType)) },
		func() error { return s.SetAxis(item.SpatialAxis.axisDef()) },
		func() error { return s.SetReferenceCoordinates(r[0], r[1], r[2]) },
		func() error { return s.SetOrientation(o[0], o[1], o[2]) },
		func() error { return s.SetConversion(int(item.Conversion.Type), int(item.Conversion.Unit)) },
		func() error { return s.SetAssociatedStaticItems(item.AssociatedStaticItems) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return fmt.Errorf("dfs: defining item %q: %w", item.Name, err)
		}
	}
	return nil
}

// checkData makes sure that data can be stored in item.
func checkData(item *ItemInfo, data Data) error {
	if data == nil {
		return fmt.Errorf("%w: no data for item %d %q", ErrSize, item.ItemNumber, item.Name)
	}
	if data.DataType() != item.DataType {
		return fmt.Errorf("%w: item %d %q is %v, data is %v", ErrTypeMismatch,
			item.ItemNumber, item.Name, item.DataType, data.DataType())
	}
	if data.Len() < item.ElementCount {
		return fmt.Errorf("%w: item %d %q has %d elements, data has %d", ErrSize,
			item.ItemNumber, item.Name, item.ElementCount, data.Len())
	}
	return nil
}
