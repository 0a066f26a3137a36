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

// itemFields holds the settings shared by dynamic and static item
// builders.
type itemFields struct {
	item   ItemInfo
	named  bool
	hasDT  bool
	hasAx  bool
	prefix string
}

func (b *itemFields) set(name string, q eum.Quantity, t DataType) {
	b.item.Name, b.item.Quantity, b.item.DataType = name, q, t
	b.named, b.hasDT = true, true
}

// SetAxis sets the spatial axis of the item.
func (b *itemFields) SetAxis(a SpatialAxis) {
	b.item.SpatialAxis = a
	b.hasAx = a != nil
}

// SetReferenceCoordinates sets the position of the axis origin.
func (b *itemFields) SetReferenceCoordinates(x, y, z float64) {
	b.item.ReferenceCoordinates = [3]float64{x, y, z}
}

// SetOrientation sets the rotation of the axis.
func (b *itemFields) SetOrientation(alpha, phi, theta float64) {
	b.item.Orientation = [3]float64{alpha, phi, theta}
}

// SetUnitConversion sets the unit conversion suggested to readers.
func (b *itemFields) SetUnitConversion(t ConversionType, u eum.Unit) {
	b.item.Conversion = UnitConversion{Type: t, Unit: u}
}

func (b *itemFields) problems() []string {
	var p []string
	if !b.named || b.item.Name == "" {
		p = append(p, b.prefix+" has no name")
	}
	if !b.hasDT || !b.item.DataType.Valid() {
		p = append(p, b.prefix+" has no valid data type")
	}
	if !b.hasAx {
		p = append(p, b.prefix+" has no spatial axis")
	} else if err := validateAxis(b.item.SpatialAxis); err != nil {
		p = append(p, fmt.Sprintf("%s: %v", b.prefix, err))
	}
	return p
}

// DynamicItemBuilder assembles dynamic item definitions. After each
// GetDynamicItemInfo call the builder starts over with an empty item.
type DynamicItemBuilder struct {
	itemFields
}

// NewDynamicItemBuilder returns an empty dynamic item builder.
func NewDynamicItemBuilder() *DynamicItemBuilder {
	return &DynamicItemBuilder{itemFields{prefix: "dynamic item"}}
}

// Set sets the name, quantity and data type of the item.
func (b *DynamicItemBuilder) Set(name string, q eum.Quantity, t DataType) {
	b.set(name, q, t)
}

// SetValueType sets how values relate to the time axis.
func (b *DynamicItemBuilder) SetValueType(v ValueType) { b.item.ValueType = v }

// SetAssociatedStaticItems lists static items that describe the item.
func (b *DynamicItemBuilder) SetAssociatedStaticItems(numbers []int) {
	b.item.AssociatedStaticItems = append([]int(nil), numbers...)
}

// Validate returns the required settings that are missing.
func (b *DynamicItemBuilder) Validate() []string { return b.problems() }

// GetDynamicItemInfo returns the assembled item and resets the
// builder.
func (b *DynamicItemBuilder) GetDynamicItemInfo() (*ItemInfo, error) {
	if p := b.problems(); len(p) > 0 {
		return nil, &ValidationError{Problems: p}
	}
	item := b.item
	b.itemFields = itemFields{prefix: b.prefix}
	return &item, nil
}

// StaticItemBuilder assembles static items. After each GetStaticItem
// call the builder starts over with an empty item.
type StaticItemBuilder struct {
	itemFields
	data Data
}

// NewStaticItemBuilder returns an empty static item builder.
func NewStaticItemBuilder() *StaticItemBuilder {
	return &StaticItemBuilder{itemFields: itemFields{prefix: "static item"}}
}

// Set sets the name, quantity and data type of the item.
func (b *StaticItemBuilder) Set(name string, q eum.Quantity, t DataType) {
	b.set(name, q, t)
}

// SetData sets the values of the item. The data type of the item is
// taken from data.
func (b *StaticItemBuilder) SetData(data Data) {
	b.data = data
	if data != nil {
		b.item.DataType, b.hasDT = data.DataType(), true
	}
}

// Validate returns the required settings that are missing.
func (b *StaticItemBuilder) Validate() []string {
	p := b.problems()
	if b.data == nil || b.data.Len() == 0 {
		p = append(p, "static item has no data")
	} else if b.hasAx && b.item.SpatialAxis != nil && b.data.Len() < b.item.SpatialAxis.SizeOfData() {
		p = append(p, fmt.Sprintf("static item has %d values, its axis needs %d",
			b.data.Len(), b.item.SpatialAxis.SizeOfData()))
	}
	return p
}

// GetStaticItem returns the assembled item and resets the builder.
func (b *StaticItemBuilder) GetStaticItem() (*StaticItem, error) {
	if p := b.Validate(); len(p) > 0 {
		return nil, &ValidationError{Problems: p}
	}
	s := &StaticItem{ItemInfo: b.item, Data: engine.Copy(b.data)}
	s.ElementCount = b.item.SpatialAxis.SizeOfData()
	b.itemFields = itemFields{prefix: b.prefix}
	b.data = nil
	return s, nil
}
