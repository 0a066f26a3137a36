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

// Package eum holds the engineering unit management (EUM) registry:
// item types, units, quantities and conversions between units.
package eum

import (
	"fmt"

	"github.com/ctessum/unit"
)

// ItemType identifies the physical meaning of a data item, using
// EUM registry codes.
type ItemType int

// Registered item types.
const (
	ItemUndefined          ItemType = 999
	WaterLevel             ItemType = 100000
	Discharge              ItemType = 100001
	WindVelocity           ItemType = 100002
	WindDirection          ItemType = 100003
	Rainfall               ItemType = 100004
	Evaporation            ItemType = 100005
	Temperature            ItemType = 100006
	Concentration          ItemType = 100007
	CurrentSpeed           ItemType = 100008
	CurrentDirection       ItemType = 100009
	WaterDepth             ItemType = 100078
	Bathymetry             ItemType = 100079
	Pressure               ItemType = 100085
	GeographicalCoordinate ItemType = 100201
	ItemGeometry3D         ItemType = 100202
	IntegerCode            ItemType = 100203
	TimeStep               ItemType = 100204
)

// Unit identifies a unit of measure, using EUM registry codes.
type Unit int

// Registered units.
const (
	UnitUndefined    Unit = 0
	Meter            Unit = 1000
	Kilometer        Unit = 1001
	Millimeter       Unit = 1002
	Feet             Unit = 1003
	Centimeter       Unit = 1007
	Second           Unit = 1400
	Minute           Unit = 1401
	Hour             Unit = 1402
	Day              Unit = 1403
	M3PerSec         Unit = 1800
	LiterPerSec      Unit = 1810
	MeterPerSec      Unit = 2000
	KilometerPerHour Unit = 2001
	KilogramPerM3    Unit = 2200
	MilligramPerL    Unit = 2203
	Radian           Unit = 2400
	Degree           Unit = 2401
	DegreeCelsius    Unit = 2800
	DegreeFahrenheit Unit = 2801
	DegreeKelvin     Unit = 2802
	MillimeterPerDay Unit = 2004
	Pascal           Unit = 6100
	HectoPascal      Unit = 6101
	IntCode          Unit = 2900
)

type unitDef struct {
	abbreviation, description string
	// SI value = factor*value + offset
	factor, offset float64
	dims           unit.Dimensions
}

var angle = unit.Dimensions{unit.AngleDim: 1}

var units = map[Unit]unitDef{
	UnitUndefined:    {"-", "undefined", 1, 0, unit.Dimless},
	Meter:            {"m", "meter", 1, 0, unit.Meter},
	Kilometer:        {"km", "kilometer", 1000, 0, unit.Meter},
	Millimeter:       {"mm", "millimeter", 0.001, 0, unit.Meter},
	Feet:             {"ft", "feet", 0.3048, 0, unit.Meter},
	Centimeter:       {"cm", "centimeter", 0.01, 0, unit.Meter},
	Second:           {"sec", "second", 1, 0, unit.Second},
	Minute:           {"min", "minute", 60, 0, unit.Second},
	Hour:             {"hour", "hour", 3600, 0, unit.Second},
	Day:              {"day", "day", 86400, 0, unit.Second},
	M3PerSec:         {"m^3/s", "cubic meter per second", 1, 0, unit.Meter3PerSecond},
	LiterPerSec:      {"l/s", "liter per second", 0.001, 0, unit.Meter3PerSecond},
	MeterPerSec:      {"m/s", "meter per second", 1, 0, unit.MeterPerSecond},
	KilometerPerHour: {"km/h", "kilometer per hour", 1000.0 / 3600.0, 0, unit.MeterPerSecond},
	MillimeterPerDay: {"mm/day", "millimeter per day", 0.001 / 86400.0, 0, unit.MeterPerSecond},
	KilogramPerM3:    {"kg/m^3", "kilogram per cubic meter", 1, 0, unit.KilogramPerMeter3},
	MilligramPerL:    {"mg/l", "milligram per liter", 0.001, 0, unit.KilogramPerMeter3},
	Radian:           {"rad", "radian", 1, 0, angle},
	Degree:           {"deg", "degree", 0.017453292519943295, 0, angle},
	DegreeCelsius:    {"deg C", "degree Celsius", 1, 273.15, unit.Kelvin},
	DegreeFahrenheit: {"deg F", "degree Fahrenheit", 5.0 / 9.0, 273.15 - 32*5.0/9.0, unit.Kelvin},
	DegreeKelvin:     {"deg K", "degree Kelvin", 1, 0, unit.Kelvin},
	Pascal:           {"Pa", "pascal", 1, 0, unit.Pascal},
	HectoPascal:      {"hPa", "hectopascal", 100, 0, unit.Pascal},
	IntCode:          {"()", "integer code", 1, 0, unit.Dimless},
}

type itemDef struct {
	description string
	defaultUnit Unit
}

var items = map[ItemType]itemDef{
	ItemUndefined:          {"Undefined", UnitUndefined},
	WaterLevel:             {"Water Level", Meter},
	Discharge:              {"Discharge", M3PerSec},
	WindVelocity:           {"Wind speed", MeterPerSec},
	WindDirection:          {"Wind Direction", Degree},
	Rainfall:               {"Rainfall", Millimeter},
	Evaporation:            {"Evaporation", Millimeter},
	Temperature:            {"Temperature", DegreeCelsius},
	Concentration:          {"Concentration", MilligramPerL},
	CurrentSpeed:           {"Current Speed", MeterPerSec},
	CurrentDirection:       {"Current Direction", Degree},
	WaterDepth:             {"Water Depth", Meter},
	Bathymetry:             {"Bathymetry", Meter},
	Pressure:               {"Pressure", HectoPascal},
	GeographicalCoordinate: {"Geographical coordinate", Meter},
	ItemGeometry3D:         {"Item geometry 3-dimensional", Meter},
	IntegerCode:            {"Integer code", IntCode},
	TimeStep:               {"Time Step", Second},
}

// String returns the item type description.
func (t ItemType) String() string {
	if d, ok := items[t]; ok {
		return d.description
	}
	return fmt.Sprintf("ItemType(%d)", int(t))
}

// DefaultUnit returns the unit an item type is commonly stored in.
func (t ItemType) DefaultUnit() Unit {
	if d, ok := items[t]; ok {
		return d.defaultUnit
	}
	return UnitUndefined
}

// String returns the unit description.
func (u Unit) String() string {
	if d, ok := units[u]; ok {
		return d.description
	}
	return fmt.Sprintf("Unit(%d)", int(u))
}

// Abbreviation returns the short name of the unit, e.g. "m".
func (u Unit) Abbreviation() string {
	if d, ok := units[u]; ok {
		return d.abbreviation
	}
	return ""
}

// Dimensions returns the SI dimensions of the unit.
func (u Unit) Dimensions() (unit.Dimensions, error) {
	d, ok := units[u]
	if !ok {
		return nil, fmt.Errorf("eum: unknown unit %d", int(u))
	}
	return d.dims, nil
}

// UnitFromAbbreviation looks up a unit by its abbreviation.
func UnitFromAbbreviation(abbr string) (Unit, error) {
	for u, d := range units {
		if d.abbreviation == abbr {
			return u, nil
		}
	}
	return UnitUndefined, fmt.Errorf("eum: unknown unit abbreviation %q", abbr)
}

// Quantity tags a data item with its physical meaning.
type Quantity struct {
	Item ItemType
	Unit Unit
}

// NewQuantity returns a quantity with the given item type and unit.
func NewQuantity(item ItemType, u Unit) Quantity {
	return Quantity{Item: item, Unit: u}
}

// UndefinedQuantity returns the quantity used for items without physical meaning.
func UndefinedQuantity() Quantity {
	return Quantity{Item: ItemUndefined, Unit: UnitUndefined}
}

// ItemDescription returns the description of the item type.
func (q Quantity) ItemDescription() string { return q.Item.String() }

// UnitDescription returns the description of the unit.
func (q Quantity) UnitDescription() string { return q.Unit.String() }

func (q Quantity) String() string {
	return fmt.Sprintf("%s [%s]", q.ItemDescription(), q.Unit.Abbreviation())
}

// SIFactor returns the factor and offset that convert values in
// unit u to SI: si = factor*value + offset.
func SIFactor(u Unit) (factor, offset float64, err error) {
	d, ok := units[u]
	if !ok {
		return 0, 0, fmt.Errorf("eum: unknown unit %d", int(u))
	}
	return d.factor, d.offset, nil
}

// UnitsEquivalent reports whether two units measure the same dimension.
func UnitsEquivalent(a, b Unit) bool {
	da, ok := units[a]
	if !ok {
		return false
	}
	db, ok := units[b]
	if !ok {
		return false
	}
	return da.dims.Matches(db.dims)
}

// ConvertUnit converts value from one unit to another.
func ConvertUnit(from Unit, value float64, to Unit) (float64, error) {
	c, err := NewConverter(from, to, true)
	if err != nil {
		return 0, err
	}
	return c.Convert(value), nil
}
