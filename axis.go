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

// AxisType identifies the variant of a spatial axis.
type AxisType = engine.AxisType

// SpatialAxis describes the shape of item data in space. Data are
// stored with the x index varying fastest, then y, then z.
type SpatialAxis interface {
	AxisType() AxisType
	Unit() eum.Unit

	// Dimension returns the number of spatial dimensions, 0 for a
	// point.
	Dimension() int

	// SizeOfData returns the number of values in one item time step.
	SizeOfData() int

	// SizeOfDimension returns the number of values along dimension
	// dim, counting from 1.
	SizeOfDimension(dim int) (int, error)

	axisDef() engine.AxisDef
}

func sizeOfDimension(counts []int, dim int) (int, error) {
	if dim < 1 || dim > len(counts) {
		return 0, fmt.Errorf("%w: dimension %d of %d-dimensional axis", ErrOutOfRange, dim, len(counts))
	}
	return counts[dim-1], nil
}

func product(counts ...int) int {
	n := 1
	for _, c := range counts {
		n *= c
	}
	return n
}

// PointAxis is the axis of a single value.
type PointAxis struct {
	AxisUnit eum.Unit
}

// NewPointAxis returns an axis holding one value.
func NewPointAxis(u eum.Unit) *PointAxis { return &PointAxis{AxisUnit: u} }

func (a *PointAxis) AxisType() AxisType  { return engine.AxisEqD0 }
func (a *PointAxis) Unit() eum.Unit      { return a.AxisUnit }
func (a *PointAxis) Dimension() int      { return 0 }
func (a *PointAxis) SizeOfData() int     { return 1 }
func (a *PointAxis) SizeOfDimension(dim int) (int, error) {
	return sizeOfDimension(nil, dim)
}
func (a *PointAxis) axisDef() engine.AxisDef {
	return engine.AxisDef{Type: engine.AxisEqD0, Unit: int(a.AxisUnit)}
}

// EqD1Axis is a line of equally spaced values.
type EqD1Axis struct {
	AxisUnit eum.Unit
	XCount   int
	X0, DX   float64
}

// NewEqD1Axis returns an equidistant 1D axis.
func NewEqD1Axis(u eum.Unit, xCount int, x0, dx float64) (*EqD1Axis, error) {
	if xCount < 1 {
		return nil, fmt.Errorf("dfs: axis must have at least one value, not %d", xCount)
	}
	return &EqD1Axis{AxisUnit: u, XCount: xCount, X0: x0, DX: dx}, nil
}

func (a *EqD1Axis) AxisType() AxisType { return engine.AxisEqD1 }
func (a *EqD1Axis) Unit() eum.Unit     { return a.AxisUnit }
func (a *EqD1Axis) Dimension() int     { return 1 }
func (a *EqD1Axis) SizeOfData() int    { return a.XCount }
func (a *EqD1Axis) SizeOfDimension(dim int) (int, error) {
	return sizeOfDimension([]int{a.XCount}, dim)
}
func (a *EqD1Axis) axisDef() engine.AxisDef {
	return engine.AxisDef{Type: engine.AxisEqD1, Unit: int(a.AxisUnit), Counts: []int{a.XCount},
		Origin: []float64{a.X0}, Spacing: []float64{a.DX}}
}

// EqD2Axis is a regular grid.
type EqD2Axis struct {
	AxisUnit       eum.Unit
	XCount, YCount int
	X0, Y0, DX, DY float64
}

// NewEqD2Axis returns an equidistant 2D axis.
func NewEqD2Axis(u eum.Unit, xCount, yCount int, x0, dx, y0, dy float64) (*EqD2Axis, error) {
	if xCount < 1 || yCount < 1 {
		return nil, fmt.Errorf("dfs: axis must have at least one value per dimension, not %dx%d", xCount, yCount)
	}
	return &EqD2Axis{AxisUnit: u, XCount: xCount, YCount: yCount, X0: x0, DX: dx, Y0: y0, DY: dy}, nil
}

func (a *EqD2Axis) AxisType() AxisType { return engine.AxisEqD2 }
func (a *EqD2Axis) Unit() eum.Unit     { return a.AxisUnit }
func (a *EqD2Axis) Dimension() int     { return 2 }
func (a *EqD2Axis) SizeOfData() int    { return product(a.XCount, a.YCount) }
func (a *EqD2Axis) SizeOfDimension(dim int) (int, error) {
	return sizeOfDimension([]int{a.XCount, a.YCount}, dim)
}
func (a *EqD2Axis) axisDef() engine.AxisDef {
	return engine.AxisDef{Type: engine.AxisEqD2, Unit: int(a.AxisUnit), Counts: []int{a.XCount, a.YCount},
		Origin: []float64{a.X0, a.Y0}, Spacing: []float64{a.DX, a.DY}}
}

// EqD3Axis is a regular 3D grid.
type EqD3Axis struct {
	AxisUnit               eum.Unit
	XCount, YCount, ZCount int
	X0, Y0, Z0, DX, DY, DZ float64
}

// NewEqD3Axis returns an equidistant 3D axis.
func NewEqD3Axis(u eum.Unit, xCount, yCount, zCount int, x0, dx, y0, dy, z0, dz float64) (*EqD3Axis, error) {
	if xCount < 1 || yCount < 1 || zCount < 1 {
		return nil, fmt.Errorf("dfs: axis must have at least one value per dimension, not %dx%dx%d", xCount, yCount, zCount)
	}
	return &EqD3Axis{AxisUnit: u, XCount: xCount, YCount: yCount, ZCount: zCount,
		X0: x0, DX: dx, Y0: y0, DY: dy, Z0: z0, DZ: dz}, nil
}

func (a *EqD3Axis) AxisType() AxisType { return engine.AxisEqD3 }
func (a *EqD3Axis) Unit() eum.Unit     { return a.AxisUnit }
func (a *EqD3Axis) Dimension() int     { return 3 }
func (a *EqD3Axis) SizeOfData() int    { return product(a.XCount, a.YCount, a.ZCount) }
func (a *EqD3Axis) SizeOfDimension(dim int) (int, error) {
	return sizeOfDimension([]int{a.XCount, a.YCount, a.ZCount}, dim)
}
func (a *EqD3Axis) axisDef() engine.AxisDef {
	return engine.AxisDef{Type: engine.AxisEqD3, Unit: int(a.AxisUnit),
		Counts: []int{a.XCount, a.YCount, a.ZCount},
		Origin: []float64{a.X0, a.Y0, a.Z0}, Spacing: []float64{a.DX, a.DY, a.DZ}}
}

// NeqD1Axis is a line of values at arbitrary coordinates.
type NeqD1Axis struct {
	AxisUnit eum.Unit
	X        []float64
}

// NewNeqD1Axis returns a non-equidistant 1D axis.
func NewNeqD1Axis(u eum.Unit, x []float64) (*NeqD1Axis, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("dfs: axis must have at least one coordinate")
	}
	return &NeqD1Axis{AxisUnit: u, X: append([]float64(nil), x...)}, nil
}

func (a *NeqD1Axis) AxisType() AxisType { return engine.AxisNeqD1 }
func (a *NeqD1Axis) Unit() eum.Unit     { return a.AxisUnit }
func (a *NeqD1Axis) Dimension() int     { return 1 }
func (a *NeqD1Axis) SizeOfData() int    { return len(a.X) }
func (a *NeqD1Axis) SizeOfDimension(dim int) (int, error) {
	return sizeOfDimension([]int{len(a.X)}, dim)
}
func (a *NeqD1Axis) axisDef() engine.AxisDef {
	return engine.AxisDef{Type: engine.AxisNeqD1, Unit: int(a.AxisUnit), Counts: []int{len(a.X)},
		Coords: [][]float64{a.X}}
}

// NeqD2Axis is a rectilinear grid with arbitrary coordinates along
// each direction.
type NeqD2Axis struct {
	AxisUnit eum.Unit
	X, Y     []float64
}

// NewNeqD2Axis returns a non-equidistant 2D axis.
func NewNeqD2Axis(u eum.Unit, x, y []float64) (*NeqD2Axis, error) {
	if len(x) == 0 || len(y) == 0 {
		return nil, fmt.Errorf("dfs: axis must have at least one coordinate per dimension")
	}
	return &NeqD2Axis{AxisUnit: u, X: append([]float64(nil), x...), Y: append([]float64(nil), y...)}, nil
}

func (a *NeqD2Axis) AxisType() AxisType { return engine.AxisNeqD2 }
func (a *NeqD2Axis) Unit() eum.Unit     { return a.AxisUnit }
func (a *NeqD2Axis) Dimension() int     { return 2 }
func (a *NeqD2Axis) SizeOfData() int    { return len(a.X) * len(a.Y) }
func (a *NeqD2Axis) SizeOfDimension(dim int) (int, error) {
	return sizeOfDimension([]int{len(a.X), len(a.Y)}, dim)
}
func (a *NeqD2Axis) axisDef() engine.AxisDef {
	return engine.AxisDef{Type: engine.AxisNeqD2, Unit: int(a.AxisUnit), Counts: []int{len(a.X), len(a.Y)},
		Coords: [][]float64{a.X, a.Y}}
}

// NeqD3Axis is a rectilinear 3D grid.
type NeqD3Axis struct {
	AxisUnit eum.Unit
	X, Y, Z  []float64
}

// NewNeqD3Axis returns a non-equidistant 3D axis.
func NewNeqD3Axis(u eum.Unit, x, y, z []float64) (*NeqD3Axis, error) {
	if len(x) == 0 || len(y) == 0 || len(z) == 0 {
		return nil, fmt.Errorf("dfs: axis must have at least one coordinate per dimension")
	}
	return &NeqD3Axis{AxisUnit: u, X: append([]float64(nil), x...),
		Y: append([]float64(nil), y...), Z: append([]float64(nil), z...)}, nil
}

func (a *NeqD3Axis) AxisType() AxisType { return engine.AxisNeqD3 }
func (a *NeqD3Axis) Unit() eum.Unit     { return a.AxisUnit }
func (a *NeqD3Axis) Dimension() int     { return 3 }
func (a *NeqD3Axis) SizeOfData() int    { return len(a.X) * len(a.Y) * len(a.Z) }
func (a *NeqD3Axis) SizeOfDimension(dim int) (int, error) {
	return sizeOfDimension([]int{len(a.X), len(a.Y), len(a.Z)}, dim)
}
func (a *NeqD3Axis) axisDef() engine.AxisDef {
	return engine.AxisDef{Type: engine.AxisNeqD3, Unit: int(a.AxisUnit),
		Counts: []int{len(a.X), len(a.Y), len(a.Z)}, Coords: [][]float64{a.X, a.Y, a.Z}}
}

// CurvilinearD2Axis is a structured grid of XCount by YCount cells.
// X and Y hold the cell corner coordinates, (XCount+1)*(YCount+1)
// values each, with the x index varying fastest.
type CurvilinearD2Axis struct {
	AxisUnit       eum.Unit
	XCount, YCount int
	X, Y           []float64
}

// NewCurvilinearD2Axis returns a curvilinear 2D axis.
func NewCurvilinearD2Axis(u eum.Unit, xCount, yCount int, x, y []float64) (*CurvilinearD2Axis, error) {
	a := &CurvilinearD2Axis{AxisUnit: u, XCount: xCount, YCount: yCount,
		X: append([]float64(nil), x...), Y: append([]float64(nil), y...)}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *CurvilinearD2Axis) validate() error {
	if a.XCount < 1 || a.YCount < 1 {
		return fmt.Errorf("dfs: curvilinear axis must have at least one cell per dimension, not %dx%d", a.XCount, a.YCount)
	}
	n := (a.XCount + 1) * (a.YCount + 1)
	if len(a.X) != n || len(a.Y) != n {
		return fmt.Errorf("dfs: curvilinear axis of %dx%d cells needs %d corner coordinates, have x=%d y=%d",
			a.XCount, a.YCount, n, len(a.X), len(a.Y))
	}
	return nil
}

func (a *CurvilinearD2Axis) AxisType() AxisType { return engine.AxisCurveLinearD2 }
func (a *CurvilinearD2Axis) Unit() eum.Unit     { return a.AxisUnit }
func (a *CurvilinearD2Axis) Dimension() int     { return 2 }
func (a *CurvilinearD2Axis) SizeOfData() int    { return product(a.XCount, a.YCount) }
func (a *CurvilinearD2Axis) SizeOfDimension(dim int) (int, error) {
	return sizeOfDimension([]int{a.XCount, a.YCount}, dim)
}
func (a *CurvilinearD2Axis) axisDef() engine.AxisDef {
	return engine.AxisDef{Type: engine.AxisCurveLinearD2, Unit: int(a.AxisUnit),
		Counts: []int{a.XCount, a.YCount}, Coords: [][]float64{a.X, a.Y}}
}

// CurvilinearD3Axis is a structured 3D grid. X, Y and Z hold
// (XCount+1)*(YCount+1)*(ZCount+1) corner coordinates each.
type CurvilinearD3Axis struct {
	AxisUnit               eum.Unit
	XCount, YCount, ZCount int
	X, Y, Z                []float64
}

// NewCurvilinearD3Axis returns a curvilinear 3D axis.
func NewCurvilinearD3Axis(u eum.Unit, xCount, yCount, zCount int, x, y, z []float64) (*CurvilinearD3Axis, error) {
	a := &CurvilinearD3Axis{AxisUnit: u, XCount: xCount, YCount: yCount, ZCount: zCount,
		X: append([]float64(nil), x...), Y: append([]float64(nil), y...), Z: append([]float64(nil), z...)}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *CurvilinearD3Axis) validate() error {
	if a.XCount < 1 || a.YCount < 1 || a.ZCount < 1 {
		return fmt.Errorf("dfs: curvilinear axis must have at least one cell per dimension, not %dx%dx%d",
			a.XCount, a.YCount, a.ZCount)
	}
	n := (a.XCount + 1) * (a.YCount + 1) * (a.ZCount + 1)
	if len(a.X) != n || len(a.Y) != n || len(a.Z) != n {
		return fmt.Errorf("dfs: curvilinear axis of %dx%dx%d cells needs %d corner coordinates, have x=%d y=%d z=%d",
			a.XCount, a.YCount, a.ZCount, n, len(a.X), len(a.Y), len(a.Z))
	}
	return nil
}

func (a *CurvilinearD3Axis) AxisType() AxisType { return engine.AxisCurveLinearD3 }
func (a *CurvilinearD3Axis) Unit() eum.Unit     { return a.AxisUnit }
func (a *CurvilinearD3Axis) Dimension() int     { return 3 }
func (a *CurvilinearD3Axis) SizeOfData() int    { return product(a.XCount, a.YCount, a.ZCount) }
func (a *CurvilinearD3Axis) SizeOfDimension(dim int) (int, error) {
	return sizeOfDimension([]int{a.XCount, a.YCount, a.ZCount}, dim)
}
func (a *CurvilinearD3Axis) axisDef() engine.AxisDef {
	return engine.AxisDef{Type: engine.AxisCurveLinearD3, Unit: int(a.AxisUnit),
		Counts: []int{a.XCount, a.YCount, a.ZCount}, Coords: [][]float64{a.X, a.Y, a.Z}}
}

// validateAxis checks the invariants of axes that were built without
// their constructor.
func validateAxis(a SpatialAxis) error {
	switch v := a.(type) {
	case *CurvilinearD2Axis:
		return v.validate()
	case *CurvilinearD3Axis:
		return v.validate()
	}
	if a.SizeOfData() < 1 {
		return fmt.Errorf("dfs: %d-dimensional axis holds no values", a.Dimension())
	}
	return nil
}

// axisFromDef rebuilds a spatial axis from its header record.
func axisFromDef(d engine.AxisDef) (SpatialAxis, error) {
	u := eum.Unit(d.Unit)
	need := func(counts, origin, coords int) error {
		if len(d.Counts) < counts || len(d.Origin) < origin || len(d.Spacing) < origin || len(d.Coords) < coords {
			return fmt.Errorf("dfs: incomplete definition of axis type %d", int(d.Type))
		}
		return nil
	}
	switch d.Type {
	case engine.AxisEqD0:
		return NewPointAxis(u), nil
	case engine.AxisEqD1:
		if err := need(1, 1, 0); err != nil {
			return nil, err
		}
		return NewEqD1Axis(u, d.Counts[0], d.Origin[0], d.Spacing[0])
	case engine.AxisEqD2:
		if err := need(2, 2, 0); err != nil {
			return nil, err
		}
		return NewEqD2Axis(u, d.Counts[0], d.Counts[1], d.Origin[0], d.Spacing[0], d.Origin[1], d.Spacing[1])
	case engine.AxisEqD3:
		if err := need(3, 3, 0); err != nil {
			return nil, err
		}
		return NewEqD3Axis(u, d.Counts[0], d.Counts[1], d.Counts[2],
			d.Origin[0], d.Spacing[0], d.Origin[1], d.Spacing[1], d.Origin[2], d.Spacing[2])
	case engine.AxisNeqD1:
		if err := need(1, 0, 1); err != nil {
			return nil, err
		}
		return NewNeqD1Axis(u, d.Coords[0])
	case engine.AxisNeqD2:
		if err := need(2, 0, 2); err != nil {
			return nil, err
		}
		return NewNeqD2Axis(u, d.Coords[0], d.Coords[1])
	case engine.AxisNeqD3:
		if err := need(3, 0, 3); err != nil {
			return nil, err
		}
		return NewNeqD3Axis(u, d.Coords[0], d.Coords[1], d.Coords[2])
	case engine.AxisCurveLinearD2:
		if err := need(2, 0, 2); err != nil {
			return nil, err
		}
		return NewCurvilinearD2Axis(u, d.Counts[0], d.Counts[1], d.Coords[0], d.Coords[1])
	case engine.AxisCurveLinearD3:
		if err := need(3, 0, 3); err != nil {
			return nil, err
		}
		return NewCurvilinearD3Axis(u, d.Counts[0], d.Counts[1], d.Counts[2], d.Coords[0], d.Coords[1], d.Coords[2])
	}
	return nil, fmt.Errorf("dfs: unsupported axis type %d", int(d.Type))
}
