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

	"github.com/ctessum/sparse"
	"github.com/spatialmodel/dfs/engine"
)

// axisShape returns the extent of each dimension of a, slowest
// varying first: (y, x) for 2D axes and (z, y, x) for 3D axes.
func axisShape(a SpatialAxis) ([]int, error) {
	n := a.Dimension()
	shape := make([]int, n)
	for d := 1; d <= n; d++ {
		s, err := a.SizeOfDimension(d)
		if err != nil {
			return nil, err
		}
		shape[n-d] = s
	}
	return shape, nil
}

// GridData copies the data of a 2D or 3D item into an array indexed
// as [y][x] or [z][y][x].
func GridData(item *ItemInfo, data Data) (*sparse.DenseArray, error) {
	if item.SpatialAxis == nil {
		return nil, fmt.Errorf("dfs: item %q has no spatial axis", item.Name)
	}
	if d := item.SpatialAxis.Dimension(); d != 2 && d != 3 {
		return nil, fmt.Errorf("dfs: item %q is %d-dimensional, not a grid", item.Name, d)
	}
	shape, err := axisShape(item.SpatialAxis)
	if err != nil {
		return nil, err
	}
	n := item.SpatialAxis.SizeOfData()
	if data.Len() < n {
		return nil, fmt.Errorf("%w: grid item %q has %d cells, data has %d", ErrSize, item.Name, n, data.Len())
	}
	out := sparse.ZerosDense(shape...)
	for i := 0; i < n; i++ {
		out.Elements[i] = engine.Float64At(data, i)
	}
	return out, nil
}
