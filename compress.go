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
)

// axisExtent returns the number of values along x, y and z, using 1
// for missing dimensions.
func axisExtent(a SpatialAxis) (nx, ny, nz int) {
	e := [3]int{1, 1, 1}
	for d := 1; d <= a.Dimension() && d <= 3; d++ {
		if s, err := a.SizeOfDimension(d); err == nil {
			e[d-1] = s
		}
	}
	return e[0], e[1], e[2]
}

// checkEncodeKey reports every key entry outside the axis of item.
func checkEncodeKey(k *EncodeKey, item *ItemInfo) []string {
	var problems []string
	if len(k.Y) != len(k.X) || len(k.Z) != len(k.X) {
		return []string{fmt.Sprintf("encode key arrays have different lengths (%d, %d, %d)", len(k.X), len(k.Y), len(k.Z))}
	}
	if item.SpatialAxis == nil {
		return nil
	}
	nx, ny, nz := axisExtent(item.SpatialAxis)
	for i := range k.X {
		x, y, z := k.X[i], k.Y[i], k.Z[i]
		if x < 0 || x >= nx || y < 0 || y >= ny || z < 0 || z >= nz {
			problems = append(problems, fmt.Sprintf("encode key entry %d (%d, %d, %d) is outside the %dx%dx%d axis of item %q",
				i, x, y, z, nx, ny, nz, item.Name))
		}
	}
	if item.DataType != Float {
		problems = append(problems, fmt.Sprintf("item %q is %v; compressed items must be float", item.Name, item.DataType))
	}
	return problems
}

// ExpandCompressed scatters the data of an item of a spatially
// compressed file onto its full axis. Cells that are not stored are
// set to the float delete value.
func ExpandCompressed(info *FileInfo, item *ItemInfo, data FloatData) (FloatData, error) {
	if !info.IsFileCompressed() {
		return nil, fmt.Errorf("%w: file is not compressed", ErrInvalidOperation)
	}
	if item.SpatialAxis == nil {
		return nil, fmt.Errorf("dfs: item %q has no spatial axis", item.Name)
	}
	k := info.EncodeKey
	if p := checkEncodeKey(k, item); len(p) > 0 {
		return nil, fmt.Errorf("dfs: %s", p[0])
	}
	if len(data) < k.Len() {
		return nil, fmt.Errorf("%w: encode key has %d entries, data has %d", ErrSize, k.Len(), len(data))
	}
	nx, ny, _ := axisExtent(item.SpatialAxis)
	out := make(FloatData, item.SpatialAxis.SizeOfData())
	for i := range out {
		out[i] = info.DeleteValues.Float
	}
	for i := range k.X {
		out[k.X[i]+nx*(k.Y[i]+ny*k.Z[i])] = data[i]
	}
	return out, nil
}
