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

// Package dfsu reads and writes dfsu files, DFS files that store an
// unstructured mesh as static items followed by per-element (or
// per-node) dynamic data.
package dfsu

import (
	"fmt"
)

// FileType is the kind of mesh stored in a dfsu file.
type FileType int

// Mesh kinds.
const (
	Dfsu2D FileType = iota
	DfsuVerticalColumn
	DfsuVerticalProfileSigma
	DfsuVerticalProfileSigmaZ
	Dfsu3DSigma
	Dfsu3DSigmaZ
)

var fileTypeNames = map[FileType]string{
	Dfsu2D:                    "Dfsu2D",
	DfsuVerticalColumn:        "DfsuVerticalColumn",
	DfsuVerticalProfileSigma:  "DfsuVerticalProfileSigma",
	DfsuVerticalProfileSigmaZ: "DfsuVerticalProfileSigmaZ",
	Dfsu3DSigma:               "Dfsu3DSigma",
	Dfsu3DSigmaZ:              "Dfsu3DSigmaZ",
}

func (t FileType) String() string {
	if s, ok := fileTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("FileType(%d)", int(t))
}

// Dimension returns the dimension tag stored in the MIKE_FM block: 1
// for vertical columns, 2 for horizontal and vertical profile meshes
// and 3 for 3D meshes.
func (t FileType) Dimension() int {
	switch t {
	case DfsuVerticalColumn:
		return 1
	case Dfsu3DSigma, Dfsu3DSigmaZ:
		return 3
	}
	return 2
}

// IsLayered reports whether the mesh is made of vertical columns of
// layers.
func (t FileType) IsLayered() bool { return t != Dfsu2D }

// fileTypeFromBlock infers the file type from the dimension tag and
// layer counts of the MIKE_FM block.
func fileTypeFromBlock(dim, layers, sigma int) (FileType, error) {
	switch dim {
	case 1:
		return DfsuVerticalColumn, nil
	case 2:
		if layers == 0 {
			return Dfsu2D, nil
		}
		if layers == sigma {
			return DfsuVerticalProfileSigma, nil
		}
		return DfsuVerticalProfileSigmaZ, nil
	case 3:
		if layers == sigma {
			return Dfsu3DSigma, nil
		}
		return Dfsu3DSigmaZ, nil
	}
	return 0, fmt.Errorf("dfsu: invalid dimension %d in MIKE_FM block", dim)
}

// Element type codes.
const (
	VerticalSegment = 11
	Triangle        = 21
	Quadrilateral   = 25
	Prism           = 32
	Hexahedron      = 33
)

// ElementType returns the type code of an element with nodeCount
// nodes in a mesh of type t.
func ElementType(nodeCount int, t FileType) (int, error) {
	switch t {
	case DfsuVerticalColumn:
		if nodeCount == 2 {
			return VerticalSegment, nil
		}
	case Dfsu3DSigma, Dfsu3DSigmaZ:
		switch nodeCount {
		case 6:
			return Prism, nil
		case 8:
			return Hexahedron, nil
		}
	default:
		switch nodeCount {
		case 3:
			return Triangle, nil
		case 4:
			return Quadrilateral, nil
		}
	}
	return 0, fmt.Errorf("dfsu: %v mesh cannot have elements with %d nodes", t, nodeCount)
}
