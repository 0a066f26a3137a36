/*
Copyright © 2019 the InMAP authors.
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
along with InMAP.  If not, see <http://www.gnu.org/licenses/>.*/


// Package hash computes content fingerprints of in-memory values,
// such as mesh geometries, so that two values can be compared
// without keeping both around.
package hash

import (
	"encoding/gob"
	"fmt"
	"hash"
	"hash/fnv"

	"github.com/davecgh/go-spew/spew"
)

// printer writes a deterministic dump of values that gob cannot
// encode, such as structs without exported fields.
var printer = spew.ConfigState{
	Indent:                  " ",
	SortKeys:                true,
	DisableMethods:          true,
	SpewKeys:                true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

// Hash returns the hexadecimal fnv-128a digest of object. Values that
// are equal field by field have the same digest.
func Hash(object interface{}) string {
	h := fnv.New128a()
	write(h, object)
	return fmt.Sprintf("%x", h.Sum(nil))
}

func write(h hash.Hash, object interface{}) {
	if err := gob.NewEncoder(h).Encode(object); err == nil {
		return
	}
	h.Reset()
	printer.Fprintf(h, "%#v", object)
}
