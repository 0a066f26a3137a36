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
	"io"

	"github.com/spatialmodel/dfs/engine"
	"gonum.org/v1/gonum/mat"
)

func (f *File) checkDfs0() error {
	for _, item := range f.items {
		if item.ElementCount != 1 {
			return fmt.Errorf("%w: item %d %q has %d elements; dfs0 items hold one value",
				ErrSize, item.ItemNumber, item.Name, item.ElementCount)
		}
	}
	return nil
}

// ReadDfs0DataDouble reads every time step of a dfs0 file into a
// matrix with one row per time step. Column 0 holds the time and
// column i holds the value of item i.
func ReadDfs0DataDouble(f *File) (*mat.Dense, error) {
	if err := f.checkDfs0(); err != nil {
		return nil, err
	}
	n := f.NumberOfTimeSteps()
	if n == 0 || len(f.items) == 0 {
		return nil, fmt.Errorf("%w: file %s has no data", ErrOutOfRange, f.path)
	}
	if err := f.Reset(); err != nil {
		return nil, err
	}
	bufs := make([]Data, len(f.items))
	for i, item := range f.items {
		var err error
		if bufs[i], err = engine.NewData(item.DataType, 1); err != nil {
			return nil, err
		}
	}
	m := mat.NewDense(n, len(f.items)+1, nil)
	for step := 0; step < n; step++ {
		for i := range f.items {
			d, err := f.ReadItemTimeStepNext(bufs[i])
			if err == io.EOF {
				return nil, fmt.Errorf("dfs: %s ends at time step %d of %d", f.path, step, n)
			} else if err != nil {
				return nil, err
			}
			if i == 0 {
				m.Set(step, 0, d.Time)
			}
			m.Set(step, i+1, engine.Float64At(d.Data, 0))
		}
	}
	return m, nil
}

// WriteDfs0DataDouble writes the rows of m as time steps of a dfs0
// file, starting at time step 0. Column 0 holds the time and column i
// the value of item i. Values are converted to the data type of each
// item.
func WriteDfs0DataDouble(f *File, m mat.Matrix) error {
	if err := f.checkDfs0(); err != nil {
		return err
	}
	r, c := m.Dims()
	if c != len(f.items)+1 {
		return fmt.Errorf("%w: matrix has %d columns, need time plus %d items", ErrSize, c, len(f.items))
	}
	if err := f.Reset(); err != nil {
		return err
	}
	bufs := make([]Data, len(f.items))
	for i, item := range f.items {
		var err error
		if bufs[i], err = engine.NewData(item.DataType, 1); err != nil {
			return err
		}
	}
	for step := 0; step < r; step++ {
		t := m.At(step, 0)
		for i := range f.items {
			engine.SetFloat64At(bufs[i], 0, m.At(step, i+1))
			if err := f.WriteItemTimeStepNext(t, bufs[i]); err != nil {
				return err
			}
		}
	}
	return nil
}
