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
	"runtime"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/dfs/engine"
)

// cursor tells which region of the file the engine is positioned in.
type cursor int

const (
	// creatingItems: the file was just built and no dynamic data has
	// been written.
	creatingItems cursor = iota
	staticCursor
	dynamicCursor
)

// File is an open DFS file. A File is not safe for concurrent use.
type File struct {
	path  string
	mode  Mode
	info  *FileInfo
	items []*ItemInfo

	h engine.Header
	f engine.File

	state cursor

	// Next dynamic item time step to read or write.
	item, step int

	// Next static item to read or write, counting from 1.
	static int

	closed bool
	log    logrus.FieldLogger
}

// Open opens a file using the engine installed by Init.
func Open(path string, mode Mode) (*File, error) {
	e, err := DefaultEngine()
	if err != nil {
		return nil, err
	}
	return OpenWith(e, path, mode)
}

// OpenWith opens a file using engine e.
func OpenWith(e engine.Engine, path string, mode Mode) (*File, error) {
	h, ef, err := e.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("dfs: opening %s: %w", path, err)
	}
	f, err := newFile(path, mode, h, ef)
	if err != nil {
		ef.Close()
		h.Destroy()
		return nil, fmt.Errorf("dfs: opening %s: %w", path, err)
	}
	f.state = staticCursor
	if mode == Append {
		f.state = dynamicCursor
		f.step = f.NumberOfTimeSteps()
	}
	f.log.WithField("steps", f.NumberOfTimeSteps()).Debug("opened file")
	return f, nil
}

// newFile wraps engine handles, reading the header into a FileInfo.
func newFile(path string, mode Mode, h engine.Header, ef engine.File) (*File, error) {
	hi := h.Info()
	ta, err := temporalFromDef(hi.TimeAxis)
	if err != nil {
		return nil, err
	}
	f := &File{
		path: path,
		mode: mode,
		h:    h,
		f:    ef,
		info: &FileInfo{
			FileType:           hi.FileType,
			FileTitle:          hi.Title,
			ApplicationTitle:   hi.ApplicationTitle,
			ApplicationVersion: hi.ApplicationVersion,
			DataType:           hi.DataType,
			StatsType:          hi.StatsType,
			Projection:         hi.Projection,
			TimeAxis:           ta,
			DeleteValues:       hi.DeleteValues,
			CustomBlocks:       hi.CustomBlocks,
			EncodeKey:          hi.EncodeKey,
		},
		item:   1,
		static: 1,
		log:    Log.WithField("file", path),
	}
	for i := 1; i <= h.ItemCount(); i++ {
		s, err := h.Item(i)
		if err != nil {
			return nil, err
		}
		item, err := itemFromDef(s.Def())
		if err != nil {
			return nil, err
		}
		item.ItemNumber = i
		f.items = append(f.items, &item)
	}
	f.bindTimeAxis()
	runtime.SetFinalizer(f, (*File).Close)
	return f, nil
}

func (f *File) bindTimeAxis() {
	// The callback holds the header rather than f so that an unreachable
	// File can still be finalized.
	a, h := f.info.TimeAxis, f.h
	a.base().notify = func() error {
		if err := h.SetTemporalAxis(a.timeDef()); err != nil {
			return fmt.Errorf("dfs: updating temporal axis: %w", err)
		}
		return nil
	}
}

// FileInfo returns the file level header fields. Changes to the
// temporal axis are written to the file.
func (f *File) FileInfo() *FileInfo { return f.info }

// ItemInfo returns the dynamic items, ordered by item number.
func (f *File) ItemInfo() []*ItemInfo { return f.items }

// NumberOfTimeSteps returns the number of complete time steps.
func (f *File) NumberOfTimeSteps() int { return f.info.TimeAxis.NumberOfTimeSteps() }

// StaticItemCount returns the number of static items.
func (f *File) StaticItemCount() int { return f.h.StaticItemCount() }

func (f *File) checkItem(itemNumber int) error {
	if itemNumber < 1 || itemNumber > len(f.items) {
		return fmt.Errorf("%w: item number %d, file has %d items", ErrOutOfRange, itemNumber, len(f.items))
	}
	return nil
}

// engineErr adds context to an engine error.
func (f *File) engineErr(op string, err error) error {
	return fmt.Errorf("dfs: %s %s: %w", op, f.path, err)
}

// ReadStaticItemNext reads the next static item. It returns io.EOF
// after the last static item.
func (f *File) ReadStaticItemNext() (*StaticItem, error) {
	if f.closed {
		return nil, ErrClosed
	}
	if f.state == creatingItems {
		return nil, fmt.Errorf("%w: cannot read static items while the file is being built", ErrInvalidOperation)
	}
	if f.state != staticCursor {
		if f.StaticItemCount() == 0 {
			return nil, io.EOF
		}
		if err := f.f.FindItemStatic(1); err != nil {
			return nil, f.engineErr("seeking static item 1 in", err)
		}
		f.state, f.static = staticCursor, 1
		f.item, f.step = 1, 0
	}
	def, data, err := f.f.ReadStaticItemNext()
	if engine.IsEOF(err) {
		return nil, io.EOF
	} else if err != nil {
		return nil, f.engineErr(fmt.Sprintf("reading static item %d of", f.static), err)
	}
	item, err := itemFromDef(def)
	if err != nil {
		return nil, err
	}
	s := &StaticItem{ItemInfo: item, Data: data, file: f, number: f.static}
	f.static++
	return s, nil
}

// ReadStaticItem reads static item n, counting from 1.
func (f *File) ReadStaticItem(n int) (*StaticItem, error) {
	if f.closed {
		return nil, ErrClosed
	}
	if n < 1 || n > f.StaticItemCount() {
		return nil, fmt.Errorf("%w: static item %d, file has %d static items", ErrOutOfRange, n, f.StaticItemCount())
	}
	if f.state == creatingItems {
		return nil, fmt.Errorf("%w: cannot read static items while the file is being built", ErrInvalidOperation)
	}
	if f.state != staticCursor || f.static != n {
		if err := f.f.FindItemStatic(n); err != nil {
			return nil, f.engineErr(fmt.Sprintf("seeking static item %d in", n), err)
		}
		f.state, f.static = staticCursor, n
		f.item, f.step = 1, 0
	}
	return f.ReadStaticItemNext()
}

// WriteStaticItemData overwrites the data of static item s, which
// must belong to f.
func (f *File) WriteStaticItemData(s *StaticItem, data Data) error {
	if f.closed {
		return ErrClosed
	}
	if s.file != f {
		return fmt.Errorf("%w: static item %q belongs to another file", ErrInvalidOperation, s.Name)
	}
	if err := checkData(&s.ItemInfo, data); err != nil {
		return err
	}
	if f.state != staticCursor || f.static != s.number {
		if err := f.f.FindItemStatic(s.number); err != nil {
			return f.engineErr(fmt.Sprintf("seeking static item %d in", s.number), err)
		}
		if f.state != creatingItems {
			f.state = staticCursor
		}
		f.static = s.number
		f.item, f.step = 1, 0
	}
	if err := f.f.WriteStaticItemData(data); err != nil {
		return f.engineErr(fmt.Sprintf("writing static item %d of", s.number), err)
	}
	s.Data = data
	f.static++
	return nil
}

// seekDynamic positions the engine at (itemNumber, step).
func (f *File) seekDynamic(itemNumber, step int) error {
	var err error
	if itemNumber == 1 {
		err = f.f.FindTimeStep(step)
	} else {
		err = f.f.FindItemDynamic(step, itemNumber)
	}
	if err != nil {
		return f.engineErr(fmt.Sprintf("seeking item %d time step %d in", itemNumber, step), err)
	}
	f.state, f.item, f.step = dynamicCursor, itemNumber, step
	f.static = 1
	return nil
}

// advance moves the dynamic cursor to the next item time step. It
// reports whether a time step was completed.
func (f *File) advance() bool {
	f.item++
	if f.item > len(f.items) {
		f.item = 1
		f.step++
		return true
	}
	return false
}

// ReadItemTimeStepNext reads the next item time step in round-robin
// order. If buf is not nil, data are read into it; it must have the
// type and size of the item. It returns io.EOF after the last item
// time step.
func (f *File) ReadItemTimeStepNext(buf Data) (*ItemData, error) {
	if f.closed {
		return nil, ErrClosed
	}
	if len(f.items) == 0 {
		return nil, io.EOF
	}
	if f.state != dynamicCursor {
		if err := f.seekDynamic(1, 0); err != nil {
			return nil, err
		}
	}
	item := f.items[f.item-1]
	if buf == nil {
		var err error
		if buf, err = engine.NewData(item.DataType, item.ElementCount); err != nil {
			return nil, err
		}
	} else if buf.DataType() != item.DataType {
		return nil, fmt.Errorf("%w: item %d %q is %v, buffer is %v", ErrTypeMismatch,
			item.ItemNumber, item.Name, item.DataType, buf.DataType())
	} else if buf.Len() != item.ElementCount {
		return nil, fmt.Errorf("%w: item %d %q has %d elements, buffer has %d", ErrSize,
			item.ItemNumber, item.Name, item.ElementCount, buf.Len())
	}
	t, err := f.f.ReadItemTimeStep(buf)
	if engine.IsEOF(err) {
		return nil, io.EOF
	} else if err != nil {
		return nil, f.engineErr(fmt.Sprintf("reading item %d time step %d of", f.item, f.step), err)
	}
	if et, ok := equidistantTime(f.info.TimeAxis, f.step); ok {
		t = et
	}
	d := &ItemData{ItemNumber: f.item, TimeStepIndex: f.step, Time: t, Data: buf}
	f.advance()
	return d, nil
}

// ReadItemTimeStep reads item itemNumber at time step step, which
// must be an existing time step.
func (f *File) ReadItemTimeStep(itemNumber, step int, buf Data) (*ItemData, error) {
	if f.closed {
		return nil, ErrClosed
	}
	if err := f.checkItem(itemNumber); err != nil {
		return nil, err
	}
	if n := f.NumberOfTimeSteps(); step < 0 || step >= n {
		return nil, fmt.Errorf("%w: time step %d, file has %d time steps", ErrOutOfRange, step, n)
	}
	if f.state != dynamicCursor || f.item != itemNumber || f.step != step {
		if err := f.seekDynamic(itemNumber, step); err != nil {
			return nil, err
		}
	}
	return f.ReadItemTimeStepNext(buf)
}

// WriteItemTimeStepNext writes the next item time step in round-robin
// order. The data must have the type of the item and at least its
// number of elements. Completing a new time step increments the
// number of time steps.
func (f *File) WriteItemTimeStepNext(time float64, data Data) error {
	if f.closed {
		return ErrClosed
	}
	if len(f.items) == 0 {
		return fmt.Errorf("%w: file has no dynamic items", ErrInvalidOperation)
	}
	switch f.state {
	case creatingItems:
		f.state, f.item, f.step = dynamicCursor, 1, 0
	case staticCursor:
		if err := f.seekDynamic(1, 0); err != nil {
			return err
		}
	}
	item := f.items[f.item-1]
	if err := checkData(item, data); err != nil {
		return err
	}
	if err := f.f.WriteItemTimeStep(time, data); err != nil {
		return f.engineErr(fmt.Sprintf("writing item %d time step %d of", f.item, f.step), err)
	}
	if f.advance() && f.step > f.NumberOfTimeSteps() {
		f.info.TimeAxis.IncrementNumberOfTimeSteps(time)
		f.log.WithField("steps", f.NumberOfTimeSteps()).Debug("completed time step")
	}
	return nil
}

// WriteItemTimeStep writes item itemNumber at time step step. The
// step may be an existing time step or the next new one; a new time
// step must be written in item order, starting at item 1.
func (f *File) WriteItemTimeStep(itemNumber, step int, time float64, data Data) error {
	if f.closed {
		return ErrClosed
	}
	if err := f.checkItem(itemNumber); err != nil {
		return err
	}
	n := f.NumberOfTimeSteps()
	if step < 0 || step > n {
		return fmt.Errorf("%w: time step %d, file has %d time steps", ErrOutOfRange, step, n)
	}
	inProgress := f.state == dynamicCursor && f.item == itemNumber && f.step == step
	if step == n && itemNumber != 1 && !inProgress {
		return fmt.Errorf("%w: cannot write item %d of new time step %d; next is item %d of time step %d",
			ErrOrdering, itemNumber, step, f.item, f.step)
	}
	if !inProgress {
		if err := f.seekDynamic(itemNumber, step); err != nil {
			return err
		}
	}
	return f.WriteItemTimeStepNext(time, data)
}

// Reset moves to the first time step of the first item. The next
// static item read starts from the first static item.
func (f *File) Reset() error {
	if f.closed {
		return ErrClosed
	}
	return f.seekDynamic(1, 0)
}

// FindItem moves to item itemNumber at time step step without
// reading.
func (f *File) FindItem(itemNumber, step int) error {
	if f.closed {
		return ErrClosed
	}
	if err := f.checkItem(itemNumber); err != nil {
		return err
	}
	if n := f.NumberOfTimeSteps(); step < 0 || step > n {
		return fmt.Errorf("%w: time step %d, file has %d time steps", ErrOutOfRange, step, n)
	}
	return f.seekDynamic(itemNumber, step)
}

// FindTimeStep moves to the first item of time step step.
func (f *File) FindTimeStep(step int) error {
	return f.FindItem(1, step)
}

// Flush writes buffered data to disk.
func (f *File) Flush() error {
	if f.closed {
		return ErrClosed
	}
	if err := f.f.Flush(); err != nil {
		return f.engineErr("flushing", err)
	}
	return nil
}

// Close closes the file. Closing a closed file has no effect.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	runtime.SetFinalizer(f, nil)
	err := f.f.Close()
	f.h.Destroy()
	if err != nil {
		return f.engineErr("closing", err)
	}
	f.log.Debug("closed file")
	return nil
}
