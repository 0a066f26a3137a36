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

package netcdf

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ctessum/cdf"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/dfs/engine"
)

type staticItem struct {
	def engine.ItemDef

	// data holds the item values until the NetCDF header is written.
	data engine.Data
}

type file struct {
	path string
	mode engine.Mode
	h    *header
	f    *os.File

	// cf is nil until the header and static items have been written.
	cf *cdf.File

	statics []*staticItem

	// nrec is the number of complete time steps.
	nrec int

	// Dynamic cursor: time step index and 1-based item number.
	step, item int

	// Static cursor: 1-based number of the next static item.
	static int

	closed bool
	log    logrus.FieldLogger
}

func (f *file) checkOpen(op string) error {
	if f.closed {
		return engine.NewError(engine.CloseFailed, op, errors.New("file is closed"))
	}
	return nil
}

func (f *file) checkWritable(op string) error {
	if err := f.checkOpen(op); err != nil {
		return err
	}
	if f.mode == engine.Read {
		return engine.NewError(engine.ReadOnly, op, nil)
	}
	return nil
}

// checkData makes sure that d can hold the values of item def.
func checkData(def engine.ItemDef, d engine.Data, op string) error {
	if d == nil {
		return engine.NewError(engine.TypeMismatch, op, errors.New("nil data"))
	}
	if d.DataType() != def.DataType {
		return engine.NewError(engine.TypeMismatch, op,
			fmt.Errorf("item %q is %v but data is %v", def.Name, def.DataType, d.DataType()))
	}
	if d.Len() < def.ElementCount {
		return engine.NewError(engine.IndexOutOfRange, op,
			fmt.Errorf("item %q has %d elements but data has %d", def.Name, def.ElementCount, d.Len()))
	}
	return nil
}

// define writes the NetCDF header, the temporal axis and the static
// items. After define no more static items can be added.
func (f *file) define() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = engine.NewError(engine.CorruptHeader, "define", fmt.Errorf("%v", r))
		}
	}()
	h := f.h
	dims := []string{"time", "time_axis_n", "datetime_n"}
	lengths := []int{0, timeAxisParams, len(engine.DateTimeLayout)}
	for i, s := range h.items {
		s.def.ElementCount = h.elementCount(s.def)
		v := itemVar(i + 1)
		dims = append(dims, dimName(v))
		lengths = append(lengths, storageLen(s.def.DataType, s.def.ElementCount))
	}
	for i, s := range f.statics {
		v := staticVar(i + 1)
		dims = append(dims, dimName(v))
		lengths = append(lengths, storageLen(s.def.DataType, s.def.ElementCount))
	}

	ch := cdf.NewHeader(dims, lengths)
	ch.AddVariable("time", []string{"time"}, []float64{0})
	ch.AddVariable("time_axis", []string{"time_axis_n"}, []float64{0})
	ch.AddVariable("start_time", []string{"datetime_n"}, "")
	putHeaderInfo(ch, h.info, len(h.items))
	for i, s := range h.items {
		v := itemVar(i + 1)
		ch.AddVariable(v, []string{"time", dimName(v)}, newStorage(s.def.DataType, 0))
		putItemDef(ch, v, s.def)
	}
	for i, s := range f.statics {
		v := staticVar(i + 1)
		ch.AddVariable(v, []string{dimName(v)}, newStorage(s.def.DataType, 0))
		putItemDef(ch, v, s.def)
	}
	ch.Define()

	cf, err := cdf.Create(f.f, ch)
	if err != nil {
		return engine.NewError(engine.WriteFailed, "define", err)
	}
	f.cf = cf
	if err = f.writeTimeAxis(); err != nil {
		return err
	}
	for i, s := range f.statics {
		if err = f.writeStatic(i+1, s.data); err != nil {
			return err
		}
		s.data = nil
	}
	for _, s := range h.items {
		s.locked = true
	}
	f.log.WithFields(logrus.Fields{"items": len(h.items), "statics": len(f.statics)}).Debug("wrote header")
	return nil
}

func (f *file) writeTimeAxis() error {
	t := f.h.info.TimeAxis
	params := []float64{float64(t.Type), float64(t.Unit), t.StartTimeOffset,
		t.TimeStep, float64(t.FirstTimeStepIndex)}
	if err := writeValues(f.cf.Writer("time_axis", nil, nil), params); err != nil {
		return engine.NewError(engine.WriteFailed, "write temporal axis", err)
	}
	n := len(engine.DateTimeLayout)
	s := t.StartDateTime
	if len(s) > n {
		s = s[:n]
	}
	s += strings.Repeat(" ", n-len(s))
	if err := writeValues(f.cf.Writer("start_time", nil, nil), []uint8(s)); err != nil {
		return engine.NewError(engine.WriteFailed, "write temporal axis", err)
	}
	return nil
}

func (f *file) readTimeAxis() error {
	params := make([]float64, timeAxisParams)
	if err := readValues(f.cf.Reader("time_axis", nil, nil), params); err != nil {
		return engine.NewError(engine.ReadFailed, "read temporal axis", err)
	}
	start := make([]uint8, len(engine.DateTimeLayout))
	if err := readValues(f.cf.Reader("start_time", nil, nil), start); err != nil {
		return engine.NewError(engine.ReadFailed, "read temporal axis", err)
	}
	f.h.info.TimeAxis = engine.TimeAxisDef{
		Type:               engine.TimeAxisType(params[0]),
		Unit:               int(params[1]),
		StartTimeOffset:    params[2],
		TimeStep:           params[3],
		FirstTimeStepIndex: int(params[4]),
		StartDateTime:      strings.TrimSpace(string(start)),
	}
	return nil
}

func (f *file) writeStatic(n int, d engine.Data) error {
	v := staticVar(n)
	l := f.cf.Header.Lengths(v)[0]
	if err := writeValues(f.cf.Writer(v, nil, nil), toStorage(d, l)); err != nil {
		return engine.NewError(engine.WriteFailed, "write static item", err)
	}
	return nil
}

func (f *file) FindTimeStep(step int) error {
	return f.FindItemDynamic(step, 1)
}

func (f *file) FindItemDynamic(step, item int) error {
	const op = "find item"
	if err := f.checkOpen(op); err != nil {
		return err
	}
	if item < 1 || item > len(f.h.items) {
		return engine.NewError(engine.ItemOutOfRange, op, fmt.Errorf("item %d of %d", item, len(f.h.items)))
	}
	if step < 0 || step > f.nrec {
		return engine.NewError(engine.IndexOutOfRange, op, fmt.Errorf("time step %d of %d", step, f.nrec))
	}
	f.step, f.item = step, item
	return nil
}

func (f *file) FindItemStatic(n int) error {
	const op = "find static item"
	if err := f.checkOpen(op); err != nil {
		return err
	}
	if n < 1 || n > len(f.statics) {
		return engine.NewError(engine.ItemOutOfRange, op, fmt.Errorf("static item %d of %d", n, len(f.statics)))
	}
	f.static = n
	return nil
}

func (f *file) advance() {
	f.item++
	if f.item > len(f.h.items) {
		f.item = 1
		f.step++
	}
}

func (f *file) ReadItemTimeStep(data engine.Data) (float64, error) {
	const op = "read item time step"
	if err := f.checkOpen(op); err != nil {
		return 0, err
	}
	if f.cf == nil || f.step >= f.nrec {
		return 0, engine.NewError(engine.EndOfFile, op, nil)
	}
	def := f.h.items[f.item-1].def
	if err := checkData(def, data, op); err != nil {
		return 0, err
	}
	n := def.ElementCount
	buf := newStorage(def.DataType, n)
	if err := readValues(f.cf.Reader(itemVar(f.item), []int{f.step, 0}, []int{f.step, n - 1}), buf); err != nil {
		return 0, engine.NewError(engine.ReadFailed, op, err)
	}
	fromStorage(buf, data)
	t := make([]float64, 1)
	if err := readValues(f.cf.Reader("time", []int{f.step}, []int{f.step}), t); err != nil {
		return 0, engine.NewError(engine.ReadFailed, op, err)
	}
	f.advance()
	return t[0], nil
}

func (f *file) WriteItemTimeStep(t float64, data engine.Data) error {
	const op = "write item time step"
	if err := f.checkWritable(op); err != nil {
		return err
	}
	if f.cf == nil {
		if err := f.define(); err != nil {
			return err
		}
	}
	if f.step > f.nrec {
		return engine.NewError(engine.IndexOutOfRange, op, fmt.Errorf("time step %d of %d", f.step, f.nrec))
	}
	def := f.h.items[f.item-1].def
	if err := checkData(def, data, op); err != nil {
		return err
	}
	if err := writeValues(f.cf.Writer("time", []int{f.step}, nil), []float64{t}); err != nil {
		return engine.NewError(engine.WriteFailed, op, err)
	}
	buf := toStorage(data, storageLen(def.DataType, def.ElementCount))
	if err := writeValues(f.cf.Writer(itemVar(f.item), []int{f.step, 0}, nil), buf); err != nil {
		return engine.NewError(engine.WriteFailed, op, err)
	}
	if f.item == len(f.h.items) && f.step == f.nrec {
		f.nrec++
	}
	f.advance()
	return nil
}

func (f *file) ReadStaticItemNext() (engine.ItemDef, engine.Data, error) {
	const op = "read static item"
	if err := f.checkOpen(op); err != nil {
		return engine.ItemDef{}, nil, err
	}
	if f.static > len(f.statics) {
		return engine.ItemDef{}, nil, engine.NewError(engine.EndOfFile, op, nil)
	}
	s := f.statics[f.static-1]
	var d engine.Data
	if f.cf == nil {
		d = engine.Copy(s.data)
	} else {
		buf := newStorage(s.def.DataType, s.def.ElementCount)
		if err := readValues(f.cf.Reader(staticVar(f.static), nil, nil), buf); err != nil {
			return engine.ItemDef{}, nil, engine.NewError(engine.ReadFailed, op, err)
		}
		var err error
		if d, err = engine.NewData(s.def.DataType, s.def.ElementCount); err != nil {
			return engine.ItemDef{}, nil, engine.NewError(engine.TypeMismatch, op, err)
		}
		fromStorage(buf, d)
	}
	f.static++
	return s.def, d, nil
}

func (f *file) WriteStaticItemData(data engine.Data) error {
	const op = "write static item data"
	if err := f.checkWritable(op); err != nil {
		return err
	}
	if f.static > len(f.statics) {
		return engine.NewError(engine.ItemOutOfRange, op, fmt.Errorf("static item %d of %d", f.static, len(f.statics)))
	}
	s := f.statics[f.static-1]
	if err := checkData(s.def, data, op); err != nil {
		return err
	}
	if f.cf == nil {
		s.data = engine.Copy(data)
	} else if err := f.writeStatic(f.static, data); err != nil {
		return err
	}
	f.static++
	return nil
}

func (f *file) NewStaticItem() (engine.ItemSlot, error) {
	const op = "new static item"
	if err := f.checkWritable(op); err != nil {
		return nil, err
	}
	if f.cf != nil {
		return nil, engine.NewError(engine.WriteFailed, op, errors.New("static items must be added before dynamic data"))
	}
	return new(slot), nil
}

func (f *file) WriteStaticItem(es engine.ItemSlot, data engine.Data) error {
	const op = "write static item"
	if err := f.checkWritable(op); err != nil {
		return err
	}
	if f.cf != nil {
		return engine.NewError(engine.WriteFailed, op, errors.New("static items must be added before dynamic data"))
	}
	s, ok := es.(*slot)
	if !ok || s.destroyed || s.locked {
		return engine.NewError(engine.PluginError, op, errors.New("invalid static item slot"))
	}
	def := s.def
	def.ElementCount = def.Axis.Size()
	if !def.DataType.Valid() {
		return engine.NewError(engine.TypeMismatch, op, fmt.Errorf("static item %q has no data type", def.Name))
	}
	if err := checkData(def, data, op); err != nil {
		return err
	}
	d, err := engine.NewData(def.DataType, def.ElementCount)
	if err != nil {
		return engine.NewError(engine.TypeMismatch, op, err)
	}
	fromStorage(toStorage(data, def.ElementCount), d)
	f.statics = append(f.statics, &staticItem{def: def, data: d})
	s.locked = true
	return nil
}

func (f *file) WriteDynamicBlockMarker() error {
	const op = "write dynamic block marker"
	if err := f.checkWritable(op); err != nil {
		return err
	}
	if f.cf == nil {
		if err := f.define(); err != nil {
			return err
		}
	}
	f.step, f.item = 0, 1
	return nil
}

func (f *file) Flush() error {
	if err := f.checkOpen("flush"); err != nil {
		return err
	}
	if f.mode == engine.Read || f.cf == nil {
		return nil
	}
	if err := f.f.Sync(); err != nil {
		return engine.NewError(engine.FlushFailed, "flush", err)
	}
	if err := cdf.UpdateNumRecs(f.f); err != nil {
		return engine.NewError(engine.FlushFailed, "flush", err)
	}
	return nil
}

func (f *file) Close() error {
	if f.closed {
		return nil
	}
	var err error
	if f.mode != engine.Read {
		if f.cf == nil {
			err = f.define()
		}
		if err == nil {
			err = f.Flush()
		}
	}
	f.closed = true
	if cerr := f.f.Close(); cerr != nil && err == nil {
		err = engine.NewError(engine.CloseFailed, "close", cerr)
	}
	f.log.Debug("closed file")
	return err
}
