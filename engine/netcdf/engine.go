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

// Package netcdf implements a DFS engine that stores DFS files as
// NetCDF classic files. Header fields are stored as attributes, static
// items as fixed-size variables and dynamic items as record variables,
// so that the records hold the item time steps in round-robin order.
package netcdf

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ctessum/cdf"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/dfs/engine"
)

// Log receives debug messages from the engine.
var Log logrus.FieldLogger = logrus.StandardLogger()

// Engine is a DFS engine backed by NetCDF files.
type Engine struct{}

// New returns a NetCDF DFS engine.
func New() *Engine { return new(Engine) }

// CreateHeader implements engine.Engine.
func (e *Engine) CreateHeader(fileType engine.FileType, title, appTitle string, appVersion, itemCount int, stats engine.StatType) (engine.Header, error) {
	if itemCount < 0 {
		return nil, engine.NewError(engine.ItemOutOfRange, "create header", fmt.Errorf("item count %d", itemCount))
	}
	h := &header{
		info: engine.HeaderInfo{
			FileType:           fileType,
			Title:              title,
			ApplicationTitle:   appTitle,
			ApplicationVersion: appVersion,
			StatsType:          stats,
			DeleteValues:       engine.DefaultDeleteValues(),
		},
		items: make([]*slot, itemCount),
	}
	for i := range h.items {
		h.items[i] = &slot{h: h}
	}
	return h, nil
}

// Create implements engine.Engine.
func (e *Engine) Create(path string, eh engine.Header) (engine.File, error) {
	h, ok := eh.(*header)
	if !ok {
		return nil, engine.NewError(engine.PluginError, "create", fmt.Errorf("header of type %T does not belong to this engine", eh))
	}
	if h.destroyed || h.file != nil {
		return nil, engine.NewError(engine.PluginError, "create", errors.New("header is not available"))
	}
	fh, err := os.Create(path)
	if err != nil {
		return nil, engine.NewError(engine.OpenFailed, "create", err)
	}
	f := &file{
		path:   path,
		mode:   engine.Edit,
		h:      h,
		f:      fh,
		item:   1,
		static: 1,
		log:    Log.WithFields(logrus.Fields{"engine": "netcdf", "file": path}),
	}
	h.file = f
	f.log.Debug("created file")
	return f, nil
}

// Open implements engine.Engine.
func (e *Engine) Open(path string, mode engine.Mode) (engine.Header, engine.File, error) {
	flag := os.O_RDWR
	if mode == engine.Read {
		flag = os.O_RDONLY
	}
	fh, err := os.OpenFile(path, flag, 0)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, engine.NewError(engine.FileNotFound, "open", err)
		}
		return nil, nil, engine.NewError(engine.OpenFailed, "open", err)
	}
	cf, err := cdf.Open(fh)
	if err != nil {
		fh.Close()
		return nil, nil, engine.NewError(engine.CorruptHeader, "open", err)
	}
	info, err := getHeaderInfo(cf.Header)
	if err != nil {
		fh.Close()
		return nil, nil, engine.NewError(engine.CorruptTag, "open", err)
	}
	h := &header{info: info}
	for i := 1; hasVar(cf.Header, itemVar(i)); i++ {
		d, err := getItemDef(cf.Header, itemVar(i))
		if err != nil {
			fh.Close()
			return nil, nil, engine.NewError(engine.CorruptHeader, "open", err)
		}
		h.items = append(h.items, &slot{h: h, def: d, locked: true})
	}
	if len(h.items) != getInt(cf.Header, "", "dfs_item_count") {
		fh.Close()
		return nil, nil, engine.NewError(engine.CorruptHeader, "open", errors.New("dynamic item count does not match header"))
	}
	f := &file{
		path:   path,
		mode:   mode,
		h:      h,
		f:      fh,
		cf:     cf,
		item:   1,
		static: 1,
		log:    Log.WithFields(logrus.Fields{"engine": "netcdf", "file": path}),
	}
	for i := 1; hasVar(cf.Header, staticVar(i)); i++ {
		d, err := getItemDef(cf.Header, staticVar(i))
		if err != nil {
			fh.Close()
			return nil, nil, engine.NewError(engine.CorruptHeader, "open", err)
		}
		f.statics = append(f.statics, &staticItem{def: d})
	}
	h.file = f
	if err := f.readTimeAxis(); err != nil {
		fh.Close()
		return nil, nil, err
	}
	fi, err := fh.Stat()
	if err != nil {
		fh.Close()
		return nil, nil, engine.NewError(engine.ReadFailed, "open", err)
	}
	f.nrec = int(cf.Header.NumRecs(fi.Size()))
	if mode == engine.Append {
		f.step = f.nrec
	}
	f.log.WithField("steps", f.nrec).Debug("opened file")
	return h, f, nil
}

type header struct {
	info      engine.HeaderInfo
	items     []*slot
	file      *file
	destroyed bool
}

// written reports whether the header has been stored in a file.
func (h *header) written() bool { return h.file != nil && h.file.cf != nil }

func (h *header) checkMutable(op string) error {
	if h.destroyed {
		return engine.NewError(engine.PluginError, op, errors.New("header has been destroyed"))
	}
	if h.written() {
		return engine.NewError(engine.WriteFailed, op, errors.New("header has already been written"))
	}
	return nil
}

func (h *header) elementCount(d engine.ItemDef) int {
	if h.info.EncodeKey != nil && h.info.EncodeKey.Len() > 0 {
		return h.info.EncodeKey.Len()
	}
	return d.Axis.Size()
}

func (h *header) Info() engine.HeaderInfo {
	info := h.info
	info.TimeAxis.NumberOfTimeSteps = h.NumberOfTimeSteps()
	return info
}

func (h *header) SetDataType(dataType int) error {
	if err := h.checkMutable("set data type"); err != nil {
		return err
	}
	h.info.DataType = dataType
	return nil
}

func (h *header) SetProjection(p engine.Projection) error {
	if err := h.checkMutable("set projection"); err != nil {
		return err
	}
	h.info.Projection = p
	return nil
}

func (h *header) SetTemporalAxis(t engine.TimeAxisDef) error {
	const op = "set temporal axis"
	if h.destroyed {
		return engine.NewError(engine.PluginError, op, errors.New("header has been destroyed"))
	}
	if t.Type < engine.TimeEquidistant || t.Type > engine.CalendarNonEquidistant {
		return engine.NewError(engine.CorruptAxis, op, fmt.Errorf("invalid temporal axis type %d", int(t.Type)))
	}
	if t.Type == engine.CalendarEquidistant || t.Type == engine.CalendarNonEquidistant {
		if _, err := time.Parse(engine.DateTimeLayout, t.StartDateTime); err != nil {
			return engine.NewError(engine.DateTimeFormat, op, err)
		}
	}
	if h.file != nil && h.file.mode == engine.Read {
		return engine.NewError(engine.ReadOnly, op, nil)
	}
	h.info.TimeAxis = t
	if h.written() {
		return h.file.writeTimeAxis()
	}
	return nil
}

func (h *header) SetDeleteValues(d engine.DeleteValues) error {
	if err := h.checkMutable("set delete values"); err != nil {
		return err
	}
	h.info.DeleteValues = d
	return nil
}

func (h *header) AddCustomBlock(b engine.CustomBlock) error {
	if err := h.checkMutable("add custom block"); err != nil {
		return err
	}
	if b.Data == nil || b.Data.Len() == 0 {
		return engine.NewError(engine.IndexOutOfRange, "add custom block", errors.New("empty custom block"))
	}
	h.info.CustomBlocks = append(h.info.CustomBlocks, engine.CustomBlock{Name: b.Name, Data: engine.Copy(b.Data)})
	return nil
}

func (h *header) SetEncodeKey(k engine.EncodeKey) error {
	if err := h.checkMutable("set encode key"); err != nil {
		return err
	}
	if len(k.Y) != len(k.X) || len(k.Z) != len(k.X) {
		return engine.NewError(engine.IndexOutOfRange, "set encode key", errors.New("key arrays have different lengths"))
	}
	h.info.EncodeKey = &engine.EncodeKey{
		X: append([]int(nil), k.X...),
		Y: append([]int(nil), k.Y...),
		Z: append([]int(nil), k.Z...),
	}
	return nil
}

func (h *header) ItemCount() int { return len(h.items) }

func (h *header) Item(n int) (engine.ItemSlot, error) {
	if n < 1 || n > len(h.items) {
		return nil, engine.NewError(engine.ItemOutOfRange, "item", fmt.Errorf("item %d of %d", n, len(h.items)))
	}
	return h.items[n-1], nil
}

func (h *header) NumberOfTimeSteps() int {
	if h.file != nil {
		return h.file.nrec
	}
	return h.info.TimeAxis.NumberOfTimeSteps
}

func (h *header) StaticItemCount() int {
	if h.file != nil {
		return len(h.file.statics)
	}
	return 0
}

func (h *header) Destroy() error {
	h.destroyed = true
	return nil
}

// slot is an item definition held by a header or a file.
type slot struct {
	h         *header
	def       engine.ItemDef
	locked    bool
	destroyed bool
}

func (s *slot) check(op string) error {
	if s.destroyed {
		return engine.NewError(engine.PluginError, op, errors.New("item slot has been destroyed"))
	}
	if s.locked || (s.h != nil && s.h.written()) {
		return engine.NewError(engine.WriteFailed, op, errors.New("item has already been written"))
	}
	return nil
}

func (s *slot) SetName(name string) error {
	if err := s.check("set item name"); err != nil {
		return err
	}
	s.def.Name = name
	return nil
}

func (s *slot) SetQuantity(item, unit int) error {
	if err := s.check("set item quantity"); err != nil {
		return err
	}
	s.def.Item, s.def.Unit = item, unit
	return nil
}

func (s *slot) SetDataType(t engine.DataType) error {
	if err := s.check("set item data type"); err != nil {
		return err
	}
	if !t.Valid() {
		return engine.NewError(engine.TypeMismatch, "set item data type", fmt.Errorf("invalid data type %d", int(t)))
	}
	s.def.DataType = t
	return nil
}

func (s *slot) SetValueType(v int) error {
	if err := s.check("set item value type"); err != nil {
		return err
	}
	s.def.ValueType = v
	return nil
}

func (s *slot) SetAxis(a engine.AxisDef) error {
	const op = "set item axis"
	if err := s.check(op); err != nil {
		return err
	}
	if a.Type < engine.AxisEqD0 || a.Type > engine.AxisCurveLinearD3 {
		return engine.NewError(engine.CorruptAxis, op, fmt.Errorf("invalid axis type %d", int(a.Type)))
	}
	for _, c := range a.Counts {
		if c < 1 {
			return engine.NewError(engine.CorruptAxis, op, fmt.Errorf("invalid axis counts %v", a.Counts))
		}
	}
	s.def.Axis = a
	return nil
}

func (s *slot) SetReferenceCoordinates(x, y, z float64) error {
	if err := s.check("set item reference coordinates"); err != nil {
		return err
	}
	s.def.ReferenceCoordinates = [3]float64{x, y, z}
	return nil
}

func (s *slot) SetOrientation(alpha, phi, theta float64) error {
	if err := s.check("set item orientation"); err != nil {
		return err
	}
	s.def.Orientation = [3]float64{alpha, phi, theta}
	return nil
}

func (s *slot) SetConversion(conversionType, unit int) error {
	if err := s.check("set item conversion"); err != nil {
		return err
	}
	s.def.ConversionType, s.def.ConversionUnit = conversionType, unit
	return nil
}

func (s *slot) SetAssociatedStaticItems(items []int) error {
	if err := s.check("set associated static items"); err != nil {
		return err
	}
	s.def.AssociatedStaticItems = append([]int(nil), items...)
	return nil
}

func (s *slot) Def() engine.ItemDef {
	d := s.def
	if s.h != nil && d.ElementCount == 0 {
		d.ElementCount = s.h.elementCount(d)
	}
	return d
}

func (s *slot) Destroy() error {
	s.destroyed = true
	return nil
}
