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

type builderStage int

const (
	// defining the header and dynamic items
	stageHeader builderStage = iota
	// file created; adding static items
	stageStatic
	// GetFile has been called
	stageDone
)

// Builder creates a new DFS file in two stages. In the first stage the
// header and the dynamic items are defined, then CreateFile creates the
// file. In the second stage static items are added, and GetFile returns
// the file, ready for dynamic data.
type Builder struct {
	stage builderStage
	e     engine.Engine

	fileType           FileType
	title, appTitle    string
	appVersion         int
	statsType          StatType
	dataType           int
	dataTypeSet        bool
	projection         *Projection
	timeAxis           TemporalAxis
	deleteValues       DeleteValues
	items              []*ItemInfo
	customBlocks       []CustomBlock
	encodeKey          *EncodeKey

	file *File
}

// NewBuilder returns a builder that creates the file with the engine
// installed by Init.
func NewBuilder(fileTitle, appTitle string, appVersion int) *Builder {
	return NewBuilderWith(nil, fileTitle, appTitle, appVersion)
}

// NewBuilderWith returns a builder that creates the file with engine
// e.
func NewBuilderWith(e engine.Engine, fileTitle, appTitle string, appVersion int) *Builder {
	return &Builder{
		e:            e,
		fileType:     engine.EqtimeFixedspaceAllitems,
		title:        fileTitle,
		appTitle:     appTitle,
		appVersion:   appVersion,
		deleteValues: engine.DefaultDeleteValues(),
	}
}

func (b *Builder) inStage(s builderStage, op string) error {
	if b.stage == s {
		return nil
	}
	switch b.stage {
	case stageHeader:
		return fmt.Errorf("%w: %s before CreateFile", ErrInvalidOperation, op)
	case stageStatic:
		return fmt.Errorf("%w: %s after CreateFile", ErrInvalidOperation, op)
	}
	return fmt.Errorf("%w: %s after GetFile", ErrInvalidOperation, op)
}

// SetFileType sets the file type.
func (b *Builder) SetFileType(t FileType) error {
	if err := b.inStage(stageHeader, "SetFileType"); err != nil {
		return err
	}
	b.fileType = t
	return nil
}

// SetItemStatisticsType sets which item statistics the file keeps.
func (b *Builder) SetItemStatisticsType(t StatType) error {
	if err := b.inStage(stageHeader, "SetItemStatisticsType"); err != nil {
		return err
	}
	b.statsType = t
	return nil
}

// SetDataType sets the application specific data type tag.
func (b *Builder) SetDataType(t int) error {
	if err := b.inStage(stageHeader, "SetDataType"); err != nil {
		return err
	}
	b.dataType, b.dataTypeSet = t, true
	return nil
}

// SetGeographicalProjection sets the map projection of the file.
func (b *Builder) SetGeographicalProjection(p Projection) error {
	if err := b.inStage(stageHeader, "SetGeographicalProjection"); err != nil {
		return err
	}
	b.projection = &p
	return nil
}

// SetTemporalAxis sets the temporal axis. The axis belongs to the file
// once it is created.
func (b *Builder) SetTemporalAxis(a TemporalAxis) error {
	if err := b.inStage(stageHeader, "SetTemporalAxis"); err != nil {
		return err
	}
	b.timeAxis = a
	return nil
}

// SetDeleteValueFloat sets the delete value of float items.
func (b *Builder) SetDeleteValueFloat(v float32) error {
	if err := b.inStage(stageHeader, "SetDeleteValueFloat"); err != nil {
		return err
	}
	b.deleteValues.Float = v
	return nil
}

// SetDeleteValueDouble sets the delete value of double items.
func (b *Builder) SetDeleteValueDouble(v float64) error {
	if err := b.inStage(stageHeader, "SetDeleteValueDouble"); err != nil {
		return err
	}
	b.deleteValues.Double = v
	return nil
}

// SetDeleteValueByte sets the delete value of byte items.
func (b *Builder) SetDeleteValueByte(v int8) error {
	if err := b.inStage(stageHeader, "SetDeleteValueByte"); err != nil {
		return err
	}
	b.deleteValues.Byte = v
	return nil
}

// SetDeleteValueInt sets the delete value of int items.
func (b *Builder) SetDeleteValueInt(v int32) error {
	if err := b.inStage(stageHeader, "SetDeleteValueInt"); err != nil {
		return err
	}
	b.deleteValues.Int = v
	return nil
}

// SetDeleteValueUnsignedInt sets the delete value of uint items.
func (b *Builder) SetDeleteValueUnsignedInt(v uint32) error {
	if err := b.inStage(stageHeader, "SetDeleteValueUnsignedInt"); err != nil {
		return err
	}
	b.deleteValues.UInt = v
	return nil
}

// AddCustomBlock adds a named metadata array to the header.
func (b *Builder) AddCustomBlock(c CustomBlock) error {
	if err := b.inStage(stageHeader, "AddCustomBlock"); err != nil {
		return err
	}
	if c.Data != nil {
		c.Data = engine.Copy(c.Data)
	}
	b.customBlocks = append(b.customBlocks, c)
	return nil
}

// SetEncodingKey marks the file as spatially compressed. Only the
// cells listed in the key are stored.
func (b *Builder) SetEncodingKey(k EncodeKey) error {
	if err := b.inStage(stageHeader, "SetEncodingKey"); err != nil {
		return err
	}
	b.encodeKey = &EncodeKey{
		X: append([]int(nil), k.X...),
		Y: append([]int(nil), k.Y...),
		Z: append([]int(nil), k.Z...),
	}
	return nil
}

// CreateDynamicItemBuilder returns a builder for dynamic items.
func (b *Builder) CreateDynamicItemBuilder() *DynamicItemBuilder {
	return NewDynamicItemBuilder()
}

// AddDynamicItem appends a dynamic item.
func (b *Builder) AddDynamicItem(item *ItemInfo) error {
	if err := b.inStage(stageHeader, "AddDynamicItem"); err != nil {
		return err
	}
	b.items = append(b.items, item)
	return nil
}

// AddCreateDynamicItem appends an instantaneous dynamic item.
func (b *Builder) AddCreateDynamicItem(name string, q eum.Quantity, t DataType, a SpatialAxis) (*ItemInfo, error) {
	if err := b.inStage(stageHeader, "AddCreateDynamicItem"); err != nil {
		return nil, err
	}
	item := &ItemInfo{Name: name, Quantity: q, DataType: t, SpatialAxis: a}
	b.items = append(b.items, item)
	return item, nil
}

// Validate checks that the file can be created. It returns every
// problem found; if dieOnError is set and there are problems it also
// returns a *ValidationError.
func (b *Builder) Validate(dieOnError bool) ([]string, error) {
	var p []string
	if !b.dataTypeSet {
		p = append(p, "data type has not been set")
	}
	if b.projection == nil {
		p = append(p, "geographical projection has not been set")
	}
	if b.timeAxis == nil {
		p = append(p, "temporal axis has not been set")
	}
	if len(b.items) == 0 {
		p = append(p, "no dynamic items have been added")
	}
	for i, item := range b.items {
		if item.Name == "" {
			p = append(p, fmt.Sprintf("dynamic item %d has no name", i+1))
		}
		if item.SpatialAxis == nil {
			p = append(p, fmt.Sprintf("dynamic item %d has no spatial axis", i+1))
		} else if err := validateAxis(item.SpatialAxis); err != nil {
			p = append(p, fmt.Sprintf("dynamic item %d: %v", i+1, err))
		}
		if !item.DataType.Valid() {
			p = append(p, fmt.Sprintf("dynamic item %d has invalid data type %d", i+1, int(item.DataType)))
		}
	}
	for i, c := range b.customBlocks {
		if c.Name == "" {
			p = append(p, fmt.Sprintf("custom block %d has no name", i+1))
		}
		if c.Data == nil || c.Data.Len() == 0 {
			p = append(p, fmt.Sprintf("custom block %d has no data", i+1))
		}
	}
	if b.encodeKey != nil {
		for _, item := range b.items {
			p = append(p, checkEncodeKey(b.encodeKey, item)...)
		}
	}
	if dieOnError && len(p) > 0 {
		return p, &ValidationError{Problems: p}
	}
	return p, nil
}

// CreateFile validates the definition and creates the file. After
// CreateFile only static items can be added.
func (b *Builder) CreateFile(path string) error {
	if err := b.inStage(stageHeader, "CreateFile"); err != nil {
		return err
	}
	if _, err := b.Validate(true); err != nil {
		return err
	}
	e := b.e
	if e == nil {
		var err error
		if e, err = DefaultEngine(); err != nil {
			return err
		}
	}
	h, err := e.CreateHeader(b.fileType, b.title, b.appTitle, b.appVersion, len(b.items), b.statsType)
	if err != nil {
		return fmt.Errorf("dfs: creating header for %s: %w", path, err)
	}
	if err = b.defineHeader(h); err != nil {
		h.Destroy()
		return fmt.Errorf("dfs: creating header for %s: %w", path, err)
	}
	ef, err := e.Create(path, h)
	if err != nil {
		h.Destroy()
		return fmt.Errorf("dfs: creating %s: %w", path, err)
	}
	f, err := newFile(path, Edit, h, ef)
	if err != nil {
		ef.Close()
		h.Destroy()
		return fmt.Errorf("dfs: creating %s: %w", path, err)
	}
	// The file keeps the caller's temporal axis and item definitions.
	f.info.TimeAxis = b.timeAxis
	f.bindTimeAxis()
	for i, item := range b.items {
		item.ItemNumber = i + 1
		item.ElementCount = f.items[i].ElementCount
		f.items[i] = item
	}
	f.state = creatingItems
	b.file = f
	b.stage = stageStatic
	f.log.WithField("items", len(b.items)).Debug("created file")
	return nil
}

func (b *Builder) defineHeader(h engine.Header) error {
	if err := h.SetDataType(b.dataType); err != nil {
		return err
	}
	if err := h.SetProjection(*b.projection); err != nil {
		return err
	}
	if err := h.SetDeleteValues(b.deleteValues); err != nil {
		return err
	}
	if err := h.SetTemporalAxis(b.timeAxis.timeDef()); err != nil {
		return err
	}
	for _, c := range b.customBlocks {
		if err := h.AddCustomBlock(c); err != nil {
			return fmt.Errorf("custom block %q: %w", c.Name, err)
		}
	}
	if b.encodeKey != nil {
		if err := h.SetEncodeKey(*b.encodeKey); err != nil {
			return err
		}
	}
	for i, item := range b.items {
		s, err := h.Item(i + 1)
		if err != nil {
			return err
		}
		if err := setItemSlot(s, item); err != nil {
			return err
		}
	}
	return nil
}

// CreateStaticItemBuilder returns a builder for static items. It is
// only valid after CreateFile.
func (b *Builder) CreateStaticItemBuilder() (*StaticItemBuilder, error) {
	if err := b.inStage(stageStatic, "CreateStaticItemBuilder"); err != nil {
		return nil, err
	}
	return NewStaticItemBuilder(), nil
}

// AddStaticItem writes a static item to the file and returns the
// item as stored, which can be used to rewrite its data later.
func (b *Builder) AddStaticItem(s *StaticItem) (*StaticItem, error) {
	if err := b.inStage(stageStatic, "AddStaticItem"); err != nil {
		return nil, err
	}
	if s.SpatialAxis == nil {
		return nil, fmt.Errorf("dfs: static item %q has no spatial axis", s.Name)
	}
	f := b.file
	slot, err := f.f.NewStaticItem()
	if err != nil {
		return nil, fmt.Errorf("dfs: adding static item %q: %w", s.Name, err)
	}
	if err = setItemSlot(slot, &s.ItemInfo); err != nil {
		slot.Destroy()
		return nil, err
	}
	if err = f.f.WriteStaticItem(slot, s.Data); err != nil {
		slot.Destroy()
		return nil, fmt.Errorf("dfs: writing static item %q: %w", s.Name, err)
	}
	out := &StaticItem{ItemInfo: s.ItemInfo, Data: s.Data, file: f, number: f.StaticItemCount()}
	out.ElementCount = s.SpatialAxis.SizeOfData()
	out.ItemNumber = 0
	return out, nil
}

// AddCreateStaticItem writes a static item holding data along a 1D
// axis with undefined unit.
func (b *Builder) AddCreateStaticItem(name string, q eum.Quantity, data Data) (*StaticItem, error) {
	if err := b.inStage(stageStatic, "AddCreateStaticItem"); err != nil {
		return nil, err
	}
	if data == nil || data.Len() == 0 {
		return nil, fmt.Errorf("%w: static item %q has no data", ErrSize, name)
	}
	a, err := NewEqD1Axis(eum.UnitUndefined, data.Len(), 0, 1)
	if err != nil {
		return nil, err
	}
	return b.AddStaticItem(&StaticItem{
		ItemInfo: ItemInfo{Name: name, Quantity: q, DataType: data.DataType(), SpatialAxis: a},
		Data:     data,
	})
}

// GetFile ends the static item region and returns the file. The
// builder cannot be used afterwards.
func (b *Builder) GetFile() (*File, error) {
	if err := b.inStage(stageStatic, "GetFile"); err != nil {
		return nil, err
	}
	f := b.file
	if err := f.f.WriteDynamicBlockMarker(); err != nil {
		return nil, fmt.Errorf("dfs: ending static items of %s: %w", f.path, err)
	}
	b.file = nil
	b.stage = stageDone
	return f, nil
}
