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

// Package dfs reads and writes files of the DFS family (dfs0, dfs1,
// dfs2, dfs3 and, through package dfsu, unstructured mesh files).
//
// A DFS file holds a header, a list of static items and a stream of
// dynamic item time steps stored in round-robin order: item 1 at time
// step 0, item 2 at time step 0, ..., item N at time step 0, item 1 at
// time step 1 and so on. Files are stored by an engine.Engine, which
// must be installed with Init before files are opened or built.
package dfs

import (
	"errors"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/dfs/engine"
)

// Log receives debug messages about file operations. It may be
// replaced by the calling application.
var Log logrus.FieldLogger = logrus.StandardLogger()

// Errors returned by the package. Returned errors wrap one of these
// with context about the item and time step involved.
var (
	ErrInvalidOperation = errors.New("dfs: invalid operation")
	ErrOrdering         = errors.New("dfs: time steps must be appended in item order")
	ErrTypeMismatch     = errors.New("dfs: data type does not match item")
	ErrSize             = errors.New("dfs: data size does not match item")
	ErrOutOfRange       = errors.New("dfs: index out of range")
	ErrNotInitialized   = errors.New("dfs: no engine installed; call dfs.Init first")
	ErrClosed           = errors.New("dfs: file is closed")
)

// ValidationError holds every problem found by a Validate call.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "dfs: validation failed:\n" + strings.Join(e.Problems, "\n")
}

var (
	engineMu      sync.Mutex
	defaultEngine engine.Engine
)

// Init installs the engine used by Open and by builders created
// without an explicit engine. It must be called once, before any file
// is opened.
func Init(e engine.Engine) error {
	if e == nil {
		return errors.New("dfs: Init called with a nil engine")
	}
	engineMu.Lock()
	defer engineMu.Unlock()
	if defaultEngine != nil {
		return errors.New("dfs: engine already initialized")
	}
	defaultEngine = e
	return nil
}

// Shutdown removes the installed engine. Files that are still open
// keep working.
func Shutdown() {
	engineMu.Lock()
	defaultEngine = nil
	engineMu.Unlock()
}

// DefaultEngine returns the engine installed by Init.
func DefaultEngine() (engine.Engine, error) {
	engineMu.Lock()
	defer engineMu.Unlock()
	if defaultEngine == nil {
		return nil, ErrNotInitialized
	}
	return defaultEngine, nil
}

// Element data types and containers.
type (
	DataType   = engine.DataType
	Data       = engine.Data
	FloatData  = engine.FloatData
	DoubleData = engine.DoubleData
	ByteData   = engine.ByteData
	IntData    = engine.IntData
	UIntData   = engine.UIntData
	ShortData  = engine.ShortData
	UShortData = engine.UShortData
)

// Element data types.
const (
	Float  = engine.Float
	Double = engine.Double
	Byte   = engine.Byte
	Int    = engine.Int
	UInt   = engine.UInt
	Short  = engine.Short
	UShort = engine.UShort
)

// Header records shared with the engine.
type (
	FileType     = engine.FileType
	StatType     = engine.StatType
	Projection   = engine.Projection
	DeleteValues = engine.DeleteValues
	CustomBlock  = engine.CustomBlock
	EncodeKey    = engine.EncodeKey
	Mode         = engine.Mode
)

// Access modes.
const (
	Read   = engine.Read
	Edit   = engine.Edit
	Append = engine.Append
)

// NewProjection returns a defined projection.
func NewProjection(wkt string, longitude, latitude, orientation float64) Projection {
	return Projection{
		Type:        engine.ProjectionDefined,
		WKT:         wkt,
		Longitude:   longitude,
		Latitude:    latitude,
		Orientation: orientation,
	}
}
