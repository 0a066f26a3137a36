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

package engine

import (
	"errors"
	"fmt"
)

// Status is a status code returned by an engine operation.
type Status int

// Status codes.
const (
	Ok Status = iota
	EndOfFile
	MallocFailed
	ReadFailed
	WriteFailed
	OpenFailed
	CloseFailed
	FlushFailed
	SeekFailed
	ItemOutOfRange
	IndexOutOfRange
	TypeMismatch
	DateTimeFormat
	CorruptTag
	ReadOnly
	CorruptAxis
	EUMMismatch
	PluginError
	CorruptHeader
	FileNotFound
)

var statusMessages = map[Status]string{
	Ok:              "no error",
	EndOfFile:       "end of file",
	MallocFailed:    "memory allocation failed",
	ReadFailed:      "read failed",
	WriteFailed:     "write failed",
	OpenFailed:      "open failed",
	CloseFailed:     "close failed",
	FlushFailed:     "flush failed",
	SeekFailed:      "seek failed",
	ItemOutOfRange:  "item number out of range",
	IndexOutOfRange: "index out of range",
	TypeMismatch:    "data type mismatch",
	DateTimeFormat:  "corrupt date/time format",
	CorruptTag:      "corrupt tag",
	ReadOnly:        "file is opened read-only",
	CorruptAxis:     "corrupt axis definition",
	EUMMismatch:     "EUM type/unit mismatch",
	PluginError:     "plugin error",
	CorruptHeader:   "corrupt header",
	FileNotFound:    "file not found",
}

func (s Status) String() string {
	if m, ok := statusMessages[s]; ok {
		return m
	}
	return fmt.Sprintf("unknown engine error code %d", int(s))
}

// StatusError is an error carrying an engine status code.
type StatusError struct {
	Status Status
	Op     string
	Err    error
}

// NewError returns a *StatusError for the given operation.
func NewError(s Status, op string, err error) *StatusError {
	return &StatusError{Status: s, Op: op, Err: err}
}

func (e *StatusError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("engine: %s: %s: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("engine: %s: %s", e.Op, e.Status)
}

func (e *StatusError) Unwrap() error { return e.Err }

// StatusOf returns the status code carried by err, Ok for a nil error
// and PluginError for errors that did not come from an engine.
func StatusOf(err error) Status {
	if err == nil {
		return Ok
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return PluginError
}

// IsEOF reports whether err signals that there is no more data.
func IsEOF(err error) bool { return StatusOf(err) == EndOfFile }
