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
	"math"
	"time"

	"github.com/spatialmodel/dfs/eum"
	"github.com/spatialmodel/dfs/engine"
)

// TemporalAxisType identifies the variant of a temporal axis.
type TemporalAxisType = engine.TimeAxisType

// TemporalAxis describes the time steps of a file. An axis that
// belongs to an open file writes every change through to the file
// header.
type TemporalAxis interface {
	TimeAxisType() TemporalAxisType
	TimeUnit() eum.Unit
	SetTimeUnit(u eum.Unit) error
	StartTimeOffset() float64
	SetStartTimeOffset(offset float64) error
	FirstTimeStepIndex() int
	SetFirstTimeStepIndex(i int) error
	NumberOfTimeSteps() int

	// IncrementNumberOfTimeSteps records that a time step ending at
	// time has been completed. It does not update the file header,
	// which counts time steps itself.
	IncrementNumberOfTimeSteps(time float64)

	base() *temporalBase
	timeDef() engine.TimeAxisDef
}

type temporalBase struct {
	unit   eum.Unit
	offset float64
	first  int
	nsteps int

	// notify pushes the axis into the file header.
	notify func() error
}

func (b *temporalBase) base() *temporalBase { return b }

// TimeUnit returns the unit of time values.
func (b *temporalBase) TimeUnit() eum.Unit { return b.unit }

// StartTimeOffset returns the time of the first time step.
func (b *temporalBase) StartTimeOffset() float64 { return b.offset }

// FirstTimeStepIndex returns the index of the first time step.
func (b *temporalBase) FirstTimeStepIndex() int { return b.first }

// NumberOfTimeSteps returns the number of complete time steps.
func (b *temporalBase) NumberOfTimeSteps() int { return b.nsteps }

func (b *temporalBase) changed() error {
	if b.notify == nil {
		return nil
	}
	return b.notify()
}

// commit pushes a change to the file header and calls undo when the
// header rejects it, so that the axis keeps matching the header.
func (b *temporalBase) commit(undo func()) error {
	if err := b.changed(); err != nil {
		undo()
		return err
	}
	return nil
}

// SetTimeUnit sets the unit of time values.
func (b *temporalBase) SetTimeUnit(u eum.Unit) error {
	old := b.unit
	b.unit = u
	return b.commit(func() { b.unit = old })
}

// SetStartTimeOffset sets the time of the first time step.
func (b *temporalBase) SetStartTimeOffset(offset float64) error {
	old := b.offset
	b.offset = offset
	return b.commit(func() { b.offset = old })
}

// SetFirstTimeStepIndex sets the index of the first time step.
func (b *temporalBase) SetFirstTimeStepIndex(i int) error {
	old := b.first
	b.first = i
	return b.commit(func() { b.first = old })
}

func (b *temporalBase) def(t engine.TimeAxisType) engine.TimeAxisDef {
	return engine.TimeAxisDef{
		Type:               t,
		Unit:               int(b.unit),
		StartTimeOffset:    b.offset,
		NumberOfTimeSteps:  b.nsteps,
		FirstTimeStepIndex: b.first,
	}
}

// TimeEquidistantAxis has equally spaced time steps measured from an
// arbitrary origin.
type TimeEquidistantAxis struct {
	temporalBase
	step float64
}

// NewTimeEquidistantAxis returns a relative equidistant axis.
func NewTimeEquidistantAxis(u eum.Unit, startOffset, step float64) *TimeEquidistantAxis {
	return &TimeEquidistantAxis{temporalBase: temporalBase{unit: u, offset: startOffset}, step: step}
}

func (a *TimeEquidistantAxis) TimeAxisType() TemporalAxisType { return engine.TimeEquidistant }

// TimeStep returns the time between steps.
func (a *TimeEquidistantAxis) TimeStep() float64 { return a.step }

// SetTimeStep sets the time between steps.
func (a *TimeEquidistantAxis) SetTimeStep(step float64) error {
	old := a.step
	a.step = step
	return a.commit(func() { a.step = old })
}

// TimeOf returns the time of time step i.
func (a *TimeEquidistantAxis) TimeOf(i int) float64 { return a.offset + float64(i)*a.step }

func (a *TimeEquidistantAxis) IncrementNumberOfTimeSteps(float64) { a.nsteps++ }

func (a *TimeEquidistantAxis) timeDef() engine.TimeAxisDef {
	d := a.def(engine.TimeEquidistant)
	d.TimeStep = a.step
	return d
}

// TimeNonEquidistantAxis has time steps at arbitrary times.
type TimeNonEquidistantAxis struct {
	temporalBase
	span float64
}

// NewTimeNonEquidistantAxis returns a relative non-equidistant axis.
func NewTimeNonEquidistantAxis(u eum.Unit, startOffset float64) *TimeNonEquidistantAxis {
	return &TimeNonEquidistantAxis{temporalBase: temporalBase{unit: u, offset: startOffset}}
}

func (a *TimeNonEquidistantAxis) TimeAxisType() TemporalAxisType { return engine.TimeNonEquidistant }

// TimeSpan returns the time from the start offset to the last
// completed time step.
func (a *TimeNonEquidistantAxis) TimeSpan() float64 { return a.span }

func (a *TimeNonEquidistantAxis) IncrementNumberOfTimeSteps(t float64) {
	a.nsteps++
	a.span = t - a.offset
}

func (a *TimeNonEquidistantAxis) timeDef() engine.TimeAxisDef {
	return a.def(engine.TimeNonEquidistant)
}

type calendarBase struct {
	start time.Time
}

// StartDateTime returns the calendar time that time values are
// relative to.
func (c *calendarBase) StartDateTime() time.Time { return c.start }

// dateTime converts a time value in unit u to a calendar time.
func (c *calendarBase) dateTime(u eum.Unit, t float64) (time.Time, error) {
	f, _, err := eum.SIFactor(u)
	if err != nil {
		return time.Time{}, err
	}
	d := time.Duration(math.Round(t * f * float64(time.Second)))
	return c.start.Add(d), nil
}

// CalendarEquidistantAxis has equally spaced time steps starting at a
// calendar date.
type CalendarEquidistantAxis struct {
	temporalBase
	calendarBase
	step float64
}

// NewCalendarEquidistantAxis returns a calendar equidistant axis.
func NewCalendarEquidistantAxis(u eum.Unit, start time.Time, step float64) *CalendarEquidistantAxis {
	return &CalendarEquidistantAxis{temporalBase: temporalBase{unit: u},
		calendarBase: calendarBase{start: start}, step: step}
}

func (a *CalendarEquidistantAxis) TimeAxisType() TemporalAxisType { return engine.CalendarEquidistant }

// SetStartDateTime sets the calendar start of the axis.
func (a *CalendarEquidistantAxis) SetStartDateTime(t time.Time) error {
	old := a.start
	a.start = t
	return a.commit(func() { a.start = old })
}

// TimeStep returns the time between steps.
func (a *CalendarEquidistantAxis) TimeStep() float64 { return a.step }

// SetTimeStep sets the time between steps.
func (a *CalendarEquidistantAxis) SetTimeStep(step float64) error {
	old := a.step
	a.step = step
	return a.commit(func() { a.step = old })
}

// TimeOf returns the time of time step i relative to the start date.
func (a *CalendarEquidistantAxis) TimeOf(i int) float64 { return a.offset + float64(i)*a.step }

// DateTimeAt returns the calendar time of time step i.
func (a *CalendarEquidistantAxis) DateTimeAt(i int) (time.Time, error) {
	return a.dateTime(a.unit, a.TimeOf(i))
}

func (a *CalendarEquidistantAxis) IncrementNumberOfTimeSteps(float64) { a.nsteps++ }

func (a *CalendarEquidistantAxis) timeDef() engine.TimeAxisDef {
	d := a.def(engine.CalendarEquidistant)
	d.TimeStep = a.step
	d.StartDateTime = a.start.Format(engine.DateTimeLayout)
	return d
}

// CalendarNonEquidistantAxis has time steps at arbitrary times after
// a calendar date.
type CalendarNonEquidistantAxis struct {
	temporalBase
	calendarBase
	span float64
}

// NewCalendarNonEquidistantAxis returns a calendar non-equidistant axis.
func NewCalendarNonEquidistantAxis(u eum.Unit, start time.Time) *CalendarNonEquidistantAxis {
	return &CalendarNonEquidistantAxis{temporalBase: temporalBase{unit: u},
		calendarBase: calendarBase{start: start}}
}

func (a *CalendarNonEquidistantAxis) TimeAxisType() TemporalAxisType {
	return engine.CalendarNonEquidistant
}

// SetStartDateTime sets the calendar start of the axis.
func (a *CalendarNonEquidistantAxis) SetStartDateTime(t time.Time) error {
	old := a.start
	a.start = t
	return a.commit(func() { a.start = old })
}

// TimeSpan returns the time from the start offset to the last
// completed time step.
func (a *CalendarNonEquidistantAxis) TimeSpan() float64 { return a.span }

// DateTime returns the calendar time of time value t.
func (a *CalendarNonEquidistantAxis) DateTime(t float64) (time.Time, error) {
	return a.dateTime(a.unit, t)
}

func (a *CalendarNonEquidistantAxis) IncrementNumberOfTimeSteps(t float64) {
	a.nsteps++
	a.span = t - a.offset
}

func (a *CalendarNonEquidistantAxis) timeDef() engine.TimeAxisDef {
	d := a.def(engine.CalendarNonEquidistant)
	d.StartDateTime = a.start.Format(engine.DateTimeLayout)
	return d
}

// equidistantTime returns the time of step i for equidistant axes.
func equidistantTime(a TemporalAxis, i int) (float64, bool) {
	switch v := a.(type) {
	case *TimeEquidistantAxis:
		return v.TimeOf(i), true
	case *CalendarEquidistantAxis:
		return v.TimeOf(i), true
	}
	return 0, false
}

// temporalFromDef rebuilds a temporal axis from its header record.
func temporalFromDef(d engine.TimeAxisDef) (TemporalAxis, error) {
	var a TemporalAxis
	u := eum.Unit(d.Unit)
	switch d.Type {
	case engine.TimeEquidistant:
		a = NewTimeEquidistantAxis(u, d.StartTimeOffset, d.TimeStep)
	case engine.TimeNonEquidistant:
		a = NewTimeNonEquidistantAxis(u, d.StartTimeOffset)
	case engine.CalendarEquidistant, engine.CalendarNonEquidistant:
		start, err := time.Parse(engine.DateTimeLayout, d.StartDateTime)
		if err != nil {
			return nil, fmt.Errorf("dfs: temporal axis start date: %w", err)
		}
		if d.Type == engine.CalendarEquidistant {
			a = NewCalendarEquidistantAxis(u, start, d.TimeStep)
		} else {
			a = NewCalendarNonEquidistantAxis(u, start)
		}
	default:
		return nil, fmt.Errorf("dfs: unsupported temporal axis type %d", int(d.Type))
	}
	b := a.base()
	b.offset = d.StartTimeOffset
	b.first = d.FirstTimeStepIndex
	b.nsteps = d.NumberOfTimeSteps
	return a, nil
}
