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

// Package cartography converts between geographic coordinates, the
// coordinates of a map projection and the local xy coordinates of a
// model grid placed in that projection.
//
// The local xy system has its origin at a given geographic point and
// its y axis rotated by the orientation angle, in degrees clockwise,
// from projection north.
package cartography

import (
	"fmt"
	"math"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
)

// LongLat is the projection string of files in geographic
// coordinates.
const LongLat = "LONG/LAT"

// WGS84WKT is the WKT of WGS84 geographic coordinates.
const WGS84WKT = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137,298.257223563]],PRIMEM["Greenwich",0],UNIT["Degree",0.017453292519943295]]`

const geographic = "+proj=longlat +ellps=WGS84 +datum=WGS84 +units=degrees"

// Parse returns the spatial reference of a projection string, which
// may be LongLat, a WKT string or a proj4 string.
func Parse(projection string) (*proj.SR, error) {
	p := strings.TrimSpace(projection)
	if strings.EqualFold(p, LongLat) {
		p = geographic
	}
	sr, err := proj.Parse(p)
	if err != nil {
		return nil, fmt.Errorf("cartography: %w", err)
	}
	return sr, nil
}

// WKT returns the WKT form of a projection string. Proj4 strings have
// no WKT form.
func WKT(projection string) (string, error) {
	p := strings.TrimSpace(projection)
	if strings.EqualFold(p, LongLat) {
		return WGS84WKT, nil
	}
	for _, w := range []string{"GEOGCS", "PROJCS", "GEOCCS", "LOCAL_CS"} {
		if strings.HasPrefix(p, w) {
			return p, nil
		}
	}
	return "", fmt.Errorf("cartography: projection %q is not WKT", projection)
}

// Cartography holds a projection and the placement of a model grid in
// it.
type Cartography struct {
	projection              string
	lon0, lat0, orientation float64
	x0, y0                  float64
	sin, cos                float64
	forward, inverse        proj.Transformer
}

// New returns the cartography of a grid with its origin at (lon0,
// lat0) and its y axis rotated orientation degrees clockwise from
// projection north.
func New(projection string, lon0, lat0, orientation float64) (*Cartography, error) {
	sr, err := Parse(projection)
	if err != nil {
		return nil, err
	}
	geo, err := proj.Parse(geographic)
	if err != nil {
		return nil, fmt.Errorf("cartography: %w", err)
	}
	c := &Cartography{
		projection:  projection,
		lon0:        lon0,
		lat0:        lat0,
		orientation: orientation,
	}
	if c.forward, err = geo.NewTransform(sr); err != nil {
		return nil, fmt.Errorf("cartography: %w", err)
	}
	if c.inverse, err = sr.NewTransform(geo); err != nil {
		return nil, fmt.Errorf("cartography: %w", err)
	}
	if c.x0, c.y0, err = c.Geo2Proj(lon0, lat0); err != nil {
		return nil, fmt.Errorf("cartography: projecting origin: %w", err)
	}
	r := orientation * math.Pi / 180
	c.sin, c.cos = math.Sin(r), math.Cos(r)
	return c, nil
}

// Projection returns the projection string.
func (c *Cartography) Projection() string { return c.projection }

// Origin returns the geographic origin of the grid.
func (c *Cartography) Origin() (lon, lat float64) { return c.lon0, c.lat0 }

// Orientation returns the grid rotation in degrees.
func (c *Cartography) Orientation() float64 { return c.orientation }

// Geo2Proj converts geographic coordinates to projection coordinates.
func (c *Cartography) Geo2Proj(lon, lat float64) (x, y float64, err error) {
	return c.forward(lon, lat)
}

// Proj2Geo converts projection coordinates to geographic coordinates.
func (c *Cartography) Proj2Geo(x, y float64) (lon, lat float64, err error) {
	return c.inverse(x, y)
}

// Proj2Xy converts projection coordinates to grid coordinates.
func (c *Cartography) Proj2Xy(px, py float64) (x, y float64) {
	dx, dy := px-c.x0, py-c.y0
	return dx*c.cos - dy*c.sin, dx*c.sin + dy*c.cos
}

// Xy2Proj converts grid coordinates to projection coordinates.
func (c *Cartography) Xy2Proj(x, y float64) (px, py float64) {
	return c.x0 + x*c.cos + y*c.sin, c.y0 - x*c.sin + y*c.cos
}

// Geo2Xy converts geographic coordinates to grid coordinates.
func (c *Cartography) Geo2Xy(lon, lat float64) (x, y float64, err error) {
	px, py, err := c.Geo2Proj(lon, lat)
	if err != nil {
		return 0, 0, err
	}
	x, y = c.Proj2Xy(px, py)
	return x, y, nil
}

// Xy2Geo converts grid coordinates to geographic coordinates.
func (c *Cartography) Xy2Geo(x, y float64) (lon, lat float64, err error) {
	return c.Proj2Geo(c.Xy2Proj(x, y))
}

// Convergence returns the angle in degrees, clockwise, from projection
// north to true north at a geographic point.
func (c *Cartography) Convergence(lon, lat float64) (float64, error) {
	const d = 1e-5
	lat1, lat2 := lat-d, lat+d
	if lat2 > 90 {
		lat1, lat2 = lat-2*d, lat
	}
	x1, y1, err := c.Geo2Proj(lon, lat1)
	if err != nil {
		return 0, err
	}
	x2, y2, err := c.Geo2Proj(lon, lat2)
	if err != nil {
		return 0, err
	}
	return math.Atan2(x2-x1, y2-y1) * 180 / math.Pi, nil
}

// TrueNorth returns the angle in degrees, clockwise, from the grid y
// axis to true north at grid point (x, y).
func (c *Cartography) TrueNorth(x, y float64) (float64, error) {
	lon, lat, err := c.Xy2Geo(x, y)
	if err != nil {
		return 0, err
	}
	conv, err := c.Convergence(lon, lat)
	if err != nil {
		return 0, err
	}
	return conv - c.orientation, nil
}

// TransformGeom converts a geometry in geographic coordinates to
// projection coordinates.
func (c *Cartography) TransformGeom(g geom.Geom) (geom.Geom, error) {
	return g.Transform(c.forward)
}

// DatumShift converts coordinates between two spatial references,
// including any change of datum.
type DatumShift struct {
	t proj.Transformer
}

// NewDatumShift returns a conversion from projection from to
// projection to.
func NewDatumShift(from, to string) (*DatumShift, error) {
	src, err := Parse(from)
	if err != nil {
		return nil, err
	}
	dst, err := Parse(to)
	if err != nil {
		return nil, err
	}
	t, err := src.NewTransform(dst)
	if err != nil {
		return nil, fmt.Errorf("cartography: %w", err)
	}
	return &DatumShift{t: t}, nil
}

// Convert converts one point.
func (d *DatumShift) Convert(x, y float64) (float64, float64, error) {
	return d.t(x, y)
}
