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
along with InMAP.  If not, see <http://www.gnu.org/licenses/>.*/


package dfsutil

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/dfs"
	"github.com/spatialmodel/dfs/cartography"
	"github.com/spatialmodel/dfs/dfsu"
	"github.com/spatialmodel/dfs/eum"
	"github.com/spatialmodel/dfs/mesh"
)

// MeshToDfsu converts the mesh file at path to a 2D dfsu file at out
// with one time step at start, an RFC 3339 date and time.
func MeshToDfsu(path, out, start string) error {
	t, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return fmt.Errorf("dfsutil: invalid StartTime: %v", err)
	}
	m, err := mesh.ReadFile(path)
	if err != nil {
		return err
	}
	if err := m.WriteDfsu(out, t); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"file": out, "nodes": len(m.X), "elements": len(m.Elements)}).Info("converted mesh")
	return nil
}

// readGeometry reads the geometry and projection of a mesh file or,
// for any other extension, a dfsu file.
func readGeometry(path string) (*dfsu.Geometry, string, error) {
	if strings.EqualFold(filepath.Ext(path), ".mesh") {
		m, err := mesh.ReadFile(path)
		if err != nil {
			return nil, "", err
		}
		return m.Geometry(), m.Projection, nil
	}
	f, err := dfsu.Open(path, dfs.Read)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	return f.Geometry, f.FileInfo().Projection.WKT, nil
}

// Shapefile writes the elements of the mesh or dfsu file at path as
// polygons to the shapefile out. If projection is not empty, node
// coordinates are converted to it.
func Shapefile(path, out, projection string) error {
	g, from, err := readGeometry(path)
	if err != nil {
		return err
	}
	if projection != "" && projection != from {
		d, err := cartography.NewDatumShift(from, projection)
		if err != nil {
			return err
		}
		x := make([]float64, len(g.X))
		y := make([]float64, len(g.Y))
		for i := range g.X {
			if x[i], y[i], err = d.Convert(g.X[i], g.Y[i]); err != nil {
				return fmt.Errorf("dfsutil: converting node %d: %v", i+1, err)
			}
		}
		g.X, g.Y = x, y
		from = projection
	}
	if _, err := cartography.WKT(from); err != nil {
		logrus.WithField("projection", from).Warn("projection has no WKT form; not writing a .prj file")
		from = ""
	}
	if err := dfsu.WriteShapefile(g, out, from); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"file": out, "elements": g.NumberOfElements()}).Info("wrote shapefile")
	return nil
}

// ConvertUnits converts value from the unit abbreviated from to the
// unit abbreviated to.
func ConvertUnits(value, from, to string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("dfsutil: invalid value %q", value)
	}
	fu, err := eum.UnitFromAbbreviation(from)
	if err != nil {
		return 0, err
	}
	tu, err := eum.UnitFromAbbreviation(to)
	if err != nil {
		return 0, err
	}
	return eum.ConvertUnit(fu, v, tu)
}

// Project converts a longitude and latitude to model coordinates in
// projection, or with inverse set, model coordinates to longitude and
// latitude. origin holds the longitude and latitude of the model
// origin and, optionally, its orientation.
func Project(xs, ys, projection string, origin []float64, inverse bool) (float64, float64, error) {
	x, err := strconv.ParseFloat(xs, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("dfsutil: invalid coordinate %q", xs)
	}
	y, err := strconv.ParseFloat(ys, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("dfsutil: invalid coordinate %q", ys)
	}
	if len(origin) < 2 || len(origin) > 3 {
		return 0, 0, fmt.Errorf("dfsutil: Origin needs 2 or 3 values but has %d", len(origin))
	}
	var orientation float64
	if len(origin) == 3 {
		orientation = origin[2]
	}
	c, err := cartography.New(projection, origin[0], origin[1], orientation)
	if err != nil {
		return 0, 0, err
	}
	if inverse {
		return c.Xy2Geo(x, y)
	}
	return c.Geo2Xy(x, y)
}
