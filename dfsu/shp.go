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

package dfsu

import (
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"

	"github.com/ctessum/geom/encoding/shp"
	goshp "github.com/jonas-p/go-shp"
	"github.com/spatialmodel/dfs/cartography"
)

// WriteShapefile writes the outline of every element of g to a
// polygon shapefile, with the element id, type code, node count and
// mean node depth as attributes. A .prj file is written next to it
// unless projection is empty.
func WriteShapefile(g *Geometry, path, projection string) error {
	types, err := g.ElementTypes()
	if err != nil {
		return err
	}
	ids := g.ElementIDs
	if ids == nil {
		ids = sequence(g.NumberOfElements())
	}
	e, err := shp.NewEncoderFromFields(path, goshp.POLYGON,
		goshp.NumberField("ElementID", 10),
		goshp.NumberField("Type", 4),
		goshp.NumberField("Nodes", 4),
		goshp.FloatField("Z", 16, 6),
	)
	if err != nil {
		return fmt.Errorf("dfsu: creating shapefile: %w", err)
	}
	_, z := g.ElementCenters()
	for i, p := range g.ElementPolygons() {
		if err := e.EncodeFields(p, ids[i], types[i], len(g.Elements[i]), z[i]); err != nil {
			e.Close()
			return fmt.Errorf("dfsu: writing element %d to shapefile: %w", i+1, err)
		}
	}
	e.Close()
	if projection == "" {
		return nil
	}
	wkt, err := cartography.WKT(projection)
	if err != nil {
		return fmt.Errorf("dfsu: writing shapefile projection: %w", err)
	}
	prj := strings.TrimSuffix(path, filepath.Ext(path)) + ".prj"
	return ioutil.WriteFile(prj, []byte(wkt), 0644)
}
