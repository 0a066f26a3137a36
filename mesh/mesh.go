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

// Package mesh reads and writes mesh files, the text format used for
// 2D unstructured meshes of triangles and quadrilaterals.
//
// A mesh file starts with a header line. Files written since 2012 use
// four fields, the item type and unit of the node z values, the node
// count and the projection:
//
//	100079  1000  5  LONG/LAT
//
// Older files leave out the item type and unit, which are then
// bathymetry in meters:
//
//	5  LONG/LAT
//
// One line per node follows (id, x, y, z, boundary code), then a line
// with the element count, the largest number of nodes per element and
// an element type code, then one line per element with its id and
// node ids. A node id of zero pads elements with fewer nodes.
package mesh

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spatialmodel/dfs/dfsu"
	"github.com/spatialmodel/dfs/eum"
)

// File is the content of a mesh file. Elements list node indices
// counting from 1.
type File struct {
	Quantity   eum.Quantity
	Projection string

	NodeIDs []int
	X, Y, Z []float64
	Codes   []int

	ElementIDs []int
	Elements   [][]int
}

// headerFields splits line into n whitespace separated fields and the
// rest of the line.
func headerFields(line string, n int) ([]string, string, bool) {
	rest := strings.TrimSpace(line)
	f := make([]string, n)
	for i := range f {
		j := strings.IndexAny(rest, " \t")
		if j < 0 {
			return nil, "", false
		}
		f[i], rest = rest[:j], strings.TrimSpace(rest[j:])
	}
	return f, rest, rest != ""
}

func atoi(fields []string) ([]int, bool) {
	v := make([]int, len(fields))
	for i, s := range fields {
		var err error
		if v[i], err = strconv.Atoi(s); err != nil {
			return nil, false
		}
	}
	return v, true
}

// parseHeader reads the 2012 header and falls back to the 2011 one.
func parseHeader(line string) (q eum.Quantity, nodes int, projection string, err error) {
	if f, rest, ok := headerFields(line, 3); ok {
		if v, ok := atoi(f); ok {
			return eum.NewQuantity(eum.ItemType(v[0]), eum.Unit(v[1])), v[2], rest, nil
		}
	}
	if f, rest, ok := headerFields(line, 1); ok {
		if v, ok := atoi(f); ok {
			return eum.NewQuantity(eum.Bathymetry, eum.Meter), v[0], rest, nil
		}
	}
	return q, 0, "", fmt.Errorf("mesh: invalid header line %q", strings.TrimSpace(line))
}

type tokens struct {
	s   *bufio.Scanner
	err error
}

func (t *tokens) next(what string) string {
	if t.err != nil {
		return ""
	}
	if !t.s.Scan() {
		if t.err = t.s.Err(); t.err == nil {
			t.err = fmt.Errorf("mesh: unexpected end of file reading %s", what)
		}
		return ""
	}
	return t.s.Text()
}

func (t *tokens) int(what string) int {
	s := t.next(what)
	if t.err != nil {
		return 0
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		t.err = fmt.Errorf("mesh: reading %s: %w", what, err)
	}
	return v
}

func (t *tokens) float(what string) float64 {
	s := t.next(what)
	if t.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		t.err = fmt.Errorf("mesh: reading %s: %w", what, err)
	}
	return v
}

// Read reads a mesh file.
func Read(r io.Reader) (*File, error) {
	br := bufio.NewReader(r)
	line, err := br.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return nil, fmt.Errorf("mesh: reading header: %w", err)
	}
	q, n, projection, err := parseHeader(line)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("mesh: invalid node count %d", n)
	}
	m := &File{
		Quantity:   q,
		Projection: projection,
		NodeIDs:    make([]int, n),
		X:          make([]float64, n),
		Y:          make([]float64, n),
		Z:          make([]float64, n),
		Codes:      make([]int, n),
	}
	s := bufio.NewScanner(br)
	s.Split(bufio.ScanWords)
	t := &tokens{s: s}
	for i := 0; i < n && t.err == nil; i++ {
		what := fmt.Sprintf("node %d", i+1)
		m.NodeIDs[i] = t.int(what)
		m.X[i] = t.float(what)
		m.Y[i] = t.float(what)
		m.Z[i] = t.float(what)
		m.Codes[i] = t.int(what)
	}
	ne := t.int("element header")
	maxNodes := t.int("element header")
	t.int("element header")
	if t.err != nil {
		return nil, t.err
	}
	if ne < 0 || maxNodes < 1 {
		return nil, fmt.Errorf("mesh: invalid element header (%d elements, %d nodes per element)", ne, maxNodes)
	}
	index := make(map[int]int, n)
	for i, id := range m.NodeIDs {
		index[id] = i + 1
	}
	m.ElementIDs = make([]int, ne)
	m.Elements = make([][]int, ne)
	for i := 0; i < ne && t.err == nil; i++ {
		what := fmt.Sprintf("element %d", i+1)
		m.ElementIDs[i] = t.int(what)
		e := make([]int, 0, maxNodes)
		for j := 0; j < maxNodes; j++ {
			id := t.int(what)
			if id == 0 {
				continue
			}
			k, ok := index[id]
			if !ok && t.err == nil {
				t.err = fmt.Errorf("mesh: element %d refers to unknown node %d", m.ElementIDs[i], id)
			}
			e = append(e, k)
		}
		m.Elements[i] = e
	}
	if t.err != nil {
		return nil, t.err
	}
	return m, nil
}

// ReadFile reads the mesh file at path.
func ReadFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mesh: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// MaxNodesPerElement returns the number of nodes of the largest
// element.
func (m *File) MaxNodesPerElement() int {
	max := 0
	for _, e := range m.Elements {
		if len(e) > max {
			max = len(e)
		}
	}
	return max
}

// Write writes the mesh in the 2012 format.
func (m *File) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	ff := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	fmt.Fprintf(bw, "%d  %d  %d  %s\n", int(m.Quantity.Item), int(m.Quantity.Unit), len(m.X), m.Projection)
	for i := range m.X {
		fmt.Fprintf(bw, "%d %s %s %s %d\n", m.nodeID(i), ff(m.X[i]), ff(m.Y[i]), ff(m.Z[i]), m.Codes[i])
	}
	maxNodes := m.MaxNodesPerElement()
	elementType := dfsu.Triangle
	if maxNodes > 3 {
		elementType = dfsu.Quadrilateral
	}
	fmt.Fprintf(bw, "%d %d %d\n", len(m.Elements), maxNodes, elementType)
	for i, e := range m.Elements {
		id := i + 1
		if m.ElementIDs != nil {
			id = m.ElementIDs[i]
		}
		fmt.Fprintf(bw, "%d", id)
		for j := 0; j < maxNodes; j++ {
			n := 0
			if j < len(e) {
				n = m.nodeID(e[j] - 1)
			}
			fmt.Fprintf(bw, " %d", n)
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func (m *File) nodeID(i int) int {
	if m.NodeIDs != nil {
		return m.NodeIDs[i]
	}
	return i + 1
}

// WriteFile writes the mesh to path.
func (m *File) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("mesh: %w", err)
	}
	if err := m.Write(f); err != nil {
		f.Close()
		return fmt.Errorf("mesh: writing %s: %w", path, err)
	}
	return f.Close()
}
