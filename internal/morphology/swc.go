// Package morphology parses neuron morphologies in SWC format and measures
// their neurites.
package morphology

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/goki/mat32"
	"github.com/nvandessel/dendsyn/internal/constants"
)

// Point is a sample point of a morphology.
type Point struct {
	ID     int
	Type   constants.NeuriteType
	Pos    mat32.Vec3
	Radius float32

	// Parent is the index of the parent point in Morphology.Points, or -1 for a root.
	Parent int
}

// Morphology is a neuron morphology as a tree of sample points.
type Morphology struct {
	Name   string
	Points []Point
}

// ParseSWC reads an SWC file: one point per line as
// "id type x y z radius parent", '#' comments and blank lines ignored.
// Parents must be listed before their children.
func ParseSWC(name string, r io.Reader) (*Morphology, error) {
	m := &Morphology{Name: name}
	index := make(map[int]int)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 7 {
			return nil, fmt.Errorf("%s:%d: expected 7 fields, got %d", name, lineNo, len(fields))
		}

		p, parentID, err := parsePoint(fields)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", name, lineNo, err)
		}
		if _, dup := index[p.ID]; dup {
			return nil, fmt.Errorf("%s:%d: duplicate point id %d", name, lineNo, p.ID)
		}

		p.Parent = -1
		if parentID >= 0 {
			parent, ok := index[parentID]
			if !ok {
				return nil, fmt.Errorf("%s:%d: point %d references unknown parent %d", name, lineNo, p.ID, parentID)
			}
			p.Parent = parent
		}

		index[p.ID] = len(m.Points)
		m.Points = append(m.Points, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if len(m.Points) == 0 {
		return nil, fmt.Errorf("%s: no points", name)
	}

	return m, nil
}

func parsePoint(fields []string) (Point, int, error) {
	var p Point

	id, err := strconv.Atoi(fields[0])
	if err != nil {
		return p, 0, fmt.Errorf("invalid id %q", fields[0])
	}
	typ, err := strconv.Atoi(fields[1])
	if err != nil {
		return p, 0, fmt.Errorf("invalid type %q", fields[1])
	}

	var coords [4]float32
	for i := range coords {
		v, err := strconv.ParseFloat(fields[2+i], 32)
		if err != nil {
			return p, 0, fmt.Errorf("invalid coordinate %q", fields[2+i])
		}
		coords[i] = float32(v)
	}

	parent, err := strconv.Atoi(fields[6])
	if err != nil {
		return p, 0, fmt.Errorf("invalid parent %q", fields[6])
	}

	p.ID = id
	p.Type = constants.NeuriteType(typ)
	p.Pos = mat32.Vec3{X: coords[0], Y: coords[1], Z: coords[2]}
	p.Radius = coords[3]
	return p, parent, nil
}

// TotalLength sums the lengths of the segments of the given neurite types.
// A segment belongs to a neurite when its distal point has one of the types
// and its proximal point is not part of the soma: the connection from the
// soma to the first neurite point is not neurite length.
func (m *Morphology) TotalLength(types ...constants.NeuriteType) float64 {
	want := make(map[constants.NeuriteType]bool, len(types))
	for _, t := range types {
		want[t] = true
	}

	var total float64
	for _, p := range m.Points {
		if p.Parent < 0 || !want[p.Type] {
			continue
		}
		parent := m.Points[p.Parent]
		if parent.Type == constants.NeuriteSoma {
			continue
		}
		total += float64(p.Pos.DistTo(parent.Pos))
	}
	return total
}

// DendriteLength returns the total basal plus apical dendrite length.
func (m *Morphology) DendriteLength() float64 {
	return m.TotalLength(constants.DendriteTypes...)
}

// Stats summarises a morphology's neurite lengths.
type Stats struct {
	NumPoints    int
	BasalLength  float64
	ApicalLength float64
	AxonLength   float64
}

// DendriteLength returns the basal plus apical length.
func (s Stats) DendriteLength() float64 {
	return s.BasalLength + s.ApicalLength
}

// Stats measures the morphology.
func (m *Morphology) Stats() Stats {
	return Stats{
		NumPoints:    len(m.Points),
		BasalLength:  m.TotalLength(constants.NeuriteBasalDendrite),
		ApicalLength: m.TotalLength(constants.NeuriteApicalDendrite),
		AxonLength:   m.TotalLength(constants.NeuriteAxon),
	}
}
