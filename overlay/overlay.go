// Package overlay loads vector lines, such as coastlines, and serves them in
// the coordinates of the map's current projection.
package overlay

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/OpticalFlyer/basemaps/proj"
)

// Source holds lines in longitude/latitude and their projected forms
type Source struct {
	lines orb.MultiLineString

	mu        sync.Mutex
	projected map[string]orb.MultiLineString
}

// NewSource creates a source from lines in longitude/latitude
func NewSource(lines orb.MultiLineString) *Source {
	return &Source{
		lines:     lines,
		projected: make(map[string]orb.MultiLineString),
	}
}

// Load reads a shapefile or a GeoJSON feature collection depending on the
// file extension
func Load(path string) (*Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		return LoadShapefile(path)
	case ".geojson", ".json":
		return LoadGeoJSON(path)
	default:
		return nil, fmt.Errorf("unsupported overlay file %s", path)
	}
}

// LoadShapefile reads the polyline and polygon records of a shapefile
func LoadShapefile(path string) (*Source, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening shapefile %s: %w", path, err)
	}
	defer r.Close()

	var lines orb.MultiLineString
	for r.Next() {
		_, shape := r.Shape()
		switch s := shape.(type) {
		case *shp.PolyLine:
			lines = append(lines, splitParts(s.Parts, s.Points)...)
		case *shp.Polygon:
			lines = append(lines, splitParts(s.Parts, s.Points)...)
		}
	}
	return NewSource(lines), nil
}

// splitParts cuts the flat point list of a shape into one line per part
func splitParts(parts []int32, points []shp.Point) orb.MultiLineString {
	var out orb.MultiLineString
	for i, start := range parts {
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || end > int32(len(points)) || end-start < 2 {
			continue
		}
		ls := make(orb.LineString, 0, end-start)
		for _, p := range points[start:end] {
			ls = append(ls, orb.Point{p.X, p.Y})
		}
		out = append(out, ls)
	}
	return out
}

// LoadGeoJSON reads the line and polygon geometries of a feature collection
func LoadGeoJSON(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	var lines orb.MultiLineString
	for _, f := range fc.Features {
		lines = append(lines, linesOf(f.Geometry)...)
	}
	return NewSource(lines), nil
}

func linesOf(g orb.Geometry) orb.MultiLineString {
	switch g := g.(type) {
	case orb.LineString:
		return orb.MultiLineString{g}
	case orb.MultiLineString:
		return g
	case orb.Ring:
		return orb.MultiLineString{orb.LineString(g)}
	case orb.Polygon:
		out := make(orb.MultiLineString, 0, len(g))
		for _, ring := range g {
			out = append(out, orb.LineString(ring))
		}
		return out
	case orb.MultiPolygon:
		var out orb.MultiLineString
		for _, p := range g {
			out = append(out, linesOf(p)...)
		}
		return out
	case orb.Collection:
		var out orb.MultiLineString
		for _, c := range g {
			out = append(out, linesOf(c)...)
		}
		return out
	}
	return nil
}

// Len returns the number of lines in the source
func (s *Source) Len() int {
	return len(s.lines)
}

// Bound returns the longitude/latitude bound of all lines
func (s *Source) Bound() orb.Bound {
	return s.lines.Bound()
}

// Lines returns the lines in the coordinates of the projection identified
// by code. Points the projection cannot represent break the line they are on.
func (s *Source) Lines(code string) (orb.MultiLineString, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if lines, ok := s.projected[code]; ok {
		return lines, nil
	}

	p, err := proj.ForCode(code)
	if err != nil {
		return nil, err
	}

	var out orb.MultiLineString
	for _, ls := range s.lines {
		var current orb.LineString
		for _, pt := range ls {
			x, y, ok := p.FromLonLat(pt.Lon(), pt.Lat())
			if !ok {
				if len(current) >= 2 {
					out = append(out, current)
				}
				current = nil
				continue
			}
			current = append(current, orb.Point{x, y})
		}
		if len(current) >= 2 {
			out = append(out, current)
		}
	}

	s.projected[code] = out
	return out, nil
}
