// Package asset loads the 3D note model.
//
// The model is a COLLADA document holding a node named BaseNode. A missing
// file is not an error: notes fall back to a sphere.
package asset

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/okian/notebeat/internal/adapters/scene"
)

// Model constants.
const (
	BaseNode     = "baseNode"
	SphereRadius = 100.0
	NoteScale    = 0.1
)

// Model describes the geometry notes are drawn with.
type Model struct {
	Path  string
	Shape scene.Shape
	// Geometry names the geometry bound to the base node, if any.
	Geometry string
	// HasMaterial is false when the base node has no geometry to color.
	HasMaterial bool
	Radius      float64
	Scale       float64
}

// Degraded reports whether the sphere fallback is in use.
func (m Model) Degraded() bool { return m.Shape == scene.ShapeSphere }

// Sphere returns the fallback model.
func Sphere() Model {
	return Model{
		Shape:       scene.ShapeSphere,
		HasMaterial: true,
		Radius:      SphereRadius,
		Scale:       NoteScale,
	}
}

// LoadModel reads the note model at path. An empty path or a missing file
// yields Sphere. A file that cannot be parsed or has no base node is an error.
func LoadModel(path string) (Model, error) {
	if path == "" {
		return Sphere(), nil
	}
	f, err := os.Open(path) //nolint:gosec // path comes from configuration
	if errors.Is(err, fs.ErrNotExist) {
		m := Sphere()
		m.Path = path
		return m, nil
	}
	if err != nil {
		return Model{}, fmt.Errorf("%w: %w", ErrInvalidModel, err)
	}
	defer func() { _ = f.Close() }()

	m, err := Parse(f)
	if err != nil {
		return Model{}, fmt.Errorf("%s: %w", path, err)
	}
	m.Path = path
	return m, nil
}

type collada struct {
	XMLName xml.Name      `xml:"COLLADA"`
	Scenes  []visualScene `xml:"library_visual_scenes>visual_scene"`
}

type visualScene struct {
	ID    string `xml:"id,attr"`
	Nodes []node `xml:"node"`
}

type node struct {
	ID       string             `xml:"id,attr"`
	Name     string             `xml:"name,attr"`
	Geometry []instanceGeometry `xml:"instance_geometry"`
	Children []node             `xml:"node"`
}

type instanceGeometry struct {
	URL string `xml:"url,attr"`
}

// Parse decodes a COLLADA document and finds the base node.
func Parse(r io.Reader) (Model, error) {
	var doc collada
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return Model{}, fmt.Errorf("%w: %w", ErrInvalidModel, err)
	}
	for _, vs := range doc.Scenes {
		if n, ok := find(vs.Nodes, BaseNode); ok {
			m := Model{Shape: scene.ShapeModel, Scale: NoteScale}
			if len(n.Geometry) > 0 {
				m.HasMaterial = true
				m.Geometry = n.Geometry[0].URL
			}
			return m, nil
		}
	}
	return Model{}, ErrNodeNotFound
}

// find searches depth first by name, then id.
func find(nodes []node, name string) (node, bool) {
	for _, n := range nodes {
		if n.Name == name || n.ID == name {
			return n, true
		}
		if c, ok := find(n.Children, name); ok {
			return c, true
		}
	}
	return node{}, false
}
