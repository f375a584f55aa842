package pkg

import (
	"fmt"
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// MaxMeshVertices is the most vertices a single DrawTriangles call can index.
const MaxMeshVertices = math.MaxUint16

type DrawMode struct {
	Stroke bool
	Width  float32
}

func Fill() DrawMode {
	return DrawMode{}
}

func Stroke(width float32) DrawMode {
	return DrawMode{Stroke: true, Width: width}
}

// Mesh is an immutable set of triangles in local coordinates.
type Mesh struct {
	vertices []ebiten.Vertex
	indices  []uint16
	src      *ebiten.Image
}

func (m *Mesh) VertexCount() int {
	return len(m.vertices)
}

func (m *Mesh) IndexCount() int {
	return len(m.indices)
}

// Vertices returns a copy of the mesh vertices.
func (m *Mesh) Vertices() []ebiten.Vertex {
	return append([]ebiten.Vertex(nil), m.vertices...)
}

// Source is the texture sampled by the mesh; normally a white 1x1 sub image.
func (m *Mesh) Source() *ebiten.Image {
	return m.src
}

// MeshBuilder accumulates shapes. The first error sticks and is reported by Build.
type MeshBuilder struct {
	vertices []ebiten.Vertex
	indices  []uint16
	err      error
}

func NewMeshBuilder() *MeshBuilder {
	return &MeshBuilder{}
}

// Circle adds a circle centered on center. Filled circles are tesselated as a convex fan.
func (b *MeshBuilder) Circle(mode DrawMode, center mgl32.Vec2, radius float32, clr color.Color) *MeshBuilder {
	if b.err != nil {
		return b
	}
	if radius <= 0 {
		b.err = fmt.Errorf("%v is not a valid circle radius", radius)
		return b
	}

	var path vector.Path
	path.Arc(center.X(), center.Y(), radius, 0, TwoPi, vector.Clockwise)
	path.Close()

	return b.appendPath(&path, mode, clr)
}

// Line adds an open polyline through points.
func (b *MeshBuilder) Line(points []mgl32.Vec2, width float32, clr color.Color) *MeshBuilder {
	if b.err != nil {
		return b
	}
	if len(points) < 2 {
		b.err = fmt.Errorf("a line needs at least 2 points, got %d", len(points))
		return b
	}

	var path vector.Path
	path.MoveTo(points[0].X(), points[0].Y())
	for _, p := range points[1:] {
		path.LineTo(p.X(), p.Y())
	}

	return b.appendPath(&path, Stroke(width), clr)
}

// Polygon adds a closed polygon. Filled polygons must be convex.
func (b *MeshBuilder) Polygon(mode DrawMode, points []mgl32.Vec2, clr color.Color) *MeshBuilder {
	if b.err != nil {
		return b
	}
	if len(points) < 3 {
		b.err = fmt.Errorf("a polygon needs at least 3 points, got %d", len(points))
		return b
	}

	var path vector.Path
	path.MoveTo(points[0].X(), points[0].Y())
	for _, p := range points[1:] {
		path.LineTo(p.X(), p.Y())
	}
	path.Close()

	return b.appendPath(&path, mode, clr)
}

func (b *MeshBuilder) appendPath(path *vector.Path, mode DrawMode, clr color.Color) *MeshBuilder {
	first := len(b.vertices)

	if mode.Stroke {
		if mode.Width <= 0 {
			b.err = fmt.Errorf("%v is not a valid stroke width", mode.Width)
			return b
		}
		b.vertices, b.indices = path.AppendVerticesAndIndicesForStroke(b.vertices, b.indices, &vector.StrokeOptions{
			Width:      mode.Width,
			LineJoin:   vector.LineJoinMiter,
			LineCap:    vector.LineCapButt,
			MiterLimit: 4,
		})
	} else {
		b.vertices, b.indices = path.AppendVerticesAndIndicesForFilling(b.vertices, b.indices)
	}

	if len(b.vertices) > MaxMeshVertices {
		b.err = fmt.Errorf("mesh has %d vertices, at most %d are supported", len(b.vertices), MaxMeshVertices)
		return b
	}

	// Vertex colors are premultiplied, which is what color.Color.RGBA returns.
	cr, cg, cb, ca := clr.RGBA()
	for i := first; i < len(b.vertices); i++ {
		v := &b.vertices[i]
		v.SrcX = 1
		v.SrcY = 1
		v.ColorR = float32(cr) / 0xffff
		v.ColorG = float32(cg) / 0xffff
		v.ColorB = float32(cb) / 0xffff
		v.ColorA = float32(ca) / 0xffff
	}

	return b
}

// Build returns the mesh sampling src. src may be nil when the mesh is never drawn to a real image.
func (b *MeshBuilder) Build(src *ebiten.Image) (*Mesh, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.vertices) == 0 || len(b.indices) == 0 {
		return nil, fmt.Errorf("mesh is empty")
	}

	return &Mesh{
		vertices: append([]ebiten.Vertex(nil), b.vertices...),
		indices:  append([]uint16(nil), b.indices...),
		src:      src,
	}, nil
}
