package pkg

import (
	"image/color"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type drawCall struct {
	vertices []ebiten.Vertex
	indices  []uint16
	options  ebiten.DrawTrianglesOptions
}

// recordingTarget stands in for the screen image.
type recordingTarget struct {
	ops   []string
	fills []color.Color
	draws []drawCall
}

func (r *recordingTarget) Fill(clr color.Color) {
	r.ops = append(r.ops, "fill")
	r.fills = append(r.fills, clr)
}

func (r *recordingTarget) DrawTriangles(vertices []ebiten.Vertex, indices []uint16, img *ebiten.Image, options *ebiten.DrawTrianglesOptions) {
	r.ops = append(r.ops, "triangles")
	r.draws = append(r.draws, drawCall{
		vertices: append([]ebiten.Vertex(nil), vertices...),
		indices:  append([]uint16(nil), indices...),
		options:  *options,
	})
}

func triangleMesh(t *testing.T) *Mesh {
	t.Helper()

	mesh, err := NewMeshBuilder().
		Polygon(Fill(), []mgl32.Vec2{{0, 0}, {4, 0}, {0, 4}}, color.White).
		Build(nil)
	require.NoError(t, err)

	return mesh
}

func at(x, y float32) DrawParam {
	p := DefaultDrawParam()
	p.Dest = mgl32.Vec2{x, y}
	return p
}

func expectedVertices(mesh *Mesh, p DrawParam) []ebiten.Vertex {
	out := make([]ebiten.Vertex, mesh.VertexCount())
	transformVertices(out, mesh.vertices, p)
	return out
}

func TestNewMeshBatch_Errors(t *testing.T) {
	_, err := NewMeshBatch(nil)
	assert.Error(t, err)

	_, err = NewMeshBatch(&Mesh{})
	assert.Error(t, err)

	_, err = NewMeshBatch(&Mesh{vertices: make([]ebiten.Vertex, MaxMeshVertices+1)})
	assert.Error(t, err)
}

func TestMeshBatch_AddSet(t *testing.T) {
	b, err := NewMeshBatch(triangleMesh(t))
	require.NoError(t, err)

	assert.Equal(t, MeshIdx(0), b.Add(at(1, 1)))
	assert.Equal(t, MeshIdx(1), b.Add(at(2, 2)))
	assert.Equal(t, 2, b.Len())

	require.NoError(t, b.Set(1, at(5, 5)))
	assert.Equal(t, mgl32.Vec2{5, 5}, b.Instances()[1].Dest)

	assert.Error(t, b.Set(2, at(0, 0)))
	assert.Error(t, b.Set(-1, at(0, 0)))

	b.Clear()
	assert.Zero(t, b.Len())
}

func TestMeshBatch_DrawFlushesAddedInstances(t *testing.T) {
	mesh := triangleMesh(t)
	b, err := NewMeshBatch(mesh)
	require.NoError(t, err)

	params := []DrawParam{at(10, 10), at(20, 10), at(30, 10)}
	for _, p := range params {
		b.Add(p)
	}

	target := &recordingTarget{}
	require.NoError(t, b.Draw(target, DefaultDrawParam()))

	require.Len(t, target.draws, 1)
	call := target.draws[0]
	nv := mesh.VertexCount()
	require.Len(t, call.vertices, 3*nv)
	require.Len(t, call.indices, 3*mesh.IndexCount())

	for i, p := range params {
		assert.Equal(t, expectedVertices(mesh, p), call.vertices[i*nv:(i+1)*nv])
	}
	for _, idx := range call.indices {
		assert.Less(t, int(idx), len(call.vertices))
	}
	assert.Equal(t, ebiten.ColorScaleModePremultipliedAlpha, call.options.ColorScaleMode)
}

func TestMeshBatch_FlushRangeOutOfBounds(t *testing.T) {
	b, err := NewMeshBatch(triangleMesh(t))
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		b.Add(at(float32(i), 0))
	}

	assert.NoError(t, b.FlushRange(0, 5))
	assert.NoError(t, b.FlushRange(5, 0))
	assert.Error(t, b.FlushRange(0, 6))
	assert.Error(t, b.FlushRange(4, 2))
	assert.Error(t, b.FlushRange(-1, 1))
	assert.Error(t, b.FlushRange(0, -1))
}

func TestMeshBatch_FlushRangeOnlyUploadsRange(t *testing.T) {
	mesh := triangleMesh(t)
	b, err := NewMeshBatch(mesh)
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		b.Add(at(float32(10*i), 0))
	}
	b.Flush()

	instances := b.Instances()
	instances[0].Rotation = 1
	instances[1].Rotation = 1
	instances[3].Rotation = 1

	require.NoError(t, b.FlushRange(0, 2))

	target := &recordingTarget{}
	require.NoError(t, b.Draw(target, DefaultDrawParam()))
	require.Len(t, target.draws, 1)

	nv := mesh.VertexCount()
	got := target.draws[0].vertices
	assert.Equal(t, expectedVertices(mesh, instances[0]), got[0:nv])
	assert.Equal(t, expectedVertices(mesh, instances[1]), got[nv:2*nv])
	assert.Equal(t, expectedVertices(mesh, at(20, 0)), got[2*nv:3*nv])
	// instance 3 changed on the host but was never flushed
	assert.Equal(t, expectedVertices(mesh, at(30, 0)), got[3*nv:4*nv])
}

func TestMeshBatch_FlushRangeAfterAddUploadsAll(t *testing.T) {
	mesh := triangleMesh(t)
	b, err := NewMeshBatch(mesh)
	require.NoError(t, err)
	b.Add(at(0, 0))
	b.Flush()
	b.Add(at(50, 50))

	require.NoError(t, b.FlushRange(0, 1))

	nv := mesh.VertexCount()
	assert.Equal(t, expectedVertices(mesh, at(50, 50)), b.chunks[0].vertices[nv:2*nv])
}

func TestMeshBatch_Chunks(t *testing.T) {
	mesh := triangleMesh(t)
	b, err := NewMeshBatch(mesh)
	require.NoError(t, err)

	perChunk := MaxMeshVertices / mesh.VertexCount()
	for i := 0; i < perChunk+1; i++ {
		b.Add(at(float32(i), 0))
	}
	b.Flush()
	assert.Equal(t, 2, b.ChunkCount())

	target := &recordingTarget{}
	require.NoError(t, b.Draw(target, DefaultDrawParam()))
	require.Len(t, target.draws, 2)

	assert.Len(t, target.draws[0].vertices, perChunk*mesh.VertexCount())
	assert.Len(t, target.draws[1].vertices, mesh.VertexCount())
	assert.Equal(t, expectedVertices(mesh, at(float32(perChunk), 0)), target.draws[1].vertices)

	for _, call := range target.draws {
		assert.LessOrEqual(t, len(call.vertices), MaxMeshVertices)
		for _, idx := range call.indices {
			require.Less(t, int(idx), len(call.vertices))
		}
	}

	// Shrinking drops the extra chunk.
	b.Clear()
	b.Add(at(0, 0))
	b.Flush()
	assert.Equal(t, 1, b.ChunkCount())
}

func TestMeshBatch_DrawWithParam(t *testing.T) {
	mesh := triangleMesh(t)
	b, err := NewMeshBatch(mesh)
	require.NoError(t, err)
	b.Add(at(10, 10))

	shifted := at(100, 0)
	shifted.Color = color.RGBA{0x80, 0x80, 0x80, 0xff}

	target := &recordingTarget{}
	require.NoError(t, b.Draw(target, shifted))
	require.NoError(t, b.Draw(target, DefaultDrawParam()))
	require.Len(t, target.draws, 2)

	moved, plain := target.draws[0].vertices, target.draws[1].vertices
	require.Len(t, moved, len(plain))
	for i := range plain {
		assert.InDelta(t, plain[i].DstX+100, moved[i].DstX, 1e-4)
		assert.InDelta(t, plain[i].DstY, moved[i].DstY, 1e-4)
		assert.InDelta(t, plain[i].ColorR*float32(0x8080)/0xffff, moved[i].ColorR, 1e-4)
	}

	// The uploaded buffers are not modified by the draw param.
	assert.Equal(t, expectedVertices(mesh, at(10, 10)), plain)
}

func TestMeshBatch_DrawEmpty(t *testing.T) {
	b, err := NewMeshBatch(triangleMesh(t))
	require.NoError(t, err)

	target := &recordingTarget{}
	require.NoError(t, b.Draw(target, DefaultDrawParam()))
	assert.Empty(t, target.draws)
}
