package pkg

import (
	"fmt"
	"image/color"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
)

// Target is what a batch draws into. *ebiten.Image implements it.
type Target interface {
	Fill(clr color.Color)
	DrawTriangles(vertices []ebiten.Vertex, indices []uint16, img *ebiten.Image, options *ebiten.DrawTrianglesOptions)
}

type MeshIdx int

// chunk is the uploaded form of a run of consecutive instances that fits in
// one DrawTriangles call.
type chunk struct {
	vertices []ebiten.Vertex
	indices  []uint16
}

// MeshBatch draws many instances of one mesh with as few DrawTriangles calls
// as the vertex limit allows. Instance params live on the host; Flush and
// FlushRange transform them into the buffers Draw submits.
type MeshBatch struct {
	mesh      *Mesh
	params    []DrawParam
	perChunk  int
	chunks    []chunk
	uploaded  int // number of instances present in chunks
	dirty     bool
	AntiAlias bool

	scratch []ebiten.Vertex
}

func NewMeshBatch(mesh *Mesh) (*MeshBatch, error) {
	if mesh == nil || len(mesh.vertices) == 0 {
		return nil, fmt.Errorf("mesh batch needs a non empty mesh")
	}
	if len(mesh.vertices) > MaxMeshVertices {
		return nil, fmt.Errorf("mesh has %d vertices, at most %d are supported", len(mesh.vertices), MaxMeshVertices)
	}

	return &MeshBatch{
		mesh:     mesh,
		perChunk: MaxMeshVertices / len(mesh.vertices),
	}, nil
}

func (b *MeshBatch) Len() int {
	return len(b.params)
}

// Add appends an instance. It is uploaded on the next Flush or Draw.
func (b *MeshBatch) Add(p DrawParam) MeshIdx {
	b.params = append(b.params, p)
	b.dirty = true

	return MeshIdx(len(b.params) - 1)
}

func (b *MeshBatch) Set(idx MeshIdx, p DrawParam) error {
	if idx < 0 || int(idx) >= len(b.params) {
		return fmt.Errorf("instance %d is out of range [0, %d)", idx, len(b.params))
	}

	b.params[idx] = p
	b.dirty = true

	return nil
}

// Clear removes every instance.
func (b *MeshBatch) Clear() {
	b.params = b.params[:0]
	b.dirty = true
}

// Instances returns the live params. Edits are not visible until flushed.
func (b *MeshBatch) Instances() []DrawParam {
	return b.params
}

// ChunkCount is the number of DrawTriangles calls Draw issues.
func (b *MeshBatch) ChunkCount() int {
	return len(b.chunks)
}

// Flush uploads every instance.
func (b *MeshBatch) Flush() {
	nChunks := (len(b.params) + b.perChunk - 1) / b.perChunk
	if cap(b.chunks) < nChunks {
		chunks := make([]chunk, nChunks)
		copy(chunks, b.chunks)
		b.chunks = chunks
	}
	b.chunks = b.chunks[:nChunks]

	nv := len(b.mesh.vertices)
	ni := len(b.mesh.indices)

	for c := range b.chunks {
		count := min(b.perChunk, len(b.params)-c*b.perChunk)
		ch := &b.chunks[c]

		ch.vertices = resizeVertices(ch.vertices, count*nv)
		if len(ch.indices) != count*ni {
			ch.indices = ch.indices[:0]
			for i := 0; i < count; i++ {
				base := uint16(i * nv)
				for _, idx := range b.mesh.indices {
					ch.indices = append(ch.indices, base+idx)
				}
			}
		}
	}

	for i := range b.params {
		b.upload(i)
	}

	b.uploaded = len(b.params)
	b.dirty = false
}

// FlushRange uploads count instances starting at start. When instances were
// added since the last full flush the whole batch is uploaded instead.
func (b *MeshBatch) FlushRange(start MeshIdx, count int) error {
	end := int(start) + count
	if start < 0 || count < 0 || end > len(b.params) {
		return fmt.Errorf("flush range [%d, %d) is out of bounds [0, %d)", start, end, len(b.params))
	}

	if b.uploaded != len(b.params) {
		b.Flush()
		return nil
	}

	for i := int(start); i < end; i++ {
		b.upload(i)
	}

	return nil
}

func (b *MeshBatch) upload(i int) {
	nv := len(b.mesh.vertices)
	dst := b.chunks[i/b.perChunk].vertices[(i%b.perChunk)*nv:]
	transformVertices(dst, b.mesh.vertices, b.params[i])
}

// Draw submits the batch to target, transformed and tinted as a whole by p.
func (b *MeshBatch) Draw(target Target, p DrawParam) error {
	if _, ok := target.(*ebiten.Image); ok && b.mesh.src == nil {
		return fmt.Errorf("mesh has no source image")
	}

	if b.dirty {
		b.Flush()
	}

	op := &ebiten.DrawTrianglesOptions{
		ColorScaleMode: ebiten.ColorScaleModePremultipliedAlpha,
		AntiAlias:      b.AntiAlias,
	}

	identity := p.isIdentity()
	for _, ch := range b.chunks {
		vertices := ch.vertices
		if !identity {
			b.scratch = resizeVertices(b.scratch, len(ch.vertices))
			transformVertices(b.scratch, ch.vertices, p)
			vertices = b.scratch
		}
		target.DrawTriangles(vertices, ch.indices, b.mesh.src, op)
	}

	return nil
}

func resizeVertices(v []ebiten.Vertex, n int) []ebiten.Vertex {
	if cap(v) < n {
		return make([]ebiten.Vertex, n)
	}

	return v[:n]
}

// transformVertices writes src moved by p's position, rotation and scale into dst.
// Colors are multiplied by p.Color.
func transformVertices(dst, src []ebiten.Vertex, p DrawParam) {
	m := p.Matrix()
	cr, cg, cb, ca := p.Color.RGBA()
	r, g, bl, a := float32(cr)/0xffff, float32(cg)/0xffff, float32(cb)/0xffff, float32(ca)/0xffff

	for i, v := range src {
		pos := m.Mul3x1(mgl32.Vec3{v.DstX, v.DstY, 1})
		v.DstX = pos.X()
		v.DstY = pos.Y()
		v.ColorR *= r
		v.ColorG *= g
		v.ColorB *= bl
		v.ColorA *= a
		dst[i] = v
	}
}
