package pkg

import (
	"image/color"
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"
)

const TwoPi = 2 * math.Pi

// DrawParam places one instance of a mesh.
type DrawParam struct {
	Dest     mgl32.Vec2
	Rotation float64 // radians
	Scale    mgl32.Vec2
	Offset   mgl32.Vec2 // origin of rotation and scale, in mesh coordinates
	Color    color.RGBA
}

func DefaultDrawParam() DrawParam {
	return DrawParam{
		Scale: mgl32.Vec2{1, 1},
		Color: color.RGBA{0xff, 0xff, 0xff, 0xff},
	}
}

// Matrix returns the homogeneous transform dest * rotation * scale * -offset.
func (p DrawParam) Matrix() mgl32.Mat3 {
	m := mgl32.Translate2D(p.Dest.X(), p.Dest.Y())
	if p.Rotation != 0 {
		m = m.Mul3(mgl32.HomogRotate2D(float32(p.Rotation)))
	}
	if p.Scale != (mgl32.Vec2{1, 1}) {
		m = m.Mul3(mgl32.Scale2D(p.Scale.X(), p.Scale.Y()))
	}
	if p.Offset != (mgl32.Vec2{}) {
		m = m.Mul3(mgl32.Translate2D(-p.Offset.X(), -p.Offset.Y()))
	}

	return m
}

func (p DrawParam) isIdentity() bool {
	return p.Dest == (mgl32.Vec2{}) && p.Rotation == 0 && p.Scale == (mgl32.Vec2{1, 1}) &&
		p.Offset == (mgl32.Vec2{}) && p.Color == (color.RGBA{0xff, 0xff, 0xff, 0xff})
}

// GenerateGrid returns one instance per grid cell (x*spacing, y*spacing) with
// 1 <= x < floor(width/spacing) and 1 <= y < floor(height/spacing), each with a
// random rotation in [0, 2π).
func GenerateGrid(width, height, spacing float64, rng *rand.Rand) []DrawParam {
	if spacing <= 0 {
		return nil
	}

	itemsX := int(width / spacing)
	itemsY := int(height / spacing)
	if itemsX < 2 || itemsY < 2 {
		return nil
	}

	params := make([]DrawParam, 0, (itemsX-1)*(itemsY-1))
	for x := 1; x < itemsX; x++ {
		for y := 1; y < itemsY; y++ {
			p := DefaultDrawParam()
			p.Dest = mgl32.Vec2{float32(float64(x) * spacing), float32(float64(y) * spacing)}
			p.Rotation = rng.Float64() * TwoPi
			params = append(params, p)
		}
	}

	return params
}

// ShuffleInstances permutes params in place so the front of the slice is
// spread over the whole grid.
func ShuffleInstances(params []DrawParam, rng *rand.Rand) {
	rng.Shuffle(len(params), func(i, j int) {
		params[i], params[j] = params[j], params[i]
	})
}

// DirtyPrefix clamps count to the number of instances.
func DirtyPrefix(count, n int) int {
	if count < 0 {
		return 0
	}
	if count > n {
		return n
	}

	return count
}

// UpdateRotations spins the first dirty instances: even indices forward, odd
// indices backward, revsPerSecond full turns per second. Only one wrap into
// [0, 2π) is applied, so a delta longer than one revolution leaves the value
// out of range.
func UpdateRotations(params []DrawParam, dirty int, deltaMs, revsPerSecond float64) {
	step := TwoPi * (deltaMs * revsPerSecond / 1000)

	for i := 0; i < DirtyPrefix(dirty, len(params)); i++ {
		rotation := &params[i].Rotation
		if i%2 == 0 {
			*rotation += step
			if *rotation >= TwoPi {
				*rotation -= TwoPi
			}
		} else {
			*rotation -= step
			if *rotation < 0 {
				*rotation += TwoPi
			}
		}
	}
}
