package pkg

import (
	"fmt"
	"image/color"
	"math/rand"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
)

type Phase int

const (
	IDLE Phase = iota
	UPDATING
)

var (
	ClearColor  = color.RGBA{0, 0, 0, 0xff}
	circleColor = color.RGBA{0, 0, 0xff, 0xff}
	lineColor   = color.RGBA{0xff, 0xff, 0, 0xff}
)

// Scene owns the instanced batch. Every tick it spins the first
// DirtyPrefixCount instances and re-uploads only those before drawing.
type Scene struct {
	cfg   Config
	mesh  *Mesh
	batch *MeshBatch
	phase Phase
}

// BuildMesh returns the instanced shape: a stroked circle with a line from
// its center to the rim.
func BuildMesh(src *ebiten.Image) (*Mesh, error) {
	return NewMeshBuilder().
		Circle(Stroke(4), mgl32.Vec2{0, 0}, 8, circleColor).
		Line([]mgl32.Vec2{{0, 0}, {8, 0}}, 2, lineColor).
		Build(src)
}

// NewScene fills a cfg.ScreenWidth x cfg.ScreenHeight area with instances.
// src is the texture the mesh samples.
func NewScene(cfg Config, src *ebiten.Image) (*Scene, error) {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return NewSceneWithRand(cfg, src, rand.New(rand.NewSource(seed)))
}

func NewSceneWithRand(cfg Config, src *ebiten.Image, rng *rand.Rand) (*Scene, error) {
	mesh, err := BuildMesh(src)
	if err != nil {
		return nil, fmt.Errorf("building mesh: %w", err)
	}

	batch, err := NewMeshBatch(mesh)
	if err != nil {
		return nil, err
	}
	batch.AntiAlias = cfg.AntiAlias

	params := GenerateGrid(float64(cfg.ScreenWidth), float64(cfg.ScreenHeight), cfg.CellSpacing, rng)

	// The first instances get updated each tick; shuffle so they are not all in one corner.
	ShuffleInstances(params, rng)

	for _, p := range params {
		batch.Add(p)
	}
	batch.Flush()

	return &Scene{
		cfg:   cfg,
		mesh:  mesh,
		batch: batch,
	}, nil
}

func (s *Scene) Batch() *MeshBatch {
	return s.batch
}

func (s *Scene) Mesh() *Mesh {
	return s.mesh
}

func (s *Scene) Phase() Phase {
	return s.phase
}

// DirtyCount is the number of instances touched each tick.
func (s *Scene) DirtyCount() int {
	return DirtyPrefix(s.cfg.DirtyPrefixCount, s.batch.Len())
}

func (s *Scene) Update(deltaMs float64) {
	s.phase = UPDATING
	UpdateRotations(s.batch.Instances(), s.cfg.DirtyPrefixCount, deltaMs, s.cfg.RevolutionsPerSecond)
	s.phase = IDLE
}

// Draw clears target, uploads the updated prefix and draws the whole batch.
func (s *Scene) Draw(target Target) error {
	target.Fill(ClearColor)

	if err := s.batch.FlushRange(0, s.DirtyCount()); err != nil {
		return err
	}

	return s.batch.Draw(target, DefaultDrawParam())
}
