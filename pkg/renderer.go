package pkg

import (
	"fmt"
	"image"
	"image/color"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/examples/resources/fonts"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
)

const (
	StatusBarDelay  = 60
	statusBarHeight = 28
)

var (
	mplusNormalFont text.Face
	mplusBigFont    text.Face
)

type statusBarMsg struct {
	msg   string
	delay int
}

// Renderer runs a Scene inside the Ebitengine game loop.
type Renderer struct {
	cfg            Config
	scene          *Scene
	timer          *Timer
	whiteImage     *ebiten.Image
	keys           []ebiten.Key
	paused         bool
	guiDebug       bool
	err            error // from the last Draw, returned by the next Update
	statusBarMsgs  []statusBarMsg
	statusBarDelay int
	statusBarMsg   string
}

func loadFonts() error {
	tt, err := opentype.Parse(fonts.MPlus1pRegular_ttf)
	if err != nil {
		return err
	}

	const dpi = 72

	normal, err := opentype.NewFace(tt, &opentype.FaceOptions{
		Size:    11,
		DPI:     dpi,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return err
	}

	big, err := opentype.NewFace(tt, &opentype.FaceOptions{
		Size:    16,
		DPI:     dpi,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return err
	}

	mplusNormalFont = text.NewGoXFace(normal)
	mplusBigFont = text.NewGoXFace(big)

	return nil
}

func (r *Renderer) Init(cfg Config) error {
	if mplusNormalFont == nil {
		if err := loadFonts(); err != nil {
			return err
		}
	}

	if r.whiteImage == nil {
		img := ebiten.NewImage(3, 3)
		img.Fill(color.White)
		r.whiteImage = img.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
	}

	scene, err := NewScene(cfg, r.whiteImage)
	if err != nil {
		return err
	}

	r.cfg = cfg
	r.scene = scene
	r.timer = NewTimer()
	r.err = nil
	r.statusBarMsgs = make([]statusBarMsg, 0)
	r.statusBarDelay = StatusBarDelay
	r.statusBarMsg = ""

	ebiten.SetTPS(cfg.TPS)

	log.Printf("%d instances, %d vertices each, %d draw calls, %d updated per tick",
		scene.Batch().Len(), scene.Mesh().VertexCount(), scene.Batch().ChunkCount(), scene.DirtyCount())

	return nil
}

func (r *Renderer) reloadConfig() error {
	cfg, err := LoadConfig(ResourceDir())
	if err != nil {
		return err
	}

	if err := r.Init(cfg); err != nil {
		return err
	}

	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(cfg.ScreenWidth, cfg.ScreenHeight)

	return nil
}

func (r *Renderer) pushStatus(msg string, delay int) {
	r.statusBarMsgs = append(r.statusBarMsgs, statusBarMsg{msg, delay})
}

func (r *Renderer) Update() error {
	if r.err != nil {
		return r.err
	}

	r.timer.Tick()
	if r.cfg.LogEvery > 0 && r.timer.Ticks()%uint64(r.cfg.LogEvery) == 0 {
		log.Printf("Delta frame time: %v", r.timer.Delta())
		log.Printf("Average FPS: %.2f", r.timer.FPS())
	}

	r.keys = inpututil.AppendPressedKeys(r.keys[:0])

	for _, p := range r.keys {
		if !inpututil.IsKeyJustPressed(p) {
			continue
		}

		switch p {
		case ebiten.KeySpace:
			r.paused = !r.paused
			if r.paused {
				r.pushStatus("Rotation paused", 21)
			} else {
				r.pushStatus("Rotation resumed", 21)
			}
		case ebiten.KeyL:
			if err := r.reloadConfig(); err != nil {
				r.pushStatus(err.Error(), 120)
			} else {
				r.pushStatus("Config reloaded...", StatusBarDelay)
			}
		case ebiten.KeyR:
			if err := r.Init(r.cfg); err != nil {
				r.pushStatus(err.Error(), 120)
			} else {
				r.pushStatus("Scene rebuilt...", StatusBarDelay)
			}
		case ebiten.KeyD:
			r.guiDebug = !r.guiDebug
		case ebiten.KeyF:
			ebiten.SetFullscreen(!ebiten.IsFullscreen())
		}
	}

	if !r.paused {
		r.scene.Update(r.timer.DeltaMillis())
	}

	return nil
}

func (r *Renderer) drawStatusBar(screen *ebiten.Image) {
	if r.statusBarMsg != "" {
		h := float32(r.cfg.ScreenHeight)
		vector.DrawFilledRect(screen, 0, h-statusBarHeight, float32(r.cfg.ScreenWidth), statusBarHeight, color.RGBA{48, 48, 48, 196}, false)

		op := &text.DrawOptions{}
		op.GeoM.Translate(6, float64(r.cfg.ScreenHeight-statusBarHeight+4))
		op.ColorScale.ScaleWithColor(color.White)
		text.Draw(screen, r.statusBarMsg, mplusBigFont, op)
	}

	if len(r.statusBarMsgs) > 0 && r.statusBarMsg == "" {
		curMsg := r.statusBarMsgs[0]
		r.statusBarMsg = curMsg.msg
		r.statusBarDelay = curMsg.delay
		r.statusBarMsgs = r.statusBarMsgs[1:]
	}

	if r.statusBarDelay > 0 {
		r.statusBarDelay -= 1
	} else {
		r.statusBarMsg = ""
		r.statusBarDelay = StatusBarDelay
	}
}

func (r *Renderer) drawDebug(screen *ebiten.Image) {
	vector.DrawFilledRect(screen, 0, 0, 140, 88, color.RGBA{96, 96, 96, 196}, false)

	ebitenutil.DebugPrint(screen, fmt.Sprintf("TPS: %0.2f\nFPS: %0.2f\nTick: %d\nInstances: %d\nUpdated: %d",
		ebiten.ActualTPS(), ebiten.ActualFPS(), r.timer.Ticks(), r.scene.Batch().Len(), r.scene.DirtyCount()))

	if r.paused {
		op := &text.DrawOptions{}
		op.GeoM.Translate(6, 72)
		op.ColorScale.ScaleWithColor(color.White)
		text.Draw(screen, "paused", mplusNormalFont, op)
	}
}

func (r *Renderer) Draw(screen *ebiten.Image) {
	if err := r.scene.Draw(screen); err != nil {
		r.err = err
		return
	}

	if r.guiDebug {
		r.drawDebug(screen)
	}

	r.drawStatusBar(screen)
}

func (r *Renderer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return r.cfg.ScreenWidth, r.cfg.ScreenHeight
}
