package main

import (
	"log"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/mircot/meshbatch/pkg"
)

func main() {
	cfg, err := pkg.LoadConfig(pkg.ResourceDir())
	if err != nil {
		log.Fatal(err)
	}

	r := &pkg.Renderer{}
	if err := r.Init(cfg); err != nil {
		log.Fatal(err)
	}

	ebiten.SetWindowSize(cfg.ScreenWidth, cfg.ScreenHeight)
	ebiten.SetWindowTitle(cfg.Title)

	if err := ebiten.RunGame(r); err != nil {
		log.Fatal(err)
	}
}
