//go:build !tinygo && cgo

package panel

import (
	"context"

	"github.com/flavioheleno/pcd8544"
	"github.com/flavioheleno/pcd8544/internal/buildinfo"
	"github.com/hajimehoshi/ebiten/v2"
)

// Window is a Mirror shown in a desktop window.
type Window struct {
	*Mirror

	scale int
}

// NewWindow returns a Window that enlarges each pixel to scale×scale.
func NewWindow(scale int) *Window {
	if scale < 1 {
		scale = 1
	}
	return &Window{Mirror: NewMirror(), scale: scale}
}

// Run opens the window and blocks until it is closed or ctx is done. It
// must be called from the main goroutine.
func (w *Window) Run(ctx context.Context) error {
	ebiten.SetWindowTitle("pcd8544 (" + buildinfo.Short() + ")")
	ebiten.SetWindowSize(pcd8544.Width*w.scale, pcd8544.Height*w.scale)
	ebiten.SetTPS(30)

	g := &lcdGame{ctx: ctx, w: w}
	return ebiten.RunGame(g)
}

type lcdGame struct {
	ctx context.Context
	w   *Window
	img *ebiten.Image
}

func (g *lcdGame) Update() error {
	if g.ctx.Err() != nil {
		return ebiten.Termination
	}
	return nil
}

func (g *lcdGame) Draw(screen *ebiten.Image) {
	if g.img == nil {
		g.img = ebiten.NewImage(pcd8544.Width, pcd8544.Height)
	}
	g.img.WritePixels(g.w.Snapshot().Pix)
	screen.DrawImage(g.img, nil)
}

func (g *lcdGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return pcd8544.Width, pcd8544.Height
}
