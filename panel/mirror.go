// Package panel provides the outputs a pcd8544.Dev can draw to.
//
// Mirror, Terminal and Window simulate the LCD on a host; Controller drives
// a real one from TinyGo firmware.
package panel

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/flavioheleno/pcd8544"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

var errNotConfigured = errors.New("panel: not configured")

// LCD colors used by Snapshot.
var (
	Backlight = color.RGBA{R: 0xc4, G: 0xd4, B: 0xb0, A: 0xff}
	Segment   = color.RGBA{R: 0x1c, G: 0x28, B: 0x1a, A: 0xff}
)

// Mirror is a pcd8544.Panel that keeps a copy of the controller state.
// It is safe for concurrent use.
type Mirror struct {
	mu sync.Mutex

	ram        *image1bit.VerticalLSB
	settings   pcd8544.Settings
	contrast   uint8
	inverse    bool
	configured bool
	halted     bool
	writes     int
	dirty      bool
}

var _ pcd8544.Panel = (*Mirror)(nil)

// NewMirror returns an unconfigured mirror with blank RAM.
func NewMirror() *Mirror {
	return &Mirror{
		ram: image1bit.NewVerticalLSB(image.Rect(0, 0, pcd8544.Width, pcd8544.Height)),
	}
}

// Configure implements pcd8544.Panel.
func (m *Mirror) Configure(s *pcd8544.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = *s
	m.contrast = s.Contrast()
	m.inverse = s.Inverse
	m.configured = true
	m.halted = false
	m.dirty = true
	return nil
}

// WriteRect implements pcd8544.Panel.
func (m *Mirror) WriteRect(r image.Rectangle, data []byte) error {
	if !r.In(m.ram.Rect) || r.Empty() {
		return fmt.Errorf("panel: rectangle %v outside the display", r)
	}
	if r.Min.Y%8 != 0 || r.Max.Y%8 != 0 {
		return fmt.Errorf("panel: rectangle %v not aligned to banks", r)
	}
	w := r.Dx()
	banks := r.Dy() / 8
	if len(data) != w*banks {
		return fmt.Errorf("panel: got %d bytes for %v, want %d", len(data), r, w*banks)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.configured {
		return errNotConfigured
	}
	for i := 0; i < banks; i++ {
		off := (r.Min.Y/8+i)*m.ram.Stride + r.Min.X
		copy(m.ram.Pix[off:off+w], data[i*w:(i+1)*w])
	}
	m.writes++
	m.dirty = true
	return nil
}

// SetContrast implements pcd8544.Panel.
func (m *Mirror) SetContrast(v uint8) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.configured {
		return errNotConfigured
	}
	if m.contrast != v {
		m.contrast = v
		m.dirty = true
	}
	return nil
}

// Invert implements pcd8544.Panel.
func (m *Mirror) Invert(on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.configured {
		return errNotConfigured
	}
	if m.inverse != on {
		m.inverse = on
		m.dirty = true
	}
	return nil
}

// Halt implements pcd8544.Panel.
func (m *Mirror) Halt() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.halted = true
	m.dirty = true
	return nil
}

// Settings returns the configuration passed to Configure.
func (m *Mirror) Settings() pcd8544.Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings
}

// RAM returns a copy of display RAM, bank by bank.
func (m *Mirror) RAM() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.ram.Pix...)
}

// Contrast returns the last contrast set.
func (m *Mirror) Contrast() uint8 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.contrast
}

// Inverse reports whether the panel is in inverse video.
func (m *Mirror) Inverse() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inverse
}

// Halted reports whether the panel was powered down.
func (m *Mirror) Halted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.halted
}

// Writes returns the number of WriteRect calls that succeeded.
func (m *Mirror) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// Dark reports whether the segment at (x, y) is visibly dark, taking inverse
// video and power down into account.
func (m *Mirror) Dark(x, y int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dark(x, y)
}

func (m *Mirror) dark(x, y int) bool {
	if m.halted {
		return false
	}
	return bool(m.ram.BitAt(x, y)) != m.inverse
}

// takeDirty reports whether anything changed since the last call.
func (m *Mirror) takeDirty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.dirty
	m.dirty = false
	return d
}

// Snapshot renders the panel as it would look: dark segments get darker as
// the contrast goes up.
func (m *Mirror) Snapshot() *image.RGBA {
	m.mu.Lock()
	defer m.mu.Unlock()

	img := image.NewRGBA(m.ram.Rect)
	ink := shade(m.contrast)
	for y := 0; y < pcd8544.Height; y++ {
		for x := 0; x < pcd8544.Width; x++ {
			c := Backlight
			if m.dark(x, y) {
				c = ink
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// shade blends Backlight into Segment by contrast/MaxContrast.
func shade(contrast uint8) color.RGBA {
	if contrast > pcd8544.MaxContrast {
		contrast = pcd8544.MaxContrast
	}
	mix := func(a, b uint8) uint8 {
		return uint8((int(a)*(pcd8544.MaxContrast-int(contrast)) + int(b)*int(contrast)) / pcd8544.MaxContrast)
	}
	return color.RGBA{
		R: mix(Backlight.R, Segment.R),
		G: mix(Backlight.G, Segment.G),
		B: mix(Backlight.B, Segment.B),
		A: 0xff,
	}
}
