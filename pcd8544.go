// Package pcd8544 drives an 84x48 PCD8544 LCD (Nokia 5110/3310) through an
// in-memory frame.
//
// See the examples for how to use this package.
package pcd8544

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/flavioheleno/pcd8544/font5x7"
	"periph.io/x/conn/v3/display"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
)

const (
	// Width and Height of the panel in pixels.
	Width  = 84
	Height = 48

	// Banks is the number of 8-pixel rows in display RAM.
	Banks = Height / 8

	// FrameSize is the size of a full frame: one byte per column per bank.
	FrameSize = Width * Banks

	// MaxContrast is the largest value accepted by SetContrast.
	MaxContrast = 0x3F
)

var errHalted = errors.New("pcd8544: halted")

// Ink is the color of a dark (set) segment. Any color that converts to
// image1bit.On draws ink; everything else clears the pixel.
var Ink = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

// Panel is the output stage of a Dev. Implementations forward frame data to
// a real controller, a simulator window or a test recorder.
type Panel interface {
	// Configure prepares the panel once, before any frame data is sent.
	Configure(s *Settings) error
	// WriteRect updates the pixels in r. r is aligned to banks: Min.Y and
	// Max.Y are multiples of 8. data holds r.Dx() bytes per bank, top bank
	// first, in display RAM format (bit 0 is the top pixel).
	WriteRect(r image.Rectangle, data []byte) error
	// SetContrast sets the operating voltage (0 to MaxContrast).
	SetContrast(v uint8) error
	// Invert switches between normal and inverse video.
	Invert(on bool) error
	// Halt powers the panel down.
	Halt() error
}

// Dev is the device handle for the PCD8544 display.
type Dev struct {
	p        Panel
	settings Settings

	rect image.Rectangle

	// Pixel buffers
	buffer []byte                 // Last frame sent to the panel
	next   *image1bit.VerticalLSB // Frame being drawn

	// Text cursor, in pixels (x) and banks (bank)
	x, bank int

	contrast uint8
	inverse  bool
	halted   bool
}

var (
	_ display.Drawer    = (*Dev)(nil)
	_ drivers.Displayer = (*Dev)(nil)
)

// NewDev configures p with s and returns a blank display.
//
// s is copied; later changes to it have no effect.
func NewDev(p Panel, s *Settings) (*Dev, error) {
	if s == nil {
		def := DefaultSettings()
		s = &def
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	d := &Dev{
		p:        p,
		settings: *s,
		rect:     image.Rect(0, 0, Width, Height),
		buffer:   make([]byte, FrameSize),
		next:     image1bit.NewVerticalLSB(image.Rect(0, 0, Width, Height)),
		contrast: s.Contrast(),
	}

	if err := d.init(); err != nil {
		return nil, err
	}
	return d, nil
}

// init configures the panel and clears display RAM.
func (d *Dev) init() error {
	if err := d.p.Configure(&d.settings); err != nil {
		return fmt.Errorf("pcd8544: configure panel: %w", err)
	}
	if err := d.writeFullFrame(d.buffer); err != nil {
		return err
	}
	if d.settings.Inverse {
		return d.Invert(true)
	}
	return nil
}

// Settings returns the configuration the device was created with.
func (d *Dev) Settings() Settings {
	return d.settings
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds implements display.Drawer.
func (d *Dev) Bounds() image.Rectangle {
	return d.rect
}

// Write writes a raw frame in display RAM format.
// The data must be exactly FrameSize bytes.
func (d *Dev) Write(pixels []byte) (int, error) {
	if d.halted {
		return 0, errHalted
	}
	if len(pixels) != FrameSize {
		return 0, errors.New("pcd8544: invalid buffer size")
	}
	if err := d.writeFullFrame(pixels); err != nil {
		return 0, err
	}
	return len(pixels), nil
}

// Draw draws an image onto the display, sending only the changed region.
func (d *Dev) Draw(dst image.Rectangle, src image.Image, sp image.Point) error {
	if d.halted {
		return errHalted
	}

	dst = dst.Intersect(d.rect)
	if dst.Empty() {
		return nil
	}

	// Fast path: a full frame already in display RAM format.
	if srcImg, ok := src.(*image1bit.VerticalLSB); ok {
		if dst == d.rect && sp == (image.Point{}) && srcImg.Rect == d.rect && srcImg.Stride == Width {
			return d.writeFullFrame(srcImg.Pix)
		}
	}

	draw.Draw(d.next, dst, src, sp, draw.Src)
	return d.flush()
}

// Image draws a full-screen bitmap in display RAM format (FrameSize bytes,
// bank by bank). The cursor returns to the top-left corner.
func (d *Dev) Image(bitmap []byte) error {
	if d.halted {
		return errHalted
	}
	if len(bitmap) != FrameSize {
		return fmt.Errorf("pcd8544: bitmap must be %d bytes, got %d", FrameSize, len(bitmap))
	}
	d.x, d.bank = 0, 0
	return d.writeFullFrame(bitmap)
}

// Clear blanks every pixel and homes the cursor.
func (d *Dev) Clear() error {
	if d.halted {
		return errHalted
	}
	d.x, d.bank = 0, 0
	return d.writeFullFrame(make([]byte, FrameSize))
}

// GotoXY moves the text cursor to pixel column x of bank.
func (d *Dev) GotoXY(x, bank int) error {
	if d.halted {
		return errHalted
	}
	if x < 0 || x >= Width {
		return fmt.Errorf("pcd8544: column %d out of range", x)
	}
	if bank < 0 || bank >= Banks {
		return fmt.Errorf("pcd8544: bank %d out of range", bank)
	}
	d.x, d.bank = x, bank
	return nil
}

// Cursor returns the current text cursor.
func (d *Dev) Cursor() (x, bank int) {
	return d.x, d.bank
}

// Character draws c at the cursor and advances it by one cell. A cell that
// does not fit on the current bank starts at column 0 of the next bank.
func (d *Dev) Character(c byte) error {
	if d.halted {
		return errHalted
	}
	d.putc(c)
	return d.flush()
}

// Print draws s at the cursor, byte by byte.
func (d *Dev) Print(s string) error {
	if d.halted {
		return errHalted
	}
	for i := 0; i < len(s); i++ {
		d.putc(s[i])
	}
	return d.flush()
}

func (d *Dev) putc(c byte) {
	if d.x+font5x7.CellWidth > Width {
		d.x = 0
		d.bank = (d.bank + 1) % Banks
	}
	tinyfont.DrawChar(d, font5x7.Font, int16(d.x), int16(d.bank*8+font5x7.CellHeight-1), rune(c), Ink)
	d.x += font5x7.CellWidth
}

// DrawBorder draws a one pixel frame around the screen.
func (d *Dev) DrawBorder() error {
	if d.halted {
		return errHalted
	}
	pix := d.next.Pix
	for x := 0; x < Width; x++ {
		pix[x] = 0x01                 // top
		pix[(Banks-1)*Width+x] = 0x80 // bottom
	}
	for bank := 0; bank < Banks; bank++ {
		pix[bank*Width] = 0xFF         // left
		pix[bank*Width+Width-1] = 0xFF // right
	}
	return d.flush()
}

// SetContrast sets the display contrast (0-63).
func (d *Dev) SetContrast(contrast uint8) error {
	if d.halted {
		return errHalted
	}
	if contrast > MaxContrast {
		return fmt.Errorf("pcd8544: contrast %d out of range", contrast)
	}
	if err := d.p.SetContrast(contrast); err != nil {
		return err
	}
	d.contrast = contrast
	return nil
}

// Contrast returns the last contrast applied.
func (d *Dev) Contrast() uint8 {
	return d.contrast
}

// Invert inverts the display colors (dark becomes clear and vice versa).
func (d *Dev) Invert(invert bool) error {
	if d.halted {
		return errHalted
	}
	if err := d.p.Invert(invert); err != nil {
		return err
	}
	d.inverse = invert
	return nil
}

// Size implements drivers.Displayer.
func (d *Dev) Size() (x, y int16) {
	return Width, Height
}

// SetPixel implements drivers.Displayer. The pixel is only sent to the panel
// by the next Display call or drawing primitive.
func (d *Dev) SetPixel(x, y int16, c color.RGBA) {
	d.next.Set(int(x), int(y), c)
}

// Display implements drivers.Displayer by flushing pending pixels.
func (d *Dev) Display() error {
	if d.halted {
		return errHalted
	}
	return d.flush()
}

// Halt powers off the display.
// After calling Halt, the display will not respond to further commands.
func (d *Dev) Halt() error {
	d.halted = true
	return d.p.Halt()
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("pcd8544.Dev{%dx%d}", d.rect.Dx(), d.rect.Dy())
}

// writeFullFrame sends a complete frame and makes it the current one.
func (d *Dev) writeFullFrame(pixels []byte) error {
	if err := d.p.WriteRect(d.rect, pixels); err != nil {
		return err
	}
	copy(d.buffer, pixels)
	copy(d.next.Pix, pixels)
	return nil
}

// flush sends the minimal bank-aligned region where next differs from
// what the panel shows.
func (d *Dev) flush() error {
	minCol, maxCol, minBank, maxBank := d.calculateDiff()
	if minCol > maxCol {
		// No changes
		return nil
	}

	r := image.Rect(minCol, minBank*8, maxCol+1, (maxBank+1)*8)
	if err := d.p.WriteRect(r, d.extractRegion(minCol, maxCol, minBank, maxBank)); err != nil {
		return err
	}
	copy(d.buffer, d.next.Pix)
	return nil
}

// calculateDiff compares the sent and pending frames. It returns
// (minCol, maxCol, minBank, maxBank), with minCol > maxCol if nothing changed.
func (d *Dev) calculateDiff() (minCol, maxCol, minBank, maxBank int) {
	minCol, maxCol = Width, -1
	minBank, maxBank = Banks, -1

	for bank := 0; bank < Banks; bank++ {
		start := bank * Width
		end := start + Width
		if bytes.Equal(d.buffer[start:end], d.next.Pix[start:end]) {
			continue
		}
		if bank < minBank {
			minBank = bank
		}
		maxBank = bank

		for x := 0; x < Width; x++ {
			if d.buffer[start+x] != d.next.Pix[start+x] {
				if x < minCol {
					minCol = x
				}
				if x > maxCol {
					maxCol = x
				}
			}
		}
	}
	return
}

// extractRegion copies the pending bytes of a column/bank rectangle.
func (d *Dev) extractRegion(minCol, maxCol, minBank, maxBank int) []byte {
	width := maxCol - minCol + 1
	result := make([]byte, 0, width*(maxBank-minBank+1))
	for bank := minBank; bank <= maxBank; bank++ {
		start := bank*Width + minCol
		result = append(result, d.next.Pix[start:start+width]...)
	}
	return result
}
