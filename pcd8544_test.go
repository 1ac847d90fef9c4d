package pcd8544

import (
	"bytes"
	"errors"
	"image"
	"strings"
	"testing"

	"periph.io/x/devices/v3/ssd1306/image1bit"
)

type rectWrite struct {
	r    image.Rectangle
	data []byte
}

// recorder is a Panel that keeps every call for inspection.
type recorder struct {
	configured *Settings
	writes     []rectWrite
	contrast   []uint8
	inverted   []bool
	halted     bool

	failWrite error
}

func (p *recorder) Configure(s *Settings) error {
	p.configured = s
	return nil
}

func (p *recorder) WriteRect(r image.Rectangle, data []byte) error {
	if p.failWrite != nil {
		return p.failWrite
	}
	p.writes = append(p.writes, rectWrite{r: r, data: append([]byte(nil), data...)})
	return nil
}

func (p *recorder) SetContrast(v uint8) error {
	p.contrast = append(p.contrast, v)
	return nil
}

func (p *recorder) Invert(on bool) error {
	p.inverted = append(p.inverted, on)
	return nil
}

func (p *recorder) Halt() error {
	p.halted = true
	return nil
}

func (p *recorder) last() rectWrite {
	return p.writes[len(p.writes)-1]
}

func newTestDev(t *testing.T) (*Dev, *recorder) {
	t.Helper()
	p := &recorder{}
	dev, err := NewDev(p, nil)
	if err != nil {
		t.Fatalf("NewDev() error = %v", err)
	}
	p.writes = nil
	return dev, p
}

func TestNewDev(t *testing.T) {
	p := &recorder{}
	s := DefaultSettings()
	s.Inverse = true

	dev, err := NewDev(p, &s)
	if err != nil {
		t.Fatalf("NewDev() error = %v", err)
	}

	if p.configured == nil || *p.configured != s {
		t.Errorf("panel configured with %+v, want %+v", p.configured, s)
	}
	if len(p.writes) != 1 {
		t.Fatalf("got %d writes on init, want 1", len(p.writes))
	}
	if w := p.writes[0]; w.r != dev.Bounds() || !bytes.Equal(w.data, make([]byte, FrameSize)) {
		t.Errorf("init should clear the full frame, got %v with %d bytes", w.r, len(w.data))
	}
	if len(p.inverted) != 1 || !p.inverted[0] {
		t.Errorf("Inverse setting not applied, got %v", p.inverted)
	}
	if got := dev.Contrast(); got != 0x31 {
		t.Errorf("initial Contrast() = 0x%02X, want 0x31", got)
	}

	// Settings are copied.
	s.DC = 2
	if dev.Settings().DC != 12 {
		t.Error("Dev settings changed after NewDev returned")
	}
}

func TestNewDevInvalidSettings(t *testing.T) {
	s := DefaultSettings()
	s.SCLK = NoPin
	if _, err := NewDev(&recorder{}, &s); err == nil {
		t.Error("NewDev should fail without a clock pin")
	}
}

func TestDevBounds(t *testing.T) {
	dev, _ := newTestDev(t)
	want := image.Rect(0, 0, 84, 48)
	if got := dev.Bounds(); got != want {
		t.Errorf("Bounds() = %v, want %v", got, want)
	}
	if w, h := dev.Size(); w != 84 || h != 48 {
		t.Errorf("Size() = %d,%d, want 84,48", w, h)
	}
}

func TestDevColorModel(t *testing.T) {
	dev, _ := newTestDev(t)
	if dev.ColorModel() != image1bit.BitModel {
		t.Error("ColorModel() did not return BitModel")
	}
}

func TestDevString(t *testing.T) {
	dev, _ := newTestDev(t)
	want := "pcd8544.Dev{84x48}"
	if got := dev.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestDevHalt(t *testing.T) {
	dev, p := newTestDev(t)

	if dev.halted {
		t.Error("device should not be halted initially")
	}
	if err := dev.Halt(); err != nil {
		t.Fatalf("Halt() error = %v", err)
	}
	if !p.halted {
		t.Error("Halt was not forwarded to the panel")
	}

	checks := map[string]func() error{
		"SetContrast": func() error { return dev.SetContrast(10) },
		"Invert":      func() error { return dev.Invert(true) },
		"Image":       func() error { return dev.Image(make([]byte, FrameSize)) },
		"Clear":       dev.Clear,
		"GotoXY":      func() error { return dev.GotoXY(0, 0) },
		"Character":   func() error { return dev.Character('a') },
		"Print":       func() error { return dev.Print("a") },
		"DrawBorder":  dev.DrawBorder,
		"Display":     dev.Display,
		"Draw": func() error {
			return dev.Draw(dev.Bounds(), image.NewRGBA(dev.Bounds()), image.Point{})
		},
		"Write": func() error {
			_, err := dev.Write(make([]byte, FrameSize))
			return err
		},
	}
	for name, fn := range checks {
		if err := fn(); err == nil {
			t.Errorf("%s should fail when halted", name)
		}
	}
}

func TestWriteInvalidBufferSize(t *testing.T) {
	dev, _ := newTestDev(t)

	_, err := dev.Write(make([]byte, 100))
	if err == nil {
		t.Fatal("Write should fail with wrong buffer size")
	}
	if err.Error() != "pcd8544: invalid buffer size" {
		t.Errorf("Write error = %v, want 'pcd8544: invalid buffer size'", err)
	}
}

func TestImage(t *testing.T) {
	dev, p := newTestDev(t)

	bitmap := make([]byte, FrameSize)
	for i := range bitmap {
		bitmap[i] = byte(i)
	}
	if err := dev.GotoXY(40, 3); err != nil {
		t.Fatal(err)
	}
	if err := dev.Image(bitmap); err != nil {
		t.Fatalf("Image() error = %v", err)
	}

	w := p.last()
	if w.r != dev.Bounds() || !bytes.Equal(w.data, bitmap) {
		t.Errorf("Image wrote %v, want the full frame", w.r)
	}
	if x, bank := dev.Cursor(); x != 0 || bank != 0 {
		t.Errorf("cursor = %d,%d after Image, want 0,0", x, bank)
	}

	if err := dev.Image(bitmap[:10]); err == nil {
		t.Error("Image should reject a short bitmap")
	}
}

func TestClear(t *testing.T) {
	dev, p := newTestDev(t)
	if err := dev.Print("abc"); err != nil {
		t.Fatal(err)
	}
	if err := dev.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	w := p.last()
	if w.r != dev.Bounds() || !bytes.Equal(w.data, make([]byte, FrameSize)) {
		t.Error("Clear should send an all-zero frame")
	}
	if !bytes.Equal(dev.buffer, make([]byte, FrameSize)) {
		t.Error("Clear should reset the sent frame")
	}
}

func TestGotoXY(t *testing.T) {
	tests := []struct {
		name    string
		x, bank int
		wantErr bool
	}{
		{"origin", 0, 0, false},
		{"last cell", 83, 5, false},
		{"status label", 17, 1, false},
		{"negative column", -1, 0, true},
		{"column past width", 84, 0, true},
		{"negative bank", 0, -1, true},
		{"bank past height", 0, 6, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev, _ := newTestDev(t)
			err := dev.GotoXY(tt.x, tt.bank)
			if (err != nil) != tt.wantErr {
				t.Fatalf("GotoXY(%d, %d) error = %v, wantErr %v", tt.x, tt.bank, err, tt.wantErr)
			}
			if !tt.wantErr {
				if x, bank := dev.Cursor(); x != tt.x || bank != tt.bank {
					t.Errorf("Cursor() = %d,%d, want %d,%d", x, bank, tt.x, tt.bank)
				}
			}
		})
	}
}

func TestCharacter(t *testing.T) {
	dev, p := newTestDev(t)
	if err := dev.GotoXY(24, 2); err != nil {
		t.Fatal(err)
	}
	if err := dev.Character('H'); err != nil {
		t.Fatalf("Character() error = %v", err)
	}

	if len(p.writes) != 1 {
		t.Fatalf("got %d writes, want 1", len(p.writes))
	}
	w := p.last()
	// Only the five ink columns differ from the blank frame.
	wantRect := image.Rect(24, 16, 29, 24)
	if w.r != wantRect {
		t.Errorf("WriteRect region = %v, want %v", w.r, wantRect)
	}
	want := []byte{0x7f, 0x08, 0x08, 0x08, 0x7f}
	if !bytes.Equal(w.data, want) {
		t.Errorf("WriteRect data = % x, want % x", w.data, want)
	}
	if x, bank := dev.Cursor(); x != 30 || bank != 2 {
		t.Errorf("Cursor() = %d,%d, want 30,2", x, bank)
	}
}

func TestCharacterOverwritesBackground(t *testing.T) {
	dev, _ := newTestDev(t)
	full := bytes.Repeat([]byte{0xff}, FrameSize)
	if err := dev.Image(full); err != nil {
		t.Fatal(err)
	}
	if err := dev.Character(' '); err != nil {
		t.Fatal(err)
	}
	for x := 0; x < 6; x++ {
		if dev.buffer[x] != 0x00 {
			t.Errorf("column %d = 0x%02X after drawing a space, want 0x00", x, dev.buffer[x])
		}
	}
	if dev.buffer[6] != 0xff {
		t.Errorf("column 6 = 0x%02X, want untouched 0xFF", dev.buffer[6])
	}
}

func TestCharacterWraps(t *testing.T) {
	dev, _ := newTestDev(t)
	if err := dev.GotoXY(80, 5); err != nil {
		t.Fatal(err)
	}
	if err := dev.Character('I'); err != nil {
		t.Fatal(err)
	}
	if x, bank := dev.Cursor(); x != 6 || bank != 0 {
		t.Errorf("Cursor() = %d,%d after wrapping, want 6,0", x, bank)
	}
	// 'I' is 0x00 0x41 0x7f 0x41 0x00 and lands at column 0 of bank 0.
	if got := dev.buffer[2]; got != 0x7f {
		t.Errorf("column 2 = 0x%02X, want 0x7F", got)
	}
}

func TestPrint(t *testing.T) {
	dev, p := newTestDev(t)
	if err := dev.GotoXY(17, 1); err != nil {
		t.Fatal(err)
	}
	if err := dev.Print("ESP8266"); err != nil {
		t.Fatalf("Print() error = %v", err)
	}
	if len(p.writes) != 1 {
		t.Errorf("Print should flush once, got %d writes", len(p.writes))
	}
	if x, _ := dev.Cursor(); x != 17+7*6 {
		t.Errorf("cursor x = %d, want %d", x, 17+7*6)
	}
	w := p.last()
	if w.r.Min.Y != 8 || w.r.Max.Y != 16 {
		t.Errorf("Print touched rows %d-%d, want bank 1 only", w.r.Min.Y, w.r.Max.Y)
	}
}

func TestDrawBorder(t *testing.T) {
	dev, p := newTestDev(t)
	if err := dev.DrawBorder(); err != nil {
		t.Fatalf("DrawBorder() error = %v", err)
	}
	w := p.last()
	if w.r != dev.Bounds() {
		t.Fatalf("border region = %v, want full screen", w.r)
	}

	tests := []struct {
		name    string
		x, bank int
		want    byte
	}{
		{"top", 40, 0, 0x01},
		{"bottom", 40, 5, 0x80},
		{"left top", 0, 0, 0xff},
		{"right middle", 83, 3, 0xff},
		{"inside", 40, 3, 0x00},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dev.buffer[tt.bank*Width+tt.x]; got != tt.want {
				t.Errorf("byte at %d,%d = 0x%02X, want 0x%02X", tt.x, tt.bank, got, tt.want)
			}
		})
	}

	// Drawing it again changes nothing and sends nothing.
	n := len(p.writes)
	if err := dev.DrawBorder(); err != nil {
		t.Fatal(err)
	}
	if len(p.writes) != n {
		t.Error("redrawing an unchanged border should not write to the panel")
	}
}

func TestSetContrast(t *testing.T) {
	dev, p := newTestDev(t)

	if err := dev.SetContrast(41); err != nil {
		t.Fatalf("SetContrast(41) error = %v", err)
	}
	if dev.Contrast() != 41 || p.contrast[len(p.contrast)-1] != 41 {
		t.Errorf("contrast not applied: dev=%d panel=%v", dev.Contrast(), p.contrast)
	}

	if err := dev.SetContrast(MaxContrast + 1); err == nil {
		t.Error("SetContrast should reject values above MaxContrast")
	}
	if dev.Contrast() != 41 {
		t.Error("rejected contrast must not change the current one")
	}
}

func TestDrawDifferential(t *testing.T) {
	dev, p := newTestDev(t)

	src := image1bit.NewVerticalLSB(dev.Bounds())
	src.SetBit(10, 9, image1bit.On)
	src.SetBit(12, 20, image1bit.On)

	if err := dev.Draw(image.Rect(0, 8, 84, 24), src, image.Pt(0, 8)); err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	w := p.last()
	want := image.Rect(10, 8, 13, 24)
	if w.r != want {
		t.Errorf("region = %v, want %v", w.r, want)
	}
	// Bank 1: 0x02 at column 10. Bank 2: 0x10 at column 12.
	wantData := []byte{0x02, 0x00, 0x00, 0x00, 0x00, 0x10}
	if !bytes.Equal(w.data, wantData) {
		t.Errorf("data = % x, want % x", w.data, wantData)
	}
}

func TestDrawFullFrameFastPath(t *testing.T) {
	dev, p := newTestDev(t)
	src := image1bit.NewVerticalLSB(dev.Bounds())
	if err := dev.Draw(dev.Bounds(), src, image.Point{}); err != nil {
		t.Fatal(err)
	}
	if len(p.writes) != 1 || p.last().r != dev.Bounds() {
		t.Error("a full VerticalLSB frame should be written in one go")
	}
}

func TestDrawOutside(t *testing.T) {
	dev, p := newTestDev(t)
	if err := dev.Draw(image.Rect(100, 100, 120, 120), image.NewRGBA(image.Rect(0, 0, 20, 20)), image.Point{}); err != nil {
		t.Fatal(err)
	}
	if len(p.writes) != 0 {
		t.Error("drawing outside the screen should be a no-op")
	}
}

func TestSetPixelDisplay(t *testing.T) {
	dev, p := newTestDev(t)
	dev.SetPixel(5, 47, Ink)
	if len(p.writes) != 0 {
		t.Fatal("SetPixel must not write to the panel")
	}
	if err := dev.Display(); err != nil {
		t.Fatal(err)
	}
	w := p.last()
	if w.r != image.Rect(5, 40, 6, 48) || !bytes.Equal(w.data, []byte{0x80}) {
		t.Errorf("Display wrote %v % x", w.r, w.data)
	}
}

func TestCalculateDiffNoChanges(t *testing.T) {
	dev, _ := newTestDev(t)
	minCol, maxCol, _, _ := dev.calculateDiff()

	// minCol > maxCol indicates no changes
	if minCol <= maxCol {
		t.Errorf("No changes should result in minCol > maxCol, got %d > %d", minCol, maxCol)
	}
}

func TestCalculateDiffWithChanges(t *testing.T) {
	dev, _ := newTestDev(t)
	dev.next.Pix[1*Width+3] = 0xAB
	dev.next.Pix[4*Width+70] = 0x01

	minCol, maxCol, minBank, maxBank := dev.calculateDiff()
	if minCol != 3 || maxCol != 70 {
		t.Errorf("columns = %d..%d, want 3..70", minCol, maxCol)
	}
	if minBank != 1 || maxBank != 4 {
		t.Errorf("banks = %d..%d, want 1..4", minBank, maxBank)
	}
}

func TestExtractRegion(t *testing.T) {
	dev, _ := newTestDev(t)
	for i := range dev.next.Pix {
		dev.next.Pix[i] = byte(i)
	}

	region := dev.extractRegion(2, 4, 1, 2)
	want := []byte{86, 87, 88, 170, 171, 172}
	if !bytes.Equal(region, want) {
		t.Errorf("extractRegion = %v, want %v", region, want)
	}
}

func TestPanelErrors(t *testing.T) {
	dev, p := newTestDev(t)
	p.failWrite = errors.New("bus error")

	if err := dev.Print("x"); err == nil || !strings.Contains(err.Error(), "bus error") {
		t.Errorf("Print error = %v, want bus error", err)
	}
	// The failed region stays pending and is retried by the next flush.
	p.failWrite = nil
	if err := dev.Display(); err != nil {
		t.Fatal(err)
	}
	if len(p.writes) != 1 {
		t.Errorf("pending region not retried, got %d writes", len(p.writes))
	}
}
