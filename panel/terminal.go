package panel

import (
	"bytes"
	"fmt"
	"io"

	"github.com/flavioheleno/pcd8544"
)

// Terminal is a Mirror that can render itself as text, two pixel rows per
// line, using Unicode half blocks.
type Terminal struct {
	*Mirror

	w io.Writer

	// Home moves the cursor to the top-left corner before each frame, so
	// frames replace each other on an ANSI terminal.
	Home bool
}

// NewTerminal returns a Terminal writing to w.
func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{Mirror: NewMirror(), w: w}
}

// Render writes the current frame if the panel changed since the last
// Render. It reports whether a frame was written.
func (t *Terminal) Render() (bool, error) {
	if !t.takeDirty() {
		return false, nil
	}
	_, err := t.w.Write(t.Frame())
	return err == nil, err
}

// Frame returns the text rendering of the panel, including a border and a
// status line.
func (t *Terminal) Frame() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()

	var b bytes.Buffer
	if t.Home {
		b.WriteString("\x1b[H")
	}
	hr := bytes.Repeat([]byte("─"), pcd8544.Width)
	b.WriteString("┌")
	b.Write(hr)
	b.WriteString("┐\n")
	for y := 0; y < pcd8544.Height; y += 2 {
		b.WriteString("│")
		for x := 0; x < pcd8544.Width; x++ {
			b.WriteString(halfBlock(t.dark(x, y), t.dark(x, y+1)))
		}
		b.WriteString("│\n")
	}
	b.WriteString("└")
	b.Write(hr)
	b.WriteString("┘\n")

	state := "normal"
	switch {
	case t.halted:
		state = "off"
	case t.inverse:
		state = "inverse"
	}
	fmt.Fprintf(&b, " contrast %-2d  %-7s\n", t.contrast, state)
	return b.Bytes()
}

func halfBlock(top, bottom bool) string {
	switch {
	case top && bottom:
		return "█"
	case top:
		return "▀"
	case bottom:
		return "▄"
	default:
		return " "
	}
}
