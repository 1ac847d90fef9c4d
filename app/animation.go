package app

import (
	"errors"
	"fmt"
	"log"
)

// Phase is what a tick draws.
type Phase int

const (
	PhaseSplash Phase = iota // the logo
	PhaseClear               // a blank screen
	PhaseStatus              // the status screen
)

func (p Phase) String() string {
	switch p {
	case PhaseSplash:
		return "splash"
	case PhaseClear:
		return "clear"
	case PhaseStatus:
		return "status"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// splashTicks is the number of ticks the logo stays up.
const splashTicks = 2

// PhaseOf returns the phase of tick n. Ticks count from 1.
func PhaseOf(n uint32) Phase {
	switch {
	case n <= splashTicks:
		return PhaseSplash
	case n == splashTicks+1:
		return PhaseClear
	default:
		return PhaseStatus
	}
}

// Contrast returns the contrast applied on tick n. The offset of 25 keeps
// the first values in the visible range.
func Contrast(n uint32) uint8 {
	return uint8(((n << 2) + 25) & 0x3f)
}

// Message is the blinking greeting of the status screen.
type Message struct {
	Text   string
	Marker byte
}

var (
	oddMessage  = Message{Text: "HELLO =", Marker: '='}
	evenMessage = Message{Text: "hello -", Marker: '-'}
)

// MessageOf returns the greeting for tick n; it only depends on the parity
// of n.
func MessageOf(n uint32) Message {
	if n&1 == 1 {
		return oddMessage
	}
	return evenMessage
}

// Status screen layout, in pixel columns and banks.
const (
	titleX, titleBank     = 17, 1
	messageX, messageBank = 24, 2
	markerX, markerBank   = 10, 2
	labelX, labelBank     = 2, 3
	valueX, valueBank     = 32, 4

	title = "ESP8266"
	label = " contrast:"
)

// Display is the part of *pcd8544.Dev the animation draws with.
type Display interface {
	Image(bitmap []byte) error
	Clear() error
	DrawBorder() error
	GotoXY(x, bank int) error
	Print(s string) error
	Character(c byte) error
	SetContrast(v uint8) error
}

// Animator draws one frame of the demo per tick.
type Animator struct {
	d   Display
	log *log.Logger
	n   uint32
}

// NewAnimator returns an Animator that has not ticked yet.
func NewAnimator(d Display, l *log.Logger) *Animator {
	return &Animator{d: d, log: l}
}

// Iterations returns the number of ticks so far.
func (a *Animator) Iterations() uint32 {
	return a.n
}

// Tick advances the counter and draws the matching phase. Display errors
// are logged; the next tick draws again regardless.
func (a *Animator) Tick() {
	a.n++
	var err error
	switch PhaseOf(a.n) {
	case PhaseSplash:
		err = a.d.Image(Logo[:])
	case PhaseClear:
		err = a.d.Clear()
	default:
		err = a.status()
	}
	if err != nil {
		a.log.Printf("tick %d: %v", a.n, err)
	}
}

func (a *Animator) status() error {
	d := a.d
	msg := MessageOf(a.n)
	contrast := Contrast(a.n)

	errs := []error{
		d.DrawBorder(),
		d.GotoXY(titleX, titleBank),
		d.Print(title),
		d.GotoXY(messageX, messageBank),
	}
	for i := 0; i < len(msg.Text); i++ {
		errs = append(errs, d.Character(msg.Text[i]))
	}
	errs = append(errs,
		d.GotoXY(markerX, markerBank),
		d.Character(msg.Marker),
		d.SetContrast(contrast),
		d.GotoXY(labelX, labelBank),
		d.Print(label),
		d.GotoXY(valueX, valueBank),
		// Left aligned and padded, so a shorter value hides a longer one.
		d.Print(fmt.Sprintf("%-5d", contrast)),
	)
	a.log.Printf("Updating display. Contrast = %d", contrast)
	return errors.Join(errs...)
}
