// Package pcd8544 drives a PCD8544 LCD (Nokia 5110/3310) from an in-memory
// frame.
//
// The PCD8544 is a monochrome 84×48 controller. Its display RAM is organized
// in six banks of 8 pixel rows; every byte covers one column of one bank,
// with bit 0 at the top. This driver keeps the same layout in memory using
// periph.io's image1bit.VerticalLSB and implements the display.Drawer
// interface from periph.io as well as TinyGo's drivers.Displayer.
//
// # Display Characteristics
//
// - 1-bit monochrome, a set bit is a dark segment
// - 84×48 pixels in 6 banks
// - Operating voltage (contrast) 0-63 from software
// - Normal and inverse video
//
// # Hardware Connection
//
// The default Settings match the reference wiring:
//
//	Display Pin → Board Pin
//	RST         → tied high (NoPin)
//	CE          → tied low (NoPin)
//	DC          → GPIO12
//	Din         → GPIO13
//	Clk         → GPIO14
//	VCC         → 3.3V
//	GND         → GND
//
// # Panels
//
// A Dev never touches the bus itself. It hands the changed part of the frame
// to a Panel:
//
//   - panel.Controller sends it to a real controller (TinyGo builds only)
//   - panel.Terminal renders it with ANSI block characters
//   - panel.Window shows it in a desktop window
//   - panel.Mirror keeps a shadow copy, for tests and snapshots
//
// # Basic Usage
//
//	package main
//
//	import (
//		"os"
//
//		"github.com/flavioheleno/pcd8544"
//		"github.com/flavioheleno/pcd8544/panel"
//	)
//
//	func main() {
//		dev, _ := pcd8544.NewDev(panel.NewTerminal(os.Stdout), nil)
//		defer dev.Halt()
//
//		dev.DrawBorder()
//		dev.GotoXY(17, 1)
//		dev.Print("ESP8266")
//		dev.SetContrast(41)
//	}
//
// # Text
//
// Text is drawn with the 5×7 font from package font5x7 in 6×8 cells at a
// column/bank cursor. GotoXY takes a pixel column (0-83) and a bank (0-5).
// A character that does not fit in the current bank continues at column 0
// of the next one. Cells are painted completely, so printing over old text
// replaces it.
//
// # Drawing Modes
//
// ## Full-Frame Update
//
// Image and Write take a complete frame of FrameSize (504) bytes:
//
//	dev.Image(bitmap[:])
//
// ## Differential Updates
//
// All other primitives, Draw included, compute the smallest column/bank
// rectangle that changed since the last update and only send that region:
//
//	dev.Draw(dev.Bounds(), myImage, image.Point{})
//
// Pixels set through SetPixel (for example by tinyfont) stay pending until
// Display or the next primitive.
//
// # Datasheet
//
// For the instruction set and timing information, see:
// https://www.sparkfun.com/datasheets/LCD/Monochrome/Nokia5110.pdf
package pcd8544
