//go:build tinygo

package panel

import (
	"image"
	"machine"

	"github.com/flavioheleno/pcd8544"
	"tinygo.org/x/drivers"
	tgpcd8544 "tinygo.org/x/drivers/pcd8544"
)

// Instruction bytes sent on top of the TinyGo driver's own initialization.
const (
	cmdFunctionSet = 0x20
	cmdExtended    = 0x01
	cmdPowerDown   = 0x04
	cmdDisplayCtl  = 0x08
	cmdDisplayNorm = 0x04
	cmdDisplayInv  = 0x05
	cmdSetVop      = 0x80
)

// Controller is a pcd8544.Panel backed by a real controller on an SPI bus.
// Framing and pin handling are left to tinygo.org/x/drivers/pcd8544.
type Controller struct {
	bus drivers.SPI
	dev *tgpcd8544.Device
	ram []byte
}

var _ pcd8544.Panel = (*Controller)(nil)

// NewController returns a panel on bus. The pins are taken from the
// settings passed to Configure.
func NewController(bus drivers.SPI) *Controller {
	return &Controller{
		bus: bus,
		ram: make([]byte, pcd8544.FrameSize),
	}
}

func pin(p pcd8544.Pin) machine.Pin {
	if !p.Valid() {
		return machine.NoPin
	}
	return machine.Pin(p)
}

// Configure implements pcd8544.Panel.
func (c *Controller) Configure(s *pcd8544.Settings) error {
	c.dev = tgpcd8544.New(c.bus, pin(s.DC), pin(s.RST), pin(s.SCE))
	c.dev.Configure(tgpcd8544.Config{Width: pcd8544.Width, Height: pcd8544.Height})

	c.dev.SendCommand(cmdFunctionSet | cmdExtended)
	c.dev.SendCommand(s.Vop)
	c.dev.SendCommand(s.TempCoeff)
	c.dev.SendCommand(s.BiasMode)
	c.dev.SendCommand(cmdFunctionSet)
	c.dev.SendCommand(cmdDisplayCtl | cmdDisplayNorm)
	return nil
}

// WriteRect implements pcd8544.Panel. The driver always transfers the whole
// frame, so the rectangle is merged into a local copy first.
func (c *Controller) WriteRect(r image.Rectangle, data []byte) error {
	w := r.Dx()
	for i := 0; i < r.Dy()/8; i++ {
		off := (r.Min.Y/8+i)*pcd8544.Width + r.Min.X
		copy(c.ram[off:off+w], data[i*w:(i+1)*w])
	}
	if err := c.dev.SetBuffer(c.ram); err != nil {
		return err
	}
	return c.dev.Display()
}

// SetContrast implements pcd8544.Panel.
func (c *Controller) SetContrast(v uint8) error {
	c.dev.SendCommand(cmdFunctionSet | cmdExtended)
	c.dev.SendCommand(cmdSetVop | v)
	c.dev.SendCommand(cmdFunctionSet)
	return nil
}

// Invert implements pcd8544.Panel.
func (c *Controller) Invert(on bool) error {
	mode := byte(cmdDisplayNorm)
	if on {
		mode = cmdDisplayInv
	}
	c.dev.SendCommand(cmdDisplayCtl | mode)
	return nil
}

// Halt implements pcd8544.Panel.
func (c *Controller) Halt() error {
	c.dev.SendCommand(cmdFunctionSet | cmdPowerDown)
	return nil
}
