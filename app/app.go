// Package app is the PCD8544 demo: a splash logo, then a status screen that
// blinks a greeting and sweeps the contrast twice a second.
//
// The app runs entirely on an eventloop.Loop. Boot arms a one-shot setup
// timer; setup initializes the display and re-arms the same timer as the
// periodic animation tick.
package app

import (
	"fmt"
	"io"
	"log"
	"time"

	"github.com/flavioheleno/pcd8544"
	"github.com/flavioheleno/pcd8544/eventloop"
	"github.com/flavioheleno/pcd8544/rfcal"
	"periph.io/x/conn/v3/physic"
)

const (
	// TickPeriod is the interval between animation ticks.
	TickPeriod = 500 * time.Millisecond
	// SetupDelay lets the console settle before the display is set up.
	SetupDelay = 2 * TickPeriod
	// IdleDelay is how long the idle task sleeps each time it runs.
	IdleDelay = 10 * time.Microsecond
)

// ConsoleBaud is the diagnostic console speed (8N1).
const ConsoleBaud = 115200 * physic.Hertz

// Platform is the board the app runs on.
type Platform interface {
	// OpenConsole returns the diagnostic console configured for baud.
	OpenConsole(baud physic.Frequency) (io.Writer, error)
	// SDKVersion identifies the firmware or runtime.
	SDKVersion() string
	// FlashSizeMap is the flash layout of the board.
	FlashSizeMap() rfcal.FlashSizeMap
	// SetAutoConnect enables or disables joining a network at power on.
	SetAutoConnect(on bool) error
	// Disconnect leaves the current network, if any.
	Disconnect() error
}

// Opts overrides the defaults of an App.
type Opts struct {
	TickPeriod time.Duration // default TickPeriod
	SetupDelay time.Duration // default SetupDelay
	IdleDelay  time.Duration // default IdleDelay; negative disables the sleep

	// Settings replaces pcd8544.DefaultSettings.
	Settings *pcd8544.Settings

	// MaxTicks stops the loop after that many animation ticks. 0 runs
	// forever.
	MaxTicks uint32
}

// App holds the state of the demo.
type App struct {
	opts     Opts
	platform Platform
	panel    pcd8544.Panel
	loop     *eventloop.Loop

	log   *log.Logger
	sleep func(time.Duration)
	timer *eventloop.Timer
	dev   *pcd8544.Dev
	anim  *Animator
}

// New returns an App that draws on panel. opts may be nil.
func New(p Platform, panel pcd8544.Panel, loop *eventloop.Loop, opts *Opts) *App {
	a := &App{
		platform: p,
		panel:    panel,
		loop:     loop,
		log:      log.New(io.Discard, "", 0),
		sleep:    time.Sleep,
	}
	if opts != nil {
		a.opts = *opts
	}
	if a.opts.TickPeriod <= 0 {
		a.opts.TickPeriod = TickPeriod
	}
	if a.opts.SetupDelay <= 0 {
		a.opts.SetupDelay = SetupDelay
	}
	if a.opts.IdleDelay == 0 {
		a.opts.IdleDelay = IdleDelay
	}
	return a
}

// Boot opens the console, turns the radio's auto connect off and schedules
// setup. It returns right away; the loop does the rest.
func (a *App) Boot() error {
	console, err := a.platform.OpenConsole(ConsoleBaud)
	if err != nil {
		return fmt.Errorf("app: open console: %w", err)
	}
	a.log = log.New(console, "", 0)

	a.log.Printf("SDK version:%s", a.platform.SDKVersion())

	// Console only demo: stay off the network.
	if err := a.platform.SetAutoConnect(false); err != nil {
		a.log.Printf("wifi auto connect: %v", err)
	}
	if err := a.platform.Disconnect(); err != nil {
		a.log.Printf("wifi disconnect: %v", err)
	}

	m := a.platform.FlashSizeMap()
	a.log.Printf("rf cal sector: %d (flash map %v)", rfcal.Sector(m), m)

	a.timer = a.loop.NewTimer(a.setup)
	a.timer.Arm(a.opts.SetupDelay, false)

	if d := a.opts.IdleDelay; d > 0 {
		a.loop.Idle(func() { a.sleep(d) })
	}
	return nil
}

// setup initializes the display and starts the animation.
func (a *App) setup() {
	s := pcd8544.DefaultSettings()
	if a.opts.Settings != nil {
		s = *a.opts.Settings
	}

	dev, err := pcd8544.NewDev(a.panel, &s)
	if err != nil {
		a.log.Printf("pcd8544 init: %v", err)
		return
	}
	a.dev = dev
	a.anim = NewAnimator(dev, a.log)
	a.log.Printf("pcd8544 lcd initiated")

	a.timer.Disarm()
	a.timer.SetFunc(a.tick)
	a.timer.Arm(a.opts.TickPeriod, true)
}

func (a *App) tick() {
	a.anim.Tick()
	if a.opts.MaxTicks > 0 && a.anim.Iterations() >= a.opts.MaxTicks {
		a.timer.Disarm()
		a.loop.Stop()
	}
}

// Dev returns the display, or nil before setup ran.
func (a *App) Dev() *pcd8544.Dev {
	return a.dev
}

// Animator returns the animation, or nil before setup ran.
func (a *App) Animator() *Animator {
	return a.anim
}
