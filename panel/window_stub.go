//go:build !tinygo && !cgo

package panel

import (
	"context"
	"errors"
)

// Window is unavailable without cgo; Run always fails.
type Window struct {
	*Mirror
}

func NewWindow(scale int) *Window {
	return &Window{Mirror: NewMirror()}
}

func (w *Window) Run(ctx context.Context) error {
	return errors.New("window mode requires cgo (build/run with CGO_ENABLED=1)")
}
