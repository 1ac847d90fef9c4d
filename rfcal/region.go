package rfcal

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"tinygo.org/x/tinyfs"
)

var (
	ErrNoSector   = errors.New("rfcal: no calibration sector for this flash layout")
	ErrOutOfRange = errors.New("rfcal: calibration sector outside the device")
	ErrEmpty      = errors.New("rfcal: no calibration record")
	ErrTooLarge   = errors.New("rfcal: calibration record too large")
)

// Record layout: magic, little-endian payload length, payload.
var magic = []byte("RFCL")

const headerSize = 6

// MaxRecord is the largest payload a sector can hold.
const MaxRecord = SectorSize - headerSize

// Region is the calibration sector of a flash device.
type Region struct {
	dev tinyfs.BlockDevice
	off int64
}

// NewRegion returns the calibration sector of dev for the layout m.
func NewRegion(dev tinyfs.BlockDevice, m FlashSizeMap) (*Region, error) {
	if Sector(m) == 0 {
		return nil, ErrNoSector
	}
	off := Offset(m)
	if dev.Size() < off+SectorSize {
		return nil, fmt.Errorf("%w: sector %d, device size %d", ErrOutOfRange, Sector(m), dev.Size())
	}
	if eb := dev.EraseBlockSize(); eb <= 0 || eb > SectorSize || SectorSize%eb != 0 {
		return nil, fmt.Errorf("rfcal: unsupported erase block size %d", eb)
	}
	return &Region{dev: dev, off: off}, nil
}

// Offset returns the byte address of the region.
func (r *Region) Offset() int64 {
	return r.off
}

// Load returns the stored calibration payload.
func (r *Region) Load() ([]byte, error) {
	var hdr [headerSize]byte
	if _, err := r.dev.ReadAt(hdr[:], r.off); err != nil {
		return nil, fmt.Errorf("rfcal: read header: %w", err)
	}
	if !bytes.Equal(hdr[:len(magic)], magic) {
		return nil, ErrEmpty
	}
	n := int(binary.LittleEndian.Uint16(hdr[len(magic):]))
	if n > MaxRecord {
		return nil, ErrEmpty
	}
	data := make([]byte, n)
	if _, err := r.dev.ReadAt(data, r.off+headerSize); err != nil {
		return nil, fmt.Errorf("rfcal: read record: %w", err)
	}
	return data, nil
}

// Store erases the region and writes data as the new record.
func (r *Region) Store(data []byte) error {
	if len(data) > MaxRecord {
		return ErrTooLarge
	}
	if err := r.Erase(); err != nil {
		return err
	}

	buf := make([]byte, headerSize+len(data))
	copy(buf, magic)
	binary.LittleEndian.PutUint16(buf[len(magic):], uint16(len(data)))
	copy(buf[headerSize:], data)

	// Pad to whole write blocks with the erased value.
	if wb := r.dev.WriteBlockSize(); wb > 1 {
		if rem := int64(len(buf)) % wb; rem != 0 {
			buf = append(buf, bytes.Repeat([]byte{0xff}, int(wb-rem))...)
		}
	}
	if _, err := r.dev.WriteAt(buf, r.off); err != nil {
		return fmt.Errorf("rfcal: write record: %w", err)
	}
	return nil
}

// Erase clears the region.
func (r *Region) Erase() error {
	eb := r.dev.EraseBlockSize()
	if err := r.dev.EraseBlocks(r.off/eb, SectorSize/eb); err != nil {
		return fmt.Errorf("rfcal: erase sector: %w", err)
	}
	return nil
}
