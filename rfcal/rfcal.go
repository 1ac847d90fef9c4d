// Package rfcal selects the flash sector that holds radio calibration data.
//
// The radio firmware reserves the last five sectors of flash. The first of
// them, five sectors from the end, stores the calibration record. Where that
// is depends only on the flash size map the chip was built for.
package rfcal

import (
	"fmt"
	"strings"
)

// SectorSize is the size of one flash sector in bytes.
const SectorSize = 4096

// reserved is the number of sectors kept by the radio firmware at the end
// of flash.
const reserved = 5

// FlashSizeMap is a flash size and partition layout, numbered as the SDK
// reports it.
type FlashSizeMap uint8

// Flash size maps. The size is in megabits; the map suffix gives the size in
// kilobytes of the two application partitions.
const (
	FlashSize4MMap256_256 FlashSizeMap = iota
	FlashSize2M
	FlashSize8MMap512_512
	FlashSize16MMap512_512
	FlashSize32MMap512_512
	FlashSize16MMap1024_1024
	FlashSize32MMap1024_1024
	FlashSize32MMap2048_2048
	FlashSize64MMap1024_1024
	FlashSize128MMap1024_1024
)

var names = [...]string{
	FlashSize4MMap256_256:     "4M_MAP_256_256",
	FlashSize2M:               "2M",
	FlashSize8MMap512_512:     "8M_MAP_512_512",
	FlashSize16MMap512_512:    "16M_MAP_512_512",
	FlashSize32MMap512_512:    "32M_MAP_512_512",
	FlashSize16MMap1024_1024:  "16M_MAP_1024_1024",
	FlashSize32MMap1024_1024:  "32M_MAP_1024_1024",
	FlashSize32MMap2048_2048:  "32M_MAP_2048_2048",
	FlashSize64MMap1024_1024:  "64M_MAP_1024_1024",
	FlashSize128MMap1024_1024: "128M_MAP_1024_1024",
}

func (m FlashSizeMap) String() string {
	if int(m) < len(names) {
		return names[m]
	}
	return fmt.Sprintf("FlashSizeMap(%d)", uint8(m))
}

// ParseFlashSizeMap returns the map named s, as printed by String. Case is
// ignored and the "FLASH_SIZE_" prefix is optional.
func ParseFlashSizeMap(s string) (FlashSizeMap, error) {
	name := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "FLASH_SIZE_")
	for i, n := range names {
		if n == name {
			return FlashSizeMap(i), nil
		}
	}
	return 0, fmt.Errorf("rfcal: unknown flash size map %q", s)
}

// Set implements flag.Value.
func (m *FlashSizeMap) Set(s string) error {
	v, err := ParseFlashSizeMap(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Sectors returns the number of flash sectors of m, or 0 if m is unknown.
func Sectors(m FlashSizeMap) uint32 {
	switch m {
	case FlashSize2M:
		return 64
	case FlashSize4MMap256_256:
		return 128
	case FlashSize8MMap512_512:
		return 256
	case FlashSize16MMap512_512, FlashSize16MMap1024_1024:
		return 512
	case FlashSize32MMap512_512, FlashSize32MMap1024_1024, FlashSize32MMap2048_2048:
		return 1024
	case FlashSize64MMap1024_1024:
		return 2048
	case FlashSize128MMap1024_1024:
		return 4096
	default:
		return 0
	}
}

// Sector returns the calibration sector for m.
//
// Layouts without a known calibration sector, FlashSize2M and
// FlashSize32MMap2048_2048 among them, return 0.
func Sector(m FlashSizeMap) uint32 {
	switch m {
	case FlashSize2M, FlashSize32MMap2048_2048:
		return 0
	}
	n := Sectors(m)
	if n == 0 {
		return 0
	}
	return n - reserved
}

// Offset returns the byte address of the calibration sector for m, or 0
// when there is none.
func Offset(m FlashSizeMap) int64 {
	return int64(Sector(m)) * SectorSize
}
