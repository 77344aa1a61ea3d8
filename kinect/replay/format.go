// Package replay records sensor sessions to a compact binary file and plays them back as a sensor.
//
// A recording starts with the magic "BPREC1" and a 16 byte recording id (a random UUID), followed by a
// zstd stream of little-endian records:
//
//	1 color:     frame number int64, width uint32, height uint32, width*height*3 RGB bytes
//	2 depth:     width uint32, height uint32, width*height uint16 millimeters, width*height player bytes
//	3 skeletons: count uint32, then per skeleton tracking id int32, player uint8, state uint8,
//	             position 3*float64, joint count uint8, then per joint type uint8, 3*float64
//	4 end of tick
package replay

import (
	"github.com/pkg/errors"
)

// ErrBadRecording is returned for input that is not a well formed recording.
var ErrBadRecording = errors.New("bad recording")

const magic = "BPREC1"

type recordKind byte

const (
	kindColor recordKind = iota + 1
	kindDepth
	kindSkeletons
	kindEndOfTick
)

const (
	maxDimension = 4096
	maxSkeletons = 64
	maxJoints    = 32
)

func badRecording(format string, args ...interface{}) error {
	return errors.Wrapf(ErrBadRecording, format, args...)
}
