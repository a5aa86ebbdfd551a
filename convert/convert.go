// Package convert turns input files into the byte form the readers parse: midicsv text for MIDI
// files, project XML for LMMS files.
package convert

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"io"
	"os"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"

	"github.com/QEStudios/ModReader/tracker"
)

// A Converter produces the intermediate text of the file at path.
type Converter interface {
	Convert(path string) ([]byte, error)
}

// Func adapts an ordinary function to the Converter interface.
type Func func(path string) ([]byte, error)

func (f Func) Convert(path string) ([]byte, error) { return f(path) }

// Passthrough returns the file contents unchanged.
var Passthrough = Func(func(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("reading input file"))
	}
	return data, nil
})

// MMPZ unpacks a compressed LMMS project: a big-endian uncompressed size followed by a zlib
// stream.
var MMPZ = Func(func(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("reading input file"))
	}
	return Unpack(data)
})

// Unpack decompresses qCompress'ed data.
func Unpack(data []byte) ([]byte, error) {
	if len(data) < 4 {
		return nil, tracker.InvalidFormat("compressed project too short")
	}
	size := binary.BigEndian.Uint32(data)
	zr, err := zlib.NewReader(bytes.NewReader(data[4:]))
	if err != nil {
		return nil, tracker.InvalidFormat("compressed project: %v", err)
	}
	defer zr.Close()
	out := bytes.NewBuffer(make([]byte, 0, min(size, 1<<24)))
	if _, err := io.Copy(out, zr); err != nil {
		return nil, tracker.InvalidFormat("compressed project: %v", err)
	}
	return out.Bytes(), nil
}
