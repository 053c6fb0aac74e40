// Package endian provides byte order utilities for the binary tables of
// drcov trace files.
//
// The drcov format stores its basic block and hit count tables as packed
// little-endian records regardless of the host architecture. This package
// combines the ByteOrder and AppendByteOrder interfaces from
// encoding/binary into a single engine so codecs can both read in place
// and append without intermediate buffers.
package endian

import (
	"encoding/binary"
	"unsafe"
)

// EndianEngine combines ByteOrder and AppendByteOrder from encoding/binary
// into a single interface. binary.LittleEndian satisfies it directly.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// GetLittleEndianEngine returns the little-endian engine used by every
// drcov binary table.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// CheckEndianness uses a fixed integer value to determine the host's byte order.
func CheckEndianness() binary.ByteOrder {
	// 0x0100 is 256. For a little-endian system, the LSB (0x00) is first.
	var i uint16 = 0x0100
	b := (*[2]byte)(unsafe.Pointer(&i))
	if b[0] == 0x01 {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// IsNativeLittleEndian reports whether the host stores integers
// little-endian, in which case record decoding is a straight copy.
func IsNativeLittleEndian() bool {
	return CheckEndianness() == binary.LittleEndian
}
